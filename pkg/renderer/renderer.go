package renderer

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/visualtest/pkg/errors"
	"github.com/matzehuels/visualtest/pkg/mapstyle"
	"github.com/matzehuels/visualtest/pkg/report"
	"github.com/matzehuels/visualtest/pkg/sizes"
)

// Kind identifies a rendering backend.
type Kind string

const (
	KindAGG    Kind = "agg"
	KindVector Kind = "vector"
	KindSVG    Kind = "svg"
	KindGrid   Kind = "grid"
)

// Kinds lists every backend in run order, compiled in or not.
var Kinds = []Kind{KindAGG, KindVector, KindSVG, KindGrid}

const (
	DefaultOutputDir    = "visual-test-output"
	DefaultReferenceDir = "visual-test-reference"
)

// engine draws a view of a map into an artifact.
type engine interface {
	render(m *mapstyle.Map, view mapstyle.Box, w, h int, scale float64) (artifact, error)
}

// rasterEngine is an engine whose output can be stitched from tiles.
type rasterEngine interface {
	engine
	draw(m *mapstyle.Map, view mapstyle.Box, w, h int, scale float64) (*image.NRGBA, error)
}

type backend struct {
	engine engine
	ext    string
	tiles  bool
}

var backends = map[Kind]backend{}

// register is called from the init function of each backend file.
func register(k Kind, b backend) {
	if _, ok := b.engine.(rasterEngine); b.tiles && !ok {
		panic(fmt.Sprintf("renderer: %s supports tiles but cannot draw rasters", k))
	}
	backends[k] = b
}

// Available returns the compiled-in backends in run order.
func Available() []Kind {
	var out []Kind
	for _, k := range Kinds {
		if _, ok := backends[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// ParseKind resolves a backend name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k != known {
			continue
		}
		if _, ok := backends[k]; !ok {
			return "", errors.New(errors.ErrCodeUnsupported, "renderer %q is not compiled in", s)
		}
		return k, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown renderer %q", s)
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithOutputDir sets where actual artifacts of failed and skipped tests go.
func WithOutputDir(dir string) Option { return func(r *Renderer) { r.outputDir = dir } }

// WithReferenceDir sets where reference artifacts are read and written.
func WithReferenceDir(dir string) Option { return func(r *Renderer) { r.referenceDir = dir } }

// WithOverwrite makes missing or differing references be replaced.
func WithOverwrite(v bool) Option { return func(r *Renderer) { r.overwrite = v } }

// WithThreshold sets the per-channel tolerance of raster comparisons.
func WithThreshold(t uint8) Option { return func(r *Renderer) { r.threshold = t } }

// Renderer renders maps with one backend and compares the result against
// its references. It holds no per-render state and is safe for concurrent
// use with distinct maps.
type Renderer struct {
	kind    Kind
	backend backend

	outputDir    string
	referenceDir string
	overwrite    bool
	threshold    uint8
}

// New returns a renderer for a compiled-in backend.
func New(kind Kind, opts ...Option) (*Renderer, error) {
	b, ok := backends[kind]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "renderer %q is not compiled in", kind)
	}
	r := &Renderer{
		kind:         kind,
		backend:      b,
		outputDir:    DefaultOutputDir,
		referenceDir: DefaultReferenceDir,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewSet returns one renderer per kind, sharing opts. An empty kinds list
// selects every available backend.
func NewSet(kinds []Kind, opts ...Option) ([]*Renderer, error) {
	if len(kinds) == 0 {
		kinds = Available()
	}
	out := make([]*Renderer, 0, len(kinds))
	for _, k := range kinds {
		r, err := New(k, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Kind returns the backend kind.
func (r *Renderer) Kind() Kind { return r.kind }

// Name returns the backend name used in results and file names.
func (r *Renderer) Name() string { return string(r.kind) }

// Ext returns the artifact file extension including the dot.
func (r *Renderer) Ext() string { return r.backend.ext }

// SupportsTiles reports whether TestTiles can be used.
func (r *Renderer) SupportsTiles() bool { return r.backend.tiles }

// Test renders m as a single image and compares it.
func (r *Renderer) Test(name string, m *mapstyle.Map, scale float64) report.Result {
	return r.test(name, m, sizes.NoTiles, scale)
}

// TestTiles renders m as a tiles grid, stitches the tiles and compares the
// stitched image. Backends without tile support return an ERROR result.
func (r *Renderer) TestTiles(name string, m *mapstyle.Map, tiles sizes.TileGrid, scale float64) report.Result {
	return r.test(name, m, tiles, scale)
}

// FileName returns the artifact name for one configuration.
func (r *Renderer) FileName(name string, size sizes.Size, tiles sizes.TileGrid, scale float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s-%d-%d", name, size.Width, size.Height)
	if !tiles.IsSingle() {
		fmt.Fprintf(&b, "-%dx%d", tiles.Width, tiles.Height)
	}
	fmt.Fprintf(&b, "-%.1f-%s%s", scale, r.kind, r.backend.ext)
	return b.String()
}

func (r *Renderer) test(name string, m *mapstyle.Map, tiles sizes.TileGrid, scale float64) report.Result {
	start := time.Now()
	size := sizes.Size{Width: m.Width(), Height: m.Height()}
	res := report.Result{
		Name:        name,
		Renderer:    r.Name(),
		Size:        size,
		ScaleFactor: scale,
		Tiles:       tiles,
	}
	done := func(state report.State, err error) report.Result {
		res.State = state
		if err != nil {
			res.ErrorMessage = err.Error()
		}
		res.Duration = time.Since(start)
		return res
	}

	art, err := r.render(m, size, tiles, scale)
	if err != nil {
		return done(report.StateError, err)
	}

	file := r.FileName(name, size, tiles, scale)
	res.ReferencePath = filepath.Join(r.referenceDir, file)
	diff, err := art.compare(res.ReferencePath, r.threshold)
	missing := errors.Is(err, errors.ErrCodeNotFound)
	if err != nil && !missing {
		return done(report.StateError, err)
	}

	if r.overwrite && (missing || diff > 0) {
		if err := art.save(res.ReferencePath); err != nil {
			return done(report.StateError, err)
		}
		res.Diff = diff
		return done(report.StateOverwrite, nil)
	}

	if missing || diff > 0 {
		res.ActualPath = filepath.Join(r.outputDir, file)
		if err := art.save(res.ActualPath); err != nil {
			return done(report.StateError, err)
		}
	}
	if missing {
		return done(report.StateSkipped, nil)
	}
	if diff > 0 {
		res.Diff = diff
		return done(report.StateFail, nil)
	}
	return done(report.StateOK, nil)
}

func (r *Renderer) render(m *mapstyle.Map, size sizes.Size, tiles sizes.TileGrid, scale float64) (artifact, error) {
	w, h := int(size.Width), int(size.Height)
	if w == 0 || h == 0 {
		return nil, errors.New(errors.ErrCodeRenderConfig, "cannot render an empty image (%s)", size)
	}
	if tiles.IsSingle() {
		return r.backend.engine.render(m, m.View(), w, h, scale)
	}

	raster, ok := r.backend.engine.(rasterEngine)
	if !ok || !r.backend.tiles {
		return nil, errors.New(errors.ErrCodeUnsupported, "renderer %s does not support tiles", r.kind)
	}
	if err := tiles.Validate(size); err != nil {
		return nil, err
	}

	tile := tiles.TileSize(size)
	view := m.View()
	canvas := imaging.New(w, h, color.NRGBA{})
	for row := uint(0); row < tiles.Height; row++ {
		for col := uint(0); col < tiles.Width; col++ {
			img, err := raster.draw(m, view.Sub(col, row, tiles.Width, tiles.Height), int(tile.Width), int(tile.Height), scale)
			if err != nil {
				return nil, err
			}
			canvas = imaging.Paste(canvas, img, image.Pt(int(col*tile.Width), int(row*tile.Height)))
		}
	}
	return rasterArtifact{img: canvas}, nil
}
