package runner

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/visualtest/pkg/errors"
	"github.com/matzehuels/visualtest/pkg/mapstyle"
	"github.com/matzehuels/visualtest/pkg/renderer"
	"github.com/matzehuels/visualtest/pkg/report"
	"github.com/matzehuels/visualtest/pkg/sizes"
)

// Default matrix values, used for every style that does not override them.
var (
	DefaultSizes  = []sizes.Size{{Width: 500, Height: 100}}
	DefaultScales = []float64{1.0, 2.0}
	DefaultTiles  = []sizes.TileGrid{sizes.NoTiles}
)

// Config is the render matrix of one style.
type Config struct {
	Sizes  []sizes.Size
	Scales []float64
	Tiles  []sizes.TileGrid

	// Status is used when a style has no status parameter.
	Status bool
}

// DefaultConfig returns sizes 500x100, scales 1.0 and 2.0, no tiling, and
// styles enabled by default.
func DefaultConfig() Config {
	return Config{
		Sizes:  slices.Clone(DefaultSizes),
		Scales: slices.Clone(DefaultScales),
		Tiles:  slices.Clone(DefaultTiles),
		Status: true,
	}
}

// Clone returns a deep copy; overrides applied to the copy never reach c.
func (c Config) Clone() Config {
	return Config{
		Sizes:  slices.Clone(c.Sizes),
		Scales: slices.Clone(c.Scales),
		Tiles:  slices.Clone(c.Tiles),
		Status: c.Status,
	}
}

// Renderer is a backend the evaluator drives. [renderer.Renderer]
// implements it.
type Renderer interface {
	Name() string
	SupportsTiles() bool
	Test(name string, m *mapstyle.Map, scale float64) report.Result
	TestTiles(name string, m *mapstyle.Map, tiles sizes.TileGrid, scale float64) report.Result
}

// Options configures a Runner.
type Options struct {
	StylesDir    string
	OutputDir    string
	ReferenceDir string
	Overwrite    bool
	Jobs         int

	// Defaults is the matrix every style starts from. Empty lists fall
	// back to the package defaults. Status is taken as given, so start
	// from DefaultConfig to keep styles enabled.
	Defaults Config

	// Kinds selects the backends built from the directory settings above.
	// Empty means every compiled-in backend.
	Kinds []renderer.Kind

	// Renderers, when set, is used instead of building backends from Kinds.
	Renderers []Renderer

	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults checks required fields and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.StylesDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "styles directory is required")
	}
	if o.Jobs < 1 {
		o.Jobs = 1
	}
	if o.OutputDir == "" {
		o.OutputDir = renderer.DefaultOutputDir
	}
	if o.ReferenceDir == "" {
		o.ReferenceDir = renderer.DefaultReferenceDir
	}
	if len(o.Defaults.Sizes) == 0 {
		o.Defaults.Sizes = slices.Clone(DefaultSizes)
	}
	if len(o.Defaults.Scales) == 0 {
		o.Defaults.Scales = slices.Clone(DefaultScales)
	}
	if len(o.Defaults.Tiles) == 0 {
		o.Defaults.Tiles = slices.Clone(DefaultTiles)
	}
	for _, s := range o.Defaults.Scales {
		if s <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "scale factor must be positive, got %g", s)
		}
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	if len(o.Renderers) == 0 {
		set, err := renderer.NewSet(o.Kinds,
			renderer.WithOutputDir(o.OutputDir),
			renderer.WithReferenceDir(o.ReferenceDir),
			renderer.WithOverwrite(o.Overwrite),
		)
		if err != nil {
			return fmt.Errorf("renderers: %w", err)
		}
		for _, r := range set {
			o.Renderers = append(o.Renderers, r)
		}
	}
	if len(o.Renderers) == 0 {
		return errors.New(errors.ErrCodeUnsupported, "no renderer backends are available")
	}

	o.validated = true
	return nil
}
