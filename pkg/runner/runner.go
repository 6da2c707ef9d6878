// Package runner evaluates a directory of style documents against every
// configured renderer.
//
// A run splits the style files into contiguous chunks, one per job, and
// evaluates each chunk on its own goroutine. Within a chunk every style is
// loaded, its render matrix (sizes × scales × tile grids) is expanded, and
// each configuration is handed to every renderer. Each result is sent to the
// caller's [report.Sink] the moment it exists, so the sink sees results from
// all workers interleaved; the returned slice is ordered by chunk.
//
// Failures are contained per file: a style whose data source is
// unavailable, or that disables itself with status=0, yields nothing, and a
// style that fails in any other way yields a single ERROR result while the
// worker carries on.
package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/visualtest/pkg/errors"
	"github.com/matzehuels/visualtest/pkg/mapstyle"
	"github.com/matzehuels/visualtest/pkg/observability"
	"github.com/matzehuels/visualtest/pkg/report"
	"github.com/matzehuels/visualtest/pkg/sizes"
)

// Runner runs style documents through the renderers. It keeps no state
// between runs and may be reused.
type Runner struct {
	opts   Options
	logger *log.Logger
}

// New validates opts and returns a runner.
func New(opts Options) (*Runner, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Runner{opts: opts, logger: opts.Logger}, nil
}

// Renderers returns the backends every style is rendered with.
func (r *Runner) Renderers() []Renderer {
	return r.opts.Renderers
}

// Jobs returns the requested number of parallel workers.
func (r *Runner) Jobs() int {
	return r.opts.Jobs
}

// RunAll evaluates every style document in the styles directory. Only an
// unreadable directory is returned as an error.
func (r *Runner) RunAll(ctx context.Context, sink report.Sink) ([]report.Result, error) {
	entries, err := os.ReadDir(r.opts.StylesDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read styles directory %s", r.opts.StylesDir)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, filepath.Join(r.opts.StylesDir, e.Name()))
	}
	return r.run(ctx, files, sink), nil
}

// RunNamed evaluates the named styles. Each name is resolved inside the
// styles directory; the style suffix is appended unless the name already
// ends in it, so "roads.v2" resolves to "roads.v2.xml".
func (r *Runner) RunNamed(ctx context.Context, names []string, sink report.Sink) ([]report.Result, error) {
	files := make([]string, 0, len(names))
	for _, name := range names {
		if err := errors.ValidateStyleName(name); err != nil {
			return nil, err
		}
		if !mapstyle.IsStyleFile(name) {
			name += mapstyle.Extension
		}
		files = append(files, filepath.Join(r.opts.StylesDir, name))
	}
	return r.run(ctx, files, sink), nil
}

// run splits files into chunks and evaluates them, synchronously for a
// single chunk and on one goroutine per chunk otherwise. Results are joined
// in chunk order.
func (r *Runner) run(ctx context.Context, files []string, sink report.Sink) []report.Result {
	if len(files) == 0 {
		return nil
	}
	if sink == nil {
		sink = report.Discard
	}

	start := time.Now()
	chunks := splitChunks(len(files), r.opts.Jobs)
	observability.Runner().OnRunStart(ctx, len(files), len(chunks))
	r.logger.Debug("starting run", "files", len(files), "jobs", len(chunks))

	var results []report.Result
	if len(chunks) == 1 {
		results = r.evaluateRange(ctx, 0, files, sink)
	} else {
		parts := make([][]report.Result, len(chunks))
		var g errgroup.Group
		for i, c := range chunks {
			g.Go(func() error {
				parts[i] = r.evaluateRange(ctx, i, files[c[0]:c[1]], sink)
				return nil
			})
		}
		_ = g.Wait() // workers report failures as results and never return an error
		for _, p := range parts {
			results = append(results, p...)
		}
	}

	observability.Runner().OnRunComplete(ctx, len(results), time.Since(start))
	return results
}

// splitChunks returns [lo, hi) bounds of jobs contiguous chunks over n
// items. The last chunk takes the remainder. When there are more jobs than
// items a single chunk covers everything.
func splitChunks(n, jobs int) [][2]int {
	if jobs < 1 {
		jobs = 1
	}
	size := n / jobs
	if size == 0 {
		jobs, size = 1, n
	}
	out := make([][2]int, jobs)
	for i := range out {
		lo := i * size
		hi := lo + size
		if i == jobs-1 {
			hi = n
		}
		out[i] = [2]int{lo, hi}
	}
	return out
}

// evaluateRange evaluates files in order. Files without the style suffix
// are ignored. A failing style becomes one ERROR result, which is also
// reported, and the worker moves on.
func (r *Runner) evaluateRange(ctx context.Context, worker int, files []string, sink report.Sink) []report.Result {
	start := time.Now()
	observability.Runner().OnWorkerStart(ctx, worker, len(files))

	var results []report.Result
	for _, path := range files {
		if !mapstyle.IsStyleFile(path) {
			continue
		}
		res, err := r.evaluateSafely(ctx, path, sink)
		if err != nil {
			r.logger.Warn("style failed", "style", path, "worker", worker, "err", err)
			res = []report.Result{report.ErrorResult(path, err)}
			sink.Report(res[0])
		}
		results = append(results, res...)
	}

	observability.Runner().OnWorkerComplete(ctx, worker, len(results), time.Since(start))
	return results
}

// evaluateSafely turns a panic inside one style into an error.
func (r *Runner) evaluateSafely(ctx context.Context, path string, sink report.Sink) (results []report.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			results = nil
			err = errors.New(errors.ErrCodeInternal, "panic while evaluating style: %v", p)
		}
	}()
	return r.evaluateStyle(ctx, path, sink)
}

// evaluateStyle loads one style and runs its render matrix. The returned
// error aborts the style; results already reported stay reported.
func (r *Runner) evaluateStyle(ctx context.Context, path string, sink report.Sink) ([]report.Result, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	hooks := observability.Runner()
	start := time.Now()
	hooks.OnStyleStart(ctx, name)

	results, err := r.evaluate(ctx, path, name, sink)
	hooks.OnStyleComplete(ctx, name, len(results), time.Since(start), err)
	return results, err
}

func (r *Runner) evaluate(ctx context.Context, path, name string, sink report.Sink) ([]report.Result, error) {
	cfg := r.opts.Defaults.Clone()

	first := cfg.Sizes[0]
	m := mapstyle.NewMap(first.Width, first.Height)
	if err := mapstyle.Load(ctx, m, path); err != nil {
		if errors.IsUnavailable(err) {
			r.logger.Debug("skipping style, data source unavailable", "style", name, "err", err)
			observability.Runner().OnStyleSkipped(ctx, name, err)
			return nil, nil
		}
		return nil, err
	}

	def := int64(0)
	if cfg.Status {
		def = 1
	}
	status, err := m.Params.Int("status", def)
	if err != nil {
		return nil, err
	}
	if status == 0 {
		r.logger.Debug("skipping disabled style", "style", name)
		observability.Runner().OnStyleSkipped(ctx, name, nil)
		return nil, nil
	}

	if v, ok := m.Params.String("sizes"); ok {
		if cfg.Sizes, err = sizes.Parse(v); err != nil {
			return nil, err
		}
	}
	if v, ok := m.Params.String("tiles"); ok {
		if cfg.Tiles, err = sizes.ParseTiles(v); err != nil {
			return nil, err
		}
	}
	var bbox mapstyle.Box
	hasBox := false
	if v, ok := m.Params.String("bbox"); ok {
		if b, err := mapstyle.ParseBox(v); err != nil {
			r.logger.Debug("ignoring bbox, using the full extent", "style", name, "err", err)
		} else {
			bbox, hasBox = b, true
		}
	}

	var results []report.Result
	for _, size := range cfg.Sizes {
		for _, scale := range cfg.Scales {
			for _, tiles := range cfg.Tiles {
				if err := tiles.Validate(size); err != nil {
					return nil, err
				}
				m.Resize(size.Width, size.Height)
				if hasBox {
					m.ZoomToBox(bbox)
				} else {
					m.ZoomAll()
				}

				for _, rd := range r.opts.Renderers {
					var res report.Result
					switch {
					case tiles.IsSingle():
						res = rd.Test(name, m, scale)
					case rd.SupportsTiles():
						res = rd.TestTiles(name, m, tiles, scale)
					default:
						continue
					}
					sink.Report(res)
					results = append(results, res)
				}
			}
		}
	}
	return results, nil
}
