package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/visualtest/pkg/errors"
	"github.com/matzehuels/visualtest/pkg/report"
	"github.com/matzehuels/visualtest/pkg/runner"
	"github.com/matzehuels/visualtest/pkg/sizes"
)

// displayMode selects how results are shown while a run is in progress.
type displayMode int

const (
	displayFull  displayMode = iota // one line per result
	displayShort                    // one character per result
	displayQuiet                    // spinner, failures at the end
	displayTUI                      // bubbletea progress view
)

// runFlags holds the flag values of the run command. Only flags the user
// set override the config file.
type runFlags struct {
	configPath   string
	stylesDir    string
	outputDir    string
	referenceDir string
	overwrite    bool
	jobs         int
	renderers    []string
	sizes        string
	scales       string
	tiles        string
	jsonPath     string
	jsonlPath    string
	redisAddr    string
	mongoURI     string

	short bool
	quiet bool
	tui   bool
}

// apply copies every changed flag onto cfg.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config) error {
	changed := cmd.Flags().Changed
	if changed("styles-dir") {
		cfg.StylesDir = f.stylesDir
	}
	if changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if changed("reference-dir") {
		cfg.ReferenceDir = f.referenceDir
	}
	if changed("overwrite") {
		cfg.Overwrite = f.overwrite
	}
	if changed("jobs") {
		cfg.Jobs = f.jobs
	}
	if changed("renderer") {
		cfg.Renderers = f.renderers
	}
	if changed("sizes") {
		cfg.Sizes = f.sizes
	}
	if changed("scales") {
		scales, err := sizes.ParseScales(f.scales)
		if err != nil {
			return err
		}
		cfg.Scales = scales
	}
	if changed("tiles") {
		cfg.Tiles = f.tiles
	}
	if changed("json") {
		cfg.Report.JSON = f.jsonPath
	}
	if changed("jsonl") {
		cfg.Report.JSONLines = f.jsonlPath
	}
	if changed("redis") {
		cfg.Report.RedisAddr = f.redisAddr
	}
	if changed("mongo") {
		cfg.Report.MongoURI = f.mongoURI
	}
	return nil
}

// register binds the flags to cmd.
func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "config file (default "+defaultConfigFile+" if present)")
	fs.StringVar(&f.stylesDir, "styles-dir", "", "directory containing style files")
	fs.StringVar(&f.outputDir, "output-dir", "", "directory for rendered images that differ from their reference")
	fs.StringVar(&f.referenceDir, "reference-dir", "", "directory containing reference images")
	fs.BoolVar(&f.overwrite, "overwrite", false, "write missing or differing references instead of failing")
	fs.IntVarP(&f.jobs, "jobs", "j", 1, "number of parallel workers")
	fs.StringArrayVar(&f.renderers, "renderer", nil, "backend to test with (repeatable, default all compiled-in)")
	fs.StringVar(&f.sizes, "sizes", "", `default image sizes, e.g. "500x100,256x256"`)
	fs.StringVar(&f.scales, "scales", "", `default scale factors, e.g. "1.0,2.0"`)
	fs.StringVar(&f.tiles, "tiles", "", `default tile grids, e.g. "1x1,2x2"`)
	fs.StringVar(&f.jsonPath, "json", "", "write a JSON run report to this file")
	fs.StringVar(&f.jsonlPath, "jsonl", "", "stream results as JSON lines to this file while running")
	fs.StringVar(&f.redisAddr, "redis", "", "also push results to the Redis server at this address")
	fs.StringVar(&f.mongoURI, "mongo", "", "also insert results into the MongoDB at this URI")
	fs.BoolVarP(&f.short, "short", "s", false, "print one character per result")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "show only a spinner and the failures")
	fs.BoolVar(&f.tui, "tui", false, "show an interactive progress view")
}

func (f *runFlags) display() (displayMode, error) {
	n := 0
	mode := displayFull
	if f.short {
		n, mode = n+1, displayShort
	}
	if f.quiet {
		n, mode = n+1, displayQuiet
	}
	if f.tui {
		n, mode = n+1, displayTUI
	}
	if n > 1 {
		return displayFull, errors.New(errors.ErrCodeInvalidInput, "--short, --quiet and --tui are mutually exclusive")
	}
	return mode, nil
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [style...]",
		Short: "Render styles and compare them against reference images",
		Long: `Render every style in the styles directory, or only the named ones, with each
selected backend at every configured size, scale factor and tile grid, and
compare the output against the stored references.

Work is split into --jobs contiguous chunks of the sorted file list and
evaluated in parallel; results are reported in file order. The command
exits with a non-zero status when any result is FAIL or ERROR.`,
		Example: `  visualtest run
  visualtest run -j 8 --short
  visualtest run lines polygons --renderer agg --overwrite
  visualtest run --sizes "256x256,512x128" --tiles "1x1,2x2" --json report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &cfg); err != nil {
				return err
			}
			mode, err := flags.display()
			if err != nil {
				return err
			}
			return c.runTests(cmd.Context(), cfg, mode, args, cmd.OutOrStdout())
		},
	}

	flags.register(cmd)
	_ = cmd.RegisterFlagCompletionFunc("renderer", completeRenderers)

	return cmd
}

// runTests performs one run and writes the summary to out. It returns an
// error when any result failed.
func (c *CLI) runTests(ctx context.Context, cfg config, mode displayMode, names []string, out io.Writer) error {
	logger := loggerFromContext(ctx)
	installHooks(logger)

	opts, err := cfg.runnerOptions(logger)
	if err != nil {
		return err
	}
	r, err := runner.New(opts)
	if err != nil {
		return err
	}

	run := report.NewRun(rendererNames(r.Renderers()), r.Jobs())
	logger.Debug("starting run", "id", run.ID, "styles", cfg.StylesDir, "renderers", run.Renderers, "jobs", run.Jobs)

	stores, err := openStores(ctx, run.ID, cfg.Report, logger)
	if err != nil {
		return err
	}
	defer stores.close(logger)

	counter := &report.Counter{}
	sinks := []report.Sink{counter}
	queue := newStoreQueue(stores.sinks())
	if queue != nil {
		defer queue.Close()
		sinks = append(sinks, queue)
	}

	var stream *report.JSONLines
	if cfg.Report.JSONLines != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Report.JSONLines), 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", cfg.Report.JSONLines)
		}
		f, err := os.Create(cfg.Report.JSONLines)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", cfg.Report.JSONLines)
		}
		defer f.Close()
		stream = report.NewJSONLines(f)
		sinks = append(sinks, stream)
	}

	var (
		console *consoleSink
		spinner *Spinner
		ui      *tuiSink
	)
	switch mode {
	case displayFull, displayShort:
		console = newConsoleSink(out, mode == displayShort)
		sinks = append(sinks, console)
	case displayQuiet:
		spinner = newSpinnerWithContext(ctx, os.Stderr, func() string {
			return fmt.Sprintf("Rendering... %d results", counter.Summary().Total())
		})
		spinner.Start()
	case displayTUI:
		ui = startTUI(ctx, out)
		sinks = append(sinks, ui)
	}

	prog := newProgress(logger)
	var results []report.Result
	if len(names) == 0 {
		results, err = r.RunAll(ctx, report.Multi(sinks...))
	} else {
		results, err = r.RunNamed(ctx, names, report.Multi(sinks...))
	}

	switch {
	case console != nil:
		console.finish()
	case spinner != nil:
		spinner.Stop()
		if spinner.Cancelled() {
			printWarning("Interrupted after %d results", counter.Summary().Total())
		}
	case ui != nil:
		if uiErr := ui.finish(); uiErr != nil {
			logger.Warn("progress view failed", "err", uiErr)
		}
	}
	if err != nil {
		return err
	}
	run.Finish(results)

	if mode != displayFull {
		printFailures(out, results)
	}
	printSummary(out, run.Summary, prog.elapsed())

	if cfg.Report.JSON != "" {
		if err := run.WriteFile(cfg.Report.JSON); err != nil {
			return err
		}
		logger.Info("wrote report", "path", cfg.Report.JSON)
	}
	if queue != nil {
		queue.Close()
	}
	if stream != nil {
		if err := stream.Err(); err != nil {
			logger.Warn("result stream incomplete", "path", cfg.Report.JSONLines, "err", err)
		}
	}
	stores.check(logger)

	if err := ctx.Err(); err != nil {
		return err
	}
	if n := run.Summary.Failed(); n > 0 {
		return fmt.Errorf("%d of %d visual tests failed", n, run.Summary.Total())
	}
	return nil
}

func rendererNames(rs []runner.Renderer) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name()
	}
	return out
}

// =============================================================================
// Result stores
// =============================================================================

// resultStores holds the optional Redis and MongoDB sinks of a run.
type resultStores struct {
	redis *report.RedisSink
	mongo *report.MongoSink
}

func openStores(ctx context.Context, runID string, cfg reportConfig, logger *log.Logger) (*resultStores, error) {
	s := &resultStores{}
	if cfg.RedisAddr != "" {
		sink, err := report.NewRedisSink(ctx, runID, report.RedisConfig{
			Addr:    cfg.RedisAddr,
			Key:     cfg.RedisKey,
			Channel: cfg.RedisChannel,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("publishing results to redis", "addr", cfg.RedisAddr, "key", sink.Key())
		s.redis = sink
	}
	if cfg.MongoURI != "" {
		sink, err := report.NewMongoSink(ctx, runID, report.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			s.close(logger)
			return nil, err
		}
		logger.Info("inserting results into mongodb")
		s.mongo = sink
	}
	return s, nil
}

// storeQueueSize is how many results may wait for the stores before
// workers block.
const storeQueueSize = 256

// newStoreQueue moves store writes off the worker goroutines. It returns
// nil when there are no stores.
func newStoreQueue(stores []report.Sink) *report.Funnel {
	if len(stores) == 0 {
		return nil
	}
	return report.NewFunnel(report.Multi(stores...), storeQueueSize)
}

func (s *resultStores) sinks() []report.Sink {
	var out []report.Sink
	if s.redis != nil {
		out = append(out, s.redis)
	}
	if s.mongo != nil {
		out = append(out, s.mongo)
	}
	return out
}

// check logs the first write error of each store.
func (s *resultStores) check(logger *log.Logger) {
	if s.redis != nil {
		if err := s.redis.Err(); err != nil {
			logger.Warn("some results were not stored in redis", "err", err)
		}
	}
	if s.mongo != nil {
		if err := s.mongo.Err(); err != nil {
			logger.Warn("some results were not stored in mongodb", "err", err)
		}
	}
}

func (s *resultStores) close(logger *log.Logger) {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.Debug("close redis", "err", err)
		}
		s.redis = nil
	}
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mongo.Close(ctx); err != nil {
			logger.Debug("close mongodb", "err", err)
		}
		s.mongo = nil
	}
}
