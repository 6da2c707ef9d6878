// Package cli implements the visualtest command-line interface.
//
// The run command renders every style in a directory with each compiled-in
// backend and compares the output to stored references. Results stream to
// the console (full or dot mode), a bubbletea progress view, a JSON report
// file, and optionally Redis and MongoDB.
//
// # Commands
//
//   - run: render styles and compare them against references
//   - renderers: list compiled-in backends and their capabilities
//   - serve: browse a saved JSON report over HTTP
//   - clean: remove rendered artifacts from the output directory
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports per-worker and per-style timings. Loggers are passed through
// context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/visualtest/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Evaluated 12 styles (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, p.elapsed())
}

func (p *progress) elapsed() time.Duration {
	return time.Since(p.start).Round(time.Millisecond)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Hooks
// =============================================================================

// logHooks reports runner and data source events at debug level. It is
// installed for every run; at info level the messages are simply dropped.
type logHooks struct {
	observability.NoopRunnerHooks
	logger *log.Logger
}

func (h logHooks) OnRunStart(_ context.Context, files, jobs int) {
	h.logger.Debug("run started", "files", files, "jobs", jobs)
}

func (h logHooks) OnWorkerComplete(_ context.Context, worker, results int, d time.Duration) {
	h.logger.Debug("worker finished", "worker", worker, "results", results, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnStyleSkipped(_ context.Context, name string, reason error) {
	h.logger.Debug("style skipped", "style", name, "reason", reason)
}

func (h logHooks) OnStyleComplete(_ context.Context, name string, results int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("style failed", "style", name, "err", err)
		return
	}
	h.logger.Debug("style evaluated", "style", name, "results", results, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnOpen(_ context.Context, kind string, features int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("data source failed", "type", kind, "err", err)
		return
	}
	h.logger.Debug("data source opened", "type", kind, "features", features, "duration", d.Round(time.Millisecond))
}

// installHooks routes runner and data source events to logger.
func installHooks(logger *log.Logger) {
	h := logHooks{logger: logger}
	observability.SetRunnerHooks(h)
	observability.SetDatasourceHooks(h)
}
