// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about test runs, style evaluation, and data source access.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are called from worker goroutines; implementations must be safe for
// concurrent use.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRunnerHooks(&myRunnerHooks{})
//	    observability.SetDatasourceHooks(&myDatasourceHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Runner().OnStyleStart(ctx, name)
//	// ... evaluate the style ...
//	observability.Runner().OnStyleComplete(ctx, name, results, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Runner Hooks
// =============================================================================

// RunnerHooks receives events from the parallel test runner.
type RunnerHooks interface {
	// Run events
	OnRunStart(ctx context.Context, files, jobs int)
	OnRunComplete(ctx context.Context, results int, duration time.Duration)

	// Worker events, one pair per chunk of files
	OnWorkerStart(ctx context.Context, worker, files int)
	OnWorkerComplete(ctx context.Context, worker, results int, duration time.Duration)

	// Style events. err is nil for skipped styles; OnStyleSkipped is
	// called before OnStyleComplete for those.
	OnStyleStart(ctx context.Context, name string)
	OnStyleSkipped(ctx context.Context, name string, reason error)
	OnStyleComplete(ctx context.Context, name string, results int, duration time.Duration, err error)
}

// =============================================================================
// Datasource Hooks
// =============================================================================

// DatasourceHooks receives events from data source plugins.
type DatasourceHooks interface {
	// OnOpen records a data source being read.
	OnOpen(ctx context.Context, kind string, features int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRunnerHooks is a no-op implementation of RunnerHooks.
type NoopRunnerHooks struct{}

func (NoopRunnerHooks) OnRunStart(context.Context, int, int)                      {}
func (NoopRunnerHooks) OnRunComplete(context.Context, int, time.Duration)         {}
func (NoopRunnerHooks) OnWorkerStart(context.Context, int, int)                   {}
func (NoopRunnerHooks) OnWorkerComplete(context.Context, int, int, time.Duration) {}
func (NoopRunnerHooks) OnStyleStart(context.Context, string)                      {}
func (NoopRunnerHooks) OnStyleSkipped(context.Context, string, error)             {}
func (NoopRunnerHooks) OnStyleComplete(context.Context, string, int, time.Duration, error) {
}

// NoopDatasourceHooks is a no-op implementation of DatasourceHooks.
type NoopDatasourceHooks struct{}

func (NoopDatasourceHooks) OnOpen(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	runnerHooks     RunnerHooks     = NoopRunnerHooks{}
	datasourceHooks DatasourceHooks = NoopDatasourceHooks{}
	hooksMu         sync.RWMutex
)

// SetRunnerHooks registers custom runner hooks.
// This should be called once at application startup before any run.
func SetRunnerHooks(h RunnerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		runnerHooks = h
	}
}

// SetDatasourceHooks registers custom data source hooks.
// This should be called once at application startup before any style is loaded.
func SetDatasourceHooks(h DatasourceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		datasourceHooks = h
	}
}

// Runner returns the registered runner hooks.
func Runner() RunnerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return runnerHooks
}

// Datasource returns the registered data source hooks.
func Datasource() DatasourceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return datasourceHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	runnerHooks = NoopRunnerHooks{}
	datasourceHooks = NoopDatasourceHooks{}
}
