package report

import (
	"sync"
	"sync/atomic"
)

// Sink receives every result of a run. Report is called concurrently from
// all worker goroutines; implementations synchronize internally.
type Sink interface {
	Report(Result)
}

// SinkFunc adapts a function to Sink. The function must be goroutine-safe.
type SinkFunc func(Result)

// Report calls f(r).
func (f SinkFunc) Report(r Result) { f(r) }

// Discard ignores every result.
var Discard Sink = SinkFunc(func(Result) {})

// =============================================================================
// Collector
// =============================================================================

// Collector keeps every reported result in arrival order.
type Collector struct {
	mu      sync.Mutex
	results []Result
}

// Report appends r.
func (c *Collector) Report(r Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

// Results returns a copy of the results reported so far.
func (c *Collector) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}

// Len returns the number of results reported so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

// =============================================================================
// Counter
// =============================================================================

// Counter counts results per state without storing them.
type Counter struct {
	ok, fail, errored, skipped, overwrite atomic.Int64
}

// Report increments the counter for r.State.
func (c *Counter) Report(r Result) {
	switch r.State {
	case StateOK:
		c.ok.Add(1)
	case StateFail:
		c.fail.Add(1)
	case StateError:
		c.errored.Add(1)
	case StateSkipped:
		c.skipped.Add(1)
	case StateOverwrite:
		c.overwrite.Add(1)
	}
}

// Summary returns a snapshot of the counts.
func (c *Counter) Summary() Summary {
	return Summary{
		OK:        int(c.ok.Load()),
		Fail:      int(c.fail.Load()),
		Error:     int(c.errored.Load()),
		Skipped:   int(c.skipped.Load()),
		Overwrite: int(c.overwrite.Load()),
	}
}

// Summary holds per-state counts.
type Summary struct {
	OK        int `json:"ok"`
	Fail      int `json:"fail"`
	Error     int `json:"error"`
	Skipped   int `json:"skipped"`
	Overwrite int `json:"overwrite"`
}

// Summarize counts results per state.
func Summarize(results []Result) Summary {
	var c Counter
	for _, r := range results {
		c.Report(r)
	}
	return c.Summary()
}

// Total returns the number of results counted.
func (s Summary) Total() int {
	return s.OK + s.Fail + s.Error + s.Skipped + s.Overwrite
}

// Failed returns the number of FAIL and ERROR results.
func (s Summary) Failed() int {
	return s.Fail + s.Error
}

// Count returns the count for one state.
func (s Summary) Count(state State) int {
	switch state {
	case StateOK:
		return s.OK
	case StateFail:
		return s.Fail
	case StateError:
		return s.Error
	case StateSkipped:
		return s.Skipped
	case StateOverwrite:
		return s.Overwrite
	}
	return 0
}

// =============================================================================
// Multi
// =============================================================================

// Multi forwards every result to each sink in order. Nil sinks are dropped.
func Multi(sinks ...Sink) Sink {
	var out multi
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multi []Sink

func (m multi) Report(r Result) {
	for _, s := range m {
		s.Report(r)
	}
}

// =============================================================================
// Funnel
// =============================================================================

// Funnel serializes results from any number of goroutines onto a single
// consuming goroutine, so the wrapped sink never sees concurrent calls.
// Close must be called once all producers are done.
type Funnel struct {
	ch   chan Result
	done chan struct{}
	once sync.Once
}

// NewFunnel starts the consuming goroutine for dst. buffer is the channel
// capacity; producers block when it is full.
func NewFunnel(dst Sink, buffer int) *Funnel {
	f := &Funnel{
		ch:   make(chan Result, buffer),
		done: make(chan struct{}),
	}
	go func() {
		defer close(f.done)
		for r := range f.ch {
			dst.Report(r)
		}
	}()
	return f
}

// Report queues r for the consuming goroutine. It must not be called after
// Close.
func (f *Funnel) Report(r Result) {
	f.ch <- r
}

// Close stops accepting results and waits until every queued result has
// been delivered. It is safe to call more than once.
func (f *Funnel) Close() {
	f.once.Do(func() { close(f.ch) })
	<-f.done
}
