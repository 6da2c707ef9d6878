// Package report defines render results and the sinks that receive them.
//
// Every evaluated (style, size, scale, tile grid, renderer) combination
// produces one [Result]. The runner hands each result to a [Sink] as soon as
// it exists, from whichever worker goroutine produced it, so every Sink in
// this package is safe for concurrent use:
//
//   - [Collector]: keeps results in memory
//   - [Counter]: per-state counts
//   - [Funnel]: serializes results onto one goroutine for sinks that are not
//     goroutine-safe themselves
//   - [Multi]: fans one result out to several sinks
//   - [JSONLines]: one JSON document per line
//   - [RedisSink], [MongoSink]: publish results to a shared store
package report

import (
	"fmt"
	"time"

	"github.com/matzehuels/visualtest/pkg/sizes"
)

// State is the outcome of one render.
type State string

const (
	StateOK        State = "OK"        // matches the reference
	StateFail      State = "FAIL"      // differs from the reference
	StateError     State = "ERROR"     // could not be rendered or compared
	StateSkipped   State = "SKIPPED"   // no reference to compare against
	StateOverwrite State = "OVERWRITE" // reference was (re)written
)

// States lists every state in display order.
var States = []State{StateOK, StateFail, StateError, StateSkipped, StateOverwrite}

// Failed reports whether the state should fail a run.
func (s State) Failed() bool {
	return s == StateFail || s == StateError
}

// Result is the outcome of one render, or of one style file that could not
// be evaluated at all (then only Name, State and ErrorMessage are set).
type Result struct {
	Name          string         `json:"name" bson:"name"`
	State         State          `json:"state" bson:"state"`
	ErrorMessage  string         `json:"error_message,omitempty" bson:"error_message,omitempty"`
	Renderer      string         `json:"renderer,omitempty" bson:"renderer,omitempty"`
	Size          sizes.Size     `json:"size" bson:"size"`
	ScaleFactor   float64        `json:"scale_factor,omitempty" bson:"scale_factor,omitempty"`
	Tiles         sizes.TileGrid `json:"tiles" bson:"tiles"`
	Diff          int            `json:"diff,omitempty" bson:"diff,omitempty"`
	ActualPath    string         `json:"actual_path,omitempty" bson:"actual_path,omitempty"`
	ReferencePath string         `json:"reference_path,omitempty" bson:"reference_path,omitempty"`
	Duration      time.Duration  `json:"duration_ns,omitempty" bson:"duration_ns,omitempty"`
}

// Label describes the render configuration, e.g. "agg 500x100 2.0x" or
// "agg 500x100 2x1 tiles 1.0x". Synthetic file errors have no renderer and
// return "".
func (r Result) Label() string {
	if r.Renderer == "" {
		return ""
	}
	if r.Tiles.Width > 0 && !r.Tiles.IsSingle() {
		return fmt.Sprintf("%s %s %s tiles %.1fx", r.Renderer, r.Size, r.Tiles, r.ScaleFactor)
	}
	return fmt.Sprintf("%s %s %.1fx", r.Renderer, r.Size, r.ScaleFactor)
}

// ErrorResult builds the single synthetic result reported for a style file
// whose evaluation failed.
func ErrorResult(name string, err error) Result {
	return Result{Name: name, State: StateError, ErrorMessage: err.Error()}
}
