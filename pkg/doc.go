// Package pkg provides the libraries behind the visualtest regression runner.
//
// # Overview
//
// Visualtest renders map style documents with several backends and compares
// every image against a stored reference. The pkg directory is organized as:
//
//  1. [mapstyle] - Style documents, data sources and map state
//  2. [renderer] - Rendering backends and the reference comparison policy
//  3. [runner] - Parallel orchestration over style files
//  4. [report] - Results and the sinks that receive them
//  5. [sizes] - Size-list, tile-grid and scale-list parsing
//
// Supporting packages: [errors] (coded errors), [observability] (hooks),
// [buildinfo] (version stamping).
//
// # Architecture
//
// The data flow of one run:
//
//	styles directory (sorted *.xml)
//	         ↓
//	    [runner] splits the file list into contiguous chunks, one per job
//	         ↓
//	    [mapstyle] loads each style and its data sources
//	         ↓
//	    sizes × scale factors × tile grids × [renderer] backends
//	         ↓
//	    [report] results, streamed to sinks and joined in file order
//
// # Quick Start
//
//	r, err := runner.New(runner.Options{
//	    StylesDir: "test/visual/styles",
//	    Jobs:      runtime.NumCPU(),
//	    Defaults:  runner.DefaultConfig(),
//	})
//	if err != nil {
//	    return err
//	}
//	var counter report.Counter
//	results, err := r.RunAll(ctx, &counter)
//	if counter.Summary().Failed() > 0 {
//	    // inspect results
//	}
//
// [mapstyle]: github.com/matzehuels/visualtest/pkg/mapstyle
// [renderer]: github.com/matzehuels/visualtest/pkg/renderer
// [runner]: github.com/matzehuels/visualtest/pkg/runner
// [report]: github.com/matzehuels/visualtest/pkg/report
// [sizes]: github.com/matzehuels/visualtest/pkg/sizes
// [errors]: github.com/matzehuels/visualtest/pkg/errors
// [observability]: github.com/matzehuels/visualtest/pkg/observability
// [buildinfo]: github.com/matzehuels/visualtest/pkg/buildinfo
package pkg
