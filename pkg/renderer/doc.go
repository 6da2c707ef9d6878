// Package renderer draws loaded maps with a closed set of backends and
// compares the output against stored reference artifacts.
//
// # Backends
//
// Each backend is identified by a [Kind]:
//
//   - agg: anti-aliased raster output via fogleman/gg (PNG)
//   - vector: raster output via golang.org/x/image/vector (PNG)
//   - svg: SVG markup
//   - grid: a UTFGrid-style JSON interaction grid
//
// Only agg and vector support tiled rendering; [Renderer.SupportsTiles]
// reports this capability to the runner. Every backend except agg can be
// compiled out with the build tags novector, nosvg and nogrid, in which case
// it is missing from [Available].
//
// # Comparison
//
// Every call to [Renderer.Test] or [Renderer.TestTiles] produces exactly one
// [report.Result]. The artifact file name encodes the whole configuration:
//
//	<style>-<width>-<height>[-<tw>x<th>]-<scale>-<kind>.<ext>
//
// A matching reference yields OK; a differing one FAIL, with the actual
// artifact written to the output directory. Without a reference the result
// is SKIPPED, or OVERWRITE when overwriting is enabled.
package renderer
