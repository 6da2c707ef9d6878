package mapstyle

import (
	"image/color"
)

// Point is a position in map coordinates.
type Point struct {
	X, Y float64
}

// GeometryKind distinguishes how a geometry is symbolized.
type GeometryKind int

const (
	KindPoint GeometryKind = iota
	KindLineString
	KindPolygon
)

// String returns the GeoJSON name of the kind.
func (k GeometryKind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindLineString:
		return "LineString"
	case KindPolygon:
		return "Polygon"
	}
	return "Unknown"
}

// Geometry is a single point, line string or polygon. Multi-geometries are
// flattened into several Geometry values when loaded.
//
// A point has one part holding one position, a line string one part, and a
// polygon one part per ring (outer ring first).
type Geometry struct {
	Kind  GeometryKind
	Parts [][]Point
}

// Layer is a named list of geometries drawn with one or more styles.
type Layer struct {
	Name     string
	Styles   []string
	Features []Geometry
}

// PolygonSymbolizer fills polygon interiors.
type PolygonSymbolizer struct {
	Fill color.NRGBA
}

// LineSymbolizer strokes line strings and polygon outlines.
type LineSymbolizer struct {
	Stroke color.NRGBA
	Width  float64
}

// MarkersSymbolizer draws a filled circle at each point.
type MarkersSymbolizer struct {
	Fill  color.NRGBA
	Width float64
}

// Rule groups the symbolizers applied to every feature of a layer.
type Rule struct {
	Polygon *PolygonSymbolizer
	Line    *LineSymbolizer
	Markers *MarkersSymbolizer
}

// Style is a named list of rules.
type Style struct {
	Name  string
	Rules []Rule
}

// Map is the in-memory map state a style document is loaded into. It is
// not safe for concurrent use; each style evaluation owns its Map.
type Map struct {
	Background color.NRGBA
	Styles     map[string]Style
	Layers     []Layer
	Params     Params

	width, height uint
	view          Box
}

// NewMap returns an empty map of the given pixel size with a transparent
// background and an unset view.
func NewMap(width, height uint) *Map {
	return &Map{
		Styles: make(map[string]Style),
		Params: make(Params),
		width:  width,
		height: height,
		view:   emptyBox,
	}
}

// Width returns the output width in pixels.
func (m *Map) Width() uint { return m.width }

// Height returns the output height in pixels.
func (m *Map) Height() uint { return m.height }

// Resize changes the output size. The view is left as is; zoom again to
// adapt it to the new aspect ratio.
func (m *Map) Resize(width, height uint) {
	m.width = width
	m.height = height
}

// View returns the area of the map currently shown.
func (m *Map) View() Box { return m.view }

// ZoomToBox shows b. The box is grown along one axis so that it matches the
// aspect ratio of the output size.
func (m *Map) ZoomToBox(b Box) {
	if !b.Valid() {
		return
	}
	if m.width == 0 || m.height == 0 || b.Width() == 0 || b.Height() == 0 {
		m.view = b
		return
	}
	ratio := float64(m.width) / float64(m.height)
	if b.Width()/b.Height() > ratio {
		pad := (b.Width()/ratio - b.Height()) / 2
		b.MinY -= pad
		b.MaxY += pad
	} else {
		pad := (b.Height()*ratio - b.Width()) / 2
		b.MinX -= pad
		b.MaxX += pad
	}
	m.view = b
}

// ZoomAll shows the full extent of the map's content. Degenerate extents
// (a single point, a horizontal line) are padded by one unit. A map without
// content keeps its current view.
func (m *Map) ZoomAll() {
	ext := m.Extent()
	if !ext.Valid() {
		return
	}
	if ext.Width() == 0 {
		ext.MinX--
		ext.MaxX++
	}
	if ext.Height() == 0 {
		ext.MinY--
		ext.MaxY++
	}
	m.ZoomToBox(ext)
}

// Extent returns the bounding box of every feature of every layer. The
// result is not Valid when the map has no features.
func (m *Map) Extent() Box {
	ext := emptyBox
	for _, l := range m.Layers {
		for _, g := range l.Features {
			for _, part := range g.Parts {
				for _, p := range part {
					ext = ext.Expand(p)
				}
			}
		}
	}
	return ext
}

// FeatureCount returns the number of features across all layers.
func (m *Map) FeatureCount() int {
	n := 0
	for _, l := range m.Layers {
		n += len(l.Features)
	}
	return n
}
