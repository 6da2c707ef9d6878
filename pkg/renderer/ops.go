package renderer

import (
	"image/color"

	"github.com/matzehuels/visualtest/pkg/mapstyle"
)

type opKind int

const (
	opFill opKind = iota
	opStroke
	opMarker
)

// fpoint is a position in pixel space.
type fpoint struct {
	x, y float64
}

// op is one drawing primitive in pixel space. Markers carry their center as
// the single point of the single path, and width is their diameter.
type op struct {
	kind   opKind
	paths  [][]fpoint
	closed bool
	color  color.NRGBA
	width  float64

	layer   string
	feature int
}

// walk emits the drawing ops of m as seen through view on a w x h image,
// in painter's order: layers, then styles, then rules, then features.
// Line widths and marker sizes are multiplied by scale.
func walk(m *mapstyle.Map, view mapstyle.Box, w, h int, scale float64, fn func(op)) {
	if !view.Valid() {
		return
	}
	tr := mapstyle.NewTransform(view, w, h)
	project := func(parts [][]mapstyle.Point) [][]fpoint {
		out := make([][]fpoint, len(parts))
		for i, part := range parts {
			ps := make([]fpoint, len(part))
			for j, p := range part {
				x, y := tr.Apply(p)
				ps[j] = fpoint{x, y}
			}
			out[i] = ps
		}
		return out
	}

	for _, l := range m.Layers {
		for _, styleName := range l.Styles {
			for _, rule := range m.Styles[styleName].Rules {
				for fi, g := range l.Features {
					base := op{layer: l.Name, feature: fi}
					switch g.Kind {
					case mapstyle.KindPolygon:
						paths := project(g.Parts)
						if rule.Polygon != nil {
							o := base
							o.kind, o.paths, o.closed, o.color = opFill, paths, true, rule.Polygon.Fill
							fn(o)
						}
						if rule.Line != nil {
							o := base
							o.kind, o.paths, o.closed = opStroke, paths, true
							o.color, o.width = rule.Line.Stroke, rule.Line.Width*scale
							fn(o)
						}
					case mapstyle.KindLineString:
						if rule.Line != nil {
							o := base
							o.kind, o.paths = opStroke, project(g.Parts)
							o.color, o.width = rule.Line.Stroke, rule.Line.Width*scale
							fn(o)
						}
					case mapstyle.KindPoint:
						if rule.Markers != nil && len(g.Parts) > 0 && len(g.Parts[0]) > 0 {
							o := base
							o.kind, o.paths = opMarker, project(g.Parts[:1])
							o.color, o.width = rule.Markers.Fill, rule.Markers.Width*scale
							fn(o)
						}
					}
				}
			}
		}
	}
}
