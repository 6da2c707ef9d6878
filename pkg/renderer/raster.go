package renderer

import (
	"math"

	"golang.org/x/image/vector"
)

// circleSegments is the number of edges used to approximate a circle.
const circleSegments = 24

// addOp adds the coverage of o to z. Every shape is added with the same
// winding so overlapping pieces of one stroke do not cancel out.
func addOp(z *vector.Rasterizer, o op, w, h int) {
	switch o.kind {
	case opFill:
		for _, ring := range o.paths {
			addPolygon(z, ring, w, h)
		}
	case opStroke:
		for _, path := range o.paths {
			addStroke(z, path, o.width/2, o.closed, w, h)
		}
	case opMarker:
		addPolygon(z, circle(o.paths[0][0], o.width/2), w, h)
	}
}

func addPolygon(z *vector.Rasterizer, pts []fpoint, w, h int) {
	pts = clipPolygon(pts, -1, -1, float64(w)+1, float64(h)+1)
	if len(pts) < 3 {
		return
	}
	z.MoveTo(float32(pts[0].x), float32(pts[0].y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.x), float32(p.y))
	}
	z.ClosePath()
}

// addStroke outlines a polyline of half-width hw as one quad per segment
// plus a round join at every vertex.
func addStroke(z *vector.Rasterizer, pts []fpoint, hw float64, closed bool, w, h int) {
	if hw <= 0 || len(pts) == 0 {
		return
	}
	n := len(pts)
	segments := n - 1
	if closed && n > 2 {
		segments = n
	}
	for i := 0; i < segments; i++ {
		a, b := pts[i], pts[(i+1)%n]
		dx, dy := b.x-a.x, b.y-a.y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*hw, dx/l*hw
		addPolygon(z, []fpoint{
			{a.x + nx, a.y + ny},
			{b.x + nx, b.y + ny},
			{b.x - nx, b.y - ny},
			{a.x - nx, a.y - ny},
		}, w, h)
	}
	for _, p := range pts {
		addPolygon(z, circle(p, hw), w, h)
	}
}

// circle returns a polygon approximating a circle, wound like the stroke
// quads of addStroke.
func circle(c fpoint, r float64) []fpoint {
	if r <= 0 {
		return nil
	}
	pts := make([]fpoint, circleSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = fpoint{c.x + r*math.Cos(a), c.y - r*math.Sin(a)}
	}
	return pts
}

// clipPolygon clips pts against the rectangle [x0,x1] x [y0,y1]
// (Sutherland-Hodgman).
func clipPolygon(pts []fpoint, x0, y0, x1, y1 float64) []fpoint {
	type edge struct {
		inside func(fpoint) bool
		cross  func(a, b fpoint) fpoint
	}
	lerpX := func(a, b fpoint, x float64) fpoint {
		t := (x - a.x) / (b.x - a.x)
		return fpoint{x, a.y + t*(b.y-a.y)}
	}
	lerpY := func(a, b fpoint, y float64) fpoint {
		t := (y - a.y) / (b.y - a.y)
		return fpoint{a.x + t*(b.x-a.x), y}
	}
	edges := []edge{
		{func(p fpoint) bool { return p.x >= x0 }, func(a, b fpoint) fpoint { return lerpX(a, b, x0) }},
		{func(p fpoint) bool { return p.x <= x1 }, func(a, b fpoint) fpoint { return lerpX(a, b, x1) }},
		{func(p fpoint) bool { return p.y >= y0 }, func(a, b fpoint) fpoint { return lerpY(a, b, y0) }},
		{func(p fpoint) bool { return p.y <= y1 }, func(a, b fpoint) fpoint { return lerpY(a, b, y1) }},
	}

	out := pts
	for _, e := range edges {
		if len(out) == 0 {
			return nil
		}
		in := out
		out = make([]fpoint, 0, len(in)+4)
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur):
				if !e.inside(prev) {
					out = append(out, e.cross(prev, cur))
				}
				out = append(out, cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
