package renderer

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/visualtest/pkg/mapstyle"
)

func init() {
	register(KindAGG, backend{engine: aggEngine{}, ext: ".png", tiles: true})
}

// aggEngine is the anti-aliased reference rasterizer.
type aggEngine struct{}

func (e aggEngine) render(m *mapstyle.Map, view mapstyle.Box, w, h int, scale float64) (artifact, error) {
	img, err := e.draw(m, view, w, h, scale)
	if err != nil {
		return nil, err
	}
	return rasterArtifact{img: img}, nil
}

func (aggEngine) draw(m *mapstyle.Map, view mapstyle.Box, w, h int, scale float64) (*image.NRGBA, error) {
	dc := gg.NewContext(w, h)
	dc.SetColor(m.Background)
	dc.Clear()
	dc.SetLineJoinRound()
	dc.SetLineCapRound()
	dc.SetFillRuleEvenOdd()

	walk(m, view, w, h, scale, func(o op) {
		dc.SetColor(o.color)
		switch o.kind {
		case opFill:
			for _, ring := range o.paths {
				tracePath(dc, ring, true)
			}
			dc.Fill()
		case opStroke:
			if o.width <= 0 {
				return
			}
			for _, p := range o.paths {
				tracePath(dc, p, o.closed)
			}
			dc.SetLineWidth(o.width)
			dc.Stroke()
		case opMarker:
			if o.width <= 0 {
				return
			}
			c := o.paths[0][0]
			dc.DrawCircle(c.x, c.y, o.width/2)
			dc.Fill()
		}
	})

	return imaging.Clone(dc.Image()), nil
}

func tracePath(dc *gg.Context, pts []fpoint, closed bool) {
	if len(pts) == 0 {
		return
	}
	dc.MoveTo(pts[0].x, pts[0].y)
	for _, p := range pts[1:] {
		dc.LineTo(p.x, p.y)
	}
	if closed {
		dc.ClosePath()
	}
}
