//go:build !novector

package renderer

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"

	"github.com/matzehuels/visualtest/pkg/mapstyle"
)

func init() {
	register(KindVector, backend{engine: vectorEngine{}, ext: ".png", tiles: true})
}

// vectorEngine rasterizes every drawing op separately with
// golang.org/x/image/vector and composites it over the image.
type vectorEngine struct{}

func (e vectorEngine) render(m *mapstyle.Map, view mapstyle.Box, w, h int, scale float64) (artifact, error) {
	img, err := e.draw(m, view, w, h, scale)
	if err != nil {
		return nil, err
	}
	return rasterArtifact{img: img}, nil
}

func (vectorEngine) draw(m *mapstyle.Map, view mapstyle.Box, w, h int, scale float64) (*image.NRGBA, error) {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(m.Background), image.Point{}, draw.Src)

	z := vector.NewRasterizer(w, h)
	walk(m, view, w, h, scale, func(o op) {
		z.Reset(w, h)
		addOp(z, o, w, h)
		z.Draw(dst, dst.Bounds(), image.NewUniform(o.color), image.Point{})
	})
	return dst, nil
}
