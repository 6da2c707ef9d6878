package mapstyle

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/visualtest/pkg/errors"
)

// Box is an axis-aligned rectangle in map coordinates.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// emptyBox is the identity for Expand.
var emptyBox = Box{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}

// Valid reports whether the box has been set, i.e. min <= max on both axes.
func (b Box) Valid() bool {
	return b.MinX <= b.MaxX && b.MinY <= b.MaxY
}

// Width returns the horizontal extent.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Expand returns the smallest box containing b and p.
func (b Box) Expand(p Point) Box {
	return Box{
		MinX: math.Min(b.MinX, p.X),
		MinY: math.Min(b.MinY, p.Y),
		MaxX: math.Max(b.MaxX, p.X),
		MaxY: math.Max(b.MaxY, p.Y),
	}
}

// String formats the box the way ParseBox reads it.
func (b Box) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// Sub returns the box covering tile (col, row) when b is split into cols x
// rows equal tiles. Row 0 is the top of the image.
func (b Box) Sub(col, row, cols, rows uint) Box {
	w := b.Width() / float64(cols)
	h := b.Height() / float64(rows)
	return Box{
		MinX: b.MinX + float64(col)*w,
		MaxX: b.MinX + float64(col+1)*w,
		MaxY: b.MaxY - float64(row)*h,
		MinY: b.MaxY - float64(row+1)*h,
	}
}

// ParseBox parses "minx,miny,maxx,maxy". Commas and whitespace are both
// accepted as separators. Corners may be given in any order.
func ParseBox(s string) (Box, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) != 4 {
		return Box{}, errors.New(errors.ErrCodeParse, "failed to parse bounding box: '%s'", s)
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return Box{}, errors.New(errors.ErrCodeParse, "failed to parse bounding box: '%s'", s)
		}
		v[i] = n
	}
	return Box{
		MinX: math.Min(v[0], v[2]),
		MinY: math.Min(v[1], v[3]),
		MaxX: math.Max(v[0], v[2]),
		MaxY: math.Max(v[1], v[3]),
	}, nil
}

// Transform maps a view box onto a pixel grid of the given size.
type Transform struct {
	view          Box
	width, height float64
}

// NewTransform returns the transform from view onto a width x height image.
func NewTransform(view Box, width, height int) Transform {
	return Transform{view: view, width: float64(width), height: float64(height)}
}

// Apply converts p to pixel coordinates. Y grows downwards.
func (t Transform) Apply(p Point) (x, y float64) {
	vw, vh := t.view.Width(), t.view.Height()
	if vw == 0 || vh == 0 {
		return 0, 0
	}
	x = (p.X - t.view.MinX) / vw * t.width
	y = (t.view.MaxY - p.Y) / vh * t.height
	return x, y
}
