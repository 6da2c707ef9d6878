//go:build !nogrid

package renderer

import (
	"encoding/json"
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/vector"

	"github.com/matzehuels/visualtest/pkg/errors"
	"github.com/matzehuels/visualtest/pkg/mapstyle"
)

// gridResolution is the number of image pixels per grid cell along each
// axis.
const gridResolution = 4

func init() {
	register(KindGrid, backend{engine: gridEngine{}, ext: ".json"})
}

// gridEngine renders an interaction grid: for every cell, the key
// ("<layer>:<feature index>") of the topmost feature covering it.
type gridEngine struct{}

type utfGrid struct {
	Grid []string `json:"grid"`
	Keys []string `json:"keys"`
}

func (gridEngine) render(m *mapstyle.Map, view mapstyle.Box, w, h int, scale float64) (artifact, error) {
	gw := (w + gridResolution - 1) / gridResolution
	gh := (h + gridResolution - 1) / gridResolution

	ids := make([]int, gw*gh)
	keys := []string{""}
	index := map[string]int{}

	mask := image.NewAlpha(image.Rect(0, 0, gw, gh))
	z := vector.NewRasterizer(gw, gh)
	walk(m, view, gw, gh, scale/gridResolution, func(o op) {
		if o.kind != opFill {
			o.width = max(o.width, 1)
		}
		z.Reset(gw, gh)
		addOp(z, o, gw, gh)
		clear(mask.Pix)
		z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

		id := -1
		for i, a := range mask.Pix {
			if a < 128 {
				continue
			}
			if id < 0 {
				key := fmt.Sprintf("%s:%d", o.layer, o.feature)
				var ok bool
				if id, ok = index[key]; !ok {
					id = len(keys)
					index[key] = id
					keys = append(keys, key)
				}
			}
			ids[i] = id
		}
	})

	rows := make([]string, gh)
	for y := 0; y < gh; y++ {
		var b strings.Builder
		for x := 0; x < gw; x++ {
			b.WriteRune(gridChar(ids[y*gw+x]))
		}
		rows[y] = b.String()
	}

	data, err := json.MarshalIndent(utfGrid{Grid: rows, Keys: keys}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode grid")
	}
	return textArtifact{data: append(data, '\n')}, nil
}

// gridChar encodes a key index, skipping '"' and '\' so rows stay readable
// JSON strings.
func gridChar(id int) rune {
	c := rune(id + 32)
	if c >= 34 {
		c++
	}
	if c >= 92 {
		c++
	}
	return c
}
