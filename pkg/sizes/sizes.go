// Package sizes defines output sizes and tile grids and parses the compact
// size-list notation used in style parameters and on the command line.
//
// A size list is a comma-separated sequence of WIDTHxHEIGHT tokens, with
// optional whitespace around every token:
//
//	sizes, err := sizes.Parse("500x100, 256x256")
//	tiles, err := sizes.ParseTiles("1x1,2x2")
package sizes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/visualtest/pkg/errors"
)

// Size is an output image size in pixels.
type Size struct {
	Width  uint `json:"width"`
	Height uint `json:"height"`
}

// String formats the size as WIDTHxHEIGHT.
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// TileGrid is the number of tiles along each axis. {1,1} means no tiling.
type TileGrid struct {
	Width  uint `json:"width"`
	Height uint `json:"height"`
}

// NoTiles is the single-tile grid.
var NoTiles = TileGrid{Width: 1, Height: 1}

// String formats the grid as WIDTHxHEIGHT.
func (g TileGrid) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

// IsSingle reports whether the grid is {1,1}.
func (g TileGrid) IsSingle() bool {
	return g == NoTiles
}

// Validate checks that both dimensions are non-zero and that size divides
// evenly into the grid.
func (g TileGrid) Validate(size Size) error {
	if g.Width == 0 || g.Height == 0 {
		return errors.New(errors.ErrCodeRenderConfig, "cannot render zero tiles (%s)", g)
	}
	if size.Width%g.Width != 0 || size.Height%g.Height != 0 {
		return errors.New(errors.ErrCodeRenderConfig, "tile size is not an integer (%s split into %s)", size, g)
	}
	return nil
}

// TileSize returns the size of one tile when size is split into g.
// Call Validate first; the result is truncated otherwise.
func (g TileGrid) TileSize(size Size) Size {
	return Size{Width: size.Width / g.Width, Height: size.Height / g.Height}
}

// Parse parses a size list. No partial result is returned on failure; the
// error has code PARSE_ERROR and quotes the whole input.
func Parse(s string) ([]Size, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return nil, err
	}
	out := make([]Size, len(pairs))
	for i, p := range pairs {
		out[i] = Size{Width: p[0], Height: p[1]}
	}
	return out, nil
}

// ParseTiles parses a size list as a list of tile grids. Zero dimensions are
// accepted here and rejected by Validate when the grid is used.
func ParseTiles(s string) ([]TileGrid, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return nil, err
	}
	out := make([]TileGrid, len(pairs))
	for i, p := range pairs {
		out[i] = TileGrid{Width: p[0], Height: p[1]}
	}
	return out, nil
}

func parsePairs(s string) ([][2]uint, error) {
	fail := func() error {
		return errors.New(errors.ErrCodeParse, "failed to parse list of sizes: '%s'", s)
	}

	if strings.TrimSpace(s) == "" {
		return nil, fail()
	}

	tokens := strings.Split(s, ",")
	out := make([][2]uint, 0, len(tokens))
	for _, tok := range tokens {
		w, h, ok := strings.Cut(strings.TrimSpace(tok), "x")
		if !ok {
			return nil, fail()
		}
		width, err := parseDim(w)
		if err != nil {
			return nil, fail()
		}
		height, err := parseDim(h)
		if err != nil {
			return nil, fail()
		}
		out = append(out, [2]uint{width, height})
	}
	return out, nil
}

// parseDim accepts an unsigned decimal, allowing blanks around it.
func parseDim(s string) (uint, error) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseUint(s, 10, 0)
	return uint(v), err
}

// ParseScales parses a comma-separated list of positive scale factors.
func ParseScales(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New(errors.ErrCodeParse, "failed to parse list of scale factors: '%s'", s)
	}
	var out []float64
	for _, tok := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil || v <= 0 {
			return nil, errors.New(errors.ErrCodeParse, "failed to parse list of scale factors: '%s'", s)
		}
		out = append(out, v)
	}
	return out, nil
}
