package mapstyle

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/matzehuels/visualtest/pkg/errors"
)

var (
	xColumns = []string{"x", "lon", "lng", "longitude"}
	yColumns = []string{"y", "lat", "latitude"}
)

// openCSV reads one point per row. The header must name an x and a y
// column; other columns are ignored.
func openCSV(_ context.Context, p Params, baseDir string) ([]Geometry, error) {
	data, err := readSource(p, baseDir, "csv")
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimSpace(data)))
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStyleLoad, err, "decode csv")
	}
	if len(records) == 0 {
		return nil, nil
	}

	xi, yi := column(records[0], xColumns), column(records[0], yColumns)
	if xi < 0 || yi < 0 {
		return nil, errors.New(errors.ErrCodeStyleLoad, "csv header needs x and y columns, got %v", records[0])
	}

	out := make([]Geometry, 0, len(records)-1)
	for line, rec := range records[1:] {
		x, errX := strconv.ParseFloat(strings.TrimSpace(rec[xi]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(rec[yi]), 64)
		if errX != nil || errY != nil {
			return nil, errors.New(errors.ErrCodeStyleLoad, "csv line %d: invalid coordinates", line+2)
		}
		out = append(out, Geometry{Kind: KindPoint, Parts: [][]Point{{{X: x, Y: y}}}})
	}
	return out, nil
}

func column(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}
