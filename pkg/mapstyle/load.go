package mapstyle

import (
	"context"
	"encoding/xml"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/visualtest/pkg/errors"
)

// Extension is the file suffix of style documents.
const Extension = ".xml"

// IsStyleFile reports whether path carries the style document suffix.
func IsStyleFile(path string) bool {
	return filepath.Ext(path) == Extension
}

type xmlMap struct {
	XMLName    xml.Name   `xml:"Map"`
	Background string     `xml:"background-color,attr"`
	Parameters []xmlParam `xml:"Parameters>Parameter"`
	Styles     []xmlStyle `xml:"Style"`
	Layers     []xmlLayer `xml:"Layer"`
}

type xmlParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlStyle struct {
	Name  string    `xml:"name,attr"`
	Rules []xmlRule `xml:"Rule"`
}

type xmlRule struct {
	Polygon *xmlSymbolizer `xml:"PolygonSymbolizer"`
	Line    *xmlSymbolizer `xml:"LineSymbolizer"`
	Markers *xmlSymbolizer `xml:"MarkersSymbolizer"`
}

type xmlSymbolizer struct {
	Fill          string `xml:"fill,attr"`
	FillOpacity   string `xml:"fill-opacity,attr"`
	Stroke        string `xml:"stroke,attr"`
	StrokeWidth   string `xml:"stroke-width,attr"`
	StrokeOpacity string `xml:"stroke-opacity,attr"`
	Width         string `xml:"width,attr"`
}

type xmlLayer struct {
	Name       string     `xml:"name,attr"`
	Status     string     `xml:"status,attr"`
	StyleNames []string   `xml:"StyleName"`
	Datasource []xmlParam `xml:"Datasource>Parameter"`
}

// Load reads the style document at path into m. Relative data source files
// are resolved against the document's directory. ctx bounds data source I/O.
//
// Errors carry code DATASOURCE_UNAVAILABLE when a layer's data source cannot
// be created, PARSE_ERROR for malformed numbers, and STYLE_LOAD otherwise.
func Load(ctx context.Context, m *Map, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStyleLoad, err, "read style %s", path)
	}
	return LoadBytes(ctx, m, data, filepath.Dir(path))
}

// LoadBytes is Load for an in-memory document.
func LoadBytes(ctx context.Context, m *Map, data []byte, baseDir string) error {
	var doc xmlMap
	if err := xml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(errors.ErrCodeStyleLoad, err, "parse style document")
	}

	if doc.Background != "" {
		c, err := parseColor(doc.Background, "")
		if err != nil {
			return err
		}
		m.Background = c
	}

	for _, p := range doc.Parameters {
		m.Params[strings.TrimSpace(p.Name)] = strings.TrimSpace(p.Value)
	}

	for _, s := range doc.Styles {
		style, err := buildStyle(s)
		if err != nil {
			return err
		}
		m.Styles[style.Name] = style
	}

	for _, l := range doc.Layers {
		if isOff(l.Status) {
			continue
		}
		layer := Layer{Name: l.Name}
		for _, name := range l.StyleNames {
			name = strings.TrimSpace(name)
			if _, ok := m.Styles[name]; !ok {
				return errors.New(errors.ErrCodeStyleLoad, "layer %q references undefined style %q", l.Name, name)
			}
			layer.Styles = append(layer.Styles, name)
		}

		params := make(Params, len(l.Datasource))
		for _, p := range l.Datasource {
			params[strings.TrimSpace(p.Name)] = strings.TrimSpace(p.Value)
		}
		features, err := openDatasource(ctx, params, baseDir)
		if err != nil {
			return fmt.Errorf("layer %q: %w", l.Name, err)
		}
		layer.Features = features
		m.Layers = append(m.Layers, layer)
	}
	return nil
}

func isOff(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "off", "false", "0":
		return true
	}
	return false
}

func buildStyle(s xmlStyle) (Style, error) {
	if s.Name == "" {
		return Style{}, errors.New(errors.ErrCodeStyleLoad, "style without a name")
	}
	style := Style{Name: s.Name}
	for _, r := range s.Rules {
		var rule Rule
		if r.Polygon != nil {
			fill, err := parseColor(r.Polygon.Fill, r.Polygon.FillOpacity)
			if err != nil {
				return Style{}, err
			}
			rule.Polygon = &PolygonSymbolizer{Fill: fill}
		}
		if r.Line != nil {
			stroke, err := parseColor(r.Line.Stroke, r.Line.StrokeOpacity)
			if err != nil {
				return Style{}, err
			}
			width, err := parseWidth(r.Line.StrokeWidth, 1)
			if err != nil {
				return Style{}, err
			}
			rule.Line = &LineSymbolizer{Stroke: stroke, Width: width}
		}
		if r.Markers != nil {
			fill, err := parseColor(r.Markers.Fill, r.Markers.FillOpacity)
			if err != nil {
				return Style{}, err
			}
			width, err := parseWidth(r.Markers.Width, 10)
			if err != nil {
				return Style{}, err
			}
			rule.Markers = &MarkersSymbolizer{Fill: fill, Width: width}
		}
		style.Rules = append(style.Rules, rule)
	}
	return style, nil
}

// parseColor reads "#rgb" or "#rrggbb" (default black) with an optional
// opacity in [0,1]. "none" and "transparent" yield a fully transparent color.
func parseColor(s, opacity string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		s = "#000000"
	case "none", "transparent":
		return color.NRGBA{}, nil
	case "white":
		s = "#ffffff"
	case "black":
		s = "#000000"
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, errors.Wrap(errors.ErrCodeStyleLoad, err, "invalid color %q", s)
	}
	r, g, b := c.RGB255()
	alpha := 1.0
	if opacity != "" {
		alpha, err = strconv.ParseFloat(strings.TrimSpace(opacity), 64)
		if err != nil || alpha < 0 || alpha > 1 {
			return color.NRGBA{}, errors.New(errors.ErrCodeStyleLoad, "invalid opacity %q", opacity)
		}
	}
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(alpha * 255))}, nil
}

func parseWidth(s string, def float64) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || w < 0 {
		return 0, errors.New(errors.ErrCodeStyleLoad, "invalid width %q", s)
	}
	return w, nil
}
