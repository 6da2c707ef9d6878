//go:build !nosvg

package renderer

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/visualtest/pkg/mapstyle"
)

func init() {
	register(KindSVG, backend{engine: svgEngine{}, ext: ".svg"})
}

type svgEngine struct{}

func (svgEngine) render(m *mapstyle.Map, view mapstyle.Box, w, h int, scale float64) (artifact, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n", w, h, w, h)
	fmt.Fprintf(&buf, `  <rect width="%d" height="%d" %s/>`+"\n", w, h, paint("fill", m.Background))

	walk(m, view, w, h, scale, func(o op) {
		switch o.kind {
		case opFill:
			fmt.Fprintf(&buf, `  <path d="%s" fill-rule="evenodd" %s/>`+"\n", pathData(o.paths, true), paint("fill", o.color))
		case opStroke:
			if o.width <= 0 {
				return
			}
			fmt.Fprintf(&buf, `  <path d="%s" fill="none" %s stroke-width="%.2f" stroke-linejoin="round" stroke-linecap="round"/>`+"\n",
				pathData(o.paths, o.closed), paint("stroke", o.color), o.width)
		case opMarker:
			if o.width <= 0 {
				return
			}
			c := o.paths[0][0]
			fmt.Fprintf(&buf, `  <circle cx="%.2f" cy="%.2f" r="%.2f" %s/>`+"\n", c.x, c.y, o.width/2, paint("fill", o.color))
		}
	})

	buf.WriteString("</svg>\n")
	return textArtifact{data: buf.Bytes()}, nil
}

func pathData(paths [][]fpoint, closed bool) string {
	var b strings.Builder
	for _, p := range paths {
		for i, pt := range p {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&b, "%s%.2f %.2f ", cmd, pt.x, pt.y)
		}
		if closed && len(p) > 0 {
			b.WriteString("Z ")
		}
	}
	return strings.TrimSpace(b.String())
}

// paint formats a color attribute, adding an opacity attribute for
// translucent colors.
func paint(attr string, c color.NRGBA) string {
	hex := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
	if c.A == 255 {
		return fmt.Sprintf(`%s="%s"`, attr, hex)
	}
	return fmt.Sprintf(`%s="%s" %s-opacity="%.3f"`, attr, hex, attr, float64(c.A)/255)
}
