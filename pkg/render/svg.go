package render

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo/float"
)

// svgCanvas writes SVG primitives. It has no native rounded rectangle, so
// rounded containers come out as rectangles, circles, lines and arcs.
type svgCanvas struct {
	buf       bytes.Buffer
	s         *svg.SVG
	w, h      float64
	fill      Color
	stroke    Color
	alpha     float64
	lineWidth float64
	dash      []float64
	font      Font
	faces     *faceCache
}

func newSVGCanvas(w, h float64, lib *fontLibrary) *svgCanvas {
	c := &svgCanvas{
		w:         w,
		h:         h,
		fill:      MustParseColor("#000000"),
		stroke:    MustParseColor("#000000"),
		alpha:     1,
		lineWidth: 1,
		faces:     newFaceCache(lib),
	}
	c.s = svg.New(&c.buf)
	c.s.Decimals = svgDecimals
	c.s.Start(w, h)
	return c
}

// svgDecimals is the precision of every coordinate written
const svgDecimals = 3

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func (c *svgCanvas) Size() (float64, float64) { return c.w, c.h }

func (c *svgCanvas) SetFillColor(col Color)    { c.fill = col }
func (c *svgCanvas) SetStrokeColor(col Color)  { c.stroke = col }
func (c *svgCanvas) SetLineWidth(w float64)    { c.lineWidth = w }
func (c *svgCanvas) SetDash(pattern []float64) { c.dash = pattern }
func (c *svgCanvas) SetAlpha(alpha float64)    { c.alpha = alpha }

func (c *svgCanvas) fillStyle() string {
	return fmt.Sprintf("fill:%s;fill-opacity:%s;stroke:none", c.fill.Hex(), num(c.alpha))
}

func (c *svgCanvas) strokeStyle() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fill:none;stroke:%s;stroke-opacity:%s;stroke-width:%s", c.stroke.Hex(), num(c.alpha), num(c.lineWidth))
	if len(c.dash) > 0 {
		parts := make([]string, len(c.dash))
		for i, d := range c.dash {
			parts[i] = num(d)
		}
		fmt.Fprintf(&b, ";stroke-dasharray:%s", strings.Join(parts, ","))
	}
	return b.String()
}

func (c *svgCanvas) Rect(x, y, w, h float64, op PaintOp) {
	if op&Fill != 0 && !c.fill.None {
		c.s.Rect(x, c.h-y-h, w, h, c.fillStyle())
	}
	if op&Stroke != 0 && !c.stroke.None {
		c.s.Rect(x, c.h-y-h, w, h, c.strokeStyle())
	}
}

func (c *svgCanvas) Circle(cx, cy, r float64, op PaintOp) {
	if op&Fill != 0 && !c.fill.None {
		c.s.Circle(cx, c.h-cy, r, c.fillStyle())
	}
	if op&Stroke != 0 && !c.stroke.None {
		c.s.Circle(cx, c.h-cy, r, c.strokeStyle())
	}
}

func (c *svgCanvas) Line(x1, y1, x2, y2 float64) {
	if !c.stroke.None {
		c.s.Line(x1, c.h-y1, x2, c.h-y2, c.strokeStyle())
	}
}

// Arc draws a counter-clockwise arc. Flipping y keeps the visual direction, and
// counter-clockwise on screen is SVG's sweep-flag 0.
func (c *svgCanvas) Arc(cx, cy, r, startDeg, endDeg float64) {
	if c.stroke.None {
		return
	}
	start, end := startDeg*math.Pi/180, endDeg*math.Pi/180
	sx, sy := cx+r*math.Cos(start), cy+r*math.Sin(start)
	ex, ey := cx+r*math.Cos(end), cy+r*math.Sin(end)
	large := endDeg-startDeg > 180

	c.s.Arc(sx, c.h-sy, r, r, 0, large, false, ex, c.h-ey, c.strokeStyle())
}

func (c *svgCanvas) SetFont(f Font) { c.font = f }

func (c *svgCanvas) TextWidth(s string) float64 {
	return c.faces.measure(c.font, s)
}

func (c *svgCanvas) Text(x, y float64, s string) {
	if c.fill.None {
		return
	}
	weight := "normal"
	if c.font.Bold {
		weight = "bold"
	}
	style := fmt.Sprintf("font-family:%s;font-size:%spx;font-weight:%s;fill:%s;fill-opacity:%s",
		c.font.Family, num(c.font.Size), weight, c.fill.Hex(), num(c.alpha))
	c.s.Text(x, c.h-y, s, style)
}

func (c *svgCanvas) Err() error { return nil }

func (c *svgCanvas) Finish(w io.Writer) error {
	c.s.End()
	if _, err := io.Copy(w, &c.buf); err != nil {
		return fmt.Errorf("failed to write SVG: %w", err)
	}
	return nil
}
