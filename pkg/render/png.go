package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
)

// pngCanvas rasterizes onto a gg context, one pixel per page unit
type pngCanvas struct {
	dc     *gg.Context
	w, h   float64
	fill   Color
	stroke Color
	alpha  float64
	font   Font
	faces  *faceCache
}

func newPNGCanvas(w, h float64, lib *fontLibrary) *pngCanvas {
	dc := gg.NewContext(int(math.Ceil(w)), int(math.Ceil(h)))
	return &pngCanvas{
		dc:     dc,
		w:      w,
		h:      h,
		fill:   MustParseColor("#000000"),
		stroke: MustParseColor("#000000"),
		alpha:  1,
		faces:  newFaceCache(lib),
	}
}

func (c *pngCanvas) Size() (float64, float64) { return c.w, c.h }

func (c *pngCanvas) SetFillColor(col Color)   { c.fill = col }
func (c *pngCanvas) SetStrokeColor(col Color) { c.stroke = col }
func (c *pngCanvas) SetLineWidth(w float64)   { c.dc.SetLineWidth(w) }
func (c *pngCanvas) SetAlpha(alpha float64)   { c.alpha = alpha }

func (c *pngCanvas) SetDash(pattern []float64) {
	c.dc.SetDash(pattern...)
}

func (c *pngCanvas) nrgba(col Color) color.NRGBA {
	r, g, b := col.rgb255()
	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(math.Round(c.alpha * 255))}
}

// paint builds the path once per requested op and fills or strokes it
func (c *pngCanvas) paint(op PaintOp, path func()) {
	if op&Fill != 0 && !c.fill.None {
		path()
		c.dc.SetColor(c.nrgba(c.fill))
		c.dc.Fill()
	}
	if op&Stroke != 0 && !c.stroke.None {
		path()
		c.dc.SetColor(c.nrgba(c.stroke))
		c.dc.Stroke()
	}
}

func (c *pngCanvas) Rect(x, y, w, h float64, op PaintOp) {
	c.paint(op, func() { c.dc.DrawRectangle(x, c.h-y-h, w, h) })
}

func (c *pngCanvas) RoundedRect(x, y, w, h, r float64, op PaintOp) {
	c.paint(op, func() { c.dc.DrawRoundedRectangle(x, c.h-y-h, w, h, r) })
}

func (c *pngCanvas) Circle(cx, cy, r float64, op PaintOp) {
	c.paint(op, func() { c.dc.DrawCircle(cx, c.h-cy, r) })
}

func (c *pngCanvas) Line(x1, y1, x2, y2 float64) {
	c.paint(Stroke, func() { c.dc.DrawLine(x1, c.h-y1, x2, c.h-y2) })
}

// Arc converts counter-clockwise page angles into gg's y-down angles
func (c *pngCanvas) Arc(cx, cy, r, startDeg, endDeg float64) {
	c.paint(Stroke, func() {
		c.dc.NewSubPath()
		c.dc.DrawArc(cx, c.h-cy, r, gg.Radians(-endDeg), gg.Radians(-startDeg))
	})
}

func (c *pngCanvas) SetFont(f Font) {
	c.font = f
	c.dc.SetFontFace(c.faces.face(f))
}

func (c *pngCanvas) TextWidth(s string) float64 {
	return c.faces.measure(c.font, s)
}

func (c *pngCanvas) Text(x, y float64, s string) {
	if c.fill.None {
		return
	}
	c.dc.SetColor(c.nrgba(c.fill))
	c.dc.DrawString(s, x, c.h-y)
}

func (c *pngCanvas) Err() error { return nil }

func (c *pngCanvas) Finish(w io.Writer) error {
	if err := c.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
