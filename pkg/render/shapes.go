package render

import "math"

// clampRadius limits a corner radius to half the shorter side
func clampRadius(r, w, h float64) float64 {
	if r <= 0 {
		return 0
	}
	return math.Min(r, math.Min(w, h)/2)
}

// roundedRect paints a rectangle with rounded corners. Canvases with a native
// primitive use it; everything else gets the decomposition below.
func roundedRect(c Canvas, x, y, w, h, r float64, op PaintOp) {
	if w <= 0 || h <= 0 {
		return
	}
	r = clampRadius(r, w, h)
	if r == 0 {
		c.Rect(x, y, w, h, op)
		return
	}
	if native, ok := c.(RoundedRecter); ok {
		native.RoundedRect(x, y, w, h, r, op)
		return
	}

	if op&Fill != 0 {
		fillRoundedRect(c, x, y, w, h, r)
	}
	if op&Stroke != 0 {
		strokeRoundedRect(c, x, y, w, h, r)
	}
}

// fillRoundedRect covers the shape with two overlapping rectangles, one inset
// vertically and one inset horizontally by r, plus a disk in every corner.
func fillRoundedRect(c Canvas, x, y, w, h, r float64) {
	c.Rect(x, y+r, w, h-2*r, Fill)
	c.Rect(x+r, y, w-2*r, h, Fill)

	c.Circle(x+r, y+r, r, Fill)
	c.Circle(x+w-r, y+r, r, Fill)
	c.Circle(x+w-r, y+h-r, r, Fill)
	c.Circle(x+r, y+h-r, r, Fill)
}

// strokeRoundedRect outlines the shape with four edges inset by r at both ends
// and a quarter arc at every corner.
func strokeRoundedRect(c Canvas, x, y, w, h, r float64) {
	c.Line(x+r, y, x+w-r, y)     // bottom
	c.Line(x+w, y+r, x+w, y+h-r) // right
	c.Line(x+r, y+h, x+w-r, y+h) // top
	c.Line(x, y+r, x, y+h-r)     // left

	c.Arc(x+w-r, y+r, r, 270, 360)
	c.Arc(x+w-r, y+h-r, r, 0, 90)
	c.Arc(x+r, y+h-r, r, 90, 180)
	c.Arc(x+r, y+r, r, 180, 270)
}
