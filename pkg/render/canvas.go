package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// PaintOp selects whether a shape is filled, stroked or both
type PaintOp int

const (
	Fill PaintOp = 1 << iota
	Stroke
)

// Canvas is a drawing surface in page space: origin at the bottom-left corner,
// y growing upwards, units are page units. Backends flip y themselves.
//
// Text is drawn with the current fill color. Arc angles are in degrees,
// counter-clockwise from the 3 o'clock position.
type Canvas interface {
	Size() (width, height float64)
	SetFillColor(c Color)
	SetStrokeColor(c Color)
	SetLineWidth(w float64)
	SetDash(pattern []float64) // nil for a solid line
	SetAlpha(alpha float64)

	Rect(x, y, w, h float64, op PaintOp)
	Circle(cx, cy, r float64, op PaintOp)
	Line(x1, y1, x2, y2 float64)
	Arc(cx, cy, r, startDeg, endDeg float64)

	SetFont(f Font)
	TextWidth(s string) float64
	Text(x, y float64, s string) // (x, y) is the left end of the baseline

	// Err reports a sticky drawing error, if any
	Err() error
	// Finish writes the finished page to w
	Finish(w io.Writer) error
}

// RoundedRecter is implemented by canvases with a native rounded rectangle.
// When present it is used instead of the primitive decomposition.
type RoundedRecter interface {
	RoundedRect(x, y, w, h, r float64, op PaintOp)
}

// Layerer is implemented by canvases that can group drawing into named,
// toggleable layers.
type Layerer interface {
	BeginLayer(name string)
	EndLayer()
}

// Font selects a font from the fixed font set
type Font struct {
	Family string // e.g. "Helvetica", "Times", "Courier"
	Bold   bool
	Size   float64
}

// Monospace reports whether the family maps to the monospace face
func (f Font) Monospace() bool {
	switch strings.ToLower(f.Family) {
	case "courier", "courier new", "monospace", "mono", "go mono":
		return true
	}
	return false
}

// Serif reports whether the family maps to the serif face
func (f Font) Serif() bool {
	switch strings.ToLower(f.Family) {
	case "times", "times new roman", "times-roman", "serif", "georgia":
		return true
	}
	return false
}

// parseWeight reports whether a CSS-like font weight is bold
func parseWeight(weight string) bool {
	w := strings.ToLower(strings.TrimSpace(weight))
	switch w {
	case "bold", "bolder", "semibold", "extrabold", "black":
		return true
	}
	if n, err := strconv.Atoi(w); err == nil {
		return n >= 600
	}
	return false
}

// Color is an RGB color that may be absent ("transparent")
type Color struct {
	colorful.Color
	None bool
}

// NoColor is the absent color; painting with it is a no-op
var NoColor = Color{None: true}

// ParseColor parses "#rrggbb", "#rgb", "transparent", "none" or "".
func ParseColor(s string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "transparent", "none":
		return NoColor, nil
	}
	if !strings.HasPrefix(v, "#") {
		v = "#" + v
	}
	c, err := colorful.Hex(v)
	if err != nil {
		return NoColor, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{Color: c}, nil
}

// MustParseColor is like ParseColor but panics on error. For constants only.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// rgb255 returns the color as 8-bit components
func (c Color) rgb255() (r, g, b int) {
	r8, g8, b8 := c.Clamped().RGB255()
	return int(r8), int(g8), int(b8)
}
