package render

import (
	"io"
)

// drawOp is one recorded canvas call
type drawOp struct {
	name      string
	args      []float64
	op        PaintOp
	text      string
	fill      string
	stroke    string
	alpha     float64
	lineWidth float64
	dash      []float64
	font      Font
	layer     string
}

// recorder is a Canvas that records every primitive. It has no native rounded
// rectangle, so rounded containers are decomposed.
type recorder struct {
	w, h      float64
	ops       []drawOp
	fill      Color
	stroke    Color
	alpha     float64
	lineWidth float64
	dash      []float64
	font      Font
	layer     string
	failAfter int // fail once this many ops were recorded, 0 = never
	err       error
}

func newRecorder(w, h float64) *recorder {
	return &recorder{w: w, h: h, alpha: 1, lineWidth: 1}
}

func (r *recorder) record(name string, op PaintOp, text string, args ...float64) {
	d := drawOp{
		name:      name,
		args:      args,
		op:        op,
		text:      text,
		alpha:     r.alpha,
		lineWidth: r.lineWidth,
		dash:      r.dash,
		font:      r.font,
		layer:     r.layer,
	}
	if !r.fill.None {
		d.fill = r.fill.Hex()
	}
	if !r.stroke.None {
		d.stroke = r.stroke.Hex()
	}
	r.ops = append(r.ops, d)
	if r.failAfter > 0 && len(r.ops) >= r.failAfter && r.err == nil {
		r.err = io.ErrShortWrite
	}
}

func (r *recorder) Size() (float64, float64)  { return r.w, r.h }
func (r *recorder) SetFillColor(c Color)      { r.fill = c }
func (r *recorder) SetStrokeColor(c Color)    { r.stroke = c }
func (r *recorder) SetLineWidth(w float64)    { r.lineWidth = w }
func (r *recorder) SetDash(pattern []float64) { r.dash = pattern }
func (r *recorder) SetAlpha(a float64)        { r.alpha = a }

func (r *recorder) Rect(x, y, w, h float64, op PaintOp) { r.record("rect", op, "", x, y, w, h) }
func (r *recorder) Circle(cx, cy, rad float64, op PaintOp) {
	r.record("circle", op, "", cx, cy, rad)
}
func (r *recorder) Line(x1, y1, x2, y2 float64) { r.record("line", Stroke, "", x1, y1, x2, y2) }
func (r *recorder) Arc(cx, cy, rad, start, end float64) {
	r.record("arc", Stroke, "", cx, cy, rad, start, end)
}

func (r *recorder) SetFont(f Font) { r.font = f }

// TextWidth uses a fixed advance of half the font size per byte
func (r *recorder) TextWidth(s string) float64 { return float64(len(s)) * r.font.Size * 0.5 }

func (r *recorder) Text(x, y float64, s string) { r.record("text", Fill, s, x, y) }

func (r *recorder) BeginLayer(name string) { r.layer = name }
func (r *recorder) EndLayer()              { r.layer = "" }

func (r *recorder) Err() error { return r.err }

func (r *recorder) Finish(io.Writer) error { return r.err }

func (r *recorder) named(name string) []drawOp {
	var out []drawOp
	for _, op := range r.ops {
		if op.name == name {
			out = append(out, op)
		}
	}
	return out
}

// nativeRecorder adds a native rounded rectangle
type nativeRecorder struct {
	*recorder
}

func (n nativeRecorder) RoundedRect(x, y, w, h, rad float64, op PaintOp) {
	n.record("roundedrect", op, "", x, y, w, h, rad)
}
