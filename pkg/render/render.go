// Package render draws a reconstructed layout onto a page.
//
// Elements are drawn in ascending z-order after the dashed outlines of any
// embedded image regions, so the outlines never hide reconstructed content.
// Every element box is converted from canvas units to page space through
// geometry.PageRect, which is the only place where y is flipped.
//
// Three backends implement the Canvas interface:
//
// - PDF via go-pdf/fpdf, with optional-content layers and an optional underlay
// of the original page
// - PNG via fogleman/gg, using the Go fonts
// - SVG via ajstarks/svgo
//
// Backends without a native rounded rectangle get rounded corners assembled
// from rectangles, disks, lines and arcs.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrlayout/pkg/geometry"
	"github.com/gardar/ocrlayout/pkg/layout"
)

// Renderer draws layouts. It is safe for concurrent use; every Render call
// works on its own canvas.
type Renderer struct {
	cfg Config
	log logrus.FieldLogger
}

// goFonts parses the embedded Go fonts once for every renderer
var goFonts = sync.OnceValues(loadFontLibrary)

// New creates a renderer from the given config
func New(cfg Config) *Renderer {
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	if cfg.Font.LineSpacing <= 0 {
		cfg.Font.LineSpacing = DefaultFont.LineSpacing
	}
	if cfg.Font.AscentRatio <= 0 {
		cfg.Font.AscentRatio = DefaultFont.AscentRatio
	}
	if cfg.Font.Name == "" {
		cfg.Font.Name = DefaultFont.Name
	}
	return &Renderer{cfg: cfg, log: log}
}

// WithUnderlay returns a renderer that draws u beneath every page. A nil u
// removes the underlay.
func (r *Renderer) WithUnderlay(u *Underlay) *Renderer {
	cfg := r.cfg
	cfg.Underlay = u
	return &Renderer{cfg: cfg, log: r.log}
}

// Render draws the layout and returns the finished page in the given format.
// On failure nothing is returned; partial output is discarded.
func (r *Renderer) Render(l *layout.Layout, regions []layout.ImageRegion, format Format) ([]byte, error) {
	if l == nil {
		return nil, &RenderTargetError{Element: -1, Err: errors.New("nil layout")}
	}

	fail := func(err error) error {
		return &RenderTargetError{Page: l.Page, Element: -1, Err: err}
	}

	pageW, pageH, err := r.cfg.pageSize(l.CanvasWidth, l.CanvasHeight)
	if err != nil {
		return nil, fail(err)
	}

	c, err := r.NewCanvas(format, pageW, pageH)
	if err != nil {
		return nil, fail(err)
	}

	if err := r.RenderTo(c, l, regions); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := c.Finish(&buf); err != nil {
		return nil, fail(err)
	}
	return buf.Bytes(), nil
}

// NewCanvas creates a page canvas of the given size for a format
func (r *Renderer) NewCanvas(format Format, width, height float64) (Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid page size %gx%g", width, height)
	}

	switch format {
	case FormatPDF:
		return newPDFCanvas(width, height, r.cfg.Underlay, r.log)
	case FormatPNG, FormatSVG:
		lib, err := goFonts()
		if err != nil {
			return nil, err
		}
		if format == FormatPNG {
			return newPNGCanvas(width, height, lib), nil
		}
		return newSVGCanvas(width, height, lib), nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// RenderTo draws the layout onto an existing canvas without finishing it.
func (r *Renderer) RenderTo(c Canvas, l *layout.Layout, regions []layout.ImageRegion) error {
	if l == nil {
		return &RenderTargetError{Element: -1, Err: errors.New("nil layout")}
	}
	if err := l.Validate(); err != nil {
		return &RenderTargetError{Page: l.Page, Element: -1, Err: err}
	}

	d := r.newDrawer(c, l)
	log := r.log.WithField("page", l.Page)

	if bg := d.color(r.cfg.Background); !bg.None && r.cfg.Underlay == nil {
		c.SetAlpha(1)
		c.SetFillColor(bg)
		c.Rect(0, 0, d.pageW, d.pageH, Fill)
	}

	if len(regions) > 0 {
		withLayer(c, r.cfg.Layers.Outlines, func() {
			d.outlines(regions)
		})
		if err := c.Err(); err != nil {
			return &RenderTargetError{Page: l.Page, Element: -1, Err: err}
		}
	}

	var drawErr error
	withLayer(c, r.cfg.Layers.Elements, func() {
		for i, el := range l.Elements {
			if !el.Visible {
				continue
			}
			strategyFor(el.Variant).draw(d, el)
			if err := c.Err(); err != nil {
				drawErr = &RenderTargetError{Page: l.Page, Element: i, Err: err}
				return
			}
			log.WithField("element", el.ID).Debug("Drew element")
		}
	})
	if drawErr != nil {
		return drawErr
	}

	log.Debugf("Rendered %d elements and %d image outlines", len(l.Elements), len(regions))
	return nil
}

func withLayer(c Canvas, name string, draw func()) {
	if lc, ok := c.(Layerer); ok && name != "" {
		lc.BeginLayer(name)
		defer lc.EndLayer()
	}
	draw()
}

// drawer carries the per-render state shared by the element strategies
type drawer struct {
	c       Canvas
	cfg     Config
	log     logrus.FieldLogger
	canvasW float64
	canvasH float64
	pageW   float64
	pageH   float64
	unit    float64 // Page units per canvas unit for sizes (fonts, padding, borders)
}

func (r *Renderer) newDrawer(c Canvas, l *layout.Layout) *drawer {
	pageW, pageH := c.Size()
	cw, ch := float64(l.CanvasWidth), float64(l.CanvasHeight)
	return &drawer{
		c:       c,
		cfg:     r.cfg,
		log:     r.log.WithField("page", l.Page),
		canvasW: cw,
		canvasH: ch,
		pageW:   pageW,
		pageH:   pageH,
		unit:    math.Min(pageW/cw, pageH/ch),
	}
}

// pageRect converts a canvas-unit box into a bottom-left page rectangle
func (d *drawer) pageRect(b geometry.Box) (x, y, w, h float64) {
	normalized := geometry.NewBox(b.X/d.canvasW, b.Y/d.canvasH, b.Width/d.canvasW, b.Height/d.canvasH)
	return geometry.PageRect(normalized, d.pageW, d.pageH)
}

// color parses a style color; invalid colors are logged and not painted
func (d *drawer) color(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		d.log.Warnf("Ignoring color: %v", err)
	}
	return c
}

func (d *drawer) font(s layout.Style) Font {
	family := s.FontFamily
	if family == "" {
		family = d.cfg.Font.Name
	}
	size := s.FontSize
	if size <= 0 {
		size = 12
	}
	return Font{Family: family, Bold: parseWeight(s.FontWeight), Size: size * d.unit}
}

// container paints the background and border of a box
func (d *drawer) container(x, y, w, h float64, s layout.Style) {
	radius := s.BorderRadius * d.unit

	if bg := d.color(s.BackgroundColor); !bg.None {
		d.c.SetFillColor(bg)
		roundedRect(d.c, x, y, w, h, radius, Fill)
	}

	if border := d.color(s.BorderColor); !border.None && s.BorderWidth > 0 {
		d.c.SetStrokeColor(border)
		d.c.SetLineWidth(s.BorderWidth * d.unit)
		d.c.SetDash(nil)
		roundedRect(d.c, x, y, w, h, radius, Stroke)
	}
}

// outlines strokes the dashed, inflated outline of every image region
func (d *drawer) outlines(regions []layout.ImageRegion) {
	o := d.cfg.Outline
	col := d.color(o.Color)
	if col.None {
		return
	}

	dash := make([]float64, len(o.Dash))
	for i, v := range o.Dash {
		dash[i] = v * d.unit
	}
	inflate := o.Inflate * d.unit

	d.c.SetAlpha(1)
	d.c.SetStrokeColor(col)
	d.c.SetLineWidth(o.Width * d.unit)
	d.c.SetDash(dash)
	for _, reg := range regions {
		x, y, w, h := geometry.PageRect(reg.Box(), d.pageW, d.pageH)
		d.c.Rect(x-inflate, y-inflate, w+2*inflate, h+2*inflate, Stroke)
	}
	d.c.SetDash(nil)
}

func (d *drawer) debugBox(x, y, w, h float64) {
	if !d.cfg.Debug {
		return
	}
	d.c.SetStrokeColor(MustParseColor("#ff0000"))
	d.c.SetLineWidth(0.5)
	d.c.SetDash(nil)
	d.c.Rect(x, y, w, h, Stroke)
}

func clampOpacity(o float64) float64 {
	return math.Max(0, math.Min(1, o))
}
