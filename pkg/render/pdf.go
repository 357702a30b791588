package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
)

// pdfDocument is an fpdf document shared by the pages drawn into it. Layers
// and imported underlay sources are registered once per document.
type pdfDocument struct {
	pdf      *fpdf.Fpdf
	importer *gofpdi.Importer
	sources  map[*byte]*io.ReadSeeker
	layers   map[string]int
	images   int
	log      logrus.FieldLogger
}

func newPDFDocument(log logrus.FieldLogger) *pdfDocument {
	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	return &pdfDocument{
		pdf:      pdf,
		importer: gofpdi.NewImporter(),
		sources:  make(map[*byte]*io.ReadSeeker),
		layers:   make(map[string]int),
		log:      log,
	}
}

// addPage starts a new w x h page. Layer names drawn on it get suffix
// appended, so pages of one document keep separate layers.
func (d *pdfDocument) addPage(w, h float64, underlay *Underlay, suffix string) (*pdfCanvas, error) {
	d.pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
	c := &pdfCanvas{
		doc:         d,
		pdf:         d.pdf,
		w:           w,
		h:           h,
		layerSuffix: suffix,
	}
	if underlay != nil {
		if err := c.drawUnderlay(underlay); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// source returns the reader for an underlay PDF. gofpdi keys parsed sources by
// reader, so the same document must always come through the same reader.
func (d *pdfDocument) source(data []byte) *io.ReadSeeker {
	if rs, ok := d.sources[&data[0]]; ok {
		return rs
	}
	rs := io.ReadSeeker(bytes.NewReader(data))
	d.sources[&data[0]] = &rs
	return &rs
}

func (d *pdfDocument) output(w io.Writer) error {
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	return nil
}

// pdfCanvas draws onto one page of a pdfDocument. fpdf works top-down, so
// every y is flipped against the page height here.
type pdfCanvas struct {
	doc         *pdfDocument
	pdf         *fpdf.Fpdf
	w, h        float64
	fillNone    bool
	strokeNone  bool
	layerSuffix string

	textCount      int
	encodingErrors int
}

func newPDFCanvas(w, h float64, underlay *Underlay, log logrus.FieldLogger) (*pdfCanvas, error) {
	return newPDFDocument(log).addPage(w, h, underlay, "")
}

// drawUnderlay places the original page beneath the reconstruction, either by
// importing a page of the original PDF or by drawing a page image.
func (c *pdfCanvas) drawUnderlay(u *Underlay) (err error) {
	switch {
	case len(u.PDF) > 0:
		page := u.Page
		if page < 1 {
			page = 1
		}
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("failed to import page %d of underlay PDF: %v", page, r)
			}
		}()
		tpl := c.doc.importer.ImportPageFromStream(c.pdf, c.doc.source(u.PDF), page, "/MediaBox")
		c.doc.importer.UseImportedTemplate(c.pdf, tpl, 0, 0, c.w, c.h)

	case len(u.Image) > 0:
		imageType, typeErr := detectImageType(u.Image)
		if typeErr != nil {
			return fmt.Errorf("invalid underlay image: %w", typeErr)
		}
		c.doc.images++
		name := fmt.Sprintf("underlay%d", c.doc.images)
		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
		c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(u.Image))
		c.pdf.ImageOptions(name, 0, 0, c.w, c.h, false, opts, 0, "")
	}
	return c.pdf.Error()
}

// detectImageType tries to figure out whether the data is PNG, JPEG, etc.
func detectImageType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image config: %w", err)
	}
	return strings.ToUpper(format), nil
}

func (c *pdfCanvas) Size() (float64, float64) { return c.w, c.h }

func (c *pdfCanvas) SetFillColor(col Color) {
	c.fillNone = col.None
	if col.None {
		return
	}
	r, g, b := col.rgb255()
	c.pdf.SetFillColor(r, g, b)
	c.pdf.SetTextColor(r, g, b)
}

func (c *pdfCanvas) SetStrokeColor(col Color) {
	c.strokeNone = col.None
	if col.None {
		return
	}
	r, g, b := col.rgb255()
	c.pdf.SetDrawColor(r, g, b)
}

func (c *pdfCanvas) SetLineWidth(w float64) { c.pdf.SetLineWidth(w) }

func (c *pdfCanvas) SetDash(pattern []float64) {
	if pattern == nil {
		pattern = []float64{}
	}
	c.pdf.SetDashPattern(pattern, 0)
}

func (c *pdfCanvas) SetAlpha(alpha float64) { c.pdf.SetAlpha(alpha, "Normal") }

// style maps a paint op to an fpdf style string; "" means nothing to paint
func (c *pdfCanvas) style(op PaintOp) string {
	s := ""
	if op&Fill != 0 && !c.fillNone {
		s += "F"
	}
	if op&Stroke != 0 && !c.strokeNone {
		s += "D"
	}
	return s
}

func (c *pdfCanvas) Rect(x, y, w, h float64, op PaintOp) {
	if s := c.style(op); s != "" {
		c.pdf.Rect(x, c.h-y-h, w, h, s)
	}
}

func (c *pdfCanvas) RoundedRect(x, y, w, h, r float64, op PaintOp) {
	if s := c.style(op); s != "" {
		c.pdf.RoundedRect(x, c.h-y-h, w, h, r, "1234", s)
	}
}

func (c *pdfCanvas) Circle(cx, cy, r float64, op PaintOp) {
	if s := c.style(op); s != "" {
		c.pdf.Circle(cx, c.h-cy, r, s)
	}
}

func (c *pdfCanvas) Line(x1, y1, x2, y2 float64) {
	if !c.strokeNone {
		c.pdf.Line(x1, c.h-y1, x2, c.h-y2)
	}
}

func (c *pdfCanvas) Arc(cx, cy, r, startDeg, endDeg float64) {
	if !c.strokeNone {
		c.pdf.Arc(cx, c.h-cy, r, r, 0, startDeg, endDeg, "D")
	}
}

func (c *pdfCanvas) SetFont(f Font) {
	style := ""
	if f.Bold {
		style = "B"
	}
	c.pdf.SetFont(pdfFamily(f), style, f.Size)
}

// pdfFamily maps a family onto the PDF core fonts
func pdfFamily(f Font) string {
	switch {
	case f.Monospace():
		return "Courier"
	case f.Serif():
		return "Times"
	default:
		return "Helvetica"
	}
}

func (c *pdfCanvas) TextWidth(s string) float64 {
	latin1, _ := toLatin1(s)
	return c.pdf.GetStringWidth(latin1)
}

func (c *pdfCanvas) Text(x, y float64, s string) {
	if c.fillNone {
		return
	}
	latin1, ok := toLatin1(s)
	if !ok {
		c.encodingErrors++
	}
	c.textCount++
	c.pdf.Text(x, c.h-y, latin1)
}

// toLatin1 converts text to ISO-8859-1 for the core fonts, falling back to the
// raw text when it cannot be encoded.
func toLatin1(s string) (string, bool) {
	latin1, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s, false
	}
	return latin1, true
}

func (c *pdfCanvas) BeginLayer(name string) {
	name += c.layerSuffix
	id, ok := c.doc.layers[name]
	if !ok {
		id = c.pdf.AddLayer(name, true)
		c.doc.layers[name] = id
	}
	c.pdf.BeginLayer(id)
}

func (c *pdfCanvas) EndLayer() { c.pdf.EndLayer() }

func (c *pdfCanvas) Err() error { return c.pdf.Error() }

// Finish writes the whole document the page belongs to
func (c *pdfCanvas) Finish(w io.Writer) error {
	c.reportEncoding()
	return c.doc.output(w)
}

func (c *pdfCanvas) reportEncoding() {
	if c.encodingErrors > 0 {
		c.doc.log.Warnf("Character encoding issues in %d of %d text lines", c.encodingErrors, c.textCount)
	}
}
