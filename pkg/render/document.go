package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gardar/ocrlayout/pkg/layout"
)

// PageLayerSuffix is appended to layer names on every page of a Document
const PageLayerSuffix = " (Page %d)"

// Document collects rendered pages into one PDF. Every page has its own
// layers, e.g. "Layout (Page 2)", and its own optional underlay.
//
// A Document is not safe for concurrent use.
type Document struct {
	r     *Renderer
	doc   *pdfDocument
	pages int
	err   error
}

// NewDocument starts an empty multi-page PDF
func (r *Renderer) NewDocument() *Document {
	return &Document{r: r, doc: newPDFDocument(r.log)}
}

// AddPage draws the layout as the next page, on top of underlay when it is not
// nil. Invalid layouts are rejected before anything is drawn and leave the
// document usable; a failure while drawing fails the whole document.
func (d *Document) AddPage(l *layout.Layout, regions []layout.ImageRegion, underlay *Underlay) error {
	if d.err != nil {
		return d.err
	}
	if l == nil {
		return &RenderTargetError{Element: -1, Err: errors.New("nil layout")}
	}
	if err := l.Validate(); err != nil {
		return &RenderTargetError{Page: l.Page, Element: -1, Err: err}
	}

	pageW, pageH, err := d.r.cfg.pageSize(l.CanvasWidth, l.CanvasHeight)
	if err != nil {
		return &RenderTargetError{Page: l.Page, Element: -1, Err: err}
	}

	c, err := d.doc.addPage(pageW, pageH, underlay, fmt.Sprintf(PageLayerSuffix, d.pages+1))
	if err != nil {
		d.err = &RenderTargetError{Page: l.Page, Element: -1, Err: err}
		return d.err
	}
	d.pages++

	if err := d.r.WithUnderlay(underlay).RenderTo(c, l, regions); err != nil {
		d.err = err
		return err
	}
	c.reportEncoding()
	return nil
}

// Pages returns the number of pages added so far
func (d *Document) Pages() int { return d.pages }

// Finish writes the document to w
func (d *Document) Finish(w io.Writer) error {
	if d.err != nil {
		return d.err
	}
	if d.pages == 0 {
		return errors.New("document has no pages")
	}
	return d.doc.output(w)
}

// Bytes finishes the document and returns it
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Finish(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
