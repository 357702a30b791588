// Package imageregion finds the raster images embedded in a PDF page.
//
// Each page content stream is interpreted with github.com/ledongthuc/pdf while
// tracking the current transformation matrix. Every image painted with the Do
// operator covers the unit square of the matrix in effect at that point, and
// form XObjects are entered with their own matrix and resources. The resulting
// boxes are normalized by the page MediaBox into top-left [0,1] space, the same
// space OCR detections use.
package imageregion

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrlayout/pkg/geometry"
	"github.com/gardar/ocrlayout/pkg/layout"
)

const (
	// DefaultMaxFormDepth bounds how deep nested form XObjects are followed
	DefaultMaxFormDepth = 8
	// DefaultDuplicateOverlap is the intersection over union at which two
	// regions are treated as the same image
	DefaultDuplicateOverlap = 0.98

	maxParentDepth = 32
)

// Config holds the detector options
type Config struct {
	MaxFormDepth     int
	DuplicateOverlap float64
	Logger           logrus.FieldLogger
}

// DefaultConfig returns the default detector options
func DefaultConfig() Config {
	return Config{
		MaxFormDepth:     DefaultMaxFormDepth,
		DuplicateOverlap: DefaultDuplicateOverlap,
	}
}

// Detector reports image regions of PDF pages
type Detector struct {
	cfg Config
	log logrus.FieldLogger
}

// New creates a detector
func New(cfg Config) *Detector {
	if cfg.MaxFormDepth <= 0 {
		cfg.MaxFormDepth = DefaultMaxFormDepth
	}
	if cfg.DuplicateOverlap <= 0 {
		cfg.DuplicateOverlap = DefaultDuplicateOverlap
	}
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Detector{cfg: cfg, log: log}
}

// DetectFile opens a PDF file and detects the image regions of a page
func (d *Detector) DetectFile(path string, page int) ([]layout.ImageRegion, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	return d.detect(r, page)
}

// DetectBytes detects the image regions of a page in an in-memory PDF
func (d *Detector) DetectBytes(data []byte, page int) ([]layout.ImageRegion, error) {
	return d.Detect(bytes.NewReader(data), int64(len(data)), page)
}

// Detect returns the normalized regions of the images painted on the given
// 0-based page. A page outside the document scans every page instead. A page
// without images gives an empty slice and no error.
func (d *Detector) Detect(r io.ReaderAt, size int64, page int) ([]layout.ImageRegion, error) {
	reader, err := newReader(r, size)
	if err != nil {
		return nil, err
	}
	return d.detect(reader, page)
}

func newReader(r io.ReaderAt, size int64) (reader *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to read PDF: %v", rec)
		}
	}()

	reader, err = pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return reader, nil
}

func (d *Detector) detect(r *pdf.Reader, page int) ([]layout.ImageRegion, error) {
	total := r.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	pages := []int{page}
	if page < 0 || page >= total {
		d.log.WithFields(logrus.Fields{"page": page, "pages": total}).Warn("Page out of range, scanning all pages")
		pages = make([]int, total)
		for i := range pages {
			pages[i] = i
		}
	}

	regions := []layout.ImageRegion{}
	for _, p := range pages {
		found, err := d.scanPage(r.Page(p+1), p)
		if err != nil {
			d.log.WithField("page", p).Warnf("Skipping page: %v", err)
			continue
		}
		regions = d.appendUnique(regions, found)
	}

	d.log.Debugf("Found %d image regions", len(regions))
	return regions, nil
}

// appendUnique adds regions that do not duplicate one already found on the same page
func (d *Detector) appendUnique(regions, found []layout.ImageRegion) []layout.ImageRegion {
	for _, f := range found {
		duplicate := false
		for _, existing := range regions {
			if existing.Page == f.Page && iou(existing.Box(), f.Box()) >= d.cfg.DuplicateOverlap {
				duplicate = true
				break
			}
		}
		if !duplicate {
			regions = append(regions, f)
		}
	}
	return regions
}

func iou(a, b geometry.Box) float64 {
	inter := a.Intersection(b).Area()
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// scanPage interprets one page. Malformed streams make the PDF library panic,
// which is reported as an error for this page only.
func (d *Detector) scanPage(p pdf.Page, index int) (regions []layout.ImageRegion, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed page: %v", rec)
		}
	}()

	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d not found", index)
	}

	media, err := mediaBox(p)
	if err != nil {
		return nil, err
	}

	s := &scanner{
		maxDepth: d.cfg.MaxFormDepth,
		log:      d.log.WithField("page", index),
	}
	contents := p.V.Key("Contents")
	switch contents.Kind() {
	case pdf.Stream:
		s.run(contents, inherited(p.V, "Resources"), geometry.Identity(), 0)
	case pdf.Array:
		// Graphics state carries across the parts of a split content stream
		ctm := geometry.Identity()
		res := inherited(p.V, "Resources")
		for i := 0; i < contents.Len(); i++ {
			ctm = s.run(contents.Index(i), res, ctm, 0)
		}
	}

	for _, b := range s.boxes {
		if n, ok := normalize(b, media); ok {
			regions = append(regions, layout.ImageRegion{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height, Page: index})
		}
	}
	return regions, nil
}

// inherited looks a key up on a page and then on its ancestors in the page tree
func inherited(v pdf.Value, key string) pdf.Value {
	for i := 0; i < maxParentDepth && v.Kind() == pdf.Dict; i++ {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}

// mediaBox returns the page MediaBox as lower-left and upper-right corners
func mediaBox(p pdf.Page) ([4]float64, error) {
	var box [4]float64
	v := inherited(p.V, "MediaBox")
	if v.Kind() != pdf.Array || v.Len() != 4 {
		return box, fmt.Errorf("missing or invalid MediaBox")
	}
	for i := range box {
		box[i] = v.Index(i).Float64()
	}
	if box[0] > box[2] {
		box[0], box[2] = box[2], box[0]
	}
	if box[1] > box[3] {
		box[1], box[3] = box[3], box[1]
	}
	if box[2]-box[0] <= 0 || box[3]-box[1] <= 0 {
		return box, fmt.Errorf("empty MediaBox %v", box)
	}
	return box, nil
}

// normalize converts a user-space rectangle into a top-left [0,1] box clipped
// to the page. Images entirely off the page are dropped.
func normalize(b [4]float64, media [4]float64) (geometry.Box, bool) {
	w, h := media[2]-media[0], media[3]-media[1]
	box := geometry.NewBox(
		(b[0]-media[0])/w,
		geometry.FromPageCoordinates(b[3]-media[1], h),
		(b[2]-b[0])/w,
		(b[3]-b[1])/h,
	)
	clipped := box.Intersection(geometry.NewBox(0, 0, 1, 1))
	if !clipped.IsValid() {
		return geometry.Box{}, false
	}
	return clipped, true
}

// scanner collects image rectangles while walking content streams
type scanner struct {
	maxDepth int
	log      logrus.FieldLogger
	boxes    [][4]float64
}

// run interprets one content stream starting from ctm and returns the matrix in
// effect at its end.
func (s *scanner) run(stream, resources pdf.Value, ctm geometry.Matrix, depth int) geometry.Matrix {
	var stack []geometry.Matrix

	pdf.Interpret(stream, func(stk *pdf.Stack, op string) {
		switch op {
		case "q":
			stack = append(stack, ctm)
		case "Q":
			if n := len(stack); n > 0 {
				ctm = stack[n-1]
				stack = stack[:n-1]
			}
		case "cm":
			if stk.Len() >= 6 {
				var m geometry.Matrix
				for i := 5; i >= 0; i-- {
					m[i] = stk.Pop().Float64()
				}
				ctm = m.Multiply(ctm)
			}
		case "Do":
			if stk.Len() >= 1 {
				s.paint(stk.Pop().Name(), resources, ctm, depth)
			}
		}
		// The interpreter keeps operands across operators, so whatever an
		// operator leaves behind is cleared here before the next one runs.
		for stk.Len() > 0 {
			stk.Pop()
		}
	})

	return ctm
}

func (s *scanner) paint(name string, resources pdf.Value, ctm geometry.Matrix, depth int) {
	xobj := resources.Key("XObject").Key(name)
	if xobj.IsNull() {
		s.log.Debugf("Unknown XObject %s", name)
		return
	}

	switch xobj.Key("Subtype").Name() {
	case "Image":
		minX, minY, maxX, maxY := ctm.UnitSquareBounds()
		if math.IsNaN(minX) || maxX-minX <= 0 || maxY-minY <= 0 {
			return
		}
		s.boxes = append(s.boxes, [4]float64{minX, minY, maxX, maxY})
	case "Form":
		if depth >= s.maxDepth {
			s.log.Warnf("Form XObject %s nested too deeply, not entered", name)
			return
		}
		formCTM := formMatrix(xobj).Multiply(ctm)
		formResources := xobj.Key("Resources")
		if formResources.IsNull() {
			formResources = resources
		}
		s.run(xobj, formResources, formCTM, depth+1)
	}
}

func formMatrix(xobj pdf.Value) geometry.Matrix {
	v := xobj.Key("Matrix")
	if v.Kind() != pdf.Array || v.Len() != 6 {
		return geometry.Identity()
	}
	var m geometry.Matrix
	for i := range m {
		m[i] = v.Index(i).Float64()
	}
	return m
}
