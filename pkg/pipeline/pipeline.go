// Package pipeline takes pages from recognition through layout reconstruction
// to rendered output, several pages at a time.
//
// Every page is processed on its own and writes only its own result, so a
// failing page never aborts the others. Cancelling the context stops new pages
// from being scheduled; pages that never started report the context error.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"github.com/gardar/ocrlayout/pkg/imageregion"
	"github.com/gardar/ocrlayout/pkg/layout"
	"github.com/gardar/ocrlayout/pkg/render"
)

// Canvas size used when neither the config nor the page provide one
const (
	DefaultCanvasWidth  = 800
	DefaultCanvasHeight = 600
)

// PageInput is one page to process
type PageInput struct {
	Index      int                // 0-based position in the batch; becomes Layout.Page
	Name       string             // Layout name, "page-<n>" when empty
	Image      []byte             // Page raster, used for OCR and as underlay
	MimeType   string             // MIME type of Image
	PDF        []byte             // Original PDF, used for image regions and as underlay
	PDFPage    int                // 0-based page of PDF
	Width      int                // Source size in pixels when known, e.g. from hOCR
	Height     int
	Detections []layout.Detection // Detections known in advance; recognition is skipped when non-nil
	Summary    *layout.OCRSummary // Summary of the OCR run that produced Detections
}

// PageResult is the outcome of one page. Layout is set whenever
// reconstruction succeeded, even if rendering failed afterwards. A format that
// failed to render has an entry in RenderErrors and none in Outputs; Err then
// holds the first of those errors.
type PageResult struct {
	Index        int
	Layout       *layout.Layout
	Regions      []layout.ImageRegion
	Outputs      map[render.Format][]byte
	RenderErrors map[render.Format]error
	Err          error
}

// Config holds the pipeline options
type Config struct {
	Workers       int           // Pages processed at once
	Retries       uint64        // Extra recognition attempts after a transient failure
	RetryInterval time.Duration // Initial backoff between attempts
	CanvasWidth   int           // 0 uses the page's own size
	CanvasHeight  int
	Formats       []render.Format // Rendered outputs per page; none skips rendering
	Underlay      bool            // Draw the original page beneath PDF output
	ImageRegions  bool            // Detect embedded images in PDF pages
	Layout        layout.Config
	Render        render.Config
	ImageRegion   imageregion.Config
	Logger        logrus.FieldLogger
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Workers:       4,
		Retries:       2,
		RetryInterval: 500 * time.Millisecond,
		Formats:       []render.Format{render.FormatPDF},
		ImageRegions:  true,
		Layout:        layout.DefaultConfig(),
		Render:        render.DefaultConfig(),
		ImageRegion:   imageregion.DefaultConfig(),
	}
}

// Pipeline runs pages through recognition, reconstruction and rendering
type Pipeline struct {
	cfg           Config
	log           logrus.FieldLogger
	recognizer    Recognizer
	reconstructor *layout.Reconstructor
	renderer      *render.Renderer
	detector      *imageregion.Detector
}

// New creates a pipeline. The recognizer may be nil when every page comes
// with its detections.
func New(cfg Config, recognizer Recognizer) *Pipeline {
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Layout.Logger == nil {
		cfg.Layout.Logger = log
	}
	if cfg.Render.Logger == nil {
		cfg.Render.Logger = log
	}
	if cfg.ImageRegion.Logger == nil {
		cfg.ImageRegion.Logger = log
	}

	return &Pipeline{
		cfg:           cfg,
		log:           log,
		recognizer:    recognizer,
		reconstructor: layout.NewReconstructor(cfg.Layout),
		renderer:      render.New(cfg.Render),
		detector:      imageregion.New(cfg.ImageRegion),
	}
}

// Run processes the pages and returns one result per page, in input order.
// The error is only set when ctx was cancelled.
func (p *Pipeline) Run(ctx context.Context, pages []PageInput) ([]PageResult, error) {
	results := make([]PageResult, len(pages))
	started := make([]bool, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i := range pages {
		if gctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			results[i] = p.processPage(gctx, pages[i])
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i := range results {
		if !started[i] {
			results[i] = PageResult{Index: pages[i].Index, Err: ctx.Err()}
		}
		if results[i].Err != nil {
			failed++
		}
	}
	p.log.WithFields(logrus.Fields{"pages": len(pages), "failed": failed}).Info("Pipeline finished")

	return results, ctx.Err()
}

func (p *Pipeline) processPage(ctx context.Context, in PageInput) PageResult {
	res := PageResult{Index: in.Index}
	log := p.log.WithField("page", in.Index)

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	rec := Recognition{Detections: in.Detections, Summary: in.Summary}
	if in.Detections == nil {
		if p.recognizer == nil {
			res.Err = errors.New("page has no detections and no recognizer is configured")
			return res
		}
		var err error
		start := time.Now()
		if rec, err = p.recognize(ctx, in, log); err != nil {
			res.Err = fmt.Errorf("recognition failed: %w", err)
			return res
		}
		log.WithFields(logrus.Fields{
			"detections": len(rec.Detections),
			"elapsed":    time.Since(start).Round(time.Millisecond),
		}).Debug("Recognized page")
	}

	width, height := p.canvasSize(in, rec)

	if p.cfg.ImageRegions && len(in.PDF) > 0 {
		regions, err := p.detector.DetectBytes(in.PDF, in.PDFPage)
		if err != nil {
			log.Warnf("Image region detection failed, continuing without: %v", err)
		}
		for _, reg := range regions {
			reg.Page = in.Index
			res.Regions = append(res.Regions, reg)
		}
	}

	dets := make([]layout.Detection, len(rec.Detections))
	for i, d := range rec.Detections {
		d.Page = in.Index
		dets[i] = d
	}

	l, err := p.reconstructor.ReconstructPage(dets, in.Index, width, height, res.Regions)
	if err != nil {
		res.Err = fmt.Errorf("reconstruction failed: %w", err)
		return res
	}
	l.Name = in.Name
	if l.Name == "" {
		l.Name = fmt.Sprintf("page-%d", in.Index+1)
	}
	if rec.Summary != nil {
		summary := *rec.Summary
		summary.ExtractedElements = len(l.Elements)
		l.Metadata.OCR = &summary
	}
	res.Layout = l

	if len(p.cfg.Formats) == 0 {
		return res
	}
	res.Outputs = make(map[render.Format][]byte, len(p.cfg.Formats))
	for _, f := range p.cfg.Formats {
		renderer := p.renderer
		if p.cfg.Underlay && f == render.FormatPDF {
			renderer = renderer.WithUnderlay(underlayFor(in))
		}
		out, err := renderer.Render(l, res.Regions, f)
		if err != nil {
			log.WithField("format", f).Warnf("Rendering failed: %v", err)
			if res.RenderErrors == nil {
				res.RenderErrors = make(map[render.Format]error)
			}
			res.RenderErrors[f] = err
			if res.Err == nil {
				res.Err = err
			}
			continue
		}
		res.Outputs[f] = out
	}

	log.WithField("elements", len(l.Elements)).Debug("Processed page")
	return res
}

// recognize runs the recognizer, retrying transient failures with
// exponential backoff
func (p *Pipeline) recognize(ctx context.Context, in PageInput, log logrus.FieldLogger) (Recognition, error) {
	b := backoff.NewExponentialBackOff()
	if p.cfg.RetryInterval > 0 {
		b.InitialInterval = p.cfg.RetryInterval
	}

	attempt := 0
	return backoff.RetryWithData(func() (Recognition, error) {
		attempt++
		rec, err := p.recognizer.Recognize(ctx, in)
		if err != nil {
			if !retryable(err) {
				return Recognition{}, backoff.Permanent(err)
			}
			log.WithField("attempt", attempt).Warnf("Recognition failed: %v", err)
			return Recognition{}, err
		}
		return rec, nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, p.cfg.Retries), ctx))
}

// canvasSize picks the configured size, else the size the recognizer saw,
// else the known source size, else the size of the page image
func (p *Pipeline) canvasSize(in PageInput, rec Recognition) (int, int) {
	if p.cfg.CanvasWidth > 0 && p.cfg.CanvasHeight > 0 {
		return p.cfg.CanvasWidth, p.cfg.CanvasHeight
	}
	if rec.Width > 0 && rec.Height > 0 {
		return rec.Width, rec.Height
	}
	if in.Width > 0 && in.Height > 0 {
		return in.Width, in.Height
	}
	if len(in.Image) > 0 {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Image)); err == nil && cfg.Width > 0 && cfg.Height > 0 {
			return cfg.Width, cfg.Height
		}
	}
	return DefaultCanvasWidth, DefaultCanvasHeight
}

// underlayFor prefers the original PDF page over the page image
func underlayFor(in PageInput) *render.Underlay {
	switch {
	case len(in.PDF) > 0:
		return &render.Underlay{PDF: in.PDF, Page: in.PDFPage + 1}
	case len(in.Image) > 0:
		return &render.Underlay{Image: in.Image}
	}
	return nil
}

// Document assembles the reconstructed pages of a run into one PDF, with the
// original pages beneath when the pipeline draws underlays. Pages without a
// layout, or whose own PDF rendering failed, are left out.
func (p *Pipeline) Document(pages []PageInput, results []PageResult) ([]byte, error) {
	if len(pages) != len(results) {
		return nil, fmt.Errorf("got %d results for %d pages", len(results), len(pages))
	}

	doc := p.renderer.NewDocument()
	for i, res := range results {
		if res.Layout == nil || res.RenderErrors[render.FormatPDF] != nil {
			continue
		}
		var underlay *render.Underlay
		if p.cfg.Underlay {
			underlay = underlayFor(pages[i])
		}
		if err := doc.AddPage(res.Layout, res.Regions, underlay); err != nil {
			p.log.WithField("page", res.Index).Warnf("Leaving page out of document: %v", err)
		}
	}
	return doc.Bytes()
}
