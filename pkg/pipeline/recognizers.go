package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/cenkalti/backoff/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gardar/ocrlayout/pkg/gdocai"
	"github.com/gardar/ocrlayout/pkg/layout"
	"github.com/gardar/ocrlayout/pkg/tessocr"
)

// ErrNoContent is returned by recognizers for pages without anything to read
var ErrNoContent = errors.New("page has no image or PDF content")

// Recognition is what a recognizer found on one page
type Recognition struct {
	Detections []layout.Detection
	Width      int // Pixel size of the recognized image, 0 if unknown
	Height     int
	Summary    *layout.OCRSummary
}

// Recognizer turns a page into detections
type Recognizer interface {
	Recognize(ctx context.Context, page PageInput) (Recognition, error)
}

// RecognizerFunc adapts a function to a Recognizer
type RecognizerFunc func(ctx context.Context, page PageInput) (Recognition, error)

func (f RecognizerFunc) Recognize(ctx context.Context, page PageInput) (Recognition, error) {
	return f(ctx, page)
}

// retryable reports whether a failed recognition may succeed when repeated
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, tessocr.ErrOCRNotEnabled), errors.Is(err, ErrNoContent):
		return false
	}
	return status.Code(err) != codes.InvalidArgument
}

// DocumentProcessor sends a document to Document AI; *gdocai.Client is one
type DocumentProcessor interface {
	Process(ctx context.Context, content []byte, mimeType string) (*documentaipb.Document, error)
}

type documentAI struct {
	proc  DocumentProcessor
	level gdocai.Level
}

// DocumentAI recognizes pages with Document AI. The page image is sent when
// present, otherwise the PDF, keeping only the detections of PDFPage.
//
// The client retries on its own, so its failures are not retried again.
func DocumentAI(proc DocumentProcessor, level gdocai.Level) Recognizer {
	return &documentAI{proc: proc, level: level}
}

func (r *documentAI) Recognize(ctx context.Context, in PageInput) (Recognition, error) {
	content, mimeType, docPage := in.Image, in.MimeType, 0
	if len(content) == 0 {
		content, mimeType, docPage = in.PDF, "application/pdf", in.PDFPage
	}
	if len(content) == 0 {
		return Recognition{}, ErrNoContent
	}

	start := time.Now()
	doc, err := r.proc.Process(ctx, content, mimeType)
	if err != nil {
		return Recognition{}, backoff.Permanent(err)
	}

	var dets []layout.Detection
	for _, d := range gdocai.Detections(doc, r.level) {
		if d.Page == docPage {
			dets = append(dets, d)
		}
	}

	rec := Recognition{Detections: dets}
	rec.Width, rec.Height, _ = gdocai.PageSize(doc, docPage)
	summary := gdocai.Summarize(doc, time.Since(start), time.Now())
	rec.Summary = &summary
	return rec, nil
}

// ImageRecognizer reads text from a page image; *tessocr.Client is one
type ImageRecognizer interface {
	Detections(imageData []byte, page int) ([]layout.Detection, error)
}

type tesseract struct {
	client ImageRecognizer
}

// Tesseract recognizes page images locally
func Tesseract(client ImageRecognizer) Recognizer {
	return &tesseract{client: client}
}

func (r *tesseract) Recognize(_ context.Context, in PageInput) (Recognition, error) {
	if len(in.Image) == 0 {
		return Recognition{}, ErrNoContent
	}

	width, height, err := tessocr.ImageSize(in.Image)
	if err != nil {
		return Recognition{}, backoff.Permanent(err)
	}

	start := time.Now()
	dets, err := r.client.Detections(in.Image, in.Index)
	if err != nil {
		return Recognition{}, err
	}

	var sum float64
	for _, d := range dets {
		sum += d.Confidence
	}
	summary := layout.OCRSummary{
		ProcessorType:  tessocr.Source,
		ProcessingTime: time.Since(start).Seconds(),
		PageCount:      1,
		ProcessedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if len(dets) > 0 {
		summary.ConfidenceScore = sum / float64(len(dets))
	}
	return Recognition{Detections: dets, Width: width, Height: height, Summary: &summary}, nil
}

// SplitPages groups detections by page into pipeline inputs, one for every
// page in [0, pages). Pages without detections get an empty, non-nil list so
// that they are reconstructed without recognition.
func SplitPages(dets []layout.Detection, pages int) ([]PageInput, error) {
	inputs := make([]PageInput, pages)
	for i := range inputs {
		inputs[i] = PageInput{Index: i, PDFPage: i, Detections: []layout.Detection{}}
	}
	for _, d := range dets {
		if d.Page < 0 || d.Page >= pages {
			return nil, fmt.Errorf("detection %q is on page %d, expected 0..%d", d.ID, d.Page, pages-1)
		}
		inputs[d.Page].Detections = append(inputs[d.Page].Detections, d)
	}
	return inputs, nil
}
