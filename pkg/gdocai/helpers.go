package gdocai

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/gardar/ocrlayout/pkg/layout"
)

// ToJSON converts a proto message or a plain value to indented JSON
func ToJSON(data any) (string, error) {
	switch v := data.(type) {
	case proto.Message:
		out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal proto: %w", err)
		}
		return string(out), nil
	default:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(out), nil
	}
}

// FromJSON parses a Document AI document saved with ToJSON
func FromJSON(data []byte) (*documentaipb.Document, error) {
	var doc documentaipb.Document
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse Document AI JSON: %w", err)
	}
	return &doc, nil
}

// PageImage returns the rendered image of a 0-based page and its MIME type
func PageImage(doc *documentaipb.Document, page int) ([]byte, string, error) {
	pages := doc.GetPages()
	if page < 0 || page >= len(pages) {
		return nil, "", fmt.Errorf("page %d out of range, document has %d pages", page, len(pages))
	}

	image := pages[page].GetImage()
	if image == nil {
		return nil, "", fmt.Errorf("no image found on page %d", page)
	}
	if len(image.GetContent()) == 0 {
		return nil, "", fmt.Errorf("image content is empty on page %d", page)
	}
	return image.GetContent(), image.GetMimeType(), nil
}

// PageSize returns the pixel dimensions Document AI reports for a page
func PageSize(doc *documentaipb.Document, page int) (width, height int, ok bool) {
	pages := doc.GetPages()
	if page < 0 || page >= len(pages) {
		return 0, 0, false
	}
	dim := pages[page].GetDimension()
	if dim.GetWidth() <= 0 || dim.GetHeight() <= 0 {
		return 0, 0, false
	}
	return int(dim.GetWidth() + 0.5), int(dim.GetHeight() + 0.5), true
}

// Summarize describes an OCR run for the layout metadata. The confidence is
// the average over all blocks of all pages.
func Summarize(doc *documentaipb.Document, elapsed time.Duration, processedAt time.Time) layout.OCRSummary {
	var sum float64
	var blocks int
	for _, page := range doc.GetPages() {
		for _, b := range page.GetBlocks() {
			sum += float64(b.GetLayout().GetConfidence())
			blocks++
		}
	}

	s := layout.OCRSummary{
		ProcessorType:    "google_document_ai",
		ProcessingTime:   elapsed.Seconds(),
		DetectedLanguage: documentLanguage(doc),
		PageCount:        len(doc.GetPages()),
	}
	if blocks > 0 {
		s.ConfidenceScore = sum / float64(blocks)
		s.ExtractedElements = blocks
	}
	if !processedAt.IsZero() {
		s.ProcessedAt = processedAt.UTC().Format(time.RFC3339)
	}
	return s
}

// documentLanguage returns the most frequent language over pages and tokens.
// Ties go to the language seen first.
func documentLanguage(doc *documentaipb.Document) string {
	counts := make(map[string]int)
	var order []string
	count := func(langs []*documentaipb.Document_Page_DetectedLanguage) {
		for _, l := range langs {
			code := l.GetLanguageCode()
			if code == "" {
				continue
			}
			if counts[code] == 0 {
				order = append(order, code)
			}
			counts[code]++
		}
	}

	for _, page := range doc.GetPages() {
		count(page.GetDetectedLanguages())
		for _, t := range page.GetTokens() {
			count(t.GetDetectedLanguages())
		}
	}

	best := ""
	for _, code := range order {
		if counts[code] > counts[best] {
			best = code
		}
	}
	return best
}
