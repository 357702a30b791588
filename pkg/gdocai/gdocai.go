// Package gdocai turns Google Document AI responses into layout detections.
//
// A Client sends page images or PDFs to a configured OCR or custom extractor
// processor. Detections then flattens the returned document at the requested
// granularity (blocks, paragraphs, lines, tokens or extractor entities) into
// layout.Detection values with normalized polygons, ready for the layout
// reconstructor.
//
// Besides text, every page's visual elements become detections hinted with
// their element type, and token style info (weight and colors) is carried as a
// style hint.
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR
// - Credentials in the config or via the GOOGLE_APPLICATION_CREDENTIALS environment variable
package gdocai

import (
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/ocrlayout/pkg/geometry"
	"github.com/gardar/ocrlayout/pkg/layout"
)

// Detections flattens a Document AI document into detections. Page indexes are
// 0-based in document order.
func Detections(doc *documentaipb.Document, level Level) []layout.Detection {
	if doc == nil {
		return nil
	}
	runes := []rune(doc.GetText())

	if level == LevelEntity {
		return entityDetections(doc, runes)
	}

	var out []layout.Detection
	for pageIndex, page := range doc.GetPages() {
		dim := page.GetDimension()
		add := func(kind string, i int, l *documentaipb.Document_Page_Layout, text, hint string, style *layout.StyleHint) {
			out = append(out, layout.Detection{
				ID:         fmt.Sprintf("p%d-%s-%d", pageIndex, kind, i),
				Polygon:    polygon(l.GetBoundingPoly(), dim),
				Text:       text,
				Confidence: float64(l.GetConfidence()),
				Page:       pageIndex,
				Hint:       hint,
				Style:      style,
				Source:     Source,
			})
		}

		switch level {
		case LevelParagraph:
			for i, p := range page.GetParagraphs() {
				add("paragraph", i, p.GetLayout(), textFromAnchor(p.GetLayout().GetTextAnchor(), runes), "", nil)
			}
		case LevelLine:
			for i, l := range page.GetLines() {
				add("line", i, l.GetLayout(), textFromAnchor(l.GetLayout().GetTextAnchor(), runes), "", nil)
			}
		case LevelToken:
			for i, t := range page.GetTokens() {
				add("token", i, t.GetLayout(), tokenText(t, runes), "", styleHint(t.GetStyleInfo()))
			}
		default:
			for i, b := range page.GetBlocks() {
				add("block", i, b.GetLayout(), textFromAnchor(b.GetLayout().GetTextAnchor(), runes), "", nil)
			}
		}

		for i, v := range page.GetVisualElements() {
			add("visual", i, v.GetLayout(), textFromAnchor(v.GetLayout().GetTextAnchor(), runes), v.GetType(), nil)
		}
	}
	return out
}

// polygon returns the normalized vertices of a bounding poly. Documents that
// only carry pixel vertices are normalized by the page dimension. The vertex
// order is Document AI's: top-left, top-right, bottom-right, bottom-left.
func polygon(poly *documentaipb.BoundingPoly, dim *documentaipb.Document_Page_Dimension) []geometry.Point {
	if nv := poly.GetNormalizedVertices(); len(nv) > 0 {
		points := make([]geometry.Point, len(nv))
		for i, v := range nv {
			points[i] = geometry.Point{X: float64(v.GetX()), Y: float64(v.GetY())}
		}
		return points
	}

	vs := poly.GetVertices()
	w, h := float64(dim.GetWidth()), float64(dim.GetHeight())
	if len(vs) == 0 || w <= 0 || h <= 0 {
		return nil
	}
	points := make([]geometry.Point, len(vs))
	for i, v := range vs {
		points[i] = geometry.Point{X: float64(v.GetX()) / w, Y: float64(v.GetY()) / h}
	}
	return points
}

// styleHint keeps the token style fields that map onto element styling. Font
// sizes are left to the style inferencer because they are measured in the
// processed image, not on the layout canvas.
func styleHint(si *documentaipb.Document_Page_Token_StyleInfo) *layout.StyleHint {
	if si == nil {
		return nil
	}

	var hint layout.StyleHint
	set := false

	switch {
	case si.GetBold() || si.GetFontWeight() >= 600:
		weight := "bold"
		hint.FontWeight = &weight
		set = true
	case si.GetFontWeight() > 0:
		weight := fmt.Sprint(si.GetFontWeight())
		hint.FontWeight = &weight
		set = true
	}

	if c := si.GetTextColor(); c != nil {
		hex := hexColor(c.GetRed(), c.GetGreen(), c.GetBlue())
		hint.TextColor = &hex
		set = true
	}
	if c := si.GetBackgroundColor(); c != nil {
		hex := hexColor(c.GetRed(), c.GetGreen(), c.GetBlue())
		hint.BackgroundColor = &hex
		set = true
	}

	if !set {
		return nil
	}
	return &hint
}

// hexColor formats a color with components in [0,1]
func hexColor(r, g, b float32) string {
	return fmt.Sprintf("#%02x%02x%02x", channel(r), channel(g), channel(b))
}

func channel(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
