// Package hocr reads hOCR, the HTML-based OCR output format written by
// Tesseract, OCRmyPDF and others, and turns it into layout detections.
//
// Parse builds a light object model: a Document holds pages, and every page
// holds a tree of OCR elements identified by their hOCR class (ocr_carea,
// ocr_par, ocr_line, ocrx_word and their variants). Detections flattens that
// tree at the requested level, normalizing every bbox by the page bbox.
package hocr

import (
	"fmt"
	"strings"

	"github.com/gardar/ocrlayout/pkg/geometry"
	"github.com/gardar/ocrlayout/pkg/layout"
)

// Level selects which hOCR elements become detections
type Level string

const (
	LevelBlock     Level = "block"     // ocr_carea, ocrx_block
	LevelParagraph Level = "paragraph" // ocr_par
	LevelLine      Level = "line"      // ocr_line and its variants
	LevelWord      Level = "word"      // ocrx_word
)

// ParseLevel parses a level name; "token" is accepted for words and the empty
// string means lines
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelBlock, LevelParagraph, LevelLine, LevelWord:
		return l, nil
	case "token":
		return LevelWord, nil
	case "":
		return LevelLine, nil
	}
	return "", fmt.Errorf("unknown detection level %q", s)
}

// Source is the detection source name used by this package
const Source = "hocr"

func (l Level) matches(n Node) bool {
	switch l {
	case LevelBlock:
		return n.Class == "ocr_carea" || n.Class == "ocrx_block"
	case LevelParagraph:
		return n.Class == "ocr_par"
	case LevelLine:
		return n.IsLine()
	case LevelWord:
		return n.IsWord()
	}
	return false
}

// Detections flattens the document at the given level. Detections are hinted
// with their hOCR class and carry x_wconf / 100 as confidence. Pages without a
// usable bbox are skipped because nothing on them can be normalized.
func Detections(doc *Document, level Level) []layout.Detection {
	if doc == nil {
		return nil
	}

	var out []layout.Detection
	for pageIndex, page := range doc.Pages {
		if page.BBox.Width() <= 0 || page.BBox.Height() <= 0 {
			continue
		}

		n := 0
		var walk func(nodes []Node)
		walk = func(nodes []Node) {
			for _, node := range nodes {
				if !level.matches(node) {
					walk(node.Children)
					continue
				}
				if !node.HasBBox {
					continue
				}
				conf, _ := node.WordConfidence()
				id := node.ID
				if id == "" {
					id = fmt.Sprintf("p%d-%s-%d", pageIndex, level, n)
				}
				out = append(out, layout.Detection{
					ID:         id,
					Polygon:    polygon(node.BBox, page.BBox),
					Text:       node.Content(),
					Confidence: conf / 100,
					Page:       pageIndex,
					Hint:       node.Class,
					Source:     Source,
				})
				n++
			}
		}
		walk(page.Nodes)
	}
	return out
}

// polygon returns the corners of a bbox normalized by the page bbox, in the
// order top-left, top-right, bottom-right, bottom-left.
func polygon(b, page BoundingBox) []geometry.Point {
	w, h := page.Width(), page.Height()
	x1, y1 := (b.X1-page.X1)/w, (b.Y1-page.Y1)/h
	x2, y2 := (b.X2-page.X1)/w, (b.Y2-page.Y1)/h
	return []geometry.Point{{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2}}
}
