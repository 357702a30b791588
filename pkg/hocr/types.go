package hocr

import "strings"

// Document is a parsed hOCR file
type Document struct {
	Title    string            // Document title
	Language string            // Document language
	Metadata map[string]string // ocr-system, ocr-capabilities, ocr-langs, ...
	Pages    []Page
}

// Page is one element with class 'ocr_page'
type Page struct {
	ID         string
	PageNumber int    // ppageno from the title, 0 when absent
	ImageName  string // Source image file
	Lang       string
	BBox       BoundingBox
	Nodes      []Node // Top-level OCR elements on the page
}

// Node is any OCR element below a page: areas, paragraphs, lines and words
// and their variants, identified by class.
type Node struct {
	Class      string // The ocr_* or ocrx_* class
	ID         string
	Lang       string
	BBox       BoundingBox
	HasBBox    bool
	Confidence float64 // x_wconf, 0-100
	HasConf    bool
	Text       string // Own text, set for words
	Children   []Node
}

// IsWord reports whether the node is a word
func (n Node) IsWord() bool {
	return n.Class == "ocrx_word"
}

// IsLine reports whether the node is a line of text
func (n Node) IsLine() bool {
	switch n.Class {
	case "ocr_line", "ocrx_line", "ocr_caption", "ocr_header", "ocr_textfloat":
		return true
	}
	return false
}

// Content returns the node text. Words in a line are joined by spaces,
// everything above lines by newlines.
func (n Node) Content() string {
	if n.IsWord() {
		return n.Text
	}

	sep := "\n"
	if n.IsLine() {
		sep = " "
	}
	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		if s := c.Content(); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(n.Text)
	}
	return strings.Join(parts, sep)
}

// WordConfidence returns the node's x_wconf, or the mean over its words when it
// has none. The second result is false when no confidence is known.
func (n Node) WordConfidence() (float64, bool) {
	if n.HasConf {
		return n.Confidence, true
	}
	var sum float64
	var count int
	var walk func(Node)
	walk = func(node Node) {
		for _, c := range node.Children {
			if c.HasConf && c.IsWord() {
				sum += c.Confidence
				count++
			}
			walk(c)
		}
	}
	walk(n)
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// BoundingBox is an hOCR 'bbox' property: top-left and bottom-right corners
// in image pixels.
type BoundingBox struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// NewBoundingBox creates a bounding box from its corners
func NewBoundingBox(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width of the box
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height of the box
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }
