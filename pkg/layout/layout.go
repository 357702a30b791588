// Package layout reconstructs an editable, styled page layout from raw OCR detections.
//
// A reconstruction pass takes detections (text spans with normalized bounding polygons),
// reduces every polygon to a box, orders the detections in reading order and turns each
// one into a classified, styled Element positioned on a canvas.
//
// Key Features:
//
// - Classify detections into text, rectangle or circle elements
// - Infer font size, colors, borders and padding from geometry and optional hints
// - Distinguished bubble styling for chat-message-like detections
// - Skip malformed detections without failing the pass, recording why they were skipped
// - Lossless JSON round-trip of layouts for external editors
//
// Main Types:
//
// - Reconstructor: turns detections into a Layout
// - Classifier: decides the element type and styling variant of a detection
// - StyleInferencer: derives the style bundle of an element
// - Layout: the ordered set of elements plus canvas dimensions and metadata
package layout

import (
	"fmt"
	"sort"
	"time"

	"github.com/gardar/ocrlayout/pkg/geometry"
)

// ElementType is the semantic type of a reconstructed element
type ElementType string

const (
	TypeText      ElementType = "text"
	TypeRectangle ElementType = "rectangle"
	TypeCircle    ElementType = "circle"
)

// ElementTypes lists the known element types in a stable order
var ElementTypes = []ElementType{TypeText, TypeRectangle, TypeCircle}

// Valid reports whether t is one of the known element types
func (t ElementType) Valid() bool {
	switch t {
	case TypeText, TypeRectangle, TypeCircle:
		return true
	}
	return false
}

// Variant selects the styling and layout strategy used for an element.
// It is decided once, at classification time.
type Variant string

const (
	VariantPlain  Variant = "plain"
	VariantBubble Variant = "bubble"
)

// Alignment is the horizontal text alignment understood by the renderer
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Detection is one raw finding from an OCR collaborator.
// Polygon vertices are normalized to [0,1] with a top-left origin and are ordered
// top-left, top-right, bottom-right, bottom-left.
type Detection struct {
	ID         string           `json:"id,omitempty"`
	Polygon    []geometry.Point `json:"polygon"`
	Text       string           `json:"text"`
	Confidence float64          `json:"confidence"`
	Page       int              `json:"page"`             // 0-based page index
	Hint       string           `json:"hint,omitempty"`   // Optional category, e.g. "button"
	Style      *StyleHint       `json:"style,omitempty"`  // Optional explicit style
	Source     string           `json:"source,omitempty"` // Adapter that produced the detection
}

// StyleHint carries explicitly requested style values. Nil fields are unset and
// fall back to the inferred defaults.
type StyleHint struct {
	FontSize        *float64 `json:"font_size,omitempty"`
	FontFamily      *string  `json:"font_family,omitempty"`
	FontWeight      *string  `json:"font_weight,omitempty"`
	TextColor       *string  `json:"text_color,omitempty"`
	BackgroundColor *string  `json:"background_color,omitempty"`
	BorderColor     *string  `json:"border_color,omitempty"`
	BorderWidth     *float64 `json:"border_width,omitempty"`
	BorderRadius    *float64 `json:"border_radius,omitempty"`
	TextAlign       *string  `json:"text_align,omitempty"`
	Padding         *float64 `json:"padding,omitempty"`
	Opacity         *float64 `json:"opacity,omitempty"`
}

// Style is the fully resolved style bundle of an element.
// Colors are hex strings ("#rrggbb") or "transparent".
type Style struct {
	FontSize        float64   `json:"font_size"`
	FontFamily      string    `json:"font_family"`
	FontWeight      string    `json:"font_weight"`
	TextAlign       Alignment `json:"text_align"`
	TextColor       string    `json:"text_color"`
	BackgroundColor string    `json:"background_color"`
	BorderColor     string    `json:"border_color"`
	BorderWidth     float64   `json:"border_width"`
	BorderRadius    float64   `json:"border_radius"`
	Padding         float64   `json:"padding"`
	Opacity         float64   `json:"opacity"`
}

// Provenance records where an element came from
type Provenance struct {
	DetectionID      string  `json:"detection_id,omitempty"`
	Confidence       float64 `json:"confidence_score"`
	Page             int     `json:"page_number"`
	OriginalCategory string  `json:"original_category,omitempty"`
	Source           string  `json:"ocr_source,omitempty"`
}

// Element is one classified, styled and positioned unit of a layout.
// The embedded box is in canvas units with a top-left origin.
type Element struct {
	ID      string      `json:"element_id"`
	Type    ElementType `json:"type"`
	Variant Variant     `json:"variant"`
	geometry.Box
	Content    string     `json:"content"`
	Style      Style      `json:"styling"`
	Rotation   float64    `json:"rotation"`
	ZIndex     int        `json:"z_index"`
	Visible    bool       `json:"is_visible"`
	Locked     bool       `json:"is_locked"`
	Provenance Provenance `json:"metadata"`
}

// ImageRegion is the normalized box of a raster image embedded in the original page.
// It is only used as a rendering overlay and never becomes an Element.
type ImageRegion struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Page   int     `json:"page"`
}

// Box returns the region as a normalized box
func (r ImageRegion) Box() geometry.Box {
	return geometry.NewBox(r.X, r.Y, r.Width, r.Height)
}

// SkippedDetection records a detection dropped during reconstruction
type SkippedDetection struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// OCRSummary describes the OCR run that produced the detections
type OCRSummary struct {
	ProcessorType     string  `json:"processor_type,omitempty"`
	ConfidenceScore   float64 `json:"confidence_score"`
	ProcessingTime    float64 `json:"processing_time"` // seconds
	DetectedLanguage  string  `json:"detected_language,omitempty"`
	PageCount         int     `json:"page_count"`
	ProcessedAt       string  `json:"created_at,omitempty"`
	ExtractedElements int     `json:"extracted_elements"`
}

// CanvasSettings are display settings for a layout editor
type CanvasSettings struct {
	Background  string `json:"background_color"`
	GridEnabled bool   `json:"grid_enabled"`
	GridSize    int    `json:"grid_size"`
	SnapToGrid  bool   `json:"snap_to_grid"`
}

// DefaultCanvasSettings returns the editor defaults
func DefaultCanvasSettings() CanvasSettings {
	return CanvasSettings{
		Background:  "#ffffff",
		GridEnabled: true,
		GridSize:    10,
		SnapToGrid:  true,
	}
}

// Metadata is the summary attached to a layout
type Metadata struct {
	ElementCounts     map[ElementType]int `json:"element_counts"`
	ElementCount      int                 `json:"element_count"`
	DetectionCount    int                 `json:"detection_count"`
	SkippedCount      int                 `json:"skipped_count"`
	Skipped           []SkippedDetection  `json:"skipped,omitempty"`
	AverageConfidence float64             `json:"average_confidence"`
	ImageRegionCount  int                 `json:"image_region_count"`
	OCR               *OCRSummary         `json:"ocr_metadata,omitempty"`
	Canvas            CanvasSettings      `json:"canvas_settings"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         *time.Time          `json:"last_updated,omitempty"`
	Extra             map[string]any      `json:"extra,omitempty"`
}

// Layout is an ordered collection of elements plus canvas dimensions and metadata.
// Elements are kept in ascending z-order, which is also the render order.
type Layout struct {
	Name         string    `json:"name"`
	Version      int       `json:"version"`
	Page         int       `json:"page"` // 0-based source page
	CanvasWidth  int       `json:"canvas_width"`
	CanvasHeight int       `json:"canvas_height"`
	Elements     []Element `json:"elements"`
	Metadata     Metadata  `json:"layout_data"`
}

// Validate checks the layout invariants: positive canvas dimensions, known element
// types, unique z-order values and elements stored in ascending z-order.
func (l *Layout) Validate() error {
	if l.CanvasWidth <= 0 || l.CanvasHeight <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidCanvas, l.CanvasWidth, l.CanvasHeight)
	}

	seen := make(map[int]string, len(l.Elements))
	for i, el := range l.Elements {
		if !el.Type.Valid() {
			return fmt.Errorf("%w: element %d (%s) has unknown type %q", ErrInvalidLayout, i, el.ID, el.Type)
		}
		if other, ok := seen[el.ZIndex]; ok {
			return fmt.Errorf("%w: elements %s and %s share z-index %d", ErrInvalidLayout, other, el.ID, el.ZIndex)
		}
		seen[el.ZIndex] = el.ID
		if i > 0 && l.Elements[i-1].ZIndex > el.ZIndex {
			return fmt.Errorf("%w: element %s out of z-order", ErrInvalidLayout, el.ID)
		}
	}
	return nil
}

// ReplaceElements swaps in an edited element set, as done when a layout editor saves
// its canvas. Elements are sorted by z-order and validated before the layout is
// touched; on success the version is bumped and the update is recorded in metadata.
func (l *Layout) ReplaceElements(elements []Element, now time.Time) error {
	sorted := make([]Element, len(elements))
	copy(sorted, elements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ZIndex < sorted[j].ZIndex
	})

	candidate := *l
	candidate.Elements = sorted
	if err := candidate.Validate(); err != nil {
		return err
	}

	l.Elements = sorted
	l.Version++
	l.Metadata.UpdatedAt = &now
	l.Metadata.ElementCount = len(sorted)
	l.Metadata.ElementCounts = countTypes(sorted)
	return nil
}

// Element returns the element with the given id
func (l *Layout) Element(id string) (*Element, bool) {
	for i := range l.Elements {
		if l.Elements[i].ID == id {
			return &l.Elements[i], true
		}
	}
	return nil, false
}

func countTypes(elements []Element) map[ElementType]int {
	counts := make(map[ElementType]int, len(ElementTypes))
	for _, t := range ElementTypes {
		counts[t] = 0
	}
	for _, el := range elements {
		counts[el.Type]++
	}
	return counts
}
