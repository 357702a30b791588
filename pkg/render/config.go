package render

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Format is the output format of a rendered page
type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat parses a format name or file extension
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); f {
	case FormatPDF, FormatPNG, FormatSVG:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format %q", s)
}

// Page sizes in points
const (
	PageSizeCanvas = "canvas" // Canvas units map 1:1 to page units
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
)

// Config holds the renderer options
type Config struct {
	PageSize   string       // "canvas" (default), "letter" or "a4"
	Background string       // Page background color ("transparent" for none)
	Font       FontConfig   // Text placement settings
	Outline    OutlineStyle // Image-region outline style
	Layers     LayerNames   // Layer names for canvases that support layers
	Underlay   *Underlay    // Optional original page drawn beneath everything (PDF only)
	Debug      bool         // Outline every element box in red
	Logger     logrus.FieldLogger
}

// FontConfig contains font settings for text rendering
type FontConfig struct {
	Name        string  // Fallback family when an element names none
	AscentRatio float64 // Baseline offset below the top of a line, as a fraction of the font size
	LineSpacing float64 // Leading as a multiple of the font size
}

// DefaultFont is Helvetica with the ascent ratio that places its baseline
// correctly below the top of a line.
var DefaultFont = FontConfig{
	Name:        "Helvetica",
	AscentRatio: 0.718,
	LineSpacing: 1.2,
}

// OutlineStyle describes the dashed outline drawn around image regions
type OutlineStyle struct {
	Color   string
	Width   float64
	Dash    []float64
	Inflate float64 // Grow the raw box by this much on every side
}

// LayerNames are the names of the optional-content layers in PDF output
type LayerNames struct {
	Elements string
	Outlines string
}

// Underlay is the original page drawn beneath the reconstruction.
// Exactly one of PDF or Image should be set.
type Underlay struct {
	PDF   []byte // Original PDF document
	Page  int    // 1-based page of PDF to import
	Image []byte // PNG/JPEG page raster
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		PageSize:   PageSizeCanvas,
		Background: "#ffffff",
		Font:       DefaultFont,
		Outline: OutlineStyle{
			Color:   "#b3b3b3",
			Width:   2,
			Dash:    []float64{5, 3},
			Inflate: 2,
		},
		Layers: LayerNames{
			Elements: "Layout",
			Outlines: "Image Regions",
		},
	}
}

// pageSize resolves the page dimensions for a canvas of the given size
func (c Config) pageSize(canvasWidth, canvasHeight int) (float64, float64, error) {
	switch strings.ToLower(c.PageSize) {
	case "", PageSizeCanvas:
		return float64(canvasWidth), float64(canvasHeight), nil
	case PageSizeLetter:
		return 612, 792, nil
	case PageSizeA4:
		return 595.28, 841.89, nil
	}
	return 0, 0, fmt.Errorf("unknown page size %q", c.PageSize)
}
