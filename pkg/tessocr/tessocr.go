// Package tessocr runs a local Tesseract OCR pass over page images and
// returns layout detections.
//
// Tesseract is wrapped via gosseract, which needs cgo and the Tesseract
// libraries. The real client is only compiled with the "ocr" build tag:
//
//	go build -tags ocr
//
// Without the tag every Client call returns ErrOCRNotEnabled. The conversion
// from Tesseract regions to detections is plain Go and always available.
package tessocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/tiff"

	"github.com/gardar/ocrlayout/pkg/geometry"
	"github.com/gardar/ocrlayout/pkg/layout"
)

// ErrOCRNotEnabled is returned when Tesseract support was not compiled in
var ErrOCRNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags ocr")

// Source is the detection source name used by this package
const Source = "tesseract"

// Level is the Tesseract page iterator level that becomes detections
type Level string

const (
	LevelBlock     Level = "block"
	LevelParagraph Level = "paragraph"
	LevelLine      Level = "line"
	LevelWord      Level = "word"
)

// ParseLevel parses a level name
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

// Config holds the Tesseract options
type Config struct {
	Languages   []string           `yaml:"languages"`     // e.g. ["eng", "deu"]
	PageSegMode int                `yaml:"page_seg_mode"` // Tesseract PSM, 0 keeps the engine default
	Level       Level              `yaml:"level"`
	Logger      logrus.FieldLogger `yaml:"-"`
}

// DefaultConfig returns the default Tesseract options
func DefaultConfig() Config {
	return Config{
		Languages: []string{"eng"},
		Level:     LevelLine,
	}
}

// Region is one box Tesseract reported, in image pixels
type Region struct {
	Box        image.Rectangle
	Text       string
	Confidence float64 // 0-100
}

// Detections converts regions of a width x height image into normalized
// detections for the given 0-based page.
func Detections(regions []Region, width, height, page int, level Level) []layout.Detection {
	if width <= 0 || height <= 0 {
		return nil
	}
	w, h := float64(width), float64(height)

	out := make([]layout.Detection, 0, len(regions))
	for i, r := range regions {
		x1, y1 := float64(r.Box.Min.X)/w, float64(r.Box.Min.Y)/h
		x2, y2 := float64(r.Box.Max.X)/w, float64(r.Box.Max.Y)/h
		out = append(out, layout.Detection{
			ID:         fmt.Sprintf("p%d-%s-%d", page, level, i),
			Polygon:    []geometry.Point{{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2}},
			Text:       strings.TrimSpace(r.Text),
			Confidence: r.Confidence / 100,
			Page:       page,
			Source:     Source,
		})
	}
	return out
}

// ImageSize returns the pixel size of an encoded PNG, JPEG or TIFF image
func ImageSize(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image size: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
