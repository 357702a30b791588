package layout

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrlayout/pkg/geometry"
)

// Classification is the outcome of classifying one detection
type Classification struct {
	Type    ElementType
	Variant Variant
}

// Classifier decides the semantic type of a detection.
//
// The decision order is fixed: an explicit hint that maps to a known type wins, then
// text presence, then the square-ish shape heuristic, and rectangle otherwise.
type Classifier struct {
	cfg         Config
	bubbleHints map[string]bool
	log         logrus.FieldLogger
}

// NewClassifier creates a classifier from the given config
func NewClassifier(cfg Config) *Classifier {
	hints := make(map[string]bool, len(cfg.BubbleHints))
	for _, h := range cfg.BubbleHints {
		hints[normalizeHint(h)] = true
	}
	return &Classifier{cfg: cfg, bubbleHints: hints, log: cfg.logger()}
}

// Classify returns the element type and styling variant for a box (canvas units),
// its text and an optional category hint. It never fails.
func (c *Classifier) Classify(box geometry.Box, text, hint string) Classification {
	if strings.TrimSpace(hint) != "" {
		cls, err := c.ResolveHint(hint)
		if err == nil {
			return cls
		}
		c.log.WithField("hint", hint).Debugf("Falling back to geometric classification: %v", err)
	}

	if strings.TrimSpace(text) != "" {
		return Classification{Type: TypeText, Variant: VariantPlain}
	}

	if box.Height > 0 {
		aspect := box.AspectRatio()
		if aspect >= c.cfg.CircleAspectMin && aspect <= c.cfg.CircleAspectMax &&
			box.ShortSide() > c.cfg.MinCircleSize {
			return Classification{Type: TypeCircle, Variant: VariantPlain}
		}
	}

	return Classification{Type: TypeRectangle, Variant: VariantPlain}
}

// ResolveHint maps a category hint to a classification.
// It returns ErrUnsupportedElementType when the hint names no known type.
func (c *Classifier) ResolveHint(hint string) (Classification, error) {
	h := normalizeHint(hint)

	switch {
	case h == "":
		return Classification{}, fmt.Errorf("%w: empty hint", ErrUnsupportedElementType)
	case c.bubbleHints[h]:
		return Classification{Type: TypeText, Variant: VariantBubble}, nil
	case strings.Contains(h, "button"):
		return Classification{Type: TypeRectangle, Variant: VariantPlain}, nil
	case strings.Contains(h, "avatar"), strings.Contains(h, "profile"), strings.Contains(h, "icon"):
		return Classification{Type: TypeCircle, Variant: VariantPlain}, nil
	}

	if t := ElementType(h); t.Valid() {
		return Classification{Type: t, Variant: VariantPlain}, nil
	}

	return Classification{}, fmt.Errorf("%w: %q", ErrUnsupportedElementType, hint)
}
