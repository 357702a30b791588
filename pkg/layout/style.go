package layout

import (
	"math"
	"strings"

	"github.com/gardar/ocrlayout/pkg/geometry"
)

// StyleInferencer derives the style bundle of an element from its classification,
// geometry, hint and any explicitly requested style.
type StyleInferencer struct {
	cfg Config
}

// NewStyleInferencer creates a style inferencer from the given config
func NewStyleInferencer(cfg Config) *StyleInferencer {
	return &StyleInferencer{cfg: cfg}
}

// FontSize estimates a font size from a box height: about 70% of a tight bounding
// box, clamped to the configured range.
func (s *StyleInferencer) FontSize(boxHeight float64) float64 {
	size := math.Round(boxHeight * s.cfg.FontScale)
	return math.Max(s.cfg.MinFontSize, math.Min(s.cfg.MaxFontSize, size))
}

// Infer resolves the full style for an element. The box is in canvas units.
//
// Precedence, lowest to highest: per-type defaults, explicit style hint, and
// finally the fixed bubble styling for the bubble variant (its background only
// applies when none was set explicitly).
func (s *StyleInferencer) Infer(cls Classification, box geometry.Box, text, hint string, explicit *StyleHint) Style {
	table := s.cfg.Styles
	style, ok := table.Types[cls.Type]
	if !ok {
		style = table.Types[TypeRectangle]
	}

	if size, ok := table.HintFontSizes[normalizeHint(hint)]; ok {
		style.FontSize = size
	} else {
		style.FontSize = s.FontSize(box.Height)
	}

	switch cls.Type {
	case TypeCircle:
		style.BorderRadius = box.ShortSide() / 2
		fallthrough
	case TypeRectangle:
		if strings.TrimSpace(text) != "" {
			style.TextAlign = AlignCenter
		}
	}

	applyStyleHint(&style, explicit)

	if cls.Variant == VariantBubble {
		bubble := table.Bubble
		style.BorderColor = bubble.BorderColor
		style.BorderWidth = bubble.BorderWidth
		style.BorderRadius = bubble.BorderRadius
		style.Padding = bubble.Padding
		style.TextAlign = AlignLeft
		if explicit == nil || explicit.BackgroundColor == nil {
			style.BackgroundColor = bubble.BackgroundColor
		}
	}

	return style
}

// ParseAlignment maps a free-form alignment string to an Alignment.
// Unrecognized values map to AlignLeft.
func ParseAlignment(s string) Alignment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "center", "centre":
		return AlignCenter
	case "right":
		return AlignRight
	default:
		return AlignLeft
	}
}

func applyStyleHint(style *Style, hint *StyleHint) {
	if hint == nil {
		return
	}
	if hint.FontSize != nil {
		style.FontSize = *hint.FontSize
	}
	if hint.FontFamily != nil {
		style.FontFamily = *hint.FontFamily
	}
	if hint.FontWeight != nil {
		style.FontWeight = *hint.FontWeight
	}
	if hint.TextColor != nil {
		style.TextColor = *hint.TextColor
	}
	if hint.BackgroundColor != nil {
		style.BackgroundColor = *hint.BackgroundColor
	}
	if hint.BorderColor != nil {
		style.BorderColor = *hint.BorderColor
	}
	if hint.BorderWidth != nil {
		style.BorderWidth = *hint.BorderWidth
	}
	if hint.BorderRadius != nil {
		style.BorderRadius = *hint.BorderRadius
	}
	if hint.TextAlign != nil {
		style.TextAlign = ParseAlignment(*hint.TextAlign)
	}
	if hint.Padding != nil {
		style.Padding = *hint.Padding
	}
	if hint.Opacity != nil {
		style.Opacity = *hint.Opacity
	}
}
