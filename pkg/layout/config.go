package layout

import (
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the tunables of a reconstruction pass. It is passed explicitly to the
// Reconstructor, Classifier and StyleInferencer so that independent passes never share
// mutable state.
type Config struct {
	MinCircleSize   float64 // Shorter side must exceed this to be a circle (canvas units)
	CircleAspectMin float64 // Lower bound of the square-ish aspect ratio band
	CircleAspectMax float64 // Upper bound of the square-ish aspect ratio band
	FontScale       float64 // Font size as a fraction of the box height
	MinFontSize     float64
	MaxFontSize     float64
	BubbleHints     []string // Hints selecting the bubble styling path (lowercase)
	Styles          StyleTable
	Logger          logrus.FieldLogger // nil = discard
	Now             func() time.Time   // nil = time.Now
}

// StyleTable holds the default style values used by the StyleInferencer
type StyleTable struct {
	Types         map[ElementType]Style // Defaults per element type
	HintFontSizes map[string]float64    // Fixed font sizes per category hint (lowercase)
	Bubble        BubbleStyle
}

// BubbleStyle is the fixed styling of the bubble path
type BubbleStyle struct {
	BorderColor     string
	BorderWidth     float64
	BorderRadius    float64
	Padding         float64
	BackgroundColor string // Used unless a background is set explicitly
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		MinCircleSize:   20,
		CircleAspectMin: 0.8,
		CircleAspectMax: 1.2,
		FontScale:       0.7,
		MinFontSize:     8,
		MaxFontSize:     72,
		BubbleHints:     []string{"messengertextbox", "message bubble", "message_bubble", "chat bubble"},
		Styles:          DefaultStyleTable(),
	}
}

// DefaultStyleTable returns a fresh copy of the default style table
func DefaultStyleTable() StyleTable {
	base := Style{
		FontFamily: "Helvetica",
		FontWeight: "normal",
		TextAlign:  AlignLeft,
		TextColor:  "#000000",
		Opacity:    1,
	}

	text := base
	text.BackgroundColor = "transparent"
	text.BorderColor = "transparent"

	rect := base
	rect.BackgroundColor = "#f0f0f0"
	rect.BorderColor = "#cccccc"
	rect.BorderWidth = 1
	rect.BorderRadius = 4

	circle := base
	circle.BackgroundColor = "#e0e0e0"
	circle.BorderColor = "#cccccc"
	circle.BorderWidth = 1

	return StyleTable{
		Types: map[ElementType]Style{
			TypeText:      text,
			TypeRectangle: rect,
			TypeCircle:    circle,
		},
		HintFontSizes: map[string]float64{
			"messengertextbox": 14,
			"message bubble":   14,
			"message_bubble":   14,
			"chat bubble":      14,
			"audience_name":    15,
			"chat_time":        10,
			"chat_label":       10,
			"chat_reply":       10,
			"replied to":       10,
		},
		Bubble: BubbleStyle{
			BorderColor:     "#b3b3b3",
			BorderWidth:     1,
			BorderRadius:    6,
			Padding:         8,
			BackgroundColor: "#f2f2f2",
		},
	}
}

func (c Config) logger() logrus.FieldLogger {
	if c.Logger != nil {
		return c.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func normalizeHint(hint string) string {
	return strings.ToLower(strings.TrimSpace(hint))
}
