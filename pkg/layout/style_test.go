package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gardar/ocrlayout/pkg/geometry"
)

func ptr[T any](v T) *T { return &v }

func TestFontSize(t *testing.T) {
	s := NewStyleInferencer(DefaultConfig())

	tests := []struct {
		height float64
		want   float64
	}{
		{5, 8},
		{0, 8},
		{20, 14},
		{21, 15}, // 14.7 rounds up
		{60, 42},
		{200, 72},
		{102.86, 72},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, s.FontSize(tt.height), "height %g", tt.height)
	}
}

func TestInferDefaults(t *testing.T) {
	s := NewStyleInferencer(DefaultConfig())

	t.Run("text", func(t *testing.T) {
		style := s.Infer(Classification{TypeText, VariantPlain}, geometry.NewBox(0, 0, 100, 20), "hello", "", nil)
		assert.Equal(t, "transparent", style.BackgroundColor)
		assert.Equal(t, "transparent", style.BorderColor)
		assert.Equal(t, 0.0, style.BorderRadius)
		assert.Equal(t, 0.0, style.BorderWidth)
		assert.Equal(t, 14.0, style.FontSize)
		assert.Equal(t, "Helvetica", style.FontFamily)
		assert.Equal(t, "#000000", style.TextColor)
		assert.Equal(t, AlignLeft, style.TextAlign)
		assert.Equal(t, 1.0, style.Opacity)
	})

	t.Run("rectangle", func(t *testing.T) {
		style := s.Infer(Classification{TypeRectangle, VariantPlain}, geometry.NewBox(0, 0, 100, 20), "", "", nil)
		assert.Equal(t, "#f0f0f0", style.BackgroundColor)
		assert.Equal(t, "#cccccc", style.BorderColor)
		assert.Equal(t, 4.0, style.BorderRadius)
		assert.Equal(t, 1.0, style.BorderWidth)
	})

	t.Run("rectangle with text is centered", func(t *testing.T) {
		style := s.Infer(Classification{TypeRectangle, VariantPlain}, geometry.NewBox(0, 0, 100, 20), "OK", "button", nil)
		assert.Equal(t, AlignCenter, style.TextAlign)
	})

	t.Run("circle radius closes the shape", func(t *testing.T) {
		style := s.Infer(Classification{TypeCircle, VariantPlain}, geometry.NewBox(0, 0, 30, 32), "", "", nil)
		assert.Equal(t, "#e0e0e0", style.BackgroundColor)
		assert.Equal(t, 15.0, style.BorderRadius)
	})

	t.Run("hint font size", func(t *testing.T) {
		style := s.Infer(Classification{TypeText, VariantPlain}, geometry.NewBox(0, 0, 100, 60), "12:30", "chat_time", nil)
		assert.Equal(t, 10.0, style.FontSize)
		style = s.Infer(Classification{TypeText, VariantPlain}, geometry.NewBox(0, 0, 100, 60), "Jane", "Audience_Name", nil)
		assert.Equal(t, 15.0, style.FontSize)
	})
}

func TestInferExplicitOverrides(t *testing.T) {
	s := NewStyleInferencer(DefaultConfig())

	hint := &StyleHint{
		BackgroundColor: ptr("#ff0000"),
		FontSize:        ptr(30.0),
		FontWeight:      ptr("bold"),
		TextAlign:       ptr("RIGHT"),
	}
	style := s.Infer(Classification{TypeRectangle, VariantPlain}, geometry.NewBox(0, 0, 100, 20), "", "", hint)

	assert.Equal(t, "#ff0000", style.BackgroundColor)
	assert.Equal(t, 30.0, style.FontSize)
	assert.Equal(t, "bold", style.FontWeight)
	assert.Equal(t, AlignRight, style.TextAlign)
	// unset fields keep the defaults
	assert.Equal(t, "#cccccc", style.BorderColor)
	assert.Equal(t, 4.0, style.BorderRadius)
}

func TestInferBubble(t *testing.T) {
	s := NewStyleInferencer(DefaultConfig())
	bubble := Classification{TypeText, VariantBubble}

	style := s.Infer(bubble, geometry.NewBox(0, 0, 400, 60), "Hello", "message bubble", &StyleHint{BorderRadius: ptr(0.0)})
	assert.Equal(t, "#b3b3b3", style.BorderColor)
	assert.Equal(t, 1.0, style.BorderWidth)
	assert.Equal(t, 6.0, style.BorderRadius)
	assert.Equal(t, 8.0, style.Padding)
	assert.Equal(t, "#f2f2f2", style.BackgroundColor)
	assert.Equal(t, 14.0, style.FontSize)
	assert.Equal(t, AlignLeft, style.TextAlign)

	style = s.Infer(bubble, geometry.NewBox(0, 0, 400, 60), "Hello", "message bubble", &StyleHint{BackgroundColor: ptr("#0084ff")})
	assert.Equal(t, "#0084ff", style.BackgroundColor)
}

func TestParseAlignment(t *testing.T) {
	tests := map[string]Alignment{
		"left":    AlignLeft,
		"Center":  AlignCenter,
		" RIGHT ": AlignRight,
		"justify": AlignLeft,
		"":        AlignLeft,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseAlignment(in), "input %q", in)
	}
}
