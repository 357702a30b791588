package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocrlayout/pkg/geometry"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	tests := []struct {
		name    string
		box     geometry.Box
		text    string
		hint    string
		want    ElementType
		variant Variant
	}{
		{"text wins over square shape", geometry.NewBox(0, 0, 40, 40), "Hi", "", TypeText, VariantPlain},
		{"wide text", geometry.NewBox(0, 0, 400, 20), "Hello world", "", TypeText, VariantPlain},
		{"whitespace only is not text", geometry.NewBox(0, 0, 100, 10), "  \n\t", "", TypeRectangle, VariantPlain},
		{"square empty box is circle", geometry.NewBox(0, 0, 30, 32), "", "", TypeCircle, VariantPlain},
		{"aspect 1.3 is rectangle", geometry.NewBox(0, 0, 39, 30), "", "", TypeRectangle, VariantPlain},
		{"aspect lower bound", geometry.NewBox(0, 0, 24, 30), "", "", TypeCircle, VariantPlain},
		{"aspect upper bound", geometry.NewBox(0, 0, 36, 30), "", "", TypeCircle, VariantPlain},
		{"small square is rectangle", geometry.NewBox(0, 0, 20, 20), "", "", TypeRectangle, VariantPlain},
		{"zero height", geometry.NewBox(0, 0, 50, 0), "", "", TypeRectangle, VariantPlain},
		{"button hint", geometry.NewBox(0, 0, 40, 40), "", "PrimaryButton", TypeRectangle, VariantPlain},
		{"button hint beats text", geometry.NewBox(0, 0, 80, 20), "Send", "button", TypeRectangle, VariantPlain},
		{"avatar hint", geometry.NewBox(0, 0, 100, 20), "", "avatar", TypeCircle, VariantPlain},
		{"profile hint", geometry.NewBox(0, 0, 100, 20), "", "user_profile", TypeCircle, VariantPlain},
		{"icon hint", geometry.NewBox(0, 0, 5, 5), "", "Icon", TypeCircle, VariantPlain},
		{"exact type hint", geometry.NewBox(0, 0, 30, 30), "", "rectangle", TypeRectangle, VariantPlain},
		{"bubble hint", geometry.NewBox(0, 0, 400, 60), "Hello", "message bubble", TypeText, VariantBubble},
		{"bubble hint case-insensitive", geometry.NewBox(0, 0, 400, 60), "Hello", "  MessengerTextBox ", TypeText, VariantBubble},
		{"unknown hint falls through to text", geometry.NewBox(0, 0, 30, 30), "x", "chat_time", TypeText, VariantPlain},
		{"unknown hint falls through to circle", geometry.NewBox(0, 0, 30, 30), "", "sticker", TypeCircle, VariantPlain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.box, tt.text, tt.hint)
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, tt.variant, got.Variant)
		})
	}
}

func TestClassifyTextAlwaysText(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	for _, w := range []float64{1, 10, 25, 30, 36, 100, 1000} {
		for _, h := range []float64{0, 1, 25, 30, 100} {
			got := c.Classify(geometry.NewBox(0, 0, w, h), "label", "")
			assert.Equal(t, TypeText, got.Type, "box %gx%g", w, h)
		}
	}
}

func TestResolveHintUnsupported(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	_, err := c.ResolveHint("sticker")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedElementType))

	_, err = c.ResolveHint("   ")
	assert.True(t, errors.Is(err, ErrUnsupportedElementType))

	cls, err := c.ResolveHint("Circle")
	require.NoError(t, err)
	assert.Equal(t, TypeCircle, cls.Type)
}

func TestClassifyCustomBubbleHints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BubbleHints = []string{"Speech Balloon"}
	c := NewClassifier(cfg)

	assert.Equal(t, VariantBubble, c.Classify(geometry.NewBox(0, 0, 10, 10), "hi", "speech balloon").Variant)
	assert.Equal(t, VariantPlain, c.Classify(geometry.NewBox(0, 0, 10, 10), "hi", "message bubble").Variant)
}
