package render

import (
	"github.com/gardar/ocrlayout/pkg/layout"
)

// strategy draws one element. The strategy is picked from the element's
// variant, which was fixed when the element was classified.
type strategy interface {
	draw(d *drawer, el layout.Element)
}

func strategyFor(v layout.Variant) strategy {
	if v == layout.VariantBubble {
		return bubbleStrategy{}
	}
	return plainStrategy{}
}

// plainStrategy draws the container at the element box and centers the text
// vertically inside it.
type plainStrategy struct{}

func (plainStrategy) draw(d *drawer, el layout.Element) {
	s := el.Style
	x, y, w, h := d.pageRect(el.Box)

	d.c.SetAlpha(clampOpacity(s.Opacity))
	defer d.c.SetAlpha(1)

	d.container(x, y, w, h, s)

	if el.Content != "" {
		pad := s.Padding * d.unit
		block := newTextBlock(d.c, el.Content, d.font(s), w-2*pad, d.cfg.Font.LineSpacing)
		bottom := y + (h-block.height())/2

		d.c.SetFillColor(d.color(s.TextColor))
		block.draw(d.c, bottom+block.height(), d.cfg.Font.AscentRatio, func(lineWidth float64) float64 {
			switch s.TextAlign {
			case layout.AlignCenter:
				return x + (w-lineWidth)/2
			case layout.AlignRight:
				return x + w - pad - lineWidth
			default:
				return x + pad
			}
		})
	}

	d.debugBox(x, y, w, h)
}

// bubbleStrategy draws a chat-message bubble. The text is measured first, the
// container grows by the padding on every side to fit the wrapped text, and the
// grown container keeps the vertical midpoint of the original box.
type bubbleStrategy struct{}

func (bubbleStrategy) draw(d *drawer, el layout.Element) {
	s := el.Style
	x, y, w, h := d.pageRect(el.Box)
	pad := s.Padding * d.unit

	d.c.SetAlpha(clampOpacity(s.Opacity))
	defer d.c.SetAlpha(1)

	block := newTextBlock(d.c, el.Content, d.font(s), w-2*pad, d.cfg.Font.LineSpacing)

	expandedX := x - pad
	expandedW := w + 2*pad
	expandedH := block.height() + 2*pad
	expandedY := y + (h-expandedH)/2

	d.container(expandedX, expandedY, expandedW, expandedH, s)

	d.c.SetFillColor(d.color(s.TextColor))
	block.draw(d.c, expandedY+pad+block.height(), d.cfg.Font.AscentRatio, func(float64) float64 {
		return expandedX + pad
	})

	d.debugBox(x, y, w, h)
}
