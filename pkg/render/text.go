package render

import "strings"

// wrapText lays text out into lines no wider than maxWidth.
// Newlines are hard breaks, lines wrap at word boundaries and a word that is
// wider than maxWidth on its own gets a line to itself.
func wrapText(text string, maxWidth float64, measure func(string) float64) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var lines []string
	for _, paragraph := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		current := words[0]
		for _, word := range words[1:] {
			candidate := current + " " + word
			if measure(candidate) <= maxWidth {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = word
		}
		lines = append(lines, current)
	}
	return lines
}

// textBlock is wrapped text measured for a font
type textBlock struct {
	lines   []string
	widths  []float64
	font    Font
	leading float64
}

func newTextBlock(c Canvas, text string, font Font, maxWidth, lineSpacing float64) textBlock {
	c.SetFont(font)
	lines := wrapText(text, maxWidth, c.TextWidth)
	widths := make([]float64, len(lines))
	for i, l := range lines {
		widths[i] = c.TextWidth(l)
	}
	return textBlock{
		lines:   lines,
		widths:  widths,
		font:    font,
		leading: font.Size * lineSpacing,
	}
}

// height is the total height of the block
func (b textBlock) height() float64 {
	return float64(len(b.lines)) * b.leading
}

// draw paints the block with its top edge at top. Each line is placed
// horizontally by align, which receives the measured line width and returns x.
func (b textBlock) draw(c Canvas, top, ascentRatio float64, align func(width float64) float64) {
	c.SetFont(b.font)
	baseline := top - b.font.Size*ascentRatio
	for i, line := range b.lines {
		if line != "" {
			c.Text(align(b.widths[i]), baseline, line)
		}
		baseline -= b.leading
	}
}
