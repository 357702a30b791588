package render

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// fontLibrary holds the parsed Go fonts used by the raster and SVG canvases.
// Parsed fonts are read-only and shared; faces are not, see faceCache.
type fontLibrary struct {
	regular  *truetype.Font
	bold     *truetype.Font
	mono     *truetype.Font
	monoBold *truetype.Font
}

func loadFontLibrary() (*fontLibrary, error) {
	parse := func(name string, ttf []byte) (*truetype.Font, error) {
		f, err := truetype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s font: %w", name, err)
		}
		return f, nil
	}

	var lib fontLibrary
	var err error
	if lib.regular, err = parse("regular", goregular.TTF); err != nil {
		return nil, err
	}
	if lib.bold, err = parse("bold", gobold.TTF); err != nil {
		return nil, err
	}
	if lib.mono, err = parse("mono", gomono.TTF); err != nil {
		return nil, err
	}
	if lib.monoBold, err = parse("mono bold", gomonobold.TTF); err != nil {
		return nil, err
	}
	return &lib, nil
}

func (l *fontLibrary) pick(f Font) *truetype.Font {
	switch {
	case f.Monospace() && f.Bold:
		return l.monoBold
	case f.Monospace():
		return l.mono
	case f.Bold:
		return l.bold
	default:
		return l.regular
	}
}

// faceCache creates font faces on demand. Faces keep glyph caches and must not
// be shared between goroutines, so every canvas owns one cache.
type faceCache struct {
	lib   *fontLibrary
	faces map[Font]font.Face
}

func newFaceCache(lib *fontLibrary) *faceCache {
	return &faceCache{lib: lib, faces: make(map[Font]font.Face)}
}

func (c *faceCache) face(f Font) font.Face {
	if face, ok := c.faces[f]; ok {
		return face
	}
	face := truetype.NewFace(c.lib.pick(f), &truetype.Options{
		Size:    f.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	c.faces[f] = face
	return face
}

// measure returns the advance width of s in page units
func (c *faceCache) measure(f Font, s string) float64 {
	return float64(font.MeasureString(c.face(f), s)) / 64
}
