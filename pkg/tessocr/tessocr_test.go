package tessocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocrlayout/pkg/geometry"
)

func createTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetections(t *testing.T) {
	regions := []Region{
		{Box: image.Rect(80, 60, 480, 120), Text: " Hello world\n", Confidence: 91},
		{Box: image.Rect(0, 0, 800, 600), Text: "all", Confidence: 0},
	}

	dets := Detections(regions, 800, 600, 2, LevelLine)
	require.Len(t, dets, 2)

	d := dets[0]
	assert.Equal(t, "p2-line-0", d.ID)
	assert.Equal(t, "Hello world", d.Text)
	assert.InDelta(t, 0.91, d.Confidence, 1e-9)
	assert.Equal(t, 2, d.Page)
	assert.Equal(t, Source, d.Source)

	box, err := geometry.PolygonToBox(d.Polygon)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, box.X, 1e-9)
	assert.InDelta(t, 0.1, box.Y, 1e-9)
	assert.InDelta(t, 0.5, box.Width, 1e-9)
	assert.InDelta(t, 0.1, box.Height, 1e-9)

	full, err := geometry.PolygonToBox(dets[1].Polygon)
	require.NoError(t, err)
	assert.Equal(t, geometry.NewBox(0, 0, 1, 1), full)

	assert.Nil(t, Detections(regions, 0, 600, 0, LevelLine))
}

func TestImageSize(t *testing.T) {
	w, h, err := ImageSize(createTestPNG(t, 40, 30))
	require.NoError(t, err)
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)

	_, _, err = ImageSize([]byte("nope"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"": LevelLine, "WORD": LevelWord, "token": LevelWord, "block": LevelBlock} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("symbol")
	assert.Error(t, err)
}
