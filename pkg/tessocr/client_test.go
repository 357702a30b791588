//go:build ocr

package tessocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientBlankImage(t *testing.T) {
	c, err := New(DefaultConfig())
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer c.Close()

	dets, err := c.Detections(createTestPNG(t, 200, 100), 0)
	require.NoError(t, err)
	assert.Empty(t, dets, "a blank page has no text")
}
