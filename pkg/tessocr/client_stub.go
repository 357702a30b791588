//go:build !ocr

package tessocr

import "github.com/gardar/ocrlayout/pkg/layout"

// Client is the stand-in used when Tesseract support is not compiled in
type Client struct{}

// New returns ErrOCRNotEnabled
func New(Config) (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close does nothing
func (c *Client) Close() error { return nil }

// Detections returns ErrOCRNotEnabled
func (c *Client) Detections([]byte, int) ([]layout.Detection, error) {
	return nil, ErrOCRNotEnabled
}
