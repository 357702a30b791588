//go:build ocr

package tessocr

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrlayout/pkg/layout"
)

// Client wraps one Tesseract engine. Calls are serialized because the
// underlying engine is not safe for concurrent use.
type Client struct {
	mu     sync.Mutex
	client *gosseract.Client
	cfg    Config
	log    logrus.FieldLogger
}

// New creates a Tesseract client. Close it to release the engine.
func New(cfg Config) (*Client, error) {
	if cfg.Level == "" {
		cfg.Level = LevelLine
	}
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	client := gosseract.NewClient()
	if len(cfg.Languages) > 0 {
		if err := client.SetLanguage(cfg.Languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set languages %v: %w", cfg.Languages, err)
		}
	}
	if cfg.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	return &Client{client: client, cfg: cfg, log: log}, nil
}

// Close releases the engine
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Detections recognizes a PNG, JPEG or TIFF page image and returns its
// detections at the configured level
func (c *Client) Detections(imageData []byte, page int) ([]layout.Detection, error) {
	width, height, err := ImageSize(imageData)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := c.client.GetBoundingBoxes(iteratorLevel(c.cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	regions := make([]Region, 0, len(boxes))
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		regions = append(regions, Region{Box: b.Box, Text: b.Word, Confidence: b.Confidence})
	}
	c.log.WithFields(logrus.Fields{"page": page, "regions": len(regions)}).Debug("Recognized page")

	return Detections(regions, width, height, page, c.cfg.Level), nil
}

func iteratorLevel(l Level) gosseract.PageIteratorLevel {
	switch l {
	case LevelBlock:
		return gosseract.RIL_BLOCK
	case LevelParagraph:
		return gosseract.RIL_PARA
	case LevelWord:
		return gosseract.RIL_WORD
	}
	return gosseract.RIL_TEXTLINE
}
