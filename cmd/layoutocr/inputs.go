package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/tiff"

	"github.com/gardar/ocrlayout/pkg/config"
	"github.com/gardar/ocrlayout/pkg/gdocai"
	"github.com/gardar/ocrlayout/pkg/hocr"
	"github.com/gardar/ocrlayout/pkg/layout"
	"github.com/gardar/ocrlayout/pkg/pipeline"
	"github.com/gardar/ocrlayout/pkg/tessocr"
)

// inputs are the pages to process and the recognizer for pages that still
// need OCR
type inputs struct {
	pages      []pipeline.PageInput
	recognizer pipeline.Recognizer
	closers    []func() error
}

func (in *inputs) close() {
	for _, c := range in.closers {
		_ = c()
	}
}

func loadInputs(ctx context.Context, o options, cfg *config.Config, log *logrus.Logger) (*inputs, error) {
	var pdfData []byte
	if o.pdfPath != "" {
		data, err := os.ReadFile(o.pdfPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read PDF file: %w", err)
		}
		pdfData = data
	}

	images := make([][]byte, 0, len(o.imagePaths))
	for i, path := range o.imagePaths {
		log.Debugf("Reading page %d: %s", i+1, path)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", path, err)
		}
		images = append(images, data)
	}

	in := &inputs{}
	var err error
	switch {
	case o.hocrPath != "":
		in.pages, err = hocrPages(o.hocrPath, cfg.OCR.Level)
	case o.detectionsPath != "":
		in.pages, err = detectionPages(o.detectionsPath, len(images))
	case o.documentPath != "":
		var data []byte
		if data, err = os.ReadFile(o.documentPath); err != nil {
			return nil, fmt.Errorf("failed to read Document AI JSON: %w", err)
		}
		var doc *documentaipb.Document
		if doc, err = gdocai.FromJSON(data); err == nil {
			in.pages, err = documentPages(doc, cfg.OCR.Level, 0, time.Time{}, o, log)
		}
	default:
		err = recognizerPages(ctx, in, cfg, pdfData, images, o, log)
	}
	if err != nil {
		in.close()
		return nil, err
	}

	// Attach the originals for image regions and underlays
	for i := range in.pages {
		if pdfData != nil {
			in.pages[i].PDF = pdfData
			in.pages[i].PDFPage = i
		}
		if i < len(images) && in.pages[i].Image == nil {
			in.pages[i].Image = images[i]
			in.pages[i].MimeType = mimeType(images[i])
		}
		if i < len(o.imagePaths) && in.pages[i].Name == "" {
			name := filepath.Base(o.imagePaths[i])
			in.pages[i].Name = name[:len(name)-len(filepath.Ext(name))]
		}
	}
	return in, nil
}

// recognizerPages prepares pages that need OCR. A PDF without page images is
// sent to Document AI once, as the whole document; page images are recognized
// one by one by the configured engine.
func recognizerPages(ctx context.Context, in *inputs, cfg *config.Config, pdfData []byte, images [][]byte, o options, log *logrus.Logger) error {
	switch cfg.OCR.Engine {
	case config.EngineDocumentAI:
		level, err := gdocai.ParseLevel(cfg.OCR.Level)
		if err != nil {
			return err
		}
		client, err := gdocai.NewClient(ctx, cfg.DocumentAIConfig(log))
		if err != nil {
			return err
		}
		in.closers = append(in.closers, client.Close)

		if len(images) > 0 {
			in.recognizer = pipeline.DocumentAI(client, level)
			in.pages = blankPages(len(images))
			return nil
		}

		log.Infof("Processing PDF with Document AI: %s", o.pdfPath)
		start := time.Now()
		doc, err := client.Process(ctx, pdfData, "application/pdf")
		if err != nil {
			return fmt.Errorf("error processing document: %w", err)
		}
		in.pages, err = documentPages(doc, cfg.OCR.Level, time.Since(start), time.Now(), o, log)
		return err

	case config.EngineTesseract:
		if len(images) == 0 {
			return errors.New("the tesseract engine needs page images (-images)")
		}
		tc, err := cfg.TesseractConfig(log)
		if err != nil {
			return err
		}
		client, err := tessocr.New(tc)
		if err != nil {
			return err
		}
		in.closers = append(in.closers, client.Close)
		in.recognizer = pipeline.Tesseract(client)
		in.pages = blankPages(len(images))
		return nil
	}
	return fmt.Errorf("unknown OCR engine %q", cfg.OCR.Engine)
}

// documentPages splits a Document AI response into pages and writes the
// Document AI specific outputs
func documentPages(doc *documentaipb.Document, levelName string, elapsed time.Duration, processedAt time.Time, o options, log *logrus.Logger) ([]pipeline.PageInput, error) {
	if o.debugAPIPath != "" {
		apiJSON, err := gdocai.ToJSON(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert API response to JSON: %w", err)
		}
		if err := os.WriteFile(o.debugAPIPath, []byte(apiJSON), 0644); err != nil {
			return nil, fmt.Errorf("failed to write API response JSON: %w", err)
		}
		log.Infof("API response JSON saved to: %s", o.debugAPIPath)
	}

	if o.entitiesPath != "" {
		entitiesJSON, err := gdocai.ToJSON(gdocai.EntityFields(doc))
		if err != nil {
			return nil, fmt.Errorf("failed to convert entities to JSON: %w", err)
		}
		if err := os.WriteFile(o.entitiesPath, []byte(entitiesJSON), 0644); err != nil {
			return nil, fmt.Errorf("failed to write entities JSON: %w", err)
		}
		log.Infof("Entities JSON saved to: %s", o.entitiesPath)
	}

	if o.pageImagesDir != "" {
		if err := os.MkdirAll(o.pageImagesDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create images directory: %w", err)
		}
	}

	level, err := gdocai.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	pages, err := pipeline.SplitPages(gdocai.Detections(doc, level), len(doc.GetPages()))
	if err != nil {
		return nil, err
	}

	summary := gdocai.Summarize(doc, elapsed, processedAt)
	for i := range pages {
		pages[i].Summary = &summary
		pages[i].Width, pages[i].Height, _ = gdocai.PageSize(doc, i)

		img, mime, err := gdocai.PageImage(doc, i)
		if err != nil {
			log.WithField("page", i+1).Debugf("No page image: %v", err)
			continue
		}
		pages[i].Image, pages[i].MimeType = img, mime

		if o.pageImagesDir != "" {
			path := filepath.Join(o.pageImagesDir, fmt.Sprintf("page_%d%s", i+1, imageExt(mime)))
			if err := os.WriteFile(path, img, 0644); err != nil {
				log.WithField("page", i+1).Warnf("Failed to write page image: %v", err)
				continue
			}
			log.Infof("Saved image for page %d to %s", i+1, path)
		}
	}
	return pages, nil
}

func hocrPages(path, levelName string) ([]pipeline.PageInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hOCR file: %w", err)
	}
	doc, err := hocr.Parse(data)
	if err != nil {
		return nil, err
	}
	level, err := hocr.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	pages, err := pipeline.SplitPages(hocr.Detections(doc, level), len(doc.Pages))
	if err != nil {
		return nil, err
	}
	for i, p := range doc.Pages {
		pages[i].Width = int(p.BBox.Width() + 0.5)
		pages[i].Height = int(p.BBox.Height() + 0.5)
	}
	return pages, nil
}

func detectionPages(path string, minPages int) ([]pipeline.PageInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open detections file: %w", err)
	}
	defer f.Close()

	dets, err := layout.ReadDetections(f)
	if err != nil {
		return nil, err
	}
	count := max(minPages, 1)
	for _, d := range dets {
		count = max(count, d.Page+1)
	}
	return pipeline.SplitPages(dets, count)
}

func blankPages(n int) []pipeline.PageInput {
	pages := make([]pipeline.PageInput, n)
	for i := range pages {
		pages[i] = pipeline.PageInput{Index: i, PDFPage: i}
	}
	return pages
}

func mimeType(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	return "image/" + format
}

func imageExt(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/tiff":
		return ".tiff"
	case "image/gif":
		return ".gif"
	}
	return ".png"
}
