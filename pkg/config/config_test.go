package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocrlayout/pkg/render"
	"github.com/gardar/ocrlayout/pkg/tessocr"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, EngineDocumentAI, cfg.OCR.Engine)
	assert.Equal(t, "us", cfg.DocumentAI.Location)
	assert.Equal(t, []string{"pdf"}, cfg.Pipeline.Formats)
	assert.Equal(t, "#f2f2f2", cfg.Layout.Bubble.BackgroundColor)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
documentai:
  project_id: "my-project"
  location: "eu"
  processor_id: "abc123"
  initial_interval: 250ms
ocr:
  engine: tesseract
  level: word
  languages: [eng, isl]
layout:
  max_font_size: 48
  hint_font_sizes:
    Button: 11
  bubble:
    padding: 10
render:
  page_size: letter
  outline_dash: [2, 2]
pipeline:
  workers: 8
  formats: [pdf, png]
  retry_interval: 1s
log:
  level: debug
  format: json
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "my-project", cfg.DocumentAI.ProjectID)
	assert.Equal(t, "eu", cfg.DocumentAI.Location)
	assert.Equal(t, 250*time.Millisecond, cfg.DocumentAI.InitialInterval)
	assert.Equal(t, uint64(3), cfg.DocumentAI.MaxRetries, "unset values keep their defaults")

	formats, err := cfg.Formats()
	require.NoError(t, err)
	assert.Equal(t, []render.Format{render.FormatPDF, render.FormatPNG}, formats)

	lc := cfg.LayoutConfig(nil)
	assert.Equal(t, 48.0, lc.MaxFontSize)
	assert.Equal(t, 8.0, lc.MinFontSize)
	assert.Equal(t, 11.0, lc.Styles.HintFontSizes["button"])
	assert.Equal(t, 14.0, lc.Styles.HintFontSizes["message bubble"])
	assert.Equal(t, 10.0, lc.Styles.Bubble.Padding)
	assert.Equal(t, "#b3b3b3", lc.Styles.Bubble.BorderColor)

	rc := cfg.RenderConfig(nil)
	assert.Equal(t, render.PageSizeLetter, rc.PageSize)
	assert.Equal(t, []float64{2, 2}, rc.Outline.Dash)
	assert.Equal(t, "Layout", rc.Layers.Elements)

	pc, err := cfg.PipelineConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, 8, pc.Workers)
	assert.Equal(t, time.Second, pc.RetryInterval)
	assert.Equal(t, formats, pc.Formats)
	assert.True(t, pc.ImageRegions)
	assert.Equal(t, 8, pc.ImageRegion.MaxFormDepth)

	tc, err := cfg.TesseractConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, tessocr.LevelWord, tc.Level)
	assert.Equal(t, []string{"eng", "isl"}, tc.Languages)

	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"syntax", "ocr: [unclosed"},
		{"engine", "ocr: {engine: vision}"},
		{"level", "ocr: {level: symbol}"},
		{"format", "pipeline: {formats: [gif]}"},
		{"page size", "render: {page_size: tabloid}"},
		{"color", "render: {background: '#zzzzzz'}"},
		{"canvas", "pipeline: {canvas_width: 800}"},
		{"aspect", "layout: {circle_aspect_min: 1.5}"},
		{"font sizes", "layout: {min_font_size: 80}"},
		{"log level", "log: {level: loud}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoggerFormats(t *testing.T) {
	cfg := Default()
	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)

	cfg.Log.Format = "xml"
	_, err = cfg.Logger()
	assert.Error(t, err)
}
