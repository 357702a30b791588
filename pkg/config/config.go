// Package config loads the YAML configuration shared by the command-line
// tools. Every section starts from the package defaults, so a file only needs
// the values it changes:
//
//	documentai:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
//	ocr:
//	  engine: documentai
//	  level: line
//	render:
//	  page_size: letter
//	pipeline:
//	  workers: 8
//	  formats: [pdf, png]
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/gardar/ocrlayout/pkg/gdocai"
	"github.com/gardar/ocrlayout/pkg/imageregion"
	"github.com/gardar/ocrlayout/pkg/layout"
	"github.com/gardar/ocrlayout/pkg/pipeline"
	"github.com/gardar/ocrlayout/pkg/render"
	"github.com/gardar/ocrlayout/pkg/tessocr"
)

// OCR engines
const (
	EngineDocumentAI = "documentai"
	EngineTesseract  = "tesseract"
)

// Config is the whole configuration file
type Config struct {
	DocumentAI gdocai.Config `yaml:"documentai"`
	OCR        OCR           `yaml:"ocr"`
	Layout     Layout        `yaml:"layout"`
	Render     Render        `yaml:"render"`
	Pipeline   Pipeline      `yaml:"pipeline"`
	Log        Log           `yaml:"log"`
}

// OCR selects the recognizer
type OCR struct {
	Engine      string   `yaml:"engine"` // "documentai" or "tesseract"
	Level       string   `yaml:"level"`  // Detection granularity, engine specific
	Languages   []string `yaml:"languages"`
	PageSegMode int      `yaml:"page_seg_mode"`
}

// Layout holds the reconstruction tunables
type Layout struct {
	MinCircleSize   float64            `yaml:"min_circle_size"`
	CircleAspectMin float64            `yaml:"circle_aspect_min"`
	CircleAspectMax float64            `yaml:"circle_aspect_max"`
	FontScale       float64            `yaml:"font_scale"`
	MinFontSize     float64            `yaml:"min_font_size"`
	MaxFontSize     float64            `yaml:"max_font_size"`
	BubbleHints     []string           `yaml:"bubble_hints"`
	HintFontSizes   map[string]float64 `yaml:"hint_font_sizes"` // Merged over the defaults
	Bubble          Bubble             `yaml:"bubble"`
}

// Bubble is the styling of message bubbles
type Bubble struct {
	BorderColor     string  `yaml:"border_color"`
	BorderWidth     float64 `yaml:"border_width"`
	BorderRadius    float64 `yaml:"border_radius"`
	Padding         float64 `yaml:"padding"`
	BackgroundColor string  `yaml:"background_color"`
}

// Render holds the renderer options
type Render struct {
	PageSize       string    `yaml:"page_size"`
	Background     string    `yaml:"background"`
	FontName       string    `yaml:"font_name"`
	AscentRatio    float64   `yaml:"ascent_ratio"`
	LineSpacing    float64   `yaml:"line_spacing"`
	OutlineColor   string    `yaml:"outline_color"`
	OutlineWidth   float64   `yaml:"outline_width"`
	OutlineDash    []float64 `yaml:"outline_dash"`
	OutlineInflate float64   `yaml:"outline_inflate"`
	ElementLayer   string    `yaml:"element_layer"`
	OutlineLayer   string    `yaml:"outline_layer"`
	Debug          bool      `yaml:"debug"`
}

// Pipeline holds the batch options
type Pipeline struct {
	Workers       int           `yaml:"workers"`
	Retries       uint64        `yaml:"retries"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	CanvasWidth   int           `yaml:"canvas_width"`
	CanvasHeight  int           `yaml:"canvas_height"`
	Formats       []string      `yaml:"formats"`
	Underlay      bool          `yaml:"underlay"`
	ImageRegions  bool          `yaml:"image_regions"`
	MaxFormDepth  int           `yaml:"max_form_depth"`
}

// Log configures the logrus logger of the tools
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the configuration used when no file is given
func Default() Config {
	lc := layout.DefaultConfig()
	rc := render.DefaultConfig()
	pc := pipeline.DefaultConfig()

	formats := make([]string, len(pc.Formats))
	for i, f := range pc.Formats {
		formats[i] = string(f)
	}

	return Config{
		DocumentAI: gdocai.DefaultConfig(),
		OCR:        DefaultOCR(),
		Layout: Layout{
			MinCircleSize:   lc.MinCircleSize,
			CircleAspectMin: lc.CircleAspectMin,
			CircleAspectMax: lc.CircleAspectMax,
			FontScale:       lc.FontScale,
			MinFontSize:     lc.MinFontSize,
			MaxFontSize:     lc.MaxFontSize,
			BubbleHints:     lc.BubbleHints,
			Bubble:          Bubble(lc.Styles.Bubble),
		},
		Render: Render{
			PageSize:       rc.PageSize,
			Background:     rc.Background,
			FontName:       rc.Font.Name,
			AscentRatio:    rc.Font.AscentRatio,
			LineSpacing:    rc.Font.LineSpacing,
			OutlineColor:   rc.Outline.Color,
			OutlineWidth:   rc.Outline.Width,
			OutlineDash:    rc.Outline.Dash,
			OutlineInflate: rc.Outline.Inflate,
			ElementLayer:   rc.Layers.Elements,
			OutlineLayer:   rc.Layers.Outlines,
		},
		Pipeline: Pipeline{
			Workers:       pc.Workers,
			Retries:       pc.Retries,
			RetryInterval: pc.RetryInterval,
			Formats:       formats,
			ImageRegions:  pc.ImageRegions,
			MaxFormDepth:  imageregion.DefaultMaxFormDepth,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// DefaultOCR returns the default recognizer settings
func DefaultOCR() OCR {
	tc := tessocr.DefaultConfig()
	return OCR{
		Engine:    EngineDocumentAI,
		Level:     string(gdocai.LevelLine),
		Languages: tc.Languages,
	}
}

// Load reads a YAML file over the defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that can only be wrong, not merely unusual
func (c Config) Validate() error {
	switch c.OCR.Engine {
	case EngineDocumentAI:
		if _, err := gdocai.ParseLevel(c.OCR.Level); err != nil {
			return fmt.Errorf("ocr: %w", err)
		}
	case EngineTesseract:
		if _, err := tessocr.ParseLevel(c.OCR.Level); err != nil {
			return fmt.Errorf("ocr: %w", err)
		}
	default:
		return fmt.Errorf("ocr: unknown engine %q", c.OCR.Engine)
	}

	if _, err := c.Formats(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	switch strings.ToLower(c.Render.PageSize) {
	case "", render.PageSizeCanvas, render.PageSizeLetter, render.PageSizeA4:
	default:
		return fmt.Errorf("render: unknown page size %q", c.Render.PageSize)
	}
	for _, col := range []string{c.Render.Background, c.Render.OutlineColor, c.Layout.Bubble.BorderColor, c.Layout.Bubble.BackgroundColor} {
		if _, err := render.ParseColor(col); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	if (c.Pipeline.CanvasWidth > 0) != (c.Pipeline.CanvasHeight > 0) {
		return fmt.Errorf("pipeline: canvas_width and canvas_height must be set together")
	}
	if c.Layout.CircleAspectMin > c.Layout.CircleAspectMax {
		return fmt.Errorf("layout: circle_aspect_min %g exceeds circle_aspect_max %g", c.Layout.CircleAspectMin, c.Layout.CircleAspectMax)
	}
	if c.Layout.MinFontSize > c.Layout.MaxFontSize {
		return fmt.Errorf("layout: min_font_size %g exceeds max_font_size %g", c.Layout.MinFontSize, c.Layout.MaxFontSize)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Formats returns the parsed output formats
func (c Config) Formats() ([]render.Format, error) {
	formats := make([]render.Format, 0, len(c.Pipeline.Formats))
	for _, s := range c.Pipeline.Formats {
		f, err := render.ParseFormat(s)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// Logger builds the logger described by the log section
func (c Config) Logger() (*logrus.Logger, error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	switch c.Log.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return log, nil
}

// LayoutConfig converts the layout section
func (c Config) LayoutConfig(log logrus.FieldLogger) layout.Config {
	lc := layout.DefaultConfig()
	lc.MinCircleSize = c.Layout.MinCircleSize
	lc.CircleAspectMin = c.Layout.CircleAspectMin
	lc.CircleAspectMax = c.Layout.CircleAspectMax
	lc.FontScale = c.Layout.FontScale
	lc.MinFontSize = c.Layout.MinFontSize
	lc.MaxFontSize = c.Layout.MaxFontSize
	lc.BubbleHints = make([]string, len(c.Layout.BubbleHints))
	for i, h := range c.Layout.BubbleHints {
		lc.BubbleHints[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for hint, size := range c.Layout.HintFontSizes {
		lc.Styles.HintFontSizes[strings.ToLower(strings.TrimSpace(hint))] = size
	}
	lc.Styles.Bubble = layout.BubbleStyle(c.Layout.Bubble)
	lc.Logger = log
	return lc
}

// RenderConfig converts the render section
func (c Config) RenderConfig(log logrus.FieldLogger) render.Config {
	rc := render.DefaultConfig()
	rc.PageSize = c.Render.PageSize
	rc.Background = c.Render.Background
	rc.Font = render.FontConfig{
		Name:        c.Render.FontName,
		AscentRatio: c.Render.AscentRatio,
		LineSpacing: c.Render.LineSpacing,
	}
	rc.Outline = render.OutlineStyle{
		Color:   c.Render.OutlineColor,
		Width:   c.Render.OutlineWidth,
		Dash:    c.Render.OutlineDash,
		Inflate: c.Render.OutlineInflate,
	}
	rc.Layers = render.LayerNames{Elements: c.Render.ElementLayer, Outlines: c.Render.OutlineLayer}
	rc.Debug = c.Render.Debug
	rc.Logger = log
	return rc
}

// PipelineConfig converts the pipeline, layout and render sections
func (c Config) PipelineConfig(log logrus.FieldLogger) (pipeline.Config, error) {
	formats, err := c.Formats()
	if err != nil {
		return pipeline.Config{}, err
	}

	pc := pipeline.DefaultConfig()
	pc.Workers = c.Pipeline.Workers
	pc.Retries = c.Pipeline.Retries
	pc.RetryInterval = c.Pipeline.RetryInterval
	pc.CanvasWidth = c.Pipeline.CanvasWidth
	pc.CanvasHeight = c.Pipeline.CanvasHeight
	pc.Formats = formats
	pc.Underlay = c.Pipeline.Underlay
	pc.ImageRegions = c.Pipeline.ImageRegions
	pc.Layout = c.LayoutConfig(log)
	pc.Render = c.RenderConfig(log)
	pc.ImageRegion = imageregion.DefaultConfig()
	if c.Pipeline.MaxFormDepth > 0 {
		pc.ImageRegion.MaxFormDepth = c.Pipeline.MaxFormDepth
	}
	pc.ImageRegion.Logger = log
	pc.Logger = log
	return pc, nil
}

// DocumentAIConfig returns the documentai section with the logger attached
func (c Config) DocumentAIConfig(log logrus.FieldLogger) gdocai.Config {
	dc := c.DocumentAI
	dc.Logger = log
	return dc
}

// TesseractConfig converts the ocr section for the Tesseract engine
func (c Config) TesseractConfig(log logrus.FieldLogger) (tessocr.Config, error) {
	level, err := tessocr.ParseLevel(c.OCR.Level)
	if err != nil {
		return tessocr.Config{}, err
	}
	return tessocr.Config{
		Languages:   c.OCR.Languages,
		PageSegMode: c.OCR.PageSegMode,
		Level:       level,
		Logger:      log,
	}, nil
}
