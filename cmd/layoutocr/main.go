// layoutocr is a command-line tool that reconstructs editable layouts from
// scanned pages and renders them as styled pages.
//
// Pages are recognized with Google Document AI or a local Tesseract, or read
// from existing OCR output (hOCR, detections JSON or a saved Document AI
// response). Every page becomes a layout JSON file plus the rendered outputs
// configured in the config file.
//
// Configuration:
//
// The optional YAML configuration file holds the Document AI settings and the
// layout, render and pipeline options:
//
//	documentai:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
//
// Usage:
//
//	layoutocr [-config config.yml] -pdf input.pdf -out ./layouts [options]
//
// Input flags (at least one required):
//
//	-pdf string         Original PDF, recognized as a whole with Document AI
//	-images string      Comma-separated page images, in page order
//	-hocr string        hOCR file to use instead of running OCR
//	-detections string  Detections JSON to use instead of running OCR
//	-document string    Saved Document AI JSON response to use instead of running OCR
//
// Output flags (at least one required):
//
//	-out string          Directory for page-N.json layouts and rendered pages
//	-output string       Path to save all pages as one layered PDF
//	-debug-api string    Path to save the raw Document AI response as JSON
//	-entities string     Path to save custom extractor entities as JSON
//	-page-images string  Directory to save page images returned by Document AI
//
// Authentication:
//
// Without credentials_file in the config the tool uses the
// GOOGLE_APPLICATION_CREDENTIALS environment variable.
//
// Examples:
//
//	layoutocr -config config.yml -pdf chat.pdf -out ./chat -output chat_layout.pdf -underlay
//	layoutocr -engine tesseract -images page1.png,page2.png -out ./pages -formats png,svg
//	layoutocr -hocr scan.hocr -pdf scan.pdf -output scan_layout.pdf
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrlayout/pkg/config"
	"github.com/gardar/ocrlayout/pkg/layout"
	"github.com/gardar/ocrlayout/pkg/pipeline"
	"github.com/gardar/ocrlayout/pkg/render"
)

// options are the parsed command-line flags
type options struct {
	configPath     string
	pdfPath        string
	imagePaths     []string
	hocrPath       string
	detectionsPath string
	documentPath   string
	engine         string
	level          string
	outDir         string
	outputPDF      string
	formats        string
	underlay       bool
	workers        int
	debugAPIPath   string
	entitiesPath   string
	pageImagesDir  string
	logLevel       string
}

func main() {
	var opts options
	var imageList string
	flag.StringVar(&opts.configPath, "config", "", "Path to the config YAML file")
	flag.StringVar(&opts.pdfPath, "pdf", "", "Path to the original PDF file")
	flag.StringVar(&imageList, "images", "", "Comma-separated list of page images, in page order")
	flag.StringVar(&opts.hocrPath, "hocr", "", "Path to an hOCR file to use instead of running OCR")
	flag.StringVar(&opts.detectionsPath, "detections", "", "Path to a detections JSON file to use instead of running OCR")
	flag.StringVar(&opts.documentPath, "document", "", "Path to a saved Document AI JSON response to use instead of running OCR")
	flag.StringVar(&opts.engine, "engine", "", "OCR engine, documentai or tesseract (overrides config)")
	flag.StringVar(&opts.level, "level", "", "Detection level, e.g. block, line or word (overrides config)")
	flag.StringVar(&opts.outDir, "out", "", "Directory to save per-page layout JSON and rendered pages")
	flag.StringVar(&opts.outputPDF, "output", "", "Path to save all pages as one layered PDF")
	flag.StringVar(&opts.formats, "formats", "", "Comma-separated per-page output formats: pdf, png, svg (overrides config)")
	flag.BoolVar(&opts.underlay, "underlay", false, "Draw the original page beneath PDF output")
	flag.IntVar(&opts.workers, "workers", 0, "Number of pages processed at once (overrides config)")
	flag.StringVar(&opts.debugAPIPath, "debug-api", "", "Path to save the raw Document AI response as JSON")
	flag.StringVar(&opts.entitiesPath, "entities", "", "Path to save custom extractor entities as JSON")
	flag.StringVar(&opts.pageImagesDir, "page-images", "", "Directory to save page images returned by Document AI")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	flag.Parse()

	opts.imagePaths = splitList(imageList)

	if err := opts.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed, err := run(ctx, opts, cfg, log)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if failed > 0 {
		log.Errorf("%d page(s) failed", failed)
		os.Exit(1)
	}
}

func (o options) validate() error {
	sources := 0
	for _, p := range []string{o.hocrPath, o.detectionsPath, o.documentPath} {
		if p != "" {
			sources++
		}
	}
	if sources > 1 {
		return errors.New("only one of -hocr, -detections and -document may be given")
	}
	if sources == 0 && o.pdfPath == "" && len(o.imagePaths) == 0 {
		return errors.New("an input is required: -pdf, -images, -hocr, -detections or -document")
	}
	if o.outDir == "" && o.outputPDF == "" && o.debugAPIPath == "" && o.entitiesPath == "" && o.pageImagesDir == "" {
		return errors.New("at least one output flag must be provided (-out, -output, -debug-api, -entities or -page-images)")
	}
	return nil
}

// loadConfig reads the config file, or the defaults without one, and applies
// the flag overrides
func loadConfig(o options) (*config.Config, error) {
	var cfg *config.Config
	if o.configPath == "" {
		d := config.Default()
		cfg = &d
	} else {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}

	if o.engine != "" {
		cfg.OCR.Engine = o.engine
	}
	if o.level != "" {
		cfg.OCR.Level = o.level
	}
	if o.formats != "" {
		cfg.Pipeline.Formats = splitList(o.formats)
	}
	if o.workers > 0 {
		cfg.Pipeline.Workers = o.workers
	}
	if o.underlay {
		cfg.Pipeline.Underlay = true
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.outDir == "" {
		// Nothing to write per page; the combined PDF is assembled separately
		cfg.Pipeline.Formats = nil
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, o options, cfg *config.Config, log *logrus.Logger) (int, error) {
	in, err := loadInputs(ctx, o, cfg, log)
	if err != nil {
		return 0, err
	}
	defer in.close()

	if len(in.pages) == 0 {
		return 0, errors.New("no pages to process")
	}

	pc, err := cfg.PipelineConfig(log)
	if err != nil {
		return 0, err
	}
	p := pipeline.New(pc, in.recognizer)

	log.Infof("Processing %d page(s)", len(in.pages))
	results, err := p.Run(ctx, in.pages)
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			log.WithField("page", res.Index+1).Errorf("Page failed: %v", res.Err)
		}
		if o.outDir != "" {
			if err := writePage(o.outDir, res); err != nil {
				return failed, err
			}
		}
	}

	if o.outputPDF != "" {
		out, err := p.Document(in.pages, results)
		if err != nil {
			return failed, fmt.Errorf("failed to assemble PDF: %w", err)
		}
		if err := os.WriteFile(o.outputPDF, out, 0644); err != nil {
			return failed, fmt.Errorf("failed to write PDF: %w", err)
		}
		log.Infof("Layout PDF saved to: %s", o.outputPDF)
	}
	return failed, nil
}

// writePage saves the layout and rendered outputs of one page
func writePage(dir string, res pipeline.PageResult) error {
	if res.Layout == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	base := filepath.Join(dir, fmt.Sprintf("page-%d", res.Index+1))
	f, err := os.Create(base + ".json")
	if err != nil {
		return fmt.Errorf("failed to create layout file: %w", err)
	}
	if err := layout.WriteJSON(f, res.Layout); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write layout file: %w", err)
	}

	for _, format := range []render.Format{render.FormatPDF, render.FormatPNG, render.FormatSVG} {
		out, ok := res.Outputs[format]
		if !ok {
			continue
		}
		if err := os.WriteFile(base+"."+string(format), out, 0644); err != nil {
			return fmt.Errorf("failed to write %s output: %w", format, err)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
