// layoutrender is a command-line tool that renders saved layouts as styled
// pages.
//
// Layouts are the JSON files written by layoutocr or by a layout editor. PDF
// output puts every layout on its own page, with the elements and image
// outlines in per-page layers, optionally on top of the original pages. PNG
// and SVG output writes one file per layout.
//
// Usage:
//
//	layoutrender -layout page-1.json[,page-2.json] -output out.pdf [options]
//
// Required flags:
//
//	-layout string      Comma-separated layout JSON files (required if -layout-dir is not set)
//	-layout-dir string  Directory of layout JSON files, rendered in name order
//	-output string      Output path; the extension picks the format unless -format is set
//
// Original page options:
//
//	-pdf string        Original PDF for image outlines and the underlay
//	-image-dir string  Directory of page images to draw beneath the layouts
//	-start-page int    Page of -pdf that matches the first layout (default 1)
//	-underlay          Draw the original pages beneath PDF output
//	-no-regions        Do not outline the images embedded in -pdf
//
// Processing options:
//
//	-config string  Path to the config YAML file
//	-format string  pdf, png or svg
//	-debug          Outline every element box
//	-force          Render even if -pdf already carries layout layers
//	-overwrite      Overwrite the output file if it exists
//
// Examples:
//
//	layoutrender -layout-dir ./chat -pdf chat.pdf -underlay -output chat_layout.pdf
//	layoutrender -layout page-1.json -output page-1.png
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrlayout/pkg/config"
	"github.com/gardar/ocrlayout/pkg/imageregion"
	"github.com/gardar/ocrlayout/pkg/layout"
	"github.com/gardar/ocrlayout/pkg/render"
)

func main() {
	layoutList := flag.String("layout", "", "Comma-separated list of layout JSON files")
	layoutDir := flag.String("layout-dir", "", "Directory containing layout JSON files")
	pdfPath := flag.String("pdf", "", "Path to the original PDF")
	imageDir := flag.String("image-dir", "", "Directory containing page images")
	outputPath := flag.String("output", "", "Output path")
	configPath := flag.String("config", "", "Path to the config YAML file")
	formatName := flag.String("format", "", "Output format: pdf, png or svg (default from -output extension)")
	startPage := flag.Int("start-page", 1, "Page of -pdf that matches the first layout (1-based index)")
	underlay := flag.Bool("underlay", false, "Draw the original pages beneath PDF output")
	noRegions := flag.Bool("no-regions", false, "Do not outline images embedded in -pdf")
	debug := flag.Bool("debug", false, "Outline every element box")
	force := flag.Bool("force", false, "Render even if the original PDF already has layout layers")
	overwrite := flag.Bool("overwrite", false, "Overwrite the output file if it already exists")
	flag.Parse()

	log := logrus.New()

	if (*layoutList == "") == (*layoutDir == "") {
		fmt.Fprintln(os.Stderr, "Error: Either -layout or -layout-dir must be provided (but not both)")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *outputPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -output is required")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *startPage < 1 {
		fmt.Fprintln(os.Stderr, "Error: -start-page must be 1 or greater")
		os.Exit(1)
	}

	format := render.Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(*outputPath)), "."))
	if *formatName != "" {
		format = render.Format(*formatName)
	}
	format, err := render.ParseFormat(string(format))
	if err != nil {
		log.Fatalf("Cannot pick output format: %v", err)
	}

	if _, err := os.Stat(*outputPath); err == nil && !*overwrite {
		log.Fatalf("Output file %s already exists. Use -overwrite to overwrite.", *outputPath)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
		configured, err := cfg.Logger()
		if err != nil {
			log.Fatalf("%v", err)
		}
		log = configured
	}
	rc := cfg.RenderConfig(log)
	rc.Debug = rc.Debug || *debug

	paths, err := layoutPaths(*layoutList, *layoutDir)
	if err != nil {
		log.Fatalf("%v", err)
	}
	layouts := make([]*layout.Layout, 0, len(paths))
	for _, path := range paths {
		l, err := readLayout(path)
		if err != nil {
			log.Fatalf("Failed to read layout %s: %v", path, err)
		}
		layouts = append(layouts, l)
	}
	log.Infof("Read %d layout(s)", len(layouts))

	var original []byte
	if *pdfPath != "" {
		if original, err = os.ReadFile(*pdfPath); err != nil {
			log.Fatalf("Failed to read PDF: %v", err)
		}
		check, err := render.CheckLayers(original, rc.Layers.Elements)
		if err != nil {
			log.Warnf("Layer detection failed: %v", err)
		}
		for _, w := range check.Warnings {
			log.Warn(w)
		}
		if check.Found && !*force {
			log.Fatalf("%s already has a layout layer (%s). Use -force to render anyway.", *pdfPath, check.Name)
		}
	}

	var images [][]byte
	if *imageDir != "" {
		if images, err = readImages(*imageDir); err != nil {
			log.Fatalf("%v", err)
		}
		log.Infof("Found %d image files in %s", len(images), *imageDir)
	}

	pages := make([]page, len(layouts))
	detector := imageregion.New(imageregion.Config{
		MaxFormDepth:     cfg.Pipeline.MaxFormDepth,
		DuplicateOverlap: imageregion.DefaultDuplicateOverlap,
		Logger:           log,
	})
	for i, l := range layouts {
		pages[i].layout = l
		pdfPage := *startPage - 1 + i
		if original != nil && !*noRegions && cfg.Pipeline.ImageRegions {
			regions, err := detector.DetectBytes(original, pdfPage)
			if err != nil {
				log.WithField("page", i+1).Warnf("Image region detection failed: %v", err)
			}
			pages[i].regions = regions
		}
		if *underlay {
			switch {
			case original != nil:
				pages[i].underlay = &render.Underlay{PDF: original, Page: pdfPage + 1}
			case i < len(images):
				pages[i].underlay = &render.Underlay{Image: images[i]}
			}
		}
	}

	r := render.New(rc)
	if format == render.FormatPDF {
		err = writeDocument(r, pages, *outputPath)
	} else {
		err = writePages(r, pages, format, *outputPath)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Infof("Rendered output created: %s", *outputPath)
}

// page is one layout with what is drawn around it
type page struct {
	layout   *layout.Layout
	regions  []layout.ImageRegion
	underlay *render.Underlay
}

func writeDocument(r *render.Renderer, pages []page, path string) error {
	doc := r.NewDocument()
	for i, p := range pages {
		if err := doc.AddPage(p.layout, p.regions, p.underlay); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	out, err := doc.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

// writePages writes one file per layout; with several layouts the page
// number is added to the file name
func writePages(r *render.Renderer, pages []page, format render.Format, path string) error {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if ext == "" {
		ext = "." + string(format)
	}

	for i, p := range pages {
		out, err := r.Render(p.layout, p.regions, format)
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
		target := base + ext
		if len(pages) > 1 {
			target = fmt.Sprintf("%s-%d%s", base, i+1, ext)
		}
		if err := os.WriteFile(target, out, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
	}
	return nil
}

func layoutPaths(list, dir string) ([]string, error) {
	if dir != "" {
		paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("error accessing layout directory: %w", err)
		}
		sort.Strings(paths)
		if len(paths) == 0 {
			return nil, fmt.Errorf("no layout files found in %s", dir)
		}
		return paths, nil
	}

	var paths []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil, errors.New("no layout files given")
	}
	return paths, nil
}

func readLayout(path string) (*layout.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return layout.ReadJSON(f)
}

func readImages(dir string) ([][]byte, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, fmt.Errorf("error accessing image directory: %w", err)
	}
	sort.Strings(paths)

	var images [][]byte
	for _, path := range paths {
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", path, err)
		}
		images = append(images, data)
	}
	return images, nil
}
