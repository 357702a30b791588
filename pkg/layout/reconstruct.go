package layout

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrlayout/pkg/geometry"
)

// Reconstructor assembles a Layout from OCR detections
type Reconstructor struct {
	cfg        Config
	classifier *Classifier
	styles     *StyleInferencer
	log        logrus.FieldLogger
}

// NewReconstructor creates a reconstructor from the given config
func NewReconstructor(cfg Config) *Reconstructor {
	return &Reconstructor{
		cfg:        cfg,
		classifier: NewClassifier(cfg),
		styles:     NewStyleInferencer(cfg),
		log:        cfg.logger(),
	}
}

// candidate is a detection whose polygon reduced to a usable box
type candidate struct {
	det   Detection
	index int
	box   geometry.Box // normalized
}

// Reconstruct builds a layout from detections on a canvas of the given size.
//
// Detections with unusable polygons are skipped and recorded in the layout
// metadata; they never abort the pass. The remaining detections are stably
// sorted by the y coordinate of their first vertex, and each element's z-order
// is its position in that order. The only error is a non-positive canvas.
func (r *Reconstructor) Reconstruct(detections []Detection, canvasWidth, canvasHeight int, regions []ImageRegion) (*Layout, error) {
	if canvasWidth <= 0 || canvasHeight <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidCanvas, canvasWidth, canvasHeight)
	}

	meta := Metadata{
		DetectionCount:   len(detections),
		ImageRegionCount: len(regions),
		Canvas:           DefaultCanvasSettings(),
		CreatedAt:        r.cfg.now(),
	}

	candidates := make([]candidate, 0, len(detections))
	for i, det := range detections {
		box, err := geometry.PolygonToBox(det.Polygon)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"detection": i,
				"id":        det.ID,
			}).Warnf("Skipping detection: %v", err)
			meta.Skipped = append(meta.Skipped, SkippedDetection{Index: i, ID: det.ID, Reason: err.Error()})
			continue
		}
		candidates = append(candidates, candidate{det: det, index: i, box: box})
	}
	meta.SkippedCount = len(meta.Skipped)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].det.Polygon[0].Y < candidates[j].det.Polygon[0].Y
	})

	w, h := float64(canvasWidth), float64(canvasHeight)
	elements := make([]Element, 0, len(candidates))
	var confidenceSum float64

	for z, c := range candidates {
		el := r.element(c, z, w, h)
		elements = append(elements, el)
		confidenceSum += c.det.Confidence

		r.log.WithFields(logrus.Fields{
			"element": el.ID,
			"page":    c.det.Page,
		}).Debugf("Classified detection %d as %s (%s)", c.index, el.Type, el.Variant)
	}

	meta.ElementCounts = countTypes(elements)
	meta.ElementCount = len(elements)
	if len(elements) > 0 {
		meta.AverageConfidence = confidenceSum / float64(len(elements))
	}

	return &Layout{
		Version:      1,
		CanvasWidth:  canvasWidth,
		CanvasHeight: canvasHeight,
		Elements:     elements,
		Metadata:     meta,
	}, nil
}

// ReconstructPage reconstructs a single page of a multi-page source, considering
// only the detections and image regions on that page.
func (r *Reconstructor) ReconstructPage(detections []Detection, page, canvasWidth, canvasHeight int, regions []ImageRegion) (*Layout, error) {
	var pageDets []Detection
	for _, d := range detections {
		if d.Page == page {
			pageDets = append(pageDets, d)
		}
	}
	l, err := r.Reconstruct(pageDets, canvasWidth, canvasHeight, RegionsOnPage(regions, page))
	if err != nil {
		return nil, err
	}
	l.Page = page
	return l, nil
}

// RegionsOnPage filters image regions by page index
func RegionsOnPage(regions []ImageRegion, page int) []ImageRegion {
	var out []ImageRegion
	for _, reg := range regions {
		if reg.Page == page {
			out = append(out, reg)
		}
	}
	return out
}

func (r *Reconstructor) element(c candidate, z int, canvasWidth, canvasHeight float64) Element {
	box := c.box.Scale(canvasWidth, canvasHeight)
	cls := r.classifier.Classify(box, c.det.Text, c.det.Hint)
	style := r.styles.Infer(cls, box, c.det.Text, c.det.Hint, c.det.Style)

	return Element{
		ID:      fmt.Sprintf("%s_%d", cls.Type, z),
		Type:    cls.Type,
		Variant: cls.Variant,
		Box:     box,
		Content: c.det.Text,
		Style:   style,
		ZIndex:  z,
		Visible: true,
		Provenance: Provenance{
			DetectionID:      c.det.ID,
			Confidence:       c.det.Confidence,
			Page:             c.det.Page,
			OriginalCategory: c.det.Hint,
			Source:           c.det.Source,
		},
	}
}
