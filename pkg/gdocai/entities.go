package gdocai

import (
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/ocrlayout/pkg/layout"
)

// entityDetections turns every custom extractor entity with a page anchor into
// a detection hinted with the entity type, so a processor trained on labels such
// as "message bubble" or "button" steers classification directly. Nested
// properties are visited as well.
func entityDetections(doc *documentaipb.Document, runes []rune) []layout.Detection {
	var out []layout.Detection
	pages := doc.GetPages()

	var visit func(path string, e *documentaipb.Document_Entity)
	visit = func(path string, e *documentaipb.Document_Entity) {
		for r, ref := range e.GetPageAnchor().GetPageRefs() {
			page := int(ref.GetPage())
			var dim *documentaipb.Document_Page_Dimension
			if page >= 0 && page < len(pages) {
				dim = pages[page].GetDimension()
			}

			text := e.GetMentionText()
			if text == "" {
				text = textFromAnchor(e.GetTextAnchor(), runes)
			}
			confidence := e.GetConfidence()
			if confidence == 0 {
				confidence = ref.GetConfidence()
			}

			out = append(out, layout.Detection{
				ID:         fmt.Sprintf("p%d-entity-%s-%d", page, path, r),
				Polygon:    polygon(ref.GetBoundingPoly(), dim),
				Text:       text,
				Confidence: float64(confidence),
				Page:       page,
				Hint:       e.GetType(),
				Source:     Source,
			})
		}
		for i, prop := range e.GetProperties() {
			visit(fmt.Sprintf("%s.%d", path, i), prop)
		}
	}

	for i, e := range doc.GetEntities() {
		if e.GetType() == "" {
			continue
		}
		id := e.GetId()
		if id == "" {
			id = fmt.Sprint(i)
		}
		visit(id, e)
	}
	return out
}

// EntityFields collects custom extractor entities into a map keyed by entity
// type. Nested properties become nested maps, with the entity's own mention
// text under "_value"; repeated keys with different values become string slices.
func EntityFields(doc *documentaipb.Document) map[string]any {
	fields := make(map[string]any)
	for _, e := range doc.GetEntities() {
		if e.GetType() != "" {
			addEntity(fields, e)
		}
	}
	return fields
}

func addEntity(fields map[string]any, e *documentaipb.Document_Entity) {
	key, value := e.GetType(), e.GetMentionText()

	if len(e.GetProperties()) == 0 {
		addValue(fields, key, value)
		return
	}

	props, ok := fields[key].(map[string]any)
	if !ok {
		props = make(map[string]any)
		if existing, exists := fields[key]; exists {
			props["_value"] = existing
		} else if value != "" {
			props["_value"] = value
		}
	}
	for _, p := range e.GetProperties() {
		addEntity(props, p)
	}
	fields[key] = props
}

func addValue(fields map[string]any, key, value string) {
	if key == "" {
		return
	}

	existing, exists := fields[key]
	if !exists {
		if value != "" {
			fields[key] = value
		} else {
			fields[key] = make(map[string]any)
		}
		return
	}
	if value == "" {
		return
	}

	switch v := existing.(type) {
	case string:
		if v != value {
			fields[key] = []string{v, value}
		}
	case []string:
		for _, s := range v {
			if s == value {
				return
			}
		}
		fields[key] = append(v, value)
	case map[string]any:
		addValue(v, "_value", value)
	}
}
