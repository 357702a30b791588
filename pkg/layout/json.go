package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// WriteJSON writes the layout as indented JSON
func WriteJSON(w io.Writer, l *Layout) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}
	return nil
}

// exportEnvelope is the layout export format where the canvas fields are
// nested under "layout" next to the element list
type exportEnvelope struct {
	Layout *struct {
		Name         string    `json:"name"`
		Description  string    `json:"description"`
		CanvasWidth  int       `json:"canvas_width"`
		CanvasHeight int       `json:"canvas_height"`
		Version      int       `json:"version"`
		CreatedAt    string    `json:"created_at"`
		Metadata     *Metadata `json:"layout_data"`
	} `json:"layout"`
	Elements []Element `json:"elements"`
}

// ReadJSON reads a layout written by WriteJSON (or an external editor) and
// validates it. Exports that nest the canvas under "layout" are accepted too.
// Elements are brought into z-order before validation.
func ReadJSON(r io.Reader) (*Layout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}

	l, err := decodeLayout(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode layout: %w", err)
	}

	elements := l.Elements
	l.Elements = nil
	version, updated := l.Version, l.Metadata.UpdatedAt
	if err := l.ReplaceElements(elements, l.Metadata.CreatedAt); err != nil {
		return nil, err
	}
	// Reading is not an edit
	l.Version = version
	l.Metadata.UpdatedAt = updated
	return l, nil
}

func decodeLayout(data []byte) (*Layout, error) {
	l := &Layout{Metadata: Metadata{Canvas: DefaultCanvasSettings()}}

	var head struct {
		Layout json.RawMessage `json:"layout"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	if len(head.Layout) == 0 || bytes.Equal(head.Layout, []byte("null")) {
		if err := json.Unmarshal(data, l); err != nil {
			return nil, err
		}
		return l, nil
	}

	var env exportEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	src := env.Layout
	if src.Metadata != nil {
		l.Metadata = *src.Metadata
		if l.Metadata.Canvas == (CanvasSettings{}) {
			l.Metadata.Canvas = DefaultCanvasSettings()
		}
	}
	l.Name = src.Name
	l.Version = max(src.Version, 1)
	l.CanvasWidth = src.CanvasWidth
	l.CanvasHeight = src.CanvasHeight
	l.Elements = env.Elements
	if l.Metadata.CreatedAt.IsZero() {
		created, err := parseTimestamp(src.CreatedAt)
		if err != nil {
			return nil, err
		}
		l.Metadata.CreatedAt = created
	}
	if src.Description != "" {
		if l.Metadata.Extra == nil {
			l.Metadata.Extra = make(map[string]any)
		}
		l.Metadata.Extra["description"] = src.Description
	}
	return l, nil
}

// UnmarshalJSON decodes an element. Missing opacity and visibility default to
// 1 and true. The "transform" and "state" groups of the export format and the
// "element_type" name of the editor format are read as well.
func (e *Element) UnmarshalJSON(data []byte) error {
	type plain Element
	aux := struct {
		*plain
		ElementType ElementType `json:"element_type"`
		Transform   *struct {
			Opacity  *float64 `json:"opacity"`
			Rotation *float64 `json:"rotation"`
			ZIndex   *int     `json:"z_index"`
		} `json:"transform"`
		State *struct {
			Visible *bool `json:"is_visible"`
			Locked  *bool `json:"is_locked"`
		} `json:"state"`
	}{plain: (*plain)(e)}

	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	*e = Element{Visible: true, Style: Style{Opacity: 1}}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if e.Type == "" {
		e.Type = aux.ElementType
	}
	if t := aux.Transform; t != nil {
		if t.Opacity != nil {
			e.Style.Opacity = *t.Opacity
		}
		if t.Rotation != nil {
			e.Rotation = *t.Rotation
		}
		if t.ZIndex != nil {
			e.ZIndex = *t.ZIndex
		}
	}
	if s := aux.State; s != nil {
		if s.Visible != nil {
			e.Visible = *s.Visible
		}
		if s.Locked != nil {
			e.Locked = *s.Locked
		}
	}
	return nil
}

// UnmarshalJSON decodes layout metadata. Timestamps may carry a zone or, as
// editors often write them, none; zoneless times are read as UTC.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	type plain Metadata
	aux := struct {
		*plain
		CreatedAt string  `json:"created_at"`
		UpdatedAt *string `json:"last_updated"`
	}{plain: (*plain)(m)}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	created, err := parseTimestamp(aux.CreatedAt)
	if err != nil {
		return err
	}
	m.CreatedAt = created

	m.UpdatedAt = nil
	if aux.UpdatedAt != nil && *aux.UpdatedAt != "" {
		updated, err := parseTimestamp(*aux.UpdatedAt)
		if err != nil {
			return err
		}
		m.UpdatedAt = &updated
	}
	return nil
}

var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// ReadDetections decodes detections from JSON. Both a bare array and an object
// with a "detections" array are accepted.
func ReadDetections(r io.Reader) ([]Detection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read detections: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var dets []Detection
	if trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &dets)
	} else {
		var wrapper struct {
			Detections []Detection `json:"detections"`
		}
		err = json.Unmarshal(trimmed, &wrapper)
		dets = wrapper.Detections
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode detections: %w", err)
	}

	for i := range dets {
		if dets[i].Source == "" {
			dets[i].Source = "json"
		}
	}
	return dets, nil
}
