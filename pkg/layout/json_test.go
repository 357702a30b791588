package layout

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutJSONRoundTrip(t *testing.T) {
	r := NewReconstructor(testConfig())
	l, err := r.Reconstruct([]Detection{
		{ID: "d1", Polygon: rect(0, 0, 0.5, 0.1), Text: "Hello", Hint: "message bubble", Confidence: 0.9},
		{ID: "d2", Polygon: rect(0.1, 0.3, 0.05, 0.0667), Confidence: 0.5},
		{ID: "d3", Polygon: rect(0.1, 0.5, 0.5, 0.1), Text: "Hi", Style: &StyleHint{TextColor: ptr("#333333")}},
	}, 800, 600, nil)
	require.NoError(t, err)
	l.Name = "chat"
	l.Metadata.Extra = map[string]any{"source_file": "chat.pdf"}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, l))

	out := buf.String()
	assert.Contains(t, out, `"canvas_width": 800`)
	assert.Contains(t, out, `"z_index": 0`)
	assert.Contains(t, out, `"font_size": 14`)
	assert.Contains(t, out, `"background_color": "#f2f2f2"`)
	assert.Contains(t, out, `"type": "text"`)

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, l, got)
}

func TestReadJSONRejectsInvalid(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"canvas_width": 0, "canvas_height": 10, "elements": []}`))
	assert.ErrorIs(t, err, ErrInvalidCanvas)

	_, err = ReadJSON(strings.NewReader(`{"canvas_width": 10, "canvas_height": 10, "elements": [
		{"element_id": "a", "type": "text", "z_index": 1},
		{"element_id": "b", "type": "text", "z_index": 1}]}`))
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = ReadJSON(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestReadJSONSortsElements(t *testing.T) {
	l, err := ReadJSON(strings.NewReader(`{"version": 3, "canvas_width": 10, "canvas_height": 10, "elements": [
		{"element_id": "b", "type": "circle", "z_index": 7},
		{"element_id": "a", "type": "text", "z_index": 2}]}`))
	require.NoError(t, err)
	assert.Equal(t, "a", l.Elements[0].ID)
	assert.Equal(t, 3, l.Version)
	assert.Nil(t, l.Metadata.UpdatedAt)
}

func TestReadDetections(t *testing.T) {
	array := `[{"id": "1", "polygon": [{"x":0,"y":0},{"x":0.5,"y":0},{"x":0.5,"y":0.1},{"x":0,"y":0.1}],
		"text": "Hello", "confidence": 0.9, "page": 0, "hint": "message bubble",
		"style": {"background_color": "#ffffff", "font_size": 12}}]`

	dets, err := ReadDetections(strings.NewReader(array))
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "Hello", dets[0].Text)
	assert.Equal(t, "json", dets[0].Source)
	require.NotNil(t, dets[0].Style)
	assert.Equal(t, "#ffffff", *dets[0].Style.BackgroundColor)
	assert.Equal(t, 12.0, *dets[0].Style.FontSize)
	assert.Nil(t, dets[0].Style.BorderColor)

	wrapped, err := ReadDetections(strings.NewReader(`{"detections": [{"text": "a", "source": "hocr"}]}`))
	require.NoError(t, err)
	require.Len(t, wrapped, 1)
	assert.Equal(t, "hocr", wrapped[0].Source)

	empty, err := ReadDetections(strings.NewReader("  "))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ReadDetections(strings.NewReader(`[{"text": 5}]`))
	assert.Error(t, err)
}

func TestReadJSONElementDefaults(t *testing.T) {
	l, err := ReadJSON(strings.NewReader(`{"canvas_width": 100, "canvas_height": 50, "elements": [
		{"element_id": "a", "type": "text", "x": 1, "y": 2, "width": 30, "height": 10, "content": "Hi",
		 "styling": {"font_size": 12}, "z_index": 0},
		{"element_id": "b", "type": "rectangle", "z_index": 1, "is_visible": false,
		 "styling": {"opacity": 0.5}}]}`))
	require.NoError(t, err)
	require.Len(t, l.Elements, 2)

	a := l.Elements[0]
	assert.True(t, a.Visible)
	assert.Equal(t, 1.0, a.Style.Opacity)
	assert.Equal(t, 12.0, a.Style.FontSize)
	assert.Equal(t, 30.0, a.Width)

	b := l.Elements[1]
	assert.False(t, b.Visible)
	assert.Equal(t, 0.5, b.Style.Opacity)

	assert.Equal(t, DefaultCanvasSettings(), l.Metadata.Canvas)
}

func TestReadJSONExportEnvelope(t *testing.T) {
	export := `{
	  "layout": {
	    "id": 7,
	    "name": "chat",
	    "description": "Imported from chat.pdf",
	    "canvas_width": 800,
	    "canvas_height": 600,
	    "version": 2,
	    "created_at": "2025-03-14T09:30:00.250000",
	    "layout_data": {
	      "ocr_metadata": {"processor_type": "layout_parser", "confidence_score": 0.91,
	                       "processing_time": 1.5, "detected_language": "en", "created_at": "2025-03-14T09:29:58"},
	      "canvas_settings": {"background_color": "#fafafa", "grid_enabled": false, "grid_size": 8, "snap_to_grid": false},
	      "last_updated": "2025-03-15T10:00:00",
	      "element_count": 2
	    }
	  },
	  "elements": [
	    {"id": 1, "element_id": "button_1", "type": "rectangle", "x": 10, "y": 300, "width": 120, "height": 40,
	     "content": null,
	     "styling": {"font_size": null, "font_family": null, "background_color": "#f0f0f0", "border_color": "#cccccc",
	                 "border_width": 1.0, "border_radius": 4.0},
	     "transform": {"opacity": 0.8, "rotation": 15.0, "z_index": 1001},
	     "state": {"is_visible": true, "is_locked": true},
	     "metadata": {"ocr_source": "layout_element", "page_number": 1}},
	    {"id": 2, "element_id": "text_0", "type": "text", "x": 10, "y": 20, "width": 300, "height": 24,
	     "content": "Hello",
	     "styling": {"font_size": 16.8, "font_family": "Arial", "font_weight": "normal", "text_align": "left",
	                 "text_color": "#000000", "background_color": "transparent", "border_color": "transparent",
	                 "border_width": 0, "border_radius": 0},
	     "transform": {"opacity": 1.0, "rotation": 0.0, "z_index": 0},
	     "state": {"is_visible": false, "is_locked": false},
	     "metadata": {"ocr_source": "text_block", "page_number": 1}}
	  ]
	}`

	l, err := ReadJSON(strings.NewReader(export))
	require.NoError(t, err)

	assert.Equal(t, "chat", l.Name)
	assert.Equal(t, 2, l.Version)
	assert.Equal(t, 800, l.CanvasWidth)
	assert.Equal(t, 600, l.CanvasHeight)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 30, 0, 250000000, time.UTC), l.Metadata.CreatedAt)
	require.NotNil(t, l.Metadata.UpdatedAt)
	assert.Equal(t, time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC), *l.Metadata.UpdatedAt)
	assert.Equal(t, "#fafafa", l.Metadata.Canvas.Background)
	assert.Equal(t, 8, l.Metadata.Canvas.GridSize)
	require.NotNil(t, l.Metadata.OCR)
	assert.Equal(t, "layout_parser", l.Metadata.OCR.ProcessorType)
	assert.Equal(t, "Imported from chat.pdf", l.Metadata.Extra["description"])
	assert.Equal(t, map[ElementType]int{TypeText: 1, TypeRectangle: 1, TypeCircle: 0}, l.Metadata.ElementCounts)

	require.Len(t, l.Elements, 2)
	text, button := l.Elements[0], l.Elements[1]

	assert.Equal(t, "text_0", text.ID)
	assert.Equal(t, 0, text.ZIndex)
	assert.False(t, text.Visible)
	assert.Equal(t, 16.8, text.Style.FontSize)
	assert.Equal(t, "text_block", text.Provenance.Source)

	assert.Equal(t, "button_1", button.ID)
	assert.Equal(t, TypeRectangle, button.Type)
	assert.Equal(t, 1001, button.ZIndex)
	assert.Equal(t, 0.8, button.Style.Opacity)
	assert.Equal(t, 15.0, button.Rotation)
	assert.True(t, button.Visible)
	assert.True(t, button.Locked)
	assert.Equal(t, 4.0, button.Style.BorderRadius)
	assert.Equal(t, 120.0, button.Width)
}

func TestReadJSONEditorElementType(t *testing.T) {
	l, err := ReadJSON(strings.NewReader(`{"canvas_width": 10, "canvas_height": 10, "elements": [
		{"element_id": "c", "element_type": "circle", "z_index": 3}]}`))
	require.NoError(t, err)
	assert.Equal(t, TypeCircle, l.Elements[0].Type)
}

func TestReadJSONTimestamps(t *testing.T) {
	l, err := ReadJSON(strings.NewReader(`{"canvas_width": 10, "canvas_height": 10, "elements": [],
		"layout_data": {"created_at": "2025-03-14 09:30:00", "last_updated": "2025-03-14T11:30:00+02:00"}}`))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC), l.Metadata.CreatedAt)
	require.NotNil(t, l.Metadata.UpdatedAt)
	assert.True(t, l.Metadata.UpdatedAt.Equal(fixedNow), "zone offsets are honored")

	_, err = ReadJSON(strings.NewReader(`{"canvas_width": 10, "canvas_height": 10, "layout_data": {"created_at": "yesterday"}}`))
	assert.Error(t, err)
}
