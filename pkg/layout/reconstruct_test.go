package layout

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/ocrlayout/pkg/geometry"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return fixedNow }
	return cfg
}

// rect builds a normalized TL, TR, BR, BL polygon
func rect(x, y, w, h float64) []geometry.Point {
	return []geometry.Point{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
}

func TestReconstructEmpty(t *testing.T) {
	r := NewReconstructor(testConfig())

	l, err := r.Reconstruct(nil, 800, 600, nil)
	require.NoError(t, err)
	assert.Empty(t, l.Elements)
	assert.Equal(t, 800, l.CanvasWidth)
	assert.Equal(t, 600, l.CanvasHeight)
	assert.Equal(t, 1, l.Version)
	assert.Equal(t, 0, l.Metadata.SkippedCount)
	assert.Equal(t, 0.0, l.Metadata.AverageConfidence)
	assert.NoError(t, l.Validate())
}

func TestReconstructInvalidCanvas(t *testing.T) {
	r := NewReconstructor(testConfig())

	for _, dims := range [][2]int{{0, 600}, {800, 0}, {-1, -1}} {
		_, err := r.Reconstruct(nil, dims[0], dims[1], nil)
		assert.True(t, errors.Is(err, ErrInvalidCanvas), "dims %v", dims)
	}
}

func TestReconstructOrdering(t *testing.T) {
	r := NewReconstructor(testConfig())

	dets := []Detection{
		{ID: "bottom", Polygon: rect(0.1, 0.8, 0.3, 0.05), Text: "bottom"},
		{ID: "tie-a", Polygon: rect(0.5, 0.2, 0.3, 0.05), Text: "a"},
		{ID: "top", Polygon: rect(0.1, 0.1, 0.3, 0.05), Text: "top"},
		{ID: "tie-b", Polygon: rect(0.1, 0.2, 0.3, 0.05), Text: "b"},
	}

	l, err := r.Reconstruct(dets, 1000, 1000, nil)
	require.NoError(t, err)
	require.Len(t, l.Elements, 4)

	var ids []string
	for i, el := range l.Elements {
		ids = append(ids, el.Provenance.DetectionID)
		assert.Equal(t, i, el.ZIndex)
	}
	assert.Equal(t, []string{"top", "tie-a", "tie-b", "bottom"}, ids)
	assert.Equal(t, "text_0", l.Elements[0].ID)
	assert.NoError(t, l.Validate())
}

func TestReconstructSkipsMalformed(t *testing.T) {
	r := NewReconstructor(testConfig())

	dets := []Detection{
		{ID: "bad", Polygon: []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}, Text: "x"},
		{ID: "good", Polygon: rect(0.1, 0.1, 0.2, 0.1), Text: "ok", Confidence: 0.8},
		{ID: "flat", Polygon: rect(0.1, 0.5, 0.2, 0), Confidence: 0.1},
	}

	l, err := r.Reconstruct(dets, 800, 600, nil)
	require.NoError(t, err)
	require.Len(t, l.Elements, 1)
	assert.Equal(t, "good", l.Elements[0].Provenance.DetectionID)
	assert.Equal(t, 2, l.Metadata.SkippedCount)
	require.Len(t, l.Metadata.Skipped, 2)
	assert.Equal(t, 0, l.Metadata.Skipped[0].Index)
	assert.Equal(t, "bad", l.Metadata.Skipped[0].ID)
	assert.Contains(t, l.Metadata.Skipped[0].Reason, "invalid geometry")
	assert.Equal(t, 3, l.Metadata.DetectionCount)
	assert.InDelta(t, 0.8, l.Metadata.AverageConfidence, 1e-9)
}

func TestReconstructSingleMalformed(t *testing.T) {
	r := NewReconstructor(testConfig())

	l, err := r.Reconstruct([]Detection{{Polygon: []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}}}, 800, 600, nil)
	require.NoError(t, err)
	assert.Empty(t, l.Elements)
	assert.Equal(t, 1, l.Metadata.SkippedCount)
}

func TestReconstructCircleScenario(t *testing.T) {
	r := NewReconstructor(testConfig())

	// 30x32 canvas units on a 100x100 canvas
	l, err := r.Reconstruct([]Detection{{Polygon: rect(0.1, 0.1, 0.30, 0.32)}}, 100, 100, nil)
	require.NoError(t, err)
	require.Len(t, l.Elements, 1)

	el := l.Elements[0]
	assert.Equal(t, TypeCircle, el.Type)
	assert.Equal(t, "#e0e0e0", el.Style.BackgroundColor)
	assert.InDelta(t, 30, el.Width, 1e-9)
	assert.InDelta(t, 32, el.Height, 1e-9)
	assert.Equal(t, 1, l.Metadata.ElementCounts[TypeCircle])
}

func TestReconstructBubble(t *testing.T) {
	r := NewReconstructor(testConfig())

	det := Detection{
		ID:         "d1",
		Polygon:    []geometry.Point{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 0.1}, {X: 0, Y: 0.1}},
		Text:       "Hello",
		Hint:       "message bubble",
		Confidence: 0.97,
		Source:     "documentai",
	}
	regions := []ImageRegion{{X: 0.6, Y: 0.6, Width: 0.2, Height: 0.2}}

	l, err := r.Reconstruct([]Detection{det}, 800, 600, regions)
	require.NoError(t, err)
	require.Len(t, l.Elements, 1)

	el := l.Elements[0]
	assert.Equal(t, TypeText, el.Type)
	assert.Equal(t, VariantBubble, el.Variant)
	assert.InDelta(t, 0, el.X, 1e-9)
	assert.InDelta(t, 0, el.Y, 1e-9)
	assert.InDelta(t, 400, el.Width, 1e-9)
	assert.InDelta(t, 60, el.Height, 1e-9)
	assert.Equal(t, 6.0, el.Style.BorderRadius)
	assert.Equal(t, 8.0, el.Style.Padding)
	assert.Equal(t, 14.0, el.Style.FontSize)
	assert.Equal(t, "message bubble", el.Provenance.OriginalCategory)
	assert.Equal(t, "documentai", el.Provenance.Source)
	assert.True(t, el.Visible)

	assert.Equal(t, 1, l.Metadata.ImageRegionCount)
	assert.Equal(t, fixedNow, l.Metadata.CreatedAt)
	assert.Equal(t, DefaultCanvasSettings(), l.Metadata.Canvas)
}

func TestReconstructPage(t *testing.T) {
	r := NewReconstructor(testConfig())

	dets := []Detection{
		{ID: "p0", Polygon: rect(0.1, 0.1, 0.2, 0.1), Text: "page zero", Page: 0},
		{ID: "p1", Polygon: rect(0.1, 0.1, 0.2, 0.1), Text: "page one", Page: 1},
	}
	regions := []ImageRegion{{Page: 0, Width: 0.1, Height: 0.1}, {Page: 1, Width: 0.1, Height: 0.1}, {Page: 1, Width: 0.2, Height: 0.2}}

	l, err := r.ReconstructPage(dets, 1, 612, 792, regions)
	require.NoError(t, err)
	require.Len(t, l.Elements, 1)
	assert.Equal(t, "p1", l.Elements[0].Provenance.DetectionID)
	assert.Equal(t, 1, l.Page)
	assert.Equal(t, 2, l.Metadata.ImageRegionCount)
}

func TestReplaceElements(t *testing.T) {
	r := NewReconstructor(testConfig())
	l, err := r.Reconstruct([]Detection{
		{Polygon: rect(0.1, 0.1, 0.2, 0.1), Text: "a"},
		{Polygon: rect(0.1, 0.3, 0.2, 0.1), Text: "b"},
	}, 800, 600, nil)
	require.NoError(t, err)

	edited := []Element{l.Elements[1], l.Elements[0]}
	edited[0].ZIndex = 5
	edited[0].Type = TypeRectangle

	later := fixedNow.Add(time.Hour)
	require.NoError(t, l.ReplaceElements(edited, later))
	assert.Equal(t, 2, l.Version)
	assert.Equal(t, 0, l.Elements[0].ZIndex)
	assert.Equal(t, 5, l.Elements[1].ZIndex)
	require.NotNil(t, l.Metadata.UpdatedAt)
	assert.Equal(t, later, *l.Metadata.UpdatedAt)
	assert.Equal(t, 1, l.Metadata.ElementCounts[TypeRectangle])
	assert.Equal(t, 2, l.Metadata.ElementCount)

	dup := []Element{l.Elements[0], l.Elements[0]}
	err = l.ReplaceElements(dup, later)
	assert.True(t, errors.Is(err, ErrInvalidLayout))
	assert.Equal(t, 2, l.Version, "failed replace must not touch the layout")
	assert.Len(t, l.Elements, 2)
}

func TestLayoutValidate(t *testing.T) {
	l := &Layout{CanvasWidth: 10, CanvasHeight: 10, Elements: []Element{
		{ID: "a", Type: TypeText, ZIndex: 2},
		{ID: "b", Type: TypeText, ZIndex: 1},
	}}
	assert.True(t, errors.Is(l.Validate(), ErrInvalidLayout))

	l.Elements[1].ZIndex = 3
	assert.NoError(t, l.Validate())

	l.Elements[1].Type = "triangle"
	assert.True(t, errors.Is(l.Validate(), ErrInvalidLayout))

	l.CanvasHeight = 0
	assert.True(t, errors.Is(l.Validate(), ErrInvalidCanvas))
}
