package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPageCoordinates(t *testing.T) {
	tests := []struct {
		name   string
		y      float64
		height float64
		want   float64
	}{
		{"top edge", 0, 792, 792},
		{"bottom edge", 1, 792, 0},
		{"middle", 0.5, 600, 300},
		{"tenth", 0.1, 600, 540},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ToPageCoordinates(tt.y, tt.height), 1e-9)
		})
	}
}

func TestPageCoordinatesRoundTrip(t *testing.T) {
	for _, h := range []float64{1, 600, 792, 1123.5} {
		for y := 0.0; y <= 1.0; y += 0.05 {
			page := ToPageCoordinates(y, h)
			assert.InDelta(t, y, 1-page/h, 1e-9)
			assert.InDelta(t, y, FromPageCoordinates(page, h), 1e-9)
		}
	}
}

func TestPolygonToBox(t *testing.T) {
	box, err := PolygonToBox([]Point{{0.1, 0.2}, {0.6, 0.2}, {0.6, 0.3}, {0.1, 0.3}})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, box.X, 1e-9)
	assert.InDelta(t, 0.2, box.Y, 1e-9)
	assert.InDelta(t, 0.5, box.Width, 1e-9)
	assert.InDelta(t, 0.1, box.Height, 1e-9)
}

func TestPolygonToBoxInvalid(t *testing.T) {
	tests := []struct {
		name     string
		vertices []Point
	}{
		{"nil", nil},
		{"three vertices", []Point{{0, 0}, {1, 0}, {1, 1}}},
		{"zero width", []Point{{0.5, 0}, {0.5, 0}, {0.5, 1}, {0.5, 1}}},
		{"negative width", []Point{{0.6, 0}, {0.5, 0}, {0.5, 1}, {0.6, 1}}},
		{"zero height", []Point{{0, 0.5}, {1, 0.5}, {1, 0.5}, {0, 0.5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PolygonToBox(tt.vertices)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidGeometry))
		})
	}
}

func TestPolygonToBoxBottomUpVertices(t *testing.T) {
	// Vertex order flipped vertically still yields a positive height
	box, err := PolygonToBox([]Point{{0, 0.4}, {0.2, 0.4}, {0.2, 0.1}, {0, 0.1}})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, box.Y, 1e-9)
	assert.InDelta(t, 0.3, box.Height, 1e-9)
}

func TestPageRect(t *testing.T) {
	x, y, w, h := PageRect(NewBox(0, 0, 0.5, 0.1), 800, 600)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 540, y, 1e-9)
	assert.InDelta(t, 400, w, 1e-9)
	assert.InDelta(t, 60, h, 1e-9)
}

func TestBoxGeometry(t *testing.T) {
	b := NewBox(10, 20, 30, 32)

	assert.Equal(t, 10.0, b.Left())
	assert.Equal(t, 40.0, b.Right())
	assert.Equal(t, 20.0, b.Top())
	assert.Equal(t, 52.0, b.Bottom())
	assert.Equal(t, 36.0, b.MidY())
	assert.Equal(t, Point{25, 36}, b.Center())
	assert.Equal(t, 30.0, b.ShortSide())
	assert.InDelta(t, 0.9375, b.AspectRatio(), 1e-9)
	assert.Equal(t, 0.0, NewBox(0, 0, 10, 0).AspectRatio())
	assert.Equal(t, NewBox(8, 18, 34, 36), b.Expand(2))

	scaled := NewBox(0.1, 0.2, 0.3, 0.32).Scale(10, 20)
	assert.InDelta(t, 1, scaled.X, 1e-9)
	assert.InDelta(t, 4, scaled.Y, 1e-9)
	assert.InDelta(t, 3, scaled.Width, 1e-9)
	assert.InDelta(t, 6.4, scaled.Height, 1e-9)
}

func TestBoxContainmentAndOverlap(t *testing.T) {
	outer := NewBox(0, 0, 100, 100)

	assert.True(t, outer.Contains(NewBox(10, 10, 20, 20)))
	assert.False(t, outer.Contains(NewBox(90, 90, 20, 20)))
	assert.True(t, outer.ContainsPoint(Point{100, 50}))
	assert.False(t, outer.ContainsPoint(Point{101, 50}))

	assert.True(t, outer.Intersects(NewBox(90, 90, 20, 20)))
	assert.False(t, outer.Intersects(NewBox(101, 0, 5, 5)))
	assert.Equal(t, NewBox(90, 90, 10, 10), outer.Intersection(NewBox(90, 90, 20, 20)))
	assert.Equal(t, Box{}, outer.Intersection(NewBox(200, 200, 1, 1)))

	assert.InDelta(t, 0.25, outer.OverlapRatio(NewBox(90, 90, 20, 20)), 1e-9)
	assert.InDelta(t, 1.0, outer.OverlapRatio(NewBox(10, 10, 5, 5)), 1e-9)
	assert.Equal(t, 0.0, outer.OverlapRatio(NewBox(300, 300, 5, 5)))
}

func TestMatrixUnitSquareBounds(t *testing.T) {
	// scale 200x100, translate to (50, 600): the usual "w 0 0 h x y cm" image placement
	m := Matrix{200, 0, 0, 100, 50, 600}
	minX, minY, maxX, maxY := m.UnitSquareBounds()
	assert.Equal(t, 50.0, minX)
	assert.Equal(t, 600.0, minY)
	assert.Equal(t, 250.0, maxX)
	assert.Equal(t, 700.0, maxY)

	// translation applied after scaling
	combined := Matrix{2, 0, 0, 2, 0, 0}.Multiply(Matrix{1, 0, 0, 1, 10, 20})
	assert.Equal(t, Point{12, 22}, combined.Transform(Point{1, 1}))
	assert.Equal(t, Point{3, 4}, Identity().Transform(Point{3, 4}))
}
