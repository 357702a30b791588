// Package geometry provides the coordinate-space conversions and box arithmetic
// shared by layout reconstruction and rendering.
//
// Three coordinate spaces are used across the module:
//
// - Normalized space: [0,1]x[0,1], origin at the top-left corner. OCR detections
// and image regions arrive in this space.
// - Canvas space: normalized space scaled by the canvas width and height. Layout
// elements are stored in this space, origin still top-left.
// - Page space: the renderer's coordinate system, origin at the bottom-left
// corner with y growing upwards.
//
// ToPageCoordinates is the only place where a normalized y value becomes a page y
// value. Everything upstream of the renderer works in normalized or canvas space.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned when a polygon cannot be reduced to a usable box.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Point is a 2D point
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ToPageCoordinates converts a top-origin normalized y coordinate into the
// bottom-origin page space used by the renderer.
func ToPageCoordinates(normalizedY, pageHeight float64) float64 {
	return pageHeight * (1 - normalizedY)
}

// FromPageCoordinates is the inverse of ToPageCoordinates.
func FromPageCoordinates(pageY, pageHeight float64) float64 {
	if pageHeight == 0 {
		return 0
	}
	return 1 - pageY/pageHeight
}

// PolygonToBox reduces a bounding polygon to an axis-aligned box.
//
// Vertices are consumed in the order top-left, top-right, bottom-right,
// bottom-left. The width is taken from the top edge and the height from the
// left edge, matching how OCR engines report their quadrilaterals.
func PolygonToBox(vertices []Point) (Box, error) {
	if len(vertices) < 4 {
		return Box{}, fmt.Errorf("%w: polygon has %d vertices, need at least 4", ErrInvalidGeometry, len(vertices))
	}

	topLeft, topRight, bottomLeft := vertices[0], vertices[1], vertices[3]
	width := topRight.X - topLeft.X
	height := math.Abs(topLeft.Y - bottomLeft.Y)

	if !(width > 0) || !(height > 0) {
		return Box{}, fmt.Errorf("%w: non-positive size %gx%g", ErrInvalidGeometry, width, height)
	}

	return Box{
		X:      topLeft.X,
		Y:      math.Min(topLeft.Y, bottomLeft.Y),
		Width:  width,
		Height: height,
	}, nil
}

// PageRect maps a normalized top-left box onto a page of the given size and
// returns the bottom-left corner and size of the box in page space.
func PageRect(b Box, pageWidth, pageHeight float64) (x, y, width, height float64) {
	x = b.X * pageWidth
	y = ToPageCoordinates(b.Y+b.Height, pageHeight)
	width = b.Width * pageWidth
	height = b.Height * pageHeight
	return x, y, width, height
}
