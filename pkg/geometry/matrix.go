package geometry

import "math"

// Matrix is a 2D affine transformation in PDF order [a b c d e f].
type Matrix [6]float64

// Identity returns an identity matrix
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Transform applies the matrix to a point
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Multiply returns m x other, i.e. m applied first, then other.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// UnitSquareBounds transforms the unit square and returns the axis-aligned
// bounds of the result as (minX, minY, maxX, maxY). Raster images in PDF
// content streams are painted into the unit square of the current matrix.
func (m Matrix) UnitSquareBounds() (minX, minY, maxX, maxY float64) {
	corners := [4]Point{
		m.Transform(Point{0, 0}),
		m.Transform(Point{1, 0}),
		m.Transform(Point{1, 1}),
		m.Transform(Point{0, 1}),
	}

	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		minX = math.Min(minX, c.X)
		minY = math.Min(minY, c.Y)
		maxX = math.Max(maxX, c.X)
		maxY = math.Max(maxY, c.Y)
	}
	return minX, minY, maxX, maxY
}
