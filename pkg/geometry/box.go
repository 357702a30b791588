package geometry

import "math"

// Box is an axis-aligned rectangle with a top-left origin.
// It is used both in normalized space and in canvas space.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewBox creates a box from its top-left corner and size
func NewBox(x, y, width, height float64) Box {
	return Box{X: x, Y: y, Width: width, Height: height}
}

// Left returns the left edge X coordinate
func (b Box) Left() float64 { return b.X }

// Right returns the right edge X coordinate
func (b Box) Right() float64 { return b.X + b.Width }

// Top returns the top edge Y coordinate
func (b Box) Top() float64 { return b.Y }

// Bottom returns the bottom edge Y coordinate
func (b Box) Bottom() float64 { return b.Y + b.Height }

// Center returns the center point
func (b Box) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// MidY returns the vertical midpoint
func (b Box) MidY() float64 { return b.Y + b.Height/2 }

// AspectRatio returns width/height, or 0 when the height is zero.
func (b Box) AspectRatio() float64 {
	if b.Height == 0 {
		return 0
	}
	return b.Width / b.Height
}

// ShortSide returns the shorter of width and height
func (b Box) ShortSide() float64 {
	return math.Min(b.Width, b.Height)
}

// Area returns the area of the box
func (b Box) Area() float64 { return b.Width * b.Height }

// IsValid reports whether the box has positive dimensions
func (b Box) IsValid() bool { return b.Width > 0 && b.Height > 0 }

// Scale multiplies the box coordinates, e.g. to go from normalized to canvas space.
func (b Box) Scale(sx, sy float64) Box {
	return Box{X: b.X * sx, Y: b.Y * sy, Width: b.Width * sx, Height: b.Height * sy}
}

// Expand grows the box by margin on all sides
func (b Box) Expand(margin float64) Box {
	return Box{
		X:      b.X - margin,
		Y:      b.Y - margin,
		Width:  b.Width + 2*margin,
		Height: b.Height + 2*margin,
	}
}

// ContainsPoint checks if a point lies inside the box (edges included)
func (b Box) ContainsPoint(p Point) bool {
	return p.X >= b.Left() && p.X <= b.Right() &&
		p.Y >= b.Top() && p.Y <= b.Bottom()
}

// Contains checks if other lies completely inside b
func (b Box) Contains(other Box) bool {
	return other.Left() >= b.Left() && other.Right() <= b.Right() &&
		other.Top() >= b.Top() && other.Bottom() <= b.Bottom()
}

// Intersects checks if two boxes overlap or touch
func (b Box) Intersects(other Box) bool {
	return !(b.Right() < other.Left() ||
		b.Left() > other.Right() ||
		b.Bottom() < other.Top() ||
		b.Top() > other.Bottom())
}

// Intersection returns the overlapping part of two boxes, or the zero box.
func (b Box) Intersection(other Box) Box {
	if !b.Intersects(other) {
		return Box{}
	}

	x := math.Max(b.Left(), other.Left())
	y := math.Max(b.Top(), other.Top())
	right := math.Min(b.Right(), other.Right())
	bottom := math.Min(b.Bottom(), other.Bottom())

	return Box{X: x, Y: y, Width: right - x, Height: bottom - y}
}

// OverlapRatio returns the intersection area divided by the smaller box area.
// Returns a value between 0 and 1.
func (b Box) OverlapRatio(other Box) float64 {
	if !b.Intersects(other) {
		return 0
	}

	minArea := math.Min(b.Area(), other.Area())
	if minArea == 0 {
		return 0
	}

	return b.Intersection(other).Area() / minArea
}
