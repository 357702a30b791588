package layout

import "errors"

var (
	// ErrUnsupportedElementType is returned when a category hint maps to no known element type.
	// Classification falls through to geometric inference when this happens.
	ErrUnsupportedElementType = errors.New("unsupported element type")

	// ErrInvalidCanvas is returned for non-positive canvas dimensions
	ErrInvalidCanvas = errors.New("invalid canvas dimensions")

	// ErrInvalidLayout is returned when a layout breaks its ordering invariants
	ErrInvalidLayout = errors.New("invalid layout")
)
