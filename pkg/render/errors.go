package render

import "fmt"

// RenderTargetError reports that a page could not be drawn or finalized.
// It is fatal for that page only. Element is the index of the element being
// drawn, or -1 when the failure is not tied to one element.
type RenderTargetError struct {
	Page    int
	Element int
	Err     error
}

func (e *RenderTargetError) Error() string {
	if e.Element >= 0 {
		return fmt.Sprintf("render page %d, element %d: %v", e.Page, e.Element, e.Err)
	}
	return fmt.Sprintf("render page %d: %v", e.Page, e.Err)
}

func (e *RenderTargetError) Unwrap() error {
	return e.Err
}
