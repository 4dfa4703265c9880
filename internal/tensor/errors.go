package tensor

import (
	"errors"
	"fmt"
)

// ErrShape is the sentinel matched by every *ShapeError.
var ErrShape = errors.New("tensor: incompatible shapes")

// ShapeError reports batch or trailing dimensions that cannot be combined.
// It is always fatal to the current call.
type ShapeError struct {
	Op     string // Operation that rejected the shapes (e.g. "resolve", "broadcast")
	Left   Shape  // First operand shape
	Right  Shape  // Second operand shape (nil for single-shape checks)
	Axis   int    // Offending axis in the result (-1 when not axis specific)
	Reason string // Additional details
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Right != nil {
		return fmt.Sprintf("%s: shapes %v and %v not compatible at axis %d: %s",
			e.Op, e.Left, e.Right, e.Axis, e.Reason)
	}
	if e.Axis >= 0 {
		return fmt.Sprintf("%s: shape %v invalid at axis %d: %s", e.Op, e.Left, e.Axis, e.Reason)
	}
	return fmt.Sprintf("%s: shape %v: %s", e.Op, e.Left, e.Reason)
}

// Is makes errors.Is(err, ErrShape) succeed for any *ShapeError.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}
