package linalg

import (
	"errors"
	"fmt"
)

// ErrNumerical is the sentinel matched by every *NumericalError.
var ErrNumerical = errors.New("linalg: numerical failure")

// NumericalError reports a factorization that could not be carried out,
// typically because a matrix that must be positive definite is not.
type NumericalError struct {
	Op     string // Factorization or solve that failed
	Reason string // Additional details
}

// Error implements the error interface.
func (e *NumericalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is makes errors.Is(err, ErrNumerical) succeed for any *NumericalError.
func (e *NumericalError) Is(target error) bool {
	return target == ErrNumerical
}
