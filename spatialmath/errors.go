package spatialmath

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrSingular is wrapped by a NumericError when a matrix could not be inverted or a linear system could not be solved.
var ErrSingular = errors.New("singular matrix")

// NumericError is an error originating from a numeric backend rather than from bad tree structure or parameters.
type NumericError struct {
	Op  string
	Err error
}

// NewNumericError returns a NumericError for the given operation.
func NewNumericError(op string, err error) *NumericError {
	return &NumericError{Op: op, Err: err}
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("numeric failure in %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *NumericError) Unwrap() error {
	return e.Err
}
