package plant

import (
	"errors"
	"fmt"
)

// ErrInvalidModel indicates a malformed transfer function: empty
// coefficient sequences, an identically zero denominator, non-finite
// coefficients, an improper ratio, or evaluation at a pole.
var ErrInvalidModel = errors.New("plant: invalid model")

// ModelError wraps ErrInvalidModel with the offending parameter.
type ModelError struct {
	Param  string
	Reason string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("plant: invalid model: %s: %s", e.Param, e.Reason)
}

func (e *ModelError) Unwrap() error {
	return ErrInvalidModel
}
