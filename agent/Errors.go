package agent

import "errors"

// NumericalInstabilityError reports a learner step that produced
// non-finite values: NaN or infinite logits, loss, or gradients.
type NumericalInstabilityError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *NumericalInstabilityError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// IsNumericalInstability returns whether an error reports non-finite
// values during learning.
func IsNumericalInstability(err error) bool {
	var instability *NumericalInstabilityError
	return errors.As(err, &instability)
}
