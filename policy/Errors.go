package policy

import "errors"

// InvalidDistributionError reports a policy that produced something
// other than a probability distribution: a negative probability, a
// distribution that does not sum to 1, or mass on an illegal action.
type InvalidDistributionError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *InvalidDistributionError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// ErrNegativeProbability is returned when an action probability is
// negative.
var ErrNegativeProbability = errors.New("action probability is negative")

// ErrNotNormalized is returned when the action probabilities do not
// sum to 1.
var ErrNotNormalized = errors.New("action probabilities do not sum to 1")

// ErrNoLegalActions is returned when a distribution is requested over
// an empty set of legal actions.
var ErrNoLegalActions = errors.New("no legal actions")

// IsInvalidDistribution returns whether an error reports an invalid
// action distribution.
func IsInvalidDistribution(err error) bool {
	var invalid *InvalidDistributionError
	return errors.As(err, &invalid)
}
