package buffer

import "errors"

// BatchShapeError reports a malformed training batch: inconsistent
// tensor shapes, an empty batch, or an invalid mask.
type BatchShapeError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *BatchShapeError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

var errEmptyBatch = errors.New("batch contains no episodes or no steps")

var errRaggedBatch = errors.New("batch tensor shapes are inconsistent")

var errMaskValues = errors.New("mask contains values other than 0 and 1")

var errMaskNotMonotone = errors.New("mask is not monotone non-increasing " +
	"along the time axis")

var errAllMasked = errors.New("mask has no active timesteps")

// IsBatchShape returns whether an error reports a malformed batch.
func IsBatchShape(err error) bool {
	var batchErr *BatchShapeError
	return errors.As(err, &batchErr)
}

// UnderflowError reports a draw or sample requested before the buffer
// holds enough data to serve it.
type UnderflowError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *UnderflowError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

var errNoEpisodes = errors.New("no complete episodes in buffer")

var errInsufficientSamples = errors.New("fewer transitions than batch size")

// IsUnderflow returns whether an error reports that a buffer held too
// little data to be drawn from.
func IsUnderflow(err error) bool {
	var underflow *UnderflowError
	return errors.As(err, &underflow)
}
