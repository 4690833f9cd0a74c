package buffer

// Batch is a dense batch of Episodes episodes, each right-padded to
// Steps timesteps. Observations is stored row-major with shape
// (Episodes*Steps, ObsDim); Actions, Rewards, and Masks have shape
// (Episodes, Steps) flattened row-major. Masks[i*Steps+t] is 1 if
// episode i was still running at timestep t and 0 in the padding.
type Batch struct {
	Observations []float64
	Actions      []float64
	Rewards      []float64
	Masks        []float64

	Episodes int
	Steps    int
	ObsDim   int
}

// Validate checks the internal consistency of the batch, returning a
// BatchShapeError describing the first problem found.
func (b *Batch) Validate() error {
	if b.Episodes < 1 || b.Steps < 1 || b.ObsDim < 1 {
		return &BatchShapeError{Op: "validate", Err: errEmptyBatch}
	}

	n := b.Episodes * b.Steps
	if len(b.Observations) != n*b.ObsDim || len(b.Actions) != n ||
		len(b.Rewards) != n || len(b.Masks) != n {
		return &BatchShapeError{Op: "validate", Err: errRaggedBatch}
	}

	active := 0
	for i := 0; i < b.Episodes; i++ {
		prev := 1.0
		for t := 0; t < b.Steps; t++ {
			m := b.Masks[i*b.Steps+t]
			if m != 0 && m != 1 {
				return &BatchShapeError{Op: "validate", Err: errMaskValues}
			}
			if m > prev {
				return &BatchShapeError{Op: "validate",
					Err: errMaskNotMonotone}
			}
			prev = m
			if m == 1 {
				active++
			}
		}
	}
	if active == 0 {
		return &BatchShapeError{Op: "validate", Err: errAllMasked}
	}
	return nil
}

// ActiveCount returns the number of unmasked timesteps in the batch
func (b *Batch) ActiveCount() int {
	count := 0
	for _, m := range b.Masks {
		if m == 1 {
			count++
		}
	}
	return count
}

// EpisodeLengths returns the number of unmasked timesteps in each
// episode of the batch.
func (b *Batch) EpisodeLengths() []int {
	lengths := make([]int, b.Episodes)
	for i := 0; i < b.Episodes; i++ {
		for t := 0; t < b.Steps; t++ {
			if b.Masks[i*b.Steps+t] == 1 {
				lengths[i]++
			}
		}
	}
	return lengths
}
