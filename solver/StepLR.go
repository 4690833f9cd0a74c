package solver

// StepLR decays a solver's learning rate by a multiplicative factor
// gamma once every decaySteps calls to Step().
type StepLR struct {
	solver     *Adam
	decaySteps int
	gamma      float64
	steps      int
}

// NewStepLR returns a schedule that multiplies the learning rate of
// solver by gamma every decaySteps steps. A decaySteps value < 1 or a
// gamma of 1 yields a schedule that never changes the learning rate.
func NewStepLR(solver *Adam, decaySteps int, gamma float64) *StepLR {
	return &StepLR{
		solver:     solver,
		decaySteps: decaySteps,
		gamma:      gamma,
	}
}

// Step advances the schedule by one optimization step, decaying the
// learning rate when the step count reaches a multiple of decaySteps.
func (s *StepLR) Step() {
	s.steps++
	if s.decaySteps < 1 || s.gamma == 1.0 {
		return
	}
	if s.steps%s.decaySteps == 0 {
		s.solver.SetLearnRate(s.solver.LearnRate() * s.gamma)
	}
}
