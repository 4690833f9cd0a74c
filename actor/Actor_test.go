package actor

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"relearn/policy"
	"relearn/timestep"
)

// stubPolicy returns a fixed distribution regardless of the
// observation.
type stubPolicy struct {
	dist []float64
}

func (s *stubPolicy) Distribution(mat.Vector, []int) (mat.Vector, error) {
	return mat.NewVecDense(len(s.dist), s.dist), nil
}

func (s *stubPolicy) NumActions() int {
	return len(s.dist)
}

func TestSelectActionSamplesFromPolicy(t *testing.T) {
	pol := &stubPolicy{dist: []float64{0, 0.5, 0, 0.5}}
	a := New(pol, nil, 14)

	obs := mat.NewVecDense(1, []float64{0})
	for i := 0; i < 100; i++ {
		action, err := a.SelectAction(obs, []int{1, 3})
		if err != nil {
			t.Fatalf("could not select action: %v", err)
		}
		if action != 1 && action != 3 {
			t.Fatalf("selected action %v with probability 0", action)
		}
	}
}

func TestSelectActionRejectsNegativeProbability(t *testing.T) {
	pol := &stubPolicy{dist: []float64{1.5, -0.5}}
	a := New(pol, nil, 14)

	obs := mat.NewVecDense(1, []float64{0})
	_, err := a.SelectAction(obs, []int{0, 1})
	if !policy.IsInvalidDistribution(err) {
		t.Errorf("got %v, want an invalid distribution error", err)
	}
}

func TestSelectActionRejectsUnnormalizedDistribution(t *testing.T) {
	pol := &stubPolicy{dist: []float64{0.5, 0.4}}
	a := New(pol, nil, 14)

	obs := mat.NewVecDense(1, []float64{0})
	_, err := a.SelectAction(obs, []int{0, 1})
	if !policy.IsInvalidDistribution(err) {
		t.Errorf("got %v, want an invalid distribution error", err)
	}
}

func TestEpisodeStatistics(t *testing.T) {
	pol := &stubPolicy{dist: []float64{1}}
	a := New(pol, nil, 14)

	obs := mat.NewVecDense(1, []float64{0})
	if err := a.ObserveFirst(timestep.New(obs, 0, false, 0)); err != nil {
		t.Fatalf("could not observe first timestep: %v", err)
	}

	rewards := []float64{1, -2, 3.5}
	for i, reward := range rewards {
		step := timestep.New(obs, reward, i == len(rewards)-1, i+1)
		if err := a.Observe(0, step); err != nil {
			t.Fatalf("could not observe timestep %v: %v", i, err)
		}
	}

	if a.EpisodeReturn() != 2.5 {
		t.Errorf("got return %v, want 2.5", a.EpisodeReturn())
	}
	if a.EpisodeSteps() != 3 {
		t.Errorf("got %v steps, want 3", a.EpisodeSteps())
	}

	// A new episode resets the statistics
	if err := a.ObserveFirst(timestep.New(obs, 0, false, 0)); err != nil {
		t.Fatalf("could not observe first timestep: %v", err)
	}
	if a.EpisodeReturn() != 0 || a.EpisodeSteps() != 0 {
		t.Errorf("statistics not reset: return %v, steps %v",
			a.EpisodeReturn(), a.EpisodeSteps())
	}
}
