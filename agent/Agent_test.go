package agent

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"relearn/buffer"
	"relearn/timestep"
)

// stubActor records experience in a buffer like the real actor does
type stubActor struct {
	client buffer.Buffer
}

func (s *stubActor) SelectAction(mat.Vector, []int) (int, error) {
	return 0, nil
}

func (s *stubActor) ObserveFirst(t timestep.TimeStep) error {
	return s.client.AddFirst(t)
}

func (s *stubActor) Observe(action int, t timestep.TimeStep) error {
	return s.client.Add(action, t, t.Done)
}

func (s *stubActor) EpisodeReturn() float64 { return 0 }
func (s *stubActor) EpisodeSteps() int      { return 0 }

// stubLearner counts its learner steps
type stubLearner struct {
	steps int
}

func (s *stubLearner) Step(buffer.Buffer) error {
	s.steps++
	return nil
}

// stubBuffer reports a fixed length
type stubBuffer struct {
	length int
}

func (s *stubBuffer) AddFirst(timestep.TimeStep) error { return nil }

func (s *stubBuffer) Add(int, timestep.TimeStep, bool) error {
	s.length++
	return nil
}

func (s *stubBuffer) Len() int { return s.length }

func observe(t *testing.T, a *Agent, n int) {
	t.Helper()
	step := timestep.New(mat.NewVecDense(1, nil), 0, false, 1)
	for i := 0; i < n; i++ {
		if err := a.Observe(0, step); err != nil {
			t.Fatalf("could not observe: %v", err)
		}
	}
}

func TestUpdateBeforeWarmupIsNoOp(t *testing.T) {
	learner := &stubLearner{}
	b := &stubBuffer{}
	a, err := New(&stubActor{client: b}, learner, b, 5, 2)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	observe(t, a, 4)
	steps, err := a.Update()
	if err != nil {
		t.Fatalf("could not update: %v", err)
	}
	if steps != 0 || learner.steps != 0 {
		t.Errorf("learner ran %v steps before warmup", learner.steps)
	}
}

func TestUpdateRunsOneStepWhenRateUnset(t *testing.T) {
	learner := &stubLearner{}
	b := &stubBuffer{}
	a, err := New(&stubActor{client: b}, learner, b, 2, 0)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	observe(t, a, 10)
	steps, err := a.Update()
	if err != nil {
		t.Fatalf("could not update: %v", err)
	}
	if steps != 1 || learner.steps != 1 {
		t.Errorf("got %v learner steps, want 1", learner.steps)
	}
}

func TestUpdateRunsProportionalSteps(t *testing.T) {
	learner := &stubLearner{}
	b := &stubBuffer{}
	a, err := New(&stubActor{client: b}, learner, b, 5, 2)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	// 7 observations at 2 per step warrant 3 learner steps
	observe(t, a, 7)
	steps, err := a.Update()
	if err != nil {
		t.Fatalf("could not update: %v", err)
	}
	if steps != 3 || learner.steps != 3 {
		t.Errorf("got %v learner steps, want 3", learner.steps)
	}

	// The observation counter was drained, so no further steps run
	// until new experience arrives
	steps, err = a.Update()
	if err != nil {
		t.Fatalf("could not update: %v", err)
	}
	if steps != 0 {
		t.Errorf("got %v learner steps on drained counter, want 0", steps)
	}

	observe(t, a, 2)
	steps, err = a.Update()
	if err != nil {
		t.Fatalf("could not update: %v", err)
	}
	if steps != 1 {
		t.Errorf("got %v learner steps, want 1", steps)
	}
}
