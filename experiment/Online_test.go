package experiment

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"

	"relearn/environment/gridworld"
	"relearn/timestep"
)

// countingAgent walks right and down towards the goal and counts the
// callbacks it receives.
type countingAgent struct {
	firsts   int
	observes int
	updates  int

	updateErr error
}

func (c *countingAgent) SelectAction(obs mat.Vector, legal []int) (int,
	error) {
	for _, a := range legal {
		if a == gridworld.Right {
			return a, nil
		}
	}
	return gridworld.Down, nil
}

func (c *countingAgent) ObserveFirst(timestep.TimeStep) error {
	c.firsts++
	return nil
}

func (c *countingAgent) Observe(int, timestep.TimeStep) error {
	c.observes++
	return nil
}

func (c *countingAgent) Update() (int, error) {
	c.updates++
	return 0, c.updateErr
}

func newTestEnv(t *testing.T) *gridworld.GridWorld {
	t.Helper()
	env, err := gridworld.New(2, 2, nil, [2]int{0, 0}, [2]int{1, 1}, 10,
		-1.0, 1.0)
	if err != nil {
		t.Fatalf("could not create environment: %v", err)
	}
	return env
}

func TestOnlineRunsForMaxSteps(t *testing.T) {
	agent := &countingAgent{}
	online, err := NewOnline(newTestEnv(t), agent, 10, nil)
	if err != nil {
		t.Fatalf("could not create experiment: %v", err)
	}
	if err := online.Run(); err != nil {
		t.Fatalf("could not run experiment: %v", err)
	}

	if online.Steps() != 10 {
		t.Errorf("got %v steps, want 10", online.Steps())
	}
	if agent.observes != 10 {
		t.Errorf("got %v observations, want 10", agent.observes)
	}
	if agent.updates != 10 {
		t.Errorf("got %v updates, want 10", agent.updates)
	}

	// The agent reaches the goal in 2 steps, so 10 steps span 5
	// episodes and each begins with ObserveFirst
	if agent.firsts != 5 {
		t.Errorf("got %v episode starts, want 5", agent.firsts)
	}
}

func TestOnlineStopsOnUpdateError(t *testing.T) {
	agent := &countingAgent{updateErr: errors.New("diverged")}
	online, err := NewOnline(newTestEnv(t), agent, 10, nil)
	if err != nil {
		t.Fatalf("could not create experiment: %v", err)
	}

	if err := online.Run(); err == nil {
		t.Fatal("expected the experiment to stop on a learner error")
	}
	if online.Steps() != 1 {
		t.Errorf("got %v steps after a failing update, want 1",
			online.Steps())
	}
}

func TestOnlineRejectsNonUpdatingAgent(t *testing.T) {
	type observer struct{ Agent }
	if _, err := NewOnline(newTestEnv(t), observer{}, 10, nil); err == nil {
		t.Error("agent without an update method accepted")
	}
}
