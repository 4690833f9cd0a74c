package gridworld

import "testing"

// newTestWorld returns a 3x3 world with a wall in the center, starting
// at the top left with the goal at the bottom right.
func newTestWorld(t *testing.T) *GridWorld {
	t.Helper()
	g, err := New(3, 3, [][2]int{{1, 1}}, [2]int{0, 0}, [2]int{2, 2}, 10,
		-1.0, 10.0)
	if err != nil {
		t.Fatalf("could not create gridworld: %v", err)
	}
	return g
}

func TestActionsRespectWallsAndBounds(t *testing.T) {
	g := newTestWorld(t)

	// At the top-left corner, Left and Up leave the grid and Down
	// runs into the center wall
	legal := g.Actions()
	if len(legal) != 1 || legal[0] != Right {
		t.Errorf("got legal actions %v, want [%v]", legal, Right)
	}
}

func TestStepIllegalAction(t *testing.T) {
	g := newTestWorld(t)
	if _, err := g.Step(Left); err == nil {
		t.Error("expected an error stepping off the grid")
	}
}

func TestGoalTerminatesEpisode(t *testing.T) {
	g := newTestWorld(t)

	path := []int{Right, Right, Down, Down}
	for i, action := range path {
		step, err := g.Step(action)
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
		if i < len(path)-1 {
			if step.Done {
				t.Fatalf("step %v: episode ended early", i)
			}
			if step.Reward != -1.0 {
				t.Errorf("step %v: got reward %v, want -1", i, step.Reward)
			}
			continue
		}
		if !step.Done {
			t.Error("episode did not end at the goal")
		}
		if step.Reward != 10.0 {
			t.Errorf("got goal reward %v, want 10", step.Reward)
		}
	}
}

func TestStepLimitTerminatesEpisode(t *testing.T) {
	g, err := New(3, 3, nil, [2]int{0, 0}, [2]int{2, 2}, 4, -1.0, 10.0)
	if err != nil {
		t.Fatalf("could not create gridworld: %v", err)
	}

	// Bounce between two cells away from the goal
	actions := []int{Right, Left, Right, Left}
	var done bool
	for i, action := range actions {
		step, err := g.Step(action)
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
		done = step.Done
	}
	if !done {
		t.Error("episode did not end at the step limit")
	}
}

func TestObservationIsOneHot(t *testing.T) {
	g := newTestWorld(t)
	step := g.Reset()

	if step.Observation.Len() != 9 {
		t.Fatalf("got observation length %v, want 9", step.Observation.Len())
	}
	for i := 0; i < step.Observation.Len(); i++ {
		want := 0.0
		if i == 0 {
			want = 1.0
		}
		if step.Observation.AtVec(i) != want {
			t.Errorf("element %v: got %v, want %v", i,
				step.Observation.AtVec(i), want)
		}
	}
}
