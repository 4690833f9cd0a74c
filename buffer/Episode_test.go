package buffer

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"relearn/timestep"
)

// addEpisode records an episode of the given rewards in b, acting
// from one-hot observations cycling over the observation dimension.
func addEpisode(t *testing.T, b Buffer, obsDim int, actions []int,
	rewards []float64) {
	t.Helper()

	obs := func(i int) mat.Vector {
		v := mat.NewVecDense(obsDim, nil)
		v.SetVec(i%obsDim, 1)
		return v
	}

	if err := b.AddFirst(timestep.New(obs(0), 0, false, 0)); err != nil {
		t.Fatalf("could not add first timestep: %v", err)
	}
	for i := range rewards {
		last := i == len(rewards)-1
		step := timestep.New(obs(i+1), rewards[i], last, i+1)
		if err := b.Add(actions[i], step, last); err != nil {
			t.Fatalf("could not add timestep %v: %v", i, err)
		}
	}
}

func TestEpisodeBufferDraw(t *testing.T) {
	b, err := NewEpisodeBuffer(3)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	addEpisode(t, b, 3, []int{0, 1}, []float64{1, 2})
	addEpisode(t, b, 3, []int{1, 0, 1}, []float64{3, 4, 5})
	if b.Len() != 2 {
		t.Fatalf("got %v episodes, want 2", b.Len())
	}

	batch, err := b.Draw()
	if err != nil {
		t.Fatalf("could not draw: %v", err)
	}
	if batch.Episodes != 2 || batch.Steps != 3 || batch.ObsDim != 3 {
		t.Fatalf("got batch shape (%v, %v, %v), want (2, 3, 3)",
			batch.Episodes, batch.Steps, batch.ObsDim)
	}

	wantMasks := []float64{1, 1, 0, 1, 1, 1}
	for i, want := range wantMasks {
		if batch.Masks[i] != want {
			t.Errorf("mask %v: got %v, want %v", i, batch.Masks[i], want)
		}
	}
	wantRewards := []float64{1, 2, 0, 3, 4, 5}
	for i, want := range wantRewards {
		if batch.Rewards[i] != want {
			t.Errorf("reward %v: got %v, want %v", i, batch.Rewards[i], want)
		}
	}

	// The first observation of the second episode is the reset
	// observation, one-hot at index 0
	if batch.Observations[1*batch.Steps*batch.ObsDim] != 1 {
		t.Error("second episode does not start from the reset observation")
	}

	// Drawing consumes the episodes
	if b.Len() != 0 {
		t.Errorf("buffer still holds %v episodes after draw", b.Len())
	}
	if _, err := b.Draw(); !IsUnderflow(err) {
		t.Errorf("got %v, want an underflow error", err)
	}
}

func TestEpisodeBufferOpenEpisodeSurvivesDraw(t *testing.T) {
	b, err := NewEpisodeBuffer(2)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	addEpisode(t, b, 2, []int{0}, []float64{1})

	// Start a second episode but do not finish it
	obs := mat.NewVecDense(2, []float64{1, 0})
	if err := b.AddFirst(timestep.New(obs, 0, false, 0)); err != nil {
		t.Fatalf("could not add first timestep: %v", err)
	}
	if err := b.Add(0, timestep.New(obs, 2, false, 1), false); err != nil {
		t.Fatalf("could not add timestep: %v", err)
	}

	if _, err := b.Draw(); err != nil {
		t.Fatalf("could not draw: %v", err)
	}

	// Closing the open episode makes it drawable
	if err := b.Add(1, timestep.New(obs, 3, true, 2), true); err != nil {
		t.Fatalf("could not add timestep: %v", err)
	}
	batch, err := b.Draw()
	if err != nil {
		t.Fatalf("could not draw: %v", err)
	}
	if batch.Episodes != 1 || batch.Steps != 2 {
		t.Errorf("got batch shape (%v, %v), want (1, 2)", batch.Episodes,
			batch.Steps)
	}
}

func TestBatchValidate(t *testing.T) {
	batch := &Batch{
		Observations: make([]float64, 4),
		Actions:      []float64{0, 1},
		Rewards:      []float64{1, 2},
		Masks:        []float64{1, 1},
		Episodes:     1,
		Steps:        2,
		ObsDim:       2,
	}
	if err := batch.Validate(); err != nil {
		t.Errorf("valid batch rejected: %v", err)
	}

	batch.Masks = []float64{0, 1}
	if err := batch.Validate(); !IsBatchShape(err) {
		t.Errorf("non-monotone mask accepted: %v", err)
	}

	batch.Masks = []float64{1, 0.5}
	if err := batch.Validate(); !IsBatchShape(err) {
		t.Errorf("fractional mask accepted: %v", err)
	}

	batch.Masks = []float64{1, 1, 1}
	if err := batch.Validate(); !IsBatchShape(err) {
		t.Errorf("ragged batch accepted: %v", err)
	}
}
