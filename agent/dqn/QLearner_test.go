package dqn

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"relearn/buffer"
	"relearn/network"
	"relearn/solver"
	"relearn/timestep"
	"relearn/utils/floatutils"
)

func newValueNet(t *testing.T, features, actions int) network.NeuralNet {
	t.Helper()
	g := G.NewGraph()
	net, err := network.NewMLP(features, 1, actions, g, []int{8},
		[]bool{true}, G.GlorotU(1.0),
		[]*network.Activation{network.ReLU()})
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}
	return net
}

func fillReplay(t *testing.T, replay *buffer.Replay, obsDim, n int) {
	t.Helper()
	obs := func(i int) mat.Vector {
		v := mat.NewVecDense(obsDim, nil)
		v.SetVec(i%obsDim, 1)
		return v
	}
	if err := replay.AddFirst(timestep.New(obs(0), 0, false, 0)); err != nil {
		t.Fatalf("could not add first timestep: %v", err)
	}
	for i := 1; i <= n; i++ {
		step := timestep.New(obs(i), float64(i%3), false, i)
		if err := replay.Add(i%2, step, false); err != nil {
			t.Fatalf("could not add timestep %v: %v", i, err)
		}
	}
}

func TestQLearnerStepUpdatesWeights(t *testing.T) {
	net := newValueNet(t, 4, 2)
	learner, err := NewQLearner(net, 8, 0.99, 0.01)
	if err != nil {
		t.Fatalf("could not create learner: %v", err)
	}

	replay, err := buffer.NewReplay(4, 100, 8, 14)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}
	fillReplay(t, replay, 4, 20)

	before := snapshot(t, learner)
	if err := learner.Step(replay); err != nil {
		t.Fatalf("could not step: %v", err)
	}

	if !floatutils.AllFinite(learner.Loss()) {
		t.Fatalf("non-finite loss %v", learner.Loss())
	}

	after := snapshot(t, learner)
	changed := false
	for i := range before {
		if before[i] != after[i] {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("weights did not change after a learner step")
	}

	// A second step on the same graph must also succeed
	if err := learner.Step(replay); err != nil {
		t.Fatalf("could not step twice: %v", err)
	}
}

func TestQLearnerStepUnderflow(t *testing.T) {
	net := newValueNet(t, 2, 2)
	learner, err := NewQLearner(net, 8, 0.99, 0.01)
	if err != nil {
		t.Fatalf("could not create learner: %v", err)
	}

	replay, err := buffer.NewReplay(2, 100, 8, 14)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}
	fillReplay(t, replay, 2, 3)

	if err := learner.Step(replay); err == nil {
		t.Error("expected an error stepping on a nearly empty buffer")
	}
}

func TestQLearnerMeanQIsFinite(t *testing.T) {
	net := newValueNet(t, 4, 2)
	learner, err := NewQLearner(net, 8, 0.99, 0.01)
	if err != nil {
		t.Fatalf("could not create learner: %v", err)
	}

	replay, err := buffer.NewReplay(4, 100, 8, 14)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}
	fillReplay(t, replay, 4, 20)

	meanQ, err := learner.MeanQ(replay)
	if err != nil {
		t.Fatalf("could not compute mean action value: %v", err)
	}
	if !floatutils.AllFinite(meanQ) {
		t.Errorf("non-finite mean action value %v", meanQ)
	}
}

// snapshot copies the current values of every learnable weight of the
// learner's network.
func snapshot(t *testing.T, q *QLearner) []float64 {
	t.Helper()
	var weights []float64
	for _, node := range q.trainNet.Learnables() {
		data, err := solver.Float64s(node.Value())
		if err != nil {
			t.Fatalf("could not read weights: %v", err)
		}
		weights = append(weights, append([]float64(nil), data...)...)
	}
	return weights
}
