package policy

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"relearn/network"
)

const tolerance float64 = 1e-10

// newZeroNet returns a network with all weights zero, which predicts
// identical outputs for every action.
func newZeroNet(t *testing.T, features, actions int) network.NeuralNet {
	t.Helper()
	g := G.NewGraph()
	net, err := network.NewMLP(features, 1, actions, g, []int{4},
		[]bool{true}, G.Zeroes(), []*network.Activation{network.ReLU()})
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}
	return net
}

func TestSoftmaxMasksIllegalActions(t *testing.T) {
	pol, err := NewSoftmax(newZeroNet(t, 3, 4))
	if err != nil {
		t.Fatalf("could not create policy: %v", err)
	}

	obs := mat.NewVecDense(3, []float64{1, 0, 0})
	dist, err := pol.Distribution(obs, []int{0, 2})
	if err != nil {
		t.Fatalf("could not compute distribution: %v", err)
	}
	if dist.Len() != 4 {
		t.Fatalf("got distribution length %v, want 4", dist.Len())
	}

	// Equal logits split the mass evenly over the legal actions
	want := []float64{0.5, 0, 0.5, 0}
	sum := 0.0
	for i := 0; i < dist.Len(); i++ {
		if math.Abs(dist.AtVec(i)-want[i]) > tolerance {
			t.Errorf("action %v: got probability %v, want %v", i,
				dist.AtVec(i), want[i])
		}
		sum += dist.AtVec(i)
	}
	if math.Abs(sum-1.0) > tolerance {
		t.Errorf("distribution sums to %v", sum)
	}
}

func TestSoftmaxNoLegalActions(t *testing.T) {
	pol, err := NewSoftmax(newZeroNet(t, 3, 4))
	if err != nil {
		t.Fatalf("could not create policy: %v", err)
	}

	obs := mat.NewVecDense(3, []float64{1, 0, 0})
	if _, err := pol.Distribution(obs, nil); !IsInvalidDistribution(err) {
		t.Errorf("got %v, want an invalid distribution error", err)
	}
}

func TestEGreedyQUniformOnTies(t *testing.T) {
	pol, err := NewEGreedyQ(newZeroNet(t, 3, 4), 0.4)
	if err != nil {
		t.Fatalf("could not create policy: %v", err)
	}

	obs := mat.NewVecDense(3, []float64{0, 1, 0})
	legal := []int{0, 1, 3}
	dist, err := pol.Distribution(obs, legal)
	if err != nil {
		t.Fatalf("could not compute distribution: %v", err)
	}

	// Equal action values tie every legal action for the greedy
	// choice, so each gets ε/3 + (1-ε)/3 = 1/3
	for _, a := range legal {
		if math.Abs(dist.AtVec(a)-1.0/3.0) > tolerance {
			t.Errorf("action %v: got probability %v, want 1/3", a,
				dist.AtVec(a))
		}
	}
	if dist.AtVec(2) != 0 {
		t.Errorf("illegal action has probability %v", dist.AtVec(2))
	}
}

func TestEGreedyQSetEpsilon(t *testing.T) {
	pol, err := NewEGreedyQ(newZeroNet(t, 2, 2), 1.0)
	if err != nil {
		t.Fatalf("could not create policy: %v", err)
	}

	if err := pol.SetEpsilon(0.25); err != nil {
		t.Fatalf("could not set epsilon: %v", err)
	}
	if pol.Epsilon() != 0.25 {
		t.Errorf("got epsilon %v, want 0.25", pol.Epsilon())
	}
	if err := pol.SetEpsilon(1.5); err == nil {
		t.Error("epsilon outside [0, 1] accepted")
	}
}
