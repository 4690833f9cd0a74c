package policy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"relearn/network"
	"relearn/solver"
	"relearn/utils/floatutils"
)

// Softmax is a policy that softmaxes the outputs of a neural network
// to produce action probabilities. Illegal actions are masked out
// before normalization, so they always receive probability 0.
type Softmax struct {
	net network.NeuralNet
	vm  G.VM
}

// NewSoftmax returns a new Softmax policy over the outputs of net,
// which must take single observations (batch size 1).
func NewSoftmax(net network.NeuralNet) (*Softmax, error) {
	if net.BatchSize() != 1 {
		return nil, fmt.Errorf("newsoftmax: network must have batch size 1"+
			"\n\thave(%v)", net.BatchSize())
	}
	return &Softmax{
		net: net,
		vm:  G.NewTapeMachine(net.Graph()),
	}, nil
}

// NumActions returns the number of actions the policy chooses between
func (s *Softmax) NumActions() int {
	return s.net.Outputs()
}

// Network returns the neural network whose outputs the policy
// softmaxes. Learners push updated weights into this network.
func (s *Softmax) Network() network.NeuralNet {
	return s.net
}

// Distribution returns the probability of selecting each action in
// the action space given obs, with all probability mass on the legal
// actions.
func (s *Softmax) Distribution(obs mat.Vector, legal []int) (mat.Vector,
	error) {
	if len(legal) == 0 {
		return nil, &InvalidDistributionError{
			Op:  "distribution",
			Err: ErrNoLegalActions,
		}
	}

	numActions := s.net.Outputs()
	for _, a := range legal {
		if a < 0 || a >= numActions {
			return nil, fmt.Errorf("distribution: legal action %v outside "+
				"action space of size %v", a, numActions)
		}
	}

	input := make([]float64, obs.Len())
	for i := range input {
		input[i] = obs.AtVec(i)
	}
	if err := s.net.SetInput(input); err != nil {
		return nil, fmt.Errorf("distribution: %v", err)
	}
	if err := s.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("distribution: could not run forward pass: %v",
			err)
	}
	s.vm.Reset()

	logits, err := solver.Float64s(s.net.Output())
	if err != nil {
		return nil, fmt.Errorf("distribution: %v", err)
	}

	// Normalize over the legal actions only
	legalLogits := make([]float64, len(legal))
	for i, a := range legal {
		legalLogits[i] = logits[a]
	}
	logZ := floatutils.LogSumExp(legalLogits...)

	probs := make([]float64, numActions)
	for _, a := range legal {
		probs[a] = math.Exp(logits[a] - logZ)
	}
	return mat.NewVecDense(numActions, probs), nil
}
