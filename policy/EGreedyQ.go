package policy

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"relearn/network"
	"relearn/solver"
	"relearn/utils/floatutils"
)

// EGreedyQ is an ε-greedy policy over the action values predicted by a
// neural network. With probability ε a legal action is chosen
// uniformly at random; otherwise a maximum-valued legal action is
// chosen, with ties sharing the greedy probability mass equally.
type EGreedyQ struct {
	net     network.NeuralNet
	vm      G.VM
	epsilon float64
}

// NewEGreedyQ returns a new EGreedyQ policy with exploration rate
// epsilon over the action values predicted by net, which must take
// single observations (batch size 1).
func NewEGreedyQ(net network.NeuralNet, epsilon float64) (*EGreedyQ, error) {
	if net.BatchSize() != 1 {
		return nil, fmt.Errorf("newegreedyq: network must have batch size 1"+
			"\n\thave(%v)", net.BatchSize())
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("newegreedyq: epsilon must be in [0, 1]"+
			"\n\thave(%v)", epsilon)
	}
	return &EGreedyQ{
		net:     net,
		vm:      G.NewTapeMachine(net.Graph()),
		epsilon: epsilon,
	}, nil
}

// Epsilon returns the current exploration rate
func (e *EGreedyQ) Epsilon() float64 {
	return e.epsilon
}

// SetEpsilon sets the exploration rate used by subsequent calls to
// Distribution.
func (e *EGreedyQ) SetEpsilon(epsilon float64) error {
	if epsilon < 0 || epsilon > 1 {
		return fmt.Errorf("setepsilon: epsilon must be in [0, 1]\n\thave(%v)",
			epsilon)
	}
	e.epsilon = epsilon
	return nil
}

// NumActions returns the number of actions the policy chooses between
func (e *EGreedyQ) NumActions() int {
	return e.net.Outputs()
}

// Network returns the action value network the policy acts greedily
// with respect to. Learners push updated weights into this network.
func (e *EGreedyQ) Network() network.NeuralNet {
	return e.net
}

// Distribution returns the probability of selecting each action in
// the action space given obs, with all probability mass on the legal
// actions.
func (e *EGreedyQ) Distribution(obs mat.Vector, legal []int) (mat.Vector,
	error) {
	if len(legal) == 0 {
		return nil, &InvalidDistributionError{
			Op:  "distribution",
			Err: ErrNoLegalActions,
		}
	}

	numActions := e.net.Outputs()
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
	if err := e.net.SetInput(input); err != nil {
		return nil, fmt.Errorf("distribution: %v", err)
	}
	if err := e.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("distribution: could not run forward pass: %v",
			err)
	}
	e.vm.Reset()

	q, err := solver.Float64s(e.net.Output())
	if err != nil {
		return nil, fmt.Errorf("distribution: %v", err)
	}

	legalQ := make([]float64, len(legal))
	for i, a := range legal {
		legalQ[i] = q[a]
	}
	greedy := floatutils.ArgMax(legalQ...)

	probs := make([]float64, numActions)
	explore := e.epsilon / float64(len(legal))
	for _, a := range legal {
		probs[a] = explore
	}
	exploit := (1.0 - e.epsilon) / float64(len(greedy))
	for _, i := range greedy {
		probs[legal[i]] += exploit
	}
	return mat.NewVecDense(numActions, probs), nil
}
