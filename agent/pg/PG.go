// Package pg implements a Monte Carlo policy gradient agent for
// discrete action spaces
package pg

import (
	"fmt"
	"io"

	G "gorgonia.org/gorgonia"

	"relearn/actor"
	"relearn/agent"
	"relearn/buffer"
	"relearn/environment"
	"relearn/network"
	"relearn/observer"
	"relearn/policy"
	"relearn/timestep"
)

// Config holds the hyperparameters of a policy gradient agent
type Config struct {
	// Discount factor on future rewards
	Discount float64

	// Number of complete episodes per policy update
	BatchSize int

	// Adam learning rate, decayed by LRDecay every DecaySteps
	// updates. DecaySteps <= 0 or LRDecay == 1 disables the decay.
	LearningRate float64
	LRDecay      float64
	DecaySteps   int

	// L2 weight decay strength
	Reg float64

	// Entropy regularization strength
	EReg float64

	// Maximum global gradient norm. A value <= 0 disables clipping.
	ClipGrad float64

	// Hidden layer sizes of the policy network
	HiddenSizes []int
}

// Validate checks that the configuration describes a valid agent
func (c Config) Validate() error {
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1]\n\thave(%v)",
			c.Discount)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be positive\n\thave(%v)",
			c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive\n\thave(%v)",
			c.LearningRate)
	}
	if c.LRDecay <= 0 || c.LRDecay > 1 {
		return fmt.Errorf("learning rate decay must be in (0, 1]"+
			"\n\thave(%v)", c.LRDecay)
	}
	if c.Reg < 0 {
		return fmt.Errorf("weight decay must be non-negative\n\thave(%v)",
			c.Reg)
	}
	if c.EReg < 0 {
		return fmt.Errorf("entropy regularization must be non-negative"+
			"\n\thave(%v)", c.EReg)
	}
	for _, size := range c.HiddenSizes {
		if size < 1 {
			return fmt.Errorf("hidden layer sizes must be positive"+
				"\n\thave(%v)", c.HiddenSizes)
		}
	}
	return nil
}

// PG is a Monte Carlo policy gradient agent. It acts with a softmax
// policy over the outputs of a neural network and updates the network
// once per BatchSize complete episodes.
type PG struct {
	*agent.Agent
	obs observer.Observer
}

// New returns a new policy gradient agent acting in env. Training
// statistics go to obs (nil for no tracking) and per-update
// diagnostics to verbose (nil for silence).
func New(env environment.Environment, c Config, seed uint64,
	obs observer.Observer, verbose io.Writer) (*PG, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if obs == nil {
		obs = observer.NewNull()
	}

	g := G.NewGraph()
	biases := make([]bool, len(c.HiddenSizes))
	activations := make([]*network.Activation, len(c.HiddenSizes))
	for i := range c.HiddenSizes {
		biases[i] = true
		activations[i] = network.ReLU()
	}
	net, err := network.NewMLP(env.Shape(), 1, env.NumActions(), g,
		c.HiddenSizes, biases, G.GlorotU(1.0), activations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy network: %v",
			err)
	}

	pol, err := policy.NewSoftmax(net)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	buf, err := buffer.NewEpisodeBuffer(env.Shape())
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	learner, err := NewLearner(net, c, verbose)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	act := actor.New(pol, buf, seed)
	base, err := agent.New(act, learner, buf, c.BatchSize, 0)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	return &PG{Agent: base, obs: obs}, nil
}

// Observe observes the action taken at the previous timestep and the
// timestep the environment returned for it, reporting the episode's
// return and length to the observer when the episode ends.
func (p *PG) Observe(action int, t timestep.TimeStep) error {
	if err := p.Agent.Observe(action, t); err != nil {
		return err
	}
	if t.Done {
		p.obs.AddReturn(p.EpisodeReturn())
		p.obs.AddEpisodeLength(p.EpisodeSteps())
	}
	return nil
}
