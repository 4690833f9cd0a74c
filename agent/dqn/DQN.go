// Package dqn implements a deep Q-learning agent with experience
// replay for discrete action spaces
package dqn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"relearn/actor"
	"relearn/buffer"
	"relearn/environment"
	"relearn/network"
	"relearn/observer"
	"relearn/policy"
	"relearn/timestep"
	"relearn/utils/floatutils"
)

// Config holds the hyperparameters of a deep Q-learning agent
type Config struct {
	// Number of stored transitions before any learning happens
	MinExperiences int

	// Number of new experiences between action value updates
	QUpdateEvery int

	// Minibatch size for sampled updates
	BatchSize int

	// Replay buffer capacity
	BufferSize int

	// Discount factor on future rewards
	Discount float64

	// Adam learning rate
	LearningRate float64

	// Initial exploration rate
	Epsilon float64

	// Hidden layer sizes of the action value network
	HiddenSizes []int
}

// Validate checks that the configuration describes a valid agent
func (c Config) Validate() error {
	if c.MinExperiences < c.BatchSize {
		return fmt.Errorf("min experiences must be at least the batch size"+
			"\n\twant(>= %v)\n\thave(%v)", c.BatchSize, c.MinExperiences)
	}
	if c.QUpdateEvery < 1 {
		return fmt.Errorf("update interval must be positive\n\thave(%v)",
			c.QUpdateEvery)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be positive\n\thave(%v)",
			c.BatchSize)
	}
	if c.BufferSize < c.BatchSize {
		return fmt.Errorf("buffer size must be at least the batch size"+
			"\n\twant(>= %v)\n\thave(%v)", c.BatchSize, c.BufferSize)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1]\n\thave(%v)",
			c.Discount)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive\n\thave(%v)",
			c.LearningRate)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("epsilon must be in [0, 1]\n\thave(%v)", c.Epsilon)
	}
	for _, size := range c.HiddenSizes {
		if size < 1 {
			return fmt.Errorf("hidden layer sizes must be positive"+
				"\n\thave(%v)", c.HiddenSizes)
		}
	}
	return nil
}

// DQN is a deep Q-learning agent. It acts ε-greedily with respect to
// a learned action value network, stores its experience in a replay
// buffer, and updates the network on sampled minibatches at a fixed
// interval. Exploration is annealed as experience accumulates.
type DQN struct {
	actor   *actor.FeedForwardActor
	learner *QLearner
	buffer  *buffer.Replay
	policy  *policy.EGreedyQ

	minExperiences int
	qUpdateEvery   int

	n                int
	totalExperiences int

	obs observer.Observer
}

// New returns a new deep Q-learning agent acting in env. Training
// statistics go to obs (nil for no tracking).
func New(env environment.Environment, c Config, seed uint64,
	obs observer.Observer) (*DQN, error) {
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
		return nil, fmt.Errorf("new: could not create value network: %v", err)
	}

	pol, err := policy.NewEGreedyQ(net, c.Epsilon)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	replay, err := buffer.NewReplay(env.Shape(), c.BufferSize, c.BatchSize,
		seed)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	learner, err := NewQLearner(net, c.BatchSize, c.Discount, c.LearningRate)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return &DQN{
		actor:          actor.New(pol, replay, seed),
		learner:        learner,
		buffer:         replay,
		policy:         pol,
		minExperiences: c.MinExperiences,
		qUpdateEvery:   c.QUpdateEvery,
		obs:            obs,
	}, nil
}

// SelectAction samples an action ε-greedily over the legal actions at
// obs.
func (d *DQN) SelectAction(obs mat.Vector, legal []int) (int, error) {
	return d.actor.SelectAction(obs, legal)
}

// ObserveFirst observes the first timestep of an episode
func (d *DQN) ObserveFirst(t timestep.TimeStep) error {
	return d.actor.ObserveFirst(t)
}

// Observe observes the action taken at the previous timestep and the
// timestep the environment returned for it, reporting the episode's
// return and length to the observer when the episode ends.
func (d *DQN) Observe(action int, t timestep.TimeStep) error {
	d.n++
	d.totalExperiences++
	if err := d.actor.Observe(action, t); err != nil {
		return err
	}
	if t.Done {
		d.obs.AddReturn(d.actor.EpisodeReturn())
		d.obs.AddEpisodeLength(d.actor.EpisodeSteps())
	}
	return nil
}

// EpisodeReturn returns the undiscounted return accumulated so far in
// the episode in progress.
func (d *DQN) EpisodeReturn() float64 {
	return d.actor.EpisodeReturn()
}

// EpisodeSteps returns the number of steps taken so far in the episode
// in progress.
func (d *DQN) EpisodeSteps() int {
	return d.actor.EpisodeSteps()
}

// Epsilon returns the current exploration rate
func (d *DQN) Epsilon() float64 {
	return d.policy.Epsilon()
}

// Update performs one action value update if enough experience has
// accumulated since the last one, returning whether an update ran.
// After an update, the acting policy receives the new weights and its
// exploration rate is annealed based on lifetime experience.
func (d *DQN) Update() (bool, error) {
	if d.buffer.Len() < d.minExperiences || d.n < d.qUpdateEvery {
		return false, nil
	}

	if err := d.learner.Step(d.buffer); err != nil {
		return false, fmt.Errorf("update: %v", err)
	}
	if err := network.Set(d.policy.Network(), d.learner.Network()); err != nil {
		return false, fmt.Errorf("update: %v", err)
	}
	if err := d.policy.SetEpsilon(annealedEpsilon(d.totalExperiences)); err != nil {
		return false, fmt.Errorf("update: %v", err)
	}
	d.n = 0

	// Tracking failures never interrupt training
	if meanQ, err := d.learner.MeanQ(d.buffer); err == nil {
		d.obs.AddMeanQ(meanQ)
	}
	d.obs.AddBufferCapacity(d.buffer.Len())
	return true, nil
}

// annealedEpsilon returns the exploration rate after total lifetime
// experiences: 1 at the start, decreasing by 0.1 per 100,000
// experiences, floored at 0.1.
func annealedEpsilon(total int) float64 {
	decrease := math.Round(float64(total)/1e6*10) / 10
	return 1.0 - floatutils.Min(0.9, decrease)
}
