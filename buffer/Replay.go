package buffer

import (
	"fmt"

	"golang.org/x/exp/rand"

	"relearn/timestep"
)

// Replay is a fixed-capacity FIFO buffer of transitions with uniform
// random sampling, for off-policy learning.
type Replay struct {
	obsDim    int
	maxSize   int
	batchSize int

	obs     []float64
	actions []float64
	rewards []float64
	dones   []float64
	nextObs []float64

	size     int
	position int
	prevObs  []float64

	rng *rand.Rand
}

// NewReplay returns an empty replay buffer holding at most maxSize
// transitions of observation vectors of length obsDim, sampling
// minibatches of batchSize transitions.
func NewReplay(obsDim, maxSize, batchSize int, seed uint64) (*Replay, error) {
	if obsDim < 1 {
		return nil, fmt.Errorf("newreplay: invalid observation dimension %v",
			obsDim)
	}
	if maxSize < 1 || batchSize < 1 || batchSize > maxSize {
		return nil, fmt.Errorf("newreplay: invalid sizes\n\tmax(%v)"+
			"\n\tbatch(%v)", maxSize, batchSize)
	}
	return &Replay{
		obsDim:    obsDim,
		maxSize:   maxSize,
		batchSize: batchSize,
		obs:       make([]float64, maxSize*obsDim),
		actions:   make([]float64, maxSize),
		rewards:   make([]float64, maxSize),
		dones:     make([]float64, maxSize),
		nextObs:   make([]float64, maxSize*obsDim),
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// AddFirst begins a new episode at the first timestep t.
func (r *Replay) AddFirst(t timestep.TimeStep) error {
	if t.Observation.Len() != r.obsDim {
		return fmt.Errorf("addfirst: invalid observation length\n\twant(%v)"+
			"\n\thave(%v)", r.obsDim, t.Observation.Len())
	}
	r.prevObs = vectorData(t.Observation)
	return nil
}

// Add records the transition ending at timestep t, evicting the oldest
// transition when the buffer is full.
func (r *Replay) Add(action int, t timestep.TimeStep, last bool) error {
	if r.prevObs == nil {
		return fmt.Errorf("add: no episode started; call AddFirst first")
	}
	if t.Observation.Len() != r.obsDim {
		return fmt.Errorf("add: invalid observation length\n\twant(%v)"+
			"\n\thave(%v)", r.obsDim, t.Observation.Len())
	}

	next := vectorData(t.Observation)
	copy(r.obs[r.position*r.obsDim:], r.prevObs)
	copy(r.nextObs[r.position*r.obsDim:], next)
	r.actions[r.position] = float64(action)
	r.rewards[r.position] = t.Reward
	if last {
		r.dones[r.position] = 1
	} else {
		r.dones[r.position] = 0
	}

	r.position = (r.position + 1) % r.maxSize
	if r.size < r.maxSize {
		r.size++
	}
	r.prevObs = next
	return nil
}

// Len returns the number of transitions in the buffer
func (r *Replay) Len() int {
	return r.size
}

// Sample draws a minibatch of transitions uniformly at random, with
// replacement.
func (r *Replay) Sample() (obs, actions, rewards, dones,
	nextObs []float64, err error) {
	if r.size < r.batchSize {
		return nil, nil, nil, nil, nil, &UnderflowError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
	}

	obs = make([]float64, r.batchSize*r.obsDim)
	actions = make([]float64, r.batchSize)
	rewards = make([]float64, r.batchSize)
	dones = make([]float64, r.batchSize)
	nextObs = make([]float64, r.batchSize*r.obsDim)

	for i := 0; i < r.batchSize; i++ {
		j := r.rng.Intn(r.size)
		copy(obs[i*r.obsDim:(i+1)*r.obsDim], r.obs[j*r.obsDim:])
		copy(nextObs[i*r.obsDim:(i+1)*r.obsDim], r.nextObs[j*r.obsDim:])
		actions[i] = r.actions[j]
		rewards[i] = r.rewards[j]
		dones[i] = r.dones[j]
	}
	return obs, actions, rewards, dones, nextObs, nil
}

// BatchSize returns the size of minibatches drawn by Sample
func (r *Replay) BatchSize() int {
	return r.batchSize
}

// ObsDim returns the length of observation vectors in the buffer
func (r *Replay) ObsDim() int {
	return r.obsDim
}
