package buffer

import (
	"fmt"

	"relearn/timestep"
)

// episode is a single trajectory of (observation, action, reward)
// triples, where observations[t] is the observation the agent acted
// from, actions[t] the action it took, and rewards[t] the reward the
// environment returned for it.
type episode struct {
	observations []float64
	actions      []float64
	rewards      []float64
	steps        int
}

// EpisodeBuffer accumulates complete episodes for on-policy learning.
// Closed episodes are kept until drawn; the episode currently being
// generated stays in the buffer across draws until it finishes.
type EpisodeBuffer struct {
	obsDim  int
	prevObs []float64
	open    *episode
	closed  []*episode
}

// NewEpisodeBuffer returns an empty episode buffer for observation
// vectors of length obsDim.
func NewEpisodeBuffer(obsDim int) (*EpisodeBuffer, error) {
	if obsDim < 1 {
		return nil, fmt.Errorf("newepisodebuffer: invalid observation "+
			"dimension %v", obsDim)
	}
	return &EpisodeBuffer{obsDim: obsDim}, nil
}

// AddFirst begins a new episode at the first timestep t.
func (e *EpisodeBuffer) AddFirst(t timestep.TimeStep) error {
	if t.Observation.Len() != e.obsDim {
		return fmt.Errorf("addfirst: invalid observation length\n\twant(%v)"+
			"\n\thave(%v)", e.obsDim, t.Observation.Len())
	}
	e.prevObs = vectorData(t.Observation)
	e.open = &episode{}
	return nil
}

// Add records the action taken from the previous observation and the
// timestep it produced. If last is true the current episode is closed
// and becomes available for drawing.
func (e *EpisodeBuffer) Add(action int, t timestep.TimeStep, last bool) error {
	if e.open == nil {
		return fmt.Errorf("add: no episode started; call AddFirst first")
	}
	if t.Observation.Len() != e.obsDim {
		return fmt.Errorf("add: invalid observation length\n\twant(%v)"+
			"\n\thave(%v)", e.obsDim, t.Observation.Len())
	}

	e.open.observations = append(e.open.observations, e.prevObs...)
	e.open.actions = append(e.open.actions, float64(action))
	e.open.rewards = append(e.open.rewards, t.Reward)
	e.open.steps++
	e.prevObs = vectorData(t.Observation)

	if last {
		e.closed = append(e.closed, e.open)
		e.open = nil
	}
	return nil
}

// Len returns the number of complete episodes in the buffer
func (e *EpisodeBuffer) Len() int {
	return len(e.closed)
}

// Draw packs every complete episode into a right-padded Batch and
// removes those episodes from the buffer. An episode still being
// generated is unaffected.
func (e *EpisodeBuffer) Draw() (*Batch, error) {
	if len(e.closed) == 0 {
		return nil, &UnderflowError{Op: "draw", Err: errNoEpisodes}
	}

	maxSteps := 0
	for _, ep := range e.closed {
		if ep.steps > maxSteps {
			maxSteps = ep.steps
		}
	}

	numEps := len(e.closed)
	batch := &Batch{
		Observations: make([]float64, numEps*maxSteps*e.obsDim),
		Actions:      make([]float64, numEps*maxSteps),
		Rewards:      make([]float64, numEps*maxSteps),
		Masks:        make([]float64, numEps*maxSteps),
		Episodes:     numEps,
		Steps:        maxSteps,
		ObsDim:       e.obsDim,
	}

	for i, ep := range e.closed {
		copy(batch.Observations[i*maxSteps*e.obsDim:], ep.observations)
		copy(batch.Actions[i*maxSteps:], ep.actions)
		copy(batch.Rewards[i*maxSteps:], ep.rewards)
		for t := 0; t < ep.steps; t++ {
			batch.Masks[i*maxSteps+t] = 1
		}
	}

	e.closed = nil
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return batch, nil
}
