// Package buffer implements experience storage for reinforcement
// learning agents
package buffer

import (
	"gonum.org/v1/gonum/mat"

	"relearn/timestep"
)

// Buffer stores the experience an actor generates while interacting
// with an environment. AddFirst records the first timestep of an
// episode, which has an observation but no preceding action or reward.
// Add records each subsequent step: the action taken from the previous
// observation and the timestep it produced. The last flag marks the
// final step of the episode.
type Buffer interface {
	AddFirst(t timestep.TimeStep) error
	Add(action int, t timestep.TimeStep, last bool) error
	Len() int
}

// BatchDrawer is a Buffer that can pack its stored episodes into a
// dense, right-padded batch for on-policy learning. Drawing consumes
// the episodes it returns.
type BatchDrawer interface {
	Buffer
	Draw() (*Batch, error)
}

// Sampler is a Buffer that can sample a fixed-size minibatch of
// transitions uniformly at random, for off-policy learning. The
// returned slices hold, in order, the observations, actions, rewards,
// done flags, and next observations of the sampled transitions.
type Sampler interface {
	Buffer
	Sample() (obs, actions, rewards, dones, nextObs []float64, err error)
	BatchSize() int
	ObsDim() int
}

// vectorData copies a vector's elements into a new slice
func vectorData(v mat.Vector) []float64 {
	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return data
}
