// Package environment outlines the interface that concrete
// environments must implement to be driven by the training framework
package environment

import (
	"relearn/timestep"
)

// Environment implements a simulated environment with a discrete
// action space. Environments are external collaborators: the framework
// never constructs them, it only drives them through this interface.
//
// Observations are fixed-length numeric vectors of Shape() elements.
// Actions are indices in [0, NumActions()); Actions() returns the
// subset of indices that are legal in the current state, which may
// change from step to step.
type Environment interface {
	// Reset resets the environment to an initial state and returns
	// the first timestep of a new episode
	Reset() timestep.TimeStep

	// Step performs one environment transition given the index of the
	// selected action
	Step(action int) (timestep.TimeStep, error)

	// Actions returns the indices of the actions that are legal in
	// the current state
	Actions() []int

	// NumActions returns the total number of actions in the
	// environment's action space, legal or not
	NumActions() int

	// Shape returns the length of observation vectors produced by
	// the environment
	Shape() int
}
