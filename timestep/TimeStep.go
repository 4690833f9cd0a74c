// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// TimeStep packages together a single timestep in an environment. A
// TimeStep is produced once per environment step and never mutated
// afterwards; the environment owns its construction, the actor only
// reads it.
type TimeStep struct {
	Observation mat.Vector
	Reward      float64
	Done        bool

	// Info carries opaque auxiliary data from the environment. It is
	// never inspected by the framework.
	Info map[string]interface{}

	// Number is the index of the step within its episode, with the
	// starting step numbered 0.
	Number int
}

// New returns a TimeStep with no auxiliary info.
func New(obs mat.Vector, reward float64, done bool, number int) TimeStep {
	return TimeStep{Observation: obs, Reward: reward, Done: done,
		Number: number}
}

// First returns whether a TimeStep is the first in an episode
func (t TimeStep) First() bool {
	return t.Number == 0
}

func (t TimeStep) String() string {
	str := "TimeStep | Reward:  %.2f  |  Done: %v  |  Step Number:  %v"
	return fmt.Sprintf(str, t.Reward, t.Done, t.Number)
}
