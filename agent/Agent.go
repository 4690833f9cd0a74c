// Package agent implements functionality for agents acting in and
// learning from environments
package agent

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"relearn/buffer"
	"relearn/timestep"
)

// Actor selects actions and observes the experience those actions
// generate.
type Actor interface {
	SelectAction(obs mat.Vector, legal []int) (int, error)
	ObserveFirst(t timestep.TimeStep) error
	Observe(action int, t timestep.TimeStep) error
	EpisodeReturn() float64
	EpisodeSteps() int
}

// Learner adapts a policy's weights using the experience stored in a
// buffer.
type Learner interface {
	Step(b buffer.Buffer) error
}

// Agent couples an actor with a learner: the actor generates
// experience into a buffer, and Update runs learner steps at a rate
// controlled by how much experience has accumulated.
type Agent struct {
	actor   Actor
	learner Learner
	buffer  buffer.Buffer

	// Minimum buffer length before any learning happens
	minObservations int

	// Observations per learner step. A value <= 0 means a single
	// learner step per Update once warm.
	observationsPerStep float64

	numObservations   int
	totalObservations int
}

// New returns a new Agent running learner on the experience actor
// records in b. No learner steps run until b holds at least
// minObservations items; after that, Update runs one learner step per
// observationsPerStep observations, or exactly one step when
// observationsPerStep <= 0.
func New(actor Actor, learner Learner, b buffer.Buffer, minObservations int,
	observationsPerStep float64) (*Agent, error) {
	if actor == nil || learner == nil || b == nil {
		return nil, fmt.Errorf("new: actor, learner, and buffer are required")
	}
	return &Agent{
		actor:               actor,
		learner:             learner,
		buffer:              b,
		minObservations:     minObservations,
		observationsPerStep: observationsPerStep,
	}, nil
}

// SelectAction samples an action from the agent's policy over the
// legal actions at obs.
func (a *Agent) SelectAction(obs mat.Vector, legal []int) (int, error) {
	return a.actor.SelectAction(obs, legal)
}

// ObserveFirst observes the first timestep of an episode
func (a *Agent) ObserveFirst(t timestep.TimeStep) error {
	return a.actor.ObserveFirst(t)
}

// Observe observes the action taken at the previous timestep and the
// timestep the environment returned for it.
func (a *Agent) Observe(action int, t timestep.TimeStep) error {
	a.numObservations++
	a.totalObservations++
	return a.actor.Observe(action, t)
}

// EpisodeReturn returns the undiscounted return accumulated so far in
// the episode in progress.
func (a *Agent) EpisodeReturn() float64 {
	return a.actor.EpisodeReturn()
}

// EpisodeSteps returns the number of steps taken so far in the episode
// in progress.
func (a *Agent) EpisodeSteps() int {
	return a.actor.EpisodeSteps()
}

// TotalObservations returns the number of observations the agent has
// made over its lifetime.
func (a *Agent) TotalObservations() int {
	return a.totalObservations
}

// Update runs as many learner steps as the accumulated experience
// warrants, returning the number of steps run.
func (a *Agent) Update() (int, error) {
	steps := a.calcNumSteps()
	for i := 0; i < steps; i++ {
		if err := a.learner.Step(a.buffer); err != nil {
			return i, fmt.Errorf("update: %v", err)
		}
		a.numObservations = 0
	}
	return steps, nil
}

// calcNumSteps returns the number of learner steps the observations
// accumulated since the last step warrant.
func (a *Agent) calcNumSteps() int {
	if a.buffer.Len() < a.minObservations {
		return 0
	}
	if a.observationsPerStep <= 0 {
		return 1
	}
	return int(float64(a.numObservations) / a.observationsPerStep)
}
