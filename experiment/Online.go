// Package experiment implements running agents in environments
package experiment

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/mat"

	"relearn/environment"
	"relearn/timestep"
	"relearn/utils/progressbar"
)

// Agent is the surface an experiment needs from an agent: action
// selection and experience observation. Agents additionally implement
// either Updater or GatedUpdater to learn from the observed
// experience.
type Agent interface {
	SelectAction(obs mat.Vector, legal []int) (int, error)
	ObserveFirst(t timestep.TimeStep) error
	Observe(action int, t timestep.TimeStep) error
}

// Updater runs as many learner steps as accumulated experience
// warrants, returning how many ran.
type Updater interface {
	Update() (int, error)
}

// GatedUpdater runs at most one learner step per call, returning
// whether one ran.
type GatedUpdater interface {
	Update() (bool, error)
}

// Online runs an agent in an environment for a fixed number of
// environment steps, updating the agent after every step. Episodes
// that end before the step limit roll over into fresh ones.
type Online struct {
	env   environment.Environment
	agent Agent

	maxSteps     int
	currentSteps int

	progress io.Writer
}

// NewOnline returns an experiment running agent in env for maxSteps
// environment steps. A progress bar is drawn to progress; nil disables
// it.
func NewOnline(env environment.Environment, agent Agent, maxSteps int,
	progress io.Writer) (*Online, error) {
	if maxSteps < 1 {
		return nil, fmt.Errorf("newonline: steps must be positive"+
			"\n\thave(%v)", maxSteps)
	}
	switch agent.(type) {
	case Updater, GatedUpdater:
	default:
		return nil, fmt.Errorf("newonline: agent cannot update")
	}
	return &Online{
		env:      env,
		agent:    agent,
		maxSteps: maxSteps,
		progress: progress,
	}, nil
}

// Run runs the entire experiment for all timesteps. Learner errors
// end the experiment.
func (o *Online) Run() error {
	var bar *progressbar.ProgressBar
	if o.progress != nil {
		bar = progressbar.New(50, o.maxSteps, time.Second, o.progress)
		defer bar.Close()
	}

	step := o.env.Reset()
	if err := o.agent.ObserveFirst(step); err != nil {
		return fmt.Errorf("run: %v", err)
	}

	for o.currentSteps < o.maxSteps {
		action, err := o.agent.SelectAction(step.Observation, o.env.Actions())
		if err != nil {
			return fmt.Errorf("run: %v", err)
		}

		next, err := o.env.Step(action)
		if err != nil {
			return fmt.Errorf("run: %v", err)
		}
		if err := o.agent.Observe(action, next); err != nil {
			return fmt.Errorf("run: %v", err)
		}
		o.currentSteps++
		if bar != nil {
			bar.Increment()
		}

		if err := o.update(); err != nil {
			return fmt.Errorf("run: %v", err)
		}

		if next.Done && o.currentSteps < o.maxSteps {
			step = o.env.Reset()
			if err := o.agent.ObserveFirst(step); err != nil {
				return fmt.Errorf("run: %v", err)
			}
		} else {
			step = next
		}
	}
	return nil
}

// Steps returns the number of environment steps taken so far
func (o *Online) Steps() int {
	return o.currentSteps
}

// update runs the agent's update in whichever form it implements
func (o *Online) update() error {
	switch updater := o.agent.(type) {
	case Updater:
		_, err := updater.Update()
		return err
	case GatedUpdater:
		_, err := updater.Update()
		return err
	default:
		return fmt.Errorf("update: agent cannot update")
	}
}
