// Package actor implements action selection and experience recording
// for reinforcement learning agents
package actor

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"relearn/buffer"
	"relearn/policy"
	"relearn/timestep"
)

// Tolerance on the total probability mass of an action distribution
const probSumTolerance float64 = 1e-6

// FeedForwardActor selects actions by sampling from the distribution
// of a policy and records the experience it generates in a buffer. It
// also tracks the undiscounted return and length of the episode in
// progress.
type FeedForwardActor struct {
	policy policy.Policy
	client buffer.Buffer
	src    rand.Source

	episodeReturn float64
	episodeSteps  int
}

// New returns a new FeedForwardActor selecting actions with p and
// recording experience in client. A nil client disables recording.
func New(p policy.Policy, client buffer.Buffer,
	seed uint64) *FeedForwardActor {
	return &FeedForwardActor{
		policy: p,
		client: client,
		src:    rand.NewSource(seed),
	}
}

// SelectAction samples an action from the policy's distribution over
// the legal actions at obs.
func (f *FeedForwardActor) SelectAction(obs mat.Vector, legal []int) (int,
	error) {
	dist, err := f.policy.Distribution(obs, legal)
	if err != nil {
		return 0, fmt.Errorf("selectaction: %v", err)
	}

	probs := make([]float64, dist.Len())
	sum := 0.0
	for i := range probs {
		p := dist.AtVec(i)
		if p < 0 {
			return 0, &policy.InvalidDistributionError{
				Op:  "selectaction",
				Err: policy.ErrNegativeProbability,
			}
		}
		probs[i] = p
		sum += p
	}
	if math.Abs(sum-1.0) > probSumTolerance {
		return 0, &policy.InvalidDistributionError{
			Op:  "selectaction",
			Err: policy.ErrNotNormalized,
		}
	}

	sampler := distuv.NewCategorical(probs, f.src)
	return int(sampler.Rand()), nil
}

// ObserveFirst observes the first timestep of an episode, resetting
// the episode statistics.
func (f *FeedForwardActor) ObserveFirst(t timestep.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep %v is not the first of "+
			"an episode", t.Number)
	}
	f.episodeReturn = 0
	f.episodeSteps = 0
	if f.client == nil {
		return nil
	}
	if err := f.client.AddFirst(t); err != nil {
		return fmt.Errorf("observefirst: %v", err)
	}
	return nil
}

// Observe observes the action taken at the previous timestep and the
// timestep the environment returned for it.
func (f *FeedForwardActor) Observe(action int, t timestep.TimeStep) error {
	f.episodeReturn += t.Reward
	f.episodeSteps++
	if f.client == nil {
		return nil
	}
	if err := f.client.Add(action, t, t.Done); err != nil {
		return fmt.Errorf("observe: %v", err)
	}
	return nil
}

// EpisodeReturn returns the undiscounted return accumulated so far in
// the episode in progress.
func (f *FeedForwardActor) EpisodeReturn() float64 {
	return f.episodeReturn
}

// EpisodeSteps returns the number of steps taken so far in the episode
// in progress.
func (f *FeedForwardActor) EpisodeSteps() int {
	return f.episodeSteps
}
