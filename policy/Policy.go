// Package policy implements action selection distributions over
// discrete action spaces
package policy

import "gonum.org/v1/gonum/mat"

// Policy computes a probability distribution over a discrete action
// space. Distribution returns the probability of each action given an
// observation; legal lists the actions that may be taken, and every
// action outside it must receive probability 0.
type Policy interface {
	Distribution(obs mat.Vector, legal []int) (mat.Vector, error)
	NumActions() int
}
