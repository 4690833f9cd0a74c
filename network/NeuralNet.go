// Package network implements neural network function approximators
// using Gorgonia computational graphs
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a differentiable scoring function over observations.
// Given a batch of observation vectors it produces one score (logit or
// action value) per action in the full action space.
//
// A NeuralNet populates a gorgonia.ExprGraph but holds no VM of its
// own. Callers set the input with SetInput(), run the graph with an
// external VM, and read the scores with Output(). Learners construct
// their loss around Prediction() and adapt Learnables() through a
// solver.
type NeuralNet interface {
	Graph() *G.ExprGraph

	// CloneWithBatch clones the network and its current weights into
	// a fresh graph whose input node accepts the given batch size
	CloneWithBatch(int) (NeuralNet, error)

	BatchSize() int
	Features() int
	Outputs() int

	// SetInput sets the value of the input node before running the
	// forward pass. The input is row major with BatchSize() rows of
	// Features() values.
	SetInput([]float64) error

	// Set overwrites the network weights with those of another
	// network of identical architecture
	Set(NeuralNet) error

	Learnables() G.Nodes
	Model() []G.ValueGrad

	// Output returns the value of the prediction node after the
	// graph has been run
	Output() G.Value

	// Prediction returns the node of the computational graph that
	// stores the network output
	Prediction() *G.Node
}

// Set copies the weights of the src network into dest. This is the
// explicit ownership handoff between a learner's training network and
// the behaviour network an actor samples from: weights only move when
// a learner pushes them.
func Set(dest, src NeuralNet) error {
	return dest.Set(src)
}
