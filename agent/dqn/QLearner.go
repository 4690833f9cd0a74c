package dqn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"relearn/buffer"
	"relearn/network"
	"relearn/solver"
)

// QLearner adapts an action value network towards one-step bootstrap
// targets on minibatches sampled from a replay buffer. The minibatch
// size is fixed, so the training and target-value graphs are built
// once and reused for every step.
type QLearner struct {
	trainNet network.NeuralNet
	predNet  network.NeuralNet

	selections *G.Node
	targets    *G.Node
	loss       *G.Node
	lossVal    G.Value

	trainVM G.VM
	predVM  G.VM

	adam      *solver.Adam
	discount  float64
	batchSize int

	lastLoss float64
}

// NewQLearner returns a QLearner adapting the weights of net on
// minibatches of batchSize transitions.
func NewQLearner(net network.NeuralNet, batchSize int, discount,
	learningRate float64) (*QLearner, error) {
	trainNet, err := net.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newqlearner: %v", err)
	}
	predNet, err := net.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newqlearner: %v", err)
	}

	g := trainNet.Graph()
	numActions := trainNet.Outputs()
	selections := G.NewMatrix(g, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("selections"))
	targets := G.NewVector(g, tensor.Float64, G.WithShape(batchSize),
		G.WithName("targets"))

	selectedQ := G.Must(G.Sum(
		G.Must(G.HadamardProd(trainNet.Prediction(), selections)), 1))
	diff := G.Must(G.Sub(selectedQ, targets))
	loss := G.Must(G.Mean(G.Must(G.Square(diff))))

	learnables := trainNet.Learnables()
	if _, err := G.Grad(loss, learnables...); err != nil {
		return nil, fmt.Errorf("newqlearner: could not compute gradient: %v",
			err)
	}

	learner := &QLearner{
		trainNet:   trainNet,
		predNet:    predNet,
		selections: selections,
		targets:    targets,
		loss:       loss,
		predVM:     G.NewTapeMachine(predNet.Graph()),
		adam:       solver.NewDefaultAdam(learningRate, 0),
		discount:   discount,
		batchSize:  batchSize,
	}
	G.Read(loss, &learner.lossVal)
	learner.trainVM = G.NewTapeMachine(g, G.BindDualValues(learnables...))
	return learner, nil
}

// Network returns the network holding the learner's current weights
func (q *QLearner) Network() network.NeuralNet {
	return q.trainNet
}

// Step samples a minibatch from b and performs one action value update
// on it.
func (q *QLearner) Step(b buffer.Buffer) error {
	sampler, ok := b.(buffer.Sampler)
	if !ok {
		return fmt.Errorf("step: buffer cannot sample minibatches")
	}
	obs, actions, rewards, dones, nextObs, err := sampler.Sample()
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}

	nextQ, err := q.predict(nextObs)
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}

	numActions := q.trainNet.Outputs()
	targets := make([]float64, q.batchSize)
	for i := range targets {
		maxQ := nextQ[i*numActions]
		for _, value := range nextQ[i*numActions : (i+1)*numActions] {
			if value > maxQ {
				maxQ = value
			}
		}
		targets[i] = rewards[i] + q.discount*(1-dones[i])*maxQ
	}

	oneHot := make([]float64, q.batchSize*numActions)
	for i := range actions {
		oneHot[i*numActions+int(actions[i])] = 1
	}

	err = G.Let(q.selections, tensor.New(tensor.WithBacking(oneHot),
		tensor.WithShape(q.batchSize, numActions)))
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}
	err = G.Let(q.targets, tensor.New(tensor.WithBacking(targets),
		tensor.WithShape(q.batchSize)))
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}
	if err := q.trainNet.SetInput(obs); err != nil {
		return fmt.Errorf("step: %v", err)
	}

	if err := q.trainVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run training pass: %v", err)
	}

	lossData, err := solver.Float64s(q.lossVal)
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}
	q.lastLoss = lossData[0]

	if err := q.adam.Step(q.trainNet.Model()); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	q.trainVM.Reset()
	return nil
}

// MeanQ samples a minibatch from b and returns the mean of the
// maximum action values over its observations.
func (q *QLearner) MeanQ(b buffer.Buffer) (float64, error) {
	sampler, ok := b.(buffer.Sampler)
	if !ok {
		return 0, fmt.Errorf("meanq: buffer cannot sample minibatches")
	}
	obs, _, _, _, _, err := sampler.Sample()
	if err != nil {
		return 0, fmt.Errorf("meanq: %v", err)
	}

	values, err := q.predict(obs)
	if err != nil {
		return 0, fmt.Errorf("meanq: %v", err)
	}

	numActions := q.trainNet.Outputs()
	sum := 0.0
	for i := 0; i < q.batchSize; i++ {
		maxQ := values[i*numActions]
		for _, value := range values[i*numActions : (i+1)*numActions] {
			if value > maxQ {
				maxQ = value
			}
		}
		sum += maxQ
	}
	return sum / float64(q.batchSize), nil
}

// Loss returns the loss of the last learner step
func (q *QLearner) Loss() float64 {
	return q.lastLoss
}

// predict syncs the prediction network with the training network and
// returns its action values on a minibatch of observations.
func (q *QLearner) predict(obs []float64) ([]float64, error) {
	if err := network.Set(q.predNet, q.trainNet); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	if err := q.predNet.SetInput(obs); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	if err := q.predVM.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: could not run forward pass: %v", err)
	}
	q.predVM.Reset()

	values, err := solver.Float64s(q.predNet.Output())
	if err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out, nil
}
