package pg

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"relearn/agent"
	"relearn/buffer"
	"relearn/network"
	"relearn/solver"
	"relearn/utils/floatutils"
)

// Floor on probabilities inside logarithms when reporting entropy
const entropyEps float64 = 1e-12

// Learner adapts a policy network with a Monte Carlo policy gradient.
// Each Step draws a batch of complete episodes, computes entropy
// regularized and mean-centered discounted returns, and takes one
// Adam step on the return-weighted negative log-likelihood of the
// actions taken.
type Learner struct {
	net      network.NeuralNet
	adam     *solver.Adam
	schedule *solver.StepLR

	discount float64
	eReg     float64
	clipGrad float64

	verbose io.Writer

	updates      int
	totalSteps   int
	lastLoss     float64
	lastGradNorm float64
}

// NewLearner returns a Learner adapting the weights of net, which must
// be the same network the acting policy holds so that finished updates
// are visible to it.
func NewLearner(net network.NeuralNet, c Config,
	verbose io.Writer) (*Learner, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newlearner: %v", err)
	}

	adam := solver.NewDefaultAdam(c.LearningRate, c.Reg)
	return &Learner{
		net:      net,
		adam:     adam,
		schedule: solver.NewStepLR(adam, c.DecaySteps, c.LRDecay),
		discount: c.Discount,
		eReg:     c.EReg,
		clipGrad: c.ClipGrad,
		verbose:  verbose,
	}, nil
}

// Step draws every complete episode from b and performs one policy
// gradient update on them.
func (l *Learner) Step(b buffer.Buffer) error {
	drawer, ok := b.(buffer.BatchDrawer)
	if !ok {
		return fmt.Errorf("step: buffer cannot draw episode batches")
	}
	batch, err := drawer.Draw()
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}

	logits, err := l.forward(batch)
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}
	for i, m := range batch.Masks {
		if m == 1 && !floatutils.AllFinite(
			logits[i*l.net.Outputs():(i+1)*l.net.Outputs()]...) {
			return &agent.NumericalInstabilityError{
				Op:  "step",
				Err: errors.New("policy logits are not finite"),
			}
		}
	}

	logProbs := actionLogProbs(logits, batch.Actions, l.net.Outputs())
	returns := l.discountedReturns(batch)
	entropies := episodeEntropies(logProbs, batch)

	// Entropy regularization is applied to the raw returns, before
	// they are centered
	for i := 0; i < batch.Episodes; i++ {
		bonus := 0.5 * l.eReg * entropies[i]
		for t := 0; t < batch.Steps; t++ {
			j := i*batch.Steps + t
			returns[j] = (returns[j] - bonus) * batch.Masks[j]
		}
	}
	normalizeReturns(returns, batch)

	active := batch.ActiveCount()
	weights := make([]float64, len(returns))
	for i := range weights {
		weights[i] = batch.Masks[i] * returns[i] / float64(active)
	}

	loss, gradNorm, trainNet, err := l.gradientStep(batch, weights)
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}
	if !floatutils.AllFinite(loss, gradNorm) {
		return &agent.NumericalInstabilityError{
			Op:  "step",
			Err: errors.New("loss or gradient norm is not finite"),
		}
	}

	if err := l.adam.Step(trainNet.Model()); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	l.schedule.Step()

	// The acting policy reads from l.net, so the freshly adapted
	// weights are pushed back into it
	if err := network.Set(l.net, trainNet); err != nil {
		return fmt.Errorf("step: %v", err)
	}

	l.updates++
	l.totalSteps += active
	l.lastLoss = loss
	l.lastGradNorm = gradNorm

	if l.verbose != nil {
		l.report(batch, logits, loss, gradNorm)
	}
	return nil
}

// forward runs the policy network on every observation in the batch,
// padding included, and returns the logits row-major with shape
// (Episodes*Steps, actions).
func (l *Learner) forward(batch *buffer.Batch) ([]float64, error) {
	rows := batch.Episodes * batch.Steps
	predNet, err := l.net.CloneWithBatch(rows)
	if err != nil {
		return nil, fmt.Errorf("forward: %v", err)
	}
	if err := predNet.SetInput(batch.Observations); err != nil {
		return nil, fmt.Errorf("forward: %v", err)
	}

	vm := G.NewTapeMachine(predNet.Graph())
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("forward: could not run forward pass: %v", err)
	}

	logits, err := solver.Float64s(predNet.Output())
	if err != nil {
		return nil, fmt.Errorf("forward: %v", err)
	}
	out := make([]float64, len(logits))
	copy(out, logits)
	return out, nil
}

// gradientStep builds the training graph for the batch, runs the
// forward and backward passes, and returns the loss, the gradient
// norm measured before clipping, and the network holding the
// gradients.
func (l *Learner) gradientStep(batch *buffer.Batch,
	weights []float64) (float64, float64, network.NeuralNet, error) {
	rows := batch.Episodes * batch.Steps
	numActions := l.net.Outputs()

	trainNet, err := l.net.CloneWithBatch(rows)
	if err != nil {
		return 0, 0, nil, err
	}
	g := trainNet.Graph()

	selections := G.NewMatrix(g, tensor.Float64,
		G.WithShape(rows, numActions), G.WithName("selections"))
	lossWeights := G.NewVector(g, tensor.Float64, G.WithShape(rows),
		G.WithName("lossWeights"))

	logits := trainNet.Prediction()
	logZ, err := logSumExp(logits, 1)
	if err != nil {
		return 0, 0, nil, err
	}
	selected := G.Must(G.Sum(G.Must(G.HadamardProd(logits, selections)), 1))
	nll := G.Must(G.Sub(logZ, selected))
	loss := G.Must(G.Sum(G.Must(G.HadamardProd(nll, lossWeights))))

	var lossVal G.Value
	G.Read(loss, &lossVal)

	learnables := trainNet.Learnables()
	if _, err := G.Grad(loss, learnables...); err != nil {
		return 0, 0, nil, fmt.Errorf("could not compute gradient: %v", err)
	}

	oneHot := make([]float64, rows*numActions)
	for i := 0; i < rows; i++ {
		if batch.Masks[i] == 1 {
			oneHot[i*numActions+int(batch.Actions[i])] = 1
		}
	}
	err = G.Let(selections, tensor.New(tensor.WithBacking(oneHot),
		tensor.WithShape(rows, numActions)))
	if err != nil {
		return 0, 0, nil, err
	}
	err = G.Let(lossWeights, tensor.New(tensor.WithBacking(weights),
		tensor.WithShape(rows)))
	if err != nil {
		return 0, 0, nil, err
	}
	if err := trainNet.SetInput(batch.Observations); err != nil {
		return 0, 0, nil, err
	}

	vm := G.NewTapeMachine(g, G.BindDualValues(learnables...))
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return 0, 0, nil, fmt.Errorf("could not run training pass: %v", err)
	}

	lossData, err := solver.Float64s(lossVal)
	if err != nil {
		return 0, 0, nil, err
	}

	var gradNorm float64
	if l.clipGrad > 0 {
		gradNorm, err = solver.ClipGrads(learnables, l.clipGrad)
	} else {
		gradNorm, err = solver.GradNorm(learnables)
	}
	if err != nil {
		return 0, 0, nil, err
	}

	return lossData[0], gradNorm, trainNet, nil
}

// discountedReturns returns the discounted reward-to-go at every
// timestep of the batch, 0 in the padding. The returns of all episodes
// are computed at once as the product of the reward matrix with a
// Toeplitz matrix of discount powers.
func (l *Learner) discountedReturns(batch *buffer.Batch) []float64 {
	steps := batch.Steps
	toeplitz := mat.NewDense(steps, steps, nil)
	for k := 0; k < steps; k++ {
		for t := 0; t <= k; t++ {
			toeplitz.Set(k, t, math.Pow(l.discount, float64(k-t)))
		}
	}

	rewards := mat.NewDense(batch.Episodes, steps, batch.Rewards)
	var product mat.Dense
	product.Mul(rewards, toeplitz)

	returns := make([]float64, batch.Episodes*steps)
	for i := 0; i < batch.Episodes; i++ {
		for t := 0; t < steps; t++ {
			j := i*steps + t
			returns[j] = product.At(i, t) * batch.Masks[j]
		}
	}
	return returns
}

// episodeEntropies returns, for each episode, the sum over its
// timesteps of the log-probabilities of the actions taken.
func episodeEntropies(logProbs []float64, batch *buffer.Batch) []float64 {
	entropies := make([]float64, batch.Episodes)
	for i := 0; i < batch.Episodes; i++ {
		for t := 0; t < batch.Steps; t++ {
			j := i*batch.Steps + t
			entropies[i] += batch.Masks[j] * logProbs[j]
		}
	}
	return entropies
}

// normalizeReturns centers the returns, in place, by subtracting from
// each timestep the mean return over the episodes still active at that
// timestep.
func normalizeReturns(returns []float64, batch *buffer.Batch) {
	means := make([]float64, batch.Steps)
	stds := make([]float64, batch.Steps)
	for t := 0; t < batch.Steps; t++ {
		sum, sumSquares, count := 0.0, 0.0, 0.0
		for i := 0; i < batch.Episodes; i++ {
			j := i*batch.Steps + t
			sum += batch.Masks[j] * returns[j]
			sumSquares += batch.Masks[j] * returns[j] * returns[j]
			count += batch.Masks[j]
		}
		n := math.Max(count, 1)
		means[t] = sum / n
		stds[t] = math.Sqrt(math.Max(sumSquares/n-means[t]*means[t], 0))
	}
	// Only the mean is removed. Dividing by the standard deviation
	// destabilized training on sparse-reward environments.
	_ = stds

	for i := 0; i < batch.Episodes; i++ {
		for t := 0; t < batch.Steps; t++ {
			j := i*batch.Steps + t
			returns[j] = (returns[j] - means[t]) * batch.Masks[j]
		}
	}
}

// actionLogProbs returns the log-probability of the action taken at
// each row of logits, which has numActions columns.
func actionLogProbs(logits, actions []float64, numActions int) []float64 {
	rows := len(actions)
	logProbs := make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := logits[i*numActions : (i+1)*numActions]
		logProbs[i] = row[int(actions[i])] - floatutils.LogSumExp(row...)
	}
	return logProbs
}

// logSumExp computes log(sum(exp(x))) along the given axis of a node,
// shifted by the maximum for numerical stability.
func logSumExp(x *G.Node, along int) (*G.Node, error) {
	max, err := G.Max(x, along)
	if err != nil {
		return nil, fmt.Errorf("logsumexp: could not compute max: %v", err)
	}
	centered, err := G.BroadcastSub(x, max, nil, []byte{byte(along)})
	if err != nil {
		return nil, fmt.Errorf("logsumexp: could not center: %v", err)
	}
	exp, err := G.Exp(centered)
	if err != nil {
		return nil, fmt.Errorf("logsumexp: could not exponentiate: %v", err)
	}
	sum, err := G.Sum(exp, along)
	if err != nil {
		return nil, fmt.Errorf("logsumexp: could not sum: %v", err)
	}
	log, err := G.Log(sum)
	if err != nil {
		return nil, fmt.Errorf("logsumexp: could not take log: %v", err)
	}
	return G.Add(log, max)
}

// Loss returns the loss of the last learner step
func (l *Learner) Loss() float64 {
	return l.lastLoss
}

// GradNorm returns the gradient norm of the last learner step,
// measured before any clipping.
func (l *Learner) GradNorm() float64 {
	return l.lastGradNorm
}

// report writes a block of diagnostics for the last update to the
// learner's verbose writer.
func (l *Learner) report(batch *buffer.Batch, logits []float64, loss,
	gradNorm float64) {
	lengths := batch.EpisodeLengths()
	meanReturn, bestReturn := math.Inf(-1), math.Inf(-1)
	sumReturns := 0.0
	longest, sumLengths := 0, 0
	for i := 0; i < batch.Episodes; i++ {
		episodeReturn := 0.0
		for t := 0; t < batch.Steps; t++ {
			j := i*batch.Steps + t
			episodeReturn += batch.Masks[j] * batch.Rewards[j]
		}
		sumReturns += episodeReturn
		if episodeReturn > bestReturn {
			bestReturn = episodeReturn
		}
		sumLengths += lengths[i]
		if lengths[i] > longest {
			longest = lengths[i]
		}
	}
	meanReturn = sumReturns / float64(batch.Episodes)

	numActions := l.net.Outputs()
	entropy, activeRows := 0.0, 0
	for i := 0; i < len(batch.Masks); i++ {
		if batch.Masks[i] != 1 {
			continue
		}
		row := logits[i*numActions : (i+1)*numActions]
		logZ := floatutils.LogSumExp(row...)
		for _, logit := range row {
			p := math.Exp(logit - logZ)
			entropy -= p * math.Log(p+entropyEps)
		}
		activeRows++
	}
	entropy /= float64(activeRows)

	fmt.Fprintf(l.verbose, "update %d (%d steps in batch, %d total)\n"+
		"\tmean return:    %.4f\n"+
		"\tbest return:    %.4f\n"+
		"\tmean length:    %.2f\n"+
		"\tlongest:        %d\n"+
		"\tloss:           %.6f\n"+
		"\tgradient norm:  %.6f\n"+
		"\tpolicy entropy: %.4f\n",
		l.updates, activeRows, l.totalSteps, meanReturn, bestReturn,
		float64(sumLengths)/float64(batch.Episodes), longest, loss,
		gradNorm, entropy)
}
