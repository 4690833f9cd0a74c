// Package solver implements gradient-descent solvers and learning
// rate schedules for adapting network weights
package solver

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

// adamMoments holds the first and second moment estimates for one
// trainable tensor
type adamMoments struct {
	m []float64
	v []float64
}

// Adam implements the Adam solver with optional L2 weight decay.
//
// Unlike Gorgonia's built-in solvers, the learning rate can be changed
// between steps, which is what a learning rate schedule needs, and
// gradients are left untouched until Step() so that callers may
// measure or rescale them first (global-norm clipping). Moment
// estimates are cached by position in the model slice, so callers must
// pass learnables in a stable order.
type Adam struct {
	learnRate float64
	beta1     float64
	beta2     float64
	eps       float64
	l2        float64

	steps   int
	moments []adamMoments
}

// NewDefaultAdam returns a new Adam solver with the usual moment decay
// hyperparameters.
func NewDefaultAdam(learnRate, l2 float64) *Adam {
	return NewAdam(learnRate, 0.9, 0.999, 1e-8, l2)
}

// NewAdam returns a new Adam solver. The l2 parameter is the L2
// weight decay strength; a value of 0 disables decay.
func NewAdam(learnRate, beta1, beta2, eps, l2 float64) *Adam {
	return &Adam{
		learnRate: learnRate,
		beta1:     beta1,
		beta2:     beta2,
		eps:       eps,
		l2:        l2,
	}
}

// LearnRate returns the current learning rate
func (a *Adam) LearnRate() float64 {
	return a.learnRate
}

// SetLearnRate sets the learning rate used by subsequent calls to
// Step()
func (a *Adam) SetLearnRate(learnRate float64) {
	a.learnRate = learnRate
}

// Step performs one Adam update on the model's weights, in place,
// using the gradients accumulated by the last backward pass.
func (a *Adam) Step(model []G.ValueGrad) error {
	if a.moments == nil {
		a.moments = make([]adamMoments, len(model))
	}
	if len(model) != len(a.moments) {
		return fmt.Errorf("step: model size changed between steps"+
			"\n\twant(%v)\n\thave(%v)", len(a.moments), len(model))
	}

	a.steps++
	correct1 := 1 - math.Pow(a.beta1, float64(a.steps))
	correct2 := 1 - math.Pow(a.beta2, float64(a.steps))

	for i, vg := range model {
		weights, err := Float64s(vg.Value())
		if err != nil {
			return fmt.Errorf("step: weights %v: %v", i, err)
		}

		gradValue, err := vg.Grad()
		if err != nil {
			return fmt.Errorf("step: gradient %v: %v", i, err)
		}
		grad, err := Float64s(gradValue)
		if err != nil {
			return fmt.Errorf("step: gradient %v: %v", i, err)
		}
		if len(grad) != len(weights) {
			return fmt.Errorf("step: weight/gradient length mismatch"+
				"\n\twant(%v)\n\thave(%v)", len(weights), len(grad))
		}

		if a.moments[i].m == nil {
			a.moments[i] = adamMoments{
				m: make([]float64, len(weights)),
				v: make([]float64, len(weights)),
			}
		}
		m, v := a.moments[i].m, a.moments[i].v

		for j := range weights {
			g := grad[j]
			if a.l2 != 0 {
				g += a.l2 * weights[j]
			}

			m[j] = a.beta1*m[j] + (1-a.beta1)*g
			v[j] = a.beta2*v[j] + (1-a.beta2)*g*g

			mHat := m[j] / correct1
			vHat := v[j] / correct2
			weights[j] -= a.learnRate * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
	return nil
}
