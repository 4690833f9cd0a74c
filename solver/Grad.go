package solver

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Float64s returns the float64 backing data of a Gorgonia value. The
// returned slice aliases the value's storage, so writes to it mutate
// the value in place.
func Float64s(v G.Value) ([]float64, error) {
	switch value := v.(type) {
	case *tensor.Dense:
		data, ok := value.Data().([]float64)
		if !ok {
			// A 0-dimensional tensor backs a bare float64
			if f, ok := value.Data().(float64); ok {
				return []float64{f}, nil
			}
			return nil, fmt.Errorf("float64s: tensor is not float64 backed")
		}
		return data, nil
	case *G.F64:
		return []float64{float64(*value)}, nil
	default:
		return nil, fmt.Errorf("float64s: unsupported value type %T", v)
	}
}

// GradNorm returns the global L2 norm of the gradients of all the
// given learnable nodes, computed across every element of every
// gradient.
func GradNorm(learnables G.Nodes) (float64, error) {
	var sumSquares float64
	for _, node := range learnables {
		gradValue, err := node.Grad()
		if err != nil {
			return 0, fmt.Errorf("gradnorm: %v: %v", node.Name(), err)
		}
		grad, err := Float64s(gradValue)
		if err != nil {
			return 0, fmt.Errorf("gradnorm: %v: %v", node.Name(), err)
		}
		for _, g := range grad {
			sumSquares += g * g
		}
	}
	return math.Sqrt(sumSquares), nil
}

// ClipGrads rescales the gradients of the given learnable nodes, in
// place, so that their global L2 norm does not exceed maxNorm. It
// returns the norm measured before any rescaling.
func ClipGrads(learnables G.Nodes, maxNorm float64) (float64, error) {
	norm, err := GradNorm(learnables)
	if err != nil {
		return 0, err
	}
	if norm <= maxNorm || norm == 0 {
		return norm, nil
	}

	scale := maxNorm / norm
	for _, node := range learnables {
		gradValue, err := node.Grad()
		if err != nil {
			return norm, fmt.Errorf("clipgrads: %v: %v", node.Name(), err)
		}
		grad, err := Float64s(gradValue)
		if err != nil {
			return norm, fmt.Errorf("clipgrads: %v: %v", node.Name(), err)
		}
		for i := range grad {
			grad[i] *= scale
		}
	}
	return norm, nil
}
