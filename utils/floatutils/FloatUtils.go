// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"
)

// Min calculates and returns the minimum float64 in a list
func Min(floats ...float64) float64 {
	min := floats[0]
	for _, val := range floats {
		if val < min {
			min = val
		}
	}
	return min
}

// Max calculates and returns the maximum float64 in a list
func Max(floats ...float64) float64 {
	max := floats[0]
	for _, val := range floats {
		if val > max {
			max = val
		}
	}
	return max
}

// ArgMax returns the indices of the maximum values in a slice of
// float64. Ties result in multiple returned indices.
func ArgMax(values ...float64) []int {
	max, indices := values[0], []int{0}
	for i, value := range values {
		if i == 0 {
			continue
		}
		if value > max {
			max = value
			indices = []int{i}
		} else if value == max {
			indices = append(indices, i)
		}
	}
	return indices
}

// LogSumExp computes log(Σ exp(x)) for a slice of float64 in a
// numerically stable way by shifting by the maximum value.
func LogSumExp(values ...float64) float64 {
	max := Max(values...)
	if math.IsInf(max, -1) {
		return math.Inf(-1)
	}

	var sum float64
	for _, v := range values {
		sum += math.Exp(v - max)
	}
	return max + math.Log(sum)
}

// AllFinite returns whether every value in a list is neither NaN nor
// an infinity
func AllFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
