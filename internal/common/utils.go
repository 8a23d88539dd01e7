package common

import "math"

// RoundInt rounds to the nearest integer with halves rounded up, so -2.5
// becomes -2 and 2.5 becomes 3.
func RoundInt(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// MinMax returns the smallest and largest value. Both are 0 for an empty slice.
func MinMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Percent converts a 0-1 fraction to a rounded 0-100 integer.
func Percent(fraction float64) int {
	return RoundInt(fraction * 100)
}
