package norms

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Stats describes one peer distribution.
type Stats struct {
	N      int
	Mean   float64
	StdDev float64 // sample (N-1) deviation; 0 when undefined
	// Defined is false when N <= 1 and the deviation has no meaning.
	Defined bool
}

func Describe(values []float64) Stats {
	switch len(values) {
	case 0:
		return Stats{}
	case 1:
		return Stats{N: 1, Mean: values[0]}
	}
	mean, std := stat.MeanStdDev(values, nil)
	if math.IsNaN(std) || std < 0 {
		std = 0
	}
	return Stats{N: len(values), Mean: mean, StdDev: std, Defined: true}
}

// ZScore standardizes x against s. It is 0 when the deviation is undefined
// or exactly 0; identical peer scores are not an error.
func ZScore(x float64, s Stats) float64 {
	if !s.Defined || s.StdDev == 0 || x == s.Mean {
		return 0
	}
	z := (x - s.Mean) / s.StdDev
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0
	}
	return z
}
