package analysis

import (
	"math"
	"slices"

	"github.com/tphakala/go-adc-decimator/internal/simdops"
)

// ReferenceFIR filters input with coeffs in floating point, producing one
// output per input: y[n] = Σ coeffs[i]·x[n-i], with zero history.
func ReferenceFIR(coeffs, input []float64) []float64 {
	if len(coeffs) == 0 || len(input) == 0 {
		return []float64{}
	}

	padded := make([]float64, len(coeffs)-1+len(input))
	copy(padded[len(coeffs)-1:], input)
	kernel := slices.Clone(coeffs)
	slices.Reverse(kernel)

	out := make([]float64, len(input))
	simdops.Float64Ops().ConvolveValid(out, padded, kernel)
	return out
}

// Tone returns n samples of amplitude·sin(2π·freq·i), with freq a fraction
// of the sample rate.
func Tone(n int, freq, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i))
	}
	return out
}

// RMSError returns the root-mean-square difference between a and b over
// their common length.
func RMSError(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	diff := make([]float64, n)
	for i := range diff {
		diff[i] = a[i] - b[i]
	}
	return math.Sqrt(simdops.Float64Ops().DotProduct(diff, diff) / float64(n))
}
