// Package simdops collects the SIMD float64 kernels used by the
// floating-point reference model and the coefficient analysis, behind one
// function table so callers can be benchmarked against direct calls.
package simdops

import (
	"github.com/tphakala/simd/cpu"
	"github.com/tphakala/simd/f64"
)

// Ops is a table of float64 SIMD kernels.
type Ops struct {
	// DotProduct returns Σ a[i]*b[i] for equal-length slices.
	DotProduct func(a, b []float64) float64

	// ConvolveValid computes dst[i] = Σ signal[i+k]*kernel[k] for every
	// position where the kernel fits entirely inside the signal.
	ConvolveValid func(dst, signal, kernel []float64)

	// Sum returns the sum of all elements.
	Sum func(a []float64) float64

	// Scale computes dst[i] = a[i]*s.
	Scale func(dst, a []float64, s float64)
}

var ops64 = Ops{
	DotProduct:    f64.DotProduct,
	ConvolveValid: f64.ConvolveValid,
	Sum:           f64.Sum,
	Scale:         f64.Scale,
}

// Float64Ops returns the float64 kernel table.
func Float64Ops() *Ops {
	return &ops64
}

// Info describes the SIMD instruction set selected at startup.
func Info() string {
	return cpu.Info()
}
