// Package analysis evaluates quantised coefficient banks in floating point:
// frequency responses via FFT, passband ripple and stopband attenuation, the
// combined CIC and compensator response, and a float reference FIR used to
// bound the fixed-point error.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tphakala/go-adc-decimator/internal/fixedpoint"
	"github.com/tphakala/go-adc-decimator/internal/mathutil"
	"github.com/tphakala/go-adc-decimator/internal/simdops"
)

// ErrInvalidSize is returned for an FFT size that is not a power of two or
// is shorter than the filter.
var ErrInvalidSize = errors.New("analysis: invalid FFT size")

const (
	// DefaultFFTSize is used when a zero size is requested.
	DefaultFFTSize = 4096

	minMagnitude = 1e-10 // floor for dB conversion
	dbPerDecade  = 20.0
)

// Response is a filter's response on an evenly spaced grid from DC to
// Nyquist. Frequencies are fractions of the filter's sample rate.
type Response struct {
	Frequencies []float64
	Magnitude   []float64 // linear
	Phase       []float64 // radians
}

// FrequencyResponse zero-pads coeffs to fftSize and evaluates its spectrum.
func FrequencyResponse(coeffs []float64, fftSize int) (Response, error) {
	if fftSize == 0 {
		fftSize = max(DefaultFFTSize, 1<<fixedpoint.CeilLog2(len(coeffs)))
	}
	if !fixedpoint.IsPowerOfTwo(fftSize) || fftSize < len(coeffs) {
		return Response{}, fmt.Errorf("%w: %d for %d taps", ErrInvalidSize, fftSize, len(coeffs))
	}

	padded := make([]float64, fftSize)
	copy(padded, coeffs)
	spectrum := fourier.NewFFT(fftSize).Coefficients(nil, padded)

	r := Response{
		Frequencies: make([]float64, len(spectrum)),
		Magnitude:   make([]float64, len(spectrum)),
		Phase:       make([]float64, len(spectrum)),
	}
	for k, c := range spectrum {
		r.Frequencies[k] = float64(k) / float64(fftSize)
		r.Magnitude[k] = cmplx.Abs(c)
		r.Phase[k] = cmplx.Phase(c)
	}
	return r, nil
}

// MagnitudeDB converts a linear magnitude to decibels.
func MagnitudeDB(magnitude float64) float64 {
	return dbPerDecade * math.Log10(max(magnitude, minMagnitude))
}

// At returns the magnitude at the grid point nearest f.
func (r Response) At(f float64) float64 {
	switch len(r.Magnitude) {
	case 0:
		return 0
	case 1:
		return r.Magnitude[0]
	}
	step := r.Frequencies[1] - r.Frequencies[0]
	k := int(math.Round(f / step))
	return r.Magnitude[min(max(k, 0), len(r.Magnitude)-1)]
}

// PassbandRipple returns the peak-to-peak magnitude variation in dB over
// [0, edge].
func (r Response) PassbandRipple(edge float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for k, f := range r.Frequencies {
		if f > edge {
			break
		}
		db := MagnitudeDB(r.Magnitude[k])
		lo = min(lo, db)
		hi = max(hi, db)
	}
	if math.IsInf(lo, 1) {
		return 0
	}
	return hi - lo
}

// StopbandAttenuation returns the attenuation in dB of the strongest
// component at or above edge, relative to the DC magnitude.
func (r Response) StopbandAttenuation(edge float64) float64 {
	if len(r.Magnitude) == 0 {
		return 0
	}
	peak := 0.0
	for k, f := range r.Frequencies {
		if f >= edge {
			peak = max(peak, r.Magnitude[k])
		}
	}
	return MagnitudeDB(r.Magnitude[0]) - MagnitudeDB(peak)
}

// CascadeResponse returns the magnitude of a CIC decimator followed by an
// FIR running at the CIC output rate. Frequencies are fractions of the CIC
// output rate; the CIC term is evaluated at the corresponding input-rate
// frequency.
func CascadeResponse(fir []float64, stages, decimation, delay, fftSize int) (Response, error) {
	r, err := FrequencyResponse(fir, fftSize)
	if err != nil {
		return Response{}, err
	}
	for k, f := range r.Frequencies {
		r.Magnitude[k] *= mathutil.CICMagnitude(f/float64(decimation), stages, decimation, delay)
	}
	return r, nil
}

// Dequantize converts Q(fracBits) integers to floating point.
func Dequantize(coeffs []int64, fracBits int) []float64 {
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[i] = float64(c)
	}
	simdops.Float64Ops().Scale(out, out, math.Ldexp(1, -fracBits))
	return out
}

// DCGain returns the sum of the coefficients.
func DCGain(coeffs []float64) float64 {
	return simdops.Float64Ops().Sum(coeffs)
}
