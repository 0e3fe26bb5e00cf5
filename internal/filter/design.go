package filter

import (
	"fmt"
	"math"

	"github.com/tphakala/simd/f64"

	"github.com/tphakala/go-adc-decimator/internal/fixedpoint"
	"github.com/tphakala/go-adc-decimator/internal/mathutil"
)

const (
	// designGridPoints is the number of frequency samples used to integrate
	// the desired response of a compensator.
	designGridPoints = 4096

	// gainThreshold guards normalisation against an all-zero design.
	gainThreshold = 1e-12

	// halfbandTapModulus: zero-stuffed halfbands need N ≡ 1 (mod 4) so the
	// prototype centre lands on an even index.
	halfbandTapModulus = 4
)

// KaiserWindow returns a Kaiser window of the given length and β.
// The window is symmetric: w[i] == w[length-1-i].
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}
	w := make([]float64, length)
	if length == 1 {
		w[0] = 1
		return w
	}

	alpha := float64(length-1) / 2
	i0Beta := mathutil.BesselI0(beta)
	for n := range length {
		x := (float64(n) - alpha) / alpha
		w[n] = mathutil.BesselI0(beta*math.Sqrt(1-x*x)) / i0Beta
	}
	return w
}

// LowPassParams describes a Kaiser-windowed sinc lowpass.
type LowPassParams struct {
	NumTaps     int
	Cutoff      float64 // fraction of the sample rate, (0, 0.5)
	Attenuation float64 // stopband attenuation in dB
	Gain        float64 // DC gain
}

// Validate checks the lowpass parameters.
func (p LowPassParams) Validate() error {
	if p.NumTaps < 3 || p.NumTaps > maxTaps {
		return fmt.Errorf("%w: lowpass needs [3, %d] taps, got %d", ErrInvalidConfig, maxTaps, p.NumTaps)
	}
	if p.Cutoff <= 0 || p.Cutoff >= 0.5 {
		return fmt.Errorf("%w: cutoff %f outside (0, 0.5)", ErrInvalidConfig, p.Cutoff)
	}
	if p.Attenuation < 0 {
		return fmt.Errorf("%w: negative attenuation %f", ErrInvalidConfig, p.Attenuation)
	}
	if p.Gain <= 0 {
		return fmt.Errorf("%w: gain must be positive, got %f", ErrInvalidConfig, p.Gain)
	}
	return nil
}

// DesignLowPass returns a windowed-sinc lowpass normalised to p.Gain at DC.
func DesignLowPass(p LowPassParams) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	window := KaiserWindow(p.NumTaps, mathutil.KaiserBeta(p.Attenuation))
	h := make([]float64, p.NumTaps)
	center := float64(p.NumTaps-1) / 2
	for n := range h {
		x := float64(n) - center
		h[n] = 2 * p.Cutoff * mathutil.Sinc(2*p.Cutoff*x) * window[n]
	}
	normalize(h, p.Gain)
	return h, nil
}

// CompensatorParams describes a CIC droop compensator running at the CIC
// output rate.
type CompensatorParams struct {
	NumTaps     int
	Passband    float64 // passband edge as a fraction of the CIC output rate
	Attenuation float64 // window attenuation in dB

	Stages            int
	DecimationFactor  int
	DifferentialDelay int
}

// DesignCompensator designs a linear-phase FIR whose passband follows the
// inverse CIC droop and whose stopband is zero. The desired response is
// integrated on a dense grid, Kaiser windowed, and normalised to unity DC
// gain.
func DesignCompensator(p CompensatorParams) ([]float64, error) {
	if p.NumTaps < 3 || p.NumTaps > maxTaps {
		return nil, fmt.Errorf("%w: compensator needs [3, %d] taps, got %d", ErrInvalidConfig, maxTaps, p.NumTaps)
	}
	if p.Passband <= 0 || p.Passband >= 0.5 {
		return nil, fmt.Errorf("%w: passband %f outside (0, 0.5)", ErrInvalidConfig, p.Passband)
	}
	if p.Stages < 1 || p.DecimationFactor < 1 || p.DifferentialDelay < 1 {
		return nil, fmt.Errorf("%w: CIC parameters must be positive", ErrInvalidConfig)
	}

	// h[n] = 2 ∫₀^fp A(f) cos(2π f (n-c)) df, midpoint rule.
	df := p.Passband / designGridPoints
	freqs := make([]float64, designGridPoints)
	amps := make([]float64, designGridPoints)
	for k := range freqs {
		f := (float64(k) + 0.5) * df
		freqs[k] = f
		amps[k] = mathutil.CICCompensation(f, p.Stages, p.DecimationFactor, p.DifferentialDelay)
	}

	window := KaiserWindow(p.NumTaps, mathutil.KaiserBeta(p.Attenuation))
	center := float64(p.NumTaps-1) / 2
	basis := make([]float64, designGridPoints)
	h := make([]float64, p.NumTaps)
	for n := range h {
		x := float64(n) - center
		for k, f := range freqs {
			basis[k] = math.Cos(2 * math.Pi * f * x)
		}
		h[n] = 2 * df * f64.DotProduct(amps, basis) * window[n]
	}
	normalize(h, 1)
	return h, nil
}

// DesignHalfband designs a numTaps-long filter with every odd tap zero by
// zero-stuffing a (numTaps+1)/2-tap lowpass prototype: H(z) = G(z²).
// cutoff is the prototype cutoff; the response is 1 at DC.
func DesignHalfband(numTaps int, cutoff, attenuation float64) ([]float64, error) {
	if numTaps < 5 || numTaps%halfbandTapModulus != 1 {
		return nil, fmt.Errorf("%w: halfband taps must be 1 mod 4 and at least 5, got %d", ErrInvalidConfig, numTaps)
	}
	proto, err := DesignLowPass(LowPassParams{
		NumTaps:     (numTaps + 1) / 2,
		Cutoff:      cutoff,
		Attenuation: attenuation,
		Gain:        1,
	})
	if err != nil {
		return nil, err
	}
	h := make([]float64, numTaps)
	for i, g := range proto {
		h[halfbandStride*i] = g
	}
	return h, nil
}

// Quantize rounds coefficients to Q(fracBits) integers saturated to width
// bits.
func Quantize(coeffs []float64, fracBits, width int) []int64 {
	scale := math.Ldexp(1, fracBits)
	out := make([]int64, len(coeffs))
	for i, c := range coeffs {
		out[i], _, _ = fixedpoint.Saturate(int64(math.Round(c*scale)), width)
	}
	return out
}

// Words encodes signed coefficients as register words holding the low
// width bits in two's complement.
func Words(coeffs []int64, width int) []uint32 {
	out := make([]uint32, len(coeffs))
	for i, c := range coeffs {
		out[i] = uint32(fixedpoint.Truncate(c, width))
	}
	return out
}

// normalize scales h so its coefficients sum to gain.
func normalize(h []float64, gain float64) {
	sum := f64.Sum(h)
	if math.Abs(sum) > gainThreshold {
		f64.Scale(h, h, gain/sum)
	}
}
