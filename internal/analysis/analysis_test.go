package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-adc-decimator/internal/csr"
	"github.com/tphakala/go-adc-decimator/internal/filter"
)

const (
	testFFTSize     = 4096
	testFracBits    = 16
	floatTolerance  = 1e-9
	passbandEdge    = 0.2
	maxRippleDB     = 0.25
	lowpassStopband = 0.35
)

func defaultFIR() []float64 {
	words := csr.DefaultFIRCoefficients()
	q := make([]int64, len(words))
	for i, w := range words {
		q[i] = int64(w)
	}
	return Dequantize(q, testFracBits)
}

func TestFrequencyResponse_Impulse(t *testing.T) {
	r, err := FrequencyResponse([]float64{1}, 64)
	require.NoError(t, err)
	require.Len(t, r.Magnitude, 33)
	for k, m := range r.Magnitude {
		assert.InDelta(t, 1.0, m, floatTolerance, "bin %d", k)
	}
	assert.InDelta(t, 0.5, r.Frequencies[32], floatTolerance)
}

func TestFrequencyResponse_DefaultSize(t *testing.T) {
	r, err := FrequencyResponse([]float64{0.5, 0.5}, 0)
	require.NoError(t, err)
	assert.Len(t, r.Magnitude, DefaultFFTSize/2+1)
	assert.InDelta(t, 1.0, r.At(0), floatTolerance)
	assert.InDelta(t, 0.0, r.At(0.5), floatTolerance, "two-tap average nulls at Nyquist")
}

func TestFrequencyResponse_InvalidSize(t *testing.T) {
	_, err := FrequencyResponse(make([]float64, 10), 100)
	require.ErrorIs(t, err, ErrInvalidSize)
	_, err = FrequencyResponse(make([]float64, 10), 8)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestLowPassStopband(t *testing.T) {
	h, err := filter.DesignLowPass(filter.LowPassParams{NumTaps: 31, Cutoff: 0.25, Attenuation: 60, Gain: 1})
	require.NoError(t, err)

	r, err := FrequencyResponse(h, testFFTSize)
	require.NoError(t, err)
	assert.Greater(t, r.StopbandAttenuation(lowpassStopband), 50.0)
	assert.Less(t, r.PassbandRipple(0.1), 0.1)
}

// TestCascadeResponse_DefaultBankIsFlat checks that the default compensator
// cancels the reference CIC droop across the passband.
func TestCascadeResponse_DefaultBankIsFlat(t *testing.T) {
	r, err := CascadeResponse(defaultFIR(), 5, 64, 1, testFFTSize)
	require.NoError(t, err)
	assert.Less(t, r.PassbandRipple(passbandEdge), maxRippleDB)

	plain, err := FrequencyResponse([]float64{1}, testFFTSize)
	require.NoError(t, err)
	cicOnly, err := CascadeResponse([]float64{1}, 5, 64, 1, testFFTSize)
	require.NoError(t, err)
	assert.Greater(t, cicOnly.PassbandRipple(passbandEdge), 2.0, "uncompensated droop")
	assert.Zero(t, plain.PassbandRipple(passbandEdge))
}

func TestDequantizeAndDCGain(t *testing.T) {
	got := Dequantize([]int64{1 << 16, -(1 << 15), 0}, testFracBits)
	assert.Equal(t, []float64{1, -0.5, 0}, got)
	assert.InDelta(t, 0.5, DCGain(got), floatTolerance)
	assert.InDelta(t, 1.0, DCGain(defaultFIR()), 1e-3)
}

func TestReferenceFIR(t *testing.T) {
	coeffs := []float64{0.25, 0.5, -0.125}
	impulse := []float64{1, 0, 0, 0}
	assert.Equal(t, []float64{0.25, 0.5, -0.125, 0}, ReferenceFIR(coeffs, impulse))

	step := ReferenceFIR(coeffs, []float64{2, 2, 2})
	assert.InDelta(t, 0.5, step[0], floatTolerance)
	assert.InDelta(t, 1.5, step[1], floatTolerance)
	assert.InDelta(t, 1.25, step[2], floatTolerance)

	assert.Empty(t, ReferenceFIR(nil, impulse))
}

func TestTone(t *testing.T) {
	x := Tone(8, 0.25, 2)
	assert.InDelta(t, 0, x[0], floatTolerance)
	assert.InDelta(t, 2, x[1], floatTolerance)
	assert.InDelta(t, 0, x[2], floatTolerance)
	assert.InDelta(t, -2, x[3], floatTolerance)
}

func TestRMSError(t *testing.T) {
	assert.Zero(t, RMSError(nil, nil))
	assert.InDelta(t, 1.0, RMSError([]float64{1, 1}, []float64{0, 2, 9}), floatTolerance)
}

func TestMagnitudeDB(t *testing.T) {
	assert.InDelta(t, 0.0, MagnitudeDB(1), floatTolerance)
	assert.InDelta(t, -20.0, MagnitudeDB(0.1), floatTolerance)
	assert.InDelta(t, -200.0, MagnitudeDB(0), floatTolerance)
	assert.False(t, math.IsInf(MagnitudeDB(-1), 0))
}
