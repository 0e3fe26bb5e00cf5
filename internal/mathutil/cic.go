package mathutil

import "math"

// CICMagnitude returns the normalised magnitude response of an N-stage CIC
// decimator with rate change D and differential delay M at frequency f,
// given as a fraction of the input sample rate:
//
//	|H(f)| = |sin(π f D M) / (D M sin(π f))|^N
//
// The response is 1 at DC.
func CICMagnitude(f float64, stages, decimation, delay int) float64 {
	dm := float64(decimation * delay)
	x := math.Pi * f
	if math.Abs(math.Sin(x)) < sincZeroThreshold {
		return 1
	}
	h := math.Sin(x*dm) / (dm * math.Sin(x))
	return math.Pow(math.Abs(h), float64(stages))
}

// CICCompensation returns the inverse CIC droop at frequency f, where f is a
// fraction of the CIC output rate. Near the CIC nulls the inverse is clamped
// to maxCompensationGain.
func CICCompensation(f float64, stages, decimation, delay int) float64 {
	h := CICMagnitude(f/float64(decimation), stages, decimation, delay)
	if h < 1/maxCompensationGain {
		return maxCompensationGain
	}
	return 1 / h
}

// Sinc is the normalised sinc function sin(πx)/(πx).
func Sinc(x float64) float64 {
	if math.Abs(x) < sincZeroThreshold {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}
