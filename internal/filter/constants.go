package filter

// Reference FIR compensator parameters.
const (
	DefaultFIRTaps       = 64
	DefaultFIRInputWidth = 32
	DefaultCoeffWidth    = 18
	DefaultCoeffFracBits = 16
	DefaultOutputWidth   = 24
)

// Reference halfband parameters.
const (
	DefaultHalfbandTaps       = 33
	DefaultHalfbandInputWidth = 24
)

// Validation limits.
const (
	minTaps            = 1
	maxTaps            = 1024
	minWidth           = 2
	maxAccumulatorBits = 63
)

// halfbandStride is the tap step of the halfband MAC: odd taps are skipped.
const halfbandStride = 2
