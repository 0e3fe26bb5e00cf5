package csr

// Default coefficient banks loaded by Reset, Q16 in 18-bit words.
//
// The FIR bank is a 64-tap CIC droop compensator for N=5, D=64, M=1 with a
// passband edge at 0.25 of the CIC output rate and a 60 dB Kaiser window.
// The halfband bank is a 17-tap Kaiser lowpass (cutoff 0.25, 60 dB)
// zero-stuffed onto the even taps, so every odd tap is zero.
// Both were produced by filter.DesignCompensator / filter.DesignHalfband
// followed by filter.Quantize.
var (
	defaultFIR = [FIRWordCount]int32{
		-16, -27, 38, 56, -72, -100, 123, 164,
		-193, -253, 289, 372, -416, -530, 580, 738,
		-793, -1011, 1066, 1374, -1423, -1870, 1901, 2584,
		-2569, -3706, 3578, 5766, -5282, -10827, 8307, 34919,
		34919, 8307, -10827, -5282, 5766, 3578, -3706, -2569,
		2584, 1901, -1870, -1423, 1374, 1066, -1011, -793,
		738, 580, -530, -416, 372, 289, -253, -193,
		164, 123, -100, -72, 56, 38, -27, -16,
	}

	defaultHalfband = [HalfbandWordCount]int32{
		0, 0, -240, 0, 0, 0, 1378, 0, 0, 0, -4791,
		0, 0, 0, 20039, 0, 32767, 0, 20039, 0, 0, 0,
		-4791, 0, 0, 0, 1378, 0, 0, 0, -240, 0, 0,
	}
)

// DefaultFIRCoefficients returns a copy of the reset FIR bank.
func DefaultFIRCoefficients() []int32 {
	out := make([]int32, FIRWordCount)
	copy(out, defaultFIR[:])
	return out
}

// DefaultHalfbandCoefficients returns a copy of the reset halfband bank.
func DefaultHalfbandCoefficients() []int32 {
	out := make([]int32, HalfbandWordCount)
	copy(out, defaultHalfband[:])
	return out
}
