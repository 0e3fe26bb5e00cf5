package cic

// Reference parameters.
const (
	DefaultStages            = 5
	DefaultDecimationFactor  = 64
	DefaultDifferentialDelay = 1
	DefaultInputWidth        = 16
	DefaultAccumulatorWidth  = 32
)

// Validation limits.
const (
	// MaxStages bounds N so the integrator and comb masks fit their 16-bit
	// halves of the stage status word.
	MaxStages = 16

	// MaxDifferentialDelay bounds the per-comb history length.
	MaxDifferentialDelay = 64

	// MaxDecimationFactor bounds D at the stage level. The pipeline applies
	// its own, tighter range.
	MaxDecimationFactor = 1 << 16
)

// Stage status word layout: integrator saturation bits in the low half,
// comb saturation bits in the high half.
const (
	integratorMaskShift = 0
	combMaskShift       = 16
)
