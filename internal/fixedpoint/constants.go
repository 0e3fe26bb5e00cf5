package fixedpoint

// Width limits for int64-backed fixed-point values.
const (
	// MinWidth is the narrowest supported signed width (sign bit + one magnitude bit).
	MinWidth = 2

	// MaxWidth is the widest width that still leaves int64 headroom for one
	// addition without wrapping the native type.
	MaxWidth = 63

	// maxMagnitude is the largest product magnitude representable in int64.
	// Negative products may reach -2^63 but every supported width clamps
	// well inside that, so the asymmetric extra value is not needed.
	maxMagnitude = 1<<63 - 1
)
