// Package fixedpoint provides saturating arithmetic over explicit-width
// signed integers.
//
// All values are carried in int64 regardless of the declared width. A width
// describes the two's complement range [-2^(width-1), 2^(width-1)-1] that a
// result must fit after the operation; results outside that range are
// clamped to the nearest bound and the bound that was hit is reported.
//
// Clamping is the only recovery mechanism at this layer. None of the
// functions in this package panic or return errors on the data path.
package fixedpoint

import "math/bits"

// Bounds returns the inclusive signed range representable in width bits.
// Widths outside [MinWidth, MaxWidth] are clamped into that range.
func Bounds(width int) (lo, hi int64) {
	width = clampWidth(width)
	hi = int64(1)<<(width-1) - 1
	lo = -hi - 1
	return lo, hi
}

// Saturate clamps v into the range of a width-bit signed integer.
// At most one of overflow/underflow is true.
func Saturate(v int64, width int) (result int64, overflow, underflow bool) {
	lo, hi := Bounds(width)
	switch {
	case v > hi:
		return hi, true, false
	case v < lo:
		return lo, false, true
	default:
		return v, false, false
	}
}

// SaturatingAdd returns a+b clamped to width bits.
func SaturatingAdd(a, b int64, width int) (sum int64, overflow, underflow bool) {
	s := a + b
	// Signed overflow of the int64 intermediate: both operands share a sign
	// that differs from the result.
	if (a^s)&(b^s) < 0 {
		if a < 0 {
			lo, _ := Bounds(width)
			return lo, false, true
		}
		_, hi := Bounds(width)
		return hi, true, false
	}
	return Saturate(s, width)
}

// SaturatingSub returns a-b clamped to width bits.
func SaturatingSub(a, b int64, width int) (diff int64, overflow, underflow bool) {
	d := a - b
	if (a^b)&(a^d) < 0 {
		if a < 0 {
			lo, _ := Bounds(width)
			return lo, false, true
		}
		_, hi := Bounds(width)
		return hi, true, false
	}
	return Saturate(d, width)
}

// SaturatingMultiply returns a*b clamped to widthOut bits.
func SaturatingMultiply(a, b int64, widthOut int) (product int64, overflow, underflow bool) {
	if a == 0 || b == 0 {
		return 0, false, false
	}

	negative := (a < 0) != (b < 0)
	hiWord, loWord := bits.Mul64(absUint(a), absUint(b))
	if hiWord != 0 || loWord > maxMagnitude {
		// Magnitude does not fit int64; only the sign matters for clamping.
		lo, hi := Bounds(widthOut)
		if negative {
			return lo, false, true
		}
		return hi, true, false
	}

	p := int64(loWord)
	if negative {
		p = -p
	}
	return Saturate(p, widthOut)
}

// SignExtend interprets the low width bits of v as a two's complement value.
func SignExtend(v int64, width int) int64 {
	width = clampWidth(width)
	shift := 64 - uint(width)
	return (v << shift) >> shift
}

// Truncate keeps the low width bits of v as an unsigned pattern.
func Truncate(v int64, width int) uint64 {
	width = clampWidth(width)
	return uint64(v) & (uint64(1)<<uint(width) - 1)
}

// InRange reports whether v fits width bits without clamping.
func InRange(v int64, width int) bool {
	lo, hi := Bounds(width)
	return v >= lo && v <= hi
}

// CeilLog2 returns the smallest k with 2^k >= n. CeilLog2(1) is 0.
func CeilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len64(uint64(n - 1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func absUint(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}

func clampWidth(width int) int {
	if width < MinWidth {
		return MinWidth
	}
	if width > MaxWidth {
		return MaxWidth
	}
	return width
}
