// Package testutil provides assertion helpers shared by the decimator tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Number covers the coefficient and sample representations used in tests.
type Number interface {
	~int32 | ~int64 | ~float64
}

// AssertSymmetric verifies s[i] == s[n-1-i] within tolerance.
func AssertSymmetric[T Number](t *testing.T, s []T, tolerance float64) bool {
	t.Helper()
	n := len(s)
	for i := range n / 2 {
		j := n - 1 - i
		if !assert.InDelta(t, float64(s[i]), float64(s[j]), tolerance,
			"not symmetric: s[%d]=%v != s[%d]=%v", i, s[i], j, s[j]) {
			return false
		}
	}
	return true
}

// AssertOddTapsZero verifies that every odd-index element is zero.
func AssertOddTapsZero[T Number](t *testing.T, s []T) bool {
	t.Helper()
	for i := 1; i < len(s); i += 2 {
		if s[i] != 0 {
			return assert.Fail(t, "odd tap nonzero", "s[%d]=%v", i, s[i])
		}
	}
	return true
}

// AssertWithinWidth verifies every value fits a signed width-bit integer.
func AssertWithinWidth(t *testing.T, s []int64, width int) bool {
	t.Helper()
	lo := -(int64(1) << (width - 1))
	hi := int64(1)<<(width-1) - 1
	for i, v := range s {
		if v < lo || v > hi {
			return assert.Fail(t, "value outside width",
				"s[%d]=%d outside [%d, %d] (%d bits)", i, v, lo, hi, width)
		}
	}
	return true
}

// AssertDCGain verifies that the coefficient sum, scaled by 2^-fracBits,
// equals the expected gain.
func AssertDCGain[T Number](t *testing.T, coeffs []T, fracBits int, expected, tolerance float64) bool {
	t.Helper()
	var sum float64
	for _, c := range coeffs {
		sum += float64(c)
	}
	sum /= math.Ldexp(1, fracBits)
	return assert.InDelta(t, expected, sum, tolerance, "DC gain = %f, want %f", sum, expected)
}

// AssertNoNaNOrInf verifies that no element is NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return assert.Fail(t, "non-finite value", "s[%d]=%v", i, v)
		}
	}
	return true
}

// AssertRelativeError verifies |actual-expected|/|expected| <= tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	rel := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, rel, tolerance,
		"relative error %e exceeds %e (expected=%f, actual=%f)", rel, tolerance, expected, actual)
}

// AssertCenterIsMax verifies that the middle element is the largest.
func AssertCenterIsMax[T Number](t *testing.T, s []T) bool {
	t.Helper()
	if len(s) == 0 {
		return assert.Fail(t, "empty slice")
	}
	c := len(s) / 2
	for i, v := range s {
		if v > s[c] {
			return assert.Fail(t, "center is not max", "s[%d]=%v > s[%d]=%v", i, v, c, s[c])
		}
	}
	return true
}

// Constant returns n copies of v.
func Constant(n int, v int64) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
