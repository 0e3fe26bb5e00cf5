// Package status defines the per-tick status flags shared by the decimation
// stages, the error-type precedence used for reporting, and the packing of
// the CSR status byte.
package status

import "strings"

// Flags is a bitfield describing what happened during the most recent tick.
// Flags carry no memory: every tick recomputes them from scratch.
type Flags uint16

const (
	// Overflow is set when any saturating operation clamped to the positive bound.
	Overflow Flags = 1 << iota

	// Underflow is set when any saturating operation clamped to the negative bound.
	Underflow

	// Active is set while the stage is enabled.
	Active

	// Busy is set while the stage cannot accept new input.
	Busy

	// CoeffUpdate is set while a coefficient bank update is in progress.
	CoeffUpdate

	// InvalidConfig is set when a configuration request was rejected.
	InvalidConfig

	// CoeffRange is set when a coefficient word did not fit the coefficient width.
	CoeffRange

	// InvalidAddress is set when a CSR write targeted a reserved address.
	InvalidAddress

	// OddTapNonzero is set when a halfband odd-index coefficient was loaded
	// with a nonzero value. Advisory only.
	OddTapNonzero
)

// errorMask selects the flags that assert the aggregated error output.
// OddTapNonzero is advisory and does not assert the error output.
const errorMask = Overflow | Underflow | InvalidConfig | InvalidAddress | CoeffRange

// Has reports whether all bits in f are set.
func (s Flags) Has(f Flags) bool {
	return s&f == f
}

// Any reports whether at least one bit in f is set.
func (s Flags) Any(f Flags) bool {
	return s&f != 0
}

// Error reports whether any error-class flag is set.
func (s Flags) Error() bool {
	return s&errorMask != 0
}

// Saturation returns Overflow and/or Underflow as requested.
func Saturation(overflow, underflow bool) Flags {
	var f Flags
	if overflow {
		f |= Overflow
	}
	if underflow {
		f |= Underflow
	}
	return f
}

var flagNames = []struct {
	flag Flags
	name string
}{
	{Overflow, "overflow"},
	{Underflow, "underflow"},
	{Active, "active"},
	{Busy, "busy"},
	{CoeffUpdate, "coeff-update"},
	{InvalidConfig, "invalid-config"},
	{CoeffRange, "coeff-range"},
	{InvalidAddress, "invalid-address"},
	{OddTapNonzero, "odd-tap-nonzero"},
}

// String lists the set flags separated by '|', or "none".
func (s Flags) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if s&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}
