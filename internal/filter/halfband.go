package filter

import (
	"github.com/tphakala/go-adc-decimator/internal/pipeline"
	"github.com/tphakala/go-adc-decimator/internal/status"
)

// Halfband is a fixed-point FIR whose odd-index taps are structurally zero.
// The MAC visits even taps only. Loading a nonzero odd tap is not blocked;
// it raises OddTapNonzero on the tick the bank latches and the value is
// ignored by the MAC. Banks only latch while the stage is enabled, so an odd
// tap written while disabled is flagged on the first enabled tick, when the
// register file is loaded. It is not safe for concurrent use.
type Halfband struct {
	core

	decimate bool
	phase    bool // true when the next result is dropped
}

// NewHalfband creates a halfband stage. The stage starts disabled with a
// zero bank.
func NewHalfband(cfg HalfbandConfig) (*Halfband, error) {
	c, err := newCore(cfg.Config, halfbandStride)
	if err != nil {
		return nil, err
	}
	return &Halfband{core: c, decimate: cfg.DecimateByTwo}, nil
}

// Tick advances the stage by one clock. The result of an accepted input is
// returned on the following tick. With DecimateByTwo every second result is
// discarded.
func (h *Halfband) Tick(in pipeline.Sample, enable, accept bool) pipeline.Sample {
	if !enable {
		h.reset()
		h.phase = false
		return pipeline.Sample{}
	}
	h.enabled = true

	latching := h.pending != nil && OddTapsNonzero(h.pending)
	out, flags, evaluated := h.step(in, accept)
	if latching {
		flags |= status.OddTapNonzero
	}
	h.flags = flags

	if h.decimate && evaluated {
		if h.phase {
			h.out = pipeline.Sample{}
		}
		h.phase = !h.phase
	}
	return out
}

// Reset zeroes all state and disables the stage.
func (h *Halfband) Reset() {
	h.reset()
	h.phase = false
}

// OddTapsNonzero reports whether any odd-index coefficient is nonzero.
func OddTapsNonzero(coeffs []int64) bool {
	for i := 1; i < len(coeffs); i += 2 {
		if coeffs[i] != 0 {
			return true
		}
	}
	return false
}

// GetName returns the stage name.
func (h *Halfband) GetName() string { return "halfband" }

// GetRatio returns 0.5 with DecimateByTwo, otherwise 1.
func (h *Halfband) GetRatio() float64 {
	if h.decimate {
		return 0.5
	}
	return 1
}

// GetLatency returns the linear-phase group delay plus the output register.
func (h *Halfband) GetLatency() int { return (h.cfg.NumTaps-1)/2 + 1 }

var _ pipeline.Stage = (*Halfband)(nil)
