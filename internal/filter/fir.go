// Package filter implements the fixed-point FIR stages of the decimator
// (CIC compensator and halfband), their delay line and coefficient bank,
// and the floating-point designer that produces default coefficient words.
package filter

import (
	"github.com/tphakala/go-adc-decimator/internal/fixedpoint"
	"github.com/tphakala/go-adc-decimator/internal/pipeline"
	"github.com/tphakala/go-adc-decimator/internal/status"
)

// core is the structure shared by FIR and Halfband: a delay line, a latched
// coefficient bank, and a registered output.
type core struct {
	cfg    Config
	stride int

	delay   *DelayLine
	coeffs  []int64
	pending []int64 // bank waiting to latch at the start of the next tick

	out     pipeline.Sample // registered result, presented on the next tick
	enabled bool

	flags     status.Flags
	saturated uint32 // saturated products on the last evaluation
}

func newCore(cfg Config, stride int) (core, error) {
	if err := cfg.Validate(); err != nil {
		return core{}, err
	}
	return core{
		cfg:    cfg,
		stride: stride,
		delay:  NewDelayLine(cfg.NumTaps),
		coeffs: make([]int64, cfg.NumTaps),
	}, nil
}

// UpdateCoefficients stages a new coefficient bank. Only the low
// CoeffWidth bits of each word are used, read as two's complement. Missing
// words load as zero; extra words are ignored. The bank latches at the
// start of the next enabled tick, before that tick's evaluation, and the
// stage reports CoeffUpdate (coefficient-ready low) for that tick.
func (c *core) UpdateCoefficients(words []uint32) {
	bank := make([]int64, c.cfg.NumTaps)
	for i := range min(len(words), len(bank)) {
		bank[i] = fixedpoint.SignExtend(int64(words[i]), c.cfg.CoeffWidth)
	}
	c.pending = bank
}

// step runs one enabled tick and returns the previously registered output.
func (c *core) step(in pipeline.Sample, accept bool) (pipeline.Sample, status.Flags, bool) {
	flags := status.Active
	if c.pending != nil {
		c.coeffs = c.pending
		c.pending = nil
		flags |= status.CoeffUpdate
	}

	out := c.out
	c.out = pipeline.Sample{}
	c.saturated = 0

	evaluated := false
	if accept && in.Valid {
		c.delay.Push(in.Value)
		v, f := c.mac()
		flags |= f
		c.out = pipeline.Sample{Value: v, Valid: true}
		evaluated = true
	}
	return out, flags, evaluated
}

// mac computes one output from the delay line and the latched bank.
func (c *core) mac() (int64, status.Flags) {
	pw := c.cfg.ProductWidth()

	var acc int64
	var flags status.Flags
	for i := 0; i < len(c.coeffs); i += c.stride {
		p, ovf, udf := fixedpoint.SaturatingMultiply(c.delay.At(i), c.coeffs[i], pw)
		if ovf || udf {
			c.saturated++
			flags |= status.Saturation(ovf, udf)
		}
		acc += p
	}

	v, ovf, udf := fixedpoint.Saturate(acc>>c.cfg.CoeffFracBits, c.cfg.OutputWidth)
	return v, flags | status.Saturation(ovf, udf)
}

// reset zeroes the delay line, the bank and the output register, and
// drops any staged update. Disabling a stage has the same effect.
func (c *core) reset() {
	c.delay.Clear()
	clear(c.coeffs)
	c.pending = nil
	c.out = pipeline.Sample{}
	c.enabled = false
	c.flags = 0
	c.saturated = 0
}

// Coefficients returns a copy of the latched bank.
func (c *core) Coefficients() []int64 {
	out := make([]int64, len(c.coeffs))
	copy(out, c.coeffs)
	return out
}

// Busy reports whether the stage will refuse input on the next tick. Bank
// updates latch ahead of the evaluation, so a filter stage never stalls.
func (c *core) Busy() bool { return false }

// Enabled reports whether the stage was enabled on the last tick.
func (c *core) Enabled() bool { return c.enabled }

// Flags returns the status flags from the last tick.
func (c *core) Flags() status.Flags { return c.flags }

// StageStatus returns the number of saturated tap products on the last tick.
func (c *core) StageStatus() uint32 { return c.saturated }

// GetConfig returns the stage configuration.
func (c *core) GetConfig() Config { return c.cfg }

// Delay returns a snapshot of the delay line, newest first.
func (c *core) Delay() []int64 { return c.delay.Snapshot() }

// FIR is a symmetric-capable fixed-point FIR producing one output per input.
// It is not safe for concurrent use.
type FIR struct {
	core
}

// NewFIR creates a FIR stage. The stage starts disabled with a zero bank.
func NewFIR(cfg Config) (*FIR, error) {
	c, err := newCore(cfg, 1)
	if err != nil {
		return nil, err
	}
	return &FIR{core: c}, nil
}

// Tick advances the stage by one clock. The result of an accepted input is
// returned on the following tick.
func (f *FIR) Tick(in pipeline.Sample, enable, accept bool) pipeline.Sample {
	if !enable {
		f.reset()
		return pipeline.Sample{}
	}
	f.enabled = true
	out, flags, _ := f.step(in, accept)
	f.flags = flags
	return out
}

// Reset zeroes all state and disables the stage.
func (f *FIR) Reset() { f.reset() }

// GetName returns the stage name.
func (f *FIR) GetName() string { return "fir" }

// GetRatio returns 1: the FIR does not change the rate.
func (f *FIR) GetRatio() float64 { return 1 }

// GetLatency returns the linear-phase group delay plus the output register.
func (f *FIR) GetLatency() int { return (f.cfg.NumTaps-1)/2 + 1 }

var _ pipeline.Stage = (*FIR)(nil)
