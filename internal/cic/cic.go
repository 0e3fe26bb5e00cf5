// Package cic implements a fixed-point Cascaded-Integrator-Comb decimator.
//
// The stage runs N saturating integrators at the input rate, gates every D-th
// accepted sample through N saturating combs with differential delay M, and
// emits one output per D accepted inputs. Integrators and combs are double
// buffered: every stage reads its predecessor's register from the previous
// evaluation, never the value computed in the same evaluation.
package cic

import (
	"github.com/tphakala/go-adc-decimator/internal/fixedpoint"
	"github.com/tphakala/go-adc-decimator/internal/pipeline"
	"github.com/tphakala/go-adc-decimator/internal/status"
)

// Stage is a CIC decimator. It is not safe for concurrent use.
type Stage struct {
	cfg Config

	integ     []int64   // integrator registers
	integNext []int64   // scratch for double-buffered commit
	comb      []int64   // comb output registers
	combNext  []int64   // scratch for double-buffered commit
	history   [][]int64 // per-comb delay line of length M, newest first
	counter   int

	enabled bool
	busy    bool         // busy for the upcoming tick
	pending status.Flags // flags raised between ticks, reported on the next tick

	flags status.Flags
	mask  uint32
}

// New creates a CIC stage. The stage starts disabled with all state zeroed.
func New(cfg Config) (*Stage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Stage{cfg: cfg}
	s.allocate()
	return s, nil
}

func (s *Stage) allocate() {
	n := s.cfg.Stages
	s.integ = make([]int64, n)
	s.integNext = make([]int64, n)
	s.comb = make([]int64, n)
	s.combNext = make([]int64, n)
	s.history = make([][]int64, n)
	for k := range s.history {
		s.history[k] = make([]int64, s.cfg.DifferentialDelay)
	}
	s.counter = 0
}

// clear zeroes every register without reallocating.
func (s *Stage) clear() {
	clear(s.integ)
	clear(s.comb)
	for _, h := range s.history {
		clear(h)
	}
	s.counter = 0
}

// Tick advances the stage by one clock.
//
// When enable is low the stage is disabled and all state is zeroed. When
// accept is high and in is valid, the sample is integrated. The returned
// sample is valid exactly on the tick the decimation counter wraps.
func (s *Stage) Tick(in pipeline.Sample, enable, accept bool) pipeline.Sample {
	flags := s.pending
	s.pending = 0
	s.mask = 0

	wasBusy := s.busy
	s.busy = false

	if !enable {
		if s.enabled {
			s.clear()
		}
		s.enabled = false
		s.flags = flags
		return pipeline.Sample{}
	}
	s.enabled = true
	flags |= status.Active
	if wasBusy {
		flags |= status.Busy
	}

	var out pipeline.Sample
	if accept && in.Valid && !wasBusy {
		flags |= s.integrate(in.Value)
		if s.counter == s.cfg.DecimationFactor-1 {
			s.counter = 0
			flags |= s.decimate()
			out = pipeline.Sample{Value: s.comb[s.cfg.Stages-1], Valid: true}
		} else {
			s.counter++
		}
	}

	s.flags = flags
	return out
}

// integrate runs one input through the integrator chain.
func (s *Stage) integrate(x int64) status.Flags {
	w := s.cfg.AccumulatorWidth
	x = fixedpoint.SignExtend(x, s.cfg.InputWidth)

	var flags status.Flags
	for k := range s.integ {
		operand := x
		if k > 0 {
			operand = s.integ[k-1]
		}
		v, ovf, udf := s.add(s.integ[k], operand, w)
		s.integNext[k] = v
		if ovf || udf {
			s.mask |= 1 << (integratorMaskShift + k)
			flags |= status.Saturation(ovf, udf)
		}
	}
	copy(s.integ, s.integNext)
	return flags
}

// add applies the configured overflow policy. Register values never exceed
// MaxWidth bits, so negation and the native sum cannot wrap int64.
func (s *Stage) add(a, b int64, w int) (int64, bool, bool) {
	if s.cfg.Wraparound {
		return fixedpoint.SignExtend(a+b, w), false, false
	}
	return fixedpoint.SaturatingAdd(a, b, w)
}

// decimate runs the comb chain on a decimation pulse.
func (s *Stage) decimate() status.Flags {
	w := s.cfg.AccumulatorWidth
	last := s.cfg.DifferentialDelay - 1

	var flags status.Flags
	for k := range s.comb {
		in := s.integ[s.cfg.Stages-1]
		if k > 0 {
			in = s.comb[k-1]
		}
		h := s.history[k]
		v, ovf, udf := s.add(in, -h[last], w)
		s.combNext[k] = v
		if ovf || udf {
			s.mask |= 1 << (combMaskShift + k)
			flags |= status.Saturation(ovf, udf)
		}
		copy(h[1:], h[:last])
		h[0] = in
	}
	copy(s.comb, s.combNext)
	return flags
}

// Reconfigure changes D and M at runtime. On success all state is zeroed
// and the stage reports busy for the next tick. On failure the stage is
// unchanged and InvalidConfig is reported on the next tick.
func (s *Stage) Reconfigure(decimation, delay int) error {
	if err := validateRate(decimation, delay); err != nil {
		s.pending |= status.InvalidConfig
		return err
	}
	s.cfg.DecimationFactor = decimation
	s.cfg.DifferentialDelay = delay
	s.allocate()
	s.busy = true
	return nil
}

// Reset returns the stage to the disabled state with all state zeroed.
func (s *Stage) Reset() {
	s.clear()
	s.enabled = false
	s.busy = false
	s.pending = 0
	s.flags = 0
	s.mask = 0
}

// Busy reports whether the stage will refuse input on the next tick.
func (s *Stage) Busy() bool { return s.busy }

// Enabled reports whether the stage was enabled on the last tick.
func (s *Stage) Enabled() bool { return s.enabled }

// Flags returns the status flags from the last tick.
func (s *Stage) Flags() status.Flags { return s.flags }

// StageStatus returns the per-register saturation mask from the last tick:
// bit k for integrator k, bit 16+k for comb k.
func (s *Stage) StageStatus() uint32 { return s.mask }

// GetConfig returns the active configuration.
func (s *Stage) GetConfig() Config { return s.cfg }

// GetName returns the stage name.
func (s *Stage) GetName() string { return "cic" }

// GetRatio returns the output/input rate ratio.
func (s *Stage) GetRatio() float64 { return 1 / float64(s.cfg.DecimationFactor) }

// GetLatency returns the group delay in input samples, N*(D*M-1)/2.
func (s *Stage) GetLatency() int {
	return s.cfg.Stages * (s.cfg.DecimationFactor*s.cfg.DifferentialDelay - 1) / 2
}

// Counter exposes the decimation counter for inspection.
func (s *Stage) Counter() int { return s.counter }

var _ pipeline.Stage = (*Stage)(nil)
