// Package pipeline chains sample-clocked processing stages.
//
// Every stage is advanced once per tick in upstream-to-downstream order.
// A stage's output in a tick is offered to the next stage in the same tick
// through a small queue, so samples drained during a stall are held rather
// than dropped.
package pipeline

import (
	"errors"

	"github.com/tphakala/go-adc-decimator/internal/status"
)

// ErrNoStages is returned when a pipeline is built without stages.
var ErrNoStages = errors.New("pipeline: at least one stage is required")

// Sample is one transfer on a streaming interface.
type Sample struct {
	Value int64
	Valid bool
}

// Stage is a single sample-clocked processing stage.
type Stage interface {
	// Tick advances the stage by one clock. in is consumed only when accept
	// is high. A low enable disables the stage and zeroes its state.
	Tick(in Sample, enable, accept bool) Sample

	// Busy reports whether the stage will refuse input on the next tick.
	Busy() bool

	// Flags returns the status flags computed on the last tick.
	Flags() status.Flags

	// StageStatus returns the stage-specific status word from the last tick.
	StageStatus() uint32

	// Reset clears all state and disables the stage.
	Reset()

	// GetName returns a short stage identifier.
	GetName() string

	// GetRatio returns the output/input sample ratio.
	GetRatio() float64

	// GetLatency returns the stage latency in its own input samples.
	GetLatency() int
}

// Result describes one pipeline tick.
type Result struct {
	// Output is the final stage's output.
	Output Sample

	// Accepted reports whether the pipeline input was consumed.
	Accepted bool

	// Stalled reports whether a busy stage held the pipeline this tick.
	Stalled bool

	// Taps holds each stage's output for this tick. The slice is reused and
	// is only valid until the next Tick.
	Taps []Sample
}

// Pipeline is a chain of stages. It is not safe for concurrent use.
type Pipeline struct {
	stages []Stage
	queues []*RingBuffer[int64] // queues[i] feeds stages[i+1]
	taps   []Sample
}

// New creates a pipeline from upstream to downstream.
func New(stages ...Stage) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}
	p := &Pipeline{
		stages: stages,
		queues: make([]*RingBuffer[int64], len(stages)-1),
		taps:   make([]Sample, len(stages)),
	}
	for i := range p.queues {
		p.queues[i] = NewRingBuffer[int64](interStageCapacity)
	}
	return p, nil
}

// Ready reports whether the pipeline input will be accepted on the next tick.
func (p *Pipeline) Ready() bool {
	return !p.Busy()
}

// Busy reports whether any stage is busy.
func (p *Pipeline) Busy() bool {
	for _, s := range p.stages {
		if s.Busy() {
			return true
		}
	}
	return false
}

// Tick advances every stage once. When any stage is busy no stage accepts
// input; registered outputs still drain into the inter-stage queues.
func (p *Pipeline) Tick(in Sample, enable bool) Result {
	stall := p.Busy()
	accept := enable && !stall

	if !enable {
		for _, q := range p.queues {
			q.Clear()
		}
	}

	res := Result{
		Accepted: accept && in.Valid,
		Stalled:  stall,
		Taps:     p.taps,
	}

	carry := in
	for i, s := range p.stages {
		input := carry
		if i > 0 {
			q := p.queues[i-1]
			if enable && carry.Valid {
				q.Write(carry.Value)
			}
			input = Sample{}
			if accept {
				if v, ok := q.Pop(); ok {
					input = Sample{Value: v, Valid: true}
				}
			}
		}
		carry = s.Tick(input, enable, accept)
		p.taps[i] = carry
	}

	res.Output = carry
	return res
}

// Pending returns the number of samples held between stages.
func (p *Pipeline) Pending() int {
	n := 0
	for _, q := range p.queues {
		n += q.Available()
	}
	return n
}

// Reset resets every stage and drops queued samples.
func (p *Pipeline) Reset() {
	for _, s := range p.stages {
		s.Reset()
	}
	for _, q := range p.queues {
		q.Clear()
	}
	clear(p.taps)
}

// Flags returns each stage's flags from the last tick.
func (p *Pipeline) Flags() []status.Flags {
	out := make([]status.Flags, len(p.stages))
	for i, s := range p.stages {
		out[i] = s.Flags()
	}
	return out
}

// GetTotalRatio returns the product of the stage ratios.
func (p *Pipeline) GetTotalRatio() float64 {
	r := 1.0
	for _, s := range p.stages {
		r *= s.GetRatio()
	}
	return r
}

// GetTotalLatency returns the pipeline latency in input samples.
func (p *Pipeline) GetTotalLatency() int {
	total := 0.0
	cumulative := 1.0
	for _, s := range p.stages {
		total += float64(s.GetLatency()) / cumulative
		cumulative *= s.GetRatio()
	}
	return int(total)
}
