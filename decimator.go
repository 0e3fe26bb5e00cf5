package decimator

import (
	"fmt"

	"github.com/tphakala/go-adc-decimator/internal/cic"
	"github.com/tphakala/go-adc-decimator/internal/csr"
	"github.com/tphakala/go-adc-decimator/internal/filter"
	"github.com/tphakala/go-adc-decimator/internal/pipeline"
	"github.com/tphakala/go-adc-decimator/internal/simdops"
	"github.com/tphakala/go-adc-decimator/internal/status"
)

// Flags is the per-tick status bitfield.
type Flags = status.Flags

// ErrorType is the single error code reported per tick.
type ErrorType = status.ErrorType

// Error type codes as reported at register 0x82.
const (
	ErrorNone           = status.ErrorNone
	ErrorOverflow       = status.ErrorOverflow
	ErrorUnderflow      = status.ErrorUnderflow
	ErrorInvalidConfig  = status.ErrorInvalidConfig
	ErrorInvalidAddress = status.ErrorInvalidAddress
	ErrorCoeffRange     = status.ErrorCoeffRange
)

// Register addresses.
const (
	AddrFIRBase      = csr.FIRBase
	AddrHalfbandBase = csr.HalfbandBase
	AddrStatus       = csr.AddrStatus
	AddrBusy         = csr.AddrBusy
	AddrErrorType    = csr.AddrErrorType
	AddrError        = csr.AddrError
)

// Write is a register write request.
type Write struct {
	Valid bool
	Addr  uint8
	Data  uint32
}

// Input holds everything presented to the decimator in one tick.
type Input struct {
	// Sample is the raw ADC word. Only the low CIC.InputWidth bits are used.
	Sample int64

	// Valid marks Sample as present.
	Valid bool

	// Enable drives every stage. A low enable zeroes all data-path state.
	Enable bool

	// Write is an optional register write, applied before the data path.
	Write Write
}

// Output holds everything the decimator reports for one tick.
type Output struct {
	// Sample is the halfband output, valid when Valid is set.
	Sample int64
	Valid  bool

	// Accepted reports whether the input sample was consumed this tick.
	Accepted bool

	// Ready reports whether an input sample will be accepted next tick.
	Ready bool

	// WriteAccepted reports whether the register write was taken this tick.
	// WriteReady reports whether a write will be taken next tick.
	WriteAccepted bool
	WriteReady    bool

	// Busy is set when any stage was busy this tick.
	Busy bool

	// Error is set when any error-class flag was raised this tick, and
	// ErrorType names the highest-precedence one.
	Error     bool
	ErrorType ErrorType

	// Status is the packed status byte, as read from register 0x80 after
	// this tick.
	Status uint8

	// Flags is the OR of every stage and register-file flag this tick.
	Flags Flags

	// CICStatus is the CIC saturation mask: bit k integrator k, bit 16+k comb k.
	// FIRStatus and HalfbandStatus count saturated tap products.
	CICStatus      uint32
	FIRStatus      uint32
	HalfbandStatus uint32
}

// Stats holds counters accumulated since construction or Reset.
type Stats struct {
	Ticks      uint64 // total ticks
	Accepted   uint64 // input samples consumed
	Outputs    uint64 // output samples produced
	StallTicks uint64 // ticks in which a busy stage held the pipeline
	ErrorTicks uint64 // ticks with the error output asserted
	Writes     uint64 // register writes accepted
}

// Info describes the active parameters.
type Info struct {
	Stages            int
	DecimationFactor  int
	DifferentialDelay int
	FIRTaps           int
	HalfbandTaps      int
	InputWidth        int
	AccumulatorWidth  int
	OutputWidth       int
	CoeffWidth        int
	CoeffFracBits     int
	TotalDecimation   float64
	InputRate         float64
	OutputRate        float64
	LatencySamples    int // group delay in input samples
	SIMD              string
}

// String returns a one-line summary.
func (i Info) String() string {
	return fmt.Sprintf("CIC N=%d D=%d M=%d, FIR %d taps, halfband %d taps, %d->%d bits, total 1/%g, latency %d samples, %s",
		i.Stages, i.DecimationFactor, i.DifferentialDelay, i.FIRTaps, i.HalfbandTaps,
		i.InputWidth, i.OutputWidth, 1/i.TotalDecimation, i.LatencySamples, i.SIMD)
}

// Decimator is the CIC, FIR and halfband cascade with its register file.
// It is not safe for concurrent use.
type Decimator struct {
	config *Config

	cic      *cic.Stage
	fir      *filter.FIR
	halfband *filter.Halfband
	pipe     *pipeline.Pipeline
	store    *csr.Store

	enabled   bool         // enable level seen on the last tick
	streaming bool         // enable level used by Process and Flush
	pending   status.Flags // flags raised between ticks by API calls

	fifo  *pipeline.RingBuffer[int64]
	stats Stats
}

// New creates a decimator. The register file holds the default banks and
// every stage starts disabled.
func New(config *Config) (*Decimator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cfg := config.Clone()

	cicStage, err := cic.New(cfg.CIC)
	if err != nil {
		return nil, fmt.Errorf("failed to create cic stage: %w", err)
	}
	firStage, err := filter.NewFIR(cfg.FIR)
	if err != nil {
		return nil, fmt.Errorf("failed to create fir stage: %w", err)
	}
	hbStage, err := filter.NewHalfband(cfg.Halfband)
	if err != nil {
		return nil, fmt.Errorf("failed to create halfband stage: %w", err)
	}
	pipe, err := pipeline.New(cicStage, firStage, hbStage)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	capacity := cfg.FIFOCapacity
	if capacity == 0 {
		capacity = defaultFIFOCapacity
	}

	return &Decimator{
		config:   cfg,
		cic:      cicStage,
		fir:      firStage,
		halfband: hbStage,
		pipe:     pipe,
		store:    csr.New(),
		fifo:     pipeline.NewRingBuffer[int64](capacity),
	}, nil
}

// Tick advances the decimator by one clock. Within a tick the register
// write is applied first, then CIC, FIR and halfband run in order, then
// coefficient writes are staged in the stages, and finally the status is
// latched for register reads. A bank written in tick t is used by every
// evaluation from tick t+1 on.
func (d *Decimator) Tick(in Input) Output {
	d.stats.Ticks++

	var out Output
	if in.Write.Valid {
		out.WriteAccepted = d.store.Write(in.Write.Addr, in.Write.Data)
		if out.WriteAccepted {
			d.stats.Writes++
		}
	}

	if in.Enable && !d.enabled {
		// Stages come up with empty banks; load the register file into both
		// ahead of this tick's evaluation. Writes made while disabled are
		// covered by this load.
		d.store.TakeUpdates()
		d.fir.UpdateCoefficients(d.store.FIRWords())
		d.halfband.UpdateCoefficients(d.store.HalfbandWords())
	}
	d.enabled = in.Enable

	res := d.pipe.Tick(pipeline.Sample{Value: in.Sample, Valid: in.Valid}, in.Enable)

	firDirty, hbDirty := d.store.TakeUpdates()
	if in.Enable {
		if firDirty {
			d.fir.UpdateCoefficients(d.store.FIRWords())
		}
		if hbDirty {
			d.halfband.UpdateCoefficients(d.store.HalfbandWords())
		}
	}

	snap := d.store.Tick(status.Snapshot{
		CIC:      d.cic.Flags(),
		FIR:      d.fir.Flags(),
		Halfband: d.halfband.Flags(),
		Store:    d.pending,
	})
	d.pending = 0

	out.Sample = res.Output.Value
	out.Valid = res.Output.Valid
	out.Accepted = res.Accepted
	out.Ready = d.pipe.Ready()
	out.WriteReady = d.store.WriteReady()
	out.Busy = snap.Busy()
	out.Error = snap.Error()
	out.ErrorType = snap.ErrorType()
	out.Status = snap.Byte()
	out.Flags = snap.Combined()
	out.CICStatus = d.cic.StageStatus()
	out.FIRStatus = d.fir.StageStatus()
	out.HalfbandStatus = d.halfband.StageStatus()

	d.record(res, out)
	return out
}

func (d *Decimator) record(res pipeline.Result, out Output) {
	if res.Accepted {
		d.stats.Accepted++
	}
	if out.Valid {
		d.stats.Outputs++
	}
	if res.Stalled {
		d.stats.StallTicks++
	}
	if out.Error {
		d.stats.ErrorTicks++
		if d.config.ErrorSink != nil {
			d.config.ErrorSink(out)
		}
	}
}

// RunTicks presents the same input for n ticks and returns the valid
// output samples.
func (d *Decimator) RunTicks(n int, in Input) []int64 {
	var samples []int64
	for range n {
		if out := d.Tick(in); out.Valid {
			samples = append(samples, out.Sample)
		}
	}
	return samples
}

// ReadCSR returns a register word. Status words reflect the last Tick.
func (d *Decimator) ReadCSR(addr uint8) uint32 {
	return d.store.Read(addr)
}

// WriteCSR spends one tick on a register write, with no input sample and
// the enable level unchanged. It reports whether the write was accepted;
// a write issued while write-ready is low is refused.
func (d *Decimator) WriteCSR(addr uint8, data uint32) bool {
	out := d.Tick(Input{Enable: d.enabled, Write: Write{Valid: true, Addr: addr, Data: data}})
	return out.WriteAccepted
}

// WriteReady reports whether a register write will be accepted next tick.
func (d *Decimator) WriteReady() bool {
	return d.store.WriteReady()
}

// DumpCSR returns every readable register word, 0x00 through 0x83.
func (d *Decimator) DumpCSR() []uint32 {
	return d.store.Dump()
}

// SetDecimation changes the CIC decimation factor and differential delay.
// On success the CIC state is zeroed and the pipeline stalls for one tick.
// A rejected request leaves the stage unchanged and raises InvalidConfig
// on the next tick.
func (d *Decimator) SetDecimation(factor, delay int) error {
	if err := validateDecimation(factor); err != nil {
		d.pending |= status.InvalidConfig
		return err
	}
	if err := d.cic.Reconfigure(factor, delay); err != nil {
		d.pending |= status.InvalidConfig
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	d.config.CIC = d.cic.GetConfig()
	return nil
}

// Enable raises the enable level used by Process and Flush.
func (d *Decimator) Enable() {
	d.streaming = true
}

// Disable lowers the streaming enable level and runs one disabled tick,
// which zeroes every stage. Buffered input is dropped.
func (d *Decimator) Disable() {
	d.streaming = false
	d.fifo.Clear()
	d.Tick(Input{})
}

// Enabled reports whether the stages were enabled on the last tick.
func (d *Decimator) Enabled() bool {
	return d.enabled
}

// Process streams samples through the valid/ready handshake and returns
// the outputs produced meanwhile. Samples refused during a stall stay in the
// input FIFO and are retried on the next tick.
func (d *Decimator) Process(input []int16) ([]int32, error) {
	if !d.streaming {
		return nil, ErrNotEnabled
	}
	words := make([]int64, len(input))
	for i, s := range input {
		words[i] = int64(s)
	}
	d.fifo.Write(words...)

	ratio := d.pipe.GetTotalRatio()
	output := make([]int32, 0, int(float64(d.fifo.Available())*ratio)+1)

	refused := 0
	for d.fifo.Available() > 0 {
		v, _ := d.fifo.Front()
		out := d.Tick(Input{Sample: v, Valid: true, Enable: true})
		if out.Valid {
			output = append(output, int32(out.Sample))
		}
		if !out.Accepted {
			refused++
			if refused > maxStallTicks {
				return output, fmt.Errorf("%w: %d consecutive refused ticks", ErrStalled, refused)
			}
			continue
		}
		refused = 0
		d.fifo.Pop()
	}
	return output, nil
}

// Flush runs idle ticks until every registered and queued sample has left
// the pipeline. Samples still integrating in the CIC are not emitted.
func (d *Decimator) Flush() ([]int32, error) {
	if !d.streaming {
		return nil, ErrNotEnabled
	}

	var output []int32
	idle := 0
	for range maxFlushTicks {
		out := d.Tick(Input{Enable: true})
		if out.Valid {
			output = append(output, int32(out.Sample))
			idle = 0
			continue
		}
		if d.pipe.Pending() > 0 || out.Busy {
			idle = 0
			continue
		}
		idle++
		if idle > stageCount+flushSettleTicks {
			return output, nil
		}
	}
	return output, fmt.Errorf("%w: flush did not settle", ErrStalled)
}

// Reset returns the decimator to its power-on state: stages disabled and
// zeroed, default banks loaded, statistics cleared. The streaming enable
// level is lowered as well.
func (d *Decimator) Reset() {
	d.pipe.Reset()
	d.store.Reset()
	d.fifo.Clear()
	d.enabled = false
	d.streaming = false
	d.pending = 0
	d.stats = Stats{}
}

// Stats returns the accumulated counters.
func (d *Decimator) Stats() Stats {
	return d.stats
}

// Coefficients returns the banks currently latched in the FIR and
// halfband stages.
func (d *Decimator) Coefficients() (fir, halfband []int64) {
	return d.fir.Coefficients(), d.halfband.Coefficients()
}

// GetRatio returns the overall output/input sample ratio.
func (d *Decimator) GetRatio() float64 {
	return d.pipe.GetTotalRatio()
}

// GetLatency returns the group delay in input samples.
func (d *Decimator) GetLatency() int {
	return d.pipe.GetTotalLatency()
}

// Info returns the active parameters.
func (d *Decimator) Info() Info {
	c := d.cic.GetConfig()
	ratio := d.GetRatio()
	return Info{
		Stages:            c.Stages,
		DecimationFactor:  c.DecimationFactor,
		DifferentialDelay: c.DifferentialDelay,
		FIRTaps:           d.config.FIR.NumTaps,
		HalfbandTaps:      d.config.Halfband.NumTaps,
		InputWidth:        c.InputWidth,
		AccumulatorWidth:  c.AccumulatorWidth,
		OutputWidth:       d.config.Halfband.OutputWidth,
		CoeffWidth:        d.config.FIR.CoeffWidth,
		CoeffFracBits:     d.config.FIR.CoeffFracBits,
		TotalDecimation:   ratio,
		InputRate:         d.config.InputRate,
		OutputRate:        d.config.InputRate * ratio,
		LatencySamples:    d.GetLatency(),
		SIMD:              simdops.Info(),
	}
}

// GetConfig returns a copy of the active configuration.
func (d *Decimator) GetConfig() *Config {
	return d.config.Clone()
}
