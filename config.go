package decimator

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-adc-decimator/internal/cic"
	"github.com/tphakala/go-adc-decimator/internal/csr"
	"github.com/tphakala/go-adc-decimator/internal/filter"
	"github.com/tphakala/go-adc-decimator/internal/fixedpoint"
)

// Error definitions
var (
	// ErrInvalidConfig is returned when a configuration is rejected.
	ErrInvalidConfig = errors.New("invalid decimator configuration")

	// ErrNotEnabled is returned by the streaming API while the decimator is disabled.
	ErrNotEnabled = errors.New("decimator is not enabled")

	// ErrStalled is returned when the pipeline refuses input for too long.
	ErrStalled = errors.New("decimator pipeline stalled")
)

// Config holds decimator configuration.
type Config struct {
	// InputRate is the ADC sample rate in Hz. It only feeds Info; the
	// pipeline itself is clocked by Tick. Zero means unspecified.
	InputRate float64 `json:"input_rate"`

	// CIC configures the integrator-comb stage. Its DecimationFactor must
	// be in [32, 512].
	CIC cic.Config `json:"cic"`

	// FIR configures the CIC compensator. Its InputWidth must hold the CIC
	// accumulator and NumTaps must fit the 64-word coefficient region.
	FIR filter.Config `json:"fir"`

	// Halfband configures the final stage. NumTaps must fit the 33-word
	// coefficient region.
	Halfband filter.HalfbandConfig `json:"halfband"`

	// FIFOCapacity is the initial input FIFO size used by Process.
	// Set to 0 for the default.
	FIFOCapacity int `json:"fifo_capacity,omitempty"`

	// ErrorSink, when set, is called with every Output whose Error is asserted.
	// A Decimator calls it from the goroutine driving Tick.
	ErrorSink func(Output) `json:"-"`
}

// DefaultConfig returns the reference configuration: a 5-stage CIC with
// D=64 and M=1, a 64-tap compensator and a 33-tap halfband, with 16-bit
// input, 32-bit accumulators, 24-bit output and 18-bit Q16 coefficients.
func DefaultConfig() *Config {
	return &Config{
		CIC:      cic.DefaultConfig(),
		FIR:      filter.DefaultFIRConfig(),
		Halfband: filter.DefaultHalfbandConfig(),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.InputRate < 0 {
		return fmt.Errorf("%w: input rate must be non-negative, got %v", ErrInvalidConfig, c.InputRate)
	}

	if err := c.CIC.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := validateDecimation(c.CIC.DecimationFactor); err != nil {
		return err
	}

	if err := c.FIR.Validate(); err != nil {
		return fmt.Errorf("%w: fir: %w", ErrInvalidConfig, err)
	}
	if err := c.Halfband.Validate(); err != nil {
		return fmt.Errorf("%w: halfband: %w", ErrInvalidConfig, err)
	}

	if c.FIR.NumTaps > csr.FIRWordCount {
		return fmt.Errorf("%w: fir taps %d exceed the %d-word coefficient region",
			ErrInvalidConfig, c.FIR.NumTaps, csr.FIRWordCount)
	}
	if c.Halfband.NumTaps > csr.HalfbandWordCount {
		return fmt.Errorf("%w: halfband taps %d exceed the %d-word coefficient region",
			ErrInvalidConfig, c.Halfband.NumTaps, csr.HalfbandWordCount)
	}
	if w := max(c.FIR.CoeffWidth, c.Halfband.CoeffWidth); w > csrWordBits {
		return fmt.Errorf("%w: coefficient width %d exceeds the %d-bit register word",
			ErrInvalidConfig, w, csrWordBits)
	}

	if c.FIR.InputWidth < c.CIC.AccumulatorWidth {
		return fmt.Errorf("%w: fir input width %d narrower than cic accumulator width %d",
			ErrInvalidConfig, c.FIR.InputWidth, c.CIC.AccumulatorWidth)
	}
	if c.Halfband.InputWidth < c.FIR.OutputWidth {
		return fmt.Errorf("%w: halfband input width %d narrower than fir output width %d",
			ErrInvalidConfig, c.Halfband.InputWidth, c.FIR.OutputWidth)
	}

	if c.FIFOCapacity < 0 {
		return fmt.Errorf("%w: fifo capacity must be non-negative, got %d", ErrInvalidConfig, c.FIFOCapacity)
	}
	return nil
}

// validateDecimation enforces the pipeline-level CIC factor range.
func validateDecimation(d int) error {
	if d < minPipelineDecimation || d > maxPipelineDecimation {
		return fmt.Errorf("%w: decimation factor must be in [%d, %d], got %d",
			ErrInvalidConfig, minPipelineDecimation, maxPipelineDecimation, d)
	}
	return nil
}

// Advisories returns non-fatal findings about a valid configuration.
func (c *Config) Advisories() []string {
	var notes []string
	if !fixedpoint.IsPowerOfTwo(c.CIC.DecimationFactor) {
		notes = append(notes, fmt.Sprintf("decimation factor %d is not a power of two", c.CIC.DecimationFactor))
	}
	if !c.CIC.Headroom() {
		mode := "saturate"
		if c.CIC.Wraparound {
			mode = "wrap"
		}
		notes = append(notes, fmt.Sprintf(
			"cic gain needs %d accumulator bits but only %d are available; full-scale DC will %s",
			c.CIC.RequiredWidth(), c.CIC.AccumulatorWidth, mode))
	}
	if c.Halfband.DecimateByTwo {
		notes = append(notes, "halfband 2:1 output gating is enabled")
	}
	return notes
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
