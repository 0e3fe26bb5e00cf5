package cic

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-adc-decimator/internal/fixedpoint"
)

// ErrInvalidConfig is returned when a CIC configuration is rejected.
var ErrInvalidConfig = errors.New("cic: invalid configuration")

// Config holds the CIC stage parameters.
type Config struct {
	Stages            int `json:"stages"`             // N, number of integrator/comb pairs
	DecimationFactor  int `json:"decimation_factor"`  // D
	DifferentialDelay int `json:"differential_delay"` // M
	InputWidth        int `json:"input_width"`        // bits of the raw input sample
	AccumulatorWidth  int `json:"accumulator_width"`  // bits of each integrator and comb register

	// Wraparound selects two's-complement modular arithmetic for the
	// integrators and combs instead of saturation. The output is exact as
	// long as RequiredWidth fits the accumulator. No saturation flags are
	// raised in this mode.
	Wraparound bool `json:"wraparound,omitempty"`
}

// DefaultConfig returns the reference CIC parameters.
func DefaultConfig() Config {
	return Config{
		Stages:            DefaultStages,
		DecimationFactor:  DefaultDecimationFactor,
		DifferentialDelay: DefaultDifferentialDelay,
		InputWidth:        DefaultInputWidth,
		AccumulatorWidth:  DefaultAccumulatorWidth,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Stages < 1 || c.Stages > MaxStages {
		return fmt.Errorf("%w: stages must be in [1, %d], got %d", ErrInvalidConfig, MaxStages, c.Stages)
	}
	if err := validateRate(c.DecimationFactor, c.DifferentialDelay); err != nil {
		return err
	}
	if c.InputWidth < fixedpoint.MinWidth || c.InputWidth > fixedpoint.MaxWidth {
		return fmt.Errorf("%w: input width %d out of range", ErrInvalidConfig, c.InputWidth)
	}
	if c.AccumulatorWidth < c.InputWidth || c.AccumulatorWidth > fixedpoint.MaxWidth {
		return fmt.Errorf("%w: accumulator width %d must be in [%d, %d]",
			ErrInvalidConfig, c.AccumulatorWidth, c.InputWidth, fixedpoint.MaxWidth)
	}
	return nil
}

func validateRate(d, m int) error {
	if d < 1 || d > MaxDecimationFactor {
		return fmt.Errorf("%w: decimation factor must be in [1, %d], got %d", ErrInvalidConfig, MaxDecimationFactor, d)
	}
	if m < 1 || m > MaxDifferentialDelay {
		return fmt.Errorf("%w: differential delay must be in [1, %d], got %d", ErrInvalidConfig, MaxDifferentialDelay, m)
	}
	return nil
}

// BitGrowth returns the worst-case register growth N*ceil(log2(D*M)).
func (c Config) BitGrowth() int {
	return c.Stages * fixedpoint.CeilLog2(c.DecimationFactor*c.DifferentialDelay)
}

// RequiredWidth is the accumulator width that can hold a full-scale DC input
// without saturating.
func (c Config) RequiredWidth() int {
	return c.InputWidth + c.BitGrowth()
}

// Headroom reports whether the accumulator is wide enough for the DC gain.
func (c Config) Headroom() bool {
	return c.RequiredWidth() <= c.AccumulatorWidth
}
