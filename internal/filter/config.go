package filter

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-adc-decimator/internal/fixedpoint"
)

// ErrInvalidConfig is returned when a filter configuration is rejected.
var ErrInvalidConfig = errors.New("filter: invalid configuration")

// Config holds the parameters of a fixed-point FIR stage.
type Config struct {
	NumTaps       int `json:"num_taps"`
	InputWidth    int `json:"input_width"`
	CoeffWidth    int `json:"coeff_width"`
	CoeffFracBits int `json:"coeff_frac_bits"` // Q-format: 1.0 == 1<<CoeffFracBits
	OutputWidth   int `json:"output_width"`
}

// DefaultFIRConfig returns the reference CIC compensator parameters.
func DefaultFIRConfig() Config {
	return Config{
		NumTaps:       DefaultFIRTaps,
		InputWidth:    DefaultFIRInputWidth,
		CoeffWidth:    DefaultCoeffWidth,
		CoeffFracBits: DefaultCoeffFracBits,
		OutputWidth:   DefaultOutputWidth,
	}
}

// HalfbandConfig extends Config with the optional 2:1 output gate.
type HalfbandConfig struct {
	Config

	// DecimateByTwo emits every second result instead of every result.
	DecimateByTwo bool `json:"decimate_by_two,omitempty"`
}

// DefaultHalfbandConfig returns the reference halfband parameters.
func DefaultHalfbandConfig() HalfbandConfig {
	return HalfbandConfig{
		Config: Config{
			NumTaps:       DefaultHalfbandTaps,
			InputWidth:    DefaultHalfbandInputWidth,
			CoeffWidth:    DefaultCoeffWidth,
			CoeffFracBits: DefaultCoeffFracBits,
			OutputWidth:   DefaultOutputWidth,
		},
	}
}

// ProductWidth is the saturation width of each tap product.
func (c Config) ProductWidth() int {
	return c.InputWidth + c.CoeffWidth
}

// AccumulatorWidth is the width needed to sum every product without loss.
func (c Config) AccumulatorWidth() int {
	return c.ProductWidth() + fixedpoint.CeilLog2(c.NumTaps)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.NumTaps < minTaps || c.NumTaps > maxTaps {
		return fmt.Errorf("%w: taps must be in [%d, %d], got %d", ErrInvalidConfig, minTaps, maxTaps, c.NumTaps)
	}
	if c.InputWidth < minWidth || c.CoeffWidth < minWidth || c.OutputWidth < minWidth {
		return fmt.Errorf("%w: widths must be at least %d bits", ErrInvalidConfig, minWidth)
	}
	if c.CoeffFracBits < 0 || c.CoeffFracBits >= c.CoeffWidth+c.InputWidth {
		return fmt.Errorf("%w: coefficient fraction bits %d out of range", ErrInvalidConfig, c.CoeffFracBits)
	}
	if acc := c.AccumulatorWidth(); acc > maxAccumulatorBits {
		return fmt.Errorf("%w: accumulator needs %d bits, limit is %d", ErrInvalidConfig, acc, maxAccumulatorBits)
	}
	if c.OutputWidth > fixedpoint.MaxWidth {
		return fmt.Errorf("%w: output width %d exceeds %d", ErrInvalidConfig, c.OutputWidth, fixedpoint.MaxWidth)
	}
	return nil
}
