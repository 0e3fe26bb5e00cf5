package decimator

import (
	"fmt"
	"sync"
)

// NewEnabled creates a decimator with the streaming enable already raised,
// ready for Process.
func NewEnabled(config *Config) (*Decimator, error) {
	d, err := New(config)
	if err != nil {
		return nil, err
	}
	d.Enable()
	return d, nil
}

// Decimate is a convenience function for one-shot decimation of one
// channel. It creates a decimator, processes the input, flushes, and
// returns the result. A nil config uses DefaultConfig.
func Decimate(input []int16, config *Config) ([]int32, error) {
	d, err := NewEnabled(config)
	if err != nil {
		return nil, err
	}

	output, err := d.Process(input)
	if err != nil {
		return nil, err
	}

	flushed, err := d.Flush()
	if err != nil {
		return nil, err
	}

	return append(output, flushed...), nil
}

// DecimateMulti decimates several channels with one decimator each. When
// parallel is true the channels run in their own goroutines; the results
// are identical either way. A configured ErrorSink is never called from
// two channels at once.
func DecimateMulti(input [][]int16, config *Config, parallel bool) ([][]int32, error) {
	if len(input) > maxChannels {
		return nil, fmt.Errorf("%w: %d channels exceeds the maximum of %d", ErrInvalidConfig, len(input), maxChannels)
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	output := make([][]int32, len(input))

	if !parallel || len(input) <= 1 {
		for ch := range input {
			result, err := Decimate(input[ch], config)
			if err != nil {
				return nil, fmt.Errorf("channel %d: %w", ch, err)
			}
			output[ch] = result
		}
		return output, nil
	}

	if sink := config.ErrorSink; sink != nil {
		var mu sync.Mutex
		config = config.Clone()
		config.ErrorSink = func(o Output) {
			mu.Lock()
			defer mu.Unlock()
			sink(o)
		}
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(input))

	for ch := range input {
		wg.Add(1)
		go func(channel int) {
			defer wg.Done()

			result, err := Decimate(input[channel], config)
			if err != nil {
				errChan <- fmt.Errorf("channel %d: %w", channel, err)
				return
			}
			output[channel] = result
		}(ch)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	return output, nil
}

// InterleaveStereo converts two mono channels to interleaved stereo.
// Output format: [L0, R0, L1, R1, ...]
func InterleaveStereo(left, right []int32) []int32 {
	n := min(len(left), len(right))
	result := make([]int32, n*stereoChannels)
	for i := range n {
		result[i*stereoChannels] = left[i]
		result[i*stereoChannels+1] = right[i]
	}
	return result
}

// DeinterleaveStereo splits interleaved stereo into two mono channels.
// Input format: [L0, R0, L1, R1, ...]
func DeinterleaveStereo(interleaved []int16) (left, right []int16) {
	n := len(interleaved) / stereoChannels
	left = make([]int16, n)
	right = make([]int16, n)
	for i := range n {
		left[i] = interleaved[i*stereoChannels]
		right[i] = interleaved[i*stereoChannels+1]
	}
	return left, right
}
