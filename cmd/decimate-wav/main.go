// Command decimate-wav runs oversampled PCM captures through the fixed-point
// CIC, FIR and halfband decimator and writes the result as 24-bit WAV.
//
// Usage:
//
//	decimate-wav capture.wav out.wav
//	decimate-wav -d 128 -stages 4 capture.wav out.wav
//	decimate-wav -config decimator.json -v capture.wav out.wav
//	decimate-wav -parallel=false capture.wav out.wav
//
// Each channel gets its own decimator. Channels run in parallel by default.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	decimator "github.com/tphakala/go-adc-decimator"
)

const (
	// Number of frames read per chunk
	bufferSize = 65536

	// Sample format constants
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32
	outputBitDepth  = 24

	// WAV audio format tag for integer PCM
	wavFormatPCM = 1

	// CLI defaults
	minRequiredArgs  = 2
	percentScale     = 100
	progressInterval = 10 // Print progress every N%
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "", "JSON decimator configuration (defaults apply to missing fields)")
	factor := flag.Int("d", 0, "CIC decimation factor, 32-512 (overrides config)")
	stages := flag.Int("stages", 0, "CIC stage count (overrides config)")
	wrap := flag.Bool("wrap", false, "Use wraparound CIC arithmetic instead of saturation")
	parallel := flag.Bool("parallel", true, "Enable parallel channel processing")
	verbose := flag.Bool("v", false, "Verbose output")
	saveConfig := flag.String("save-config", "", "Write the effective configuration to this path and exit")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file")
	flag.Parse()

	cfg, err := buildConfig(*configPath, *factor, *stages, *wrap)
	if err != nil {
		return err
	}

	if *saveConfig != "" {
		if err := cfg.SaveConfig(*saveConfig); err != nil {
			return err
		}
		fmt.Printf("Wrote configuration to %s\n", *saveConfig)
		return nil
	}

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s capture.wav out.wav              # Default 5-stage CIC, D=64\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -d 128 -wrap capture.wav out.wav # D=128 with modular integrators\n", os.Args[0])
		return fmt.Errorf("insufficient arguments")
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	inputPath := args[0]
	outputPath := args[1]

	if *verbose {
		log.Printf("Input: %s", inputPath)
		log.Printf("Output: %s", outputPath)
		log.Printf("CIC: N=%d D=%d M=%d, wraparound=%v",
			cfg.CIC.Stages, cfg.CIC.DecimationFactor, cfg.CIC.DifferentialDelay, cfg.CIC.Wraparound)
		for _, note := range cfg.Advisories() {
			log.Printf("Advisory: %s", note)
		}
		if *parallel {
			log.Printf("Parallel: enabled (concurrent channel processing)")
		} else {
			log.Printf("Parallel: disabled (sequential processing)")
		}
	}

	start := time.Now()
	stats, err := decimateWAV(inputPath, outputPath, cfg, *verbose, *parallel)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Decimated %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Printf("  %d Hz -> %d Hz (%d channels, %d-bit -> %d-bit)\n",
		stats.inputRate, stats.outputRate, stats.channels, stats.bitDepth, outputBitDepth)
	fmt.Printf("  %d samples -> %d samples\n", stats.inputSamples, stats.outputSamples)
	if stats.errorTicks > 0 {
		fmt.Printf("  %d ticks reported saturation or other errors\n", stats.errorTicks)
	}
	fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
		elapsed.Seconds(),
		float64(stats.inputSamples)/float64(stats.inputRate)/elapsed.Seconds())

	return nil
}

// buildConfig loads the optional config file and applies flag overrides.
func buildConfig(path string, factor, stages int, wrap bool) (*decimator.Config, error) {
	cfg := decimator.DefaultConfig()
	if path != "" {
		loaded, err := decimator.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if factor > 0 {
		cfg.CIC.DecimationFactor = factor
	}
	if stages > 0 {
		cfg.CIC.Stages = stages
	}
	if wrap {
		cfg.CIC.Wraparound = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type decimateStats struct {
	inputRate     int
	outputRate    int
	channels      int
	bitDepth      int
	inputSamples  int64
	outputSamples int64
	errorTicks    uint64
}

func decimateWAV(inputPath, outputPath string, cfg *decimator.Config, verbose, parallel bool) (stats *decimateStats, err error) {
	// 1. Open and validate input
	input, err := openWAVInput(inputPath, verbose)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	// 2. One decimator per channel
	channelCfg := cfg.Clone()
	channelCfg.InputRate = float64(input.rate)
	decimators, err := createChannelDecimators(input.channels, channelCfg)
	if err != nil {
		return nil, err
	}
	outputRate := outputRateFor(input.rate, decimators[0].GetRatio())
	if verbose {
		log.Printf("Pipeline: %s", decimators[0].Info())
	}

	// 3. Create output writer
	output, err := createWAVOutput(outputPath, outputRate, input.channels)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	// 4. Initialize processing buffers and tracking
	buffers := newDecimateBuffers(input.channels, input.format)
	stats = &decimateStats{
		inputRate:  input.rate,
		outputRate: outputRate,
		channels:   input.channels,
		bitDepth:   input.bitDepth,
	}
	progress := newProgressTracker(input.totalSamples, verbose)

	// 5. Main processing loop
	for {
		frames, err := input.readFrames(buffers.intBuffer)
		if err != nil {
			return nil, err
		}
		if frames == 0 {
			break
		}
		stats.inputSamples += int64(frames)

		deinterleaveInto(buffers.intBuffer.Data, buffers.channelBufs, input.channels, frames, input.bitDepth)

		decimated, err := processChannelData(decimators, buffers.channelBufs, frames, parallel)
		if err != nil {
			return nil, err
		}

		data, n := interleavePadded(decimated)
		stats.outputSamples += int64(n)
		if err := output.WriteSamples(data); err != nil {
			return nil, fmt.Errorf("failed to write audio data: %w", err)
		}

		progress.reportIfNeeded(stats.inputSamples)
	}

	// 6. Drain the pipelines
	flushed, n, err := flushChannels(decimators)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		stats.outputSamples += int64(n)
		if err := output.WriteSamples(flushed); err != nil {
			return nil, fmt.Errorf("failed to write flushed data: %w", err)
		}
	}

	for _, d := range decimators {
		stats.errorTicks += d.Stats().ErrorTicks
	}
	return stats, nil
}
