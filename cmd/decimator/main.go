// Command decimator drives the fixed-point decimation pipeline with a test
// tone, optionally designs and uploads a compensator bank for the active CIC
// parameters, and prints the register file.
//
// Usage:
//
//	decimator                          # 1 kHz tone through the default pipeline
//	decimator -d 128 -design           # D=128 with a matching compensator
//	decimator -coeffs fir.json -dump   # upload a FIR bank and dump the CSRs
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	decimator "github.com/tphakala/go-adc-decimator"
	"github.com/tphakala/go-adc-decimator/internal/analysis"
	"github.com/tphakala/go-adc-decimator/internal/csr"
	"github.com/tphakala/go-adc-decimator/internal/filter"
	"github.com/tphakala/go-adc-decimator/internal/fixedpoint"
)

var (
	errWriteRefused = errors.New("register write never accepted")
	errCoeffRange   = errors.New("coefficient outside the 18-bit range")
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		inputRate = flag.Float64("input-rate", defaultInputRate, "ADC sample rate in Hz")
		factor    = flag.Int("d", 0, "CIC decimation factor, 32-512")
		stages    = flag.Int("stages", 0, "CIC stage count")
		delay     = flag.Int("delay", 0, "CIC differential delay")
		wrap      = flag.Bool("wrap", false, "Use wraparound CIC arithmetic")
		toneHz    = flag.Float64("tone", defaultToneHz, "Test tone frequency in Hz")
		amplitude = flag.Float64("amplitude", defaultAmplitude, "Test tone amplitude as a fraction of full scale")
		outputs   = flag.Int("outputs", defaultOutputs, "Number of output samples to produce")
		design    = flag.Bool("design", false, "Design and upload a compensator for the active CIC parameters")
		coeffs    = flag.String("coeffs", "", "JSON array of FIR coefficient words to upload")
		dump      = flag.Bool("dump", false, "Print the register file after the run")
		verbose   = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	cfg := decimator.DefaultConfig()
	cfg.InputRate = *inputRate
	if *factor > 0 {
		cfg.CIC.DecimationFactor = *factor
	}
	if *stages > 0 {
		cfg.CIC.Stages = *stages
	}
	if *delay > 0 {
		cfg.CIC.DifferentialDelay = *delay
	}
	cfg.CIC.Wraparound = *wrap
	if *verbose {
		cfg.ErrorSink = func(o decimator.Output) {
			log.Printf("error: %s (status 0x%02X)", o.ErrorType, o.Status)
		}
	}

	d, err := decimator.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create decimator: %w", err)
	}
	for _, note := range cfg.Advisories() {
		log.Printf("Advisory: %s", note)
	}

	info := d.Info()
	fmt.Printf("Decimator created:\n")
	fmt.Printf("  CIC: N=%d D=%d M=%d\n", info.Stages, info.DecimationFactor, info.DifferentialDelay)
	fmt.Printf("  FIR: %d taps, halfband: %d taps\n", info.FIRTaps, info.HalfbandTaps)
	fmt.Printf("  Widths: %d-bit in, %d-bit accumulator, %d-bit out\n",
		info.InputWidth, info.AccumulatorWidth, info.OutputWidth)
	fmt.Printf("  Rate: %g Hz -> %g Hz\n", info.InputRate, info.OutputRate)
	fmt.Printf("  Latency: %d input samples\n", info.LatencySamples)
	fmt.Printf("  SIMD: %s\n", info.SIMD)

	var bank []uint32
	switch {
	case *coeffs != "":
		bank, err = loadBank(*coeffs)
	case *design:
		var h []float64
		if h, err = designCompensator(cfg); err == nil {
			q := filter.Quantize(h, cfg.FIR.CoeffFracBits, cfg.FIR.CoeffWidth)
			bank = filter.Words(q, cfg.FIR.CoeffWidth)
			fmt.Printf("Compensator quantisation error: %.2e RMS\n",
				quantizationError(h, q, cfg.FIR.CoeffFracBits))
		}
	}
	if err != nil {
		return err
	}
	if len(bank) > info.FIRTaps {
		return fmt.Errorf("coefficient bank has %d words, FIR has %d taps", len(bank), info.FIRTaps)
	}
	if bank != nil {
		if err := uploadBank(d, decimator.AddrFIRBase, bank); err != nil {
			return err
		}
		fmt.Printf("Uploaded %d FIR coefficient words\n", len(bank))
	}

	d.Enable()
	n := *outputs * info.DecimationFactor
	tone := analysis.Tone(n, *toneHz / *inputRate, *amplitude*fullScale16)
	input := make([]int16, n)
	for i, v := range tone {
		input[i] = int16(math.Round(v))
	}

	out, err := d.Process(input)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}
	flushed, err := d.Flush()
	if err != nil {
		return fmt.Errorf("flush failed: %w", err)
	}
	out = append(out, flushed...)

	stats := d.Stats()
	fmt.Printf("\nProcessed test tone (%g Hz):\n", *toneHz)
	fmt.Printf("  Input samples: %d\n", len(input))
	fmt.Printf("  Output samples: %d (expected %d)\n", len(out), *outputs)
	fmt.Printf("  Ticks: %d, stalls: %d, error ticks: %d\n", stats.Ticks, stats.StallTicks, stats.ErrorTicks)
	fmt.Printf("  Output RMS: %.1f LSB\n", analysis.RMSError(toFloat(out), make([]float64, len(out))))

	if *dump {
		fmt.Println()
		printDump(d.DumpCSR())
	}
	return nil
}

// loadBank reads a JSON array of signed coefficients and encodes them as
// 18-bit register words.
func loadBank(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read coefficient file: %w", err)
	}
	var coeffs []int64
	if err := json.Unmarshal(data, &coeffs); err != nil {
		return nil, fmt.Errorf("failed to parse coefficient file: %w", err)
	}
	for i, c := range coeffs {
		if !fixedpoint.InRange(c, csr.CoeffWidth) {
			return nil, fmt.Errorf("%w: tap %d is %d", errCoeffRange, i, c)
		}
	}
	return filter.Words(coeffs, csr.CoeffWidth), nil
}

// designCompensator designs a CIC compensator for the configured CIC.
func designCompensator(cfg *decimator.Config) ([]float64, error) {
	h, err := filter.DesignCompensator(filter.CompensatorParams{
		NumTaps:           cfg.FIR.NumTaps,
		Passband:          defaultPassband,
		Attenuation:       defaultAttenuation,
		Stages:            cfg.CIC.Stages,
		DecimationFactor:  cfg.CIC.DecimationFactor,
		DifferentialDelay: cfg.CIC.DifferentialDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("compensator design failed: %w", err)
	}
	return h, nil
}

// quantizationError filters a passband tone through the designed and the
// quantised bank and returns the RMS difference of the two outputs.
func quantizationError(h []float64, q []int64, fracBits int) float64 {
	tone := analysis.Tone(len(h)*quantToneLengths, defaultPassband/2, 1)
	return analysis.RMSError(
		analysis.ReferenceFIR(h, tone),
		analysis.ReferenceFIR(analysis.Dequantize(q, fracBits), tone))
}

// uploadBank writes consecutive words starting at base, retrying writes
// refused by the one-tick write latency.
func uploadBank(d *decimator.Decimator, base uint8, words []uint32) error {
	for i, w := range words {
		addr := base + uint8(i)
		accepted := false
		for range writeAttempts {
			if d.WriteCSR(addr, w) {
				accepted = true
				break
			}
		}
		if !accepted {
			return fmt.Errorf("%w: address 0x%02X", errWriteRefused, addr)
		}
		if et := decimator.ErrorType(d.ReadCSR(decimator.AddrErrorType)); et != decimator.ErrorNone {
			log.Printf("Write to 0x%02X reported %s", addr, et)
		}
	}
	return nil
}

func toFloat(samples []int32) []float64 {
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = float64(v)
	}
	return out
}

func printDump(words []uint32) {
	fmt.Println("Register file:")
	for i := 0; i < len(words); i += wordsPerDumpLine {
		fmt.Printf("  0x%02X:", i)
		for j := i; j < min(i+wordsPerDumpLine, len(words)); j++ {
			fmt.Printf(" %08X", words[j])
		}
		fmt.Println()
	}
	status := words[decimator.AddrStatus]
	fmt.Printf("  status=0x%02X busy=%d error-type=%s error=%d\n",
		status, words[decimator.AddrBusy],
		decimator.ErrorType(words[decimator.AddrErrorType]), words[decimator.AddrError])
}
