// Command analyze-filter reports the frequency response of the coefficient
// banks loaded at reset, alone and cascaded with the CIC stage.
//
// Usage:
//
//	analyze-filter                  # reset banks against the default CIC
//	analyze-filter -d 128 -design   # freshly designed compensator for D=128
package main

import (
	"flag"
	"fmt"
	"log"

	decimator "github.com/tphakala/go-adc-decimator"
	"github.com/tphakala/go-adc-decimator/internal/analysis"
	"github.com/tphakala/go-adc-decimator/internal/csr"
	"github.com/tphakala/go-adc-decimator/internal/filter"
	"github.com/tphakala/go-adc-decimator/internal/mathutil"
)

const (
	defaultInputRate   = 3072000.0
	defaultPassband    = 0.25 // compensator passband edge, fraction of CIC output rate
	defaultAttenuation = 60.0 // compensator window attenuation in dB

	// Analysis edges as fractions of each stage's sample rate.
	rippleEdge        = 0.2
	firStopbandEdge   = 0.35
	halfbandRejection = 0.25

	tableStep = 0.05
)

// bankReport summarises one coefficient bank.
type bankReport struct {
	Name          string
	Taps          int
	DCGain        float64
	RippleDB      float64
	AttenuationDB float64
}

func (r bankReport) String() string {
	return fmt.Sprintf("%-9s %2d taps  DC gain %.5f  ripple %.3f dB  attenuation %.1f dB",
		r.Name, r.Taps, r.DCGain, r.RippleDB, r.AttenuationDB)
}

func main() {
	var (
		inputRate = flag.Float64("input-rate", defaultInputRate, "ADC sample rate in Hz")
		factor    = flag.Int("d", 0, "CIC decimation factor, 32-512")
		stages    = flag.Int("stages", 0, "CIC stage count")
		delay     = flag.Int("delay", 0, "CIC differential delay")
		design    = flag.Bool("design", false, "Analyze a freshly designed compensator instead of the reset bank")
		fftSize   = flag.Int("fft", analysis.DefaultFFTSize, "FFT size, a power of two")
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
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	fir, err := firBank(cfg, *design)
	if err != nil {
		log.Fatal(err)
	}
	hb := toFloat(csr.DefaultHalfbandCoefficients(), cfg.Halfband.CoeffFracBits)

	fmt.Println("=== Coefficient Bank Analysis ===")
	fmt.Printf("CIC: N=%d D=%d M=%d\n\n", cfg.CIC.Stages, cfg.CIC.DecimationFactor, cfg.CIC.DifferentialDelay)

	reports, err := analyzeBanks(cfg, fir, hb, *fftSize)
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range reports {
		fmt.Println(r)
	}
	fmt.Printf("Kaiser estimate for %.0f dB between %.2f and %.2f: %d taps\n",
		defaultAttenuation, defaultPassband, firStopbandEdge, estimatedTaps())
	if filter.OddTapsNonzero(toInt64(csr.DefaultHalfbandCoefficients())) {
		fmt.Println("Note: halfband bank has nonzero odd taps")
	}

	cascade, err := analysis.CascadeResponse(fir,
		cfg.CIC.Stages, cfg.CIC.DecimationFactor, cfg.CIC.DifferentialDelay, *fftSize)
	if err != nil {
		log.Fatal(err)
	}
	outRate := cfg.InputRate / float64(cfg.CIC.DecimationFactor)
	fmt.Printf("\nCIC + FIR response (CIC output rate %.0f Hz):\n", outRate)
	fmt.Printf("  %10s  %10s\n", "Hz", "dB")
	for _, row := range responseTable(cascade, tableStep) {
		fmt.Printf("  %10.0f  %10.2f\n", row[0]*outRate, row[1])
	}
}

// firBank returns the FIR bank to analyse in floating point.
func firBank(cfg *decimator.Config, design bool) ([]float64, error) {
	if !design {
		return toFloat(csr.DefaultFIRCoefficients(), cfg.FIR.CoeffFracBits), nil
	}
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
	q := filter.Quantize(h, cfg.FIR.CoeffFracBits, cfg.FIR.CoeffWidth)
	return analysis.Dequantize(q, cfg.FIR.CoeffFracBits), nil
}

// analyzeBanks reports the FIR alone, the CIC + FIR cascade, and the
// halfband. Halfband rejection is measured at a single frequency because
// the zero-stuffed bank has an image near Nyquist.
func analyzeBanks(cfg *decimator.Config, fir, hb []float64, fftSize int) ([]bankReport, error) {
	firResp, err := analysis.FrequencyResponse(fir, fftSize)
	if err != nil {
		return nil, fmt.Errorf("fir response: %w", err)
	}
	cascade, err := analysis.CascadeResponse(fir,
		cfg.CIC.Stages, cfg.CIC.DecimationFactor, cfg.CIC.DifferentialDelay, fftSize)
	if err != nil {
		return nil, fmt.Errorf("cascade response: %w", err)
	}
	hbResp, err := analysis.FrequencyResponse(hb, fftSize)
	if err != nil {
		return nil, fmt.Errorf("halfband response: %w", err)
	}

	return []bankReport{
		{
			Name:          "fir",
			Taps:          len(fir),
			DCGain:        analysis.DCGain(fir),
			RippleDB:      firResp.PassbandRipple(rippleEdge),
			AttenuationDB: firResp.StopbandAttenuation(firStopbandEdge),
		},
		{
			Name:          "cic+fir",
			Taps:          len(fir),
			DCGain:        cascade.Magnitude[0],
			RippleDB:      cascade.PassbandRipple(rippleEdge),
			AttenuationDB: cascade.StopbandAttenuation(firStopbandEdge),
		},
		{
			Name:          "halfband",
			Taps:          len(hb),
			DCGain:        analysis.DCGain(hb),
			RippleDB:      hbResp.PassbandRipple(rippleEdge / 2),
			AttenuationDB: analysis.MagnitudeDB(hbResp.Magnitude[0]) - analysis.MagnitudeDB(hbResp.At(halfbandRejection)),
		},
	}, nil
}

// estimatedTaps is the Kaiser length estimate for the compensator's
// attenuation over its transition band.
func estimatedTaps() int {
	return mathutil.EstimateFilterLength(defaultAttenuation, firStopbandEdge-defaultPassband)
}

// responseTable samples r every step from DC to Nyquist as
// (frequency, dB) pairs.
func responseTable(r analysis.Response, step float64) [][2]float64 {
	n := int(0.5/step + 0.5)
	rows := make([][2]float64, 0, n+1)
	for i := range n + 1 {
		f := float64(i) * step
		rows = append(rows, [2]float64{f, analysis.MagnitudeDB(r.At(f))})
	}
	return rows
}

func toInt64(words []int32) []int64 {
	out := make([]int64, len(words))
	for i, w := range words {
		out[i] = int64(w)
	}
	return out
}

func toFloat(words []int32, fracBits int) []float64 {
	return analysis.Dequantize(toInt64(words), fracBits)
}
