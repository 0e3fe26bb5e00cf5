package decimator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-adc-decimator/internal/csr"
	"github.com/tphakala/go-adc-decimator/internal/status"
)

const (
	unityCoeff   = 0x10000 // 1.0 in Q16
	dcInput      = 0x1000
	fullScale    = 32767
	reservedAddr = 0x90
	firAddr      = 0x05
	oddHBAddr    = 0x41
	outOfRange18 = 0x40000 // first word above the 18-bit field
	minus16Word  = 0x3FFF0 // -16 as an 18-bit pattern
	halfCoeff    = 0x8000  // 0.5 in Q16

	// Status byte values.
	statusAllActive  = 0xE0
	statusInvalidAdr = 0x12 // error + invalid config/address
	statusCoeffRange = 0x11 // error + coeff range
)

// writeWord retries a register write until it lands.
func writeWord(t *testing.T, d *Decimator, addr uint8, data uint32) {
	t.Helper()
	for range 2 {
		if d.WriteCSR(addr, data) {
			return
		}
	}
	t.Fatalf("write to 0x%02X never accepted", addr)
}

// loadUnityBanks replaces both banks with a single unity tap at index 0.
func loadUnityBanks(t *testing.T, d *Decimator) {
	t.Helper()
	for i := range csr.FIRWordCount {
		var w uint32
		if i == 0 {
			w = unityCoeff
		}
		writeWord(t, d, uint8(csr.FIRBase+i), w)
	}
	for i := range csr.HalfbandWordCount {
		var w uint32
		if i == 0 {
			w = unityCoeff
		}
		writeWord(t, d, uint8(csr.HalfbandBase+i), w)
	}
}

func newDCConfig() *Config {
	cfg := DefaultConfig()
	cfg.CIC.Stages = 1
	cfg.CIC.DecimationFactor = 32
	return cfg
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	d, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, 64, d.Info().DecimationFactor)
	assert.False(t, d.Enabled())
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CIC.DecimationFactor = 16
	_, err := New(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

// TestDecimator_DCPassThrough runs DC through a first-order CIC with D=32
// and unity FIR/halfband banks. Every output equals D times the input.
func TestDecimator_DCPassThrough(t *testing.T) {
	const (
		decimation = 32
		numOutputs = 6
		// D accepted inputs, then one register tick each in FIR and
		// halfband. The banks latch on the enable tick without a stall.
		firstOutputTick = decimation + 2
	)

	d, err := New(newDCConfig())
	require.NoError(t, err)
	loadUnityBanks(t, d)

	var outputs []int64
	first := 0
	for tick := 1; len(outputs) < numOutputs && tick < 1000; tick++ {
		out := d.Tick(Input{Sample: dcInput, Valid: true, Enable: true})
		assert.False(t, out.Error, "tick %d: unexpected error %s", tick, out.ErrorType)
		if out.Valid {
			if first == 0 {
				first = tick
			}
			outputs = append(outputs, out.Sample)
		}
	}

	require.Len(t, outputs, numOutputs)
	assert.Equal(t, firstOutputTick, first)
	for i, v := range outputs {
		assert.Equal(t, int64(dcInput*decimation), v, "output %d", i)
	}
}

func TestDecimator_ErrorPrecedence(t *testing.T) {
	t.Run("overflow_beats_invalid_address", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CIC.AccumulatorWidth = 16
		d, err := New(cfg)
		require.NoError(t, err)

		full := Input{Sample: fullScale, Valid: true, Enable: true}
		saturated := false
		for range 8 {
			if d.Tick(full).Flags.Has(status.Overflow) {
				saturated = true
				break
			}
		}
		require.True(t, saturated, "integrators never saturated")

		in := full
		in.Write = Write{Valid: true, Addr: reservedAddr, Data: 1}
		out := d.Tick(in)

		assert.True(t, out.WriteAccepted)
		assert.True(t, out.Error)
		assert.Equal(t, ErrorOverflow, out.ErrorType)
		assert.True(t, out.Flags.Has(status.InvalidAddress))
		assert.NotZero(t, out.Status&(1<<status.BitOverflow))
		assert.NotZero(t, out.Status&(1<<status.BitInvalidConfig))
		assert.NotZero(t, out.CICStatus&1, "integrator 0 saturated")

		assert.Equal(t, uint32(out.Status), d.ReadCSR(AddrStatus))
		assert.Equal(t, ErrorOverflow.Code(), d.ReadCSR(AddrErrorType))
		assert.Equal(t, uint32(1), d.ReadCSR(AddrError))
	})

	t.Run("invalid_address_alone", func(t *testing.T) {
		d, err := New(nil)
		require.NoError(t, err)

		require.True(t, d.WriteCSR(reservedAddr, 0xDEAD))
		assert.Equal(t, uint32(statusInvalidAdr), d.ReadCSR(AddrStatus))
		assert.Equal(t, ErrorInvalidAddress.Code(), d.ReadCSR(AddrErrorType))
		assert.Equal(t, uint32(0), d.ReadCSR(reservedAddr))

		// Flags last one tick.
		d.Tick(Input{})
		assert.Equal(t, uint32(0), d.ReadCSR(AddrStatus))
		assert.Equal(t, ErrorNone.Code(), d.ReadCSR(AddrErrorType))
		assert.Equal(t, uint32(0), d.ReadCSR(AddrError))
	})

	t.Run("coeff_range_stores_raw_word", func(t *testing.T) {
		d, err := New(nil)
		require.NoError(t, err)

		require.True(t, d.WriteCSR(firAddr, outOfRange18))
		assert.Equal(t, uint32(statusCoeffRange), d.ReadCSR(AddrStatus))
		assert.Equal(t, ErrorCoeffRange.Code(), d.ReadCSR(AddrErrorType))
		assert.Equal(t, uint32(outOfRange18), d.ReadCSR(firAddr))
	})

	t.Run("negative_pattern_is_in_range", func(t *testing.T) {
		d, err := New(nil)
		require.NoError(t, err)

		require.True(t, d.WriteCSR(firAddr, minus16Word))
		assert.Equal(t, uint32(0), d.ReadCSR(AddrStatus))
		assert.Equal(t, ErrorNone.Code(), d.ReadCSR(AddrErrorType))

		d.Tick(Input{Enable: true})
		fir, _ := d.Coefficients()
		assert.Equal(t, int64(-16), fir[firAddr])
	})
}

func TestDecimator_WriteReadyLatency(t *testing.T) {
	d, err := New(nil)
	require.NoError(t, err)

	assert.True(t, d.WriteReady())
	assert.True(t, d.WriteCSR(0x70, 1))
	assert.False(t, d.WriteReady())
	assert.False(t, d.WriteCSR(0x71, 2), "write during the blocked tick is refused")
	assert.True(t, d.WriteReady())
	assert.True(t, d.WriteCSR(0x71, 3))

	assert.Equal(t, uint32(1), d.ReadCSR(0x70))
	assert.Equal(t, uint32(3), d.ReadCSR(0x71))
	assert.Equal(t, uint64(2), d.Stats().Writes)
}

func TestDecimator_StatusWriteDropped(t *testing.T) {
	d, err := New(nil)
	require.NoError(t, err)

	out := d.Tick(Input{Write: Write{Valid: true, Addr: AddrStatus, Data: 0xFF}})
	assert.True(t, out.WriteAccepted)
	assert.False(t, out.Error)
	assert.False(t, out.WriteReady, "dropped writes still consume write-ready")
	assert.Equal(t, uint32(0), d.ReadCSR(AddrStatus))
}

func TestDecimator_DefaultCoefficientsIdempotent(t *testing.T) {
	d, err := New(nil)
	require.NoError(t, err)

	checkDefaults := func() {
		t.Helper()
		dump := d.DumpCSR()
		for i, c := range csr.DefaultFIRCoefficients() {
			require.Equal(t, csr.Word(c), dump[csr.FIRBase+i], "fir word %d", i)
		}
		for i, c := range csr.DefaultHalfbandCoefficients() {
			require.Equal(t, csr.Word(c), dump[csr.HalfbandBase+i], "halfband word %d", i)
		}
	}

	checkDefaults()
	writeWord(t, d, firAddr, 0x1234)
	writeWord(t, d, 0x7F, 0xFFFFFFFF)
	d.Reset()
	checkDefaults()
	assert.Equal(t, uint32(0), d.ReadCSR(0x7F))
	assert.Equal(t, Stats{}, d.Stats())

	// Enabling loads the register file into the stages.
	d.Tick(Input{Enable: true})
	fir, hb := d.Coefficients()
	for i, c := range csr.DefaultFIRCoefficients() {
		assert.Equal(t, int64(c), fir[i])
	}
	for i, c := range csr.DefaultHalfbandCoefficients() {
		assert.Equal(t, int64(c), hb[i])
	}
}

func TestDecimator_EnableLoadsBanksWithoutStall(t *testing.T) {
	d, err := New(nil)
	require.NoError(t, err)

	in := Input{Sample: 1, Valid: true, Enable: true}

	out := d.Tick(in)
	assert.True(t, out.Accepted)
	assert.True(t, out.Ready)
	assert.False(t, out.Busy)
	assert.True(t, out.Flags.Has(status.CoeffUpdate), "banks latch on the enable tick")
	assert.Equal(t, uint8(statusAllActive), out.Status)

	out = d.Tick(in)
	assert.True(t, out.Accepted)
	assert.False(t, out.Flags.Has(status.CoeffUpdate))
	assert.Equal(t, uint32(0), d.ReadCSR(AddrBusy))

	stats := d.Stats()
	assert.Equal(t, uint64(2), stats.Ticks)
	assert.Equal(t, uint64(2), stats.Accepted)
	assert.Zero(t, stats.StallTicks)
}

func TestDecimator_CoefficientHotSwap(t *testing.T) {
	d, err := New(nil)
	require.NoError(t, err)

	idle := Input{Enable: true}
	d.RunTicks(2, idle)

	in := idle
	in.Write = Write{Valid: true, Addr: AddrFIRBase, Data: unityCoeff}
	out := d.Tick(in)
	require.True(t, out.WriteAccepted)
	assert.False(t, out.Flags.Has(status.CoeffUpdate), "the write tick still uses the old bank")

	out = d.Tick(idle)
	assert.True(t, out.Flags.Has(status.CoeffUpdate))
	assert.True(t, out.Ready)
	assert.False(t, out.Busy)

	fir, _ := d.Coefficients()
	assert.Equal(t, int64(unityCoeff), fir[0])

	out = d.Tick(idle)
	assert.False(t, out.Flags.Has(status.CoeffUpdate))
}

// TestDecimator_CoefficientWriteUsedNextTick writes a FIR tap in the tick
// before a CIC pulse. The pulse's FIR evaluation must use the new bank.
func TestDecimator_CoefficientWriteUsedNextTick(t *testing.T) {
	const decimation = 32

	d, err := New(newDCConfig())
	require.NoError(t, err)
	loadUnityBanks(t, d)

	dc := Input{Sample: dcInput, Valid: true, Enable: true}
	for d.cic.Counter() != decimation-2 {
		out := d.Tick(dc)
		require.False(t, out.Valid)
	}

	in := dc
	in.Write = Write{Valid: true, Addr: AddrFIRBase, Data: halfCoeff}
	out := d.Tick(in)
	require.True(t, out.WriteAccepted)
	require.True(t, out.Accepted)

	out = d.Tick(dc)
	require.True(t, out.Accepted, "latching does not stall")
	assert.True(t, out.Flags.Has(status.CoeffUpdate))
	assert.Zero(t, d.cic.Counter(), "the CIC pulsed on this tick")

	var got []int64
	for range 4 {
		if out := d.Tick(dc); out.Valid {
			got = append(got, out.Sample)
		}
	}
	require.Len(t, got, 1)
	assert.Equal(t, int64(dcInput*decimation/2), got[0], "new bank halves the output")
}

func TestDecimator_OddHalfbandTapIsAdvisory(t *testing.T) {
	d, err := New(nil)
	require.NoError(t, err)

	idle := Input{Enable: true}
	d.RunTicks(2, idle)

	in := idle
	in.Write = Write{Valid: true, Addr: oddHBAddr, Data: 0x100}
	d.Tick(in)

	out := d.Tick(idle)
	assert.True(t, out.Flags.Has(status.OddTapNonzero))
	assert.False(t, out.Error)
	assert.Equal(t, ErrorNone, out.ErrorType)
}

func TestDecimator_OddTapWrittenWhileDisabledFlaggedOnEnable(t *testing.T) {
	d, err := New(nil)
	require.NoError(t, err)

	writeWord(t, d, oddHBAddr, 0x100)
	out := d.Tick(Input{})
	assert.False(t, out.Flags.Has(status.OddTapNonzero), "disabled stages hold no bank")

	out = d.Tick(Input{Enable: true})
	assert.True(t, out.Flags.Has(status.OddTapNonzero))
	assert.False(t, out.Error)
}

func TestDecimator_SetDecimation(t *testing.T) {
	tests := []struct {
		name    string
		factor  int
		delay   int
		wantErr bool
	}{
		{"valid_power_of_two", 128, 1, false},
		{"valid_non_power_of_two", 48, 2, false},
		{"factor_below_range", 16, 1, true},
		{"factor_above_range", 1024, 1, true},
		{"zero_delay", 64, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(nil)
			require.NoError(t, err)
			d.RunTicks(2, Input{Enable: true})

			err = d.SetDecimation(tt.factor, tt.delay)
			out := d.Tick(Input{Enable: true})

			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				assert.Equal(t, ErrorInvalidConfig, out.ErrorType)
				assert.Equal(t, 64, d.Info().DecimationFactor, "rejected change leaves the stage alone")
				return
			}
			require.NoError(t, err)
			assert.True(t, out.Busy)
			assert.False(t, out.Error)
			assert.Equal(t, tt.factor, d.Info().DecimationFactor)
			assert.Equal(t, tt.delay, d.GetConfig().CIC.DifferentialDelay)
		})
	}
}

func TestDecimator_DisableZeroesState(t *testing.T) {
	d, err := New(newDCConfig())
	require.NoError(t, err)

	d.RunTicks(10, Input{Sample: dcInput, Valid: true, Enable: true})
	assert.True(t, d.Enabled())

	out := d.Tick(Input{Sample: dcInput, Valid: true})
	assert.False(t, out.Accepted)
	assert.False(t, d.Enabled())
	assert.Equal(t, uint8(0), out.Status)

	fir, hb := d.Coefficients()
	assert.Equal(t, make([]int64, len(fir)), fir)
	assert.Equal(t, make([]int64, len(hb)), hb)
}

func TestDecimator_ErrorSink(t *testing.T) {
	var seen []ErrorType
	cfg := DefaultConfig()
	cfg.ErrorSink = func(o Output) { seen = append(seen, o.ErrorType) }

	d, err := New(cfg)
	require.NoError(t, err)

	d.Tick(Input{})
	require.True(t, d.WriteCSR(reservedAddr, 0))
	d.Tick(Input{})

	assert.Equal(t, []ErrorType{ErrorInvalidAddress}, seen)
	assert.Equal(t, uint64(1), d.Stats().ErrorTicks)
}

func TestDecimator_Info(t *testing.T) {
	const inputRate = 3072000.0

	cfg := DefaultConfig()
	cfg.InputRate = inputRate
	d, err := New(cfg)
	require.NoError(t, err)

	info := d.Info()
	assert.Equal(t, 5, info.Stages)
	assert.Equal(t, 64, info.DecimationFactor)
	assert.Equal(t, 1, info.DifferentialDelay)
	assert.Equal(t, 64, info.FIRTaps)
	assert.Equal(t, 33, info.HalfbandTaps)
	assert.Equal(t, 16, info.InputWidth)
	assert.Equal(t, 32, info.AccumulatorWidth)
	assert.Equal(t, 24, info.OutputWidth)
	assert.Equal(t, 18, info.CoeffWidth)
	assert.InDelta(t, 1.0/64, info.TotalDecimation, 1e-12)
	assert.InDelta(t, 48000.0, info.OutputRate, 1e-6)
	assert.Positive(t, info.LatencySamples)
	assert.NotEmpty(t, info.SIMD)
	assert.Contains(t, info.String(), "D=64")
}

func TestDecimator_HalfbandDecimateByTwo(t *testing.T) {
	cfg := newDCConfig()
	cfg.Halfband.DecimateByTwo = true

	d, err := New(cfg)
	require.NoError(t, err)
	loadUnityBanks(t, d)
	assert.InDelta(t, 1.0/64, d.GetRatio(), 1e-12)

	out := d.RunTicks(1+32*8+4, Input{Sample: dcInput, Valid: true, Enable: true})
	assert.Len(t, out, 4)
}

func TestErrors_AreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrNotEnabled, ErrInvalidConfig))
	assert.False(t, errors.Is(ErrStalled, ErrInvalidConfig))
	assert.False(t, errors.Is(ErrStalled, ErrNotEnabled))
}

func BenchmarkDecimator_Tick(b *testing.B) {
	d, err := New(nil)
	if err != nil {
		b.Fatal(err)
	}
	in := Input{Valid: true, Enable: true}

	var i int64
	for b.Loop() {
		in.Sample = i & 0xFF
		d.Tick(in)
		i++
	}
}
