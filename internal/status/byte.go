package status

// Status byte bit positions (CSR address 0x80).
const (
	BitCoeffRange    = 0
	BitInvalidConfig = 1
	BitUnderflow     = 2
	BitOverflow      = 3
	BitError         = 4
	BitHalfbandOn    = 5
	BitFIROn         = 6
	BitCICOn         = 7
)

// Snapshot is the aggregated status of the whole pipeline for one tick.
type Snapshot struct {
	// CIC, FIR and Halfband are the per-stage flags.
	CIC      Flags
	FIR      Flags
	Halfband Flags

	// Store holds flags raised by the register file itself
	// (InvalidAddress, CoeffRange, InvalidConfig).
	Store Flags
}

// Combined ORs the stage and store flags. Active is dropped because it is
// reported per stage, not in aggregate.
func (s Snapshot) Combined() Flags {
	return (s.CIC | s.FIR | s.Halfband | s.Store) &^ Active
}

// Busy reports whether any stage is busy.
func (s Snapshot) Busy() bool {
	return (s.CIC | s.FIR | s.Halfband).Any(Busy)
}

// Error reports whether the aggregated error output is asserted.
func (s Snapshot) Error() bool {
	return s.Combined().Error()
}

// ErrorType resolves the single reported error code.
func (s Snapshot) ErrorType() ErrorType {
	return Resolve(s.Combined())
}

// Byte packs the snapshot into the 8-bit status register layout:
// bit7 CIC-active, bit6 FIR-active, bit5 halfband-active, bit4 error,
// bit3 overflow, bit2 underflow, bit1 invalid-config, bit0 coeff-range-error.
//
// Invalid addresses are reported through the invalid-config bit.
func (s Snapshot) Byte() uint8 {
	var b uint8
	set := func(cond bool, bit uint) {
		if cond {
			b |= 1 << bit
		}
	}

	all := s.Combined()
	set(s.CIC.Has(Active), BitCICOn)
	set(s.FIR.Has(Active), BitFIROn)
	set(s.Halfband.Has(Active), BitHalfbandOn)
	set(all.Error(), BitError)
	set(all.Has(Overflow), BitOverflow)
	set(all.Has(Underflow), BitUnderflow)
	set(all.Any(InvalidConfig|InvalidAddress), BitInvalidConfig)
	set(all.Has(CoeffRange), BitCoeffRange)
	return b
}
