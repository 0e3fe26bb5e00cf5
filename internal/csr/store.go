// Package csr models the decimator's configuration/status register file:
// 128 writable 32-bit words holding the FIR and halfband coefficient banks,
// followed by four read-only status words.
package csr

import (
	"github.com/tphakala/go-adc-decimator/internal/fixedpoint"
	"github.com/tphakala/go-adc-decimator/internal/status"
)

// CoeffWidth is the width of the two's complement coefficient field held in
// the low bits of each coefficient word.
const CoeffWidth = 18

// CoeffMask selects the coefficient field. Words above it raise CoeffRange.
const CoeffMask = 1<<CoeffWidth - 1

// Word encodes a signed coefficient as its 18-bit register pattern.
func Word(c int32) uint32 {
	return uint32(fixedpoint.Truncate(int64(c), CoeffWidth))
}

// Store is the register file. It is not safe for concurrent use.
type Store struct {
	regs [RegisterCount]uint32

	writeBlocked bool // write-ready low for the current tick
	blockNext    bool // an accepted write blocks the following tick

	flags   status.Flags    // raised by writes during the current tick
	latched status.Snapshot // pipeline status from the last Tick

	firDirty      bool
	halfbandDirty bool
}

// New returns a store in its reset state.
func New() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset loads the default coefficient banks, zeroes every other word and
// clears all flags and write latency.
func (s *Store) Reset() {
	s.regs = [RegisterCount]uint32{}
	for i, c := range defaultFIR {
		s.regs[FIRBase+i] = Word(c)
	}
	for i, c := range defaultHalfband {
		s.regs[HalfbandBase+i] = Word(c)
	}
	s.writeBlocked = false
	s.blockNext = false
	s.flags = 0
	s.latched = status.Snapshot{}
	s.firDirty = false
	s.halfbandDirty = false
}

// WriteReady reports whether a write would be accepted this tick.
func (s *Store) WriteReady() bool {
	return !s.writeBlocked
}

// Write performs a register write and reports whether it was accepted.
//
// Writes are refused while write-ready is low. Accepted writes to the
// read-only status words are dropped silently. Writes to reserved addresses
// leave the file unchanged and raise InvalidAddress. Coefficient words with
// any bit set above the 18-bit field raise CoeffRange but are still stored;
// the stages consume only the low 18 bits.
func (s *Store) Write(addr uint8, data uint32) bool {
	if s.writeBlocked {
		return false
	}
	s.blockNext = true

	region := Classify(addr)
	switch region {
	case RegionReserved:
		s.flags |= status.InvalidAddress
		return true
	case RegionStatus:
		return true
	}

	if region.IsCoefficient() && data > CoeffMask {
		s.flags |= status.CoeffRange
	}
	s.regs[addr] = data

	switch region {
	case RegionFIR:
		s.firDirty = true
	case RegionHalfband:
		s.halfbandDirty = true
	}
	return true
}

// Read returns the word at addr. Reads have no side effects and return the
// status latched by the most recent Tick.
func (s *Store) Read(addr uint8) uint32 {
	switch {
	case addr < RegisterCount:
		return s.regs[addr]
	case addr == AddrStatus:
		return uint32(s.latched.Byte())
	case addr == AddrBusy:
		return boolWord(s.latched.Busy())
	case addr == AddrErrorType:
		return s.latched.ErrorType().Code()
	case addr == AddrError:
		return boolWord(s.latched.Error())
	default:
		return 0
	}
}

// Flags returns the flags raised by writes during the current tick.
func (s *Store) Flags() status.Flags {
	return s.flags
}

// Tick ends the current tick: it merges the store's own flags into snap,
// latches the result for status reads, clears the one-tick flags and
// advances write-ready. It returns the merged snapshot.
func (s *Store) Tick(snap status.Snapshot) status.Snapshot {
	snap.Store |= s.flags
	s.latched = snap
	s.flags = 0
	s.writeBlocked = s.blockNext
	s.blockNext = false
	return snap
}

// TakeUpdates reports which coefficient banks were written since the last
// call and clears the markers.
func (s *Store) TakeUpdates() (fir, halfband bool) {
	fir, halfband = s.firDirty, s.halfbandDirty
	s.firDirty, s.halfbandDirty = false, false
	return fir, halfband
}

// FIRWords returns the FIR coefficient region.
func (s *Store) FIRWords() []uint32 {
	out := make([]uint32, FIRWordCount)
	copy(out, s.regs[FIRBase:FIRLast+1])
	return out
}

// HalfbandWords returns the halfband coefficient region.
func (s *Store) HalfbandWords() []uint32 {
	out := make([]uint32, HalfbandWordCount)
	copy(out, s.regs[HalfbandBase:HalfbandLast+1])
	return out
}

// Dump returns every readable word, 0x00 through 0x83.
func (s *Store) Dump() []uint32 {
	out := make([]uint32, ReservedBase)
	for a := range ReservedBase {
		out[a] = s.Read(uint8(a))
	}
	return out
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
