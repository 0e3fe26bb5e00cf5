package csr

import "fmt"

// Register map.
const (
	FIRBase      = 0x00
	FIRLast      = 0x3F
	HalfbandBase = 0x40
	HalfbandLast = 0x60

	// RegisterCount is the number of writable 32-bit words.
	RegisterCount = 0x80

	AddrStatus    = 0x80 // 8-bit status byte
	AddrBusy      = 0x81 // bit 0: any stage busy
	AddrErrorType = 0x82 // 3-bit error code
	AddrError     = 0x83 // bit 0: error asserted

	ReservedBase = 0x84
)

// FIRWordCount and HalfbandWordCount are the sizes of the coefficient regions.
const (
	FIRWordCount      = FIRLast - FIRBase + 1
	HalfbandWordCount = HalfbandLast - HalfbandBase + 1
)

// Region classifies an address.
type Region int

const (
	RegionFIR Region = iota
	RegionHalfband
	RegionGeneral  // writable, no side effect on the data path
	RegionStatus   // read-only status words
	RegionReserved // writes flag InvalidAddress, reads return 0
)

// Classify returns the region an address belongs to.
func Classify(addr uint8) Region {
	switch {
	case addr <= FIRLast:
		return RegionFIR
	case addr <= HalfbandLast:
		return RegionHalfband
	case addr < RegisterCount:
		return RegionGeneral
	case addr < ReservedBase:
		return RegionStatus
	default:
		return RegionReserved
	}
}

// IsCoefficient reports whether addr holds a FIR or halfband coefficient.
func (r Region) IsCoefficient() bool {
	return r == RegionFIR || r == RegionHalfband
}

func (r Region) String() string {
	switch r {
	case RegionFIR:
		return "fir"
	case RegionHalfband:
		return "halfband"
	case RegionGeneral:
		return "general"
	case RegionStatus:
		return "status"
	case RegionReserved:
		return "reserved"
	default:
		return fmt.Sprintf("region(%d)", int(r))
	}
}
