package status

// ErrorType is the 3-bit error code reported through CSR address 0x82.
type ErrorType uint8

// Error type codes. The numeric values are part of the register contract.
const (
	ErrorNone           ErrorType = 0
	ErrorOverflow       ErrorType = 1
	ErrorUnderflow      ErrorType = 2
	ErrorInvalidConfig  ErrorType = 3
	ErrorInvalidAddress ErrorType = 4
	ErrorCoeffRange     ErrorType = 5
)

// errorTypeMask keeps the code within its 3-bit field.
const errorTypeMask = 0x7

// Resolve picks the single error type to report for a tick.
//
// Precedence, first match wins:
// Overflow > Underflow > InvalidConfig > InvalidAddress > CoeffRange > None.
func Resolve(f Flags) ErrorType {
	switch {
	case f&Overflow != 0:
		return ErrorOverflow
	case f&Underflow != 0:
		return ErrorUnderflow
	case f&InvalidConfig != 0:
		return ErrorInvalidConfig
	case f&InvalidAddress != 0:
		return ErrorInvalidAddress
	case f&CoeffRange != 0:
		return ErrorCoeffRange
	default:
		return ErrorNone
	}
}

// Code returns the register encoding of the error type.
func (e ErrorType) Code() uint32 {
	return uint32(e) & errorTypeMask
}

func (e ErrorType) String() string {
	switch e {
	case ErrorNone:
		return "none"
	case ErrorOverflow:
		return "overflow"
	case ErrorUnderflow:
		return "underflow"
	case ErrorInvalidConfig:
		return "invalid-config"
	case ErrorInvalidAddress:
		return "invalid-address"
	case ErrorCoeffRange:
		return "coeff-range"
	default:
		return "unknown"
	}
}
