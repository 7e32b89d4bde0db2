package program

import "fmt"

// Error is the error taxonomy shared by the custody programs. Codes start at
// 6000 to stay clear of the runtime's builtin instruction errors.
type Error uint32

const (
	ErrUnauthorized Error = iota + 0x1770
	ErrInvalidAuthority
	ErrNotInitialized
	ErrInvalidAmount
	ErrInsufficientFunds
	ErrInvalidInstructionData
	ErrExpired
	ErrArithmeticOverflow
)

var errorNames = map[Error]string{
	ErrUnauthorized:           "unauthorized",
	ErrInvalidAuthority:       "invalid authority",
	ErrNotInitialized:         "not initialized",
	ErrInvalidAmount:          "invalid amount",
	ErrInsufficientFunds:      "insufficient funds",
	ErrInvalidInstructionData: "invalid instruction data",
	ErrExpired:                "authorization expired",
	ErrArithmeticOverflow:     "arithmetic overflow",
}

func (e Error) Error() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("unknown program error: %d", uint32(e))
}

func (e Error) ProgramErrorCode() uint32 {
	return uint32(e)
}
