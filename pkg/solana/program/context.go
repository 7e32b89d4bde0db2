package program

import (
	"crypto/ed25519"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-custody/pkg/solana"
)

// SignerSeeds are the seeds (including the trailing bump) of a program derived
// address the invoking program signs for during a cross-program invocation.
type SignerSeeds [][]byte

// Processor executes a single instruction on behalf of a program.
type Processor interface {
	Process(ctx Context, accounts []*AccountInfo, data []byte) error
}

// ProcessorFunc adapts a plain function into a Processor.
type ProcessorFunc func(ctx Context, accounts []*AccountInfo, data []byte) error

func (f ProcessorFunc) Process(ctx Context, accounts []*AccountInfo, data []byte) error {
	return f(ctx, accounts, data)
}

// Clock is the runtime's view of wall clock time for the executing batch.
type Clock struct {
	Slot          uint64
	UnixTimestamp int64
}

func (c Clock) Time() time.Time {
	return time.Unix(c.UnixTimestamp, 0)
}

// Rent parameterizes the minimum balance for an account's data allocation.
//
// Reference: https://github.com/solana-labs/solana/blob/27eff8408b7223bb3c4ab70523f8a8dca3ca6645/sdk/program/src/rent.rs
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  uint64
}

// AccountStorageOverhead is the number of bytes charged for an account on top
// of its data allocation.
const AccountStorageOverhead = 128

// DefaultRent matches the parameters of the Solana mainnet cluster.
var DefaultRent = Rent{
	LamportsPerByteYear: 3480,
	ExemptionThreshold:  2,
}

// MinimumBalance returns the lamports required for an account with size bytes
// of data to be exempt from rent.
func (r Rent) MinimumBalance(size uint64) uint64 {
	return (AccountStorageOverhead + size) * r.LamportsPerByteYear * r.ExemptionThreshold
}

// Context is the execution environment handed to a Processor.
type Context interface {
	// ProgramID is the address of the executing program.
	ProgramID() ed25519.PublicKey

	// Invoke performs a cross-program invocation. Every account referenced by
	// the instruction must be visible to the caller. Signer privileges are
	// extended for program derived addresses of the caller produced by the
	// provided seeds.
	Invoke(instruction solana.Instruction, signers ...SignerSeeds) error

	Clock() Clock
	Rent() Rent

	Log() *logrus.Entry
}
