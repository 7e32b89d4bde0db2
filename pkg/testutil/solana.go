package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/program"
)

func GenerateSolanaKeypair(t *testing.T) ed25519.PrivateKey {
	_, p, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return p
}

func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		p, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = p
	}
	return keys
}

// NewSystemAccountInfo returns an AccountInfo for a system owned account
// holding lamports and no data.
func NewSystemAccountInfo(key ed25519.PublicKey, lamports uint64, isSigner, isWritable bool) *program.AccountInfo {
	return &program.AccountInfo{
		Key:        key,
		IsSigner:   isSigner,
		IsWritable: isWritable,
		Account: &program.Account{
			Owner:    program.SystemProgramKey,
			Lamports: lamports,
		},
	}
}

// ProgramContext is a program.Context for exercising a processor in
// isolation. Invocations are recorded rather than executed.
type ProgramContext struct {
	ID          ed25519.PublicKey
	CurrentTime program.Clock
	Invoked     []solana.Instruction
	InvokedWith [][]program.SignerSeeds
	InvokeErr   error
}

func NewProgramContext(id ed25519.PublicKey) *ProgramContext {
	return &ProgramContext{ID: id}
}

func (c *ProgramContext) ProgramID() ed25519.PublicKey {
	return c.ID
}

func (c *ProgramContext) Invoke(ix solana.Instruction, signers ...program.SignerSeeds) error {
	c.Invoked = append(c.Invoked, ix)
	c.InvokedWith = append(c.InvokedWith, signers)
	return c.InvokeErr
}

func (c *ProgramContext) Clock() program.Clock {
	return c.CurrentTime
}

func (c *ProgramContext) Rent() program.Rent {
	return program.DefaultRent
}

func (c *ProgramContext) Log() *logrus.Entry {
	return logrus.StandardLogger().WithField("type", "testutil/program")
}
