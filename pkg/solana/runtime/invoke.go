package runtime

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/program"
)

// transactionContext is the state shared by every frame of an executing
// transaction. Frames reference the same *program.Account values, so changes
// made by a callee are visible to its caller once the invocation returns.
type transactionContext struct {
	executor *Executor

	accounts     map[string]*program.Account
	clock        program.Clock
	maxCallDepth int

	// stack holds the program ids of the currently executing frames.
	stack []ed25519.PublicKey
	logs  []string

	// failure is the first error raised by a cross program invocation. It
	// fails the transaction even if the calling program ignores it.
	failure error

	log *logrus.Entry
}

func (t *transactionContext) logf(format string, args ...interface{}) {
	t.logs = append(t.logs, fmt.Sprintf(format, args...))
}

// execute runs a single instruction in a new frame at depth, verifying the
// frame's account changes once the program returns.
func (t *transactionContext) execute(index, depth int, programID ed25519.PublicKey, accounts []*program.AccountInfo, data []byte) error {
	processor, ok := t.executor.programs[string(programID)]
	if !ok {
		return solana.InstructionErrorUnsupportedProgramID
	}

	encodedProgramID := base58.Encode(programID)

	f := newFrame(programID, accounts)
	ctx := &invokeContext{
		txn:   t,
		frame: f,
		index: index,
		depth: depth,
		log: t.log.WithFields(logrus.Fields{
			"program":     encodedProgramID,
			"instruction": index,
			"depth":       depth,
		}),
	}

	t.stack = append(t.stack, programID)
	defer func() {
		t.stack = t.stack[:len(t.stack)-1]
	}()

	t.logf("Program %s invoke [%d]", encodedProgramID, depth)

	err := processor.Process(ctx, accounts, data)
	if err == nil {
		err = f.verify()
	}
	if err != nil {
		t.logf("Program %s failed: %v", encodedProgramID, err)
		return err
	}

	t.logf("Program %s success", encodedProgramID)
	return nil
}

// invokeContext implements program.Context for a single frame.
type invokeContext struct {
	txn   *transactionContext
	frame *frame
	index int
	depth int
	log   *logrus.Entry
}

func (c *invokeContext) ProgramID() ed25519.PublicKey {
	return c.frame.programID
}

func (c *invokeContext) Clock() program.Clock {
	return c.txn.clock
}

func (c *invokeContext) Rent() program.Rent {
	return program.DefaultRent
}

func (c *invokeContext) Log() *logrus.Entry {
	return c.log
}

// Invoke implements program.Context.Invoke
//
// The callee may only receive privileges the caller holds, except for signer
// privileges on program derived addresses of the caller produced by signers.
func (c *invokeContext) Invoke(ix solana.Instruction, signers ...program.SignerSeeds) error {
	err := c.invoke(ix, signers...)
	if err != nil && c.txn.failure == nil {
		c.txn.failure = err
	}
	return err
}

func (c *invokeContext) invoke(ix solana.Instruction, signers ...program.SignerSeeds) error {
	if c.depth+1 > c.txn.maxCallDepth {
		return solana.InstructionErrorCallDepth
	}

	var derivedSigners []ed25519.PublicKey
	for _, seeds := range signers {
		address, err := solana.CreateProgramAddress(c.frame.programID, seeds...)
		if err != nil {
			c.log.WithError(err).Debug("invalid signer seeds")
			return solana.InstructionErrorInvalidSeeds
		}
		derivedSigners = append(derivedSigners, address)
	}

	if c.frame.find(ix.Program) == nil {
		c.log.WithField("callee", base58.Encode(ix.Program)).Debug("callee program not provided to caller")
		return solana.InstructionErrorMissingAccount
	}

	accounts := make([]*program.AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		caller := c.frame.find(meta.PublicKey)
		if caller == nil {
			c.log.WithField("account", base58.Encode(meta.PublicKey)).Debug("account not provided to caller")
			return solana.InstructionErrorMissingAccount
		}

		if meta.IsWritable && !caller.isWritable {
			c.log.WithField("account", base58.Encode(meta.PublicKey)).Debug("writable privilege escalated")
			return solana.InstructionErrorPrivilegeEscalation
		}
		if meta.IsSigner && !caller.isSigner && !containsKey(derivedSigners, meta.PublicKey) {
			c.log.WithField("account", base58.Encode(meta.PublicKey)).Debug("signer privilege escalated")
			return solana.InstructionErrorPrivilegeEscalation
		}

		accounts[i] = &program.AccountInfo{
			Key:        caller.key,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
			Account:    caller.live,
		}
	}

	// A program may call itself, but may not be re-entered through another.
	caller := c.txn.stack[len(c.txn.stack)-1]
	if containsKey(c.txn.stack, ix.Program) && !bytes.Equal(caller, ix.Program) {
		return solana.InstructionErrorReentrancyNotAllowed
	}

	if err := c.frame.verifyAndUpdate(); err != nil {
		return err
	}

	if err := c.txn.execute(c.index, c.depth+1, ix.Program, accounts, ix.Data); err != nil {
		return err
	}

	c.frame.snapshot()
	return nil
}

func containsKey(keys []ed25519.PublicKey, key ed25519.PublicKey) bool {
	for _, candidate := range keys {
		if bytes.Equal(candidate, key) {
			return true
		}
	}
	return false
}
