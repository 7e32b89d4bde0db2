package system

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/program"
)

// Reference: https://github.com/solana-labs/solana/blob/27eff8408b7223bb3c4ab70523f8a8dca3ca6645/sdk/program/src/system_instruction.rs#L21
const (
	ErrorAccountAlreadyInUse solana.CustomError = iota
	ErrorResultWithNegativeLamports
	ErrorInvalidProgramID
	ErrorInvalidAccountDataLength
)

type processor struct{}

// NewProcessor returns the builtin system program, which creates accounts,
// assigns their owners and moves lamports between system owned accounts.
func NewProcessor() program.Processor {
	return &processor{}
}

func (p *processor) Process(ctx program.Context, accounts []*program.AccountInfo, data []byte) error {
	if len(data) < 4 {
		return solana.InstructionErrorInvalidInstructionData
	}

	switch binary.LittleEndian.Uint32(data) {
	case commandCreateAccount:
		if len(data) != 52 {
			return solana.InstructionErrorInvalidInstructionData
		}
		if err := program.CheckAccounts(accounts, 2); err != nil {
			return err
		}

		lamports := binary.LittleEndian.Uint64(data[4:])
		space := binary.LittleEndian.Uint64(data[12:])
		owner := ed25519.PublicKey(data[20:52])
		return p.createAccount(ctx, accounts[0], accounts[1], lamports, space, owner)

	case commandAssign:
		if len(data) != 36 {
			return solana.InstructionErrorInvalidInstructionData
		}
		if err := program.CheckAccounts(accounts, 1); err != nil {
			return err
		}
		return p.assign(ctx, accounts[0], ed25519.PublicKey(data[4:36]))

	case commandTransfer:
		if len(data) != 12 {
			return solana.InstructionErrorInvalidInstructionData
		}
		if err := program.CheckAccounts(accounts, 2); err != nil {
			return err
		}
		return p.transfer(ctx, accounts[0], accounts[1], binary.LittleEndian.Uint64(data[4:]))

	case commandAllocate:
		if len(data) != 12 {
			return solana.InstructionErrorInvalidInstructionData
		}
		if err := program.CheckAccounts(accounts, 1); err != nil {
			return err
		}
		return p.allocate(ctx, accounts[0], binary.LittleEndian.Uint64(data[4:]))
	}

	return solana.InstructionErrorInvalidInstructionData
}

func (p *processor) createAccount(ctx program.Context, from, to *program.AccountInfo, lamports, space uint64, owner ed25519.PublicKey) error {
	if to.Lamports > 0 {
		ctx.Log().WithField("address", to.String()).Debug("create account: address already in use")
		return ErrorAccountAlreadyInUse
	}

	if err := p.allocate(ctx, to, space); err != nil {
		return err
	}
	if err := p.assign(ctx, to, owner); err != nil {
		return err
	}

	return p.transfer(ctx, from, to, lamports)
}

func (p *processor) assign(ctx program.Context, account *program.AccountInfo, owner ed25519.PublicKey) error {
	if account.IsOwnedBy(owner) {
		return nil
	}
	if !account.IsSigner {
		ctx.Log().WithField("address", account.String()).Debug("assign: account must sign")
		return solana.InstructionErrorMissingRequiredSignature
	}

	account.Owner = append(ed25519.PublicKey(nil), owner...)
	return nil
}

func (p *processor) allocate(ctx program.Context, account *program.AccountInfo, space uint64) error {
	if !account.IsSigner {
		ctx.Log().WithField("address", account.String()).Debug("allocate: account must sign")
		return solana.InstructionErrorMissingRequiredSignature
	}
	if len(account.Data) > 0 || !account.IsOwnedBy(ProgramKey[:]) {
		ctx.Log().WithField("address", account.String()).Debug("allocate: account already in use")
		return ErrorAccountAlreadyInUse
	}
	if space > MaxPermittedDataLength {
		return ErrorInvalidAccountDataLength
	}

	account.Data = make([]byte, space)
	return nil
}

func (p *processor) transfer(ctx program.Context, from, to *program.AccountInfo, lamports uint64) error {
	if !from.IsSigner {
		ctx.Log().WithField("from", from.String()).Debug("transfer: from must sign")
		return solana.InstructionErrorMissingRequiredSignature
	}
	if len(from.Data) > 0 {
		ctx.Log().WithField("from", from.String()).Debug("transfer: from must not carry data")
		return solana.InstructionErrorInvalidArgument
	}
	if lamports > from.Lamports {
		ctx.Log().WithField("from", from.String()).Debugf("transfer: insufficient lamports %d, need %d", from.Lamports, lamports)
		return ErrorResultWithNegativeLamports
	}
	if from.Account == to.Account || lamports == 0 {
		return nil
	}

	total := to.Lamports + lamports
	if total < to.Lamports {
		return solana.InstructionErrorArithmeticOverflow
	}

	from.Lamports -= lamports
	to.Lamports = total
	return nil
}
