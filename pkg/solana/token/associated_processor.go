package token

import (
	"bytes"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/program"
	"github.com/code-payments/code-custody/pkg/solana/system"
)

type associatedProcessor struct{}

// NewAssociatedProcessor returns the builtin associated token account program.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/0639953c7dd0f5228c3ceda3ba68fece3b46ff1d/associated-token-account/program/src/processor.rs
func NewAssociatedProcessor() program.Processor {
	return &associatedProcessor{}
}

func (p *associatedProcessor) Process(ctx program.Context, accounts []*program.AccountInfo, data []byte) error {
	var idempotent bool
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte{commandCreate}):
	case bytes.Equal(data, []byte{commandCreateIdempotent}):
		idempotent = true
	default:
		return solana.InstructionErrorInvalidInstructionData
	}

	if err := program.CheckAccounts(accounts, 6); err != nil {
		return err
	}

	payer := accounts[0]
	associated := accounts[1]
	wallet := accounts[2]
	mint := accounts[3]

	if err := program.CheckProgram(accounts[4], system.ProgramKey[:]); err != nil {
		return err
	}
	if err := program.CheckProgram(accounts[5], ProgramKey); err != nil {
		return err
	}

	expected, bump, err := GetAssociatedAccountAndBump(wallet.Key, mint.Key)
	if err != nil || !bytes.Equal(expected, associated.Key) {
		return solana.InstructionErrorInvalidSeeds
	}

	log := ctx.Log().WithField("associated", associated.String())

	if idempotent && associated.IsOwnedBy(ProgramKey) {
		existing, err := loadAccount(associated)
		if err != nil {
			return err
		}
		if !bytes.Equal(existing.Owner, wallet.Key) || !bytes.Equal(existing.Mint, mint.Key) {
			return solana.InstructionErrorIllegalOwner
		}

		log.Trace("associated account already exists")
		return nil
	}

	if !associated.IsOwnedBy(system.ProgramKey[:]) {
		return solana.InstructionErrorIllegalOwner
	}

	seeds := program.WithBump([][]byte{wallet.Key, ProgramKey, mint.Key}, bump)
	required := ctx.Rent().MinimumBalance(AccountSize)

	if associated.Lamports == 0 {
		err = ctx.Invoke(system.CreateAccount(payer.Key, associated.Key, ProgramKey, required, AccountSize), seeds)
		if err != nil {
			return err
		}
	} else {
		// Pre-funded addresses are topped up, then allocated and assigned in place.
		if associated.Lamports < required {
			if err := ctx.Invoke(system.Transfer(payer.Key, associated.Key, required-associated.Lamports)); err != nil {
				return err
			}
		}
		if err := ctx.Invoke(system.Allocate(associated.Key, AccountSize), seeds); err != nil {
			return err
		}
		if err := ctx.Invoke(system.Assign(associated.Key, ProgramKey), seeds); err != nil {
			return err
		}
	}

	log.Trace("initializing associated account")
	return ctx.Invoke(InitializeAccount3(associated.Key, mint.Key, wallet.Key))
}
