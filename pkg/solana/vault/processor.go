package vault

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-custody/pkg/solana/program"
	"github.com/code-payments/code-custody/pkg/solana/system"
)

type processor struct{}

// NewProcessor returns the vault program. Each owner has a single system owned
// vault at a derived address which only the owner can fund and sweep.
func NewProcessor() program.Processor {
	return &processor{}
}

func (p *processor) Process(ctx program.Context, accounts []*program.AccountInfo, data []byte) error {
	if len(data) == 0 {
		return program.ErrInvalidInstructionData
	}
	if err := program.CheckAccounts(accounts, 3); err != nil {
		return err
	}

	owner, vault, systemProgram := accounts[0], accounts[1], accounts[2]

	switch data[0] {
	case depositDiscriminator:
		return p.deposit(ctx, owner, vault, systemProgram, data[1:])
	case withdrawDiscriminator:
		return p.withdraw(ctx, owner, vault, systemProgram)
	}

	return program.ErrInvalidInstructionData
}

func (p *processor) deposit(ctx program.Context, owner, vault, systemProgram *program.AccountInfo, args []byte) error {
	log := ctx.Log().WithFields(logrus.Fields{
		"method": "deposit",
		"owner":  owner.String(),
		"vault":  vault.String(),
	})

	if err := program.CheckSigner(owner); err != nil {
		log.Debug("owner did not sign")
		return err
	}
	if err := program.CheckOwner(vault, SYSTEM_PROGRAM_ID); err != nil {
		log.Debug("vault is not a system account")
		return err
	}
	if len(args) != DepositInstructionArgsSize {
		return program.ErrInvalidInstructionData
	}

	amount := binary.LittleEndian.Uint64(args)
	if amount == 0 {
		return program.ErrInvalidAmount
	}

	if _, err := program.CheckDerivedAddress(vault, PROGRAM_ID, VaultPrefix, owner.Key); err != nil {
		log.Debug("vault is not derived from owner")
		return err
	}
	if err := program.CheckProgram(systemProgram, SYSTEM_PROGRAM_ID); err != nil {
		return err
	}

	log.WithField("amount", amount).Trace("depositing into vault")
	return ctx.Invoke(system.Transfer(owner.Key, vault.Key, amount))
}

func (p *processor) withdraw(ctx program.Context, owner, vault, systemProgram *program.AccountInfo) error {
	log := ctx.Log().WithFields(logrus.Fields{
		"method": "withdraw",
		"owner":  owner.String(),
		"vault":  vault.String(),
	})

	if err := program.CheckSigner(owner); err != nil {
		log.Debug("owner did not sign")
		return err
	}
	if vault.Lamports == 0 {
		log.Debug("vault is empty")
		return program.ErrNotInitialized
	}
	if err := program.CheckOwner(vault, SYSTEM_PROGRAM_ID); err != nil {
		return err
	}

	bump, err := program.CheckDerivedAddress(vault, PROGRAM_ID, VaultPrefix, owner.Key)
	if err != nil {
		log.Debug("vault is not derived from owner")
		return err
	}
	if err := program.CheckProgram(systemProgram, SYSTEM_PROGRAM_ID); err != nil {
		return err
	}

	lamports := vault.Lamports
	seeds := program.WithBump([][]byte{VaultPrefix, owner.Key}, bump)

	log.WithField("amount", lamports).Trace("sweeping vault")
	return ctx.Invoke(system.Transfer(vault.Key, owner.Key, lamports), seeds)
}
