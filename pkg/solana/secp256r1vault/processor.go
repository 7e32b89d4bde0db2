package secp256r1vault

import (
	"bytes"
	"encoding/binary"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/program"
	"github.com/code-payments/code-custody/pkg/solana/secp256r1"
	"github.com/code-payments/code-custody/pkg/solana/system"
)

type processor struct{}

// NewProcessor returns the secp256r1 vault program. Vaults are derived from a
// P-256 public key and can be swept by any payer holding an unexpired
// authorization signed by that key.
func NewProcessor() program.Processor {
	return &processor{}
}

func (p *processor) Process(ctx program.Context, accounts []*program.AccountInfo, data []byte) error {
	if len(data) == 0 {
		return program.ErrInvalidInstructionData
	}

	switch data[0] {
	case depositDiscriminator:
		return p.deposit(ctx, accounts, data[1:])
	case withdrawDiscriminator:
		return p.withdraw(ctx, accounts, data[1:])
	}

	return program.ErrInvalidInstructionData
}

func (p *processor) deposit(ctx program.Context, accounts []*program.AccountInfo, args []byte) error {
	if err := program.CheckAccounts(accounts, 3); err != nil {
		return err
	}

	payer, vault, systemProgram := accounts[0], accounts[1], accounts[2]

	log := ctx.Log().WithFields(logrus.Fields{
		"method": "deposit",
		"payer":  payer.String(),
		"vault":  vault.String(),
	})

	if err := program.CheckSigner(payer); err != nil {
		log.Debug("payer did not sign")
		return err
	}
	if err := program.CheckOwner(vault, SYSTEM_PROGRAM_ID); err != nil {
		return err
	}
	if vault.Lamports != 0 {
		log.Debug("vault is already funded")
		return solana.InstructionErrorAccountAlreadyInitialized
	}
	if len(args) != DepositInstructionArgsSize {
		return program.ErrInvalidInstructionData
	}

	amount := binary.LittleEndian.Uint64(args[secp256r1.PublicKeySize:])
	if amount == 0 {
		return program.ErrInvalidAmount
	}

	owner, err := secp256r1.NewPublicKey(args[:secp256r1.PublicKeySize])
	if err != nil {
		log.WithError(err).Debug("invalid vault owner")
		return program.ErrInvalidInstructionData
	}

	if _, err := program.CheckDerivedAddress(vault, PROGRAM_ID, vaultSeeds(owner)...); err != nil {
		log.Debug("vault is not derived from owner")
		return err
	}
	if err := program.CheckProgram(systemProgram, SYSTEM_PROGRAM_ID); err != nil {
		return err
	}

	log.WithField("amount", amount).Trace("depositing into vault")
	return ctx.Invoke(system.Transfer(payer.Key, vault.Key, amount))
}

func (p *processor) withdraw(ctx program.Context, accounts []*program.AccountInfo, args []byte) error {
	if err := program.CheckAccounts(accounts, 4); err != nil {
		return err
	}

	payer, vault, instructions, systemProgram := accounts[0], accounts[1], accounts[2], accounts[3]

	log := ctx.Log().WithFields(logrus.Fields{
		"method": "withdraw",
		"payer":  payer.String(),
		"vault":  vault.String(),
	})

	if err := program.CheckSigner(payer); err != nil {
		log.Debug("payer did not sign")
		return err
	}
	if err := program.CheckOwner(vault, SYSTEM_PROGRAM_ID); err != nil {
		return err
	}
	if !bytes.Equal(instructions.Key, SYSVAR_INSTRUCTIONS_PUBKEY) {
		return solana.InstructionErrorInvalidAccountData
	}
	if len(args) != WithdrawInstructionArgsSize {
		return program.ErrInvalidInstructionData
	}
	bump := args[0]

	authorization, err := LoadAuthorization(instructions.Data)
	if err != nil {
		log.Debug("withdraw is not followed by an authorization")
		return err
	}

	log = log.WithField("authorization", authorization.String())

	if err := authorization.Authorize(payer.Key, ctx.Clock().UnixTimestamp); err != nil {
		log.WithError(err).Debug("authorization rejected")
		return err
	}
	if vault.Lamports == 0 {
		log.Debug("vault is empty")
		return program.ErrNotInitialized
	}

	seeds := vaultSeeds(authorization.Signer)
	if !solana.VerifyProgramAddress(vault.Key, PROGRAM_ID, bump, seeds...) {
		log.WithField("bump", bump).Debug("vault is not derived from signer")
		return program.ErrInvalidAuthority
	}
	if err := program.CheckProgram(systemProgram, SYSTEM_PROGRAM_ID); err != nil {
		return err
	}

	lamports := vault.Lamports

	log.WithField("amount", lamports).Trace("sweeping vault")
	return ctx.Invoke(system.Transfer(vault.Key, payer.Key, lamports), program.WithBump(seeds, bump))
}
