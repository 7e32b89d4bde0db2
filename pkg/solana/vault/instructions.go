package vault

import (
	"crypto/ed25519"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/binary"
)

const (
	DepositInstructionArgsSize = 8 // amount

	DepositInstructionSize  = 1 + DepositInstructionArgsSize
	WithdrawInstructionSize = 1
)

type DepositInstructionArgs struct {
	Amount uint64
}

type DepositInstructionAccounts struct {
	Owner ed25519.PublicKey
	Vault ed25519.PublicKey
}

// NewDepositInstruction funds the owner's vault with amount lamports.
func NewDepositInstruction(
	accounts *DepositInstructionAccounts,
	args *DepositInstructionArgs,
) solana.Instruction {
	var offset int

	data := make([]byte, DepositInstructionSize)
	binary.PutUint8(data[offset:], depositDiscriminator, &offset)
	binary.PutUint64(data[offset:], args.Amount, &offset)

	return solana.NewInstruction(
		PROGRAM_ID,
		data,
		solana.NewAccountMeta(accounts.Owner, true),
		solana.NewAccountMeta(accounts.Vault, false),
		solana.NewReadonlyAccountMeta(SYSTEM_PROGRAM_ID, false),
	)
}

type WithdrawInstructionAccounts struct {
	Owner ed25519.PublicKey
	Vault ed25519.PublicKey
}

// NewWithdrawInstruction sweeps the owner's vault back to the owner.
func NewWithdrawInstruction(accounts *WithdrawInstructionAccounts) solana.Instruction {
	return solana.NewInstruction(
		PROGRAM_ID,
		[]byte{withdrawDiscriminator},
		solana.NewAccountMeta(accounts.Owner, true),
		solana.NewAccountMeta(accounts.Vault, false),
		solana.NewReadonlyAccountMeta(SYSTEM_PROGRAM_ID, false),
	)
}
