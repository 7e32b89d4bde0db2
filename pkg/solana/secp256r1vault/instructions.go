package secp256r1vault

import (
	"crypto/ed25519"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/binary"
	"github.com/code-payments/code-custody/pkg/solana/secp256r1"
)

const (
	DepositInstructionArgsSize = (secp256r1.PublicKeySize + // owner
		8) // amount
	WithdrawInstructionArgsSize = 1 // bump

	DepositInstructionSize  = 1 + DepositInstructionArgsSize
	WithdrawInstructionSize = 1 + WithdrawInstructionArgsSize
)

type DepositInstructionArgs struct {
	Owner  secp256r1.PublicKey
	Amount uint64
}

type DepositInstructionAccounts struct {
	Payer ed25519.PublicKey
	Vault ed25519.PublicKey
}

func NewDepositInstruction(
	accounts *DepositInstructionAccounts,
	args *DepositInstructionArgs,
) solana.Instruction {
	var offset int

	data := make([]byte, DepositInstructionSize)
	binary.PutUint8(data[offset:], depositDiscriminator, &offset)
	offset += copy(data[offset:], args.Owner[:])
	binary.PutUint64(data[offset:], args.Amount, &offset)

	return solana.NewInstruction(
		PROGRAM_ID,
		data,
		solana.NewAccountMeta(accounts.Payer, true),
		solana.NewAccountMeta(accounts.Vault, false),
		solana.NewReadonlyAccountMeta(SYSTEM_PROGRAM_ID, false),
	)
}

type WithdrawInstructionArgs struct {
	Bump uint8
}

type WithdrawInstructionAccounts struct {
	Payer ed25519.PublicKey
	Vault ed25519.PublicKey
}

// NewWithdrawInstruction sweeps the vault to the payer. It must be followed
// by the instruction returned from NewAuthorizationInstruction.
func NewWithdrawInstruction(
	accounts *WithdrawInstructionAccounts,
	args *WithdrawInstructionArgs,
) solana.Instruction {
	return solana.NewInstruction(
		PROGRAM_ID,
		[]byte{withdrawDiscriminator, args.Bump},
		solana.NewAccountMeta(accounts.Payer, true),
		solana.NewAccountMeta(accounts.Vault, false),
		solana.NewReadonlyAccountMeta(SYSVAR_INSTRUCTIONS_PUBKEY, false),
		solana.NewReadonlyAccountMeta(SYSTEM_PROGRAM_ID, false),
	)
}
