package escrow

import (
	"crypto/ed25519"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/binary"
)

const (
	MakeInstructionArgsSize = (8 + // seed
		8 + // receive
		8) // amount

	MakeInstructionSize   = 1 + MakeInstructionArgsSize
	TakeInstructionSize   = 1
	RefundInstructionSize = 1
)

type MakeInstructionArgs struct {
	Seed    uint64
	Receive uint64
	Amount  uint64
}

type MakeInstructionAccounts struct {
	Maker     ed25519.PublicKey
	Escrow    ed25519.PublicKey
	MintA     ed25519.PublicKey
	MintB     ed25519.PublicKey
	MakerAtaA ed25519.PublicKey
	Vault     ed25519.PublicKey
}

func NewMakeInstruction(
	accounts *MakeInstructionAccounts,
	args *MakeInstructionArgs,
) solana.Instruction {
	var offset int

	data := make([]byte, MakeInstructionSize)
	binary.PutUint8(data[offset:], makeDiscriminator, &offset)
	binary.PutUint64(data[offset:], args.Seed, &offset)
	binary.PutUint64(data[offset:], args.Receive, &offset)
	binary.PutUint64(data[offset:], args.Amount, &offset)

	return solana.NewInstruction(
		PROGRAM_ID,
		data,
		solana.NewAccountMeta(accounts.Maker, true),
		solana.NewAccountMeta(accounts.Escrow, false),
		solana.NewReadonlyAccountMeta(accounts.MintA, false),
		solana.NewReadonlyAccountMeta(accounts.MintB, false),
		solana.NewAccountMeta(accounts.MakerAtaA, false),
		solana.NewAccountMeta(accounts.Vault, false),
		solana.NewReadonlyAccountMeta(SPL_ASSOCIATED_TOKEN_PROGRAM_ID, false),
		solana.NewReadonlyAccountMeta(SPL_TOKEN_PROGRAM_ID, false),
		solana.NewReadonlyAccountMeta(SYSTEM_PROGRAM_ID, false),
	)
}

type TakeInstructionAccounts struct {
	Taker     ed25519.PublicKey
	Maker     ed25519.PublicKey
	Escrow    ed25519.PublicKey
	MintA     ed25519.PublicKey
	MintB     ed25519.PublicKey
	Vault     ed25519.PublicKey
	TakerAtaA ed25519.PublicKey
	TakerAtaB ed25519.PublicKey
	MakerAtaB ed25519.PublicKey
}

func NewTakeInstruction(accounts *TakeInstructionAccounts) solana.Instruction {
	return solana.NewInstruction(
		PROGRAM_ID,
		[]byte{takeDiscriminator},
		solana.NewAccountMeta(accounts.Taker, true),
		solana.NewAccountMeta(accounts.Maker, false),
		solana.NewAccountMeta(accounts.Escrow, false),
		solana.NewReadonlyAccountMeta(accounts.MintA, false),
		solana.NewReadonlyAccountMeta(accounts.MintB, false),
		solana.NewAccountMeta(accounts.Vault, false),
		solana.NewAccountMeta(accounts.TakerAtaA, false),
		solana.NewAccountMeta(accounts.TakerAtaB, false),
		solana.NewAccountMeta(accounts.MakerAtaB, false),
		solana.NewReadonlyAccountMeta(SPL_ASSOCIATED_TOKEN_PROGRAM_ID, false),
		solana.NewReadonlyAccountMeta(SPL_TOKEN_PROGRAM_ID, false),
		solana.NewReadonlyAccountMeta(SYSTEM_PROGRAM_ID, false),
	)
}

type RefundInstructionAccounts struct {
	Maker     ed25519.PublicKey
	Escrow    ed25519.PublicKey
	MintA     ed25519.PublicKey
	Vault     ed25519.PublicKey
	MakerAtaA ed25519.PublicKey
}

func NewRefundInstruction(accounts *RefundInstructionAccounts) solana.Instruction {
	return solana.NewInstruction(
		PROGRAM_ID,
		[]byte{refundDiscriminator},
		solana.NewAccountMeta(accounts.Maker, true),
		solana.NewAccountMeta(accounts.Escrow, false),
		solana.NewReadonlyAccountMeta(accounts.MintA, false),
		solana.NewAccountMeta(accounts.Vault, false),
		solana.NewAccountMeta(accounts.MakerAtaA, false),
		solana.NewReadonlyAccountMeta(SPL_ASSOCIATED_TOKEN_PROGRAM_ID, false),
		solana.NewReadonlyAccountMeta(SPL_TOKEN_PROGRAM_ID, false),
		solana.NewReadonlyAccountMeta(SYSTEM_PROGRAM_ID, false),
	)
}
