package escrow

import (
	"bytes"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/program"
	"github.com/code-payments/code-custody/pkg/solana/system"
	"github.com/code-payments/code-custody/pkg/solana/token"
)

type processor struct{}

// NewProcessor returns the escrow program, which swaps a maker's deposit of
// one token for a fixed amount of another in a single atomic take.
//
// An escrow is either open, taken or refunded. Taking and refunding both
// close the escrow and its vault, so each offer settles at most once.
func NewProcessor() program.Processor {
	return &processor{}
}

func (p *processor) Process(ctx program.Context, accounts []*program.AccountInfo, data []byte) error {
	if len(data) == 0 {
		return program.ErrInvalidInstructionData
	}

	switch data[0] {
	case makeDiscriminator:
		return p.makeOffer(ctx, accounts, data[1:])
	case takeDiscriminator:
		return p.take(ctx, accounts)
	case refundDiscriminator:
		return p.refund(ctx, accounts)
	}

	return program.ErrInvalidInstructionData
}

// loadEscrow decodes an open escrow record.
func loadEscrow(info *program.AccountInfo) (*EscrowAccount, error) {
	if !info.IsOwnedBy(PROGRAM_ID) {
		return nil, program.ErrNotInitialized
	}

	var record EscrowAccount
	if err := record.Unmarshal(info.Data); err != nil {
		return nil, program.ErrNotInitialized
	}
	return &record, nil
}

// verifyEscrowAddress re-derives the escrow address from its stored seeds.
func verifyEscrowAddress(info *program.AccountInfo, record *EscrowAccount) (program.SignerSeeds, error) {
	seeds := program.WithBump(escrowSeeds(record.Maker, record.Seed), record.Bump)

	address, err := solana.CreateProgramAddress(PROGRAM_ID, seeds...)
	if err != nil || !bytes.Equal(address, info.Key) {
		return nil, program.ErrInvalidAuthority
	}
	return seeds, nil
}

func checkVault(vault, escrow, mintA *program.AccountInfo) error {
	expected, err := GetVaultAddress(&GetVaultAddressArgs{Escrow: escrow.Key, MintA: mintA.Key})
	if err != nil || !bytes.Equal(expected, vault.Key) {
		return solana.InstructionErrorInvalidAccountData
	}
	return nil
}

func checkPrograms(associatedTokenProgram, tokenProgram, systemProgram *program.AccountInfo) error {
	if err := program.CheckProgram(associatedTokenProgram, SPL_ASSOCIATED_TOKEN_PROGRAM_ID); err != nil {
		return err
	}
	if err := program.CheckProgram(tokenProgram, SPL_TOKEN_PROGRAM_ID); err != nil {
		return err
	}
	return program.CheckProgram(systemProgram, SYSTEM_PROGRAM_ID)
}

func loadMint(info *program.AccountInfo) (*token.Mint, error) {
	if err := program.CheckOwner(info, SPL_TOKEN_PROGRAM_ID); err != nil {
		return nil, err
	}
	return token.GetMint(info)
}

// initAssociatedIfNeeded creates the associated token account of wallet for
// mint, paid for by payer, unless it already exists.
func initAssociatedIfNeeded(ctx program.Context, payer, ata, wallet, mint *program.AccountInfo) error {
	ix, expected, err := token.CreateAssociatedTokenAccountIdempotent(payer.Key, wallet.Key, mint.Key)
	if err != nil {
		return solana.InstructionErrorInvalidSeeds
	}
	if !bytes.Equal(expected, ata.Key) {
		return solana.InstructionErrorInvalidAccountData
	}
	return ctx.Invoke(ix)
}

// createProgramAccount allocates a rent exempt account of size bytes owned by
// this program at the derived address signed for by seeds.
func createProgramAccount(ctx program.Context, payer, info *program.AccountInfo, size uint64, seeds program.SignerSeeds) error {
	required := ctx.Rent().MinimumBalance(size)

	if info.Lamports == 0 {
		return ctx.Invoke(system.CreateAccount(payer.Key, info.Key, PROGRAM_ID, required, size), seeds)
	}

	// Pre-funded addresses are topped up, then allocated and assigned in place.
	if info.Lamports < required {
		if err := ctx.Invoke(system.Transfer(payer.Key, info.Key, required-info.Lamports)); err != nil {
			return err
		}
	}
	if err := ctx.Invoke(system.Allocate(info.Key, size), seeds); err != nil {
		return err
	}
	return ctx.Invoke(system.Assign(info.Key, PROGRAM_ID), seeds)
}
