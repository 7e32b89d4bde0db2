package escrow

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/program"
	"github.com/code-payments/code-custody/pkg/solana/token"
)

func (p *processor) makeOffer(ctx program.Context, accounts []*program.AccountInfo, args []byte) error {
	if err := program.CheckAccounts(accounts, 9); err != nil {
		return err
	}

	var (
		maker                  = accounts[0]
		escrow                 = accounts[1]
		mintA                  = accounts[2]
		mintB                  = accounts[3]
		makerAtaA              = accounts[4]
		vault                  = accounts[5]
		associatedTokenProgram = accounts[6]
		tokenProgram           = accounts[7]
		systemProgram          = accounts[8]
	)

	log := ctx.Log().WithFields(logrus.Fields{
		"method": "make",
		"maker":  maker.String(),
		"escrow": escrow.String(),
	})

	if err := program.CheckSigner(maker); err != nil {
		log.Debug("maker did not sign")
		return err
	}
	if len(args) != MakeInstructionArgsSize {
		return program.ErrInvalidInstructionData
	}

	seed := binary.LittleEndian.Uint64(args[0:8])
	receive := binary.LittleEndian.Uint64(args[8:16])
	amount := binary.LittleEndian.Uint64(args[16:24])
	if receive == 0 || amount == 0 {
		return program.ErrInvalidAmount
	}

	bump, err := program.CheckDerivedAddress(escrow, PROGRAM_ID, escrowSeeds(maker.Key, seed)...)
	if err != nil {
		log.WithField("seed", seed).Debug("escrow is not derived from maker and seed")
		return err
	}
	if escrow.IsOwnedBy(PROGRAM_ID) || len(escrow.Data) > 0 {
		log.Debug("escrow already in use")
		return solana.InstructionErrorAccountAlreadyInitialized
	}
	if err := checkVault(vault, escrow, mintA); err != nil {
		return err
	}
	if err := checkPrograms(associatedTokenProgram, tokenProgram, systemProgram); err != nil {
		return err
	}

	mint, err := loadMint(mintA)
	if err != nil {
		return err
	}
	if err := program.CheckOwner(mintB, SPL_TOKEN_PROGRAM_ID); err != nil {
		return err
	}

	seeds := program.WithBump(escrowSeeds(maker.Key, seed), bump)
	if err := createProgramAccount(ctx, maker, escrow, EscrowAccountSize, seeds); err != nil {
		return err
	}
	if len(escrow.Data) != EscrowAccountSize {
		return solana.InstructionErrorInvalidAccountData
	}

	record := &EscrowAccount{
		Seed:    seed,
		Maker:   maker.Key,
		MintA:   mintA.Key,
		MintB:   mintB.Key,
		Receive: receive,
		Bump:    bump,
	}
	copy(escrow.Data, record.Marshal())

	if err := initAssociatedIfNeeded(ctx, maker, vault, escrow, mintA); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"amount":  amount,
		"receive": receive,
	}).Trace("depositing into escrow vault")
	return ctx.Invoke(token.Transfer2(makerAtaA.Key, mintA.Key, vault.Key, maker.Key, amount, mint.Decimals))
}
