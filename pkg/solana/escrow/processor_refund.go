package escrow

import (
	"bytes"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-custody/pkg/solana/program"
	"github.com/code-payments/code-custody/pkg/solana/token"
)

func (p *processor) refund(ctx program.Context, accounts []*program.AccountInfo) error {
	if err := program.CheckAccounts(accounts, 8); err != nil {
		return err
	}

	var (
		maker                  = accounts[0]
		escrow                 = accounts[1]
		mintA                  = accounts[2]
		vault                  = accounts[3]
		makerAtaA              = accounts[4]
		associatedTokenProgram = accounts[5]
		tokenProgram           = accounts[6]
		systemProgram          = accounts[7]
	)

	log := ctx.Log().WithFields(logrus.Fields{
		"method": "refund",
		"maker":  maker.String(),
		"escrow": escrow.String(),
	})

	if err := program.CheckSigner(maker); err != nil {
		log.Debug("maker did not sign")
		return err
	}

	record, err := loadEscrow(escrow)
	if err != nil {
		log.Debug("escrow is not open")
		return err
	}
	seeds, err := verifyEscrowAddress(escrow, record)
	if err != nil {
		return err
	}
	if !bytes.Equal(record.Maker, maker.Key) {
		log.Debug("signer is not the escrow maker")
		return program.ErrInvalidAuthority
	}
	if !bytes.Equal(record.MintA, mintA.Key) {
		return program.ErrInvalidAuthority
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

	if err := initAssociatedIfNeeded(ctx, maker, makerAtaA, maker, mintA); err != nil {
		return err
	}

	deposit, err := token.GetAccount(vault)
	if err != nil {
		return err
	}

	log.WithField("deposit", deposit.Amount).Trace("refunding escrow")

	if deposit.Amount > 0 {
		err = ctx.Invoke(token.Transfer2(vault.Key, mintA.Key, makerAtaA.Key, escrow.Key, deposit.Amount, mint.Decimals), seeds)
		if err != nil {
			return err
		}
	}
	if err := ctx.Invoke(token.CloseAccount(vault.Key, maker.Key, escrow.Key), seeds); err != nil {
		return err
	}

	return program.Close(escrow, maker)
}
