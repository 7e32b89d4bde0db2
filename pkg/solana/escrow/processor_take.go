package escrow

import (
	"bytes"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-custody/pkg/solana/program"
	"github.com/code-payments/code-custody/pkg/solana/token"
)

func (p *processor) take(ctx program.Context, accounts []*program.AccountInfo) error {
	if err := program.CheckAccounts(accounts, 12); err != nil {
		return err
	}

	var (
		taker                  = accounts[0]
		maker                  = accounts[1]
		escrow                 = accounts[2]
		mintA                  = accounts[3]
		mintB                  = accounts[4]
		vault                  = accounts[5]
		takerAtaA              = accounts[6]
		takerAtaB              = accounts[7]
		makerAtaB              = accounts[8]
		associatedTokenProgram = accounts[9]
		tokenProgram           = accounts[10]
		systemProgram          = accounts[11]
	)

	log := ctx.Log().WithFields(logrus.Fields{
		"method": "take",
		"taker":  taker.String(),
		"escrow": escrow.String(),
	})

	if err := program.CheckSigner(taker); err != nil {
		log.Debug("taker did not sign")
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
	if !bytes.Equal(record.Maker, maker.Key) || !bytes.Equal(record.MintA, mintA.Key) || !bytes.Equal(record.MintB, mintB.Key) {
		log.WithField("record", record.String()).Debug("accounts do not match escrow")
		return program.ErrInvalidAuthority
	}
	if err := checkVault(vault, escrow, mintA); err != nil {
		return err
	}
	if err := checkPrograms(associatedTokenProgram, tokenProgram, systemProgram); err != nil {
		return err
	}

	mintStateA, err := loadMint(mintA)
	if err != nil {
		return err
	}
	mintStateB, err := loadMint(mintB)
	if err != nil {
		return err
	}

	if err := initAssociatedIfNeeded(ctx, taker, takerAtaA, taker, mintA); err != nil {
		return err
	}
	if err := initAssociatedIfNeeded(ctx, taker, makerAtaB, maker, mintB); err != nil {
		return err
	}

	source, err := token.GetAccount(takerAtaB)
	if err != nil {
		return err
	}
	if source.Amount < record.Receive {
		log.Debugf("taker holds %d, escrow requires %d", source.Amount, record.Receive)
		return program.ErrInsufficientFunds
	}

	deposit, err := token.GetAccount(vault)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"receive": record.Receive,
		"deposit": deposit.Amount,
	}).Trace("settling escrow")

	err = ctx.Invoke(token.Transfer2(takerAtaB.Key, mintB.Key, makerAtaB.Key, taker.Key, record.Receive, mintStateB.Decimals))
	if err != nil {
		return err
	}
	err = ctx.Invoke(token.Transfer2(vault.Key, mintA.Key, takerAtaA.Key, escrow.Key, deposit.Amount, mintStateA.Decimals), seeds)
	if err != nil {
		return err
	}
	if err := ctx.Invoke(token.CloseAccount(vault.Key, taker.Key, escrow.Key), seeds); err != nil {
		return err
	}

	return program.Close(escrow, maker)
}
