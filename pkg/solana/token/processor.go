package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/program"
)

type processor struct{}

// NewProcessor returns the builtin token program. Multisig authorities,
// delegates and native (wrapped) accounts are not supported.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/processor.rs
func NewProcessor() program.Processor {
	return &processor{}
}

func (p *processor) Process(ctx program.Context, accounts []*program.AccountInfo, data []byte) error {
	if len(data) == 0 {
		return ErrorInvalidInstruction
	}

	switch Command(data[0]) {
	case CommandInitializeMint2:
		// decimals, authority, option<freeze authority>
		if len(data) != 35 && len(data) != 67 {
			return ErrorInvalidInstruction
		}
		if err := program.CheckAccounts(accounts, 1); err != nil {
			return err
		}

		var freezeAuthority ed25519.PublicKey
		if data[34] == 1 {
			if len(data) != 67 {
				return ErrorInvalidInstruction
			}
			freezeAuthority = copyKey(data[35:67])
		}
		return p.initializeMint(ctx, accounts[0], data[1], copyKey(data[2:34]), freezeAuthority)

	case CommandInitializeAccount3:
		if len(data) != 33 {
			return ErrorInvalidInstruction
		}
		if err := program.CheckAccounts(accounts, 2); err != nil {
			return err
		}
		return p.initializeAccount(ctx, accounts[0], accounts[1], copyKey(data[1:33]))

	case CommandTransfer:
		if len(data) != 9 {
			return ErrorInvalidInstruction
		}
		if err := program.CheckAccounts(accounts, 3); err != nil {
			return err
		}
		return p.transfer(ctx, accounts[0], nil, accounts[1], accounts[2], binary.LittleEndian.Uint64(data[1:]), nil)

	case CommandTransfer2:
		if len(data) != 10 {
			return ErrorInvalidInstruction
		}
		if err := program.CheckAccounts(accounts, 4); err != nil {
			return err
		}
		decimals := data[9]
		return p.transfer(ctx, accounts[0], accounts[1], accounts[2], accounts[3], binary.LittleEndian.Uint64(data[1:9]), &decimals)

	case CommandMintTo:
		if len(data) != 9 {
			return ErrorInvalidInstruction
		}
		if err := program.CheckAccounts(accounts, 3); err != nil {
			return err
		}
		return p.mintTo(ctx, accounts[0], accounts[1], accounts[2], binary.LittleEndian.Uint64(data[1:]))

	case CommandCloseAccount:
		if len(data) != 1 {
			return ErrorInvalidInstruction
		}
		if err := program.CheckAccounts(accounts, 3); err != nil {
			return err
		}
		return p.closeAccount(ctx, accounts[0], accounts[1], accounts[2])
	}

	ctx.Log().WithField("command", data[0]).Debug("unsupported token instruction")
	return ErrorInvalidInstruction
}

func (p *processor) initializeMint(ctx program.Context, info *program.AccountInfo, decimals byte, authority, freezeAuthority ed25519.PublicKey) error {
	if err := program.CheckOwner(info, ProgramKey); err != nil {
		return solana.InstructionErrorIncorrectProgramID
	}

	var mint Mint
	if !mint.Unmarshal(info.Data) {
		return solana.InstructionErrorInvalidAccountData
	}
	if mint.IsInitialized {
		return ErrorAlreadyInUse
	}
	if info.Lamports < ctx.Rent().MinimumBalance(MintSize) {
		return ErrorNotRentExempt
	}

	mint = Mint{
		MintAuthority:   authority,
		Decimals:        decimals,
		IsInitialized:   true,
		FreezeAuthority: freezeAuthority,
	}
	copy(info.Data, mint.Marshal())
	return nil
}

func (p *processor) initializeAccount(ctx program.Context, info, mintInfo *program.AccountInfo, owner ed25519.PublicKey) error {
	if err := program.CheckOwner(info, ProgramKey); err != nil {
		return solana.InstructionErrorIncorrectProgramID
	}

	var account Account
	if !account.Unmarshal(info.Data) {
		return solana.InstructionErrorInvalidAccountData
	}
	if account.State != AccountStateUninitialized {
		return ErrorAlreadyInUse
	}
	if info.Lamports < ctx.Rent().MinimumBalance(AccountSize) {
		return ErrorNotRentExempt
	}
	if _, err := loadMint(mintInfo); err != nil {
		return ErrorInvalidMint
	}

	account = Account{
		Mint:  copyKey(mintInfo.Key),
		Owner: owner,
		State: AccountStateInitialized,
	}
	copy(info.Data, account.Marshal())
	return nil
}

func (p *processor) transfer(ctx program.Context, sourceInfo, mintInfo, destInfo, authority *program.AccountInfo, amount uint64, decimals *byte) error {
	source, err := loadAccount(sourceInfo)
	if err != nil {
		return err
	}
	dest, err := loadAccount(destInfo)
	if err != nil {
		return err
	}

	if source.State == AccountStateFrozen || dest.State == AccountStateFrozen {
		return ErrorAccountFrozen
	}
	if source.Amount < amount {
		ctx.Log().WithField("source", sourceInfo.String()).Debugf("insufficient token balance %d, need %d", source.Amount, amount)
		return ErrorInsufficientFunds
	}
	if !bytes.Equal(source.Mint, dest.Mint) {
		return ErrorMintMismatch
	}

	if mintInfo != nil {
		if !bytes.Equal(mintInfo.Key, source.Mint) {
			return ErrorMintMismatch
		}

		mint, err := loadMint(mintInfo)
		if err != nil {
			return err
		}
		if decimals != nil && *decimals != mint.Decimals {
			return ErrorMintDecimalsMismatch
		}
	}

	if err := validateOwner(source.Owner, authority); err != nil {
		return err
	}

	if bytes.Equal(sourceInfo.Key, destInfo.Key) {
		return nil
	}

	total := dest.Amount + amount
	if total < dest.Amount {
		return ErrorOverflow
	}
	source.Amount -= amount
	dest.Amount = total

	copy(sourceInfo.Data, source.Marshal())
	copy(destInfo.Data, dest.Marshal())
	return nil
}

func (p *processor) mintTo(ctx program.Context, mintInfo, destInfo, authority *program.AccountInfo, amount uint64) error {
	dest, err := loadAccount(destInfo)
	if err != nil {
		return err
	}
	if dest.State == AccountStateFrozen {
		return ErrorAccountFrozen
	}
	if !bytes.Equal(mintInfo.Key, dest.Mint) {
		return ErrorMintMismatch
	}

	mint, err := loadMint(mintInfo)
	if err != nil {
		return err
	}
	if len(mint.MintAuthority) == 0 {
		return ErrorFixedSupply
	}
	if err := validateOwner(mint.MintAuthority, authority); err != nil {
		return err
	}

	supply := mint.Supply + amount
	if supply < mint.Supply {
		return ErrorOverflow
	}
	mint.Supply = supply
	dest.Amount += amount

	copy(mintInfo.Data, mint.Marshal())
	copy(destInfo.Data, dest.Marshal())
	return nil
}

func (p *processor) closeAccount(ctx program.Context, info, destInfo, authority *program.AccountInfo) error {
	if bytes.Equal(info.Key, destInfo.Key) {
		return solana.InstructionErrorInvalidAccountData
	}

	account, err := loadAccount(info)
	if err != nil {
		return err
	}
	if account.Amount != 0 {
		return ErrorNonNativeHasBalance
	}

	closeAuthority := account.Owner
	if len(account.CloseAuthority) > 0 {
		closeAuthority = account.CloseAuthority
	}
	if err := validateOwner(closeAuthority, authority); err != nil {
		return err
	}

	ctx.Log().WithField("account", info.String()).Trace("closing token account")
	return program.Close(info, destInfo)
}

func loadAccount(info *program.AccountInfo) (*Account, error) {
	if !info.IsOwnedBy(ProgramKey) {
		return nil, solana.InstructionErrorIncorrectProgramID
	}

	var account Account
	if !account.Unmarshal(info.Data) {
		return nil, solana.InstructionErrorInvalidAccountData
	}
	if account.State == AccountStateUninitialized {
		return nil, ErrorUninitializedState
	}
	return &account, nil
}

func loadMint(info *program.AccountInfo) (*Mint, error) {
	if !info.IsOwnedBy(ProgramKey) {
		return nil, solana.InstructionErrorIncorrectProgramID
	}

	var mint Mint
	if !mint.Unmarshal(info.Data) {
		return nil, solana.InstructionErrorInvalidAccountData
	}
	if !mint.IsInitialized {
		return nil, ErrorUninitializedState
	}
	return &mint, nil
}

// GetMint decodes an initialized mint owned by the token program.
func GetMint(info *program.AccountInfo) (*Mint, error) {
	return loadMint(info)
}

// GetAccount decodes an initialized token account owned by the token program.
func GetAccount(info *program.AccountInfo) (*Account, error) {
	return loadAccount(info)
}

func validateOwner(expected ed25519.PublicKey, authority *program.AccountInfo) error {
	if !bytes.Equal(expected, authority.Key) {
		return ErrorOwnerMismatch
	}
	if !authority.IsSigner {
		return solana.InstructionErrorMissingRequiredSignature
	}
	return nil
}

func copyKey(b []byte) ed25519.PublicKey {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, b)
	return key
}
