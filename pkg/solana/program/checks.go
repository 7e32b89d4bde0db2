package program

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/code-custody/pkg/solana"
)

// SystemProgramKey is the address of the system program.
//
// 11111111111111111111111111111111
var SystemProgramKey = make(ed25519.PublicKey, ed25519.PublicKeySize)

// CheckAccounts ensures at least n accounts were provided.
func CheckAccounts(accounts []*AccountInfo, n int) error {
	if len(accounts) < n {
		return solana.InstructionErrorNotEnoughAccountKeys
	}
	return nil
}

// CheckSigner ensures the account signed the transaction (or was signed for by
// an invoking program).
func CheckSigner(info *AccountInfo) error {
	if !info.IsSigner {
		return ErrUnauthorized
	}
	return nil
}

// CheckWritable ensures the account was passed as writable.
func CheckWritable(info *AccountInfo) error {
	if !info.IsWritable {
		return solana.InstructionErrorInvalidArgument
	}
	return nil
}

// CheckOwner ensures owner is the account's owning program.
func CheckOwner(info *AccountInfo, owner ed25519.PublicKey) error {
	if !info.IsOwnedBy(owner) {
		return solana.InstructionErrorInvalidAccountOwner
	}
	return nil
}

// CheckProgram ensures the account is the expected program.
func CheckProgram(info *AccountInfo, program ed25519.PublicKey) error {
	if !bytes.Equal(info.Key, program) {
		return solana.InstructionErrorIncorrectProgramID
	}
	return nil
}

// CheckDerivedAddress ensures the account is the canonical program derived
// address of programID for seeds, returning its bump.
func CheckDerivedAddress(info *AccountInfo, programID ed25519.PublicKey, seeds ...[]byte) (uint8, error) {
	expected, bump, err := solana.FindProgramAddressAndBump(programID, seeds...)
	if err != nil {
		return 0, ErrInvalidAuthority
	}
	if !bytes.Equal(expected, info.Key) {
		return 0, ErrInvalidAuthority
	}
	return bump, nil
}

// Close moves all lamports from info to dest and releases the account's
// storage. The runtime purges the emptied account when the batch commits.
func Close(info, dest *AccountInfo) error {
	if info.Account == dest.Account {
		return solana.InstructionErrorInvalidArgument
	}

	total := dest.Lamports + info.Lamports
	if total < dest.Lamports {
		return ErrArithmeticOverflow
	}

	dest.Lamports = total
	info.Lamports = 0
	info.Data = nil
	info.Owner = append(ed25519.PublicKey(nil), SystemProgramKey...)
	return nil
}

// WithBump appends the bump seed to seeds.
func WithBump(seeds [][]byte, bump uint8) SignerSeeds {
	withBump := make(SignerSeeds, 0, len(seeds)+1)
	withBump = append(withBump, seeds...)
	return append(withBump, []byte{bump})
}
