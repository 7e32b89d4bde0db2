package escrow

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/token"
)

var (
	EscrowPrefix = []byte("escrow")
)

type GetEscrowAddressArgs struct {
	Maker ed25519.PublicKey
	Seed  uint64
}

func GetEscrowAddress(args *GetEscrowAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		EscrowPrefix,
		args.Maker,
		seedBytes(args.Seed),
	)
}

type GetVaultAddressArgs struct {
	Escrow ed25519.PublicKey
	MintA  ed25519.PublicKey
}

// GetVaultAddress returns the token account holding the maker's deposit, which
// is the escrow's associated token account for the offered mint.
func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, error) {
	return token.GetAssociatedAccount(args.Escrow, args.MintA)
}

func seedBytes(seed uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, seed)
	return b
}

func escrowSeeds(maker ed25519.PublicKey, seed uint64) [][]byte {
	return [][]byte{EscrowPrefix, maker, seedBytes(seed)}
}
