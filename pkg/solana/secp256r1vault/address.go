package secp256r1vault

import (
	"crypto/ed25519"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/secp256r1"
)

var (
	VaultPrefix = []byte("vault")
)

type GetVaultAddressArgs struct {
	Owner secp256r1.PublicKey
}

func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(PROGRAM_ID, vaultSeeds(args.Owner)...)
}

// vaultSeeds splits the compressed key across two seeds, since a single seed
// is limited to 32 bytes.
func vaultSeeds(owner secp256r1.PublicKey) [][]byte {
	compressed := owner.Compressed()
	return [][]byte{VaultPrefix, compressed[:1], compressed[1:]}
}
