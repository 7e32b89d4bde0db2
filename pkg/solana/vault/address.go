package vault

import (
	"crypto/ed25519"

	"github.com/code-payments/code-custody/pkg/solana"
)

var (
	VaultPrefix = []byte("vault")
)

type GetVaultAddressArgs struct {
	Owner ed25519.PublicKey
}

func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		VaultPrefix,
		args.Owner,
	)
}
