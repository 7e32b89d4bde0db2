package vault

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"

	"github.com/code-payments/code-custody/pkg/solana/system"
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("2z4jBnhcSEozUvx4JXGnEj57NgAiRjLKMvn2cQQ5e7zp")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID = ed25519.PublicKey(system.ProgramKey[:])
)

const (
	depositDiscriminator  byte = 0
	withdrawDiscriminator byte = 1
)

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
