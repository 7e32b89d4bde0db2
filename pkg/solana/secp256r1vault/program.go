package secp256r1vault

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"

	"github.com/code-payments/code-custody/pkg/solana/secp256r1"
	"github.com/code-payments/code-custody/pkg/solana/system"
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("7rVveyjQwpBPL5AdceniN76moTRB4YgYTY3kGhCb4zs")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID          = ed25519.PublicKey(system.ProgramKey[:])
	SECP256R1_PROGRAM_ID       = secp256r1.ProgramKey
	SYSVAR_INSTRUCTIONS_PUBKEY = system.InstructionsSysVar
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
