package escrow

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-custody/pkg/solana/system"
	"github.com/code-payments/code-custody/pkg/solana/token"
)

var (
	ErrInvalidAccountData = errors.New("unexpected account data")
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("ELoKhqQjSW495Hja4exXCMWYNjPxAg9yBZhWtMPKvsVZ")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID               = ed25519.PublicKey(system.ProgramKey[:])
	SPL_TOKEN_PROGRAM_ID            = token.ProgramKey
	SPL_ASSOCIATED_TOKEN_PROGRAM_ID = token.AssociatedTokenAccountProgramKey
)

const (
	makeDiscriminator   byte = 0
	takeDiscriminator   byte = 1
	refundDiscriminator byte = 2
)

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
