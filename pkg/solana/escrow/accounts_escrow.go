package escrow

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58/base58"

	"github.com/code-payments/code-custody/pkg/solana/binary"
)

const (
	EscrowAccountSize = (8 + // discriminator
		8 + // seed
		32 + // maker
		32 + // mint_a
		32 + // mint_b
		8 + // receive
		1) // bump
)

var EscrowAccountDiscriminator = []byte{31, 213, 123, 187, 186, 22, 218, 155}

// EscrowAccount is an open offer to swap the vault's balance of MintA for
// Receive units of MintB.
type EscrowAccount struct {
	Seed    uint64
	Maker   ed25519.PublicKey
	MintA   ed25519.PublicKey
	MintB   ed25519.PublicKey
	Receive uint64
	Bump    uint8
}

func (obj *EscrowAccount) Marshal() []byte {
	data := make([]byte, EscrowAccountSize)

	var offset int
	copy(data, EscrowAccountDiscriminator)
	offset += len(EscrowAccountDiscriminator)

	binary.PutUint64(data[offset:], obj.Seed, &offset)
	binary.PutKey32(data[offset:], obj.Maker, &offset)
	binary.PutKey32(data[offset:], obj.MintA, &offset)
	binary.PutKey32(data[offset:], obj.MintB, &offset)
	binary.PutUint64(data[offset:], obj.Receive, &offset)
	binary.PutUint8(data[offset:], obj.Bump, &offset)

	return data
}

func (obj *EscrowAccount) Unmarshal(data []byte) error {
	if len(data) != EscrowAccountSize {
		return ErrInvalidAccountData
	}
	if !bytes.Equal(data[:len(EscrowAccountDiscriminator)], EscrowAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	offset := len(EscrowAccountDiscriminator)
	binary.GetUint64(data[offset:], &obj.Seed, &offset)
	binary.GetKey32(data[offset:], &obj.Maker, &offset)
	binary.GetKey32(data[offset:], &obj.MintA, &offset)
	binary.GetKey32(data[offset:], &obj.MintB, &offset)
	binary.GetUint64(data[offset:], &obj.Receive, &offset)
	binary.GetUint8(data[offset:], &obj.Bump, &offset)

	return nil
}

func (obj *EscrowAccount) String() string {
	return fmt.Sprintf(
		"EscrowAccount{seed=%d,maker=%s,mint_a=%s,mint_b=%s,receive=%d,bump=%d}",
		obj.Seed,
		base58.Encode(obj.Maker),
		base58.Encode(obj.MintA),
		base58.Encode(obj.MintB),
		obj.Receive,
		obj.Bump,
	)
}
