package secp256r1vault

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/mr-tron/base58/base58"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/binary"
	"github.com/code-payments/code-custody/pkg/solana/program"
	"github.com/code-payments/code-custody/pkg/solana/secp256r1"
	"github.com/code-payments/code-custody/pkg/solana/system"
)

const (
	AuthorizationMessageSize = (32 + // payer
		8) // expiry
)

// AuthorizationMessage is the message a vault owner signs to release the vault
// to Payer until Expiry.
type AuthorizationMessage struct {
	Payer  ed25519.PublicKey
	Expiry int64
}

func (m *AuthorizationMessage) Marshal() []byte {
	data := make([]byte, AuthorizationMessageSize)

	var offset int
	binary.PutKey32(data[offset:], m.Payer, &offset)
	binary.PutInt64(data[offset:], m.Expiry, &offset)

	return data
}

func (m *AuthorizationMessage) Unmarshal(data []byte) error {
	if len(data) != AuthorizationMessageSize {
		return program.ErrInvalidInstructionData
	}

	var offset int
	binary.GetKey32(data[offset:], &m.Payer, &offset)
	binary.GetInt64(data[offset:], &m.Expiry, &offset)

	return nil
}

// SignatureAuthorization is a signed AuthorizationMessage relayed through the
// secp256r1 precompile instruction following a withdraw.
type SignatureAuthorization struct {
	Signer  secp256r1.PublicKey
	Message AuthorizationMessage
}

func (a *SignatureAuthorization) String() string {
	return fmt.Sprintf(
		"SignatureAuthorization{signer=%s,payer=%s,expiry=%s}",
		base58.Encode(a.Signer.Compressed()),
		base58.Encode(a.Message.Payer),
		time.Unix(a.Message.Expiry, 0).UTC().Format(time.RFC3339),
	)
}

// Authorize checks the authorization releases the vault to payer at now.
func (a *SignatureAuthorization) Authorize(payer ed25519.PublicKey, now int64) error {
	if !bytes.Equal(a.Message.Payer, payer) {
		return program.ErrInvalidAuthority
	}
	if now > a.Message.Expiry {
		return program.ErrExpired
	}
	return nil
}

// NewAuthorizationInstruction signs an AuthorizationMessage with the vault
// owner's key, producing the precompile instruction to place directly after
// the withdraw.
func NewAuthorizationInstruction(owner *ecdsa.PrivateKey, payer ed25519.PublicKey, expiry time.Time) (solana.Instruction, error) {
	message := &AuthorizationMessage{
		Payer:  payer,
		Expiry: expiry.Unix(),
	}
	return secp256r1.Instruction(owner, message.Marshal())
}

// LoadAuthorization reads the authorization from the instruction following the
// executing one in the instructions sysvar data. The instruction must be a
// secp256r1 precompile instruction carrying exactly one signature.
func LoadAuthorization(instructions []byte) (*SignatureAuthorization, error) {
	ix, err := system.GetInstructionRelative(instructions, 1)
	if err != nil {
		return nil, program.ErrInvalidInstructionData
	}
	if !bytes.Equal(ix.Program, SECP256R1_PROGRAM_ID) {
		return nil, program.ErrInvalidInstructionData
	}

	entries, err := secp256r1.ParseInstruction(ix.Data)
	if err != nil || len(entries) != 1 {
		return nil, program.ErrInvalidInstructionData
	}

	authorization := &SignatureAuthorization{Signer: entries[0].PublicKey}
	if err := authorization.Message.Unmarshal(entries[0].Message); err != nil {
		return nil, err
	}
	return authorization, nil
}
