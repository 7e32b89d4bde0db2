package secp256r1

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-custody/pkg/solana"
)

// Secp256r1SigVerify1111111111111111111111111
var ProgramKey ed25519.PublicKey

const (
	maxSignatures = 8
)

func init() {
	var err error

	ProgramKey, err = base58.Decode("Secp256r1SigVerify1111111111111111111111111")
	if err != nil {
		panic(err)
	}
}

// SignedMessage is a single signature entry of a precompile instruction.
type SignedMessage struct {
	PublicKey PublicKey
	Signature []byte
	Message   []byte
}

// Instruction returns a precompile instruction verifying a signature by priv
// over message.
func Instruction(priv *ecdsa.PrivateKey, message []byte) (solana.Instruction, error) {
	signature, err := Sign(priv, message)
	if err != nil {
		return solana.Instruction{}, err
	}

	return NewInstruction(SignedMessage{
		PublicKey: PublicKeyFromECDSA(&priv.PublicKey),
		Signature: signature,
		Message:   message,
	})
}

// NewInstruction lays out one or more signed messages into precompile
// instruction data. Each entry is stored as the compressed public key, the
// signature and then the message, all referenced from the instruction itself.
func NewInstruction(entries ...SignedMessage) (solana.Instruction, error) {
	if len(entries) == 0 || len(entries) > maxSignatures {
		return solana.Instruction{}, errors.Errorf("expected between 1 and %d signatures", maxSignatures)
	}

	size := solana.SignatureOffsetsStart + len(entries)*solana.SignatureOffsetsSize
	for _, entry := range entries {
		if len(entry.Signature) != SignatureSize {
			return solana.Instruction{}, ErrInvalidSignature
		}
		size += CompressedPublicKeySize + SignatureSize + len(entry.Message)
	}
	if size > math.MaxUint16 {
		return solana.Instruction{}, errors.New("instruction data too large")
	}

	data := make([]byte, size)
	data[0] = byte(len(entries))

	offset := solana.SignatureOffsetsStart + len(entries)*solana.SignatureOffsetsSize
	for i, entry := range entries {
		publicKeyOffset := offset
		signatureOffset := publicKeyOffset + CompressedPublicKeySize
		messageOffset := signatureOffset + SignatureSize

		solana.SignatureOffsets{
			SignatureOffset:           uint16(signatureOffset),
			SignatureInstructionIndex: solana.CurrentInstructionIndex,
			PublicKeyOffset:           uint16(publicKeyOffset),
			PublicKeyInstructionIndex: solana.CurrentInstructionIndex,
			MessageDataOffset:         uint16(messageOffset),
			MessageDataSize:           uint16(len(entry.Message)),
			MessageInstructionIndex:   solana.CurrentInstructionIndex,
		}.Marshal(data[solana.SignatureOffsetsStart+i*solana.SignatureOffsetsSize:])

		copy(data[publicKeyOffset:], entry.PublicKey.Compressed())
		copy(data[signatureOffset:], entry.Signature)
		copy(data[messageOffset:], entry.Message)

		offset = messageOffset + len(entry.Message)
	}

	return solana.NewInstruction(ProgramKey, data), nil
}

// ParseInstruction decodes the signed messages of precompile instruction data
// whose entries all reference the instruction itself. Signatures are not
// verified, which the runtime does before any program executes.
func ParseInstruction(data []byte) ([]SignedMessage, error) {
	offsets, err := solana.ParseSignatureOffsets(data, maxSignatures)
	if err != nil {
		return nil, err
	}

	entries := make([]SignedMessage, len(offsets))
	for i, o := range offsets {
		if o.SignatureInstructionIndex != solana.CurrentInstructionIndex ||
			o.PublicKeyInstructionIndex != solana.CurrentInstructionIndex ||
			o.MessageInstructionIndex != solana.CurrentInstructionIndex {
			return nil, solana.PrecompileErrorInvalidDataOffsets
		}

		signature, publicKey, message, err := resolve(data, nil, o)
		if err != nil {
			return nil, err
		}

		entries[i] = SignedMessage{
			PublicKey: publicKey,
			Signature: append([]byte(nil), signature...),
			Message:   append([]byte(nil), message...),
		}
	}

	return entries, nil
}

func resolve(data []byte, instructions [][]byte, o solana.SignatureOffsets) (signature []byte, publicKey PublicKey, message []byte, err error) {
	signature, err = solana.PrecompileDataSlice(data, instructions, o.SignatureInstructionIndex, o.SignatureOffset, SignatureSize)
	if err != nil {
		return nil, publicKey, nil, err
	}

	compressed, err := solana.PrecompileDataSlice(data, instructions, o.PublicKeyInstructionIndex, o.PublicKeyOffset, CompressedPublicKeySize)
	if err != nil {
		return nil, publicKey, nil, err
	}
	publicKey, err = DecompressPublicKey(compressed)
	if err != nil {
		return nil, publicKey, nil, solana.PrecompileErrorInvalidPublicKey
	}

	message, err = solana.PrecompileDataSlice(data, instructions, o.MessageInstructionIndex, o.MessageDataOffset, int(o.MessageDataSize))
	if err != nil {
		return nil, publicKey, nil, err
	}

	return signature, publicKey, message, nil
}
