package ed25519

import (
	"crypto/ed25519"

	"github.com/code-payments/code-custody/pkg/solana"
)

// Ed25519SigVerify111111111111111111111111111
var ProgramKey = ed25519.PublicKey{3, 125, 70, 214, 124, 147, 251, 190, 18, 249, 66, 143, 131, 141, 64, 255, 5, 112, 116, 73, 39, 244, 138, 100, 252, 202, 112, 68, 128, 0, 0, 0}

const (
	dataStart     = solana.SignatureOffsetsStart + solana.SignatureOffsetsSize
	maxSignatures = 8
)

// Reference: https://github.com/solana-labs/solana/blob/27eff8408b7223bb3c4ab70523f8a8dca3ca6645/sdk/src/ed25519_instruction.rs#L32
func Instruction(privateKey ed25519.PrivateKey, message []byte) solana.Instruction {
	publicKey := privateKey.Public().(ed25519.PublicKey)
	signature := ed25519.Sign(privateKey, message)

	publicKeyOffset := dataStart
	signatureOffset := publicKeyOffset + ed25519.PublicKeySize
	messageOffset := signatureOffset + ed25519.SignatureSize

	data := make([]byte, messageOffset+len(message))
	data[0] = 1 // num_signatures
	data[1] = 0 // padding

	solana.SignatureOffsets{
		SignatureOffset:           uint16(signatureOffset),
		SignatureInstructionIndex: solana.CurrentInstructionIndex,
		PublicKeyOffset:           uint16(publicKeyOffset),
		PublicKeyInstructionIndex: solana.CurrentInstructionIndex,
		MessageDataOffset:         uint16(messageOffset),
		MessageDataSize:           uint16(len(message)),
		MessageInstructionIndex:   solana.CurrentInstructionIndex,
	}.Marshal(data[solana.SignatureOffsetsStart:])

	copy(data[publicKeyOffset:], publicKey)
	copy(data[signatureOffset:], signature)
	copy(data[messageOffset:], message)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

// Verify checks every signature referenced by the precompile instruction data.
// instructions holds the data of each instruction in the transaction.
//
// Reference: https://github.com/solana-labs/solana/blob/27eff8408b7223bb3c4ab70523f8a8dca3ca6645/sdk/src/ed25519_instruction.rs
func Verify(data []byte, instructions [][]byte) error {
	offsets, err := solana.ParseSignatureOffsets(data, maxSignatures)
	if err != nil {
		return err
	}

	for _, o := range offsets {
		signature, err := solana.PrecompileDataSlice(data, instructions, o.SignatureInstructionIndex, o.SignatureOffset, ed25519.SignatureSize)
		if err != nil {
			return err
		}
		publicKey, err := solana.PrecompileDataSlice(data, instructions, o.PublicKeyInstructionIndex, o.PublicKeyOffset, ed25519.PublicKeySize)
		if err != nil {
			return err
		}
		message, err := solana.PrecompileDataSlice(data, instructions, o.MessageInstructionIndex, o.MessageDataOffset, int(o.MessageDataSize))
		if err != nil {
			return err
		}

		if !ed25519.Verify(publicKey, message, signature) {
			return solana.PrecompileErrorInvalidSignature
		}
	}

	return nil
}
