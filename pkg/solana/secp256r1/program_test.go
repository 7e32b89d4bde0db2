package secp256r1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-custody/pkg/solana"
)

func TestInstruction_Layout(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)

	message := make([]byte, 40)
	ix, err := Instruction(priv, message)
	require.NoError(t, err)

	assert.EqualValues(t, ProgramKey, ix.Program)
	require.Len(t, ix.Data, 16+33+64+40)
	assert.EqualValues(t, 1, ix.Data[0])
	assert.EqualValues(t, 0, ix.Data[1])

	var offsets solana.SignatureOffsets
	offsets.Unmarshal(ix.Data[2:])
	assert.EqualValues(t, 16, offsets.PublicKeyOffset)
	assert.EqualValues(t, 49, offsets.SignatureOffset)
	assert.EqualValues(t, 113, offsets.MessageDataOffset)
	assert.EqualValues(t, 40, offsets.MessageDataSize)
	assert.EqualValues(t, solana.CurrentInstructionIndex, offsets.SignatureInstructionIndex)
	assert.EqualValues(t, solana.CurrentInstructionIndex, offsets.PublicKeyInstructionIndex)
	assert.EqualValues(t, solana.CurrentInstructionIndex, offsets.MessageInstructionIndex)

	entries, err := ParseInstruction(ix.Data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, PublicKeyFromECDSA(&priv.PublicKey), entries[0].PublicKey)
	assert.Equal(t, message, entries[0].Message)
	assert.True(t, VerifySignature(entries[0].PublicKey, entries[0].Message, entries[0].Signature))
}

func TestInstruction_MultipleSignatures(t *testing.T) {
	var entries []SignedMessage
	for i := 0; i < 2; i++ {
		priv, err := GenerateKey()
		require.NoError(t, err)

		message := []byte{byte(i), 1, 2, 3}
		signature, err := Sign(priv, message)
		require.NoError(t, err)

		entries = append(entries, SignedMessage{
			PublicKey: PublicKeyFromECDSA(&priv.PublicKey),
			Signature: signature,
			Message:   message,
		})
	}

	ix, err := NewInstruction(entries...)
	require.NoError(t, err)

	parsed, err := ParseInstruction(ix.Data)
	require.NoError(t, err)
	assert.Equal(t, entries, parsed)

	verifier, err := NewVerifier(16)
	require.NoError(t, err)
	assert.NoError(t, verifier.Verify(ix.Data, [][]byte{ix.Data}))

	_, err = NewInstruction()
	assert.Error(t, err)
}

func TestParseInstruction_Invalid(t *testing.T) {
	priv, err := GenerateKey()
	require.NoError(t, err)
	ix, err := Instruction(priv, []byte("message"))
	require.NoError(t, err)

	_, err = ParseInstruction(nil)
	assert.Equal(t, solana.PrecompileErrorInvalidInstructionDataSize, err)

	_, err = ParseInstruction(ix.Data[:100])
	assert.Equal(t, solana.PrecompileErrorInvalidDataOffsets, err)

	external := append([]byte(nil), ix.Data...)
	external[4] = 0
	external[5] = 0
	_, err = ParseInstruction(external)
	assert.Equal(t, solana.PrecompileErrorInvalidDataOffsets, err)

	badKey := append([]byte(nil), ix.Data...)
	badKey[16] = 0x07
	_, err = ParseInstruction(badKey)
	assert.Equal(t, solana.PrecompileErrorInvalidPublicKey, err)
}

func TestVerifier(t *testing.T) {
	verifier, err := NewVerifier(16)
	require.NoError(t, err)

	priv, err := GenerateKey()
	require.NoError(t, err)
	ix, err := Instruction(priv, []byte("message"))
	require.NoError(t, err)

	require.NoError(t, verifier.Verify(ix.Data, [][]byte{ix.Data}))
	assert.Equal(t, 1, verifier.verified.Len())

	// Cached verifications are still answered.
	require.NoError(t, verifier.Verify(ix.Data, [][]byte{ix.Data}))
	assert.Equal(t, 1, verifier.verified.Len())

	tampered := append([]byte(nil), ix.Data...)
	tampered[len(tampered)-1] ^= 0xff
	assert.Equal(t, solana.PrecompileErrorInvalidSignature, verifier.Verify(tampered, [][]byte{tampered}))
	assert.Equal(t, 1, verifier.verified.Len())
}

func TestVerifier_CrossInstructionOffsets(t *testing.T) {
	verifier, err := NewVerifier(16)
	require.NoError(t, err)

	priv, err := GenerateKey()
	require.NoError(t, err)
	message := []byte("message stored elsewhere")
	signature, err := Sign(priv, message)
	require.NoError(t, err)

	// The message lives in instruction 0, the key and signature here.
	data := make([]byte, 16+33+64)
	data[0] = 1
	solana.SignatureOffsets{
		SignatureOffset:           49,
		SignatureInstructionIndex: solana.CurrentInstructionIndex,
		PublicKeyOffset:           16,
		PublicKeyInstructionIndex: solana.CurrentInstructionIndex,
		MessageDataOffset:         0,
		MessageDataSize:           uint16(len(message)),
		MessageInstructionIndex:   0,
	}.Marshal(data[2:])
	copy(data[16:], PublicKeyFromECDSA(&priv.PublicKey).Compressed())
	copy(data[49:], signature)

	assert.NoError(t, verifier.Verify(data, [][]byte{message, data}))
	assert.Equal(t, solana.PrecompileErrorInvalidDataOffsets, verifier.Verify(data, [][]byte{}))
}
