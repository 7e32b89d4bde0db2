package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-custody/pkg/solana"
)

func TestInstructionsSysvar_RoundTrip(t *testing.T) {
	keys := generateKeys(t, 4)

	instructions := []solana.Instruction{
		Transfer(keys[0], keys[1], 10),
		solana.NewInstruction(keys[2], []byte{1, 2, 3}, solana.NewReadonlyAccountMeta(keys[3], false)),
		solana.NewInstruction(keys[3], nil),
	}

	data := MarshalInstructionsSysvar(instructions)

	current, err := LoadCurrentInstructionIndex(data)
	require.NoError(t, err)
	assert.EqualValues(t, 0, current)

	for i, expected := range instructions {
		actual, err := LoadInstructionAt(data, i)
		require.NoError(t, err)

		assert.EqualValues(t, expected.Program, actual.Program)
		assert.Equal(t, len(expected.Data), len(actual.Data))
		if len(expected.Data) > 0 {
			assert.Equal(t, expected.Data, actual.Data)
		}
		require.Len(t, actual.Accounts, len(expected.Accounts))
		for j := range expected.Accounts {
			assert.EqualValues(t, expected.Accounts[j].PublicKey, actual.Accounts[j].PublicKey)
			assert.Equal(t, expected.Accounts[j].IsSigner, actual.Accounts[j].IsSigner)
			assert.Equal(t, expected.Accounts[j].IsWritable, actual.Accounts[j].IsWritable)
		}
	}

	_, err = LoadInstructionAt(data, len(instructions))
	assert.Equal(t, solana.InstructionErrorInvalidArgument, err)
}

func TestInstructionsSysvar_Relative(t *testing.T) {
	keys := generateKeys(t, 3)

	instructions := []solana.Instruction{
		solana.NewInstruction(keys[0], []byte{0}),
		solana.NewInstruction(keys[1], []byte{1}),
		solana.NewInstruction(keys[2], []byte{2}),
	}
	data := MarshalInstructionsSysvar(instructions)

	SetCurrentInstructionIndex(data, 1)
	current, err := LoadCurrentInstructionIndex(data)
	require.NoError(t, err)
	assert.EqualValues(t, 1, current)

	for relative, expected := range map[int]byte{-1: 0, 0: 1, 1: 2} {
		actual, err := GetInstructionRelative(data, relative)
		require.NoError(t, err)
		assert.Equal(t, []byte{expected}, actual.Data)
	}

	_, err = GetInstructionRelative(data, 2)
	assert.Equal(t, solana.InstructionErrorInvalidArgument, err)
	_, err = GetInstructionRelative(data, -2)
	assert.Equal(t, solana.InstructionErrorInvalidArgument, err)
}

func TestInstructionsSysvar_Truncated(t *testing.T) {
	keys := generateKeys(t, 2)
	data := MarshalInstructionsSysvar([]solana.Instruction{Transfer(keys[0], keys[1], 10)})

	_, err := LoadInstructionAt(data[:20], 0)
	assert.Equal(t, solana.InstructionErrorAccountDataTooSmall, err)

	_, err = LoadCurrentInstructionIndex(nil)
	assert.Equal(t, solana.InstructionErrorAccountDataTooSmall, err)
}
