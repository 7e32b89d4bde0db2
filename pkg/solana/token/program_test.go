package token

import (
	"crypto/ed25519"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-custody/pkg/solana"
)

func TestGetCommand_Error(t *testing.T) {
	keys := generateKeys(t, 4)

	// invalid program
	cmd, err := GetCommand(solana.NewTransaction(keys[0], solana.NewInstruction(keys[1], []byte{})).Message, 0)
	assert.Equal(t, CommandUnknown, cmd)
	assert.Equal(t, solana.ErrIncorrectProgram, err)

	// no data
	cmd, err = GetCommand(solana.NewTransaction(keys[0], solana.NewInstruction(ProgramKey, []byte{})).Message, 0)
	assert.Equal(t, CommandUnknown, cmd)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "missing data")
}

func TestInitializeAccount3(t *testing.T) {
	keys := generateKeys(t, 4)

	instruction := InitializeAccount3(keys[0], keys[1], keys[2])

	assert.Equal(t, byte(CommandInitializeAccount3), instruction.Data[0])
	assert.EqualValues(t, keys[2], instruction.Data[1:])
	require.Len(t, instruction.Accounts, 2)
	assert.False(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.False(t, instruction.Accounts[1].IsWritable)

	decompiled, err := DecompileInitializeAccount3(solana.NewTransaction(keys[3], instruction).Message, 0)
	assert.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Account)
	assert.Equal(t, keys[1], decompiled.Mint)
	assert.Equal(t, keys[2], decompiled.Owner)

	cmd, err := GetCommand(solana.NewTransaction(keys[3], instruction).Message, 0)
	require.NoError(t, err)
	assert.Equal(t, CommandInitializeAccount3, cmd)

	instruction.Accounts = instruction.Accounts[:1]
	_, err = DecompileInitializeAccount3(solana.NewTransaction(keys[3], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid number of accounts"))

	instruction.Data[0] = byte(CommandTransfer)
	_, err = DecompileInitializeAccount3(solana.NewTransaction(keys[3], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[3]
	_, err = DecompileInitializeAccount3(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestInitializeMint2(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := InitializeMint2(keys[0], keys[1], nil, 6)
	assert.Equal(t, []byte{byte(CommandInitializeMint2), 6}, instruction.Data[:2])
	assert.EqualValues(t, keys[1], instruction.Data[2:34])
	assert.Len(t, instruction.Data, 35)
	assert.EqualValues(t, 0, instruction.Data[34])

	instruction = InitializeMint2(keys[0], keys[1], keys[2], 6)
	assert.Len(t, instruction.Data, 67)
	assert.EqualValues(t, 1, instruction.Data[34])
	assert.EqualValues(t, keys[2], instruction.Data[35:])

	require.Len(t, instruction.Accounts, 1)
	assert.True(t, instruction.Accounts[0].IsWritable)
}

func TestMintTo(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := MintTo(keys[0], keys[1], keys[2], 42)
	assert.EqualValues(t, CommandMintTo, instruction.Data[0])
	assert.EqualValues(t, 42, binary.LittleEndian.Uint64(instruction.Data[1:]))

	require.Len(t, instruction.Accounts, 3)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.True(t, instruction.Accounts[1].IsWritable)
	assert.True(t, instruction.Accounts[2].IsSigner)
	assert.False(t, instruction.Accounts[2].IsWritable)
}

func TestTransfer(t *testing.T) {
	keys := generateKeys(t, 4)

	instruction := Transfer(keys[0], keys[1], keys[2], 123456789)

	expectedAmount := make([]byte, 8)
	binary.LittleEndian.PutUint64(expectedAmount, 123456789)

	assert.EqualValues(t, 3, instruction.Data[0])
	assert.EqualValues(t, expectedAmount, instruction.Data[1:])

	assert.False(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)

	assert.True(t, instruction.Accounts[2].IsSigner)
	assert.False(t, instruction.Accounts[2].IsWritable)

	decompiled, err := DecompileTransfer(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NoError(t, err)
	assert.EqualValues(t, 123456789, decompiled.Amount)
	assert.Equal(t, keys[0], decompiled.Source)
	assert.Equal(t, keys[1], decompiled.Destination)
	assert.Equal(t, keys[2], decompiled.Owner)

	cmd, err := GetCommand(solana.NewTransaction(keys[0], instruction).Message, 0)
	require.NoError(t, err)
	assert.Equal(t, CommandTransfer, cmd)

	instruction.Data = instruction.Data[:1]
	_, err = DecompileTransfer(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid instruction data size"))

	instruction.Accounts = instruction.Accounts[:2]
	_, err = DecompileTransfer(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid number of accounts"))

	instruction.Data[0] = byte(CommandApprove)
	_, err = DecompileTransfer(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Data = nil
	_, err = DecompileTransfer(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[3]
	_, err = DecompileTransfer(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestTransfer2(t *testing.T) {
	keys := generateKeys(t, 5)

	instruction := Transfer2(keys[0], keys[1], keys[2], keys[3], 123456789, 3)

	expectedAmount := make([]byte, 8)
	binary.LittleEndian.PutUint64(expectedAmount, 123456789)

	assert.EqualValues(t, CommandTransfer2, instruction.Data[0])
	assert.EqualValues(t, expectedAmount, instruction.Data[1:9])
	assert.EqualValues(t, 3, instruction.Data[9])

	assert.False(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)

	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.False(t, instruction.Accounts[1].IsWritable)

	assert.False(t, instruction.Accounts[2].IsSigner)
	assert.True(t, instruction.Accounts[2].IsWritable)

	assert.True(t, instruction.Accounts[3].IsSigner)
	assert.False(t, instruction.Accounts[3].IsWritable)

	decompiled, err := DecompileTransfer2(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NoError(t, err)
	assert.EqualValues(t, 123456789, decompiled.Amount)
	assert.Equal(t, keys[0], decompiled.Source)
	assert.Equal(t, keys[1], decompiled.Mint)
	assert.Equal(t, keys[2], decompiled.Destination)
	assert.Equal(t, keys[3], decompiled.Owner)

	cmd, err := GetCommand(solana.NewTransaction(keys[0], instruction).Message, 0)
	require.NoError(t, err)
	assert.Equal(t, CommandTransfer2, cmd)

	instruction.Data = instruction.Data[:1]
	_, err = DecompileTransfer2(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid instruction data size"))

	instruction.Accounts = instruction.Accounts[:3]
	_, err = DecompileTransfer2(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid number of accounts"))

	instruction.Data[0] = byte(CommandApprove)
	_, err = DecompileTransfer2(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Data = nil
	_, err = DecompileTransfer2(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[3]
	_, err = DecompileTransfer2(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestCloseAccount(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := CloseAccount(keys[0], keys[1], keys[2])
	assert.Equal(t, []byte{byte(CommandCloseAccount)}, instruction.Data)

	cmd, err := GetCommand(solana.NewTransaction(keys[0], instruction).Message, 0)
	require.NoError(t, err)
	assert.Equal(t, CommandCloseAccount, cmd)

	assert.False(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)

	assert.True(t, instruction.Accounts[2].IsSigner)
	assert.False(t, instruction.Accounts[2].IsWritable)

	decompiled, err := DecompileCloseAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Account)
	assert.Equal(t, keys[1], decompiled.Destination)
	assert.Equal(t, keys[2], decompiled.Owner)

	instruction.Accounts = instruction.Accounts[:2]
	decompiled, err = DecompileCloseAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.True(t, strings.Contains(err.Error(), "invalid number of accounts"))
	assert.Nil(t, decompiled)

	instruction.Data = append(instruction.Data, 1)
	decompiled, err = DecompileCloseAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
	assert.Nil(t, decompiled)

	instruction.Data = []byte{byte(CommandTransfer)}
	decompiled, err = DecompileCloseAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
	assert.Nil(t, decompiled)

	instruction.Data = nil
	decompiled, err = DecompileCloseAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
	assert.Nil(t, decompiled)
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
