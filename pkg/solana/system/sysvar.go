package system

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/mr-tron/base58/base58"

	"github.com/code-payments/code-custody/pkg/solana"
)

// SysvarOwner owns every sysvar account.
//
// Source: https://github.com/solana-labs/solana/blob/27eff8408b7223bb3c4ab70523f8a8dca3ca6645/sdk/program/src/sysvar/mod.rs
var SysvarOwner ed25519.PublicKey

// InstructionsSysVar points to the system variable "Instructions", which holds
// the serialized instructions of the executing transaction.
//
// Source: https://github.com/solana-labs/solana/blob/27eff8408b7223bb3c4ab70523f8a8dca3ca6645/sdk/program/src/sysvar/instructions.rs
var InstructionsSysVar ed25519.PublicKey

const (
	instructionsFlagSigner   = 1 << 0
	instructionsFlagWritable = 1 << 1
)

func init() {
	var err error

	SysvarOwner, err = base58.Decode("Sysvar1111111111111111111111111111111111111")
	if err != nil {
		panic(err)
	}

	InstructionsSysVar, err = base58.Decode("Sysvar1nstructions1111111111111111111111111")
	if err != nil {
		panic(err)
	}
}

// MarshalInstructionsSysvar serializes the instructions into the layout of the
// instructions sysvar. The current instruction index is initialized to zero
// and is updated by the runtime with SetCurrentInstructionIndex.
//
//	u16                  number of instructions
//	[u16]                offset of each instruction
//	per instruction:
//	  u16                number of accounts
//	  [u8, [32]u8]       account flags and key
//	  [32]u8             program id
//	  u16                data length
//	  []u8               data
//	u16                  current instruction index
//
// Reference: https://github.com/solana-labs/solana/blob/27eff8408b7223bb3c4ab70523f8a8dca3ca6645/sdk/program/src/sysvar/instructions.rs
func MarshalInstructionsSysvar(instructions []solana.Instruction) []byte {
	size := 2 + 2*len(instructions)
	for _, ix := range instructions {
		size += 2 + len(ix.Accounts)*(1+ed25519.PublicKeySize) + ed25519.PublicKeySize + 2 + len(ix.Data)
	}
	size += 2

	data := make([]byte, size)
	binary.LittleEndian.PutUint16(data, uint16(len(instructions)))

	offset := 2 + 2*len(instructions)
	for i, ix := range instructions {
		binary.LittleEndian.PutUint16(data[2+2*i:], uint16(offset))

		binary.LittleEndian.PutUint16(data[offset:], uint16(len(ix.Accounts)))
		offset += 2

		for _, account := range ix.Accounts {
			var flags byte
			if account.IsSigner {
				flags |= instructionsFlagSigner
			}
			if account.IsWritable {
				flags |= instructionsFlagWritable
			}

			data[offset] = flags
			offset++
			copy(data[offset:], account.PublicKey)
			offset += ed25519.PublicKeySize
		}

		copy(data[offset:], ix.Program)
		offset += ed25519.PublicKeySize

		binary.LittleEndian.PutUint16(data[offset:], uint16(len(ix.Data)))
		offset += 2
		copy(data[offset:], ix.Data)
		offset += len(ix.Data)
	}

	return data
}

// SetCurrentInstructionIndex records the index of the executing instruction in
// serialized instructions sysvar data.
func SetCurrentInstructionIndex(data []byte, index uint16) {
	if len(data) < 2 {
		return
	}
	binary.LittleEndian.PutUint16(data[len(data)-2:], index)
}

// LoadCurrentInstructionIndex returns the index of the executing instruction.
func LoadCurrentInstructionIndex(data []byte) (uint16, error) {
	if len(data) < 2 {
		return 0, solana.InstructionErrorAccountDataTooSmall
	}
	return binary.LittleEndian.Uint16(data[len(data)-2:]), nil
}

// LoadInstructionAt deserializes the instruction at index from instructions
// sysvar data.
func LoadInstructionAt(data []byte, index int) (solana.Instruction, error) {
	if len(data) < 2 {
		return solana.Instruction{}, solana.InstructionErrorAccountDataTooSmall
	}

	count := int(binary.LittleEndian.Uint16(data))
	if index < 0 || index >= count {
		return solana.Instruction{}, solana.InstructionErrorInvalidArgument
	}

	header := 2 + 2*index
	if len(data) < header+2 {
		return solana.Instruction{}, solana.InstructionErrorAccountDataTooSmall
	}
	offset := int(binary.LittleEndian.Uint16(data[header:]))

	// Every read below is bounds checked against the remaining data.
	read := func(n int) ([]byte, error) {
		if offset+n > len(data) {
			return nil, solana.InstructionErrorAccountDataTooSmall
		}
		b := data[offset : offset+n]
		offset += n
		return b, nil
	}

	b, err := read(2)
	if err != nil {
		return solana.Instruction{}, err
	}
	numAccounts := int(binary.LittleEndian.Uint16(b))

	var ix solana.Instruction
	ix.Accounts = make([]solana.AccountMeta, numAccounts)
	for i := 0; i < numAccounts; i++ {
		b, err = read(1 + ed25519.PublicKeySize)
		if err != nil {
			return solana.Instruction{}, err
		}

		ix.Accounts[i] = solana.AccountMeta{
			PublicKey:  copyKey(b[1:]),
			IsSigner:   b[0]&instructionsFlagSigner != 0,
			IsWritable: b[0]&instructionsFlagWritable != 0,
		}
	}

	if b, err = read(ed25519.PublicKeySize); err != nil {
		return solana.Instruction{}, err
	}
	ix.Program = copyKey(b)

	if b, err = read(2); err != nil {
		return solana.Instruction{}, err
	}
	if b, err = read(int(binary.LittleEndian.Uint16(b))); err != nil {
		return solana.Instruction{}, err
	}
	ix.Data = make([]byte, len(b))
	copy(ix.Data, b)

	return ix, nil
}

// GetInstructionRelative loads the instruction at the given offset from the
// executing instruction.
func GetInstructionRelative(data []byte, relative int) (solana.Instruction, error) {
	current, err := LoadCurrentInstructionIndex(data)
	if err != nil {
		return solana.Instruction{}, err
	}

	index := int(current) + relative
	if index < 0 {
		return solana.Instruction{}, solana.InstructionErrorInvalidArgument
	}

	return LoadInstructionAt(data, index)
}

func copyKey(b []byte) ed25519.PublicKey {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, b)
	return key
}
