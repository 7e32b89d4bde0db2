package solana

import (
	"encoding/binary"
	"math"
)

const (
	// SignatureOffsetsStart is where the offsets table begins in precompile
	// instruction data, after the u8 signature count and u8 padding.
	SignatureOffsetsStart = 2
	// SignatureOffsetsSize is the serialized size of SignatureOffsets.
	SignatureOffsetsSize = 14
	// CurrentInstructionIndex refers to the precompile instruction itself.
	CurrentInstructionIndex = math.MaxUint16
)

// SignatureOffsets locates a signature, public key and message within the
// instructions of a transaction for the signature verification precompiles.
//
// Reference: https://github.com/solana-labs/solana/blob/27eff8408b7223bb3c4ab70523f8a8dca3ca6645/sdk/src/ed25519_instruction.rs
type SignatureOffsets struct {
	SignatureOffset           uint16
	SignatureInstructionIndex uint16
	PublicKeyOffset           uint16
	PublicKeyInstructionIndex uint16
	MessageDataOffset         uint16
	MessageDataSize           uint16
	MessageInstructionIndex   uint16
}

func (o SignatureOffsets) Marshal(dst []byte) {
	binary.LittleEndian.PutUint16(dst[0:], o.SignatureOffset)
	binary.LittleEndian.PutUint16(dst[2:], o.SignatureInstructionIndex)
	binary.LittleEndian.PutUint16(dst[4:], o.PublicKeyOffset)
	binary.LittleEndian.PutUint16(dst[6:], o.PublicKeyInstructionIndex)
	binary.LittleEndian.PutUint16(dst[8:], o.MessageDataOffset)
	binary.LittleEndian.PutUint16(dst[10:], o.MessageDataSize)
	binary.LittleEndian.PutUint16(dst[12:], o.MessageInstructionIndex)
}

func (o *SignatureOffsets) Unmarshal(src []byte) {
	o.SignatureOffset = binary.LittleEndian.Uint16(src[0:])
	o.SignatureInstructionIndex = binary.LittleEndian.Uint16(src[2:])
	o.PublicKeyOffset = binary.LittleEndian.Uint16(src[4:])
	o.PublicKeyInstructionIndex = binary.LittleEndian.Uint16(src[6:])
	o.MessageDataOffset = binary.LittleEndian.Uint16(src[8:])
	o.MessageDataSize = binary.LittleEndian.Uint16(src[10:])
	o.MessageInstructionIndex = binary.LittleEndian.Uint16(src[12:])
}

// ParseSignatureOffsets reads the offsets table of precompile instruction
// data, allowing at most maxSignatures entries.
func ParseSignatureOffsets(data []byte, maxSignatures int) ([]SignatureOffsets, error) {
	if len(data) < SignatureOffsetsStart {
		return nil, PrecompileErrorInvalidInstructionDataSize
	}

	count := int(data[0])
	if count == 0 || count > maxSignatures {
		return nil, PrecompileErrorInvalidInstructionDataSize
	}
	if len(data) < SignatureOffsetsStart+count*SignatureOffsetsSize {
		return nil, PrecompileErrorInvalidInstructionDataSize
	}

	offsets := make([]SignatureOffsets, count)
	for i := range offsets {
		start := SignatureOffsetsStart + i*SignatureOffsetsSize
		offsets[i].Unmarshal(data[start : start+SignatureOffsetsSize])
	}
	return offsets, nil
}

// PrecompileDataSlice resolves size bytes at offset within the instruction at
// index, where CurrentInstructionIndex refers to data itself.
func PrecompileDataSlice(data []byte, instructions [][]byte, index, offset uint16, size int) ([]byte, error) {
	src := data
	if index != CurrentInstructionIndex {
		if int(index) >= len(instructions) {
			return nil, PrecompileErrorInvalidDataOffsets
		}
		src = instructions[index]
	}

	start := int(offset)
	if start+size > len(src) {
		return nil, PrecompileErrorInvalidDataOffsets
	}
	return src[start : start+size], nil
}
