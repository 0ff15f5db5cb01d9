package fwboot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHWCRC32ResetsAfterAccumulate(t *testing.T) {
	h := newHWCRC32()
	h.Accumulate(0xAB)
	h.Reset()
	require.Equal(t, crcInitial, h.crc, "Reset must restore the initial polynomial state unconditionally (I6)")
}

func TestCRCOverBytesIsByteAtATime(t *testing.T) {
	// Resolves the §9 open question explicitly: accumulating the same
	// bytes one at a time must equal crcOverBytes's result, and must
	// differ from treating the bytes as a packed little-endian word
	// stream (the alternative convention this spec rejects).
	data := []byte{0x05, 0xA1, 0x12, 0x34}

	byteAtATime := crcOverBytes(data)

	manual := newHWCRC32()
	var manualCRC uint32
	for _, b := range data {
		manualCRC = manual.Accumulate(uint32(b))
	}
	assert.Equal(t, manualCRC, byteAtATime, "crcOverBytes must feed one zero-extended byte per word")

	h := newHWCRC32()
	var packedWordCRC uint32
	for i := 0; i+4 <= len(data); i += 4 {
		packedWordCRC = h.Accumulate(uint32FromBytes(data[i : i+4]))
	}

	assert.NotEqual(t, packedWordCRC, byteAtATime, "byte-at-a-time and packed-word conventions must diverge")
}

func TestCRCDeterministic(t *testing.T) {
	data := []byte{0x05, 0xA1}
	assert.Equal(t, crcOverBytes(data), crcOverBytes(data))
}

func TestCRCSingleBitFlipChangesResult(t *testing.T) {
	data := []byte{0x09, 0xA5, 0x00, 0x00, 0x20, 0x00}
	base := crcOverBytes(data)

	for bit := 0; bit < 8; bit++ {
		flipped := append([]byte(nil), data...)
		flipped[0] ^= 1 << uint(bit)
		assert.NotEqual(t, base, crcOverBytes(flipped), "flipping bit %d of byte 0 must change the CRC", bit)
	}
}
