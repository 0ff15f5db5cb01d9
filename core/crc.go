package fwboot

// hwCRC32 models the STM32 hardware CRC peripheral: polynomial 0x04C1_1DB7,
// initial value 0xFFFF_FFFF, no input/output reflection, no final XOR. This
// is deliberately not github.com/hashicorp-style hash.Hash32 (reflected
// CRC-32/IEEE) and not any of the reflected variants in the standard
// library's hash/crc32 package — none of those match the wire format spec
// §4.2 mandates, so this accumulator is hand-built against the documented
// parameters (see SPEC_FULL.md's DOMAIN STACK table for why no pack library
// was used here).
type hwCRC32 struct {
	crc uint32
}

const (
	crcPolynomial uint32 = 0x04C1_1DB7
	crcInitial    uint32 = 0xFFFF_FFFF
)

// newHWCRC32 returns a freshly reset accumulator.
func newHWCRC32() *hwCRC32 {
	return &hwCRC32{crc: crcInitial}
}

// Reset restores the accumulator to its initial polynomial state,
// unconditionally, per invariant I6.
func (h *hwCRC32) Reset() {
	h.crc = crcInitial
}

// Accumulate feeds one 32-bit word into the engine and returns the running
// CRC value, matching the STM32 CRC->DR word-at-a-time semantics.
func (h *hwCRC32) Accumulate(word uint32) uint32 {
	h.crc ^= word
	for i := 0; i < 32; i++ {
		if h.crc&0x8000_0000 != 0 {
			h.crc = (h.crc << 1) ^ crcPolynomial
		} else {
			h.crc <<= 1
		}
	}
	return h.crc
}

// crcOverBytes resolves the spec §9 Open Question: the original source
// (original_source/bootloader/bootloader.c, bootloader_verify_crc)
// accumulates byte-by-byte, zero-extending each byte to a 32-bit word
// before feeding it to the word-wise engine, rather than packing 4 bytes
// per word. This spec adopts that convention verbatim so host tooling
// written against either this package or the original firmware computes
// the same CRC value for the same frame bytes.
func crcOverBytes(data []byte) uint32 {
	h := newHWCRC32()
	var crc uint32
	for _, b := range data {
		crc = h.Accumulate(uint32(b))
	}
	h.Reset()
	return crc
}
