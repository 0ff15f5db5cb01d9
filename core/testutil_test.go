package fwboot

import "encoding/binary"

// buildFrame assembles a wire frame [L | OP | ARG... | CRC32] with a
// correct trailing CRC, mirroring what a conforming host tool sends. L
// counts every byte that follows it, including the 4-byte CRC trailer
// (spec §3, scenario S1: GET_VERSION's L is 5, not 1).
func buildFrame(op byte, args ...byte) []byte {
	body := append([]byte{op}, args...)
	l := byte(len(body) + 4)
	frame := append([]byte{l}, body...)

	crc := crcOverBytes(frame)
	var crcBytes [4]byte
	binary.LittleEndian.PutUint32(crcBytes[:], crc)
	return append(frame, crcBytes[:]...)
}

// corruptedFrame returns a copy of frame with the given byte index's low
// bit flipped, for single-bit-flip CRC-failure tests (P1).
func corruptedFrame(frame []byte, idx int) []byte {
	out := append([]byte(nil), frame...)
	out[idx] ^= 1
	return out
}
