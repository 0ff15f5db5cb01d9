package fwboot

import "encoding/binary"

// MaxFrameLen is the largest value L may legally take on the wire (spec
// §4.2: "the host is contractually bound to L ≤ 1023").
const MaxFrameLen = 1023

// frameBufSize is the compile-time receive-buffer size backing every
// Dispatcher: 1 length byte + MaxFrameLen payload bytes.
const frameBufSize = 1 + MaxFrameLen

// ReceiveFrame performs the two blocking reads spec §4.2 describes: first
// the single length byte L, then L further bytes into buf[1:1+L]. buf must
// have capacity frameBufSize; the returned slice is buf[:1+L]. If the host
// sends an L that would overflow buf, the link is treated as desynchronized
// and an error is returned — the caller is expected to drop the connection
// or resync, never to act on a partial frame.
func ReceiveFrame(link Link, buf []byte) ([]byte, error) {
	if cap(buf) < 1 {
		return nil, errShortFrame
	}

	if err := link.Receive(buf[:1]); err != nil {
		return nil, err
	}
	l := buf[0]

	total := 1 + int(l)
	if total > cap(buf) {
		return nil, errFrameTooBig
	}

	if l > 0 {
		if err := link.Receive(buf[1:total]); err != nil {
			return nil, err
		}
	}

	return buf[:total], nil
}

// VerifyCRC checks invariant I1: the frame's trailing 4 bytes, read as a
// little-endian uint32, must equal the CRC computed over everything before
// them. Per invariant I6 the hardware accumulator convention in crc.go
// always resets itself, so callers need take no cleanup action regardless
// of the outcome.
func VerifyCRC(frame []byte) bool {
	if len(frame) < 4 {
		return false
	}

	body := frame[:len(frame)-4]
	wantCRC := binary.LittleEndian.Uint32(frame[len(frame)-4:])
	gotCRC := crcOverBytes(body)
	return gotCRC == wantCRC
}

// frameOpcode returns the opcode byte (offset 1) of a received frame. The
// caller must have already confirmed len(frame) >= 2.
func frameOpcode(frame []byte) byte {
	return frame[1]
}
