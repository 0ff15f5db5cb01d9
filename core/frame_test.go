package fwboot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReceiveFrameReadsLengthThenBody(t *testing.T) {
	device, host := NewLoopbackPair()

	frame := buildFrame(OpGetVersion)
	require.NoError(t, host.Transmit(frame))

	var buf [frameBufSize]byte
	got, err := ReceiveFrame(device, buf[:])
	require.NoError(t, err)
	require.Equal(t, frame, got)
}

func TestReceiveFrameRejectsOversizedLength(t *testing.T) {
	device, host := NewLoopbackPair()
	require.NoError(t, host.Transmit([]byte{0xFF})) // L = 255

	var buf [2]byte // too small to hold even a modest frame
	_, err := ReceiveFrame(device, buf[:])
	require.Error(t, err)
}

func TestVerifyCRCRoundTrip(t *testing.T) {
	frame := buildFrame(OpGetDevID)
	require.True(t, VerifyCRC(frame))
}

// TestVerifyCRCSingleBitFlip is property P1: flipping the low bit of any
// one byte of the frame, including the opcode or the CRC bytes themselves,
// must cause verification to fail.
func TestVerifyCRCSingleBitFlip(t *testing.T) {
	frame := buildFrame(OpMemWrite, 0x00, 0x80, 0x00, 0x08, 0x02, 0xDE, 0xAD)

	for i := range frame {
		bad := corruptedFrame(frame, i)
		require.False(t, VerifyCRC(bad), "byte index %d", i)
	}
}

func TestVerifyCRCTooShort(t *testing.T) {
	require.False(t, VerifyCRC([]byte{0x01, 0x02, 0x03}))
}
