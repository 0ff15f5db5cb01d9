package fwboot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeGPIO struct{ level Level }

func (f fakeGPIO) Read() Level { return f.level }

func TestReadStrapLowIsInteractive(t *testing.T) {
	require.Equal(t, ModeInteractive, ReadStrap(fakeGPIO{LevelLow}))
}

func TestReadStrapHighIsApplication(t *testing.T) {
	require.Equal(t, ModeApplication, ReadStrap(fakeGPIO{LevelHigh}))
}

// entrySentinel is recovered by tests standing in for "execution never
// returns to the bootloader" — real firmware never returns at all; the
// test only needs to observe that nothing bootloader-owned runs after it.
type entrySentinel struct {
	msp, entry uint32
}

func withRecordingEntry(t *testing.T) *entrySentinel {
	t.Helper()
	rec := &entrySentinel{}
	prev := execEntry
	execEntry = func(msp, entry uint32) {
		rec.msp, rec.entry = msp, entry
		panic(rec)
	}
	t.Cleanup(func() { execEntry = prev })
	return rec
}

// TestHandoffOrdering is property P7: by the instant entry begins
// executing, MSP must equal the application's vector-table word, and
// execEntry is the last thing Handoff runs. Draining the link is not
// observed here: the loopback link's Drain does nothing.
func TestHandoffOrdering(t *testing.T) {
	rec := withRecordingEntry(t)

	flash := NewSimFlash()
	flash.SectorErase(2)
	var img [8]byte
	uint32ToBytes(0xDEAD_BEEF, img[0:4])
	uint32ToBytes(AppBase+8, img[4:8])
	flash.Write(AppBase, img[:])

	device, _ := NewLoopbackPair()
	jumper := &ArchJumper{Link: device}

	func() {
		defer func() {
			got := recover()
			require.Same(t, rec, got, "execEntry must be the last thing that runs")
		}()
		jumper.Handoff(flash)
	}()

	require.Equal(t, uint32(0xDEAD_BEEF), rec.msp)
	require.Equal(t, uint32(AppBase+8), rec.entry)
}

func TestHandoffRefusedWhenImageUnwritten(t *testing.T) {
	flash := NewSimFlash()
	flash.SectorErase(2)

	device, _ := NewLoopbackPair()
	jumper := &ArchJumper{Link: device}
	require.Error(t, jumper.Handoff(flash))
}

// TestJumpToInvalidAddress is property P4's invalid-address half.
func TestJumpToInvalidAddress(t *testing.T) {
	device, _ := NewLoopbackPair()
	jumper := &ArchJumper{Link: device}

	require.Equal(t, InvalidAddr, jumper.ValidateAddr(0xFFFF_FFFF))
}

// TestJumpToValidAddress is property P4's valid-address half: the jumper
// does not return normally, it transfers control via execEntry with the
// Thumb bit forced and the MSP left untouched (msp == 0 signals "do not
// reassign SP" to the recording stub).
func TestJumpToValidAddress(t *testing.T) {
	rec := withRecordingEntry(t)
	device, _ := NewLoopbackPair()
	jumper := &ArchJumper{Link: device}

	require.Equal(t, ValidAddr, jumper.ValidateAddr(SRAM1Base))

	func() {
		defer func() { recover() }()
		jumper.Branch(SRAM1Base)
	}()

	require.Equal(t, uint32(0), rec.msp)
	require.Equal(t, uint32(SRAM1Base|1), rec.entry, "Thumb bit must be forced")
}
