package fwboot

import "errors"

// Sentinel errors for link/codec-level failures: genuinely exceptional
// conditions where the UART or its framing has broken down, as distinct
// from protocol-level rejections (bad CRC, bad address, bad sector range)
// which travel back to the host as ordinary status bytes per spec §7 and
// never unwind as a Go error. Named in the style of the teacher's
// errProgramFinished / errSegmentationFault (vm/vm.go).
var (
	errLinkClosed  = errors.New("command link closed")
	errShortFrame  = errors.New("receive buffer cannot hold a length byte")
	errFrameTooBig = errors.New("frame length exceeds receive buffer")
	errUnreachable = errors.New("no application image programmed at the handoff address")
)

// Status is the single status byte most handler replies carry (spec §4.3,
// §7). The zero value means success (or a valid address) in every group,
// so a zeroed status byte reads as success.
type Status uint8

const (
	StatusSuccess   Status = 0
	StatusFailure   Status = 1
	ValidAddr       Status = 0
	InvalidAddr     Status = 1
	EraseSuccess    Status = 0
	EraseFailure    Status = 1
	FlashStatusOK   Status = 0
	FlashStatusFail Status = 1
)
