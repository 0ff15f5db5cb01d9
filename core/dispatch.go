package fwboot

import "context"

// BLVersion is the bootloader's reported version, v1.0 (spec §4.3 table).
const BLVersion = 0x10

const (
	OpGetVersion   byte = 0xA1
	OpGetHelp      byte = 0xA2
	OpGetDevID     byte = 0xA3
	OpGetRDPLevel  byte = 0xA4
	OpJmpAddr      byte = 0xA5
	OpFlashErase   byte = 0xA6
	OpMemWrite     byte = 0xA7
	OpMemRead      byte = 0xA8
	OpSetRWProtect byte = 0xA9
	OpGetRWProtect byte = 0xAA
)

const (
	ack  byte = 0xBB
	nack byte = 0xEE
)

// SupportedOpcodes answers GET_HELP; order matches the spec §4.3 table.
var SupportedOpcodes = []byte{
	OpGetVersion, OpGetHelp, OpGetDevID, OpGetRDPLevel, OpJmpAddr,
	OpFlashErase, OpMemWrite, OpMemRead, OpSetRWProtect, OpGetRWProtect,
}

// Dispatcher owns the main command loop (C3, spec §4.3). It holds the
// receive buffer exclusively for the duration of one iteration, per spec
// §3 Lifecycles ("the command-loop receive buffer is reused across frames
// and zeroed at the start of each iteration").
type Dispatcher struct {
	Link  Link
	Trace Tracer
	Flash FlashService
	Jump  Jumper
	buf   [frameBufSize]byte
}

// NewDispatcher wires the four collaborators spec §6.3 names: the link
// layer, the flash service, the jump/handoff mechanism, and a debug
// tracer. A NopTracer is substituted if trace is nil.
func NewDispatcher(link Link, trace Tracer, flash FlashService, jump Jumper) *Dispatcher {
	if trace == nil {
		trace = NopTracer{}
	}
	return &Dispatcher{Link: link, Trace: trace, Flash: flash, Jump: jump}
}

// Run executes the command loop until ctx is cancelled or the link fails.
// ctx is polled only between frames — never inside a blocking Receive —
// so it adds no new suspension point inside frame reception and changes
// nothing about the wire timing spec §5 describes.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for i := range d.buf {
			d.buf[i] = 0
		}

		frame, err := ReceiveFrame(d.Link, d.buf[:])
		if err != nil {
			return err
		}
		if len(frame) < 2 {
			// Too short to even carry an opcode; nothing recognizable to
			// dispatch, and too short to have a valid trailing CRC either.
			continue
		}

		d.dispatch(frame)
	}
}

func (d *Dispatcher) dispatch(frame []byte) {
	op := frameOpcode(frame)
	switch op {
	case OpGetVersion:
		d.handleGetVersion(frame)
	case OpGetHelp:
		d.handleGetHelp(frame)
	case OpGetDevID:
		d.handleGetDevID(frame)
	case OpGetRDPLevel:
		d.handleGetRDPLevel(frame)
	case OpJmpAddr:
		d.handleJmpAddr(frame)
	case OpFlashErase:
		d.handleFlashErase(frame)
	case OpMemWrite:
		d.handleMemWrite(frame)
	case OpMemRead:
		d.handleMemRead(frame)
	case OpSetRWProtect:
		d.handleSetRWProtect(frame)
	case OpGetRWProtect:
		d.handleGetRWProtect(frame)
	default:
		// Unknown opcode: silent drop, per spec §4.3(d)/§7/P3. A NACK here
		// would be indistinguishable from a CRC failure on a recognized
		// command, so the host is expected to time out instead.
		d.Trace.Tracef("unrecognized opcode %#x, dropping frame", op)
	}
}

// ackReply sends ACK followed by payload, honoring invariant I3 ("N is
// chosen so the host can size its read deterministically").
func (d *Dispatcher) ackReply(payload []byte) error {
	header := [2]byte{ack, byte(len(payload))}
	if err := d.Link.Transmit(header[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		return d.Link.Transmit(payload)
	}
	return nil
}

func (d *Dispatcher) nackReply() error {
	return d.Link.Transmit([]byte{nack})
}

func (d *Dispatcher) handleGetVersion(frame []byte) {
	if !VerifyCRC(frame) {
		d.nackReply()
		return
	}
	d.ackReply([]byte{BLVersion})
}

func (d *Dispatcher) handleGetHelp(frame []byte) {
	if !VerifyCRC(frame) {
		d.nackReply()
		return
	}
	d.ackReply(SupportedOpcodes)
}

func (d *Dispatcher) handleGetDevID(frame []byte) {
	if !VerifyCRC(frame) {
		d.nackReply()
		return
	}
	var payload [2]byte
	payload[0] = byte(DeviceID)
	payload[1] = byte(DeviceID >> 8)
	d.ackReply(payload[:])
}

func (d *Dispatcher) handleGetRDPLevel(frame []byte) {
	if !VerifyCRC(frame) {
		d.nackReply()
		return
	}
	d.ackReply([]byte{d.Flash.RDPLevel()})
}

// handleJmpAddr implements BL_JMP_ADDR: 4 bytes LE @2 target address. Per
// invariant I4, no jump occurs until the ACK+validity byte has been fully
// transmitted, so the handler validates and replies first and only then
// asks the jumper to branch; ArchJumper.Branch itself drains the link
// before the architectural branch.
func (d *Dispatcher) handleJmpAddr(frame []byte) {
	if !VerifyCRC(frame) {
		d.nackReply()
		return
	}
	if len(frame) < 10 {
		d.nackReply()
		return
	}
	addr := uint32FromBytes(frame[2:6])

	status := d.Jump.ValidateAddr(addr)
	d.ackReply([]byte{byte(status)})
	if status != ValidAddr {
		return
	}

	// Does not return to this point in a real build; in the simulator
	// execEntry is a stub the harness may substitute.
	if err := d.Jump.Branch(addr); err != nil {
		d.Trace.Tracef("jump to %#x failed: %s", addr, err)
	}
}

// handleFlashErase implements BL_FLASH_ERASE: byte@2 base sector
// (0xFF=mass), byte@3 count.
func (d *Dispatcher) handleFlashErase(frame []byte) {
	if !VerifyCRC(frame) {
		d.nackReply()
		return
	}
	if len(frame) < 8 {
		d.nackReply()
		return
	}
	base := frame[2]
	count := frame[3]

	if !validEraseArgs(base, count) {
		d.ackReply([]byte{byte(EraseFailure)})
		return
	}

	var status Status
	if base == MassEraseSector {
		status = d.Flash.MassErase()
	} else {
		status = d.eraseRange(base, count)
	}
	d.ackReply([]byte{byte(status)})
}

// eraseRange erases the count sectors starting at base (inclusive), per
// validEraseArgs's resolution of spec §4.3/P5.
func (d *Dispatcher) eraseRange(base, count uint8) Status {
	for n := base; n < base+count; n++ {
		if d.Flash.SectorErase(n) != StatusSuccess {
			return EraseFailure
		}
	}
	return EraseSuccess
}

// handleMemWrite implements BL_MEM_WRITE: 4 bytes LE @2 dest, byte@6
// payload size P, P bytes @7 data.
func (d *Dispatcher) handleMemWrite(frame []byte) {
	if !VerifyCRC(frame) {
		d.nackReply()
		return
	}
	if len(frame) < 7+4 {
		d.nackReply()
		return
	}
	dest := uint32FromBytes(frame[2:6])
	size := frame[6]
	if len(frame) < 7+int(size)+4 {
		d.nackReply()
		return
	}
	data := frame[7 : 7+int(size)]

	if !inFlashAperture(dest) {
		d.ackReply([]byte{byte(FlashStatusFail)})
		return
	}

	status := d.Flash.Write(dest, data)
	d.ackReply([]byte{byte(status)})
}

// handleMemRead implements BL_MEM_READ: 4 bytes LE @2 src, byte@6 length
// N. Reply is N+1 bytes: status then N data bytes; when src or src+N lies
// outside the apertures the reply is the failure status byte alone. Per
// the DESIGN NOTES, the reply is built in a fixed-size local array of
// 1+255 bytes (no heap allocation), which holds any N since N <= 255.
func (d *Dispatcher) handleMemRead(frame []byte) {
	if !VerifyCRC(frame) {
		d.nackReply()
		return
	}
	if len(frame) < 7+4 {
		d.nackReply()
		return
	}
	src := uint32FromBytes(frame[2:6])
	n := frame[6]

	var reply [1 + 255]byte
	if !inAperture(src) || !inAperture(src+uint32(n)) {
		reply[0] = byte(FlashStatusFail)
		d.ackReply(reply[:1])
		return
	}

	status := d.Flash.Read(src, reply[1:1+int(n)])
	reply[0] = byte(status)
	d.ackReply(reply[:1+int(n)])
}

// handleSetRWProtect implements BL_SET_RW_PROTECT: byte@2 sector bitmask,
// byte@3 level (0/1/2).
func (d *Dispatcher) handleSetRWProtect(frame []byte) {
	if !VerifyCRC(frame) {
		d.nackReply()
		return
	}
	if len(frame) < 8 {
		d.nackReply()
		return
	}
	mask := frame[2]
	level := frame[3]

	status := d.Flash.SetProtection(level, mask)
	d.ackReply([]byte{byte(status)})
}

// handleGetRWProtect implements BL_GET_RW_PROTECT: 8 bytes, one per
// sector (spec §9's Open Question, resolved in favor of the 8-byte form).
func (d *Dispatcher) handleGetRWProtect(frame []byte) {
	if !VerifyCRC(frame) {
		d.nackReply()
		return
	}
	protection := d.Flash.GetProtection()
	d.ackReply(protection[:])
}
