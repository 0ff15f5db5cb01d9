package fwboot

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
	serial "github.com/daedaluz/goserial"
)

// Link is the command-UART abstraction C1 exposes to the frame codec and
// dispatcher: blocking transmit/receive plus a drain operation used to
// guarantee the ACK+validity byte is fully on the wire before a handoff or
// jump (spec §5, §9 — "this spec mandates drain to avoid truncating the
// reply").
type Link interface {
	// Transmit blocks until every byte has been handed to the UART.
	Transmit(data []byte) error
	// Receive blocks until len(buf) bytes have arrived, filling buf.
	Receive(buf []byte) error
	// Drain blocks until all previously transmitted bytes have left the
	// shift register (the hardware transmit-complete flag).
	Drain() error
}

// Tracer is the debug channel (a second, independent UART in the real
// system, spec §4.5, §6.2). Tracing must never block or alter the timing
// of the command channel, so implementations write to their own sink.
type Tracer interface {
	Tracef(format string, args ...any)
}

// NopTracer discards everything; used whenever BL_ENABLE_DEBUG_PRINT-style
// tracing is compiled out.
type NopTracer struct{}

func (NopTracer) Tracef(string, ...any) {}

// logTracer adapts a github.com/charmbracelet/log logger (grounded in
// doismellburning-samoyed, which uses charmbracelet/log as its CLI debug
// channel) to the Tracer interface. It is always given its own writer, so
// it can never contend with the command UART for a shared buffer.
type logTracer struct {
	logger *charmlog.Logger
}

// NewDebugTracer returns a Tracer that writes timestamped, prefixed lines
// to w — the debug UART in a real build, stderr in the simulator. Tracef
// messages are logged at debug level, the closest charmbracelet/log
// analog of the original firmware's unconditional BOOTLOADER_DEBUG trace.
func NewDebugTracer(component string, w io.Writer) Tracer {
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		Prefix:          component,
		Level:           charmlog.DebugLevel,
		ReportTimestamp: true,
	})
	return &logTracer{logger: logger}
}

func (t *logTracer) Tracef(format string, args ...any) {
	t.logger.Debugf(format, args...)
}

// SerialLink is the production Link, backed by a real command UART opened
// via github.com/daedaluz/goserial at 115200 8N1 (spec §6.2).
type SerialLink struct {
	port *serial.Port
}

// OpenSerialLink opens the named tty and configures it for the bootloader's
// command channel line settings.
func OpenSerialLink(device string) (*SerialLink, error) {
	port, err := serial.Open(device, serial.NewOptions())
	if err != nil {
		return nil, fmt.Errorf("open command uart %s: %w", device, err)
	}

	attrs, err := port.GetAttr2()
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("read uart attrs: %w", err)
	}
	attrs.MakeRaw()
	attrs.SetSpeed(serial.B115200)
	if err := port.SetAttr2(serial.TCSANOW, attrs); err != nil {
		port.Close()
		return nil, fmt.Errorf("configure uart 115200 8N1: %w", err)
	}

	return &SerialLink{port: port}, nil
}

func (s *SerialLink) Transmit(data []byte) error {
	n, err := s.port.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("short write: wrote %d of %d bytes", n, len(data))
	}
	return nil
}

func (s *SerialLink) Receive(buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := s.port.Read(buf[total:])
		if err != nil {
			return err
		}
		total += n
	}
	return nil
}

func (s *SerialLink) Drain() error {
	return s.port.Drain()
}

func (s *SerialLink) Close() error {
	return s.port.Close()
}

// LoopbackLink is an in-memory Link used by tests, the -sim device-side
// harness, and cmd/blhost's self-test mode. Bytes written with Transmit
// become readable on the peer end via Receive; there is no reordering and
// no loss, so it exercises framing and CRC logic without a real UART.
type LoopbackLink struct {
	mu     sync.Mutex
	toDev  *bytes.Buffer
	toHost *bytes.Buffer
	closed bool
}

// NewLoopbackPair returns two Links wired to each other: write on one side
// becomes readable on the other.
func NewLoopbackPair() (device Link, host Link) {
	a := &bytes.Buffer{}
	b := &bytes.Buffer{}
	l := &LoopbackLink{toDev: a, toHost: b}
	r := &loopbackPeer{l}
	return l, r
}

func (l *LoopbackLink) Transmit(data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errLinkClosed
	}
	l.toHost.Write(data)
	return nil
}

func (l *LoopbackLink) Receive(buf []byte) error {
	for i := range buf {
		b, err := l.readByte(l.toDev)
		if err != nil {
			return err
		}
		buf[i] = b
	}
	return nil
}

func (l *LoopbackLink) Drain() error { return nil }

func (l *LoopbackLink) readByte(src *bytes.Buffer) (byte, error) {
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return 0, errLinkClosed
		}
		if src.Len() > 0 {
			b, _ := src.ReadByte()
			l.mu.Unlock()
			return b, nil
		}
		l.mu.Unlock()
		time.Sleep(time.Microsecond * 50)
	}
}

func (l *LoopbackLink) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// loopbackPeer is the host-side view of a LoopbackLink: its Transmit writes
// to what the device Receives, and vice versa.
type loopbackPeer struct {
	l *LoopbackLink
}

func (p *loopbackPeer) Transmit(data []byte) error {
	p.l.mu.Lock()
	defer p.l.mu.Unlock()
	if p.l.closed {
		return errLinkClosed
	}
	p.l.toDev.Write(data)
	return nil
}

func (p *loopbackPeer) Receive(buf []byte) error {
	for i := range buf {
		b, err := p.l.readByte(p.l.toHost)
		if err != nil {
			return err
		}
		buf[i] = b
	}
	return nil
}

func (p *loopbackPeer) Drain() error { return nil }
