// Command blhost is a small urfave/cli-driven exerciser for the
// bootloader's wire protocol: it builds request frames, computes the
// hardware-matching CRC, and decodes ACK/NACK replies, the way a real
// flashing tool would. It is not part of the bootloader core itself (spec
// §1 scopes the core to the device side); it exists to drive the protocol
// end to end in demos and in cmd/blhost's own self-test mode.
package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"fwboot/core"
)

func main() {
	app := &cli.App{
		Name:  "blhost",
		Usage: "talk to an fwboot device over its command UART",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "device", Usage: "command UART device path"},
			&cli.BoolFlag{Name: "selftest", Usage: "run against an in-process loopback device instead"},
		},
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "send GET_VERSION",
				Action: func(c *cli.Context) error {
					return runSimple(c, opGetVersion)
				},
			},
			{
				Name:  "devid",
				Usage: "send GET_DEV_ID",
				Action: func(c *cli.Context) error {
					return runSimple(c, opGetDevID)
				},
			},
			{
				Name:  "rdp",
				Usage: "send GET_RDP_LEVEL",
				Action: func(c *cli.Context) error {
					return runSimple(c, opGetRDPLevel)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Opcode constants are duplicated from core's unexported table on purpose:
// a host tool talks to the device over the wire, not through the core
// package's internals, exactly as a real PC-side flashing utility would
// only ever know the public protocol (spec §6.1), never link against the
// firmware's implementation.
const (
	opGetVersion  byte = 0xA1
	opGetDevID    byte = 0xA3
	opGetRDPLevel byte = 0xA4
)

func buildRequest(op byte) []byte {
	// L counts every byte that follows it, including the 4-byte CRC
	// trailer (spec §3/S1), so a bare opcode with no args is L=1+4=5.
	frame := []byte{byte(1 + 4), op}
	crc := hostCRC(frame)
	var crcBytes [4]byte
	binary.LittleEndian.PutUint32(crcBytes[:], crc)
	return append(frame, crcBytes[:]...)
}

// hostCRC mirrors core.crcOverBytes's byte-at-a-time convention so the
// host and device agree on the same value for the same bytes (spec §9's
// Open Question, resolved in SPEC_FULL.md).
func hostCRC(data []byte) uint32 {
	const poly = 0x04C1_1DB7
	crc := uint32(0xFFFF_FFFF)
	for _, b := range data {
		crc ^= uint32(b)
		for i := 0; i < 32; i++ {
			if crc&0x8000_0000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func runSimple(c *cli.Context, op byte) error {
	var link core.Link
	var closer func() error

	if c.Bool("selftest") {
		d, h := core.NewLoopbackPair()
		flash := core.NewSimFlash()
		disp := core.NewDispatcher(d, core.NopTracer{}, flash, &core.ArchJumper{Link: d})
		go disp.Run(c.Context)
		link = h
	} else {
		device := c.String("device")
		if device == "" {
			return fmt.Errorf("-device is required unless -selftest is set")
		}
		sl, err := core.OpenSerialLink(device)
		if err != nil {
			return err
		}
		link = sl
		closer = sl.Close
	}
	if closer != nil {
		defer closer()
	}

	req := buildRequest(op)
	if err := link.Transmit(req); err != nil {
		return err
	}

	header := make([]byte, 1)
	if err := link.Receive(header); err != nil {
		return err
	}
	if header[0] != 0xBB {
		fmt.Println("NACK")
		return nil
	}

	n := make([]byte, 1)
	if err := link.Receive(n); err != nil {
		return err
	}
	payload := make([]byte, n[0])
	if err := link.Receive(payload); err != nil {
		return err
	}

	fmt.Printf("ACK % X\n", payload)
	return nil
}
