// Command bootsim runs the bootloader core against either a real command
// UART or an in-memory harness, selecting interactive mode vs. application
// handoff the same way the real target does: by sampling a strap pin once
// at startup (spec §4.1).
//
// This is the device side of the system; cmd/blhost is the host-side
// exerciser that speaks the wire protocol to it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"fwboot/core"
)

func main() {
	device := flag.String("device", "", "command UART device path (e.g. /dev/ttyUSB0); omit for -sim")
	sim := flag.Bool("sim", false, "run against an in-memory loopback link instead of a real UART")
	strapLow := flag.Bool("strap-low", true, "simulated strap-pin level: true selects interactive mode")
	flag.Parse()

	var link core.Link
	var closer func()
	switch {
	case *sim:
		d, _ := core.NewLoopbackPair()
		link = d
	case *device != "":
		sl, err := core.OpenSerialLink(*device)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open command uart:", err)
			os.Exit(1)
		}
		link = sl
		closer = func() { sl.Close() }
	default:
		fmt.Fprintln(os.Stderr, "one of -device or -sim is required")
		os.Exit(2)
	}
	if closer != nil {
		defer closer()
	}

	trace := core.NewDebugTracer("bootsim", os.Stderr)
	flash := core.NewSimFlash()
	jumper := &core.ArchJumper{Link: link}

	level := core.LevelHigh
	if *strapLow {
		level = core.LevelLow
	}
	mode := core.ReadStrap(strapPin{level})

	if mode == core.ModeApplication {
		trace.Tracef("strap selects application handoff")
		if err := jumper.Handoff(flash); err != nil {
			fmt.Fprintln(os.Stderr, "handoff refused:", err)
			os.Exit(1)
		}
		return
	}

	trace.Tracef("strap selects interactive mode")
	dispatcher := core.NewDispatcher(link, trace, flash, jumper)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := dispatcher.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "command loop exited:", err)
		os.Exit(1)
	}
}

type strapPin struct{ level core.Level }

func (s strapPin) Read() core.Level { return s.level }
