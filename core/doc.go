// Package fwboot implements the core of an in-system firmware-update
// bootloader for a Cortex-M-class target: boot selection and application
// handoff (C5), a framed, CRC-checked UART command protocol (C1, C2, C3),
// and the flash-update state machine and safety envelope (C4).
//
// Peripheral initialization, byte-level UART primitives, and the concrete
// flash-controller register sequences are external collaborators; this
// package only consumes the interfaces they satisfy (Link, FlashService,
// GPIOReader, Jumper).
package fwboot
