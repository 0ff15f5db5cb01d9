package fwboot

import "encoding/binary"

// uint32FromBytes and uint32ToBytes name themselves after the teacher's
// identically-named helpers (vm/vm.go) — little-endian 32-bit conversion
// is used constantly for register/word traffic there and for addresses and
// lengths here.
func uint32FromBytes(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

func uint32ToBytes(v uint32, b []byte) {
	binary.LittleEndian.PutUint32(b, v)
}
