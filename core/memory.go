package fwboot

// Memory map constants for the STM32F446-family target: 512 KiB internal
// flash, 128 KiB SRAM split 112+16 KiB. See spec §3.
const (
	FlashBase = 0x0800_0000
	FlashSize = 512 * 1024

	SRAM1Base = 0x2000_0000
	SRAM1Size = 112 * 1024

	SRAM2Base = 0x2001_C000
	SRAM2Size = 16 * 1024

	// AppOffset is where the resident application image begins, sector 2.
	AppOffset = 0x8000

	NumSectors = 8
	// SectorSize is FlashSize split evenly over NumSectors (64 KiB). The
	// real sectors differ in size; sectorBounds uses sectorSizes instead.
	SectorSize      = FlashSize / NumSectors
	MassEraseSector = 0xFF

	OptionBytesAddr = 0x1FFF_C000

	// DeviceID is the low 12 bits of the debug-MCU IDCODE register the
	// simulated target reports via GET_DEV_ID.
	DeviceID = 0x0421
)

// AppBase is the flash address at which the resident application's vector
// table (MSP, then reset handler) lives.
const AppBase = FlashBase + AppOffset

// inAperture reports whether addr lies in the flash, SRAM1 or SRAM2
// aperture (spec §3, invariant I5).
func inAperture(addr uint32) bool {
	return inFlashAperture(addr) ||
		(addr >= SRAM1Base && addr <= SRAM1Base+SRAM1Size) ||
		(addr >= SRAM2Base && addr <= SRAM2Base+SRAM2Size)
}

// inFlashAperture reports whether addr lies within the flash aperture.
// Writes are restricted to this aperture; reads may target any aperture.
func inFlashAperture(addr uint32) bool {
	return addr >= FlashBase && addr <= FlashBase+FlashSize
}

// sectorSizes is the STM32F446 flash layout: four 16 KiB sectors, one
// 64 KiB sector, then three 128 KiB sectors (512 KiB in all), so sector 2
// starts at AppOffset.
var sectorSizes = [NumSectors]uint32{
	16 * 1024, 16 * 1024, 16 * 1024, 16 * 1024,
	64 * 1024, 128 * 1024, 128 * 1024, 128 * 1024,
}

// sectorBounds returns the [start, end) byte offsets of sector n within
// the flash array.
func sectorBounds(n uint8) (start, end uint32) {
	for i := uint8(0); i < n; i++ {
		start += sectorSizes[i]
	}
	end = start + sectorSizes[n]
	return
}
