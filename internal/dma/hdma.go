package dma

import "github.com/tidemark/gbcore/internal/types"

// VRAMWriter is the narrow interface the HDMA engine needs from the
// PPU to write directly into the currently-selected VRAM bank.
type VRAMWriter interface {
	DMAWriteVRAM(offset uint16, value uint8)
}

// mode distinguishes the two CGB transfer kinds selectable via HDMA5
// bit 7 at trigger time.
type mode uint8

const (
	generalPurpose mode = iota
	hblankMode
)

// HDMA is the CGB VRAM DMA controller (HDMA1-5), supporting both a
// general-purpose transfer that copies 0x10 bytes per m-cycle with the
// CPU stalled, and an HBlank-gated transfer that copies 0x10 bytes per
// HBlank period instead.
//
// Grounded on original_source/src/hardware/hdma.rs for the HBlank-block
// semantics; register layout follows the same HDMA1-5 shadow-register
// decoding _examples/thelolagemann-gomeboy uses throughout its PPU/IO
// register files.
type HDMA struct {
	srcHi, srcLo uint8
	dstHi, dstLo uint8

	active bool
	mode   mode
	// length is the number of remaining 0x10-byte blocks minus one, as
	// stored in HDMA5 bits 0-6.
	length uint8

	src uint16
	dst uint16
}

// NewHDMA returns an idle HDMA controller.
func NewHDMA() *HDMA { return &HDMA{} }

func (h *HDMA) WriteReg(address uint16, value uint8) {
	switch address {
	case types.HDMA1:
		h.srcHi = value
	case types.HDMA2:
		h.srcLo = value & 0xF0
	case types.HDMA3:
		h.dstHi = value & 0x1F
	case types.HDMA4:
		h.dstLo = value & 0xF0
	case types.HDMA5:
		h.trigger(value)
	}
}

func (h *HDMA) ReadReg(address uint16) uint8 {
	if address != types.HDMA5 {
		return 0xFF
	}
	if !h.active {
		return 0xFF
	}
	return h.length
}

func (h *HDMA) trigger(value uint8) {
	if h.active && h.mode == hblankMode && value&0x80 == 0 {
		h.active = false // writing 0 to bit7 mid-HBlank-transfer cancels it
		return
	}
	h.src = uint16(h.srcHi)<<8 | uint16(h.srcLo)
	h.dst = 0x8000 | uint16(h.dstHi)<<8 | uint16(h.dstLo)
	h.length = value & 0x7F
	h.active = true
	if value&0x80 != 0 {
		h.mode = hblankMode
	} else {
		h.mode = generalPurpose
	}
}

// Active reports whether a transfer is in flight (the MMU runs a
// general-purpose transfer to completion inside the HDMA5 write that
// triggers it, so from the CPU's side this is only observably true
// during an HBlank-gated transfer).
func (h *HDMA) Active() bool { return h.active }

// IsHBlankMode reports whether the in-flight transfer is HBlank-gated
// rather than general-purpose; the MMU uses this right after a HDMA5
// write to decide whether to run the transfer immediately.
func (h *HDMA) IsHBlankMode() bool { return h.mode == hblankMode }

// StepGeneralPurposeBlock copies a single 0x10-byte block of an active
// general-purpose transfer and reports whether the whole transfer has
// now completed. Per spec §4.9, general-purpose mode transfers 16 bytes
// per m-cycle with the CPU stalled, so the caller must tick every other
// peripheral by one m-cycle between calls rather than looping this to
// completion immediately.
func (h *HDMA) StepGeneralPurposeBlock(bus BusReader, vram VRAMWriter) bool {
	if !h.active || h.mode != generalPurpose {
		return true
	}
	h.copyBlock(bus, vram)
	if h.length == 0 {
		h.active = false
		return true
	}
	h.length--
	return false
}

// RunHBlankBlock copies one 0x10-byte block; the caller invokes this
// once per HBlank entry while a transfer is active in HBlank mode.
func (h *HDMA) RunHBlankBlock(bus BusReader, vram VRAMWriter) {
	if !h.active || h.mode != hblankMode {
		return
	}
	h.copyBlock(bus, vram)
	if h.length == 0 {
		h.active = false
		return
	}
	h.length--
}

func (h *HDMA) copyBlock(bus BusReader, vram VRAMWriter) {
	for i := uint16(0); i < 0x10; i++ {
		vram.DMAWriteVRAM(h.dst-0x8000, bus.DMARead(h.src))
		h.src++
		h.dst++
	}
}

func (h *HDMA) Save(s interface {
	Write8(uint8)
	Write16(uint16)
	WriteBool(bool)
}) {
	s.Write8(h.srcHi)
	s.Write8(h.srcLo)
	s.Write8(h.dstHi)
	s.Write8(h.dstLo)
	s.WriteBool(h.active)
	s.Write8(uint8(h.mode))
	s.Write8(h.length)
	s.Write16(h.src)
	s.Write16(h.dst)
}

func (h *HDMA) Load(s interface {
	Read8() uint8
	Read16() uint16
	ReadBool() bool
}) {
	h.srcHi = s.Read8()
	h.srcLo = s.Read8()
	h.dstHi = s.Read8()
	h.dstLo = s.Read8()
	h.active = s.ReadBool()
	h.mode = mode(s.Read8())
	h.length = s.Read8()
	h.src = s.Read16()
	h.dst = s.Read16()
}
