// Package dma implements the Game Boy's two DMA engines: the classic
// OAM DMA (available on DMG and CGB) and the CGB-only VRAM DMA/HDMA
// controller.
//
// Grounded on _examples/thelolagemann-gomeboy/internal/io/dma (moved
// here since the teacher's internal/io package was dropped in favor of
// a flat internal/ layout) and the HDMA behavior documented in
// original_source/src/hardware/hdma.rs.
package dma

// OAMWriter is the narrow interface the OAM DMA engine needs from the
// PPU: a bus-owner write that bypasses the CPU's mode-based blocking.
type OAMWriter interface {
	DMAWriteOAM(offset uint8, value uint8)
}

// BusReader reads a byte from the wider system bus; OAM DMA copies from
// anywhere in 0x0000-0xDF9F (mirrored below 0xE000) and CPU memory
// access is unaffected except to OAM itself during the transfer.
type BusReader interface {
	DMARead(address uint16) uint8
}

// OAM is the classic OAM DMA engine: exactly 160 m-cycles to copy 0xA0
// bytes from (source<<8) into OAM, one byte per m-cycle starting on the
// very first Cycle call after Trigger, blocking CPU OAM access while
// active. Only OAM is blocked; the rest of the bus stays accessible to
// the CPU during the transfer.
type OAM struct {
	source uint8
	active bool
	offset uint8
}

// New returns an idle OAM DMA engine.
func New() *OAM { return &OAM{} }

// Trigger starts a transfer from source*0x100; writing DMA mid-transfer
// restarts it from the new source (spec §5.2).
func (d *OAM) Trigger(source uint8) {
	d.source = source
	d.active = true
	d.offset = 0
}

// Active reports whether a transfer is in flight, for the PPU/MMU to
// gate CPU OAM access.
func (d *OAM) Active() bool { return d.active }

// Source returns the DMA source page register's last written value.
func (d *OAM) Source() uint8 { return d.source }

// Cycle advances the DMA engine by one m-cycle, copying one byte if a
// transfer is in flight.
func (d *OAM) Cycle(bus BusReader, oam OAMWriter) {
	if !d.active {
		return
	}
	addr := uint16(d.source)<<8 + uint16(d.offset)
	oam.DMAWriteOAM(d.offset, bus.DMARead(addr))
	d.offset++
	if d.offset >= 0xA0 {
		d.active = false
	}
}

func (d *OAM) Save(s interface {
	Write8(uint8)
	WriteBool(bool)
}) {
	s.Write8(d.source)
	s.WriteBool(d.active)
	s.Write8(d.offset)
}

func (d *OAM) Load(s interface {
	Read8() uint8
	ReadBool() bool
}) {
	d.source = s.Read8()
	d.active = s.ReadBool()
	d.offset = s.Read8()
}
