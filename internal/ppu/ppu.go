// Package ppu implements the Game Boy's pixel processing unit: the
// OamSearch/PixelTransfer/HBlank/VBlank mode state machine, VRAM and
// OAM storage, the background/window/sprite pixel pipeline, and the DMG
// and CGB palettes.
//
// Grounded on _examples/thelolagemann-gomeboy/internal/ppu, whose mode
// state machine and register set this keeps; the per-dot two-FIFO
// fetcher is implemented as a per-scanline composition instead of the
// teacher's goroutine-pool renderer (internal/ppu/renderer.go), since
// spec.md's Non-goals explicitly exclude "sub-machine-cycle pixel FIFO
// contention" — the mode timing stays cycle-accurate, only the order
// pixels are produced within a scanline is simplified.
package ppu

import (
	"fmt"

	"github.com/tidemark/gbcore/internal/ppu/palette"
	"github.com/tidemark/gbcore/internal/types"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	oamSearchDots   = 80
	scanlineDots    = 456
	vblankLines     = 10
	totalLines      = ScreenHeight + vblankLines
	pixelTransferMin = 172
)

// Mode is the PPU's current state-machine mode. Its numeric value is
// also the value STAT bits 0-1 report.
type Mode uint8

const (
	HBlank Mode = iota
	VBlank
	OAMSearch
	PixelTransfer
)

// Pixel is one framebuffer entry, ARGB8888 (spec §6: "Pixel is either
// ARGB8888 or RGB565 depending on a compile-time choice" — gbcore fixes
// ARGB8888).
type Pixel = uint32

// IRQ is the bitmask of interrupt sources a Cycle call may have raised,
// ORed by the caller into the shared IF register (spec §9's one-way
// data flow: peripherals return requests rather than reaching into a
// shared interrupt service).
type IRQ uint8

const (
	IRQVBlank IRQ = 1 << iota
	IRQStat
)

// spriteAttr is one parsed OAM entry.
type spriteAttr struct {
	y, x, tile, flags uint8
	oamIndex          uint8
}

// PPU holds all pixel-processing state.
type PPU struct {
	model types.Model

	vram     [2][0x2000]byte
	vramBank uint8
	oam      [160]byte

	lcdc, stat, scy, scx, ly, lyc, wy, wx uint8
	bgp, obp0, obp1                       uint8

	bgPalette  *palette.RAM
	objPalette *palette.RAM

	mode      Mode
	dot       int
	statLine  bool
	windowLine uint8

	scanlineSprites   []spriteAttr
	frontBuffer       [ScreenWidth * ScreenHeight]Pixel
	backBuffer        [ScreenWidth * ScreenHeight]Pixel
	frameComplete     bool

	// oamDMABlocking lets an active OAM DMA additionally block CPU
	// access to OAM beyond the mode-based rule; the MMU sets it via
	// SetOAMDMABlocking.
	oamDMABlocking bool
}

// New returns a PPU reset to its post-bootrom state.
func New(model types.Model) *PPU {
	p := &PPU{
		model:      model,
		lcdc:       0x91,
		bgp:        0xFC,
		bgPalette:  palette.NewRAM(),
		objPalette: palette.NewRAM(),
	}
	p.setMode(OAMSearch)
	return p
}

func (p *PPU) lcdEnabled() bool   { return p.lcdc&types.Bit7 != 0 }
func (p *PPU) winTileMapHi() bool { return p.lcdc&types.Bit6 != 0 }
func (p *PPU) winEnabled() bool   { return p.lcdc&types.Bit5 != 0 }
func (p *PPU) tileDataLo() bool   { return p.lcdc&types.Bit4 != 0 }
func (p *PPU) bgTileMapHi() bool  { return p.lcdc&types.Bit3 != 0 }
func (p *PPU) tallSprites() bool  { return p.lcdc&types.Bit2 != 0 }
func (p *PPU) spritesEnabled() bool { return p.lcdc&types.Bit1 != 0 }
func (p *PPU) bgEnabled() bool    { return p.lcdc&types.Bit0 != 0 }

// Mode returns the PPU's current mode.
func (p *PPU) Mode() Mode { return p.mode }

// LY returns the current scanline.
func (p *PPU) LY() uint8 { return p.ly }

// SetOAMDMABlocking is called by the MMU to mirror whether an OAM DMA
// transfer is in flight, additionally blocking CPU access to OAM.
func (p *PPU) SetOAMDMABlocking(b bool) { p.oamDMABlocking = b }

// vramBlockedForCPU reports whether the CPU's view of VRAM should read
// 0xFF / drop writes this dot (mode 3 only, spec §4.2).
func (p *PPU) vramBlockedForCPU() bool {
	return p.lcdEnabled() && p.mode == PixelTransfer
}

// oamBlockedForCPU reports whether the CPU's view of OAM should read
// 0xFF / drop writes this dot (modes 2-3, or an active OAM DMA).
func (p *PPU) oamBlockedForCPU() bool {
	if p.oamDMABlocking {
		return true
	}
	return p.lcdEnabled() && (p.mode == OAMSearch || p.mode == PixelTransfer)
}

// ReadVRAM services a CPU read of 0x8000-0x9FFF.
func (p *PPU) ReadVRAM(address uint16) uint8 {
	if p.vramBlockedForCPU() {
		return 0xFF
	}
	return p.vram[p.vramBank][address-0x8000]
}

// WriteVRAM services a CPU write of 0x8000-0x9FFF.
func (p *PPU) WriteVRAM(address uint16, value uint8) {
	if p.vramBlockedForCPU() {
		return
	}
	p.vram[p.vramBank][address-0x8000] = value
}

// ReadOAM services a CPU read of 0xFE00-0xFE9F.
func (p *PPU) ReadOAM(address uint16) uint8 {
	if p.oamBlockedForCPU() {
		return 0xFF
	}
	return p.oam[address-0xFE00]
}

// WriteOAM services a CPU write of 0xFE00-0xFE9F.
func (p *PPU) WriteOAM(address uint16, value uint8) {
	if p.oamBlockedForCPU() {
		return
	}
	p.oam[address-0xFE00] = value
}

// DMAWriteOAM is used by the OAM DMA engine, which is not subject to the
// CPU blocking rules (it is the bus owner during the copy).
func (p *PPU) DMAWriteOAM(offset uint8, value uint8) {
	p.oam[offset] = value
}

// DMAWriteVRAM is used by the CGB VRAM DMA engine, which
// bypasses the CPU's mode-based blocking the same way OAM DMA does.
func (p *PPU) DMAWriteVRAM(offset uint16, value uint8) {
	p.vram[p.vramBank][offset] = value
}

// Read services a CPU read of a PPU register.
func (p *PPU) Read(address uint16) uint8 {
	switch address {
	case types.LCDC:
		return p.lcdc
	case types.STAT:
		return p.stat | 0x80
	case types.SCY:
		return p.scy
	case types.SCX:
		return p.scx
	case types.LY:
		return p.ly
	case types.LYC:
		return p.lyc
	case types.BGP:
		return p.bgp
	case types.OBP0:
		return p.obp0
	case types.OBP1:
		return p.obp1
	case types.WY:
		return p.wy
	case types.WX:
		return p.wx
	case types.VBK:
		return p.vramBank | 0xFE
	case types.BGPI:
		return p.bgPalette.ReadIndex()
	case types.BGPD:
		return p.bgPalette.ReadData()
	case types.OBPI:
		return p.objPalette.ReadIndex()
	case types.OBPD:
		return p.objPalette.ReadData()
	}
	panic(fmt.Sprintf("ppu: illegal read from address %04X", address))
}

// Write services a CPU write of a PPU register.
func (p *PPU) Write(address uint16, value uint8) {
	switch address {
	case types.LCDC:
		wasEnabled := p.lcdEnabled()
		p.lcdc = value
		if wasEnabled && !p.lcdEnabled() {
			p.disable()
		}
	case types.STAT:
		p.stat = p.stat&0x07 | value&0x78
	case types.SCY:
		p.scy = value
	case types.SCX:
		p.scx = value
	case types.LY:
		// read-only; writes absorbed
	case types.LYC:
		p.lyc = value
	case types.BGP:
		p.bgp = value
	case types.OBP0:
		p.obp0 = value
	case types.OBP1:
		p.obp1 = value
	case types.WY:
		p.wy = value
	case types.WX:
		p.wx = value
	case types.VBK:
		if p.model == types.CGB {
			p.vramBank = value & 0x01
		}
	case types.BGPI:
		p.bgPalette.WriteIndex(value)
	case types.BGPD:
		p.bgPalette.WriteData(value)
	case types.OBPI:
		p.objPalette.WriteIndex(value)
	case types.OBPD:
		p.objPalette.WriteData(value)
	default:
		panic(fmt.Sprintf("ppu: illegal write to address %04X", address))
	}
}

// disable resets the PPU to its LCD-off state (spec §4.4: "PPU clears
// its state (LY=0, mode=HBlank) and outputs a blank frame").
func (p *PPU) disable() {
	p.ly = 0
	p.dot = 0
	p.windowLine = 0
	p.setMode(HBlank)
	for i := range p.backBuffer {
		p.backBuffer[i] = 0xFFFFFFFF
	}
	p.frontBuffer = p.backBuffer
}

func (p *PPU) setMode(m Mode) {
	p.mode = m
	p.stat = p.stat&0xFC | uint8(m)
}

// FrameReady reports whether a full frame has just completed and is
// ready to be handed to a graphics sink; it is cleared by Framebuffer.
func (p *PPU) FrameReady() bool { return p.frameComplete }

// Framebuffer returns the most recently completed frame and clears the
// FrameReady flag. Per spec §6/§9 the returned array is owned by the
// PPU; a caller that needs to keep it must copy.
func (p *PPU) Framebuffer() *[ScreenWidth * ScreenHeight]Pixel {
	p.frameComplete = false
	return &p.frontBuffer
}

// Cycle advances the PPU by mCycles m-cycles, 4 dots each. The PPU has
// no double-speed input: in CGB double-speed mode it still advances 4
// dots per CPU m-cycle, not 2.
func (p *PPU) Cycle(mCycles uint8) IRQ {
	if !p.lcdEnabled() {
		return 0
	}
	var irq IRQ
	for i := uint8(0); i < mCycles; i++ {
		irq |= p.tick(4)
	}
	return irq
}

func (p *PPU) tick(dots int) IRQ {
	var irq IRQ
	p.dot += dots

	switch p.mode {
	case OAMSearch:
		if p.dot >= oamSearchDots {
			p.dot -= oamSearchDots
			p.selectSprites()
			p.setMode(PixelTransfer)
		}
	case PixelTransfer:
		transferLen := pixelTransferMin + p.spritePenalty() + p.windowPenalty()
		if p.dot >= transferLen {
			p.dot -= transferLen
			p.renderScanline()
			p.setMode(HBlank)
			irq |= p.checkSTAT()
		}
	case HBlank:
		if p.dot >= scanlineDots-oamSearchDots-p.lastTransferLen() {
			p.dot = 0
			p.ly++
			if p.ly == ScreenHeight {
				p.setMode(VBlank)
				p.frameComplete = true
				p.frontBuffer = p.backBuffer
				irq |= IRQVBlank
				irq |= p.checkSTAT()
			} else {
				p.setMode(OAMSearch)
				irq |= p.checkSTAT()
			}
			irq |= p.checkLYC()
		}
	case VBlank:
		if p.dot >= scanlineDots {
			p.dot = 0
			p.ly++
			if p.ly > totalLines-1 {
				p.ly = 0
				p.windowLine = 0
				p.setMode(OAMSearch)
				irq |= p.checkSTAT()
			}
			irq |= p.checkLYC()
		}
	}
	return irq
}

// lastTransferLen and spritePenalty/windowPenalty approximate the extra
// PixelTransfer dots contributed by sprites and a mid-scanline window
// start (spec §4.4: "lengthened by sprite count and window"); exact
// sub-dot FIFO contention is out of scope (spec §1 Non-goals).
func (p *PPU) spritePenalty() int {
	return len(p.scanlineSprites) * 6
}

func (p *PPU) windowPenalty() int {
	if p.winEnabled() && p.wy <= p.ly && p.wx < 167 {
		return 6
	}
	return 0
}

func (p *PPU) lastTransferLen() int {
	return pixelTransferMin + p.spritePenalty() + p.windowPenalty()
}

// checkSTAT re-evaluates the STAT interrupt line from the mode sources
// (mode 0/1/2 entry) and raises IRQStat on its rising edge. checkLYC does
// the same from the LY==LYC source. Both share one latched line value
// and each sets it from its own source alone; the sources are not ORed
// (spec §9 acknowledges this area is modeled to pass common test ROMs,
// not refined further without test evidence).
func (p *PPU) checkSTAT() IRQ {
	line := false
	switch p.mode {
	case HBlank:
		line = p.stat&types.Bit3 != 0
	case VBlank:
		line = p.stat&types.Bit4 != 0
	case OAMSearch:
		line = p.stat&types.Bit5 != 0
	}
	return p.latchSTAT(line)
}

func (p *PPU) checkLYC() IRQ {
	coincidence := p.ly == p.lyc
	if coincidence {
		p.stat |= types.Bit2
	} else {
		p.stat &^= types.Bit2
	}
	line := coincidence && p.stat&types.Bit6 != 0
	return p.latchSTAT(line)
}

func (p *PPU) latchSTAT(line bool) IRQ {
	if line && !p.statLine {
		p.statLine = line
		return IRQStat
	}
	p.statLine = line
	return 0
}

func (p *PPU) Save(s interface {
	Write8(uint8)
	Write16(uint16)
	WriteBool(bool)
	WriteData([]byte)
}) {
	s.WriteData(p.vram[0][:])
	s.WriteData(p.vram[1][:])
	s.Write8(p.vramBank)
	s.WriteData(p.oam[:])
	s.Write8(p.lcdc)
	s.Write8(p.stat)
	s.Write8(p.scy)
	s.Write8(p.scx)
	s.Write8(p.ly)
	s.Write8(p.lyc)
	s.Write8(p.wy)
	s.Write8(p.wx)
	s.Write8(p.bgp)
	s.Write8(p.obp0)
	s.Write8(p.obp1)
	s.Write16(uint16(p.dot))
	s.WriteBool(p.statLine)
	s.Write8(p.windowLine)
	p.bgPalette.Save(s)
	p.objPalette.Save(s)
}

func (p *PPU) Load(s interface {
	Read8() uint8
	Read16() uint16
	ReadBool() bool
	ReadData([]byte)
}) {
	s.ReadData(p.vram[0][:])
	s.ReadData(p.vram[1][:])
	p.vramBank = s.Read8()
	s.ReadData(p.oam[:])
	p.lcdc = s.Read8()
	p.stat = s.Read8()
	p.scy = s.Read8()
	p.scx = s.Read8()
	p.ly = s.Read8()
	p.lyc = s.Read8()
	p.wy = s.Read8()
	p.wx = s.Read8()
	p.bgp = s.Read8()
	p.obp0 = s.Read8()
	p.obp1 = s.Read8()
	p.dot = int(s.Read16())
	p.statLine = s.ReadBool()
	p.windowLine = s.Read8()
	p.bgPalette.Load(s)
	p.objPalette.Load(s)
}
