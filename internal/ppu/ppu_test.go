package ppu

import (
	"testing"

	"github.com/tidemark/gbcore/internal/types"
)

func TestNewResetsToPostBootromState(t *testing.T) {
	p := New(types.DMG)
	if p.Mode() != OAMSearch {
		t.Errorf("initial mode = %d, want OAMSearch (%d)", p.Mode(), OAMSearch)
	}
	if got := p.Read(types.LCDC); got != 0x91 {
		t.Errorf("LCDC = %#02x, want 0x91", got)
	}
}

// runDots advances the PPU one m-cycle at a time until at least n dots
// have elapsed, since Cycle only accepts whole m-cycles.
func runDots(p *PPU, n int) {
	for i := 0; i < (n+3)/4; i++ {
		p.Cycle(1)
	}
}

func TestModeCyclesOAMSearchToPixelTransferToHBlank(t *testing.T) {
	p := New(types.DMG)
	if p.Mode() != OAMSearch {
		t.Fatalf("mode after enabling LCD = %d, want OAMSearch (%d)", p.Mode(), OAMSearch)
	}
	runDots(p, oamSearchDots)
	if p.Mode() != PixelTransfer {
		t.Errorf("mode after oam search window = %d, want PixelTransfer (%d)", p.Mode(), PixelTransfer)
	}
	runDots(p, pixelTransferMin)
	if p.Mode() != HBlank {
		t.Errorf("mode after pixel transfer window = %d, want HBlank (%d)", p.Mode(), HBlank)
	}
}

func TestLYIncrementsOncePerScanlineAndWrapsAtTotalLines(t *testing.T) {
	p := New(types.DMG)
	startLY := p.LY()
	runDots(p, scanlineDots)
	if p.LY() != startLY+1 {
		t.Errorf("LY after one scanline = %d, want %d", p.LY(), startLY+1)
	}

	for i := 0; i < totalLines; i++ {
		runDots(p, scanlineDots)
	}
	if p.LY() != startLY+1 {
		t.Errorf("LY after a full %d-line frame = %d, want it to have wrapped back to %d", totalLines, p.LY(), startLY+1)
	}
}

func TestVBlankEntryRaisesVBlankIRQAndMarksFrameReady(t *testing.T) {
	p := New(types.DMG)
	var irq IRQ
	for p.Mode() != VBlank {
		irq |= p.Cycle(1)
	}
	if irq&IRQVBlank == 0 {
		t.Errorf("IRQVBlank never raised on entering VBlank")
	}
	if !p.FrameReady() {
		t.Errorf("FrameReady false right after entering VBlank")
	}
	p.Framebuffer()
	if p.FrameReady() {
		t.Errorf("FrameReady still true after Framebuffer() consumed it")
	}
}

func TestVRAMBlockedDuringPixelTransferOnly(t *testing.T) {
	p := New(types.DMG)
	p.WriteVRAM(0x8000, 0x55)
	if got := p.ReadVRAM(0x8000); got != 0x55 {
		t.Fatalf("VRAM write during OAMSearch should not be blocked: got %#02x", got)
	}

	runDots(p, oamSearchDots)
	if p.Mode() != PixelTransfer {
		t.Fatalf("expected PixelTransfer, got mode %d", p.Mode())
	}
	if got := p.ReadVRAM(0x8000); got != 0xFF {
		t.Errorf("VRAM read during PixelTransfer = %#02x, want 0xFF (blocked)", got)
	}
	p.WriteVRAM(0x8000, 0xAA)
	if got := p.ReadVRAM(0x8000); got != 0xFF {
		t.Errorf("write during PixelTransfer should be absorbed, not applied")
	}
}

func TestOAMBlockedDuringOAMSearchAndPixelTransfer(t *testing.T) {
	p := New(types.DMG)
	if got := p.ReadOAM(0xFE00); got != 0xFF {
		t.Errorf("OAM read during OAMSearch = %#02x, want 0xFF (blocked)", got)
	}
	p.SetOAMDMABlocking(true)
	if got := p.ReadOAM(0xFE00); got != 0xFF {
		t.Errorf("OAM read with DMA blocking active = %#02x, want 0xFF", got)
	}
	p.SetOAMDMABlocking(false)

	for p.Mode() != HBlank {
		p.Cycle(1)
	}
	p.WriteOAM(0xFE00, 0x42)
	if got := p.ReadOAM(0xFE00); got != 0x42 {
		t.Errorf("OAM read during HBlank = %#02x, want 0x42 (unblocked)", got)
	}
}

func TestDisablingLCDResetsLYAndMode(t *testing.T) {
	p := New(types.DMG)
	runDots(p, scanlineDots*2)
	if p.LY() == 0 {
		t.Fatalf("test setup: LY should have advanced past 0")
	}
	p.Write(types.LCDC, 0x01) // clear bit 7: disable LCD
	if p.LY() != 0 {
		t.Errorf("LY after disabling LCD = %d, want 0", p.LY())
	}
	if p.Mode() != HBlank {
		t.Errorf("mode after disabling LCD = %d, want HBlank (%d)", p.Mode(), HBlank)
	}
}

func TestLYCCoincidenceRaisesSTATOnRisingEdge(t *testing.T) {
	p := New(types.DMG)
	p.Write(types.LYC, 1)
	p.Write(types.STAT, 0x40) // enable the LYC=LY STAT source

	var irq IRQ
	for p.LY() != 1 {
		irq |= p.Cycle(1)
	}
	if irq&IRQStat == 0 {
		t.Errorf("STAT interrupt not raised on LY reaching LYC")
	}
	if got := p.Read(types.STAT) & types.Bit2; got == 0 {
		t.Errorf("STAT coincidence bit not set with LY==LYC==1")
	}
}
