package ppu

import "github.com/tidemark/gbcore/internal/types"

// spriteHeight returns 8 or 16 depending on LCDC bit 2.
func (p *PPU) spriteHeight() int {
	if p.tallSprites() {
		return 16
	}
	return 8
}

// selectSprites walks the 40 OAM entries and keeps up to 10 whose Y
// range covers the current scanline, preserving OAM order (spec §4.4
// "OAM search").
func (p *PPU) selectSprites() {
	p.scanlineSprites = p.scanlineSprites[:0]
	height := p.spriteHeight()
	screenY := int(p.ly) + 16

	for i := 0; i < 40 && len(p.scanlineSprites) < 10; i++ {
		off := i * 4
		y := int(p.oam[off])
		if screenY < y || screenY >= y+height {
			continue
		}
		p.scanlineSprites = append(p.scanlineSprites, spriteAttr{
			y:        uint8(y),
			x:        p.oam[off+1],
			tile:     p.oam[off+2],
			flags:    p.oam[off+3],
			oamIndex: uint8(i),
		})
	}
}

const (
	sprFlagPriority  = types.Bit7 // 1 = BG/window colors 1-3 drawn over sprite
	sprFlagYFlip     = types.Bit6
	sprFlagXFlip     = types.Bit5
	sprFlagDMGPal    = types.Bit4
	sprFlagVRAMBank  = types.Bit3 // CGB only
	sprFlagCGBPal    = 0x07       // CGB only, bits 0-2
)
