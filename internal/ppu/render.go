package ppu

import (
	"github.com/tidemark/gbcore/internal/ppu/palette"
	"github.com/tidemark/gbcore/internal/types"
)

// bgAttr mirrors a CGB background-map attribute byte read from VRAM
// bank 1 at the same tile-map offset as the tile index in bank 0.
type bgAttr struct {
	palette  uint8
	bank     uint8
	xFlip    bool
	yFlip    bool
	priority bool
}

func (p *PPU) readBGAttr(offset uint16) bgAttr {
	if p.model != types.CGB {
		return bgAttr{}
	}
	b := p.vram[1][offset-0x8000]
	return bgAttr{
		palette:  b & 0x07,
		bank:     (b >> 3) & 0x01,
		xFlip:    b&0x20 != 0,
		yFlip:    b&0x40 != 0,
		priority: b&0x80 != 0,
	}
}

// tileRow returns the two bitplane bytes for row `line` (0-7) of the
// tile at `index`, honoring LCDC's addressing mode selection.
func (p *PPU) tileRow(bank uint8, index uint8, line uint8, signedAddressing bool) (uint8, uint8) {
	var base int
	if signedAddressing {
		base = 0x1000 + int(int8(index))*16
	} else {
		base = 0x0000 + int(index)*16
	}
	off := base + int(line)*2
	return p.vram[bank][off], p.vram[bank][off+1]
}

// renderScanline composes the current scanline's background, window and
// sprite pixels into the back buffer. Run once at the end of
// PixelTransfer (spec §4.4's FIFO is modeled as a per-scanline
// composition rather than a per-dot one; see the package doc comment).
func (p *PPU) renderScanline() {
	line := int(p.ly)
	bgColorIndex := [ScreenWidth]uint8{}
	bgPriority := [ScreenWidth]bool{}

	signedAddressing := !p.tileDataLo()
	bgMapBase := uint16(0x9800)
	if p.bgTileMapHi() {
		bgMapBase = 0x9C00
	}
	winMapBase := uint16(0x9800)
	if p.winTileMapHi() {
		winMapBase = 0x9C00
	}

	windowActive := p.winEnabled() && p.wy <= p.ly && p.wx <= 166
	usedWindowThisLine := false

	for x := 0; x < ScreenWidth; x++ {
		var mapBase uint16
		var tileX, tileY, pixelX, pixelY int

		if windowActive && x+7 >= int(p.wx) {
			usedWindowThisLine = true
			mapBase = winMapBase
			wxPix := x - (int(p.wx) - 7)
			tileX = wxPix / 8
			pixelX = wxPix % 8
			tileY = int(p.windowLine) / 8
			pixelY = int(p.windowLine) % 8
		} else {
			mapBase = bgMapBase
			scrolledX := (x + int(p.scx)) & 0xFF
			scrolledY := (line + int(p.scy)) & 0xFF
			tileX = scrolledX / 8
			pixelX = scrolledX % 8
			tileY = scrolledY / 8
			pixelY = scrolledY % 8
		}

		mapOffset := mapBase + uint16(tileY*32+tileX)
		tileIndex := p.vram[0][mapOffset-0x8000]
		attr := p.readBGAttr(mapOffset)

		row := pixelY
		if attr.yFlip {
			row = 7 - row
		}
		col := pixelX
		if attr.xFlip {
			col = 7 - col
		}

		lo, hi := p.tileRow(attr.bank, tileIndex, uint8(row), signedAddressing)
		colorIdx := colorIndexAt(lo, hi, col)

		bgColorIndex[x] = colorIdx
		bgPriority[x] = attr.priority

		var rgb palette.RGB
		if p.model == types.CGB {
			rgb = p.bgPalette.Color(attr.palette, colorIdx)
		} else {
			rgb = palette.ApplyDMG(p.bgp, colorIdx)
			if !p.bgEnabled() {
				rgb = palette.RGB{R: 0xFF, G: 0xFF, B: 0xFF}
				bgColorIndex[x] = 0
			}
		}
		p.backBuffer[line*ScreenWidth+x] = toPixel(rgb)
	}

	if usedWindowThisLine {
		p.windowLine++
	}

	if p.spritesEnabled() {
		p.renderSprites(line, bgColorIndex, bgPriority)
	}
}

// colorIndexAt extracts the 2-bit color index for column `col` (0=left)
// from a tile row's two bitplane bytes.
func colorIndexAt(lo, hi uint8, col int) uint8 {
	bit := 7 - col
	l := (lo >> bit) & 1
	h := (hi >> bit) & 1
	return h<<1 | l
}

// renderSprites overlays the scanline's selected sprites onto the
// already-rendered background row, honoring the BG-priority attribute
// bit and sprite transparency (spec §4.4).
func (p *PPU) renderSprites(line int, bgColorIndex [ScreenWidth]uint8, bgPriority [ScreenWidth]bool) {
	height := p.spriteHeight()

	// Lower OAM index wins on overlap (spec §4.4's OAM search note):
	// scanlineSprites is already in ascending OAM-index order, so the
	// first sprite to claim a screen column keeps it.
	covered := [ScreenWidth]bool{}

	for i := 0; i < len(p.scanlineSprites); i++ {
		s := p.scanlineSprites[i]
		row := line - int(s.y) + 16
		if s.flags&sprFlagYFlip != 0 {
			row = height - 1 - row
		}

		tile := s.tile
		if height == 16 {
			tile &^= 0x01
			if row >= 8 {
				tile |= 0x01
				row -= 8
			}
		}

		bank := uint8(0)
		if p.model == types.CGB && s.flags&sprFlagVRAMBank != 0 {
			bank = 1
		}
		lo, hi := p.tileRow(bank, tile, uint8(row), false)

		for col := 0; col < 8; col++ {
			screenX := int(s.x) - 8 + col
			if screenX < 0 || screenX >= ScreenWidth {
				continue
			}
			c := col
			if s.flags&sprFlagXFlip != 0 {
				c = 7 - col
			}
			colorIdx := colorIndexAt(lo, hi, c)
			if colorIdx == 0 {
				continue // transparent
			}
			if s.flags&sprFlagPriority != 0 && bgColorIndex[screenX] != 0 {
				continue // BG colors 1-3 drawn over this sprite
			}
			if bgPriority[screenX] && bgColorIndex[screenX] != 0 && p.model == types.CGB {
				continue // CGB BG-to-OAM priority attribute bit
			}
			if covered[screenX] {
				continue
			}

			var rgb palette.RGB
			if p.model == types.CGB {
				rgb = p.objPalette.Color(s.flags&sprFlagCGBPal, colorIdx)
			} else if s.flags&sprFlagDMGPal != 0 {
				rgb = palette.ApplyDMG(p.obp1, colorIdx)
			} else {
				rgb = palette.ApplyDMG(p.obp0, colorIdx)
			}
			p.backBuffer[line*ScreenWidth+screenX] = toPixel(rgb)
			covered[screenX] = true
		}
	}
}

func toPixel(c palette.RGB) Pixel {
	return 0xFF000000 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
