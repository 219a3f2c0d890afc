package mmu

import (
	"testing"

	"github.com/tidemark/gbcore/internal/boot"
	"github.com/tidemark/gbcore/internal/cartridge"
	"github.com/tidemark/gbcore/internal/types"
)

func minimalCart(t *testing.T) *cartridge.Cartridge {
	t.Helper()
	const bankSize = 0x4000
	rom := make([]byte, bankSize*2)
	rom[0x147] = byte(cartridge.ROM)
	cart, err := cartridge.New(rom)
	if err != nil {
		t.Fatalf("cartridge.New: %v", err)
	}
	return cart
}

func TestWRAMEchoMirrorsBank0(t *testing.T) {
	m := New(types.DMG, minimalCart(t), nil)
	m.Write(0xC010, 0x99)
	if got := m.Read(0xE010); got != 0x99 {
		t.Errorf("echo read = %#02x, want 0x99 mirrored from 0xC010", got)
	}
}

func TestHRAMReadWrite(t *testing.T) {
	m := New(types.DMG, minimalCart(t), nil)
	m.Write(0xFF80, 0x55)
	if got := m.Read(0xFF80); got != 0x55 {
		t.Errorf("HRAM read = %#02x, want 0x55", got)
	}
}

func TestSVBKSelectsWRAMBankOnCGBOnly(t *testing.T) {
	cgb := New(types.CGB, minimalCart(t), nil)
	cgb.Write(0xC010, 0xAA) // bank 0, always fixed
	cgb.Write(0xFF70, 3)    // SVBK: select WRAM bank 3
	cgb.Write(0xD010, 0x11)
	cgb.Write(0xFF70, 4)
	cgb.Write(0xD010, 0x22)
	cgb.Write(0xFF70, 3)
	if got := cgb.Read(0xD010); got != 0x11 {
		t.Errorf("WRAM bank 3 byte = %#02x, want 0x11 (bank switch should not bleed across banks)", got)
	}

	dmg := New(types.DMG, minimalCart(t), nil)
	dmg.Write(0xFF70, 3) // SVBK writes are absorbed on DMG
	dmg.Write(0xD010, 0x42)
	dmg.Write(0xFF70, 4)
	if got := dmg.Read(0xD010); got != 0x42 {
		t.Errorf("DMG WRAM bank N always reads/writes bank 1 regardless of SVBK: got %#02x, want 0x42", got)
	}
}

func TestBootROMOverlayUnmapsOnBDISWrite(t *testing.T) {
	bootImage := make([]byte, 256)
	bootImage[0x00] = 0xAB
	bootROM, err := boot.Load(bootImage)
	if err != nil {
		t.Fatalf("boot.Load: %v", err)
	}

	cart := minimalCart(t)
	cart.WriteControl(0, 0) // no-op, just to document the cart is unused for 0x0000 while boot is mapped

	m := New(types.DMG, cart, bootROM)
	if got := m.Read(0x0000); got != 0xAB {
		t.Fatalf("read at 0x0000 with boot ROM mapped = %#02x, want the boot ROM's byte 0xAB", got)
	}

	m.Write(types.BDIS, 1)
	if got := m.Read(0x0000); got == 0xAB {
		t.Errorf("boot ROM still mapped after a BDIS write unmapped it")
	}
}

func TestOAMDMABlocksCPUReadsDuringTransfer(t *testing.T) {
	m := New(types.DMG, minimalCart(t), nil)
	m.Write(0xFF46, 0xC0) // trigger OAM DMA from 0xC000
	if got := m.Read(0xFE00); got != 0xFF {
		t.Errorf("OAM read immediately after DMA trigger = %#02x, want 0xFF (blocked)", got)
	}
	for i := 0; i < 200; i++ {
		m.Cycle(1)
	}
	m.Write(0xFE00, 0x10) // DMA done, and 200 m-cycles in the PPU is in HBlank, past the LCD-mode OAM blocking window
	if got := m.Read(0xFE00); got != 0x10 {
		t.Errorf("OAM read after DMA completed = %#02x, want 0x10", got)
	}
}

func TestKEY1DoubleSpeedToggleOnlyAffectsCGB(t *testing.T) {
	m := New(types.CGB, minimalCart(t), nil)
	m.Write(types.KEY1, 0x01) // arm the speed switch
	if !m.SpeedSwitchArmed() {
		t.Fatalf("SpeedSwitchArmed false after writing KEY1 bit0")
	}
	m.PerformSpeedSwitch()
	if !m.DoubleSpeed() {
		t.Errorf("DoubleSpeed false after PerformSpeedSwitch")
	}
	if m.SpeedSwitchArmed() {
		t.Errorf("SpeedSwitchArmed still true after PerformSpeedSwitch")
	}
}
