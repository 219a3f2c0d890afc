package dma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	mem [0x10000]byte
}

func (b *fakeBus) DMARead(address uint16) uint8 { return b.mem[address] }

type fakeOAM struct {
	oam [0xA0]byte
}

func (o *fakeOAM) DMAWriteOAM(offset uint8, value uint8) { o.oam[offset] = value }

type fakeVRAM struct {
	vram [0x2000]byte
}

func (v *fakeVRAM) DMAWriteVRAM(offset uint16, value uint8) { v.vram[offset] = value }

func TestOAMDMACopiesAllBytesOver160Cycles(t *testing.T) {
	bus := &fakeBus{}
	for i := 0; i < 0xA0; i++ {
		bus.mem[0x8000+i] = byte(i + 1)
	}
	oamDst := &fakeOAM{}

	d := New()
	d.Trigger(0x80) // source page 0x8000

	require.True(t, d.Active(), "Active() false immediately after Trigger")

	cycles := 0
	for d.Active() && cycles < 200 {
		d.Cycle(bus, oamDst)
		cycles++
	}

	require.False(t, d.Active(), "DMA still active after %d cycles", cycles)
	assert.Equal(t, 0xA0, cycles, "DMA cycle count")
	for i := 0; i < 0xA0; i++ {
		require.Equal(t, byte(i+1), oamDst.oam[i], "oam[%d]", i)
	}
}

func TestOAMDMARetriggerRestarts(t *testing.T) {
	d := New()
	d.Trigger(0x80)
	d.Cycle(&fakeBus{}, &fakeOAM{}) // copy byte 0, offset -> 1
	d.Cycle(&fakeBus{}, &fakeOAM{}) // copy byte 1, offset -> 2

	d.Trigger(0x90)
	assert.Equal(t, uint8(0x90), d.Source(), "Source() after retrigger")
	assert.True(t, d.Active(), "Active() false right after retrigger")
}

func TestHDMAGeneralPurposeCopiesOneBlockPerStepUntilDone(t *testing.T) {
	bus := &fakeBus{}
	for i := 0; i < 0x20; i++ {
		bus.mem[0x4000+i] = byte(i + 1)
	}
	vram := &fakeVRAM{}

	h := NewHDMA()
	h.WriteReg(0xFF51, 0x40) // src hi
	h.WriteReg(0xFF52, 0x00) // src lo
	h.WriteReg(0xFF53, 0x00) // dst hi (within 0x8000-0x9FFF)
	h.WriteReg(0xFF54, 0x00) // dst lo
	h.WriteReg(0xFF55, 0x01) // bit7=0 (general purpose), length = 2 blocks (0x01+1)

	require.False(t, h.IsHBlankMode(), "IsHBlankMode true for a general-purpose trigger")

	done := h.StepGeneralPurposeBlock(bus, vram)
	assert.False(t, done, "StepGeneralPurposeBlock reported done after only the first of two blocks")
	assert.True(t, h.Active(), "Active() false after the first of two blocks")

	done = h.StepGeneralPurposeBlock(bus, vram)
	assert.True(t, done, "StepGeneralPurposeBlock did not report done after the last block")
	assert.False(t, h.Active(), "Active() true after the transfer completed")

	for i := 0; i < 0x20; i++ {
		require.Equal(t, byte(i+1), vram.vram[i], "vram[%d]", i)
	}
}

func TestHDMAHBlankModeCopiesOneBlockPerCall(t *testing.T) {
	bus := &fakeBus{}
	for i := range bus.mem {
		bus.mem[i] = 0xAA
	}
	vram := &fakeVRAM{}

	h := NewHDMA()
	h.WriteReg(0xFF51, 0x40)
	h.WriteReg(0xFF52, 0x00)
	h.WriteReg(0xFF53, 0x00)
	h.WriteReg(0xFF54, 0x00)
	h.WriteReg(0xFF55, 0x81) // bit7=1 (HBlank mode), length = 2 blocks (0x01+1)

	require.True(t, h.IsHBlankMode(), "IsHBlankMode false for an HBlank-gated trigger")

	h.RunHBlankBlock(bus, vram)
	assert.True(t, h.Active(), "Active() false after the first of two blocks")
	h.RunHBlankBlock(bus, vram)
	assert.False(t, h.Active(), "Active() true after the last block completed")
}

func TestHDMAWritingZeroBit7CancelsHBlankTransfer(t *testing.T) {
	h := NewHDMA()
	h.WriteReg(0xFF51, 0x40)
	h.WriteReg(0xFF52, 0x00)
	h.WriteReg(0xFF53, 0x00)
	h.WriteReg(0xFF54, 0x00)
	h.WriteReg(0xFF55, 0x80) // HBlank mode, 1 block

	h.WriteReg(0xFF55, 0x00) // cancel mid-transfer
	assert.False(t, h.Active(), "Active() true after a bit7=0 write cancels an HBlank transfer")
}
