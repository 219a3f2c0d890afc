package apu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemark/gbcore/internal/types"
)

func TestPoweringOffClearsRegistersAndTriggersRequireDAC(t *testing.T) {
	a := New(types.DMG)
	a.Write(types.NR12, 0xF0) // max volume, DAC enabled
	a.Write(types.NR11, 0x80)
	a.Write(types.NR14, 0x80) // trigger

	require.True(t, a.ch1.isEnabled(), "channel 1 should be enabled after a DAC-enabled trigger")

	a.Write(types.NR52, 0x00) // power off
	assert.False(t, a.ch1.isEnabled(), "channel 1 still enabled after NR52 power-off")
	assert.Equal(t, uint8(0), a.Read(types.NR12), "NR12 after power-off should be cleared")

	a.Write(types.NR14, 0x80) // trigger attempts while powered off are ignored
	assert.False(t, a.ch1.isEnabled(), "trigger write while powered off should be ignored")
}

func TestTriggerWithoutDACLeavesChannelDisabled(t *testing.T) {
	a := New(types.DMG)
	a.Write(types.NR12, 0x00) // volume 0, envelope subtract: DAC disabled
	a.Write(types.NR14, 0x80) // trigger
	assert.False(t, a.ch1.isEnabled(), "channel triggered with DAC disabled should stay disabled")
}

func TestLengthCounterDisablesChannelAtZero(t *testing.T) {
	a := New(types.DMG)
	a.Write(types.NR12, 0xF0)
	a.Write(types.NR11, 0x3F) // length load = 0x40-0x3F = 1
	a.Write(types.NR14, 0xC0) // trigger, length enabled

	require.True(t, a.ch1.isEnabled(), "channel should be enabled right after trigger")

	a.ch1.lengthStep() // length counter 1 -> 0, channel disables
	assert.False(t, a.ch1.isEnabled(), "channel still enabled after its length counter reached zero")
}

func TestLengthCounterDisabledNeverStopsChannel(t *testing.T) {
	a := New(types.DMG)
	a.Write(types.NR12, 0xF0)
	a.Write(types.NR11, 0x3F)
	a.Write(types.NR14, 0x80) // trigger, length NOT enabled (bit 6 clear)

	for i := 0; i < 5; i++ {
		a.ch1.lengthStep()
	}
	assert.True(t, a.ch1.isEnabled(), "channel disabled even though length counting was never enabled")
}

// runCycles advances the APU one m-cycle at a time, since Cycle only
// accepts a uint8 and n commonly exceeds 255.
func runCycles(a *APU, n int) {
	for i := 0; i < n; i++ {
		a.Cycle(1)
	}
}

func TestFrameSequencerClocksLengthAt256Hz(t *testing.T) {
	a := New(types.DMG)
	a.Write(types.NR12, 0xF0)
	a.Write(types.NR11, 0x3F) // length = 1
	a.Write(types.NR14, 0xC0)

	// the frame sequencer ticks every 8192 T-cycles (2048 m-cycles);
	// step 0 clocks length.
	runCycles(a, 2048)
	assert.False(t, a.ch1.isEnabled(), "channel still enabled after the frame sequencer's first length clock")
}

func TestEnvelopeRampsTowardTargetVolume(t *testing.T) {
	a := New(types.DMG)
	a.Write(types.NR12, 0x08|0x01) // volume 0, increasing, period 1
	a.Write(types.NR14, 0x80)      // trigger
	require.Equal(t, uint8(0), a.ch1.envelope.currentVolume, "starting volume")

	// step 7 of the 8-step sequencer clocks the envelope; step 0 is the
	// first sequencer tick, so step 7 is the eighth, at 8192*8 T-cycles in.
	runCycles(a, 2048*8)
	assert.NotZero(t, a.ch1.envelope.currentVolume, "envelope never advanced past 0 after reaching step 7")
}

func TestDrainWithholdsUntilBufferFills(t *testing.T) {
	a := New(types.DMG)
	a.Write(types.NR12, 0xF0)
	a.Write(types.NR11, 0x00)
	a.Write(types.NR14, 0x80)
	a.Write(types.NR51, 0xFF) // pan channel 1 to both left and right
	a.Write(types.NR50, 0x77)

	runCycles(a, bufferFrames-1)
	require.Empty(t, a.Drain(), "Drain returned samples before the buffer filled")

	a.Cycle(1) // one more m-cycle's sample fills the buffer exactly
	first := a.Drain()
	require.Len(t, first, bufferFrames*2, "Drain once full")
	assert.Empty(t, a.Drain(), "Drain after a previous Drain should be empty")
}

func TestWaveRAMAccessibleEvenWhilePoweredOff(t *testing.T) {
	a := New(types.DMG)
	a.Write(types.NR52, 0x00) // power off
	a.Write(types.WaveRAMStart, 0xAB)
	assert.Equal(t, uint8(0xAB), a.Read(types.WaveRAMStart), "wave RAM should still be writable while powered off")
}
