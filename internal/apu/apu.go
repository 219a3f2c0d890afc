package apu

import (
	"fmt"

	"github.com/tidemark/gbcore/internal/types"
)

// bufferFrames is the number of stereo sample pairs the ring buffer
// holds before the Machine drains it via Drain and hands them to the
// AudioSink (spec §2/§6: the core emits raw CPU m-cycle rate samples
// and pushes to the sink only once this buffer fills; any resampling
// to a device rate is the host's job).
const bufferFrames = 8192

// APU is the Game Boy's audio processing unit.
type APU struct {
	model   types.Model
	enabled bool

	ch1 *channel1
	ch2 *channel2
	ch3 *channel3
	ch4 *channel4

	frameSeqCounter uint
	frameSeqStep    uint8

	volumeLeft, volumeRight uint8
	vinLeft, vinRight       bool
	leftEnable, rightEnable [4]bool

	buffer []int16 // interleaved L/R, at the CPU m-cycle rate
}

// New returns a powered-on APU with all channels silent.
func New(model types.Model) *APU {
	a := &APU{
		model:   model,
		enabled: true,
		ch1:     newChannel1(),
		ch2:     newChannel2(),
		ch3:     newChannel3(),
		ch4:     newChannel4(),
		buffer:  make([]int16, 0, bufferFrames*2),
	}
	return a
}

// Cycle advances the APU by the given number of m-cycles, stepping
// every channel's frequency timer, running the frame sequencer at its
// 512 Hz rate, and mixing one stereo sample per m-cycle — the CPU
// m-cycle rate (~1.048 MHz) is the core's sample rate (spec §6); no
// resampling happens here.
func (a *APU) Cycle(mCycles uint8) {
	if !a.enabled {
		return
	}
	for m := uint8(0); m < mCycles; m++ {
		for t := 0; t < 4; t++ {
			a.ch1.step(1)
			a.ch2.step(1)
			a.ch3.step(1)
			a.ch4.step(1)

			a.frameSeqCounter++
			if a.frameSeqCounter >= 8192 { // 4194304 / 512
				a.frameSeqCounter = 0
				a.stepFrameSequencer()
			}
		}
		a.mixSample()
	}
}

// stepFrameSequencer advances the 8-step, 512 Hz sequencer that clocks
// length (256 Hz, even steps), envelope (64 Hz, step 7) and sweep
// (128 Hz, steps 2 and 6) — the standard Game Boy frame sequencer
// table (spec §4.5).
func (a *APU) stepFrameSequencer() {
	switch a.frameSeqStep {
	case 0, 2, 4, 6:
		a.ch1.lengthStep()
		a.ch2.lengthStep()
		a.ch3.lengthStep()
		a.ch4.lengthStep()
	}
	switch a.frameSeqStep {
	case 2, 6:
		a.ch1.sweepStep()
	}
	if a.frameSeqStep == 7 {
		a.ch1.envelope.volumeStep()
		a.ch2.envelope.volumeStep()
		a.ch4.envelope.volumeStep()
	}
	a.frameSeqStep = (a.frameSeqStep + 1) % 8
}

// mixSample combines the four channels' current output into one raw
// stereo sample, applying NR51 panning and NR50 master volume, and
// appends it to the sample buffer. The Machine polls Drain after every
// instruction, so the buffer holds at most one instruction's worth of
// samples beyond bufferFrames before Drain takes a full buffer off it.
func (a *APU) mixSample() {
	s1, s2, s3, s4 := a.ch1.sample(), a.ch2.sample(), a.ch3.sample(), a.ch4.sample()

	var left, right int16
	samples := [4]uint8{s1, s2, s3, s4}
	for i, s := range samples {
		v := int16(s) - 8 // center a 4-bit DAC sample around 0
		if a.leftEnable[i] {
			left += v
		}
		if a.rightEnable[i] {
			right += v
		}
	}
	left = left * int16(a.volumeLeft+1)
	right = right * int16(a.volumeRight+1)

	a.buffer = append(a.buffer, left, right)
}

// Drain returns exactly bufferFrames buffered stereo pairs once that
// many have accumulated, keeping any later samples for the next buffer,
// handing the core's raw CPU-m-cycle-rate output to the AudioSink
// (spec §2: "APU → audio sink when its sample buffer fills"). It returns
// nil while the buffer is still filling, so a caller polling every
// instruction or every frame only ever receives whole, full buffers.
func (a *APU) Drain() []int16 {
	const full = bufferFrames * 2
	if len(a.buffer) < full {
		return nil
	}
	out := a.buffer[:full:full]
	a.buffer = append(make([]int16, 0, full), a.buffer[full:]...)
	return out
}

// Read services a CPU read of an APU register (NR10-NR52, wave RAM).
func (a *APU) Read(address uint16) uint8 {
	switch address {
	case types.NR10:
		return a.ch1.readNR10()
	case types.NR11:
		return a.ch1.readNR11()
	case types.NR12:
		return a.ch1.envelope.nrx2()
	case types.NR13:
		return 0xFF
	case types.NR14:
		return a.ch1.readNR14()
	case types.NR21:
		return a.ch2.readNR21()
	case types.NR22:
		return a.ch2.envelope.nrx2()
	case types.NR23:
		return 0xFF
	case types.NR24:
		return a.ch2.readNR24()
	case types.NR30:
		return a.ch3.readNR30()
	case types.NR31:
		return 0xFF
	case types.NR32:
		return a.ch3.readNR32()
	case types.NR33:
		return 0xFF
	case types.NR34:
		return a.ch3.readNR34()
	case types.NR41:
		return 0xFF
	case types.NR42:
		return a.ch4.envelope.nrx2()
	case types.NR43:
		return a.ch4.readNR43()
	case types.NR44:
		return a.ch4.readNR44()
	case types.NR50:
		return a.readNR50()
	case types.NR51:
		return a.readNR51()
	case types.NR52:
		return a.readNR52()
	}
	if address >= types.WaveRAMStart && address <= types.WaveRAMEnd {
		return a.ch3.waveRAM[address-types.WaveRAMStart]
	}
	panic(fmt.Sprintf("apu: illegal read from address %04X", address))
}

// Write services a CPU write of an APU register. Per spec §4.5, all
// writes except NR52 itself (and wave RAM) are ignored while
// the APU is powered off.
func (a *APU) Write(address uint16, value uint8) {
	if address >= types.WaveRAMStart && address <= types.WaveRAMEnd {
		a.ch3.waveRAM[address-types.WaveRAMStart] = value
		return
	}
	if !a.enabled && address != types.NR52 {
		return
	}
	switch address {
	case types.NR10:
		a.ch1.writeNR10(value)
	case types.NR11:
		a.ch1.writeNR11(value)
	case types.NR12:
		a.ch1.envelope.setNRx2(value, &a.ch1.channel)
	case types.NR13:
		a.ch1.writeNR13(value)
	case types.NR14:
		a.ch1.writeNR14(value)
	case types.NR21:
		a.ch2.writeNR21(value)
	case types.NR22:
		a.ch2.envelope.setNRx2(value, &a.ch2.channel)
	case types.NR23:
		a.ch2.writeNR23(value)
	case types.NR24:
		a.ch2.writeNR24(value)
	case types.NR30:
		a.ch3.writeNR30(value)
	case types.NR31:
		a.ch3.writeNR31(value)
	case types.NR32:
		a.ch3.writeNR32(value)
	case types.NR33:
		a.ch3.writeNR33(value)
	case types.NR34:
		a.ch3.writeNR34(value)
	case types.NR41:
		a.ch4.writeNR41(value)
	case types.NR42:
		a.ch4.envelope.setNRx2(value, &a.ch4.channel)
	case types.NR43:
		a.ch4.writeNR43(value)
	case types.NR44:
		a.ch4.writeNR44(value)
	case types.NR50:
		a.writeNR50(value)
	case types.NR51:
		a.writeNR51(value)
	case types.NR52:
		a.writeNR52(value)
	}
}

func (a *APU) readNR50() uint8 {
	b := a.volumeRight | a.volumeLeft<<4
	if a.vinRight {
		b |= 0x08
	}
	if a.vinLeft {
		b |= 0x80
	}
	return b
}

func (a *APU) writeNR50(value uint8) {
	a.volumeRight = value & 0x07
	a.volumeLeft = (value >> 4) & 0x07
	a.vinRight = value&0x08 != 0
	a.vinLeft = value&0x80 != 0
}

func (a *APU) readNR51() uint8 {
	b := uint8(0)
	for i := 0; i < 4; i++ {
		if a.rightEnable[i] {
			b |= 1 << i
		}
		if a.leftEnable[i] {
			b |= 1 << (i + 4)
		}
	}
	return b
}

func (a *APU) writeNR51(value uint8) {
	for i := 0; i < 4; i++ {
		a.rightEnable[i] = value&(1<<i) != 0
		a.leftEnable[i] = value&(1<<(i+4)) != 0
	}
}

func (a *APU) readNR52() uint8 {
	b := uint8(0)
	if a.ch1.isEnabled() {
		b |= 0x01
	}
	if a.ch2.isEnabled() {
		b |= 0x02
	}
	if a.ch3.isEnabled() {
		b |= 0x04
	}
	if a.ch4.isEnabled() {
		b |= 0x08
	}
	if a.enabled {
		b |= 0x80
	}
	return b | 0x70
}

// writeNR52 powers the APU on or off. Powering off clears every
// register (spec §4.5); powering on leaves them zeroed until the next
// trigger.
func (a *APU) writeNR52(value uint8) {
	wasEnabled := a.enabled
	a.enabled = value&0x80 != 0
	if wasEnabled && !a.enabled {
		*a.ch1 = channel1{}
		*a.ch2 = channel2{}
		waveRAM := a.ch3.waveRAM
		*a.ch3 = channel3{waveRAM: waveRAM}
		*a.ch4 = channel4{}
		a.volumeLeft, a.volumeRight = 0, 0
		a.vinLeft, a.vinRight = false, false
		a.leftEnable = [4]bool{}
		a.rightEnable = [4]bool{}
	}
}

func (a *APU) Save(s interface {
	Write8(uint8)
	Write16(uint16)
	Write32(uint32)
	WriteBool(bool)
	WriteData([]byte)
}) {
	s.WriteBool(a.enabled)
	s.Write32(uint32(a.frameSeqCounter))
	s.Write8(a.frameSeqStep)
	s.Write8(a.volumeLeft)
	s.Write8(a.volumeRight)
	s.WriteBool(a.vinLeft)
	s.WriteBool(a.vinRight)
	for i := 0; i < 4; i++ {
		s.WriteBool(a.leftEnable[i])
		s.WriteBool(a.rightEnable[i])
	}
	a.ch1.save(s)
	a.ch2.save(s)
	a.ch3.save(s)
	a.ch4.save(s)
}

func (a *APU) Load(s interface {
	Read8() uint8
	Read16() uint16
	Read32() uint32
	ReadBool() bool
	ReadData([]byte)
}) {
	a.enabled = s.ReadBool()
	a.frameSeqCounter = uint(s.Read32())
	a.frameSeqStep = s.Read8()
	a.volumeLeft = s.Read8()
	a.volumeRight = s.Read8()
	a.vinLeft = s.ReadBool()
	a.vinRight = s.ReadBool()
	for i := 0; i < 4; i++ {
		a.leftEnable[i] = s.ReadBool()
		a.rightEnable[i] = s.ReadBool()
	}
	a.ch1.load(s)
	a.ch2.load(s)
	a.ch3.load(s)
	a.ch4.load(s)
}
