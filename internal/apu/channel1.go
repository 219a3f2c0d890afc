package apu

// dutyTable are the 8-step waveform patterns selected by NRx1 bits 6-7,
// shared by channel1 and channel2.
var dutyTable = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1}, // 12.5%
	{1, 0, 0, 0, 0, 0, 0, 1}, // 25%
	{1, 0, 0, 0, 0, 1, 1, 1}, // 50%
	{0, 1, 1, 1, 1, 1, 1, 0}, // 75%
}

// channel1 is the square channel with a frequency sweep unit.
type channel1 struct {
	channel
	envelope volumeEnvelope

	duty     uint8
	dutyStep uint8

	frequency uint16

	sweepPeriod    uint8
	sweepNegate    bool
	sweepShift     uint8
	sweepTimer     uint8
	sweepEnabled   bool
	sweepShadow    uint16
}

func newChannel1() *channel1 { return &channel1{} }

func (c *channel1) save(s interface {
	Write8(uint8)
	Write16(uint16)
	Write32(uint32)
	WriteBool(bool)
}) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write32(uint32(c.lengthCounter))
	s.Write32(uint32(c.frequencyTimer))
	s.WriteBool(c.lengthCounterEnabled)
	s.Write8(c.envelope.startingVolume)
	s.WriteBool(c.envelope.envelopeAdd)
	s.Write8(c.envelope.period)
	s.Write8(c.envelope.timer)
	s.Write8(c.envelope.currentVolume)
	s.Write8(c.duty)
	s.Write8(c.dutyStep)
	s.Write16(c.frequency)
	s.Write8(c.sweepPeriod)
	s.WriteBool(c.sweepNegate)
	s.Write8(c.sweepShift)
	s.Write8(c.sweepTimer)
	s.WriteBool(c.sweepEnabled)
	s.Write16(c.sweepShadow)
}

func (c *channel1) load(s interface {
	Read8() uint8
	Read16() uint16
	Read32() uint32
	ReadBool() bool
}) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.lengthCounter = uint(s.Read32())
	c.frequencyTimer = uint(s.Read32())
	c.lengthCounterEnabled = s.ReadBool()
	c.envelope.startingVolume = s.Read8()
	c.envelope.envelopeAdd = s.ReadBool()
	c.envelope.period = s.Read8()
	c.envelope.timer = s.Read8()
	c.envelope.currentVolume = s.Read8()
	c.duty = s.Read8()
	c.dutyStep = s.Read8()
	c.frequency = s.Read16()
	c.sweepPeriod = s.Read8()
	c.sweepNegate = s.ReadBool()
	c.sweepShift = s.Read8()
	c.sweepTimer = s.Read8()
	c.sweepEnabled = s.ReadBool()
	c.sweepShadow = s.Read16()
}

func (c *channel1) readNR10() uint8 {
	b := c.sweepPeriod<<4 | c.sweepShift
	if c.sweepNegate {
		b |= 0x08
	}
	return b | 0x80
}

func (c *channel1) writeNR10(value uint8) {
	c.sweepPeriod = (value >> 4) & 0x07
	c.sweepNegate = value&0x08 != 0
	c.sweepShift = value & 0x07
}

func (c *channel1) writeNR11(value uint8) {
	c.duty = value >> 6
	c.lengthCounter = uint(0x40 - value&0x3F)
}

func (c *channel1) readNR11() uint8 { return c.duty<<6 | 0x3F }

func (c *channel1) writeNR13(value uint8) {
	c.frequency = c.frequency&0x0700 | uint16(value)
}

func (c *channel1) writeNR14(value uint8) {
	c.frequency = c.frequency&0x00FF | uint16(value&0x07)<<8
	c.lengthCounterEnabled = value&0x40 != 0
	if value&0x80 != 0 {
		c.trigger()
	}
}

func (c *channel1) readNR14() uint8 {
	b := uint8(0)
	if c.lengthCounterEnabled {
		b |= 0x40
	}
	return b | 0xBF
}

func (c *channel1) trigger() {
	c.enabled = true
	if c.lengthCounter == 0 {
		c.lengthCounter = 64
	}
	c.frequencyTimer = (2048 - uint(c.frequency)) * 4
	c.envelope.trigger()

	c.sweepShadow = c.frequency
	c.sweepTimer = c.sweepPeriod
	if c.sweepTimer == 0 {
		c.sweepTimer = 8
	}
	c.sweepEnabled = c.sweepPeriod != 0 || c.sweepShift != 0
	if c.sweepShift != 0 {
		c.sweepCalculate(false)
	}
	if !c.dacEnabled {
		c.enabled = false
	}
}

// sweepCalculate computes the next sweep frequency; when apply is true
// the result is written back and re-checked for overflow, matching the
// two-evaluation quirk real hardware has on trigger.
func (c *channel1) sweepCalculate(apply bool) uint16 {
	delta := c.sweepShadow >> c.sweepShift
	var next uint16
	if c.sweepNegate {
		next = c.sweepShadow - delta
	} else {
		next = c.sweepShadow + delta
	}
	if next > 2047 {
		c.enabled = false
	} else if apply && c.sweepShift != 0 {
		c.sweepShadow = next
		c.frequency = next
	}
	return next
}

// sweepStep runs the sweep unit, called at 128 Hz by the frame
// sequencer.
func (c *channel1) sweepStep() {
	if c.sweepTimer > 0 {
		c.sweepTimer--
	}
	if c.sweepTimer != 0 {
		return
	}
	c.sweepTimer = c.sweepPeriod
	if c.sweepTimer == 0 {
		c.sweepTimer = 8
	}
	if c.sweepEnabled && c.sweepPeriod != 0 {
		c.sweepCalculate(true)
		c.sweepCalculate(false)
	}
}

// step advances the channel's frequency timer by the given number of
// T-cycles, rolling the duty step forward each time it expires.
func (c *channel1) step(tCycles uint) {
	for tCycles > 0 {
		if tCycles >= c.frequencyTimer {
			tCycles -= c.frequencyTimer
			c.frequencyTimer = (2048 - uint(c.frequency)) * 4
			c.dutyStep = (c.dutyStep + 1) % 8
		} else {
			c.frequencyTimer -= tCycles
			tCycles = 0
		}
	}
}

func (c *channel1) sample() uint8 {
	if !c.isEnabled() {
		return 0
	}
	if dutyTable[c.duty][c.dutyStep] == 0 {
		return 0
	}
	return c.envelope.currentVolume
}
