// Package timer implements the Game Boy's timer: a free-running 16-bit
// system counter (the upper byte of which is DIV), TIMA/TMA/TAC, and the
// falling-edge detection that drives TIMA increments and its delayed
// overflow reload.
//
// Grounded on _examples/thelolagemann-gomeboy/internal/timer, whose
// field layout (separate tima/tma/tac, a reload-pending flag for the
// overflow delay) this keeps. The stepping model is reimplemented as
// direct per-dot ticking instead of the teacher's scheduler-event
// registration, per the cyclic-reference redesign note in spec.md §9:
// Controller.Cycle returns whether a timer interrupt fired instead of
// reaching into a shared *interrupts.Service.
package timer

import "fmt"

// selectedBit maps TAC's 2-bit clock select to the system-counter bit
// whose falling edge clocks TIMA (spec §4.6).
var selectedBit = [4]uint8{9, 3, 5, 7}

// Controller is the timer/divider peripheral.
type Controller struct {
	counter uint16 // 16-bit free-running system counter; DIV is its high byte
	tima    uint8
	tma     uint8
	tac     uint8

	doubleSpeed bool

	// Overflow reload delay (spec §4.6: "TIMA overflow ... is delayed by
	// four cycles: during that window TIMA reads as 0 ... then TIMA is
	// loaded from TMA"). reloadTicks counts down the dots remaining in
	// that window; reloadArmed is true while the window is open.
	reloadArmed bool
	reloadTicks uint8
}

// New returns a timer controller with its post-bootrom DIV value.
func New() *Controller {
	return &Controller{counter: 0xABCC}
}

func (c *Controller) tacEnabled() bool { return c.tac&0x04 != 0 }

func (c *Controller) edgeBit() uint16 {
	return 1 << selectedBit[c.tac&0x03]
}

// Cycle advances the timer by mCycles m-cycles (4 dots each) and returns true
// exactly when TIMA has just completed its delayed overflow reload,
// i.e. when the caller should request the Timer IF bit.
func (c *Controller) Cycle(mCycles uint8) bool {
	fired := false
	for i := uint8(0); i < mCycles; i++ {
		for dot := 0; dot < 4; dot++ {
			if c.reloadArmed {
				c.reloadTicks--
				if c.reloadTicks == 0 {
					c.reloadArmed = false
					c.tima = c.tma
					fired = true
				}
			}

			before := c.counter & c.edgeBit()
			c.counter++
			after := c.counter & c.edgeBit()

			if before != 0 && after == 0 && c.tacEnabled() {
				c.tick()
			}
		}
	}
	return fired
}

// tick increments TIMA on a selected-bit falling edge and arms the
// delayed overflow reload if it wraps.
func (c *Controller) tick() {
	c.tima++
	if c.tima == 0 {
		c.reloadArmed = true
		c.reloadTicks = 4
	}
}

// SetDoubleSpeed records whether the CPU is running at double speed.
// Cycle does not consult it: the counter advances 4 steps per m-cycle
// at either speed, and no caller changes how many m-cycles an
// instruction bills.
func (c *Controller) SetDoubleSpeed(on bool) { c.doubleSpeed = on }

// Read returns the value of the given timer register.
func (c *Controller) Read(address uint16) uint8 {
	switch address & 0xFF {
	case 0x04:
		return uint8(c.counter >> 8)
	case 0x05:
		if c.reloadArmed {
			return 0 // reads as 0 during the overflow window (spec §4.6)
		}
		return c.tima
	case 0x06:
		return c.tma
	case 0x07:
		return c.tac | 0xF8
	}
	panic(fmt.Sprintf("timer: illegal read from address %04X", address))
}

// Write writes the given value to a timer register.
func (c *Controller) Write(address uint16, value uint8) {
	switch address & 0xFF {
	case 0x04:
		// any write resets the whole counter; if the previously-selected
		// bit was high, its falling edge fires immediately (spec §4.6).
		before := c.counter & c.edgeBit()
		c.counter = 0
		if before != 0 && c.tacEnabled() {
			c.tick()
		}
	case 0x05:
		if c.reloadArmed {
			// a write during the overflow window cancels the pending reload
			c.reloadArmed = false
		}
		c.tima = value
	case 0x06:
		c.tma = value
		if c.reloadArmed && c.reloadTicks == 1 {
			// TMA changed the tick before reload lands: affects the reload.
			c.tima = value
		}
	case 0x07:
		c.tac = value & 0x07
	default:
		panic(fmt.Sprintf("timer: illegal write to address %04X", address))
	}
}

// Save serializes the timer's state.
func (c *Controller) Save(s stateWriter) {
	s.Write16(c.counter)
	s.Write8(c.tima)
	s.Write8(c.tma)
	s.Write8(c.tac)
	s.WriteBool(c.doubleSpeed)
	s.WriteBool(c.reloadArmed)
	s.Write8(c.reloadTicks)
}

// Load restores the timer's state.
func (c *Controller) Load(s stateReader) {
	c.counter = s.Read16()
	c.tima = s.Read8()
	c.tma = s.Read8()
	c.tac = s.Read8()
	c.doubleSpeed = s.ReadBool()
	c.reloadArmed = s.ReadBool()
	c.reloadTicks = s.Read8()
}

// stateWriter/stateReader are the minimal subsets of *state.State this
// package needs, declared locally so timer has no import-time
// dependency on the state package's encoding choices.
type stateWriter interface {
	Write8(uint8)
	Write16(uint16)
	WriteBool(bool)
}

type stateReader interface {
	Read8() uint8
	Read16() uint16
	ReadBool() bool
}
