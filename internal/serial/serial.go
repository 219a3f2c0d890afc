// Package serial emulates the Game Boy's link-cable serial port to the
// extent spec.md asks for: the SB/SC register pair and a transfer clock
// that raises the Serial interrupt when a transfer completes. Actual
// link-cable networking between two machines is out of scope (spec §1
// Non-goals); with no device attached a transfer simply shifts in 0xFF
// bits, the observable behavior of an unconnected cable.
//
// Grounded on _examples/thelolagemann-gomeboy/internal/serial.
package serial

import "fmt"

// Controller is the serial transfer peripheral.
type Controller struct {
	data    uint8 // SB
	control uint8 // SC

	transferring bool
	bitsLeft     uint8
	ticksPerBit  uint16
	tickCounter  uint16
}

// New returns a serial controller, idle.
func New() *Controller {
	return &Controller{control: 0x7E}
}

// Read returns the SB or SC register.
func (c *Controller) Read(address uint16) uint8 {
	switch address & 0xFF {
	case 0x01:
		return c.data
	case 0x02:
		return c.control | 0x7E
	}
	panic(fmt.Sprintf("serial: illegal read from address %04X", address))
}

// Write writes the SB or SC register. Writing SC with both the transfer
// start bit (7) and internal-clock bit (0) set begins a transfer.
func (c *Controller) Write(address uint16, value uint8) {
	switch address & 0xFF {
	case 0x01:
		c.data = value
	case 0x02:
		c.control = value | 0x7E
		if value&0x81 == 0x81 {
			c.transferring = true
			c.bitsLeft = 8
			c.ticksPerBit = 512 // internal clock, ~8192 Hz
			c.tickCounter = 0
		}
	default:
		panic(fmt.Sprintf("serial: illegal write to address %04X", address))
	}
}

// Cycle advances the serial transfer clock by the given number of
// m-cycles and returns true once an in-progress transfer completes,
// i.e. when the caller should request the Serial IF bit.
func (c *Controller) Cycle(mCycles uint8) bool {
	if !c.transferring {
		return false
	}
	c.tickCounter += uint16(mCycles) * 4
	for c.tickCounter >= c.ticksPerBit {
		c.tickCounter -= c.ticksPerBit
		c.data = c.data<<1 | 1 // no device attached: shift in 1 bits
		c.bitsLeft--
		if c.bitsLeft == 0 {
			c.transferring = false
			c.control &^= 0x80
			return true
		}
	}
	return false
}

func (c *Controller) Save(w interface {
	Write8(uint8)
	Write16(uint16)
	WriteBool(bool)
}) {
	w.Write8(c.data)
	w.Write8(c.control)
	w.WriteBool(c.transferring)
	w.Write8(c.bitsLeft)
	w.Write16(c.ticksPerBit)
	w.Write16(c.tickCounter)
}

func (c *Controller) Load(r interface {
	Read8() uint8
	Read16() uint16
	ReadBool() bool
}) {
	c.data = r.Read8()
	c.control = r.Read8()
	c.transferring = r.ReadBool()
	c.bitsLeft = r.Read8()
	c.ticksPerBit = r.Read16()
	c.tickCounter = r.Read16()
}
