// Package cpu implements the Sharp SM83 CPU core: its registers, full
// opcode and CB-prefixed opcode dispatch, interrupt servicing, and the
// HALT/STOP/CGB-speed-switch control states.
//
// Grounded on _examples/thelolagemann-gomeboy/internal/cpu for the
// register layout and flag semantics, and on
// _examples/other_examples/08f05c25_infiniteCrank-gameboy-emulator for
// the single-switch opcode dispatch shape (the teacher's own decode.go
// spreads the same dispatch across a scheduler-ticked per-case style
// this package keeps, minus the scheduler).
package cpu

import (
	"fmt"

	"github.com/tidemark/gbcore/internal/interrupts"
	"github.com/tidemark/gbcore/internal/mmu"
)

// haltMode distinguishes the CPU's halted/stopped states from normal
// execution.
type haltMode uint8

const (
	running haltMode = iota
	halted
	haltBug // IME clear with a pending interrupt: HALT doesn't actually halt, next fetch doesn't advance PC
	stopped
)

// CPU is the SM83 core. It owns no peripherals directly; every memory
// access and interrupt check goes through the MMU (spec §9's one-way
// data flow: the CPU is the only component that reaches into another
// component's public surface, and only the MMU/Interrupts it was
// constructed with).
type CPU struct {
	Registers
	PC, SP uint16

	bus *mmu.MMU
	irq *interrupts.Service

	mode haltMode

	// eiDelay is set by EI; the next AfterInstruction call hands it to
	// the interrupt service's one-instruction enable delay.
	eiDelay bool

	// Debug and DebugBreakpoint are host-owned flags; nothing in the core
	// reads or sets them (breaks are requested through gameboy.DebugHook).
	Debug           bool
	DebugBreakpoint bool
}

// New returns a CPU wired to bus, reset to the given PC (0x0100 when no
// boot ROM is mapped, 0x0000 when one is).
func New(bus *mmu.MMU, irq *interrupts.Service, pc uint16) *CPU {
	return &CPU{bus: bus, irq: irq, PC: pc, SP: 0xFFFE}
}

// tick advances every other bus-owned peripheral by mCycles m-cycles;
// every memory access and every internal-only delay the CPU takes goes
// through this so peripheral timing stays in lockstep with instruction
// execution (spec §9).
func (c *CPU) tick(mCycles uint8) {
	c.bus.Cycle(mCycles)
}

func (c *CPU) readByte(address uint16) uint8 {
	v := c.bus.Read(address)
	c.tick(1)
	return v
}

func (c *CPU) writeByte(address uint16, value uint8) {
	c.bus.Write(address, value)
	c.tick(1)
}

func (c *CPU) fetch() uint8 {
	v := c.readByte(c.PC)
	if c.mode != haltBug {
		c.PC++
	} else {
		c.mode = running
	}
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch()
	hi := c.fetch()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push(v uint16) {
	c.SP--
	c.writeByte(c.SP, uint8(v>>8))
	c.SP--
	c.writeByte(c.SP, uint8(v))
}

func (c *CPU) pop() uint16 {
	lo := c.readByte(c.SP)
	c.SP++
	hi := c.readByte(c.SP)
	c.SP++
	return uint16(hi)<<8 | uint16(lo)
}

// Step executes exactly one instruction, servicing a pending interrupt
// first if one is due. Every memory access and internal wait state
// along the way calls tick, which advances the rest of the machine, so
// by the time Step returns the whole system is in lockstep.
func (c *CPU) Step() {
	if c.mode == stopped {
		if !c.irq.Pending() {
			c.tick(1)
			return
		}
		c.mode = running
	}

	if c.serviceInterrupt() {
		return
	}

	if c.mode == halted {
		if c.irq.Pending() {
			c.mode = running
		} else {
			c.tick(1)
			return
		}
	}

	opcode := c.fetch()
	c.execute(opcode)
}

// serviceInterrupt dispatches the highest-priority pending interrupt if
// IME is set, billing the fixed 5 m-cycle cost (2 internal wait states,
// 2 for the PC push, 1 for the jump) per spec §4.1.
func (c *CPU) serviceInterrupt() bool {
	vector, ok := c.irq.Dispatch()
	if !ok {
		if c.mode == halted && c.irq.Pending() {
			c.mode = running
		}
		return false
	}
	c.mode = running
	c.tick(2)
	c.push(c.PC)
	c.PC = vector
	c.tick(1)
	return true
}

// halt enters HALT, or triggers the HALT bug when IME is clear but an
// interrupt is already pending (spec §8: "HALT with IME=0 and a pending
// interrupt causes the next byte to be read twice").
func (c *CPU) halt() {
	if c.irq.IME {
		c.mode = halted
		return
	}
	if c.irq.Pending() {
		c.mode = haltBug
		return
	}
	c.mode = halted
}

// stop enters STOP. On CGB with the KEY1 speed-switch bit armed this
// instead performs the double-speed toggle (spec §4.7); otherwise it
// halts until a button press, approximated here as halting until any
// pending interrupt, since headless hosts rarely drive STOP for its
// low-power behavior rather than a speed switch.
func (c *CPU) stop() {
	c.fetch() // STOP's second byte (always 0x00), per hardware
	if c.bus.SpeedSwitchArmed() {
		c.bus.PerformSpeedSwitch()
		return
	}
	c.mode = stopped
}

func (c *CPU) ei() { c.eiDelay = true }
func (c *CPU) di() { c.irq.Disable() }

// AfterInstruction lets the Machine advance the EI delay once this
// instruction (and its interrupt-servicing check) has fully completed,
// matching interrupts.Service.Step's documented call site. An EI
// executed by this instruction is scheduled only after the Step, so IME
// becomes true once the instruction following EI has completed.
func (c *CPU) AfterInstruction() {
	c.irq.Step()
	if c.eiDelay {
		c.eiDelay = false
		c.irq.ScheduleEnable()
	}
}

func (c *CPU) illegalOpcode(op uint8) {
	panic(fmt.Sprintf("cpu: illegal opcode %#02x at PC %#04x", op, c.PC-1))
}

func (c *CPU) Save(s interface {
	Write8(uint8)
	Write16(uint16)
}) {
	s.Write16(c.PC)
	s.Write16(c.SP)
	s.Write16(c.AF())
	s.Write16(c.BC())
	s.Write16(c.DE())
	s.Write16(c.HL())
	s.Write8(uint8(c.mode))
}

func (c *CPU) Load(s interface {
	Read8() uint8
	Read16() uint16
}) {
	c.PC = s.Read16()
	c.SP = s.Read16()
	c.SetAF(s.Read16())
	c.SetBC(s.Read16())
	c.SetDE(s.Read16())
	c.SetHL(s.Read16())
	c.mode = haltMode(s.Read8())
}
