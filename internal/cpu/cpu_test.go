package cpu

import (
	"testing"

	"github.com/tidemark/gbcore/internal/cartridge"
	"github.com/tidemark/gbcore/internal/mmu"
	"github.com/tidemark/gbcore/internal/types"
)

// minimalROM builds a header-valid, MBC-less ROM so tests can build a
// real *mmu.MMU without a cartridge constructor error.
func minimalROM() []byte {
	const bankSize = 0x4000
	rom := make([]byte, bankSize*2)
	rom[0x147] = byte(cartridge.ROM)
	rom[0x148] = 0 // 2 banks
	rom[0x149] = 0 // no RAM
	return rom
}

func newTestCPU(t *testing.T) *CPU {
	t.Helper()
	cart, err := cartridge.New(minimalROM())
	if err != nil {
		t.Fatalf("cartridge.New: %v", err)
	}
	bus := mmu.New(types.DMG, cart, nil)
	return New(bus, bus.Interrupts, 0x0100)
}

func TestSetAFForcesLowNibbleZero(t *testing.T) {
	var r Registers
	r.SetAF(0x12FF)
	if r.F != 0xF0 {
		t.Errorf("F = %#02x, want %#02x (low nibble forced to zero)", r.F, 0xF0)
	}
	if r.AF() != 0x12F0 {
		t.Errorf("AF() = %#04x, want %#04x", r.AF(), 0x12F0)
	}
}

func TestAddSetsFlags(t *testing.T) {
	c := newTestCPU(t)
	c.A = 0x0F
	c.add(0x01, false)
	if c.A != 0x10 {
		t.Errorf("A = %#02x, want 0x10", c.A)
	}
	if !c.flagSet(flagH) {
		t.Errorf("half-carry flag not set for 0x0F+0x01")
	}
	if c.flagSet(flagC) || c.flagSet(flagZ) || c.flagSet(flagN) {
		t.Errorf("unexpected flags set: F=%#02x", c.F)
	}
}

func TestSubSetsCarryOnBorrow(t *testing.T) {
	c := newTestCPU(t)
	c.A = 0x00
	got := c.sub(0x01, false)
	if got != 0xFF {
		t.Errorf("sub result = %#02x, want 0xFF", got)
	}
	if !c.flagSet(flagC) || !c.flagSet(flagH) || !c.flagSet(flagN) {
		t.Errorf("borrow should set N, H and C: F=%#02x", c.F)
	}
}

func TestCPDoesNotMutateA(t *testing.T) {
	c := newTestCPU(t)
	c.A = 0x10
	c.cp(0x10)
	if c.A != 0x10 {
		t.Errorf("A mutated by cp: got %#02x, want 0x10", c.A)
	}
	if !c.flagSet(flagZ) {
		t.Errorf("Z not set comparing equal values")
	}
}

func TestIncDecHalfCarryEdges(t *testing.T) {
	c := newTestCPU(t)
	if got := c.inc8(0x0F); got != 0x10 {
		t.Errorf("inc8(0x0F) = %#02x, want 0x10", got)
	}
	if !c.flagSet(flagH) {
		t.Errorf("inc8(0x0F) should set half-carry")
	}
	if got := c.dec8(0x10); got != 0x0F {
		t.Errorf("dec8(0x10) = %#02x, want 0x0F", got)
	}
	if !c.flagSet(flagH) {
		t.Errorf("dec8(0x10) should set half-carry")
	}
}

func TestAddHLLeavesZUntouched(t *testing.T) {
	c := newTestCPU(t)
	c.setFlag(flagZ, true)
	c.SetHL(0xFFFF)
	c.addHL(1)
	if c.HL() != 0 {
		t.Errorf("HL = %#04x, want 0", c.HL())
	}
	if !c.flagSet(flagC) {
		t.Errorf("addHL should set carry on overflow")
	}
	if !c.flagSet(flagZ) {
		t.Errorf("addHL must not touch Z")
	}
}

func TestDAAAfterAdditionBCDCorrects(t *testing.T) {
	c := newTestCPU(t)
	c.A = 0x09
	c.add(0x08, false) // A = 0x11, half-carry set (binary result, not BCD)
	c.daa()
	if c.A != 0x17 {
		t.Errorf("DAA(0x09+0x08) = %#02x, want 0x17", c.A)
	}
}

func TestStepExecutesLDrD8(t *testing.T) {
	c := newTestCPU(t)
	c.PC = 0xC000
	c.bus.Write(0xC000, 0x06) // LD B,d8
	c.bus.Write(0xC001, 0x42)
	c.Step()
	if c.B != 0x42 {
		t.Errorf("B = %#02x, want 0x42", c.B)
	}
	if c.PC != 0xC002 {
		t.Errorf("PC = %#04x, want 0xC002", c.PC)
	}
}

func TestStepExecutesIncDec(t *testing.T) {
	c := newTestCPU(t)
	c.PC = 0xC000
	c.bus.Write(0xC000, 0x04) // INC B
	c.B = 0xFF
	c.Step()
	if c.B != 0 {
		t.Errorf("B after INC = %#02x, want 0", c.B)
	}
	if !c.flagSet(flagZ) {
		t.Errorf("Z not set after INC wraps to 0")
	}
}

func TestStepPushPop(t *testing.T) {
	c := newTestCPU(t)
	c.PC = 0xC000
	c.SP = 0xDFFE
	c.SetBC(0x1234)
	c.bus.Write(0xC000, 0xC5) // PUSH BC
	c.Step()
	if c.SP != 0xDFFC {
		t.Errorf("SP after PUSH = %#04x, want 0xDFFC", c.SP)
	}

	c.bus.Write(0xC001, 0xD1) // POP DE
	c.Step()
	if c.DE() != 0x1234 {
		t.Errorf("DE after POP = %#04x, want 0x1234", c.DE())
	}
	if c.SP != 0xDFFE {
		t.Errorf("SP after POP = %#04x, want 0xDFFE", c.SP)
	}
}

func TestStepCallAndRet(t *testing.T) {
	c := newTestCPU(t)
	c.PC = 0xC000
	c.SP = 0xDFFE
	c.bus.Write(0xC000, 0xCD) // CALL a16
	c.bus.Write(0xC001, 0x00)
	c.bus.Write(0xC002, 0xC1) // target 0xC100
	c.Step()
	if c.PC != 0xC100 {
		t.Errorf("PC after CALL = %#04x, want 0xC100", c.PC)
	}
	if c.SP != 0xDFFC {
		t.Errorf("SP after CALL = %#04x, want 0xDFFC", c.SP)
	}

	c.bus.Write(0xC100, 0xC9) // RET
	c.Step()
	if c.PC != 0xC003 {
		t.Errorf("PC after RET = %#04x, want 0xC003", c.PC)
	}
	if c.SP != 0xDFFE {
		t.Errorf("SP after RET = %#04x, want 0xDFFE", c.SP)
	}
}

func TestStepConditionalJRNotTaken(t *testing.T) {
	c := newTestCPU(t)
	c.PC = 0xC000
	c.setFlag(flagZ, false)
	c.bus.Write(0xC000, 0x28) // JR Z,e8
	c.bus.Write(0xC001, 0x10)
	c.Step()
	if c.PC != 0xC002 {
		t.Errorf("PC after untaken JR Z = %#04x, want 0xC002", c.PC)
	}
}

func TestStepConditionalJRTaken(t *testing.T) {
	c := newTestCPU(t)
	c.PC = 0xC000
	c.setFlag(flagZ, true)
	c.bus.Write(0xC000, 0x28) // JR Z,e8
	c.bus.Write(0xC001, 0x10)
	c.Step()
	if c.PC != 0xC012 {
		t.Errorf("PC after taken JR Z = %#04x, want 0xC012", c.PC)
	}
}

func TestHaltEntersHaltedModeWithIME(t *testing.T) {
	c := newTestCPU(t)
	c.irq.IME = true
	c.PC = 0xC000
	c.bus.Write(0xC000, 0x76) // HALT
	c.Step()
	if c.mode != halted {
		t.Errorf("mode = %d, want halted (%d)", c.mode, halted)
	}
}

func TestHaltBugDoesNotAdvancePCOnNextFetch(t *testing.T) {
	c := newTestCPU(t)
	c.irq.IME = false
	c.irq.Write(0xFFFF, 1) // IE: VBlank enabled
	c.irq.Request(0)       // VBlank requested, pending with IME clear
	c.PC = 0xC000
	c.bus.Write(0xC000, 0x76) // HALT -> triggers the HALT bug
	c.bus.Write(0xC001, 0x04) // INC B, read twice by the bug
	c.Step()                  // executes HALT, enters haltBug
	if c.mode != haltBug {
		t.Fatalf("mode = %d, want haltBug (%d)", c.mode, haltBug)
	}
	c.Step() // fetches 0xC001 without advancing PC first time
	if c.PC != 0xC001 {
		t.Errorf("PC after halt-bug fetch = %#04x, want 0xC001 (re-read)", c.PC)
	}
	if c.B != 1 {
		t.Errorf("B = %d, want 1 (INC B executed once so far)", c.B)
	}
}

func TestServiceInterruptJumpsToVectorAndPushesPC(t *testing.T) {
	c := newTestCPU(t)
	c.PC = 0xC050
	c.SP = 0xDFFE
	c.irq.IME = true
	c.irq.Write(0xFFFF, 1) // VBlank enabled
	c.irq.Request(0)       // VBlank

	if !c.serviceInterrupt() {
		t.Fatalf("serviceInterrupt returned false with a pending enabled interrupt")
	}
	if c.PC != 0x0040 {
		t.Errorf("PC = %#04x, want the VBlank vector 0x0040", c.PC)
	}
	if c.SP != 0xDFFC {
		t.Errorf("SP after interrupt dispatch = %#04x, want 0xDFFC", c.SP)
	}
	if c.irq.IME {
		t.Errorf("IME should be cleared by Dispatch")
	}
}

func TestSaveLoadRoundTrips(t *testing.T) {
	c := newTestCPU(t)
	c.PC = 0x1234
	c.SP = 0x5678
	c.SetAF(0xABC0)
	c.SetBC(0x1111)
	c.SetDE(0x2222)
	c.SetHL(0x3333)
	c.mode = halted

	s := &fakeStater{}
	c.Save(s)

	c2 := newTestCPU(t)
	c2.Load(s)

	if c2.PC != c.PC || c2.SP != c.SP || c2.AF() != c.AF() ||
		c2.BC() != c.BC() || c2.DE() != c.DE() || c2.HL() != c.HL() || c2.mode != c.mode {
		t.Errorf("Load did not restore state saved by Save")
	}
}

// fakeStater is a minimal in-memory stand-in for internal/state.State,
// sized to exactly the fields CPU.Save/Load round-trip.
type fakeStater struct {
	u8  []uint8
	u16 []uint16
	r8  int
	r16 int
}

func (s *fakeStater) Write8(v uint8)   { s.u8 = append(s.u8, v) }
func (s *fakeStater) Write16(v uint16) { s.u16 = append(s.u16, v) }
func (s *fakeStater) Read8() uint8 {
	v := s.u8[s.r8]
	s.r8++
	return v
}
func (s *fakeStater) Read16() uint16 {
	v := s.u16[s.r16]
	s.r16++
	return v
}
