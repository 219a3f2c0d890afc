// Package mmu is the Game Boy's memory-mapped bus: it owns every
// peripheral directly and routes the CPU's 16-bit address space to
// them, replacing the teacher's global types.RegisterHardware registry
// and internal/scheduler event bus with direct ownership (spec §9's
// one-way data flow redesign).
//
// Grounded on _examples/thelolagemann-gomeboy/internal/mmu for the
// address-decoding switch shape, generalized to call each peripheral's
// own Cycle method instead of a scheduler.
package mmu

import (
	"fmt"

	"github.com/tidemark/gbcore/internal/apu"
	"github.com/tidemark/gbcore/internal/boot"
	"github.com/tidemark/gbcore/internal/cartridge"
	"github.com/tidemark/gbcore/internal/dma"
	"github.com/tidemark/gbcore/internal/interrupts"
	"github.com/tidemark/gbcore/internal/joypad"
	"github.com/tidemark/gbcore/internal/ppu"
	"github.com/tidemark/gbcore/internal/ram"
	"github.com/tidemark/gbcore/internal/serial"
	"github.com/tidemark/gbcore/internal/timer"
	"github.com/tidemark/gbcore/internal/types"
)

// MMU is the system bus. It is constructed once per Machine and lives
// for the lifetime of the emulated session.
type MMU struct {
	model types.Model

	Cart       *cartridge.Cartridge
	PPU        *ppu.PPU
	APU        *apu.APU
	Timer      *timer.Controller
	Interrupts *interrupts.Service
	Joypad     *joypad.State
	Serial     *serial.Controller
	OAMDMA     *dma.OAM
	HDMA       *dma.HDMA

	boot *boot.ROM // nil once unmapped or if none was supplied

	wram     [8]*ram.Bank // bank 0 fixed, banks 1-7 selectable via SVBK on CGB
	wramBank uint8        // 1-7; DMG always reads/writes bank 1 regardless of SVBK
	hram     *ram.Bank

	key1Armed   bool // KEY1 bit0: speed switch requested
	doubleSpeed bool

	prevPPUMode ppu.Mode // tracks HBlank entry for the HDMA HBlank-gated transfer
}

// New constructs the bus with all peripherals in their post-bootrom (or
// post-boot-ROM-execution, if bootROM is non-nil) reset state.
func New(model types.Model, cart *cartridge.Cartridge, bootROM *boot.ROM) *MMU {
	m := &MMU{
		model:      model,
		Cart:       cart,
		PPU:        ppu.New(model),
		APU:        apu.New(model),
		Timer:      timer.New(),
		Interrupts: interrupts.NewService(),
		Joypad:     joypad.New(),
		Serial:     serial.New(),
		OAMDMA:     dma.New(),
		HDMA:       dma.NewHDMA(),
		boot:       bootROM,
		hram:       ram.NewBank(int(types.HRAMEnd-types.HRAMStart) + 1),
		wramBank:   1,
	}
	for i := range m.wram {
		m.wram[i] = ram.NewBank(0x1000)
	}
	return m
}

// DoubleSpeed reports whether the CGB double-speed mode is active.
func (m *MMU) DoubleSpeed() bool { return m.doubleSpeed }

// SpeedSwitchArmed reports whether KEY1 bit 0 was set, which is what
// makes STOP perform a speed switch instead of a normal stop on CGB.
func (m *MMU) SpeedSwitchArmed() bool { return m.key1Armed }

// PerformSpeedSwitch toggles double-speed mode and clears the arm bit;
// the CPU calls this when STOP executes with the switch armed.
func (m *MMU) PerformSpeedSwitch() {
	m.doubleSpeed = !m.doubleSpeed
	m.key1Armed = false
	m.Timer.SetDoubleSpeed(m.doubleSpeed)
}

// wramBankFor resolves which of the 8 banks backs 0xD000-0xDFFF: always
// bank 1 on DMG, SVBK-selected (0 aliasing to 1) on CGB.
func (m *MMU) wramBankFor() uint8 {
	if m.model != types.CGB {
		return 1
	}
	if m.wramBank == 0 {
		return 1
	}
	return m.wramBank
}

// Read services a CPU memory read.
func (m *MMU) Read(address uint16) uint8 {
	if m.boot != nil && m.boot.Contains(address) {
		return m.boot.Read(address)
	}
	switch {
	case address <= types.CartBankNEnd:
		if address <= types.CartBank0End {
			return m.Cart.ReadBank0(address)
		}
		return m.Cart.ReadBankN(address)
	case address <= types.VRAMEnd:
		return m.PPU.ReadVRAM(address)
	case address <= types.ExtRAMEnd:
		return m.Cart.ReadRAM(address)
	case address <= types.WRAMBank0End:
		return m.wram[0].Read(address - types.WRAMBank0Start)
	case address <= types.WRAMBankNEnd:
		return m.wram[m.wramBankFor()].Read(address - types.WRAMBankNStart)
	case address <= types.EchoEnd:
		return m.Read(address - 0x2000)
	case address <= types.OAMEnd:
		return m.PPU.ReadOAM(address)
	case address <= types.ProhibitedEnd:
		return 0xFF
	case address <= types.IOEnd:
		return m.readIO(address)
	case address <= types.HRAMEnd:
		return m.hram.Read(address - types.HRAMStart)
	case address == types.IE:
		return m.Interrupts.Read(address)
	}
	panic(fmt.Sprintf("mmu: unreachable address %04X", address))
}

// Write services a CPU memory write.
func (m *MMU) Write(address uint16, value uint8) {
	if m.boot != nil && m.boot.Contains(address) {
		return // boot ROM is read-only; ROM-area writes below still reach the MBC
	}
	switch {
	case address <= types.CartBankNEnd:
		m.Cart.WriteControl(address, value)
	case address <= types.VRAMEnd:
		m.PPU.WriteVRAM(address, value)
	case address <= types.ExtRAMEnd:
		m.Cart.WriteRAM(address, value)
	case address <= types.WRAMBank0End:
		m.wram[0].Write(address-types.WRAMBank0Start, value)
	case address <= types.WRAMBankNEnd:
		m.wram[m.wramBankFor()].Write(address-types.WRAMBankNStart, value)
	case address <= types.EchoEnd:
		m.Write(address-0x2000, value)
	case address <= types.OAMEnd:
		m.PPU.WriteOAM(address, value)
	case address <= types.ProhibitedEnd:
		// absorbed
	case address <= types.IOEnd:
		m.writeIO(address, value)
	case address <= types.HRAMEnd:
		m.hram.Write(address-types.HRAMStart, value)
	case address == types.IE:
		m.Interrupts.Write(address, value)
	default:
		panic(fmt.Sprintf("mmu: unreachable address %04X", address))
	}
}

func (m *MMU) readIO(address uint16) uint8 {
	switch {
	case address == types.P1:
		return m.Joypad.Read()
	case address == types.SB || address == types.SC:
		return m.Serial.Read(address)
	case address == types.DIV || address == types.TIMA || address == types.TMA || address == types.TAC:
		return m.Timer.Read(address)
	case address == types.IF:
		return m.Interrupts.Read(address)
	case address == types.DMA:
		return m.OAMDMA.Source()
	case address >= types.NR10 && address <= types.NR52, address >= types.WaveRAMStart && address <= types.WaveRAMEnd:
		return m.APU.Read(address)
	case address >= types.LCDC && address <= types.WX:
		return m.PPU.Read(address)
	case address == types.KEY0:
		return 0xFF // CGB compatibility-mode register; read-only to the CPU after boot
	case address == types.KEY1:
		v := uint8(0)
		if m.doubleSpeed {
			v |= 0x80
		}
		if m.key1Armed {
			v |= 0x01
		}
		return v | 0x7E
	case address == types.VBK, address >= types.BGPI && address <= types.OBPD:
		return m.PPU.Read(address)
	case address == types.BDIS:
		return 0xFF
	case address >= types.HDMA1 && address <= types.HDMA5:
		return m.HDMA.ReadReg(address)
	case address == types.SVBK:
		return m.wramBank | 0xF8
	}
	return 0xFF // unmapped I/O register; real hardware returns open-bus garbage
}

func (m *MMU) writeIO(address uint16, value uint8) {
	switch {
	case address == types.P1:
		m.Joypad.Write(value)
	case address == types.SB || address == types.SC:
		m.Serial.Write(address, value)
	case address == types.DIV || address == types.TIMA || address == types.TMA || address == types.TAC:
		m.Timer.Write(address, value)
	case address == types.IF:
		m.Interrupts.Write(address, value)
	case address == types.DMA:
		m.OAMDMA.Trigger(value)
		m.PPU.SetOAMDMABlocking(true)
	case address >= types.NR10 && address <= types.NR52, address >= types.WaveRAMStart && address <= types.WaveRAMEnd:
		m.APU.Write(address, value)
	case address >= types.LCDC && address <= types.WX:
		m.PPU.Write(address, value)
	case address == types.KEY0:
		// absorbed; gbcore fixes the machine's model at construction time
	case address == types.KEY1:
		m.key1Armed = value&0x01 != 0
	case address == types.VBK, address >= types.BGPI && address <= types.OBPD:
		m.PPU.Write(address, value)
	case address == types.BDIS:
		if value != 0 {
			m.boot = nil
		}
	case address >= types.HDMA1 && address <= types.HDMA4:
		m.HDMA.WriteReg(address, value)
	case address == types.HDMA5:
		m.HDMA.WriteReg(address, value)
		if m.HDMA.Active() && !m.HDMA.IsHBlankMode() {
			m.runGeneralPurposeHDMA()
		}
	case address == types.SVBK:
		if m.model == types.CGB {
			m.wramBank = value & 0x07
		}
	default:
		// unmapped I/O register; writes absorbed
	}
}

// DMARead implements dma.BusReader, letting the DMA engines pull bytes
// through the same address decoding the CPU uses (minus the bootrom
// overlay and OAM/VRAM blocking, since the DMA engines are themselves
// the bus owner while active).
func (m *MMU) DMARead(address uint16) uint8 {
	switch {
	case address <= types.CartBankNEnd:
		if address <= types.CartBank0End {
			return m.Cart.ReadBank0(address)
		}
		return m.Cart.ReadBankN(address)
	case address <= types.VRAMEnd:
		return m.PPU.ReadVRAM(address)
	case address <= types.ExtRAMEnd:
		return m.Cart.ReadRAM(address)
	case address <= types.WRAMBank0End:
		return m.wram[0].Read(address - types.WRAMBank0Start)
	case address <= types.WRAMBankNEnd:
		return m.wram[m.wramBankFor()].Read(address - types.WRAMBankNStart)
	case address <= types.EchoEnd:
		return m.DMARead(address - 0x2000)
	case address <= types.OAMEnd:
		return m.PPU.ReadOAM(address)
	default:
		return 0xFF
	}
}

// SetButtons applies a full button-state snapshot (spec §6's
// once-per-frame InputSource polling model) and raises the Joypad
// interrupt if any newly-pressed, currently-selected button caused one.
func (m *MMU) SetButtons(pressed joypad.Button) {
	if m.Joypad.Set(pressed) {
		m.Interrupts.Request(interrupts.JoypadFlag)
	}
}

// runGeneralPurposeHDMA drives a general-purpose CGB VRAM DMA transfer
// to completion one 16-byte block per m-cycle, ticking every other
// peripheral (PPU, timer, serial, APU, OAM DMA) along with it so a
// large transfer doesn't desync wall-clock time the way copying it all
// in zero elapsed cycles would (spec §4.9: "CPU stalled" for the
// transfer's duration, which this models by folding the stall into the
// same Cycle path the CPU's own instruction timing goes through).
func (m *MMU) runGeneralPurposeHDMA() {
	for {
		done := m.HDMA.StepGeneralPurposeBlock(m, m.PPU)
		m.Cycle(1)
		if done {
			return
		}
	}
}

// Cycle advances every bus-owned peripheral other than the CPU by the
// given number of m-cycles, folding any interrupt requests into the
// Interrupts service.
func (m *MMU) Cycle(mCycles uint8) {
	irq := m.PPU.Cycle(mCycles)
	if irq&ppu.IRQVBlank != 0 {
		m.Interrupts.Request(interrupts.VBlankFlag)
	}
	if irq&ppu.IRQStat != 0 {
		m.Interrupts.Request(interrupts.LCDFlag)
	}

	if m.Timer.Cycle(mCycles) {
		m.Interrupts.Request(interrupts.TimerFlag)
	}

	if m.Serial.Cycle(mCycles) {
		m.Interrupts.Request(interrupts.SerialFlag)
	}

	m.APU.Cycle(mCycles)

	for i := uint8(0); i < mCycles; i++ {
		m.OAMDMA.Cycle(m, m.PPU)
	}

	curMode := m.PPU.Mode()
	if curMode == ppu.HBlank && m.prevPPUMode != ppu.HBlank && m.HDMA.Active() && m.HDMA.IsHBlankMode() {
		m.HDMA.RunHBlankBlock(m, m.PPU)
	}
	m.prevPPUMode = curMode

	m.PPU.SetOAMDMABlocking(m.OAMDMA.Active())
}

// stateIO is the full set of cursor operations the MMU and its owned
// peripherals need to serialize themselves, matching *state.State's
// exported surface.
type stateIO interface {
	Write8(uint8)
	Write16(uint16)
	Write32(uint32)
	WriteBool(bool)
	WriteData([]byte)
	Read8() uint8
	Read16() uint16
	Read32() uint32
	ReadBool() bool
	ReadData([]byte)
}

// Save serializes the entire bus: every owned peripheral plus the
// cartridge and WRAM/HRAM banks (spec §4.3/§9's save-state feature).
func (m *MMU) Save(s stateIO) {
	m.Cart.Save(s)
	m.PPU.Save(s)
	m.APU.Save(s)
	m.Timer.Save(s)
	s.Write8(m.Interrupts.Flag)
	s.Write8(m.Interrupts.Enable)
	s.WriteBool(m.Interrupts.IME)
	m.Joypad.Save(s)
	m.Serial.Save(s)
	m.OAMDMA.Save(s)
	m.HDMA.Save(s)
	for i := range m.wram {
		m.wram[i].Save(s)
	}
	m.hram.Save(s)
	s.Write8(m.wramBank)
	s.WriteBool(m.key1Armed)
	s.WriteBool(m.doubleSpeed)
	s.WriteBool(m.boot != nil)
}

// Load restores a state previously produced by Save. The caller must
// construct the MMU with the same cartridge and boot ROM (if any)
// beforehand; Load only restores the boot ROM's mapped/unmapped state,
// not its contents.
func (m *MMU) Load(s stateIO, bootROM *boot.ROM) {
	m.Cart.Load(s)
	m.PPU.Load(s)
	m.APU.Load(s)
	m.Timer.Load(s)
	m.Interrupts.Flag = s.Read8()
	m.Interrupts.Enable = s.Read8()
	m.Interrupts.IME = s.ReadBool()
	m.Joypad.Load(s)
	m.Serial.Load(s)
	m.OAMDMA.Load(s)
	m.HDMA.Load(s)
	for i := range m.wram {
		m.wram[i].Load(s)
	}
	m.hram.Load(s)
	m.wramBank = s.Read8()
	m.key1Armed = s.ReadBool()
	m.doubleSpeed = s.ReadBool()
	bootMapped := s.ReadBool()
	if bootMapped {
		m.boot = bootROM
	} else {
		m.boot = nil
	}
}
