// Package gameboy assembles the CPU, MMU and every peripheral it owns
// into a runnable Machine, the single entry point a host (CLI, test, or
// future GUI) drives.
//
// Grounded on _examples/thelolagemann-gomeboy's top-level GameBoy type
// (cmd/gameboy and internal/gameboy), generalized to a plain frame-
// stepping loop in place of the teacher's scheduler-driven one, per
// spec §9's one-way data flow redesign: the Machine owns the CPU and
// MMU, the MMU owns every peripheral, and nothing reaches back up.
package gameboy

import (
	"fmt"

	"github.com/tidemark/gbcore/internal/boot"
	"github.com/tidemark/gbcore/internal/cartridge"
	"github.com/tidemark/gbcore/internal/cpu"
	"github.com/tidemark/gbcore/internal/joypad"
	"github.com/tidemark/gbcore/internal/log"
	"github.com/tidemark/gbcore/internal/mmu"
	"github.com/tidemark/gbcore/internal/ppu"
	"github.com/tidemark/gbcore/internal/state"
	"github.com/tidemark/gbcore/internal/types"
)

// GraphicsSink receives a completed frame's pixels after every VBlank
// (spec §6). Implementations must copy the data they need; the backing
// array is reused by the PPU on the next frame.
type GraphicsSink interface {
	PresentFrame(frame *[ppu.ScreenWidth * ppu.ScreenHeight]ppu.Pixel)
}

// AudioSink receives mixed stereo samples at the APU's raw CPU
// m-cycle sample rate, handed over whenever its ring buffer fills —
// which happens several times per emulated video frame, not once
// (spec §2/§6). Implementations needing a fixed device rate must
// resample themselves.
type AudioSink interface {
	PresentAudio(samples []int16)
}

// InputSource is polled once per emulated frame for the current button
// state (spec §6). Hosts with event-driven input should latch presses
// into a Button bitmask and return it here.
type InputSource interface {
	PollInput() joypad.Button
}

// DebugHook is notified before every instruction RunFrame executes and can request a
// break, matching spec §1's "a debugger hook, not a debugger" framing:
// this package provides the hook, not any UI around it.
type DebugHook interface {
	// BeforeStep is called with the CPU's next PC. Returning true pauses
	// RunFrame before the instruction executes.
	BeforeStep(pc uint16) (breakHere bool)
}

// Option configures a Machine at construction time.
type Option func(*config)

type config struct {
	model    types.Model
	modelSet bool
	bootROM  *boot.ROM
	graphics GraphicsSink
	audio    AudioSink
	input    InputSource
	debug    DebugHook
	logger   log.Logger
}

// WithModel overrides hardware model autodetection (DMG vs CGB). By
// default the model is taken from the boot ROM if one is supplied, else
// from the cartridge header's CGB-support flag.
func WithModel(m types.Model) Option {
	return func(c *config) { c.model, c.modelSet = m, true }
}

// WithBootROM maps a boot ROM at address 0x0000 until the program writes
// a non-zero value to the boot-disable register (0xFF50).
func WithBootROM(b *boot.ROM) Option {
	return func(c *config) { c.bootROM = b }
}

func WithGraphicsSink(g GraphicsSink) Option {
	return func(c *config) { c.graphics = g }
}

func WithAudioSink(a AudioSink) Option {
	return func(c *config) { c.audio = a }
}

func WithInputSource(in InputSource) Option {
	return func(c *config) { c.input = in }
}

func WithDebugHook(d DebugHook) Option {
	return func(c *config) { c.debug = d }
}

// WithLogger overrides the default null logger. Machine uses it only
// for construction-time diagnostics (resolved model, mapped bootrom);
// the hot path (RunFrame/Step) never logs.
func WithLogger(l log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Machine is a fully wired Game Boy / Game Boy Color system: one CPU,
// one MMU, and whatever sinks/sources the host supplied.
type Machine struct {
	CPU *cpu.CPU
	Bus *mmu.MMU

	model types.Model
	boot  *boot.ROM

	graphics GraphicsSink
	audio    AudioSink
	input    InputSource
	debug    DebugHook
}

// New constructs a Machine for the given cartridge ROM image.
func New(romImage []byte, opts ...Option) (*Machine, error) {
	cfg := config{model: types.DMG, logger: log.NewNullLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	cart, err := cartridge.New(romImage)
	if err != nil {
		return nil, fmt.Errorf("gameboy: %w", err)
	}

	model := cfg.model
	switch {
	case cfg.modelSet:
		// explicit override; keep cfg.model
	case cfg.bootROM != nil:
		if cfg.bootROM.IsCGB() {
			model = types.CGB
		}
	case cart.Header.CGBFlag != cartridge.CGBNone:
		model = types.CGB
	}

	bus := mmu.New(model, cart, cfg.bootROM)
	irq := bus.Interrupts

	pc := uint16(0x0100)
	if cfg.bootROM != nil {
		pc = 0x0000
	}

	cfg.logger.Infof("gameboy: model=%s title=%q bootrom-mapped=%v", model, cart.Header.Title, cfg.bootROM != nil)

	m := &Machine{
		CPU:      cpu.New(bus, irq, pc),
		Bus:      bus,
		model:    model,
		boot:     cfg.bootROM,
		graphics: cfg.graphics,
		audio:    cfg.audio,
		input:    cfg.input,
		debug:    cfg.debug,
	}
	return m, nil
}

// Model returns the hardware personality this Machine resolved to.
func (m *Machine) Model() types.Model { return m.model }

// RunFrame executes instructions until the PPU completes one frame (or
// a debug hook requests a break), presenting the frame, drained audio
// and polled input to whatever sinks/sources were configured.
func (m *Machine) RunFrame() {
	if m.input != nil {
		m.Bus.SetButtons(m.input.PollInput())
	}

	for !m.Bus.PPU.FrameReady() {
		if m.debug != nil && m.debug.BeforeStep(m.CPU.PC) {
			return
		}
		m.CPU.Step()
		m.CPU.AfterInstruction()
		m.drainAudio()
	}

	frame := m.Bus.PPU.Framebuffer()
	if m.graphics != nil {
		m.graphics.PresentFrame(frame)
	}
}

// drainAudio hands the APU's ring buffer to the AudioSink the moment it
// fills (spec §2/§6), rather than waiting for the video frame boundary:
// at the APU's raw CPU-m-cycle sample rate the buffer fills several
// times per video frame.
func (m *Machine) drainAudio() {
	if m.audio == nil {
		return
	}
	if samples := m.Bus.APU.Drain(); len(samples) > 0 {
		m.audio.PresentAudio(samples)
	}
}

// Step executes exactly one CPU instruction, for hosts driving the
// machine instruction-by-instruction (spec §1's debugger hook).
func (m *Machine) Step() {
	m.CPU.Step()
	m.CPU.AfterInstruction()
	m.drainAudio()
}

// LoadBatteryRAM installs previously-persisted cartridge RAM, for hosts
// restoring a save file alongside the ROM.
func (m *Machine) LoadBatteryRAM(data []byte) error {
	return m.Bus.Cart.LoadBatteryRAM(data)
}

// BatteryRAM returns the cartridge's external RAM for host persistence,
// or nil if this cartridge has no battery.
func (m *Machine) BatteryRAM() []byte {
	return m.Bus.Cart.BatteryRAM()
}

// SaveState serializes the entire machine (CPU, bus and every owned
// peripheral) into a compressed, checksummed byte stream.
func (m *Machine) SaveState() ([]byte, error) {
	s := state.New()
	m.CPU.Save(s)
	m.Bus.Save(s)
	return state.Encode(s)
}

// LoadState restores a state previously produced by SaveState. The
// Machine must already be constructed against the same ROM (and boot
// ROM, if any) that produced the snapshot.
func (m *Machine) LoadState(raw []byte) error {
	s, err := state.Decode(raw)
	if err != nil {
		return fmt.Errorf("gameboy: %w", err)
	}
	m.CPU.Load(s)
	m.Bus.Load(s, m.boot)
	return nil
}
