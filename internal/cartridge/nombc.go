package cartridge

// NoMBC is a cartridge with no banking hardware: a fixed 32 KiB ROM
// (two fixed banks) and optional, non-banked external RAM.
//
// Grounded on _examples/thelolagemann-gomeboy/internal/cartridge's plain
// ROM-only path, generalized to the NoMBC variant spec.md §4.3 names.
type NoMBC struct {
	rom []byte
	ram []byte
}

// NewNoMBC returns a NoMBC wrapping rom, with ramSize bytes of optional
// external RAM (0 for none).
func NewNoMBC(rom []byte, ramSize int) *NoMBC {
	return &NoMBC{rom: rom, ram: make([]byte, ramSize)}
}

func (m *NoMBC) Read(address uint16) uint8 {
	if int(address) < len(m.rom) {
		return m.rom[address]
	}
	return 0xFF
}

// WriteROM is absorbed: a NoMBC cartridge has no control registers to
// update (spec §7, "writes to ROM regions that do not map to MBC control
// registers" are silently absorbed).
func (m *NoMBC) WriteROM(address uint16, value uint8) {}

func (m *NoMBC) ReadRAM(address uint16) uint8 {
	if len(m.ram) == 0 {
		return 0xFF
	}
	return m.ram[int(address)%len(m.ram)]
}

func (m *NoMBC) WriteRAM(address uint16, value uint8) {
	if len(m.ram) == 0 {
		return
	}
	m.ram[int(address)%len(m.ram)] = value
}

func (m *NoMBC) RAM() []byte     { return m.ram }
func (m *NoMBC) SetRAM(b []byte) { copy(m.ram, b) }

func (m *NoMBC) Save(s StateWriter) { s.WriteData(m.ram) }
func (m *NoMBC) Load(s StateReader) { s.ReadData(m.ram) }
