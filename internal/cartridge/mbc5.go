package cartridge

// MBC5 implements the simplest of the later banking chips: a full 9-bit
// ROM bank (no 0->1 remap quirk, unlike MBC1/MBC3) and a 4-bit RAM bank.
//
// Grounded on _examples/thelolagemann-gomeboy/internal/cartridge/mbc5.go.
type MBC5 struct {
	rom []byte
	ram []byte

	ramEnable bool
	romBankLo uint8
	romBankHi uint8 // bit 8 of the ROM bank
	ramBank   uint8
}

// NewMBC5 returns an MBC5 wrapping rom with ramSize bytes of external RAM.
func NewMBC5(rom []byte, ramSize int) *MBC5 {
	return &MBC5{rom: rom, ram: make([]byte, ramSize), romBankLo: 1}
}

func (m *MBC5) romBank() int {
	return int(m.romBankHi&0x01)<<8 | int(m.romBankLo)
}

func (m *MBC5) Read(address uint16) uint8 {
	if address < 0x4000 {
		if int(address) < len(m.rom) {
			return m.rom[address]
		}
		return 0xFF
	}
	idx := m.romBank()*0x4000 + int(address-0x4000)
	if idx < len(m.rom) {
		return m.rom[idx]
	}
	return 0xFF
}

func (m *MBC5) WriteROM(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ramEnable = value&0x0F == 0x0A
	case address < 0x3000:
		m.romBankLo = value
	case address < 0x4000:
		m.romBankHi = value & 0x01
	case address < 0x6000:
		m.ramBank = value & 0x0F
	default:
		// 0x6000-0x7FFF has no function on MBC5; absorbed.
	}
}

func (m *MBC5) ReadRAM(address uint16) uint8 {
	if !m.ramEnable || len(m.ram) == 0 {
		return 0xFF
	}
	idx := int(m.ramBank)*0x2000 + int(address)
	if idx < len(m.ram) {
		return m.ram[idx]
	}
	return 0xFF
}

func (m *MBC5) WriteRAM(address uint16, value uint8) {
	if !m.ramEnable || len(m.ram) == 0 {
		return
	}
	idx := int(m.ramBank)*0x2000 + int(address)
	if idx < len(m.ram) {
		m.ram[idx] = value
	}
}

func (m *MBC5) RAM() []byte     { return m.ram }
func (m *MBC5) SetRAM(b []byte) { copy(m.ram, b) }

func (m *MBC5) Save(s StateWriter) {
	s.WriteData(m.ram)
	s.WriteBool(m.ramEnable)
	s.Write8(m.romBankLo)
	s.Write8(m.romBankHi)
	s.Write8(m.ramBank)
}

func (m *MBC5) Load(s StateReader) {
	s.ReadData(m.ram)
	m.ramEnable = s.ReadBool()
	m.romBankLo = s.Read8()
	m.romBankHi = s.Read8()
	m.ramBank = s.Read8()
}
