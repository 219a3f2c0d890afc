package cartridge

import "fmt"

// Cartridge wraps a parsed Header with the MBC variant its cart type
// selects, presenting a single read/write surface to the MMU.
type Cartridge struct {
	Header Header
	mbc    MBC
}

// New parses rom's header and constructs the appropriate MBC. Unsupported
// cartridge types are a construction-time error (spec §7 "fatal: ... the
// core does not return error values from its hot-path functions", but
// construction is not the hot path).
func New(rom []byte) (*Cartridge, error) {
	header, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}

	var mbc MBC
	switch header.Type {
	case ROM:
		mbc = NewNoMBC(rom, header.RAMSize)
	case TypeMBC1, TypeMBC1RAM, TypeMBC1RAMBATT:
		mbc = NewMBC1(rom, header.RAMSize)
	case TypeMBC3TimerBatt, TypeMBC3TimerRAM, TypeMBC3, TypeMBC3RAM, TypeMBC3RAMBATT:
		mbc = NewMBC3(rom, header.RAMSize)
	case TypeMBC5, TypeMBC5RAM, TypeMBC5RAMBATT, TypeMBC5Rumble, TypeMBC5RumbleRAM, TypeMBC5RumbleBat:
		mbc = NewMBC5(rom, header.RAMSize)
	default:
		return nil, fmt.Errorf("cartridge: unsupported cartridge type %#02x", header.Type)
	}

	return &Cartridge{Header: header, mbc: mbc}, nil
}

// ReadBank0 returns a byte from the fixed 0x0000-0x3FFF ROM window.
func (c *Cartridge) ReadBank0(address uint16) uint8 { return c.mbc.Read(address) }

// ReadBankN returns a byte from the banked 0x4000-0x7FFF ROM window.
func (c *Cartridge) ReadBankN(address uint16) uint8 { return c.mbc.Read(address) }

// WriteControl routes a CPU write in the 0x0000-0x7FFF ROM range to the
// MBC's control registers.
func (c *Cartridge) WriteControl(address uint16, value uint8) { c.mbc.WriteROM(address, value) }

// ReadRAM reads external RAM at a 0xA000-0xBFFF-relative offset.
func (c *Cartridge) ReadRAM(address uint16) uint8 { return c.mbc.ReadRAM(address - 0xA000) }

// WriteRAM writes external RAM at a 0xA000-0xBFFF-relative offset.
func (c *Cartridge) WriteRAM(address uint16, value uint8) { c.mbc.WriteRAM(address-0xA000, value) }

// BatteryRAM returns the cartridge's external RAM for host persistence,
// or nil if this cartridge type has no battery.
func (c *Cartridge) BatteryRAM() []byte {
	if !c.Header.HasBattery() {
		return nil
	}
	if bb, ok := c.mbc.(BatteryBacked); ok {
		return bb.RAM()
	}
	return nil
}

// LoadBatteryRAM installs previously-saved RAM bytes, for a host restoring
// a save file. Returns an error if the length doesn't match the
// cartridge's derived RAM size (spec §7, "save-file size mismatch" is
// fatal).
func (c *Cartridge) LoadBatteryRAM(data []byte) error {
	bb, ok := c.mbc.(BatteryBacked)
	if !ok {
		return fmt.Errorf("cartridge: cartridge type has no battery-backed RAM")
	}
	if len(data) != len(bb.RAM()) {
		return fmt.Errorf("cartridge: save file size %d does not match expected RAM size %d", len(data), len(bb.RAM()))
	}
	bb.SetRAM(data)
	return nil
}

// Save serializes the cartridge's MBC state.
func (c *Cartridge) Save(s StateWriter) {
	if st, ok := c.mbc.(Stater); ok {
		st.Save(s)
	}
}

// Load restores the cartridge's MBC state.
func (c *Cartridge) Load(s StateReader) {
	if st, ok := c.mbc.(Stater); ok {
		st.Load(s)
	}
}
