package cartridge

// MBC is the capability every memory bank controller variant implements:
// bank-0 reads, banked ROM reads, the ROM write sink that is actually a
// control-register update, and banked external RAM access.
//
// Grounded on _examples/thelolagemann-gomeboy/internal/cartridge/mbc1.go
// and mbc3.go/mbc5.go. Per the design note in spec.md §9 ("prefer a
// tagged variant... over dynamic dispatch"), gbcore's MBC is still an
// interface (Go has no sum types), but Cartridge wraps it in a single
// concrete struct rather than threading the interface value through
// every peripheral, keeping the polymorphism boundary at one place: the
// construction site in New.
type MBC interface {
	Read(address uint16) uint8
	WriteROM(address uint16, value uint8)
	ReadRAM(address uint16) uint8
	WriteRAM(address uint16, value uint8)
}

// BatteryBacked is implemented by MBC variants with persisted external
// RAM, so a host can read it out for saving and install it back on load
// (spec §4.3).
type BatteryBacked interface {
	RAM() []byte
	SetRAM([]byte)
}

// Stater is implemented by every MBC so Cartridge.Save/Load can persist
// banking state alongside RAM contents.
type Stater interface {
	Save(StateWriter)
	Load(StateReader)
}

// StateWriter/StateReader are the minimal cursor operations an MBC needs
// to serialize itself, declared locally so this package has no
// compile-time dependency on the state package's encoding choices.
type StateWriter interface {
	Write8(uint8)
	Write16(uint16)
	Write32(uint32)
	WriteBool(bool)
	WriteData([]byte)
}

type StateReader interface {
	Read8() uint8
	Read16() uint16
	Read32() uint32
	ReadBool() bool
	ReadData([]byte)
}
