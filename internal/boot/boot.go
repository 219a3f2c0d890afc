// Package boot provides the optional boot ROM overlay mapped at
// 0x0000-0x00FF (and 0x0200-0x08FF on CGB) until the cartridge unmaps it.
//
// Grounded on _examples/thelolagemann-gomeboy/internal/boot.
package boot

import "fmt"

// ROM is a loaded boot ROM image.
type ROM struct {
	data []byte
}

// Load validates and wraps a boot ROM image. Length must be exactly 256
// bytes (DMG/MGB/SGB) or 2304 bytes (CGB); any other length is a fatal
// construction error per spec §7.
func Load(data []byte) (*ROM, error) {
	if len(data) != 256 && len(data) != 2304 {
		return nil, fmt.Errorf("boot: invalid boot rom length %d (want 256 or 2304)", len(data))
	}
	return &ROM{data: data}, nil
}

// IsCGB reports whether this is the larger CGB boot ROM.
func (r *ROM) IsCGB() bool { return len(r.data) == 2304 }

// Read returns the byte at the given address within the boot ROM's
// mapped windows (0x0000-0x00FF, plus 0x0200-0x08FF on CGB).
func (r *ROM) Read(address uint16) uint8 {
	if address <= 0x00FF {
		return r.data[address]
	}
	if r.IsCGB() && address >= 0x0200 && address <= 0x08FF {
		return r.data[address]
	}
	return 0xFF
}

// Contains reports whether address falls within a window the boot ROM
// overlays the cartridge at.
func (r *ROM) Contains(address uint16) bool {
	if address <= 0x00FF {
		return true
	}
	return r.IsCGB() && address >= 0x0200 && address <= 0x08FF
}
