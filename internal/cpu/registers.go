package cpu

// Flag bit positions within F, the lower nibble of which is always zero
// (spec §8's testable property: "F's low nibble is always zero").
const (
	flagZ uint8 = 1 << 7
	flagN uint8 = 1 << 6
	flagH uint8 = 1 << 5
	flagC uint8 = 1 << 4
)

// Registers holds the SM83's eight 8-bit registers, addressable both
// individually and as the four 16-bit pairs AF/BC/DE/HL.
//
// Grounded on _examples/thelolagemann-gomeboy/internal/cpu's Registers
// type, which keeps the same flat A/F/B/C/D/E/H/L layout.
type Registers struct {
	A, F uint8
	B, C uint8
	D, E uint8
	H, L uint8
}

func (r *Registers) AF() uint16 { return uint16(r.A)<<8 | uint16(r.F) }
func (r *Registers) BC() uint16 { return uint16(r.B)<<8 | uint16(r.C) }
func (r *Registers) DE() uint16 { return uint16(r.D)<<8 | uint16(r.E) }
func (r *Registers) HL() uint16 { return uint16(r.H)<<8 | uint16(r.L) }

// SetAF stores a 16-bit value into A/F; F's low nibble is always forced
// to zero, matching real hardware.
func (r *Registers) SetAF(v uint16) {
	r.A = uint8(v >> 8)
	r.F = uint8(v) & 0xF0
}

func (r *Registers) SetBC(v uint16) { r.B, r.C = uint8(v>>8), uint8(v) }
func (r *Registers) SetDE(v uint16) { r.D, r.E = uint8(v>>8), uint8(v) }
func (r *Registers) SetHL(v uint16) { r.H, r.L = uint8(v>>8), uint8(v) }

func (r *Registers) flagSet(mask uint8) bool { return r.F&mask != 0 }

func (r *Registers) setFlag(mask uint8, v bool) {
	if v {
		r.F |= mask
	} else {
		r.F &^= mask
	}
}
