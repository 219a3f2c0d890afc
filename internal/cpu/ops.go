package cpu

// execute dispatches one fetched main-table opcode. Every memory access
// and internal delay it performs goes through readByte/writeByte/tick,
// so instruction timing and bus-peripheral timing stay in lockstep
// without a separate cycle-count table (spec §9).
func (c *CPU) execute(op uint8) {
	switch op {
	case 0x00: // NOP

	case 0x10: // STOP
		c.stop()

	case 0x76: // HALT
		c.halt()

	case 0xF3: // DI
		c.di()
	case 0xFB: // EI
		c.ei()

	case 0xCB:
		c.executeCB()

	// --- 8-bit LD r,r' / r,(HL) / (HL),r ---------------------------
	case 0x40, 0x41, 0x42, 0x43, 0x44, 0x45, 0x46, 0x47,
		0x48, 0x49, 0x4A, 0x4B, 0x4C, 0x4D, 0x4E, 0x4F,
		0x50, 0x51, 0x52, 0x53, 0x54, 0x55, 0x56, 0x57,
		0x58, 0x59, 0x5A, 0x5B, 0x5C, 0x5D, 0x5E, 0x5F,
		0x60, 0x61, 0x62, 0x63, 0x64, 0x65, 0x66, 0x67,
		0x68, 0x69, 0x6A, 0x6B, 0x6C, 0x6D, 0x6E, 0x6F,
		0x70, 0x71, 0x72, 0x73, 0x74, 0x75, 0x77,
		0x78, 0x79, 0x7A, 0x7B, 0x7C, 0x7D, 0x7E, 0x7F:
		dst := (op >> 3) & 0x07
		src := op & 0x07
		c.set8(dst, c.get8(src))

	// --- LD r,d8 ----------------------------------------------------
	case 0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x36, 0x3E:
		dst := (op >> 3) & 0x07
		c.set8(dst, c.fetch())

	// --- LD rr,d16 ----------------------------------------------------
	case 0x01, 0x11, 0x21, 0x31:
		pair := op >> 4
		c.set16sp(pair, c.fetch16())

	// --- LD (rr),A / LD A,(rr) ----------------------------------------
	case 0x02:
		c.writeByte(c.BC(), c.A)
	case 0x12:
		c.writeByte(c.DE(), c.A)
	case 0x0A:
		c.A = c.readByte(c.BC())
	case 0x1A:
		c.A = c.readByte(c.DE())

	case 0x22: // LD (HL+),A
		c.writeByte(c.HL(), c.A)
		c.SetHL(c.HL() + 1)
	case 0x2A: // LD A,(HL+)
		c.A = c.readByte(c.HL())
		c.SetHL(c.HL() + 1)
	case 0x32: // LD (HL-),A
		c.writeByte(c.HL(), c.A)
		c.SetHL(c.HL() - 1)
	case 0x3A: // LD A,(HL-)
		c.A = c.readByte(c.HL())
		c.SetHL(c.HL() - 1)

	case 0x08: // LD (a16),SP
		addr := c.fetch16()
		c.writeByte(addr, uint8(c.SP))
		c.writeByte(addr+1, uint8(c.SP>>8))

	case 0xE0: // LDH (a8),A
		addr := 0xFF00 | uint16(c.fetch())
		c.writeByte(addr, c.A)
	case 0xF0: // LDH A,(a8)
		addr := 0xFF00 | uint16(c.fetch())
		c.A = c.readByte(addr)
	case 0xE2: // LD (C),A
		c.writeByte(0xFF00|uint16(c.C), c.A)
	case 0xF2: // LD A,(C)
		c.A = c.readByte(0xFF00 | uint16(c.C))
	case 0xEA: // LD (a16),A
		c.writeByte(c.fetch16(), c.A)
	case 0xFA: // LD A,(a16)
		c.A = c.readByte(c.fetch16())

	case 0xF9: // LD SP,HL
		c.tick(1)
		c.SP = c.HL()
	case 0xF8: // LD HL,SP+e8
		e := int8(c.fetch())
		c.tick(1)
		c.SetHL(c.addSPSigned(e))

	// --- INC/DEC r8 ---------------------------------------------------
	case 0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x34, 0x3C:
		r := (op >> 3) & 0x07
		c.set8(r, c.inc8(c.get8(r)))
	case 0x05, 0x0D, 0x15, 0x1D, 0x25, 0x2D, 0x35, 0x3D:
		r := (op >> 3) & 0x07
		c.set8(r, c.dec8(c.get8(r)))

	// --- INC/DEC rr -----------------------------------------------------
	case 0x03, 0x13, 0x23, 0x33:
		pair := op >> 4
		c.tick(1)
		c.set16sp(pair, c.get16sp(pair)+1)
	case 0x0B, 0x1B, 0x2B, 0x3B:
		pair := op >> 4
		c.tick(1)
		c.set16sp(pair, c.get16sp(pair)-1)

	// --- ADD HL,rr --------------------------------------------------
	case 0x09, 0x19, 0x29, 0x39:
		pair := op >> 4
		c.tick(1)
		c.addHL(c.get16sp(pair))

	// --- ADD SP,e8 ----------------------------------------------------
	case 0xE8:
		e := int8(c.fetch())
		c.tick(2)
		c.SP = c.addSPSigned(e)

	// --- rotates on A -------------------------------------------------
	case 0x07: // RLCA
		c.A = c.rlc(c.A)
		c.setFlag(flagZ, false)
	case 0x0F: // RRCA
		c.A = c.rrc(c.A)
		c.setFlag(flagZ, false)
	case 0x17: // RLA
		c.A = c.rl(c.A)
		c.setFlag(flagZ, false)
	case 0x1F: // RRA
		c.A = c.rr(c.A)
		c.setFlag(flagZ, false)

	case 0x27: // DAA
		c.daa()
	case 0x2F: // CPL
		c.A = ^c.A
		c.setFlag(flagN, true)
		c.setFlag(flagH, true)
	case 0x37: // SCF
		c.setFlag(flagN, false)
		c.setFlag(flagH, false)
		c.setFlag(flagC, true)
	case 0x3F: // CCF
		c.setFlag(flagN, false)
		c.setFlag(flagH, false)
		c.setFlag(flagC, !c.flagSet(flagC))

	// --- 8-bit ALU A,r / A,(HL) / A,d8 --------------------------------
	case 0x80, 0x81, 0x82, 0x83, 0x84, 0x85, 0x86, 0x87:
		c.add(c.get8(op&0x07), false)
	case 0x88, 0x89, 0x8A, 0x8B, 0x8C, 0x8D, 0x8E, 0x8F:
		c.add(c.get8(op&0x07), true)
	case 0x90, 0x91, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97:
		c.A = c.sub(c.get8(op&0x07), false)
	case 0x98, 0x99, 0x9A, 0x9B, 0x9C, 0x9D, 0x9E, 0x9F:
		c.A = c.sub(c.get8(op&0x07), true)
	case 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7:
		c.and(c.get8(op & 0x07))
	case 0xA8, 0xA9, 0xAA, 0xAB, 0xAC, 0xAD, 0xAE, 0xAF:
		c.xor(c.get8(op & 0x07))
	case 0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5, 0xB6, 0xB7:
		c.or(c.get8(op & 0x07))
	case 0xB8, 0xB9, 0xBA, 0xBB, 0xBC, 0xBD, 0xBE, 0xBF:
		c.cp(c.get8(op & 0x07))

	case 0xC6:
		c.add(c.fetch(), false)
	case 0xCE:
		c.add(c.fetch(), true)
	case 0xD6:
		c.A = c.sub(c.fetch(), false)
	case 0xDE:
		c.A = c.sub(c.fetch(), true)
	case 0xE6:
		c.and(c.fetch())
	case 0xEE:
		c.xor(c.fetch())
	case 0xF6:
		c.or(c.fetch())
	case 0xFE:
		c.cp(c.fetch())

	// --- JR ----------------------------------------------------------
	case 0x18:
		c.jr(true)
	case 0x20:
		c.jr(!c.flagSet(flagZ))
	case 0x28:
		c.jr(c.flagSet(flagZ))
	case 0x30:
		c.jr(!c.flagSet(flagC))
	case 0x38:
		c.jr(c.flagSet(flagC))

	// --- JP ----------------------------------------------------------
	case 0xC3:
		c.jp(true)
	case 0xC2:
		c.jp(!c.flagSet(flagZ))
	case 0xCA:
		c.jp(c.flagSet(flagZ))
	case 0xD2:
		c.jp(!c.flagSet(flagC))
	case 0xDA:
		c.jp(c.flagSet(flagC))
	case 0xE9:
		c.PC = c.HL()

	// --- CALL --------------------------------------------------------
	case 0xCD:
		c.call(true)
	case 0xC4:
		c.call(!c.flagSet(flagZ))
	case 0xCC:
		c.call(c.flagSet(flagZ))
	case 0xD4:
		c.call(!c.flagSet(flagC))
	case 0xDC:
		c.call(c.flagSet(flagC))

	// --- RET / RETI ----------------------------------------------------
	case 0xC9:
		c.ret(true, false)
	case 0xC0:
		c.ret(!c.flagSet(flagZ), true)
	case 0xC8:
		c.ret(c.flagSet(flagZ), true)
	case 0xD0:
		c.ret(!c.flagSet(flagC), true)
	case 0xD8:
		c.ret(c.flagSet(flagC), true)
	case 0xD9:
		c.ret(true, false)
		c.irq.IME = true

	// --- RST ----------------------------------------------------------
	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF:
		c.tick(1)
		c.push(c.PC)
		c.PC = uint16(op & 0x38)

	// --- PUSH/POP -------------------------------------------------
	case 0xC5, 0xD5, 0xE5, 0xF5:
		c.tick(1)
		c.push(c.get16af((op >> 4) & 0x03))
	case 0xC1, 0xD1, 0xE1, 0xF1:
		c.set16af((op>>4)&0x03, c.pop())

	default:
		c.illegalOpcode(op)
	}
}

// jr implements JR cc,e8, paying the extra internal cycle only when
// the branch is taken.
func (c *CPU) jr(take bool) {
	e := int8(c.fetch())
	if !take {
		return
	}
	c.tick(1)
	c.PC = uint16(int32(c.PC) + int32(e))
}

func (c *CPU) jp(take bool) {
	addr := c.fetch16()
	if !take {
		return
	}
	c.tick(1)
	c.PC = addr
}

func (c *CPU) call(take bool) {
	addr := c.fetch16()
	if !take {
		return
	}
	c.tick(1)
	c.push(c.PC)
	c.PC = addr
}

// ret implements RET and conditional RET cc; extraDelay bills the
// branch-condition check's extra internal cycle that unconditional RET
// (and RETI) skip.
func (c *CPU) ret(take bool, extraDelay bool) {
	if extraDelay {
		c.tick(1)
	}
	if !take {
		return
	}
	c.PC = c.pop()
	c.tick(1)
}
