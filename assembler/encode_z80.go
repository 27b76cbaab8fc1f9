package assembler

import (
	z80asm "github.com/Memotech-Bill/Z80Asm"
)

// opsZ80 is the Z80-dialect mnemonic table, Z180 extensions included.
// Entries usable through their unprefixed encodings are open to the
// 8080 as well; encodeInstr rejects the forms the 8080 lacks.
var opsZ80 map[string]instrDef

func fixed(cpus cpuSet, code ...byte) instrDef {
	return instrDef{cpus: cpus, code: code, enc: encFixed}
}

func init() {
	opsZ80 = map[string]instrDef{
		// No-argument instructions.
		"NOP":  fixed(setAny, 0x00),
		"RLCA": fixed(setAny, 0x07),
		"RRCA": fixed(setAny, 0x0F),
		"RLA":  fixed(setAny, 0x17),
		"RRA":  fixed(setAny, 0x1F),
		"DAA":  fixed(setAny, 0x27),
		"CPL":  fixed(setAny, 0x2F),
		"SCF":  fixed(setAny, 0x37),
		"CCF":  fixed(setAny, 0x3F),
		"HALT": fixed(setAny, 0x76),
		"DI":   fixed(setAny, 0xF3),
		"EI":   fixed(setAny, 0xFB),
		"EXX":  fixed(setZ80Up, 0xD9),
		"NEG":  fixed(setZ80Up, 0xED, 0x44),
		"RETN": fixed(setZ80Up, 0xED, 0x45),
		"RETI": fixed(setZ80Up, 0xED, 0x4D),
		"RRD":  fixed(setZ80Up, 0xED, 0x67),
		"RLD":  fixed(setZ80Up, 0xED, 0x6F),
		"LDI":  fixed(setZ80Up, 0xED, 0xA0),
		"INI":  fixed(setZ80Up, 0xED, 0xA2),
		"OUTI": fixed(setZ80Up, 0xED, 0xA3),
		"LDD":  fixed(setZ80Up, 0xED, 0xA8),
		"CPD":  fixed(setZ80Up, 0xED, 0xA9),
		"IND":  fixed(setZ80Up, 0xED, 0xAA),
		"OUTD": fixed(setZ80Up, 0xED, 0xAB),
		"LDIR": fixed(setZ80Up, 0xED, 0xB0),
		"CPIR": fixed(setZ80Up, 0xED, 0xB1),
		"INIR": fixed(setZ80Up, 0xED, 0xB2),
		"OTIR": fixed(setZ80Up, 0xED, 0xB3),
		"LDDR": fixed(setZ80Up, 0xED, 0xB8),
		"CPDR": fixed(setZ80Up, 0xED, 0xB9),
		"INDR": fixed(setZ80Up, 0xED, 0xBA),
		"OTDR": fixed(setZ80Up, 0xED, 0xBB),
		"CPI":  fixed(setZ80Up, 0xED, 0xA1),

		// 8-bit arithmetic and logic.
		"AND": {cpus: setAny, base: 0xA0, enc: encALU1},
		"CP":  {cpus: setAny, base: 0xB8, enc: encALU1},
		"CMP": {cpus: setAny, base: 0xB8, enc: encALU1},
		"OR":  {cpus: setAny, base: 0xB0, enc: encALU1},
		"SUB": {cpus: setAny, base: 0x90, enc: encALU1},
		"XOR": {cpus: setAny, base: 0xA8, enc: encALU1},
		"ADD": {cpus: setAny, base: 0x80, ext: 0x09, enc: encALU2},
		"ADC": {cpus: setAny, base: 0x88, ext: 0x4A, code: []byte{0xED}, enc: encALU2},
		"SBC": {cpus: setAny, base: 0x98, ext: 0x42, code: []byte{0xED}, enc: encALU2},

		"INC": {cpus: setAny, base: 0x04, ext: 0x03, enc: encIncDec},
		"DEC": {cpus: setAny, base: 0x05, ext: 0x0B, enc: encIncDec},

		// Rotates, shifts and bit operations (CB prefix).
		"RLC": {cpus: setZ80Up, base: 0x00, enc: encRot},
		"RRC": {cpus: setZ80Up, base: 0x08, enc: encRot},
		"RL":  {cpus: setZ80Up, base: 0x10, enc: encRot},
		"RR":  {cpus: setZ80Up, base: 0x18, enc: encRot},
		"SLA": {cpus: setZ80Up, base: 0x20, enc: encRot},
		"SRA": {cpus: setZ80Up, base: 0x28, enc: encRot},
		"SRL": {cpus: setZ80Up, base: 0x38, enc: encRot},
		"BIT": {cpus: setZ80Up, base: 0x40, enc: encBit},
		"RES": {cpus: setZ80Up, base: 0x80, enc: encBit},
		"SET": {cpus: setZ80Up, base: 0xC0, enc: encBit},

		// Jumps, calls, returns.
		"JP":   {cpus: setAny, base: 0xC3, ext: 0xC2, enc: encJP},
		"CALL": {cpus: setAny, base: 0xCD, ext: 0xC4, enc: encCall},
		"JR":   {cpus: setZ80Up, enc: encJR},
		"DJNZ": {cpus: setZ80Up, enc: encDJNZ},
		"RET":  {cpus: setAny, enc: encRET},
		"RST":  {cpus: setAny, enc: encRST},

		"EX":   {cpus: setAny, enc: encEX},
		"IM":   {cpus: setZ80Up, enc: encIM},
		"IN":   {cpus: setAny, enc: encIN},
		"OUT":  {cpus: setAny, enc: encOUT},
		"PUSH": {cpus: setAny, base: 0xC5, enc: encPushPop},
		"POP":  {cpus: setAny, base: 0xC1, enc: encPushPop},
		"LD":   {cpus: setAny, enc: encLD},

		// Z180 extensions.
		"SLP":   fixed(setZ180, 0xED, 0x76),
		"OTIM":  fixed(setZ180, 0xED, 0x83),
		"OTDM":  fixed(setZ180, 0xED, 0x8B),
		"OTIMR": fixed(setZ180, 0xED, 0x93),
		"OTDMR": fixed(setZ180, 0xED, 0x9B),
		"MLT":   {cpus: setZ180, enc: encMLT},
		"IN0":   {cpus: setZ180, enc: encIN0},
		"OUT0":  {cpus: setZ180, enc: encOUT0},
		"TST":   {cpus: setZ180, enc: encTST},
		"TSTIO": {cpus: setZ180, enc: encTSTIO},
	}
}

func encFixed(_ *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 0, at); err != nil {
		return nil, err
	}
	return d.code, nil
}

// aluTarget encodes the common right-hand side of the 8-bit arithmetic
// group: register, (HL), (IX+d) or immediate.
func aluTarget(e *encodeEnv, base int, a Operand, at z80asm.Pos) ([]byte, error) {
	if r, ok := a.reg8Code(); ok {
		return []byte{byte(base + r)}, nil
	}
	if a.regInd("HL") {
		return []byte{byte(base + 6)}, nil
	}
	if pfx, ok := a.indexed(); ok {
		disp, err := e.evalDisp(a.Disp, at)
		if err != nil {
			return nil, err
		}
		return []byte{pfx, byte(base + 6), byte(disp)}, nil
	}
	if a.immediate() {
		n, err := e.evalByte(a.X, at)
		if err != nil {
			return nil, err
		}
		return []byte{byte(base + 0x46), byte(n)}, nil
	}
	return nil, errUnsup(at, "invalid operand")
}

// stripA drops the explicit accumulator of the two-operand spelling
// (AND A,B and so on).
func stripA(args []Operand) ([]Operand, bool) {
	if len(args) == 2 && args[0].isReg("A") {
		return args[1:], true
	}
	return args, len(args) == 1
}

func encALU1(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	args, ok := stripA(args)
	if !ok {
		return nil, errUnsup(at, "invalid operands")
	}
	return aluTarget(e, d.base, args[0], at)
}

func encALU2(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if len(args) == 2 {
		dst := args[0]
		if dst.isReg("HL") {
			rr, ok := reg16[args[1].Text]
			if !ok || args[1].Ind {
				return nil, errUnsup(at, "invalid register pair")
			}
			if len(d.code) > 0 {
				return []byte{0xED, byte(d.ext + rr)}, nil
			}
			return []byte{byte(d.ext + rr)}, nil
		}
		if pfx, ok := indexPrefix[dst.Text]; ok && !dst.Ind {
			// Only ADD works with the index registers, and the HL slot
			// names the index register itself.
			if len(d.code) > 0 {
				return nil, errUnsup(at, "only ADD takes %s", dst.Text)
			}
			rr, ok := reg16[args[1].Text]
			if args[1].Text == dst.Text {
				rr, ok = 0x20, true
			} else if args[1].Text == "HL" {
				ok = false
			}
			if !ok || args[1].Ind {
				return nil, errUnsup(at, "invalid register pair")
			}
			return []byte{pfx, byte(d.ext + rr)}, nil
		}
	}
	args, ok := stripA(args)
	if !ok {
		return nil, errUnsup(at, "invalid operands")
	}
	return aluTarget(e, d.base, args[0], at)
}

func rotTarget(e *encodeEnv, base int, a Operand, at z80asm.Pos) ([]byte, error) {
	if r, ok := a.reg8Code(); ok {
		return []byte{0xCB, byte(base + r)}, nil
	}
	if a.regInd("HL") {
		return []byte{0xCB, byte(base + 6)}, nil
	}
	if pfx, ok := a.indexed(); ok {
		disp, err := e.evalDisp(a.Disp, at)
		if err != nil {
			return nil, err
		}
		return []byte{pfx, 0xCB, byte(disp), byte(base + 6)}, nil
	}
	return nil, errUnsup(at, "invalid operand")
}

func encRot(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	return rotTarget(e, d.base, args[0], at)
}

func encBit(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 2, at); err != nil {
		return nil, err
	}
	bit, err := e.Eval(args[0].X)
	if err != nil {
		return nil, err
	}
	if e.Final && (bit < 0 || bit > 7) {
		return nil, errEnc(at, "bit number %d out of range", bit)
	}
	return rotTarget(e, d.base+(bit&7)*8, args[1], at)
}

func condCode(a Operand) (int, bool) {
	c, ok := condCodes[a.Text]
	return c, ok && !a.Ind
}

func encJP(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	switch len(args) {
	case 1:
		if args[0].regInd("HL") {
			return []byte{0xE9}, nil
		}
		if pfx, ok := args[0].indexed(); ok && args[0].Disp == nil {
			return []byte{pfx, 0xE9}, nil
		}
		nn, err := e.evalWord(args[0].X, at)
		if err != nil {
			return nil, err
		}
		return []byte{byte(d.base), byte(nn), byte(nn >> 8)}, nil
	case 2:
		cond, ok := condCode(args[0])
		if !ok {
			return nil, errUnsup(at, "invalid condition %s", args[0].Text)
		}
		nn, err := e.evalWord(args[1].X, at)
		if err != nil {
			return nil, err
		}
		return []byte{byte(d.ext + cond), byte(nn), byte(nn >> 8)}, nil
	}
	return nil, wantArgs(args, 1, at)
}

func encCall(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	switch len(args) {
	case 1:
		nn, err := e.evalWord(args[0].X, at)
		if err != nil {
			return nil, err
		}
		return []byte{byte(d.base), byte(nn), byte(nn >> 8)}, nil
	case 2:
		cond, ok := condCode(args[0])
		if !ok {
			return nil, errUnsup(at, "invalid condition %s", args[0].Text)
		}
		nn, err := e.evalWord(args[1].X, at)
		if err != nil {
			return nil, err
		}
		return []byte{byte(d.ext + cond), byte(nn), byte(nn >> 8)}, nil
	}
	return nil, wantArgs(args, 1, at)
}

func encJR(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	switch len(args) {
	case 1:
		off, err := e.relOffset(args[0].X, at)
		if err != nil {
			return nil, err
		}
		return []byte{0x18, byte(off)}, nil
	case 2:
		cond, ok := condCode(args[0])
		if !ok || cond > 0x18 {
			return nil, errUnsup(at, "JR cannot test %s", args[0].Text)
		}
		off, err := e.relOffset(args[1].X, at)
		if err != nil {
			return nil, err
		}
		return []byte{byte(0x20 + cond), byte(off)}, nil
	}
	return nil, wantArgs(args, 1, at)
}

func encDJNZ(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	off, err := e.relOffset(args[0].X, at)
	if err != nil {
		return nil, err
	}
	return []byte{0x10, byte(off)}, nil
}

func encRET(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if len(args) == 0 {
		return []byte{0xC9}, nil
	}
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	cond, ok := condCode(args[0])
	if !ok {
		return nil, errUnsup(at, "invalid condition %s", args[0].Text)
	}
	return []byte{byte(0xC0 + cond)}, nil
}

func encRST(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	v, err := e.Eval(args[0].X)
	if err != nil {
		return nil, err
	}
	if e.Final && (v < 0 || v > 0x38 || v%8 != 0) {
		return nil, errEnc(at, "invalid restart address %#x", v)
	}
	return []byte{byte(0xC7 + v&0x38)}, nil
}

func encIncDec(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	a := args[0]
	if r, ok := a.reg8Code(); ok {
		return []byte{byte(d.base + 8*r)}, nil
	}
	if a.regInd("HL") {
		return []byte{byte(d.base + 8*6)}, nil
	}
	if pfx, ok := a.indexed(); ok {
		disp, err := e.evalDisp(a.Disp, at)
		if err != nil {
			return nil, err
		}
		return []byte{pfx, byte(d.base + 8*6), byte(disp)}, nil
	}
	if rr, ok := reg16[a.Text]; ok && !a.Ind {
		return []byte{byte(d.ext + rr)}, nil
	}
	if pfx, ok := indexPrefix[a.Text]; ok && !a.Ind {
		return []byte{pfx, byte(d.ext + 0x20)}, nil
	}
	return nil, errUnsup(at, "invalid operand")
}

func encEX(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 2, at); err != nil {
		return nil, err
	}
	dst, src := args[0], args[1]
	switch {
	case dst.regInd("SP") && src.isReg("HL"):
		return []byte{0xE3}, nil
	case dst.regInd("SP") && !src.Ind:
		if pfx, ok := indexPrefix[src.Text]; ok {
			return []byte{pfx, 0xE3}, nil
		}
	case dst.isReg("DE") && src.isReg("HL"):
		return []byte{0xEB}, nil
	case dst.isReg("AF") && src.isReg("AF'"):
		return []byte{0x08}, nil
	}
	return nil, errUnsup(at, "invalid operands for EX")
}

func encIM(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	v, err := e.Eval(args[0].X)
	if err != nil {
		return nil, err
	}
	codes := []byte{0x46, 0x56, 0x5E}
	if v < 0 || v > 2 {
		if e.Final {
			return nil, errEnc(at, "interrupt mode %d out of range", v)
		}
		v = 0
	}
	return []byte{0xED, codes[v]}, nil
}

func encIN(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 2, at); err != nil {
		return nil, err
	}
	dst, src := args[0], args[1]
	if src.regInd("C") {
		if dst.isReg("F") {
			return []byte{0xED, 0x70}, nil
		}
		if r, ok := dst.reg8Code(); ok {
			return []byte{0xED, byte(0x40 + 8*r)}, nil
		}
	}
	if dst.isReg("A") && src.memRef() {
		n, err := e.evalByte(src.X, at)
		if err != nil {
			return nil, err
		}
		return []byte{0xDB, byte(n)}, nil
	}
	return nil, errUnsup(at, "invalid operands for IN")
}

func encOUT(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 2, at); err != nil {
		return nil, err
	}
	dst, src := args[0], args[1]
	if dst.regInd("C") {
		if r, ok := src.reg8Code(); ok {
			return []byte{0xED, byte(0x41 + 8*r)}, nil
		}
	}
	if dst.memRef() && src.isReg("A") {
		n, err := e.evalByte(dst.X, at)
		if err != nil {
			return nil, err
		}
		return []byte{0xD3, byte(n)}, nil
	}
	return nil, errUnsup(at, "invalid operands for OUT")
}

func encPushPop(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	a := args[0]
	if rr, ok := reg16Stack[a.Text]; ok && !a.Ind {
		return []byte{byte(d.base + rr)}, nil
	}
	if pfx, ok := indexPrefix[a.Text]; ok && !a.Ind {
		return []byte{pfx, byte(d.base + 0x20)}, nil
	}
	return nil, errUnsup(at, "invalid operand")
}

func encLD(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 2, at); err != nil {
		return nil, err
	}
	dst, src := args[0], args[1]

	if r, ok := dst.reg8Code(); ok {
		if s, ok := src.reg8Code(); ok {
			return []byte{byte(0x40 + 8*r + s)}, nil
		}
		if src.regInd("HL") {
			return []byte{byte(0x46 + 8*r)}, nil
		}
		if pfx, ok := src.indexed(); ok {
			disp, err := e.evalDisp(src.Disp, at)
			if err != nil {
				return nil, err
			}
			return []byte{pfx, byte(0x46 + 8*r), byte(disp)}, nil
		}
		if dst.Text == "A" {
			switch {
			case src.regInd("BC"):
				return []byte{0x0A}, nil
			case src.regInd("DE"):
				return []byte{0x1A}, nil
			case src.isReg("I"):
				return []byte{0xED, 0x57}, nil
			case src.isReg("R"):
				return []byte{0xED, 0x5F}, nil
			case src.memRef():
				nn, err := e.evalWord(src.X, at)
				if err != nil {
					return nil, err
				}
				return []byte{0x3A, byte(nn), byte(nn >> 8)}, nil
			}
		}
		if src.immediate() {
			n, err := e.evalByte(src.X, at)
			if err != nil {
				return nil, err
			}
			return []byte{byte(0x06 + 8*r), byte(n)}, nil
		}
	}

	if dst.regInd("HL") {
		if s, ok := src.reg8Code(); ok {
			return []byte{byte(0x70 + s)}, nil
		}
		if src.immediate() {
			n, err := e.evalByte(src.X, at)
			if err != nil {
				return nil, err
			}
			return []byte{0x36, byte(n)}, nil
		}
	}

	if pfx, ok := dst.indexed(); ok {
		disp, err := e.evalDisp(dst.Disp, at)
		if err != nil {
			return nil, err
		}
		if s, ok := src.reg8Code(); ok {
			return []byte{pfx, byte(0x70 + s), byte(disp)}, nil
		}
		if src.immediate() {
			n, err := e.evalByte(src.X, at)
			if err != nil {
				return nil, err
			}
			return []byte{pfx, 0x36, byte(disp), byte(n)}, nil
		}
	}

	if dst.isReg("I") && src.isReg("A") {
		return []byte{0xED, 0x47}, nil
	}
	if dst.isReg("R") && src.isReg("A") {
		return []byte{0xED, 0x4F}, nil
	}
	if dst.regInd("BC") && src.isReg("A") {
		return []byte{0x02}, nil
	}
	if dst.regInd("DE") && src.isReg("A") {
		return []byte{0x12}, nil
	}

	if dst.memRef() {
		nn, err := e.evalWord(dst.X, at)
		if err != nil {
			return nil, err
		}
		lo, hi := byte(nn), byte(nn>>8)
		switch {
		case src.isReg("A"):
			return []byte{0x32, lo, hi}, nil
		case src.isReg("HL"):
			return []byte{0x22, lo, hi}, nil
		case !src.Ind && indexPrefix[src.Text] != 0:
			return []byte{indexPrefix[src.Text], 0x22, lo, hi}, nil
		}
		if rr, ok := reg16[src.Text]; ok && !src.Ind {
			return []byte{0xED, byte(0x43 + rr), lo, hi}, nil
		}
	}

	if rr, ok := reg16[dst.Text]; ok && !dst.Ind {
		if src.memRef() {
			nn, err := e.evalWord(src.X, at)
			if err != nil {
				return nil, err
			}
			if dst.Text == "HL" {
				return []byte{0x2A, byte(nn), byte(nn >> 8)}, nil
			}
			return []byte{0xED, byte(0x4B + rr), byte(nn), byte(nn >> 8)}, nil
		}
		if dst.Text == "SP" {
			if src.isReg("HL") {
				return []byte{0xF9}, nil
			}
			if pfx, ok := indexPrefix[src.Text]; ok && !src.Ind {
				return []byte{pfx, 0xF9}, nil
			}
		}
		if src.immediate() {
			nn, err := e.evalWord(src.X, at)
			if err != nil {
				return nil, err
			}
			return []byte{byte(0x01 + rr), byte(nn), byte(nn >> 8)}, nil
		}
	}

	if pfx, ok := indexPrefix[dst.Text]; ok && !dst.Ind {
		if src.memRef() {
			nn, err := e.evalWord(src.X, at)
			if err != nil {
				return nil, err
			}
			return []byte{pfx, 0x2A, byte(nn), byte(nn >> 8)}, nil
		}
		if src.immediate() {
			nn, err := e.evalWord(src.X, at)
			if err != nil {
				return nil, err
			}
			return []byte{pfx, 0x21, byte(nn), byte(nn >> 8)}, nil
		}
	}

	return nil, errUnsup(at, "invalid operands for LD")
}

// Z180 extensions.

func encMLT(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	if rr, ok := reg16[args[0].Text]; ok && !args[0].Ind {
		return []byte{0xED, byte(0x4C + rr)}, nil
	}
	return nil, errUnsup(at, "invalid operand for MLT")
}

func encIN0(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 2, at); err != nil {
		return nil, err
	}
	r, ok := args[0].reg8Code()
	if !ok || !args[1].memRef() {
		return nil, errUnsup(at, "invalid operands for IN0")
	}
	n, err := e.evalByte(args[1].X, at)
	if err != nil {
		return nil, err
	}
	return []byte{0xED, byte(8 * r), byte(n)}, nil
}

func encOUT0(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 2, at); err != nil {
		return nil, err
	}
	r, ok := args[1].reg8Code()
	if !ok || !args[0].memRef() {
		return nil, errUnsup(at, "invalid operands for OUT0")
	}
	n, err := e.evalByte(args[0].X, at)
	if err != nil {
		return nil, err
	}
	return []byte{0xED, byte(8*r + 1), byte(n)}, nil
}

func encTST(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	a, ok := stripA(args)
	if !ok {
		return nil, errUnsup(at, "invalid operands for TST")
	}
	t := a[0]
	if r, ok := t.reg8Code(); ok {
		return []byte{0xED, byte(8*r + 0x04)}, nil
	}
	if t.regInd("HL") {
		return []byte{0xED, 0x34}, nil
	}
	if t.immediate() {
		n, err := e.evalByte(t.X, at)
		if err != nil {
			return nil, err
		}
		return []byte{0xED, 0x64, byte(n)}, nil
	}
	return nil, errUnsup(at, "invalid operand for TST")
}

func encTSTIO(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	n, err := e.evalByte(args[0].X, at)
	if err != nil {
		return nil, err
	}
	return []byte{0xED, 0x74, byte(n)}, nil
}
