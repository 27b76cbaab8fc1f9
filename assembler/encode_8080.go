package assembler

import (
	z80asm "github.com/Memotech-Bill/Z80Asm"
)

// ops8080 is the 8080-dialect mnemonic table (MOV, MVI, LXI and
// friends). It is only consulted when assembling for the 8080, where it
// shadows the Z80 table: JP is jump-if-plus here, CPI is compare
// immediate.
var ops8080 map[string]instrDef

var reg8080 = map[string]int{"B": 0, "C": 1, "D": 2, "E": 3, "H": 4, "L": 5, "M": 6, "A": 7}

var rp8080 = map[string]int{"B": 0x00, "D": 0x10, "H": 0x20, "SP": 0x30}

var rp8080Stack = map[string]int{"B": 0x00, "D": 0x10, "H": 0x20, "PSW": 0x30}

func init() {
	ops8080 = map[string]instrDef{
		"NOP":  fixed(set8080, 0x00),
		"RLC":  fixed(set8080, 0x07),
		"RRC":  fixed(set8080, 0x0F),
		"RAL":  fixed(set8080, 0x17),
		"RAR":  fixed(set8080, 0x1F),
		"DAA":  fixed(set8080, 0x27),
		"CMA":  fixed(set8080, 0x2F),
		"STC":  fixed(set8080, 0x37),
		"CMC":  fixed(set8080, 0x3F),
		"HLT":  fixed(set8080, 0x76),
		"XTHL": fixed(set8080, 0xE3),
		"PCHL": fixed(set8080, 0xE9),
		"XCHG": fixed(set8080, 0xEB),
		"DI":   fixed(set8080, 0xF3),
		"SPHL": fixed(set8080, 0xF9),
		"EI":   fixed(set8080, 0xFB),

		"MOV": {cpus: set8080, enc: enc80MOV},
		"MVI": {cpus: set8080, enc: enc80MVI},
		"LXI": {cpus: set8080, base: 0x01, enc: enc80RP},
		"DAD": {cpus: set8080, base: 0x09, enc: enc80RP},
		"INX": {cpus: set8080, base: 0x03, enc: enc80RP},
		"DCX": {cpus: set8080, base: 0x0B, enc: enc80RP},

		"STA":  {cpus: set8080, base: 0x32, enc: enc80Addr},
		"LDA":  {cpus: set8080, base: 0x3A, enc: enc80Addr},
		"SHLD": {cpus: set8080, base: 0x22, enc: enc80Addr},
		"LHLD": {cpus: set8080, base: 0x2A, enc: enc80Addr},
		"STAX": {cpus: set8080, base: 0x02, enc: enc80Stax},
		"LDAX": {cpus: set8080, base: 0x0A, enc: enc80Stax},

		"ADD": {cpus: set8080, base: 0x80, enc: enc80ALU},
		"ADC": {cpus: set8080, base: 0x88, enc: enc80ALU},
		"SUB": {cpus: set8080, base: 0x90, enc: enc80ALU},
		"SBB": {cpus: set8080, base: 0x98, enc: enc80ALU},
		"ANA": {cpus: set8080, base: 0xA0, enc: enc80ALU},
		"XRA": {cpus: set8080, base: 0xA8, enc: enc80ALU},
		"ORA": {cpus: set8080, base: 0xB0, enc: enc80ALU},
		"CMP": {cpus: set8080, base: 0xB8, enc: enc80ALU},

		"INR": {cpus: set8080, base: 0x04, enc: enc80RegHi},
		"DCR": {cpus: set8080, base: 0x05, enc: enc80RegHi},

		"ADI": {cpus: set8080, base: 0xC6, enc: enc80Imm},
		"ACI": {cpus: set8080, base: 0xCE, enc: enc80Imm},
		"SUI": {cpus: set8080, base: 0xD6, enc: enc80Imm},
		"SBI": {cpus: set8080, base: 0xDE, enc: enc80Imm},
		"ANI": {cpus: set8080, base: 0xE6, enc: enc80Imm},
		"XRI": {cpus: set8080, base: 0xEE, enc: enc80Imm},
		"ORI": {cpus: set8080, base: 0xF6, enc: enc80Imm},
		"CPI": {cpus: set8080, base: 0xFE, enc: enc80Imm},
		"IN":  {cpus: set8080, base: 0xDB, enc: enc80Imm},
		"OUT": {cpus: set8080, base: 0xD3, enc: enc80Imm},

		"PUSH": {cpus: set8080, base: 0xC5, enc: enc80Stack},
		"POP":  {cpus: set8080, base: 0xC1, enc: enc80Stack},

		"JMP": {cpus: set8080, base: 0xC3, enc: enc80Addr},
		"JNZ": {cpus: set8080, base: 0xC2, enc: enc80Addr},
		"JZ":  {cpus: set8080, base: 0xCA, enc: enc80Addr},
		"JNC": {cpus: set8080, base: 0xD2, enc: enc80Addr},
		"JC":  {cpus: set8080, base: 0xDA, enc: enc80Addr},
		"JPO": {cpus: set8080, base: 0xE2, enc: enc80Addr},
		"JPE": {cpus: set8080, base: 0xEA, enc: enc80Addr},
		"JP":  {cpus: set8080, base: 0xF2, enc: enc80Addr},
		"JM":  {cpus: set8080, base: 0xFA, enc: enc80Addr},

		"CALL": {cpus: set8080, base: 0xCD, enc: enc80Addr},
		"CNZ":  {cpus: set8080, base: 0xC4, enc: enc80Addr},
		"CZ":   {cpus: set8080, base: 0xCC, enc: enc80Addr},
		"CNC":  {cpus: set8080, base: 0xD4, enc: enc80Addr},
		"CC":   {cpus: set8080, base: 0xDC, enc: enc80Addr},
		"CPO":  {cpus: set8080, base: 0xE4, enc: enc80Addr},
		"CPE":  {cpus: set8080, base: 0xEC, enc: enc80Addr},
		"CP":   {cpus: set8080, base: 0xF4, enc: enc80Addr},
		"CM":   {cpus: set8080, base: 0xFC, enc: enc80Addr},

		"RET": fixed(set8080, 0xC9),
		"RNZ": fixed(set8080, 0xC0),
		"RZ":  fixed(set8080, 0xC8),
		"RNC": fixed(set8080, 0xD0),
		"RC":  fixed(set8080, 0xD8),
		"RPO": fixed(set8080, 0xE0),
		"RPE": fixed(set8080, 0xE8),
		"RP":  fixed(set8080, 0xF0),
		"RM":  fixed(set8080, 0xF8),

		"RST": {cpus: set8080, enc: enc80RST},
	}
}

func reg80(a Operand) (int, bool) {
	r, ok := reg8080[a.Text]
	return r, ok && !a.Ind
}

func enc80MOV(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 2, at); err != nil {
		return nil, err
	}
	d, ok1 := reg80(args[0])
	s, ok2 := reg80(args[1])
	if !ok1 || !ok2 {
		return nil, errUnsup(at, "invalid operands for MOV")
	}
	if d == 6 && s == 6 {
		return nil, errUnsup(at, "MOV M,M is not an instruction")
	}
	return []byte{byte(0x40 + 8*d + s)}, nil
}

func enc80MVI(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 2, at); err != nil {
		return nil, err
	}
	r, ok := reg80(args[0])
	if !ok {
		return nil, errUnsup(at, "invalid register for MVI")
	}
	n, err := e.evalByte(args[1].X, at)
	if err != nil {
		return nil, err
	}
	return []byte{byte(0x06 + 8*r), byte(n)}, nil
}

func enc80ALU(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	r, ok := reg80(args[0])
	if !ok {
		return nil, errUnsup(at, "invalid register")
	}
	return []byte{byte(d.base + r)}, nil
}

func enc80RegHi(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	r, ok := reg80(args[0])
	if !ok {
		return nil, errUnsup(at, "invalid register")
	}
	return []byte{byte(d.base + 8*r)}, nil
}

func enc80RP(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	// LXI takes the pair and an immediate word, the others just the pair.
	if len(args) == 0 {
		return nil, wantArgs(args, 1, at)
	}
	rp, ok := rp8080[args[0].Text]
	if !ok || args[0].Ind {
		return nil, errUnsup(at, "invalid register pair")
	}
	if d.base == 0x01 {
		if err := wantArgs(args, 2, at); err != nil {
			return nil, err
		}
		nn, err := e.evalWord(args[1].X, at)
		if err != nil {
			return nil, err
		}
		return []byte{byte(d.base + rp), byte(nn), byte(nn >> 8)}, nil
	}
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	return []byte{byte(d.base + rp)}, nil
}

func enc80Stax(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	switch args[0].Text {
	case "B":
		return []byte{byte(d.base)}, nil
	case "D":
		return []byte{byte(d.base + 0x10)}, nil
	}
	return nil, errUnsup(at, "invalid register pair")
}

func enc80Stack(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	rp, ok := rp8080Stack[args[0].Text]
	if !ok || args[0].Ind {
		return nil, errUnsup(at, "invalid register pair")
	}
	return []byte{byte(d.base + rp)}, nil
}

func enc80Imm(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	n, err := e.evalByte(args[0].X, at)
	if err != nil {
		return nil, err
	}
	return []byte{byte(d.base), byte(n)}, nil
}

func enc80Addr(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	nn, err := e.evalWord(args[0].X, at)
	if err != nil {
		return nil, err
	}
	return []byte{byte(d.base), byte(nn), byte(nn >> 8)}, nil
}

// enc80RST takes a restart number 0 to 7 rather than an address.
func enc80RST(e *encodeEnv, _ *instrDef, args []Operand, at z80asm.Pos) ([]byte, error) {
	if err := wantArgs(args, 1, at); err != nil {
		return nil, err
	}
	v, err := e.Eval(args[0].X)
	if err != nil {
		return nil, err
	}
	if e.Final && (v < 0 || v > 7) {
		return nil, errEnc(at, "restart number %d out of range", v)
	}
	return []byte{byte(0xC7 + (v&7)*8)}, nil
}
