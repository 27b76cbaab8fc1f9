package assembler

import (
	"fmt"

	z80asm "github.com/Memotech-Bill/Z80Asm"
)

// encodeEnv is what an instruction needs from the surrounding pass:
// the active CPU, the logical address of the instruction for relative
// jumps, an evaluator that resolves expressions against the symbol
// table, and whether value range errors should be reported yet.
// During early passes unresolved symbols evaluate to zero so every
// instruction still has its true length.
type encodeEnv struct {
	CPU   z80asm.CPU
	PC    int
	Eval  func(Expr) (int, error)
	Final bool
}

type cpuSet uint8

const (
	set8080 cpuSet = 1 << iota
	setZ80
	setZ180
)

const (
	setZ80Up = setZ80 | setZ180
	setAny   = set8080 | setZ80Up
)

func (s cpuSet) allows(cpu z80asm.CPU) bool {
	switch cpu {
	case z80asm.CPU8080:
		return s&set8080 != 0
	case z80asm.CPUZ80:
		return s&setZ80 != 0
	}
	return s&setZ180 != 0
}

// instrDef is one mnemonic's table entry. code serves the fixed
// encodings; base and ext parameterize the group encoders so ADD and
// ADC can share one function.
type instrDef struct {
	cpus cpuSet
	code []byte
	base int
	ext  int
	enc  func(e *encodeEnv, d *instrDef, args []Operand, at z80asm.Pos) ([]byte, error)
}

func errUnsup(at z80asm.Pos, format string, args ...any) error {
	return z80asm.Diag{Kind: z80asm.ErrUnsupported, Pos: at, Msg: fmt.Sprintf(format, args...)}
}

func errEnc(at z80asm.Pos, format string, args ...any) error {
	return z80asm.Diag{Kind: z80asm.ErrEncoding, Pos: at, Msg: fmt.Sprintf(format, args...)}
}

// z80Prefixes spots encodings that do not exist on the 8080: every
// prefixed instruction plus the unprefixed Z80 extensions (EX AF,AF',
// DJNZ, the JR group and EXX).
func needsZ80(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	switch b[0] {
	case 0xCB, 0xDD, 0xED, 0xFD:
		return true
	case 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38, 0xD9:
		return true
	}
	return false
}

// Encode produces the bytes for one instruction. The 8080 dialect
// mnemonics take priority when assembling for the 8080, so JP means
// jump-if-plus there; Z80 spellings of instructions the 8080 actually
// has are still accepted.
func encodeInstr(e *encodeEnv, stmt *InstrStmt) ([]byte, error) {
	m := stmt.Mnemonic
	if e.CPU == z80asm.CPU8080 {
		if d, ok := ops8080[m]; ok {
			return d.enc(e, &d, stmt.Args, stmt.At)
		}
	}
	d, ok := opsZ80[m]
	if !ok {
		return nil, errUnsup(stmt.At, "unknown mnemonic %s", m)
	}
	if !d.cpus.allows(e.CPU) {
		return nil, errUnsup(stmt.At, "%s is not a %s instruction", m, e.CPU)
	}
	b, err := d.enc(e, &d, stmt.Args, stmt.At)
	if err != nil {
		return nil, err
	}
	if e.CPU == z80asm.CPU8080 && needsZ80(b) {
		return nil, errUnsup(stmt.At, "%s form is not an 8080 instruction", m)
	}
	return b, nil
}

// Value range helpers. Checks only fire on the final pass; before that
// the symbols involved may not have settled.

func (e *encodeEnv) evalWord(x Expr, at z80asm.Pos) (int, error) {
	v, err := e.Eval(x)
	if err != nil {
		return 0, err
	}
	if e.Final && (v < -0x8000 || v > 0xFFFF) {
		return 0, errEnc(at, "%d does not fit in 16 bits", v)
	}
	return v & 0xFFFF, nil
}

// evalByte accepts the usual byte range plus the negative wrap and the
// 0xFFxx values that HIGH-masked arithmetic produces.
func (e *encodeEnv) evalByte(x Expr, at z80asm.Pos) (int, error) {
	v, err := e.Eval(x)
	if err != nil {
		return 0, err
	}
	if e.Final && !(v > -0x80 && v <= 0xFF || v >= 0xFF00 && v <= 0xFFFF) {
		return 0, errEnc(at, "%d does not fit in 8 bits", v)
	}
	return v & 0xFF, nil
}

func (e *encodeEnv) evalDisp(x Expr, at z80asm.Pos) (int, error) {
	if x == nil {
		return 0, nil
	}
	v, err := e.Eval(x)
	if err != nil {
		return 0, err
	}
	if e.Final && (v < -128 || v > 127) {
		return 0, errEnc(at, "displacement %d out of range", v)
	}
	return v & 0xFF, nil
}

// relOffset computes the 8-bit offset of a relative jump from the
// address after the two instruction bytes.
func (e *encodeEnv) relOffset(x Expr, at z80asm.Pos) (int, error) {
	v, err := e.Eval(x)
	if err != nil {
		return 0, err
	}
	off := v - (e.PC + 2)
	if e.Final && (off < -128 || off > 127) {
		return 0, z80asm.Diag{Kind: z80asm.ErrBranchRange, Pos: at,
			Msg: fmt.Sprintf("relative jump out of range by %d bytes", outBy(off))}
	}
	return off & 0xFF, nil
}

func outBy(off int) int {
	if off > 127 {
		return off - 127
	}
	return -128 - off
}

func wantArgs(args []Operand, n int, at z80asm.Pos) error {
	if len(args) != n {
		return z80asm.Diag{Kind: z80asm.ErrParse, Pos: at, Msg: fmt.Sprintf("expected %d operand(s), found %d", n, len(args))}
	}
	return nil
}

// Register and condition tables shared by the encoders.

var reg8 = map[string]int{"B": 0, "C": 1, "D": 2, "E": 3, "H": 4, "L": 5, "A": 7}

var reg16 = map[string]int{"BC": 0x00, "DE": 0x10, "HL": 0x20, "SP": 0x30}

var reg16Stack = map[string]int{"BC": 0x00, "DE": 0x10, "HL": 0x20, "AF": 0x30}

var indexPrefix = map[string]byte{"IX": 0xDD, "IY": 0xFD}

var condCodes = map[string]int{
	"NZ": 0x00, "Z": 0x08, "NC": 0x10, "C": 0x18,
	"PO": 0x20, "PE": 0x28, "P": 0x30, "M": 0x38,
	// ZASM spellings for the unsigned and sign tests.
	"HS": 0x10, "LO": 0x18, "MI": 0x38,
}

// Operand shape queries.

func (o Operand) reg8Code() (int, bool) {
	r, ok := reg8[o.Text]
	return r, ok && !o.Ind
}

func (o Operand) isReg(name string) bool { return !o.Ind && o.Text == name }

func (o Operand) regInd(name string) bool { return o.Ind && o.Reg == name }

func (o Operand) indexed() (byte, bool) {
	if o.Ind {
		if pfx, ok := indexPrefix[o.Reg]; ok {
			return pfx, true
		}
	}
	return 0, false
}

// memRef reports an (addr) operand.
func (o Operand) memRef() bool { return o.Ind && o.Reg == "" }

// immediate reports a plain expression operand, including a bare name
// that is not a register.
func (o Operand) immediate() bool { return !o.Ind && o.X != nil }
