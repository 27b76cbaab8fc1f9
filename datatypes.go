// Package z80asm holds the datatypes shared between the assembler core,
// the patch engine, the output writers and the command line tools.
package z80asm

import (
	"strconv"
	"strings"
)

type (
	// MachineAddress is an address in the 64K target address space.
	MachineAddress = uint16
)

// Style selects the source dialect the lexer and parser accept.
type Style string

const (
	StyleMA    Style = "MA"
	StyleM80   Style = "M80"
	StylePASMO Style = "PASMO"
	StyleZASM  Style = "ZASM"
)

// ParseStyle maps a command line spelling to a Style.
func ParseStyle(s string) (Style, bool) {
	switch Style(strings.ToUpper(s)) {
	case StyleMA:
		return StyleMA, true
	case StyleM80:
		return StyleM80, true
	case StylePASMO:
		return StylePASMO, true
	case StyleZASM:
		return StyleZASM, true
	}
	return "", false
}

// DefaultExt is the source extension assumed for bare include names.
func (s Style) DefaultExt() string {
	switch s {
	case StyleM80:
		return ".mac"
	case StyleZASM:
		return ".z80"
	case StylePASMO:
		return ".zsm"
	}
	return ""
}

// CaseSensitive reports whether label names keep their case by default.
// Only M80 distinguishes FOO from foo; the LABCASE directive can override.
func (s Style) CaseSensitive() bool {
	return s == StyleM80
}

// CPU selects the instruction encoder table.
type CPU int

const (
	CPU8080 CPU = iota
	CPUZ80
	CPUZ180
)

func (c CPU) String() string {
	switch c {
	case CPU8080:
		return "8080"
	case CPUZ180:
		return "Z180"
	}
	return "Z80"
}

// ParseCPU maps a command line spelling to a CPU.
func ParseCPU(s string) (CPU, bool) {
	switch strings.ToUpper(s) {
	case "8080":
		return CPU8080, true
	case "Z80":
		return CPUZ80, true
	case "Z180":
		return CPUZ180, true
	}
	return CPUZ80, false
}

// Has reports whether an instruction available from the given base
// variant is legal on c. Z180 is a superset of Z80; the 8080 dialect
// mnemonics are only accepted when assembling for the 8080 itself.
func (c CPU) Has(base CPU) bool {
	if base == CPU8080 {
		return c == CPU8080
	}
	return c >= base
}

// Seg identifies one of the three segments of the address model.
type Seg byte

const (
	SegAbs  Seg = 'A' // absolute, used outside CSEG/DSEG and inside phase blocks
	SegCode Seg = 'C'
	SegData Seg = 'D'
)

// UpdateKind names the positioning directive whose address range a byte
// belongs to. The patch engine uses it to decide which bytes a scoped
// update run may overwrite.
type UpdateKind byte

const (
	UpdateNone UpdateKind = iota
	UpdateORG
	UpdateBORG
	UpdateOFFSET
	UpdatePHASE
	UpdateDEPHASE
	UpdateLOAD
)

var updateNames = map[UpdateKind]string{
	UpdateORG:     "ORG",
	UpdateBORG:    "BORG",
	UpdateOFFSET:  "OFFSET",
	UpdatePHASE:   "PHASE",
	UpdateDEPHASE: "DEPHASE",
	UpdateLOAD:    "LOAD",
}

func (k UpdateKind) String() string {
	if s, ok := updateNames[k]; ok {
		return s
	}
	return "NONE"
}

// ScopeSet is the set of update kinds a patch run may overwrite.
type ScopeSet uint8

const ScopeAll ScopeSet = 0xFF

// ParseScope builds a ScopeSet from spellings like "ORG" or "ALL".
func ParseScope(words []string) (ScopeSet, bool) {
	var set ScopeSet
	for _, w := range words {
		switch strings.ToUpper(w) {
		case "ALL":
			return ScopeAll, true
		case "ORG":
			set |= 1 << UpdateORG
		case "BORG":
			set |= 1 << UpdateBORG
		case "OFFSET":
			set |= 1 << UpdateOFFSET
		case "PHASE":
			set |= 1 << UpdatePHASE
		case "DEPHASE":
			set |= 1 << UpdateDEPHASE
		case "LOAD":
			set |= 1 << UpdateLOAD
		default:
			return 0, false
		}
	}
	return set, true
}

// Contains reports whether bytes positioned by kind are inside the scope.
func (s ScopeSet) Contains(kind UpdateKind) bool {
	if s == ScopeAll {
		return true
	}
	return s&(1<<kind) != 0
}

// Pos is a location in the source being assembled.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return "command line"
	}
	if p.Line == 0 {
		return p.File
	}
	if p.Col > 0 {
		return p.File + ":" + strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
	}
	return p.File + ":" + strconv.Itoa(p.Line)
}
