package assembler

import (
	z80asm "github.com/Memotech-Bill/Z80Asm"
)

// StmtBase carries what every statement shares: the raw source line for
// listings and reformatting, its position, and an optional label
// defined on the line. Emit fills Addr/Load/Bytes on the final pass so
// the listing writer does not have to re-run anything.
type StmtBase struct {
	Raw         string
	At          z80asm.Pos
	Label       string
	LabelPublic bool

	Addr   z80asm.MachineAddress
	Load   z80asm.MachineAddress
	Bytes  []byte
	Value  int  // shown instead of bytes for equate lines
	HasVal bool
	NoList bool
}

// Stmt is one parsed source statement. Parsing happens once; the pass
// driver walks the same statements until the symbol table settles.
type Stmt interface {
	Base() *StmtBase
}

func (b *StmtBase) Base() *StmtBase { return b }

// EmptyStmt is a blank, comment-only or label-only line.
type EmptyStmt struct {
	StmtBase
}

// InstrStmt is one machine instruction.
type InstrStmt struct {
	StmtBase
	Mnemonic string
	Args     []Operand
}

// Operand is one instruction argument, classified by shape. The encoder
// decides what the shape means for the mnemonic at hand: a bare C is a
// register to LD and a condition to JP.
type Operand struct {
	Text string // upper-cased spelling when the operand is one bare name
	Ind  bool   // wrapped in parentheses
	Reg  string // register inside the parentheses, if any
	Disp Expr   // displacement of an (IX+d) / (IY-d) form, sign folded in
	X    Expr   // the expression, for immediates and (addr) forms
	At   z80asm.Pos
}

// OrgStmt covers every positioning directive; Kind tells which one.
// Addr is nil for the bare forms of OFFSET and for DEPHASE.
type OrgStmt struct {
	StmtBase
	Kind z80asm.UpdateKind
	Addr Expr
	// MA ORG and ZASM LOAD move only the load counter; common ORG and
	// BORG move both. ZASM ORG moves only the logical counter.
	LoadOnly    bool
	LogicalOnly bool
}

// SegStmt switches between the absolute, code and data segments.
type SegStmt struct {
	StmtBase
	Seg z80asm.Seg
}

// EquStmt gives a name a value. Redefinable marks DEFL/ASET, which may
// be assigned repeatedly; EQU may not.
type EquStmt struct {
	StmtBase
	Name        string
	Val         Expr
	Redefinable bool
}

type dataKind int

const (
	dataDB dataKind = iota // bytes
	dataDC                 // string with bit 7 set on the last byte
	dataDZ                 // string with a NUL appended
	dataDW                 // little-endian words
	dataDD                 // little-endian double words
)

// DataItem is one element of a data directive: a string or an
// expression.
type DataItem struct {
	Str   string
	IsStr bool
	X     Expr
}

// DataStmt emits constant data.
type DataStmt struct {
	StmtBase
	Kind  dataKind
	Items []DataItem
}

type reserveKind int

const (
	resDS   reserveKind = iota // n bytes
	resBYTE                    // n bytes
	resWORD                    // n words
	resALIGN
)

// ReserveStmt advances the counters without writing, leaving a gap that
// reads back as the fill byte.
type ReserveStmt struct {
	StmtBase
	Kind  reserveKind
	Count Expr
}

// FillStmt emits Count copies of Val (zero when Val is nil, as for the
// ZERO directive).
type FillStmt struct {
	StmtBase
	Count Expr
	Val   Expr
}

// InsertStmt splices a binary file into the output. The bytes are read
// at parse time so every pass sees the same length.
type InsertStmt struct {
	StmtBase
	Path string
	Data []byte
}

// CondStmt is a conditional block. Both branches are retained so a
// block whose condition changes between passes still assembles.
type CondStmt struct {
	StmtBase
	Neg      bool   // IFF / IFNOT invert the test
	DefCheck string // IFDEF tests symbol existence instead of a value
	Test     Expr
	Then     []Stmt
	Else     []Stmt
}

// ReptStmt repeats its body Count times.
type ReptStmt struct {
	StmtBase
	Count Expr
	Body  []Stmt
}

// IncludeStmt splices another source file, already parsed.
type IncludeStmt struct {
	StmtBase
	Path string
	Body []Stmt
}

// EndStmt ends assembly of the program, optionally naming the entry
// address for the Intel hex trailer.
type EndStmt struct {
	StmtBase
	Entry Expr
}

type listMode int

const (
	listOn listMode = iota
	listOff
	listCondOn  // .LFCOND
	listCondOff // .SFCOND
	listCondFlip
)

type ListStmt struct {
	StmtBase
	Mode listMode
}

type printKind int

const (
	printText  printKind = iota // .PRINTX
	printExprs                  // .PRINTF
	printError                  // ERROR
	printTitle                  // TITLE / NAME / NAMEX
)

type PrintStmt struct {
	StmtBase
	Kind  printKind
	Items []DataItem
}

// CPUStmt switches the instruction set mid-source (.8080 / .Z80 / .Z180).
type CPUStmt struct {
	StmtBase
	CPU z80asm.CPU
}

// PublicStmt marks names for the public section of the symbol file.
type PublicStmt struct {
	StmtBase
	Names []string
}

// ExternStmt declares names defined elsewhere.
type ExternStmt struct {
	StmtBase
	Names []string
}

// EvalStmt records an EVAL SIMPLE/FULL switch. Its effect is applied
// while parsing; the statement itself only exists for the listing.
type EvalStmt struct {
	StmtBase
	Simple bool
}

// LabcaseStmt toggles case sensitivity of the symbol table.
type LabcaseStmt struct {
	StmtBase
	Sensitive bool
}

type clockKind int

const (
	clockDate clockKind = iota
	clockTime
	clockBuild
)

// ClockStmt emits the assembly date, time or build number as text.
type ClockStmt struct {
	StmtBase
	Kind clockKind
}
