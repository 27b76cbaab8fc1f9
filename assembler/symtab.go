package assembler

import (
	"sort"
	"strings"

	z80asm "github.com/Memotech-Bill/Z80Asm"
)

type SymKind int

const (
	SymLabel  SymKind = iota // fixed once per pass
	SymEquate                // EQU / DEFL / ASET, freely redefinable
	SymDefine                // command line definition
	SymExtern                // declared external, never given a value here
)

// Symbol is one name in the table. Raw keeps the author's spelling for
// the symbol file even when lookups fold case.
type Symbol struct {
	Name    string
	Raw     string
	Kind    SymKind
	Val     int
	Seg     z80asm.Seg
	At      z80asm.Pos
	Public  bool
	Defined bool
}

// SymTab holds every symbol of a run. Label values that move between
// passes mark the table dirty, which is what drives another pass;
// equates are expected to be reassigned and never count as movement.
type SymTab struct {
	syms  map[string]*Symbol
	seen  map[string]bool
	fold  bool
	dirty bool
}

func NewSymTab(caseSensitive bool) *SymTab {
	return &SymTab{
		syms: make(map[string]*Symbol),
		seen: make(map[string]bool),
		fold: !caseSensitive,
	}
}

// SetCaseSensitive services the LABCASE directive.
func (t *SymTab) SetCaseSensitive(cs bool) { t.fold = !cs }

func (t *SymTab) key(name string) string {
	if t.fold {
		return strings.ToUpper(name)
	}
	return name
}

// BeginPass forgets which labels were defined so the next pass can
// define them again with (possibly) settled values.
func (t *SymTab) BeginPass() {
	t.seen = make(map[string]bool)
	t.dirty = false
}

func (t *SymTab) Dirty() bool { return t.dirty }

// Define records a symbol value. Defining the same label twice in one
// pass is a duplicate; across passes the value just updates, and a
// label that moves marks the table dirty.
func (t *SymTab) Define(name string, val int, kind SymKind, seg z80asm.Seg, pos z80asm.Pos) error {
	k := t.key(name)
	sym, ok := t.syms[k]
	if !ok {
		sym = &Symbol{Name: k, Raw: name, Kind: kind, Seg: seg, At: pos}
		t.syms[k] = sym
	}
	if kind == SymLabel {
		if t.seen[k] && sym.Kind == SymLabel {
			return z80asm.Diag{Kind: z80asm.ErrDuplicateSym, Pos: pos, Msg: name + " already defined at " + sym.At.String()}
		}
		if sym.Defined && sym.Kind != SymLabel && sym.Kind != SymExtern {
			return z80asm.Diag{Kind: z80asm.ErrDuplicateSym, Pos: pos, Msg: name + " already defined as a constant"}
		}
		if sym.Defined && sym.Val != val {
			t.dirty = true
		}
		t.seen[k] = true
	}
	// A command line definition is fixed for the whole run; a source
	// equate may restate the same value but never move it.
	if sym.Defined && sym.Kind == SymDefine && kind == SymEquate {
		if sym.Val != val {
			return z80asm.Diag{Kind: z80asm.ErrDuplicateSym, Pos: pos, Msg: name + " is fixed on the command line"}
		}
		return nil
	}
	sym.Kind = kind
	sym.Val = val
	sym.Seg = seg
	sym.At = pos
	sym.Defined = true
	return nil
}

// Lookup resolves a name to its value.
func (t *SymTab) Lookup(name string) (int, bool) {
	sym, ok := t.syms[t.key(name)]
	if !ok || !sym.Defined {
		return 0, false
	}
	return sym.Val, true
}

// Get returns the symbol record, creating an undefined placeholder if
// needed. PUBLIC and EXTRN can name a symbol before it is defined.
func (t *SymTab) Get(name string) *Symbol {
	k := t.key(name)
	if sym, ok := t.syms[k]; ok {
		return sym
	}
	sym := &Symbol{Name: k, Raw: name}
	t.syms[k] = sym
	return sym
}

func (t *SymTab) MarkPublic(name string) { t.Get(name).Public = true }

func (t *SymTab) DeclareExtern(name string, pos z80asm.Pos) {
	sym := t.Get(name)
	if !sym.Defined {
		sym.Kind = SymExtern
		sym.At = pos
	}
}

// All returns every defined symbol sorted by name.
func (t *SymTab) All() []*Symbol {
	out := make([]*Symbol, 0, len(t.syms))
	for _, sym := range t.syms {
		if sym.Defined {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
