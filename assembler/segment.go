package assembler

import (
	z80asm "github.com/Memotech-Bill/Z80Asm"
)

type segState struct {
	pc int // logical address, the value labels and '$' take
	lc int // load address, where bytes land in the image
}

// Location tracks where the next byte goes. Every segment keeps its own
// pair of counters; positioning directives move one or both and tag the
// bytes that follow with the directive that placed them, which is what
// scoped updates select on later.
type Location struct {
	cur     z80asm.Seg
	segs    map[z80asm.Seg]*segState
	kind    z80asm.UpdateKind
	inPhase bool
	maxLC   int
}

func NewLocation(codeBase, dataBase int) *Location {
	return &Location{
		cur: z80asm.SegAbs,
		segs: map[z80asm.Seg]*segState{
			z80asm.SegAbs:  {},
			z80asm.SegCode: {pc: codeBase, lc: codeBase},
			z80asm.SegData: {pc: dataBase, lc: dataBase},
		},
		kind:  z80asm.UpdateORG,
		maxLC: -1,
	}
}

func (l *Location) Seg() z80asm.Seg             { return l.cur }
func (l *Location) Select(seg z80asm.Seg)       { l.cur = seg }
func (l *Location) Kind() z80asm.UpdateKind     { return l.kind }
func (l *Location) state() *segState            { return l.segs[l.cur] }
func (l *Location) PC() z80asm.MachineAddress   { return z80asm.MachineAddress(l.state().pc) }
func (l *Location) LC() z80asm.MachineAddress   { return z80asm.MachineAddress(l.state().lc) }
func (l *Location) offset() int                 { s := l.state(); return s.pc - s.lc }

// Advance moves both counters past n emitted or reserved bytes.
func (l *Location) Advance(n int) {
	s := l.state()
	s.pc = (s.pc + n) & 0xFFFF
	s.lc = (s.lc + n) & 0xFFFF
	if s.lc-1 > l.maxLC {
		l.maxLC = s.lc - 1
	}
}

// setLoad moves the load counter and reports whether the move goes back
// under already-placed code, which is only safe in an update run.
func (l *Location) setLoad(lc int) (overwrite bool) {
	overwrite = l.maxLC >= 0 && lc <= l.maxLC
	l.state().lc = lc & 0xFFFF
	return overwrite
}

// OrgBoth is the common ORG: code runs where it loads.
func (l *Location) OrgBoth(addr int) (overwrite bool) {
	s := l.state()
	s.pc = addr & 0xFFFF
	overwrite = l.setLoad(addr)
	l.kind = z80asm.UpdateORG
	return overwrite
}

// OrgLoad moves only the load address, keeping the current offset
// between the two counters. MA's ORG and ZASM's LOAD work this way.
func (l *Location) OrgLoad(addr int, kind z80asm.UpdateKind) (overwrite bool) {
	off := l.offset()
	overwrite = l.setLoad(addr)
	l.state().pc = (addr + off) & 0xFFFF
	l.kind = kind
	return overwrite
}

// OrgLogical moves only the logical address; bytes keep landing at the
// current load address. ZASM's ORG works this way.
func (l *Location) OrgLogical(addr int) {
	l.state().pc = addr & 0xFFFF
	l.kind = z80asm.UpdateORG
}

// Borg moves the logical address and drags the load address along so
// the offset between them is preserved.
func (l *Location) Borg(addr int) (overwrite bool) {
	off := l.offset()
	l.state().pc = addr & 0xFFFF
	overwrite = l.setLoad(addr - off)
	l.kind = z80asm.UpdateBORG
	return overwrite
}

// Offset sets the distance between the logical and load counters; a
// bare OFFSET directive resets it to zero.
func (l *Location) Offset(n int, given bool) {
	s := l.state()
	if given {
		s.pc = (s.lc + n) & 0xFFFF
	} else {
		s.pc = s.lc
	}
	l.kind = z80asm.UpdateOFFSET
}

// Phase starts a block assembled to run at addr while loading at the
// current load address. Blocks do not nest.
func (l *Location) Phase(addr int, pos z80asm.Pos) error {
	if l.inPhase {
		return z80asm.Diag{Kind: z80asm.ErrPhaseNesting, Pos: pos, Msg: ".PHASE inside a phase block"}
	}
	l.inPhase = true
	l.state().pc = addr & 0xFFFF
	l.kind = z80asm.UpdatePHASE
	return nil
}

func (l *Location) Dephase(pos z80asm.Pos) error {
	if !l.inPhase {
		return z80asm.Diag{Kind: z80asm.ErrPhaseNesting, Pos: pos, Msg: ".DEPHASE without .PHASE"}
	}
	l.inPhase = false
	s := l.state()
	s.pc = s.lc
	l.kind = z80asm.UpdateDEPHASE
	return nil
}

// InPhase reports whether a phase block is open, which END treats as an
// error.
func (l *Location) InPhase() bool { return l.inPhase }
