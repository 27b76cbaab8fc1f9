// Package assembler is the multi-pass core: it parses a source tree
// once, replays the statements until every label has settled, then runs
// one more pass that emits bytes into the image and annotates the
// statements for the listing writers.
package assembler

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	z80asm "github.com/Memotech-Bill/Z80Asm"
	"github.com/golang/glog"
)

// maxPasses bounds the convergence loop. A source whose labels still
// move after this many passes is oscillating, not settling.
const maxPasses = 8

// Info carries everything an assembly run is configured with.
type Info struct {
	Style       z80asm.Style
	CPU         z80asm.CPU
	Permissive  bool
	MultiInc    bool
	IncludeDirs []string
	Defines     map[string]int

	CodeBase int
	DataBase int
	Fill     byte

	// Update is non-zero for an update run, which tolerates rewriting
	// addresses; the patch engine later merges the fresh image into the
	// old one under this scope.
	Update z80asm.ScopeSet

	// ListCond lists the untaken branches of conditionals unless a
	// .SFCOND in the source turns it back off.
	ListCond bool

	// Now is replaceable so the DATE and TIME directives are testable.
	Now   func() time.Time
	Build int

	Stdout io.Writer
}

// Result is everything one run produces.
type Result struct {
	Image    *z80asm.Image
	Syms     *SymTab
	Stmts    []Stmt
	Title    string
	Entry    z80asm.MachineAddress
	HasEntry bool
	Passes   int
}

// Assembler drives the passes over one parsed source tree.
type Assembler struct {
	Info
	Errs  z80asm.ErrorList
	Warns z80asm.ErrorList
	Syms  *SymTab

	now time.Time
}

func MakeAssembler(info Info) *Assembler {
	if info.Stdout == nil {
		info.Stdout = os.Stdout
	}
	if info.Now == nil {
		info.Now = time.Now
	}
	a := &Assembler{Info: info, Syms: NewSymTab(info.Style.CaseSensitive())}
	a.now = info.Now()
	return a
}

func (a *Assembler) newParser() *Parser {
	p := NewParser(a.Style, a.Permissive, &a.Errs)
	p.Lexer.Warns = &a.Warns
	p.IncludeDirs = a.IncludeDirs
	p.MultiInc = a.MultiInc
	return p
}

// AssembleFile assembles one source file and everything it includes.
func (a *Assembler) AssembleFile(path string) (*Result, error) {
	return a.run(a.newParser().ParseFile(path))
}

// AssembleSource assembles source text already in memory.
func (a *Assembler) AssembleSource(name, src string) (*Result, error) {
	return a.run(a.newParser().ParseSource(name, src))
}

func (a *Assembler) run(stmts []Stmt) (*Result, error) {
	res := &Result{Syms: a.Syms, Stmts: stmts}
	if a.Errs.Len() > 0 {
		return res, a.Errs.Err()
	}
	for name, val := range a.Defines {
		if err := a.Syms.Define(name, val, SymDefine, z80asm.SegAbs, z80asm.Pos{}); err != nil {
			a.Errs.Append(err)
		}
	}

	pass := 0
	for {
		pass++
		a.execPass(res, stmts, nil)
		glog.V(1).Infof("pass %d: dirty=%v", pass, a.Syms.Dirty())
		// The first pass defines everything for the first time, so
		// settling can only be judged from the second pass on.
		if pass >= 2 && !a.Syms.Dirty() {
			break
		}
		if pass >= maxPasses {
			a.Errs.Add(z80asm.ErrPhase, z80asm.Pos{},
				"symbol values failed to settle after %d passes", pass)
			return res, a.Errs.Err()
		}
	}

	img := z80asm.NewImage(a.Fill)
	a.execPass(res, stmts, img)
	if a.Syms.Dirty() {
		a.Errs.Add(z80asm.ErrPhase, z80asm.Pos{}, "symbol values moved while emitting")
	}
	res.Image = img
	res.Passes = pass + 1
	return res, a.Errs.Err()
}

// passState is the mutable state of one pass: the counters, the active
// CPU, the listing switches and the final flag. It is the EvalContext
// expressions see.
type passState struct {
	a     *Assembler
	img   *z80asm.Image
	loc   *Location
	cpu   z80asm.CPU
	final bool

	listOn   bool
	listCond bool
	ended    bool

	res *Result
}

func (st *passState) Lookup(name string) (int, bool) { return st.a.Syms.Lookup(name) }
func (st *passState) Here() int                      { return int(st.loc.PC()) }

// eval resolves an expression; before the final pass every problem,
// unresolved forward references included, quietly reads as zero so
// instruction lengths stay stable.
func (st *passState) eval(x Expr) (int, error) {
	if x == nil {
		return 0, nil
	}
	v, err := x.Eval(st)
	if err != nil {
		if !st.final {
			return 0, nil
		}
		return 0, err
	}
	return v, nil
}

// evalArg evaluates a directive argument, reporting problems on the
// final pass.
func (st *passState) evalArg(x Expr) int {
	v, err := st.eval(x)
	if err != nil {
		st.a.Errs.Append(err)
	}
	return v
}

func (a *Assembler) execPass(res *Result, stmts []Stmt, img *z80asm.Image) {
	a.Syms.BeginPass()
	a.Syms.SetCaseSensitive(a.Style.CaseSensitive())
	st := &passState{
		a:        a,
		img:      img,
		loc:      NewLocation(a.CodeBase, a.DataBase),
		cpu:      a.CPU,
		final:    img != nil,
		listOn:   true,
		listCond: a.ListCond,
		res:      res,
	}
	st.execBlock(stmts)
}

func (st *passState) execBlock(stmts []Stmt) {
	for _, stmt := range stmts {
		if st.ended {
			return
		}
		st.exec(stmt)
	}
}

func (st *passState) exec(stmt Stmt) {
	base := stmt.Base()
	if st.final {
		base.Addr = st.loc.PC()
		base.Load = st.loc.LC()
		base.Bytes = nil
		base.HasVal = false
		base.NoList = !st.listOn
	}
	if base.Label != "" {
		err := st.a.Syms.Define(base.Label, int(st.loc.PC()), SymLabel, st.loc.Seg(), base.At)
		if err != nil && st.final {
			st.a.Errs.Append(err)
		}
		if base.LabelPublic {
			st.a.Syms.MarkPublic(base.Label)
		}
	}

	switch s := stmt.(type) {
	case *EmptyStmt:

	case *InstrStmt:
		env := &encodeEnv{
			CPU:   st.cpu,
			PC:    int(st.loc.PC()),
			Final: st.final,
			Eval:  func(x Expr) (int, error) { return st.eval(x) },
		}
		b, err := encodeInstr(env, s)
		if err != nil {
			if st.final {
				st.a.Errs.Append(err)
			}
			return
		}
		st.emit(b, base)

	case *OrgStmt:
		st.execOrg(s)

	case *SegStmt:
		st.loc.Select(s.Seg)

	case *EquStmt:
		v := st.evalArg(s.Val)
		if err := st.a.Syms.Define(s.Name, v, SymEquate, st.loc.Seg(), s.At); err != nil && st.final {
			st.a.Errs.Append(err)
		}
		if st.final {
			base.Value = v
			base.HasVal = true
		}

	case *DataStmt:
		st.emit(st.dataBytes(s), base)

	case *ReserveStmt:
		st.loc.Advance(st.reserveLen(s))

	case *FillStmt:
		n := st.evalArg(s.Count)
		if n < 0 {
			if st.final {
				st.a.Errs.Add(z80asm.ErrEncoding, s.At, "negative fill count %d", n)
			}
			n = 0
		}
		v := byte(st.evalArg(s.Val))
		b := make([]byte, n)
		for i := range b {
			b[i] = v
		}
		st.emit(b, base)

	case *InsertStmt:
		st.emit(s.Data, base)

	case *CondStmt:
		st.execCond(s)

	case *ReptStmt:
		n := st.evalArg(s.Count)
		for i := 0; i < n; i++ {
			st.execBlock(s.Body)
		}

	case *IncludeStmt:
		st.execBlock(s.Body)

	case *EndStmt:
		if s.Entry != nil {
			st.res.Entry = z80asm.MachineAddress(st.evalArg(s.Entry))
			st.res.HasEntry = true
		}
		if st.final && st.loc.InPhase() {
			st.a.Errs.Add(z80asm.ErrPhaseNesting, s.At, "END inside a phase block")
		}
		st.ended = true

	case *ListStmt:
		switch s.Mode {
		case listOn:
			st.listOn = true
		case listOff:
			st.listOn = false
		case listCondOn:
			st.listCond = true
		case listCondOff:
			st.listCond = false
		case listCondFlip:
			st.listCond = !st.listCond
		}

	case *PrintStmt:
		st.execPrint(s)

	case *CPUStmt:
		st.cpu = s.CPU

	case *PublicStmt:
		for _, name := range s.Names {
			st.a.Syms.MarkPublic(name)
		}

	case *ExternStmt:
		for _, name := range s.Names {
			st.a.Syms.DeclareExtern(name, s.At)
		}

	case *EvalStmt:

	case *LabcaseStmt:
		st.a.Syms.SetCaseSensitive(s.Sensitive)

	case *ClockStmt:
		st.emit([]byte(st.clockText(s.Kind)), base)
	}
}

// emit writes bytes at the load counter and advances both counters.
// Only the final pass touches the image; the earlier ones just need the
// length.
func (st *passState) emit(b []byte, base *StmtBase) {
	if st.final {
		base.Bytes = b
		for k, v := range b {
			err := st.img.Put(st.loc.LC(), v, st.loc.Kind(), st.a.Update != 0)
			if err != nil {
				st.a.Errs.Append(err)
				// Skip over the unwritten remainder so later statements
				// still land at their proper addresses.
				st.loc.Advance(len(b) - k)
				return
			}
			st.loc.Advance(1)
		}
		return
	}
	st.loc.Advance(len(b))
}

func (st *passState) execOrg(s *OrgStmt) {
	v := st.evalArg(s.Addr)
	var overwrite bool
	var err error
	switch s.Kind {
	case z80asm.UpdateORG:
		switch {
		case s.LoadOnly:
			overwrite = st.loc.OrgLoad(v, z80asm.UpdateORG)
		case s.LogicalOnly:
			st.loc.OrgLogical(v)
		default:
			overwrite = st.loc.OrgBoth(v)
		}
	case z80asm.UpdateBORG:
		overwrite = st.loc.Borg(v)
	case z80asm.UpdateOFFSET:
		st.loc.Offset(v, s.Addr != nil)
	case z80asm.UpdatePHASE:
		err = st.loc.Phase(v, s.At)
	case z80asm.UpdateDEPHASE:
		err = st.loc.Dephase(s.At)
	case z80asm.UpdateLOAD:
		overwrite = st.loc.OrgLoad(v, z80asm.UpdateLOAD)
	}
	if !st.final {
		return
	}
	if err != nil {
		st.a.Errs.Append(err)
	}
	if overwrite && st.a.Update == 0 {
		st.a.Warns.Add(z80asm.ErrSegmentOverlap, s.At, "potential overwrite of previous code")
	}
}

func (st *passState) dataBytes(s *DataStmt) []byte {
	var out []byte
	for _, item := range s.Items {
		if item.IsStr {
			out = append(out, st.stringBytes(s, item.Str)...)
			continue
		}
		v, err := st.eval(item.X)
		if err != nil {
			st.a.Errs.Append(err)
			v = 0
		}
		switch s.Kind {
		case dataDW:
			st.checkWord(v, s.At)
			out = append(out, byte(v), byte(v>>8))
		case dataDD:
			out = append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		default:
			st.checkByte(v, s.At)
			out = append(out, byte(v))
		}
	}
	if s.Kind == dataDZ {
		out = append(out, 0)
	}
	return out
}

func (st *passState) stringBytes(s *DataStmt, text string) []byte {
	b := []byte(text)
	switch s.Kind {
	case dataDC:
		if len(b) > 0 {
			b[len(b)-1] |= 0x80
		}
	case dataDW, dataDD:
		if len(b) <= 2 {
			v := 0
			for _, c := range b {
				v = v<<8 | int(c)
			}
			if s.Kind == dataDW {
				return []byte{byte(v), byte(v >> 8)}
			}
			return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
		}
		if st.final {
			st.a.Errs.Add(z80asm.ErrEncoding, s.At, "string %q too long for a word", text)
		}
		return nil
	}
	return b
}

func (st *passState) checkByte(v int, at z80asm.Pos) {
	if st.final && !(v > -0x80 && v <= 0xFF || v >= 0xFF00 && v <= 0xFFFF) {
		st.a.Errs.Add(z80asm.ErrEncoding, at, "%d does not fit in 8 bits", v)
	}
}

func (st *passState) checkWord(v int, at z80asm.Pos) {
	if st.final && (v < -0x8000 || v > 0xFFFF) {
		st.a.Errs.Add(z80asm.ErrEncoding, at, "%d does not fit in 16 bits", v)
	}
}

func (st *passState) reserveLen(s *ReserveStmt) int {
	n := st.evalArg(s.Count)
	switch s.Kind {
	case resWORD:
		n *= 2
	case resALIGN:
		if n > 0 {
			pc := int(st.loc.PC())
			return (n - pc%n) % n
		}
		n = 0
	}
	if n < 0 {
		if st.final {
			st.a.Errs.Add(z80asm.ErrEncoding, s.At, "negative reservation %d", n)
		}
		n = 0
	}
	return n
}

func (st *passState) execCond(s *CondStmt) {
	var truth bool
	if s.DefCheck != "" {
		_, truth = st.a.Syms.Lookup(s.DefCheck)
	} else {
		truth = st.evalArg(s.Test) != 0
	}
	if s.Neg {
		truth = !truth
	}
	taken, skipped := s.Then, s.Else
	if !truth {
		taken, skipped = s.Else, s.Then
	}
	if st.final && !st.listCond {
		markUnlisted(skipped)
	}
	st.execBlock(taken)
}

func markUnlisted(stmts []Stmt) {
	for _, stmt := range stmts {
		stmt.Base().NoList = true
		switch s := stmt.(type) {
		case *CondStmt:
			markUnlisted(s.Then)
			markUnlisted(s.Else)
		case *ReptStmt:
			markUnlisted(s.Body)
		case *IncludeStmt:
			markUnlisted(s.Body)
		}
	}
}

func (st *passState) execPrint(s *PrintStmt) {
	if !st.final {
		return
	}
	switch s.Kind {
	case printTitle:
		if len(s.Items) > 0 {
			st.res.Title = s.Items[0].Str
		}
	case printError:
		msg := ""
		if len(s.Items) > 0 {
			msg = s.Items[0].Str
		}
		st.a.Errs.Add(z80asm.ErrUser, s.At, "%s", msg)
	default:
		for i, item := range s.Items {
			if i > 0 {
				fmt.Fprint(st.a.Stdout, " ")
			}
			if item.IsStr {
				fmt.Fprint(st.a.Stdout, item.Str)
			} else {
				fmt.Fprintf(st.a.Stdout, "0x%04X", st.evalArg(item.X)&0xFFFF)
			}
		}
		fmt.Fprintln(st.a.Stdout)
	}
}

func (st *passState) clockText(kind clockKind) string {
	switch kind {
	case clockDate:
		return st.a.now.Format("02 Jan 2006")
	case clockTime:
		return st.a.now.Format("15:04:05")
	}
	return strconv.Itoa(st.a.Build)
}
