package assembler

import (
	"os"
	"path/filepath"
	"strings"

	z80asm "github.com/Memotech-Bill/Z80Asm"
	"github.com/golang/glog"
)

// Parser turns source files into statement lists. Files are parsed once
// and the statements are replayed every pass, so everything that can be
// decided from the text alone is decided here.
type Parser struct {
	Spec        StyleSpec
	Lexer       Lexer
	Errs        *z80asm.ErrorList
	IncludeDirs []string
	MultiInc    bool

	// ReadFile is replaceable so tests can feed sources from memory.
	ReadFile func(string) ([]byte, error)

	simple bool
	visits map[string]int
}

func NewParser(style z80asm.Style, permissive bool, errs *z80asm.ErrorList) *Parser {
	spec := SpecFor(style)
	return &Parser{
		Spec:     spec,
		Lexer:    Lexer{Spec: spec, Permissive: permissive},
		Errs:     errs,
		ReadFile: os.ReadFile,
		simple:   spec.SimpleEval,
		visits:   make(map[string]int),
	}
}

type lineReader struct {
	file  string
	lines []string
	i     int
}

func (r *lineReader) next() (string, int, bool) {
	if r.i >= len(r.lines) {
		return "", 0, false
	}
	r.i++
	return r.lines[r.i-1], r.i, true
}

// ParseFile reads and parses one source file, following includes.
func (p *Parser) ParseFile(path string) []Stmt {
	data, err := p.ReadFile(path)
	if err != nil {
		p.Errs.Add(z80asm.ErrParse, z80asm.Pos{File: path}, "cannot read source: %v", err)
		return nil
	}
	return p.ParseSource(path, string(data))
}

// ParseSource parses source text already in memory.
func (p *Parser) ParseSource(path, src string) []Stmt {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	r := &lineReader{file: path, lines: strings.Split(src, "\n")}
	stmts, term := p.parseBlock(r, nil)
	if term != "" {
		p.Errs.Add(z80asm.ErrParse, z80asm.Pos{File: path, Line: r.i}, "%s without an opening block", term)
		rest, _ := p.parseBlock(r, nil)
		stmts = append(stmts, rest...)
	}
	return stmts
}

// parseBlock parses statements until one of the terminator words or the
// end of the file. It returns the terminator it stopped on, "" at end
// of file.
func (p *Parser) parseBlock(r *lineReader, terminators []string) ([]Stmt, string) {
	var stmts []Stmt
	for {
		line, lineNo, ok := r.next()
		if !ok {
			return stmts, ""
		}
		pos := z80asm.Pos{File: r.file, Line: lineNo}
		toks := p.Lexer.Line(pos, line, p.Errs)
		if term := blockTerminator(toks, terminators); term != "" {
			return stmts, term
		}
		stmt := p.parseLine(r, pos, line, toks)
		if stmt != nil {
			stmts = append(stmts, stmt)
			if _, end := stmt.(*EndStmt); end {
				// END stops assembly of the file; the remainder is
				// not even parsed.
				r.i = len(r.lines)
				return stmts, ""
			}
		}
	}
}

func blockTerminator(toks []Token, terminators []string) string {
	if len(toks) == 0 || toks[0].Kind != IDENT {
		return ""
	}
	word := dirKey(toks[0].Text)
	for _, t := range terminators {
		if word == t {
			return t
		}
	}
	return ""
}

// dirKey normalizes a directive spelling: case folded, one leading dot
// stripped, so .PHASE and PHASE dispatch alike.
func dirKey(word string) string {
	return strings.TrimPrefix(strings.ToUpper(word), ".")
}

var equWords = map[string]bool{"EQU": true, "DEFL": true, "ASET": true}

func (p *Parser) parseLine(r *lineReader, pos z80asm.Pos, raw string, toks []Token) Stmt {
	base := StmtBase{Raw: raw, At: pos}
	if len(toks) == 0 {
		return &EmptyStmt{StmtBase: base}
	}
	c := &cursor{toks: toks, end: pos}

	// Label forms: MA's dot label in column one, name: / name::, and a
	// bare name in front of an EQU-family directive.
	if t := c.peek(); t.Kind == IDENT {
		switch {
		case p.Spec.DotLabels && strings.HasPrefix(t.Text, ".") && t.Pos.Col == 1:
			c.next()
			base.Label = strings.TrimPrefix(t.Text, ".")
			base.LabelPublic = true
		case len(toks) > 1 && toks[1].Kind == COLON:
			c.next()
			c.next()
			base.Label = t.Text
			if c.peek().Kind == COLON {
				c.next()
				base.LabelPublic = true
			}
		case len(toks) > 1 && toks[1].Kind == IDENT && equWords[dirKey(toks[1].Text)]:
			c.next()
			base.Label = t.Text
		}
	}
	if c.atEnd() {
		return &EmptyStmt{StmtBase: base}
	}

	word := c.next()
	if word.Kind != IDENT {
		p.Errs.Add(z80asm.ErrParse, word.Pos, "expected a mnemonic or directive, found %s", word.Kind)
		return &EmptyStmt{StmtBase: base}
	}
	key := dirKey(word.Text)

	if equWords[key] {
		return p.parseEqu(c, base, key)
	}
	if dir, ok := directives[key]; ok && dir.allows(p.Spec.Name) {
		return dir.parse(p, c, base, r)
	}
	return p.parseInstr(c, base, word)
}

func (p *Parser) parseEqu(c *cursor, base StmtBase, key string) Stmt {
	if base.Label == "" {
		p.Errs.Add(z80asm.ErrParse, base.At, "%s needs a name", key)
		return &EmptyStmt{StmtBase: base}
	}
	val, err := parseExpr(c, p.simple)
	if err != nil {
		p.Errs.Append(err)
		return &EmptyStmt{StmtBase: base}
	}
	p.wantLineEnd(c)
	name := base.Label
	base.Label = "" // an equate is a value, not an address label
	return &EquStmt{StmtBase: base, Name: name, Val: val, Redefinable: key != "EQU"}
}

func (p *Parser) parseInstr(c *cursor, base StmtBase, word Token) Stmt {
	stmt := &InstrStmt{StmtBase: base, Mnemonic: strings.ToUpper(word.Text)}
	if c.atEnd() {
		return stmt
	}
	for {
		arg := p.operandTokens(c)
		op, err := p.classifyOperand(arg, word.Pos)
		if err != nil {
			p.Errs.Append(err)
			return stmt
		}
		stmt.Args = append(stmt.Args, op)
		if c.peek().Kind != COMMA {
			break
		}
		c.next()
	}
	p.wantLineEnd(c)
	glog.V(2).Infof("%s: %s with %d operand(s)", base.At, stmt.Mnemonic, len(stmt.Args))
	return stmt
}

// operandTokens collects one operand: everything up to a comma outside
// parentheses.
func (p *Parser) operandTokens(c *cursor) []Token {
	var toks []Token
	depth := 0
	for !c.atEnd() {
		t := c.peek()
		if t.Kind == COMMA && depth == 0 {
			break
		}
		switch t.Kind {
		case LPAREN:
			depth++
		case RPAREN:
			depth--
		}
		toks = append(toks, c.next())
	}
	return toks
}

var indexRegs = map[string]bool{"IX": true, "IY": true}

// classifyOperand decides the shape of one operand. The meaning of the
// shape is the encoder's business; here C and NC are just names.
func (p *Parser) classifyOperand(toks []Token, at z80asm.Pos) (Operand, error) {
	if len(toks) == 0 {
		return Operand{}, z80asm.Diag{Kind: z80asm.ErrParse, Pos: at, Msg: "missing operand"}
	}
	op := Operand{At: toks[0].Pos}
	if len(toks) == 1 && toks[0].Kind == IDENT {
		op.Text = strings.ToUpper(toks[0].Text)
		op.X = &SymExpr{Name: toks[0].Text, At: toks[0].Pos}
		return op, nil
	}
	if toks[0].Kind == LPAREN && closesAtEnd(toks) {
		inner := toks[1 : len(toks)-1]
		if len(inner) == 1 && inner[0].Kind == IDENT {
			op.Ind = true
			op.Reg = strings.ToUpper(inner[0].Text)
			return op, nil
		}
		if len(inner) > 1 && inner[0].Kind == IDENT && indexRegs[strings.ToUpper(inner[0].Text)] &&
			(inner[1].Kind == PLUS || inner[1].Kind == MINUS) {
			op.Ind = true
			op.Reg = strings.ToUpper(inner[0].Text)
			ic := &cursor{toks: inner[1:], end: at}
			disp, err := parseExpr(ic, p.simple)
			if err != nil {
				return op, err
			}
			if !ic.atEnd() {
				return op, z80asm.Diag{Kind: z80asm.ErrParse, Pos: ic.peek().Pos, Msg: "trailing tokens in displacement"}
			}
			op.Disp = disp
			return op, nil
		}
		op.Ind = true
		ic := &cursor{toks: inner, end: at}
		x, err := parseExpr(ic, p.simple)
		if err != nil {
			return op, err
		}
		if !ic.atEnd() {
			return op, z80asm.Diag{Kind: z80asm.ErrParse, Pos: ic.peek().Pos, Msg: "trailing tokens in operand"}
		}
		op.X = x
		return op, nil
	}
	ic := &cursor{toks: toks, end: at}
	x, err := parseExpr(ic, p.simple)
	if err != nil {
		return op, err
	}
	if !ic.atEnd() {
		return op, z80asm.Diag{Kind: z80asm.ErrParse, Pos: ic.peek().Pos, Msg: "trailing tokens in operand"}
	}
	op.X = x
	return op, nil
}

// closesAtEnd reports whether the opening parenthesis wraps the whole
// operand, which separates indirect (addr) from an expression like
// (2+3)*4.
func closesAtEnd(toks []Token) bool {
	depth := 0
	for i, t := range toks {
		switch t.Kind {
		case LPAREN:
			depth++
		case RPAREN:
			depth--
			if depth == 0 {
				return i == len(toks)-1
			}
		}
	}
	return false
}

func (p *Parser) wantLineEnd(c *cursor) {
	if !c.atEnd() {
		t := c.peek()
		p.Errs.Add(z80asm.ErrParse, t.Pos, "unexpected %s after statement", t.Kind)
	}
}

// resolveInclude finds an included file: as written, against each
// include directory, with the dialect's default extension tried when
// the name has none.
func (p *Parser) resolveInclude(from, name string) string {
	var names []string
	if filepath.Ext(name) == "" && p.Spec.Name.DefaultExt() != "" {
		names = []string{name, name + p.Spec.Name.DefaultExt()}
	} else {
		names = []string{name}
	}
	dirs := append([]string{filepath.Dir(from)}, p.IncludeDirs...)
	for _, n := range names {
		if filepath.IsAbs(n) {
			return n
		}
		for _, d := range dirs {
			full := filepath.Join(d, n)
			if _, err := os.Stat(full); err == nil {
				return full
			}
		}
	}
	return filepath.Join(filepath.Dir(from), names[0])
}

// include parses a file referenced by INCLUDE. A file already seen is
// spliced only once unless multiple inclusion was asked for.
func (p *Parser) include(base StmtBase, name string) Stmt {
	full := p.resolveInclude(base.At.File, name)
	clean := filepath.Clean(full)
	p.visits[clean]++
	if p.visits[clean] > 1 && !p.MultiInc {
		glog.V(1).Infof("%s: skipping repeated include of %s", base.At, name)
		return &IncludeStmt{StmtBase: base, Path: full}
	}
	return &IncludeStmt{StmtBase: base, Path: full, Body: p.ParseFile(full)}
}
