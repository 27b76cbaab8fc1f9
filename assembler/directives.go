package assembler

import (
	"strings"

	z80asm "github.com/Memotech-Bill/Z80Asm"
)

type styleMask uint8

const (
	maskMA styleMask = 1 << iota
	maskM80
	maskPASMO
	maskZASM
	maskAll = maskMA | maskM80 | maskPASMO | maskZASM
)

func maskOf(style z80asm.Style) styleMask {
	switch style {
	case z80asm.StyleMA:
		return maskMA
	case z80asm.StyleM80:
		return maskM80
	case z80asm.StylePASMO:
		return maskPASMO
	case z80asm.StyleZASM:
		return maskZASM
	}
	return 0
}

// directive is one entry of the dispatch table: which dialects spell
// it, and how to parse the rest of the line (and, for block directives,
// the following lines).
type directive struct {
	styles styleMask
	parse  func(p *Parser, c *cursor, base StmtBase, r *lineReader) Stmt
}

func (d directive) allows(s z80asm.Style) bool { return d.styles&maskOf(s) != 0 }

var directives map[string]directive

func init() {
	directives = map[string]directive{
		"ORG":     {maskAll, parseOrg},
		"BORG":    {maskMA, parseBorg},
		"OFFSET":  {maskMA, parseOffset},
		"PHASE":   {maskM80 | maskPASMO, parsePhase},
		"DEPHASE": {maskM80 | maskPASMO, parseDephase},
		"LOAD":    {maskZASM, parseLoad},

		"ASEG": {maskAll, segDirective(z80asm.SegAbs)},
		"CSEG": {maskAll, segDirective(z80asm.SegCode)},
		"DSEG": {maskAll, segDirective(z80asm.SegData)},

		"DB":   {maskAll, dataDirective(dataDB)},
		"DEFB": {maskAll, dataDirective(dataDB)},
		"DM":   {maskAll, dataDirective(dataDB)},
		"DEFM": {maskAll, dataDirective(dataDB)},
		"DC":   {maskAll, dataDirective(dataDC)},
		"DEFC": {maskAll, dataDirective(dataDC)},
		"DZ":   {maskAll, dataDirective(dataDZ)},
		"DEFZ": {maskAll, dataDirective(dataDZ)},
		"DW":   {maskAll, dataDirective(dataDW)},
		"DEFW": {maskAll, dataDirective(dataDW)},
		"DD":   {maskAll, dataDirective(dataDD)},
		"DEFD": {maskAll, dataDirective(dataDD)},
		"EQUD": {maskAll, dataDirective(dataDD)},

		"DS":   {maskAll, parseDS},
		"DEFS": {maskAll, parseDS},

		"BYTE":  {maskAll, reserveDirective(resBYTE)},
		"WORD":  {maskAll, reserveDirective(resWORD)},
		"ALIGN": {maskAll, reserveDirective(resALIGN)},
		"ZERO":  {maskAll, parseZero},
		"FILL":  {maskAll, parseFill},

		"INSERT": {maskAll, parseInsert},
		"INCBIN": {maskAll, parseInsert},

		"INCLUDE": {maskAll, parseInclude},

		"IF":    {maskAll, condDirective(false, false)},
		"IFT":   {maskAll, condDirective(false, false)},
		"COND":  {maskAll, condDirective(false, false)},
		"IFF":   {maskAll, condDirective(true, false)},
		"IFNOT": {maskAll, condDirective(true, false)},
		"IFDEF": {maskAll, condDirective(false, true)},

		"REPT": {maskAll, parseRept},

		"END": {maskAll, parseEnd},

		"LIST":   {maskAll, listDirective(listOn)},
		"NOLIST": {maskAll, listDirective(listOff)},
		"XLIST":  {maskAll, listDirective(listOff)},
		"LFCOND": {maskAll, listDirective(listCondOn)},
		"SFCOND": {maskAll, listDirective(listCondOff)},
		"TFCOND": {maskAll, listDirective(listCondFlip)},

		"NAME":   {maskAll, titleDirective},
		"NAMEX":  {maskAll, titleDirective},
		"TITLE":  {maskAll, titleDirective},
		"PRINTX": {maskAll, printDirective(printText)},
		"PRINTF": {maskAll, printDirective(printExprs)},
		"ERROR":  {maskAll, printDirective(printError)},

		"COMMENT": {maskAll, parseComment},

		"DATE":  {maskAll, clockDirective(clockDate)},
		"TIME":  {maskAll, clockDirective(clockTime)},
		"BUILD": {maskAll, clockDirective(clockBuild)},

		"8080": {maskAll, cpuDirective(z80asm.CPU8080)},
		"Z80":  {maskAll, cpuDirective(z80asm.CPUZ80)},
		"Z180": {maskAll, cpuDirective(z80asm.CPUZ180)},

		"EXT":    {maskAll, parseExtern},
		"EXTRN":  {maskAll, parseExtern},
		"ENTRY":  {maskAll, parsePublic},
		"PUBLIC": {maskAll, parsePublic},

		"EVAL":    {maskAll, parseEval},
		"LABCASE": {maskAll, parseLabcase},
	}
}

func (p *Parser) exprArg(c *cursor) Expr {
	x, err := parseExpr(c, p.simple)
	if err != nil {
		p.Errs.Append(err)
		return nil
	}
	return x
}

func parseOrg(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	stmt := &OrgStmt{StmtBase: base, Kind: z80asm.UpdateORG, Addr: p.exprArg(c)}
	switch p.Spec.Name {
	case z80asm.StyleMA:
		stmt.LoadOnly = true
	case z80asm.StyleZASM:
		stmt.LogicalOnly = true
	}
	p.wantLineEnd(c)
	return stmt
}

func parseBorg(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	stmt := &OrgStmt{StmtBase: base, Kind: z80asm.UpdateBORG, Addr: p.exprArg(c)}
	p.wantLineEnd(c)
	return stmt
}

func parseOffset(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	stmt := &OrgStmt{StmtBase: base, Kind: z80asm.UpdateOFFSET}
	if !c.atEnd() {
		stmt.Addr = p.exprArg(c)
		p.wantLineEnd(c)
	}
	return stmt
}

func parsePhase(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	stmt := &OrgStmt{StmtBase: base, Kind: z80asm.UpdatePHASE, Addr: p.exprArg(c)}
	p.wantLineEnd(c)
	return stmt
}

func parseDephase(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	p.wantLineEnd(c)
	return &OrgStmt{StmtBase: base, Kind: z80asm.UpdateDEPHASE}
}

func parseLoad(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	stmt := &OrgStmt{StmtBase: base, Kind: z80asm.UpdateLOAD, Addr: p.exprArg(c), LoadOnly: true}
	p.wantLineEnd(c)
	return stmt
}

func segDirective(seg z80asm.Seg) func(*Parser, *cursor, StmtBase, *lineReader) Stmt {
	return func(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
		p.wantLineEnd(c)
		return &SegStmt{StmtBase: base, Seg: seg}
	}
}

// itemList parses the comma list of a data directive: strings and
// expressions mixed freely.
func (p *Parser) itemList(c *cursor) []DataItem {
	var items []DataItem
	for {
		if t := c.peek(); t.Kind == STRING && (c.i+1 >= len(c.toks) || c.toks[c.i+1].Kind == COMMA) {
			c.next()
			items = append(items, DataItem{Str: t.Text, IsStr: true})
		} else if x := p.exprArg(c); x != nil {
			items = append(items, DataItem{X: x})
		} else {
			return items
		}
		if c.peek().Kind != COMMA {
			break
		}
		c.next()
	}
	p.wantLineEnd(c)
	return items
}

func dataDirective(kind dataKind) func(*Parser, *cursor, StmtBase, *lineReader) Stmt {
	return func(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
		return &DataStmt{StmtBase: base, Kind: kind, Items: p.itemList(c)}
	}
}

// parseDS follows the dialect split: M80 and PASMO reserve space (with
// an optional fill value), MA and ZASM define string data.
func parseDS(p *Parser, c *cursor, base StmtBase, r *lineReader) Stmt {
	if !p.Spec.DSReserves {
		return dataDirective(dataDB)(p, c, base, r)
	}
	count := p.exprArg(c)
	if c.peek().Kind == COMMA {
		c.next()
		val := p.exprArg(c)
		p.wantLineEnd(c)
		return &FillStmt{StmtBase: base, Count: count, Val: val}
	}
	p.wantLineEnd(c)
	return &ReserveStmt{StmtBase: base, Kind: resDS, Count: count}
}

func reserveDirective(kind reserveKind) func(*Parser, *cursor, StmtBase, *lineReader) Stmt {
	return func(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
		stmt := &ReserveStmt{StmtBase: base, Kind: kind, Count: p.exprArg(c)}
		p.wantLineEnd(c)
		return stmt
	}
}

func parseZero(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	stmt := &FillStmt{StmtBase: base, Count: p.exprArg(c)}
	p.wantLineEnd(c)
	return stmt
}

func parseFill(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	stmt := &FillStmt{StmtBase: base, Count: p.exprArg(c)}
	if c.peek().Kind == COMMA {
		c.next()
		stmt.Val = p.exprArg(c)
	}
	p.wantLineEnd(c)
	return stmt
}

func parseInsert(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	name := p.fileArg(c)
	full := p.resolveInclude(base.At.File, name)
	data, err := p.ReadFile(full)
	if err != nil {
		p.Errs.Add(z80asm.ErrParse, base.At, "cannot read %s: %v", name, err)
	}
	return &InsertStmt{StmtBase: base, Path: full, Data: data}
}

func parseInclude(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	return p.include(base, p.fileArg(c))
}

// fileArg accepts a quoted or a bare file name.
func (p *Parser) fileArg(c *cursor) string {
	if t := c.peek(); t.Kind == STRING {
		c.next()
		return t.Text
	}
	var sb strings.Builder
	for !c.atEnd() {
		sb.WriteString(c.next().Text)
	}
	return sb.String()
}

func condDirective(neg, defCheck bool) func(*Parser, *cursor, StmtBase, *lineReader) Stmt {
	return func(p *Parser, c *cursor, base StmtBase, r *lineReader) Stmt {
		stmt := &CondStmt{StmtBase: base, Neg: neg}
		if defCheck {
			if t := c.next(); t.Kind == IDENT {
				stmt.DefCheck = t.Text
			} else {
				p.Errs.Add(z80asm.ErrParse, t.Pos, "IFDEF needs a symbol name")
			}
		} else {
			stmt.Test = p.exprArg(c)
		}
		p.wantLineEnd(c)
		then, term := p.parseBlock(r, []string{"ELSE", "ENDIF", "ENDC"})
		stmt.Then = then
		if term == "ELSE" {
			stmt.Else, term = p.parseBlock(r, []string{"ENDIF", "ENDC"})
		}
		if term == "" {
			p.Errs.Add(z80asm.ErrParse, base.At, "conditional without ENDIF")
		}
		return stmt
	}
}

func parseRept(p *Parser, c *cursor, base StmtBase, r *lineReader) Stmt {
	stmt := &ReptStmt{StmtBase: base, Count: p.exprArg(c)}
	p.wantLineEnd(c)
	body, term := p.parseBlock(r, []string{"ENDM"})
	stmt.Body = body
	if term == "" {
		p.Errs.Add(z80asm.ErrParse, base.At, "REPT without ENDM")
	}
	return stmt
}

func parseEnd(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	stmt := &EndStmt{StmtBase: base}
	if !c.atEnd() {
		stmt.Entry = p.exprArg(c)
		p.wantLineEnd(c)
	}
	return stmt
}

func listDirective(mode listMode) func(*Parser, *cursor, StmtBase, *lineReader) Stmt {
	return func(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
		return &ListStmt{StmtBase: base, Mode: mode}
	}
}

func titleDirective(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	text := p.fileArg(c)
	text = strings.Trim(text, "()")
	return &PrintStmt{StmtBase: base, Kind: printTitle, Items: []DataItem{{Str: text, IsStr: true}}}
}

func printDirective(kind printKind) func(*Parser, *cursor, StmtBase, *lineReader) Stmt {
	return func(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
		if kind == printText || kind == printError {
			// The whole rest of the line is the message.
			text := restOfLine(base.Raw, c)
			return &PrintStmt{StmtBase: base, Kind: kind, Items: []DataItem{{Str: text, IsStr: true}}}
		}
		return &PrintStmt{StmtBase: base, Kind: kind, Items: p.itemList(c)}
	}
}

func restOfLine(raw string, c *cursor) string {
	if c.atEnd() {
		return ""
	}
	col := c.peek().Pos.Col
	if col > 0 && col <= len(raw) {
		text := raw[col-1:]
		if i := strings.IndexByte(text, ';'); i >= 0 {
			text = text[:i]
		}
		return strings.TrimSpace(text)
	}
	return ""
}

// parseComment consumes a block comment: everything up to the next
// occurrence of the delimiter character that follows the directive.
func parseComment(p *Parser, c *cursor, base StmtBase, r *lineReader) Stmt {
	text := restOfLine(base.Raw, c)
	c.i = len(c.toks)
	if text == "" {
		return &EmptyStmt{StmtBase: base}
	}
	delim := text[0]
	if strings.IndexByte(text[1:], delim) >= 0 {
		return &EmptyStmt{StmtBase: base}
	}
	for {
		line, _, ok := r.next()
		if !ok {
			p.Errs.Add(z80asm.ErrParse, base.At, "unterminated .COMMENT block")
			return &EmptyStmt{StmtBase: base}
		}
		if strings.IndexByte(line, delim) >= 0 {
			return &EmptyStmt{StmtBase: base}
		}
	}
}

func clockDirective(kind clockKind) func(*Parser, *cursor, StmtBase, *lineReader) Stmt {
	return func(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
		p.wantLineEnd(c)
		return &ClockStmt{StmtBase: base, Kind: kind}
	}
}

func cpuDirective(cpu z80asm.CPU) func(*Parser, *cursor, StmtBase, *lineReader) Stmt {
	return func(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
		p.wantLineEnd(c)
		return &CPUStmt{StmtBase: base, CPU: cpu}
	}
}

func (p *Parser) nameList(c *cursor) []string {
	var names []string
	for {
		t := c.next()
		if t.Kind != IDENT {
			p.Errs.Add(z80asm.ErrParse, t.Pos, "expected a symbol name")
			return names
		}
		names = append(names, t.Text)
		if c.peek().Kind != COMMA {
			break
		}
		c.next()
	}
	p.wantLineEnd(c)
	return names
}

func parseExtern(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	return &ExternStmt{StmtBase: base, Names: p.nameList(c)}
}

func parsePublic(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	return &PublicStmt{StmtBase: base, Names: p.nameList(c)}
}

func parseEval(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	t := c.next()
	switch dirKey(t.Text) {
	case "SIMPLE":
		p.simple = true
	case "FULL":
		p.simple = false
	default:
		p.Errs.Add(z80asm.ErrParse, t.Pos, "EVAL expects SIMPLE or FULL")
	}
	p.wantLineEnd(c)
	return &EvalStmt{StmtBase: base, Simple: p.simple}
}

func parseLabcase(p *Parser, c *cursor, base StmtBase, _ *lineReader) Stmt {
	t := c.next()
	on := dirKey(t.Text) == "ON"
	if !on && dirKey(t.Text) != "OFF" {
		p.Errs.Add(z80asm.ErrParse, t.Pos, "LABCASE expects ON or OFF")
	}
	p.wantLineEnd(c)
	return &LabcaseStmt{StmtBase: base, Sensitive: on}
}
