package assembler

import (
	"strings"

	z80asm "github.com/Memotech-Bill/Z80Asm"
)

// EvalContext supplies the values an expression can reference: the
// symbol table and the current logical program counter for '$'.
type EvalContext interface {
	Lookup(name string) (int, bool)
	Here() int
}

// Expr is a parsed constant expression. It is built once and evaluated
// on every pass, so forward references settle as the passes converge.
type Expr interface {
	Eval(ctx EvalContext) (int, error)
	Pos() z80asm.Pos
}

type NumExpr struct {
	Val  int
	Base byte
	At   z80asm.Pos
}

type SymExpr struct {
	Name string
	At   z80asm.Pos
}

type StrExpr struct {
	Text string
	Val  int
	At   z80asm.Pos
}

type UnaryExpr struct {
	Op exprOp
	X  Expr
	At z80asm.Pos
}

type BinExpr struct {
	Op   exprOp
	L, R Expr
	At   z80asm.Pos
}

func (e *NumExpr) Pos() z80asm.Pos   { return e.At }
func (e *SymExpr) Pos() z80asm.Pos   { return e.At }
func (e *StrExpr) Pos() z80asm.Pos   { return e.At }
func (e *UnaryExpr) Pos() z80asm.Pos { return e.At }
func (e *BinExpr) Pos() z80asm.Pos   { return e.At }

func (e *NumExpr) Eval(EvalContext) (int, error) { return e.Val, nil }
func (e *StrExpr) Eval(EvalContext) (int, error) { return e.Val, nil }

func (e *SymExpr) Eval(ctx EvalContext) (int, error) {
	if e.Name == "$" {
		return ctx.Here(), nil
	}
	if v, ok := ctx.Lookup(e.Name); ok {
		return v, nil
	}
	return 0, z80asm.Diag{Kind: z80asm.ErrUnresolvedSym, Pos: e.At, Msg: e.Name}
}

func (e *UnaryExpr) Eval(ctx EvalContext) (int, error) {
	v, err := e.X.Eval(ctx)
	if err != nil {
		return 0, err
	}
	switch e.Op {
	case opAdd:
		return v, nil
	case opSub:
		return -v, nil
	case opNot:
		return ^v, nil
	case opHigh:
		return (v >> 8) & 0xFF, nil
	case opLow:
		return v & 0xFF, nil
	case opLog2:
		if v <= 0 {
			return 0, z80asm.Diag{Kind: z80asm.ErrParse, Pos: e.At, Msg: "LOG2 of a value that is not positive"}
		}
		n := 0
		for v > 1 {
			v >>= 1
			n++
		}
		return n, nil
	}
	return 0, z80asm.Diag{Kind: z80asm.ErrParse, Pos: e.At, Msg: "invalid unary operator"}
}

func (e *BinExpr) Eval(ctx EvalContext) (int, error) {
	l, err := e.L.Eval(ctx)
	if err != nil {
		return 0, err
	}
	r, err := e.R.Eval(ctx)
	if err != nil {
		return 0, err
	}
	truth := func(b bool) int {
		if b {
			return 0xFFFF
		}
		return 0
	}
	switch e.Op {
	case opAdd:
		return l + r, nil
	case opSub:
		return l - r, nil
	case opMul:
		return l * r, nil
	case opDiv:
		if r == 0 {
			return 0, z80asm.Diag{Kind: z80asm.ErrParse, Pos: e.At, Msg: "division by zero"}
		}
		return l / r, nil
	case opMod:
		if r == 0 {
			return 0, z80asm.Diag{Kind: z80asm.ErrParse, Pos: e.At, Msg: "division by zero"}
		}
		return l % r, nil
	case opShl:
		if r < 0 || r > 15 {
			return 0, nil
		}
		return (l << uint(r)) & 0xFFFF, nil
	case opShr:
		if r < 0 || r > 15 {
			return 0, nil
		}
		return (l & 0xFFFF) >> uint(r), nil
	case opAnd:
		return l & r, nil
	case opOr:
		return l | r, nil
	case opXor:
		return l ^ r, nil
	case opEq:
		return truth(l == r), nil
	case opNe:
		return truth(l != r), nil
	case opLt:
		return truth(l < r), nil
	case opLe:
		return truth(l <= r), nil
	case opGt:
		return truth(l > r), nil
	case opGe:
		return truth(l >= r), nil
	}
	return 0, z80asm.Diag{Kind: z80asm.ErrParse, Pos: e.At, Msg: "invalid operator"}
}

type exprOp int

const (
	opNone exprOp = iota
	opAdd
	opSub
	opMul
	opDiv
	opMod
	opShl
	opShr
	opAnd
	opOr
	opXor
	opEq
	opNe
	opLt
	opLe
	opGt
	opGe
	opNot
	opHigh
	opLow
	opLog2
)

// Binary operator precedence for FULL evaluation. SIMPLE evaluation
// flattens every operator to the same level, which makes the parse
// strictly left to right.
var binPrec = map[exprOp]int{
	opMul: 6, opDiv: 6, opMod: 6, opShl: 6, opShr: 6,
	opAdd: 5, opSub: 5,
	opEq: 4, opNe: 4, opLt: 4, opLe: 4, opGt: 4, opGe: 4,
	opAnd: 3,
	opXor: 2,
	opOr:  1,
}

var wordOps = map[string]exprOp{
	"MOD": opMod, "SHL": opShl, "SHR": opShr,
	"AND": opAnd, "OR": opOr, "XOR": opXor,
	"EQ": opEq, "NE": opNe, "LT": opLt, "LE": opLe, "GT": opGt, "GE": opGe,
}

var wordUnary = map[string]exprOp{
	"NOT": opNot, "HIGH": opHigh, "LOW": opLow, "LOG2": opLog2,
}

func binOpOf(tok Token) (exprOp, bool) {
	switch tok.Kind {
	case PLUS:
		return opAdd, true
	case MINUS:
		return opSub, true
	case STAR:
		return opMul, true
	case SLASH:
		return opDiv, true
	case AMP:
		return opAnd, true
	case BANG:
		return opOr, true
	case CARET:
		return opXor, true
	case SHL, LT:
		if tok.Kind == LT {
			return opLt, true
		}
		return opShl, true
	case SHR, GT:
		if tok.Kind == GT {
			return opGt, true
		}
		return opShr, true
	case EQOP:
		return opEq, true
	case NEOP:
		return opNe, true
	case LEOP:
		return opLe, true
	case GEOP:
		return opGe, true
	case IDENT:
		op, ok := wordOps[strings.ToUpper(tok.Text)]
		return op, ok
	}
	return opNone, false
}

// cursor walks a token slice; past the end it reads as NEWLINE so the
// grammar never has to test for exhaustion separately.
type cursor struct {
	toks []Token
	i    int
	end  z80asm.Pos
}

func (c *cursor) peek() Token {
	if c.i < len(c.toks) {
		return c.toks[c.i]
	}
	return Token{Kind: NEWLINE, Pos: c.end}
}

func (c *cursor) next() Token {
	t := c.peek()
	if c.i < len(c.toks) {
		c.i++
	}
	return t
}

func (c *cursor) atEnd() bool { return c.i >= len(c.toks) }

// exprParser builds expression trees from tokens. simple selects the MA
// left-to-right evaluation order; the EVAL directive flips it while
// parsing, so the choice is baked into the tree.
type exprParser struct {
	c      *cursor
	simple bool
}

func (p *exprParser) parse() (Expr, error) {
	return p.parseBin(1)
}

func (p *exprParser) parseBin(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.c.peek()
		op, ok := binOpOf(tok)
		if !ok {
			return left, nil
		}
		prec := binPrec[op]
		if p.simple {
			prec = 1
		}
		if prec < minPrec {
			return left, nil
		}
		p.c.next()
		right, err := p.parseBin(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &BinExpr{Op: op, L: left, R: right, At: tok.Pos}
	}
}

func (p *exprParser) parseUnary() (Expr, error) {
	tok := p.c.peek()
	switch tok.Kind {
	case PLUS:
		p.c.next()
		return p.parseUnary()
	case MINUS, TILDE:
		p.c.next()
		op := opSub
		if tok.Kind == TILDE {
			op = opNot
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, X: x, At: tok.Pos}, nil
	case IDENT:
		if op, ok := wordUnary[strings.ToUpper(tok.Text)]; ok {
			p.c.next()
			x, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &UnaryExpr{Op: op, X: x, At: tok.Pos}, nil
		}
	}
	return p.parseTerm()
}

func (p *exprParser) parseTerm() (Expr, error) {
	tok := p.c.next()
	switch tok.Kind {
	case NUMBER:
		return &NumExpr{Val: tok.Val, Base: tok.Base, At: tok.Pos}, nil
	case STRING:
		if len(tok.Text) > 2 {
			return nil, z80asm.Diag{Kind: z80asm.ErrParse, Pos: tok.Pos, Msg: "string too long for an expression"}
		}
		return &StrExpr{Text: tok.Text, Val: tok.Val, At: tok.Pos}, nil
	case IDENT:
		return &SymExpr{Name: tok.Text, At: tok.Pos}, nil
	case LPAREN:
		x, err := p.parseBin(1)
		if err != nil {
			return nil, err
		}
		if close := p.c.next(); close.Kind != RPAREN {
			return nil, z80asm.Diag{Kind: z80asm.ErrParse, Pos: close.Pos, Msg: "expected )"}
		}
		return x, nil
	}
	return nil, z80asm.Diag{Kind: z80asm.ErrParse, Pos: tok.Pos, Msg: "expected a value, found " + tok.Kind.String()}
}

func parseExpr(c *cursor, simple bool) (Expr, error) {
	p := &exprParser{c: c, simple: simple}
	return p.parse()
}
