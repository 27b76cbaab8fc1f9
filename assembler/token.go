package assembler

import (
	z80asm "github.com/Memotech-Bill/Z80Asm"
)

// TokenKind classifies one lexical token.
type TokenKind int

const (
	ILLEGAL TokenKind = iota
	EOF
	NEWLINE

	IDENT  // labels, mnemonics, registers, word operators
	NUMBER // any numeric literal form of the active style
	STRING // quoted string or character literal

	COLON
	COMMA
	LPAREN
	RPAREN

	PLUS
	MINUS
	STAR
	SLASH
	AMP   // AND, or hex prefix in value position (MA/PASMO)
	BANG  // OR
	CARET // XOR
	TILDE // bitwise NOT
	LT    // less-than, or SHL in MA
	GT    // greater-than, or SHR in MA
	SHL   // <<
	SHR   // >>
	EQOP  // = or ==
	NEOP  // !=
	LEOP  // <=
	GEOP  // >=
)

var tokenNames = map[TokenKind]string{
	ILLEGAL: "<illegal>",
	EOF:     "end of file",
	NEWLINE: "end of line",
	IDENT:   "identifier",
	NUMBER:  "number",
	STRING:  "string",
	COLON:   ":",
	COMMA:   ",",
	LPAREN:  "(",
	RPAREN:  ")",
	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	AMP:     "&",
	BANG:    "!",
	CARET:   "^",
	TILDE:   "~",
	LT:      "<",
	GT:      ">",
	SHL:     "<<",
	SHR:     ">>",
	EQOP:    "=",
	NEOP:    "!=",
	LEOP:    "<=",
	GEOP:    ">=",
}

func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return "<unknown>"
}

// Token is one classified lexical item. Base records how a NUMBER was
// written ('B', 'D', 'H' or 'Q') so reformatting can keep the author's
// radix.
type Token struct {
	Kind TokenKind
	Text string
	Val  int
	Base byte
	Pos  z80asm.Pos
}
