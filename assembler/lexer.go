package assembler

import (
	"strings"

	z80asm "github.com/Memotech-Bill/Z80Asm"
)

// Lexer turns source lines into tokens according to one StyleSpec.
//
// Several characters mean different things depending on whether the
// next item should be a value or an operator: '&' is a hex prefix in MA
// but the AND operator between two terms, '%' likewise for binary, '$'
// for PASMO hex against the location counter reference. The lexer
// tracks that state the whole way down the line instead of leaving the
// ambiguity to the parser.
type Lexer struct {
	Spec       StyleSpec
	Permissive bool
	// Warns receives the diagnostics permissive mode downgrades.
	Warns *z80asm.ErrorList
}

func isLabelStart(ch byte) bool {
	return ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' || ch == '_' || ch == '$' || ch == '.' || ch == '?' || ch == '@'
}

func isLabelChar(ch byte) bool {
	return isLabelStart(ch) || ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return ch >= '0' && ch <= '9' || ch >= 'A' && ch <= 'F' || ch >= 'a' && ch <= 'f'
}

func hexVal(ch byte) int {
	switch {
	case ch <= '9':
		return int(ch - '0')
	case ch <= 'F':
		return int(ch-'A') + 10
	}
	return int(ch-'a') + 10
}

// Line tokenizes one source line. Problems are reported through errs;
// the returned tokens are everything that could still be made sense of,
// so one bad character does not hide the rest of the line.
func (lx *Lexer) Line(pos z80asm.Pos, line string, errs *z80asm.ErrorList) []Token {
	var toks []Token
	valuePos := true
	i := 0
	at := func(start int) z80asm.Pos {
		p := pos
		p.Col = start + 1
		return p
	}
	emit := func(kind TokenKind, start int, text string) {
		toks = append(toks, Token{Kind: kind, Text: text, Pos: at(start)})
		valuePos = kind != RPAREN
	}
	for i < len(line) {
		ch := line[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case ch == ';':
			return toks
		case ch == '"' || ch == '\'':
			start := i
			text, next, ok := lx.scanString(line, i)
			if !ok {
				errs.Add(z80asm.ErrLex, at(start), "unterminated string")
				return toks
			}
			toks = append(toks, lx.stringToken(text, at(start)))
			valuePos = false
			i = next
		case (ch == 'X' || ch == 'x') && valuePos && i+1 < len(line) && line[i+1] == '\'':
			start := i
			tok, next, ok := lx.scanHexString(line, i, at(start))
			if !ok {
				errs.Add(z80asm.ErrLex, at(start), "unterminated hexadecimal string")
				return toks
			}
			toks = append(toks, tok)
			valuePos = false
			i = next
		case isLabelStart(ch) && !(ch == '$' && lx.Spec.DollarHex && valuePos && i+1 < len(line) && isHexDigit(line[i+1]) && !lx.labelAhead(line, i)):
			start := i
			for i < len(line) && isLabelChar(line[i]) {
				i++
			}
			text := line[start:i]
			// AF' names the alternate register pair.
			if i < len(line) && line[i] == '\'' && strings.EqualFold(text, "AF") {
				i++
				text = line[start:i]
			}
			emit(IDENT, start, text)
			valuePos = false
		case ch >= '0' && ch <= '9':
			start := i
			tok, next := lx.scanNumber(line, i, at(start), errs)
			toks = append(toks, tok)
			valuePos = false
			i = next
		case ch == '#' && valuePos:
			start := i
			tok, next := lx.scanPrefixed(line, i+1, 16, 'H', at(start), errs)
			toks = append(toks, tok)
			valuePos = false
			i = next
		case ch == '&' && valuePos && lx.Spec.AmpHex && i+1 < len(line) && isHexDigit(line[i+1]):
			start := i
			tok, next := lx.scanPrefixed(line, i+1, 16, 'H', at(start), errs)
			toks = append(toks, tok)
			valuePos = false
			i = next
		case ch == '%' && valuePos && lx.Spec.PercentBin && i+1 < len(line) && (line[i+1] == '0' || line[i+1] == '1'):
			start := i
			tok, next := lx.scanPrefixed(line, i+1, 2, 'B', at(start), errs)
			toks = append(toks, tok)
			valuePos = false
			i = next
		case ch == '$' && valuePos && lx.Spec.DollarHex && i+1 < len(line) && isHexDigit(line[i+1]):
			start := i
			tok, next := lx.scanPrefixed(line, i+1, 16, 'H', at(start), errs)
			toks = append(toks, tok)
			valuePos = false
			i = next
		default:
			start := i
			kind := ILLEGAL
			n := 1
			switch ch {
			case ':':
				kind = COLON
			case ',':
				kind = COMMA
			case '(':
				kind = LPAREN
			case ')':
				kind = RPAREN
			case '+':
				kind = PLUS
			case '-':
				kind = MINUS
			case '*':
				kind = STAR
			case '/':
				kind = SLASH
			case '&':
				kind = AMP
			case '^':
				kind = CARET
			case '~':
				kind = TILDE
			case '!':
				kind = BANG
				if i+1 < len(line) && line[i+1] == '=' {
					kind, n = NEOP, 2
				}
			case '=':
				kind = EQOP
				if i+1 < len(line) && line[i+1] == '=' {
					n = 2
				}
			case '<':
				kind = LT
				if i+1 < len(line) {
					switch line[i+1] {
					case '<':
						kind, n = SHL, 2
					case '=':
						kind, n = LEOP, 2
					}
				}
			case '>':
				kind = GT
				if i+1 < len(line) {
					switch line[i+1] {
					case '>':
						kind, n = SHR, 2
					case '=':
						kind, n = GEOP, 2
					}
				}
			}
			if kind == ILLEGAL {
				if lx.Permissive && lx.Warns != nil {
					lx.Warns.Add(z80asm.ErrLex, at(start), "ignored unexpected character %q", ch)
				} else {
					errs.Add(z80asm.ErrLex, at(start), "unexpected character %q", ch)
				}
				i++
				continue
			}
			emit(kind, start, line[start:start+n])
			i += n
		}
	}
	return toks
}

// labelAhead distinguishes the PASMO hex literal $FF from a label that
// merely starts with $ and hexadecimal digits, such as $FFmark.
func (lx *Lexer) labelAhead(line string, i int) bool {
	j := i + 1
	for j < len(line) && isHexDigit(line[j]) {
		j++
	}
	return j < len(line) && isLabelChar(line[j]) && line[j] != 'H' && line[j] != 'h'
}

func (lx *Lexer) scanString(line string, i int) (text string, next int, ok bool) {
	quote := line[i]
	var sb strings.Builder
	i++
	for i < len(line) {
		ch := line[i]
		switch {
		case ch == quote:
			// A doubled quote stands for itself.
			if i+1 < len(line) && line[i+1] == quote {
				sb.WriteByte(quote)
				i += 2
				continue
			}
			return sb.String(), i + 1, true
		case ch == '\\' && lx.Spec.HexEscapes && i+2 < len(line) && isHexDigit(line[i+1]) && isHexDigit(line[i+2]):
			sb.WriteByte(byte(hexVal(line[i+1])<<4 | hexVal(line[i+2])))
			i += 3
		default:
			sb.WriteByte(ch)
			i++
		}
	}
	return "", i, false
}

func (lx *Lexer) stringToken(text string, pos z80asm.Pos) Token {
	tok := Token{Kind: STRING, Text: text, Pos: pos}
	switch len(text) {
	case 1:
		tok.Val = int(text[0])
	case 2:
		tok.Val = int(text[0])<<8 | int(text[1])
	}
	return tok
}

// scanHexString handles the X'41 42' form, which is a string whose
// bytes are written in hexadecimal.
func (lx *Lexer) scanHexString(line string, i int, pos z80asm.Pos) (Token, int, bool) {
	var sb strings.Builder
	acc, nd := 0, 0
	i += 2
	for i < len(line) {
		ch := line[i]
		switch {
		case ch == '\'':
			if nd > 0 {
				sb.WriteByte(byte(acc))
			}
			return lx.stringToken(sb.String(), pos), i + 1, true
		case isHexDigit(ch):
			acc = acc<<4 | hexVal(ch)
			if nd++; nd == 2 {
				sb.WriteByte(byte(acc))
				acc, nd = 0, 0
			}
			i++
		default:
			i++
		}
	}
	return Token{}, i, false
}

func (lx *Lexer) scanPrefixed(line string, i, base int, radix byte, pos z80asm.Pos, errs *z80asm.ErrorList) (Token, int) {
	start := i - 1
	val := 0
	for i < len(line) && isHexDigit(line[i]) && hexVal(line[i]) < base {
		val = val*base + hexVal(line[i])
		i++
	}
	// Loose sources sometimes carry a redundant H suffix after a hex
	// prefix; permissive mode swallows it.
	if base == 16 && lx.Permissive && i < len(line) && (line[i] == 'H' || line[i] == 'h') {
		i++
	}
	if i == start+1 {
		errs.Add(z80asm.ErrLex, pos, "missing digits after %q", line[start])
	}
	return Token{Kind: NUMBER, Text: line[start:i], Val: val & 0xFFFF, Base: radix, Pos: pos}, i
}

// scanNumber reads a literal that starts with a digit: decimal, 0x hex,
// or digits with an H, Q, O, B or D radix suffix.
func (lx *Lexer) scanNumber(line string, i int, pos z80asm.Pos, errs *z80asm.ErrorList) (Token, int) {
	start := i
	if line[i] == '0' && i+1 < len(line) && (line[i+1] == 'x' || line[i+1] == 'X') && i+2 < len(line) && isHexDigit(line[i+2]) {
		i += 2
		val := 0
		for i < len(line) && isHexDigit(line[i]) {
			val = val<<4 | hexVal(line[i])
			i++
		}
		return Token{Kind: NUMBER, Text: line[start:i], Val: val & 0xFFFF, Base: 'H', Pos: pos}, i
	}
	for i < len(line) && isHexDigit(line[i]) {
		i++
	}
	digits := line[start:i]
	base, radix := 10, byte('D')
	switch {
	case i < len(line) && (line[i] == 'H' || line[i] == 'h'):
		base, radix = 16, 'H'
		i++
	case i < len(line) && (line[i] == 'Q' || line[i] == 'q' || line[i] == 'O' || line[i] == 'o'):
		base, radix = 8, 'Q'
		i++
	case digits[len(digits)-1] == 'B' || digits[len(digits)-1] == 'b':
		base, radix = 2, 'B'
		digits = digits[:len(digits)-1]
	case digits[len(digits)-1] == 'D' || digits[len(digits)-1] == 'd':
		digits = digits[:len(digits)-1]
	}
	val := 0
	bad := false
	for k := 0; k < len(digits); k++ {
		d := hexVal(digits[k])
		if d >= base {
			bad = true
			break
		}
		val = val*base + d
	}
	if bad || len(digits) == 0 {
		errs.Add(z80asm.ErrLex, pos, "invalid number %q", line[start:i])
		val = 0
	}
	return Token{Kind: NUMBER, Text: line[start:i], Val: val & 0xFFFF, Base: radix, Pos: pos}, i
}
