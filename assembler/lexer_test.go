package assembler

import (
	"testing"

	z80asm "github.com/Memotech-Bill/Z80Asm"
)

func lexLine(t *testing.T, style z80asm.Style, line string) ([]Token, *z80asm.ErrorList) {
	t.Helper()
	lx := &Lexer{Spec: SpecFor(style)}
	var errs z80asm.ErrorList
	toks := lx.Line(z80asm.Pos{File: "test.asm", Line: 1}, line, &errs)
	return toks, &errs
}

func lexOne(t *testing.T, style z80asm.Style, line string) Token {
	t.Helper()
	toks, errs := lexLine(t, style, line)
	if errs.Len() > 0 {
		t.Fatalf("lex %q: %v", line, errs.Error())
	}
	if len(toks) != 1 {
		t.Fatalf("lex %q: %d tokens, want 1", line, len(toks))
	}
	return toks[0]
}

func TestNumberLiterals(t *testing.T) {
	cases := []struct {
		style z80asm.Style
		text  string
		val   int
		base  byte
	}{
		{z80asm.StyleM80, "1234", 1234, 'D'},
		{z80asm.StyleM80, "1234D", 1234, 'D'},
		{z80asm.StyleM80, "0FFH", 0xFF, 'H'},
		{z80asm.StyleM80, "0x1F", 0x1F, 'H'},
		{z80asm.StyleM80, "77Q", 0o77, 'Q'},
		{z80asm.StyleM80, "77O", 0o77, 'Q'},
		{z80asm.StyleM80, "1010B", 0b1010, 'B'},
		{z80asm.StyleM80, "#FF", 0xFF, 'H'},
		{z80asm.StyleMA, "&FF", 0xFF, 'H'},
		{z80asm.StyleMA, "%101", 0b101, 'B'},
		{z80asm.StylePASMO, "$FF", 0xFF, 'H'},
		{z80asm.StylePASMO, "&C000", 0xC000, 'H'},
	}
	for _, tc := range cases {
		t.Run(string(tc.style)+"/"+tc.text, func(t *testing.T) {
			tok := lexOne(t, tc.style, tc.text)
			if tok.Kind != NUMBER {
				t.Fatalf("kind = %s, want NUMBER", tok.Kind)
			}
			if tok.Val != tc.val {
				t.Errorf("val = %d, want %d", tok.Val, tc.val)
			}
			if tok.Base != tc.base {
				t.Errorf("base = %c, want %c", tok.Base, tc.base)
			}
		})
	}
}

func TestPrefixVsOperatorPosition(t *testing.T) {
	// After a value '&' is the AND operator, before one it is the MA
	// hex prefix.
	toks, errs := lexLine(t, z80asm.StyleMA, "&0F&&F0")
	if errs.Len() > 0 {
		t.Fatalf("unexpected errors: %v", errs.Error())
	}
	kinds := []TokenKind{NUMBER, AMP, NUMBER}
	if len(toks) != len(kinds) {
		t.Fatalf("%d tokens, want %d", len(toks), len(kinds))
	}
	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Errorf("token %d = %s, want %s", i, toks[i].Kind, k)
		}
	}
	if toks[0].Val != 0x0F || toks[2].Val != 0xF0 {
		t.Errorf("vals = %X, %X", toks[0].Val, toks[2].Val)
	}
}

func TestDollarFormsInPASMO(t *testing.T) {
	// A bare $ is the location counter, $FF is a hex literal, and
	// $FFmark is an ordinary label.
	if tok := lexOne(t, z80asm.StylePASMO, "$"); tok.Kind != IDENT || tok.Text != "$" {
		t.Errorf("bare $ = %s %q", tok.Kind, tok.Text)
	}
	if tok := lexOne(t, z80asm.StylePASMO, "$FF"); tok.Kind != NUMBER || tok.Val != 0xFF {
		t.Errorf("$FF = %s %d", tok.Kind, tok.Val)
	}
	if tok := lexOne(t, z80asm.StylePASMO, "$FFmark"); tok.Kind != IDENT || tok.Text != "$FFmark" {
		t.Errorf("$FFmark = %s %q", tok.Kind, tok.Text)
	}
}

func TestAlternateRegisterName(t *testing.T) {
	toks, _ := lexLine(t, z80asm.StyleM80, "EX AF,AF'")
	if len(toks) != 4 {
		t.Fatalf("%d tokens, want 4", len(toks))
	}
	if toks[3].Kind != IDENT || toks[3].Text != "AF'" {
		t.Errorf("last token = %s %q, want IDENT AF'", toks[3].Kind, toks[3].Text)
	}
}

func TestStrings(t *testing.T) {
	cases := []struct {
		style z80asm.Style
		line  string
		text  string
		val   int
	}{
		{z80asm.StyleM80, "'A'", "A", 'A'},
		{z80asm.StyleM80, `"AB"`, "AB", 'A'<<8 | 'B'},
		{z80asm.StyleM80, "'it''s'", "it's", 0},
		{z80asm.StyleZASM, `"a\41"`, "aA", 0},
		{z80asm.StyleM80, "X'41 42'", "AB", 0},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			tok := lexOne(t, tc.style, tc.line)
			if tok.Kind != STRING {
				t.Fatalf("kind = %s, want STRING", tok.Kind)
			}
			if tok.Text != tc.text {
				t.Errorf("text = %q, want %q", tok.Text, tc.text)
			}
			if len(tc.text) <= 2 && tok.Val != tc.val {
				t.Errorf("val = %04X, want %04X", tok.Val, tc.val)
			}
		})
	}
}

func TestNoHexEscapesOutsideZASM(t *testing.T) {
	tok := lexOne(t, z80asm.StyleM80, `"a\41"`)
	if tok.Text != `a\41` {
		t.Errorf("text = %q, backslash should be literal", tok.Text)
	}
}

func TestUnterminatedString(t *testing.T) {
	_, errs := lexLine(t, z80asm.StyleM80, "'oops")
	if !errs.Is(z80asm.ErrLex) {
		t.Errorf("errors = %v, want a lexical error", errs.Err())
	}
}

func TestCommentEndsLine(t *testing.T) {
	toks, errs := lexLine(t, z80asm.StyleM80, "1 ; 'unclosed")
	if errs.Len() > 0 || len(toks) != 1 {
		t.Errorf("tokens = %v, errs = %v", toks, errs.Err())
	}
}

func TestTwoCharOperators(t *testing.T) {
	toks, errs := lexLine(t, z80asm.StyleM80, "1<<2 >= 3!=4")
	if errs.Len() > 0 {
		t.Fatalf("unexpected errors: %v", errs.Error())
	}
	kinds := []TokenKind{NUMBER, SHL, NUMBER, GEOP, NUMBER, NEOP, NUMBER}
	if len(toks) != len(kinds) {
		t.Fatalf("%d tokens, want %d", len(toks), len(kinds))
	}
	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Errorf("token %d = %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestPermissiveLexing(t *testing.T) {
	lx := &Lexer{Spec: SpecFor(z80asm.StyleM80), Permissive: true, Warns: &z80asm.ErrorList{}}
	var errs z80asm.ErrorList

	// A stray character is only a warning.
	toks := lx.Line(z80asm.Pos{}, "1 ` 2", &errs)
	if errs.Len() != 0 {
		t.Errorf("errors = %v, want none", errs.Err())
	}
	if lx.Warns.Len() != 1 {
		t.Errorf("warnings = %d, want 1", lx.Warns.Len())
	}
	if len(toks) != 2 {
		t.Errorf("%d tokens, want 2", len(toks))
	}

	// So is a redundant H suffix after a hex prefix.
	toks = lx.Line(z80asm.Pos{}, "#C000H", &errs)
	if errs.Len() != 0 || len(toks) != 1 || toks[0].Val != 0xC000 {
		t.Errorf("toks = %v, errs = %v", toks, errs.Err())
	}
}
