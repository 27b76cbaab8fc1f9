package assembler

import (
	"errors"
	"testing"

	z80asm "github.com/Memotech-Bill/Z80Asm"
)

// evalWord assembles a single DW so the whole pipeline agrees on what
// the expression means.
func evalWord(t *testing.T, style z80asm.Style, src string) uint16 {
	t.Helper()
	res := mustAssemble(t, Info{Style: style, CPU: z80asm.CPUZ80}, src)
	b := imageBytes(t, res)
	if len(b) < 2 {
		t.Fatalf("only %d bytes emitted", len(b))
	}
	return uint16(b[len(b)-2]) | uint16(b[len(b)-1])<<8
}

func TestFullPrecedence(t *testing.T) {
	cases := []struct {
		expr string
		want uint16
	}{
		{"2+3*4", 14},
		{"5-3-1", 1},
		{"10 MOD 3", 1},
		{"1 SHL 4", 16},
		{"2<<3", 16},
		{"16>>2", 4},
		{"1 OR 2 AND 2", 3},
		{"2 EQ 2", 0xFFFF},
		{"1=2", 0},
		{"3 XOR 1", 2},
		{"NOT 0", 0xFFFF},
		{"HIGH 1234H", 0x12},
		{"LOW 1234H", 0x34},
		{"-1", 0xFFFF},
		{"2*(3+4)", 14},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got := evalWord(t, z80asm.StyleM80, "\tDW "+tc.expr+"\n")
			if got != tc.want {
				t.Errorf("%s = %04X, want %04X", tc.expr, got, tc.want)
			}
		})
	}
}

func TestSimpleEvaluation(t *testing.T) {
	// The MA default is strict left-to-right.
	if got := evalWord(t, z80asm.StyleMA, "\tDW 2+3*4\n"); got != 20 {
		t.Errorf("2+3*4 = %d, want 20", got)
	}
	// Parentheses still group.
	if got := evalWord(t, z80asm.StyleMA, "\tDW 2+(3*4)\n"); got != 14 {
		t.Errorf("2+(3*4) = %d, want 14", got)
	}
}

func TestEvalDirectiveSwitches(t *testing.T) {
	if got := evalWord(t, z80asm.StyleMA, "\tEVAL FULL\n\tDW 2+3*4\n"); got != 14 {
		t.Errorf("EVAL FULL: 2+3*4 = %d, want 14", got)
	}
	if got := evalWord(t, z80asm.StyleM80, "\tEVAL SIMPLE\n\tDW 2+3*4\n"); got != 20 {
		t.Errorf("EVAL SIMPLE: 2+3*4 = %d, want 20", got)
	}
}

func TestLocationCounterReference(t *testing.T) {
	got := evalWord(t, z80asm.StyleM80, "\tORG 1234H\n\tDW $\n")
	if got != 0x1234 {
		t.Errorf("$ = %04X, want 1234", got)
	}
}

func TestSymbolsInExpressions(t *testing.T) {
	got := evalWord(t, z80asm.StyleM80, "n\tEQU 40H\n\tDW n*2+1\n")
	if got != 0x81 {
		t.Errorf("n*2+1 = %04X, want 0081", got)
	}
}

func TestCharacterLiteralValue(t *testing.T) {
	got := evalWord(t, z80asm.StyleM80, "\tDW 'A'+1\n")
	if got != 'A'+1 {
		t.Errorf("'A'+1 = %04X, want %04X", got, 'A'+1)
	}
}

func TestDivisionByZero(t *testing.T) {
	_, asm, err := assemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, "\tDW 1/0\n")
	if err == nil || !errors.Is(&asm.Errs, z80asm.ErrParse) {
		t.Errorf("error = %v, want a syntax error", err)
	}
}
