package assembler

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	z80asm "github.com/Memotech-Bill/Z80Asm"
)

func TestScanModeline(t *testing.T) {
	cases := []struct {
		src        string
		style, cpu string
		ok         bool
	}{
		{"; z80asm: style=M80 cpu=Z180\n\tNOP\n", "M80", "Z180", true},
		{"\tNOP\n; z80asm: style=ZASM\n", "ZASM", "", true},
		{"\tNOP\n\tNOP\n\tNOP\n; z80asm: style=MA\n", "", "", false},
		{"; nothing here\n", "", "", false},
	}
	for _, tc := range cases {
		style, cpu, ok := ScanModeline(tc.src)
		if style != tc.style || cpu != tc.cpu || ok != tc.ok {
			t.Errorf("ScanModeline(%q) = %q, %q, %v", tc.src, style, cpu, ok)
		}
	}
}

func TestLabelForms(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tORG 100H",
		"plain:\tNOP",
		"pub::\tNOP",
	}, "\n"))
	if v, _ := res.Syms.Lookup("plain"); v != 0x100 {
		t.Errorf("plain = %04X", v)
	}
	if !res.Syms.Get("pub").Public {
		t.Error("double colon should make the label public")
	}
	if res.Syms.Get("plain").Public {
		t.Error("single colon label should stay local")
	}
}

func TestParenExpressionIsNotIndirect(t *testing.T) {
	// JP (HL) is register-indirect, but an address that merely starts
	// with a parenthesis is still a plain expression.
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80},
		"\tORG 0\n\tCALL (2+3)*4\n")
	got := imageBytes(t, res)
	want := []byte{0xCD, 20, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("bytes = % X, want % X", got, want)
	}
}

func TestDirectivesAreStyleGated(t *testing.T) {
	// BORG belongs to MA; in M80 it is just an unknown mnemonic.
	_, asm, err := assemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, "\tBORG 100H\n")
	if err == nil || !asm.Errs.Is(z80asm.ErrUnsupported) {
		t.Errorf("error = %v, want unknown mnemonic", err)
	}

	res := mustAssemble(t, Info{Style: z80asm.StyleMA, CPU: z80asm.CPUZ80},
		"\tBORG 100H\n.HERE\n\tRET\n")
	if v, _ := res.Syms.Lookup("HERE"); v != 0x100 {
		t.Errorf("HERE = %04X, want 0100", v)
	}
}

func TestDSDialectSplit(t *testing.T) {
	// M80 DS reserves space; ZASM DS defines data.
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80},
		"\tORG 0\n\tDB 1\n\tDS 3\n\tDB 2\n")
	if got := imageBytes(t, res); len(got) != 5 {
		t.Errorf("M80 image = % X, want a 3-byte gap", got)
	}

	res = mustAssemble(t, Info{Style: z80asm.StyleZASM, CPU: z80asm.CPUZ80},
		"\tDS \"hi\"\n")
	if got := imageBytes(t, res); !bytes.Equal(got, []byte("hi")) {
		t.Errorf("ZASM image = % X, want the string bytes", got)
	}

	// The two-argument M80 form fills rather than reserves.
	res = mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80},
		"\tORG 0\n\tDS 2,0AAH\n")
	if got := imageBytes(t, res); !bytes.Equal(got, []byte{0xAA, 0xAA}) {
		t.Errorf("filled image = % X", got)
	}
}

func TestCommentBlock(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tCOMMENT *",
		"\tDB 1",
		"all of this is commentary",
		"*",
		"\tDB 2",
	}, "\n"))
	if got := imageBytes(t, res); !bytes.Equal(got, []byte{2}) {
		t.Errorf("bytes = % X, want 02", got)
	}
}

func TestUnterminatedConditional(t *testing.T) {
	_, asm, err := assemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, "\tIF 1\n\tDB 1\n")
	if err == nil || !errors.Is(&asm.Errs, z80asm.ErrParse) {
		t.Errorf("error = %v, want a syntax error", err)
	}
}

func TestTrailingGarbage(t *testing.T) {
	_, asm, err := assemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, "\tORG 100H 200H\n")
	if err == nil || !errors.Is(&asm.Errs, z80asm.ErrParse) {
		t.Errorf("error = %v, want a syntax error", err)
	}
}
