package assembler

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	z80asm "github.com/Memotech-Bill/Z80Asm"
)

func assemble(t *testing.T, info Info, src string) (*Result, *Assembler, error) {
	t.Helper()
	if info.Fill == 0 {
		info.Fill = 0xFF
	}
	if info.Stdout == nil {
		info.Stdout = &bytes.Buffer{}
	}
	asm := MakeAssembler(info)
	res, err := asm.AssembleSource("test.asm", src)
	return res, asm, err
}

func mustAssemble(t *testing.T, info Info, src string) *Result {
	t.Helper()
	res, asm, err := assemble(t, info, src)
	if err != nil {
		t.Fatalf("assembly failed: %v", asm.Errs.Error())
	}
	return res
}

func imageBytes(t *testing.T, res *Result) []byte {
	t.Helper()
	if res.Image == nil {
		t.Fatal("no image produced")
	}
	return res.Image.Bytes()
}

func TestCommandLineDefineIsImmutable(t *testing.T) {
	info := Info{
		Style:   z80asm.StyleM80,
		CPU:     z80asm.CPUZ80,
		Defines: map[string]int{"CFG": 1},
	}
	_, asm, err := assemble(t, info, "\tORG 0\nCFG\tEQU 9\n\tDB CFG\n")
	if err == nil || !asm.Errs.Is(z80asm.ErrDuplicateSym) {
		t.Errorf("error = %v, want a duplicate symbol", err)
	}
	if v, _ := asm.Syms.Lookup("CFG"); v != 1 {
		t.Errorf("CFG = %d, the command line value should survive", v)
	}

	// Restating the seeded value is not a conflict.
	info.Defines = map[string]int{"CFG": 1}
	res := mustAssemble(t, info, "\tORG 0\nCFG\tEQU 1\n\tDB CFG\n")
	if got := imageBytes(t, res); !bytes.Equal(got, []byte{1}) {
		t.Errorf("bytes = % X, want 01", got)
	}
}

func TestOverlapKeepsAddressesAligned(t *testing.T) {
	// The second byte of the DB collides with already written code; the
	// statements after it must still land at their proper addresses.
	_, asm, err := assemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tORG 5",
		"\tDB 1",
		"\tORG 4",
		"\tDB 8,9",
		"after:\tNOP",
	}, "\n"))
	if err == nil || !asm.Errs.Is(z80asm.ErrSegmentOverlap) {
		t.Fatalf("error = %v, want a segment overlap", err)
	}
	if v, _ := asm.Syms.Lookup("after"); v != 6 {
		t.Errorf("after = %d, want 6", v)
	}
	if asm.Errs.Is(z80asm.ErrPhase) {
		t.Error("a write failure must not look like an unsettled symbol")
	}
}

func TestSimpleProgram(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tORG 0x8000",
		"\tLD A,5",
		"\tRET",
	}, "\n"))
	got := imageBytes(t, res)
	want := []byte{0x3E, 0x05, 0xC9}
	if !bytes.Equal(got, want) {
		t.Errorf("bytes = % X, want % X", got, want)
	}
	lo, hi, ok := res.Image.Bounds()
	if !ok || lo != 0x8000 || hi != 0x8002 {
		t.Errorf("bounds = %04X..%04X, want 8000..8002", lo, hi)
	}
}

func TestForwardReference(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tORG 0",
		"\tJP fin",
		"\tNOP",
		"fin:\tRET",
	}, "\n"))
	got := imageBytes(t, res)
	want := []byte{0xC3, 0x04, 0x00, 0x00, 0xC9}
	if !bytes.Equal(got, want) {
		t.Errorf("bytes = % X, want % X", got, want)
	}
}

func TestRelativeJumpRange(t *testing.T) {
	src := func(pad int) string {
		return fmt.Sprintf("\tORG 0\n\tJR fin\n\tDS %d\nfin:\tRET\n", pad)
	}
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, src(127))
	got := imageBytes(t, res)
	if got[1] != 0x7F {
		t.Errorf("offset byte = %02X, want 7F", got[1])
	}

	_, asm, err := assemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, src(128))
	if err == nil {
		t.Fatal("expected a range error")
	}
	if !errors.Is(&asm.Errs, z80asm.ErrBranchRange) {
		t.Errorf("error = %v, want branch range", err)
	}
}

func TestDuplicateLabel(t *testing.T) {
	_, asm, err := assemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80},
		"x:\tNOP\nx:\tNOP\n")
	if err == nil || !errors.Is(&asm.Errs, z80asm.ErrDuplicateSym) {
		t.Errorf("error = %v, want duplicate symbol", err)
	}
}

func TestEquateRedefinable(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"n\tDEFL 1",
		"n\tDEFL n+1",
		"\tDB n",
	}, "\n"))
	if got := imageBytes(t, res); got[0] != 2 {
		t.Errorf("byte = %d, want 2", got[0])
	}
}

func TestPhaseBlock(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tORG 100H",
		"\t.PHASE 200H",
		"lbl:\tRET",
		"\t.DEPHASE",
	}, "\n"))
	if v, ok := res.Syms.Lookup("lbl"); !ok || v != 0x200 {
		t.Errorf("lbl = %04X, want 0200", v)
	}
	if b, ok := res.Image.At(0x100); !ok || b != 0xC9 {
		t.Errorf("byte at 0100 = %02X, want C9", b)
	}
}

func TestDephaseWithoutPhase(t *testing.T) {
	_, asm, err := assemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, "\t.DEPHASE\n")
	if err == nil || !errors.Is(&asm.Errs, z80asm.ErrPhaseNesting) {
		t.Errorf("error = %v, want phase nesting", err)
	}
}

func TestMADialect(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleMA, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tORG &100",
		".START",
		"\tLD A,%1010",
		"\tRET",
	}, "\n"))
	if v, ok := res.Syms.Lookup("START"); !ok || v != 0x100 {
		t.Errorf("START = %04X, want 0100", v)
	}
	got := imageBytes(t, res)
	want := []byte{0x3E, 0x0A, 0xC9}
	if !bytes.Equal(got, want) {
		t.Errorf("bytes = % X, want % X", got, want)
	}
	sym := res.Syms.Get("START")
	if !sym.Public {
		t.Error("dot label should be public")
	}
}

func TestMAOffset(t *testing.T) {
	// OFFSET separates the logical counter from the load counter; the
	// label takes the logical address while the byte stays put.
	res := mustAssemble(t, Info{Style: z80asm.StyleMA, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tORG &100",
		"\tOFFSET &4000",
		".RUN",
		"\tRET",
	}, "\n"))
	if v, _ := res.Syms.Lookup("RUN"); v != 0x4100 {
		t.Errorf("RUN = %04X, want 4100", v)
	}
	if b, ok := res.Image.At(0x100); !ok || b != 0xC9 {
		t.Errorf("byte at 0100 = %02X, want C9", b)
	}
}

func TestZASMLoadAndOrg(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleZASM, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tLOAD #100",
		"\tORG #200",
		"lbl:\tRET",
	}, "\n"))
	if v, _ := res.Syms.Lookup("LBL"); v != 0x200 {
		t.Errorf("lbl = %04X, want 0200", v)
	}
	if b, ok := res.Image.At(0x100); !ok || b != 0xC9 {
		t.Errorf("byte at 0100 = %02X, want C9", b)
	}
}

func Test8080Dialect(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPU8080}, strings.Join([]string{
		"\tORG 0",
		"\tMVI A,5",
		"\tMOV B,A",
		"\tCPI 3",
		"\tJP 0",
		"\tRET",
	}, "\n"))
	got := imageBytes(t, res)
	// On the 8080, CPI is compare-immediate and JP is jump-if-plus.
	want := []byte{0x3E, 0x05, 0x47, 0xFE, 0x03, 0xF2, 0x00, 0x00, 0xC9}
	if !bytes.Equal(got, want) {
		t.Errorf("bytes = % X, want % X", got, want)
	}
}

func TestCPULegality(t *testing.T) {
	cases := []struct {
		name string
		cpu  z80asm.CPU
		src  string
		kind error
	}{
		{"exx on 8080", z80asm.CPU8080, "\tEXX\n", z80asm.ErrUnsupported},
		{"indexed on 8080", z80asm.CPU8080, "\tLD A,(IX+1)\n", z80asm.ErrUnsupported},
		{"mlt on z80", z80asm.CPUZ80, "\tMLT BC\n", z80asm.ErrUnsupported},
		{"mov on z80", z80asm.CPUZ80, "\tMOV A,B\n", z80asm.ErrUnsupported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, asm, err := assemble(t, Info{Style: z80asm.StyleM80, CPU: tc.cpu}, tc.src)
			if err == nil || !errors.Is(&asm.Errs, tc.kind) {
				t.Errorf("error = %v, want %v", err, tc.kind)
			}
		})
	}
}

func TestZ180Instructions(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ180}, strings.Join([]string{
		"\tMLT BC",
		"\tSLP",
		"\tTST 40H",
	}, "\n"))
	got := imageBytes(t, res)
	want := []byte{0xED, 0x4C, 0xED, 0x76, 0xED, 0x64, 0x40}
	if !bytes.Equal(got, want) {
		t.Errorf("bytes = % X, want % X", got, want)
	}
}

func TestConditionalBlocks(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"flag\tEQU 0",
		"\tIF flag",
		"\tDB 1",
		"\tELSE",
		"\tDB 2",
		"\tENDIF",
		"\tIFDEF flag",
		"\tDB 3",
		"\tENDIF",
	}, "\n"))
	got := imageBytes(t, res)
	want := []byte{2, 3}
	if !bytes.Equal(got, want) {
		t.Errorf("bytes = % X, want % X", got, want)
	}
}

func TestRept(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tREPT 3",
		"\tDB 7",
		"\tENDM",
	}, "\n"))
	got := imageBytes(t, res)
	want := []byte{7, 7, 7}
	if !bytes.Equal(got, want) {
		t.Errorf("bytes = % X, want % X", got, want)
	}
}

func TestDataDirectives(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleZASM, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tDB 1, 2, \"AB\"",
		"\tDW 1234H",
		"\tDC \"hi\"",
		"\tDZ \"ok\"",
	}, "\n"))
	got := imageBytes(t, res)
	want := []byte{1, 2, 'A', 'B', 0x34, 0x12, 'h', 'i' | 0x80, 'o', 'k', 0}
	if !bytes.Equal(got, want) {
		t.Errorf("bytes = % X, want % X", got, want)
	}
}

func TestReserveLeavesGap(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tORG 0",
		"\tDB 1",
		"\tDS 2",
		"\tDB 2",
	}, "\n"))
	got := imageBytes(t, res)
	want := []byte{1, 0xFF, 0xFF, 2}
	if !bytes.Equal(got, want) {
		t.Errorf("bytes = % X, want % X", got, want)
	}
	if res.Image.Written(1) {
		t.Error("reserved addresses must not count as written")
	}
}

func TestSegments(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80, CodeBase: 0x1000, DataBase: 0x2000},
		strings.Join([]string{
			"\tCSEG",
			"code:\tRET",
			"\tDSEG",
			"data:\tDB 9",
		}, "\n"))
	if v, _ := res.Syms.Lookup("code"); v != 0x1000 {
		t.Errorf("code = %04X, want 1000", v)
	}
	if v, _ := res.Syms.Lookup("data"); v != 0x2000 {
		t.Errorf("data = %04X, want 2000", v)
	}
}

func TestOverlapDetected(t *testing.T) {
	_, asm, err := assemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tORG 100H",
		"\tDB 1, 2",
		"\tORG 100H",
		"\tDB 3",
	}, "\n"))
	if err == nil || !errors.Is(&asm.Errs, z80asm.ErrSegmentOverlap) {
		t.Errorf("error = %v, want segment overlap", err)
	}
}

func TestUpdateRunAllowsRewrite(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80, Update: z80asm.ScopeAll},
		strings.Join([]string{
			"\tORG 100H",
			"\tDB 1, 2",
			"\tORG 100H",
			"\tDB 3",
		}, "\n"))
	if b, _ := res.Image.At(0x100); b != 3 {
		t.Errorf("byte = %d, want the later write to win", b)
	}
}

func TestEndStopsAssembly(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tORG 0",
		"\tDB 1",
		"\tEND 0",
		"\tDB 2",
	}, "\n"))
	got := imageBytes(t, res)
	if !bytes.Equal(got, []byte{1}) {
		t.Errorf("bytes = % X, want 01", got)
	}
	if !res.HasEntry || res.Entry != 0 {
		t.Errorf("entry = %04X (%v)", res.Entry, res.HasEntry)
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	src := strings.Join([]string{
		"\tORG 0",
		"\tJP fin",
		"\tDS 5",
		"fin:\tLD HL,fin",
		"\tRET",
	}, "\n")
	a := imageBytes(t, mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, src))
	b := imageBytes(t, mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, src))
	if !bytes.Equal(a, b) {
		t.Errorf("two runs differ: % X vs % X", a, b)
	}
}

func TestErrorDirective(t *testing.T) {
	_, asm, err := assemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80},
		"\tERROR bad configuration\n")
	if err == nil || !errors.Is(&asm.Errs, z80asm.ErrUser) {
		t.Errorf("error = %v, want the user error", err)
	}
}

func TestClockDirectives(t *testing.T) {
	now := func() time.Time { return time.Date(2001, time.February, 3, 4, 5, 6, 0, time.UTC) }
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80, Now: now, Build: 42},
		"\tDATE\n\tTIME\n\tBUILD\n")
	got := string(imageBytes(t, res))
	want := "03 Feb 2001" + "04:05:06" + "42"
	if got != want {
		t.Errorf("bytes = %q, want %q", got, want)
	}
}

func TestInclude(t *testing.T) {
	asm := MakeAssembler(Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80, Fill: 0xFF, Stdout: &bytes.Buffer{}})
	p := asm.newParser()
	p.ReadFile = func(path string) ([]byte, error) {
		if strings.HasSuffix(path, "inc.mac") {
			return []byte("\tDB 9\n"), nil
		}
		return nil, errors.New("not found")
	}
	// The same file included twice is spliced only once.
	stmts := p.ParseSource("main.mac", "\tINCLUDE 'inc.mac'\n\tINCLUDE 'inc.mac'\n")
	res, err := asm.run(stmts)
	if err != nil {
		t.Fatalf("assembly failed: %v", err)
	}
	got := imageBytes(t, res)
	if !bytes.Equal(got, []byte{9}) {
		t.Errorf("bytes = % X, want 09", got)
	}
}

func TestPublicAndExtern(t *testing.T) {
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80}, strings.Join([]string{
		"\tPUBLIC main",
		"\tEXTRN other",
		"main:\tRET",
	}, "\n"))
	if !res.Syms.Get("main").Public {
		t.Error("main should be public")
	}
	if res.Syms.Get("other").Kind != SymExtern {
		t.Error("other should be external")
	}
}

func TestCaseSensitivityPerStyle(t *testing.T) {
	// M80 keeps case, the other dialects fold it.
	res := mustAssemble(t, Info{Style: z80asm.StyleZASM, CPU: z80asm.CPUZ80},
		"Label:\tRET\n\tJP LABEL\n")
	if _, ok := res.Syms.Lookup("label"); !ok {
		t.Error("ZASM lookups should fold case")
	}

	_, asm, err := assemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80},
		"Label:\tRET\n\tJP LABEL\n")
	if err == nil || !errors.Is(&asm.Errs, z80asm.ErrUnresolvedSym) {
		t.Errorf("error = %v, want unresolved symbol", err)
	}
}
