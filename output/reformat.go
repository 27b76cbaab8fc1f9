package output

import (
	"fmt"
	"sort"
	"strings"

	z80asm "github.com/Memotech-Bill/Z80Asm"
	"github.com/Memotech-Bill/Z80Asm/assembler"
)

// Reformat rewrites source text from one dialect's lexical conventions
// to another's: numeric literals change prefix or suffix, strings are
// requoted, and label punctuation moves between the dot and colon
// forms. Spacing and comments are left exactly where they were, so a
// reformatted file still assembles to the same image.
func Reformat(src string, from, to z80asm.Style) string {
	var scratch z80asm.ErrorList
	lx := assembler.Lexer{Spec: assembler.SpecFor(from), Permissive: true, Warns: &scratch}
	src = strings.ReplaceAll(src, "\r\n", "\n")
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		toks := lx.Line(z80asm.Pos{Line: i + 1}, line, &scratch)
		lines[i] = reformatLine(line, toks, from, to)
	}
	return strings.Join(lines, "\n")
}

type edit struct {
	start, end int
	text       string
}

func reformatLine(line string, toks []assembler.Token, from, to z80asm.Style) string {
	var edits []edit
	for _, t := range toks {
		start := t.Pos.Col - 1
		switch t.Kind {
		case assembler.NUMBER:
			edits = append(edits, edit{start, start + len(t.Text), formatNumber(t.Val, t.Base, to)})
		case assembler.STRING:
			// Hex string literals (X'..') keep their spelling.
			if start < len(line) && (line[start] == '"' || line[start] == '\'') && printable(t.Text) {
				end := start + stringSpan(line, start)
				edits = append(edits, edit{start, end, quote(t.Text)})
			}
		}
	}
	if e, ok := labelEdit(line, toks, from, to); ok {
		edits = append(edits, e)
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	for _, e := range edits {
		if e.end > len(line) {
			continue
		}
		line = line[:e.start] + e.text + line[e.end:]
	}
	return line
}

// labelEdit converts the label punctuation at the start of a line: the
// MA dot form to name:: (dot labels are public), and the colon forms to
// the dot form when MA is the target.
func labelEdit(line string, toks []assembler.Token, from, to z80asm.Style) (edit, bool) {
	if from == to || len(toks) == 0 {
		return edit{}, false
	}
	t := toks[0]
	if t.Kind != assembler.IDENT || t.Pos.Col != 1 {
		return edit{}, false
	}
	if from == z80asm.StyleMA && strings.HasPrefix(t.Text, ".") {
		name := strings.TrimPrefix(t.Text, ".")
		return edit{0, len(t.Text), name + "::"}, true
	}
	if to == z80asm.StyleMA && len(toks) > 1 && toks[1].Kind == assembler.COLON {
		end := len(t.Text) + 1
		if len(toks) > 2 && toks[2].Kind == assembler.COLON && toks[2].Pos.Col == end+1 {
			end++
		}
		return edit{0, end, "." + t.Text}, true
	}
	return edit{}, false
}

func formatNumber(v int, base byte, to z80asm.Style) string {
	switch base {
	case 'H':
		switch to {
		case z80asm.StyleMA, z80asm.StylePASMO:
			return fmt.Sprintf("&%X", v)
		case z80asm.StyleZASM:
			return fmt.Sprintf("#%X", v)
		}
		s := fmt.Sprintf("%XH", v)
		if s[0] > '9' {
			s = "0" + s
		}
		return s
	case 'B':
		if to == z80asm.StyleMA || to == z80asm.StylePASMO {
			return fmt.Sprintf("%%%b", v)
		}
		return fmt.Sprintf("%bB", v)
	case 'Q':
		return fmt.Sprintf("%oQ", v)
	}
	return fmt.Sprintf("%d", v)
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// stringSpan finds the length of the quoted literal that starts at
// position i of the raw line.
func stringSpan(line string, i int) int {
	q := line[i]
	j := i + 1
	for j < len(line) {
		if line[j] == q {
			if j+1 < len(line) && line[j+1] == q {
				j += 2
				continue
			}
			return j + 1 - i
		}
		j++
	}
	return len(line) - i
}
