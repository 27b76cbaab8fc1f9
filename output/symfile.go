package output

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	z80asm "github.com/Memotech-Bill/Z80Asm"
	"github.com/Memotech-Bill/Z80Asm/assembler"
)

// hexStyle renders a value the way the dialect's own sources would
// write it, so the symbol file can be re-included.
func hexStyle(style z80asm.Style, v int) string {
	u := v & 0xFFFF
	switch style {
	case z80asm.StyleZASM:
		return fmt.Sprintf("#%04X", u)
	case z80asm.StyleMA, z80asm.StylePASMO:
		return fmt.Sprintf("$%04X", u)
	}
	s := fmt.Sprintf("%04XH", u)
	if s[0] > '9' {
		s = "0" + s
	}
	return s
}

// WriteSymbols writes the equate-style symbol file: public symbols
// first, then the locals grouped by the file that defined them, each
// section sorted by name.
func WriteSymbols(w io.Writer, res *assembler.Result, style z80asm.Style) error {
	bw := bufio.NewWriter(w)
	syms := res.Syms.All()

	var publics []*assembler.Symbol
	locals := make(map[string][]*assembler.Symbol)
	var files []string
	for _, sym := range syms {
		if sym.Public {
			publics = append(publics, sym)
			continue
		}
		if _, ok := locals[sym.At.File]; !ok {
			files = append(files, sym.At.File)
		}
		locals[sym.At.File] = append(locals[sym.At.File], sym)
	}
	sort.Strings(files)

	write := func(syms []*assembler.Symbol) {
		for _, sym := range syms {
			fmt.Fprintf(bw, "%-16s equ\t%s\t; %c %s:%d\n",
				sym.Raw+":", hexStyle(style, sym.Val), byte(sym.Seg), sym.At.File, sym.At.Line)
		}
	}
	write(publics)
	for _, file := range files {
		write(locals[file])
	}
	return bw.Flush()
}
