package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	z80asm "github.com/Memotech-Bill/Z80Asm"
	"github.com/Memotech-Bill/Z80Asm/assembler"
)

// Lister writes the assembly listing from the statement annotations the
// final pass left behind.
type Lister struct {
	// ShowLoad adds the load address column, which shrinks the byte
	// field of the first row from six bytes to four.
	ShowLoad bool
	// Force lists lines even where NOLIST suppressed them.
	Force bool
}

func (l *Lister) bytesPerRow() int {
	if l.ShowLoad {
		return 4
	}
	return 6
}

// Write renders the listing. Diagnostics are attached under the source
// line they belong to.
func (l *Lister) Write(w io.Writer, res *assembler.Result, errs *z80asm.ErrorList) error {
	bw := bufio.NewWriter(w)
	byLine := make(map[z80asm.Pos][]z80asm.Diag)
	if errs != nil {
		for _, d := range errs.Diags {
			key := z80asm.Pos{File: d.Pos.File, Line: d.Pos.Line}
			byLine[key] = append(byLine[key], d)
		}
	}
	if res.Title != "" {
		fmt.Fprintf(bw, "%s\n\n", res.Title)
	}
	l.walk(bw, res.Stmts, byLine)
	return bw.Flush()
}

func (l *Lister) walk(w io.Writer, stmts []assembler.Stmt, byLine map[z80asm.Pos][]z80asm.Diag) {
	for _, stmt := range stmts {
		base := stmt.Base()
		if !base.NoList || l.Force {
			l.line(w, base)
			for _, d := range byLine[z80asm.Pos{File: base.At.File, Line: base.At.Line}] {
				fmt.Fprintf(w, "*** ERROR: %s: %s\n", d.Kind, d.Msg)
			}
		}
		switch s := stmt.(type) {
		case *assembler.CondStmt:
			l.walk(w, s.Then, byLine)
			l.walk(w, s.Else, byLine)
		case *assembler.ReptStmt:
			l.walk(w, s.Body, byLine)
		case *assembler.IncludeStmt:
			l.walk(w, s.Body, byLine)
		}
	}
}

func (l *Lister) line(w io.Writer, base *assembler.StmtBase) {
	per := l.bytesPerRow()
	addr := l.addrField(base)
	field := l.byteField(base, 0, per)
	fmt.Fprintf(w, " %s %-*s  %s\n", addr, 3*per, field, strings.TrimRight(base.Raw, " \t"))
	for off := per; off < len(base.Bytes); off += per {
		fmt.Fprintf(w, " %s %s\n", strings.Repeat(" ", len(addr)), l.byteField(base, off, per))
	}
}

func (l *Lister) addrField(base *assembler.StmtBase) string {
	if l.ShowLoad {
		return fmt.Sprintf("%04X %04X", base.Addr, base.Load)
	}
	return fmt.Sprintf("%04X", base.Addr)
}

func (l *Lister) byteField(base *assembler.StmtBase, off, per int) string {
	if base.HasVal && off == 0 {
		return fmt.Sprintf("= %04X", base.Value&0xFFFF)
	}
	var sb strings.Builder
	for i := off; i < len(base.Bytes) && i < off+per; i++ {
		if i > off {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", base.Bytes[i])
	}
	return sb.String()
}
