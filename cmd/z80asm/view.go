package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
)

// viewCmd is a terminal hex viewer for the binaries the assembler
// writes, handy for eyeballing a patch without leaving the shell.
var viewCmd = &cobra.Command{
	Use:   "view binary",
	Short: "browse an assembled binary as a hex dump",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		base, err := cmd.Flags().GetUint16("base")
		if err != nil {
			return err
		}
		return runViewer(args[0], data, int(base))
	},
}

func init() {
	viewCmd.Flags().Uint16("base", 0, "address of the first byte of the file")
}

const viewCols = 16

type viewer struct {
	name string
	data []byte
	base int
	top  int // first visible row
}

func runViewer(name string, data []byte, base int) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	v := &viewer{name: name, data: data, base: base}
	for {
		v.draw(screen)
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			if v.handleKey(ev, screen) {
				return nil
			}
		}
	}
}

func (v *viewer) rows() int {
	return (len(v.data) + viewCols - 1) / viewCols
}

func (v *viewer) handleKey(ev *tcell.EventKey, screen tcell.Screen) (quit bool) {
	_, h := screen.Size()
	page := h - 2
	if page < 1 {
		page = 1
	}
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		v.top--
	case tcell.KeyDown:
		v.top++
	case tcell.KeyPgUp:
		v.top -= page
	case tcell.KeyPgDn:
		v.top += page
	case tcell.KeyHome:
		v.top = 0
	case tcell.KeyEnd:
		v.top = v.rows() - page
	case tcell.KeyRune:
		if ev.Rune() == 'q' {
			return true
		}
	}
	if max := v.rows() - page; v.top > max {
		v.top = max
	}
	if v.top < 0 {
		v.top = 0
	}
	return false
}

func (v *viewer) draw(screen tcell.Screen) {
	screen.Clear()
	w, h := screen.Size()
	header := fmt.Sprintf("%s  %d bytes  (arrows/PgUp/PgDn scroll, q quits)", v.name, len(v.data))
	puts(screen, 0, 0, header, tcell.StyleDefault.Bold(true))
	for row := 0; row < h-1; row++ {
		off := (v.top + row) * viewCols
		if off >= len(v.data) {
			break
		}
		line := v.formatRow(off)
		if len(line) > w {
			line = line[:w]
		}
		puts(screen, 0, row+1, line, tcell.StyleDefault)
	}
	screen.Show()
}

func (v *viewer) formatRow(off int) string {
	end := off + viewCols
	if end > len(v.data) {
		end = len(v.data)
	}
	hex := ""
	ascii := ""
	for i := off; i < off+viewCols; i++ {
		if i < end {
			b := v.data[i]
			hex += fmt.Sprintf("%02X ", b)
			if b >= 0x20 && b <= 0x7E {
				ascii += string(rune(b))
			} else {
				ascii += "."
			}
		} else {
			hex += "   "
			ascii += " "
		}
		if (i-off)%8 == 7 {
			hex += " "
		}
	}
	return fmt.Sprintf("%04X  %s %s", v.base+off, hex, ascii)
}

func puts(screen tcell.Screen, x, y int, s string, style tcell.Style) {
	for i, r := range s {
		screen.SetContent(x+i, y, r, nil, style)
	}
}
