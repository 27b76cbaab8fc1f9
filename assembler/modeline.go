package assembler

import (
	"strings"
)

// ScanModeline looks for an editor-style modeline in the first few
// lines of a source file, of the form
//
//	; z80asm: style=M80 cpu=Z180
//
// and returns the settings it names.
func ScanModeline(src string) (style, cpu string, ok bool) {
	lines := strings.SplitN(src, "\n", 4)
	if len(lines) > 3 {
		lines = lines[:3]
	}
	for _, line := range lines {
		i := strings.Index(line, "z80asm:")
		if i < 0 {
			continue
		}
		for _, field := range strings.Fields(line[i+len("z80asm:"):]) {
			switch {
			case strings.HasPrefix(field, "style="):
				style = strings.TrimPrefix(field, "style=")
				ok = true
			case strings.HasPrefix(field, "cpu="):
				cpu = strings.TrimPrefix(field, "cpu=")
				ok = true
			}
		}
		return style, cpu, ok
	}
	return "", "", false
}
