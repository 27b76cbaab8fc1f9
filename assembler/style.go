package assembler

import (
	z80asm "github.com/Memotech-Bill/Z80Asm"
)

// StyleSpec is the configuration record for one source dialect. The
// lexer and parser are generic; everything dialect specific is a field
// here, so adding a dialect means adding a record, not a subclass.
type StyleSpec struct {
	Name z80asm.Style

	// Numeric literal prefixes beyond the universal '#'.
	AmpHex     bool // &FF
	DollarHex  bool // $FF (a bare $ is still the location counter)
	PercentBin bool // %101

	// MA marks labels with a leading dot in column one instead of a
	// trailing colon, and such labels are automatically public.
	DotLabels bool

	// DS reserves space in M80 and PASMO but defines string data in MA
	// and ZASM.
	DSReserves bool

	// ZASM strings accept \xx hex escapes.
	HexEscapes bool

	// Symbols fold to upper case unless LABCASE overrides.
	CaseSensitive bool

	// MA evaluates expressions strictly left to right unless an EVAL
	// FULL directive asks for ordinary precedence.
	SimpleEval bool
}

var styleSpecs = map[z80asm.Style]StyleSpec{
	z80asm.StyleMA: {
		Name:       z80asm.StyleMA,
		AmpHex:     true,
		PercentBin: true,
		DotLabels:  true,
		SimpleEval: true,
	},
	z80asm.StyleM80: {
		Name:          z80asm.StyleM80,
		DSReserves:    true,
		CaseSensitive: true,
	},
	z80asm.StylePASMO: {
		Name:       z80asm.StylePASMO,
		AmpHex:     true,
		DollarHex:  true,
		PercentBin: true,
		DSReserves: true,
	},
	z80asm.StyleZASM: {
		Name:       z80asm.StyleZASM,
		HexEscapes: true,
	},
}

// SpecFor returns the configuration record for a dialect.
func SpecFor(style z80asm.Style) StyleSpec {
	return styleSpecs[style]
}
