// Package patch merges a freshly assembled image into a previously
// written one. An update run reassembles the whole program, but only
// the bytes placed by positioning directives named in the scope may
// actually change; everything else must come out byte-identical to the
// old image.
package patch

import (
	"fmt"

	z80asm "github.com/Memotech-Bill/Z80Asm"
)

// addrPos stands in for a source position: a scope violation is found
// in the image, so its address is the location.
func addrPos(addr z80asm.MachineAddress) z80asm.Pos {
	return z80asm.Pos{File: fmt.Sprintf("0x%04X", addr)}
}

// Merge builds the updated image: old bytes everywhere, fresh bytes
// where the scope allows. A fresh byte outside the scope that differs
// from the old image is a scope violation; one that matches is just the
// unchanged remainder of the program.
func Merge(old, fresh *z80asm.Image, scope z80asm.ScopeSet) (*z80asm.Image, error) {
	merged := z80asm.NewImage(old.Fill)
	for _, addr := range old.Addresses() {
		b, _ := old.At(addr)
		merged.Set(addr, b, old.Kind(addr))
	}
	var errs z80asm.ErrorList
	for _, addr := range fresh.Addresses() {
		b, _ := fresh.At(addr)
		kind := fresh.Kind(addr)
		if !scope.Contains(kind) {
			if ob, ok := old.At(addr); !ok || ob != b {
				errs.Add(z80asm.ErrScope, addrPos(addr),
					"%s region changed outside the update scope", kind)
			}
			continue
		}
		merged.Set(addr, b, kind)
	}
	return merged, errs.Err()
}

// Range is one contiguous span of differing bytes.
type Range struct {
	Lo, Hi z80asm.MachineAddress
}

// Changes lists where two images differ, as closed address ranges, so
// an update run can report exactly what it touched.
func Changes(old, merged *z80asm.Image) []Range {
	var out []Range
	open := false
	var cur Range
	flush := func() {
		if open {
			out = append(out, cur)
			open = false
		}
	}
	lo1, hi1, ok1 := old.Bounds()
	lo2, hi2, ok2 := merged.Bounds()
	if !ok1 && !ok2 {
		return nil
	}
	lo, hi := lo1, hi1
	if !ok1 || (ok2 && lo2 < lo) {
		lo = lo2
	}
	if !ok1 || (ok2 && hi2 > hi) {
		hi = hi2
	}
	for a := int(lo); a <= int(hi); a++ {
		addr := z80asm.MachineAddress(a)
		ob, ook := old.At(addr)
		nb, nok := merged.At(addr)
		if ook == nok && ob == nb {
			flush()
			continue
		}
		if !open {
			cur = Range{Lo: addr, Hi: addr}
			open = true
		} else {
			cur.Hi = addr
		}
	}
	flush()
	return out
}
