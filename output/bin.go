// Package output renders the results of an assembly run: the raw
// binary, Intel hex, the symbol file, the listing and the source
// reformatter.
package output

import (
	"io"

	z80asm "github.com/Memotech-Bill/Z80Asm"
)

// WriteBinary writes the contiguous image from its lowest to its
// highest written address, gaps filled with the image's fill byte.
func WriteBinary(w io.Writer, img *z80asm.Image) error {
	_, err := w.Write(img.Bytes())
	return err
}
