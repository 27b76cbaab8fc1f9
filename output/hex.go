package output

import (
	"bufio"
	"fmt"
	"io"

	z80asm "github.com/Memotech-Bill/Z80Asm"
)

const hexRecordLen = 16

// WriteHex writes the image as Intel hex: data records of up to 16
// bytes covering only the explicitly written addresses, then an end
// record carrying the entry address.
func WriteHex(w io.Writer, img *z80asm.Image, entry z80asm.MachineAddress) error {
	bw := bufio.NewWriter(w)
	addrs := img.Addresses()
	for i := 0; i < len(addrs); {
		start := addrs[i]
		j := i + 1
		for j < len(addrs) && j-i < hexRecordLen && addrs[j] == addrs[j-1]+1 {
			j++
		}
		data := make([]byte, 0, j-i)
		for _, a := range addrs[i:j] {
			b, _ := img.At(a)
			data = append(data, b)
		}
		if err := hexRecord(bw, start, 0x00, data); err != nil {
			return err
		}
		i = j
	}
	if err := hexRecord(bw, entry, 0x01, nil); err != nil {
		return err
	}
	return bw.Flush()
}

func hexRecord(w io.Writer, addr z80asm.MachineAddress, typ byte, data []byte) error {
	sum := byte(len(data)) + byte(addr>>8) + byte(addr) + typ
	if _, err := fmt.Fprintf(w, ":%02X%04X%02X", len(data), addr, typ); err != nil {
		return err
	}
	for _, b := range data {
		sum += b
		if _, err := fmt.Fprintf(w, "%02X", b); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%02X\n", byte(-sum))
	return err
}
