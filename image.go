package z80asm

import (
	"fmt"
	"sort"
)

type cell struct {
	b    byte
	kind UpdateKind
}

// Image is the sparse output of one assembly run: a mapping from load
// address to byte, each byte tagged with the positioning directive that
// placed it. Gaps between the lowest and highest written address read
// back as the fill byte.
type Image struct {
	Fill  byte
	cells map[MachineAddress]cell
	lo    int
	hi    int
}

func NewImage(fill byte) *Image {
	return &Image{Fill: fill, cells: make(map[MachineAddress]cell), lo: -1, hi: -1}
}

// LoadImage wraps a previously written binary as an image based at the
// given address. Kind tags are not recoverable from a binary; they are
// only meaningful on freshly assembled images.
func LoadImage(data []byte, base MachineAddress, fill byte) *Image {
	im := NewImage(fill)
	for i, b := range data {
		addr := base + MachineAddress(i)
		im.cells[addr] = cell{b: b}
		im.track(addr)
	}
	return im
}

func (im *Image) track(addr MachineAddress) {
	a := int(addr)
	if im.lo < 0 || a < im.lo {
		im.lo = a
	}
	if a > im.hi {
		im.hi = a
	}
}

// Put writes one byte. Rewriting an address already written in this run
// is a segment overlap unless the write is authorised by an update
// scope, in which case the later write wins.
func (im *Image) Put(addr MachineAddress, b byte, kind UpdateKind, update bool) error {
	if _, dup := im.cells[addr]; dup && !update {
		return Diag{Kind: ErrSegmentOverlap, Msg: fmt.Sprintf("address 0x%04X written twice", addr)}
	}
	im.cells[addr] = cell{b: b, kind: kind}
	im.track(addr)
	return nil
}

// Set writes a byte without overlap checking. The patch engine uses it
// to build merged images.
func (im *Image) Set(addr MachineAddress, b byte, kind UpdateKind) {
	im.cells[addr] = cell{b: b, kind: kind}
	im.track(addr)
}

// At returns the byte at addr: an explicit write, the fill byte for a
// gap inside the written range, and false outside it.
func (im *Image) At(addr MachineAddress) (byte, bool) {
	if c, ok := im.cells[addr]; ok {
		return c.b, true
	}
	if im.lo >= 0 && int(addr) >= im.lo && int(addr) <= im.hi {
		return im.Fill, true
	}
	return 0, false
}

// Written reports whether addr was explicitly written.
func (im *Image) Written(addr MachineAddress) bool {
	_, ok := im.cells[addr]
	return ok
}

// Kind returns the update kind recorded for addr.
func (im *Image) Kind(addr MachineAddress) UpdateKind {
	return im.cells[addr].kind
}

// Bounds returns the lowest and highest written address. ok is false
// for an empty image.
func (im *Image) Bounds() (lo, hi MachineAddress, ok bool) {
	if im.lo < 0 {
		return 0, 0, false
	}
	return MachineAddress(im.lo), MachineAddress(im.hi), true
}

func (im *Image) Len() int { return len(im.cells) }

// Addresses returns every explicitly written address in ascending order.
func (im *Image) Addresses() []MachineAddress {
	addrs := make([]MachineAddress, 0, len(im.cells))
	for a := range im.cells {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Bytes renders the contiguous binary from the lowest to the highest
// written address, gaps filled with the fill byte. Empty images render
// as no bytes.
func (im *Image) Bytes() []byte {
	if im.lo < 0 {
		return nil
	}
	out := make([]byte, im.hi-im.lo+1)
	for i := range out {
		out[i] = im.Fill
	}
	for a, c := range im.cells {
		out[int(a)-im.lo] = c.b
	}
	return out
}
