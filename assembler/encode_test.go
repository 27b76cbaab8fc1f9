package assembler

import (
	"bytes"
	"testing"

	z80asm "github.com/Memotech-Bill/Z80Asm"
)

func encodeOne(t *testing.T, cpu z80asm.CPU, line string) []byte {
	t.Helper()
	res := mustAssemble(t, Info{Style: z80asm.StyleM80, CPU: cpu}, "\tORG 0\n\t"+line+"\n")
	return imageBytes(t, res)
}

func TestZ80Encodings(t *testing.T) {
	cases := []struct {
		line string
		want []byte
	}{
		// 8-bit loads.
		{"LD A,B", []byte{0x78}},
		{"LD B,(HL)", []byte{0x46}},
		{"LD (HL),A", []byte{0x77}},
		{"LD (HL),42H", []byte{0x36, 0x42}},
		{"LD A,(IX+5)", []byte{0xDD, 0x7E, 0x05}},
		{"LD (IY-2),3", []byte{0xFD, 0x36, 0xFE, 0x03}},
		{"LD A,(BC)", []byte{0x0A}},
		{"LD (DE),A", []byte{0x12}},
		{"LD A,(1234H)", []byte{0x3A, 0x34, 0x12}},
		{"LD (1234H),A", []byte{0x32, 0x34, 0x12}},
		{"LD I,A", []byte{0xED, 0x47}},
		{"LD A,R", []byte{0xED, 0x5F}},
		// 16-bit loads.
		{"LD DE,5678H", []byte{0x11, 0x78, 0x56}},
		{"LD IX,1234H", []byte{0xDD, 0x21, 0x34, 0x12}},
		{"LD HL,(1234H)", []byte{0x2A, 0x34, 0x12}},
		{"LD (1234H),HL", []byte{0x22, 0x34, 0x12}},
		{"LD BC,(1234H)", []byte{0xED, 0x4B, 0x34, 0x12}},
		{"LD (1234H),SP", []byte{0xED, 0x73, 0x34, 0x12}},
		{"LD SP,HL", []byte{0xF9}},
		{"LD SP,IY", []byte{0xFD, 0xF9}},
		// Arithmetic.
		{"ADD HL,DE", []byte{0x19}},
		{"ADD IX,BC", []byte{0xDD, 0x09}},
		{"ADD IX,IX", []byte{0xDD, 0x29}},
		{"ADC HL,BC", []byte{0xED, 0x4A}},
		{"SBC HL,DE", []byte{0xED, 0x52}},
		{"AND B", []byte{0xA0}},
		{"SUB A,C", []byte{0x91}},
		{"XOR 0FFH", []byte{0xEE, 0xFF}},
		{"CP (HL)", []byte{0xBE}},
		{"INC DE", []byte{0x13}},
		{"INC IX", []byte{0xDD, 0x23}},
		{"DEC (IX+1)", []byte{0xDD, 0x35, 0x01}},
		// Rotates and bits.
		{"RLC B", []byte{0xCB, 0x00}},
		{"SRL (HL)", []byte{0xCB, 0x3E}},
		{"BIT 0,A", []byte{0xCB, 0x47}},
		{"SET 7,(IX+3)", []byte{0xDD, 0xCB, 0x03, 0xFE}},
		{"RES 1,C", []byte{0xCB, 0x89}},
		// Control flow.
		{"JP 1234H", []byte{0xC3, 0x34, 0x12}},
		{"JP NZ,1234H", []byte{0xC2, 0x34, 0x12}},
		{"JP (HL)", []byte{0xE9}},
		{"JP (IX)", []byte{0xDD, 0xE9}},
		{"CALL Z,1234H", []byte{0xCC, 0x34, 0x12}},
		{"JR $", []byte{0x18, 0xFE}},
		{"JR C,$", []byte{0x38, 0xFE}},
		{"DJNZ $", []byte{0x10, 0xFE}},
		{"RET NC", []byte{0xD0}},
		{"RST 28H", []byte{0xEF}},
		// Exchanges, stack, ports.
		{"EX (SP),HL", []byte{0xE3}},
		{"EX DE,HL", []byte{0xEB}},
		{"EX AF,AF'", []byte{0x08}},
		{"IM 2", []byte{0xED, 0x5E}},
		{"IN A,(0FEH)", []byte{0xDB, 0xFE}},
		{"IN B,(C)", []byte{0xED, 0x40}},
		{"OUT (C),E", []byte{0xED, 0x59}},
		{"PUSH AF", []byte{0xF5}},
		{"POP IX", []byte{0xDD, 0xE1}},
		{"LDIR", []byte{0xED, 0xB0}},
		{"NEG", []byte{0xED, 0x44}},
		{"CPI", []byte{0xED, 0xA1}},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			got := encodeOne(t, z80asm.CPUZ80, tc.line)
			if !bytes.Equal(got, tc.want) {
				t.Errorf("% X, want % X", got, tc.want)
			}
		})
	}
}

func Test8080Encodings(t *testing.T) {
	cases := []struct {
		line string
		want []byte
	}{
		{"MOV A,M", []byte{0x7E}},
		{"MVI M,5", []byte{0x36, 0x05}},
		{"LXI H,1234H", []byte{0x21, 0x34, 0x12}},
		{"DAD D", []byte{0x19}},
		{"INX SP", []byte{0x33}},
		{"STAX B", []byte{0x02}},
		{"LDAX D", []byte{0x1A}},
		{"STA 1234H", []byte{0x32, 0x34, 0x12}},
		{"LHLD 1234H", []byte{0x2A, 0x34, 0x12}},
		{"ANA C", []byte{0xA1}},
		{"INR M", []byte{0x34}},
		{"ADI 5", []byte{0xC6, 0x05}},
		{"PUSH PSW", []byte{0xF5}},
		{"JPO 10H", []byte{0xE2, 0x10, 0x00}},
		{"CM 1234H", []byte{0xFC, 0x34, 0x12}},
		{"RNZ", []byte{0xC0}},
		{"RST 5", []byte{0xEF}},
		{"XCHG", []byte{0xEB}},
		{"HLT", []byte{0x76}},
		// Z80 spellings of instructions the 8080 actually has still work.
		{"LD A,5", []byte{0x3E, 0x05}},
		{"ADD HL,DE", []byte{0x19}},
		{"JP 1234H", []byte{0xF2, 0x34, 0x12}},
		{"CPI 3", []byte{0xFE, 0x03}},
		{"RLC", []byte{0x07}},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			got := encodeOne(t, z80asm.CPU8080, tc.line)
			if !bytes.Equal(got, tc.want) {
				t.Errorf("% X, want % X", got, tc.want)
			}
		})
	}
}

func TestZ180Encodings(t *testing.T) {
	cases := []struct {
		line string
		want []byte
	}{
		{"MLT SP", []byte{0xED, 0x7C}},
		{"IN0 B,(10H)", []byte{0xED, 0x00, 0x10}},
		{"OUT0 (11H),C", []byte{0xED, 0x09, 0x11}},
		{"TST B", []byte{0xED, 0x04}},
		{"TST (HL)", []byte{0xED, 0x34}},
		{"TSTIO 5", []byte{0xED, 0x74, 0x05}},
		{"OTIM", []byte{0xED, 0x83}},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			got := encodeOne(t, z80asm.CPUZ180, tc.line)
			if !bytes.Equal(got, tc.want) {
				t.Errorf("% X, want % X", got, tc.want)
			}
		})
	}
}

func TestEncodingRangeChecks(t *testing.T) {
	cases := []struct {
		line string
		kind error
	}{
		{"LD A,300H", z80asm.ErrEncoding},
		{"LD (IX+200),A", z80asm.ErrEncoding},
		{"BIT 8,A", z80asm.ErrEncoding},
		{"RST 21H", z80asm.ErrEncoding},
		{"IM 3", z80asm.ErrEncoding},
		{"JR PO,$", z80asm.ErrUnsupported},
		{"MOV A,B", z80asm.ErrUnsupported},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			_, asm, err := assemble(t, Info{Style: z80asm.StyleM80, CPU: z80asm.CPUZ80},
				"\tORG 0\n\t"+tc.line+"\n")
			if err == nil || !asm.Errs.Is(tc.kind) {
				t.Errorf("error = %v, want %v", err, tc.kind)
			}
		})
	}
}
