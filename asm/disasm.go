package asm

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/mna/n7/asm/opcode"
)

// Disassemble renders bytecode back into the textual assembly form
// Assemble accepts, given labelAt to name any address that a label should
// be printed at (e.g. every address that was a jump target during
// encoding). Assemble, disassemble, then reassemble yields identical
// bytecode when labelAt names every address a label operand refers to; a
// label operand at an address labelAt does not name is printed as
// "L<addr>", with no matching label definition.
func Disassemble(code []byte, labelAt func(addr uint32) (string, bool)) (string, error) {
	var sb strings.Builder
	off := 0
	for off < len(code) {
		addr := uint32(off)
		if labelAt != nil {
			if name, ok := labelAt(addr); ok {
				sb.WriteString(name)
				sb.WriteString(":\n")
			}
		}
		op := opcode.Opcode(code[off])
		off++
		sb.WriteString(op.String())

		switch op.Operand() {
		case opcode.OperandNone:

		case opcode.OperandReg:
			if off >= len(code) {
				return "", fmt.Errorf("truncated operand for %s at %d", op, addr)
			}
			fmt.Fprintf(&sb, " @%d", code[off])
			off++

		case opcode.OperandReg2:
			if off+1 >= len(code) {
				return "", fmt.Errorf("truncated operand for %s at %d", op, addr)
			}
			fmt.Fprintf(&sb, " @%d @%d", code[off], code[off+1])
			off += 2

		case opcode.OperandInt:
			v, n, err := readUint32(code, off)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, " %d", v)
			off += n

		case opcode.OperandLabel:
			v, n, err := readUint32(code, off)
			if err != nil {
				return "", err
			}
			name := fmt.Sprintf("L%d", v)
			if labelAt != nil {
				if n, ok := labelAt(v); ok {
					name = n
				}
			}
			fmt.Fprintf(&sb, " %s", name)
			off += n

		case opcode.OperandFloat:
			if off+8 > len(code) {
				return "", fmt.Errorf("truncated operand for %s at %d", op, addr)
			}
			bits := binary.LittleEndian.Uint64(code[off : off+8])
			fmt.Fprintf(&sb, " %v", math.Float64frombits(bits))
			off += 8

		case opcode.OperandSys:
			if off+1 >= len(code) {
				return "", fmt.Errorf("truncated operand for %s at %d", op, addr)
			}
			fmt.Fprintf(&sb, " %d %d", code[off], code[off+1])
			off += 2

		case opcode.OperandStr:
			s, n, err := readString(code, off)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, " %q", s)
			off += n

		case opcode.OperandName:
			s, n, err := readString(code, off)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, " .%s", s)
			off += n

		case opcode.OperandPval:
			v, n, err := readUint32(code, off)
			if err != nil {
				return "", err
			}
			off += n
			s, n2, err := readString(code, off)
			if err != nil {
				return "", err
			}
			off += n2
			fmt.Fprintf(&sb, " %d .%s", v, s)
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func readUint32(code []byte, off int) (uint32, int, error) {
	if off+4 > len(code) {
		return 0, 0, fmt.Errorf("truncated 32-bit operand at %d", off)
	}
	return binary.LittleEndian.Uint32(code[off : off+4]), 4, nil
}

func readString(code []byte, off int) (string, int, error) {
	ln, _, err := readUint32(code, off)
	if err != nil {
		return "", 0, err
	}
	start := off + 4
	end := start + int(ln)
	if end > len(code) {
		return "", 0, fmt.Errorf("truncated string operand at %d", off)
	}
	return string(code[start:end]), 4 + int(ln), nil
}
