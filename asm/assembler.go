package asm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mna/n7/asm/opcode"
	"github.com/mna/n7/asm/peephole"
)

// DebugRecord ties a bytecode address to the source file/line it came
// from: present only when dbg is set, skipped by the interpreter when
// not needed.
type DebugRecord struct {
	Addr uint32
	File string
	Line int
}

// Result is the output of Assemble: the encoded bytecode stream plus, when
// requested, debug records.
type Result struct {
	Code  []byte
	Debug []DebugRecord
}

// Options controls assembly.
type Options struct {
	Optimize bool // run the peephole optimizer (C8); the `no_opt` flag disables this
	Debug    bool // emit DebugRecords from /file:/line: metadata
}

// Assemble runs the assembler's two passes over src: a symbol pass that
// records every label's byte offset, then an emit pass that encodes each
// instruction and patches label operands. Returns *ErrorList-compatible
// errors via a plain error, since assembly failures are always singular
// ("Undefined label 'x'", "Duplicate label 'x'") rather than accumulated
// the way compiler diagnostics are.
func Assemble(src []byte, opts Options) (*Result, error) {
	lines, err := Lex(src)
	if err != nil {
		return nil, err
	}
	if opts.Optimize {
		lines = peephole.Fuse(lines)
	}

	symtab, sizes, err := symbolPass(lines)
	if err != nil {
		return nil, err
	}
	return emitPass(lines, symtab, sizes, opts)
}

func symbolPass(lines []Line) (map[string]uint32, []int, error) {
	symtab := map[string]uint32{}
	sizes := make([]int, len(lines))
	var offset uint32

	for i, l := range lines {
		if l.IsMeta {
			continue
		}
		if l.Label != "" {
			if _, dup := symtab[l.Label]; dup {
				return nil, fmt.Errorf("Duplicate label '%s'", l.Label)
			}
			symtab[l.Label] = offset
		}
		if l.Mnemonic == "" {
			continue
		}
		sz, err := instructionSize(l)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", l.No, err)
		}
		sizes[i] = sz
		offset += uint32(sz)
	}
	return symtab, sizes, nil
}

func instructionSize(l Line) (int, error) {
	op, err := mnemonicOpcode(l.Mnemonic)
	if err != nil {
		return 0, err
	}
	size := 1 // opcode byte
	switch op.Operand() {
	case opcode.OperandNone:
	case opcode.OperandReg:
		size += 1
	case opcode.OperandReg2:
		size += 2
	case opcode.OperandInt, opcode.OperandLabel:
		size += 4
	case opcode.OperandFloat:
		size += 8
	case opcode.OperandSys:
		size += 2
	case opcode.OperandStr, opcode.OperandName:
		if len(l.Operands) == 0 {
			return 0, fmt.Errorf("%s: missing operand", l.Mnemonic)
		}
		payload := l.Operands[0]
		if op.Operand() == opcode.OperandName {
			payload = payload[1:] // strip leading '.'
		} else {
			if len(payload) >= 2 {
				payload = payload[1 : len(payload)-1] // strip quotes
			}
		}
		size += 4 + len(payload)
	case opcode.OperandPval:
		if len(l.Operands) < 2 {
			return 0, fmt.Errorf("%s: expected <count> <name> operands", l.Mnemonic)
		}
		name := l.Operands[1]
		if len(name) >= 1 && name[0] == '.' {
			name = name[1:]
		}
		size += 4 + 4 + len(name)
	}
	return size, nil
}

func emitPass(lines []Line, symtab map[string]uint32, sizes []int, opts Options) (*Result, error) {
	res := &Result{}
	buf := make([]byte, 0, 256)

	var curFile string
	var curLine int
	haveMeta := false

	for i, l := range lines {
		if l.IsMeta {
			if l.MetaFile != "" {
				curFile = l.MetaFile
			}
			if l.MetaLine != 0 {
				curLine = l.MetaLine
			}
			haveMeta = true
			continue
		}
		if l.Mnemonic == "" {
			continue
		}
		if opts.Debug && haveMeta {
			res.Debug = append(res.Debug, DebugRecord{Addr: uint32(len(buf)), File: curFile, Line: curLine})
			haveMeta = false
		}
		encoded, err := encodeInstruction(l, symtab)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", l.No, err)
		}
		if len(encoded) != sizes[i] {
			return nil, fmt.Errorf("line %d: internal error: size mismatch for %s", l.No, l.Mnemonic)
		}
		buf = append(buf, encoded...)
	}
	res.Code = buf
	return res, nil
}

func encodeInstruction(l Line, symtab map[string]uint32) ([]byte, error) {
	op, err := mnemonicOpcode(l.Mnemonic)
	if err != nil {
		return nil, err
	}
	buf := []byte{byte(op)}

	switch op.Operand() {
	case opcode.OperandNone:

	case opcode.OperandReg:
		r, err := parseRegister(operand(l, 0))
		if err != nil {
			return nil, err
		}
		buf = append(buf, r)

	case opcode.OperandReg2:
		r0, err := parseRegister(operand(l, 0))
		if err != nil {
			return nil, err
		}
		r1, err := parseRegister(operand(l, 1))
		if err != nil {
			return nil, err
		}
		buf = append(buf, r0, r1)

	case opcode.OperandInt:
		n, err := parseIntOperand(operand(l, 0))
		if err != nil {
			return nil, err
		}
		buf = appendUint32(buf, uint32(n))

	case opcode.OperandFloat:
		f, err := parseFloatOperand(operand(l, 0))
		if err != nil {
			return nil, err
		}
		buf = appendUint64(buf, math.Float64bits(f))

	case opcode.OperandLabel:
		label := operand(l, 0)
		addr, ok := symtab[label]
		if !ok {
			return nil, fmt.Errorf("Undefined label '%s'", label)
		}
		buf = appendUint32(buf, addr)

	case opcode.OperandSys:
		sel, err := parseByteOperand(operand(l, 0))
		if err != nil {
			return nil, err
		}
		arity, err := parseByteOperand(operand(l, 1))
		if err != nil {
			return nil, err
		}
		buf = append(buf, sel, arity)

	case opcode.OperandStr:
		s, err := parseStringLiteral(operand(l, 0))
		if err != nil {
			return nil, err
		}
		buf = appendUint32(buf, uint32(len(s)))
		buf = append(buf, s...)

	case opcode.OperandName:
		name, err := parseName(operand(l, 0))
		if err != nil {
			return nil, err
		}
		buf = appendUint32(buf, uint32(len(name)))
		buf = append(buf, name...)

	case opcode.OperandPval:
		n, err := parseIntOperand(operand(l, 0))
		if err != nil {
			return nil, err
		}
		name, err := parseName(operand(l, 1))
		if err != nil {
			return nil, err
		}
		buf = appendUint32(buf, uint32(n))
		buf = appendUint32(buf, uint32(len(name)))
		buf = append(buf, name...)
	}
	return buf, nil
}

func operand(l Line, i int) string {
	if i < len(l.Operands) {
		return l.Operands[i]
	}
	return ""
}

func parseIntOperand(s string) (int64, error) {
	var neg bool
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if s == "" {
		return 0, fmt.Errorf("expected integer operand")
	}
	var n int64
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid integer operand %q", s)
		}
		n = n*10 + int64(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}

func parseByteOperand(s string) (byte, error) {
	n, err := parseIntOperand(s)
	if err != nil || n < 0 || n > 255 {
		return 0, fmt.Errorf("invalid byte operand %q", s)
	}
	return byte(n), nil
}

func parseFloatOperand(s string) (float64, error) {
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var n float64
	var frac float64 = 1
	seenDot := false
	if s == "" {
		return 0, fmt.Errorf("expected float operand")
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			if seenDot {
				return 0, fmt.Errorf("invalid float operand %q", s)
			}
			seenDot = true
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid float operand %q", s)
		}
		d := float64(s[i] - '0')
		if !seenDot {
			n = n*10 + d
		} else {
			frac /= 10
			n += d * frac
		}
	}
	if neg {
		n = -n
	}
	return n, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}
