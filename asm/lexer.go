// Package asm implements the assembler (components C6/C7): it tokenizes
// the textual assembly emitted by the compiler's front end, resolves
// labels in a first pass, and encodes instructions to a fixed bytecode
// format in a second pass.
//
// The overall two-pass, line-oriented shape (a bufio.Scanner walking
// lines, split into whitespace-separated fields, with a dedicated pass to
// translate symbolic references to numeric addresses before emission)
// follows a familiar text-format assembler layout.
package asm

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/n7/asm/opcode"
	"github.com/mna/n7/asm/peephole"
)

// Line is one parsed line of textual assembly: either a metadata line
// (MetaFile/MetaLine set, Mnemonic empty) or an instruction, optionally preceded
// by a label definition. Defined in package peephole so that package can
// operate on it without importing package asm.
type Line = peephole.Line

// Lex splits src into Lines, recognising label definitions ("name:" at the
// start of a line), `/file:`/`/line:` metadata, and whitespace-separated
// operand fields with double-quoted strings kept intact.
func Lex(src []byte) ([]Line, error) {
	var lines []Line
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	no := 0
	for sc.Scan() {
		no++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "'") {
			continue // comment line
		}
		if strings.HasPrefix(raw, "/") {
			l, err := parseMeta(no, raw)
			if err != nil {
				return nil, err
			}
			lines = append(lines, l)
			continue
		}

		l := Line{No: no}
		fields, err := splitFields(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", no, err)
		}
		if len(fields) == 0 {
			continue
		}
		if strings.HasSuffix(fields[0], ":") && len(fields[0]) > 1 {
			l.Label = strings.TrimSuffix(fields[0], ":")
			fields = fields[1:]
		}
		if len(fields) == 0 {
			if l.Label == "" {
				continue
			}
			lines = append(lines, l)
			continue
		}
		l.Mnemonic = fields[0]
		l.Operands = fields[1:]
		lines = append(lines, l)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func parseMeta(no int, raw string) (Line, error) {
	switch {
	case strings.HasPrefix(raw, "/file:"):
		return Line{No: no, IsMeta: true, MetaFile: strings.TrimPrefix(raw, "/file:")}, nil
	case strings.HasPrefix(raw, "/line:"):
		n, err := strconv.Atoi(strings.TrimPrefix(raw, "/line:"))
		if err != nil {
			return Line{}, fmt.Errorf("line %d: invalid /line: metadata: %w", no, err)
		}
		return Line{No: no, IsMeta: true, MetaLine: n}, nil
	default:
		return Line{}, fmt.Errorf("line %d: unrecognised metadata %q", no, raw)
	}
}

// splitFields tokenizes a line on whitespace, keeping a double-quoted
// string (which may itself contain spaces) as a single field including its
// quotes.
func splitFields(s string) ([]string, error) {
	var fields []string
	i := 0
	for i < len(s) {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		if s[i] == '"' {
			start := i
			i++
			for i < len(s) && s[i] != '"' {
				i++
			}
			if i >= len(s) {
				return nil, fmt.Errorf("unterminated string literal")
			}
			i++ // consume closing quote
			fields = append(fields, s[start:i])
			continue
		}
		start := i
		for i < len(s) && !isSpace(s[i]) {
			i++
		}
		fields = append(fields, s[start:i])
	}
	return fields, nil
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

// parseRegister parses an "@N" operand.
func parseRegister(s string) (byte, error) {
	if !strings.HasPrefix(s, "@") {
		return 0, fmt.Errorf("expected register operand, got %q", s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 || n > 255 {
		return 0, fmt.Errorf("invalid register operand %q", s)
	}
	return byte(n), nil
}

// parseName parses a ".name" operand.
func parseName(s string) (string, error) {
	if !strings.HasPrefix(s, ".") {
		return "", fmt.Errorf("expected .name operand, got %q", s)
	}
	return s[1:], nil
}

// parseStringLiteral parses a quoted string operand, stripping the quotes.
func parseStringLiteral(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("expected string operand, got %q", s)
	}
	return s[1 : len(s)-1], nil
}

// mnemonicOpcode resolves a line's mnemonic to an opcode.Opcode.
func mnemonicOpcode(mnemonic string) (opcode.Opcode, error) {
	op, ok := opcode.Lookup(mnemonic)
	if !ok {
		return 0, fmt.Errorf("unknown mnemonic %q", mnemonic)
	}
	return op, nil
}
