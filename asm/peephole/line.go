// Package peephole implements component C8: pattern-matching over a
// window of adjacent textual-assembly instructions, fusing six known
// sequences into their synthetic opcodes.
//
// Line is defined here (rather than in package asm) so that this package
// has no dependency on the assembler proper; package asm aliases it as its
// own Line type, since both packages need to agree on one instruction
// representation without an import cycle.
package peephole

// Line is one parsed line of textual assembly.
type Line struct {
	No       int
	Label    string
	Mnemonic string
	Operands []string

	IsMeta   bool
	MetaFile string
	MetaLine int
}
