// Package opcode defines the stable bytecode instruction set shared by the
// assembler (C7) and the runtime it targets: one enum value per mnemonic,
// its textual name, and the shape of its operands.
package opcode

import "fmt"

// Opcode identifies one bytecode instruction.
type Opcode uint8

// OperandKind tags what an instruction's operand bytes encode, so the
// assembler and disassembler can size and format them without a
// per-opcode switch.
type OperandKind uint8

const (
	OperandNone    OperandKind = iota
	OperandReg                 // one byte: register index
	OperandReg2                // two bytes: two register indices (spop, assert)
	OperandInt                 // 4 bytes LE: integer literal
	OperandFloat               // 8 bytes LE: float literal
	OperandStr                 // 4-byte LE length prefix + UTF-8 bytes
	OperandName                // same encoding as OperandStr: an identifier operand (".name")
	OperandLabel               // 4 bytes LE: absolute byte offset, patched in the emit pass
	OperandSys                 // 1 byte selector + 1 byte arity (sys <selector> <arity>)
	OperandPval                // 4-byte LE expected count + name operand (opt_pval)
)

const ( //nolint:revive
	NOP Opcode = iota

	// Literal loads: none of these appear in the instruction table verbatim,
	// but every register-form arithmetic op already resolved to "implicit
	// accumulator @0/@1, result in @0" (see below), and nothing gets a
	// literal onto a register in the first place. These four complete that
	// family with the same zero-explicit-destination convention, so
	// `ldi`/`ldf`/`lds`/`ldnull` followed by `push @0` is how a literal
	// reaches the value stack.
	LDI     // ldi <int>: @0 = int literal
	LDF     // ldf <float>: @0 = float literal
	LDS     // lds <string>: @0 = string literal
	LDNULL  // ldnull: @0 = null
	LDLABEL // ldlabel <label>: @0 = function value referencing label (anonymous functions)

	// Memory stack. mload/madd/mdel take <name|register>: the
	// *R variant resolves the field name dynamically from @0 instead of a
	// literal ".name" operand, for table[expr]-style computed indirection.
	MPUSH  // mpush
	MPOP   // mpop
	MSWAP  // mswap
	MLOAD  // mload <name>
	MLOADR // mloadr @0 (dynamic key)
	MSET   // mset <reg>
	MGET   // mget <reg>
	MADD   // madd <name>
	MADDR  // maddr @0 (dynamic key)
	MDEL   // mdel <name>
	MDELR  // mdelr @0 (dynamic key)
	MCLR   // mclr
	LPTBL  // lptbl
	LOADPM // loadpm
	LOCAL  // local
	CTBL   // ctbl
	CLR    // clr <reg>: zero out a register (default function return value)

	// Value stack.
	PUSH // push <reg>
	POP  // pop <reg>
	SWAP // swap
	SPOP // spop <a> <b>

	// Fused stack arithmetic.
	SPADD
	SPSUB
	SPMUL
	SPDIV
	SPMOD
	SPEQL
	SPLESS
	SPGRE
	SPLEQL
	SPGEQL
	SPNEQL

	// Register-form arithmetic/logic. Zero-operand: operates on the
	// implicit accumulator pair @0/@1, result in @0 (resolved Open Question,
	// see DESIGN.md — chosen for encoding uniformity with the sp* family).
	ADD
	SUB
	MUL
	DIV
	MOD
	NEG
	EQL
	LESS
	GRE
	LEQL
	GEQL
	NEQL
	AND
	OR
	NOT
	POR
	PAND

	// Math primitives.
	COS
	SIN
	TAN
	ACOS
	ASIN
	ATAN
	ATAN2
	SQR
	LOG
	SGN
	POW
	FLOOR
	CEIL
	ROUND
	RAD
	DEG
	MIN
	MAX
	ABS

	// Conversion / introspection.
	STR
	NUM
	INT
	TYPE
	SIZE
	LEN
	CPY

	// Control flow.
	JMP   // jmp <label>
	JMPT  // jmpt <label>
	JMPF  // jmpf <label>
	JMPET // jmpet <label> (eval then jump-if-true)
	JMPEF // jmpef <label> (eval then jump-if-false)
	CALL  // call <reg>
	RET   // ret
	END   // end
	ASSERT
	RTE  // rte <reg>
	ECMP // ecmp

	// Iteration.
	ILOAD
	IHAS
	IVAL
	IKEY
	IPUSH
	IPOP
	ISTEP
	IDEL

	// System / foreign call.
	SYS   // sys <selector> <arity>
	FLOAD // fload <path>
	FCALL // fcall <arity>

	// Peephole-fused synthetic opcodes.
	OPT_MALS          // opt_mals <name>
	OPT_MSSP          // opt_mssp <reg>: fuses "mswap; mset <reg>; mpop"
	OPT_LOADPARAM     // opt_loadparam <name>
	OPT_LOADSINGLEVAR // opt_loadsinglevar
	OPT_LOADSINGLEVARG
	OPT_PVAL // opt_pval <expected> <name>

	maxOpcode
)

var names = [maxOpcode]string{
	NOP: "nop",

	LDI:    "ldi",
	LDF:    "ldf",
	LDS:     "lds",
	LDNULL:  "ldnull",
	LDLABEL: "ldlabel",

	MPUSH:  "mpush",
	MPOP:   "mpop",
	MSWAP:  "mswap",
	MLOAD:  "mload",
	MLOADR: "mloadr",
	MSET:   "mset",
	MGET:   "mget",
	MADD:   "madd",
	MADDR:  "maddr",
	MDEL:   "mdel",
	MDELR:  "mdelr",
	MCLR:   "mclr",
	LPTBL:  "lptbl",
	LOADPM: "loadpm",
	LOCAL:  "local",
	CTBL:   "ctbl",
	CLR:    "clr",

	PUSH: "push",
	POP:  "pop",
	SWAP: "swap",
	SPOP: "spop",

	SPADD:  "spadd",
	SPSUB:  "spsub",
	SPMUL:  "spmul",
	SPDIV:  "spdiv",
	SPMOD:  "spmod",
	SPEQL:  "speql",
	SPLESS: "spless",
	SPGRE:  "spgre",
	SPLEQL: "spleql",
	SPGEQL: "spgeql",
	SPNEQL: "spneql",

	ADD:  "add",
	SUB:  "sub",
	MUL:  "mul",
	DIV:  "div",
	MOD:  "mod",
	NEG:  "neg",
	EQL:  "eql",
	LESS: "less",
	GRE:  "gre",
	LEQL: "leql",
	GEQL: "geql",
	NEQL: "neql",
	AND:  "and",
	OR:   "or",
	NOT:  "not",
	POR:  "por",
	PAND: "pand",

	COS:   "cos",
	SIN:   "sin",
	TAN:   "tan",
	ACOS:  "acos",
	ASIN:  "asin",
	ATAN:  "atan",
	ATAN2: "atan2",
	SQR:   "sqr",
	LOG:   "log",
	SGN:   "sgn",
	POW:   "pow",
	FLOOR: "floor",
	CEIL:  "ceil",
	ROUND: "round",
	RAD:   "rad",
	DEG:   "deg",
	MIN:   "min",
	MAX:   "max",
	ABS:   "abs",

	STR:  "str",
	NUM:  "num",
	INT:  "int",
	TYPE: "type",
	SIZE: "size",
	LEN:  "len",
	CPY:  "cpy",

	JMP:    "jmp",
	JMPT:   "jmpt",
	JMPF:   "jmpf",
	JMPET:  "jmpet",
	JMPEF:  "jmpef",
	CALL:   "call",
	RET:    "ret",
	END:    "end",
	ASSERT: "assert",
	RTE:    "rte",
	ECMP:   "ecmp",

	ILOAD: "iload",
	IHAS:  "ihas",
	IVAL:  "ival",
	IKEY:  "ikey",
	IPUSH: "ipush",
	IPOP:  "ipop",
	ISTEP: "istep",
	IDEL:  "idel",

	SYS:   "sys",
	FLOAD: "fload",
	FCALL: "fcall",

	OPT_MALS:           "opt_mals",
	OPT_MSSP:           "opt_mssp",
	OPT_LOADPARAM:      "opt_loadparam",
	OPT_LOADSINGLEVAR:  "opt_loadsinglevar",
	OPT_LOADSINGLEVARG: "opt_loadsinglevarg",
	OPT_PVAL:           "opt_pval",
}

var operands = [maxOpcode]OperandKind{
	LDI:     OperandInt,
	LDF:     OperandFloat,
	LDS:     OperandStr,
	LDLABEL: OperandLabel,

	MLOAD:  OperandName,
	MLOADR: OperandReg,
	MSET:   OperandReg,
	MGET:   OperandReg,
	MADD:   OperandName,
	MADDR:  OperandReg,
	MDEL:   OperandName,
	MDELR:  OperandReg,
	CLR:    OperandReg,

	PUSH: OperandReg,
	POP:  OperandReg,
	SPOP: OperandReg2,

	JMP:   OperandLabel,
	JMPT:  OperandLabel,
	JMPF:  OperandLabel,
	JMPET: OperandLabel,
	JMPEF: OperandLabel,
	CALL:  OperandReg,
	ASSERT: OperandReg2,
	RTE:   OperandReg,

	SYS:   OperandSys,
	FLOAD: OperandStr,
	FCALL: OperandInt,

	OPT_MALS:           OperandName,
	OPT_MSSP:           OperandReg,
	OPT_LOADPARAM:      OperandName,
	OPT_LOADSINGLEVAR:  OperandName,
	OPT_LOADSINGLEVARG: OperandName,
	OPT_PVAL:           OperandPval,
}

var reverse map[string]Opcode

func init() {
	reverse = make(map[string]Opcode, len(names))
	for op, name := range names {
		if name != "" {
			reverse[name] = Opcode(op)
		}
	}
}

// String returns op's mnemonic, or "<invalid opcode %d>" if out of range.
func (op Opcode) String() string {
	if int(op) >= len(names) || names[op] == "" {
		return fmt.Sprintf("<invalid opcode %d>", op)
	}
	return names[op]
}

// Operand reports the operand shape for op.
func (op Opcode) Operand() OperandKind {
	if int(op) >= len(operands) {
		return OperandNone
	}
	return operands[op]
}

// Lookup resolves a mnemonic to its Opcode.
func Lookup(mnemonic string) (Opcode, bool) {
	op, ok := reverse[mnemonic]
	return op, ok
}

// EncodedSize returns the number of operand bytes (not counting the
// opcode byte itself) for a fixed-size operand kind; OperandStr/OperandName
// are variable length and return -1 (the caller must measure the payload).
func (k OperandKind) EncodedSize() int {
	switch k {
	case OperandNone:
		return 0
	case OperandReg:
		return 1
	case OperandReg2:
		return 2
	case OperandInt, OperandLabel:
		return 4
	case OperandFloat:
		return 8
	case OperandSys:
		return 2
	case OperandPval:
		return -1 // 4-byte count + variable-length name
	default:
		return -1
	}
}
