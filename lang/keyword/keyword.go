// Package keyword implements the reserved-word table (KeywordEntry,
// component C2): it maps every reserved word of the source
// language, including built-in function names, to a Kind, and carries the
// built-in constants true, false, null and pi that are recognised at parse
// time and compiled as literal values. The table holds no key codes, type
// tags or seek modes.
package keyword

// Kind identifies a single reserved word.
type Kind uint8

//nolint:revive
const (
	// control flow and declarations
	Function Kind = iota
	EndFunc
	If
	Then
	ElseIf
	Else
	EndIf
	Select
	Case
	Default
	EndSel
	While
	Wend
	Do
	Loop
	Until
	For
	To
	Step
	Next
	Foreach
	In
	Break
	Return
	Visible
	Constant
	Include
	Asm
	EndAsm
	This
	End
	Assert

	// logical operators (keywords, not punctuation)
	And
	Or
	Not

	// built-in constants
	True
	False
	Null
	Pi

	// built-in calls: math
	Cos
	Sin
	Tan
	Acos
	Asin
	Atan
	Atan2
	Sqr
	Log
	Sgn
	Pow
	Floor
	Ceil
	Round
	Rad
	Deg
	Min
	Max
	Abs
	Rnd

	// built-in calls: conversion/introspection
	Str
	Num
	Int
	Type
	Size
	Len
	Cpy

	// built-in calls: string
	Left
	Right
	Mid

	// built-in calls: system services (I/O, graphics, etc. - opaque syscalls)
	Pln
	Print
	LoadImage
	FRead
	FWrite
	FOpen
	FClose

	maxKind
)

// ConstKind identifies the type of a compile-time constant value carried by
// a KeywordEntry.
type ConstKind uint8

const (
	NoConst ConstKind = iota
	ConstInt
	ConstFloat
	ConstString
)

// Constant is the compile-time literal value a keyword may carry: a pair
// of (kind, optional constant of type Integer/Float/String/Null).
type Constant struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Str   string
}

// Arity bounds a built-in call's argument count (min, max); max of -1 means
// unbounded.
type Arity struct {
	Min, Max int
}

// Entry is a single row of the keyword table: the Kind, whether it is a
// built-in call (as opposed to a control-flow/declaration keyword), its
// arity bounds if it is a call, and the literal Constant it compiles to if
// it names a built-in constant.
type Entry struct {
	Kind     Kind
	IsCall   bool
	Arity    Arity
	Const    Constant
	HasConst bool
}

var table = map[string]Entry{
	"function": {Kind: Function},
	"endfunc":  {Kind: EndFunc},
	"if":       {Kind: If},
	"then":     {Kind: Then},
	"elseif":   {Kind: ElseIf},
	"else":     {Kind: Else},
	"endif":    {Kind: EndIf},
	"select":   {Kind: Select},
	"case":     {Kind: Case},
	"default":  {Kind: Default},
	"endsel":   {Kind: EndSel},
	"while":    {Kind: While},
	"wend":     {Kind: Wend},
	"do":       {Kind: Do},
	"loop":     {Kind: Loop},
	"until":    {Kind: Until},
	"for":      {Kind: For},
	"to":       {Kind: To},
	"step":     {Kind: Step},
	"next":     {Kind: Next},
	"foreach":  {Kind: Foreach},
	"in":       {Kind: In},
	"break":    {Kind: Break},
	"return":   {Kind: Return},
	"visible":  {Kind: Visible},
	"constant": {Kind: Constant},
	"include":  {Kind: Include},
	"asm":      {Kind: Asm},
	"endasm":   {Kind: EndAsm},
	"this":     {Kind: This},
	"end":      {Kind: End},
	"assert":   {Kind: Assert},
	"and":      {Kind: And},
	"or":       {Kind: Or},
	"not":      {Kind: Not},

	"true":  {Kind: True, HasConst: true, Const: Constant{Kind: ConstInt, Int: 1}},
	"false": {Kind: False, HasConst: true, Const: Constant{Kind: ConstInt, Int: 0}},
	"null":  {Kind: Null, HasConst: true, Const: Constant{Kind: ConstInt, Int: 0}},
	"pi":    {Kind: Pi, HasConst: true, Const: Constant{Kind: ConstFloat, Float: 3.14159265358979323846}},

	"cos":   {Kind: Cos, IsCall: true, Arity: Arity{1, 1}},
	"sin":   {Kind: Sin, IsCall: true, Arity: Arity{1, 1}},
	"tan":   {Kind: Tan, IsCall: true, Arity: Arity{1, 1}},
	"acos":  {Kind: Acos, IsCall: true, Arity: Arity{1, 1}},
	"asin":  {Kind: Asin, IsCall: true, Arity: Arity{1, 1}},
	"atan":  {Kind: Atan, IsCall: true, Arity: Arity{1, 1}},
	"atan2": {Kind: Atan2, IsCall: true, Arity: Arity{2, 2}},
	"sqr":   {Kind: Sqr, IsCall: true, Arity: Arity{1, 1}},
	"log":   {Kind: Log, IsCall: true, Arity: Arity{1, 1}},
	"sgn":   {Kind: Sgn, IsCall: true, Arity: Arity{1, 1}},
	"pow":   {Kind: Pow, IsCall: true, Arity: Arity{2, 2}},
	"floor": {Kind: Floor, IsCall: true, Arity: Arity{1, 1}},
	"ceil":  {Kind: Ceil, IsCall: true, Arity: Arity{1, 1}},
	"round": {Kind: Round, IsCall: true, Arity: Arity{1, 1}},
	"rad":   {Kind: Rad, IsCall: true, Arity: Arity{1, 1}},
	"deg":   {Kind: Deg, IsCall: true, Arity: Arity{1, 1}},
	"min":   {Kind: Min, IsCall: true, Arity: Arity{2, 2}},
	"max":   {Kind: Max, IsCall: true, Arity: Arity{2, 2}},
	"abs":   {Kind: Abs, IsCall: true, Arity: Arity{1, 1}},
	"rnd":   {Kind: Rnd, IsCall: true, Arity: Arity{0, 2}},

	"str":  {Kind: Str, IsCall: true, Arity: Arity{1, 1}},
	"num":  {Kind: Num, IsCall: true, Arity: Arity{1, 1}},
	"int":  {Kind: Int, IsCall: true, Arity: Arity{1, 1}},
	"type": {Kind: Type, IsCall: true, Arity: Arity{1, 1}},
	"size": {Kind: Size, IsCall: true, Arity: Arity{1, 1}},
	"len":  {Kind: Len, IsCall: true, Arity: Arity{1, 1}},
	"cpy":  {Kind: Cpy, IsCall: true, Arity: Arity{1, 1}},

	"left":  {Kind: Left, IsCall: true, Arity: Arity{2, 2}},
	"right": {Kind: Right, IsCall: true, Arity: Arity{2, 2}},
	"mid":   {Kind: Mid, IsCall: true, Arity: Arity{2, 3}},

	"pln":       {Kind: Pln, IsCall: true, Arity: Arity{0, -1}},
	"print":     {Kind: Print, IsCall: true, Arity: Arity{0, -1}},
	"loadimage": {Kind: LoadImage, IsCall: true, Arity: Arity{1, 1}},
	"fread":     {Kind: FRead, IsCall: true, Arity: Arity{1, 2}},
	"fwrite":    {Kind: FWrite, IsCall: true, Arity: Arity{2, 2}},
	"fopen":     {Kind: FOpen, IsCall: true, Arity: Arity{1, 2}},
	"fclose":    {Kind: FClose, IsCall: true, Arity: Arity{1, 1}},
}

// Lookup returns the Entry for word and true if word is a reserved word,
// or the zero Entry and false otherwise.
func Lookup(word string) (Entry, bool) {
	e, ok := table[word]
	return e, ok
}

// IsBuiltinConstant reports whether kind names a built-in constant (as
// opposed to a control-flow keyword or built-in call).
func IsBuiltinConstant(kind Kind) bool {
	return kind == True || kind == False || kind == Null || kind == Pi
}
