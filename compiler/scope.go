package compiler

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// SymbolKind distinguishes the four declaration forms tracked by C5's scope
// tracker: constants are globals shared by the whole compile unit,
// visibles are globals of one file, locals and parameters are
// function-scoped.
type SymbolKind uint8

const (
	SymConstant SymbolKind = iota
	SymVisible
	SymLocal
	SymParam
)

func (k SymbolKind) String() string {
	switch k {
	case SymConstant:
		return "constant"
	case SymVisible:
		return "visible"
	case SymLocal:
		return "local"
	case SymParam:
		return "parameter"
	default:
		return "unknown"
	}
}

// Symbol is one declared name tracked by a Table: its storage kind and the
// slot number the declaring call passed in. The compiler addresses
// variables by name, and all its declarations pass slot 0.
type Symbol struct {
	Name string
	Kind SymbolKind
	Slot int
}

// Table is a scope's symbol table. It is backed by a swiss.Map, used here
// for compile-time symbol lookups: the
// hash-table requirement ("string-or-integer keys... resize at load
// factor") applies equally to the compiler's own bookkeeping structures,
// not just the runtime.
type Table struct {
	m *swiss.Map[string, Symbol]
}

// NewTable returns an empty Table with initial capacity for at least size
// entries.
func NewTable(size int) *Table {
	if size < 1 {
		size = 1
	}
	return &Table{m: swiss.NewMap[string, Symbol](uint32(size))}
}

// Declare adds name to the table. It returns an error describing the
// collision if name is already declared; the message names the previous
// declaration's kind, matching the redeclaration diagnostic form
// ("'x' is already declared as a <kind>").
func (t *Table) Declare(name string, kind SymbolKind, slot int) error {
	if prev, ok := t.m.Get(name); ok {
		return fmt.Errorf("'%s' is already declared as a %s", name, prev.Kind)
	}
	t.m.Put(name, Symbol{Name: name, Kind: kind, Slot: slot})
	return nil
}

// Lookup returns the symbol declared under name, if any.
func (t *Table) Lookup(name string) (Symbol, bool) {
	return t.m.Get(name)
}

// Len reports the number of declared symbols.
func (t *Table) Len() int { return t.m.Count() }

// Scope is the stack of Tables active while compiling one function body:
// Globals holds constants, shared across the whole compile unit; Visibles
// holds the current file's visible globals and is swapped out for a fresh
// table on include entry and restored on include exit (each include frame
// gets its own, per the SourceEnv model); locals is one Table per
// function-call-depth (identifiers are visible for the duration of the
// function/block they are declared in).
type Scope struct {
	Globals  *Table // constants, declared only at file top level, visible everywhere
	Visibles *Table // visibles declared in the file currently being compiled
	locals   []*Table
}

// NewScope creates a Scope with a fresh Globals table and the root file's
// Visibles table.
func NewScope() *Scope {
	return &Scope{Globals: NewTable(16), Visibles: NewTable(8)}
}

// PushLocals enters a new function body, opening a fresh locals Table.
func (s *Scope) PushLocals() *Table {
	t := NewTable(8)
	s.locals = append(s.locals, t)
	return t
}

// PopLocals leaves the current function body.
func (s *Scope) PopLocals() {
	if len(s.locals) == 0 {
		return
	}
	s.locals = s.locals[:len(s.locals)-1]
}

// Current returns the innermost locals Table, or nil at file top level.
func (s *Scope) Current() *Table {
	if len(s.locals) == 0 {
		return nil
	}
	return s.locals[len(s.locals)-1]
}

// Resolve looks a name up in the innermost locals Table first, then the
// current file's Visibles, then falls back to Globals, matching ordinary
// lexical shadowing.
func (s *Scope) Resolve(name string) (Symbol, bool) {
	if cur := s.Current(); cur != nil {
		if sym, ok := cur.Lookup(name); ok {
			return sym, true
		}
	}
	if sym, ok := s.Visibles.Lookup(name); ok {
		return sym, true
	}
	return s.Globals.Lookup(name)
}

// DeclareGlobal declares a constant or visible at file top level. It
// rejects any kind other than SymConstant/SymVisible, matching the
// rule that only those two kinds may be declared outside a
// function body. Constants land in Globals (visible across the whole
// compile unit); visibles land in the current file's Visibles table.
func (s *Scope) DeclareGlobal(name string, kind SymbolKind, slot int) error {
	switch kind {
	case SymConstant:
		return s.Globals.Declare(name, kind, slot)
	case SymVisible:
		return s.Visibles.Declare(name, kind, slot)
	default:
		return fmt.Errorf("'%s' cannot be declared as a %s at file scope", name, kind)
	}
}

// EnterFile swaps in a fresh Visibles table for a newly entered include
// frame, returning the outer file's table so the caller can restore it on
// EOF.
func (s *Scope) EnterFile() (outer *Table) {
	outer = s.Visibles
	s.Visibles = NewTable(8)
	return outer
}

// LeaveFile restores the Visibles table captured by EnterFile, discarding
// the include frame's own table now that the included file is done.
func (s *Scope) LeaveFile(outer *Table) {
	s.Visibles = outer
}

// DeclareLocal declares a local or parameter in the innermost locals
// Table. It is an error to call this at file top level (no open function
// body).
func (s *Scope) DeclareLocal(name string, kind SymbolKind, slot int) error {
	cur := s.Current()
	if cur == nil {
		return fmt.Errorf("'%s' declared as a %s outside of a function body", name, kind)
	}
	return cur.Declare(name, kind, slot)
}

// AssignableTo reports whether sym may be the target of an assignment:
// constants are read-only once declared ("'x' is a constant").
func AssignableTo(sym Symbol) bool {
	return sym.Kind != SymConstant
}
