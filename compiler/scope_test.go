package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableDeclareAndCollide(t *testing.T) {
	tbl := NewTable(4)
	require.NoError(t, tbl.Declare("x", SymLocal, 0))
	err := tbl.Declare("x", SymConstant, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already declared as a local")

	sym, ok := tbl.Lookup("x")
	require.True(t, ok)
	require.Equal(t, SymLocal, sym.Kind)
	require.Equal(t, 1, tbl.Len())
}

func TestScopeShadowing(t *testing.T) {
	s := NewScope()
	require.NoError(t, s.DeclareGlobal("x", SymVisible, 0))

	s.PushLocals()
	require.NoError(t, s.DeclareLocal("x", SymLocal, 0))

	sym, ok := s.Resolve("x")
	require.True(t, ok)
	require.Equal(t, SymLocal, sym.Kind, "local x should shadow global x")

	s.PopLocals()
	sym, ok = s.Resolve("x")
	require.True(t, ok)
	require.Equal(t, SymVisible, sym.Kind)
}

func TestDeclareGlobalRejectsLocalKind(t *testing.T) {
	s := NewScope()
	err := s.DeclareGlobal("x", SymLocal, 0)
	require.Error(t, err)
}

func TestDeclareLocalOutsideFunctionFails(t *testing.T) {
	s := NewScope()
	err := s.DeclareLocal("x", SymLocal, 0)
	require.Error(t, err)
}

func TestScopeVisiblesRestoredOnLeaveFile(t *testing.T) {
	s := NewScope()
	require.NoError(t, s.DeclareGlobal("x", SymVisible, 0))

	outer := s.EnterFile()
	_, ok := s.Resolve("x")
	require.False(t, ok, "an include frame starts with its own empty Visibles table")

	require.NoError(t, s.DeclareGlobal("x", SymVisible, 1))
	sym, ok := s.Resolve("x")
	require.True(t, ok)
	require.Equal(t, 1, sym.Slot, "the include's own 'x' shadows nothing, it's a fresh table")

	s.LeaveFile(outer)
	sym, ok = s.Resolve("x")
	require.True(t, ok)
	require.Equal(t, 0, sym.Slot, "leaving the include restores the outer file's Visibles table")
}

func TestAssignableTo(t *testing.T) {
	require.False(t, AssignableTo(Symbol{Kind: SymConstant}))
	require.True(t, AssignableTo(Symbol{Kind: SymVisible}))
	require.True(t, AssignableTo(Symbol{Kind: SymLocal}))
}
