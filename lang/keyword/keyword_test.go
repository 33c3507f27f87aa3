package keyword

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	e, ok := Lookup("function")
	require.True(t, ok)
	require.Equal(t, Function, e.Kind)
	require.False(t, e.IsCall)

	e, ok = Lookup("rnd")
	require.True(t, ok)
	require.True(t, e.IsCall)
	require.Equal(t, Arity{0, 2}, e.Arity)

	_, ok = Lookup("not_a_keyword")
	require.False(t, ok)
}

func TestBuiltinConstants(t *testing.T) {
	e, ok := Lookup("true")
	require.True(t, ok)
	require.True(t, e.HasConst)
	require.Equal(t, ConstInt, e.Const.Kind)
	require.EqualValues(t, 1, e.Const.Int)
	require.True(t, IsBuiltinConstant(e.Kind))

	e, ok = Lookup("pi")
	require.True(t, ok)
	require.True(t, e.HasConst)
	require.Equal(t, ConstFloat, e.Const.Kind)
	require.InDelta(t, 3.14159265, e.Const.Float, 1e-6)
}

func TestArityBounds(t *testing.T) {
	cases := []struct {
		word     string
		min, max int
	}{
		{"cos", 1, 1},
		{"atan2", 2, 2},
		{"rnd", 0, 2},
		{"pln", 0, -1},
		{"mid", 2, 3},
	}
	for _, c := range cases {
		e, ok := Lookup(c.word)
		require.True(t, ok, c.word)
		require.Equal(t, c.min, e.Arity.Min, c.word)
		require.Equal(t, c.max, e.Arity.Max, c.word)
	}
}
