package fndef

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeclareAndResolve(t *testing.T) {
	tree := NewTree()
	f, err := tree.Declare(tree.Root, "f", []string{"b", "a"})
	require.NoError(t, err)
	require.Equal(t, 1, f.Index)
	require.Equal(t, []string{"b", "a"}, f.Params)

	g, err := tree.Declare(f, "g", nil)
	require.NoError(t, err)
	require.Same(t, f, g.Parent)

	got, ok := tree.Resolve(g, "f")
	require.True(t, ok)
	require.Same(t, f, got)

	got, ok = tree.Resolve(tree.Root, "g")
	require.False(t, ok)
	require.Nil(t, got)
}

func TestDuplicateNameRejected(t *testing.T) {
	tree := NewTree()
	_, err := tree.Declare(tree.Root, "f", nil)
	require.NoError(t, err)
	_, err = tree.Declare(tree.Root, "f", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already defined")
}

func TestAnonymousFunctionsDoNotCollide(t *testing.T) {
	tree := NewTree()
	a, err := tree.Declare(tree.Root, "", nil)
	require.NoError(t, err)
	b, err := tree.Declare(tree.Root, "", nil)
	require.NoError(t, err)
	require.NotEqual(t, a.Index, b.Index)
	require.True(t, a.Anonymous)
	require.Equal(t, "anon#"+strconv.Itoa(a.Index), a.DisplayName())
}

func TestByIndexAndLen(t *testing.T) {
	tree := NewTree()
	_, _ = tree.Declare(tree.Root, "f", nil)
	require.Equal(t, 2, tree.Len())
	d, ok := tree.ByIndex(1)
	require.True(t, ok)
	require.Equal(t, "f", d.Name)
	_, ok = tree.ByIndex(99)
	require.False(t, ok)
}
