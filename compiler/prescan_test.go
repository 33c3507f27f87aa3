package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrescanForwardReference(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.n7")
	src := "call()\nfunction call()\n  pln 1\nendfunc\n"
	require.NoError(t, os.WriteFile(main, []byte(src), 0o644))

	p := NewPrescanner("", "")
	tree := p.Run(main)
	require.NoError(t, p.Errs().Err())

	def, ok := tree.Resolve(tree.Root, "call")
	require.True(t, ok)
	require.Equal(t, "call", def.Name)
	require.Empty(t, def.Params)
}

func TestPrescanDuplicateFunction(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.n7")
	src := "function f()\nendfunc\nfunction f()\nendfunc\n"
	require.NoError(t, os.WriteFile(main, []byte(src), 0o644))

	p := NewPrescanner("", "")
	p.Run(main)
	require.Error(t, p.Errs().Err())
	require.Contains(t, p.Errs().Err().Error(), "already defined")
}

func TestPrescanMissingEndfunc(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.n7")
	src := "function f()\n  pln 1\n"
	require.NoError(t, os.WriteFile(main, []byte(src), 0o644))

	p := NewPrescanner("", "")
	p.Run(main)
	require.Error(t, p.Errs().Err())
	require.Contains(t, p.Errs().Err().Error(), "Expected 'endfunc'")
}

func TestPrescanIncludeDeduplication(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.n7")
	require.NoError(t, os.WriteFile(lib, []byte("function shared()\nendfunc\n"), 0o644))

	a := filepath.Join(dir, "a.n7")
	require.NoError(t, os.WriteFile(a, []byte(`include "`+lib+`"`+"\n"), 0o644))

	b := filepath.Join(dir, "b.n7")
	require.NoError(t, os.WriteFile(b, []byte(`include "`+lib+`"`+"\n"), 0o644))

	main := filepath.Join(dir, "main.n7")
	src := `include "` + a + `"` + "\n" + `include "` + b + `"` + "\n"
	require.NoError(t, os.WriteFile(main, []byte(src), 0o644))

	p := NewPrescanner("", "")
	tree := p.Run(main)
	require.NoError(t, p.Errs().Err())

	_, ok := tree.Resolve(tree.Root, "shared")
	require.True(t, ok)
	// shared must only have been declared once across both include paths.
	require.Equal(t, 2, tree.Len()) // implicit root + "shared"
}

func TestPrescanParamCollidesWithEnclosingFunctionParam(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.n7")
	src := "function outer(x)\n  function x()\n  endfunc\nendfunc\n"
	require.NoError(t, os.WriteFile(main, []byte(src), 0o644))

	p := NewPrescanner("", "")
	p.Run(main)
	require.Error(t, p.Errs().Err())
	require.Contains(t, p.Errs().Err().Error(), "Collision between parameter and function identifier x")
}

func TestPrescanParamCollidesWithLexicallyReachableFunction(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.n7")
	src := "function sibling()\nendfunc\nfunction f(sibling)\nendfunc\n"
	require.NoError(t, os.WriteFile(main, []byte(src), 0o644))

	p := NewPrescanner("", "")
	p.Run(main)
	require.Error(t, p.Errs().Err())
	require.Contains(t, p.Errs().Err().Error(), "Collision between parameter and function identifier sibling")
}

func TestPrescanParameterOrderReversed(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.n7")
	require.NoError(t, os.WriteFile(main, []byte("function f(a, b, c)\nendfunc\n"), 0o644))

	p := NewPrescanner("", "")
	tree := p.Run(main)
	require.NoError(t, p.Errs().Err())

	def, ok := tree.Resolve(tree.Root, "f")
	require.True(t, ok)
	require.Equal(t, []string{"c", "b", "a"}, def.Params)
}
