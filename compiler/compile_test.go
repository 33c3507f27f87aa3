package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSrc(t *testing.T, dir, name, src string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(src), 0o644))
	return p
}

// TestCompileHelloWorld exercises a single sys call with its argument
// pushed ahead of it.
func TestCompileHelloWorld(t *testing.T) {
	dir := t.TempDir()
	main := writeSrc(t, dir, "main.n7", `pln "hello"`+"\n")

	out, err := Compile(main, "", "")
	require.NoError(t, err)
	require.Contains(t, out, `lds "hello"`)
	require.Contains(t, out, "push @0")
	require.Regexp(t, `sys \d+ 1`, out)
}

// TestCompileForwardFunctionReference checks that prescan lets codegen
// reference f before its definition is reached.
func TestCompileForwardFunctionReference(t *testing.T) {
	dir := t.TempDir()
	main := writeSrc(t, dir, "main.n7", `x = f(3)
pln x
function f(n)
  return n * n
endfunc
`)

	out, err := Compile(main, "", "")
	require.NoError(t, err)
	require.Contains(t, out, "__1:")
	require.Contains(t, out, "mul")
}

// TestCompileConstantViolation checks that assigning to a constant fails.
func TestCompileConstantViolation(t *testing.T) {
	dir := t.TempDir()
	main := writeSrc(t, dir, "main.n7", "constant PI2 = 6.28\nPI2 = 3\n")

	_, err := Compile(main, "", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "'PI2' is a constant")
}

// TestCompileForLoopDirectionInference checks that a descending range
// with no explicit step compiles, forcing the step's
// sign at runtime rather than failing at compile time.
func TestCompileForLoopDirectionInference(t *testing.T) {
	dir := t.TempDir()
	main := writeSrc(t, dir, "main.n7", "for i = 3 to 1\n  pln i\nnext\n")

	out, err := Compile(main, "", "")
	require.NoError(t, err)
	require.Contains(t, out, "neg")
	require.Contains(t, out, "for_loop_")
}

// TestCompileIncludeDeduplication checks that a file reachable through
// two include paths is only compiled once.
func TestCompileIncludeDeduplication(t *testing.T) {
	dir := t.TempDir()
	lib := writeSrc(t, dir, "lib.n7", "visible shared = 1\n")
	a := writeSrc(t, dir, "a.n7", `include "`+lib+`"`+"\n")
	b := writeSrc(t, dir, "b.n7", `include "`+lib+`"`+"\n")
	main := writeSrc(t, dir, "main.n7", `include "`+a+`"`+"\n"+`include "`+b+`"`+"\n")

	out, err := Compile(main, "", "")
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(out, "/file:"+lib))
}

// TestCompileShortCircuitOr checks that the right-hand side of `or` is
// reachable only through a jump, never unconditionally
// compiled inline before the test.
func TestCompileShortCircuitOr(t *testing.T) {
	dir := t.TempDir()
	main := writeSrc(t, dir, "main.n7", `a = 0
b = 10
if a = 0 or b / a > 2 then pln "ok"
`)

	out, err := Compile(main, "", "")
	require.NoError(t, err)
	require.Contains(t, out, "jmpet")
}

func TestCompileUndeclaredIdentifierFails(t *testing.T) {
	dir := t.TempDir()
	main := writeSrc(t, dir, "main.n7", "pln undeclared\n")

	_, err := Compile(main, "", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Undeclared identifier")
}

func TestCompileBreakOutsideLoopFails(t *testing.T) {
	dir := t.TempDir()
	main := writeSrc(t, dir, "main.n7", "break\n")

	_, err := Compile(main, "", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "break")
}

func TestCompileReturnOutsideFunctionFails(t *testing.T) {
	dir := t.TempDir()
	main := writeSrc(t, dir, "main.n7", "return 1\n")

	_, err := Compile(main, "", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "return")
}

// TestCompileFunctionBodyUnwindsMemory ensures every function body tears
// down the local memory context the "local" instruction opened, on both
// the default fall-through return and an explicit `return`.
func TestCompileFunctionBodyUnwindsMemory(t *testing.T) {
	dir := t.TempDir()
	main := writeSrc(t, dir, "main.n7", `function f(n)
  if n > 0 then return n
endfunc
`)

	out, err := Compile(main, "", "")
	require.NoError(t, err)
	require.Contains(t, out, "mpop\nret")
	require.Contains(t, out, "mpop\nclr @0\nret")
}

// TestCompileEndStatement checks that a bare `end` compiles to the `end`
// opcode with no operands.
func TestCompileEndStatement(t *testing.T) {
	dir := t.TempDir()
	main := writeSrc(t, dir, "main.n7", "pln \"before\"\nend\n")

	out, err := Compile(main, "", "")
	require.NoError(t, err)
	require.Contains(t, out, "\nend\n")
}

// TestCompileAssertWithDefaultMessage checks that a condition-only assert
// loads the literal "Assertion failed" message before the check.
func TestCompileAssertWithDefaultMessage(t *testing.T) {
	dir := t.TempDir()
	main := writeSrc(t, dir, "main.n7", "visible x = 1\nassert x > 0\n")

	out, err := Compile(main, "", "")
	require.NoError(t, err)
	require.Contains(t, out, `lds "Assertion failed"`)
	require.Contains(t, out, "spop @0 @1")
	require.Contains(t, out, "assert @0 @1")
}

// TestCompileAssertWithCustomMessage checks that the comma-separated
// message expression is compiled and popped into @0 instead of the
// default literal.
func TestCompileAssertWithCustomMessage(t *testing.T) {
	dir := t.TempDir()
	main := writeSrc(t, dir, "main.n7", `visible x = 1`+"\n"+`assert x > 0, "x must be positive"`+"\n")

	out, err := Compile(main, "", "")
	require.NoError(t, err)
	require.Contains(t, out, `lds "x must be positive"`)
	require.NotContains(t, out, `lds "Assertion failed"`)
	require.Contains(t, out, "spop @0 @1")
	require.Contains(t, out, "assert @0 @1")
}
