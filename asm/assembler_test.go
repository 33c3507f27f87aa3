package asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleSimpleProgram(t *testing.T) {
	src := `
push @0
jmp done
push @1
done:
ret
`
	res, err := Assemble([]byte(src), Options{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Code)

	// push @0 (2 bytes) + jmp <label> (5 bytes) + push @1 (2 bytes) + ret (1 byte) = 10
	require.Len(t, res.Code, 10)
}

func TestAssembleUndefinedLabel(t *testing.T) {
	_, err := Assemble([]byte("jmp nowhere\n"), Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Undefined label 'nowhere'")
}

func TestAssembleDuplicateLabel(t *testing.T) {
	src := "l1:\nnop\nl1:\nnop\n"
	_, err := Assemble([]byte(src), Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Duplicate label 'l1'")
}

func TestAssembleStringAndFloatOperands(t *testing.T) {
	src := `
fload "lib.fn"
ldf 2.5
`
	res, err := Assemble([]byte(src), Options{})
	require.NoError(t, err)
	require.Equal(t, 1+4+len("lib.fn")+1+8, len(res.Code))
}

func TestDisassembleRoundTrip(t *testing.T) {
	src := "push @0\npop @1\nret\n"
	res, err := Assemble([]byte(src), Options{})
	require.NoError(t, err)

	out, err := Disassemble(res.Code, nil)
	require.NoError(t, err)
	require.Contains(t, out, "push @0")
	require.Contains(t, out, "pop @1")
	require.Contains(t, out, "ret")

	res2, err := Assemble([]byte(out), Options{})
	require.NoError(t, err)
	require.Equal(t, res.Code, res2.Code)
}

func TestOptimizeFusesMalsPattern(t *testing.T) {
	src := "madd .x\nmload .x\nmswap\nret\n"
	res, err := Assemble([]byte(src), Options{Optimize: true})
	require.NoError(t, err)

	plain, err := Assemble([]byte(src), Options{Optimize: false})
	require.NoError(t, err)

	require.NotEqual(t, plain.Code, res.Code, "optimized output should differ from the long form")
	require.Less(t, len(res.Code), len(plain.Code))
}

func TestDebugRecordsOnlyWhenRequested(t *testing.T) {
	src := "/file:main.n7\n/line:3\npush @0\n"
	res, err := Assemble([]byte(src), Options{Debug: true})
	require.NoError(t, err)
	require.Len(t, res.Debug, 1)
	require.Equal(t, "main.n7", res.Debug[0].File)
	require.Equal(t, 3, res.Debug[0].Line)

	res2, err := Assemble([]byte(src), Options{Debug: false})
	require.NoError(t, err)
	require.Empty(t, res2.Debug)
}
