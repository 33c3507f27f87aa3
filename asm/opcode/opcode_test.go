package opcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNamesRoundTrip(t *testing.T) {
	for op := Opcode(0); op < maxOpcode; op++ {
		name := op.String()
		require.NotEqual(t, "", name)
		got, ok := Lookup(name)
		require.True(t, ok, "mnemonic %q did not round-trip", name)
		require.Equal(t, op, got)
	}
}

func TestInvalidOpcodeString(t *testing.T) {
	require.Contains(t, Opcode(255).String(), "invalid opcode")
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Lookup("nosuchop")
	require.False(t, ok)
}

func TestOperandSizes(t *testing.T) {
	require.Equal(t, 0, OperandNone.EncodedSize())
	require.Equal(t, 1, OperandReg.EncodedSize())
	require.Equal(t, 2, OperandReg2.EncodedSize())
	require.Equal(t, 4, OperandInt.EncodedSize())
	require.Equal(t, 8, OperandFloat.EncodedSize())
	require.Equal(t, 4, OperandLabel.EncodedSize())
}

func TestJmpOperandIsLabel(t *testing.T) {
	require.Equal(t, OperandLabel, JMP.Operand())
	require.Equal(t, OperandReg, PUSH.Operand())
	require.Equal(t, OperandNone, RET.Operand())
}
