package peephole

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ln(mnemonic string, ops ...string) Line {
	return Line{Mnemonic: mnemonic, Operands: ops}
}

func TestFuseMALS(t *testing.T) {
	in := []Line{ln("madd", ".x"), ln("mload", ".x"), ln("mswap"), ln("ret")}
	out := Fuse(in)
	require.Len(t, out, 2)
	require.Equal(t, "opt_mals", out[0].Mnemonic)
	require.Equal(t, []string{".x"}, out[0].Operands)
	require.Equal(t, "ret", out[1].Mnemonic)
}

func TestFuseMSSP(t *testing.T) {
	in := []Line{ln("mswap"), ln("mset", ".y"), ln("mpop")}
	out := Fuse(in)
	require.Len(t, out, 1)
	require.Equal(t, "opt_mssp", out[0].Mnemonic)
	require.Equal(t, []string{".y"}, out[0].Operands)
}

func TestFuseLoadParam(t *testing.T) {
	in := []Line{
		ln("madd", ".p"), ln("mpush"), ln("mload", ".p"),
		ln("pop", "@0"), ln("mset", "@0"), ln("mpop"),
	}
	out := Fuse(in)
	require.Len(t, out, 1)
	require.Equal(t, "opt_loadparam", out[0].Mnemonic)
	require.Equal(t, []string{".p"}, out[0].Operands)
}

func TestFuseSingleVar(t *testing.T) {
	out := Fuse([]Line{ln("mload", ".z")})
	require.Len(t, out, 1)
	require.Equal(t, "opt_loadsinglevar", out[0].Mnemonic)

	out = Fuse([]Line{ln("loadpm"), ln("mload", ".z")})
	require.Len(t, out, 1)
	require.Equal(t, "opt_loadsinglevarg", out[0].Mnemonic)
}

func TestFusePVal(t *testing.T) {
	in := []Line{ln("mload", ".add"), ln("ldi", "2"), ln("assert", "@0", "@1"), ln("local")}
	out := Fuse(in)
	require.Len(t, out, 2)
	require.Equal(t, "opt_pval", out[0].Mnemonic)
	require.Equal(t, []string{"2", ".add"}, out[0].Operands)
	require.Equal(t, "local", out[1].Mnemonic)
}

func TestFuseSingleVarNotPreemptedByPVal(t *testing.T) {
	// A lone "mload X" that turns out not to be followed by "ldi; assert"
	// must still fuse to opt_loadsinglevar once enough lines have arrived to
	// rule out a parameter-count check.
	in := []Line{ln("mload", ".x"), ln("push", "@0"), ln("pop", "@0")}
	out := Fuse(in)
	require.Len(t, out, 3)
	require.Equal(t, "opt_loadsinglevar", out[0].Mnemonic)
	require.Equal(t, "push", out[1].Mnemonic)
	require.Equal(t, "pop", out[2].Mnemonic)
}

func TestFuseDoesNotCrossLabel(t *testing.T) {
	in := []Line{ln("madd", ".x"), {Label: "l1"}, ln("mload", ".x"), ln("mswap")}
	out := Fuse(in)
	// madd is left standalone (not fused with mload across the label), mload
	// standalone fuses to opt_loadsinglevar, mswap stays bare.
	var mnemonics []string
	for _, l := range out {
		if l.Mnemonic != "" {
			mnemonics = append(mnemonics, l.Mnemonic)
		}
	}
	require.Equal(t, []string{"madd", "opt_loadsinglevar", "mswap"}, mnemonics)
}

func TestNoFalseMatchOnUnrelatedSequence(t *testing.T) {
	in := []Line{ln("push", "@0"), ln("pop", "@1"), ln("ret")}
	out := Fuse(in)
	require.Len(t, out, 3)
	require.Equal(t, "push", out[0].Mnemonic)
}
