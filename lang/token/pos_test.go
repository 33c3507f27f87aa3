package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileLineCol(t *testing.T) {
	fs := NewFileSet()
	f := fs.AddFile("test", -1, 10)
	// 0-based byte offsets of "\n" at 3, 5, 8; next line starts right after.
	f.AddLine(4)
	f.AddLine(6)
	f.AddLine(9)

	cases := []struct {
		pos      Pos
		line, col int
	}{
		{f.Pos(0), 1, 1},
		{f.Pos(3), 1, 4},
		{f.Pos(4), 2, 1},
		{f.Pos(5), 2, 2},
		{f.Pos(8), 3, 3},
		{f.Pos(9), 4, 1},
	}
	for _, c := range cases {
		p := f.Position(c.pos)
		require.Equal(t, c.line, p.Line, "pos %d", c.pos)
		require.Equal(t, c.col, p.Column, "pos %d", c.pos)
	}
}

func TestFileSetMultiFile(t *testing.T) {
	fs := NewFileSet()
	f0 := fs.AddFile("a", -1, 10)
	f1 := fs.AddFile("b", -1, 10)

	require.Same(t, f0, fs.File(f0.Pos(0)))
	require.Same(t, f0, fs.File(f0.Pos(9)))
	require.Same(t, f1, fs.File(f1.Pos(0)))
	require.Same(t, f1, fs.File(f1.Pos(9)))
}

func TestFormatPos(t *testing.T) {
	fs := NewFileSet()
	f0 := fs.AddFile("test", -1, 10)

	cases := []struct {
		pos          Pos
		mode         PosMode
		withFilename bool
		want         string
	}{
		{NoPos, PosLong, true, "test:-:-"},
		{NoPos, PosOffsets, true, "-"},
		{NoPos, PosRaw, true, "0"},
		{NoPos, PosNone, true, ""},
		{f0.Pos(0), PosLong, true, "test:1:1"},
		{f0.Pos(0), PosOffsets, true, "0"},
		{f0.Pos(0), PosRaw, true, "1"},
		{f0.Pos(3), PosLong, true, "test:1:4"},
		{f0.Pos(3), PosLong, false, ":1:4"},
	}
	for _, c := range cases {
		got := FormatPos(c.mode, f0, c.pos, c.withFilename)
		require.Equal(t, c.want, got)
	}
}
