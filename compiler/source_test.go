package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveIncludeSearchesLibPaths(t *testing.T) {
	dir := t.TempDir()
	userDir := filepath.Join(dir, "user") + string(filepath.Separator)
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "lib.n7"), []byte("x"), 0o644))

	canonical, data, err := ResolveInclude("lib.n7", userDir, "/nonexistent/")
	require.NoError(t, err)
	require.Equal(t, "x", string(data))
	require.NotEmpty(t, canonical)
}

func TestResolveIncludeNotFound(t *testing.T) {
	_, _, err := ResolveInclude("missing.n7", "/nope/", "/also-nope/")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Could not open file")
}

func TestIncludeInfoDedup(t *testing.T) {
	ii := NewIncludeInfo("/root/main.n7")
	require.True(t, ii.AlreadyIncluded("/root/main.n7"))
	require.False(t, ii.AlreadyIncluded("/root/lib.n7"))
	require.True(t, ii.AlreadyIncluded("/root/lib.n7"))
}

func TestLibraryName(t *testing.T) {
	require.Equal(t, "_lib_n7", LibraryName("/some/path/lib.n7"))
	require.Equal(t, "_my_lib", LibraryName("my-lib"))
}
