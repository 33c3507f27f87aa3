package compiler

import (
	"os"
	"path/filepath"

	"github.com/mna/n7/lang/scanner"
	"github.com/mna/n7/lang/token"
)

// SourceEnv is a single frame of include nesting: it captures everything
// that must be restored when an included file's end-of-file is reached and
// compilation resumes in the including file.
type SourceEnv struct {
	Filename string
	LibName  string // mangled library namespace identifier for this include, "" for the root file
	Scanner  *scanner.Scanner
	File     *token.File
	Visibles *Table // the including file's own visible (non-readonly global) symbols

	Tok token.Token
	Val token.Value
}

// IncludeInfo deduplicates transitive includes across a whole compilation:
// a file, once included, is never re-opened even if reachable through
// multiple include paths: the set of included files forms a DAG.
type IncludeInfo struct {
	seen map[string]bool
}

// NewIncludeInfo creates an IncludeInfo with the root file pre-included.
func NewIncludeInfo(rootCanonical string) *IncludeInfo {
	return &IncludeInfo{seen: map[string]bool{rootCanonical: true}}
}

// AlreadyIncluded reports whether canonical has already been included, and
// if not, marks it as included now (so a single call both checks and
// claims the file).
func (ii *IncludeInfo) AlreadyIncluded(canonical string) bool {
	if ii.seen[canonical] {
		return true
	}
	ii.seen[canonical] = true
	return false
}

// ResolveInclude resolves a raw `include "path"` argument against the user
// library path first, then the system library path.
// Resolution is pure string-prefix concatenation ("no sophisticated path
// resolution").
func ResolveInclude(path, userLibPath, sysLibPath string) (canonical string, data []byte, err error) {
	for _, prefix := range []string{userLibPath, sysLibPath} {
		candidate := prefix + path
		if b, e := os.ReadFile(candidate); e == nil {
			abs, aerr := filepath.Abs(candidate)
			if aerr != nil {
				abs = candidate
			}
			return abs, b, nil
		}
	}
	return "", nil, &notFoundError{path: path}
}

type notFoundError struct{ path string }

func (e *notFoundError) Error() string {
	return "Could not open file '" + e.path + "' for reading"
}

// LibraryName mangles an included filename into a library namespace
// identifier: it is prefixed with "_" and every non-alphanumeric byte is
// replaced with "_".
func LibraryName(filename string) string {
	base := filepath.Base(filename)
	out := make([]byte, 0, len(base)+1)
	out = append(out, '_')
	for i := 0; i < len(base); i++ {
		b := base[i]
		if (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') {
			out = append(out, b)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}
