package maincmd

import (
	"fmt"
	"io"

	"github.com/mna/n7/lang/scanner"
)

// printPhaseError prints err's diagnostics to w, one per line, each
// prefixed with tag to indicate which phase failed: n7 for the front-end
// (C1/C3/C4/C5), n7a for the assembler (C6/C7), n7b for packaging
// (out-of-core, I/O only).
func printPhaseError(w io.Writer, tag string, err error) {
	if list, ok := err.(scanner.ErrorList); ok {
		for _, e := range list {
			fmt.Fprintf(w, "%s: %s\n", tag, e)
		}
		return
	}
	fmt.Fprintf(w, "%s: %s\n", tag, err)
}
