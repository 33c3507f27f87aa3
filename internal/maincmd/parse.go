package maincmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/n7/compiler"
)

// Parse runs C3 (prescan) and C4 (parser/codegen) over each named file and
// prints the resulting textual assembly output file.
func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(ctx, stdio, c.UserLib, c.SysLib, c.Out, args...)
}

func ParseFiles(ctx context.Context, stdio mainer.Stdio, userLib, sysLib, out string, files ...string) error {
	var w io.Writer = stdio.Stdout
	if out != "" && out != "-" {
		f, err := os.Create(out)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "n7: %s\n", err)
			return err
		}
		defer f.Close()
		w = f
	}

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		asm, err := compiler.Compile(name, userLib, sysLib)
		if err != nil {
			printPhaseError(stdio.Stdout, "n7", err)
			return err
		}
		io.WriteString(w, asm)
	}
	return nil
}
