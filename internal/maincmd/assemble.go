package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/n7/asm"
)

// Assemble runs C6/C7(+C8) over a single textual-assembly file, producing
// the bytecode output file.
func (c *Cmd) Assemble(ctx context.Context, stdio mainer.Stdio, args []string) error {
	out := c.Out
	if out == "" {
		out = args[0] + ".n7b"
	}
	return AssembleFile(ctx, stdio, asm.Options{Optimize: !c.NoOpt, Debug: c.Dbg}, args[0], out)
}

func AssembleFile(ctx context.Context, stdio mainer.Stdio, opts asm.Options, src, out string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		printPhaseError(stdio.Stdout, "n7a", fmt.Errorf("Could not open file '%s' for reading", src))
		return err
	}
	res, err := asm.Assemble(data, opts)
	if err != nil {
		printPhaseError(stdio.Stdout, "n7a", err)
		return err
	}
	if err := os.WriteFile(out, res.Code, 0o644); err != nil {
		printPhaseError(stdio.Stdout, "n7a", fmt.Errorf("Could not open file '%s' for writing", out))
		return err
	}
	return nil
}
