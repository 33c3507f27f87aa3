package maincmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mna/mainer"
	"github.com/mna/n7/asm"
	"github.com/mna/n7/compiler"
)

// Build runs the full two-stage pipeline (C3/C4 then C6/C7/C8) for each
// named source file, writing bytecode next to the source (or to c.Out when
// exactly one file is given).
func (c *Cmd) Build(ctx context.Context, stdio mainer.Stdio, args []string) error {
	opts := asm.Options{Optimize: !c.NoOpt, Debug: c.Dbg}
	for _, name := range args {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := c.Out
		if out == "" || len(args) > 1 {
			out = strings.TrimSuffix(name, ".n7") + ".n7b"
		}
		if err := BuildFile(name, out, c.UserLib, c.SysLib, opts); err != nil {
			printPhaseError(stdio.Stdout, buildErrTag(err), err)
			return err
		}
	}
	return nil
}

// buildErrTag reports which phase produced err, so Build's single error
// path can still emit the right n7/n7a prefix.
func buildErrTag(err error) string {
	if _, ok := err.(*assembleError); ok {
		return "n7a"
	}
	return "n7"
}

type assembleError struct{ error }

// BuildFile compiles src to textual assembly (C3/C4) then assembles it
// (C6/C7/C8), writing the resulting bytecode to out.
func BuildFile(src, out, userLib, sysLib string, opts asm.Options) error {
	text, err := compiler.Compile(src, userLib, sysLib)
	if err != nil {
		return err
	}
	res, err := asm.Assemble([]byte(text), opts)
	if err != nil {
		return &assembleError{err}
	}
	if err := os.WriteFile(out, res.Code, 0o644); err != nil {
		return &assembleError{fmt.Errorf("Could not open file '%s' for writing", out)}
	}
	return nil
}
