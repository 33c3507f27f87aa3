// Package maincmd implements the n7c command dispatch: a single Cmd struct
// whose exported methods are discovered by reflection and wired to
// subcommand names, built on github.com/mna/mainer for flag parsing,
// signal-aware context cancellation and the Stdio/ExitCode plumbing.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "n7c"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>...] [-- <arg>...]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and assembler toolchain for the n7 scripting language.

The <command> can be one of:
       tokenize                  Run the lexer (C1) and print the token
                                 stream for each file.
       parse                     Run the prescanner (C3) and the
                                 parser/codegen pass (C4), printing the
                                 resulting textual assembly.
       assemble                  Assemble a textual-assembly file (C6/C7)
                                 into bytecode.
       build                     Run the full source-to-bytecode
                                 pipeline (parse then assemble).
       pack                      Concatenate a runtime stub and a
                                 bytecode file into a self-contained
                                 executable.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --win32                   Accepted and ignored: no output records a
                                 WIN32 flag.
       --dbg                     Emit debug records (file/line) into the
                                 bytecode.
       --mem=N                   Request an N-byte heap (pack only).
       --no-opt                  Disable peephole optimization.
       --user-lib=PATH           User include search path prefix.
       --sys-lib=PATH            System include search path prefix.
       --out=PATH                Output file (assemble/build/pack); "-"
                                 prints to stdout for text phases.

More information: n7 is a from-scratch compiler/assembler toolchain for
a small stack-based scripting language.
`, binName)
)

// Cmd is n7c's mainer.Cmder: its exported fields are populated from flags,
// and buildCmds below discovers its exported methods matching the command
// signature to build the dispatch table.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Win32 bool   `flag:"win32"`
	Dbg   bool   `flag:"dbg"`
	Mem   int    `flag:"mem"`
	NoOpt bool   `flag:"no-opt"`

	UserLib string `flag:"user-lib"`
	SysLib  string `flag:"sys-lib"`
	Out     string `flag:"out"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	switch cmdName {
	case "tokenize", "parse", "build":
		if len(c.args[1:]) == 0 {
			return fmt.Errorf("%s: at least one file must be provided", cmdName)
		}
	case "assemble":
		if len(c.args[1:]) != 1 {
			return fmt.Errorf("assemble: exactly one assembly file must be provided")
		}
	case "pack":
		if len(c.args[1:]) != 2 {
			return fmt.Errorf("pack: exactly two files (runtime, bytecode) must be provided")
		}
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		return mainer.Failure
	}
	return mainer.Success
}

// buildCmds builds a reflection-based dispatch table: any exported
// method of v taking (context.Context, mainer.Stdio, []string)
// and returning a single error is registered under its lower-cased name.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
