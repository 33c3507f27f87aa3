// Package compiler implements components C4 (parser/codegen) and C9 (error
// reporter): a single-pass recursive-descent parser that walks the token
// stream produced by lang/scanner and emits textual assembly for the
// two-stack, register-scratch virtual machine it targets.
//
// Error handling follows a non-local-exit idiom: a malformed construct
// records a diagnostic and panics with the sentinel errPanicMode,
// recovered once at the top of Compile, which then returns Failure.
package compiler

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mna/n7/compiler/fndef"
	"github.com/mna/n7/lang/keyword"
	"github.com/mna/n7/lang/scanner"
	"github.com/mna/n7/lang/token"
)

var errPanicMode = errors.New("panic")

// BlockKind tags the kind of control-flow block currently open, so that
// `return`/`break` can unwind exactly the bookkeeping the block type
// requires.
type BlockKind uint8

const (
	BlockGeneric BlockKind = iota
	BlockIf
	BlockSelect
	BlockDo
	BlockWhile
	BlockFor
	BlockForeach
)

// BlockInfo is one entry of the open-block stack.
type BlockInfo struct {
	Kind       BlockKind
	LocalDepth int
	BreakLabel string
}

// Compiler holds all state threaded through one file's compilation: the
// current scanner position, the symbol/function tables built by prescan,
// the emitted assembly text, and the open-block stack. This plays the role
// of the "CompilerContext" the Design Notes ask for, explicitly threaded
// rather than held in package-level globals.
type Compiler struct {
	filename string
	userLib  string
	sysLib   string

	fs   *token.FileSet
	f    *token.File
	s    *scanner.Scanner
	tok  token.Token
	val  token.Value

	peekTok token.Token
	peekVal token.Value
	peeked  bool

	errs *scanner.ErrorList
	out  strings.Builder

	scope    *Scope
	tree     *fndef.Tree
	curFn    *fndef.Definition
	includes *IncludeInfo

	blocks    []BlockInfo
	fnBase    []int // index into blocks marking the start of the current function's own blocks
	labelN    int
	libPrefix string // "" at root, library namespace while compiling an included file

	// nextFnIndex mirrors the prescanner's discovery-order index assignment
	// (compiler/fndef.Tree.Declare): codegen walks the same token stream in
	// the same depth-first order prescan did, so the Nth `function` keyword
	// codegen encounters (named or anonymous, statement or expression
	// position) is always fndef.Tree.ByIndex(nextFnIndex). This sidesteps
	// needing to re-resolve anonymous functions by name (they have none) or
	// by position in an unordered child map.
	nextFnIndex int
}

// Compile runs the full C3+C4 pipeline over filename: prescan to build the
// function tree, then a single parse/codegen pass emitting textual
// assembly. optimize is threaded through only as far as the assembler;
// C4 always emits the long form and lets C8 decide whether to fuse it.
func Compile(filename, userLib, sysLib string) (string, error) {
	pre := NewPrescanner(userLib, sysLib)
	tree := pre.Run(filename)
	if err := pre.Errs().Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("Could not open file '%s' for reading", filename)
	}

	c := &Compiler{
		filename: filename,
		userLib:  userLib,
		sysLib:   sysLib,
		fs:       token.NewFileSet(),
		tree:     tree,
		curFn:    tree.Root,
		scope:    NewScope(),
		includes:    NewIncludeInfo(filename),
		errs:        &scanner.ErrorList{},
		nextFnIndex: 1,
	}
	c.f = c.fs.AddFile(filename, -1, len(data))
	var s scanner.Scanner
	s.Init(c.f, data, c.errs.Add)
	c.s = &s
	c.advance()
	// Root-level code is compiled with a locals table open too, so bare
	// assignment/declaration handling doesn't need to special-case "at
	// file scope vs. inside a function".
	c.scope.PushLocals()
	c.pushFnBase()

	func() {
		defer func() {
			if r := recover(); r != nil && r != errPanicMode {
				panic(r)
			}
		}()
		c.emitf("/file:%s", filename)
		for c.tok != token.EOF {
			c.skipEOLs()
			if c.tok == token.EOF {
				break
			}
			c.statement()
		}
	}()

	if err := c.errs.Err(); err != nil {
		return "", err
	}
	return c.out.String(), nil
}

func (c *Compiler) advance() {
	if c.peeked {
		c.tok, c.val = c.peekTok, c.peekVal
		c.peeked = false
		return
	}
	c.tok = c.s.Scan(&c.val)
}

// peek returns the token after the current one without consuming it, used
// to disambiguate the two-character relational operators (<=, >=, <>) from
// the scanner's one-CHARACTER-per-byte token stream, and to tell the
// single-statement `if ... then S` form from the block form.
func (c *Compiler) peek() (token.Token, token.Value) {
	if !c.peeked {
		c.peekTok = c.s.Scan(&c.peekVal)
		c.peeked = true
	}
	return c.peekTok, c.peekVal
}

func (c *Compiler) pos() token.Pos { return c.val.Pos }

func (c *Compiler) error(pos token.Pos, msg string) {
	c.errs.Add(c.f.Position(pos), msg)
}

func (c *Compiler) fail(msg string) {
	c.error(c.pos(), msg)
	panic(errPanicMode)
}

func (c *Compiler) failf(format string, args ...interface{}) {
	c.fail(fmt.Sprintf(format, args...))
}

// expectKeyword consumes the current token if it is a KEYWORD of kind want,
// otherwise fails.
func (c *Compiler) expectKeyword(want keyword.Kind, label string) {
	if c.tok != token.KEYWORD || c.val.Keyword != want {
		c.failf("Expected '%s'", label)
	}
	c.advance()
}

// atChar reports whether the current token is the CHARACTER ch, without
// consuming it.
func (c *Compiler) atChar(ch rune) bool {
	return c.tok == token.CHARACTER && c.val.Char == ch
}

// atKeyword reports whether the current token is the KEYWORD k, without
// consuming it.
func (c *Compiler) atKeyword(k keyword.Kind) bool {
	return c.tok == token.KEYWORD && c.val.Keyword == k
}

func (c *Compiler) expectChar(ch rune) {
	if c.tok != token.CHARACTER || c.val.Char != ch {
		c.failf("Expected '%c'", ch)
	}
	c.advance()
}

func (c *Compiler) expectIdent() string {
	if c.tok != token.IDENT {
		c.fail("Expected identifier")
	}
	name := c.val.Raw
	c.advance()
	return name
}

// expectEOL consumes the statement terminator (real newline or ';'); EOF
// also terminates a statement, matching the lexer's EOF handling.
func (c *Compiler) expectEOL() {
	if c.tok == token.EOF {
		return
	}
	if c.tok != token.EOL {
		c.fail("Expected new line")
	}
	c.advance()
}

// skipEOLs consumes any run of blank statement separators.
func (c *Compiler) skipEOLs() {
	for c.tok == token.EOL {
		c.advance()
	}
}

// pushFnBase marks the current length of the open-block stack as the
// floor for the function now being entered (or the root file, which is
// treated as an implicit function): break/return inside this function
// must never unwind past this floor, since blocks below it belong to an
// enclosing function definition's own statement list.
func (c *Compiler) pushFnBase() {
	c.fnBase = append(c.fnBase, len(c.blocks))
}

func (c *Compiler) popFnBase() {
	c.fnBase = c.fnBase[:len(c.fnBase)-1]
}

// curFnBase is the open-block stack depth at which the current function's
// own blocks begin.
func (c *Compiler) curFnBase() int {
	return c.fnBase[len(c.fnBase)-1]
}

func (c *Compiler) pushBlock(b BlockInfo) {
	c.blocks = append(c.blocks, b)
}

func (c *Compiler) popBlock() {
	c.blocks = c.blocks[:len(c.blocks)-1]
}

func (c *Compiler) currentBlock() *BlockInfo {
	if len(c.blocks) == 0 {
		return nil
	}
	return &c.blocks[len(c.blocks)-1]
}

func (c *Compiler) newLabel(prefix string) string {
	c.labelN++
	return fmt.Sprintf("%s_%d", prefix, c.labelN)
}

func (c *Compiler) emit(line string) {
	c.out.WriteString(line)
	c.out.WriteByte('\n')
}

func (c *Compiler) emitf(format string, args ...interface{}) {
	c.emit(fmt.Sprintf(format, args...))
}

func (c *Compiler) emitLabel(name string) {
	c.out.WriteString(name)
	c.out.WriteString(":\n")
}

// checkDeclared enforces the declaration rule (spec §4.4/§8): an
// identifier may be read only after it has been assigned, declared
// visible/constant, bound as a parameter of an enclosing function, or is
// itself a lexically reachable function name.
func (c *Compiler) checkDeclared(pos token.Pos, name string) {
	if _, ok := c.scope.Resolve(name); ok {
		return
	}
	if _, ok := c.tree.Resolve(c.curFn, name); ok {
		return
	}
	c.error(pos, fmt.Sprintf("Undeclared identifier '%s'", name))
}

// isBuiltinOrStatic reports whether name is currently read-only: a static
// (named) function reachable from the current scope, or a constant
// (read-only enforcement). Built-in constant keywords are not identifiers
// and are not checked here.
func (c *Compiler) isBuiltinOrStatic(name string) (msg string, isRO bool) {
	if _, ok := c.tree.Resolve(c.curFn, name); ok {
		return fmt.Sprintf("'%s' is a static function", name), true
	}
	if sym, ok := c.scope.Globals.Lookup(name); ok && sym.Kind == SymConstant {
		return fmt.Sprintf("'%s' is a constant", name), true
	}
	return "", false
}
