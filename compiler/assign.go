package compiler

import "github.com/mna/n7/lang/token"

// chainComp is one non-root component of an indirection chain (`.id` or
// `[expr]`). For the computed form, the index expression has already been
// compiled (and so its value already pushed) by the time chainComp is
// built; emission only needs to pop it back out once finality is known.
type chainComp struct {
	computed bool
	name     string
}

func (c *Compiler) chainContinues() bool {
	return c.tok == token.CHARACTER && (c.val.Char == '.' || c.val.Char == '[')
}

// parseNextChainComp consumes one `.id` or `[expr]` component. The caller
// must already have verified chainContinues().
func (c *Compiler) parseNextChainComp() chainComp {
	switch c.val.Char {
	case '.':
		c.advance()
		return chainComp{name: c.expectIdent()}
	case '[':
		c.advance()
		c.expr()
		c.expectChar(']')
		return chainComp{computed: true}
	default:
		c.fail("Expected '.' or '['")
		return chainComp{}
	}
}

// emitContainerResolution switches current memory to the container that
// holds rootName, if it isn't already there: a global (visible or
// constant) read or written from inside a function body lives in program
// memory, not the function's own locals frame, so `loadpm` is needed
// first. Locals, params, and any access at file scope (where the implicit
// root function's locals table IS effectively program memory) need no
// switch at all.
func (c *Compiler) emitContainerResolution(rootName string) {
	sym, ok := c.scope.Resolve(rootName)
	if ok && (sym.Kind == SymVisible || sym.Kind == SymConstant) && c.curFn != c.tree.Root {
		c.emit("loadpm")
	}
}

// emitComponentNavWrite emits the write-form navigation for comp: "madd X;
// mload X" (auto-vivifying), plus a trailing "mswap" if comp is the final
// component of the chain (the opt_mals long form).
func (c *Compiler) emitComponentNavWrite(comp chainComp, final bool) {
	if comp.computed {
		c.emit("pop @0")
		c.emit("maddr @0")
		c.emit("mloadr @0")
	} else {
		c.emitf("madd .%s", comp.name)
		c.emitf("mload .%s", comp.name)
	}
	if final {
		c.emit("mswap")
	}
}

// emitComponentNavRead emits the read-form navigation for comp: a bare
// "mload X" (no auto-vivify). mload is dual-purpose in this codegen's
// convention: it both resolves the named sub-table as the new current
// memory AND leaves that sub-table's (or leaf value's) contents in @0, so
// a chain of mload calls can simply be concatenated to walk multiple
// levels.
func (c *Compiler) emitComponentNavRead(comp chainComp) {
	if comp.computed {
		c.emit("pop @0")
		c.emit("mloadr @0")
	} else {
		c.emitf("mload .%s", comp.name)
	}
}

// Assignment targets (compileChainStatement, in stmt.go) and expression
// reads (primaryIdent, in expr.go) both build on the navigation primitives
// above directly, since each needs a different decision about when the
// final component's write-form (with its trailing mswap) applies.
