package compiler

import (
	"github.com/mna/n7/lang/keyword"
	"github.com/mna/n7/lang/token"
)

// dedicatedOp maps the built-ins that get their own opcode (the math and
// conversion primitives) to that opcode's mnemonic. Everything else
// callable lowers to a `sys <selector> <arity>` instruction instead: the
// instruction set reserves exactly one opcode per math/conversion verb and
// pushes every other runtime-service call (string helpers, file I/O, image
// loading...) through the single generic `sys` escape hatch.
var dedicatedOp = map[keyword.Kind]string{
	keyword.Cos:   "cos",
	keyword.Sin:   "sin",
	keyword.Tan:   "tan",
	keyword.Acos:  "acos",
	keyword.Asin:  "asin",
	keyword.Atan:  "atan",
	keyword.Atan2: "atan2",
	keyword.Sqr:   "sqr",
	keyword.Log:   "log",
	keyword.Sgn:   "sgn",
	keyword.Pow:   "pow",
	keyword.Floor: "floor",
	keyword.Ceil:  "ceil",
	keyword.Round: "round",
	keyword.Rad:   "rad",
	keyword.Deg:   "deg",
	keyword.Min:   "min",
	keyword.Max:   "max",
	keyword.Abs:   "abs",
	keyword.Str:   "str",
	keyword.Num:   "num",
	keyword.Int:   "int",
	keyword.Type:  "type",
	keyword.Size:  "size",
	keyword.Len:   "len",
	keyword.Cpy:   "cpy",
}

// sysSelector returns the selector number a `sys` call uses to identify
// which runtime service it invokes. The runtime's selector catalogue lives
// outside this repo's scope, so the selector is simply the built-in
// keyword's own Kind value: stable, unique per built-in, and requires no
// separate table to keep in sync with lang/keyword.
func sysSelector(k keyword.Kind) int { return int(k) }

// compileBuiltinCall parses and emits code for a call to the built-in
// keyword kw (already consumed), leaving its result pushed on the value
// stack like any other expression. Each argument is compiled (and so
// emitted) as it is parsed, since this is a single-pass compiler; only the
// count is kept around afterward.
func (c *Compiler) compileBuiltinCall(kw keyword.Kind, name string, entry keyword.Entry) {
	n := c.compileCallArgs(entry.Arity.Min, entry.Arity.Max, name)

	if mnem, ok := dedicatedOp[kw]; ok {
		switch n {
		case 1:
			c.emit("pop @0")
		case 2:
			// Args were pushed in source order, so the stack (top to bottom) is
			// [arg2, arg1]: pop @1 takes arg2, pop @0 takes arg1, matching the
			// register-form family's implicit (@0, @1) accumulator convention.
			c.emit("pop @1")
			c.emit("pop @0")
		default:
			c.failf("'%s' takes 1 or 2 arguments", name)
		}
		c.emit(mnem)
		c.emit("push @0")
		return
	}

	c.emitf("sys %d %d", sysSelector(kw), n)
	c.emit("push @0")
}

// compileCallArgs parses and compiles a built-in call's argument list: a
// parenthesized, comma-separated list, `()` for a zero-argument call, a
// bare comma-separated list with no enclosing parentheses at all (e.g.
// `pln "hello"`), or nothing for a built-in invoked with no arguments
// (bare constants aside, every built-in reachable here IsCall). It returns
// the number of arguments compiled, failing if that count falls outside
// [min,max] (max < 0 means unbounded, for print/pln).
func (c *Compiler) compileCallArgs(min, max int, label string) int {
	n := 0
	parenthesized := c.tok == token.CHARACTER && c.val.Char == '('
	if parenthesized {
		c.advance()
	}
	if parenthesized && c.tok == token.CHARACTER && c.val.Char == ')' {
		// explicit "()": zero arguments.
	} else if parenthesized || c.startsExpr() {
		for {
			c.expr()
			n++
			if c.tok == token.CHARACTER && c.val.Char == ',' {
				c.advance()
				continue
			}
			break
		}
	}
	if parenthesized {
		c.expectChar(')')
	}
	if n < min || (max >= 0 && n > max) {
		c.failf("'%s' expects between %d and %d arguments", label, min, max)
	}
	return n
}

// startsExpr reports whether the current token can begin an expression, so
// a bare built-in call's argument list can be told apart from "no
// arguments at all" without a lookahead grammar for every possible
// expression form.
func (c *Compiler) startsExpr() bool {
	switch c.tok {
	case token.NUMBER, token.STRING, token.IDENT:
		return true
	case token.KEYWORD:
		entry, ok := keyword.Lookup(c.val.Raw)
		return ok && (entry.IsCall || entry.HasConst ||
			entry.Kind == keyword.This || entry.Kind == keyword.Function || entry.Kind == keyword.Not)
	case token.CHARACTER:
		switch c.val.Char {
		case '(', '|', '+', '-', '[':
			return true
		}
	}
	return false
}
