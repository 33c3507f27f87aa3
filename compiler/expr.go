package compiler

import (
	"github.com/mna/n7/compiler/fndef"
	"github.com/mna/n7/lang/keyword"
	"github.com/mna/n7/lang/token"
)

// expr compiles one expression (precedence-climbing: or, and, not,
// relational, additive, multiplicative, exponentiation, unary, primary),
// leaving exactly one value pushed on the value stack. Binary operators
// lower to the fused stack-arithmetic family (spadd, spless, ...): both
// operands are compiled so each leaves its value pushed, and the operator
// itself pops both straight off the stack and pushes the result, needing
// no register bookkeeping at all. `^` is the one exception: there is no
// sppow, so it goes through the register-form POW opcode's implicit
// (@0, @1) accumulator instead.
func (c *Compiler) expr() { c.orExpr() }

func (c *Compiler) orExpr() {
	c.andExpr()
	for c.atKeyword(keyword.Or) {
		c.advance()
		trueLbl := c.newLabel("or_true")
		endLbl := c.newLabel("or_end")
		c.emit("jmpet " + trueLbl)
		c.andExpr()
		c.emitf("jmp %s", endLbl)
		c.emitLabel(trueLbl)
		c.emit("ldi 1")
		c.emit("push @0")
		c.emitLabel(endLbl)
	}
}

func (c *Compiler) andExpr() {
	c.notExpr()
	for c.atKeyword(keyword.And) {
		c.advance()
		falseLbl := c.newLabel("and_false")
		endLbl := c.newLabel("and_end")
		c.emit("jmpef " + falseLbl)
		c.notExpr()
		c.emitf("jmp %s", endLbl)
		c.emitLabel(falseLbl)
		c.emit("ldi 0")
		c.emit("push @0")
		c.emitLabel(endLbl)
	}
}

func (c *Compiler) notExpr() {
	if c.atKeyword(keyword.Not) {
		c.advance()
		c.notExpr()
		c.emit("pop @0")
		c.emit("not")
		c.emit("push @0")
		return
	}
	c.relExpr()
}

// relOp peeks ahead to recognise <=, >=, <> as single operators, distinct
// from <, > and =. It does not consume anything.
func (c *Compiler) relOp() (mnemonic string, width int) {
	if c.tok != token.CHARACTER {
		return "", 0
	}
	switch c.val.Char {
	case '=':
		return "speql", 1
	case '<':
		if nt, nv := c.peek(); nt == token.CHARACTER && nv.Char == '=' {
			return "spleql", 2
		}
		if nt, nv := c.peek(); nt == token.CHARACTER && nv.Char == '>' {
			return "spneql", 2
		}
		return "spless", 1
	case '>':
		if nt, nv := c.peek(); nt == token.CHARACTER && nv.Char == '=' {
			return "spgeql", 2
		}
		return "spgre", 1
	}
	return "", 0
}

func (c *Compiler) relExpr() {
	c.addExpr()
	if mnem, width := c.relOp(); width > 0 {
		c.advance()
		if width == 2 {
			c.advance()
		}
		c.addExpr()
		c.emit(mnem)
	}
}

func (c *Compiler) addExpr() {
	c.mulExpr()
	for c.atChar('+') || c.atChar('-') {
		op := "spadd"
		if c.val.Char == '-' {
			op = "spsub"
		}
		c.advance()
		c.mulExpr()
		c.emit(op)
	}
}

func (c *Compiler) mulExpr() {
	c.powExpr()
	for c.atChar('*') || c.atChar('/') || c.atChar('%') {
		var op string
		switch c.val.Char {
		case '*':
			op = "spmul"
		case '/':
			op = "spdiv"
		case '%':
			op = "spmod"
		}
		c.advance()
		c.powExpr()
		c.emit(op)
	}
}

// powExpr is right-associative: 2^3^2 == 2^(3^2).
func (c *Compiler) powExpr() {
	c.unary()
	if c.atChar('^') {
		c.advance()
		c.powExpr()
		c.emit("pop @1")
		c.emit("pop @0")
		c.emit("pow")
		c.emit("push @0")
	}
}

func (c *Compiler) unary() {
	switch {
	case c.atChar('-'):
		c.advance()
		c.unary()
		c.emit("pop @0")
		c.emit("neg")
		c.emit("push @0")
	case c.atChar('+'):
		c.advance()
		c.unary()
	case c.atChar('|'):
		c.advance()
		c.expr()
		c.expectChar('|')
		c.emit("pop @0")
		c.emit("abs")
		c.emit("push @0")
	default:
		c.primary()
	}
}

func (c *Compiler) primary() {
	switch {
	case c.tok == token.NUMBER:
		c.numberLiteral()
	case c.tok == token.STRING:
		// The assembly lexer's string literals strip quotes verbatim, with no
		// escape processing (asm/lexer.go's parseStringLiteral), so the text is
		// written back between literal quotes rather than Go-escaped.
		c.emitf("lds \"%s\"", c.val.String)
		c.emit("push @0")
		c.advance()
	case c.atChar('('):
		c.advance()
		c.expr()
		c.expectChar(')')
	case c.atChar('['):
		c.tableLiteral()
	case c.atKeyword(keyword.Function):
		c.anonFunction()
	case c.atKeyword(keyword.This):
		c.advance()
		c.emit("mload .this")
		c.emit("push @0")
	case c.atKeyword(keyword.Null):
		c.advance()
		c.emit("ldnull")
		c.emit("push @0")
	case c.tok == token.KEYWORD:
		c.builtinPrimary()
	case c.tok == token.IDENT:
		c.primaryIdent()
	default:
		c.fail("Expected expression")
	}
}

func (c *Compiler) numberLiteral() {
	if c.val.IsFloat {
		c.emitf("ldf %s", c.val.Raw)
	} else {
		c.emitf("ldi %s", c.val.Raw)
	}
	c.emit("push @0")
	c.advance()
}

// builtinPrimary compiles a built-in constant (pi, true, false, ...) or a
// built-in call (cos, left, pln, ...) appearing in expression position.
func (c *Compiler) builtinPrimary() {
	kw := c.val.Keyword
	name := c.val.Raw
	entry, ok := keyword.Lookup(c.val.Raw)
	if !ok {
		c.failf("Expected expression, got '%s'", c.val.Raw)
	}
	c.advance()

	if entry.IsCall {
		c.compileBuiltinCall(kw, name, entry)
		return
	}
	if !entry.HasConst {
		c.failf("'%s' cannot be used as a value", name)
	}
	switch entry.Const.Kind {
	case keyword.ConstFloat:
		c.emitf("ldf %v", entry.Const.Float)
	default:
		c.emitf("ldi %d", entry.Const.Int)
	}
	c.emit("push @0")
}

// tableLiteral compiles `[ ... ]`, both the auto-indexed form (a list of
// expressions, keyed 0, 1, 2, ...) and the keyed form (`key: expr` pairs).
// The two forms are told apart by peeking one token past a leading
// identifier for a `:` (the "peek one non-blank character" rule);
// anything else about the element is parsed as an ordinary expression.
// `ctbl` both allocates the new table and switches current memory to it
// (this codegen's one deliberate extension of the opcode's documented
// behaviour, since nothing else needs a "make register @0 the current
// memory" primitive) so each entry can be written with an ordinary
// madd/mset pair.
func (c *Compiler) tableLiteral() {
	c.expectChar('[')
	c.emit("ctbl")
	c.emit("push @0")

	if !c.atChar(']') {
		idx := 0
		for {
			if c.tok == token.IDENT {
				if nt, nv := c.peek(); nt == token.CHARACTER && nv.Char == ':' {
					name := c.val.Raw
					c.advance() // ident
					c.advance() // ':'
					c.expr()
					c.emit("pop @0")
					c.emitf("madd .%s", name)
					c.emit("mset @0")
					if c.atChar(',') {
						c.advance()
						continue
					}
					break
				}
			}
			c.expr()
			c.emit("pop @0")
			c.emitf("madd .%d", idx)
			c.emit("mset @0")
			idx++
			if c.atChar(',') {
				c.advance()
				continue
			}
			break
		}
	}
	c.expectChar(']')

	c.emit("mpop")
	c.emit("pop @0")
	c.emit("push @0")
}

// anonFunction compiles a `function(...) ... endfunc` expression. Its
// fndef.Definition was already recorded by the prescanner; codegen finds
// it the same way it finds every nested definition, by the shared
// discovery-order cursor (see Compiler.nextFnIndex).
func (c *Compiler) anonFunction() {
	idx := c.nextFnIndex
	c.nextFnIndex++
	def, _ := c.tree.ByIndex(idx)
	c.advance() // 'function'
	c.expectChar('(')
	for !c.atChar(')') {
		c.expectIdent()
		if c.atChar(',') {
			c.advance()
			continue
		}
		break
	}
	c.expectChar(')')
	c.expectEOL()
	c.compileFunctionBody(def)
	c.emitf("ldlabel %s", def.Label())
	c.emit("push @0")
}

// primaryIdent parses an identifier in expression position: a static
// function call, a plain variable read, an indirection chain read, or any
// of those immediately applied to a call.
func (c *Compiler) primaryIdent() {
	pos := c.pos()
	name := c.expectIdent()

	if def, ok := c.tree.Resolve(c.curFn, name); ok && c.atChar('(') {
		c.compileStaticCall(def)
		return
	}
	c.checkDeclared(pos, name)

	if !c.chainContinues() {
		c.emitContainerResolution(name)
		c.emitf("mload .%s", name)
		c.emit("push @0")
	} else {
		c.emit("mpush")
		c.emitContainerResolution(name)
		c.emitf("mload .%s", name)
		for c.chainContinues() {
			comp := c.parseNextChainComp()
			c.emitComponentNavRead(comp)
		}
		c.emit("push @0")
		c.emit("mpop")
	}

	if c.atChar('(') {
		c.compileDynamicCall()
	}
}

// compileCallArgList parses `(arg, arg, ...)`, compiling each argument (so
// each leaves its value pushed, in source order) and returning the count.
func (c *Compiler) compileCallArgList() int {
	c.expectChar('(')
	n := 0
	if !c.atChar(')') {
		for {
			c.expr()
			n++
			if c.atChar(',') {
				c.advance()
				continue
			}
			break
		}
	}
	c.expectChar(')')
	return n
}

// compileStaticCall compiles a call whose callee is a statically resolved
// function name: the parameter count is checked at compile time in
// addition to the callee's own runtime opt_pval check.
func (c *Compiler) compileStaticCall(def *fndef.Definition) {
	pos := c.pos()
	n := c.compileCallArgList()
	if n != def.ParamCount {
		c.error(pos, fmtCallArity(def, n))
	}
	c.emitf("ldi %d", n)
	c.emit("push @0")
	c.emit("pop @1")
	c.emitf("ldlabel %s", def.Label())
	c.emit("call @0")
	c.emit("push @0")
}

func fmtCallArity(def *fndef.Definition, got int) string {
	return "'" + def.DisplayName() + "' expects " +
		itoa(def.ParamCount) + " argument(s), got " + itoa(got)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// compileDynamicCall compiles a call whose callee value is already pushed
// on the value stack (a chain read or a plain variable holding a function
// value). The callee is stashed in a hidden local across argument
// evaluation, since only two registers are guaranteed free and both are
// needed while compiling the arguments and setting up the call's argument
// count.
func (c *Compiler) compileDynamicCall() {
	tmp := c.newLabel("__callee")
	c.emit("pop @0")
	c.emitf("madd .%s", tmp)
	c.emit("mset @0")

	n := c.compileCallArgList()

	c.emitf("ldi %d", n)
	c.emit("push @0")
	c.emit("pop @1")
	c.emitf("mload .%s", tmp)
	c.emit("call @0")
	c.emit("push @0")
	c.emitf("mdel .%s", tmp)
}
