package compiler

import (
	"github.com/mna/n7/compiler/fndef"
	"github.com/mna/n7/lang/keyword"
	"github.com/mna/n7/lang/scanner"
	"github.com/mna/n7/lang/token"
)

// statement dispatches on the current token to compile exactly one
// statement, consuming its trailing EOL.
func (c *Compiler) statement() {
	switch {
	case c.tok == token.KEYWORD:
		switch c.val.Keyword {
		case keyword.Function:
			c.functionDefStatement()
		case keyword.If:
			c.ifStatement()
		case keyword.Select:
			c.selectStatement()
		case keyword.While:
			c.whileStatement()
		case keyword.Do:
			c.doStatement()
		case keyword.For:
			c.forStatement()
		case keyword.Foreach:
			c.foreachStatement()
		case keyword.Break:
			c.breakStatement()
		case keyword.Return:
			c.returnStatement()
		case keyword.Visible:
			c.declStatement(SymVisible)
		case keyword.Constant:
			c.declStatement(SymConstant)
		case keyword.Include:
			c.includeStatement()
		case keyword.Asm:
			c.asmStatement()
		case keyword.End:
			c.endStatement()
		case keyword.Assert:
			c.assertStatement()
		default:
			c.builtinCallStatement()
		}
	case c.tok == token.IDENT:
		c.identStatement()
	default:
		c.fail("Expected statement")
	}
}

// compileBlockBody compiles statements up to (not including) the next
// token that is one of the given keywords, or EOF (the caller's own
// expectKeyword then reports the right "expected X" diagnostic).
func (c *Compiler) compileBlockBody(stop ...keyword.Kind) {
	for {
		c.skipEOLs()
		if c.tok == token.EOF {
			return
		}
		if c.tok == token.KEYWORD {
			for _, s := range stop {
				if c.val.Keyword == s {
					return
				}
			}
		}
		c.statement()
	}
}

// builtinCallStatement compiles a statement consisting of a bare built-in
// call (e.g. `pln "hello"`), discarding its pushed
// result. Any other keyword reaching here (one with no statement-level
// meaning and no call form, e.g. a constant like `true` used bare) fails.
func (c *Compiler) builtinCallStatement() {
	kw := c.val.Keyword
	name := c.val.Raw
	entry, ok := keyword.Lookup(name)
	if !ok || !entry.IsCall {
		c.failf("Unexpected keyword '%s'", name)
	}
	c.advance()
	c.compileBuiltinCall(kw, name, entry)
	c.emit("pop @0")
	c.expectEOL()
}

// identStatement compiles a statement beginning with an identifier: an
// assignment (possibly through an indirection chain), a call to a
// statically resolved named function, or a call through an indirection
// chain / a plain variable holding a function value, with its result
// discarded.
func (c *Compiler) identStatement() {
	pos := c.pos()
	name := c.expectIdent()

	if def, ok := c.tree.Resolve(c.curFn, name); ok && c.atChar('(') {
		c.compileStaticCall(def)
		c.emit("pop @0")
		c.expectEOL()
		return
	}

	if !c.chainContinues() && c.atChar('(') {
		c.checkDeclared(pos, name)
		c.emitContainerResolution(name)
		c.emitf("mload .%s", name)
		c.emit("push @0")
		c.compileDynamicCall()
		c.emit("pop @0")
		c.expectEOL()
		return
	}

	c.compileChainStatement(name, pos)
	c.expectEOL()
}

// compileChainStatement handles both forms that start with a plain
// identifier optionally followed by a chain: an assignment target
// (ending in `=`) or a call target (ending in `(`). Both navigate with the
// same auto-vivifying madd/mload form; a chain
// headed for a call simply never applies the trailing mswap a write needs.
func (c *Compiler) compileChainStatement(rootName string, rootPos token.Pos) {
	if msg, ro := c.isBuiltinOrStatic(rootName); ro {
		c.error(rootPos, "Cannot assign to "+msg)
	}
	if _, ok := c.scope.Resolve(rootName); !ok {
		_ = c.scope.DeclareLocal(rootName, SymLocal, 0)
	}

	c.emit("mpush")
	c.emitContainerResolution(rootName)

	pending := chainComp{name: rootName}
	for c.chainContinues() {
		c.emitComponentNavWrite(pending, false)
		pending = c.parseNextChainComp()
	}

	switch {
	case c.atChar('='):
		if sym, ok := c.scope.Resolve(rootName); ok && !AssignableTo(sym) {
			c.error(rootPos, "'"+rootName+"' is read-only")
		}
		c.emitComponentNavWrite(pending, true)
		c.advance()
		c.expr()
		c.emit("pop @0")
		c.emit("mswap")
		c.emit("mset @0")
		c.emit("mpop")
		c.emit("mpop")
	case c.atChar('('):
		c.emitComponentNavWrite(pending, false)
		c.emit("push @0")
		c.emit("mpop")
		c.compileDynamicCall()
	default:
		c.fail("Expected '=' or '('")
	}
}

// declStatement compiles `visible name [= expr][, ...]` or
// `constant name = expr[, ...]`. Declared names always live in program
// memory regardless of lexical nesting (that's what distinguishes a
// visible/constant from a local), so a `loadpm` precedes the store
// whenever the declaration appears inside a function body.
func (c *Compiler) declStatement(kind SymbolKind) {
	c.advance() // 'visible' or 'constant'
	for {
		pos := c.pos()
		name := c.expectIdent()
		if err := c.scope.DeclareGlobal(name, kind, 0); err != nil {
			c.error(pos, err.Error())
		}

		if c.atChar('=') {
			c.advance()
			c.expr()
			c.emit("pop @0")
		} else if kind == SymConstant {
			c.fail("Expected '='")
		} else {
			c.emit("ldnull")
		}

		if c.curFn != c.tree.Root {
			c.emit("loadpm")
		}
		c.emitf("madd .%s", name)
		c.emit("mset @0")

		if c.atChar(',') {
			c.advance()
			continue
		}
		break
	}
	c.expectEOL()
}

// includeStatement resolves and, unless already included, compiles
// another source file's top-level code into its own named sub-memory of
// program memory (the library-namespacing feature): the N-th distinct
// include target gets exactly one sub-memory allocation, and further
// includes of the same target are silently deduplicated.
func (c *Compiler) includeStatement() {
	pos := c.pos()
	c.advance() // 'include'
	if c.tok != token.STRING {
		c.fail("Expected string literal")
	}
	path := c.val.String
	c.advance()
	c.expectEOL()

	canonical, data, err := ResolveInclude(path, c.userLib, c.sysLib)
	if err != nil {
		c.error(pos, err.Error())
		return
	}
	if c.includes.AlreadyIncluded(canonical) {
		return
	}

	libName := LibraryName(canonical)
	if c.curFn != c.tree.Root {
		c.emit("loadpm")
	}
	c.emitf("madd .%s", libName)
	c.emitf("mload .%s", libName)

	c.libPrefix = libName
	c.compileIncludedFile(canonical, data)

	c.emit("mpop")
}

// compileIncludedFile swaps in a scanner over an included file's bytes,
// compiles its top-level statements the same way Compile does for the
// root file, then restores the outer file's scanning state. The outer
// state is captured in a SourceEnv (matching the file-scoped Visibles model:
// each include frame gets its own table, restored on leaving the include).
func (c *Compiler) compileIncludedFile(filename string, data []byte) {
	outer := &SourceEnv{
		Filename: c.filename,
		LibName:  c.libPrefix,
		Scanner:  c.s,
		File:     c.f,
		Visibles: c.scope.EnterFile(),
		Tok:      c.tok,
		Val:      c.val,
	}
	c.filename = filename

	f := c.fs.AddFile(filename, -1, len(data))
	var s scanner.Scanner
	s.Init(f, data, c.errs.Add)
	c.f, c.s = f, &s
	c.peeked = false
	c.advance()

	c.scope.PushLocals()
	c.pushFnBase()
	c.emitf("/file:%s", filename)
	for c.tok != token.EOF {
		c.skipEOLs()
		if c.tok == token.EOF {
			break
		}
		c.statement()
	}
	c.popFnBase()
	c.scope.PopLocals()
	c.scope.LeaveFile(outer.Visibles)

	c.f, c.s, c.tok, c.val = outer.File, outer.Scanner, outer.Tok, outer.Val
	c.filename = outer.Filename
	c.libPrefix = outer.LibName
	c.peeked = false
	c.emitf("/file:%s", c.filename)
}

// asmStatement passes a raw `asm ... endasm` block straight through to the
// emitted assembly, verbatim, one line per STRING token the scanner's
// raw-assembly mode produces.
func (c *Compiler) asmStatement() {
	c.s.EnterAsmMode()
	c.advance() // consume 'asm', scanning the first raw line in raw-asm mode
	for c.tok == token.STRING {
		c.emit(c.val.Raw)
		c.advance()
	}
	c.expectKeyword(keyword.EndAsm, "endasm")
}

func (c *Compiler) ifStatement() {
	c.advance() // 'if'
	c.expr()
	c.emit("pop @0")
	if c.atKeyword(keyword.Then) {
		c.advance()
	}

	if c.tok != token.EOL && c.tok != token.EOF {
		// Single-statement form: no endif expected, matching the rule that
		// "once any branch uses the single-statement form, endif is not
		// expected".
		endLbl := c.newLabel("if_end")
		c.emitf("jmpf %s", endLbl)
		c.statement()
		c.emitLabel(endLbl)
		return
	}
	c.expectEOL()

	c.pushBlock(BlockInfo{Kind: BlockIf})
	c.ifBlockChain()
	c.popBlock()
}

func (c *Compiler) ifBlockChain() {
	endLbl := c.newLabel("if_end")
	for {
		nextLbl := c.newLabel("if_next")
		c.emitf("jmpf %s", nextLbl)
		c.compileBlockBody(keyword.ElseIf, keyword.Else, keyword.EndIf)
		c.emitf("jmp %s", endLbl)
		c.emitLabel(nextLbl)

		if !c.atKeyword(keyword.ElseIf) {
			break
		}
		c.advance()
		c.expr()
		c.emit("pop @0")
		if c.atKeyword(keyword.Then) {
			c.advance()
		}
		c.expectEOL()
	}

	if c.atKeyword(keyword.Else) {
		c.advance()
		c.expectEOL()
		c.compileBlockBody(keyword.EndIf)
	}
	c.expectKeyword(keyword.EndIf, "endif")
	c.emitLabel(endLbl)
}

func (c *Compiler) selectStatement() {
	c.advance() // 'select'
	if c.atKeyword(keyword.Case) {
		c.advance() // optional noise word: "select [case] expr"
	}
	c.expr()
	c.emit("pop @0")
	subj := c.newLabel("__sel")
	c.emitf("madd .%s", subj)
	c.emit("mset @0")
	c.expectEOL()

	endLbl := c.newLabel("sel_end")
	c.pushBlock(BlockInfo{Kind: BlockSelect, BreakLabel: endLbl})

	for {
		c.skipEOLs()
		if !c.atKeyword(keyword.Case) {
			break
		}
		c.advance()
		caseBodyLbl := c.newLabel("case_body")
		for {
			c.emitf("mload .%s", subj)
			c.emit("push @0")
			c.expr()
			c.emit("pop @1")
			c.emit("pop @0")
			c.emit("ecmp")
			c.emitf("jmpt %s", caseBodyLbl)
			if c.atChar(',') {
				c.advance()
				continue
			}
			break
		}
		nextLbl := c.newLabel("case_next")
		c.emitf("jmp %s", nextLbl)
		c.emitLabel(caseBodyLbl)
		c.expectEOL()
		c.compileBlockBody(keyword.Case, keyword.Default, keyword.EndSel)
		c.emitf("jmp %s", endLbl)
		c.emitLabel(nextLbl)
	}
	if c.atKeyword(keyword.Default) {
		c.advance()
		c.expectEOL()
		c.compileBlockBody(keyword.EndSel)
	}
	c.expectKeyword(keyword.EndSel, "endsel")
	c.emitLabel(endLbl)
	c.popBlock()
	c.emitf("mdel .%s", subj)
}

func (c *Compiler) whileStatement() {
	c.advance() // 'while'
	startLbl := c.newLabel("while_start")
	endLbl := c.newLabel("while_end")
	c.emitLabel(startLbl)
	c.expr()
	c.emit("pop @0")
	c.emitf("jmpf %s", endLbl)
	if c.atKeyword(keyword.Then) {
		c.advance()
	}

	c.pushBlock(BlockInfo{Kind: BlockWhile, BreakLabel: endLbl})
	if c.tok != token.EOL && c.tok != token.EOF {
		// Single-statement form: no `wend` follows.
		c.statement()
		c.popBlock()
	} else {
		c.expectEOL()
		c.compileBlockBody(keyword.Wend)
		c.popBlock()
		c.expectKeyword(keyword.Wend, "wend")
	}
	c.emitf("jmp %s", startLbl)
	c.emitLabel(endLbl)
}

func (c *Compiler) doStatement() {
	c.advance() // 'do'
	c.expectEOL()
	startLbl := c.newLabel("do_start")
	endLbl := c.newLabel("do_end")
	c.emitLabel(startLbl)

	c.pushBlock(BlockInfo{Kind: BlockDo, BreakLabel: endLbl})
	c.compileBlockBody(keyword.Loop, keyword.Until)
	c.popBlock()
	if c.atKeyword(keyword.Loop) {
		c.advance()
		c.emitf("jmp %s", startLbl)
	} else {
		c.expectKeyword(keyword.Until, "until")
		c.expr()
		c.emit("pop @0")
		c.emitf("jmpf %s", startLbl)
	}
	c.emitLabel(endLbl)
}

// forStatement compiles `for i = start to end [step s] ... next`. Start,
// end and step are kept in hidden named locals rather than registers
// ("kept on the memory stack"), sidestepping the two-register limit
// while the loop runs. Step's sign is forced to match the direction from
// start to end at runtime, since start/end/step may all be arbitrary,
// non-constant expressions.
func (c *Compiler) forStatement() {
	c.advance() // 'for'
	varName := c.expectIdent()
	c.expectChar('=')
	c.expr()
	c.emit("pop @0")
	_ = c.scope.DeclareLocal(varName, SymLocal, 0)
	c.emitf("madd .%s", varName)
	c.emit("mset @0")

	c.expectKeyword(keyword.To, "to")
	c.expr()
	endVar := c.newLabel("__forend")
	c.emit("pop @0")
	c.emitf("madd .%s", endVar)
	c.emit("mset @0")

	stepVar := c.newLabel("__forstep")
	if c.atKeyword(keyword.Step) {
		c.advance()
		c.expr()
		c.emit("pop @0")
	} else {
		c.emit("ldi 1")
	}
	c.emit("abs")
	c.emitf("madd .%s", stepVar)
	c.emit("mset @0")

	dirOkLbl := c.newLabel("for_dir_ok")
	c.emitf("mload .%s", varName) // @0 = start
	c.emit("push @0")
	c.emitf("mload .%s", endVar) // @0 = end
	c.emit("pop @1")             // @1 = start, @0 = end
	c.emit("less")               // @0 = end < start
	c.emitf("jmpf %s", dirOkLbl)
	c.emitf("mload .%s", stepVar)
	c.emit("neg")
	c.emitf("madd .%s", stepVar)
	c.emit("mset @0")
	c.emitLabel(dirOkLbl)
	c.expectEOL()

	loopLbl := c.newLabel("for_loop")
	endLbl := c.newLabel("for_end")
	c.emitLabel(loopLbl)

	// Continue while sign(step) * (end - i) >= 0.
	c.emitf("mload .%s", varName)
	c.emit("push @0")
	c.emitf("mload .%s", endVar)
	c.emit("pop @1") // @1 = i, @0 = end
	c.emit("sub")    // @0 = end - i
	c.emit("push @0")
	c.emitf("mload .%s", stepVar)
	c.emit("sgn")
	c.emit("pop @1") // @1 = (end - i), @0 = sign(step)
	c.emit("mul")    // @0 = sign(step) * (end - i)
	c.emit("push @0")
	c.emit("ldi 0")
	c.emit("pop @1") // @1 = product, @0 = 0
	c.emit("leql")   // @0 = 0 <= product
	c.emitf("jmpf %s", endLbl)

	c.pushBlock(BlockInfo{Kind: BlockFor, BreakLabel: endLbl})
	c.compileBlockBody(keyword.Next)
	c.popBlock()
	c.expectKeyword(keyword.Next, "next")

	c.emitf("mload .%s", varName)
	c.emit("push @0")
	c.emitf("mload .%s", stepVar)
	c.emit("pop @1") // @1 = i, @0 = step
	c.emit("add")    // @0 = step + i
	c.emitf("madd .%s", varName)
	c.emit("mset @0")
	c.emitf("jmp %s", loopLbl)

	c.emitLabel(endLbl)
	c.emitf("mdel .%s", endVar)
	c.emitf("mdel .%s", stepVar)
}

// foreachStatement compiles `foreach value[, key] in expr ... next` using
// the iterator opcode family (iload/ihas/ival/ikey/istep/ipush/ipop/idel).
func (c *Compiler) foreachStatement() {
	c.advance() // 'foreach'
	valName := c.expectIdent()
	keyName := ""
	if c.atChar(',') {
		c.advance()
		keyName = c.expectIdent()
	}
	c.expectKeyword(keyword.In, "in")
	c.expr()
	c.emit("pop @0")
	c.emit("iload")
	c.emit("ipush")
	c.expectEOL()

	_ = c.scope.DeclareLocal(valName, SymLocal, 0)
	if keyName != "" {
		_ = c.scope.DeclareLocal(keyName, SymLocal, 0)
	}

	loopLbl := c.newLabel("foreach_loop")
	endLbl := c.newLabel("foreach_end")
	c.emitLabel(loopLbl)
	c.emit("ihas")
	c.emitf("jmpf %s", endLbl)
	c.emit("ival")
	c.emitf("madd .%s", valName)
	c.emit("mset @0")
	if keyName != "" {
		c.emit("ikey")
		c.emitf("madd .%s", keyName)
		c.emit("mset @0")
	}

	c.pushBlock(BlockInfo{Kind: BlockForeach, BreakLabel: endLbl})
	c.compileBlockBody(keyword.Next)
	c.popBlock()
	c.expectKeyword(keyword.Next, "next")

	c.emit("istep")
	c.emitf("jmp %s", loopLbl)
	c.emitLabel(endLbl)
	c.emit("ipop")
	c.emit("idel")
}

func (c *Compiler) breakStatement() {
	pos := c.pos()
	c.advance()
	c.expectEOL()
	for i := len(c.blocks) - 1; i >= c.curFnBase(); i-- {
		switch c.blocks[i].Kind {
		case BlockWhile, BlockDo, BlockFor, BlockForeach:
			c.emitf("jmp %s", c.blocks[i].BreakLabel)
			return
		}
	}
	c.error(pos, "'break' outside any loop")
}

// returnStatement unwinds any open blocks within the current function
// that own runtime resources needing release (only BlockForeach's
// iterator frame; BlockSelect's subject and BlockFor's bounds live in
// named locals that go out of scope along with the rest of the function's
// memory context when it is torn down below) before emitting mpop and ret,
// matching compileFunctionBody's default-return sequence.
func (c *Compiler) returnStatement() {
	if c.curFn == c.tree.Root {
		c.fail("Unexpected 'return'")
	}
	c.advance()
	if c.tok != token.EOL && c.tok != token.EOF {
		c.expr()
		c.emit("pop @0")
	} else {
		c.emit("ldi 0")
	}
	c.expectEOL()

	for i := len(c.blocks) - 1; i >= c.curFnBase(); i-- {
		if c.blocks[i].Kind == BlockForeach {
			c.emit("ipop")
			c.emit("idel")
		}
	}
	c.emit("mpop")
	c.emit("ret")
}

// endStatement compiles the bare `end` statement, which halts the running
// program immediately.
func (c *Compiler) endStatement() {
	c.advance()
	c.expectEOL()
	c.emit("end")
}

// assertStatement compiles `assert <expr>[, <msg>]`: the condition is
// evaluated and left pushed on the value stack, then either a custom
// message expression or the literal "Assertion failed" is loaded into @0.
// "spop @0 @1" swaps that message into the stack and pops both values back
// out, landing the condition in @0 and the message in @1 for "assert @0 @1"
// to check.
func (c *Compiler) assertStatement() {
	c.advance()
	c.expr()
	if c.atChar(',') {
		c.advance()
		c.expr()
		c.emit("pop @0")
	} else {
		c.emit(`lds "Assertion failed"`)
	}
	c.emit("spop @0 @1")
	c.emit("assert @0 @1")
	c.expectEOL()
}

func (c *Compiler) functionDefStatement() {
	idx := c.nextFnIndex
	c.nextFnIndex++
	def, _ := c.tree.ByIndex(idx)

	c.advance() // 'function'
	c.expectIdent()
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
}

// compileFunctionBody emits a function's full entry sequence (jump-over,
// label, opt_pval's long form, a fresh locals frame, `this`, parameter
// binding via opt_loadparam's long form) followed by the body and a
// default `mpop; clr @0; ret`.
func (c *Compiler) compileFunctionBody(def *fndef.Definition) {
	skipLbl := c.newLabel("fnskip")
	c.emitf("jmp %s", skipLbl)
	c.emitLabel(def.Label())

	c.emitf("mload .%s", def.DisplayName())
	c.emitf("ldi %d", def.ParamCount)
	c.emit("assert @0 @1")

	c.emit("local")
	prevFn := c.curFn
	c.curFn = def
	c.scope.PushLocals()
	c.pushFnBase()

	_ = c.scope.DeclareLocal("this", SymLocal, 0)
	c.emit("madd .this")

	for _, p := range def.Params {
		_ = c.scope.DeclareLocal(p, SymParam, 0)
		c.emitf("madd .%s", p)
		c.emit("mpush")
		c.emitf("mload .%s", p)
		c.emit("pop @0")
		c.emit("mset @0")
		c.emit("mpop")
	}

	c.compileBlockBody(keyword.EndFunc)
	c.expectKeyword(keyword.EndFunc, "endfunc")

	c.emit("mpop")
	c.emit("clr @0")
	c.emit("ret")

	c.popFnBase()
	c.scope.PopLocals()
	c.curFn = prevFn
	c.emitLabel(skipLbl)
}
