package compiler

import (
	"fmt"
	"os"

	"github.com/mna/n7/compiler/fndef"
	"github.com/mna/n7/lang/keyword"
	"github.com/mna/n7/lang/scanner"
	"github.com/mna/n7/lang/token"
)

// Prescanner runs component C3: a read-only walk over the root source file
// and every transitively included file, producing the fndef.Tree that C4
// consults to resolve forward and enclosing-scope function references.
// Unlike C4, it does not emit code and does not track expressions; it only
// needs to recognise `include`, `function`/`endfunc`, and balance the two.
type Prescanner struct {
	UserLibPath string
	SysLibPath  string

	tree     *fndef.Tree
	includes *IncludeInfo
	errs     *scanner.ErrorList
}

// NewPrescanner creates a Prescanner ready to walk rootFilename.
func NewPrescanner(userLibPath, sysLibPath string) *Prescanner {
	return &Prescanner{
		UserLibPath: userLibPath,
		SysLibPath:  sysLibPath,
		tree:        fndef.NewTree(),
		errs:        &scanner.ErrorList{},
	}
}

// Run executes the prescan starting at rootFilename and returns the
// discovered function tree. Errors are collected, not returned directly;
// call Errs() after Run to check for failures.
func (p *Prescanner) Run(rootFilename string) *fndef.Tree {
	data, err := os.ReadFile(rootFilename)
	if err != nil {
		p.errs.Add(token.Position{Filename: rootFilename}, fmt.Sprintf("Could not open file '%s' for reading", rootFilename))
		return p.tree
	}
	p.includes = NewIncludeInfo(rootFilename)
	fs := token.NewFileSet()
	p.walkFile(fs, rootFilename, data, p.tree.Root)
	return p.tree
}

// Errs returns the accumulated diagnostics, if any.
func (p *Prescanner) Errs() *scanner.ErrorList { return p.errs }

func (p *Prescanner) walkFile(fs *token.FileSet, filename string, src []byte, root *fndef.Definition) {
	f := fs.AddFile(filename, -1, len(src))
	var s scanner.Scanner
	s.Init(f, src, p.errs.Add)

	type frame struct {
		def    *fndef.Definition
		params map[string]bool
	}
	stack := []frame{{def: root, params: map[string]bool{}}}

	var tok token.Token
	var val token.Value
	for {
		tok = s.Scan(&val)
		if tok == token.EOF {
			break
		}
		if tok != token.KEYWORD {
			continue
		}
		switch val.Keyword {
		case keyword.Include:
			tok = s.Scan(&val)
			if tok != token.STRING {
				p.error(f, val.Pos, "Expected a string after 'include'")
				continue
			}
			canonical, data, err := ResolveInclude(val.String, p.UserLibPath, p.SysLibPath)
			if err != nil {
				p.error(f, val.Pos, err.Error())
				continue
			}
			if p.includes.AlreadyIncluded(canonical) {
				continue
			}
			p.walkFile(fs, canonical, data, stack[len(stack)-1].def)

		case keyword.Function:
			name, params, pos, ok := p.parseFunctionHeader(f, &s)
			if !ok {
				continue
			}
			cur := stack[len(stack)-1]
			if name != "" && cur.params[name] {
				p.error(f, pos, fmt.Sprintf("Collision between parameter and function identifier %s", name))
			}
			seen := map[string]bool{}
			for _, prm := range params {
				if prm == name {
					p.error(f, pos, fmt.Sprintf("Collision between parameter and function identifier %s", prm))
				}
				if seen[prm] {
					p.error(f, pos, fmt.Sprintf("Parameter name %s defined more than once", prm))
				}
				seen[prm] = true
				if _, ok := p.tree.Resolve(cur.def, prm); ok {
					p.error(f, pos, fmt.Sprintf("Collision between parameter and function identifier %s", prm))
				}
			}
			def, err := p.tree.Declare(cur.def, name, params)
			if err != nil {
				p.error(f, pos, err.Error())
				continue
			}
			pset := map[string]bool{}
			for _, prm := range params {
				pset[prm] = true
			}
			stack = append(stack, frame{def: def, params: pset})

		case keyword.EndFunc:
			if len(stack) <= 1 {
				p.error(f, val.Pos, "Syntax error")
				continue
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) != 1 {
		p.error(f, f.Pos(len(src)), "Expected 'endfunc'")
	}
}

// parseFunctionHeader consumes `[name] ( p1, p2, … )` immediately after a
// `function` keyword has already been scanned.
func (p *Prescanner) parseFunctionHeader(f *token.File, s *scanner.Scanner) (name string, params []string, pos token.Pos, ok bool) {
	var val token.Value
	tok := s.Scan(&val)
	pos = val.Pos
	if tok == token.IDENT {
		name = val.Raw
		tok = s.Scan(&val)
	}
	if tok != token.CHARACTER || val.Char != '(' {
		p.error(f, val.Pos, "Expected '(' in function definition")
		return "", nil, pos, false
	}
	for {
		tok = s.Scan(&val)
		if tok == token.CHARACTER && val.Char == ')' {
			break
		}
		if tok != token.IDENT {
			p.error(f, val.Pos, "Expected parameter name")
			return "", nil, pos, false
		}
		params = append(params, val.Raw)
		tok = s.Scan(&val)
		if tok == token.CHARACTER && val.Char == ')' {
			break
		}
		if tok != token.CHARACTER || val.Char != ',' {
			p.error(f, val.Pos, "Expected ',' or ')' in parameter list")
			return "", nil, pos, false
		}
	}
	// parameters are stored in reverse order: arguments are popped from the
	// value stack in reverse.
	for i, j := 0, len(params)-1; i < j; i, j = i+1, j-1 {
		params[i], params[j] = params[j], params[i]
	}
	return name, params, pos, true
}

func (p *Prescanner) error(f *token.File, pos token.Pos, msg string) {
	p.errs.Add(f.Position(pos), msg)
}
