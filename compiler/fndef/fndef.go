// Package fndef holds the tree of FunctionDefinitions for component C3,
// the function-definition prescan. The prescanner itself is
// compiler.Prescanner: before codegen runs, it walks the whole token
// stream (root file plus every transitively included file) once to build
// this tree, so that C4 can compile a forward reference to a function
// defined later in the same file or in an included file.
//
// The tree shape (a node owning a map of its children, with a non-owning
// parent back-edge) follows a block-tree pattern generalized from
// per-file lexical blocks to named, possibly-anonymous function
// definitions.
package fndef

import (
	"fmt"
	"strconv"

	"github.com/dolthub/swiss"
)

// Definition is one function definition discovered during prescan.
type Definition struct {
	Index     int // stable integer index assigned in discovery order
	Name      string
	Anonymous bool

	Params    []string // reverse order, matching the calling convention
	ParamCount int

	Parent   *Definition // non-owning; nil for the top-level (file-scope) definition
	children *swiss.Map[string, *Definition]
}

// DisplayName returns Name for named functions, or a stringified anonymous
// index ("anon#3") for anonymous ones, matching the naming rule
// for diagnostics and generated labels.
func (d *Definition) DisplayName() string {
	if d.Anonymous {
		return "anon#" + strconv.Itoa(d.Index)
	}
	return d.Name
}

// Label returns the assembly label this function's body is emitted under.
func (d *Definition) Label() string { return "__" + strconv.Itoa(d.Index) }

// Child looks up a direct child definition by name.
func (d *Definition) Child(name string) (*Definition, bool) {
	if d.children == nil {
		return nil, false
	}
	return d.children.Get(name)
}

// Tree owns every Definition discovered for one compile unit (root file
// plus includes) and assigns stable indices in discovery order.
type Tree struct {
	Root  *Definition
	all   []*Definition
	next  int
}

// NewTree creates a Tree with an implicit top-level Definition representing
// file scope (its own "function", treating top-level statements as an
// implicit main function body).
func NewTree() *Tree {
	t := &Tree{}
	root := &Definition{Index: 0, Name: "__main__", children: swiss.NewMap[string, *Definition](4)}
	t.Root = root
	t.all = append(t.all, root)
	t.next = 1
	return t
}

// Declare registers a new function definition as a child of parent. name
// is "" for an anonymous function literal. It returns an error if a
// sibling with the same non-empty name already exists directly under
// parent ("function 'f' is already defined").
func (t *Tree) Declare(parent *Definition, name string, params []string) (*Definition, error) {
	anon := name == ""
	if !anon {
		if _, ok := parent.Child(name); ok {
			return nil, fmt.Errorf("function '%s' is already defined", name)
		}
	}
	def := &Definition{
		Index:      t.next,
		Name:       name,
		Anonymous:  anon,
		Params:     params,
		ParamCount: len(params),
		Parent:     parent,
		children:   swiss.NewMap[string, *Definition](2),
	}
	t.next++
	if parent.children == nil {
		parent.children = swiss.NewMap[string, *Definition](2)
	}
	key := name
	if anon {
		key = def.Label()
	}
	parent.children.Put(key, def)
	t.all = append(t.all, def)
	return def, nil
}

// ByIndex returns the Definition with the given discovery index.
func (t *Tree) ByIndex(i int) (*Definition, bool) {
	if i < 0 || i >= len(t.all) {
		return nil, false
	}
	return t.all[i], true
}

// Len reports the number of discovered definitions, including the implicit
// root.
func (t *Tree) Len() int { return len(t.all) }

// Resolve looks a name up starting at scope and walking up through parent
// definitions, matching the "forward and enclosing-scope
// function reference" rule: a call to `f()` may refer to a sibling defined
// later in the same block, or to any ancestor block's definition.
func (t *Tree) Resolve(scope *Definition, name string) (*Definition, bool) {
	for d := scope; d != nil; d = d.Parent {
		if child, ok := d.Child(name); ok {
			return child, true
		}
	}
	return nil, false
}
