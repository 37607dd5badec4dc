// Package check implements the mvs-calculus type checker (`TC`, spec.md
// §4.1) and its overlap analysis (§4.1.1). It never mutates the AST it
// walks: every derived fact -- a node's type, a path's mutability -- is
// recorded in a NodeID-keyed side table, the way
// _examples/susji-c0/analyze/analyze.go already keyed its `canassign`,
// `structaccess` and `NodeTypes` maps off `node.Id()` rather than writing
// back into the tree.
package check

import (
	"fmt"

	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/diag"
	"github.com/susji/mvsc/types"
)

// Checker holds Δ (the struct context), the accumulated diagnostics, and
// the NodeID-keyed side tables the code generator later consults.
type Checker struct {
	fn    string
	diags diag.Bag

	delta map[string]*types.Type // struct name -> Struct type

	nodeTypes       map[ast.NodeID]*types.Type
	nodeMutability  map[ast.NodeID]ast.Mutability
	funcLiteralType map[ast.NodeID]*types.FuncType
}

func New() *Checker {
	return NewFile("<stdin>")
}

func NewFile(fn string) *Checker {
	c := &Checker{
		fn:              fn,
		delta:           map[string]*types.Type{},
		nodeTypes:       map[ast.NodeID]*types.Type{},
		nodeMutability:  map[ast.NodeID]ast.Mutability{},
		funcLiteralType: map[ast.NodeID]*types.FuncType{},
	}
	c.delta["Unit"] = types.NewStruct("Unit", nil)
	return c
}

func (c *Checker) Diagnostics() []*diag.Diagnostic { return c.diags.All() }

func (c *Checker) errorf(id ast.NodeID, err error, format string, a ...interface{}) error {
	wrapped := fmt.Errorf("%w: %s", err, fmt.Sprintf(format, a...))
	line, col := 1, 1
	if id != ast.NodeIDInvalid {
		if tok := ast.Tok(id); tok != nil {
			line, col = tok.Lineno(), tok.Col()
		}
	}
	c.diags.Add(diag.New(c.fn, line, col, diag.Error, wrapped))
	return wrapped
}

func (c *Checker) setType(n ast.Node, t *types.Type) *types.Type {
	c.nodeTypes[n.ID()] = t
	return t
}

// Type returns n's resolved type, as recorded by an earlier Check call.
func (c *Checker) Type(n ast.Node) *types.Type { return c.nodeTypes[n.ID()] }

func (c *Checker) setMutability(n ast.Node, m ast.Mutability) {
	c.nodeMutability[n.ID()] = m
}

// Mutability returns the mutability a path resolved to, as recorded by an
// earlier Check call.
func (c *Checker) Mutability(n ast.Node) ast.Mutability { return c.nodeMutability[n.ID()] }

// FuncLiteralType returns the signature resolved for a Func literal's
// own node id, consulted by package codegen when lifting a closure.
func (c *Checker) FuncLiteralType(id ast.NodeID) *types.FuncType { return c.funcLiteralType[id] }

// rootScope installs the optional `uptime`/`sqrt` built-ins in Γ
// (spec.md §4.1; the `Unit` struct is already in Δ from NewFile),
// resolving the Open Question
// of whether they are always present: this implementation always
// installs them (SPEC_FULL.md §5, decision 1).
func (c *Checker) rootScope() *scope {
	root := newScope(nil)
	root.add("uptime", ast.Let, types.NewFunc(nil, types.Float))
	root.add("sqrt", ast.Let, types.NewFunc([]*types.Type{types.Float}, types.Float))
	return root
}

// Check runs the top-level rule: check every StructDecl into Δ in
// declaration order (which, since a struct may only reference structs
// already in Δ, rules out mutual recursion and guarantees finite depth,
// spec.md §3's invariant), then check the entry expression with no
// expected type.
func (c *Checker) Check(prog *ast.Program) error {
	for _, sd := range prog.Types {
		if err := c.checkStructDecl(sd); err != nil {
			continue
		}
	}
	root := c.rootScope()
	c.expr(prog.Entry, root, nil)
	if c.diags.HasErrors() {
		return fmt.Errorf("type checking encountered errors")
	}
	return nil
}

func (c *Checker) checkStructDecl(sd *ast.StructDecl) error {
	if _, ok := c.delta[sd.Name]; ok {
		return c.errorf(sd.ID(), ErrDuplicateStruct, "%s", sd.Name)
	}
	props := make([]types.Prop, 0, len(sd.Members))
	for _, fd := range sd.Members {
		if _, ok := fd.Sig.(*ast.InoutSign); ok {
			c.errorf(fd.ID(), ErrInoutInStructField, "%s.%s", sd.Name, fd.Name)
			continue
		}
		t, err := c.resolveSign(fd.Sig)
		if err != nil {
			c.errorf(fd.ID(), err, "%s.%s", sd.Name, fd.Name)
			continue
		}
		props = append(props, types.Prop{Mutability: fd.Mutability, Name: fd.Name, Type: t})
	}
	c.delta[sd.Name] = types.NewStruct(sd.Name, props)
	return nil
}

// resolveSign maps a parsed ast.Sign to its semantic types.Type,
// enforcing that `inout` may not appear as an array's element type or a
// function's output type (spec.md §3's Inout invariant; struct fields are
// rejected at the StructDecl call site instead, where the field name is
// available for the diagnostic).
func (c *Checker) resolveSign(sig ast.Sign) (*types.Type, error) {
	switch s := sig.(type) {
	case *ast.IntSign:
		return types.Int, nil
	case *ast.FloatSign:
		return types.Float, nil
	case *ast.NamedSign:
		if s.Name == "Any" {
			return types.Any, nil
		}
		if st, ok := c.delta[s.Name]; ok {
			return st, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownStruct, s.Name)
	case *ast.ArraySign:
		elem, err := c.resolveSign(s.Elem)
		if err != nil {
			return nil, err
		}
		if elem.Kind == types.KindInout {
			return nil, ErrInoutInArrayElem
		}
		return types.NewArray(elem), nil
	case *ast.FuncSign:
		params := make([]*types.Type, len(s.Params))
		for i, p := range s.Params {
			t, err := c.resolveSign(p)
			if err != nil {
				return nil, err
			}
			params[i] = t
		}
		output, err := c.resolveSign(s.Output)
		if err != nil {
			return nil, err
		}
		if output.Kind == types.KindInout {
			return nil, ErrInoutAsOutput
		}
		return types.NewFunc(params, output), nil
	case *ast.InoutSign:
		base, err := c.resolveSign(s.Base)
		if err != nil {
			return nil, err
		}
		if base.Kind == types.KindInout {
			return nil, ErrInoutNested
		}
		return types.NewInout(base), nil
	default:
		panic(fmt.Sprintf("check: unhandled sign %T", sig))
	}
}
