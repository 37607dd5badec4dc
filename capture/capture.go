// Package capture implements the free-variable computation of spec.md
// §4.2: for a function literal, the set of names it references that are
// not bound by one of its own parameters or local bindings. There is no
// direct teacher analog; the bound-name bookkeeping below follows the
// shape of _examples/susji-c0/analyze/scope.go's parent-linked lookup,
// flattened into a single walk since capture analysis runs over an
// already fully-typed tree rather than building up Γ itself.
package capture

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/types"
)

// ErrNonLocalCapture is raised when a nested function literal would need
// to reach past its immediately enclosing literal to a grandparent scope.
// spec.md §9 leaves multi-level closures unspecified; this implementation
// resolves that Open Question by rejecting them outright -- a closure may
// only capture names visible in the function literal directly containing
// it.
var ErrNonLocalCapture = errors.New("closure captures a name from beyond its immediately enclosing function")

// TypeOf resolves the type a checker already assigned to a node -- the
// check package's Checker.Type method satisfies this signature.
type TypeOf func(ast.Node) *types.Type

// Capture is one free variable: its name and the type it was used at.
type Capture struct {
	Name string
	Type *types.Type
}

// Result is a function literal's capture set, in deterministic
// (sorted-by-name) order for reproducible code generation.
type Result struct {
	Captures []Capture
}

func (r *Result) Names() []string {
	out := make([]string, len(r.Captures))
	for i, c := range r.Captures {
		out[i] = c.Name
	}
	return out
}

// Analyze computes fn's capture set. typeOf must have been populated by
// an earlier check.Checker.Check pass over the enclosing program.
func Analyze(fn *ast.Func, typeOf TypeOf) (*Result, error) {
	w := &walker{typeOf: typeOf, free: map[string]*types.Type{}}
	bound := w.boundFromParams(fn)
	// enclosing is nil here: fn is the literal under analysis, so any
	// name free in its own body is an ordinary capture, not a non-local
	// one. The restriction only applies to literals nested inside fn.
	if err := w.walk(fn.Body, bound, nil); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(w.free))
	for name := range w.free {
		names = append(names, name)
	}
	slices.Sort(names)
	caps := make([]Capture, len(names))
	for i, name := range names {
		caps[i] = Capture{Name: name, Type: w.free[name]}
	}
	return &Result{Captures: caps}, nil
}

type walker struct {
	typeOf TypeOf
	free   map[string]*types.Type
}

func (w *walker) boundFromParams(fn *ast.Func) map[string]struct{} {
	bound := map[string]struct{}{"_": {}}
	for _, p := range fn.Params {
		bound[p.Name] = struct{}{}
	}
	return bound
}

// walk tracks two sets: bound (names bound somewhere in the literal
// currently being analyzed, growing as it descends into Bindings) and
// enclosing (names available to a literal directly nested in this one --
// a fixed snapshot of this literal's own bound names at the point a
// nested Func is reached). References to names outside bound are free;
// such a name found inside a nested Func that is not in enclosing is a
// non-local capture.
func (w *walker) walk(e ast.Expr, bound map[string]struct{}, enclosing map[string]struct{}) error {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.Oper, *ast.ErrorExpr, *ast.Wildcard:
		return nil
	case *ast.ArrayLit:
		for _, el := range n.Elems {
			if err := w.walk(el, bound, enclosing); err != nil {
				return err
			}
		}
		return nil
	case *ast.StructLit:
		for _, a := range n.Args {
			if err := w.walk(a, bound, enclosing); err != nil {
				return err
			}
		}
		return nil
	case *ast.NamePath:
		return w.reference(n.Name, n, bound, enclosing)
	case *ast.PropPath:
		return w.walk(n.Base, bound, enclosing)
	case *ast.ElemPath:
		if err := w.walk(n.Base, bound, enclosing); err != nil {
			return err
		}
		return w.walk(n.Index, bound, enclosing)
	case *ast.Call:
		if err := w.walk(n.Callee, bound, enclosing); err != nil {
			return err
		}
		for _, a := range n.Args {
			if err := w.walk(a, bound, enclosing); err != nil {
				return err
			}
		}
		return nil
	case *ast.Infix:
		if err := w.walk(n.Left, bound, enclosing); err != nil {
			return err
		}
		return w.walk(n.Right, bound, enclosing)
	case *ast.InoutExpr:
		return w.walk(n.Target, bound, enclosing)
	case *ast.Binding:
		if err := w.walk(n.Init, bound, enclosing); err != nil {
			return err
		}
		inner := cloneSet(bound)
		inner[n.Decl.Name] = struct{}{}
		return w.walk(n.Body, inner, enclosing)
	case *ast.FuncBinding:
		inner := cloneSet(bound)
		inner[n.Name] = struct{}{}
		if err := w.walkNested(n.Literal, inner); err != nil {
			return err
		}
		return w.walk(n.Body, inner, enclosing)
	case *ast.Assign:
		if np, ok := n.LValue.(ast.Path); ok {
			if err := w.walk(np, bound, enclosing); err != nil {
				return err
			}
		}
		if err := w.walk(n.RValue, bound, enclosing); err != nil {
			return err
		}
		return w.walk(n.Body, bound, enclosing)
	case *ast.Cond:
		if err := w.walk(n.Cond, bound, enclosing); err != nil {
			return err
		}
		if err := w.walk(n.Succ, bound, enclosing); err != nil {
			return err
		}
		return w.walk(n.Fail, bound, enclosing)
	case *ast.Cast:
		return w.walk(n.Value, bound, enclosing)
	case *ast.Func:
		return w.walkNested(n, bound)
	default:
		panic(fmt.Sprintf("capture: unhandled expr %T", e))
	}
}

func (w *walker) reference(name string, n ast.Node, bound, enclosing map[string]struct{}) error {
	if _, ok := bound[name]; ok {
		return nil
	}
	if enclosing != nil {
		if _, ok := enclosing[name]; !ok {
			return fmt.Errorf("%w: %q", ErrNonLocalCapture, name)
		}
	}
	w.free[name] = w.typeOf(n)
	return nil
}

// walkNested analyzes a Func literal found inside the literal currently
// being walked: the outer literal's bound names become the nested
// literal's enclosing set. A name the nested literal uses that is bound
// in the outer literal is not a capture of the outer one; any other name
// it uses is rejected with ErrNonLocalCapture.
func (w *walker) walkNested(fn *ast.Func, outerBound map[string]struct{}) error {
	nestedBound := cloneSet(outerBound)
	for _, p := range fn.Params {
		nestedBound[p.Name] = struct{}{}
	}
	return w.walk(fn.Body, nestedBound, outerBound)
}

func cloneSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
