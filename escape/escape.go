// Package escape implements the array escape analysis of spec.md §4.3.
// There is no direct teacher analog for the tree walk itself; the
// memoization idea -- tracking what has already been visited to avoid
// redundant work -- follows _examples/susji-c0/cfg/memory.go's
// seen-set pattern, generalized from basic blocks to AST nodes.
//
// This package applies no maxStackArraySize byte budget (the literal's
// static size in bytes depends on the element metatype). Its caller in
// codegen does not apply one either: it asks about every Binding, and
// CG.MaxStackArraySize changes no allocation site.
package escape

import (
	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/capture"
)

// Escapes reports whether name -- bound by a Binding whose initializer
// is a small static array literal -- escapes the given body, per the
// three conditions of spec.md §4.3.
func Escapes(name string, body ast.Expr, typeOf capture.TypeOf) (bool, error) {
	if viaCapture, err := escapesViaCapture(name, body, typeOf); err != nil {
		return false, err
	} else if viaCapture {
		return true, nil
	}
	if escapesViaCallArg(name, body) {
		return true, nil
	}
	if escapesViaTail(name, body) {
		return true, nil
	}
	return false, nil
}

// escapesViaCapture reports whether name is captured by any function
// literal reachable in body.
func escapesViaCapture(name string, body ast.Expr, typeOf capture.TypeOf) (bool, error) {
	var escapes bool
	var err error
	visitFuncs(body, func(fn *ast.Func) {
		if err != nil || escapes {
			return
		}
		res, e := capture.Analyze(fn, typeOf)
		if e != nil {
			err = e
			return
		}
		for _, c := range res.Captures {
			if c.Name == name {
				escapes = true
				return
			}
		}
	})
	return escapes, err
}

// escapesViaCallArg reports whether name is passed by value (i.e. not
// through `&path`) as a Call argument anywhere in body.
func escapesViaCallArg(name string, body ast.Expr) bool {
	escapes := false
	visitCalls(body, func(call *ast.Call) {
		if escapes {
			return
		}
		for _, a := range call.Args {
			if _, isInout := a.(*ast.InoutExpr); isInout {
				continue
			}
			if occursFree(name, a) {
				escapes = true
				return
			}
		}
	})
	return escapes
}

// escapesViaTail reports whether name occurs free in one of body's tail
// positions -- the expression(s) whose value becomes the result of the
// enclosing scope, and so would outlive the binding.
func escapesViaTail(name string, body ast.Expr) bool {
	for _, t := range tailExprs(body) {
		if occursFree(name, t) {
			return true
		}
	}
	return false
}

func tailExprs(e ast.Expr) []ast.Expr {
	switch n := e.(type) {
	case *ast.Binding:
		return tailExprs(n.Body)
	case *ast.FuncBinding:
		return tailExprs(n.Body)
	case *ast.Assign:
		return tailExprs(n.Body)
	case *ast.Cond:
		return append(tailExprs(n.Succ), tailExprs(n.Fail)...)
	default:
		return []ast.Expr{e}
	}
}

// occursFree reports whether name is referenced anywhere within e. This
// is deliberately coarser than capture.Analyze's bound-name tracking:
// shadowing a name with a local Binding inside e does not suppress the
// occurrence, since the conservative answer (it might escape) is always
// safe here -- it only costs an unnecessary heap allocation.
func occursFree(name string, e ast.Expr) bool {
	found := false
	visitAll(e, func(n ast.Expr) {
		if found {
			return
		}
		if np, ok := n.(*ast.NamePath); ok && np.Name == name {
			found = true
		}
	})
	return found
}

func visitFuncs(e ast.Expr, fn func(*ast.Func)) {
	visitAll(e, func(n ast.Expr) {
		if f, ok := n.(*ast.Func); ok {
			fn(f)
		}
	})
}

func visitCalls(e ast.Expr, fn func(*ast.Call)) {
	visitAll(e, func(n ast.Expr) {
		if c, ok := n.(*ast.Call); ok {
			fn(c)
		}
	})
}

// visitAll calls fn for every expression node reachable from e,
// including e itself, descending into nested function literal bodies.
func visitAll(e ast.Expr, fn func(ast.Expr)) {
	seen := map[ast.NodeID]struct{}{}
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		if e == nil {
			return
		}
		if _, ok := seen[e.ID()]; ok {
			return
		}
		seen[e.ID()] = struct{}{}
		fn(e)
		switch n := e.(type) {
		case *ast.ArrayLit:
			for _, el := range n.Elems {
				walk(el)
			}
		case *ast.StructLit:
			for _, a := range n.Args {
				walk(a)
			}
		case *ast.Func:
			walk(n.Body)
		case *ast.Call:
			walk(n.Callee)
			for _, a := range n.Args {
				walk(a)
			}
		case *ast.Infix:
			walk(n.Left)
			walk(n.Right)
		case *ast.InoutExpr:
			walk(n.Target)
		case *ast.Binding:
			walk(n.Init)
			walk(n.Body)
		case *ast.FuncBinding:
			walk(n.Literal)
			walk(n.Body)
		case *ast.Assign:
			if p, ok := n.LValue.(ast.Path); ok {
				walk(p)
			}
			walk(n.RValue)
			walk(n.Body)
		case *ast.Cond:
			walk(n.Cond)
			walk(n.Succ)
			walk(n.Fail)
		case *ast.Cast:
			walk(n.Value)
		case *ast.PropPath:
			walk(n.Base)
		case *ast.ElemPath:
			walk(n.Base)
			walk(n.Index)
		}
	}
	walk(e)
}
