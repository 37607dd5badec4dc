package check

import (
	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/types"
)

// path resolves a Path to its (mutability, type) pair, per spec.md
// §4.1's "Path lookup" rule, recording both in the side tables.
func (c *Checker) path(p ast.Path, scope *scope) (ast.Mutability, *types.Type, error) {
	switch n := p.(type) {
	case *ast.NamePath:
		mut, t, ok := scope.get(n.Name)
		if !ok {
			return 0, nil, c.errorf(n.ID(), ErrUndefinedName, "%s", n.Name)
		}
		c.setType(n, t)
		c.setMutability(n, mut)
		return mut, t, nil
	case *ast.PropPath:
		baseMut, baseT, err := c.path(n.Base, scope)
		if err != nil {
			return 0, nil, err
		}
		if baseT.Kind != types.KindStruct {
			return 0, nil, c.errorf(n.ID(), ErrNotAStruct, "%s", baseT)
		}
		prop := baseT.Struct.Find(n.Name)
		if prop == nil {
			return 0, nil, c.errorf(n.ID(), ErrUnknownField, "%s.%s", baseT.Struct.Name, n.Name)
		}
		mut := types.Min(baseMut, prop.Mutability)
		c.setType(n, prop.Type)
		c.setMutability(n, mut)
		return mut, prop.Type, nil
	case *ast.ElemPath:
		baseMut, baseT, err := c.path(n.Base, scope)
		if err != nil {
			return 0, nil, err
		}
		if baseT.Kind != types.KindArray {
			return 0, nil, c.errorf(n.ID(), ErrNotAnArray, "%s", baseT)
		}
		if _, err := c.expr(n.Index, scope, types.Int); err != nil {
			return 0, nil, err
		}
		c.setType(n, baseT.Elem)
		c.setMutability(n, baseMut)
		return baseMut, baseT.Elem, nil
	default:
		panic("check: unhandled path type")
	}
}

// mayOverlap implements spec.md §4.1.1's conservative overlap predicate
// for exclusive-access checking of `inout` arguments.
func mayOverlap(p, q ast.Path) bool {
	pn, pIsName := p.(*ast.NamePath)
	qn, qIsName := q.(*ast.NamePath)
	if pIsName && qIsName {
		return pn.Name == qn.Name
	}
	if pIsName {
		return mayOverlap(p, baseOf(q))
	}
	if qIsName {
		return mayOverlap(baseOf(p), q)
	}
	switch pp := p.(type) {
	case *ast.PropPath:
		if qp, ok := q.(*ast.PropPath); ok {
			if pp.Name != qp.Name {
				return false
			}
			return mayOverlap(pp.Base, qp.Base)
		}
		return mayOverlap(pp.Base, baseOf(q))
	case *ast.ElemPath:
		if qp, ok := q.(*ast.ElemPath); ok {
			if literalIndicesDiffer(pp.Index, qp.Index) {
				return false
			}
			return mayOverlap(pp.Base, qp.Base)
		}
		return mayOverlap(pp.Base, baseOf(q))
	default:
		return false
	}
}

func baseOf(p ast.Path) ast.Path {
	switch t := p.(type) {
	case *ast.PropPath:
		return t.Base
	case *ast.ElemPath:
		return t.Base
	default:
		return p
	}
}

func literalIndicesDiffer(a, b ast.Expr) bool {
	ai, aok := a.(*ast.IntLit)
	bi, bok := b.(*ast.IntLit)
	if aok && bok {
		return ai.Value != bi.Value
	}
	return false
}
