package check

import (
	"fmt"

	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/types"
)

// expr checks e against an explicit expected type -- a parameter rather
// than a mutable slot the way the lowering notes in spec.md §9 ask for --
// and records its resolved type in the side table before returning it.
func (c *Checker) expr(e ast.Expr, scope *scope, expected *types.Type) (*types.Type, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		return c.setType(n, types.Int), nil
	case *ast.FloatLit:
		return c.setType(n, types.Float), nil
	case *ast.ArrayLit:
		return c.arrayLit(n, scope, expected)
	case *ast.StructLit:
		return c.structLit(n, scope)
	case *ast.Func:
		return c.funcLiteral(n, scope)
	case *ast.Call:
		return c.call(n, scope)
	case *ast.Infix:
		return c.infix(n, scope)
	case *ast.Oper:
		return c.operRef(n, expected)
	case *ast.InoutExpr:
		return c.inoutExpr(n, scope)
	case *ast.Binding:
		return c.binding(n, scope, expected)
	case *ast.FuncBinding:
		return c.funcBinding(n, scope, expected)
	case *ast.Assign:
		return c.assign(n, scope, expected)
	case *ast.Cond:
		return c.cond(n, scope, expected)
	case *ast.Cast:
		return c.cast(n, scope)
	case *ast.ErrorExpr:
		return c.setType(n, types.Error), nil
	case *ast.NamePath, *ast.PropPath, *ast.ElemPath:
		path, _ := ast.AsPath(e)
		_, t, err := c.path(path, scope)
		if err != nil {
			return c.setType(n, types.Error), err
		}
		return t, nil
	case *ast.Wildcard:
		err := c.errorf(n.ID(), ErrWildcardElsewhere, "")
		return c.setType(n, types.Error), err
	default:
		panic(fmt.Sprintf("check: unhandled expr %T", e))
	}
}

func (c *Checker) fail(n ast.Node, t *types.Type, err error) (*types.Type, error) {
	if t == nil {
		t = types.Error
	}
	c.nodeTypes[n.ID()] = types.Error
	return t, err
}

func (c *Checker) arrayLit(n *ast.ArrayLit, scope *scope, expected *types.Type) (*types.Type, error) {
	var elemExpected *types.Type
	if expected != nil && expected.Kind == types.KindArray {
		elemExpected = expected.Elem
	}
	if len(n.Elems) == 0 {
		if elemExpected == nil {
			return c.fail(n, nil, c.errorf(n.ID(), ErrAmbiguousElementType, ""))
		}
		return c.setType(n, types.NewArray(elemExpected)), nil
	}
	var elemT *types.Type
	for i, el := range n.Elems {
		t, err := c.expr(el, scope, elemExpected)
		if err != nil {
			continue
		}
		if i == 0 {
			elemT = t
		} else if elemExpected == nil && !elemT.Matches(t) {
			c.errorf(el.ID(), ErrElementTypeMismatch, "%s vs %s", elemT, t)
		}
	}
	if elemExpected != nil {
		elemT = elemExpected
	}
	if elemT == nil {
		elemT = types.Error
	}
	return c.setType(n, types.NewArray(elemT)), nil
}

func (c *Checker) structLit(n *ast.StructLit, scope *scope) (*types.Type, error) {
	st, ok := c.delta[n.Name]
	if !ok {
		return c.fail(n, nil, c.errorf(n.ID(), ErrUnknownStruct, "%s", n.Name))
	}
	props := st.Struct.Props
	if len(n.Args) != len(props) {
		c.errorf(n.ID(), ErrStructArgCount, "%s wants %d, got %d", n.Name, len(props), len(n.Args))
	}
	for i, a := range n.Args {
		if i >= len(props) {
			break
		}
		c.expr(a, scope, props[i].Type)
	}
	return c.setType(n, st), nil
}

func (c *Checker) funcLiteral(n *ast.Func, scope *scope) (*types.Type, error) {
	paramTypes, err := c.checkParamDecls(n.Params)
	if err != nil {
		return c.fail(n, nil, err)
	}
	outputT, err := c.resolveSign(n.Output)
	if err != nil {
		return c.fail(n, nil, c.errorf(n.ID(), err, ""))
	}
	fs := newFuncScope(scope)
	for i, p := range n.Params {
		mut := ast.Let
		if _, ok := p.Sig.(*ast.InoutSign); ok {
			mut = ast.Var
		}
		fs.add(p.Name, mut, paramTypes[i])
	}
	c.expr(n.Body, fs, outputT)
	ft := types.NewFunc(paramTypes, outputT)
	c.funcLiteralType[n.ID()] = ft.Func
	return c.setType(n, ft), nil
}

func (c *Checker) checkParamDecls(params []*ast.ParamDecl) ([]*types.Type, error) {
	seen := map[string]struct{}{}
	out := make([]*types.Type, len(params))
	for i, p := range params {
		if _, ok := seen[p.Name]; ok {
			return nil, c.errorf(p.ID(), ErrDuplicateParam, "%s", p.Name)
		}
		seen[p.Name] = struct{}{}
		t, err := c.resolveSign(p.Sig)
		if err != nil {
			return nil, c.errorf(p.ID(), err, "%s", p.Name)
		}
		out[i] = t
	}
	return out, nil
}

func (c *Checker) call(n *ast.Call, scope *scope) (*types.Type, error) {
	calleeT, err := c.expr(n.Callee, scope, nil)
	if err != nil {
		return c.fail(n, nil, err)
	}
	if calleeT.Kind != types.KindFunc {
		return c.fail(n, nil, c.errorf(n.ID(), ErrNotCallable, "%s", calleeT))
	}
	params := calleeT.Func.Params
	if len(n.Args) != len(params) {
		c.errorf(n.ID(), ErrArgCount, "wanted %d, got %d", len(params), len(n.Args))
	}
	var inoutPaths []ast.Path
	for i, a := range n.Args {
		if i >= len(params) {
			break
		}
		paramT := params[i]
		if paramT.Kind == types.KindInout {
			ie, ok := a.(*ast.InoutExpr)
			if !ok {
				c.errorf(a.ID(), ErrExpectedInoutArg, "")
				continue
			}
			if _, err := c.expr(a, scope, paramT); err == nil {
				inoutPaths = append(inoutPaths, ie.Target)
			}
			continue
		}
		c.expr(a, scope, paramT)
	}
	for i := 0; i < len(inoutPaths); i++ {
		for j := i + 1; j < len(inoutPaths); j++ {
			if mayOverlap(inoutPaths[i], inoutPaths[j]) {
				c.errorf(n.ID(), ErrOverlappingInout, "")
			}
		}
	}
	return c.setType(n, calleeT.Func.Output), nil
}

func (c *Checker) infix(n *ast.Infix, scope *scope) (*types.Type, error) {
	switch {
	case n.Op.IsEquality():
		lt, _ := c.expr(n.Left, scope, nil)
		rt, _ := c.expr(n.Right, scope, lt)
		if !lt.Matches(rt) {
			c.errorf(n.ID(), ErrOperandTypeMismatch, "%s vs %s", lt, rt)
		}
		return c.setType(n, types.Int), nil
	case n.Op.IsOrdered():
		lt, _ := c.expr(n.Left, scope, nil)
		rt, _ := c.expr(n.Right, scope, lt)
		if !isNumeric(lt) || !isNumeric(rt) {
			c.errorf(n.ID(), ErrNonNumericOperand, "%s, %s", lt, rt)
		} else if !lt.Matches(rt) {
			c.errorf(n.ID(), ErrOperandTypeMismatch, "%s vs %s", lt, rt)
		}
		return c.setType(n, types.Int), nil
	default: // arithmetic
		lt, _ := c.expr(n.Left, scope, nil)
		rt, _ := c.expr(n.Right, scope, lt)
		if !isNumeric(lt) || !isNumeric(rt) {
			c.errorf(n.ID(), ErrNonNumericOperand, "%s, %s", lt, rt)
			return c.setType(n, types.Error), nil
		}
		if !lt.Matches(rt) {
			c.errorf(n.ID(), ErrOperandTypeMismatch, "%s vs %s", lt, rt)
		}
		return c.setType(n, lt), nil
	}
}

func isNumeric(t *types.Type) bool { return t.Kind == types.KindInt || t.Kind == types.KindFloat }

// operRef checks a first-class operator reference (`+` etc. used as a
// value): the expected type must be a binary `(T, T) -> U` shape one of
// the operator's overloads satisfies (spec.md §4.1).
func (c *Checker) operRef(n *ast.Oper, expected *types.Type) (*types.Type, error) {
	if expected == nil || expected.Kind != types.KindFunc || len(expected.Func.Params) != 2 {
		return c.fail(n, nil, c.errorf(n.ID(), ErrAmbiguousOperatorRef, ""))
	}
	t := expected.Func.Params[0]
	if !t.Matches(expected.Func.Params[1]) {
		return c.fail(n, nil, c.errorf(n.ID(), ErrAmbiguousOperatorRef, "parameter types differ"))
	}
	out := expected.Func.Output
	ok := false
	switch {
	case n.Op.IsEquality():
		ok = out.Matches(types.Int)
	case n.Op.IsOrdered():
		ok = isNumeric(t) && out.Matches(types.Int)
	case n.Op.IsArith():
		ok = isNumeric(t) && out.Matches(t)
	}
	if !ok {
		return c.fail(n, nil, c.errorf(n.ID(), ErrAmbiguousOperatorRef, "%s does not admit %s", n.Op, expected))
	}
	return c.setType(n, expected), nil
}

func (c *Checker) inoutExpr(n *ast.InoutExpr, scope *scope) (*types.Type, error) {
	mut, t, err := c.path(n.Target, scope)
	if err != nil {
		return c.fail(n, nil, err)
	}
	if mut != ast.Var {
		return c.fail(n, nil, c.errorf(n.ID(), ErrInoutOnLet, "%s", n.Target))
	}
	return c.setType(n, types.NewInout(t)), nil
}

func (c *Checker) binding(n *ast.Binding, scope *scope, expected *types.Type) (*types.Type, error) {
	var declaredT *types.Type
	if n.Decl.Sig != nil {
		t, err := c.resolveSign(n.Decl.Sig)
		if err != nil {
			c.errorf(n.Decl.ID(), err, "")
		} else {
			declaredT = t
		}
	}
	initT, _ := c.expr(n.Init, scope, declaredT)
	effectiveT := declaredT
	if effectiveT == nil {
		effectiveT = initT
	}
	c.setType(n.Decl, effectiveT)
	inner := newScope(scope)
	inner.add(n.Decl.Name, n.Decl.Mutability, effectiveT)
	bodyT, err := c.expr(n.Body, inner, expected)
	return c.setType(n, bodyT), err
}

func (c *Checker) funcBinding(n *ast.FuncBinding, scope *scope, expected *types.Type) (*types.Type, error) {
	paramTypes, err := c.checkParamDecls(n.Literal.Params)
	if err != nil {
		return c.fail(n, nil, err)
	}
	outputT, err := c.resolveSign(n.Literal.Output)
	if err != nil {
		return c.fail(n, nil, c.errorf(n.ID(), err, ""))
	}
	fnType := types.NewFunc(paramTypes, outputT)
	rec := newScope(scope)
	rec.add(n.Name, ast.Let, fnType)

	fs := newFuncScope(rec)
	for i, p := range n.Literal.Params {
		mut := ast.Let
		if _, ok := p.Sig.(*ast.InoutSign); ok {
			mut = ast.Var
		}
		fs.add(p.Name, mut, paramTypes[i])
	}
	c.expr(n.Literal.Body, fs, outputT)
	c.setType(n.Literal, fnType)
	c.funcLiteralType[n.Literal.ID()] = fnType.Func

	bodyT, err := c.expr(n.Body, rec, expected)
	return c.setType(n, bodyT), err
}

func (c *Checker) assign(n *ast.Assign, scope *scope, expected *types.Type) (*types.Type, error) {
	if w, ok := n.LValue.(*ast.Wildcard); ok {
		c.setType(w, types.Error)
		c.expr(n.RValue, scope, nil)
	} else {
		path, ok := ast.AsPath(n.LValue)
		if !ok {
			c.errorf(n.ID(), ErrNotAPath, "%s", n.LValue)
		} else {
			mut, t, err := c.path(path, scope)
			if err == nil {
				if mut != ast.Var {
					c.errorf(n.ID(), ErrAssignToLet, "%s", n.LValue)
				}
				c.expr(n.RValue, scope, t)
			}
		}
	}
	bodyT, err := c.expr(n.Body, scope, expected)
	return c.setType(n, bodyT), err
}

func (c *Checker) cond(n *ast.Cond, scope *scope, expected *types.Type) (*types.Type, error) {
	condT, _ := c.expr(n.Cond, scope, types.Int)
	if !condT.Matches(types.Int) {
		c.errorf(n.Cond.ID(), ErrCondNotInt, "%s", condT)
	}
	succT, _ := c.expr(n.Succ, scope, expected)
	eff := expected
	if eff == nil {
		eff = succT
	}
	c.expr(n.Fail, scope, eff)
	return c.setType(n, eff), nil
}

func (c *Checker) cast(n *ast.Cast, scope *scope) (*types.Type, error) {
	targetT, err := c.resolveSign(n.Sig)
	if err != nil {
		return c.fail(n, nil, c.errorf(n.ID(), err, ""))
	}
	valueT, _ := c.expr(n.Value, scope, nil)
	if valueT.Kind != types.KindAny && targetT.Kind != types.KindAny && !valueT.Matches(targetT) {
		c.errorf(n.ID(), ErrInvalidCast, "%s as %s", valueT, targetT)
	}
	return c.setType(n, targetT), nil
}
