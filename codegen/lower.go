package codegen

import (
	"fmt"

	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/ir"
	"github.com/susji/mvsc/types"
)

// lower dispatches on e's concrete shape, implementing spec.md §4.4's
// lowering table. Every case returns a result following the rvalue
// contract: a scalar register, or the address of fresh owned storage.
func (fe *fnEmitter) lower(e ast.Expr) (result, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		return result{Reg: ir.IntImm{Value: n.Value}}, nil
	case *ast.FloatLit:
		return result{Reg: ir.FloatImm{Value: n.Value}}, nil
	case *ast.ArrayLit:
		return fe.lowerArrayLit(n)
	case *ast.StructLit:
		return fe.lowerStructLit(n)
	case *ast.Func:
		return fe.lowerFuncLit(n)
	case *ast.Call:
		return fe.lowerCall(n)
	case *ast.Infix:
		return fe.lowerInfix(n)
	case *ast.Oper:
		return fe.lowerOperRef(n)
	case *ast.InoutExpr:
		return fe.lowerInout(n)
	case *ast.Binding:
		return fe.lowerBinding(n)
	case *ast.FuncBinding:
		return fe.lowerFuncBinding(n)
	case *ast.Assign:
		return fe.lowerAssign(n)
	case *ast.Cond:
		return fe.lowerCond(n)
	case *ast.Cast:
		return fe.lowerCast(n)
	case *ast.NamePath, *ast.PropPath, *ast.ElemPath:
		p, _ := ast.AsPath(e)
		return fe.lowerPathRvalue(p)
	default:
		return result{}, fmt.Errorf("codegen: unhandled expr %T", e)
	}
}

func (fe *fnEmitter) lowerPathRvalue(p ast.Path) (result, error) {
	lv, err := fe.lowerPath(p)
	if err != nil {
		return result{}, err
	}
	if isScalar(lv.Type) {
		reg := fe.newReg(scalarKind(lv.Type))
		fe.emit(ir.Load{To: reg, From: lv.Addr.(*ir.Variable), Kind: scalarKind(lv.Type)})
		return result{Reg: reg}, nil
	}
	// Address-only: init a fresh slot and copy, per the lowering
	// table's "Address → load or init+copy into fresh slot" rule.
	dest := fe.newReg(ir.KindAddr)
	if lv.Type.Kind == types.KindStruct {
		meta := fe.cg.Metas.Of(lv.Type)
		fe.emit(ir.Alloca{To: dest, Size: meta.Size})
	}
	fe.storeInto(dest, result{Addr: lv.Addr.(*ir.Variable), Owned: false}, lv.Type)
	return result{Addr: dest, Owned: true}, nil
}

func (fe *fnEmitter) lowerArrayLit(n *ast.ArrayLit) (result, error) {
	t := fe.cg.TypeOf(n)
	elemMeta := fe.cg.Metas.Of(t.Elem)
	addr := fe.newReg(ir.KindAddr)
	fe.emit(ir.ArrayInit{Addr: addr, ElemMeta: elemMeta.Global(), N: ir.IntImm{Value: int64(len(n.Elems))}, Stride: elemMeta.Size})
	for i, el := range n.Elems {
		r, err := fe.lower(el)
		if err != nil {
			return result{}, err
		}
		elemAddr := fe.newReg(ir.KindAddr)
		fe.emit(ir.ElemAddr{To: elemAddr, Base: addr, Index: ir.IntImm{Value: int64(i)}, Stride: elemMeta.Size})
		fe.storeInto(elemAddr, r, t.Elem)
	}
	return result{Addr: addr, Owned: true}, nil
}

func (fe *fnEmitter) lowerStructLit(n *ast.StructLit) (result, error) {
	t := fe.cg.TypeOf(n)
	meta := fe.cg.Metas.Of(t)
	addr := fe.newReg(ir.KindAddr)
	fe.emit(ir.Alloca{To: addr, Size: meta.Size})
	offset := 0
	for i, a := range n.Args {
		propType := t.Struct.Props[i].Type
		r, err := fe.lower(a)
		if err != nil {
			return result{}, err
		}
		fieldAddr := fe.newReg(ir.KindAddr)
		fe.emit(ir.FieldAddr{To: fieldAddr, Base: addr, Offset: offset})
		fe.storeInto(fieldAddr, r, propType)
		offset += align8(fe.cg.Metas.Of(propType).Size)
	}
	return result{Addr: addr, Owned: true}, nil
}

func (fe *fnEmitter) lowerInfix(n *ast.Infix) (result, error) {
	l, err := fe.lower(n.Left)
	if err != nil {
		return result{}, err
	}
	r, err := fe.lower(n.Right)
	if err != nil {
		return result{}, err
	}
	lt := fe.cg.TypeOf(n.Left)
	if n.Op.IsArith() {
		k := scalarKind(lt)
		to := fe.newReg(k)
		fe.emit(ir.Arith{To: to, Op: arithOpOf(n.Op), Kind: k, Left: l.Reg, Right: r.Reg})
		return result{Reg: to}, nil
	}
	if n.Op.IsOrdered() {
		// Ordered comparisons are numeric-only, per the checker, so
		// scalarKind's Int/Float split is exact here.
		k := scalarKind(lt)
		to := fe.newReg(ir.KindInt)
		fe.emit(ir.Cmp{To: to, Op: cmpOpOf(n.Op), Kind: k, Left: l.Reg, Right: r.Reg})
		return result{Reg: to}, nil
	}
	// Equality/inequality is permitted on any type (spec.md §4.1), so
	// it dispatches on lt's own kind rather than folding through
	// scalarKind's always-Int fallback: array_equal, closure equality,
	// or a struct's own $equal function.
	eq := fe.emitValueEqual(l, r, lt)
	if n.Op == ast.OpNe {
		to := fe.newReg(ir.KindInt)
		fe.emit(ir.Cmp{To: to, Op: ir.CmpEq, Kind: ir.KindInt, Left: eq, Right: ir.IntImm{Value: 0}})
		return result{Reg: to}, nil
	}
	return result{Reg: eq}, nil
}

// emitValueEqual compares two already-lowered results of type t for
// equality: a direct scalar Cmp when t is trivialized to a register,
// otherwise the same per-kind address dispatch emitFieldEqual uses for
// a struct's own field comparisons.
func (fe *fnEmitter) emitValueEqual(l, r result, t *types.Type) ir.Value {
	if isScalar(t) {
		to := fe.newReg(ir.KindInt)
		fe.emit(ir.Cmp{To: to, Op: ir.CmpEq, Kind: scalarKind(t), Left: l.Reg, Right: r.Reg})
		return to
	}
	return fe.emitFieldEqual(l.Addr.(*ir.Variable), r.Addr.(*ir.Variable), t)
}

func arithOpOf(k ast.OperKind) ir.ArithOp {
	switch k {
	case ast.OpAdd:
		return ir.OpAdd
	case ast.OpSub:
		return ir.OpSub
	case ast.OpMul:
		return ir.OpMul
	case ast.OpDiv:
		return ir.OpDiv
	default:
		panic("codegen: not an arithmetic operator")
	}
}

func cmpOpOf(k ast.OperKind) ir.CmpOp {
	switch k {
	case ast.OpEq:
		return ir.CmpEq
	case ast.OpNe:
		return ir.CmpNe
	case ast.OpLt:
		return ir.CmpLt
	case ast.OpLe:
		return ir.CmpLe
	case ast.OpGe:
		return ir.CmpGe
	case ast.OpGt:
		return ir.CmpGt
	default:
		panic("codegen: not a comparison operator")
	}
}

// lowerOperRef lowers a bare operator reference (`+` used as a value)
// to the memoized closure wrapping it -- a lifted function with no
// captures, per the lowering table's "Oper(kind)" rule.
func (fe *fnEmitter) lowerOperRef(n *ast.Oper) (result, error) {
	sig := fe.cg.TypeOf(n)
	t := sig.Func.Params[0]
	kind := ir.KindInt
	if isScalar(t) {
		kind = scalarKind(t)
	}
	name := fe.cg.operFuncName(n.Op, kind)
	addr := fe.newReg(ir.KindAddr)
	fe.emit(ir.MakeClosure{To: addr, Code: ir.Global{Name: name}, Captures: nil})
	return result{Addr: addr, Owned: true}, nil
}

func (fe *fnEmitter) lowerInout(n *ast.InoutExpr) (result, error) {
	lv, err := fe.lowerPath(n.Target)
	if err != nil {
		return result{}, err
	}
	addr := lv.Addr.(*ir.Variable)
	fe.uniquify(addr, lv.Type)
	return result{Addr: addr, Owned: false}, nil
}

func (fe *fnEmitter) lowerBinding(n *ast.Binding) (result, error) {
	init, err := fe.lower(n.Init)
	if err != nil {
		return result{}, err
	}
	t := fe.cg.TypeOf(n.Init)
	name := n.Decl.Name

	// Alias optimization: a Let binding initialized by a Let lvalue
	// path of address-only type may alias rather than copy (spec.md
	// §4.4's alias-avoidance rule).
	if n.Decl.Mutability == ast.Let && !isScalar(t) && init.Addr != nil && !init.Owned {
		fe.bind(name, init.Addr.(*ir.Variable), t)
	} else if isScalar(t) {
		slot := fe.newReg(ir.KindAddr)
		fe.emit(ir.Alloca{To: slot, Size: 8})
		fe.emit(ir.Store{To: slot, From: init.Reg, Kind: scalarKind(t)})
		fe.bind(name, slot, t)
	} else {
		var slot *ir.Variable
		if init.Owned {
			slot = init.Addr.(*ir.Variable)
		} else {
			slot = fe.newReg(ir.KindAddr)
			if t.Kind == types.KindStruct {
				meta := fe.cg.Metas.Of(t)
				fe.emit(ir.Alloca{To: slot, Size: meta.Size})
			}
			fe.storeInto(slot, init, t)
		}
		fe.bind(name, slot, t)
	}

	// Special case: if body is exactly the bound name, return the
	// initializer directly rather than reloading it, per the lowering
	// table's special case.
	if np, ok := n.Body.(*ast.NamePath); ok && np.Name == name {
		return fe.consumeBinding(name, t)
	}

	body, err := fe.lower(n.Body)
	if err != nil {
		return result{}, err
	}
	if !fe.escapesToHeap(name, n.Body) {
		if addr, ok := fe.addrs[name]; ok && !isScalar(t) {
			fe.dropValue(addr, t)
		}
	}
	delete(fe.addrs, name)
	delete(fe.kinds, name)
	return body, nil
}

func (fe *fnEmitter) bind(name string, addr *ir.Variable, t *types.Type) {
	fe.addrs[name] = addr
	fe.kinds[name] = t
}

func (fe *fnEmitter) consumeBinding(name string, t *types.Type) (result, error) {
	addr := fe.addrs[name]
	delete(fe.addrs, name)
	delete(fe.kinds, name)
	if isScalar(t) {
		reg := fe.newReg(scalarKind(t))
		fe.emit(ir.Load{To: reg, From: addr, Kind: scalarKind(t)})
		return result{Reg: reg}, nil
	}
	return result{Addr: addr, Owned: true}, nil
}

func (fe *fnEmitter) lowerAssign(n *ast.Assign) (result, error) {
	if _, discard := n.LValue.(*ast.Wildcard); discard {
		rv, err := fe.lower(n.RValue)
		if err != nil {
			return result{}, err
		}
		t := fe.cg.TypeOf(n.RValue)
		if rv.Addr != nil && rv.Owned {
			fe.dropValue(rv.Addr.(*ir.Variable), t)
		}
		return fe.lower(n.Body)
	}
	path, _ := ast.AsPath(n.LValue)
	lv, err := fe.lowerPath(path)
	if err != nil {
		return result{}, err
	}
	addr := lv.Addr.(*ir.Variable)
	fe.uniquify(addr, lv.Type)
	rv, err := fe.lower(n.RValue)
	if err != nil {
		return result{}, err
	}
	if !isScalar(lv.Type) {
		fe.dropValue(addr, lv.Type)
	}
	fe.storeInto(addr, rv, lv.Type)
	return fe.lower(n.Body)
}

func (fe *fnEmitter) lowerCond(n *ast.Cond) (result, error) {
	cond, err := fe.lower(n.Cond)
	if err != nil {
		return result{}, err
	}
	t := fe.cg.TypeOf(n)
	succBlk := fe.g.NewBlock(fmt.Sprintf("if.then.%d", fe.reggen))
	failBlk := fe.g.NewBlock(fmt.Sprintf("if.else.%d", fe.reggen))
	joinBlk := fe.g.NewBlock(fmt.Sprintf("if.end.%d", fe.reggen))
	fe.g.Branch(fe.cur, cond.Reg, succBlk, failBlk)

	var resultKind ir.Kind
	var resultSlot *ir.Variable
	if isScalar(t) {
		resultKind = scalarKind(t)
	} else {
		resultKind = ir.KindAddr
	}
	resultSlot = fe.newReg(resultKind)

	fe.cur = succBlk
	sr, err := fe.lower(n.Succ)
	if err != nil {
		return result{}, err
	}
	fe.storeBranchResult(resultSlot, sr, t)
	fe.g.Jump(fe.cur, joinBlk)

	fe.cur = failBlk
	fr, err := fe.lower(n.Fail)
	if err != nil {
		return result{}, err
	}
	fe.storeBranchResult(resultSlot, fr, t)
	fe.g.Jump(fe.cur, joinBlk)

	fe.cur = joinBlk
	if isScalar(t) {
		return result{Reg: resultSlot}, nil
	}
	return result{Addr: resultSlot, Owned: true}, nil
}

func (fe *fnEmitter) storeBranchResult(slot *ir.Variable, r result, t *types.Type) {
	if isScalar(t) {
		fe.emit(ir.Mov{To: slot, What: r.Reg})
		return
	}
	if r.Owned {
		fe.emit(ir.Mov{To: slot, What: r.Addr})
		return
	}
	fe.storeInto(slot, r, t)
}

func (fe *fnEmitter) lowerCast(n *ast.Cast) (result, error) {
	from := fe.cg.TypeOf(n.Value)
	to := fe.cg.TypeOf(n)
	v, err := fe.lower(n.Value)
	if err != nil {
		return result{}, err
	}
	switch {
	case to.Kind == types.KindAny && from.Kind != types.KindAny:
		dest := fe.newReg(ir.KindAddr)
		meta := fe.cg.Metas.Of(from)
		fe.emit(ir.AnyWrap{To: dest, From: v.Addr, Witness: meta.Global()})
		return result{Addr: dest, Owned: true}, nil
	case from.Kind == types.KindAny && to.Kind != types.KindAny:
		dest := fe.newReg(ir.KindAddr)
		meta := fe.cg.Metas.Of(to)
		fe.emit(ir.AnyUnwrap{To: dest, From: v.Addr, Witness: meta.Global()})
		return result{Addr: dest, Owned: true}, nil
	default:
		// Same type: a no-op cast, which the checker only permits when
		// the types already match.
		return v, nil
	}
}
