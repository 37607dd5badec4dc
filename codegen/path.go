package codegen

import (
	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/ir"
	"github.com/susji/mvsc/types"
)

// lvalue is the address of already-owned storage a path denotes, plus
// an optional origin register that must be dropped once the lvalue has
// been consumed -- non-nil exactly when the path is rooted in a
// temporary rvalue rather than a bound name (spec.md §4.4's lvalue
// contract). mvs-calculus restricts path roots to NamePath, so origin
// is always nil in this implementation; the field is kept so a future
// extension of path roots (e.g. `(expr).field`) has somewhere to put
// it without changing every caller's signature.
type lvalue struct {
	Addr     ir.Value
	Mutable  bool
	Type     *types.Type
	origin   *ir.Variable
}

// lowerPath resolves p to its address and the type checking already
// assigned it.
func (fe *fnEmitter) lowerPath(p ast.Path) (lvalue, error) {
	switch n := p.(type) {
	case *ast.NamePath:
		addr, ok := fe.addrs[n.Name]
		if !ok {
			panic("codegen: unbound name reached lowering: " + n.Name)
		}
		return lvalue{Addr: addr, Mutable: fe.cg.MutOf(n) == ast.Var, Type: fe.kinds[n.Name]}, nil
	case *ast.PropPath:
		base, err := fe.lowerPath(n.Base)
		if err != nil {
			return lvalue{}, err
		}
		baseAddr := base.Addr.(*ir.Variable)
		prop := base.Type.Struct.Find(n.Name)
		fieldAddr := fe.newReg(ir.KindAddr)
		fe.emit(ir.FieldAddr{To: fieldAddr, Base: baseAddr, Offset: fe.fieldOffset(base.Type, n.Name)})
		return lvalue{Addr: fieldAddr, Mutable: base.Mutable && prop.Mutability == ast.Var, Type: prop.Type}, nil
	case *ast.ElemPath:
		base, err := fe.lowerPath(n.Base)
		if err != nil {
			return lvalue{}, err
		}
		idx, err := fe.lower(n.Index)
		if err != nil {
			return lvalue{}, err
		}
		baseAddr := base.Addr.(*ir.Variable)
		elemAddr := fe.newReg(ir.KindAddr)
		meta := fe.cg.Metas.Of(base.Type.Elem)
		fe.emit(ir.ElemAddr{To: elemAddr, Base: baseAddr, Index: idx.asValue(), Stride: meta.Size})
		return lvalue{Addr: elemAddr, Mutable: base.Mutable, Type: base.Type.Elem}, nil
	default:
		panic("codegen: unhandled path shape")
	}
}

// fieldOffset recomputes a struct's packed field layout, in
// declaration order, exactly as metatype.Cache.buildStruct does --
// kept alongside rather than cached on Metatype, since it is only ever
// needed here, at field-address computation time.
func (fe *fnEmitter) fieldOffset(t *types.Type, field string) int {
	offset := 0
	for _, p := range t.Struct.Props {
		if p.Name == field {
			return offset
		}
		offset += align8(fe.cg.Metas.Of(p.Type).Size)
	}
	panic("codegen: unknown field " + field + " on " + t.Struct.Name)
}

func align8(n int) int {
	if n == 0 {
		return 0
	}
	return ((n + 7) / 8) * 8
}

// uniquify walks addr -- a value of type t -- ensuring every array
// storage block reachable from it is privately owned before a write
// occurs through it, per spec.md §4.4's copy-on-write discipline and
// §4.6's array_uniq operation.
func (fe *fnEmitter) uniquify(addr *ir.Variable, t *types.Type) {
	switch t.Kind {
	case types.KindArray:
		meta := fe.cg.Metas.Of(t.Elem)
		fe.emit(ir.ArrayUniq{Addr: addr, ElemMeta: meta.Global()})
	case types.KindStruct:
		for _, p := range t.Struct.Props {
			if !needsUniq(p.Type) {
				continue
			}
			fieldAddr := fe.newReg(ir.KindAddr)
			fe.emit(ir.FieldAddr{To: fieldAddr, Base: addr, Offset: fe.fieldOffset(t, p.Name)})
			fe.uniquify(fieldAddr, p.Type)
		}
	}
}

func needsUniq(t *types.Type) bool {
	switch t.Kind {
	case types.KindArray:
		return true
	case types.KindStruct:
		for _, p := range t.Struct.Props {
			if needsUniq(p.Type) {
				return true
			}
		}
	}
	return false
}

// storeInto writes r (the already-lowered value of type t) into dest,
// choosing move semantics when r is an owned temporary and
// metatype-driven init-then-copy otherwise, per the lowering table's
// "for each field, field-wise init-then-copy (or move, when permitted)"
// rule.
func (fe *fnEmitter) storeInto(dest *ir.Variable, r result, t *types.Type) {
	if isScalar(t) {
		fe.emit(ir.Store{To: dest, From: r.Reg, Kind: scalarKind(t)})
		return
	}
	src := r.Addr
	if r.Owned {
		// Move: dest simply takes over the already-initialized storage.
		fe.emit(ir.Store{To: dest, From: src, Kind: ir.KindAddr})
		return
	}
	switch t.Kind {
	case types.KindArray:
		fe.emit(ir.ArrayCopy{Dst: dest, Src: src})
	case types.KindFunc:
		fe.emit(ir.ClosureCopy{Dst: dest, Src: src})
	default:
		meta := fe.cg.Metas.Of(t)
		if meta.Copy != nil {
			fe.emit(ir.Call{Callee: *meta.Copy, Args: []ir.Value{dest, src}})
		} else {
			fe.emit(ir.Store{To: dest, From: src, Kind: ir.KindAddr})
		}
	}
}

// dropValue drops an owned temporary of type t that was never stored
// anywhere (e.g. a Binding's shadowed-out previous value, or a
// discarded `_ = rvalue` assignment target).
func (fe *fnEmitter) dropValue(addr *ir.Variable, t *types.Type) {
	if isScalar(t) {
		return
	}
	switch t.Kind {
	case types.KindArray:
		meta := fe.cg.Metas.Of(t.Elem)
		fe.emit(ir.ArrayDrop{Addr: addr, ElemMeta: meta.Global()})
	case types.KindFunc:
		fe.emit(ir.ClosureDrop{Addr: addr})
	default:
		meta := fe.cg.Metas.Of(t)
		if meta.Drop != nil {
			fe.emit(ir.Call{Callee: *meta.Drop, Args: []ir.Value{addr}})
		}
	}
}
