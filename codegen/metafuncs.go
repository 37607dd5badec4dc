package codegen

import (
	"fmt"

	"github.com/susji/mvsc/ir"
	"github.com/susji/mvsc/types"
)

// emitMetaFuncs emits the $copy/$drop bodies for every non-trivial
// struct metatype, and the $equal body for every struct metatype, that
// the cache accumulated while lowering prog, per spec.md §4.4's "for each field, field-wise init-then-copy"
// rule and §4.6's COW discipline. It runs once, after the entry
// function has been fully lowered, since Metas only holds every
// distinct struct type reached by the program at that point -- the
// same reason codegen.Compile calls it after fe.lower(prog.Entry)
// rather than lazily per Metas.Of the way operFuncName memoizes
// operator wrappers.
//
// $init is deliberately not emitted: nothing in the lowering table
// ever calls through meta.Init, since a StructLit always supplies
// every field (mvs-calculus has no default-then-assign construct), so
// the symbol would be dead weight with no call site to exercise it.
func (cg *CG) emitMetaFuncs() {
	for _, m := range cg.Metas.All() {
		st, ok := cg.Metas.StructShape(m.Name)
		if !ok {
			continue
		}
		if m.Copy != nil {
			cg.addFunction(cg.buildStructCopy(m.Copy.Name, st))
		}
		if m.Drop != nil {
			cg.addFunction(cg.buildStructDrop(m.Drop.Name, st))
		}
		if m.Equal != nil {
			cg.addFunction(cg.buildStructEqual(m.Equal.Name, st))
		}
	}
}

// buildStructCopy emits dst,src -> copy each field of src into dst,
// field-wise, dispatching per field kind exactly as storeInto does at
// a StructLit's construction site.
func (cg *CG) buildStructCopy(name string, st *types.StructType) *ir.Function {
	fe := cg.newFunc(name, nil)
	dst := fe.newReg(ir.KindAddr)
	src := fe.newReg(ir.KindAddr)
	offset := 0
	for _, p := range st.Props {
		dstField := fe.newReg(ir.KindAddr)
		fe.emit(ir.FieldAddr{To: dstField, Base: dst, Offset: offset})
		srcField := fe.newReg(ir.KindAddr)
		fe.emit(ir.FieldAddr{To: srcField, Base: src, Offset: offset})
		fe.emitFieldCopy(dstField, srcField, p.Type)
		offset += align8(cg.Metas.Of(p.Type).Size)
	}
	fe.emit(ir.Return{With: ir.IntImm{Value: 0}})
	fe.g.Seal(fe.cur)
	built := fe.finish(name)
	built.Params = []string{"dst", "src"}
	return built
}

// buildStructDrop emits addr -> release every non-trivial field of
// the struct at addr, mirroring dropValue's per-field dispatch.
func (cg *CG) buildStructDrop(name string, st *types.StructType) *ir.Function {
	fe := cg.newFunc(name, nil)
	addr := fe.newReg(ir.KindAddr)
	offset := 0
	for _, p := range st.Props {
		fieldAddr := fe.newReg(ir.KindAddr)
		fe.emit(ir.FieldAddr{To: fieldAddr, Base: addr, Offset: offset})
		fe.emitFieldDrop(fieldAddr, p.Type)
		offset += align8(cg.Metas.Of(p.Type).Size)
	}
	fe.emit(ir.Return{With: ir.IntImm{Value: 0}})
	fe.g.Seal(fe.cur)
	built := fe.finish(name)
	built.Params = []string{"addr"}
	return built
}

// buildStructEqual emits l,r -> 1 when every field compares equal, 0
// at the first mismatch, short-circuiting field by field. There is no
// bitwise-AND ir.ArithOp to fold N Cmp results into one, so the chain
// is built the same way lowerCond builds a branch: a fresh block per
// field, jumping to a shared false block the moment one field differs.
func (cg *CG) buildStructEqual(name string, st *types.StructType) *ir.Function {
	fe := cg.newFunc(name, nil)
	l := fe.newReg(ir.KindAddr)
	r := fe.newReg(ir.KindAddr)
	falseBlk := fe.g.NewBlock(name + ".false")
	trueBlk := fe.g.NewBlock(name + ".true")

	if len(st.Props) == 0 {
		fe.g.Jump(fe.cur, trueBlk)
	} else {
		offset := 0
		for i, p := range st.Props {
			lField := fe.newReg(ir.KindAddr)
			fe.emit(ir.FieldAddr{To: lField, Base: l, Offset: offset})
			rField := fe.newReg(ir.KindAddr)
			fe.emit(ir.FieldAddr{To: rField, Base: r, Offset: offset})
			eq := fe.emitFieldEqual(lField, rField, p.Type)

			next := trueBlk
			if i < len(st.Props)-1 {
				next = fe.g.NewBlock(fmt.Sprintf("%s.field%d", name, i))
			}
			fe.g.Branch(fe.cur, eq, next, falseBlk)
			fe.cur = next
			offset += align8(cg.Metas.Of(p.Type).Size)
		}
	}

	fe.cur = trueBlk
	okReg := fe.newReg(ir.KindInt)
	fe.emit(ir.Mov{To: okReg, What: ir.IntImm{Value: 1}})
	fe.emit(ir.Return{With: okReg})
	fe.g.Seal(fe.cur)

	fe.cur = falseBlk
	noReg := fe.newReg(ir.KindInt)
	fe.emit(ir.Mov{To: noReg, What: ir.IntImm{Value: 0}})
	fe.emit(ir.Return{With: noReg})
	fe.g.Seal(fe.cur)

	built := fe.finish(name)
	built.Params = []string{"l", "r"}
	return built
}

func (fe *fnEmitter) emitFieldCopy(dst, src *ir.Variable, t *types.Type) {
	if isScalar(t) {
		tmp := fe.newReg(scalarKind(t))
		fe.emit(ir.Load{To: tmp, From: src, Kind: scalarKind(t)})
		fe.emit(ir.Store{To: dst, From: tmp, Kind: scalarKind(t)})
		return
	}
	switch t.Kind {
	case types.KindArray:
		fe.emit(ir.ArrayCopy{Dst: dst, Src: src})
	case types.KindFunc:
		fe.emit(ir.ClosureCopy{Dst: dst, Src: src})
	case types.KindStruct:
		meta := fe.cg.Metas.Of(t)
		if meta.Copy != nil {
			fe.emit(ir.Call{Callee: *meta.Copy, Args: []ir.Value{dst, src}})
		} else {
			fe.emit(ir.Store{To: dst, From: src, Kind: ir.KindAddr})
		}
	default:
		fe.emit(ir.Store{To: dst, From: src, Kind: ir.KindAddr})
	}
}

func (fe *fnEmitter) emitFieldDrop(addr *ir.Variable, t *types.Type) {
	switch t.Kind {
	case types.KindArray:
		meta := fe.cg.Metas.Of(t.Elem)
		fe.emit(ir.ArrayDrop{Addr: addr, ElemMeta: meta.Global()})
	case types.KindFunc:
		fe.emit(ir.ClosureDrop{Addr: addr})
	case types.KindStruct:
		meta := fe.cg.Metas.Of(t)
		if meta.Drop != nil {
			fe.emit(ir.Call{Callee: *meta.Drop, Args: []ir.Value{addr}})
		}
	}
}

// emitFieldEqual returns a register holding 1/0 for whether the field
// at l and r (addresses of type t) compare equal, per spec.md §4.1's
// eq/ne on any type.
func (fe *fnEmitter) emitFieldEqual(l, r *ir.Variable, t *types.Type) ir.Value {
	if isScalar(t) {
		lv := fe.newReg(scalarKind(t))
		fe.emit(ir.Load{To: lv, From: l, Kind: scalarKind(t)})
		rv := fe.newReg(scalarKind(t))
		fe.emit(ir.Load{To: rv, From: r, Kind: scalarKind(t)})
		to := fe.newReg(ir.KindInt)
		fe.emit(ir.Cmp{To: to, Op: ir.CmpEq, Kind: scalarKind(t), Left: lv, Right: rv})
		return to
	}
	to := fe.newReg(ir.KindInt)
	switch t.Kind {
	case types.KindArray:
		elemMeta := fe.cg.Metas.Of(t.Elem)
		fe.emit(ir.ArrayEqual{To: to, Left: l, Right: r, ElemMeta: elemMeta.Global()})
	case types.KindFunc:
		fe.emit(ir.ClosureEqual{To: to, Left: l, Right: r})
	case types.KindStruct:
		meta := fe.cg.Metas.Of(t)
		fe.emit(ir.Call{Dest: to, Callee: *meta.Equal, Args: []ir.Value{l, r}})
	default:
		fe.emit(ir.Cmp{To: to, Op: ir.CmpEq, Kind: ir.KindAddr, Left: l, Right: r})
	}
	return to
}
