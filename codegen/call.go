package codegen

import (
	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/ir"
	"github.com/susji/mvsc/types"
)

// lowerCall implements the lowering table's Call rule: arguments
// evaluate left-to-right (spec.md §5's ordering guarantee), `inout`
// arguments pass a uniquified address, address-only results get a
// destination slot as the first parameter, and the callee dispatches
// directly when it names a captureless global function, indirectly
// through a closure record otherwise.
func (fe *fnEmitter) lowerCall(n *ast.Call) (result, error) {
	outT := fe.cg.TypeOf(n)

	var dest *ir.Variable
	if isScalar(outT) {
		dest = fe.newReg(scalarKind(outT))
	} else {
		dest = fe.newReg(ir.KindAddr)
		if outT.Kind == types.KindStruct {
			meta := fe.cg.Metas.Of(outT)
			fe.emit(ir.Alloca{To: dest, Size: meta.Size})
		}
	}

	args := make([]ir.Value, 0, len(n.Args))
	for _, a := range n.Args {
		if in, ok := a.(*ast.InoutExpr); ok {
			r, err := fe.lowerInout(in)
			if err != nil {
				return result{}, err
			}
			args = append(args, r.Addr)
			continue
		}
		r, err := fe.lower(a)
		if err != nil {
			return result{}, err
		}
		args = append(args, r.asValue())
	}

	if np, ok := n.Callee.(*ast.NamePath); ok {
		if fname, direct := fe.cg.directFuncs[np.Name]; direct {
			fe.emit(ir.Call{Dest: dest, Callee: ir.Global{Name: fname}, Args: args, Env: nil})
			return fe.callResult(dest, outT), nil
		}
	}

	callee, err := fe.lower(n.Callee)
	if err != nil {
		return result{}, err
	}
	closureAddr := callee.Addr.(*ir.Variable)
	codeAddr := fe.newReg(ir.KindAddr)
	fe.emit(ir.FieldAddr{To: codeAddr, Base: closureAddr, Offset: 0})
	envAddr := fe.newReg(ir.KindAddr)
	fe.emit(ir.FieldAddr{To: envAddr, Base: closureAddr, Offset: 8})
	fe.emit(ir.Call{Dest: dest, Callee: codeAddr, Args: args, Env: envAddr})
	return fe.callResult(dest, outT), nil
}

func (fe *fnEmitter) callResult(dest *ir.Variable, outT *types.Type) result {
	if isScalar(outT) {
		return result{Reg: dest}
	}
	return result{Addr: dest, Owned: true}
}
