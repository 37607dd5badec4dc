package codegen

import (
	"fmt"

	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/capture"
	"github.com/susji/mvsc/ir"
)

// lowerFuncLit lowers an anonymous function literal. Per the lowering
// table: a lifted global function is emitted for the body, and a
// closure object is constructed at the use site capturing the free
// variables in deterministic (sorted) order.
func (fe *fnEmitter) lowerFuncLit(n *ast.Func) (result, error) {
	cap, err := capture.Analyze(n, fe.cg.TypeOf)
	if err != nil {
		return result{}, fmt.Errorf("codegen: capture: %w", err)
	}
	fname := fe.cg.nextFuncName("lambda")
	if err := fe.cg.liftFunc(fname, n, cap, nil); err != nil {
		return result{}, err
	}
	return fe.buildClosure(fname, cap)
}

// lowerFuncBinding lowers `fun name literal in body`. When the literal
// captures nothing, it is emitted as a direct global (enabling direct
// dispatch at call sites, per the lowering table); otherwise it is
// built as an ordinary closure bound under its own name. The name is
// not added to that closure's environment, so a literal that captures
// other names and also calls itself fails in buildClosure: its own
// name is not bound at the construction site.
func (fe *fnEmitter) lowerFuncBinding(n *ast.FuncBinding) (result, error) {
	cap, err := capture.Analyze(n.Literal, fe.cg.TypeOf)
	if err != nil {
		return result{}, fmt.Errorf("codegen: capture: %w", err)
	}
	fname := fe.cg.nextFuncName(n.Name)
	selfT := fe.cg.FuncSig(n.Literal.ID())

	// A recursive literal's own name is free in its body, but liftFunc
	// dispatches that reference directly, so alone it is no capture.
	if len(cap.Captures) == 1 && cap.Captures[0].Name == n.Name {
		cap = &capture.Result{}
	}
	if len(cap.Captures) == 0 {
		if err := fe.cg.liftFunc(fname, n.Literal, cap, &recursiveSelf{name: n.Name, funcName: fname}); err != nil {
			return result{}, err
		}
		fe.cg.directFuncs[n.Name] = fname
		defer delete(fe.cg.directFuncs, n.Name)
		body, err := fe.lower(n.Body)
		return body, err
	}

	if err := fe.cg.liftFunc(fname, n.Literal, cap, &recursiveSelf{name: n.Name, funcName: fname}); err != nil {
		return result{}, err
	}
	closure, err := fe.buildClosure(fname, cap)
	if err != nil {
		return result{}, err
	}
	_ = selfT
	fe.bind(n.Name, closure.Addr.(*ir.Variable), fe.cg.TypeOf(n.Literal))
	body, err := fe.lower(n.Body)
	delete(fe.addrs, n.Name)
	delete(fe.kinds, n.Name)
	return body, err
}

// recursiveSelf tells liftFunc that, inside the lifted body, a
// reference to `name` should dispatch directly to `funcName` rather
// than look for a bound variable -- the recursion edge of a
// FuncBinding.
type recursiveSelf struct {
	name     string
	funcName string
}

// liftFunc emits fn's body as a global ir.Function, named fname, whose
// last parameter is always the environment pointer (or the zero value
// when cap has no captures). The env's fields are loaded back into
// per-name addresses at function entry, in the same sorted order
// buildClosure populates them.
func (cg *CG) liftFunc(fname string, fn *ast.Func, cap *capture.Result, self *recursiveSelf) error {
	fe := cg.newFunc(fname, nil)
	sig := cg.FuncSig(fn.ID())
	params := make([]string, 0, len(fn.Params)+1)
	for i, p := range fn.Params {
		params = append(params, p.Name)
		reg := fe.newReg(paramKind(sig.Params[i]))
		fe.bind(p.Name, reg, sig.Params[i])
	}
	envReg := fe.newReg(ir.KindAddr)
	params = append(params, "env")
	for i, c := range cap.Captures {
		fieldAddr := fe.newReg(ir.KindAddr)
		fe.emit(ir.FieldAddr{To: fieldAddr, Base: envReg, Offset: i * 8})
		fe.bind(c.Name, fieldAddr, c.Type)
	}
	if self != nil {
		cg.directFuncs[self.name] = self.funcName
		defer delete(cg.directFuncs, self.name)
	}
	res, err := fe.lower(fn.Body)
	if err != nil {
		return err
	}
	fe.emit(ir.Return{With: res.asValue()})
	fe.g.Seal(fe.cur)
	built := fe.finish(fname)
	built.Params = params
	cg.addFunction(built)
	return nil
}

// buildClosure constructs the {code, env, copyFn, dropFn, equalFn}
// record, environment-populated from the current function's bindings
// for each captured name, in cap's deterministic order.
func (fe *fnEmitter) buildClosure(fname string, cap *capture.Result) (result, error) {
	captures := make([]ir.Value, len(cap.Captures))
	for i, c := range cap.Captures {
		addr, ok := fe.addrs[c.Name]
		if !ok {
			return result{}, fmt.Errorf("codegen: capture %q not bound at closure construction site", c.Name)
		}
		captures[i] = addr
	}
	dest := fe.newReg(ir.KindAddr)
	fe.emit(ir.MakeClosure{To: dest, Code: ir.Global{Name: fname}, Captures: captures})
	return result{Addr: dest, Owned: true}, nil
}

// operKey identifies one lifted operator wrapper: the operator plus
// the numeric kind its two operands are instantiated at. `(+)` used at
// Int and `(+)` used at Float are different wrapper functions, each
// emitting the real kind into its Arith/Cmp instead of always
// hardcoding ir.KindInt.
type operKey struct {
	Op   ast.OperKind
	Kind ir.Kind
}

// operFuncName returns the lifted function name wrapping operator k
// instantiated at kind, emitting it the first time it's needed and
// memoizing the name thereafter -- spec.md §9's "memoized closure
// wrapping the operator" design note for first-class operator
// references. kind is only meaningful for Int/Float; an equality
// reference over a non-scalar operand type is not represented by this
// wrapper shape (no struct/array/closure equality dispatch here), so
// callers fall back to ir.KindInt for those, matching the
// scalar-operator subset spec.md §9's example (`let add = (+)`)
// actually exercises.
func (cg *CG) operFuncName(k ast.OperKind, kind ir.Kind) string {
	key := operKey{Op: k, Kind: kind}
	if name, ok := cg.operFuncs[key]; ok {
		return name
	}
	name := fmt.Sprintf("oper$%s$%s", operSymbolName(k), kindSuffix(kind))
	cg.operFuncs[key] = name
	// The wrapper body is two parameters of kind, bound directly to
	// registers 0 and 1 (liftFunc's no-Alloca convention), emitting the
	// same Arith/Cmp instruction lowerInfix would for the corresponding
	// Infix form.
	fe := cg.newFunc(name, nil)
	lReg, rReg := fe.newReg(kind), fe.newReg(kind)
	var to *ir.Variable
	if k.IsArith() {
		to = fe.newReg(kind)
		fe.emit(ir.Arith{To: to, Op: arithOpOf(k), Kind: kind, Left: lReg, Right: rReg})
	} else {
		to = fe.newReg(ir.KindInt)
		fe.emit(ir.Cmp{To: to, Op: cmpOpOf(k), Kind: kind, Left: lReg, Right: rReg})
	}
	fe.emit(ir.Return{With: to})
	fe.g.Seal(fe.cur)
	built := fe.finish(name)
	built.Params = []string{"a", "b", "env"}
	cg.addFunction(built)
	return name
}

func kindSuffix(k ir.Kind) string {
	if k == ir.KindFloat {
		return "f"
	}
	return "i"
}

func operSymbolName(k ast.OperKind) string {
	names := [...]string{"eq", "ne", "lt", "le", "ge", "gt", "add", "sub", "mul", "div"}
	return names[k]
}
