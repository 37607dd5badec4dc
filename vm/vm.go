// Package vm interprets the abstract machine of package ir. It is
// grounded on _examples/susji-c0/ssa/vm/vm.go's register-map-plus-
// memory-slice interpreter loop, generalized from 32-bit integers to
// mvs-calculus's value set (ints, floats, and addresses into
// runtime-managed storage) and wired to call into package runtime for
// the mvs_print_i64, mvs_print_f64, mvs_uptime_nanoseconds and mvs_sqrt
// ABI symbols a Call instruction names, rather than C0 VM's raw slice
// indexing; any other mvs_* name is an unknown function.
package vm

import (
	"fmt"
	"unsafe"

	"github.com/susji/mvsc/ir"
	"github.com/susji/mvsc/metatype"
	"github.com/susji/mvsc/runtime"
)

// cell is one addressable memory slot -- what an ir.Alloca yields the
// address of. A slot holds exactly one of a scalar bit pattern or a
// pointer to a runtime-managed value; which is live is determined by
// the static ir.Kind carried on the owning ir.Variable, mirroring how
// the teacher VM trusted ir.Type at each instruction site rather than
// tagging every memory word.
//
// FieldAddr and ElemAddr both yield an *address*, not a value: the
// register they populate holds a *cell pointing at the slot the field
// or element actually lives in, one level further than a plain
// register holding the value itself. deref follows that one (or
// chained) indirection down to the concrete value -- a *frame,
// *runtime.Array or *runtime.Closure -- every instruction that
// consumes an address-kind operand as a base (FieldAddr, ElemAddr,
// the Array* family, AnyUnwrap) goes through it first.
type cell struct {
	i    int64
	f    float64
	addr interface{} // *cell, *frame, *runtime.Array, *runtime.Closure, *runtime.Any, *ir.Function, a Global's name string, or nil
}

// Int and Float expose a returned cell's scalar payload to callers
// outside the package (package vm's own tests, and cmd/mvsc's
// printResult reporting a top-level program's result).
func (c *cell) Int() int64     { return c.i }
func (c *cell) Float() float64 { return c.f }

// frame is a packed struct/closure record: a flat slice of cells
// indexed by byte offset / 8, matching codegen's FieldAddr offsets.
type frame struct {
	cells []*cell
}

func newFrame(size int) *frame {
	f := &frame{cells: make([]*cell, (size+7)/8)}
	for i := range f.cells {
		f.cells[i] = &cell{}
	}
	return f
}

func deref(c *cell) *cell {
	for {
		inner, ok := c.addr.(*cell)
		if !ok {
			return c
		}
		c = inner
	}
}

// VM executes one linked ir.Program.
type VM struct {
	funcs map[string]*ir.Function
	metas *metatype.Cache
	abi   *runtime.ABI
	trace bool

	// boxes is the VM's side table for array elements and existentials:
	// both need a fixed 8-byte slot regardless of the element's real
	// shape, so every element/Any payload is a *cell reached through an
	// index into this table rather than a raw pointer embedded in the
	// []byte-backed runtime.Array payload, which Go's GC does not scan.
	// Entries are never reclaimed -- acceptable for a process that
	// interprets exactly one compiled program and then exits.
	boxes     []*cell
	eops      *runtime.ElemOps
	witnesses map[string]*runtime.Metatype
}

func New(prog *ir.Program, metas *metatype.Cache, abi *runtime.ABI) *VM {
	funcs := map[string]*ir.Function{}
	for _, f := range prog.Functions {
		funcs[f.Name] = f
	}
	return &VM{funcs: funcs, metas: metas, abi: abi}
}

// SetTrace toggles per-instruction logging, the way the teacher VM's
// Run(verbose bool) parameter did.
func (vm *VM) SetTrace(on bool) { vm.trace = on }

// Run executes the program's entry function and returns its final
// register value.
func (vm *VM) Run(entry string) (*cell, error) {
	fn, ok := vm.funcs[entry]
	if !ok {
		return nil, fmt.Errorf("vm: unknown entry function %q", entry)
	}
	return vm.call(fn, nil, nil)
}

type activation struct {
	regs   map[int]*cell
	pc     int
	body   []ir.Instruction
	labels map[string]int
}

// call runs fn with args bound into registers 0..len(args)-1 and, when
// non-nil, env bound into the register right after -- liftFunc always
// appends "env" as fn's last parameter, at exactly that index, whether
// or not the particular call site has captures to pass.
func (vm *VM) call(fn *ir.Function, args []*cell, env *cell) (*cell, error) {
	act := &activation{
		regs:   map[int]*cell{},
		body:   fn.Body,
		labels: map[string]int{},
	}
	for i, inst := range fn.Body {
		if l, ok := inst.(ir.Label); ok {
			act.labels[l.Name] = i
		}
	}
	for i, c := range args {
		act.regs[i] = c
	}
	if env != nil {
		act.regs[len(args)] = env
	}
	for act.pc < len(act.body) {
		ret, jumped, err := vm.step(act, act.body[act.pc])
		if err != nil {
			return nil, err
		}
		if ret != nil {
			return ret, nil
		}
		if !jumped {
			act.pc++
		}
	}
	return &cell{}, nil
}

func (vm *VM) reg(act *activation, v *ir.Variable) *cell {
	c, ok := act.regs[v.Count]
	if !ok {
		c = &cell{}
		act.regs[v.Count] = c
	}
	return c
}

func (vm *VM) value(act *activation, v ir.Value) *cell {
	switch t := v.(type) {
	case *ir.Variable:
		return vm.reg(act, t)
	case ir.IntImm:
		return &cell{i: t.Value}
	case ir.FloatImm:
		return &cell{f: t.Value}
	case ir.Global:
		return &cell{addr: t.Name}
	default:
		panic(fmt.Sprintf("vm: unrecognized value %T", v))
	}
}

// step executes one instruction, returning a non-nil *cell only when a
// Return was reached, and jumped=true when the instruction already
// advanced act.pc itself (Jump/CondJump).
func (vm *VM) step(act *activation, inst ir.Instruction) (*cell, bool, error) {
	if vm.trace {
		fmt.Printf("[%03d] %s\n", act.pc, inst)
	}
	switch t := inst.(type) {
	case ir.Label:
		return nil, false, nil
	case ir.Jump:
		act.pc = act.labels[t.To]
		return nil, true, nil
	case ir.CondJump:
		cond := vm.value(act, t.Cond)
		if cond.i != 0 {
			act.pc = act.labels[t.IfTrue]
		} else {
			act.pc = act.labels[t.IfFalse]
		}
		return nil, true, nil
	case ir.Mov:
		to := vm.reg(act, t.To)
		*to = *vm.value(act, t.What)
		return nil, false, nil
	case ir.Alloca:
		to := vm.reg(act, t.To)
		to.addr = newFrame(t.Size)
		return nil, false, nil
	case ir.Load:
		to, from := vm.reg(act, t.To), vm.reg(act, t.From)
		if inner, ok := from.addr.(*cell); ok {
			*to = *inner
		} else {
			*to = *from
		}
		return nil, false, nil
	case ir.Store:
		to := vm.reg(act, t.To)
		from := vm.value(act, t.From)
		if inner, ok := to.addr.(*cell); ok {
			*inner = *from
		} else {
			*to = *from
		}
		return nil, false, nil
	case ir.FieldAddr:
		base := deref(vm.reg(act, t.Base))
		to := vm.reg(act, t.To)
		switch b := base.addr.(type) {
		case *frame:
			idx := t.Offset / 8
			if idx < len(b.cells) {
				to.addr = b.cells[idx]
			}
		case *runtime.Closure:
			if t.Offset == 0 {
				to.addr = (*ir.Function)(b.Code)
			} else {
				to.addr = (*frame)(b.Env)
			}
		}
		return nil, false, nil
	case ir.ElemAddr:
		base := deref(vm.reg(act, t.Base))
		idx := vm.value(act, t.Index)
		to := vm.reg(act, t.To)
		arr, ok := base.addr.(*runtime.Array)
		if !ok {
			return nil, false, fmt.Errorf("vm: elem_addr: base is not an array")
		}
		to.addr = vm.elemCellOf(arr, idx.i)
		return nil, false, nil
	case ir.Arith:
		l, r := vm.value(act, t.Left), vm.value(act, t.Right)
		to := vm.reg(act, t.To)
		vm.arith(to, t.Op, t.Kind, l, r)
		return nil, false, nil
	case ir.Cmp:
		l, r := vm.value(act, t.Left), vm.value(act, t.Right)
		to := vm.reg(act, t.To)
		to.i = boolToInt(vm.cmp(t.Op, t.Kind, l, r))
		return nil, false, nil
	case ir.Return:
		return vm.value(act, t.With), false, nil
	case ir.Call:
		return vm.doCall(act, t)
	case ir.MakeClosure:
		return vm.makeClosure(act, t)
	case ir.ArrayInit:
		to := vm.reg(act, t.Addr)
		n := vm.value(act, t.N)
		arr := runtime.ArrayInit(n.i, vm.elemOps())
		to.addr = &arr
		return nil, false, nil
	case ir.ArrayDrop:
		a := deref(vm.reg(act, t.Addr))
		if arr, ok := a.addr.(*runtime.Array); ok {
			runtime.ArrayDrop(arr, vm.elemOps())
		}
		return nil, false, nil
	case ir.ArrayCopy:
		dst := deref(vm.reg(act, t.Dst))
		src := deref(vm.reg(act, t.Src))
		srcArr, ok := src.addr.(*runtime.Array)
		if !ok {
			return nil, false, fmt.Errorf("vm: array_copy: source is not an array")
		}
		var out runtime.Array
		runtime.ArrayCopy(&out, srcArr)
		dst.addr = &out
		return nil, false, nil
	case ir.ArrayUniq:
		a := deref(vm.reg(act, t.Addr))
		if arr, ok := a.addr.(*runtime.Array); ok {
			runtime.ArrayUniq(arr, vm.elemOps())
		}
		return nil, false, nil
	case ir.ArrayEqual:
		l := deref(vm.reg(act, t.Left))
		r := deref(vm.reg(act, t.Right))
		to := vm.reg(act, t.To)
		lArr, lok := l.addr.(*runtime.Array)
		rArr, rok := r.addr.(*runtime.Array)
		to.i = boolToInt(lok && rok && runtime.ArrayEqual(lArr, rArr, vm.elemOps()))
		return nil, false, nil
	case ir.ClosureCopy:
		dst := deref(vm.reg(act, t.Dst))
		src := deref(vm.reg(act, t.Src))
		if c, ok := src.addr.(*runtime.Closure); ok {
			cp := runtime.ClosureCopy(*c)
			dst.addr = &cp
		}
		return nil, false, nil
	case ir.ClosureDrop:
		a := deref(vm.reg(act, t.Addr))
		if c, ok := a.addr.(*runtime.Closure); ok {
			runtime.ClosureDrop(*c)
		}
		return nil, false, nil
	case ir.ClosureEqual:
		l := deref(vm.reg(act, t.Left))
		r := deref(vm.reg(act, t.Right))
		to := vm.reg(act, t.To)
		lc, lok := l.addr.(*runtime.Closure)
		rc, rok := r.addr.(*runtime.Closure)
		to.i = boolToInt(lok && rok && runtime.ClosureEqual(*lc, *rc))
		return nil, false, nil
	case ir.AnyWrap:
		return vm.anyWrap(act, t)
	case ir.AnyUnwrap:
		return vm.anyUnwrap(act, t)
	default:
		return nil, false, fmt.Errorf("vm: unhandled instruction %T", inst)
	}
}

// elemOps is the single ElemOps every array and existential in a run
// shares: a fixed 8-byte slot holding a box index, whose Init/Drop/
// Copy/Equal recurse generically on whatever *cell that index
// resolves to. Array element layout (Stride, computed by codegen from
// the element's real metatype.Size) is therefore informational only
// at this level -- see DESIGN.md.
func (vm *VM) elemOps() *runtime.ElemOps {
	if vm.eops == nil {
		vm.eops = &runtime.ElemOps{
			Size: 8,
			Init: func(dst unsafe.Pointer) {
				*(*int64)(dst) = vm.box(&cell{})
			},
			Drop: func(dst unsafe.Pointer) {
				vm.dropCell(vm.unbox(*(*int64)(dst)))
			},
			Copy: func(dst, src unsafe.Pointer) {
				*(*int64)(dst) = vm.box(vm.copyCell(vm.unbox(*(*int64)(src))))
			},
			Equal: func(a, b unsafe.Pointer) bool {
				return vm.equalCell(vm.unbox(*(*int64)(a)), vm.unbox(*(*int64)(b)))
			},
		}
	}
	return vm.eops
}

func (vm *VM) box(c *cell) int64 {
	vm.boxes = append(vm.boxes, c)
	return int64(len(vm.boxes) - 1)
}

func (vm *VM) unbox(i int64) *cell { return vm.boxes[i] }

func (vm *VM) elemCellOf(arr *runtime.Array, i int64) *cell {
	ptr := runtime.ElemPointer(arr, i, vm.elemOps())
	return vm.unbox(*(*int64)(ptr))
}

// copyCell deep-copies c's value per mvs-calculus's assignment
// semantics: scalars copy bitwise, arrays alias-and-bump (ArrayCopy),
// closures copy field-wise through their own Copy func, and nested
// frames (struct values) recurse field by field.
func (vm *VM) copyCell(c *cell) *cell {
	if c == nil {
		return &cell{}
	}
	nc := &cell{i: c.i, f: c.f}
	switch a := c.addr.(type) {
	case *frame:
		nc.addr = vm.copyFrame(a)
	case *runtime.Array:
		var out runtime.Array
		runtime.ArrayCopy(&out, a)
		nc.addr = &out
	case *runtime.Closure:
		cp := runtime.ClosureCopy(*a)
		nc.addr = &cp
	case nil:
	default:
		nc.addr = a
	}
	return nc
}

func (vm *VM) copyFrame(f *frame) *frame {
	nf := &frame{cells: make([]*cell, len(f.cells))}
	for i, c := range f.cells {
		nf.cells[i] = vm.copyCell(c)
	}
	return nf
}

func (vm *VM) dropCell(c *cell) {
	if c == nil {
		return
	}
	switch a := c.addr.(type) {
	case *frame:
		vm.dropFrame(a)
	case *runtime.Array:
		runtime.ArrayDrop(a, vm.elemOps())
	case *runtime.Closure:
		runtime.ClosureDrop(*a)
	}
}

func (vm *VM) dropFrame(f *frame) {
	for _, c := range f.cells {
		vm.dropCell(c)
	}
}

func (vm *VM) equalCell(a, b *cell) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch av := a.addr.(type) {
	case *frame:
		bv, ok := b.addr.(*frame)
		return ok && vm.equalFrame(av, bv)
	case *runtime.Array:
		bv, ok := b.addr.(*runtime.Array)
		return ok && runtime.ArrayEqual(av, bv, vm.elemOps())
	case *runtime.Closure:
		bv, ok := b.addr.(*runtime.Closure)
		return ok && runtime.ClosureEqual(*av, *bv)
	default:
		return a.i == b.i && a.f == b.f
	}
}

func (vm *VM) equalFrame(a, b *frame) bool {
	if len(a.cells) != len(b.cells) {
		return false
	}
	for i := range a.cells {
		if !vm.equalCell(a.cells[i], b.cells[i]) {
			return false
		}
	}
	return true
}

// makeClosure builds a real runtime.Closure: Code is the resolved
// function's own identity (so ClosureEqual's code comparison is
// meaningful), Env is a fresh frame populated from the capture list in
// buildClosure's order, and Copy/Drop/Equal forward to the generic
// cell/frame recursion so an environment holding arrays or nested
// closures is handled field by field rather than aliased wholesale.
func (vm *VM) makeClosure(act *activation, t ir.MakeClosure) (*cell, bool, error) {
	fn, ok := vm.funcs[t.Code.Name]
	if !ok {
		return nil, false, fmt.Errorf("vm: unknown function %q", t.Code.Name)
	}
	env := &frame{cells: make([]*cell, len(t.Captures))}
	for i, cv := range t.Captures {
		env.cells[i] = vm.copyCell(vm.value(act, cv))
	}
	to := vm.reg(act, t.To)
	to.addr = &runtime.Closure{
		Code: unsafe.Pointer(fn),
		Env:  unsafe.Pointer(env),
		Copy: func(e unsafe.Pointer) unsafe.Pointer {
			return unsafe.Pointer(vm.copyFrame((*frame)(e)))
		},
		Drop: func(e unsafe.Pointer) { vm.dropFrame((*frame)(e)) },
		Equal: func(a, b unsafe.Pointer) bool {
			return vm.equalFrame((*frame)(a), (*frame)(b))
		},
	}
	return nil, false, nil
}

func (vm *VM) witnessFor(name string) *runtime.Metatype {
	if vm.witnesses == nil {
		vm.witnesses = map[string]*runtime.Metatype{}
	}
	w, ok := vm.witnesses[name]
	if !ok {
		w = &runtime.Metatype{Name: name, Ops: vm.elemOps()}
		vm.witnesses[name] = w
	}
	return w
}

func (vm *VM) anyWrap(act *activation, t ir.AnyWrap) (*cell, bool, error) {
	from := deref(vm.reg(act, t.From))
	idx := vm.box(vm.copyCell(from))
	var buf [8]byte
	*(*int64)(unsafe.Pointer(&buf[0])) = idx
	witness := vm.witnessFor(t.Witness.Name)
	wrapped := runtime.AnyWrap(unsafe.Pointer(&buf[0]), witness)
	to := vm.reg(act, t.To)
	to.addr = &wrapped
	return nil, false, nil
}

func (vm *VM) anyUnwrap(act *activation, t ir.AnyUnwrap) (*cell, bool, error) {
	from := deref(vm.reg(act, t.From))
	any, ok := from.addr.(*runtime.Any)
	if !ok {
		return nil, false, fmt.Errorf("vm: any_unwrap: not an existential value")
	}
	witness := vm.witnessFor(t.Witness.Name)
	ptr := runtime.AnyUnwrap(any, witness)
	to := vm.reg(act, t.To)
	to.addr = vm.unbox(*(*int64)(ptr))
	return nil, false, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (vm *VM) arith(to *cell, op ir.ArithOp, k ir.Kind, l, r *cell) {
	if k == ir.KindFloat {
		switch op {
		case ir.OpAdd:
			to.f = l.f + r.f
		case ir.OpSub:
			to.f = l.f - r.f
		case ir.OpMul:
			to.f = l.f * r.f
		case ir.OpDiv:
			to.f = l.f / r.f
		}
		return
	}
	switch op {
	case ir.OpAdd:
		to.i = l.i + r.i
	case ir.OpSub:
		to.i = l.i - r.i
	case ir.OpMul:
		to.i = l.i * r.i
	case ir.OpDiv:
		to.i = l.i / r.i
	}
}

func (vm *VM) cmp(op ir.CmpOp, k ir.Kind, l, r *cell) bool {
	if k == ir.KindFloat {
		switch op {
		case ir.CmpEq:
			return l.f == r.f
		case ir.CmpNe:
			return l.f != r.f
		case ir.CmpLt:
			return l.f < r.f
		case ir.CmpLe:
			return l.f <= r.f
		case ir.CmpGe:
			return l.f >= r.f
		case ir.CmpGt:
			return l.f > r.f
		}
	}
	switch op {
	case ir.CmpEq:
		return l.i == r.i
	case ir.CmpNe:
		return l.i != r.i
	case ir.CmpLt:
		return l.i < r.i
	case ir.CmpLe:
		return l.i <= r.i
	case ir.CmpGe:
		return l.i >= r.i
	case ir.CmpGt:
		return l.i > r.i
	}
	return false
}

// doCall dispatches either to a primitive ABI symbol (named mvs_*), to
// another lifted ir.Function by name (direct dispatch), or -- when
// Callee is a register rather than a Global -- to whatever
// *ir.Function a FieldAddr into a closure's code slot resolved it to
// (indirect dispatch, codegen/call.go's closure-call path).
func (vm *VM) doCall(act *activation, t ir.Call) (*cell, bool, error) {
	args := make([]*cell, len(t.Args))
	for i, a := range t.Args {
		args[i] = vm.value(act, a)
	}
	var env *cell
	if t.Env != nil {
		env = vm.value(act, t.Env)
	}
	if g, ok := t.Callee.(ir.Global); ok {
		if ret, handled := vm.dispatchABI(g.Name, args); handled {
			if t.Dest != nil {
				*vm.reg(act, t.Dest) = *ret
			}
			return nil, false, nil
		}
		fn, ok := vm.funcs[g.Name]
		if !ok {
			return nil, false, fmt.Errorf("vm: unknown function %q", g.Name)
		}
		ret, err := vm.call(fn, args, env)
		if err != nil {
			return nil, false, err
		}
		if t.Dest != nil {
			*vm.reg(act, t.Dest) = *ret
		}
		return nil, false, nil
	}
	calleeVar, ok := t.Callee.(*ir.Variable)
	if !ok {
		return nil, false, fmt.Errorf("vm: unrecognized callee %T", t.Callee)
	}
	fn, ok := vm.reg(act, calleeVar).addr.(*ir.Function)
	if !ok {
		return nil, false, fmt.Errorf("vm: indirect call target is not a function")
	}
	ret, err := vm.call(fn, args, env)
	if err != nil {
		return nil, false, err
	}
	if t.Dest != nil {
		*vm.reg(act, t.Dest) = *ret
	}
	return nil, false, nil
}

func (vm *VM) dispatchABI(name string, args []*cell) (*cell, bool) {
	switch name {
	case "mvs_print_i64":
		vm.abi.PrintI64(args[0].i)
		return &cell{}, true
	case "mvs_print_f64":
		vm.abi.PrintF64(args[0].f)
		return &cell{}, true
	case "mvs_uptime_nanoseconds":
		return &cell{i: vm.abi.UptimeNanoseconds()}, true
	case "mvs_sqrt":
		return &cell{f: vm.abi.Sqrt(args[0].f)}, true
	default:
		return nil, false
	}
}
