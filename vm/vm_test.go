package vm_test

import (
	"bytes"
	"testing"

	"github.com/susji/mvsc/testers/require"

	"github.com/susji/mvsc/ir"
	"github.com/susji/mvsc/runtime"
	"github.com/susji/mvsc/vm"
)

// reg builds a scalar-kind ir.Variable for register number count. The
// VM keys registers by Count, so two Variables built with the same
// count name the same register.
func reg(count int, k ir.Kind) *ir.Variable {
	return &ir.Variable{Name: "t", Count: count, Kind: k}
}

func TestArithAddAndReturn(t *testing.T) {
	a, b, sum := reg(0, ir.KindInt), reg(1, ir.KindInt), reg(2, ir.KindInt)
	fn := &ir.Function{
		Name: "main",
		Body: []ir.Instruction{
			ir.Mov{To: a, What: ir.IntImm{Value: 2}},
			ir.Mov{To: b, What: ir.IntImm{Value: 40}},
			ir.Arith{To: sum, Op: ir.OpAdd, Kind: ir.KindInt, Left: a, Right: b},
			ir.Return{With: sum},
		},
	}
	prog := &ir.Program{Functions: []*ir.Function{fn}, Entry: "main"}
	out := &bytes.Buffer{}
	m := vm.New(prog, nil, runtime.NewABI(out))
	ret, err := m.Run("main")
	require.NoError(t, err)
	require.Equal(t, int64(42), ret.Int())
}

func TestCondJumpTakesTrueBranch(t *testing.T) {
	cond, res := reg(0, ir.KindInt), reg(1, ir.KindInt)
	fn := &ir.Function{
		Name: "main",
		Body: []ir.Instruction{
			ir.Mov{To: cond, What: ir.IntImm{Value: 1}},
			ir.CondJump{Cond: cond, IfTrue: "yes", IfFalse: "no"},
			ir.Label{Name: "no"},
			ir.Mov{To: res, What: ir.IntImm{Value: 0}},
			ir.Jump{To: "end"},
			ir.Label{Name: "yes"},
			ir.Mov{To: res, What: ir.IntImm{Value: 7}},
			ir.Jump{To: "end"},
			ir.Label{Name: "end"},
			ir.Return{With: res},
		},
	}
	prog := &ir.Program{Functions: []*ir.Function{fn}, Entry: "main"}
	m := vm.New(prog, nil, runtime.NewABI(nil))
	ret, err := m.Run("main")
	require.NoError(t, err)
	require.Equal(t, int64(7), ret.Int())
}

func TestCallDispatchesToLiftedFunction(t *testing.T) {
	p0 := reg(0, ir.KindInt)
	callee := &ir.Function{
		Name:   "double",
		Params: []string{"n"},
		Body: []ir.Instruction{
			ir.Arith{To: reg(1, ir.KindInt), Op: ir.OpMul, Kind: ir.KindInt, Left: p0, Right: ir.IntImm{Value: 2}},
			ir.Return{With: reg(1, ir.KindInt)},
		},
	}
	dest := reg(2, ir.KindInt)
	caller := &ir.Function{
		Name: "main",
		Body: []ir.Instruction{
			ir.Call{Dest: dest, Callee: ir.Global{Name: "double"}, Args: []ir.Value{ir.IntImm{Value: 21}}},
			ir.Return{With: dest},
		},
	}
	prog := &ir.Program{Functions: []*ir.Function{callee, caller}, Entry: "main"}
	m := vm.New(prog, nil, runtime.NewABI(nil))
	ret, err := m.Run("main")
	require.NoError(t, err)
	require.Equal(t, int64(42), ret.Int())
}

func TestCallDispatchesToPrintABI(t *testing.T) {
	fn := &ir.Function{
		Name: "main",
		Body: []ir.Instruction{
			ir.Call{Callee: ir.Global{Name: "mvs_print_i64"}, Args: []ir.Value{ir.IntImm{Value: 9}}},
			ir.Return{With: ir.IntImm{Value: 0}},
		},
	}
	prog := &ir.Program{Functions: []*ir.Function{fn}, Entry: "main"}
	out := &bytes.Buffer{}
	m := vm.New(prog, nil, runtime.NewABI(out))
	_, err := m.Run("main")
	require.NoError(t, err)
	require.Equal(t, "9\n", out.String())
}

func TestRunUnknownEntryErrors(t *testing.T) {
	prog := &ir.Program{Functions: nil, Entry: "main"}
	m := vm.New(prog, nil, runtime.NewABI(nil))
	_, err := m.Run("main")
	require.Error(t, err)
}
