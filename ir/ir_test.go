package ir_test

import (
	"strings"
	"testing"

	"github.com/susji/mvsc/ir"
	"github.com/susji/mvsc/testers/require"
)

func TestVariableString(t *testing.T) {
	v := &ir.Variable{Name: "t", Count: 3, Kind: ir.KindInt}
	require.Equal(t, "%t_3", v.String())
}

func TestVariableStringWithoutNameUsesCount(t *testing.T) {
	v := &ir.Variable{Count: 5}
	require.Equal(t, "%5", v.String())
}

func TestIntImmString(t *testing.T) {
	require.Equal(t, "42", ir.IntImm{Value: 42}.String())
}

func TestFloatImmString(t *testing.T) {
	require.Equal(t, "1.5", ir.FloatImm{Value: 1.5}.String())
}

func TestGlobalString(t *testing.T) {
	require.Equal(t, "@foo$init", ir.Global{Name: "foo$init"}.String())
}

func TestLabelString(t *testing.T) {
	require.Equal(t, "entry:", ir.Label{Name: "entry"}.String())
}

func TestJumpString(t *testing.T) {
	require.Equal(t, "JUMP exit", ir.Jump{To: "exit"}.String())
}

func TestCondJumpString(t *testing.T) {
	i := ir.CondJump{Cond: ir.IntImm{Value: 1}, IfTrue: "t", IfFalse: "f"}
	require.True(t, strings.Contains(i.String(), "t"))
	require.True(t, strings.Contains(i.String(), "f"))
}

func TestMovString(t *testing.T) {
	i := ir.Mov{To: &ir.Variable{Name: "a"}, What: ir.IntImm{Value: 1}}
	require.Equal(t, "%a_0 = MOV 1", i.String())
}

func TestArithOpString(t *testing.T) {
	require.Equal(t, "ADD", ir.OpAdd.String())
	require.Equal(t, "SUB", ir.OpSub.String())
	require.Equal(t, "MUL", ir.OpMul.String())
	require.Equal(t, "DIV", ir.OpDiv.String())
}

func TestCmpOpString(t *testing.T) {
	require.Equal(t, "EQ", ir.CmpEq.String())
	require.Equal(t, "LT", ir.CmpLt.String())
}

func TestReturnString(t *testing.T) {
	require.Equal(t, "RET 7", ir.Return{With: ir.IntImm{Value: 7}}.String())
}

func TestFunctionDumpListsEveryInstructionWithIndex(t *testing.T) {
	fn := &ir.Function{
		Name:   "f",
		Params: []string{"n", "env"},
		Body: []ir.Instruction{
			ir.Label{Name: "f.entry"},
			ir.Return{With: ir.IntImm{Value: 0}},
		},
	}
	dump := fn.Dump()
	require.True(t, strings.Contains(dump, "func f(n, env):"))
	require.True(t, strings.Contains(dump, "[000]"))
	require.True(t, strings.Contains(dump, "[001]"))
}

func TestProgramDumpConcatenatesFunctions(t *testing.T) {
	p := &ir.Program{
		Entry: "main",
		Functions: []*ir.Function{
			{Name: "main", Body: []ir.Instruction{ir.Return{With: ir.IntImm{Value: 1}}}},
			{Name: "f", Body: []ir.Instruction{ir.Return{With: ir.IntImm{Value: 2}}}},
		},
	}
	dump := p.Dump()
	require.True(t, strings.Contains(dump, "func main("))
	require.True(t, strings.Contains(dump, "func f("))
}
