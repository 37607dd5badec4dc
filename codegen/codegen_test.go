package codegen_test

import (
	"testing"

	"github.com/susji/mvsc/check"
	"github.com/susji/mvsc/codegen"
	"github.com/susji/mvsc/ir"
	"github.com/susji/mvsc/lex"
	"github.com/susji/mvsc/parse"
	"github.com/susji/mvsc/testers/require"
)

func compile(t *testing.T, src string) *ir.Program {
	t.Helper()
	toks, errs := lex.Lex([]rune(src))
	require.Equal(t, 0, len(errs))
	prog, err := parse.New().Program(toks)
	require.NoError(t, err)
	c := check.New()
	require.NoError(t, c.Check(prog))
	cg := codegen.New(c.Type, c.Mutability, c.FuncLiteralType)
	out, err := cg.Compile(prog)
	require.NoError(t, err)
	return out
}

func hasInstr(instrs []ir.Instruction, pred func(ir.Instruction) bool) bool {
	for _, i := range instrs {
		if pred(i) {
			return true
		}
	}
	return false
}

func mainOf(out *ir.Program) *ir.Function {
	for _, f := range out.Functions {
		if f.Name == out.Entry {
			return f
		}
	}
	return nil
}

func TestCompileIntLiteralReturnsImmediate(t *testing.T) {
	out := compile(t, "42")
	require.Equal(t, "main", out.Entry)
	main := mainOf(out)
	require.NotNil(t, main)
	require.True(t, hasInstr(main.Body, func(i ir.Instruction) bool {
		ret, ok := i.(ir.Return)
		return ok && ret.With == ir.IntImm{Value: 42}
	}))
}

func TestCompileArithEmitsArithInstruction(t *testing.T) {
	out := compile(t, "1 + 2")
	main := mainOf(out)
	require.True(t, hasInstr(main.Body, func(i ir.Instruction) bool {
		a, ok := i.(ir.Arith)
		return ok && a.Op == ir.OpAdd
	}))
}

func TestCompileComparisonEmitsCmpInstruction(t *testing.T) {
	out := compile(t, "1 < 2")
	main := mainOf(out)
	require.True(t, hasInstr(main.Body, func(i ir.Instruction) bool {
		c, ok := i.(ir.Cmp)
		return ok && c.Op == ir.CmpLt
	}))
}

func TestCompileCondEmitsCondJump(t *testing.T) {
	out := compile(t, "if 1 ? 2 ! 3")
	main := mainOf(out)
	require.True(t, hasInstr(main.Body, func(i ir.Instruction) bool {
		_, ok := i.(ir.CondJump)
		return ok
	}))
}

func TestCompileFuncBindingLiftsSeparateFunction(t *testing.T) {
	out := compile(t, "fun f (n: Int) -> Int { n } in f(1)")
	require.True(t, len(out.Functions) >= 2)
}

func TestCompileArrayLiteralEmitsArrayInit(t *testing.T) {
	out := compile(t, "[1, 2, 3]")
	main := mainOf(out)
	require.True(t, hasInstr(main.Body, func(i ir.Instruction) bool {
		_, ok := i.(ir.ArrayInit)
		return ok
	}))
}

func TestCompileStructLiteralEmitsAlloca(t *testing.T) {
	out := compile(t, "struct P { let x: Int; let y: Int } in P(1, 2)")
	main := mainOf(out)
	require.True(t, hasInstr(main.Body, func(i ir.Instruction) bool {
		_, ok := i.(ir.Alloca)
		return ok
	}))
}

func TestCompileDumpDoesNotPanic(t *testing.T) {
	out := compile(t, "let x = 1 in x + 1")
	require.True(t, len(out.Dump()) > 0)
}
