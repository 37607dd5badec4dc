package check_test

import (
	"testing"

	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/check"
	"github.com/susji/mvsc/lex"
	"github.com/susji/mvsc/parse"
	"github.com/susji/mvsc/span"
	"github.com/susji/mvsc/testers/require"
	"github.com/susji/mvsc/token"
	"github.com/susji/mvsc/types"
)

func tok() *token.Token {
	return token.New(token.IntLit, span.Span{}, "1")
}

func intLit(v int64) *ast.IntLit {
	return ast.Store(tok(), &ast.IntLit{Value: v}).(*ast.IntLit)
}

func checkSource(t *testing.T, src string) (*check.Checker, *ast.Program, error) {
	t.Helper()
	toks, errs := lex.Lex([]rune(src))
	require.Equal(t, 0, len(errs))
	prog, err := parse.New().Program(toks)
	require.NoError(t, err)
	c := check.New()
	return c, prog, c.Check(prog)
}

func TestCheckIntLiteral(t *testing.T) {
	_, _, err := checkSource(t, "1")
	require.NoError(t, err)
}

func TestCheckUndefinedNameErrors(t *testing.T) {
	_, _, err := checkSource(t, "x")
	require.Error(t, err)
}

func TestCheckBindingResolvesBodyType(t *testing.T) {
	c, prog, err := checkSource(t, "let x = 1 in x")
	require.NoError(t, err)
	require.Equal(t, types.Int, c.Type(prog.Entry))
}

func TestCheckArithOperandMismatchErrors(t *testing.T) {
	_, _, err := checkSource(t, "1 + 1.0")
	require.Error(t, err)
}

func TestCheckCondWithMatchingBranchesIsFine(t *testing.T) {
	_, _, err := checkSource(t, "if 1 ? 1 ! 1")
	require.NoError(t, err)
}

func TestCheckCallArgCountMismatchErrors(t *testing.T) {
	_, _, err := checkSource(t, "fun f (n: Int) -> Int { n } in f()")
	require.Error(t, err)
}

func TestCheckInoutArgRequiresAmpersandPath(t *testing.T) {
	_, _, err := checkSource(t, "var x = 1 in fun f (n: inout Int) -> Int { n } in f(x)")
	require.Error(t, err)
}

func TestCheckInoutOnLetBindingErrors(t *testing.T) {
	_, _, err := checkSource(t, "let x = 1 in fun f (n: inout Int) -> Int { n } in f(&x)")
	require.Error(t, err)
}

func TestCheckOverlappingInoutArgsErrors(t *testing.T) {
	_, _, err := checkSource(t,
		"var x = 1 in fun f (a: inout Int, b: inout Int) -> Int { a } in f(&x, &x)")
	require.Error(t, err)
}

func TestCheckDisjointInoutArgsIsFine(t *testing.T) {
	_, _, err := checkSource(t,
		"var x = 1 in var y = 2 in fun f (a: inout Int, b: inout Int) -> Int { a } in f(&x, &y)")
	require.NoError(t, err)
}

func TestCheckOverlappingInoutArgsMixedDepthErrors(t *testing.T) {
	_, _, err := checkSource(t,
		"struct P { var x: Int } in var p = P(1) in "+
			"fun f (a: inout P, b: inout Int) -> Int { b } in f(&p, &p.x)")
	require.Error(t, err)
}

func TestCheckAssignToLetErrors(t *testing.T) {
	_, _, err := checkSource(t, "let x = 1 in x = 2 in x")
	require.Error(t, err)
}

func TestCheckAssignToVarIsFine(t *testing.T) {
	_, _, err := checkSource(t, "var x = 1 in x = 2 in x")
	require.NoError(t, err)
}

func TestCheckDuplicateStructDeclErrors(t *testing.T) {
	// the parser itself already rejects a second `struct P` by name
	// before Check ever runs, so exercising check.Checker's own
	// ErrDuplicateStruct path means handing it a Program built directly
	// rather than going through package parse.
	p1 := &ast.StructDecl{Name: "P", Members: []*ast.FieldDecl{{Name: "x", Sig: &ast.IntSign{}}}}
	p2 := &ast.StructDecl{Name: "P", Members: []*ast.FieldDecl{{Name: "y", Sig: &ast.IntSign{}}}}
	ast.Store(tok(), p1)
	ast.Store(tok(), p2)
	prog := &ast.Program{Types: []*ast.StructDecl{p1, p2}, Entry: intLit(1)}
	c := check.New()
	require.Error(t, c.Check(prog))
}

func TestCheckStructLiteralArgCountMismatchErrors(t *testing.T) {
	_, _, err := checkSource(t, "struct P { let x: Int; let y: Int } in P(1)")
	require.Error(t, err)
}

func TestCheckArrayLiteralElementMismatchErrors(t *testing.T) {
	_, _, err := checkSource(t, "[1, 1.0]")
	require.Error(t, err)
}

func TestCheckEmptyArrayLiteralWithoutContextErrors(t *testing.T) {
	_, _, err := checkSource(t, "[]")
	require.Error(t, err)
}

func TestCheckCastBetweenMismatchedTypesErrors(t *testing.T) {
	_, _, err := checkSource(t, "1 as Float")
	require.Error(t, err)
}

func TestCheckCastToAnyIsFine(t *testing.T) {
	_, _, err := checkSource(t, "1 as Any")
	require.NoError(t, err)
}

func TestCheckBuiltinSqrtIsInScope(t *testing.T) {
	_, _, err := checkSource(t, "sqrt(4.0)")
	require.NoError(t, err)
}
