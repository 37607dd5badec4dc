package ast_test

import (
	"testing"

	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/span"
	"github.com/susji/mvsc/testers/require"
	"github.com/susji/mvsc/token"
)

func tok() *token.Token {
	return token.New(token.IntLit, span.Span{}, "1")
}

func TestStoreAssignsIncreasingIDsAndTracksTok(t *testing.T) {
	n1 := ast.Store(tok(), &ast.IntLit{Value: 1})
	n2 := ast.Store(tok(), &ast.IntLit{Value: 2})
	require.True(t, n2.ID() > n1.ID())
	require.NotNil(t, ast.Tok(n1.ID()))
}

func TestStorePanicsOnNilNode(t *testing.T) {
	defer func() { require.NotNil(t, recover()) }()
	ast.Store(tok(), nil)
}

func TestStorePanicsOnNilToken(t *testing.T) {
	defer func() { require.NotNil(t, recover()) }()
	ast.Store(nil, &ast.IntLit{Value: 1})
}

func TestAsPathRecognizesPathNodes(t *testing.T) {
	n := &ast.NamePath{Name: "x"}
	p, ok := ast.AsPath(n)
	require.True(t, ok)
	require.Equal(t, "x", p.String())

	_, ok = ast.AsPath(&ast.IntLit{Value: 1})
	require.False(t, ok)
}

func TestMutabilityString(t *testing.T) {
	require.Equal(t, "let", ast.Let.String())
	require.Equal(t, "var", ast.Var.String())
}

func TestOperKindStringAndClassification(t *testing.T) {
	require.Equal(t, "+", ast.OpAdd.String())
	require.True(t, ast.OpAdd.IsArith())
	require.False(t, ast.OpAdd.IsOrdered())
	require.True(t, ast.OpLt.IsOrdered())
	require.True(t, ast.OpEq.IsEquality())
	require.False(t, ast.OpLt.IsEquality())
}

func TestBindingDeclString(t *testing.T) {
	d := &ast.BindingDecl{Mutability: ast.Let, Name: "x"}
	require.Equal(t, "(decl let x)", d.String())
}

func TestInfixString(t *testing.T) {
	n := &ast.Infix{Op: ast.OpAdd, Left: &ast.IntLit{Value: 1}, Right: &ast.IntLit{Value: 2}}
	require.Equal(t, "(1 + 2)", n.String())
}

func TestElemPathAndPropPathString(t *testing.T) {
	base := &ast.NamePath{Name: "x"}
	prop := &ast.PropPath{Base: base, Name: "y"}
	require.Equal(t, "x.y", prop.String())
	elem := &ast.ElemPath{Base: base, Index: &ast.IntLit{Value: 0}}
	require.Equal(t, "x[0]", elem.String())
}

func TestWildcardString(t *testing.T) {
	require.Equal(t, "_", (&ast.Wildcard{}).String())
}

func TestFuncSignString(t *testing.T) {
	s := &ast.FuncSign{Params: []ast.Sign{&ast.IntSign{}, &ast.FloatSign{}}, Output: &ast.IntSign{}}
	require.Equal(t, "(Int, Float) -> Int", s.String())
}

func TestInoutSignString(t *testing.T) {
	s := &ast.InoutSign{Base: &ast.IntSign{}}
	require.Equal(t, "inout Int", s.String())
}
