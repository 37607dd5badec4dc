package capture_test

import (
	"errors"
	"testing"

	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/capture"
	"github.com/susji/mvsc/span"
	"github.com/susji/mvsc/testers/require"
	"github.com/susji/mvsc/token"
	"github.com/susji/mvsc/types"
)

func tok() *token.Token {
	return token.New(token.Id, span.Span{}, "x")
}

func name(n string) *ast.NamePath {
	return ast.Store(tok(), &ast.NamePath{Name: n}).(*ast.NamePath)
}

func intTypeOf(ast.Node) *types.Type { return types.Int }

func TestAnalyzeFindsFreeVariable(t *testing.T) {
	fn := &ast.Func{Body: name("y")}
	ast.Store(tok(), fn)
	res, err := capture.Analyze(fn, intTypeOf)
	require.NoError(t, err)
	require.Equal(t, []string{"y"}, res.Names())
}

func TestAnalyzeExcludesParams(t *testing.T) {
	fn := &ast.Func{
		Params: []*ast.ParamDecl{{Name: "y"}},
		Body:   name("y"),
	}
	ast.Store(tok(), fn)
	res, err := capture.Analyze(fn, intTypeOf)
	require.NoError(t, err)
	require.Equal(t, 0, len(res.Names()))
}

func TestAnalyzeExcludesLocalBinding(t *testing.T) {
	decl := ast.Store(tok(), &ast.BindingDecl{Mutability: ast.Let, Name: "z"}).(*ast.BindingDecl)
	binding := ast.Store(tok(), &ast.Binding{
		Decl: decl,
		Init: ast.Store(tok(), &ast.IntLit{Value: 1}).(*ast.IntLit),
		Body: name("z"),
	}).(*ast.Binding)
	fn := &ast.Func{Body: binding}
	ast.Store(tok(), fn)
	res, err := capture.Analyze(fn, intTypeOf)
	require.NoError(t, err)
	require.Equal(t, 0, len(res.Names()))
}

func TestAnalyzeNestedFuncCapturingEnclosingParamIsFine(t *testing.T) {
	inner := &ast.Func{Body: name("y")}
	ast.Store(tok(), inner)
	outer := &ast.Func{
		Params: []*ast.ParamDecl{{Name: "y"}},
		Body:   inner,
	}
	ast.Store(tok(), outer)
	res, err := capture.Analyze(outer, intTypeOf)
	require.NoError(t, err)
	require.Equal(t, 0, len(res.Names()))
}

func TestAnalyzeNestedFuncNonLocalCaptureErrors(t *testing.T) {
	// "g" is free for the literal under analysis (middle has no params
	// or locals binding it) and a grandparent scope outside middle is
	// not visible to this Analyze call, so the nested reference to "g"
	// inside deepest must be rejected rather than silently treated as
	// an ordinary capture of middle.
	deepest := &ast.Func{Body: name("g")}
	ast.Store(tok(), deepest)
	middle := &ast.Func{Body: deepest}
	ast.Store(tok(), middle)
	_, err := capture.Analyze(middle, intTypeOf)
	require.True(t, err != nil)
	require.True(t, errors.Is(err, capture.ErrNonLocalCapture))
}

func TestAnalyzeNamesAreSorted(t *testing.T) {
	infix := ast.Store(tok(), &ast.Infix{Op: ast.OpAdd, Left: name("z"), Right: name("a")}).(*ast.Infix)
	fn := &ast.Func{Body: infix}
	ast.Store(tok(), fn)
	res, err := capture.Analyze(fn, intTypeOf)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "z"}, res.Names())
}
