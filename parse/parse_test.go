package parse_test

import (
	"testing"

	"github.com/susji/mvsc/lex"
	"github.com/susji/mvsc/parse"
	"github.com/susji/mvsc/testers/require"
)

func parseString(t *testing.T, src string) string {
	t.Helper()
	toks, errs := lex.Lex([]rune(src))
	require.Equal(t, 0, len(errs))
	prog, err := parse.New().Program(toks)
	require.NoError(t, err)
	return prog.Entry.String()
}

func TestParseIntLiteral(t *testing.T) {
	require.Equal(t, "42", parseString(t, "42"))
}

func TestParseArithPrecedence(t *testing.T) {
	require.Equal(t, "(1 + (2 * 3))", parseString(t, "1 + 2 * 3"))
}

func TestParseComparisonBelowAdd(t *testing.T) {
	require.Equal(t, "((1 + 2) < 3)", parseString(t, "1 + 2 < 3"))
}

func TestParseBinding(t *testing.T) {
	require.Equal(t, "((decl let x) = 1 in x)", parseString(t, "let x = 1 in x"))
}

func TestParseCond(t *testing.T) {
	require.Equal(t, "(if 1 ? 2 ! 3)", parseString(t, "if 1 ? 2 ! 3"))
}

func TestParseInoutRef(t *testing.T) {
	require.Equal(t, "&x", parseString(t, "&x"))
}

func TestParseCast(t *testing.T) {
	require.Equal(t, "(1 as Int)", parseString(t, "1 as Int"))
}

func TestParseArrayLiteral(t *testing.T) {
	require.Equal(t, "[1, 2, 3]", parseString(t, "[1, 2, 3]"))
}

func TestParseFuncLiteralAndCall(t *testing.T) {
	got := parseString(t, "(let f = (n: Int) -> Int { n } in f(1))")
	require.Equal(t, "((decl let f) = (func -> Int { n }) in f(1))", got)
}

func TestParseStructDeclAndLiteral(t *testing.T) {
	toks, errs := lex.Lex([]rune("struct P { let x: Int; let y: Int } in P(1, 2)"))
	require.Equal(t, 0, len(errs))
	prog, err := parse.New().Program(toks)
	require.NoError(t, err)
	require.Equal(t, 1, len(prog.Types))
	require.Equal(t, "P", prog.Types[0].Name)
}

func TestParsePropAndElemPath(t *testing.T) {
	require.Equal(t, "x.y", parseString(t, "x.y"))
	require.Equal(t, "x[0]", parseString(t, "x[0]"))
}

func TestParseAssignTail(t *testing.T) {
	require.Equal(t, "(x = 1 in x)", parseString(t, "x = 1 in x"))
}
