package lex_test

import (
	"testing"

	"github.com/susji/mvsc/lex"
	"github.com/susji/mvsc/testers/require"
	"github.com/susji/mvsc/token"
)

func kinds(toks *token.Tokens) []token.Kind {
	var out []token.Kind
	for toks.Len() > 0 {
		out = append(out, toks.Pop().Kind())
	}
	return out
}

func TestLexKeywordsAndIdentifier(t *testing.T) {
	toks, errs := lex.Lex([]rune("let x"))
	require.Equal(t, 0, len(errs))
	require.Equal(t, []token.Kind{token.KwLet, token.Id}, kinds(toks))
}

func TestLexIntAndFloatLiterals(t *testing.T) {
	toks, errs := lex.Lex([]rune("42 3.14"))
	require.Equal(t, 0, len(errs))
	require.Equal(t, []token.Kind{token.IntLit, token.FloatLit}, kinds(toks))
}

func TestLexTwoRuneOperatorsBeforeOneRune(t *testing.T) {
	toks, errs := lex.Lex([]rune("a <= b -> c"))
	require.Equal(t, 0, len(errs))
	require.Equal(t, []token.Kind{token.Id, token.Le, token.Id, token.Arrow, token.Id}, kinds(toks))
}

func TestLexCommentLineIsRetained(t *testing.T) {
	toks, _ := lex.Lex([]rune("// hello\nlet"))
	require.Equal(t, []token.Kind{token.CommentLine, token.KwLet}, kinds(toks))
}

func TestLexSeparatorsAndStruct(t *testing.T) {
	toks, errs := lex.Lex([]rune("struct P { let x: Int }"))
	require.Equal(t, 0, len(errs))
	require.Equal(t, []token.Kind{
		token.KwStruct, token.Id, token.LCurly,
		token.KwLet, token.Id, token.Colon, token.Id,
		token.RCurly,
	}, kinds(toks))
}

func TestLexWhitespaceIsDiscarded(t *testing.T) {
	toks, _ := lex.Lex([]rune("  a\t\tb\n"))
	require.Equal(t, []token.Kind{token.Id, token.Id}, kinds(toks))
}
