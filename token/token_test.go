package token_test

import (
	"errors"
	"testing"

	"github.com/susji/mvsc/span"
	"github.com/susji/mvsc/testers/require"
	"github.com/susji/mvsc/token"
)

func tok(kind token.Kind, value string) token.Token {
	return token.New(kind, span.Span{}, value)
}

func TestValueAndKind(t *testing.T) {
	tk := tok(token.Id, "foo")
	require.Equal(t, "foo", tk.Value())
	require.Equal(t, token.Id, tk.Kind())
}

func TestStringRendersKeywordQuoted(t *testing.T) {
	tk := tok(token.KwLet, "let")
	require.Equal(t, `"let"`, tk.String())
}

func TestStringRendersIdentifierBare(t *testing.T) {
	tk := tok(token.Id, "foo")
	require.Equal(t, "foo", tk.String())
}

func TestPopDrainsFIFOOrder(t *testing.T) {
	toks := &token.Tokens{}
	toks.Add(tok(token.Id, "a")).Add(tok(token.Id, "b"))
	require.Equal(t, 2, toks.Len())
	require.Equal(t, "a", toks.Pop().Value())
	require.Equal(t, "b", toks.Pop().Value())
	require.Equal(t, 0, toks.Len())
	require.Nil(t, toks.Pop())
}

func TestPeekSkipsComments(t *testing.T) {
	toks := &token.Tokens{}
	toks.Add(tok(token.CommentLine, "hi")).Add(tok(token.Id, "x"))
	require.Equal(t, "x", toks.Peek().Value())
}

func TestPeekAllSeesComments(t *testing.T) {
	toks := &token.Tokens{}
	toks.Add(tok(token.CommentLine, "hi"))
	require.Equal(t, token.CommentLine, toks.PeekAll().Kind())
}

func TestAcceptMatching(t *testing.T) {
	toks := &token.Tokens{}
	toks.Add(tok(token.KwLet, "let"))
	require.NoError(t, toks.Accept(token.KwLet))
}

func TestAcceptMismatch(t *testing.T) {
	toks := &token.Tokens{}
	toks.Add(tok(token.KwLet, "let"))
	require.Error(t, toks.Accept(token.KwVar))
}

func TestAcceptOnEmptyReturnsEOT(t *testing.T) {
	toks := &token.Tokens{}
	err := toks.Accept(token.Id)
	require.True(t, errors.Is(err, token.EOT))
}
