// Package token implements the lexical tokens of mvs-calculus and the FIFO
// token stream the parser consumes.
package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/susji/mvsc/span"
)

var EOT = errors.New("end of tokens")

// Tokens implements a FIFO for individual tokens.
type Tokens struct {
	toks []Token
}

type Token struct {
	span  span.Span
	kind  Kind
	value string
}

func New(kind Kind, sp span.Span, value string) Token {
	if !validkind(kind) {
		panic(fmt.Sprintf("invalid token kind: %v", kind))
	}
	return Token{kind: kind, value: value, span: sp}
}

type Kind int

const (
	Id = iota
	IntLit
	FloatLit
	// keywords
	KwStruct
	KwLet
	KwVar
	KwFun
	KwIf
	KwIn
	KwWhile
	KwInout
	KwAs
	// separators
	LParen
	RParen
	LCurly
	RCurly
	LBrack
	RBrack
	Comma
	Semicolon
	// operators
	Plus
	Minus
	Star
	Slash
	EqEq
	Ne
	Lt
	Le
	Gt
	Ge
	Assign
	Ampersand
	Quest
	Exclam
	Underscore
	Arrow
	Dot
	Colon
	CommentLine
)

var toknames = [...]string{
	"id",
	"intlit",
	"floatlit",
	"struct",
	"let",
	"var",
	"fun",
	"if",
	"in",
	"while",
	"inout",
	"as",
	"(",
	")",
	"{",
	"}",
	"[",
	"]",
	",",
	";",
	"+",
	"-",
	"*",
	"/",
	"==",
	"!=",
	"<",
	"<=",
	">",
	">=",
	"=",
	"&",
	"?",
	"!",
	"_",
	"->",
	".",
	":",
	"// comment",
}

// Keywords maps identifier spellings to their reserved keyword kind.
var Keywords = map[string]Kind{
	"struct": KwStruct,
	"let":    KwLet,
	"var":    KwVar,
	"fun":    KwFun,
	"if":     KwIf,
	"in":     KwIn,
	"while":  KwWhile,
	"inout":  KwInout,
	"as":     KwAs,
}

func (k Kind) String() string {
	return toknames[k]
}

func validkind(kind Kind) bool {
	return kind >= 0 && int(kind) <= len(toknames)-1
}

func (tok *Token) String() string {
	switch tok.kind {
	case Id, IntLit, FloatLit:
		return tok.value
	case CommentLine:
		return fmt.Sprintf("// %s", tok.value)
	default:
		return fmt.Sprintf("%q", toknames[tok.kind])
	}
}

func (tok *Token) Value() string { return tok.value }
func (tok *Token) Kind() Kind    { return tok.kind }
func (tok *Token) Lineno() int   { return tok.span.Lineno0 }
func (tok *Token) Col() int      { return tok.span.Col0 }
func (tok *Token) Span() span.Span {
	return tok.span
}

func (toks *Tokens) Add(tok Token) *Tokens {
	toks.toks = append(toks.toks, tok)
	return toks
}

func (toks *Tokens) String() string {
	b := &strings.Builder{}
	for _, tok := range toks.toks {
		b.WriteString(fmt.Sprintf("[%d:%d] %s\n", tok.Lineno(), tok.Col(), tok.String()))
	}
	return b.String()
}

func (toks *Tokens) Len() int { return len(toks.toks) }

func (toks *Tokens) Pop() *Token {
	if toks.Len() == 0 {
		return nil
	}
	if toks.Len() == 1 {
		tok := &toks.toks[0]
		toks.toks = nil
		return tok
	}
	var tok Token
	tok, toks.toks = toks.toks[0], toks.toks[1:]
	return &tok
}

// Peek returns the current token-to-be-parsed. It never returns comment
// tokens.
func (toks *Tokens) Peek() *Token {
nocoms:
	for {
		if toks.Len() == 0 {
			return nil
		}
		switch toks.toks[0].Kind() {
		case CommentLine:
			toks.Pop()
			continue nocoms
		default:
			return &toks.toks[0]
		}
	}
}

// PeekAll returns the current token-to-be-parsed, comments included.
func (toks *Tokens) PeekAll() *Token {
	if toks.Len() == 0 {
		return nil
	}
	return &toks.toks[0]
}

func (toks *Tokens) Accept(kind Kind) error {
	cur := toks.Peek()
	if cur == nil {
		return EOT
	}
	got := cur.Kind()
	if got != kind {
		return fmt.Errorf("expecting %q, got %v", toknames[kind], cur)
	}
	toks.Pop()
	return nil
}

func (toks *Tokens) Find(kinds ...Kind) *Token {
	find := map[Kind]struct{}{}
	for _, kind := range kinds {
		find[kind] = struct{}{}
	}
	for {
		cur := toks.Peek()
		if cur == nil {
			return nil
		}
		if _, ok := find[cur.Kind()]; ok {
			return cur
		}
		toks.Pop()
	}
}
