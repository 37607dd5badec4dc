// Package lex turns mvs-calculus source text into a token.Tokens stream,
// using the parser-combinator chassis of package primitives.
package lex

import (
	"fmt"

	pr "github.com/susji/mvsc/primitives"
	"github.com/susji/mvsc/span"
	"github.com/susji/mvsc/token"
)

// Whitespace.
var Whitespace = pr.Runes(" \t\r\v")
var WhitespaceN = Whitespace.OneOrMore()
var Linefeed = pr.Rune('\n')

// `// ...` to end of line.
var CommentLine = pr.Discard(pr.String("//")).
	And(pr.ExceptString("\n").ZeroOrMore())

// Identifiers: [a-zA-Z_][a-zA-Z0-9_]*
var plow = pr.RuneRange('a', 'z')
var pupp = pr.RuneRange('A', 'Z')
var pdig = pr.RuneRange('0', '9')
var pus = pr.Rune('_')
var Identifier = plow.Or(pupp).Or(pus).
	And(pupp.Or(pus).Or(plow).Or(pdig).ZeroOrMore())

// Numeric literals.
var pdig0 = pr.RuneRange('0', '9')
var Digits = pdig0.OneOrMore()
var FloatLit = Digits.And(pr.Rune('.').And(Digits)).
	Or(Digits.And(pr.Runes("eE").
		And(pr.Runes("+-").Optional()).
		And(Digits)))
var IntLit = Digits

// Two-rune operators must be tried before their one-rune prefixes.
var OpTwo = pr.Strings("==", "!=", "<=", ">=", "->")
var OpOne = pr.Runes("+-*/<>=&?!_.:")
var Separators = pr.Runes("(){}[];,")

func Lex(what []rune) (*token.Tokens, []error) {
	toks := &token.Tokens{}
	state := pr.NewState(what)
	var lineno0, col0 int

	nt := func(st *pr.State, kind token.Kind) {
		lineno, col := st.Pos()
		sp := span.Span{
			Lineno0: lineno0, Col0: col0,
			Lineno: lineno, Col: col,
		}
		toks.Add(token.New(kind, sp, st.String()))
	}

	ident := func(st *pr.State) {
		got := st.String()
		if kw, ok := token.Keywords[got]; ok {
			nt(st, kw)
		} else {
			nt(st, token.Id)
		}
	}

	all := WhitespaceN.Pipe(func(*pr.State) {}).
		Or(Linefeed.Pipe(func(*pr.State) {})).
		Or(CommentLine.Pipe(func(st *pr.State) { nt(st, token.CommentLine) })).
		Or(FloatLit.Pipe(func(st *pr.State) { nt(st, token.FloatLit) })).
		Or(IntLit.Pipe(func(st *pr.State) { nt(st, token.IntLit) })).
		Or(OpTwo.Pipe(func(st *pr.State) {
			switch st.String() {
			case "==":
				nt(st, token.EqEq)
			case "!=":
				nt(st, token.Ne)
			case "<=":
				nt(st, token.Le)
			case ">=":
				nt(st, token.Ge)
			case "->":
				nt(st, token.Arrow)
			default:
				panic(fmt.Sprintf("unrecognized two-rune operator: %q", st.String()))
			}
		})).
		Or(OpOne.Pipe(func(st *pr.State) {
			switch st.String() {
			case "+":
				nt(st, token.Plus)
			case "-":
				nt(st, token.Minus)
			case "*":
				nt(st, token.Star)
			case "/":
				nt(st, token.Slash)
			case "<":
				nt(st, token.Lt)
			case ">":
				nt(st, token.Gt)
			case "=":
				nt(st, token.Assign)
			case "&":
				nt(st, token.Ampersand)
			case "?":
				nt(st, token.Quest)
			case "!":
				nt(st, token.Exclam)
			case "_":
				nt(st, token.Underscore)
			case ".":
				nt(st, token.Dot)
			case ":":
				nt(st, token.Colon)
			default:
				panic(fmt.Sprintf("unrecognized operator: %q", st.String()))
			}
		})).
		Or(Separators.Pipe(func(st *pr.State) {
			switch st.String() {
			case "(":
				nt(st, token.LParen)
			case ")":
				nt(st, token.RParen)
			case "{":
				nt(st, token.LCurly)
			case "}":
				nt(st, token.RCurly)
			case "[":
				nt(st, token.LBrack)
			case "]":
				nt(st, token.RBrack)
			case ";":
				nt(st, token.Semicolon)
			case ",":
				nt(st, token.Comma)
			default:
				panic(fmt.Sprintf("unrecognized separator: %q", st.String()))
			}
		})).
		Or(Identifier.Pipe(ident)).Discard()

	prevlen := len(state.Left())
	var errs []error
	for state.LenLeft() > 0 {
		lineno0, col0 = state.Pos()
		res := all.Do(state)
		if err := res.Error(); err != nil {
			errs = append(errs, err)
		}
		state = res.State()
		curlen := len(state.Left())
		if prevlen == curlen {
			// Nothing was consumed: bail out rather than loop forever.
			break
		}
		prevlen = curlen
	}
	return toks, errs
}
