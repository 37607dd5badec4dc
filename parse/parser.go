// Package parse implements a recursive-descent parser for the mvs-calculus
// surface grammar of spec.md §6.
package parse

import (
	"fmt"

	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/diag"
	"github.com/susji/mvsc/token"
)

// Parser holds the state needed to turn a token.Tokens stream into an
// ast.Program: the source file name (for diagnostics), the accumulated
// diagnostics, and the set of struct names seen so far (used to decide
// whether `Name(args)` is a struct literal or a call, the way the teacher
// package tracked `typedef` names while parsing).
type Parser struct {
	fn          string
	diags       diag.Bag
	structNames map[string]struct{}
}

func New() *Parser {
	return NewFile("<stdin>")
}

func NewFile(fn string) *Parser {
	return &Parser{fn: fn, structNames: map[string]struct{}{}}
}

func (p *Parser) Diagnostics() []*diag.Diagnostic { return p.diags.All() }

func (p *Parser) errorf(tok *token.Token, err error, format string, a ...interface{}) error {
	wrapped := fmt.Errorf("%w: %s", err, fmt.Sprintf(format, a...))
	line, col := 1, 1
	if tok != nil {
		line, col = tok.Lineno(), tok.Col()
	}
	p.diags.Add(diag.New(p.fn, line, col, diag.Error, wrapped))
	return wrapped
}

func (p *Parser) expect(toks *token.Tokens, kind token.Kind) (*token.Token, error) {
	cur := toks.Peek()
	if cur == nil || cur.Kind() != kind {
		return nil, p.errorf(cur, ErrMissingToken, "expected %q", kind)
	}
	toks.Pop()
	return cur, nil
}

// Program parses the whole token stream: zero or more `struct NAME { ... }
// in` prefixes, then a single entry expression.
func (p *Parser) Program(toks *token.Tokens) (*ast.Program, error) {
	prog := &ast.Program{}
	for {
		cur := toks.Peek()
		if cur == nil {
			return nil, p.errorf(nil, ErrEmptyProgram, "unexpected end of input")
		}
		if cur.Kind() != token.KwStruct {
			break
		}
		sd, err := p.structDecl(toks)
		if err != nil {
			toks.Find(token.RCurly)
			toks.Pop()
			continue
		}
		prog.Types = append(prog.Types, sd)
		p.structNames[sd.Name] = struct{}{}
		if _, err := p.expect(toks, token.KwIn); err != nil {
			return nil, err
		}
	}
	entry, err := p.expr(toks)
	if err != nil {
		return nil, err
	}
	prog.Entry = entry
	if p.diags.HasErrors() {
		return nil, fmt.Errorf("parsing encountered errors")
	}
	return prog, nil
}

func (p *Parser) structDecl(toks *token.Tokens) (*ast.StructDecl, error) {
	kwtok, err := p.expect(toks, token.KwStruct)
	if err != nil {
		return nil, err
	}
	nametok, err := p.expect(toks, token.Id)
	if err != nil {
		return nil, err
	}
	if _, ok := p.structNames[nametok.Value()]; ok {
		return nil, p.errorf(nametok, ErrDuplicateStruct, "%s", nametok.Value())
	}
	if _, err := p.expect(toks, token.LCurly); err != nil {
		return nil, err
	}
	sd := &ast.StructDecl{Name: nametok.Value()}
	ast.Store(kwtok, sd)
	seen := map[string]struct{}{}
	for {
		cur := toks.Peek()
		if cur == nil {
			return nil, p.errorf(nil, ErrMissingToken, "expected %q", token.RCurly)
		}
		if cur.Kind() == token.RCurly {
			toks.Pop()
			break
		}
		fd, err := p.fieldDecl(toks)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[fd.Name]; ok {
			return nil, p.errorf(nametok, ErrDuplicateStructField, "%s", fd.Name)
		}
		seen[fd.Name] = struct{}{}
		sd.Members = append(sd.Members, fd)
		for toks.Peek() != nil && toks.Peek().Kind() == token.Semicolon {
			toks.Pop()
		}
	}
	return sd, nil
}

func (p *Parser) fieldDecl(toks *token.Tokens) (*ast.FieldDecl, error) {
	mut, muttok, err := p.mutability(toks)
	if err != nil {
		return nil, err
	}
	nametok, err := p.expect(toks, token.Id)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(toks, token.Colon); err != nil {
		return nil, p.errorf(nametok, ErrMissingAnnotation, "struct field %q needs a type", nametok.Value())
	}
	sig, err := p.sign(toks)
	if err != nil {
		return nil, err
	}
	fd := &ast.FieldDecl{Mutability: mut, Name: nametok.Value(), Sig: sig}
	ast.Store(muttok, fd)
	return fd, nil
}

func (p *Parser) mutability(toks *token.Tokens) (ast.Mutability, *token.Token, error) {
	cur := toks.Peek()
	if cur == nil {
		return 0, nil, p.errorf(nil, ErrMissingToken, "expected %q or %q", token.KwLet, token.KwVar)
	}
	switch cur.Kind() {
	case token.KwLet:
		toks.Pop()
		return ast.Let, cur, nil
	case token.KwVar:
		toks.Pop()
		return ast.Var, cur, nil
	default:
		return 0, nil, p.errorf(cur, ErrUnexpectedToken, "expected %q or %q", token.KwLet, token.KwVar)
	}
}
