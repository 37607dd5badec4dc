package parse

import (
	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/token"
)

// sign ::= 'Int' | 'Float' | NAME | '[' sign ']' | 'inout' sign
//        | '(' (sign (',' sign)*)? ')' '->' sign
func (p *Parser) sign(toks *token.Tokens) (ast.Sign, error) {
	cur := toks.Peek()
	if cur == nil {
		return nil, p.errorf(nil, ErrMissingToken, "expected a type signature")
	}
	switch cur.Kind() {
	case token.KwInout:
		toks.Pop()
		base, err := p.sign(toks)
		if err != nil {
			return nil, err
		}
		s := &ast.InoutSign{Base: base}
		ast.Store(cur, s)
		return s, nil
	case token.LBrack:
		toks.Pop()
		elem, err := p.sign(toks)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(toks, token.RBrack); err != nil {
			return nil, err
		}
		s := &ast.ArraySign{Elem: elem}
		ast.Store(cur, s)
		return s, nil
	case token.Id:
		toks.Pop()
		switch cur.Value() {
		case "Int":
			s := &ast.IntSign{}
			ast.Store(cur, s)
			return s, nil
		case "Float":
			s := &ast.FloatSign{}
			ast.Store(cur, s)
			return s, nil
		default:
			s := &ast.NamedSign{Name: cur.Value()}
			ast.Store(cur, s)
			return s, nil
		}
	case token.LParen:
		toks.Pop()
		var params []ast.Sign
		if toks.Peek() != nil && toks.Peek().Kind() != token.RParen {
			for {
				s, err := p.sign(toks)
				if err != nil {
					return nil, err
				}
				params = append(params, s)
				if toks.Peek() != nil && toks.Peek().Kind() == token.Comma {
					toks.Pop()
					continue
				}
				break
			}
		}
		if _, err := p.expect(toks, token.RParen); err != nil {
			return nil, err
		}
		if _, err := p.expect(toks, token.Arrow); err != nil {
			return nil, err
		}
		output, err := p.sign(toks)
		if err != nil {
			return nil, err
		}
		s := &ast.FuncSign{Params: params, Output: output}
		ast.Store(cur, s)
		return s, nil
	default:
		return nil, p.errorf(cur, ErrUnexpectedToken, "%v", cur)
	}
}
