package parse

import (
	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/token"
)

// expr ::= cmpExpr
func (p *Parser) expr(toks *token.Tokens) (ast.Expr, error) {
	return p.cmpExpr(toks)
}

var cmpKinds = map[token.Kind]ast.OperKind{
	token.EqEq: ast.OpEq,
	token.Ne:   ast.OpNe,
	token.Lt:   ast.OpLt,
	token.Le:   ast.OpLe,
	token.Ge:   ast.OpGe,
	token.Gt:   ast.OpGt,
}

// cmpExpr ::= castExpr (cmpOp castExpr)*
func (p *Parser) cmpExpr(toks *token.Tokens) (ast.Expr, error) {
	left, err := p.castExpr(toks)
	if err != nil {
		return nil, err
	}
	for {
		cur := toks.Peek()
		if cur == nil {
			break
		}
		opk, ok := cmpKinds[cur.Kind()]
		if !ok {
			break
		}
		toks.Pop()
		right, err := p.castExpr(toks)
		if err != nil {
			return nil, err
		}
		infix := &ast.Infix{Op: opk, Left: left, Right: right}
		ast.Store(cur, infix)
		left = infix
	}
	return left, nil
}

// castExpr ::= addExpr ('as' sign)?
func (p *Parser) castExpr(toks *token.Tokens) (ast.Expr, error) {
	v, err := p.addExpr(toks)
	if err != nil {
		return nil, err
	}
	cur := toks.Peek()
	if cur == nil || cur.Kind() != token.KwAs {
		return v, nil
	}
	toks.Pop()
	sig, err := p.sign(toks)
	if err != nil {
		return nil, err
	}
	cast := &ast.Cast{Value: v, Sig: sig}
	ast.Store(cur, cast)
	return cast, nil
}

// addExpr ::= mulExpr (('+'|'-') mulExpr)*
func (p *Parser) addExpr(toks *token.Tokens) (ast.Expr, error) {
	left, err := p.mulExpr(toks)
	if err != nil {
		return nil, err
	}
	for {
		cur := toks.Peek()
		if cur == nil {
			break
		}
		var opk ast.OperKind
		switch cur.Kind() {
		case token.Plus:
			opk = ast.OpAdd
		case token.Minus:
			opk = ast.OpSub
		default:
			return left, nil
		}
		toks.Pop()
		right, err := p.mulExpr(toks)
		if err != nil {
			return nil, err
		}
		infix := &ast.Infix{Op: opk, Left: left, Right: right}
		ast.Store(cur, infix)
		left = infix
	}
	return left, nil
}

// mulExpr ::= preExpr (('*'|'/') preExpr)*
func (p *Parser) mulExpr(toks *token.Tokens) (ast.Expr, error) {
	left, err := p.preExpr(toks)
	if err != nil {
		return nil, err
	}
	for {
		cur := toks.Peek()
		if cur == nil {
			break
		}
		var opk ast.OperKind
		switch cur.Kind() {
		case token.Star:
			opk = ast.OpMul
		case token.Slash:
			opk = ast.OpDiv
		default:
			return left, nil
		}
		toks.Pop()
		right, err := p.preExpr(toks)
		if err != nil {
			return nil, err
		}
		infix := &ast.Infix{Op: opk, Left: left, Right: right}
		ast.Store(cur, infix)
		left = infix
	}
	return left, nil
}

// preExpr ::= '&'? postExpr
func (p *Parser) preExpr(toks *token.Tokens) (ast.Expr, error) {
	cur := toks.Peek()
	if cur != nil && cur.Kind() == token.Ampersand {
		toks.Pop()
		target, err := p.postExpr(toks)
		if err != nil {
			return nil, err
		}
		path, ok := ast.AsPath(target)
		if !ok {
			return nil, p.errorf(cur, ErrNotAPath, "%s", target)
		}
		inout := &ast.InoutExpr{Target: path}
		ast.Store(cur, inout)
		return inout, nil
	}
	return p.postExpr(toks)
}

// postExpr ::= primary ( call | subscript | prop | assignTail )*
func (p *Parser) postExpr(toks *token.Tokens) (ast.Expr, error) {
	cur, err := p.primary(toks)
	if err != nil {
		return nil, err
	}
	for {
		next := toks.Peek()
		if next == nil {
			return cur, nil
		}
		switch next.Kind() {
		case token.LParen:
			cur, err = p.callTail(toks, cur)
		case token.LBrack:
			cur, err = p.subscriptTail(toks, cur)
		case token.Dot:
			cur, err = p.propTail(toks, cur)
		case token.Assign:
			return p.assignTail(toks, cur)
		default:
			return cur, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) callTail(toks *token.Tokens, callee ast.Expr) (ast.Expr, error) {
	optok, _ := p.expect(toks, token.LParen)
	var args []ast.Expr
	if toks.Peek() != nil && toks.Peek().Kind() != token.RParen {
		for {
			a, err := p.expr(toks)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
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
	if np, ok := callee.(*ast.NamePath); ok {
		if _, isStruct := p.structNames[np.Name]; isStruct {
			sl := &ast.StructLit{Name: np.Name, Args: args}
			ast.Store(optok, sl)
			return sl, nil
		}
	}
	call := &ast.Call{Callee: callee, Args: args}
	ast.Store(optok, call)
	return call, nil
}

func (p *Parser) subscriptTail(toks *token.Tokens, base ast.Expr) (ast.Expr, error) {
	optok, _ := p.expect(toks, token.LBrack)
	path, ok := ast.AsPath(base)
	if !ok {
		return nil, p.errorf(optok, ErrNotAPath, "%s", base)
	}
	idx, err := p.expr(toks)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(toks, token.RBrack); err != nil {
		return nil, err
	}
	ep := &ast.ElemPath{Base: path, Index: idx}
	ast.Store(optok, ep)
	return ep, nil
}

func (p *Parser) propTail(toks *token.Tokens, base ast.Expr) (ast.Expr, error) {
	dottok, _ := p.expect(toks, token.Dot)
	path, ok := ast.AsPath(base)
	if !ok {
		return nil, p.errorf(dottok, ErrNotAPath, "%s", base)
	}
	nametok, err := p.expect(toks, token.Id)
	if err != nil {
		return nil, err
	}
	pp := &ast.PropPath{Base: path, Name: nametok.Value()}
	ast.Store(dottok, pp)
	return pp, nil
}

func (p *Parser) assignTail(toks *token.Tokens, lvalue ast.Expr) (ast.Expr, error) {
	eqtok, _ := p.expect(toks, token.Assign)
	rvalue, err := p.expr(toks)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(toks, token.KwIn); err != nil {
		return nil, err
	}
	body, err := p.expr(toks)
	if err != nil {
		return nil, err
	}
	assign := &ast.Assign{LValue: lvalue, RValue: rvalue, Body: body}
	ast.Store(eqtok, assign)
	return assign, nil
}

// primary ::= NAME | INT | FLOAT | array | bindingExpr | funcBindingExpr
//           | funcExpr | condExpr | operRef | '(' expr ')'
func (p *Parser) primary(toks *token.Tokens) (ast.Expr, error) {
	cur := toks.Peek()
	if cur == nil {
		return nil, p.errorf(nil, ErrMissingToken, "expected an expression")
	}
	switch cur.Kind() {
	case token.IntLit:
		toks.Pop()
		return p.intLit(cur)
	case token.FloatLit:
		toks.Pop()
		return p.floatLit(cur)
	case token.Id:
		toks.Pop()
		np := &ast.NamePath{Name: cur.Value()}
		ast.Store(cur, np)
		return np, nil
	case token.Underscore:
		toks.Pop()
		w := &ast.Wildcard{}
		ast.Store(cur, w)
		return w, nil
	case token.LBrack:
		return p.arrayLit(toks)
	case token.KwLet, token.KwVar:
		return p.bindingExpr(toks)
	case token.KwFun:
		return p.funcBindingExpr(toks)
	case token.KwIf:
		return p.condExpr(toks)
	case token.Plus, token.Minus, token.Star, token.Slash,
		token.EqEq, token.Ne, token.Lt, token.Le, token.Ge, token.Gt:
		return p.operRef(toks)
	case token.LParen:
		return p.parenOrFunc(toks)
	default:
		toks.Pop()
		return nil, p.errorf(cur, ErrUnexpectedToken, "%v", cur)
	}
}

func (p *Parser) intLit(tok *token.Token) (ast.Expr, error) {
	v, err := parseInt(tok.Value())
	if err != nil {
		return nil, p.errorf(tok, ErrInvalidLiteral, "%s: %v", tok.Value(), err)
	}
	lit := &ast.IntLit{Value: v}
	ast.Store(tok, lit)
	return lit, nil
}

func (p *Parser) floatLit(tok *token.Token) (ast.Expr, error) {
	v, err := parseFloat(tok.Value())
	if err != nil {
		return nil, p.errorf(tok, ErrInvalidLiteral, "%s: %v", tok.Value(), err)
	}
	lit := &ast.FloatLit{Value: v}
	ast.Store(tok, lit)
	return lit, nil
}

func (p *Parser) arrayLit(toks *token.Tokens) (ast.Expr, error) {
	optok, _ := p.expect(toks, token.LBrack)
	var elems []ast.Expr
	if toks.Peek() != nil && toks.Peek().Kind() != token.RBrack {
		for {
			e, err := p.expr(toks)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if toks.Peek() != nil && toks.Peek().Kind() == token.Comma {
				toks.Pop()
				continue
			}
			break
		}
	}
	if _, err := p.expect(toks, token.RBrack); err != nil {
		return nil, err
	}
	lit := &ast.ArrayLit{Elems: elems}
	ast.Store(optok, lit)
	return lit, nil
}

func (p *Parser) bindingExpr(toks *token.Tokens) (ast.Expr, error) {
	mut, muttok, err := p.mutability(toks)
	if err != nil {
		return nil, err
	}
	nametok, err := p.expect(toks, token.Id)
	if err != nil {
		return nil, err
	}
	var sig ast.Sign
	if toks.Peek() != nil && toks.Peek().Kind() == token.Colon {
		toks.Pop()
		sig, err = p.sign(toks)
		if err != nil {
			return nil, err
		}
	}
	decl := &ast.BindingDecl{Mutability: mut, Name: nametok.Value(), Sig: sig}
	ast.Store(nametok, decl)
	if _, err := p.expect(toks, token.Assign); err != nil {
		return nil, err
	}
	init, err := p.expr(toks)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(toks, token.KwIn); err != nil {
		return nil, err
	}
	body, err := p.expr(toks)
	if err != nil {
		return nil, err
	}
	b := &ast.Binding{Decl: decl, Init: init, Body: body}
	ast.Store(muttok, b)
	return b, nil
}

func (p *Parser) funcBindingExpr(toks *token.Tokens) (ast.Expr, error) {
	kwtok, _ := p.expect(toks, token.KwFun)
	nametok, err := p.expect(toks, token.Id)
	if err != nil {
		return nil, err
	}
	lit, err := p.funcLiteral(toks)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(toks, token.KwIn); err != nil {
		return nil, err
	}
	body, err := p.expr(toks)
	if err != nil {
		return nil, err
	}
	fb := &ast.FuncBinding{Name: nametok.Value(), Literal: lit, Body: body}
	ast.Store(kwtok, fb)
	return fb, nil
}

// funcExpr ::= '(' paramDecls? ')' '->' sign '{' expr '}'
func (p *Parser) funcLiteral(toks *token.Tokens) (*ast.Func, error) {
	optok, err := p.expect(toks, token.LParen)
	if err != nil {
		return nil, err
	}
	var params []*ast.ParamDecl
	seen := map[string]struct{}{}
	if toks.Peek() != nil && toks.Peek().Kind() != token.RParen {
		for {
			nametok, err := p.expect(toks, token.Id)
			if err != nil {
				return nil, err
			}
			if _, ok := seen[nametok.Value()]; ok {
				return nil, p.errorf(nametok, ErrDuplicateParam, "%s", nametok.Value())
			}
			seen[nametok.Value()] = struct{}{}
			if _, err := p.expect(toks, token.Colon); err != nil {
				return nil, err
			}
			sig, err := p.sign(toks)
			if err != nil {
				return nil, err
			}
			pd := &ast.ParamDecl{Name: nametok.Value(), Sig: sig}
			ast.Store(nametok, pd)
			params = append(params, pd)
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
	if _, err := p.expect(toks, token.LCurly); err != nil {
		return nil, err
	}
	body, err := p.expr(toks)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(toks, token.RCurly); err != nil {
		return nil, err
	}
	fn := &ast.Func{Params: params, Output: output, Body: body}
	ast.Store(optok, fn)
	return fn, nil
}

// condExpr ::= 'if' expr '?' expr '!' expr
func (p *Parser) condExpr(toks *token.Tokens) (ast.Expr, error) {
	kwtok, _ := p.expect(toks, token.KwIf)
	cond, err := p.expr(toks)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(toks, token.Quest); err != nil {
		return nil, err
	}
	succ, err := p.expr(toks)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(toks, token.Exclam); err != nil {
		return nil, err
	}
	fail, err := p.expr(toks)
	if err != nil {
		return nil, err
	}
	c := &ast.Cond{Cond: cond, Succ: succ, Fail: fail}
	ast.Store(kwtok, c)
	return c, nil
}

var operKinds = map[token.Kind]ast.OperKind{
	token.Plus:  ast.OpAdd,
	token.Minus: ast.OpSub,
	token.Star:  ast.OpMul,
	token.Slash: ast.OpDiv,
	token.EqEq:  ast.OpEq,
	token.Ne:    ast.OpNe,
	token.Lt:    ast.OpLt,
	token.Le:    ast.OpLe,
	token.Ge:    ast.OpGe,
	token.Gt:    ast.OpGt,
}

func (p *Parser) operRef(toks *token.Tokens) (ast.Expr, error) {
	cur := toks.Peek()
	toks.Pop()
	o := &ast.Oper{Op: operKinds[cur.Kind()]}
	ast.Store(cur, o)
	return o, nil
}

// '(' is either a grouped expression or a function literal; distinguish by
// looking for an empty param list or `NAME ':'` immediately after '('.
func (p *Parser) parenOrFunc(toks *token.Tokens) (ast.Expr, error) {
	isFunc := false
	next := toks.Peek()
	if next != nil {
		// Peek one token past '(' without consuming anything.
		save := *toks
		save.Pop() // drop '('
		after := save.Peek()
		switch {
		case after != nil && after.Kind() == token.RParen:
			isFunc = true
		case after != nil && after.Kind() == token.Id:
			save.Pop()
			if save.Peek() != nil && save.Peek().Kind() == token.Colon {
				isFunc = true
			}
		}
	}
	if isFunc {
		return p.funcLiteral(toks)
	}
	if _, err := p.expect(toks, token.LParen); err != nil {
		return nil, err
	}
	e, err := p.expr(toks)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(toks, token.RParen); err != nil {
		return nil, err
	}
	return e, nil
}
