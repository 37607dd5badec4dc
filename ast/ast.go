// Package ast implements the untyped abstract syntax tree mvs-calculus's
// parser produces: a sequence of struct declarations followed by a single
// entry expression (spec.md §3).
//
// Every node carries the source token it originated from via Common/Store,
// following the tagging scheme of the teacher package this is grounded on.
// The type checker (package check) never writes back into this tree: it
// produces a separate decorated structure keyed by NodeID (spec.md §9).
package ast

import (
	"fmt"
	"strings"

	"github.com/susji/mvsc/token"
)

type NodeID uint64

const NodeIDInvalid NodeID = 0

var globalid NodeID = NodeIDInvalid
var toktags = map[NodeID]*token.Token{}

// Store assigns n its unique NodeID and associates it with the token it
// came from. It must be called exactly once per freshly parsed node.
func Store(tok *token.Token, n Node) Node {
	if n == nil {
		panic("ast.Store: nil node")
	}
	if tok == nil {
		panic("ast.Store: nil token")
	}
	globalid++
	n.setID(globalid)
	toktags[globalid] = tok
	return n
}

// Tok retrieves the token a Store'd node originated from.
func Tok(id NodeID) *token.Token {
	if id == NodeIDInvalid {
		panic("ast.Tok: invalid NodeID")
	}
	return toktags[id]
}

// Common is embedded by every Node to give it identity.
type Common struct {
	id NodeID
}

func (c *Common) ID() NodeID        { return c.id }
func (c *Common) setID(id NodeID)   { c.id = id }

// Node is implemented by every AST entity: declarations, expressions, paths,
// and type signatures.
type Node interface {
	String() string
	ID() NodeID
	setID(NodeID)
}

// Expr is implemented by every expression-shaped node.
type Expr interface {
	Node
	exprTag()
}

// Path is a refinement of Expr: every path is a valid expression denoting a
// memory location, but not every expression is a path (spec.md §9's first
// design note). AsPath is the coercion from Expr to Path.
type Path interface {
	Expr
	pathTag()
}

// AsPath reports whether e denotes a path, returning it as one if so.
func AsPath(e Expr) (Path, bool) {
	p, ok := e.(Path)
	return p, ok
}

// Sign mirrors types.Type at the syntax level, for type annotations.
type Sign interface {
	Node
	signTag()
}

// Program is the parser's top-level result (spec.md §3).
type Program struct {
	Types []*StructDecl
	Entry Expr
}

// --- Declarations ---------------------------------------------------------

type StructDecl struct {
	Common
	Name    string
	Members []*FieldDecl
}

func (n *StructDecl) String() string { return fmt.Sprintf("(struct %s)", n.Name) }

type FieldDecl struct {
	Common
	Mutability Mutability
	Name       string
	Sig        Sign
}

func (n *FieldDecl) String() string {
	return fmt.Sprintf("(%s %s: %s)", n.Mutability, n.Name, n.Sig)
}

// Mutability qualifier: Let < Var.
type Mutability int

const (
	Let Mutability = iota
	Var
)

func (m Mutability) String() string {
	if m == Var {
		return "var"
	}
	return "let"
}

// BindingDecl is the left side of a `let`/`var` binding: a mutability, a
// name, and an optional type signature.
type BindingDecl struct {
	Common
	Mutability Mutability
	Name       string
	Sig        Sign // nil if the binding has no annotation
}

func (n *BindingDecl) String() string {
	return fmt.Sprintf("(decl %s %s)", n.Mutability, n.Name)
}

// ParamDecl is a function parameter: a name and a (possibly Inout) type
// signature.
type ParamDecl struct {
	Common
	Name string
	Sig  Sign
}

func (n *ParamDecl) String() string { return fmt.Sprintf("(param %s: %s)", n.Name, n.Sig) }

// --- Type signatures -------------------------------------------------------

type IntSign struct{ Common }

func (n *IntSign) String() string { return "Int" }
func (*IntSign) signTag()         {}

type FloatSign struct{ Common }

func (n *FloatSign) String() string { return "Float" }
func (*FloatSign) signTag()         {}

type NamedSign struct {
	Common
	Name string
}

func (n *NamedSign) String() string { return n.Name }
func (*NamedSign) signTag()         {}

type ArraySign struct {
	Common
	Elem Sign
}

func (n *ArraySign) String() string { return fmt.Sprintf("[%s]", n.Elem) }
func (*ArraySign) signTag()         {}

type FuncSign struct {
	Common
	Params []Sign
	Output Sign
}

func (n *FuncSign) String() string {
	parts := make([]string, len(n.Params))
	for i, p := range n.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), n.Output)
}
func (*FuncSign) signTag() {}

type InoutSign struct {
	Common
	Base Sign
}

func (n *InoutSign) String() string { return fmt.Sprintf("inout %s", n.Base) }
func (*InoutSign) signTag()         {}

// --- Expressions -------------------------------------------------------

type IntLit struct {
	Common
	Value int64
}

func (n *IntLit) String() string { return fmt.Sprintf("%d", n.Value) }
func (*IntLit) exprTag()         {}

type FloatLit struct {
	Common
	Value float64
}

func (n *FloatLit) String() string { return fmt.Sprintf("%g", n.Value) }
func (*FloatLit) exprTag()         {}

type ArrayLit struct {
	Common
	Elems []Expr
}

func (n *ArrayLit) String() string {
	parts := make([]string, len(n.Elems))
	for i, e := range n.Elems {
		parts[i] = e.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}
func (*ArrayLit) exprTag() {}

type StructLit struct {
	Common
	Name string
	Args []Expr
}

func (n *StructLit) String() string {
	parts := make([]string, len(n.Args))
	for i, e := range n.Args {
		parts[i] = e.String()
	}
	return fmt.Sprintf("%s(%s)", n.Name, strings.Join(parts, ", "))
}
func (*StructLit) exprTag() {}

// Func is a function literal: `(params) -> sig { body }`.
type Func struct {
	Common
	Params []*ParamDecl
	Output Sign
	Body   Expr
}

func (n *Func) String() string {
	return fmt.Sprintf("(func -> %s { %s })", n.Output, n.Body)
}
func (*Func) exprTag() {}

type Call struct {
	Common
	Callee Expr
	Args   []Expr
}

func (n *Call) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.Callee, strings.Join(parts, ", "))
}
func (*Call) exprTag() {}

type OperKind int

const (
	OpEq OperKind = iota
	OpNe
	OpLt
	OpLe
	OpGe
	OpGt
	OpAdd
	OpSub
	OpMul
	OpDiv
)

var operNames = [...]string{"==", "!=", "<", "<=", ">=", ">", "+", "-", "*", "/"}

func (k OperKind) String() string { return operNames[k] }

// IsEquality reports whether k is `eq`/`ne`: permitted on any type.
func (k OperKind) IsEquality() bool { return k == OpEq || k == OpNe }

// IsOrdered reports whether k is an ordered comparison: numeric operands,
// Int result.
func (k OperKind) IsOrdered() bool { return k == OpLt || k == OpLe || k == OpGe || k == OpGt }

// IsArith reports whether k is arithmetic: numeric operands and result.
func (k OperKind) IsArith() bool { return k == OpAdd || k == OpSub || k == OpMul || k == OpDiv }

type Infix struct {
	Common
	Op          OperKind
	Left, Right Expr
}

func (n *Infix) String() string { return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right) }
func (*Infix) exprTag()         {}

// Oper is a first-class reference to an operator, e.g. `+` used as a value.
type Oper struct {
	Common
	Op OperKind
}

func (n *Oper) String() string { return fmt.Sprintf("(oper %s)", n.Op) }
func (*Oper) exprTag()         {}

// InoutExpr is `&path`, used at a Call argument position.
type InoutExpr struct {
	Common
	Target Path
}

func (n *InoutExpr) String() string { return fmt.Sprintf("&%s", n.Target) }
func (*InoutExpr) exprTag()         {}

// Binding is `let/var decl = init in body`.
type Binding struct {
	Common
	Decl *BindingDecl
	Init Expr
	Body Expr
}

func (n *Binding) String() string {
	return fmt.Sprintf("(%s = %s in %s)", n.Decl, n.Init, n.Body)
}
func (*Binding) exprTag() {}

// FuncBinding is a recursive named function: `fun name literal in body`.
type FuncBinding struct {
	Common
	Name    string
	Literal *Func
	Body    Expr
}

func (n *FuncBinding) String() string {
	return fmt.Sprintf("(fun %s %s in %s)", n.Name, n.Literal, n.Body)
}
func (*FuncBinding) exprTag() {}

// Assign is `lvalue = rvalue in body`.
type Assign struct {
	Common
	LValue Expr // NamePath, PropPath, ElemPath, or the `_` wildcard
	RValue Expr
	Body   Expr
}

func (n *Assign) String() string {
	return fmt.Sprintf("(%s = %s in %s)", n.LValue, n.RValue, n.Body)
}
func (*Assign) exprTag() {}

// Cond is `if cond ? succ ! fail`.
type Cond struct {
	Common
	Cond, Succ, Fail Expr
}

func (n *Cond) String() string {
	return fmt.Sprintf("(if %s ? %s ! %s)", n.Cond, n.Succ, n.Fail)
}
func (*Cond) exprTag() {}

// Cast is `value as sign`.
type Cast struct {
	Common
	Value Expr
	Sig   Sign
}

func (n *Cast) String() string { return fmt.Sprintf("(%s as %s)", n.Value, n.Sig) }
func (*Cast) exprTag()         {}

// ErrorExpr is a placeholder for a subtree that failed to parse or
// type-check; it propagates types.Error (spec.md §7).
type ErrorExpr struct{ Common }

func (n *ErrorExpr) String() string { return "<error>" }
func (*ErrorExpr) exprTag()         {}

// --- Paths ---------------------------------------------------------------

type NamePath struct {
	Common
	Name string
}

func (n *NamePath) String() string { return n.Name }
func (*NamePath) exprTag()         {}
func (*NamePath) pathTag()         {}

type PropPath struct {
	Common
	Base Path
	Name string
}

func (n *PropPath) String() string { return fmt.Sprintf("%s.%s", n.Base, n.Name) }
func (*PropPath) exprTag()         {}
func (*PropPath) pathTag()         {}

type ElemPath struct {
	Common
	Base  Path
	Index Expr
}

func (n *ElemPath) String() string { return fmt.Sprintf("%s[%s]", n.Base, n.Index) }
func (*ElemPath) exprTag()         {}
func (*ElemPath) pathTag()         {}

// Wildcard is the reserved `_` name, legal only as an Assign lvalue.
type Wildcard struct{ Common }

func (n *Wildcard) String() string { return "_" }
func (*Wildcard) exprTag()         {}
