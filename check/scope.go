package check

import (
	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/types"
)

// binding is a Γ entry: a mutability qualifier plus a resolved type.
type binding struct {
	mutability ast.Mutability
	typ        *types.Type
}

// scope is a parent-linked Γ, following the teacher's analyze/scope.go
// shape. barrier marks the frame introduced by entering a function
// literal's body: any binding resolved by walking past a barrier frame
// has its mutability downgraded to Let, since closures cannot mutate
// their captures (spec.md §4.1, the Func rule).
type scope struct {
	parent  *scope
	barrier bool
	vars    map[string]binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: map[string]binding{}}
}

func newFuncScope(parent *scope) *scope {
	s := newScope(parent)
	s.barrier = true
	return s
}

func (s *scope) add(name string, mut ast.Mutability, t *types.Type) {
	s.vars[name] = binding{mutability: mut, typ: t}
}

func (s *scope) get(name string) (ast.Mutability, *types.Type, bool) {
	cur := s
	forcedLet := false
	for cur != nil {
		if b, ok := cur.vars[name]; ok {
			if forcedLet {
				return ast.Let, b.typ, true
			}
			return b.mutability, b.typ, true
		}
		if cur.barrier {
			forcedLet = true
		}
		cur = cur.parent
	}
	return 0, nil, false
}
