// Package types implements the semantic type model of spec.md §3: a
// tagged variant compared structurally, plus the mutability lattice and
// the trivial/address-only predicates the code generator keys its
// lowering decisions on.
package types

import (
	"fmt"
	"strings"

	"github.com/susji/mvsc/ast"
)

type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindError
	KindStruct
	KindArray
	KindFunc
	KindInout
	KindAny
)

var kindnames = [...]string{
	"Int",
	"Float",
	"<error>",
	"struct",
	"array",
	"func",
	"inout",
	"Any",
}

func (k Kind) String() string { return kindnames[k] }

// Type is the result of checking an expression or resolving a signature.
type Type struct {
	Kind   Kind
	Elem   *Type       // Array, Inout
	Struct *StructType // Struct
	Func   *FuncType   // Func
}

type Prop struct {
	Mutability ast.Mutability
	Name       string
	Type       *Type
}

type StructType struct {
	Name  string
	Props []Prop
}

type FuncType struct {
	Params []*Type
	Output *Type
}

var (
	Int   = &Type{Kind: KindInt}
	Float = &Type{Kind: KindFloat}
	Error = &Type{Kind: KindError}
	Any   = &Type{Kind: KindAny}
)

func NewArray(elem *Type) *Type { return &Type{Kind: KindArray, Elem: elem} }
func NewInout(base *Type) *Type { return &Type{Kind: KindInout, Elem: base} }

func NewStruct(name string, props []Prop) *Type {
	return &Type{Kind: KindStruct, Struct: &StructType{Name: name, Props: props}}
}

func NewFunc(params []*Type, output *Type) *Type {
	return &Type{Kind: KindFunc, Func: &FuncType{Params: params, Output: output}}
}

// Matches reports structural equality: Struct is compared nominally by
// name plus an ordered walk of its properties (spec.md §3).
func (t *Type) Matches(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindArray, KindInout:
		return t.Elem.Matches(o.Elem)
	case KindStruct:
		return t.Struct.matches(o.Struct)
	case KindFunc:
		return t.Func.matches(o.Func)
	default:
		return true
	}
}

func (s *StructType) matches(o *StructType) bool {
	if s.Name != o.Name || len(s.Props) != len(o.Props) {
		return false
	}
	for i := range s.Props {
		p, q := s.Props[i], o.Props[i]
		if p.Mutability != q.Mutability || p.Name != q.Name || !p.Type.Matches(q.Type) {
			return false
		}
	}
	return true
}

func (f *FuncType) matches(o *FuncType) bool {
	if len(f.Params) != len(o.Params) {
		return false
	}
	for i := range f.Params {
		if !f.Params[i].Matches(o.Params[i]) {
			return false
		}
	}
	return f.Output.Matches(o.Output)
}

// Trivial reports whether t contains no Array and no Func anywhere in its
// structure: trivial values may be copied bitwise (spec.md §3).
func (t *Type) Trivial() bool {
	switch t.Kind {
	case KindArray, KindFunc:
		return false
	case KindInout:
		return t.Elem.Trivial()
	case KindStruct:
		for _, p := range t.Struct.Props {
			if !p.Type.Trivial() {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// AddressOnly reports whether t is passed/returned by address at the
// abstract-machine level: everything except Int, Float, Inout, Error
// (spec.md §3).
func (t *Type) AddressOnly() bool {
	switch t.Kind {
	case KindInt, KindFloat, KindInout, KindError:
		return false
	default:
		return true
	}
}

func (t *Type) String() string {
	switch t.Kind {
	case KindArray:
		return fmt.Sprintf("[%s]", t.Elem)
	case KindInout:
		return fmt.Sprintf("inout %s", t.Elem)
	case KindStruct:
		return t.Struct.String()
	case KindFunc:
		return t.Func.String()
	default:
		return t.Kind.String()
	}
}

func (s *StructType) String() string {
	if s == nil {
		return "struct(nil)"
	}
	return fmt.Sprintf("struct %s", s.Name)
}

func (f *FuncType) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), f.Output)
}

// Find returns the named property, or nil if s has none by that name.
func (s *StructType) Find(name string) *Prop {
	for i := range s.Props {
		if s.Props[i].Name == name {
			return &s.Props[i]
		}
	}
	return nil
}

// Min computes transitive-immutability: the weaker (more restrictive) of
// the two mutability qualifiers, per the `Let < Var` lattice.
func Min(a, b ast.Mutability) ast.Mutability {
	if a == ast.Let || b == ast.Let {
		return ast.Let
	}
	return ast.Var
}
