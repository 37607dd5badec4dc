// Package ir contains the abstract machine spec.md §4.5 describes: the
// connection between the typed AST and the runtime. Like the teacher
// package this is grounded on (_examples/susji-c0/ir/ir.go), it follows a
// RISC-ish approach -- operands are registers, `Load`/`Store` move values
// between registers and addresses -- generalized from C0's scalar-only
// instruction set to mvs-calculus's address-only values, closures and
// COW arrays.
//
// Variable has an Ownership field (Owned or Borrowed). codegen never
// sets it, so every Variable reads Owned, and Variable.String does not
// print it; codegen tracks whether a lowered value must be dropped in
// its own result.Owned flag. A forgotten or doubled drop is therefore
// not caught by the types here or shown in the instruction listing.
package ir

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindAddr
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "i64"
	case KindFloat:
		return "f64"
	case KindAddr:
		return "addr"
	default:
		panic("unrecognized ir.Kind")
	}
}

// Ownership distinguishes an address this instruction sequence must
// eventually drop (Owned) from one borrowed from elsewhere and never
// dropped here (Borrowed).
type Ownership int

const (
	Owned Ownership = iota
	Borrowed
)

func (o Ownership) String() string {
	if o == Borrowed {
		return "borrowed"
	}
	return "owned"
}

// Value is anything usable as an instruction operand.
type Value interface {
	fmt.Stringer
	IsValue()
}

// Variable is a single-assignment register, named the way the teacher's
// ir.Variable was: an optional source name plus a generation count.
type Variable struct {
	Name      string
	Count     int
	Kind      Kind
	Ownership Ownership
}

func (v *Variable) String() string {
	if v.Name == "" {
		return fmt.Sprintf("%%%d", v.Count)
	}
	return fmt.Sprintf("%%%s_%d", v.Name, v.Count)
}
func (*Variable) IsValue() {}

type IntImm struct{ Value int64 }

func (i IntImm) String() string { return fmt.Sprintf("%d", i.Value) }
func (IntImm) IsValue()         {}

type FloatImm struct{ Value float64 }

func (f FloatImm) String() string { return fmt.Sprintf("%g", f.Value) }
func (FloatImm) IsValue()         {}

// Global references a function or a constant metatype emitted at
// top level.
type Global struct{ Name string }

func (g Global) String() string { return fmt.Sprintf("@%s", g.Name) }
func (Global) IsValue()         {}

// Instruction is one IR opcode. Instruction() is a marker method, as in
// the teacher package, so only types meant to be instructions satisfy
// the interface.
type Instruction interface {
	fmt.Stringer
	Instruction()
}

type Label struct{ Name string }

func (i Label) String() string { return fmt.Sprintf("%s:", i.Name) }
func (Label) Instruction()     {}

type Jump struct{ To string }

func (i Jump) String() string { return fmt.Sprintf("JUMP %s", i.To) }
func (Jump) Instruction()     {}

// CondJump is the single branching instruction family (cfg narrows
// control flow to `if`-shaped conditionals only, spec.md §4.4's Cond
// lowering).
type CondJump struct {
	Cond              Value
	IfTrue, IfFalse   string
}

func (i CondJump) String() string {
	return fmt.Sprintf("CONDJUMP %s, %s, %s", i.Cond, i.IfTrue, i.IfFalse)
}
func (CondJump) Instruction() {}

type Mov struct {
	To   *Variable
	What Value
}

func (i Mov) String() string { return fmt.Sprintf("%s = MOV %s", i.To, i.What) }
func (Mov) Instruction()     {}

type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
)

func (o ArithOp) String() string { return [...]string{"ADD", "SUB", "MUL", "DIV"}[o] }

type Arith struct {
	To          *Variable
	Op          ArithOp
	Kind        Kind
	Left, Right Value
}

func (i Arith) String() string {
	return fmt.Sprintf("%s = %s<%s> %s, %s", i.To, i.Op, i.Kind, i.Left, i.Right)
}
func (Arith) Instruction() {}

type CmpOp int

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGe
	CmpGt
)

func (o CmpOp) String() string { return [...]string{"EQ", "NE", "LT", "LE", "GE", "GT"}[o] }

type Cmp struct {
	To          *Variable
	Op          CmpOp
	Kind        Kind
	Left, Right Value
}

func (i Cmp) String() string {
	return fmt.Sprintf("%s = CMP.%s<%s> %s, %s", i.To, i.Op, i.Kind, i.Left, i.Right)
}
func (Cmp) Instruction() {}

// Alloca allocates size bytes of owned storage and yields its address.
type Alloca struct {
	To   *Variable
	Size int
}

func (i Alloca) String() string { return fmt.Sprintf("%s = ALLOCA %d", i.To, i.Size) }
func (Alloca) Instruction()     {}

type Load struct {
	To   *Variable
	From *Variable
	Kind Kind
}

func (i Load) String() string { return fmt.Sprintf("%s = LOAD<%s> [%s]", i.To, i.Kind, i.From) }
func (Load) Instruction()     {}

type Store struct {
	To   *Variable
	From Value
	Kind Kind
}

func (i Store) String() string { return fmt.Sprintf("STORE<%s> %s, [%s]", i.Kind, i.From, i.To) }
func (Store) Instruction()     {}

// FieldAddr computes the address of a struct field at a fixed byte
// offset from base.
type FieldAddr struct {
	To     *Variable
	Base   *Variable
	Offset int
}

func (i FieldAddr) String() string {
	return fmt.Sprintf("%s = FIELDADDR %s, +%d", i.To, i.Base, i.Offset)
}
func (FieldAddr) Instruction() {}

// ElemAddr computes the address of an array element: base's payload
// plus index*stride.
type ElemAddr struct {
	To     *Variable
	Base   *Variable
	Index  Value
	Stride int
}

func (i ElemAddr) String() string {
	return fmt.Sprintf("%s = ELEMADDR %s[%s] (stride %d)", i.To, i.Base, i.Index, i.Stride)
}
func (ElemAddr) Instruction() {}

// Call dispatches a function. Callee is either a Global (direct
// dispatch) or a Variable holding a closure record (indirect dispatch,
// spec.md §4.4's "Function dispatch" rule). Dest is non-nil when the
// output is address-only and must be passed as a destination slot.
type Call struct {
	Dest   *Variable
	Callee Value
	Args   []Value
	Env    Value
}

func (i Call) String() string {
	args := make([]string, len(i.Args))
	for j, a := range i.Args {
		args[j] = a.String()
	}
	dest := "_"
	if i.Dest != nil {
		dest = i.Dest.String()
	}
	return fmt.Sprintf("%s = CALL %s(%s) env=%s", dest, i.Callee, strings.Join(args, ", "), i.Env)
}
func (Call) Instruction() {}

// MakeClosure builds a {code, env, copyFn, dropFn, equalFn} record for a
// lifted function literal, populating env from captures in the
// deterministic order package capture computed.
type MakeClosure struct {
	To      *Variable
	Code    Global
	Captures []Value
}

func (i MakeClosure) String() string {
	caps := make([]string, len(i.Captures))
	for j, c := range i.Captures {
		caps[j] = c.String()
	}
	return fmt.Sprintf("%s = CLOSURE %s [%s]", i.To, i.Code, strings.Join(caps, ", "))
}
func (MakeClosure) Instruction() {}

type Return struct{ With Value }

func (i Return) String() string { return fmt.Sprintf("RET %s", i.With) }
func (Return) Instruction()     {}

// ArrayInit/ArrayDrop/ArrayCopy/ArrayUniq/ArrayEqual call directly into
// the runtime package's COW array ABI (spec.md §4.6). ElemMeta is a
// Global naming the element's metatype constant.
type ArrayInit struct {
	Addr     *Variable
	ElemMeta Global
	N        Value
	Stride   int
}

func (i ArrayInit) String() string {
	return fmt.Sprintf("ARRAY_INIT %s, %s, n=%s, stride=%d", i.Addr, i.ElemMeta, i.N, i.Stride)
}
func (ArrayInit) Instruction() {}

type ArrayDrop struct {
	Addr     *Variable
	ElemMeta Global
}

func (i ArrayDrop) String() string { return fmt.Sprintf("ARRAY_DROP %s, %s", i.Addr, i.ElemMeta) }
func (ArrayDrop) Instruction()     {}

type ArrayCopy struct{ Dst, Src *Variable }

func (i ArrayCopy) String() string { return fmt.Sprintf("ARRAY_COPY %s, %s", i.Dst, i.Src) }
func (ArrayCopy) Instruction()     {}

type ArrayUniq struct {
	Addr     *Variable
	ElemMeta Global
}

func (i ArrayUniq) String() string { return fmt.Sprintf("ARRAY_UNIQ %s, %s", i.Addr, i.ElemMeta) }
func (ArrayUniq) Instruction()     {}

// ArrayEqual implements spec.md §4.1's `eq`/`ne` on Array-typed
// operands: element-wise comparison through the element metatype's own
// equality, per array_equal (spec.md §4.6).
type ArrayEqual struct {
	To          *Variable
	Left, Right *Variable
	ElemMeta    Global
}

func (i ArrayEqual) String() string {
	return fmt.Sprintf("%s = ARRAY_EQUAL %s, %s", i.To, i.Left, i.Right)
}
func (ArrayEqual) Instruction() {}

// ClosureCopy copies a Func-typed value field-wise through its
// captured environment, mirroring ArrayCopy's Dst/Src shape.
type ClosureCopy struct{ Dst, Src *Variable }

func (i ClosureCopy) String() string { return fmt.Sprintf("CLOSURE_COPY %s, %s", i.Dst, i.Src) }
func (ClosureCopy) Instruction()     {}

// ClosureDrop releases a Func-typed value's captured environment.
type ClosureDrop struct{ Addr *Variable }

func (i ClosureDrop) String() string { return fmt.Sprintf("CLOSURE_DROP %s", i.Addr) }
func (ClosureDrop) Instruction()     {}

// ClosureEqual implements spec.md §4.1's `eq`/`ne` on Func-typed
// operands: same code identity and field-wise equal environments.
type ClosureEqual struct{ To, Left, Right *Variable }

func (i ClosureEqual) String() string {
	return fmt.Sprintf("%s = CLOSURE_EQUAL %s, %s", i.To, i.Left, i.Right)
}
func (ClosureEqual) Instruction() {}

// AnyWrap builds an existential: inline if the payload fits, else
// boxed, tagged with the source type's metatype as witness.
type AnyWrap struct {
	To      *Variable
	From    *Variable
	Witness Global
}

func (i AnyWrap) String() string {
	return fmt.Sprintf("%s = ANY_WRAP %s witness=%s", i.To, i.From, i.Witness)
}
func (AnyWrap) Instruction() {}

// AnyUnwrap is the runtime half of a Cast out of Any: it checks the
// existential's witness against the expected metatype before yielding
// the address of the contained value.
type AnyUnwrap struct {
	To      *Variable
	From    *Variable
	Witness Global
}

func (i AnyUnwrap) String() string {
	return fmt.Sprintf("%s = ANY_UNWRAP %s witness=%s", i.To, i.From, i.Witness)
}
func (AnyUnwrap) Instruction() {}

// Function is one lowered, lifted function body: its parameters (the
// env pointer is always appended as the last parameter at call sites)
// and its straight-line-with-labels instruction stream.
type Function struct {
	Name   string
	Params []string
	Body   []Instruction
}

func (f *Function) Dump() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "func %s(%s):\n", f.Name, strings.Join(f.Params, ", "))
	for i, instr := range f.Body {
		fmt.Fprintf(b, "  [%03d] %s\n", i, instr)
	}
	return b.String()
}

// Program is the code generator's final output: every lifted function,
// including the struct $copy/$drop/$equal bodies, and the name of the
// entry function. Metatype records are not stored here; instructions
// only name them through Global values.
type Program struct {
	Functions []*Function
	Entry     string
}

func (p *Program) Dump() string {
	b := &strings.Builder{}
	for _, f := range p.Functions {
		b.WriteString(f.Dump())
	}
	return b.String()
}
