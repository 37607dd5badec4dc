// Package codegen lowers a checked mvs-calculus program onto the
// abstract machine of package ir (spec.md §4.4). It is grounded on
// _examples/susji-c0/ssa/{ssa,build}.go's register-generation counter
// (reggen/registerNew) and per-form emitX dispatch, re-targeted at
// mvs-calculus's lowering table -- literals, Func, Call, Infix, Inout,
// Binding, FuncBinding, Assign, Cond, paths -- instead of C0's
// statements, and extended with the copy-on-write uniquify-before-write
// walk and metatype-driven init/drop/copy emission §4.4 specifies.
package codegen

import (
	"fmt"

	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/capture"
	"github.com/susji/mvsc/cfg"
	"github.com/susji/mvsc/escape"
	"github.com/susji/mvsc/ir"
	"github.com/susji/mvsc/metatype"
	"github.com/susji/mvsc/types"
)

// CG holds the cross-function state a compilation unit shares: the
// metatype cache (so every distinct type gets exactly one emitted
// record) and the type-checker's decorations, consulted by node
// identity rather than recomputed.
type CG struct {
	Metas    *metatype.Cache
	TypeOf   capture.TypeOf
	MutOf    func(ast.Node) ast.Mutability
	FuncSig  func(ast.NodeID) *types.FuncType

	funcSeq int
	funcs   []*ir.Function
	g       *cfg.Graph

	// directFuncs tracks FuncBinding names currently emitted as global
	// functions (no captures), so a Call through that name dispatches
	// directly instead of through a closure record.
	directFuncs map[string]string
	// operFuncs memoizes the lifted wrapper function per (operator,
	// numeric kind) pair (spec.md §9: "memoized closure wrapping the
	// operator"); a reference to the same operator instantiated at Int
	// versus Float needs two distinct wrappers.
	operFuncs map[operKey]string

	// MaxStackArraySize is cmd/mvsc's --max-stack-array-size budget,
	// recorded here for API conformance with spec.md §6. It does not
	// presently change an allocation site: ArrayInit always allocates
	// from the host (Go) heap rather than a real stack arena, so there
	// is no placement decision left for this budget to gate once
	// escape analysis has already run. See DESIGN.md.
	MaxStackArraySize int
}

func New(typeOf capture.TypeOf, mutOf func(ast.Node) ast.Mutability, funcSig func(ast.NodeID) *types.FuncType) *CG {
	return &CG{
		Metas:       metatype.NewCache(),
		TypeOf:      typeOf,
		MutOf:       mutOf,
		FuncSig:     funcSig,
		directFuncs: map[string]string{},
		operFuncs:   map[operKey]string{},
	}
}

// Compile lowers prog's entry expression into the program's "main"
// function and returns the complete ir.Program, including every
// lifted function literal reached along the way.
func (cg *CG) Compile(prog *ast.Program) (*ir.Program, error) {
	fe := cg.newFunc("main", nil)
	res, err := fe.lower(prog.Entry)
	if err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}
	fe.emit(ir.Return{With: res.asValue()})
	cg.g.Seal(fe.cur)
	cg.funcs = append(cg.funcs, fe.finish("main"))
	cg.emitMetaFuncs()
	return &ir.Program{Functions: cg.funcs, Entry: "main"}, nil
}

func (cg *CG) nextFuncName(hint string) string {
	cg.funcSeq++
	return fmt.Sprintf("%s$%d", hint, cg.funcSeq)
}

// newFunc starts a fresh function emitter. cg.g is retained on CG only
// transiently during newFunc/Compile bookkeeping -- each fnEmitter owns
// its own cfg.Graph once created.
func (cg *CG) newFunc(name string, params []string) *fnEmitter {
	g := cfg.NewGraph(name)
	cg.g = g
	return &fnEmitter{
		cg:    cg,
		g:     g,
		cur:   g.Entry,
		gen:   map[string]int{},
		addrs: map[string]*ir.Variable{},
		kinds: map[string]*types.Type{},
	}
}

func (cg *CG) addFunction(f *ir.Function) { cg.funcs = append(cg.funcs, f) }

// result is what lowering one expression produces: a scalar register
// (Int/Float) or the address of freshly initialized, owned storage for
// any address-only type, per spec.md §4.4's rvalue contract. Owned is
// meaningless when Reg is set.
type result struct {
	Reg   ir.Value
	Addr  *ir.Variable
	Owned bool
}

func (r result) asValue() ir.Value {
	if r.Reg != nil {
		return r.Reg
	}
	return r.Addr
}

func isScalar(t *types.Type) bool {
	return t.Kind == types.KindInt || t.Kind == types.KindFloat
}

func scalarKind(t *types.Type) ir.Kind {
	if t.Kind == types.KindFloat {
		return ir.KindFloat
	}
	return ir.KindInt
}

// paramKind is the register kind an incoming call argument of type t
// arrives in: scalars arrive as their own scalar cell, everything else
// (Struct, Array, Func) arrives address-kind, already pointing at
// runtime-managed storage the caller owns or has handed off.
func paramKind(t *types.Type) ir.Kind {
	if isScalar(t) {
		return scalarKind(t)
	}
	return ir.KindAddr
}

// fnEmitter lowers one function body: the top-level entry, or one
// lifted closure body. Its cfg.Graph accumulates basic blocks as Cond
// expressions are encountered; everything else is a straight append
// to the current block, exactly as in the teacher's SSA.emit.
type fnEmitter struct {
	cg     *CG
	g      *cfg.Graph
	cur    *cfg.BasicBlock
	reggen int

	// gen mirrors the teacher's `generations` map. newFunc allocates it,
	// but no lowering path reads or updates it: Assign stores through
	// the name's existing address instead of rebinding it.
	gen   map[string]int
	addrs map[string]*ir.Variable
	kinds map[string]*types.Type
}

func (fe *fnEmitter) emit(i ir.Instruction) { fe.cur.Emit(i) }

func (fe *fnEmitter) newReg(k ir.Kind) *ir.Variable {
	v := &ir.Variable{Count: fe.reggen, Kind: k}
	fe.reggen++
	return v
}

func (fe *fnEmitter) finish(name string) *ir.Function {
	return &ir.Function{Name: name, Body: fe.g.Linearize()}
}

// escapesToHeap consults package escape for a locally bound array,
// deciding whether codegen must route its storage through a heap
// allocation (ArrayInit already always heap-allocates non-empty
// arrays; this flag instead marks whether the *binding* may be
// dropped at scope exit versus handed off: lowerBinding drops the
// binding only when it does not escape, and skips the drop otherwise).
func (fe *fnEmitter) escapesToHeap(name string, body ast.Expr) bool {
	esc, err := escape.Escapes(name, body, fe.cg.TypeOf)
	if err != nil {
		// lowerBinding lowers body before asking, so a capture analysis
		// failure inside it has already been returned as a lowering
		// error; treat this conservatively rather than panic on a
		// theoretical bound.
		return true
	}
	return esc
}
