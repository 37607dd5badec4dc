// Package cfg represents a lowered function body's basic-block graph.
// It is grounded on _examples/susji-c0/cfg/{cfg,connect,form,memory}.go's
// block/branch/BranchKind model, narrowed from C0's five branching and
// looping statement kinds (if/while/for/break/continue) down to
// mvs-calculus's single branching expression form, `Cond`
// (if-then-else) -- the only place codegen needs more than a straight
// line of instructions.
package cfg

import "github.com/susji/mvsc/ir"

type BlockID uint64

const (
	entryID BlockID = 0
)

// BranchKind names why an edge exists, mirroring the teacher's Kind
// field on cfg.Branch (there, distinguishing if-true/if-false/while-true
// etc; here, only the two arms of a Cond plus an unconditional join).
type BranchKind int

const (
	BranchTrue BranchKind = iota
	BranchFalse
	BranchAlways
)

func (k BranchKind) String() string {
	return [...]string{"true", "false", "always"}[k]
}

type Branch struct {
	Kind     BranchKind
	From, To *BasicBlock
}

// BasicBlock is a linear run of instructions with no internal branch,
// terminated by zero (only the exit block), one (unconditional jump) or
// two (conditional branch) successors.
type BasicBlock struct {
	ID         BlockID
	Label      string
	Instrs     []ir.Instruction
	Successors []*Branch
	sealed     bool
}

func (b *BasicBlock) Emit(i ir.Instruction) {
	if b.sealed {
		panic("cfg: emit into a sealed block")
	}
	b.Instrs = append(b.Instrs, i)
}

// Graph is one function's basic-block graph.
type Graph struct {
	Entry  *BasicBlock
	blocks []*BasicBlock
	next   BlockID
}

// NewGraph starts a graph with a single entry block, labeled so the
// linearized instruction stream can be jumped to by name.
func NewGraph(funcName string) *Graph {
	g := &Graph{next: entryID}
	g.Entry = g.NewBlock(funcName + ".entry")
	return g
}

func (g *Graph) NewBlock(label string) *BasicBlock {
	id := g.next
	g.next++
	b := &BasicBlock{ID: id, Label: label}
	g.blocks = append(g.blocks, b)
	return b
}

// Jump seals from with a single unconditional successor.
func (g *Graph) Jump(from, to *BasicBlock) {
	from.Successors = append(from.Successors, &Branch{Kind: BranchAlways, From: from, To: to})
	from.sealed = true
}

// Branch seals from with the two arms of a Cond lowering.
func (g *Graph) Branch(from *BasicBlock, cond ir.Value, ifTrue, ifFalse *BasicBlock) {
	from.Emit(ir.CondJump{Cond: cond, IfTrue: ifTrue.Label, IfFalse: ifFalse.Label})
	from.Successors = append(from.Successors,
		&Branch{Kind: BranchTrue, From: from, To: ifTrue},
		&Branch{Kind: BranchFalse, From: from, To: ifFalse})
	from.sealed = true
}

// Seal finalizes a block with no further successors (used for the block
// that ends in ir.Return).
func (g *Graph) Seal(b *BasicBlock) {
	b.sealed = true
}

// Linearize flattens the graph into a single instruction stream in
// reachable order from Entry, inserting an ir.Label at the head of
// every block and an ir.Jump at the tail of any block whose single
// successor isn't the next block emitted. Traversal memoizes visited
// blocks by ID, following the teacher's cfg/memory.go seen-set
// pattern, since a Cond's two arms can share a join block.
func (g *Graph) Linearize() []ir.Instruction {
	var out []ir.Instruction
	seen := map[BlockID]struct{}{}
	order := []*BasicBlock{}

	var walk func(b *BasicBlock)
	walk = func(b *BasicBlock) {
		if _, ok := seen[b.ID]; ok {
			return
		}
		seen[b.ID] = struct{}{}
		order = append(order, b)
		for _, s := range b.Successors {
			walk(s.To)
		}
	}
	walk(g.Entry)

	for i, b := range order {
		out = append(out, ir.Label{Name: b.Label})
		out = append(out, b.Instrs...)
		if len(b.Successors) == 1 && b.Successors[0].Kind == BranchAlways {
			to := b.Successors[0].To
			nextIsTarget := i+1 < len(order) && order[i+1].ID == to.ID
			if !nextIsTarget {
				out = append(out, ir.Jump{To: to.Label})
			}
		}
	}
	return out
}
