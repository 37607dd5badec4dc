// Package metatype implements the type-descriptor protocol of spec.md
// §4.5: a constant record of {size, init, drop, copy, equal} per
// distinct runtime type. There is no direct teacher analog -- C0's
// types are all trivial scalars with no lifecycle -- so this is modeled
// on the interning-by-shape idea in _examples/susji-c0/ir/ir.go's
// ir.Type, generalized into a cache keyed by a type's mangled name, per
// §9's metatype design note: "cache by mangled type name in the
// emitter, do not regenerate."
package metatype

import (
	"fmt"
	"strings"
	"sync"

	"github.com/susji/mvsc/ir"
	"github.com/susji/mvsc/types"
)

// Metatype is the emitted constant record for one runtime type. Init,
// Drop, Copy and Equal name the runtime entry points codegen should
// call through `ir.Global`; a nil field means the operation is trivial
// (bitwise), per spec.md §4.5.
type Metatype struct {
	Name  string
	Size  int
	Init  *ir.Global
	Drop  *ir.Global
	Copy  *ir.Global
	Equal *ir.Global
}

func (m *Metatype) Global() ir.Global { return ir.Global{Name: m.Name} }

// Cache mangles a types.Type to a name and emits (or recalls) its
// Metatype. One Cache serves one compiled program.
type Cache struct {
	mu     sync.Mutex
	byKey  map[string]*Metatype
	shapes map[string]*types.StructType
}

func NewCache() *Cache {
	return &Cache{byKey: map[string]*Metatype{}, shapes: map[string]*types.StructType{}}
}

// StructShape returns the StructType a struct metatype named key was
// built from, so codegen can emit its $copy/$drop/$equal bodies
// without re-deriving field layout from the Metatype record alone.
func (c *Cache) StructShape(key string) (*types.StructType, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.shapes[key]
	return st, ok
}

// Of returns the cached Metatype for t, computing and caching it on
// first request.
func (c *Cache) Of(t *types.Type) *Metatype {
	key := Mangle(t)
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.byKey[key]; ok {
		return m
	}
	m := c.build(key, t)
	c.byKey[key] = m
	return m
}

// All returns every metatype built so far, sorted by name, for the code
// generator to emit as constants.
func (c *Cache) All() []*Metatype {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Metatype, 0, len(c.byKey))
	for _, m := range c.byKey {
		out = append(out, m)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Name > out[j].Name; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func (c *Cache) build(key string, t *types.Type) *Metatype {
	switch t.Kind {
	case types.KindInt:
		return &Metatype{Name: key, Size: 8}
	case types.KindFloat:
		return &Metatype{Name: key, Size: 8}
	case types.KindError:
		return &Metatype{Name: key, Size: 0}
	case types.KindArray:
		// an Any-array header is always {refc,count,capacity} plus a
		// payload pointer -- trivially copyable at this level, since
		// array_copy/array_drop (runtime) carry the element metatype
		// themselves rather than this record's Copy/Drop fields.
		return &Metatype{Name: key, Size: 8 /* payload pointer width */}
	case types.KindFunc:
		// an Any-closure record: {code, env, copyFn, dropFn, equalFn},
		// five pointer-width fields; its lifecycle methods forward to
		// the closure's own copyFn/dropFn/equalFn, not to a fixed
		// runtime symbol, so they stay nil here and are resolved
		// per-closure-instance at the call site instead.
		return &Metatype{Name: key, Size: 8 * 5}
	case types.KindInout:
		return &Metatype{Name: key, Size: 8}
	case types.KindAny:
		// inlineStorage[3]i64 + witness pointer, per spec.md §4.5.
		return &Metatype{Name: key, Size: 8*3 + 8}
	case types.KindStruct:
		return c.buildStruct(key, t.Struct)
	default:
		panic(fmt.Sprintf("metatype: unhandled kind %v", t.Kind))
	}
}

func (c *Cache) buildStruct(key string, st *types.StructType) *Metatype {
	c.shapes[key] = st
	size := 0
	trivial := true
	for _, p := range st.Props {
		fm := c.build(Mangle(p.Type), p.Type)
		size += align8(fm.Size)
		if !isTrivial(p.Type) {
			trivial = false
		}
	}
	m := &Metatype{Name: key, Size: size}
	initG, dropG, copyG, eqG := ir.Global{Name: key + "$init"}, ir.Global{Name: key + "$drop"},
		ir.Global{Name: key + "$copy"}, ir.Global{Name: key + "$equal"}
	// Equality (spec.md §4.1's `eq`/`ne` on any type) is available
	// whether or not the struct is trivial; only the lifecycle trio is
	// gated on non-triviality.
	m.Equal = &eqG
	if !trivial {
		m.Init, m.Drop, m.Copy = &initG, &dropG, &copyG
	}
	return m
}

// isTrivial reports whether t is trivial in spec.md §4's sense: no
// Array and no Func anywhere in its shape. A nested Struct is trivial
// only if every one of its own fields is. Unlike buildStruct's fm.Size
// bookkeeping, this walks types.Type directly rather than consulting
// already-built Metatypes, since KindArray/KindFunc metatypes never
// carry Init/Drop/Copy of their own (their lifecycle lives in the
// runtime array/closure records, not a fixed symbol) and so cannot be
// used to detect non-triviality by inspection.
func isTrivial(t *types.Type) bool {
	switch t.Kind {
	case types.KindArray, types.KindFunc:
		return false
	case types.KindStruct:
		for _, p := range t.Struct.Props {
			if !isTrivial(p.Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func align8(n int) int {
	if n == 0 {
		return 0
	}
	return ((n + 7) / 8) * 8
}

// Mangle produces a stable, deterministic name for t suitable for
// caching and for naming the emitted constant. Distinct types always
// mangle to distinct names; structurally identical anonymous shapes
// (arrays of the same element, funcs of the same signature) mangle to
// the same name, so the cache naturally deduplicates them.
func Mangle(t *types.Type) string {
	var b strings.Builder
	mangle(&b, t)
	return b.String()
}

func mangle(b *strings.Builder, t *types.Type) {
	switch t.Kind {
	case types.KindInt:
		b.WriteString("i")
	case types.KindFloat:
		b.WriteString("f")
	case types.KindError:
		b.WriteString("e")
	case types.KindAny:
		b.WriteString("a")
	case types.KindArray:
		b.WriteString("A<")
		mangle(b, t.Elem)
		b.WriteString(">")
	case types.KindInout:
		b.WriteString("I<")
		mangle(b, t.Elem)
		b.WriteString(">")
	case types.KindFunc:
		b.WriteString("F<")
		for i, p := range t.Func.Params {
			if i > 0 {
				b.WriteString(",")
			}
			mangle(b, p)
		}
		b.WriteString("->")
		mangle(b, t.Func.Output)
		b.WriteString(">")
	case types.KindStruct:
		b.WriteString("S$")
		b.WriteString(t.Struct.Name)
	default:
		panic(fmt.Sprintf("metatype: unhandled kind in mangle %v", t.Kind))
	}
}
