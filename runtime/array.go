// Package runtime implements the abstract machine's operations: the
// copy-on-write array lifecycle, the existential and closure wire
// formats, and the primitive ABI (spec.md §4.6). There is no direct
// teacher analog -- C0 has neither reference-counted values nor
// closures -- so the atomic reference-counted header is built on
// go.uber.org/atomic.Uint64 rather than raw sync/atomic calls,
// following nspcc-dev/neo-go and grafana/tempo
// (other_examples/manifests), both of which wrap a hot counter in a
// go.uber.org/atomic type instead of calling atomic.* functions
// directly at each use site.
package runtime

import (
	"sync/atomic"
	"unsafe"

	uberatomic "go.uber.org/atomic"
)

// ElemOps is a runtime-resident form of the metatype record's lifecycle
// trio: a nil field means "trivial", exactly as spec.md §4.5 specifies
// for the emitted Metatype constant itself. codegen's metatype package
// builds the compile-time record; this is its runtime counterpart, used
// by package vm to actually invoke the right function for a given
// array's element type.
type ElemOps struct {
	Size  int
	Init  func(dst unsafe.Pointer)
	Drop  func(dst unsafe.Pointer)
	Copy  func(dst, src unsafe.Pointer)
	Equal func(a, b unsafe.Pointer) bool
}

// Header is the block a non-empty Any-array's payload points past, per
// spec.md §4.5.
type Header struct {
	refc     uberatomic.Uint64
	Count    int64
	Capacity int64
}

// Array is the runtime value of an Any-array: {payload: *byte}, null
// when empty.
type Array struct {
	payload unsafe.Pointer
}

func headerOf(payload unsafe.Pointer) *Header {
	return (*Header)(unsafe.Add(payload, -int(unsafe.Sizeof(Header{}))))
}

func elemAt(payload unsafe.Pointer, i int64, stride int) unsafe.Pointer {
	return unsafe.Add(payload, int(i)*stride)
}

// ArrayInit allocates n*stride bytes of payload (plus the Header) when
// n > 0, initializing each element via ops.Init (or leaving it
// zero-valued when ops.Init is nil), per spec.md §4.6's array_init.
func ArrayInit(n int64, ops *ElemOps) Array {
	if n == 0 {
		return Array{}
	}
	block := make([]byte, int(unsafe.Sizeof(Header{}))+int(n)*ops.Size)
	payload := unsafe.Add(unsafe.Pointer(&block[0]), int(unsafe.Sizeof(Header{})))
	h := headerOf(payload)
	h.refc.Store(1)
	h.Count = n
	h.Capacity = n * int64(ops.Size)
	if ops.Init != nil {
		for i := int64(0); i < n; i++ {
			ops.Init(elemAt(payload, i, ops.Size))
		}
	}
	return Array{payload: payload}
}

// ArrayDrop decrements the refcount with acquire-release semantics; if
// this was the last reference, it drops every element (when ops.Drop is
// non-nil) and frees the block. Clears the array's payload field either
// way, matching spec.md §4.6's array_drop.
func ArrayDrop(a *Array, ops *ElemOps) {
	if a.payload == nil {
		return
	}
	h := headerOf(a.payload)
	if releaseRef(h) {
		if ops.Drop != nil {
			for i := int64(0); i < h.Count; i++ {
				ops.Drop(elemAt(a.payload, i, ops.Size))
			}
		}
		// The backing []byte becomes unreachable once a.payload is
		// cleared; Go's GC reclaims it, standing in for free() at this
		// level of the abstract machine.
	}
	a.payload = nil
}

// releaseRef performs the fetch-and-subtract acquire-release decrement
// shared by ArrayDrop and ArrayUniq's old-block release, reporting
// whether the caller held the last reference. It calls sync/atomic
// directly rather than through an atomic.Uint64 wrapper method because
// Uint64 has no fetch-and-subtract method returning the prior value;
// go.uber.org/atomic.Uint64 wraps the same underlying uint64 memory
// layout, so taking its address through unsafe.Pointer and operating
// via sync/atomic.AddUint64(&v, ^uint64(0)) is safe and keeps both call
// sites sharing one decrement helper instead of duplicating the
// bit-twiddling.
func releaseRef(h *Header) bool {
	addr := (*uint64)(unsafe.Pointer(&h.refc))
	prior := atomic.AddUint64(addr, ^uint64(0)) + 1
	return prior == 1
}

// ArrayCopy aliases dst to src's payload and, if non-null, bumps the
// refcount with relaxed ordering -- only the counter value matters,
// spec.md §4.6 notes, since no other field is read by a concurrent
// copier.
func ArrayCopy(dst *Array, src *Array) {
	dst.payload = src.payload
	if dst.payload != nil {
		headerOf(dst.payload).refc.Add(1)
	}
}

// ArrayUniq ensures arr's payload is privately owned: if it is shared
// (refc != 1 under an acquire load), a fresh block is allocated,
// elements are copied with ops.Copy (or bitwise, if nil), and the old
// block's reference is released with acquire-release ordering, per
// spec.md §4.6's array_uniq and the Owned(n>1) -> Owned(n-1) transition
// spawning a fresh Owned(1).
func ArrayUniq(a *Array, ops *ElemOps) {
	if a.payload == nil {
		return
	}
	h := headerOf(a.payload)
	if h.refc.Load() == 1 {
		return
	}
	n := h.Count
	block := make([]byte, int(unsafe.Sizeof(Header{}))+int(n)*ops.Size)
	newPayload := unsafe.Add(unsafe.Pointer(&block[0]), int(unsafe.Sizeof(Header{})))
	nh := headerOf(newPayload)
	nh.refc.Store(1)
	nh.Count = n
	nh.Capacity = n * int64(ops.Size)
	for i := int64(0); i < n; i++ {
		dstElem, srcElem := elemAt(newPayload, i, ops.Size), elemAt(a.payload, i, ops.Size)
		if ops.Copy != nil {
			ops.Copy(dstElem, srcElem)
		} else {
			copy(unsafe.Slice((*byte)(dstElem), ops.Size), unsafe.Slice((*byte)(srcElem), ops.Size))
		}
	}
	releaseRef(h)
	a.payload = newPayload
}

// ArrayEqual implements spec.md §4.6's array_equal: identical payload is
// trivially equal, differing counts are trivially unequal, otherwise an
// element-wise comparison using ops.Equal (required to be non-nil for
// any type reachable by `==`/`!=`, since Func values are excluded from
// equality by the type checker).
func ArrayEqual(lhs, rhs *Array, ops *ElemOps) bool {
	if lhs.payload == rhs.payload {
		return true
	}
	lc, rc := count(lhs), count(rhs)
	if lc != rc {
		return false
	}
	for i := int64(0); i < lc; i++ {
		if !ops.Equal(elemAt(lhs.payload, i, ops.Size), elemAt(rhs.payload, i, ops.Size)) {
			return false
		}
	}
	return true
}

func count(a *Array) int64 {
	if a.payload == nil {
		return 0
	}
	return headerOf(a.payload).Count
}

// Count exposes an array's current element count to package vm, which
// has no other way to size a loop over ElemPointer.
func Count(a *Array) int64 { return count(a) }

// ElemPointer exposes elemAt to package vm, which needs the address of
// one element to implement ir.ElemAddr -- the same reach-in FieldAddr
// already has into a struct frame, just routed through the runtime
// array's own header/stride arithmetic instead of a fixed offset.
func ElemPointer(a *Array, i int64, ops *ElemOps) unsafe.Pointer {
	return elemAt(a.payload, i, ops.Size)
}
