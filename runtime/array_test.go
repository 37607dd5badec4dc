package runtime_test

import (
	"testing"
	"unsafe"

	"github.com/susji/mvsc/runtime"
	"github.com/susji/mvsc/testers/require"
)

func intOps() *runtime.ElemOps {
	return &runtime.ElemOps{
		Size: 8,
		Copy: func(dst, src unsafe.Pointer) { *(*int64)(dst) = *(*int64)(src) },
		Equal: func(a, b unsafe.Pointer) bool {
			return *(*int64)(a) == *(*int64)(b)
		},
	}
}

func TestArrayInitEmptyEqualsEmpty(t *testing.T) {
	ops := intOps()
	a := runtime.ArrayInit(0, ops)
	b := runtime.ArrayInit(0, ops)
	require.True(t, runtime.ArrayEqual(&a, &b, ops))
}

func TestArrayCopySharesPayloadUntilUniq(t *testing.T) {
	ops := intOps()
	a := runtime.ArrayInit(3, ops)
	var b runtime.Array
	runtime.ArrayCopy(&b, &a)
	require.True(t, runtime.ArrayEqual(&a, &b, ops))
	runtime.ArrayUniq(&b, ops)
	require.True(t, runtime.ArrayEqual(&a, &b, ops))
	runtime.ArrayDrop(&a, ops)
	runtime.ArrayDrop(&b, ops)
}

func TestArrayUniqOnSoleOwnerIsNoop(t *testing.T) {
	ops := intOps()
	a := runtime.ArrayInit(2, ops)
	before := a
	runtime.ArrayUniq(&a, ops)
	require.Equal(t, before, a)
	runtime.ArrayDrop(&a, ops)
}

func TestArrayEqualCountMismatch(t *testing.T) {
	ops := intOps()
	a := runtime.ArrayInit(1, ops)
	b := runtime.ArrayInit(2, ops)
	require.False(t, runtime.ArrayEqual(&a, &b, ops))
	runtime.ArrayDrop(&a, ops)
	runtime.ArrayDrop(&b, ops)
}

func TestArrayDropClearsPayload(t *testing.T) {
	ops := intOps()
	a := runtime.ArrayInit(1, ops)
	runtime.ArrayDrop(&a, ops)
	require.Equal(t, runtime.Array{}, a)
}

func TestArrayDropOnEmptyIsNoop(t *testing.T) {
	ops := intOps()
	var a runtime.Array
	runtime.ArrayDrop(&a, ops)
	require.Equal(t, runtime.Array{}, a)
}
