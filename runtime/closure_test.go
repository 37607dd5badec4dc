package runtime_test

import (
	"testing"
	"unsafe"

	"github.com/susji/mvsc/runtime"
	"github.com/susji/mvsc/testers/require"
)

func envClosure(n int64) runtime.Closure {
	env := new(int64)
	*env = n
	return runtime.Closure{
		Code: unsafe.Pointer(uintptr(1)),
		Env:  unsafe.Pointer(env),
		Copy: func(env unsafe.Pointer) unsafe.Pointer {
			c := new(int64)
			*c = *(*int64)(env)
			return unsafe.Pointer(c)
		},
		Drop:  func(env unsafe.Pointer) {},
		Equal: func(a, b unsafe.Pointer) bool { return *(*int64)(a) == *(*int64)(b) },
	}
}

func TestClosureCopyDuplicatesEnv(t *testing.T) {
	a := envClosure(7)
	b := runtime.ClosureCopy(a)
	require.True(t, b.Env != a.Env)
	require.True(t, runtime.ClosureEqual(a, b))
}

func TestClosureCopyWithoutCopyFnReturnsSame(t *testing.T) {
	a := runtime.Closure{Code: unsafe.Pointer(uintptr(1)), Env: unsafe.Pointer(new(int64))}
	b := runtime.ClosureCopy(a)
	require.Equal(t, a.Env, b.Env)
}

func TestClosureEqualDiffersByCode(t *testing.T) {
	a := envClosure(1)
	b := envClosure(1)
	b.Code = unsafe.Pointer(uintptr(2))
	require.False(t, runtime.ClosureEqual(a, b))
}

func TestClosureEqualDiffersByEnvValue(t *testing.T) {
	a := envClosure(1)
	b := envClosure(2)
	b.Code = a.Code
	require.False(t, runtime.ClosureEqual(a, b))
}

func TestClosureEqualFallsBackToPointerIdentity(t *testing.T) {
	env := unsafe.Pointer(new(int64))
	a := runtime.Closure{Code: unsafe.Pointer(uintptr(9)), Env: env}
	b := runtime.Closure{Code: unsafe.Pointer(uintptr(9)), Env: env}
	require.True(t, runtime.ClosureEqual(a, b))
	c := runtime.Closure{Code: unsafe.Pointer(uintptr(9)), Env: unsafe.Pointer(new(int64))}
	require.False(t, runtime.ClosureEqual(a, c))
}

func TestClosureDropInvokesDropFn(t *testing.T) {
	called := false
	c := runtime.Closure{
		Code: unsafe.Pointer(uintptr(1)),
		Env:  unsafe.Pointer(new(int64)),
		Drop: func(unsafe.Pointer) { called = true },
	}
	runtime.ClosureDrop(c)
	require.True(t, called)
}

func TestClosureDropWithoutDropFnIsNoop(t *testing.T) {
	c := runtime.Closure{Code: unsafe.Pointer(uintptr(1)), Env: unsafe.Pointer(new(int64))}
	runtime.ClosureDrop(c)
}
