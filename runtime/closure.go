package runtime

import "unsafe"

// Closure is the runtime form of an Any-closure: {code, env, copyFn,
// dropFn, equalFn}, per spec.md §4.5. code's signature is
// (destOut?, params…, env) -> resultOrVoid; it is stored as an
// unsafe.Pointer here since its concrete signature varies per closure
// and is only ever invoked by package vm, which knows the call's arity
// from the static type of the call site.
type Closure struct {
	Code  unsafe.Pointer
	Env   unsafe.Pointer
	Copy  func(env unsafe.Pointer) unsafe.Pointer
	Drop  func(env unsafe.Pointer)
	Equal func(a, b unsafe.Pointer) bool
}

// ClosureCopy increments the logical ownership of a closure's
// environment. Unlike an array, an environment record has no
// reference count of its own at this level -- copying captured arrays
// or structs within it is what Copy actually does, field by field,
// exactly mirroring a struct copy.
func ClosureCopy(c Closure) Closure {
	if c.Copy == nil {
		return c
	}
	return Closure{Code: c.Code, Env: c.Copy(c.Env), Copy: c.Copy, Drop: c.Drop, Equal: c.Equal}
}

func ClosureDrop(c Closure) {
	if c.Drop != nil {
		c.Drop(c.Env)
	}
}

// ClosureEqual compares two closures for equality: per spec.md, a
// closure equals another of the same underlying code pointer when
// their environments compare equal field-by-field; closures built from
// different function literals are never equal.
func ClosureEqual(a, b Closure) bool {
	if a.Code != b.Code {
		return false
	}
	if a.Equal == nil {
		return a.Env == b.Env
	}
	return a.Equal(a.Env, b.Env)
}
