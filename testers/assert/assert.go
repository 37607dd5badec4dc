// Package assert mirrors testers/require's API but reports failures
// non-fatally (t.Error rather than t.Fatal), for the rare test that
// wants to keep checking after a mismatch. Grounded on
// _examples/susji-c0/testers/assert/assert.go, rebuilt on
// github.com/stretchr/testify/assert and github.com/google/go-cmp/cmp
// the same way testers/require was.
package assert

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/susji/mvsc/testers"
)

func Equal(t *testing.T, expect, got interface{}) {
	if !assert.ObjectsAreEqual(expect, got) {
		testers.DumpCaller(t)
		t.Errorf("wanted equal, but got different:\n%s", cmp.Diff(expect, got))
	}
}

func Equalf(t *testing.T, expect, got interface{}, format string, va ...interface{}) {
	if !assert.ObjectsAreEqual(expect, got) {
		testers.DumpCaller(t)
		t.Errorf(format, va...)
		t.Errorf("diff:\n%s", cmp.Diff(expect, got))
	}
}

func True(t *testing.T, exp bool) {
	if !exp {
		testers.DumpCaller(t)
		t.Error("expected true, got false")
	}
}

func Truef(t *testing.T, exp bool, format string, va ...interface{}) {
	if !exp {
		testers.DumpCaller(t)
		t.Errorf(format, va...)
	}
}

func False(t *testing.T, exp bool) {
	if exp {
		testers.DumpCaller(t)
		t.Error("expected false, got true")
	}
}

func Falsef(t *testing.T, exp bool, format string, va ...interface{}) {
	if exp {
		testers.DumpCaller(t)
		t.Errorf(format, va...)
	}
}

func Nil(t *testing.T, exp interface{}) {
	if !isNil(exp) {
		testers.DumpCaller(t)
		t.Errorf("wanted nil, got %v of type %T", exp, exp)
	}
}

func NotNil(t *testing.T, exp interface{}) {
	if isNil(exp) {
		testers.DumpCaller(t)
		t.Error("wanted not nil, got nil")
	}
}

// NoError and Error round out the API beyond the teacher's original
// surface, mirroring testers/require's non-fatal twin.
func NoError(t *testing.T, err error) {
	if err != nil {
		testers.DumpCaller(t)
		t.Errorf("unexpected error: %v", err)
	}
}

func Error(t *testing.T, err error) {
	if err == nil {
		testers.DumpCaller(t)
		t.Error("expected an error, got nil")
	}
}

// Empty reports whether exp is the zero value for its type, or has zero
// length if it's a string, array, slice, map, or channel.
func Empty(t *testing.T, exp interface{}) {
	if !isEmpty(exp) {
		testers.DumpCaller(t)
		t.Errorf("wanted empty, got %v", exp)
	}
}

func isEmpty(exp interface{}) bool {
	if exp == nil {
		return true
	}
	v := reflect.ValueOf(exp)
	switch v.Kind() {
	case reflect.Array, reflect.Chan, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return true
		}
		return isEmpty(v.Elem().Interface())
	default:
		return v.IsZero()
	}
}

// isNil reports whether exp is the untyped nil or a nil pointer,
// interface, map, slice, channel, or func -- the same kinds
// reflect.Value.IsNil accepts, matching the teacher's Nil/NotNil
// semantics exactly rather than testify's stricter ObjectsAreEqual.
func isNil(exp interface{}) bool {
	if exp == nil {
		return true
	}
	v := reflect.ValueOf(exp)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}
