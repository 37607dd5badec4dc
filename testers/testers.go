// Package testers holds the caller-dumping helper shared by
// testers/assert and testers/require, unchanged from the teacher's
// _examples/susji-c0/testers/testers.go.
package testers

import (
	"path"
	"runtime"
	"testing"
)

func DumpCaller(t *testing.T) {
	_, fn, line, _ := runtime.Caller(2)
	t.Errorf("[ %s:%d ]", path.Base(fn), line)
}
