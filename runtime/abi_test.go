package runtime_test

import (
	"bytes"
	"testing"

	"github.com/susji/mvsc/runtime"
	"github.com/susji/mvsc/testers/require"
)

func TestABIPrintI64WritesLine(t *testing.T) {
	var buf bytes.Buffer
	a := runtime.NewABI(&buf)
	a.PrintI64(42)
	require.Equal(t, "42\n", buf.String())
}

func TestABIPrintF64WritesLine(t *testing.T) {
	var buf bytes.Buffer
	a := runtime.NewABI(&buf)
	a.PrintF64(3.5)
	require.Equal(t, "3.5\n", buf.String())
}

func TestABINewWithNilOutDefaultsToStdout(t *testing.T) {
	a := runtime.NewABI(nil)
	require.NotNil(t, a.Out)
}

func TestABIUptimeNanosecondsIsMonotonicallyNonDecreasing(t *testing.T) {
	a := runtime.NewABI(nil)
	first := a.UptimeNanoseconds()
	second := a.UptimeNanoseconds()
	require.True(t, second >= first)
}

func TestABISqrt(t *testing.T) {
	a := runtime.NewABI(nil)
	require.Equal(t, 2.0, a.Sqrt(4.0))
}

func TestABIMallocReturnsRequestedLength(t *testing.T) {
	a := runtime.NewABI(nil)
	buf := a.Malloc(16)
	require.Equal(t, 16, len(buf))
	a.Free(buf)
}

func TestABIMallocNegativeSizePanics(t *testing.T) {
	a := runtime.NewABI(nil)
	defer func() {
		require.NotNil(t, recover())
	}()
	a.Malloc(-1)
}
