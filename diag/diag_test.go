package diag_test

import (
	"errors"
	"testing"

	"github.com/susji/mvsc/diag"
	"github.com/susji/mvsc/testers/require"
)

func TestErrorFormatsPosition(t *testing.T) {
	d := diag.New("foo.mvs", 3, 7, diag.Error, errors.New("undefined binding x"))
	require.Equal(t, "foo.mvs:3:7: error: undefined binding x", d.Error())
}

func TestUnwrapReturnsWrapped(t *testing.T) {
	inner := errors.New("boom")
	d := diag.New("f", 1, 1, diag.Error, inner)
	require.True(t, errors.Is(d, inner))
}

func TestFormatAddsCaretExcerpt(t *testing.T) {
	d := diag.New("f", 1, 3, diag.Error, errors.New("bad"))
	d.Source = "let x = 1"
	got := d.Format()
	require.Equal(t, "f:1:3: error: bad\nlet x = 1\n  ^", got)
}

func TestBagHasErrorsIgnoresWarnings(t *testing.T) {
	b := &diag.Bag{}
	b.Add(diag.New("f", 1, 1, diag.Warning, errors.New("hm")))
	require.False(t, b.HasErrors())
	b.Errorf("f", 1, 1, "broken: %d", 42)
	require.True(t, b.HasErrors())
	require.Equal(t, 2, len(b.All()))
}

func TestMismatchDiffsStructures(t *testing.T) {
	diffText := diag.Mismatch(1, 2)
	require.True(t, len(diffText) > 0)
}
