package primitives_test

import (
	"errors"
	"testing"

	"github.com/susji/mvsc/testers/assert"
	"github.com/susji/mvsc/testers/require"

	pr "github.com/susji/mvsc/primitives"
)

func run(p pr.Parser, s string) *pr.Result {
	return p.Do(pr.NewState([]rune(s)))
}

func TestEpsilon(t *testing.T) {
	res := run(pr.Epsilon(), "anything")
	require.NoError(t, res.Error())
}

func TestEndOk(t *testing.T) {
	res := run(pr.End(), "")
	require.NoError(t, res.Error())
}

func TestEndLeftover(t *testing.T) {
	res := run(pr.End(), "x")
	require.Error(t, res.Error())
}

func TestString(t *testing.T) {
	res := run(pr.String("let"), "let x")
	require.NoError(t, res.Error())
	assert.Equal(t, "let", res.State().String())
	assert.Equal(t, " x", string(res.State().Left()))
}

func TestStringMismatch(t *testing.T) {
	res := run(pr.String("let"), "var x")
	assert.Error(t, res.Error())
}

func TestStrings(t *testing.T) {
	p := pr.Strings("let", "var")
	for _, in := range []string{"let", "var"} {
		res := run(p, in)
		require.NoError(t, res.Error())
		assert.Equal(t, in, res.State().String())
	}
	assert.Error(t, run(p, "fun").Error())
}

func TestExceptString(t *testing.T) {
	res := run(pr.ExceptString("//"), "x")
	require.NoError(t, res.Error())
	assert.Error(t, run(pr.ExceptString("//"), "//").Error())
}

func TestRune(t *testing.T) {
	res := run(pr.Rune('('), "(x)")
	require.NoError(t, res.Error())
	assert.Equal(t, "(", res.State().String())
}

func TestRuneMismatch(t *testing.T) {
	assert.Error(t, run(pr.Rune('('), "x").Error())
}

func TestRuneEOI(t *testing.T) {
	res := run(pr.Rune('('), "")
	assert.True(t, errors.Is(res.Error(), pr.EOI))
}

func TestRunes(t *testing.T) {
	p := pr.Runes("0123456789")
	require.NoError(t, run(p, "7").Error())
	assert.Error(t, run(p, "x").Error())
}

func TestExceptRunes(t *testing.T) {
	p := pr.ExceptRunes("\n")
	require.NoError(t, run(p, "x").Error())
	assert.Error(t, run(p, "\n").Error())
}

func TestRuneRange(t *testing.T) {
	p := pr.RuneRange('a', 'z')
	require.NoError(t, run(p, "m").Error())
	assert.Error(t, run(p, "M").Error())
}

func TestAnyOf(t *testing.T) {
	p := pr.AnyOf(pr.Rune('+'), pr.Rune('-'), pr.Rune('*'))
	for _, in := range []string{"+", "-", "*"} {
		require.NoError(t, run(p, in).Error())
	}
	assert.Error(t, run(p, "/").Error())
}

func TestAnd(t *testing.T) {
	digit := pr.RuneRange('0', '9')
	p := digit.And(digit)
	res := run(p, "42")
	require.NoError(t, res.Error())
	assert.Equal(t, "42", res.State().String())
}

func TestAndShortCircuits(t *testing.T) {
	p := pr.Rune('a').And(pr.Rune('b'))
	assert.Error(t, run(p, "ac").Error())
}

func TestOr(t *testing.T) {
	p := pr.Rune('a').Or(pr.Rune('b'))
	require.NoError(t, run(p, "a").Error())
	require.NoError(t, run(p, "b").Error())
	assert.Error(t, run(p, "c").Error())
}

func TestDiscardMethod(t *testing.T) {
	p := pr.String("let").Discard()
	res := run(p, "let")
	require.NoError(t, res.Error())
	assert.Empty(t, res.State().Value())
}

func TestDiscardFunc(t *testing.T) {
	p := pr.Discard(pr.String("//comment"))
	res := run(p, "//comment")
	require.NoError(t, res.Error())
	assert.Empty(t, res.State().Value())
}

func TestPipe(t *testing.T) {
	var seen string
	p := pr.String("ok").Pipe(func(s *pr.State) { seen = s.String() })
	require.NoError(t, run(p, "ok").Error())
	assert.Equal(t, "ok", seen)
}

func TestMap(t *testing.T) {
	upper := func(rv pr.ResultValue) pr.ResultValue {
		out := make(pr.ResultValue, len(rv))
		for i, r := range rv {
			if r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			out[i] = r
		}
		return out
	}
	p := pr.String("ok").Map(upper)
	res := run(p, "ok")
	require.NoError(t, res.Error())
	assert.Equal(t, "OK", res.State().String())
}

func TestOptional(t *testing.T) {
	p := pr.Rune('-').Optional()
	require.NoError(t, run(p, "-5").Error())
	require.NoError(t, run(p, "5").Error())
}

func TestOneOrMore(t *testing.T) {
	p := pr.RuneRange('0', '9').OneOrMore()
	res := run(p, "1234x")
	require.NoError(t, res.Error())
	assert.Equal(t, "1234", res.State().String())
	assert.Error(t, run(p, "x").Error())
}

func TestZeroOrMore(t *testing.T) {
	p := pr.Runes(" \t").ZeroOrMore()
	require.NoError(t, run(p, "").Error())
	require.NoError(t, run(p, "   x").Error())
}

func TestFatalPanicsOnMismatch(t *testing.T) {
	defer func() {
		r := recover()
		assert.NotNil(t, r)
	}()
	p := pr.String("let").Fatal("expected let")
	p(pr.NewState([]rune("var")))
}

func TestDoRecoversPanicIntoError(t *testing.T) {
	p := pr.String("let").Fatal("expected let")
	res := p.Do(pr.NewState([]rune("var")))
	assert.Error(t, res.Error())
}

func TestStatePos(t *testing.T) {
	s := pr.NewState([]rune("a\nb"))
	res := pr.Rune('a').And(pr.Rune('\n')).And(pr.Rune('b')).Do(s)
	require.NoError(t, res.Error())
	line, col := res.State().Pos()
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)
}
