package span_test

import (
	"testing"

	"github.com/susji/mvsc/span"
	"github.com/susji/mvsc/testers/require"
)

func TestString(t *testing.T) {
	s := span.Span{Lineno0: 1, Col0: 2, Lineno: 1, Col: 5}
	require.Equal(t, "(1, 2) -> (1, 5)", s.String())
}
