package types_test

import (
	"testing"

	"github.com/susji/mvsc/ast"
	"github.com/susji/mvsc/testers/require"
	"github.com/susji/mvsc/types"
)

func TestMatchesScalar(t *testing.T) {
	require.True(t, types.Int.Matches(types.Int))
	require.False(t, types.Int.Matches(types.Float))
}

func TestMatchesArrayRecurses(t *testing.T) {
	a := types.NewArray(types.Int)
	b := types.NewArray(types.Int)
	c := types.NewArray(types.Float)
	require.True(t, a.Matches(b))
	require.False(t, a.Matches(c))
}

func TestMatchesStructByNameAndProps(t *testing.T) {
	p1 := []types.Prop{{Mutability: ast.Let, Name: "x", Type: types.Int}}
	p2 := []types.Prop{{Mutability: ast.Let, Name: "x", Type: types.Int}}
	p3 := []types.Prop{{Mutability: ast.Var, Name: "x", Type: types.Int}}
	require.True(t, types.NewStruct("P", p1).Matches(types.NewStruct("P", p2)))
	require.False(t, types.NewStruct("P", p1).Matches(types.NewStruct("P", p3)))
	require.False(t, types.NewStruct("P", p1).Matches(types.NewStruct("Q", p2)))
}

func TestTrivialExcludesArrayAndFunc(t *testing.T) {
	require.True(t, types.Int.Trivial())
	require.False(t, types.NewArray(types.Int).Trivial())
	require.False(t, types.NewFunc(nil, types.Int).Trivial())
}

func TestTrivialStructPropagates(t *testing.T) {
	withArray := types.NewStruct("S", []types.Prop{
		{Name: "xs", Type: types.NewArray(types.Int)},
	})
	require.False(t, withArray.Trivial())
	plain := types.NewStruct("S", []types.Prop{{Name: "n", Type: types.Int}})
	require.True(t, plain.Trivial())
}

func TestAddressOnly(t *testing.T) {
	require.False(t, types.Int.AddressOnly())
	require.False(t, types.NewInout(types.Int).AddressOnly())
	require.True(t, types.NewArray(types.Int).AddressOnly())
	require.True(t, types.Any.AddressOnly())
}

func TestStringRendering(t *testing.T) {
	require.Equal(t, "[Int]", types.NewArray(types.Int).String())
	require.Equal(t, "inout Int", types.NewInout(types.Int).String())
	require.Equal(t, "(Int, Float) -> Int", types.NewFunc([]*types.Type{types.Int, types.Float}, types.Int).String())
}

func TestStructFind(t *testing.T) {
	st := types.NewStruct("P", []types.Prop{{Name: "x", Type: types.Int}})
	require.NotNil(t, st.Struct.Find("x"))
	require.Nil(t, st.Struct.Find("y"))
}
