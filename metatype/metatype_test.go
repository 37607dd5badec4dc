package metatype_test

import (
	"testing"

	"github.com/susji/mvsc/metatype"
	"github.com/susji/mvsc/testers/require"
	"github.com/susji/mvsc/types"
)

func TestMangleScalarsAreDistinct(t *testing.T) {
	require.Equal(t, "i", metatype.Mangle(types.Int))
	require.Equal(t, "f", metatype.Mangle(types.Float))
	require.True(t, metatype.Mangle(types.Int) != metatype.Mangle(types.Float))
}

func TestMangleArrayAndFuncNest(t *testing.T) {
	require.Equal(t, "A<i>", metatype.Mangle(types.NewArray(types.Int)))
	ft := types.NewFunc([]*types.Type{types.Int, types.Float}, types.Int)
	require.Equal(t, "F<i,f->i>", metatype.Mangle(ft))
}

func TestMangleStructByName(t *testing.T) {
	st := types.NewStruct("P", []types.Prop{{Name: "x", Type: types.Int}})
	require.Equal(t, "S$P", metatype.Mangle(st))
}

func TestCacheOfCachesByMangledName(t *testing.T) {
	c := metatype.NewCache()
	a := c.Of(types.Int)
	b := c.Of(types.Int)
	require.True(t, a == b)
}

func TestCacheOfScalarSizes(t *testing.T) {
	c := metatype.NewCache()
	require.Equal(t, 8, c.Of(types.Int).Size)
	require.Equal(t, 8, c.Of(types.Float).Size)
}

func TestCacheOfFuncSizeIsFivePointers(t *testing.T) {
	c := metatype.NewCache()
	ft := types.NewFunc(nil, types.Int)
	require.Equal(t, 8*5, c.Of(ft).Size)
	require.Nil(t, c.Of(ft).Init)
}

func TestCacheOfAnySize(t *testing.T) {
	c := metatype.NewCache()
	require.Equal(t, 8*3+8, c.Of(types.Any).Size)
}

func TestCacheOfTrivialStructHasNoLifecycleGlobalsButHasEqual(t *testing.T) {
	c := metatype.NewCache()
	st := types.NewStruct("P", []types.Prop{{Name: "x", Type: types.Int}})
	m := c.Of(st)
	require.Nil(t, m.Init)
	require.Nil(t, m.Drop)
	require.Nil(t, m.Copy)
	require.True(t, m.Equal != nil)
}

func TestCacheOfStructWithArrayFieldIsNonTrivial(t *testing.T) {
	// A struct embedding an Array (or Func) field is not trivial: a
	// flat bitwise Store of the whole struct would alias the array's
	// payload between copies instead of bumping its refcount, so
	// buildStruct must emit $init/$drop/$copy for it.
	c := metatype.NewCache()
	st := types.NewStruct("Q", []types.Prop{{Name: "xs", Type: types.NewArray(types.Int)}})
	m := c.Of(st)
	require.True(t, m.Init != nil)
	require.True(t, m.Drop != nil)
	require.True(t, m.Copy != nil)
	require.True(t, m.Equal != nil)
}

func TestCacheAllReturnsSortedByName(t *testing.T) {
	c := metatype.NewCache()
	c.Of(types.Float)
	c.Of(types.Int)
	all := c.All()
	require.True(t, len(all) >= 2)
	for i := 1; i < len(all); i++ {
		require.True(t, all[i-1].Name <= all[i].Name)
	}
}
