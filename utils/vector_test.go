package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector(t *testing.T) {
	N := 3
	v1 := NewVector(N).Set(1)
	require.Equal(t, 1., v1.V.RawVector().Data[N-1])
	v1.Set(2)
	require.Equal(t, 2., v1.V.RawVector().Data[N-1])
	assert.Panics(t, func() { NewVector(2, []float64{1, 2, 3}) })
	// Empty vectors are valid
	{
		e := NewVector(0)
		assert.Equal(t, 0, e.Len())
		assert.Nil(t, e.Data())
		assert.Equal(t, 0., e.Norm())
		assert.False(t, e.IsNil())
		assert.True(t, Vector{}.IsNil())
		assert.Equal(t, 0, Vector{}.Len())
	}
	// Arithmetic
	{
		a := NewVector(3, []float64{1, 2, 3})
		b := NewVector(3, []float64{4, 5, 6})
		assert.Equal(t, 32., a.Dot(b))
		assert.Equal(t, []float64{5, 7, 9}, a.Copy().Add(b).Data())
		assert.Equal(t, []float64{3, 3, 3}, b.Copy().Subtract(a).Data())
		assert.Equal(t, []float64{6, 9, 12}, b.Copy().AddScaled(2, a).Data())
		assert.Equal(t, []float64{-1, -2, -3}, a.Copy().Scale(-1).Data())
		assert.InDelta(t, math.Sqrt(14), a.Norm(), 1.e-15)
		// a is unchanged by the copies
		assert.Equal(t, []float64{1, 2, 3}, a.Data())
		assert.Panics(t, func() { a.Add(NewVector(2)) })
		assert.True(t, a.AlmostEqual(NewVector(3, []float64{1, 2, 3 + 1.e-13}), 1.e-12))
		assert.False(t, a.AlmostEqual(NewVector(2), 1))
		assert.False(t, a.HasNaN())
		assert.True(t, NewVector(2, []float64{0, math.NaN()}).HasNaN())
	}
	// Aliasing
	{
		a := NewVector(5, []float64{0, 1, 2, 3, 4})
		s := a.Slice(1, 4)
		assert.Equal(t, []float64{1, 2, 3}, s.Data())
		s.Set(-1)
		assert.Equal(t, []float64{0, -1, -1, -1, 4}, a.Data())
		assert.Equal(t, 0, a.Slice(2, 2).Len())
		c := a.Copy()
		assert.False(t, c.SharesData(a))
		alias := a
		assert.True(t, alias.SharesData(a))
		assert.True(t, a.Slice(0, 2).SharesData(a))
		assert.False(t, NewVector(0).SharesData(a))
		c.Set(7)
		a.CopyFrom(c)
		assert.Equal(t, []float64{7, 7, 7, 7, 7}, a.Data())
	}
	// Sub vectors
	{
		a := NewVector(5, []float64{0, 1, 2, 3, 4})
		I := Index{4, 0}
		assert.Equal(t, []float64{4, 0}, a.GetSubVector(I))
		a.SetSubVector(I, []float64{10, 20})
		assert.Equal(t, []float64{20, 1, 2, 3, 10}, a.Data())
		a.SetSubVectorValue(Index{1, 2}, 0)
		assert.Equal(t, []float64{20, 0, 0, 3, 10}, a.Data())
		assert.Panics(t, func() { a.SetSubVector(I, []float64{1}) })
	}
}

func TestIndex(t *testing.T) {
	assert.Equal(t, Index{2, 3, 4}, NewRange(2, 4))
	assert.Equal(t, Index{}, NewRange(3, 2))
	assert.Equal(t, Index{0, 0}, NewIndex(2))
	I := Index{5, 1, 5, 3, 1}
	assert.Equal(t, Index{1, 3, 5}, I.Unique())
	// Unique does not reorder the receiver
	assert.Equal(t, Index{5, 1, 5, 3, 1}, I)
	assert.Equal(t, 0, len(Index{}.Unique()))
	assert.Equal(t, Index{6, 2, 6, 4, 2}, I.Add(1))
	assert.Equal(t, Index{3, 5}, I.Subset(Index{3, 0}))
	assert.Equal(t, Index{5, 1, 5, 3, 1, 9}, I.Concat(Index{9}))
	assert.Equal(t, 5, I.Max())
	assert.Equal(t, -1, Index{}.Max())
	assert.True(t, I.Contains(3))
	assert.False(t, I.Contains(2))
	c := I.Copy()
	c[0] = 0
	assert.Equal(t, 5, I[0])
	assert.NoError(t, I.CheckBounds(6))
	assert.Error(t, I.CheckBounds(5))
	assert.Error(t, Index{-1}.CheckBounds(5))
	assert.Equal(t, []float64{2, 2, 2}, ConstArray(3, 2))
}
