package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMatrix(t *testing.T) {
	// Transpose
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		mNr, mNc := M.Dims()
		A := M.Transpose()
		aNr, aNc := A.Dims()
		assert.Equal(t, aNc, mNr)
		assert.Equal(t, aNr, mNc)
		assert.Equal(t, A.RawMatrix().Data, []float64{1, 4, 2, 5, 3, 6})
		assert.Equal(t, []float64{4, 5, 6}, M.Row(1))
	}
	// Products and in place arithmetic
	{
		M := NewMatrix(2, 2, []float64{
			1, 2,
			3, 4,
		})
		assert.Equal(t, []float64{7, 10, 15, 22}, M.Mul(M).Data())
		Minv, err := M.Inverse()
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 0, 0, 1}, M.Mul(Minv).Data(), 1.e-14)
		_, err = NewMatrix(2, 2, []float64{1, 1, 1, 1}).Inverse()
		assert.Error(t, err)

		C := M.Copy().Scale(2)
		assert.Equal(t, []float64{2, 4, 6, 8}, C.Data())
		C.Add(M)
		assert.Equal(t, []float64{3, 6, 9, 12}, C.Data())
		C.AddScaled(-3, M)
		assert.Equal(t, []float64{0, 0, 0, 0}, C.Data())
		C.Set(0, 1, 5).SetCol(0, []float64{-1, -2})
		assert.Equal(t, []float64{-1, 5, -2, 0}, C.Data())
		C.Zero()
		assert.Equal(t, []float64{0, 0, 0, 0}, C.Data())
		assert.Panics(t, func() { C.AddScaled(1, NewMatrix(1, 1)) })
		assert.Equal(t, []float64{1, 2, 3, 4}, M.Data())
	}
	// Raw slice products accumulate
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		y := []float64{1, 1}
		M.MulVecAdd(2, []float64{1, 0, -1}, y)
		assert.Equal(t, []float64{-3, -3}, y)
		z := []float64{0, 0, 1}
		M.MulTransVecAdd(1, []float64{1, 1}, z)
		assert.Equal(t, []float64{5, 7, 10}, z)
		assert.Panics(t, func() { M.MulVecAdd(1, y, y) })
		assert.Panics(t, func() { M.MulTransVecAdd(1, z, z) })
	}
	// Read only
	{
		M := NewMatrix(2, 2)
		M.SetReadOnly("M")
		assert.PanicsWithError(t, "attempt to write to a read only matrix named: \"M\"", func() { M.Set(0, 0, 1) })
		M.SetWritable()
		M.Set(0, 0, 1)
		assert.Equal(t, 1., M.At(0, 0))
		assert.True(t, mat.Equal(M, mat.NewDense(2, 2, []float64{1, 0, 0, 0})))
		assert.False(t, M.IsEmpty())
		assert.True(t, Matrix{}.IsEmpty())
		assert.NotEmpty(t, M.String())
	}
}

func TestSparse(t *testing.T) {
	A := NewDOK(3, 4)
	require.NoError(t, A.AddElementMatrix(Index{0, 2}, Index{1, 3}, NewMatrix(2, 2, []float64{
		1, 2,
		3, 4,
	})))
	require.NoError(t, A.AddElementMatrix(Index{2}, Index{3}, NewMatrix(1, 1, []float64{10})))
	A.AddTo(1, 0, -1)
	assert.Equal(t, 5, A.NNZ())
	assert.Equal(t, 14., A.At(2, 3))
	assert.Error(t, A.AddElementMatrix(Index{0}, Index{0, 1}, NewMatrix(2, 2)))
	assert.Error(t, A.AddElementMatrix(Index{3}, Index{0}, NewMatrix(1, 1)))
	assert.Error(t, A.AddElementMatrix(Index{0}, Index{4}, NewMatrix(1, 1)))

	C := A.ToCSR()
	assert.True(t, mat.Equal(A, C))
	assert.Equal(t, 5, C.NNZ())
	assert.Len(t, C.Data(), 5)
	y := make([]float64, 3)
	C.MulVec([]float64{1, 1, 1, 1}, y)
	assert.Equal(t, []float64{3, -1, 17}, y)
	x := make([]float64, 4)
	C.MulTransVec([]float64{1, 1, 1}, x)
	assert.Equal(t, []float64{-1, 4, 0, 16}, x)
	assert.Panics(t, func() { C.MulVec(y, y) })
	assert.Panics(t, func() { C.MulTransVec(x, x) })

	var visited [][3]float64
	C.DoNonZero(func(i, j int, v float64) {
		visited = append(visited, [3]float64{float64(i), float64(j), v})
	})
	assert.ElementsMatch(t, [][3]float64{{0, 1, 1}, {0, 3, 2}, {1, 0, -1}, {2, 1, 3}, {2, 3, 14}}, visited)

	B := NewCSR(2, 2, []int{0, 1, 2}, []int{1, 0}, []float64{5, 6})
	assert.Equal(t, 5., B.At(0, 1))
	assert.Equal(t, 6., B.At(1, 0))

	A.SetReadOnly("A")
	assert.Panics(t, func() { A.AddTo(0, 0, 1) })
}
