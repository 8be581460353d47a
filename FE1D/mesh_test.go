package FE1D

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleMesh1D(t *testing.T) {
	{
		K := 4
		N := 3
		m := SimpleMesh1D(0, 2, K)
		el := NewLagrangeElement(N)
		require.Equal(t, K, m.NumElements())
		assert.Equal(t, K+1, m.NumVertices())
		assert.Equal(t, 3, m.NumInteriorFaces())
		assert.Equal(t, 2, m.NumBoundaryFaces())
		assert.Equal(t, 2, m.NumBdrElements())
		assert.Equal(t, 2, m.BdrAttributeMax())
		assert.Equal(t, []int{0, K}, m.BdrVertices)
		assert.Equal(t, []int{1, 2}, m.BdrAttributes)

		// physical node locations
		x := func(k, i int) float64 { return m.ElementTransformation(k).Transform(el.R[i]) }
		assert.True(t, near(x(1, 0), 0.5))
		assert.True(t, near(x(1, 3), 1.0))
		assert.True(t, near(x(3, 0), 1.5))
		assert.True(t, near(x(3, 2), 1.8618033988))
		assert.True(t, near(x(1, 1), 0.6381966011))
		for k := 0; k < K; k++ {
			T := m.ElementTransformation(k)
			assert.InDelta(t, 0.25, T.Weight(), 1.e-14)
			assert.InDelta(t, 0.5, m.ElementSize(k), 1.e-14)
		}
	}
	assert.Panics(t, func() { SimpleMesh1D(0, 1, 0) })
}

func TestMeshFaces(t *testing.T) {
	m := SimpleMesh1D(-1, 1, 2)
	{
		T := m.InteriorFaceTransformation(0)
		assert.False(t, T.IsBoundary())
		assert.InDelta(t, 0., T.X, 1.e-14)
		assert.Equal(t, 0, T.Elem1)
		assert.Equal(t, 1, T.Elem2)
		assert.Equal(t, 1, T.Loc1)
		assert.Equal(t, 0, T.Loc2)
		assert.Equal(t, 1., T.Normal)
		assert.InDelta(t, 1., T.H1, 1.e-14)
		assert.InDelta(t, 1., T.H2, 1.e-14)
		assert.InDelta(t, 0.5, T.J1, 1.e-14)
		assert.Equal(t, 1., T.LocalPoint(0))
		assert.Equal(t, -1., T.LocalPoint(1))
	}
	{
		left := m.BoundaryFaceTransformation(0)
		right := m.BoundaryFaceTransformation(1)
		assert.True(t, left.IsBoundary())
		assert.Equal(t, -1., left.Normal)
		assert.Equal(t, 1., right.Normal)
		assert.Equal(t, 1, left.Attribute)
		assert.Equal(t, 2, right.Attribute)
		assert.Equal(t, 1, right.Elem1)
	}
	{
		T := m.BdrElementTransformation(1)
		assert.Equal(t, 2, T.Attribute)
		assert.Equal(t, 1., T.X1)
		assert.Equal(t, 1., T.Weight())
	}
}

func TestNewMesh1DErrors(t *testing.T) {
	var err error
	_, err = NewMesh1D([]float64{0, 1}, nil)
	assert.Error(t, err)
	_, err = NewMesh1D([]float64{0, 1}, [][2]int{{0, 2}})
	assert.Error(t, err)
	_, err = NewMesh1D([]float64{0, 0}, [][2]int{{0, 1}})
	assert.Error(t, err)
	// three elements on one vertex
	_, err = NewMesh1D([]float64{0, 1, 2, 3}, [][2]int{{0, 1}, {1, 2}, {1, 3}})
	assert.Error(t, err)
	// reversed orientation is accepted, normals follow the geometry
	m, err := NewMesh1D([]float64{0, 1, 2}, [][2]int{{1, 0}, {1, 2}})
	require.NoError(t, err)
	T := m.InteriorFaceTransformation(0)
	assert.Equal(t, 1., T.X)
	assert.Equal(t, 1., T.Normal)
	assert.InDelta(t, -0.5, T.J1, 1.e-14)
	assert.Equal(t, -1., T.LocalPoint(0))
}

func near(a, b float64) (l bool) {
	if math.Abs(a-b) < 1.e-08*math.Abs(a) {
		l = true
	}
	return
}
