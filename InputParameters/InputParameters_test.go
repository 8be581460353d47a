package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	fileInput := []byte(`
Title: Test Case
PolynomialOrder: 4
Elements: 12
XMax: 2.5
Layout: discontinuous
Solver: sparselu # Can be cg, sparselu or denselu
BCs:
  Dirichlet: [1]
`)
	ip := NewInputParameters1D()
	require.NoError(t, ip.Parse(fileInput))
	assert.Equal(t, "Test Case", ip.Title)
	assert.Equal(t, 4, ip.PolynomialOrder)
	assert.Equal(t, 12, ip.Elements)
	assert.Equal(t, 2.5, ip.XMax)
	assert.Equal(t, "discontinuous", ip.Layout)
	assert.Equal(t, "sparselu", ip.Solver)
	assert.Equal(t, []int{1}, ip.BCs["Dirichlet"])
	// keys absent from the file keep their defaults
	assert.Equal(t, 0., ip.XMin)
	assert.Equal(t, "full", ip.AssemblyLevel)
	assert.Equal(t, 10., ip.Penalty)
	assert.NoError(t, ip.Validate())
	ip.Print()

	assert.Error(t, ip.Parse([]byte("Elements: [1, 2")))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewInputParameters1D().Validate())
	{
		ip := NewInputParameters1D()
		ip.PolynomialOrder = 0
		ip.XMax = -1
		err := ip.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PolynomialOrder")
		assert.Contains(t, err.Error(), "XMax")
	}
	{
		ip := NewInputParameters1D()
		ip.BCs = map[string][]int{"Neumann": {1}, "Dirichlet": {3}}
		err := ip.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Neumann")
		assert.Contains(t, err.Error(), "attribute 3")
	}
}
