package Poisson1D

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/notargets/gomfem/InputParameters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvergenceStudy(t *testing.T) {
	{ // Rates of a synthetic study
		cs := NewConvergenceStudy("synthetic", 2)
		cs.Add(4, 1)
		cs.Add(8, 1./8)
		cs.Add(16, 0)
		rates := cs.Rates()
		require.Len(t, rates, 2)
		assert.InDelta(t, 3., rates[0], 1.e-12)
		assert.True(t, math.IsNaN(rates[1]))
	}
	{ // Observed order of the Poisson problem is p+1
		ip := InputParameters.NewInputParameters1D()
		ip.Solver = "sparselu"
		cs, err := RunConvergenceStudy(ip, []int{8, 16, 32})
		require.NoError(t, err)
		assert.Equal(t, []int{8, 16, 32}, cs.Elements)
		// the input parameters are not modified
		assert.Equal(t, 16, ip.Elements)
		for _, rate := range cs.Rates() {
			assert.InDelta(t, 3., rate, 0.4)
		}

		var buf bytes.Buffer
		require.NoError(t, cs.WriteCSV(&buf, true))
		studies, err := ReadCSV(&buf)
		require.NoError(t, err)
		require.Len(t, studies, 1)
		for _, rcs := range studies {
			assert.Equal(t, cs.Title, rcs.Title)
			assert.Equal(t, 2, rcs.Order)
			assert.Equal(t, cs.Elements, rcs.Elements)
			assert.InDeltaSlice(t, cs.L2Error, rcs.L2Error, 1.e-15)
		}
	}
	{ // Studies are keyed by title and order
		csv := "title,elements,order,l2error\na1,4,2,1e-3\na,4,12,1e-5\na1,8,2,1e-4\n"
		studies, err := ReadCSV(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, studies, 2)
		assert.Equal(t, []int{4, 8}, studies[StudyKey{Title: "a1", Order: 2}].Elements)
		assert.Equal(t, []float64{1.e-5}, studies[StudyKey{Title: "a", Order: 12}].L2Error)
	}
	{ // Malformed input
		_, err := ReadCSV(strings.NewReader("title,elements,order,l2error\na,x,2,1e-3\n"))
		assert.Error(t, err)
		_, err = ReadCSV(strings.NewReader("title,elements,order,l2error\na,4,2\n"))
		assert.Error(t, err)
		ip := InputParameters.NewInputParameters1D()
		_, err = RunConvergenceStudy(ip, []int{4, 0})
		assert.Error(t, err)
	}
}
