package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/gomfem/InputParameters"
	"github.com/notargets/gomfem/model_problems/Poisson1D"
	"github.com/stretchr/testify/assert"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestRunConvergence(t *testing.T) {
	ip := InputParameters.NewInputParameters1D()
	ip.Solver = "denselu"
	_, err := RunConvergence(ip, []int{4})
	assert.Error(t, err)

	cs, err := RunConvergence(ip, []int{4, 8})
	require.NoError(t, err)
	require.Len(t, cs.Rates(), 1)
	assert.Greater(t, cs.Rates()[0], 2.)

	csvFile := filepath.Join(t.TempDir(), "study.csv")
	require.NoError(t, writeStudy(csvFile, cs))
	// a second write appends without a header
	require.NoError(t, writeStudy(csvFile, cs))
	f, err := os.Open(csvFile)
	require.NoError(t, err)
	defer f.Close()
	studies, err := Poisson1D.ReadCSV(f)
	require.NoError(t, err)
	require.Len(t, studies, 1)
	for _, rcs := range studies {
		assert.Equal(t, []int{4, 8, 4, 8}, rcs.Elements)
	}
}

func TestConvergenceCommand(t *testing.T) {
	csvFile := filepath.Join(t.TempDir(), "study.csv")
	icFile := filepath.Join(t.TempDir(), "poisson.yaml")
	require.NoError(t, os.WriteFile(icFile, []byte("Layout: discontinuous\n"), 0o644))
	rootCmd.SetArgs([]string{"convergence", "-n", "1", "--levels", "4,8", "--solver", "sparselu",
		"-I", icFile, "--csvFile", csvFile, "--logLevel", "warn"})
	require.NoError(t, rootCmd.Execute())
	defer viper.Set("csvFile", "")
	assert.Equal(t, []int{4, 8}, viper.GetIntSlice("levels"))
	assert.Equal(t, 1, viper.GetInt("n"))

	f, err := os.Open(csvFile)
	require.NoError(t, err)
	defer f.Close()
	studies, err := Poisson1D.ReadCSV(f)
	require.NoError(t, err)
	cs := studies[Poisson1D.StudyKey{Title: "discontinuous full sparselu", Order: 1}]
	require.NotNil(t, cs)
	assert.Equal(t, []int{4, 8}, cs.Elements)
	// order p+1 = 2
	assert.Greater(t, cs.Rates()[0], 1.5)
}
