/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/notargets/gomfem/InputParameters"
	"github.com/notargets/gomfem/model_problems/Poisson1D"
	"github.com/notargets/gomfem/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// PoissonCmd represents the poisson1D command
var PoissonCmd = &cobra.Command{
	Use:   "poisson1D",
	Short: "One dimensional Poisson problem with a manufactured solution",
	Long: `
Solves -u'' = f for u = sin(pi x) on a line mesh, reporting the L2 error.
Parameters come from the flags, GOMFEM_* environment variables and the config
file, an input file given with -I overrides them.

gomfem poisson1D -k 16 -n 2 --assembly matrixfree --solver cg`,
	PreRunE: bindFlags,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ip  *InputParameters.InputParameters1D
			rep Poisson1D.Report
		)
		if ip, err = processInput(viper.GetString("inputConditionsFile")); err != nil {
			return
		}
		ip.Print()
		if rep, err = RunPoisson1D(ip); err != nil {
			return
		}
		rep.Print()
		return
	},
}

func init() {
	rootCmd.AddCommand(PoissonCmd)
	addProblemFlags(PoissonCmd.Flags())
	// defaults for callers of processInput that do not go through a command
	_ = viper.BindPFlags(PoissonCmd.Flags())
}

// addProblemFlags registers the problem parameters read by processInput, they
// are shared by every command solving the Poisson problem.
func addProblemFlags(flags *pflag.FlagSet) {
	def := InputParameters.NewInputParameters1D()
	flags.StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- PolynomialOrder\n\t- Elements\n\t- Layout")
	flags.IntP("k", "k", def.Elements, "Number of elements in model")
	flags.IntP("n", "n", def.PolynomialOrder, "polynomial degree")
	flags.Float64("xMin", def.XMin, "left end of the domain, boundary attribute 1")
	flags.Float64("xMax", def.XMax, "right end of the domain, boundary attribute 2")
	flags.String("layout", def.Layout, "dof layout: conforming, duplicated or discontinuous")
	flags.String("assembly", def.AssemblyLevel, "assembly level: full, element or matrixfree")
	flags.String("solver", def.Solver, "linear solver: cg, sparselu or denselu")
	flags.Float64("tolerance", def.Tolerance, "relative residual tolerance of the iterative solver")
	flags.Int("maxIterations", def.MaxIterations, "iteration budget of the iterative solver, 0 = 10 x unknowns")
	flags.Float64("penalty", def.Penalty, "interior penalty parameter for the discontinuous layout")
	flags.IntP("parallel", "p", def.ParallelDegree, "goroutines used by the element loops, 0 = NumCPU")
	flags.IntSlice("dirichlet", def.BCs["Dirichlet"], "boundary attributes with Dirichlet data, the others get Neumann data")
}

// bindFlags points the viper keys at the flags of the command being run, the
// problem flags exist once per command.
func bindFlags(cmd *cobra.Command, args []string) error {
	return viper.BindPFlags(cmd.Flags())
}

func processInput(icFile string) (ip *InputParameters.InputParameters1D, err error) {
	ip = &InputParameters.InputParameters1D{
		Title:           "Poisson 1D",
		PolynomialOrder: viper.GetInt("n"),
		Elements:        viper.GetInt("k"),
		XMin:            viper.GetFloat64("xMin"),
		XMax:            viper.GetFloat64("xMax"),
		Layout:          viper.GetString("layout"),
		AssemblyLevel:   viper.GetString("assembly"),
		Solver:          viper.GetString("solver"),
		Tolerance:       viper.GetFloat64("tolerance"),
		MaxIterations:   viper.GetInt("maxIterations"),
		Penalty:         viper.GetFloat64("penalty"),
		ParallelDegree:  viper.GetInt("parallel"),
		BCs:             map[string][]int{"Dirichlet": viper.GetIntSlice("dirichlet")},
	}
	if len(icFile) != 0 {
		var data []byte
		if data, err = os.ReadFile(icFile); err != nil {
			return nil, err
		}
		if err = ip.Parse(data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", icFile, err)
		}
	}
	if err = ip.Validate(); err != nil {
		return nil, err
	}
	return
}

func RunPoisson1D(ip *InputParameters.InputParameters1D) (rep Poisson1D.Report, err error) {
	var (
		p       *Poisson1D.Poisson
		stopper interface{ Stop() }
	)
	if stopper, err = startProfile(); err != nil {
		return
	}
	defer stopper.Stop()
	logger, err := newLogger()
	if err != nil {
		return
	}
	if p, err = Poisson1D.NewPoisson(ip, logger); err != nil {
		return
	}
	rep, err = p.Run()
	logger.Debug("memory", "usage", utils.GetMemUsage())
	return
}
