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
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConvergenceCmd represents the convergence command
var ConvergenceCmd = &cobra.Command{
	Use:   "convergence",
	Short: "Observed order of accuracy of the 1D Poisson problem under refinement",
	Long: `
Runs the poisson1D problem once per element count given with --levels and
prints the L2 error and the observed order between levels. The other problem
parameters are taken as for poisson1D.

gomfem convergence -n 2 --levels 4,8,16,32 --csvFile study.csv`,
	PreRunE: bindFlags,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ip *InputParameters.InputParameters1D
			cs *Poisson1D.ConvergenceStudy
		)
		if ip, err = processInput(viper.GetString("inputConditionsFile")); err != nil {
			return
		}
		if cs, err = RunConvergence(ip, viper.GetIntSlice("levels")); err != nil {
			return
		}
		cs.Print()
		if csvFile := viper.GetString("csvFile"); len(csvFile) != 0 {
			err = writeStudy(csvFile, cs)
		}
		return
	},
}

func init() {
	rootCmd.AddCommand(ConvergenceCmd)
	flags := ConvergenceCmd.Flags()
	addProblemFlags(flags)
	flags.IntSlice("levels", []int{4, 8, 16, 32}, "element counts of the refinement sequence")
	flags.String("csvFile", "", "append the study to this CSV file")
	_ = viper.BindPFlag("levels", flags.Lookup("levels"))
	_ = viper.BindPFlag("csvFile", flags.Lookup("csvFile"))
}

func RunConvergence(ip *InputParameters.InputParameters1D, levels []int) (cs *Poisson1D.ConvergenceStudy, err error) {
	var (
		stopper interface{ Stop() }
	)
	if len(levels) < 2 {
		err = fmt.Errorf("a convergence study needs at least two levels, have %v", levels)
		return
	}
	if stopper, err = startProfile(); err != nil {
		return
	}
	defer stopper.Stop()
	return Poisson1D.RunConvergenceStudy(ip, levels)
}

func writeStudy(csvFile string, cs *Poisson1D.ConvergenceStudy) (err error) {
	var (
		f      *os.File
		header bool
	)
	if _, err = os.Stat(csvFile); os.IsNotExist(err) {
		header = true
	}
	if f, err = os.OpenFile(csvFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err != nil {
		return
	}
	defer f.Close()
	return cs.WriteCSV(f, header)
}
