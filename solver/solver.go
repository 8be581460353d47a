// Package solver holds the linear solvers applied to the assembled
// true dof systems: an iterative conjugate gradient working through operator
// actions, and two direct LU factorizations working on the materialized matrix.
package solver

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/notargets/gomfem/operator"
	"github.com/notargets/gomfem/utils"
)

var (
	ErrNotConverged = errors.New("solver: iteration did not converge")
	ErrSingular     = errors.New("solver: matrix is singular")
	ErrNoOperator   = errors.New("solver: operator not set")
)

// Settings controls a solver, zero values select the defaults.
type Settings struct {
	// Tolerance is the relative residual reduction of the iterative solvers,
	// ||r|| <= Tolerance * ||b||
	Tolerance float64
	// MaxIterations bounds the iterative solvers, defaults to 10 x the system size
	MaxIterations int
	// DropTolerance is handed to operator.Materialize by the direct solvers
	DropTolerance float64
	Logger        *slog.Logger
}

func (s Settings) tolerance() float64 {
	if s.Tolerance <= 0 {
		return 1.e-12
	}
	return s.Tolerance
}

func (s Settings) maxIterations(n int) int {
	if s.MaxIterations <= 0 {
		return 10 * n
	}
	return s.MaxIterations
}

func (s Settings) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Result reports the outcome of a Solve.
type Result struct {
	Iterations int
	// Residual is the final ||b - A x||, relative to ||b|| for iterative solvers
	Residual  float64
	Converged bool
}

// Solver solves A x = b for a square operator A.
type Solver interface {
	// SetOperator prepares the solver for A, direct solvers factor here.
	SetOperator(A operator.Operator) error
	// Solve writes the solution into x, iterative solvers start from the
	// content of x.
	Solve(b, x utils.Vector) (Result, error)
}

type Kind uint8

const (
	KindCG Kind = iota
	KindSparseLU
	KindDenseLU
)

var kindNames = map[Kind]string{
	KindCG:       "cg",
	KindSparseLU: "sparselu",
	KindDenseLU:  "denselu",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func ParseKind(label string) (k Kind, err error) {
	label = strings.ToLower(strings.TrimSpace(label))
	for kk, name := range kindNames {
		if name == label {
			return kk, nil
		}
	}
	err = fmt.Errorf("solver: unknown solver %q, choose one of cg, sparselu, denselu", label)
	return
}

// New returns a solver of the requested kind.
func New(k Kind, s Settings) (Solver, error) {
	switch k {
	case KindCG:
		return NewCG(s), nil
	case KindSparseLU:
		return NewSparseLU(s), nil
	case KindDenseLU:
		return NewDenseLU(s), nil
	}
	return nil, fmt.Errorf("solver: unknown solver %v", k)
}

func checkSystem(name string, A operator.Operator, b, x utils.Vector) error {
	if A == nil {
		return fmt.Errorf("%s: %w", name, ErrNoOperator)
	}
	if b.Len() != A.Height() || x.Len() != A.Width() {
		return fmt.Errorf("%s: %w: operator is %dx%d, len(b) = %d, len(x) = %d", name,
			operator.ErrDimensionMismatch, A.Height(), A.Width(), b.Len(), x.Len())
	}
	return nil
}

func checkSquare(name string, A operator.Operator) error {
	if A == nil {
		return fmt.Errorf("%s: %w", name, ErrNoOperator)
	}
	if !operator.IsSquare(A) {
		return fmt.Errorf("%s: %w: %dx%d", name, operator.ErrNotSquare, A.Height(), A.Width())
	}
	return nil
}

// residual returns ||b - A x||.
func residual(A operator.Operator, b, x utils.Vector) float64 {
	r := utils.NewVector(b.Len())
	A.Mult(x, r)
	return r.Subtract(b).Norm()
}
