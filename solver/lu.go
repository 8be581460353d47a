package solver

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/edp1096/sparse"
	"github.com/notargets/gomfem/operator"
	"github.com/notargets/gomfem/utils"
	"gonum.org/v1/gonum/mat"
)

// SparseLU factors the materialized operator with a Markowitz pivoting
// sparse LU. The factorization is done once in SetOperator and reused by every
// Solve.
type SparseLU struct {
	Settings
	A      operator.Operator
	n      int
	matrix *sparse.Matrix
	rhs    []float64
}

func NewSparseLU(s Settings) *SparseLU { return &SparseLU{Settings: s} }

func (lu *SparseLU) SetOperator(A operator.Operator) (err error) {
	if err = checkSquare("SparseLU", A); err != nil {
		return
	}
	lu.Release()
	var (
		start = time.Now()
		S     = operator.Materialize(A, lu.DropTolerance)
		n     = A.Height()
		m     *sparse.Matrix
	)
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 false,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}
	if m, err = sparse.Create(int64(n), config); err != nil {
		err = fmt.Errorf("SparseLU: creating %dx%d matrix: %w", n, n, err)
		return
	}
	// the factorization uses 1-based indexing
	S.DoNonZero(func(i, j int, v float64) {
		m.GetElement(int64(i+1), int64(j+1)).Real += v
	})
	if err = m.Factor(); err != nil {
		m.Destroy()
		err = fmt.Errorf("SparseLU: %w: %v", ErrSingular, err)
		return
	}
	lu.A, lu.n, lu.matrix = A, n, m
	lu.rhs = make([]float64, n+1)
	lu.logger().Debug("sparse lu factor",
		"size", n,
		"nnz", S.NNZ(),
		"fillins", m.Fillins,
		"elapsed", time.Since(start))
	return
}

func (lu *SparseLU) Solve(b, x utils.Vector) (res Result, err error) {
	if err = checkSystem("SparseLU", lu.A, b, x); err != nil {
		return
	}
	if lu.matrix == nil {
		err = fmt.Errorf("SparseLU: %w", ErrNoOperator)
		return
	}
	var (
		sol []float64
	)
	copy(lu.rhs[1:], b.Data())
	if sol, err = lu.matrix.Solve(lu.rhs); err != nil {
		err = fmt.Errorf("SparseLU: solve failed: %w", err)
		return
	}
	copy(x.Data(), sol[1:lu.n+1])
	res.Iterations = 1
	res.Residual = residual(lu.A, b, x)
	res.Converged = !x.HasNaN()
	return
}

// Release frees the factorization.
func (lu *SparseLU) Release() {
	if lu.matrix != nil {
		lu.matrix.Destroy()
		lu.matrix = nil
	}
}

// DenseLU factors the materialized operator with a partial pivoting dense LU,
// for small systems and as a reference for the other solvers.
type DenseLU struct {
	Settings
	A  operator.Operator
	lu mat.LU
}

func NewDenseLU(s Settings) *DenseLU { return &DenseLU{Settings: s} }

func (d *DenseLU) SetOperator(A operator.Operator) (err error) {
	if err = checkSquare("DenseLU", A); err != nil {
		return
	}
	d.lu.Factorize(mat.DenseCopyOf(operator.Materialize(A, d.DropTolerance)))
	if math.IsInf(d.lu.Cond(), 1) {
		err = fmt.Errorf("DenseLU: %w", ErrSingular)
		return
	}
	d.A = A
	return
}

func (d *DenseLU) Solve(b, x utils.Vector) (res Result, err error) {
	if err = checkSystem("DenseLU", d.A, b, x); err != nil {
		return
	}
	var (
		dst  = mat.NewVecDense(x.Len(), x.Data())
		cond mat.Condition
	)
	if err = d.lu.SolveVecTo(dst, false, b.V); err != nil {
		if !errors.As(err, &cond) {
			err = fmt.Errorf("DenseLU: %w", err)
			return
		}
		// ill conditioned but solved
		d.logger().Warn("dense lu ill conditioned", "cond", float64(cond))
		err = nil
	}
	res.Iterations = 1
	res.Residual = residual(d.A, b, x)
	res.Converged = !x.HasNaN()
	return
}
