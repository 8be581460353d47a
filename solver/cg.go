package solver

import (
	"fmt"
	"math"
	"time"

	"github.com/notargets/gomfem/operator"
	"github.com/notargets/gomfem/utils"
	"gonum.org/v1/gonum/floats"
)

// CG is the unpreconditioned conjugate gradient method for symmetric
// positive definite operators. Only operator actions are used, so it runs on
// matrix free forms as well as assembled ones.
type CG struct {
	Settings
	A operator.Operator
}

func NewCG(s Settings) *CG { return &CG{Settings: s} }

func (cg *CG) SetOperator(A operator.Operator) (err error) {
	if err = checkSquare("CG", A); err != nil {
		return
	}
	cg.A = A
	return
}

func (cg *CG) Solve(b, x utils.Vector) (res Result, err error) {
	if err = checkSystem("CG", cg.A, b, x); err != nil {
		return
	}
	var (
		n       = b.Len()
		r       = make([]float64, n)
		pv      = utils.NewVector(n)
		p       = pv.Data()
		Ap      = utils.NewVector(n)
		xD      = x.Data()
		bNorm   = floats.Norm(b.Data(), 2)
		tol     = cg.tolerance()
		maxIter = cg.maxIterations(n)
		log     = cg.logger()
		start   = time.Now()
	)
	if bNorm == 0 {
		x.Set(0)
		res.Converged = true
		return
	}
	// r = b - A x
	cg.A.Mult(x, Ap)
	floats.SubTo(r, b.Data(), Ap.Data())
	copy(p, r)
	rho := floats.Dot(r, r)
	res.Residual = math.Sqrt(rho) / bNorm
	for res.Iterations < maxIter && res.Residual > tol {
		cg.A.Mult(pv, Ap)
		pAp := floats.Dot(p, Ap.Data())
		if pAp <= 0 {
			err = fmt.Errorf("CG: %w: operator is not positive definite, pᵗAp = %g at iteration %d",
				ErrNotConverged, pAp, res.Iterations)
			return
		}
		alpha := rho / pAp
		floats.AddScaled(xD, alpha, p)
		floats.AddScaled(r, -alpha, Ap.Data())
		rhoNew := floats.Dot(r, r)
		// p = r + beta p
		floats.AddScaledTo(p, r, rhoNew/rho, p)
		rho = rhoNew
		res.Iterations++
		res.Residual = math.Sqrt(rho) / bNorm
	}
	res.Converged = res.Residual <= tol
	log.Debug("cg solve",
		"size", n,
		"iterations", res.Iterations,
		"residual", res.Residual,
		"converged", res.Converged,
		"elapsed", time.Since(start))
	if !res.Converged {
		err = fmt.Errorf("CG: %w: relative residual %g after %d iterations, tolerance %g",
			ErrNotConverged, res.Residual, res.Iterations, tol)
	}
	return
}
