package fem

import (
	"fmt"

	"github.com/notargets/gomfem/FE1D"
	"github.com/notargets/gomfem/utils"
)

// Coefficient is a scalar field evaluated at physical points, nil means 1.
type Coefficient func(x float64) float64

func ConstantCoefficient(c float64) Coefficient {
	return func(float64) float64 { return c }
}

func (q Coefficient) Eval(x float64) float64 {
	if q == nil {
		return 1
	}
	return q(x)
}

// quadrature order bump for variable coefficients
func (q Coefficient) extraOrder() int {
	if q == nil {
		return 0
	}
	return 2
}

// assembleBtDB computes elmat[i][j] += sum_q Bv[q][i] D[q] Bt[q][j]
func assembleBtDB(Bt, Bv utils.Matrix, D []float64, elmat utils.Matrix) {
	var (
		_, nt = Bt.Dims()
		_, nv = Bv.Dims()
		data  = elmat.Data()
	)
	for q, dq := range D {
		rowT, rowV := Bt.Row(q), Bv.Row(q)
		for i := 0; i < nv; i++ {
			vi := rowV[i] * dq
			if vi == 0 {
				continue
			}
			row := data[i*nt : (i+1)*nt]
			for j, tj := range rowT {
				row[j] += vi * tj
			}
		}
	}
}

// addMultBtDB computes y += Bvᵗ D Bt x, the transpose swaps the roles of Bt and Bv.
func addMultBtDB(Bt, Bv utils.Matrix, D []float64, x, y []float64) {
	for q, dq := range D {
		var (
			rowT, rowV = Bt.Row(q), Bv.Row(q)
			u          float64
		)
		for j, tj := range rowT {
			u += tj * x[j]
		}
		u *= dq
		for i, vi := range rowV {
			y[i] += vi * u
		}
	}
}

// MatrixIntegrator stamps the same dense matrix on every entity.
type MatrixIntegrator struct {
	IntegratorBase
	M utils.Matrix
}

func NewMatrixIntegrator(M utils.Matrix) *MatrixIntegrator {
	return &MatrixIntegrator{M: M}
}

func (mi *MatrixIntegrator) AssembleElementMatrix(trial, test FE1D.FiniteElement,
	T FE1D.ElementTransformation, elmat utils.Matrix) {
	var (
		nr, nc = mi.M.Dims()
		er, ec = elmat.Dims()
	)
	if nr != er || nc != ec {
		panic(fmt.Errorf("fem: MatrixIntegrator: %w, stamp is %dx%d, element matrix is %dx%d",
			ErrDimensionMismatch, nr, nc, er, ec))
	}
	elmat.Add(mi.M)
}

func (mi *MatrixIntegrator) AddMultElement(trial, test FE1D.FiniteElement,
	T FE1D.ElementTransformation, x, y []float64) {
	mi.M.MulVecAdd(1, x, y)
}

func (mi *MatrixIntegrator) AddMultTransposeElement(trial, test FE1D.FiniteElement,
	T FE1D.ElementTransformation, x, y []float64) {
	mi.M.MulTransVecAdd(1, x, y)
}

// MassIntegrator is (Q u, v).
type MassIntegrator struct {
	IntegratorBase
	Q Coefficient
}

func NewMassIntegrator(Q Coefficient) *MassIntegrator {
	return &MassIntegrator{Q: Q}
}

func (mi *MassIntegrator) kernel(trial, test FE1D.FiniteElement,
	T FE1D.ElementTransformation) (Bt, Bv utils.Matrix, D []float64) {
	R, W := FE1D.IntegrationRule(trial.GetOrder() + test.GetOrder() + mi.Q.extraOrder())
	Bt, Bv = trial.CalcShape(R), test.CalcShape(R)
	D = make([]float64, len(R))
	for q, r := range R {
		D[q] = W[q] * T.Weight() * mi.Q.Eval(T.Transform(r))
	}
	return
}

func (mi *MassIntegrator) AssembleElementMatrix(trial, test FE1D.FiniteElement,
	T FE1D.ElementTransformation, elmat utils.Matrix) {
	Bt, Bv, D := mi.kernel(trial, test, T)
	assembleBtDB(Bt, Bv, D, elmat)
}

func (mi *MassIntegrator) AddMultElement(trial, test FE1D.FiniteElement,
	T FE1D.ElementTransformation, x, y []float64) {
	Bt, Bv, D := mi.kernel(trial, test, T)
	addMultBtDB(Bt, Bv, D, x, y)
}

func (mi *MassIntegrator) AddMultTransposeElement(trial, test FE1D.FiniteElement,
	T FE1D.ElementTransformation, x, y []float64) {
	Bt, Bv, D := mi.kernel(trial, test, T)
	addMultBtDB(Bv, Bt, D, x, y)
}

// DiffusionIntegrator is (K u', v').
type DiffusionIntegrator struct {
	IntegratorBase
	K Coefficient
}

func NewDiffusionIntegrator(K Coefficient) *DiffusionIntegrator {
	return &DiffusionIntegrator{K: K}
}

// d/dx = 1/J d/dr and dx = |J| dr, so the weight carries 1/|J|
func (di *DiffusionIntegrator) kernel(trial, test FE1D.FiniteElement,
	T FE1D.ElementTransformation) (Bt, Bv utils.Matrix, D []float64) {
	R, W := FE1D.IntegrationRule(trial.GetOrder() + test.GetOrder() - 2 + di.K.extraOrder())
	Bt, Bv = trial.CalcDShape(R), test.CalcDShape(R)
	D = make([]float64, len(R))
	for q, r := range R {
		D[q] = W[q] / T.Weight() * di.K.Eval(T.Transform(r))
	}
	return
}

func (di *DiffusionIntegrator) AssembleElementMatrix(trial, test FE1D.FiniteElement,
	T FE1D.ElementTransformation, elmat utils.Matrix) {
	Bt, Bv, D := di.kernel(trial, test, T)
	assembleBtDB(Bt, Bv, D, elmat)
}

func (di *DiffusionIntegrator) AddMultElement(trial, test FE1D.FiniteElement,
	T FE1D.ElementTransformation, x, y []float64) {
	Bt, Bv, D := di.kernel(trial, test, T)
	addMultBtDB(Bt, Bv, D, x, y)
}

func (di *DiffusionIntegrator) AddMultTransposeElement(trial, test FE1D.FiniteElement,
	T FE1D.ElementTransformation, x, y []float64) {
	Bt, Bv, D := di.kernel(trial, test, T)
	addMultBtDB(Bv, Bt, D, x, y)
}

// BoundaryMassIntegrator is Q u v on boundary points, the Robin term.
type BoundaryMassIntegrator struct {
	IntegratorBase
	Q Coefficient
}

func NewBoundaryMassIntegrator(Q Coefficient) *BoundaryMassIntegrator {
	return &BoundaryMassIntegrator{Q: Q}
}

func (bi *BoundaryMassIntegrator) AssembleElementMatrix(trial, test FE1D.FiniteElement,
	T FE1D.ElementTransformation, elmat utils.Matrix) {
	if r, c := elmat.Dims(); r != 1 || c != 1 {
		panic(fmt.Errorf("fem: BoundaryMassIntegrator: %w, point element matrix is %dx%d",
			ErrDimensionMismatch, r, c))
	}
	elmat.Set(0, 0, bi.Q.Eval(T.X0))
}

// InteriorPenaltyIntegrator is the symmetric interior penalty face term of
// -(K u')' = f:
//
//	-{K u'}[v] - {K v'}[u] + Sigma p²/h K [u][v]
//
// with [u] = n1 (u1 - u2) and {u'} the average derivative. On boundary faces
// the single side is used with full weight.
type InteriorPenaltyIntegrator struct {
	IntegratorBase
	Sigma float64
	K     Coefficient
}

func NewInteriorPenaltyIntegrator(sigma float64, K Coefficient) *InteriorPenaltyIntegrator {
	return &InteriorPenaltyIntegrator{Sigma: sigma, K: K}
}

func (ip *InteriorPenaltyIntegrator) AssembleFaceMatrix(fe1, fe2 FE1D.FiniteElement,
	T FE1D.FaceTransformation, elmat utils.Matrix) {
	var (
		sides  = []FE1D.FiniteElement{fe1}
		jac    = []float64{T.J1}
		sign   = []float64{T.Normal}
		avgW   = 1.
		h      = T.H1
		p      = fe1.GetOrder()
		n      int
		jmp    []float64
		avg    []float64
		er, ec = elmat.Dims()
	)
	if !T.IsBoundary() {
		sides = append(sides, fe2)
		jac = append(jac, T.J2)
		sign = append(sign, -T.Normal)
		avgW = 0.5
		h = 0.5 * (T.H1 + T.H2)
		if fe2.GetOrder() > p {
			p = fe2.GetOrder()
		}
	}
	for _, fe := range sides {
		n += fe.GetDof()
	}
	if er != n || ec != n {
		panic(fmt.Errorf("fem: InteriorPenaltyIntegrator: %w, face has %d dofs, element matrix is %dx%d",
			ErrDimensionMismatch, n, er, ec))
	}
	for s, fe := range sides {
		r := []float64{T.LocalPoint(s)}
		shape, dshape := fe.CalcShape(r).Row(0), fe.CalcDShape(r).Row(0)
		for j := range shape {
			jmp = append(jmp, sign[s]*shape[j])
			avg = append(avg, avgW*dshape[j]/jac[s])
		}
	}
	var (
		K    = ip.K.Eval(T.X)
		pen  = ip.Sigma * float64(p*p) / h
		data = elmat.Data()
	)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data[i*n+j] += K * (pen*jmp[i]*jmp[j] - avg[j]*jmp[i] - avg[i]*jmp[j])
		}
	}
}

// LinearFormIntegrator adds the load vector of one entity into elvec.
type LinearFormIntegrator interface {
	AssembleRHSElementVect(fe FE1D.FiniteElement, T FE1D.ElementTransformation, elvec []float64)
}

// DomainLFIntegrator is (f, v).
type DomainLFIntegrator struct {
	F Coefficient
}

func NewDomainLFIntegrator(f Coefficient) *DomainLFIntegrator {
	return &DomainLFIntegrator{F: f}
}

func (di *DomainLFIntegrator) AssembleRHSElementVect(fe FE1D.FiniteElement,
	T FE1D.ElementTransformation, elvec []float64) {
	R, W := FE1D.IntegrationRule(2*fe.GetOrder() + 2)
	S := fe.CalcShape(R)
	for q, r := range R {
		fq := W[q] * T.Weight() * di.F.Eval(T.Transform(r))
		for i, s := range S.Row(q) {
			elvec[i] += fq * s
		}
	}
}

// BoundaryLFIntegrator is g v on boundary points, the Neumann load.
type BoundaryLFIntegrator struct {
	G Coefficient
}

func NewBoundaryLFIntegrator(g Coefficient) *BoundaryLFIntegrator {
	return &BoundaryLFIntegrator{G: g}
}

func (bi *BoundaryLFIntegrator) AssembleRHSElementVect(fe FE1D.FiniteElement,
	T FE1D.ElementTransformation, elvec []float64) {
	elvec[0] += bi.G.Eval(T.X0)
}
