package FE1D

import (
	"fmt"

	"github.com/notargets/gomfem/utils"
)

// FiniteElement is the reference basis handed to integrators. Shape matrices
// are evaluated at a set of reference points, one row per point and one
// column per dof.
type FiniteElement interface {
	GetDof() int
	GetOrder() int
	CalcShape(r []float64) utils.Matrix
	CalcDShape(r []float64) utils.Matrix
}

// LagrangeElement is the order N nodal basis on [-1,1] with Gauss-Lobatto
// nodes, so dof 0 sits on r = -1 and dof N on r = 1.
type LagrangeElement struct {
	N, Np   int
	R       []float64
	V, Vinv utils.Matrix
	Dr      utils.Matrix
}

func NewLagrangeElement(N int) (el *LagrangeElement) {
	var (
		err error
	)
	if N < 1 {
		panic(fmt.Errorf("lagrange element order must be >= 1, have %d", N))
	}
	el = &LagrangeElement{N: N, Np: N + 1}
	el.R = JacobiGL(0, 0, N)
	el.V = Vandermonde1D(N, el.R)
	if el.Vinv, err = el.V.Inverse(); err != nil {
		fmt.Println(err)
		panic("error inverting V")
	}
	el.Dr = GradVandermonde1D(el.R, N).Mul(el.Vinv)
	el.V.SetReadOnly("V")
	el.Vinv.SetReadOnly("Vinv")
	el.Dr.SetReadOnly("Dr")
	return
}

func (el *LagrangeElement) GetDof() int   { return el.Np }
func (el *LagrangeElement) GetOrder() int { return el.N }

// Nodes returns the reference node locations.
func (el *LagrangeElement) Nodes() []float64 { return el.R }

// CalcShape evaluates l_j(r_q) = sum_m Vinv[m][j] P_m(r_q).
func (el *LagrangeElement) CalcShape(r []float64) utils.Matrix {
	return Vandermonde1D(el.N, r).Mul(el.Vinv)
}

func (el *LagrangeElement) CalcDShape(r []float64) utils.Matrix {
	return GradVandermonde1D(r, el.N).Mul(el.Vinv)
}

// VertexDof returns the local dof sitting on the given local vertex (0 left, 1 right).
func (el *LagrangeElement) VertexDof(vertex int) int {
	if vertex == 0 {
		return 0
	}
	return el.N
}

// PointElement is the single dof element living on a boundary vertex.
type PointElement struct{}

func (PointElement) GetDof() int   { return 1 }
func (PointElement) GetOrder() int { return 0 }
func (PointElement) CalcShape(r []float64) utils.Matrix {
	return utils.NewMatrix(len(r), 1, utils.ConstArray(len(r), 1))
}
func (PointElement) CalcDShape(r []float64) utils.Matrix {
	return utils.NewMatrix(len(r), 1)
}

// IntegrationRule returns a Gauss-Legendre rule exact for polynomials of the given order.
func IntegrationRule(order int) (R, W []float64) {
	if order < 0 {
		order = 0
	}
	return JacobiGQ(0, 0, order/2)
}
