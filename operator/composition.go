package operator

import (
	"fmt"
	"sync"

	"github.com/notargets/gomfem/utils"
)

// Identity is the N x N identity map.
type Identity struct {
	N int
}

func NewIdentity(N int) *Identity { return &Identity{N: N} }

func (I *Identity) Height() int { return I.N }
func (I *Identity) Width() int  { return I.N }
func (I *Identity) Mult(x, y utils.Vector) {
	CheckMult("Identity", I, x, y)
	y.CopyFrom(x)
}
func (I *Identity) MultTranspose(x, y utils.Vector) {
	CheckMultTranspose("Identity", I, x, y)
	y.CopyFrom(x)
}

// TransposeOperator presents the transpose of a Transposer as an operator.
type TransposeOperator struct {
	A Transposer
}

func NewTransposeOperator(A Transposer) *TransposeOperator {
	return &TransposeOperator{A: A}
}

func (T *TransposeOperator) Height() int { return T.A.Width() }
func (T *TransposeOperator) Width() int  { return T.A.Height() }
func (T *TransposeOperator) Mult(x, y utils.Vector) {
	CheckMult("TransposeOperator", T, x, y)
	T.A.MultTranspose(x, y)
}
func (T *TransposeOperator) MultTranspose(x, y utils.Vector) {
	CheckMultTranspose("TransposeOperator", T, x, y)
	T.A.Mult(x, y)
}

// ScaledOperator computes y = Alpha * A x.
type ScaledOperator struct {
	A     Operator
	Alpha float64
}

func NewScaledOperator(A Operator, alpha float64) *ScaledOperator {
	return &ScaledOperator{A: A, Alpha: alpha}
}

func (S *ScaledOperator) Height() int { return S.A.Height() }
func (S *ScaledOperator) Width() int  { return S.A.Width() }
func (S *ScaledOperator) Mult(x, y utils.Vector) {
	S.A.Mult(x, y)
	y.Scale(S.Alpha)
}
func (S *ScaledOperator) MultTranspose(x, y utils.Vector) {
	MultTranspose(S.A, x, y)
	y.Scale(S.Alpha)
}

// ProductOperator computes y = A B x.
type ProductOperator struct {
	mu   sync.Mutex
	A, B Operator
	z    utils.Vector
}

func NewProductOperator(A, B Operator) (P *ProductOperator, err error) {
	if A.Width() != B.Height() {
		err = fmt.Errorf("%w: product of %dx%d and %dx%d", ErrDimensionMismatch,
			A.Height(), A.Width(), B.Height(), B.Width())
		return
	}
	P = &ProductOperator{A: A, B: B, z: utils.NewVector(B.Height())}
	return
}

func (P *ProductOperator) Height() int { return P.A.Height() }
func (P *ProductOperator) Width() int  { return P.B.Width() }
func (P *ProductOperator) Mult(x, y utils.Vector) {
	P.mu.Lock()
	defer P.mu.Unlock()
	CheckMult("ProductOperator", P, x, y)
	P.B.Mult(x, P.z)
	P.A.Mult(P.z, y)
}
func (P *ProductOperator) MultTranspose(x, y utils.Vector) {
	P.mu.Lock()
	defer P.mu.Unlock()
	CheckMultTranspose("ProductOperator", P, x, y)
	MultTranspose(P.A, x, P.z)
	MultTranspose(P.B, P.z, y)
}

// RAPOperator computes y = Rtᵗ A P x. With Rt == P it is the variational
// restriction of A from the local space onto the true dof space. It borrows
// all three factors. Applications on one instance serialize on mu.
type RAPOperator struct {
	mu       sync.Mutex
	Rt       Transposer
	A        Operator
	P        Operator
	Px, APx  utils.Vector
	released bool
}

func NewRAPOperator(Rt Transposer, A, P Operator) (rap *RAPOperator, err error) {
	if A.Width() != P.Height() {
		err = fmt.Errorf("%w: RAP: A is %dx%d, P is %dx%d", ErrDimensionMismatch,
			A.Height(), A.Width(), P.Height(), P.Width())
		return
	}
	if A.Height() != Rt.Height() {
		err = fmt.Errorf("%w: RAP: A is %dx%d, Rt is %dx%d", ErrDimensionMismatch,
			A.Height(), A.Width(), Rt.Height(), Rt.Width())
		return
	}
	rap = &RAPOperator{
		Rt:  Rt,
		A:   A,
		P:   P,
		Px:  utils.NewVector(P.Height()),
		APx: utils.NewVector(A.Height()),
	}
	return
}

func (rap *RAPOperator) Height() int { return rap.Rt.Width() }
func (rap *RAPOperator) Width() int  { return rap.P.Width() }

func (rap *RAPOperator) Mult(x, y utils.Vector) {
	rap.mu.Lock()
	defer rap.mu.Unlock()
	rap.checkLive()
	CheckMult("RAPOperator", rap, x, y)
	rap.P.Mult(x, rap.Px)
	rap.A.Mult(rap.Px, rap.APx)
	rap.Rt.MultTranspose(rap.APx, y)
}

func (rap *RAPOperator) MultTranspose(x, y utils.Vector) {
	rap.mu.Lock()
	defer rap.mu.Unlock()
	rap.checkLive()
	CheckMultTranspose("RAPOperator", rap, x, y)
	rap.Rt.Mult(x, rap.APx)
	MultTranspose(rap.A, rap.APx, rap.Px)
	MultTranspose(rap.P, rap.Px, y)
}

// Release drops the scratch vectors, the borrowed factors are left untouched.
func (rap *RAPOperator) Release() {
	rap.mu.Lock()
	defer rap.mu.Unlock()
	rap.released = true
	rap.Px, rap.APx = utils.Vector{}, utils.Vector{}
}

func (rap *RAPOperator) Released() bool {
	rap.mu.Lock()
	defer rap.mu.Unlock()
	return rap.released
}

func (rap *RAPOperator) checkLive() {
	if rap.released {
		panic(fmt.Errorf("%w: RAPOperator", ErrReleased))
	}
}
