package operator

import (
	"github.com/notargets/gomfem/utils"
)

// SparseMatrix is an assembled operator backed by a CSR matrix.
type SparseMatrix struct {
	utils.CSR
}

func NewSparseMatrix(A utils.CSR) *SparseMatrix {
	return &SparseMatrix{CSR: A}
}

func (S *SparseMatrix) Height() int { r, _ := S.Dims(); return r }
func (S *SparseMatrix) Width() int  { _, c := S.Dims(); return c }
func (S *SparseMatrix) Mult(x, y utils.Vector) {
	CheckMult("SparseMatrix", S, x, y)
	S.MulVec(x.Data(), y.Data())
}
func (S *SparseMatrix) MultTranspose(x, y utils.Vector) {
	CheckMultTranspose("SparseMatrix", S, x, y)
	S.MulTransVec(x.Data(), y.Data())
}

// DenseMatrix is an assembled operator backed by a dense matrix.
type DenseMatrix struct {
	utils.Matrix
}

func NewDenseMatrix(A utils.Matrix) *DenseMatrix {
	return &DenseMatrix{Matrix: A}
}

func (D *DenseMatrix) Height() int { r, _ := D.Dims(); return r }
func (D *DenseMatrix) Width() int  { _, c := D.Dims(); return c }
func (D *DenseMatrix) Mult(x, y utils.Vector) {
	CheckMult("DenseMatrix", D, x, y)
	y.Set(0)
	D.MulVecAdd(1, x.Data(), y.Data())
}
func (D *DenseMatrix) MultTranspose(x, y utils.Vector) {
	CheckMultTranspose("DenseMatrix", D, x, y)
	y.Set(0)
	D.MulTransVecAdd(1, x.Data(), y.Data())
}

// Materialize builds the sparse matrix of any operator by applying it to the
// unit vectors, one column at a time. Entries with magnitude <= dropTol are
// not stored. The cost is Width applications of op.
func Materialize(op Operator, dropTol float64) *SparseMatrix {
	var (
		nr, nc = op.Height(), op.Width()
		A      = utils.NewDOK(nr, nc)
		e      = utils.NewVector(nc)
		col    = utils.NewVector(nr)
		eD     = e.Data()
		colD   = col.Data()
	)
	for j := 0; j < nc; j++ {
		eD[j] = 1
		op.Mult(e, col)
		eD[j] = 0
		for i, val := range colD {
			if val > dropTol || val < -dropTol {
				A.AddTo(i, j, val)
			}
		}
	}
	return NewSparseMatrix(A.ToCSR())
}
