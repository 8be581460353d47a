package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK is the accumulation format used during assembly, element contributions
// are summed into it and then compressed with ToCSR.
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }
func (m DOK) NNZ() int            { return m.M.NNZ() }

func (m *DOK) SetReadOnly(name ...string) DOK {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

// AddTo sums val into entry (i,j)
func (m DOK) AddTo(i, j int, val float64) { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, m.M.At(i, j)+val)
}

// AddElementMatrix scatters a dense local matrix into the rows/cols listed
func (m DOK) AddElementMatrix(rows, cols Index, elmat Matrix) (err error) { // Changes receiver
	var (
		nr, nc = elmat.Dims()
		mr, mc = m.Dims()
		data   = elmat.Data()
	)
	m.checkWritable()
	if nr != len(rows) || nc != len(cols) {
		err = fmt.Errorf("element matrix is %dx%d, dof lists are %d and %d", nr, nc, len(rows), len(cols))
		return
	}
	for ii, i := range rows {
		if i < 0 || i >= mr {
			err = fmt.Errorf("row index %d out of bounds [0,%d)", i, mr)
			return
		}
		for jj, j := range cols {
			if j < 0 || j >= mc {
				err = fmt.Errorf("column index %d out of bounds [0,%d)", j, mc)
				return
			}
			if val := data[ii*nc+jj]; val != 0 {
				m.M.Set(i, j, m.M.At(i, j)+val)
			}
		}
	}
	return
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m DOK) ToCSR() CSR {
	return CSR{
		M:        m.M.ToCSR(),
		readOnly: m.readOnly,
		name:     m.name,
	}
}

// CSR is the compressed format applied by the assembled operators
type CSR struct {
	M        *sparse.CSR
	readOnly bool
	name     string
}

func NewCSR(nr, nc int, ia, ja []int, data []float64) (R CSR) {
	R = CSR{
		sparse.NewCSR(nr, nc, ia, ja, data),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m CSR) NNZ() int                      { return m.M.NNZ() }
func (m CSR) Data() []float64 {
	return m.RawMatrix().Data
}

// MulVec computes y = M x
func (m CSR) MulVec(x, y []float64) {
	var (
		raw    = m.RawMatrix()
		nr, nc = m.Dims()
	)
	if len(x) != nc || len(y) != nr {
		panic(fmt.Errorf("csr MulVec: dimension mismatch, dims = %dx%d, len(x) = %d, len(y) = %d",
			nr, nc, len(x), len(y)))
	}
	for i := 0; i < nr; i++ {
		var sum float64
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			sum += raw.Data[k] * x[raw.Ind[k]]
		}
		y[i] = sum
	}
}

// MulTransVec computes y = Mt x
func (m CSR) MulTransVec(x, y []float64) {
	var (
		raw    = m.RawMatrix()
		nr, nc = m.Dims()
	)
	if len(x) != nr || len(y) != nc {
		panic(fmt.Errorf("csr MulTransVec: dimension mismatch, dims = %dx%d, len(x) = %d, len(y) = %d",
			nr, nc, len(x), len(y)))
	}
	for j := range y {
		y[j] = 0
	}
	for i := 0; i < nr; i++ {
		xi := x[i]
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			y[raw.Ind[k]] += raw.Data[k] * xi
		}
	}
}

// DoNonZero visits every stored entry in row order
func (m CSR) DoNonZero(fn func(i, j int, v float64)) {
	var (
		raw   = m.RawMatrix()
		nr, _ = m.Dims()
	)
	for i := 0; i < nr; i++ {
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			fn(i, raw.Ind[k], raw.Data[k])
		}
	}
}
