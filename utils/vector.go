package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Vector is a fixed size float64 buffer. Copies of a Vector value share storage,
// so a Vector can be handed to an operator and written in place.
type Vector struct {
	V *mat.VecDense
}

func NewVector(N int, dataO ...[]float64) (R Vector) {
	var (
		data []float64
	)
	if len(dataO) != 0 {
		data = dataO[0]
		if len(data) != N {
			err := fmt.Errorf("mismatch in allocation: NewVector N = %v, len(data[0]) = %v", N, len(data))
			panic(err)
		}
	} else {
		data = make([]float64, N)
	}
	if N == 0 {
		// mat.NewVecDense refuses zero length, an empty vector is still a valid layout
		return Vector{V: &mat.VecDense{}}
	}
	R = Vector{V: mat.NewVecDense(N, data)}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (v Vector) Dims() (r, c int)         { return v.Len(), 1 }
func (v Vector) At(i, j int) float64      { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix            { return v.V.T() }
func (v Vector) AtVec(i int) float64      { return v.V.AtVec(i) }
func (v Vector) RawVector() blas64.Vector { return v.V.RawVector() }
func (v Vector) Len() int {
	if v.V == nil || v.V.IsEmpty() {
		return 0
	}
	return v.V.Len()
}
func (v Vector) Data() []float64 {
	if v.Len() == 0 {
		return nil
	}
	return v.V.RawVector().Data[:v.Len()]
}
func (v Vector) IsNil() bool { return v.V == nil }

// SharesData reports whether both vectors are views of the same storage.
func (v Vector) SharesData(a Vector) bool {
	var (
		d1, d2 = v.Data(), a.Data()
	)
	if len(d1) == 0 || len(d2) == 0 {
		return false
	}
	return &d1[0] == &d2[0]
}

// Slice returns a view of elements [i, j) sharing storage with the receiver.
func (v Vector) Slice(i, j int) (R Vector) {
	if i == j {
		return NewVector(0)
	}
	return Vector{V: v.V.SliceVec(i, j).(*mat.VecDense)}
}

// Chainable (extended) methods
func (v Vector) Set(val float64) Vector { // Changes receiver
	var (
		data = v.Data()
	)
	for i := range data {
		data[i] = val
	}
	return v
}

func (v Vector) Copy() (R Vector) { // Does not change receiver
	R = NewVector(v.Len())
	copy(R.Data(), v.Data())
	return
}

func (v Vector) CopyFrom(a Vector) Vector { // Changes receiver
	v.checkLen("CopyFrom", a.Len())
	copy(v.Data(), a.Data())
	return v
}

func (v Vector) Add(a Vector) Vector { // Changes receiver
	v.checkLen("Add", a.Len())
	floats.Add(v.Data(), a.Data())
	return v
}

func (v Vector) Subtract(a Vector) Vector { // Changes receiver
	v.checkLen("Subtract", a.Len())
	floats.Sub(v.Data(), a.Data())
	return v
}

// AddScaled computes v += alpha * a
func (v Vector) AddScaled(alpha float64, a Vector) Vector { // Changes receiver
	v.checkLen("AddScaled", a.Len())
	floats.AddScaled(v.Data(), alpha, a.Data())
	return v
}

func (v Vector) Scale(a float64) Vector { // Changes receiver
	floats.Scale(a, v.Data())
	return v
}

func (v Vector) Dot(a Vector) float64 {
	v.checkLen("Dot", a.Len())
	return floats.Dot(v.Data(), a.Data())
}

func (v Vector) Norm() float64 {
	if v.Len() == 0 {
		return 0
	}
	return floats.Norm(v.Data(), 2)
}

// GetSubVector gathers the entries at I into a new slice
func (v Vector) GetSubVector(I Index) (r []float64) {
	var (
		data = v.Data()
	)
	r = make([]float64, len(I))
	for i, ind := range I {
		r[i] = data[ind]
	}
	return
}

func (v Vector) SetSubVector(I Index, vals []float64) Vector { // Changes receiver
	var (
		data = v.Data()
	)
	if len(I) != len(vals) {
		err := fmt.Errorf("length of index and values are not equal: len(I) = %v, len(vals) = %v", len(I), len(vals))
		panic(err)
	}
	for i, ind := range I {
		data[ind] = vals[i]
	}
	return v
}

func (v Vector) SetSubVectorValue(I Index, val float64) Vector { // Changes receiver
	var (
		data = v.Data()
	)
	for _, ind := range I {
		data[ind] = val
	}
	return v
}

// AlmostEqual compares two vectors entry by entry with an absolute tolerance
func (v Vector) AlmostEqual(a Vector, tol float64) bool {
	if v.Len() != a.Len() {
		return false
	}
	return floats.EqualApprox(v.Data(), a.Data(), tol)
}

func (v Vector) HasNaN() bool {
	for _, val := range v.Data() {
		if math.IsNaN(val) {
			return true
		}
	}
	return false
}

func (v Vector) checkLen(op string, n int) {
	if v.Len() != n {
		panic(fmt.Errorf("vector %s: dimension mismatch, len = %d, other = %d", op, v.Len(), n))
	}
}
