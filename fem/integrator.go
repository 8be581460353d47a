package fem

import (
	"reflect"

	"github.com/notargets/gomfem/FE1D"
	"github.com/notargets/gomfem/fespace"
	"github.com/notargets/gomfem/utils"
)

// Category re-exports the entity families of fespace.
type Category = fespace.Category

const (
	Domain       = fespace.Domain
	Boundary     = fespace.Boundary
	InteriorFace = fespace.InteriorFace
	BoundaryFace = fespace.BoundaryFace
)

// Form is the view of a bilinear form handed to its integrators.
type Form interface {
	TrialSpace() fespace.FiniteElementSpace
	TestSpace() fespace.FiniteElementSpace
	TrueWidth() int
	TrueHeight() int
}

// Integrator is registered with a form under one category. SetupIntegrator
// is called once at registration, the spaces may still change before
// assembly so integrators query them lazily.
type Integrator interface {
	SetupIntegrator(f Form, c Category)
}

// ElementMatrixIntegrator computes the test x trial matrix of a Domain or
// Boundary entity. elmat arrives zeroed and sized, the integrator fills it.
type ElementMatrixIntegrator interface {
	Integrator
	AssembleElementMatrix(trial, test FE1D.FiniteElement, T FE1D.ElementTransformation, elmat utils.Matrix)
}

// FaceMatrixIntegrator computes the matrix of a face over the dofs of both
// neighbours (fe2 is nil on boundary faces).
type FaceMatrixIntegrator interface {
	Integrator
	AssembleFaceMatrix(fe1, fe2 FE1D.FiniteElement, T FE1D.FaceTransformation, elmat utils.Matrix)
}

// ActionIntegrator applies its element operator without forming it,
// y += A_e x and y += A_eᵗ x respectively.
type ActionIntegrator interface {
	Integrator
	AddMultElement(trial, test FE1D.FiniteElement, T FE1D.ElementTransformation, x, y []float64)
	AddMultTransposeElement(trial, test FE1D.FiniteElement, T FE1D.ElementTransformation, x, y []float64)
}

// IntegratorBase records the owning form and category, embed it to satisfy
// Integrator.
type IntegratorBase struct {
	form     Form
	category Category
}

func (ib *IntegratorBase) SetupIntegrator(f Form, c Category) {
	ib.form = f
	ib.category = c
}

// Form returns the form the integrator is registered with, nil before
// registration.
func (ib *IntegratorBase) Form() Form { return ib.form }

func (ib *IntegratorBase) Category() Category { return ib.category }

// canServe reports whether integ has a kernel for the category, for the
// matrix based levels a matrix kernel is required.
func canServe(integ Integrator, c Category, needMatrix bool) bool {
	if c.IsFace() {
		_, ok := integ.(FaceMatrixIntegrator)
		return ok
	}
	if _, ok := integ.(ElementMatrixIntegrator); ok {
		return true
	}
	if needMatrix {
		return false
	}
	_, ok := integ.(ActionIntegrator)
	return ok
}

// isNilPointer catches typed nil pointers hidden in a non nil interface.
func isNilPointer(integ any) bool {
	v := reflect.ValueOf(integ)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
