package fem

import (
	"fmt"

	"github.com/notargets/gomfem/fespace"
	"github.com/notargets/gomfem/utils"
)

// LinearForm is the load b(v) = sum over entities of the registered load
// integrators, assembled into a test space L-vector.
type LinearForm struct {
	fes         fespace.FiniteElementSpace
	integrators [fespace.NumCategories][]LinearFormIntegrator
}

func NewLinearForm(fes fespace.FiniteElementSpace) *LinearForm {
	return &LinearForm{fes: fes}
}

func (lf *LinearForm) Space() fespace.FiniteElementSpace { return lf.fes }

func (lf *LinearForm) AddDomainIntegrator(integ LinearFormIntegrator) {
	lf.add("AddDomainIntegrator", Domain, integ)
}

func (lf *LinearForm) AddBoundaryIntegrator(integ LinearFormIntegrator) {
	lf.add("AddBoundaryIntegrator", Boundary, integ)
}

func (lf *LinearForm) add(call string, c Category, integ LinearFormIntegrator) {
	if integ == nil || isNilPointer(integ) {
		panic(fmt.Errorf("fem: LinearForm.%s: %w", call, ErrNilIntegrator))
	}
	lf.integrators[c] = append(lf.integrators[c], integ)
}

// Assemble returns a new L-vector holding the load.
func (lf *LinearForm) Assemble() (b utils.Vector) {
	b = utils.NewVector(lf.fes.VSize())
	for _, c := range []Category{Domain, Boundary} {
		if len(lf.integrators[c]) == 0 {
			continue
		}
		var (
			er = lf.fes.GetEntityRestriction(c)
			e  = utils.NewVector(er.Height())
			eD = e.Data()
		)
		for i := 0; i < er.NumEntities(); i++ {
			fe, _ := lf.fes.EntityFE(c, i)
			T := lf.fes.ElementTransformation(c, i)
			for _, integ := range lf.integrators[c] {
				integ.AssembleRHSElementVect(fe, T, er.Entity(eD, i))
			}
		}
		er.AddMultTranspose(e, b)
	}
	return
}
