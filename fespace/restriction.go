package fespace

import (
	"github.com/notargets/gomfem/operator"
	"github.com/notargets/gomfem/utils"
)

// EntityRestriction maps an L-vector to the entity-duplicated E-vector of one
// category. Entity i owns E entries [Offsets[i], Offsets[i+1]).
// MultTranspose sums the entity contributions back into shared L dofs.
type EntityRestriction struct {
	Cat     Category
	Dofs    []utils.Index
	Offsets []int
	lsize   int
}

func NewEntityRestriction(cat Category, dofs []utils.Index, lsize int) (er *EntityRestriction) {
	er = &EntityRestriction{
		Cat:     cat,
		Dofs:    dofs,
		Offsets: make([]int, len(dofs)+1),
		lsize:   lsize,
	}
	for i, d := range dofs {
		er.Offsets[i+1] = er.Offsets[i] + len(d)
	}
	return
}

func (er *EntityRestriction) Height() int { return er.Offsets[len(er.Dofs)] }
func (er *EntityRestriction) Width() int  { return er.lsize }

// NumEntities is the number of entities in the category.
func (er *EntityRestriction) NumEntities() int { return len(er.Dofs) }

// Entity returns the E-vector slice of entity i, sharing storage with e.
func (er *EntityRestriction) Entity(e []float64, i int) []float64 {
	return e[er.Offsets[i]:er.Offsets[i+1]]
}

// Mult gathers l into e.
func (er *EntityRestriction) Mult(l, e utils.Vector) {
	operator.CheckMult("EntityRestriction", er, l, e)
	var (
		lD, eD = l.Data(), e.Data()
	)
	for i, dofs := range er.Dofs {
		ee := er.Entity(eD, i)
		for j, d := range dofs {
			ee[j] = lD[d]
		}
	}
}

// MultTranspose overwrites l with the sum of the entity values at each dof.
func (er *EntityRestriction) MultTranspose(e, l utils.Vector) {
	l.Set(0)
	er.AddMultTranspose(e, l)
}

// AddMultTranspose accumulates the entity values into l.
func (er *EntityRestriction) AddMultTranspose(e, l utils.Vector) {
	operator.CheckMultTranspose("EntityRestriction", er, e, l)
	var (
		lD, eD = l.Data(), e.Data()
	)
	for i, dofs := range er.Dofs {
		ee := er.Entity(eD, i)
		for j, d := range dofs {
			lD[d] += ee[j]
		}
	}
}
