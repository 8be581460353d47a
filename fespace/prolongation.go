package fespace

import (
	"github.com/notargets/gomfem/operator"
	"github.com/notargets/gomfem/utils"
)

// Prolongation copies every true dof to each of its local copies,
// LToT[l] is the true dof of local dof l.
type Prolongation struct {
	LToT  []int
	tsize int
}

func (P *Prolongation) Height() int { return len(P.LToT) }
func (P *Prolongation) Width() int  { return P.tsize }

func (P *Prolongation) Mult(t, l utils.Vector) {
	operator.CheckMult("Prolongation", P, t, l)
	var (
		tD, lD = t.Data(), l.Data()
	)
	for i, j := range P.LToT {
		lD[i] = tD[j]
	}
}

// MultTranspose sums the local copies of each true dof.
func (P *Prolongation) MultTranspose(l, t utils.Vector) {
	operator.CheckMultTranspose("Prolongation", P, l, t)
	var (
		tD, lD = t.Data(), l.Data()
	)
	t.Set(0)
	for i, j := range P.LToT {
		tD[j] += lD[i]
	}
}

// Restriction selects one local copy per true dof, so that R P = I.
type Restriction struct {
	TToL  []int
	lsize int
}

func (R *Restriction) Height() int { return len(R.TToL) }
func (R *Restriction) Width() int  { return R.lsize }

func (R *Restriction) Mult(l, t utils.Vector) {
	operator.CheckMult("Restriction", R, l, t)
	var (
		tD, lD = t.Data(), l.Data()
	)
	for j, i := range R.TToL {
		tD[j] = lD[i]
	}
}

func (R *Restriction) MultTranspose(t, l utils.Vector) {
	operator.CheckMultTranspose("Restriction", R, t, l)
	var (
		tD, lD = t.Data(), l.Data()
	)
	l.Set(0)
	for j, i := range R.TToL {
		lD[i] = tD[j]
	}
}

// newConformingMaps builds P and R from the local to true dof map.
func newConformingMaps(LToT []int, tsize int) (P *Prolongation, R *Restriction) {
	P = &Prolongation{LToT: LToT, tsize: tsize}
	R = &Restriction{TToL: make([]int, tsize), lsize: len(LToT)}
	for j := range R.TToL {
		R.TToL[j] = -1
	}
	for i, j := range LToT {
		if R.TToL[j] < 0 {
			R.TToL[j] = i
		}
	}
	return
}
