// Package fespace numbers the degrees of freedom of a 1D mesh and provides
// the maps between true (T), local (L) and entity-duplicated (E) vectors.
package fespace

import (
	"fmt"

	"github.com/notargets/gomfem/FE1D"
	"github.com/notargets/gomfem/operator"
	"github.com/notargets/gomfem/utils"
)

// FiniteElementSpace is what forms need from a discrete space.
// A nil prolongation means the local and true spaces coincide.
type FiniteElementSpace interface {
	Mesh() *FE1D.Mesh1D
	VSize() int
	TrueVSize() int
	GetProlongationOperator() operator.Operator
	GetRestrictionOperator() operator.Operator
	NumEntities(cat Category) int
	EntityDofs(cat Category, i int) utils.Index
	EntityFE(cat Category, i int) (fe1, fe2 FE1D.FiniteElement)
	ElementTransformation(cat Category, i int) FE1D.ElementTransformation
	FaceTransformation(cat Category, i int) FE1D.FaceTransformation
	GetEntityRestriction(cat Category) *EntityRestriction
	GlobalToLocal(l, e utils.Vector)
	LocalToGlobal(e, l utils.Vector)
	GetEssentialTrueDofs(bdrMarker []bool) utils.Index
}

// Layout chooses how dofs shared by neighbouring elements are numbered.
type Layout uint8

const (
	// Conforming numbers shared vertex dofs once, L == T.
	Conforming Layout = iota
	// Duplicated gives every element its own copy of the vertex dofs in L,
	// T is the conforming numbering reached through P and R.
	Duplicated
	// Discontinuous never shares dofs, L == T.
	Discontinuous
)

func (l Layout) String() string {
	switch l {
	case Conforming:
		return "conforming"
	case Duplicated:
		return "duplicated"
	case Discontinuous:
		return "discontinuous"
	}
	return fmt.Sprintf("Layout(%d)", uint8(l))
}

// ParseLayout is the inverse of Layout.String.
func ParseLayout(s string) (l Layout, err error) {
	for _, l = range []Layout{Conforming, Duplicated, Discontinuous} {
		if l.String() == s {
			return
		}
	}
	err = fmt.Errorf("unknown dof layout %q, use conforming, duplicated or discontinuous", s)
	return
}

// H1Space is the order N Lagrange space on a Mesh1D.
type H1Space struct {
	mesh   *FE1D.Mesh1D
	fe     *FE1D.LagrangeElement
	layout Layout

	elemDofs   []utils.Index // L dofs per element
	vsize      int
	tsize      int
	vertexTDof []int // conforming true dof of each vertex
	P          *Prolongation
	R          *Restriction

	restrictions [NumCategories]*EntityRestriction
}

var _ FiniteElementSpace = (*H1Space)(nil)

func NewH1Space(mesh *FE1D.Mesh1D, order int, layout Layout) (fes *H1Space, err error) {
	if mesh == nil {
		err = fmt.Errorf("fespace: nil mesh")
		return
	}
	if order < 1 {
		err = fmt.Errorf("fespace: order must be >= 1, have %d", order)
		return
	}
	fes = &H1Space{
		mesh:   mesh,
		fe:     FE1D.NewLagrangeElement(order),
		layout: layout,
	}
	switch layout {
	case Conforming:
		fes.elemDofs, fes.vsize = fes.conformingNumbering()
		fes.tsize = fes.vsize
	case Duplicated:
		var conf []utils.Index
		conf, fes.tsize = fes.conformingNumbering()
		fes.elemDofs, fes.vsize = fes.elementNumbering()
		LToT := make([]int, fes.vsize)
		for k, dofs := range fes.elemDofs {
			for i, d := range dofs {
				LToT[d] = conf[k][i]
			}
		}
		fes.P, fes.R = newConformingMaps(LToT, fes.tsize)
	case Discontinuous:
		fes.elemDofs, fes.vsize = fes.elementNumbering()
		fes.tsize = fes.vsize
	default:
		err = fmt.Errorf("fespace: unknown layout %v", layout)
		fes = nil
		return
	}
	for _, cat := range Categories {
		fes.restrictions[cat] = fes.buildRestriction(cat)
	}
	return
}

// conformingNumbering gives vertex v the dof v, interior nodes follow
// element by element.
func (fes *H1Space) conformingNumbering() (elemDofs []utils.Index, size int) {
	var (
		K   = fes.mesh.NumElements()
		N   = fes.fe.N
		Nv  = fes.mesh.NumVertices()
		Nin = N - 1
	)
	fes.vertexTDof = make([]int, Nv)
	for v := range fes.vertexTDof {
		fes.vertexTDof[v] = v
	}
	elemDofs = make([]utils.Index, K)
	for k := 0; k < K; k++ {
		dofs := utils.NewIndex(N + 1)
		dofs[0] = fes.mesh.EToV[k][0]
		dofs[N] = fes.mesh.EToV[k][1]
		for i := 1; i < N; i++ {
			dofs[i] = Nv + k*Nin + i - 1
		}
		elemDofs[k] = dofs
	}
	size = Nv + K*Nin
	return
}

// elementNumbering gives element k the dofs [k Np, (k+1) Np).
func (fes *H1Space) elementNumbering() (elemDofs []utils.Index, size int) {
	var (
		K  = fes.mesh.NumElements()
		Np = fes.fe.Np
	)
	elemDofs = make([]utils.Index, K)
	for k := 0; k < K; k++ {
		elemDofs[k] = utils.NewRange(k*Np, (k+1)*Np-1)
	}
	size = K * Np
	return
}

func (fes *H1Space) buildRestriction(cat Category) *EntityRestriction {
	var (
		n    = fes.NumEntities(cat)
		dofs = make([]utils.Index, n)
	)
	for i := 0; i < n; i++ {
		dofs[i] = fes.EntityDofs(cat, i)
	}
	return NewEntityRestriction(cat, dofs, fes.vsize)
}

func (fes *H1Space) Mesh() *FE1D.Mesh1D            { return fes.mesh }
func (fes *H1Space) FE() *FE1D.LagrangeElement     { return fes.fe }
func (fes *H1Space) Layout() Layout                { return fes.layout }
func (fes *H1Space) VSize() int                    { return fes.vsize }
func (fes *H1Space) TrueVSize() int                { return fes.tsize }
func (fes *H1Space) ElementDofs(k int) utils.Index { return fes.elemDofs[k] }

func (fes *H1Space) GetProlongationOperator() operator.Operator {
	if fes.P == nil {
		return nil
	}
	return fes.P
}

func (fes *H1Space) GetRestrictionOperator() operator.Operator {
	if fes.R == nil {
		return nil
	}
	return fes.R
}

func (fes *H1Space) NumEntities(cat Category) int {
	switch cat {
	case Domain:
		return fes.mesh.NumElements()
	case Boundary:
		return fes.mesh.NumBdrElements()
	case InteriorFace:
		return fes.mesh.NumInteriorFaces()
	case BoundaryFace:
		return fes.mesh.NumBoundaryFaces()
	}
	panic(fmt.Errorf("fespace: unknown category %v", cat))
}

// EntityDofs lists the L dofs of entity i. Face entities carry the dofs of
// both neighbours, Elem1 first.
func (fes *H1Space) EntityDofs(cat Category, i int) utils.Index {
	switch cat {
	case Domain:
		return fes.elemDofs[i]
	case Boundary:
		f := fes.mesh.BoundaryFaces[i]
		return utils.Index{fes.elemDofs[f.Elem1][fes.fe.VertexDof(f.Loc1)]}
	case InteriorFace:
		f := fes.mesh.InteriorFaces[i]
		return fes.elemDofs[f.Elem1].Concat(fes.elemDofs[f.Elem2])
	case BoundaryFace:
		f := fes.mesh.BoundaryFaces[i]
		return fes.elemDofs[f.Elem1]
	}
	panic(fmt.Errorf("fespace: unknown category %v", cat))
}

func (fes *H1Space) EntityFE(cat Category, i int) (fe1, fe2 FE1D.FiniteElement) {
	switch cat {
	case Domain:
		return fes.fe, fes.fe
	case Boundary:
		return FE1D.PointElement{}, FE1D.PointElement{}
	case InteriorFace:
		return fes.fe, fes.fe
	case BoundaryFace:
		return fes.fe, nil
	}
	panic(fmt.Errorf("fespace: unknown category %v", cat))
}

func (fes *H1Space) ElementTransformation(cat Category, i int) FE1D.ElementTransformation {
	switch cat {
	case Domain:
		return fes.mesh.ElementTransformation(i)
	case Boundary:
		return fes.mesh.BdrElementTransformation(i)
	}
	panic(fmt.Errorf("fespace: %v entities have no element transformation", cat))
}

func (fes *H1Space) FaceTransformation(cat Category, i int) FE1D.FaceTransformation {
	switch cat {
	case InteriorFace:
		return fes.mesh.InteriorFaceTransformation(i)
	case BoundaryFace:
		return fes.mesh.BoundaryFaceTransformation(i)
	}
	panic(fmt.Errorf("fespace: %v entities have no face transformation", cat))
}

func (fes *H1Space) GetEntityRestriction(cat Category) *EntityRestriction {
	return fes.restrictions[cat]
}

// GlobalToLocal gathers the L-vector l into the element-duplicated e.
func (fes *H1Space) GlobalToLocal(l, e utils.Vector) {
	fes.restrictions[Domain].Mult(l, e)
}

// LocalToGlobal sums the element values of e into l.
func (fes *H1Space) LocalToGlobal(e, l utils.Vector) {
	fes.restrictions[Domain].MultTranspose(e, l)
}

// GetEssentialTrueDofs returns the true dofs on boundary vertices whose
// attribute a has bdrMarker[a-1] set.
func (fes *H1Space) GetEssentialTrueDofs(bdrMarker []bool) (ess utils.Index) {
	var (
		m = fes.mesh
	)
	for b, v := range m.BdrVertices {
		a := m.BdrAttributes[b]
		if a-1 >= len(bdrMarker) || !bdrMarker[a-1] {
			continue
		}
		if fes.layout == Discontinuous {
			ess = append(ess, fes.EntityDofs(Boundary, b)[0])
		} else {
			ess = append(ess, fes.vertexTDof[v])
		}
	}
	return ess.Unique()
}

// NodeCoordinates returns the physical location of every L dof.
func (fes *H1Space) NodeCoordinates() (x []float64) {
	x = make([]float64, fes.vsize)
	for k, dofs := range fes.elemDofs {
		T := fes.mesh.ElementTransformation(k)
		for i, d := range dofs {
			x[d] = T.Transform(fes.fe.R[i])
		}
	}
	return
}

// ProjectFunction interpolates f at the nodes into an L-vector.
func (fes *H1Space) ProjectFunction(f func(x float64) float64) (u utils.Vector) {
	u = utils.NewVector(fes.vsize)
	uD := u.Data()
	for d, x := range fes.NodeCoordinates() {
		uD[d] = f(x)
	}
	return
}

// BdrMarker returns a marker with every listed attribute set.
func (fes *H1Space) BdrMarker(attributes ...int) (marker []bool) {
	marker = make([]bool, fes.mesh.BdrAttributeMax())
	for _, a := range attributes {
		if a >= 1 && a <= len(marker) {
			marker[a-1] = true
		}
	}
	return
}
