package FE1D

import (
	"fmt"
	"math"

	"github.com/notargets/gomfem/utils"
)

// Mesh1D is a line mesh. Elements are segments between two vertices, the
// boundary elements and faces are the vertices themselves.
type Mesh1D struct {
	K                 int
	VX                []float64
	EToV              [][2]int
	ElementAttributes []int
	// Boundary vertices in increasing coordinate order, with attributes 1, 2, ...
	BdrVertices   []int
	BdrAttributes []int
	// Every vertex with two neighbours is an interior face
	InteriorFaces []Face
	BoundaryFaces []Face
}

// Face connects the elements sharing a vertex. Loc is the local vertex
// (0 left, 1 right) of the vertex within each element, Elem2 is -1 on the
// boundary.
type Face struct {
	Vertex       int
	Elem1, Elem2 int
	Loc1, Loc2   int
	Attribute    int
}

// SimpleMesh1D splits [xmin, xmax] into K equal elements, left boundary
// attribute 1, right boundary attribute 2.
func SimpleMesh1D(xmin, xmax float64, K int) (m *Mesh1D) {
	var (
		err  error
		VX   = make([]float64, K+1)
		EToV = make([][2]int, K)
	)
	if K < 1 {
		panic(fmt.Errorf("mesh needs at least one element, have %d", K))
	}
	for i := range VX {
		VX[i] = (xmax-xmin)*float64(i)/float64(K) + xmin
	}
	for k := range EToV {
		EToV[k] = [2]int{k, k + 1}
	}
	if m, err = NewMesh1D(VX, EToV); err != nil {
		panic(err)
	}
	return
}

// NewMesh1D validates the connectivity and builds the face lists.
func NewMesh1D(VX []float64, EToV [][2]int) (m *Mesh1D, err error) {
	var (
		K  = len(EToV)
		Nv = len(VX)
	)
	if K == 0 {
		err = fmt.Errorf("mesh has no elements")
		return
	}
	for k, ev := range EToV {
		for _, v := range ev {
			if v < 0 || v >= Nv {
				err = fmt.Errorf("element %d: vertex %d out of range [0,%d)", k, v, Nv)
				return
			}
		}
		if math.Abs(VX[ev[1]]-VX[ev[0]]) < utils.NODETOL {
			err = fmt.Errorf("element %d has zero length", k)
			return
		}
	}
	m = &Mesh1D{
		K:                 K,
		VX:                VX,
		EToV:              EToV,
		ElementAttributes: make([]int, K),
	}
	for k := range m.ElementAttributes {
		m.ElementAttributes[k] = 1
	}
	if err = m.connect(); err != nil {
		m = nil
	}
	return
}

// connect builds the vertex to element incidence as a sparse Nv x K matrix,
// row i lists the elements touching vertex i in element order.
func (m *Mesh1D) connect() (err error) {
	var (
		Nv   = len(m.VX)
		VToE = utils.NewDOK(Nv, m.K)
		adj  = make([][]int, Nv)
	)
	for k, ev := range m.EToV {
		for _, v := range ev {
			VToE.AddTo(v, k, 1)
		}
	}
	VToE.ToCSR().DoNonZero(func(v, k int, _ float64) {
		adj[v] = append(adj[v], k)
	})
	var bdr []int
	for v, elems := range adj {
		switch len(elems) {
		case 0:
		case 1:
			bdr = append(bdr, v)
		case 2:
			m.InteriorFaces = append(m.InteriorFaces, Face{
				Vertex: v,
				Elem1:  elems[0], Loc1: m.localVertex(elems[0], v),
				Elem2: elems[1], Loc2: m.localVertex(elems[1], v),
			})
		default:
			err = fmt.Errorf("vertex %d is shared by %d elements", v, len(elems))
			return
		}
	}
	// sort boundary vertices by coordinate so attribute 1 is the left end
	for i := 1; i < len(bdr); i++ {
		for j := i; j > 0 && m.VX[bdr[j]] < m.VX[bdr[j-1]]; j-- {
			bdr[j], bdr[j-1] = bdr[j-1], bdr[j]
		}
	}
	m.BdrVertices = bdr
	m.BdrAttributes = make([]int, len(bdr))
	for i, v := range bdr {
		m.BdrAttributes[i] = i + 1
		e := adj[v][0]
		m.BoundaryFaces = append(m.BoundaryFaces, Face{
			Vertex: v,
			Elem1:  e, Loc1: m.localVertex(e, v),
			Elem2: -1, Loc2: -1,
			Attribute: i + 1,
		})
	}
	return
}

func (m *Mesh1D) localVertex(k, v int) int {
	if m.EToV[k][0] == v {
		return 0
	}
	return 1
}

func (m *Mesh1D) NumElements() int      { return m.K }
func (m *Mesh1D) NumBdrElements() int   { return len(m.BdrVertices) }
func (m *Mesh1D) NumInteriorFaces() int { return len(m.InteriorFaces) }
func (m *Mesh1D) NumBoundaryFaces() int { return len(m.BoundaryFaces) }
func (m *Mesh1D) NumVertices() int      { return len(m.VX) }

// BdrAttributeMax is the size of a boundary marker array.
func (m *Mesh1D) BdrAttributeMax() (amax int) {
	for _, a := range m.BdrAttributes {
		if a > amax {
			amax = a
		}
	}
	return
}

// ElementSize returns the length of element k.
func (m *Mesh1D) ElementSize(k int) float64 {
	return math.Abs(m.VX[m.EToV[k][1]] - m.VX[m.EToV[k][0]])
}
