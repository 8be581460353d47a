package FE1D

// ElementTransformation is the affine map x(r) = X0 + (r+1)/2 (X1-X0) of one
// element. For boundary (point) elements X0 == X1 and the Jacobian is 1.
type ElementTransformation struct {
	ElementNo int
	Attribute int
	X0, X1    float64
	Jacobian  float64
}

func (T ElementTransformation) Transform(r float64) float64 {
	return T.X0 + 0.5*(r+1)*(T.X1-T.X0)
}

// Weight is |dx/dr|.
func (T ElementTransformation) Weight() float64 {
	if T.Jacobian < 0 {
		return -T.Jacobian
	}
	return T.Jacobian
}

// FaceTransformation describes a vertex shared by Elem1 and Elem2 (-1 on the
// boundary). Normal is the outward normal of Elem1, J1 and J2 the signed
// Jacobians dx/dr of the neighbours and H1, H2 their sizes.
type FaceTransformation struct {
	FaceNo       int
	X            float64
	Elem1, Elem2 int
	Loc1, Loc2   int
	Normal       float64
	J1, J2       float64
	H1, H2       float64
	Attribute    int
}

// LocalPoint returns the reference coordinate of the face within the
// element on the given side (0 or 1).
func (T FaceTransformation) LocalPoint(side int) float64 {
	loc := T.Loc1
	if side == 1 {
		loc = T.Loc2
	}
	if loc == 0 {
		return -1
	}
	return 1
}

func (T FaceTransformation) IsBoundary() bool { return T.Elem2 < 0 }

func (m *Mesh1D) ElementTransformation(k int) (T ElementTransformation) {
	var (
		x0, x1 = m.VX[m.EToV[k][0]], m.VX[m.EToV[k][1]]
	)
	T = ElementTransformation{
		ElementNo: k,
		Attribute: m.ElementAttributes[k],
		X0:        x0,
		X1:        x1,
		Jacobian:  0.5 * (x1 - x0),
	}
	return
}

func (m *Mesh1D) BdrElementTransformation(b int) (T ElementTransformation) {
	var (
		x = m.VX[m.BdrVertices[b]]
	)
	T = ElementTransformation{
		ElementNo: b,
		Attribute: m.BdrAttributes[b],
		X0:        x,
		X1:        x,
		Jacobian:  1,
	}
	return
}

func (m *Mesh1D) InteriorFaceTransformation(f int) FaceTransformation {
	return m.faceTransformation(f, m.InteriorFaces[f])
}

func (m *Mesh1D) BoundaryFaceTransformation(f int) FaceTransformation {
	return m.faceTransformation(f, m.BoundaryFaces[f])
}

func (m *Mesh1D) faceTransformation(f int, face Face) (T FaceTransformation) {
	var (
		x     = m.VX[face.Vertex]
		other = m.VX[m.EToV[face.Elem1][1-face.Loc1]]
	)
	T = FaceTransformation{
		FaceNo:    f,
		X:         x,
		Elem1:     face.Elem1,
		Elem2:     face.Elem2,
		Loc1:      face.Loc1,
		Loc2:      face.Loc2,
		Normal:    1,
		J1:        m.ElementTransformation(face.Elem1).Jacobian,
		H1:        m.ElementSize(face.Elem1),
		Attribute: face.Attribute,
	}
	if x < other {
		T.Normal = -1
	}
	if face.Elem2 >= 0 {
		T.J2 = m.ElementTransformation(face.Elem2).Jacobian
		T.H2 = m.ElementSize(face.Elem2)
	}
	return
}
