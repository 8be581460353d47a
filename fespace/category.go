package fespace

import "fmt"

// Category selects the family of mesh entities an integrator runs over.
type Category uint8

const (
	Domain Category = iota
	Boundary
	InteriorFace
	BoundaryFace
	NumCategories = 4
)

// Categories lists every category in visiting order.
var Categories = [NumCategories]Category{Domain, Boundary, InteriorFace, BoundaryFace}

func (c Category) String() string {
	switch c {
	case Domain:
		return "Domain"
	case Boundary:
		return "Boundary"
	case InteriorFace:
		return "InteriorFace"
	case BoundaryFace:
		return "BoundaryFace"
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// IsFace reports whether entities of the category are faces.
func (c Category) IsFace() bool {
	return c == InteriorFace || c == BoundaryFace
}
