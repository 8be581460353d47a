// Package operator holds the linear operator abstraction shared by forms,
// constraints and solvers, plus the composition wrappers built on it.
package operator

import (
	"errors"
	"fmt"

	"github.com/notargets/gomfem/utils"
)

var (
	// ErrDimensionMismatch is returned when vector or operator sizes disagree.
	ErrDimensionMismatch = errors.New("operator: dimension mismatch")
	// ErrIndexOutOfRange is returned for a constrained index outside [0, Width).
	ErrIndexOutOfRange = errors.New("operator: index out of range")
	// ErrNotSquare is returned when a square operator is required.
	ErrNotSquare = errors.New("operator: operator is not square")
	// ErrNoTranspose is raised when MultTranspose is requested from an
	// operator that does not implement Transposer.
	ErrNoTranspose = errors.New("operator: transpose action not available")
	// ErrNilOperator is returned when a wrapper is handed a nil operator.
	ErrNilOperator = errors.New("operator: nil operator")
	// ErrReleased is raised when a released operator is applied.
	ErrReleased = errors.New("operator: use after release")
)

// Operator is a linear map from a Width sized vector to a Height sized one.
// Mult overwrites y.
type Operator interface {
	Height() int
	Width() int
	Mult(x, y utils.Vector)
}

// Transposer is implemented by operators with a transpose action.
type Transposer interface {
	Operator
	MultTranspose(x, y utils.Vector)
}

// Releaser is implemented by operators holding resources that an owner must
// give back, Release must be safe to call more than once.
type Releaser interface {
	Release()
}

// CheckMult panics when x and y do not match the operator dimensions.
func CheckMult(name string, op Operator, x, y utils.Vector) {
	if x.Len() != op.Width() || y.Len() != op.Height() {
		panic(fmt.Errorf("%w: %s.Mult: operator is %dx%d, len(x) = %d, len(y) = %d",
			ErrDimensionMismatch, name, op.Height(), op.Width(), x.Len(), y.Len()))
	}
}

// CheckMultTranspose panics when x and y do not match the transposed dimensions.
func CheckMultTranspose(name string, op Operator, x, y utils.Vector) {
	if x.Len() != op.Height() || y.Len() != op.Width() {
		panic(fmt.Errorf("%w: %s.MultTranspose: operator is %dx%d, len(x) = %d, len(y) = %d",
			ErrDimensionMismatch, name, op.Height(), op.Width(), x.Len(), y.Len()))
	}
}

// MultTranspose applies the transpose of op, panicking with ErrNoTranspose
// when op has no transpose action.
func MultTranspose(op Operator, x, y utils.Vector) {
	t, ok := op.(Transposer)
	if !ok {
		panic(fmt.Errorf("%w: %T", ErrNoTranspose, op))
	}
	t.MultTranspose(x, y)
}

// IsSquare reports whether Height == Width.
func IsSquare(op Operator) bool {
	return op.Height() == op.Width()
}
