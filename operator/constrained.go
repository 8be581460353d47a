package operator

import (
	"fmt"
	"sync"

	"github.com/notargets/gomfem/utils"
)

// innerRef is the ownership tag of the operator wrapped by a
// ConstrainedOperator: a borrowed operator is never released, an owned one is
// released together with its wrapper.
type innerRef interface {
	op() Operator
	release()
}

type borrowed struct{ A Operator }

func (b borrowed) op() Operator { return b.A }
func (b borrowed) release()     {}

type owned struct{ A Operator }

func (o owned) op() Operator { return o.A }
func (o owned) release() {
	if r, ok := o.A.(Releaser); ok {
		r.Release()
	}
}

// ConstrainedOperator applies A with a set of essential (constrained) dofs
// decoupled: constrained rows act as the identity and constrained columns are
// eliminated, so that
//
//	y = A z,  z = x with constrained entries zeroed
//	y[i] = x[i] for constrained i
//
// EliminateRHS moves the known constrained values into the right hand side.
// Applications on one instance serialize on mu, they share the scratch z, w.
type ConstrainedOperator struct {
	mu          sync.Mutex
	inner       innerRef
	constraints utils.Index
	z, w        utils.Vector
	released    bool
}

// NewConstrainedOperator wraps A without taking ownership.
func NewConstrainedOperator(A Operator, list utils.Index) (*ConstrainedOperator, error) {
	return newConstrainedOperator(borrowed{A: A}, list)
}

// NewOwningConstrainedOperator wraps A and releases it in Release.
func NewOwningConstrainedOperator(A Operator, list utils.Index) (*ConstrainedOperator, error) {
	return newConstrainedOperator(owned{A: A}, list)
}

func newConstrainedOperator(ref innerRef, list utils.Index) (co *ConstrainedOperator, err error) {
	var (
		A = ref.op()
	)
	if A == nil {
		err = fmt.Errorf("%w: constrained operator needs an inner operator", ErrNilOperator)
		return
	}
	if !IsSquare(A) {
		err = fmt.Errorf("%w: inner operator is %dx%d", ErrNotSquare, A.Height(), A.Width())
		return
	}
	if err = list.CheckBounds(A.Width()); err != nil {
		err = fmt.Errorf("%w: %v", ErrIndexOutOfRange, err)
		return
	}
	co = &ConstrainedOperator{
		inner:       ref,
		constraints: list.Unique(),
		z:           utils.NewVector(A.Width()),
		w:           utils.NewVector(A.Height()),
	}
	return
}

func (co *ConstrainedOperator) Height() int { return co.inner.op().Height() }
func (co *ConstrainedOperator) Width() int  { return co.inner.op().Width() }

// Inner returns the wrapped operator.
func (co *ConstrainedOperator) Inner() Operator { return co.inner.op() }

// ConstrainedList returns the sorted, unique constrained dofs.
func (co *ConstrainedOperator) ConstrainedList() utils.Index { return co.constraints }

// OwnsInner reports whether Release also releases the inner operator.
func (co *ConstrainedOperator) OwnsInner() bool {
	_, ok := co.inner.(owned)
	return ok
}

func (co *ConstrainedOperator) Mult(x, y utils.Vector) {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.checkLive()
	CheckMult("ConstrainedOperator", co, x, y)
	if len(co.constraints) == 0 {
		co.inner.op().Mult(x, y)
		return
	}
	co.z.CopyFrom(x)
	co.z.SetSubVectorValue(co.constraints, 0)
	co.inner.op().Mult(co.z, y)
	y.SetSubVector(co.constraints, x.GetSubVector(co.constraints))
}

func (co *ConstrainedOperator) MultTranspose(x, y utils.Vector) {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.checkLive()
	CheckMultTranspose("ConstrainedOperator", co, x, y)
	if len(co.constraints) == 0 {
		MultTranspose(co.inner.op(), x, y)
		return
	}
	co.z.CopyFrom(x)
	co.z.SetSubVectorValue(co.constraints, 0)
	MultTranspose(co.inner.op(), co.z, y)
	y.SetSubVector(co.constraints, x.GetSubVector(co.constraints))
}

// EliminateRHS subtracts the action of A on the constrained values of X from
// B and copies those values into B, X must already hold the essential data.
func (co *ConstrainedOperator) EliminateRHS(X, B utils.Vector) {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.checkLive()
	CheckMult("ConstrainedOperator.EliminateRHS", co, X, B)
	if len(co.constraints) == 0 {
		return
	}
	vals := X.GetSubVector(co.constraints)
	co.z.Set(0)
	co.z.SetSubVector(co.constraints, vals)
	co.inner.op().Mult(co.z, co.w)
	B.Subtract(co.w)
	B.SetSubVector(co.constraints, vals)
}

// Release gives back the inner operator when it is owned, borrowed operators
// are left alone.
func (co *ConstrainedOperator) Release() {
	co.mu.Lock()
	defer co.mu.Unlock()
	if co.released {
		return
	}
	co.released = true
	co.inner.release()
	co.z, co.w = utils.Vector{}, utils.Vector{}
}

func (co *ConstrainedOperator) checkLive() {
	if co.released {
		panic(fmt.Errorf("%w: ConstrainedOperator", ErrReleased))
	}
}
