package fem

import (
	"fmt"

	"github.com/notargets/gomfem/operator"
	"github.com/notargets/gomfem/utils"
)

// ViewKind tells whether a ResultView owns its storage or aliases a caller
// vector.
type ViewKind uint8

const (
	Owned ViewKind = iota
	Aliased
)

func (k ViewKind) String() string {
	if k == Aliased {
		return "aliased"
	}
	return "owned"
}

// ResultView is a solver space vector produced by InitRHS. An Aliased view
// shares storage with the vector it was made from, writing through it
// writes the caller's vector.
type ResultView struct {
	Kind   ViewKind
	Vector utils.Vector
}

func OwnedView(v utils.Vector) ResultView   { return ResultView{Kind: Owned, Vector: v} }
func AliasedView(v utils.Vector) ResultView { return ResultView{Kind: Aliased, Vector: v} }

func (rv ResultView) IsAliased() bool { return rv.Kind == Aliased }

// LinearSystem is A X = B on the true dofs with the essential values folded
// into B.
type LinearSystem struct {
	A    *operator.ConstrainedOperator
	X, B ResultView
}

// Release gives back the operator, and the RAP wrapper it owns.
func (ls *LinearSystem) Release() {
	if ls.A != nil {
		ls.A.Release()
	}
}

// FormOperator returns the constrained true dof operator of the form. With a
// trial prolongation P it wraps Ptestᵗ A P, the wrapper is owned by the
// returned operator, otherwise the form itself is borrowed.
func (bf *BilinearForm) FormOperator(ess utils.Index) (A *operator.ConstrainedOperator, err error) {
	var (
		P = bf.trial.GetProlongationOperator()
	)
	if P == nil {
		if A, err = operator.NewConstrainedOperator(bf, ess); err != nil {
			err = fmt.Errorf("fem: FormOperator: %w", err)
		}
		return
	}
	var (
		Pt  operator.Transposer
		rap *operator.RAPOperator
	)
	if Pt, err = bf.testProlongation(); err != nil {
		return
	}
	if rap, err = operator.NewRAPOperator(Pt, bf, P); err != nil {
		err = fmt.Errorf("fem: FormOperator: %w", err)
		return
	}
	if A, err = operator.NewOwningConstrainedOperator(rap, ess); err != nil {
		err = fmt.Errorf("fem: FormOperator: %w", err)
	}
	return
}

// testProlongation returns the test space P, the identity when the test
// space has none.
func (bf *BilinearForm) testProlongation() (Pt operator.Transposer, err error) {
	var (
		P  = bf.test.GetProlongationOperator()
		ok bool
	)
	if P == nil {
		return operator.NewIdentity(bf.test.VSize()), nil
	}
	if Pt, ok = P.(operator.Transposer); !ok {
		err = fmt.Errorf("fem: %w: test prolongation %T", operator.ErrNoTranspose, P)
	}
	return
}

// InitRHS maps the L-vectors x (initial guess holding the essential values)
// and b (load) to the solver vectors X and B of A:
//
//	B = Ptestᵗ b, X = R x   when the trial space has a prolongation
//	X, B alias x, b         otherwise
//
// With copyInterior false the non essential entries of X are zeroed. Finally
// the essential values are eliminated from B. Sizes are checked before any
// vector is touched.
func (bf *BilinearForm) InitRHS(ess utils.Index, x, b utils.Vector, A *operator.ConstrainedOperator,
	copyInterior bool) (X, B ResultView, err error) {
	if A == nil {
		err = fmt.Errorf("fem: InitRHS: %w", ErrNotConstrained)
		return
	}
	if err = ess.CheckBounds(A.Width()); err != nil {
		err = fmt.Errorf("fem: InitRHS: essential dofs: %w", err)
		return
	}
	var (
		P = bf.trial.GetProlongationOperator()
	)
	if P == nil {
		if x.Len() != A.Width() || b.Len() != A.Height() {
			err = fmt.Errorf("fem: InitRHS: %w, operator is %dx%d, len(x) = %d, len(b) = %d",
				ErrDimensionMismatch, A.Height(), A.Width(), x.Len(), b.Len())
			return
		}
		X, B = AliasedView(x), AliasedView(b)
	} else {
		var (
			R  = bf.trial.GetRestrictionOperator()
			Pt operator.Transposer
		)
		if x.Len() != bf.Width() || b.Len() != bf.Height() {
			err = fmt.Errorf("fem: InitRHS: %w, form is %dx%d, len(x) = %d, len(b) = %d",
				ErrDimensionMismatch, bf.Height(), bf.Width(), x.Len(), b.Len())
			return
		}
		if R == nil {
			err = fmt.Errorf("fem: InitRHS: trial space has a prolongation but no restriction")
			return
		}
		if Pt, err = bf.testProlongation(); err != nil {
			return
		}
		if R.Height() != A.Width() || Pt.Width() != A.Height() {
			err = fmt.Errorf("fem: InitRHS: %w, operator is %dx%d, true sizes are %dx%d",
				ErrDimensionMismatch, A.Height(), A.Width(), Pt.Width(), R.Height())
			return
		}
		X, B = OwnedView(utils.NewVector(R.Height())), OwnedView(utils.NewVector(Pt.Width()))
		R.Mult(x, X.Vector)
		Pt.MultTranspose(b, B.Vector)
	}
	if !copyInterior && len(ess) > 0 {
		vals := X.Vector.GetSubVector(ess)
		X.Vector.Set(0)
		X.Vector.SetSubVector(ess, vals)
	}
	A.EliminateRHS(X.Vector, B.Vector)
	return
}

// FormLinearSystem is FormOperator followed by InitRHS.
func (bf *BilinearForm) FormLinearSystem(ess utils.Index, x, b utils.Vector,
	copyInterior bool) (ls *LinearSystem, err error) {
	var (
		A    *operator.ConstrainedOperator
		X, B ResultView
	)
	if A, err = bf.FormOperator(ess); err != nil {
		return
	}
	if X, B, err = bf.InitRHS(ess, x, b, A, copyInterior); err != nil {
		A.Release()
		return
	}
	ls = &LinearSystem{A: A, X: X, B: B}
	return
}

// RecoverFEMSolution maps the solved X back to the L-vector x, x = P X. An
// aliased X already is x and nothing is copied. b is the load InitRHS was
// given and is only checked for size.
func (bf *BilinearForm) RecoverFEMSolution(X ResultView, b, x utils.Vector) (err error) {
	var (
		P = bf.trial.GetProlongationOperator()
	)
	if !b.IsNil() && b.Len() != bf.Height() {
		err = fmt.Errorf("fem: RecoverFEMSolution: %w, len(b) = %d, form height = %d",
			ErrDimensionMismatch, b.Len(), bf.Height())
		return
	}
	if P == nil {
		if X.Vector.Len() != x.Len() {
			err = fmt.Errorf("fem: RecoverFEMSolution: %w, len(X) = %d, len(x) = %d",
				ErrDimensionMismatch, X.Vector.Len(), x.Len())
			return
		}
		if !X.Vector.SharesData(x) {
			x.CopyFrom(X.Vector)
		}
		return
	}
	if X.Vector.Len() != P.Width() || x.Len() != P.Height() {
		err = fmt.Errorf("fem: RecoverFEMSolution: %w, P is %dx%d, len(X) = %d, len(x) = %d",
			ErrDimensionMismatch, P.Height(), P.Width(), X.Vector.Len(), x.Len())
		return
	}
	P.Mult(X.Vector, x)
	return
}
