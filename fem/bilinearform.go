// Package fem assembles bilinear and linear forms over a finite element
// space and turns them into constrained linear systems.
//
// A BilinearForm acts on local (L) vectors. FormLinearSystem moves the
// problem to the true (T) dofs, applies essential constraints and hands back
// an operator any solver can use, RecoverFEMSolution maps the answer back.
package fem

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/notargets/gomfem/fespace"
	"github.com/notargets/gomfem/operator"
	"github.com/notargets/gomfem/utils"
)

// AssemblyLevel selects what Assemble stores and how Mult applies the form.
type AssemblyLevel uint8

const (
	// LegacyFull assembles a global sparse matrix.
	LegacyFull AssemblyLevel = iota
	// ElementAssembly keeps one dense matrix per entity.
	ElementAssembly
	// MatrixFree stores nothing, Mult runs the integrator kernels.
	MatrixFree
)

func (al AssemblyLevel) String() string {
	switch al {
	case LegacyFull:
		return "full"
	case ElementAssembly:
		return "element"
	case MatrixFree:
		return "matrixfree"
	}
	return fmt.Sprintf("AssemblyLevel(%d)", uint8(al))
}

// ParseAssemblyLevel is the inverse of AssemblyLevel.String.
func ParseAssemblyLevel(s string) (al AssemblyLevel, err error) {
	for _, al = range []AssemblyLevel{LegacyFull, ElementAssembly, MatrixFree} {
		if al.String() == s {
			return
		}
	}
	err = fmt.Errorf("unknown assembly level %q, use full, element or matrixfree", s)
	return
}

// BilinearForm is a(u,v) = sum over entities of the registered integrators,
// with u in the trial space and v in the test space. As an operator it maps
// trial L-vectors to test L-vectors.
//
// Mult and MultTranspose share scratch buffers and serialize on an internal
// lock, run independent forms for concurrent applications.
type BilinearForm struct {
	trial, test fespace.FiniteElementSpace
	integrators [fespace.NumCategories][]Integrator

	level          AssemblyLevel
	parallelDegree int
	logger         *slog.Logger

	mu        sync.Mutex
	assembled bool
	mat       *operator.SparseMatrix
	elemMats  [fespace.NumCategories][]utils.Matrix
	localX    [fespace.NumCategories]utils.Vector
	localY    [fespace.NumCategories]utils.Vector
}

var (
	_ operator.Transposer = (*BilinearForm)(nil)
	_ operator.Releaser   = (*BilinearForm)(nil)
	_ Form                = (*BilinearForm)(nil)
)

// NewBilinearForm builds a square form with trial == test.
func NewBilinearForm(fes fespace.FiniteElementSpace) *BilinearForm {
	bf, err := NewMixedBilinearForm(fes, fes)
	if err != nil {
		panic(err)
	}
	return bf
}

// NewMixedBilinearForm builds a form between two spaces on the same mesh.
func NewMixedBilinearForm(trial, test fespace.FiniteElementSpace) (bf *BilinearForm, err error) {
	if trial == nil || test == nil {
		err = fmt.Errorf("fem: NewMixedBilinearForm: %w, nil space", ErrIncompatibleSpaces)
		return
	}
	if trial.Mesh() != test.Mesh() {
		err = fmt.Errorf("fem: NewMixedBilinearForm: %w, spaces are defined on different meshes",
			ErrIncompatibleSpaces)
		return
	}
	bf = &BilinearForm{
		trial:          trial,
		test:           test,
		parallelDegree: 1,
		logger:         slog.Default(),
	}
	for _, c := range fespace.Categories {
		bf.localX[c] = utils.NewVector(trial.GetEntityRestriction(c).Height())
		bf.localY[c] = utils.NewVector(test.GetEntityRestriction(c).Height())
	}
	return
}

func (bf *BilinearForm) TrialSpace() fespace.FiniteElementSpace { return bf.trial }
func (bf *BilinearForm) TestSpace() fespace.FiniteElementSpace  { return bf.test }
func (bf *BilinearForm) Height() int                            { return bf.test.VSize() }
func (bf *BilinearForm) Width() int                             { return bf.trial.VSize() }
func (bf *BilinearForm) TrueHeight() int                        { return bf.test.TrueVSize() }
func (bf *BilinearForm) TrueWidth() int                         { return bf.trial.TrueVSize() }

// SetAssemblyLevel takes effect at the next Assemble.
func (bf *BilinearForm) SetAssemblyLevel(al AssemblyLevel) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	bf.level = al
	bf.dropAssembly()
}

func (bf *BilinearForm) GetAssemblyLevel() AssemblyLevel { return bf.level }

// SetParallelDegree sets the number of go routines used by entity loops,
// np < 1 selects the number of CPUs.
func (bf *BilinearForm) SetParallelDegree(np int) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	bf.parallelDegree = np
}

func (bf *BilinearForm) SetLogger(l *slog.Logger) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	if l == nil {
		l = slog.Default()
	}
	bf.logger = l
}

// Integrators returns the integrators of one category in registration order.
func (bf *BilinearForm) Integrators(c Category) []Integrator { return bf.integrators[c] }

func (bf *BilinearForm) AddDomainIntegrator(integ Integrator) {
	bf.addIntegrator("AddDomainIntegrator", Domain, integ)
}

func (bf *BilinearForm) AddBoundaryIntegrator(integ Integrator) {
	bf.addIntegrator("AddBoundaryIntegrator", Boundary, integ)
}

func (bf *BilinearForm) AddInteriorFaceIntegrator(integ Integrator) {
	bf.addIntegrator("AddInteriorFaceIntegrator", InteriorFace, integ)
}

func (bf *BilinearForm) AddBoundaryFaceIntegrator(integ Integrator) {
	bf.addIntegrator("AddBoundaryFaceIntegrator", BoundaryFace, integ)
}

func (bf *BilinearForm) addIntegrator(call string, c Category, integ Integrator) {
	if integ == nil || isNilPointer(integ) {
		panic(fmt.Errorf("fem: %s: %w", call, ErrNilIntegrator))
	}
	bf.mu.Lock()
	defer bf.mu.Unlock()
	integ.SetupIntegrator(bf, c)
	bf.integrators[c] = append(bf.integrators[c], integ)
	bf.dropAssembly()
}

// Assemble recomputes the stored form from scratch for the current assembly
// level. It fails when an integrator has no kernel for its category.
func (bf *BilinearForm) Assemble() (err error) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	var (
		start = time.Now()
	)
	bf.dropAssembly()
	for _, c := range fespace.Categories {
		for _, integ := range bf.integrators[c] {
			if !canServe(integ, c, bf.level != MatrixFree) {
				err = fmt.Errorf("fem: Assemble: %w, %T registered as %v integrator at level %v",
					ErrMissingKernel, integ, c, bf.level)
				return
			}
		}
	}
	switch bf.level {
	case LegacyFull:
		if err = bf.assembleSparse(); err != nil {
			return
		}
	case ElementAssembly:
		for _, c := range fespace.Categories {
			bf.elemMats[c] = bf.entityMatrices(c)
		}
	}
	bf.assembled = true
	bf.logger.Debug("assembled bilinear form",
		slog.String("level", bf.level.String()),
		slog.Int("elements", bf.trial.NumEntities(Domain)),
		slog.Int("height", bf.Height()),
		slog.Int("width", bf.Width()),
		slog.Int("nnz", bf.nnz()),
		slog.Any("buckets", bf.bucketSizes(bf.trial.NumEntities(Domain))),
		slog.Duration("elapsed", time.Since(start)),
	)
	return
}

// entityMatrices computes the summed matrix of every entity of c in parallel.
func (bf *BilinearForm) entityMatrices(c Category) (mats []utils.Matrix) {
	if len(bf.integrators[c]) == 0 {
		return
	}
	mats = make([]utils.Matrix, bf.trial.NumEntities(c))
	bf.forEntities(len(mats), func(i int) {
		mats[i] = bf.entityMatrix(c, i, bf.integrators[c])
	})
	return
}

// assembleSparse scatters the entity matrices into a DOK, serially.
func (bf *BilinearForm) assembleSparse() (err error) {
	var (
		A = utils.NewDOK(bf.Height(), bf.Width())
	)
	for _, c := range fespace.Categories {
		for i, elmat := range bf.entityMatrices(c) {
			if err = A.AddElementMatrix(bf.test.EntityDofs(c, i), bf.trial.EntityDofs(c, i), elmat); err != nil {
				err = fmt.Errorf("fem: Assemble: %v entity %d: %w", c, i, err)
				return
			}
		}
	}
	A.SetReadOnly("BilinearForm")
	bf.mat = operator.NewSparseMatrix(A.ToCSR())
	return
}

// entityMatrix sums the matrices of integs on entity i, in registration order.
func (bf *BilinearForm) entityMatrix(c Category, i int, integs []Integrator) (elmat utils.Matrix) {
	var (
		nv = len(bf.test.EntityDofs(c, i))
		nt = len(bf.trial.EntityDofs(c, i))
	)
	elmat = utils.NewMatrix(nv, nt)
	tmp := utils.NewMatrix(nv, nt)
	for _, integ := range integs {
		tmp.Zero()
		bf.integratorMatrix(c, i, integ, tmp)
		elmat.Add(tmp)
	}
	return
}

func (bf *BilinearForm) integratorMatrix(c Category, i int, integ Integrator, elmat utils.Matrix) {
	if c.IsFace() {
		fi, ok := integ.(FaceMatrixIntegrator)
		if !ok {
			panic(fmt.Errorf("fem: %w, %T has no face kernel", ErrMissingKernel, integ))
		}
		fe1, fe2 := bf.trial.EntityFE(c, i)
		fi.AssembleFaceMatrix(fe1, fe2, bf.trial.FaceTransformation(c, i), elmat)
		return
	}
	ei, ok := integ.(ElementMatrixIntegrator)
	if !ok {
		panic(fmt.Errorf("fem: %w, %T has no element matrix kernel", ErrMissingKernel, integ))
	}
	trialFE, _ := bf.trial.EntityFE(c, i)
	testFE, _ := bf.test.EntityFE(c, i)
	ei.AssembleElementMatrix(trialFE, testFE, bf.trial.ElementTransformation(c, i), elmat)
}

// SparseMatrix returns the assembled matrix, nil unless the form was
// assembled at the LegacyFull level.
func (bf *BilinearForm) SparseMatrix() *operator.SparseMatrix { return bf.mat }

// Mult computes y = A x on L-vectors: gather x per entity, apply the entity
// operators, and sum the entity results into y.
func (bf *BilinearForm) Mult(x, y utils.Vector) {
	operator.CheckMult("BilinearForm", bf, x, y)
	bf.mu.Lock()
	defer bf.mu.Unlock()
	if bf.mat != nil {
		bf.mat.Mult(x, y)
		return
	}
	y.Set(0)
	for _, c := range fespace.Categories {
		if len(bf.integrators[c]) == 0 {
			continue
		}
		var (
			trialR = bf.trial.GetEntityRestriction(c)
			testR  = bf.test.GetEntityRestriction(c)
			lx, ly = bf.localX[c], bf.localY[c]
		)
		trialR.Mult(x, lx)
		ly.Set(0)
		bf.forEntities(trialR.NumEntities(), func(i int) {
			bf.entityAddMult(c, i, trialR.Entity(lx.Data(), i), testR.Entity(ly.Data(), i), false)
		})
		testR.AddMultTranspose(ly, y)
	}
}

// MultTranspose computes x = Aᵗ y with the roles of the spaces swapped.
func (bf *BilinearForm) MultTranspose(y, x utils.Vector) {
	operator.CheckMultTranspose("BilinearForm", bf, y, x)
	bf.mu.Lock()
	defer bf.mu.Unlock()
	if bf.mat != nil {
		bf.mat.MultTranspose(y, x)
		return
	}
	x.Set(0)
	for _, c := range fespace.Categories {
		if len(bf.integrators[c]) == 0 {
			continue
		}
		var (
			trialR = bf.trial.GetEntityRestriction(c)
			testR  = bf.test.GetEntityRestriction(c)
			lx, ly = bf.localX[c], bf.localY[c]
		)
		testR.Mult(y, ly)
		lx.Set(0)
		bf.forEntities(testR.NumEntities(), func(i int) {
			bf.entityAddMult(c, i, testR.Entity(ly.Data(), i), trialR.Entity(lx.Data(), i), true)
		})
		trialR.AddMultTranspose(lx, x)
	}
}

// entityAddMult adds the (transposed) action of entity i to ye.
func (bf *BilinearForm) entityAddMult(c Category, i int, xe, ye []float64, transpose bool) {
	if bf.assembled && bf.level == ElementAssembly {
		bf.matAddMult(bf.elemMats[c][i], xe, ye, transpose)
		return
	}
	for _, integ := range bf.integrators[c] {
		if ai, ok := integ.(ActionIntegrator); ok && !c.IsFace() {
			trialFE, _ := bf.trial.EntityFE(c, i)
			testFE, _ := bf.test.EntityFE(c, i)
			T := bf.trial.ElementTransformation(c, i)
			if transpose {
				ai.AddMultTransposeElement(trialFE, testFE, T, xe, ye)
			} else {
				ai.AddMultElement(trialFE, testFE, T, xe, ye)
			}
			continue
		}
		elmat := utils.NewMatrix(len(bf.test.EntityDofs(c, i)), len(bf.trial.EntityDofs(c, i)))
		bf.integratorMatrix(c, i, integ, elmat)
		bf.matAddMult(elmat, xe, ye, transpose)
	}
}

func (bf *BilinearForm) matAddMult(elmat utils.Matrix, xe, ye []float64, transpose bool) {
	if transpose {
		elmat.MulTransVecAdd(1, xe, ye)
	} else {
		elmat.MulVecAdd(1, xe, ye)
	}
}

// forEntities runs fn for i in [0, n) over PartitionMap buckets. fn must
// only write data owned by entity i.
func (bf *BilinearForm) forEntities(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	bf.partition(n).ParallelFor(func(_, kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			fn(i)
		}
	})
}

func (bf *BilinearForm) partition(n int) *utils.PartitionMap {
	return utils.NewPartitionMap(utils.LimitParallelDegree(bf.parallelDegree, n), n)
}

// bucketSizes lists the number of entities each go routine of an n entity
// loop works on.
func (bf *BilinearForm) bucketSizes(n int) (sizes []int) {
	if n == 0 {
		return
	}
	pm := bf.partition(n)
	for bn := 0; bn < pm.ParallelDegree; bn++ {
		sizes = append(sizes, pm.GetBucketDimension(bn))
	}
	return
}

func (bf *BilinearForm) nnz() int {
	if bf.mat == nil {
		return 0
	}
	return bf.mat.NNZ()
}

func (bf *BilinearForm) dropAssembly() {
	bf.assembled = false
	bf.mat = nil
	for c := range bf.elemMats {
		bf.elemMats[c] = nil
	}
}

// Release gives back every integrator that holds resources and empties the
// form. The form can be refilled and reassembled afterwards.
func (bf *BilinearForm) Release() {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	for c := range bf.integrators {
		for _, integ := range bf.integrators[c] {
			if r, ok := integ.(operator.Releaser); ok {
				r.Release()
			}
		}
		bf.integrators[c] = nil
	}
	bf.dropAssembly()
}
