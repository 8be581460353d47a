package fem

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/notargets/gomfem/FE1D"
	"github.com/notargets/gomfem/fespace"
	"github.com/notargets/gomfem/operator"
	"github.com/notargets/gomfem/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var levels = []AssemblyLevel{LegacyFull, ElementAssembly, MatrixFree}

func newSpace(t *testing.T, xmin, xmax float64, K, N int, layout fespace.Layout) *fespace.H1Space {
	fes, err := fespace.NewH1Space(FE1D.SimpleMesh1D(xmin, xmax, K), N, layout)
	require.NoError(t, err)
	return fes
}

func randomVector(rng *rand.Rand, n int) utils.Vector {
	v := utils.NewVector(n)
	for i := range v.Data() {
		v.Data()[i] = 2*rng.Float64() - 1
	}
	return v
}

func apply(op operator.Operator, x utils.Vector) (y utils.Vector) {
	y = utils.NewVector(op.Height())
	op.Mult(x, y)
	return
}

func laplacianStamp() utils.Matrix {
	return utils.NewMatrix(2, 2, []float64{2, -1, -1, 2})
}

func TestSingleElementStamp(t *testing.T) {
	for _, level := range levels {
		fes := newSpace(t, 0, 1, 1, 1, fespace.Conforming)
		bf := NewBilinearForm(fes)
		bf.SetAssemblyLevel(level)
		bf.AddDomainIntegrator(NewMatrixIntegrator(laplacianStamp()))
		require.NoError(t, bf.Assemble())
		y := apply(bf, utils.NewVector(2, []float64{1, 1}))
		assert.InDeltaSlicef(t, []float64{1, 1}, y.Data(), 1.e-14, "level %v", level)
		if level == LegacyFull {
			require.NotNil(t, bf.SparseMatrix())
			assert.Equal(t, 2., bf.SparseMatrix().At(0, 0))
			assert.Equal(t, -1., bf.SparseMatrix().At(1, 0))
		} else {
			assert.Nil(t, bf.SparseMatrix())
		}
	}
}

func TestRegistrationOrder(t *testing.T) {
	{
		// two stamps summing to [[2,-1],[-1,2]], registered both ways
		I1 := utils.NewMatrix(2, 2, []float64{1.5, -0.25, -0.75, 0.5})
		I2 := utils.NewMatrix(2, 2, []float64{0.5, -0.75, -0.25, 1.5})
		var mats [2]*operator.SparseMatrix
		for n, order := range [][]utils.Matrix{{I1, I2}, {I2, I1}} {
			bf := NewBilinearForm(newSpace(t, 0, 1, 1, 1, fespace.Conforming))
			for _, M := range order {
				bf.AddDomainIntegrator(NewMatrixIntegrator(M))
			}
			require.NoError(t, bf.Assemble())
			mats[n] = bf.SparseMatrix()
		}
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				assert.Equal(t, mats[0].At(i, j), mats[1].At(i, j))
				assert.Equal(t, laplacianStamp().At(i, j), mats[0].At(i, j))
			}
		}
	}
	{
		// permutations of physical integrators at every level
		rng := rand.New(rand.NewSource(3))
		fes := newSpace(t, 0, 2, 6, 3, fespace.Conforming)
		x := randomVector(rng, fes.VSize())
		makeIntegs := func() []Integrator {
			return []Integrator{
				NewMassIntegrator(func(x float64) float64 { return 1 + x*x }),
				NewDiffusionIntegrator(ConstantCoefficient(2)),
				NewMatrixIntegrator(utils.NewMatrix(4, 4).Set(0, 3, 1).Set(3, 0, 1)),
			}
		}
		for _, level := range levels {
			var ys []utils.Vector
			for _, perm := range [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}} {
				bf := NewBilinearForm(fes)
				bf.SetAssemblyLevel(level)
				integs := makeIntegs()
				for _, p := range perm {
					bf.AddDomainIntegrator(integs[p])
				}
				require.NoError(t, bf.Assemble())
				ys = append(ys, apply(bf, x))
			}
			for _, y := range ys[1:] {
				assert.InDeltaSlicef(t, ys[0].Data(), y.Data(), 1.e-12, "level %v", level)
			}
		}
	}
}

func TestNilIntegrator(t *testing.T) {
	bf := NewBilinearForm(newSpace(t, 0, 1, 2, 1, fespace.Conforming))
	assert.PanicsWithError(t, "fem: AddDomainIntegrator: integrator is nil", func() {
		bf.AddDomainIntegrator(nil)
	})
	assert.PanicsWithError(t, "fem: AddBoundaryIntegrator: integrator is nil", func() {
		var mi *MassIntegrator
		bf.AddBoundaryIntegrator(mi)
	})
	assert.PanicsWithError(t, "fem: AddInteriorFaceIntegrator: integrator is nil", func() {
		bf.AddInteriorFaceIntegrator(nil)
	})
	assert.PanicsWithError(t, "fem: AddBoundaryFaceIntegrator: integrator is nil", func() {
		bf.AddBoundaryFaceIntegrator(nil)
	})
	func() {
		defer func() {
			r := recover()
			err, ok := r.(error)
			require.True(t, ok)
			assert.True(t, errors.Is(err, ErrNilIntegrator))
		}()
		bf.AddDomainIntegrator(nil)
	}()
	for _, c := range fespace.Categories {
		assert.Empty(t, bf.Integrators(c))
	}
	lf := NewLinearForm(bf.TestSpace())
	assert.Panics(t, func() { lf.AddDomainIntegrator(nil) })
	var typedNil *DomainLFIntegrator
	assert.PanicsWithError(t, "fem: LinearForm.AddDomainIntegrator: integrator is nil", func() {
		lf.AddDomainIntegrator(typedNil)
	})
	var typedNilBdr *BoundaryLFIntegrator
	assert.Panics(t, func() { lf.AddBoundaryIntegrator(typedNilBdr) })
	// the load still assembles
	assert.Equal(t, bf.TestSpace().VSize(), lf.Assemble().Len())
}

func TestAssemblyLogsBuckets(t *testing.T) {
	var (
		buf bytes.Buffer
		fes = newSpace(t, 0, 1, 10, 1, fespace.Conforming)
		bf  = NewBilinearForm(fes)
	)
	bf.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	bf.SetParallelDegree(1)
	bf.AddDomainIntegrator(NewMassIntegrator(nil))
	require.NoError(t, bf.Assemble())
	assert.Contains(t, buf.String(), "buckets=[10]")

	bf.SetParallelDegree(3)
	sizes := bf.bucketSizes(10)
	assert.Len(t, sizes, utils.LimitParallelDegree(3, 10))
	var total int
	for _, n := range sizes {
		total += n
	}
	assert.Equal(t, 10, total)
	assert.Empty(t, bf.bucketSizes(0))
}

func TestSetupIntegrator(t *testing.T) {
	bf := NewBilinearForm(newSpace(t, 0, 1, 2, 1, fespace.Discontinuous))
	mi := NewMassIntegrator(nil)
	bm := NewBoundaryMassIntegrator(nil)
	ip := NewInteriorPenaltyIntegrator(10, nil)
	bf.AddDomainIntegrator(mi)
	bf.AddBoundaryIntegrator(bm)
	bf.AddInteriorFaceIntegrator(ip)
	assert.Equal(t, Form(bf), mi.Form())
	assert.Equal(t, Domain, mi.Category())
	assert.Equal(t, Boundary, bm.Category())
	assert.Equal(t, InteriorFace, ip.Category())
	assert.Equal(t, bf.TrueWidth(), mi.Form().TrueWidth())
	assert.Equal(t, []Integrator{mi}, bf.Integrators(Domain))
}

func TestLinearity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, layout := range []fespace.Layout{fespace.Conforming, fespace.Duplicated, fespace.Discontinuous} {
		for _, level := range levels {
			fes := newSpace(t, -1, 1, 5, 2, layout)
			bf := NewBilinearForm(fes)
			bf.SetAssemblyLevel(level)
			bf.AddDomainIntegrator(NewDiffusionIntegrator(func(x float64) float64 { return 2 + math.Sin(x) }))
			bf.AddDomainIntegrator(NewMassIntegrator(nil))
			bf.AddBoundaryIntegrator(NewBoundaryMassIntegrator(ConstantCoefficient(3)))
			if layout == fespace.Discontinuous {
				bf.AddInteriorFaceIntegrator(NewInteriorPenaltyIntegrator(10, nil))
				bf.AddBoundaryFaceIntegrator(NewInteriorPenaltyIntegrator(10, nil))
			}
			require.NoError(t, bf.Assemble())
			var (
				n           = bf.Width()
				x1, x2      = randomVector(rng, n), randomVector(rng, n)
				alpha, beta = 0.7, -2.3
				combo       = x1.Copy().Scale(alpha).AddScaled(beta, x2)
				left        = apply(bf, combo)
				right       = apply(bf, x1).Scale(alpha).AddScaled(beta, apply(bf, x2))
			)
			assert.InDeltaSlicef(t, right.Data(), left.Data(), 1.e-11, "%v %v", layout, level)
		}
	}
}

func TestAssemblyLevelsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	{
		// square form with faces
		fes := newSpace(t, 0, 3, 4, 3, fespace.Discontinuous)
		var ys, yts []utils.Vector
		x := randomVector(rng, fes.VSize())
		for _, level := range levels {
			bf := NewBilinearForm(fes)
			bf.SetAssemblyLevel(level)
			bf.SetParallelDegree(3)
			bf.AddDomainIntegrator(NewDiffusionIntegrator(nil))
			bf.AddInteriorFaceIntegrator(NewInteriorPenaltyIntegrator(5, nil))
			bf.AddBoundaryFaceIntegrator(NewInteriorPenaltyIntegrator(5, nil))
			require.NoError(t, bf.Assemble())
			ys = append(ys, apply(bf, x))
			yt := utils.NewVector(bf.Width())
			bf.MultTranspose(x, yt)
			yts = append(yts, yt)
		}
		for i := 1; i < len(levels); i++ {
			assert.InDeltaSlicef(t, ys[0].Data(), ys[i].Data(), 1.e-11, "level %v", levels[i])
			assert.InDeltaSlicef(t, yts[0].Data(), yts[i].Data(), 1.e-11, "level %v", levels[i])
		}
		// symmetric interior penalty keeps the form symmetric
		assert.InDeltaSlicef(t, ys[0].Data(), yts[0].Data(), 1.e-11, "")
	}
	{
		// mixed form, order 2 trial and order 1 test
		mesh := FE1D.SimpleMesh1D(0, 1, 3)
		trial, err := fespace.NewH1Space(mesh, 2, fespace.Conforming)
		require.NoError(t, err)
		test, err := fespace.NewH1Space(mesh, 1, fespace.Conforming)
		require.NoError(t, err)
		x := randomVector(rng, trial.VSize())
		yv := randomVector(rng, test.VSize())
		var ys, yts []utils.Vector
		for _, level := range levels {
			bf, err := NewMixedBilinearForm(trial, test)
			require.NoError(t, err)
			bf.SetAssemblyLevel(level)
			bf.AddDomainIntegrator(NewMassIntegrator(nil))
			bf.AddDomainIntegrator(NewDiffusionIntegrator(nil))
			require.NoError(t, bf.Assemble())
			require.Equal(t, test.VSize(), bf.Height())
			require.Equal(t, trial.VSize(), bf.Width())
			ys = append(ys, apply(bf, x))
			yt := utils.NewVector(bf.Width())
			bf.MultTranspose(yv, yt)
			yts = append(yts, yt)
			// <yv, A x> == <At yv, x>
			assert.InDelta(t, yv.Dot(ys[len(ys)-1]), yt.Dot(x), 1.e-12)
		}
		for i := 1; i < len(levels); i++ {
			assert.InDeltaSlicef(t, ys[0].Data(), ys[i].Data(), 1.e-12, "level %v", levels[i])
			assert.InDeltaSlicef(t, yts[0].Data(), yts[i].Data(), 1.e-12, "level %v", levels[i])
		}
	}
	{
		_, err := NewMixedBilinearForm(newSpace(t, 0, 1, 2, 1, fespace.Conforming),
			newSpace(t, 0, 1, 2, 1, fespace.Conforming))
		assert.True(t, errors.Is(err, ErrIncompatibleSpaces))
	}
}

func TestMassAndStiffnessValues(t *testing.T) {
	fes := newSpace(t, 0, 2, 4, 3, fespace.Conforming)
	var (
		ones = utils.NewVector(fes.VSize()).Set(1)
		xv   = utils.NewVector(fes.VSize(), fes.NodeCoordinates())
	)
	{
		bf := NewBilinearForm(fes)
		bf.AddDomainIntegrator(NewMassIntegrator(nil))
		require.NoError(t, bf.Assemble())
		// 1ᵗ M 1 is the length of the domain, 1ᵗ M x is the integral of x
		assert.InDelta(t, 2., ones.Dot(apply(bf, ones)), 1.e-12)
		assert.InDelta(t, 2., ones.Dot(apply(bf, xv)), 1.e-12)
	}
	{
		bf := NewBilinearForm(fes)
		bf.AddDomainIntegrator(NewDiffusionIntegrator(nil))
		require.NoError(t, bf.Assemble())
		// constants are in the kernel, xᵗ S x is the integral of (x')²
		assert.InDelta(t, 0., apply(bf, ones).Norm(), 1.e-11)
		assert.InDelta(t, 2., xv.Dot(apply(bf, xv)), 1.e-11)
	}
}

type actionOnly struct {
	IntegratorBase
	scale float64
}

func (a *actionOnly) AddMultElement(trial, test FE1D.FiniteElement, T FE1D.ElementTransformation, x, y []float64) {
	for i := range y {
		y[i] += a.scale * x[i]
	}
}

func (a *actionOnly) AddMultTransposeElement(trial, test FE1D.FiniteElement, T FE1D.ElementTransformation, x, y []float64) {
	a.AddMultElement(trial, test, T, x, y)
}

type releasable struct {
	MatrixIntegrator
	released int
}

func (r *releasable) Release() { r.released++ }

func TestMissingKernel(t *testing.T) {
	fes := newSpace(t, 0, 1, 3, 1, fespace.Conforming)
	{
		bf := NewBilinearForm(fes)
		bf.AddDomainIntegrator(&actionOnly{scale: 2})
		assert.True(t, errors.Is(bf.Assemble(), ErrMissingKernel))
		bf.SetAssemblyLevel(ElementAssembly)
		assert.True(t, errors.Is(bf.Assemble(), ErrMissingKernel))
		bf.SetAssemblyLevel(MatrixFree)
		require.NoError(t, bf.Assemble())
		// interior vertices are shared by two elements
		y := apply(bf, utils.NewVector(fes.VSize()).Set(1))
		assert.Equal(t, []float64{2, 4, 4, 2}, y.Data())
	}
	{
		bf := NewBilinearForm(fes)
		bf.AddInteriorFaceIntegrator(NewMassIntegrator(nil))
		assert.True(t, errors.Is(bf.Assemble(), ErrMissingKernel))
	}
}

func TestRelease(t *testing.T) {
	fes := newSpace(t, 0, 1, 1, 1, fespace.Conforming)
	bf := NewBilinearForm(fes)
	r := &releasable{MatrixIntegrator: MatrixIntegrator{M: laplacianStamp()}}
	bf.AddDomainIntegrator(r)
	bf.AddDomainIntegrator(NewMassIntegrator(nil))
	require.NoError(t, bf.Assemble())
	require.NotNil(t, bf.SparseMatrix())
	bf.Release()
	assert.Equal(t, 1, r.released)
	assert.Empty(t, bf.Integrators(Domain))
	assert.Nil(t, bf.SparseMatrix())
	// an empty form is the zero operator
	y := apply(bf, utils.NewVector(2).Set(1))
	assert.Equal(t, []float64{0, 0}, y.Data())
}

func TestParallelAndConcurrentMult(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	fes := newSpace(t, 0, 1, 40, 2, fespace.Duplicated)
	x := randomVector(rng, fes.VSize())
	serial := NewBilinearForm(fes)
	serial.SetAssemblyLevel(MatrixFree)
	serial.AddDomainIntegrator(NewDiffusionIntegrator(nil))
	require.NoError(t, serial.Assemble())
	want := apply(serial, x)

	par := NewBilinearForm(fes)
	par.SetAssemblyLevel(MatrixFree)
	par.SetParallelDegree(0)
	par.AddDomainIntegrator(NewDiffusionIntegrator(nil))
	require.NoError(t, par.Assemble())
	var (
		wg  sync.WaitGroup
		out = make([]utils.Vector, 4)
	)
	for n := range out {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			out[n] = apply(par, x)
		}(n)
	}
	wg.Wait()
	for _, y := range out {
		assert.InDeltaSlicef(t, want.Data(), y.Data(), 1.e-13, "")
	}
}

func TestMultSizeMismatch(t *testing.T) {
	bf := NewBilinearForm(newSpace(t, 0, 1, 2, 1, fespace.Conforming))
	bf.AddDomainIntegrator(NewMassIntegrator(nil))
	assert.Panics(t, func() { bf.Mult(utils.NewVector(2), utils.NewVector(3)) })
	assert.Panics(t, func() { bf.MultTranspose(utils.NewVector(3), utils.NewVector(4)) })
}

func TestLinearForm(t *testing.T) {
	fes := newSpace(t, 0, 2, 4, 2, fespace.Duplicated)
	lf := NewLinearForm(fes)
	lf.AddDomainIntegrator(NewDomainLFIntegrator(func(x float64) float64 { return x }))
	lf.AddBoundaryIntegrator(NewBoundaryLFIntegrator(ConstantCoefficient(5)))
	b := lf.Assemble()
	require.Equal(t, fes.VSize(), b.Len())
	ones := utils.NewVector(fes.VSize()).Set(1)
	// integral of x over [0,2] plus two point loads
	assert.InDelta(t, 2.+10., b.Dot(ones), 1.e-12)
	assert.Equal(t, fes, lf.Space())
}

func TestParseNames(t *testing.T) {
	for _, level := range levels {
		p, err := ParseAssemblyLevel(level.String())
		require.NoError(t, err)
		assert.Equal(t, level, p)
	}
	_, err := ParseAssemblyLevel("partial")
	assert.Error(t, err)
}
