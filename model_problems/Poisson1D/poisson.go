package Poisson1D

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/notargets/gomfem/FE1D"
	"github.com/notargets/gomfem/InputParameters"
	"github.com/notargets/gomfem/fem"
	"github.com/notargets/gomfem/fespace"
	"github.com/notargets/gomfem/solver"
	"github.com/notargets/gomfem/utils"
)

// Poisson solves -u'' = f on [XMin, XMax] for the manufactured solution
// u = sin(pi x), with u given on the Dirichlet ends and u' on the others.
type Poisson struct {
	ip     *InputParameters.InputParameters1D
	Mesh   *FE1D.Mesh1D
	Fes    *fespace.H1Space
	Level  fem.AssemblyLevel
	Kind   solver.Kind
	logger *slog.Logger
	// U holds the L-vector solution after Run
	U utils.Vector
}

type Report struct {
	Layout        fespace.Layout
	Level         fem.AssemblyLevel
	Solver        solver.Kind
	Unknowns      int // L size
	TrueUnknowns  int // T size
	Constrained   int
	Iterations    int
	Residual      float64
	L2Error       float64
	AssemblyTime  time.Duration
	SolveTime     time.Duration
	ProblemParams *InputParameters.InputParameters1D
}

func Exact(x float64) float64  { return math.Sin(math.Pi * x) }
func dExact(x float64) float64 { return math.Pi * math.Cos(math.Pi*x) }
func source(x float64) float64 { return math.Pi * math.Pi * math.Sin(math.Pi*x) }

func NewPoisson(ip *InputParameters.InputParameters1D, logger *slog.Logger) (p *Poisson, err error) {
	var (
		layout fespace.Layout
	)
	if err = ip.Validate(); err != nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	p = &Poisson{ip: ip, logger: logger}
	if layout, err = fespace.ParseLayout(ip.Layout); err != nil {
		return nil, err
	}
	if p.Level, err = fem.ParseAssemblyLevel(ip.AssemblyLevel); err != nil {
		return nil, err
	}
	if p.Kind, err = solver.ParseKind(ip.Solver); err != nil {
		return nil, err
	}
	p.Mesh = FE1D.SimpleMesh1D(ip.XMin, ip.XMax, ip.Elements)
	if p.Fes, err = fespace.NewH1Space(p.Mesh, ip.PolynomialOrder, layout); err != nil {
		return nil, err
	}
	if len(ip.BCs["Dirichlet"]) == 0 {
		return nil, fmt.Errorf("Poisson1D: at least one Dirichlet boundary is needed, the pure Neumann problem is singular")
	}
	return
}

func (p *Poisson) Run() (rep Report, err error) {
	var (
		fes   = p.Fes
		ip    = p.ip
		start = time.Now()
		bf    = fem.NewBilinearForm(fes)
		lf    = fem.NewLinearForm(fes)
		ess   = fes.GetEssentialTrueDofs(fes.BdrMarker(ip.BCs["Dirichlet"]...))
		ls    *fem.LinearSystem
		s     solver.Solver
		res   solver.Result
	)
	rep = Report{
		Layout:        fes.Layout(),
		Level:         p.Level,
		Solver:        p.Kind,
		Unknowns:      fes.VSize(),
		TrueUnknowns:  fes.TrueVSize(),
		Constrained:   len(ess),
		ProblemParams: ip,
	}
	bf.SetAssemblyLevel(p.Level)
	bf.SetParallelDegree(ip.ParallelDegree)
	bf.SetLogger(p.logger)
	bf.AddDomainIntegrator(fem.NewDiffusionIntegrator(nil))
	if fes.Layout() == fespace.Discontinuous {
		bf.AddInteriorFaceIntegrator(fem.NewInteriorPenaltyIntegrator(ip.Penalty, nil))
	}
	defer bf.Release()
	if err = bf.Assemble(); err != nil {
		return
	}

	lf.AddDomainIntegrator(fem.NewDomainLFIntegrator(source))
	if p.hasNeumann() {
		lf.AddBoundaryIntegrator(fem.NewBoundaryLFIntegrator(p.neumannData))
	}
	b := lf.Assemble()
	// the initial guess carries the Dirichlet values
	p.U = fes.ProjectFunction(Exact)
	if ls, err = bf.FormLinearSystem(ess, p.U, b, false); err != nil {
		return
	}
	defer ls.Release()
	rep.AssemblyTime = time.Since(start)

	start = time.Now()
	settings := solver.Settings{
		Tolerance:     ip.Tolerance,
		MaxIterations: ip.MaxIterations,
		Logger:        p.logger,
	}
	if s, err = solver.New(p.Kind, settings); err != nil {
		return
	}
	if err = s.SetOperator(ls.A); err != nil {
		return
	}
	if lu, ok := s.(*solver.SparseLU); ok {
		defer lu.Release()
	}
	res, err = s.Solve(ls.B.Vector, ls.X.Vector)
	rep.Iterations, rep.Residual = res.Iterations, res.Residual
	if err != nil {
		return
	}
	if err = bf.RecoverFEMSolution(ls.X, b, p.U); err != nil {
		return
	}
	rep.SolveTime = time.Since(start)
	rep.L2Error = p.L2Error(p.U, Exact)
	p.logger.Info("poisson1D solved",
		"layout", rep.Layout,
		"level", rep.Level,
		"solver", rep.Solver,
		"unknowns", rep.TrueUnknowns,
		"iterations", rep.Iterations,
		"l2error", rep.L2Error)
	return
}

func (p *Poisson) hasNeumann() bool {
	for _, a := range []int{1, 2} {
		if !utils.Index(p.ip.BCs["Dirichlet"]).Contains(a) {
			return true
		}
	}
	return false
}

// neumannData is the outward flux n u' at an end of the domain, zero on the
// Dirichlet ends where the load is overwritten anyway.
func (p *Poisson) neumannData(x float64) float64 {
	var (
		n    = 1.
		attr = 2
	)
	if math.Abs(x-p.ip.XMin) < math.Abs(x-p.ip.XMax) {
		n, attr = -1, 1
	}
	if utils.Index(p.ip.BCs["Dirichlet"]).Contains(attr) {
		return 0
	}
	return n * dExact(x)
}

// L2Error integrates (u - f)² over the mesh with the element quadrature.
func (p *Poisson) L2Error(u utils.Vector, f func(x float64) float64) float64 {
	var (
		fe   = p.Fes.FE()
		R, W = FE1D.IntegrationRule(2*fe.GetOrder() + 2)
		S    = fe.CalcShape(R)
		uD   = u.Data()
		sum  float64
	)
	for k := 0; k < p.Mesh.NumElements(); k++ {
		var (
			T    = p.Mesh.ElementTransformation(k)
			dofs = p.Fes.ElementDofs(k)
		)
		for q, r := range R {
			var uq float64
			for i, s := range S.Row(q) {
				uq += s * uD[dofs[i]]
			}
			e := uq - f(T.Transform(r))
			sum += W[q] * T.Weight() * e * e
		}
	}
	return math.Sqrt(sum)
}

func (rep Report) Print() {
	fmt.Printf("Poisson Equation in 1 Dimension\nLayout: %s, Assembly: %s, Solver: %s\n",
		rep.Layout, rep.Level, rep.Solver)
	fmt.Printf("Polynomial Degree N = %d (1 is linear), Num Elements K = %d\n",
		rep.ProblemParams.PolynomialOrder, rep.ProblemParams.Elements)
	fmt.Printf("Unknowns: %d local, %d true, %d constrained\n", rep.Unknowns, rep.TrueUnknowns, rep.Constrained)
	fmt.Printf("Iterations = %d, Residual = %8.3e\n", rep.Iterations, rep.Residual)
	fmt.Printf("L2 Error = %8.3e\n", rep.L2Error)
	fmt.Printf("Assembly time = %v, Solve time = %v\n", rep.AssemblyTime, rep.SolveTime)
}
