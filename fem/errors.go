package fem

import "errors"

// Sentinel errors, match with errors.Is. Errors returned or raised by the
// package wrap them with the name of the failing call.
var (
	// ErrNilIntegrator is raised when a nil integrator is registered.
	ErrNilIntegrator = errors.New("integrator is nil")
	// ErrNotConstrained is returned by InitRHS without a constrained operator.
	ErrNotConstrained = errors.New("operator is not a constrained operator")
	// ErrDimensionMismatch is returned when a vector does not fit its space.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrMissingKernel is returned when an integrator cannot serve the
	// category or assembly level it was registered for.
	ErrMissingKernel = errors.New("integrator has no kernel for this assembly")
	// ErrIncompatibleSpaces is returned when trial and test spaces live on
	// different meshes.
	ErrIncompatibleSpaces = errors.New("trial and test spaces are incompatible")
)
