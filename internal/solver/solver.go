// Package solver hands an assembled lp.Model to a numeric backend and
// populates the variable values in place. Failures are reported as typed
// errors; on failure every variable value is left NaN.
package solver

import (
	"context"
	"sort"
	"time"

	"energy-dispatch/internal/lp"
)

const (
	SimplexName        = "simplex"
	BranchAndBoundName = "branch-and-bound"
)

// Status of a successful solve.
type Status string

const StatusOptimal Status = "optimal"

// Options tune the backends. Zero values select the defaults.
type Options struct {
	// Tolerance is the simplex pivot tolerance.
	Tolerance float64
	// FeasibilityTolerance bounds constraint violations accepted in a solution.
	FeasibilityTolerance float64
	// IntegralityTolerance is how far from 0/1 a binary may be and still count as integral.
	IntegralityTolerance float64
	// MaxNodes caps the branch-and-bound search.
	MaxNodes int
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = 1e-9
	}
	if o.FeasibilityTolerance <= 0 {
		o.FeasibilityTolerance = 1e-6
	}
	if o.IntegralityTolerance <= 0 {
		o.IntegralityTolerance = 1e-6
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = 50000
	}
	return o
}

// Solution describes a successful solve. Variable values live in the model.
type Solution struct {
	Solver    string
	Status    Status
	Objective float64
	// Nodes is the number of LP relaxations solved.
	Nodes   int
	Elapsed time.Duration
}

// Solver is a numeric backend.
type Solver interface {
	Name() string
	Solve(ctx context.Context, m *lp.Model) (*Solution, error)
}

var registry = map[string]func(Options) Solver{
	SimplexName:        func(o Options) Solver { return NewSimplex(o) },
	BranchAndBoundName: func(o Options) Solver { return NewBranchAndBound(o) },
}

// New returns the backend registered under name.
func New(name string, opts Options) (Solver, error) {
	f, ok := registry[name]
	if !ok {
		return nil, &SolverUnavailableError{Solver: name, Reason: "no such solver"}
	}
	return f(opts), nil
}

// Names lists the registered backends.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
