package solver

import (
	"context"
	"time"

	"energy-dispatch/internal/lp"
)

// Simplex solves continuous linear models with gonum's simplex method. A
// numerical failure in gonum is retried with the bounded-variable simplex.
type Simplex struct {
	opts Options
}

func NewSimplex(opts Options) *Simplex {
	return &Simplex{opts: opts.withDefaults()}
}

func (s *Simplex) Name() string { return SimplexName }

// Solve rejects models with binary variables or bilinear terms.
func (s *Simplex) Solve(ctx context.Context, m *lp.Model) (*Solution, error) {
	start := time.Now()
	m.ResetValues()
	if m.HasIntegers() || !m.IsLinear() {
		return nil, &SolverUnavailableError{
			Solver: s.Name(),
			Reason: "model has binary variables or bilinear terms, use " + BranchAndBoundName,
		}
	}
	p, err := fromLinearModel(m)
	if err != nil {
		return nil, classify(s.Name(), m.Name, time.Since(start), err)
	}
	x, err := solveLinear(ctx, p, p.lower, p.upper, s.opts)
	if err != nil {
		return nil, classify(s.Name(), m.Name, time.Since(start), err)
	}
	m.SetValues(x)
	return &Solution{
		Solver:    s.Name(),
		Status:    StatusOptimal,
		Objective: m.ObjectiveValue(),
		Nodes:     1,
		Elapsed:   time.Since(start),
	}, nil
}
