// Package dispatch runs a formulation through a solver and turns the solved
// model into a per-period schedule.
package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/model"
	"energy-dispatch/internal/solver"
)

// Request is one optimization run.
type Request struct {
	Inputs  model.Inputs
	Variant formulation.Variant
	// Solver defaults to DefaultSolver(Variant).
	Solver string
	// Timeout of zero means no limit beyond the caller's context.
	Timeout  time.Duration
	MaxNodes int
}

// DefaultSolver is the backend used when a request names none.
func DefaultSolver(v formulation.Variant) string {
	if v == formulation.MixedInteger {
		return solver.BranchAndBoundName
	}
	return solver.SimplexName
}

type Engine struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "dispatch").Logger()}
}

// Run builds the model for the request, solves it and returns the schedule.
// Errors are the typed errors of the model and solver packages, unwrapped.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	p, err := formulation.Build(req.Variant, req.Inputs)
	if err != nil {
		return nil, err
	}
	name := req.Solver
	if name == "" {
		name = DefaultSolver(req.Variant)
	}
	s, err := solver.New(name, solver.Options{MaxNodes: req.MaxNodes})
	if err != nil {
		return nil, err
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	stats := p.Model.Stats()
	log := e.log.With().
		Str("variant", string(req.Variant)).
		Str("solver", name).
		Int("periods", p.Len()).
		Logger()
	log.Debug().
		Int("variables", stats.Variables).
		Int("binaries", stats.Binaries).
		Int("constraints", stats.Constraints).
		Int("products", stats.Products).
		Msg("model built")

	sol, err := s.Solve(ctx, p.Model)
	if err != nil {
		log.Warn().Err(err).Str("kind", solver.Kind(err)).Msg("solve failed")
		return nil, err
	}

	res := &Result{
		ID:        uuid.NewString(),
		Variant:   req.Variant,
		Solver:    sol.Solver,
		Rows:      scheduleRows(p),
		TotalCost: sol.Objective,
		Nodes:     sol.Nodes,
		Elapsed:   sol.Elapsed,
		Stats:     stats,
	}
	log.Info().
		Str("id", res.ID).
		Float64("total_cost", res.TotalCost).
		Int("nodes", res.Nodes).
		Dur("elapsed", res.Elapsed).
		Msg("solved")
	return res, nil
}

// Outcome is the result of one variant in a comparison. Exactly one of
// Result and Err is set.
type Outcome struct {
	Variant formulation.Variant
	Result  *Result
	Err     error
}

// Compare runs base once per variant on the same inputs. The solver named in
// base is ignored so every variant gets its default backend.
func (e *Engine) Compare(ctx context.Context, base Request, variants []formulation.Variant) []Outcome {
	if len(variants) == 0 {
		variants = formulation.Variants()
	}
	out := make([]Outcome, 0, len(variants))
	for _, v := range variants {
		req := base
		req.Variant = v
		req.Solver = ""
		res, err := e.Run(ctx, req)
		out = append(out, Outcome{Variant: v, Result: res, Err: err})
	}
	return out
}
