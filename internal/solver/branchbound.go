package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"energy-dispatch/internal/lp"
)

// BranchAndBound solves models with binary variables and binary×bounded
// products. Relaxations are solved with the bounded-variable simplex, falling
// back to gonum's when it fails numerically; the search is depth first and explores the branch nearest each binary's initial value
// first, so a good incumbent is found early.
type BranchAndBound struct {
	opts Options
}

func NewBranchAndBound(opts Options) *BranchAndBound {
	return &BranchAndBound{opts: opts.withDefaults()}
}

func (s *BranchAndBound) Name() string { return BranchAndBoundName }

func (s *BranchAndBound) Solve(ctx context.Context, m *lp.Model) (*Solution, error) {
	start := time.Now()
	m.ResetValues()
	p, ints, err := linearize(m)
	if err != nil {
		return nil, classify(s.Name(), m.Name, time.Since(start), err)
	}
	x, nodes, err := s.search(ctx, p, ints, m)
	if err != nil {
		return nil, classify(s.Name(), m.Name, time.Since(start), err)
	}
	values := x[:len(m.Vars)]
	for _, j := range ints {
		values[j] = math.Round(values[j])
	}
	m.SetValues(values)
	return &Solution{
		Solver:    s.Name(),
		Status:    StatusOptimal,
		Objective: m.ObjectiveValue(),
		Nodes:     nodes,
		Elapsed:   time.Since(start),
	}, nil
}

type node struct {
	lower, upper []float64
}

func (nd node) fix(j int, v float64) node {
	lower := append([]float64(nil), nd.lower...)
	upper := append([]float64(nil), nd.upper...)
	lower[j], upper[j] = v, v
	return node{lower: lower, upper: upper}
}

func (s *BranchAndBound) search(ctx context.Context, p *linearProblem, ints []int, m *lp.Model) ([]float64, int, error) {
	var (
		best    []float64
		bestObj = math.Inf(1)
		nodes   int
	)
	stack := []node{{lower: p.lower, upper: p.upper}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, nodes, err
		}
		if nodes >= s.opts.MaxNodes {
			return nil, nodes, fmt.Errorf("%w after %d nodes", errNodeLimit, nodes)
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		x, err := solveLinear(ctx, p, nd.lower, nd.upper, s.opts, boundedMethod, gonumMethod)
		if errors.Is(err, errInfeasible) {
			continue
		}
		if err != nil {
			return nil, nodes, err
		}
		obj := p.objective(x)
		if obj >= bestObj-1e-9*(1+math.Abs(bestObj)) {
			continue
		}

		j := s.fractional(x, ints)
		if j < 0 {
			best, bestObj = x, obj
			continue
		}
		down, up := nd.fix(j, 0), nd.fix(j, 1)
		target := x[j]
		if v := m.Vars[j]; v.HasInitial {
			target = v.Initial
		}
		// the last pushed node is explored first
		if target >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}
	if best == nil {
		return nil, nodes, fmt.Errorf("%w: no assignment of the binary variables is feasible", errInfeasible)
	}
	return best, nodes, nil
}

// fractional returns the first binary that is not integral in x, or -1.
func (s *BranchAndBound) fractional(x []float64, ints []int) int {
	for _, j := range ints {
		if math.Abs(x[j]-math.Round(x[j])) > s.opts.IntegralityTolerance {
			return j
		}
	}
	return -1
}
