package analysis

import (
	"sort"

	"energy-dispatch/internal/dispatch"
	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/solver"
)

// VariantCost is one row of a variant comparison. Failed runs carry the error
// code and message and no rank.
type VariantCost struct {
	Rank      int
	Variant   formulation.Variant
	Solver    string
	ID        string
	TotalCost float64
	// Savings is the baseline cost minus TotalCost.
	Savings float64
	Nodes   int

	Code  string
	Error string
}

// RankByCost orders solved outcomes by ascending total cost, cheapest first,
// followed by the failures in input order.
func RankByCost(outcomes []dispatch.Outcome, baseline float64) []VariantCost {
	var solved, failed []VariantCost
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, VariantCost{
				Variant: o.Variant,
				Solver:  dispatch.DefaultSolver(o.Variant),
				Code:    solver.Kind(o.Err),
				Error:   o.Err.Error(),
			})
			continue
		}
		solved = append(solved, VariantCost{
			Variant:   o.Variant,
			Solver:    o.Result.Solver,
			ID:        o.Result.ID,
			TotalCost: o.Result.TotalCost,
			Savings:   baseline - o.Result.TotalCost,
			Nodes:     o.Result.Nodes,
		})
	}
	sort.SliceStable(solved, func(i, j int) bool {
		return solved[i].TotalCost < solved[j].TotalCost
	})
	for i := range solved {
		solved[i].Rank = i + 1
	}
	return append(solved, failed...)
}
