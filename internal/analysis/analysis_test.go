package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-dispatch/internal/dispatch"
	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/model"
	"energy-dispatch/internal/solver"
)

func TestSummarize(t *testing.T) {
	h := model.HorizonFromPeriods([]model.Period{
		{PVProduction: 10, Consumption: 5, BuyPrice: 20, SellPrice: 10, StorageCost: 1},
		{PVProduction: 0, Consumption: 8, BuyPrice: 30, SellPrice: 4, StorageCost: 1},
		{PVProduction: 6, Consumption: 6, BuyPrice: 25, SellPrice: 7, StorageCost: 1},
	})
	s := Summarize(h)

	assert.Equal(t, 3, s.Periods)
	assert.Equal(t, 16.0, s.TotalPV)
	assert.Equal(t, 19.0, s.TotalConsumption)
	assert.Equal(t, 5.0, s.SurplusEnergy)
	assert.Equal(t, 8.0, s.DeficitEnergy)
	assert.Equal(t, 1, s.SurplusPeriods)
	assert.Equal(t, 1, s.DeficitPeriods)
	assert.InDelta(t, -50.0+240.0, s.BaselineCost, 1e-9)

	assert.Equal(t, 20.0, s.BuyPrice.Min)
	assert.Equal(t, 30.0, s.BuyPrice.Max)
	assert.InDelta(t, 25.0, s.BuyPrice.Mean, 1e-9)
	assert.Equal(t, 20.0, s.BuyPrice.P05)
	assert.Equal(t, 30.0, s.BuyPrice.P95)
	assert.Equal(t, 1.0, s.StorageCost.Mean)
	assert.Equal(t, 26.0, s.MaxSpread)

	assert.Equal(t, ForecastSummary{}, Summarize(model.Horizon{}))
}

func TestRankByCost(t *testing.T) {
	outcomes := []dispatch.Outcome{
		{Variant: formulation.Linear, Result: &dispatch.Result{ID: "a", Solver: solver.SimplexName, TotalCost: 120, Nodes: 1}},
		{Variant: formulation.MixedInteger, Err: &solver.SolverTimeoutError{Solver: solver.BranchAndBoundName}},
		{Variant: "C", Result: &dispatch.Result{ID: "c", Solver: solver.SimplexName, TotalCost: 80, Nodes: 1}},
		{Variant: "D", Err: errors.New("boom")},
	}
	ranked := RankByCost(outcomes, 200)
	require.Len(t, ranked, 4)

	assert.Equal(t, "c", ranked[0].ID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 120.0, ranked[0].Savings)
	assert.Equal(t, "a", ranked[1].ID)
	assert.Equal(t, 2, ranked[1].Rank)

	assert.Equal(t, formulation.MixedInteger, ranked[2].Variant)
	assert.Equal(t, 0, ranked[2].Rank)
	assert.Equal(t, solver.CodeSolverTimeout, ranked[2].Code)
	assert.Equal(t, solver.BranchAndBoundName, ranked[2].Solver)
	assert.Equal(t, solver.CodeInternal, ranked[3].Code)
	assert.Equal(t, "boom", ranked[3].Error)
}
