package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-dispatch/internal/analysis"
	"energy-dispatch/internal/dispatch"
	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/model"
	"energy-dispatch/internal/solver"
)

func sampleResult(v formulation.Variant) *dispatch.Result {
	return &dispatch.Result{
		ID:      "r1",
		Variant: v,
		Solver:  solver.SimplexName,
		Rows: []dispatch.ScheduleRow{
			{Period: 0, PVProduction: 10, Consumption: 5, Gap: 5, Sell: 1, Charge: 3.68, BuyOn: 0, SellOn: 1, ChargeOn: 1, DischargeOn: 0,
				EffectiveSell: 1, EffectiveCharge: 3.68},
			{Period: 1, PVProduction: 0, Consumption: 4, Gap: -4, Discharge: 3.68, Buy: 0.32, BatteryLevel: 3.68, BuyOn: 1, SellOn: 0, ChargeOn: 0, DischargeOn: 1,
				EffectiveBuy: 0.32, EffectiveDischarge: 3.68},
		},
		TotalCost: 12.3456,
	}
}

func TestPrintSchedule(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintSchedule(&buf, sampleResult(formulation.Linear)))
	out := buf.String()

	assert.Contains(t, out, "Hour 1:\n  PV Production: 10.0 kWh\n  Electrical Consumption: 5.0 kWh\n  Electricity Gap: 5.0 kWh\n  Buy from Grid: 0.0 kWh\n")
	assert.Contains(t, out, "Hour 2:\n  PV Production: 0.0 kWh\n  Electrical Consumption: 4.0 kWh\n  Electricity Gap: -4.0 kWh\n  Battery Capacity: 3.68 kWh\n")
	assert.Contains(t, out, "  Discharge Battery: 3.68 kWh\n")
	assert.Equal(t, 1, strings.Count(out, "Battery Capacity"))
	assert.NotContains(t, out, "Switches")
	assert.True(t, strings.HasSuffix(out, "Total Cost: 12.35 cents\n"))

	buf.Reset()
	require.NoError(t, PrintSchedule(&buf, sampleResult(formulation.MixedInteger)))
	assert.Contains(t, buf.String(), "  Switches: buy=0.0 sell=1.0 charge=1.0 discharge=0.0\n")
}

func TestPrintError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&model.ConfigurationError{Field: "horizon", Reason: "is empty"}, "Invalid input: horizon is empty"},
		{&solver.InfeasibleModelError{Model: "m"}, "No feasible dispatch exists"},
		{&solver.UnboundedModelError{Model: "m"}, "lowered without limit"},
		{&solver.SolverUnavailableError{Solver: "cplex", Reason: "no such solver"}, "Available solvers: branch-and-bound, simplex"},
		{&solver.SolverTimeoutError{Solver: "branch-and-bound", Reason: "node budget exhausted"}, "Raise the timeout"},
		{errors.New("disk full"), "Error: disk full"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		PrintError(&buf, tt.err)
		assert.Contains(t, buf.String(), tt.want)
	}
}

func TestPrintComparison(t *testing.T) {
	var buf bytes.Buffer
	PrintComparison(&buf, []analysis.VariantCost{
		{Rank: 1, Variant: formulation.Linear, Solver: solver.SimplexName, TotalCost: 10, Nodes: 1},
		{Variant: formulation.MixedInteger, Solver: solver.BranchAndBoundName, Code: solver.CodeSolverTimeout},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "10.00")
	assert.Contains(t, lines[1], "optimal")
	assert.Contains(t, lines[2], solver.CodeSolverTimeout)
}

func TestPlotSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.png")
	require.NoError(t, PlotSchedule(path, sampleResult(formulation.Linear)))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestNum(t *testing.T) {
	assert.Equal(t, "10.0", num(10))
	assert.Equal(t, "-4.0", num(-4))
	assert.Equal(t, "3.68", num(3.68))
	assert.Equal(t, "0.0", num(-1e-12))
}
