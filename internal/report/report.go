// Package report renders solved schedules and solve failures for people.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"energy-dispatch/internal/analysis"
	"energy-dispatch/internal/dispatch"
	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/model"
	"energy-dispatch/internal/solver"
)

// PrintSchedule writes the hour-by-hour listing followed by the total cost.
// Flows are the decision variables as solved; for gated schedules the
// switch states are listed too.
func PrintSchedule(w io.Writer, res *dispatch.Result) error {
	var b strings.Builder
	for _, r := range res.Rows {
		fmt.Fprintf(&b, "Hour %d:\n", r.Period+1)
		fmt.Fprintf(&b, "  PV Production: %s kWh\n", num(r.PVProduction))
		fmt.Fprintf(&b, "  Electrical Consumption: %s kWh\n", num(r.Consumption))
		fmt.Fprintf(&b, "  Electricity Gap: %s kWh\n", num(r.Gap))
		// level 0 is pinned to zero
		if r.Period > 0 {
			fmt.Fprintf(&b, "  Battery Capacity: %s kWh\n", num(r.BatteryLevel))
		}
		fmt.Fprintf(&b, "  Buy from Grid: %s kWh\n", num(r.Buy))
		fmt.Fprintf(&b, "  Sell to Grid: %s kWh\n", num(r.Sell))
		fmt.Fprintf(&b, "  Charge Battery: %s kWh\n", num(r.Charge))
		fmt.Fprintf(&b, "  Discharge Battery: %s kWh\n", num(r.Discharge))
		if res.Variant == formulation.MixedInteger {
			fmt.Fprintf(&b, "  Switches: buy=%s sell=%s charge=%s discharge=%s\n",
				num(r.BuyOn), num(r.SellOn), num(r.ChargeOn), num(r.DischargeOn))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Total Cost: %s cents\n", num(math.Round(res.TotalCost*100)/100))
	_, err := io.WriteString(w, b.String())
	return err
}

// PrintError writes a message specific to the failure kind.
func PrintError(w io.Writer, err error) {
	var cfg *model.ConfigurationError
	switch solver.Kind(err) {
	case solver.CodeInvalidConfig:
		if errors.As(err, &cfg) {
			fmt.Fprintf(w, "Invalid input: %s %s\n", cfg.Field, cfg.Reason)
			return
		}
		fmt.Fprintf(w, "Invalid input: %v\n", err)
	case solver.CodeInfeasible:
		fmt.Fprintf(w, "No feasible dispatch exists: %v\n", err)
		fmt.Fprintln(w, "Check that grid limits and battery rates can cover the consumption in every hour.")
	case solver.CodeUnbounded:
		fmt.Fprintf(w, "The cost can be lowered without limit: %v\n", err)
	case solver.CodeSolverUnavailable:
		fmt.Fprintf(w, "Solver unavailable: %v\n", err)
		fmt.Fprintf(w, "Available solvers: %s\n", strings.Join(solver.Names(), ", "))
	case solver.CodeSolverTimeout:
		fmt.Fprintf(w, "Solver gave up before proving an optimum: %v\n", err)
		fmt.Fprintln(w, "Raise the timeout or node budget, or shorten the horizon.")
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}

// PrintComparison writes a ranked cost table.
func PrintComparison(w io.Writer, ranked []analysis.VariantCost) {
	fmt.Fprintf(w, "%-4s %-8s %-16s %-18s %-14s %-8s %s\n", "rank", "variant", "name", "solver", "total_cost", "nodes", "status")
	for _, r := range ranked {
		rank := strconv.Itoa(r.Rank)
		cost := fmt.Sprintf("%.2f", r.TotalCost)
		status := "optimal"
		if r.Code != "" {
			rank, cost, status = "-", "-", r.Code
		}
		fmt.Fprintf(w, "%-4s %-8s %-16s %-18s %-14s %-8d %s\n",
			rank, string(r.Variant), r.Variant.Name(), r.Solver, cost, r.Nodes, status)
	}
}

// num is the shortest representation of x, always with a decimal point.
func num(x float64) string {
	if math.Abs(x) < 1e-9 {
		x = 0
	}
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}
