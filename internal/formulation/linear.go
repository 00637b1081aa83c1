package formulation

import (
	"fmt"

	"energy-dispatch/internal/lp"
	"energy-dispatch/internal/model"
)

// flowTerms yields the expressions of the four flows of period t as they
// enter the balance and the battery recursion.
type flowTerms func(t int) (buy, sell, charge, discharge lp.Expr)

func rawFlows(p *Problem) flowTerms {
	return func(t int) (lp.Expr, lp.Expr, lp.Expr, lp.Expr) {
		return lp.V(p.Buy[t]), lp.V(p.Sell[t]), lp.V(p.Charge[t]), lp.V(p.Discharge[t])
	}
}

func buildLinear(in model.Inputs) *Problem {
	p := buildBase("dispatch-linear", in)
	p.Variant = Linear
	addFlowConstraints(p, rawFlows(p))
	addBuyGate(p)
	return p
}

// energyBalance: pv + discharge + buy = consumption + charge/efficiency + sell.
// The efficiency loss is charged once, on the charging leg.
func energyBalance(pv, consumption, efficiency float64, buy, sell, charge, discharge lp.Expr) lp.Constraint {
	return lp.Eq(
		lp.Sum(lp.C(pv), discharge, buy),
		lp.Sum(lp.C(consumption), charge.Scale(1/efficiency), sell),
	)
}

// batteryStart pins the level of the initial period to an empty battery.
func batteryStart(level lp.Var) lp.Constraint {
	return lp.Eq(lp.V(level), lp.C(0))
}

// batteryStep: level = prevLevel + prevCharge - prevDischarge.
func batteryStep(level, prevLevel lp.Var, prevCharge, prevDischarge lp.Expr) lp.Constraint {
	return lp.Eq(lp.V(level), lp.Sum(lp.V(prevLevel), prevCharge, prevDischarge.Scale(-1)))
}

// buyGate forbids grid purchases when production covers consumption. The
// comparison is on forecast constants; otherwise the vacuous constraint is
// returned so the family stays one row per period.
func buyGate(pv, consumption float64, buy lp.Var) lp.Constraint {
	if pv >= consumption {
		return lp.Eq(lp.V(buy), lp.C(0))
	}
	return lp.Feasible()
}

func addFlowConstraints(p *Problem, flows flowTerms) {
	h := p.Inputs.Horizon
	eff := p.Inputs.Site.StorageEfficiency
	m := p.Model

	for t := 0; t < p.Len(); t++ {
		name := fmt.Sprintf("battery_level[%d]", t)
		if t == 0 {
			p.Rows.BatteryLevel = append(p.Rows.BatteryLevel, m.AddConstraint(name, batteryStart(p.BatteryLevel[0])))
			continue
		}
		_, _, charge, discharge := flows(t - 1)
		p.Rows.BatteryLevel = append(p.Rows.BatteryLevel,
			m.AddConstraint(name, batteryStep(p.BatteryLevel[t], p.BatteryLevel[t-1], charge, discharge)))
	}
	for t := 0; t < p.Len(); t++ {
		buy, sell, charge, discharge := flows(t)
		p.Rows.EnergyBalance = append(p.Rows.EnergyBalance, m.AddConstraint(
			fmt.Sprintf("energy_balance[%d]", t),
			energyBalance(h.PVProduction[t], h.Consumption[t], eff, buy, sell, charge, discharge),
		))
	}
}

// addBuyGate always applies to the raw buy variable, also when flows are gated.
func addBuyGate(p *Problem) {
	h := p.Inputs.Horizon
	for t := 0; t < p.Len(); t++ {
		p.Rows.BuyGate = append(p.Rows.BuyGate, p.Model.AddConstraint(
			fmt.Sprintf("buy_from_grid_gate[%d]", t),
			buyGate(h.PVProduction[t], h.Consumption[t], p.Buy[t]),
		))
	}
}
