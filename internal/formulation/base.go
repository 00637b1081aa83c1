package formulation

import (
	"energy-dispatch/internal/lp"
	"energy-dispatch/internal/model"
)

// buildBase creates the five continuous variable families with their bounds
// and the cost objective shared by every variant.
func buildBase(name string, in model.Inputs) *Problem {
	h := in.Horizon.Len()
	s := in.Site
	m := lp.NewModel(name)

	p := &Problem{Inputs: in, Model: m}
	p.Buy = m.AddVars("buy_from_grid", h, 0, s.MaxBuyFromGrid, lp.Continuous)
	p.Sell = m.AddVars("sell_to_grid", h, 0, s.MaxSellToGrid, lp.Continuous)
	p.Charge = m.AddVars("charge_battery", h, 0, s.MaxChargingRate, lp.Continuous)
	p.Discharge = m.AddVars("discharge_battery", h, 0, s.MaxChargingRate, lp.Continuous)
	p.BatteryLevel = m.AddVars("battery_level", h, 0, s.MaxBatteryCapacity, lp.Continuous)

	m.SetObjective(cost(in.Horizon, p.Buy, p.Sell, p.Charge))
	return p
}

// cost is Σ buy_price·buy − sell_price·sell + storage_cost·charge over raw flows.
func cost(h model.Horizon, buy, sell, charge []lp.Var) lp.Expr {
	var terms []lp.Expr
	for t := range buy {
		terms = append(terms,
			lp.Mul(h.BuyPrice[t], buy[t]),
			lp.Mul(-h.SellPrice[t], sell[t]),
			lp.Mul(h.StorageCost[t], charge[t]),
		)
	}
	return lp.Sum(terms...)
}
