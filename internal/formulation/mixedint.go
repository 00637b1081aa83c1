package formulation

import (
	"fmt"

	"energy-dispatch/internal/lp"
	"energy-dispatch/internal/model"
)

// Starting assignment handed to the solver: buy and charge active.
const (
	initialBuyOn       = 1
	initialSellOn      = 0
	initialChargeOn    = 1
	initialDischargeOn = 0
)

func buildMixedInteger(in model.Inputs) *Problem {
	p := buildBase("dispatch-mixed-integer", in)
	p.Variant = MixedInteger
	addSwitches(p)
	addFlowConstraints(p, gatedFlows(p))
	addBuyGate(p)
	addExclusivity(p)
	return p
}

func addSwitches(p *Problem) {
	m := p.Model
	n := p.Len()
	p.BuyOn = m.AddVars("buy_binary", n, 0, 1, lp.Binary)
	p.SellOn = m.AddVars("sell_binary", n, 0, 1, lp.Binary)
	p.ChargeOn = m.AddVars("charge_binary", n, 0, 1, lp.Binary)
	p.DischargeOn = m.AddVars("discharge_binary", n, 0, 1, lp.Binary)
	for t := 0; t < n; t++ {
		m.SetInitial(p.BuyOn[t], initialBuyOn)
		m.SetInitial(p.SellOn[t], initialSellOn)
		m.SetInitial(p.ChargeOn[t], initialChargeOn)
		m.SetInitial(p.DischargeOn[t], initialDischargeOn)
	}
}

// gatedFlows multiplies every flow by its switch: on·flow.
func gatedFlows(p *Problem) flowTerms {
	return func(t int) (lp.Expr, lp.Expr, lp.Expr, lp.Expr) {
		return lp.Prod(1, p.BuyOn[t], p.Buy[t]),
			lp.Prod(1, p.SellOn[t], p.Sell[t]),
			lp.Prod(1, p.ChargeOn[t], p.Charge[t]),
			lp.Prod(1, p.DischargeOn[t], p.Discharge[t])
	}
}

// exclusive: a = 1 - b.
func exclusive(a, b lp.Var) lp.Constraint {
	return lp.Eq(lp.V(a), lp.C(1).Minus(lp.V(b)))
}

func addExclusivity(p *Problem) {
	m := p.Model
	for t := 0; t < p.Len(); t++ {
		p.Rows.TransactionSwitch = append(p.Rows.TransactionSwitch,
			m.AddConstraint(fmt.Sprintf("transaction_switch[%d]", t), exclusive(p.SellOn[t], p.BuyOn[t])))
	}
	for t := 0; t < p.Len(); t++ {
		p.Rows.BatterySwitch = append(p.Rows.BatterySwitch,
			m.AddConstraint(fmt.Sprintf("battery_switch[%d]", t), exclusive(p.ChargeOn[t], p.DischargeOn[t])))
	}
}
