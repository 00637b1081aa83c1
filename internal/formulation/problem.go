package formulation

import (
	"energy-dispatch/internal/lp"
	"energy-dispatch/internal/model"
)

// Rows indexes the model constraints by family, one entry per period.
type Rows struct {
	BatteryLevel      []int
	EnergyBalance     []int
	BuyGate           []int
	TransactionSwitch []int
	BatterySwitch     []int
}

// Problem is an assembled dispatch model together with the handles needed to
// read its solution. Switch handles are nil for the Linear variant.
type Problem struct {
	Variant Variant
	Inputs  model.Inputs
	Model   *lp.Model

	Buy          []lp.Var
	Sell         []lp.Var
	Charge       []lp.Var
	Discharge    []lp.Var
	BatteryLevel []lp.Var

	BuyOn       []lp.Var
	SellOn      []lp.Var
	ChargeOn    []lp.Var
	DischargeOn []lp.Var

	Rows Rows
}

// Len is the horizon length.
func (p *Problem) Len() int {
	return len(p.Buy)
}

// Gated reports whether flows are multiplied by switch variables.
func (p *Problem) Gated() bool {
	return p.BuyOn != nil
}

// Flows are the solved values of one period.
type Flows struct {
	Buy          float64
	Sell         float64
	Charge       float64
	Discharge    float64
	BatteryLevel float64

	// Switches are 1 for the Linear variant.
	BuyOn       float64
	SellOn      float64
	ChargeOn    float64
	DischargeOn float64
}

// EffectiveBuy is the flow that enters the energy balance.
func (f Flows) EffectiveBuy() float64 { return f.BuyOn * f.Buy }

func (f Flows) EffectiveSell() float64 { return f.SellOn * f.Sell }

func (f Flows) EffectiveCharge() float64 { return f.ChargeOn * f.Charge }

func (f Flows) EffectiveDischarge() float64 { return f.DischargeOn * f.Discharge }

// Flows reads period t from the solved model. Values are NaN when unsolved.
func (p *Problem) Flows(t int) Flows {
	m := p.Model
	f := Flows{
		Buy:          m.Value(p.Buy[t]),
		Sell:         m.Value(p.Sell[t]),
		Charge:       m.Value(p.Charge[t]),
		Discharge:    m.Value(p.Discharge[t]),
		BatteryLevel: m.Value(p.BatteryLevel[t]),
		BuyOn:        1,
		SellOn:       1,
		ChargeOn:     1,
		DischargeOn:  1,
	}
	if p.Gated() {
		f.BuyOn = m.Value(p.BuyOn[t])
		f.SellOn = m.Value(p.SellOn[t])
		f.ChargeOn = m.Value(p.ChargeOn[t])
		f.DischargeOn = m.Value(p.DischargeOn[t])
	}
	return f
}
