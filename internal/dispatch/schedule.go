package dispatch

import (
	"time"

	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/lp"
	"energy-dispatch/internal/model"
)

// ScheduleRow is one period of a solved dispatch.
//
// Buy, Sell, Charge and Discharge are the raw decision variables, the ones
// priced by the objective. The Effective* flows are the ones that enter the
// energy balance and battery recursion; they differ from the raw flows only
// for the mixed-integer variant, where the switches gate them.
type ScheduleRow struct {
	Period int

	PVProduction float64
	Consumption  float64
	Gap          float64
	BuyPrice     float64
	SellPrice    float64
	StorageCost  float64

	Buy       float64
	Sell      float64
	Charge    float64
	Discharge float64

	BuyOn       float64
	SellOn      float64
	ChargeOn    float64
	DischargeOn float64

	EffectiveBuy       float64
	EffectiveSell      float64
	EffectiveCharge    float64
	EffectiveDischarge float64

	BatteryLevel float64

	Action     model.Action
	GridAction model.GridAction

	Cost    float64
	CumCost float64
}

type Result struct {
	ID        string
	Variant   formulation.Variant
	Solver    string
	Rows      []ScheduleRow
	TotalCost float64
	Nodes     int
	Elapsed   time.Duration
	Stats     lp.Stats
}

// Len is the number of periods.
func (r *Result) Len() int { return len(r.Rows) }

func scheduleRows(p *formulation.Problem) []ScheduleRow {
	h := p.Inputs.Horizon
	rows := make([]ScheduleRow, 0, p.Len())
	cum := 0.0
	for t := 0; t < p.Len(); t++ {
		f := p.Flows(t)
		cost := h.BuyPrice[t]*f.Buy - h.SellPrice[t]*f.Sell + h.StorageCost[t]*f.Charge
		cum += cost
		rows = append(rows, ScheduleRow{
			Period: t,

			PVProduction: h.PVProduction[t],
			Consumption:  h.Consumption[t],
			Gap:          h.PVProduction[t] - h.Consumption[t],
			BuyPrice:     h.BuyPrice[t],
			SellPrice:    h.SellPrice[t],
			StorageCost:  h.StorageCost[t],

			Buy:       f.Buy,
			Sell:      f.Sell,
			Charge:    f.Charge,
			Discharge: f.Discharge,

			BuyOn:       f.BuyOn,
			SellOn:      f.SellOn,
			ChargeOn:    f.ChargeOn,
			DischargeOn: f.DischargeOn,

			EffectiveBuy:       f.EffectiveBuy(),
			EffectiveSell:      f.EffectiveSell(),
			EffectiveCharge:    f.EffectiveCharge(),
			EffectiveDischarge: f.EffectiveDischarge(),

			BatteryLevel: f.BatteryLevel,

			Action:     model.ActionFromFlows(f.EffectiveCharge(), f.EffectiveDischarge()),
			GridAction: model.GridActionFromFlows(f.EffectiveBuy(), f.EffectiveSell()),

			Cost:    cost,
			CumCost: cum,
		})
	}
	return rows
}
