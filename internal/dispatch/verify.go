package dispatch

import (
	"fmt"
	"math"
	"strings"

	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/model"
)

// Tolerance is the absolute slack allowed by Verify.
const Tolerance = 1e-5

// Violation is a schedule property that does not hold in one period.
type Violation struct {
	Period int
	Check  string
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("period %d: %s: %s", v.Period, v.Check, v.Detail)
}

// Violations implements error when non-empty.
type Violations []Violation

func (vs Violations) Error() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// Err is nil when there are no violations.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	return vs
}

// Verify re-checks a solved schedule against the inputs it was solved for:
// bounds, battery start, battery recursion, energy balance, the grid purchase
// gate and, for the mixed-integer variant, switch exclusivity.
func Verify(res *Result, in model.Inputs) Violations {
	var out Violations
	add := func(t int, check, format string, args ...any) {
		out = append(out, Violation{Period: t, Check: check, Detail: fmt.Sprintf(format, args...)})
	}
	if res.Len() != in.Horizon.Len() {
		add(0, "length", "schedule has %d periods, inputs have %d", res.Len(), in.Horizon.Len())
		return out
	}
	site := in.Site
	within := func(t int, name string, x, hi float64) {
		if x < -Tolerance || x > hi+Tolerance {
			add(t, "bounds", "%s=%g outside [0, %g]", name, x, hi)
		}
	}

	for t, r := range res.Rows {
		within(t, "buy_from_grid", r.Buy, site.MaxBuyFromGrid)
		within(t, "sell_to_grid", r.Sell, site.MaxSellToGrid)
		within(t, "charge_battery", r.Charge, site.MaxChargingRate)
		within(t, "discharge_battery", r.Discharge, site.MaxChargingRate)
		within(t, "battery_level", r.BatteryLevel, site.MaxBatteryCapacity)

		if t == 0 && math.Abs(r.BatteryLevel) > Tolerance {
			add(t, "battery_start", "battery_level=%g, want 0", r.BatteryLevel)
		}
		if t > 0 {
			prev := res.Rows[t-1]
			want := prev.BatteryLevel + prev.EffectiveCharge - prev.EffectiveDischarge
			if math.Abs(r.BatteryLevel-want) > Tolerance {
				add(t, "battery_recursion", "battery_level=%g, want %g", r.BatteryLevel, want)
			}
		}

		supply := r.PVProduction + r.EffectiveBuy + r.EffectiveDischarge
		demand := r.Consumption + r.EffectiveCharge/site.StorageEfficiency + r.EffectiveSell
		if math.Abs(supply-demand) > Tolerance*math.Max(1, supply) {
			add(t, "energy_balance", "supply %g != demand %g", supply, demand)
		}

		if r.PVProduction >= r.Consumption && math.Abs(r.Buy) > Tolerance {
			add(t, "buy_gate", "buy_from_grid=%g with pv surplus", r.Buy)
		}

		if res.Variant == formulation.MixedInteger {
			if math.Abs(r.BuyOn+r.SellOn-1) > Tolerance {
				add(t, "transaction_switch", "buy=%g sell=%g", r.BuyOn, r.SellOn)
			}
			if math.Abs(r.ChargeOn+r.DischargeOn-1) > Tolerance {
				add(t, "battery_switch", "charge=%g discharge=%g", r.ChargeOn, r.DischargeOn)
			}
		}
	}
	return out
}
