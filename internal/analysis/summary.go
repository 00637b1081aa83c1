package analysis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"energy-dispatch/internal/model"
)

// PriceStats summarises one price column.
type PriceStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	P05  float64 `json:"p05"`
	P95  float64 `json:"p95"`
}

// ForecastSummary is a solver-free look at a horizon: how much surplus and
// deficit energy it has, what prices look like, and what the grid-only
// dispatch (no battery, every gap settled with the grid) would cost.
type ForecastSummary struct {
	Periods int `json:"periods"`

	TotalPV          float64 `json:"total_pv_kwh"`
	TotalConsumption float64 `json:"total_consumption_kwh"`
	SurplusEnergy    float64 `json:"surplus_kwh"`
	DeficitEnergy    float64 `json:"deficit_kwh"`
	SurplusPeriods   int     `json:"surplus_periods"`
	DeficitPeriods   int     `json:"deficit_periods"`

	BuyPrice    PriceStats `json:"buy_price"`
	SellPrice   PriceStats `json:"sell_price"`
	StorageCost PriceStats `json:"storage_cost"`

	// MaxSpread is the largest buy price minus the smallest sell price.
	MaxSpread float64 `json:"max_spread"`

	// BaselineCost in cents: buy every deficit, sell every surplus.
	BaselineCost float64 `json:"baseline_cost"`
}

func Summarize(h model.Horizon) ForecastSummary {
	s := ForecastSummary{Periods: h.Len()}
	if h.Len() == 0 {
		return s
	}
	s.TotalPV = floats.Sum(h.PVProduction)
	s.TotalConsumption = floats.Sum(h.Consumption)
	for t := 0; t < h.Len(); t++ {
		gap := h.PVProduction[t] - h.Consumption[t]
		switch {
		case gap > 0:
			s.SurplusEnergy += gap
			s.SurplusPeriods++
			s.BaselineCost -= h.SellPrice[t] * gap
		case gap < 0:
			s.DeficitEnergy -= gap
			s.DeficitPeriods++
			s.BaselineCost -= h.BuyPrice[t] * gap
		}
	}
	s.BuyPrice = priceStats(h.BuyPrice)
	s.SellPrice = priceStats(h.SellPrice)
	s.StorageCost = priceStats(h.StorageCost)
	s.MaxSpread = s.BuyPrice.Max - s.SellPrice.Min
	return s
}

func priceStats(vals []float64) PriceStats {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return PriceStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: stat.Mean(sorted, nil),
		P05:  stat.Quantile(0.05, stat.Empirical, sorted, nil),
		P95:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
}
