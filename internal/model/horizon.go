package model

import "math"

// Period is one row of the forecast table. Energy in kWh, prices in c/kWh.
type Period struct {
	PVProduction float64 `json:"pv_production" yaml:"pv_production"`
	Consumption  float64 `json:"electrical_consumption" yaml:"electrical_consumption"`
	BuyPrice     float64 `json:"buy_price" yaml:"buy_price"`
	SellPrice    float64 `json:"sell_price" yaml:"sell_price"`
	StorageCost  float64 `json:"storage_cost" yaml:"storage_cost"`
}

// Gap is production minus consumption; positive means surplus.
func (p Period) Gap() float64 {
	return p.PVProduction - p.Consumption
}

// Horizon holds the per-period forecasts as parallel columns indexed 0..Len()-1.
// Period 0 is the initial period and has no predecessor.
type Horizon struct {
	PVProduction []float64
	Consumption  []float64
	BuyPrice     []float64
	SellPrice    []float64
	StorageCost  []float64
}

// HorizonFromPeriods converts row records into columns.
func HorizonFromPeriods(periods []Period) Horizon {
	h := Horizon{
		PVProduction: make([]float64, len(periods)),
		Consumption:  make([]float64, len(periods)),
		BuyPrice:     make([]float64, len(periods)),
		SellPrice:    make([]float64, len(periods)),
		StorageCost:  make([]float64, len(periods)),
	}
	for t, p := range periods {
		h.PVProduction[t] = p.PVProduction
		h.Consumption[t] = p.Consumption
		h.BuyPrice[t] = p.BuyPrice
		h.SellPrice[t] = p.SellPrice
		h.StorageCost[t] = p.StorageCost
	}
	return h
}

// Len is the number of periods. It is only meaningful once Validate passed.
func (h Horizon) Len() int {
	return len(h.PVProduction)
}

func (h Horizon) Period(t int) Period {
	return Period{
		PVProduction: h.PVProduction[t],
		Consumption:  h.Consumption[t],
		BuyPrice:     h.BuyPrice[t],
		SellPrice:    h.SellPrice[t],
		StorageCost:  h.StorageCost[t],
	}
}

func (h Horizon) Periods() []Period {
	out := make([]Period, h.Len())
	for t := range out {
		out[t] = h.Period(t)
	}
	return out
}

// Truncate returns the first n periods (or all of them when n <= 0 or n >= Len).
func (h Horizon) Truncate(n int) Horizon {
	if n <= 0 || n >= h.Len() {
		return h
	}
	return Horizon{
		PVProduction: h.PVProduction[:n],
		Consumption:  h.Consumption[:n],
		BuyPrice:     h.BuyPrice[:n],
		SellPrice:    h.SellPrice[:n],
		StorageCost:  h.StorageCost[:n],
	}
}

func (h Horizon) columns() []struct {
	name string
	vals []float64
} {
	return []struct {
		name string
		vals []float64
	}{
		{"pv_production", h.PVProduction},
		{"electrical_consumption", h.Consumption},
		{"buy_price", h.BuyPrice},
		{"sell_price", h.SellPrice},
		{"storage_cost", h.StorageCost},
	}
}

func (h Horizon) Validate() error {
	n := len(h.PVProduction)
	if n == 0 {
		return configErrorf("horizon", "must contain at least one period")
	}
	for _, col := range h.columns() {
		if len(col.vals) != n {
			return configErrorf(col.name, "has %d periods, expected %d", len(col.vals), n)
		}
		for t, v := range col.vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return configErrorf(col.name, "period %d is not a finite number", t)
			}
		}
	}
	for t := 0; t < n; t++ {
		if h.PVProduction[t] < 0 {
			return configErrorf("pv_production", "period %d is negative (%v)", t, h.PVProduction[t])
		}
		if h.Consumption[t] < 0 {
			return configErrorf("electrical_consumption", "period %d is negative (%v)", t, h.Consumption[t])
		}
	}
	return nil
}
