package model

import "math"

// SiteParams are the horizon-invariant limits of the site.
// Units:
// - MaxBatteryCapacity: kWh
// - MaxChargingRate: kWh per period (applies to both charge and discharge)
// - StorageEfficiency: (0, 1], applied once on the charging leg
// - MaxSellToGrid / MaxBuyFromGrid: kWh per period
type SiteParams struct {
	MaxBatteryCapacity float64 `json:"max_battery_capacity" yaml:"max_battery_capacity"`
	MaxChargingRate    float64 `json:"max_charging_rate" yaml:"max_charging_rate"`
	StorageEfficiency  float64 `json:"storage_efficiency" yaml:"storage_efficiency"`
	MaxSellToGrid      float64 `json:"max_sell_to_grid" yaml:"max_sell_to_grid"`
	MaxBuyFromGrid     float64 `json:"max_buy_from_grid" yaml:"max_buy_from_grid"`
}

// DefaultSiteParams are the reference site values (160 kWh battery, 100 kW
// converter, 92% efficiency, 700 kW grid connection).
func DefaultSiteParams() SiteParams {
	return SiteParams{
		MaxBatteryCapacity: 160,
		MaxChargingRate:    100,
		StorageEfficiency:  0.92,
		MaxSellToGrid:      700,
		MaxBuyFromGrid:     700,
	}
}

func (p SiteParams) Validate() error {
	bounds := []struct {
		field string
		v     float64
	}{
		{"max_battery_capacity", p.MaxBatteryCapacity},
		{"max_charging_rate", p.MaxChargingRate},
		{"max_sell_to_grid", p.MaxSellToGrid},
		{"max_buy_from_grid", p.MaxBuyFromGrid},
	}
	for _, b := range bounds {
		if math.IsNaN(b.v) || math.IsInf(b.v, 0) {
			return configErrorf(b.field, "must be a finite number, got %v", b.v)
		}
		if b.v < 0 {
			return configErrorf(b.field, "must be >= 0, got %v", b.v)
		}
	}
	if math.IsNaN(p.StorageEfficiency) || p.StorageEfficiency <= 0 || p.StorageEfficiency > 1 {
		return configErrorf("storage_efficiency", "must be in (0, 1], got %v", p.StorageEfficiency)
	}
	return nil
}
