package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInputs() Inputs {
	return Inputs{
		Horizon: HorizonFromPeriods([]Period{
			{PVProduction: 10, Consumption: 5, BuyPrice: 20, SellPrice: 10, StorageCost: 5},
			{PVProduction: 0, Consumption: 8, BuyPrice: 25, SellPrice: 12, StorageCost: 5},
		}),
		Site: DefaultSiteParams(),
	}
}

func TestInputsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Inputs)
		field  string
	}{
		{
			name:   "valid",
			mutate: func(in *Inputs) {},
		},
		{
			name:   "empty horizon",
			mutate: func(in *Inputs) { in.Horizon = Horizon{} },
			field:  "horizon",
		},
		{
			name:   "column length mismatch",
			mutate: func(in *Inputs) { in.Horizon.SellPrice = in.Horizon.SellPrice[:1] },
			field:  "sell_price",
		},
		{
			name:   "NaN price",
			mutate: func(in *Inputs) { in.Horizon.BuyPrice[1] = math.NaN() },
			field:  "buy_price",
		},
		{
			name:   "negative consumption",
			mutate: func(in *Inputs) { in.Horizon.Consumption[0] = -1 },
			field:  "electrical_consumption",
		},
		{
			name:   "negative capacity",
			mutate: func(in *Inputs) { in.Site.MaxBatteryCapacity = -1 },
			field:  "max_battery_capacity",
		},
		{
			name:   "negative grid limit",
			mutate: func(in *Inputs) { in.Site.MaxBuyFromGrid = -0.5 },
			field:  "max_buy_from_grid",
		},
		{
			name:   "zero efficiency",
			mutate: func(in *Inputs) { in.Site.StorageEfficiency = 0 },
			field:  "storage_efficiency",
		},
		{
			name:   "efficiency above one",
			mutate: func(in *Inputs) { in.Site.StorageEfficiency = 1.01 },
			field:  "storage_efficiency",
		},
		{
			name:   "zero bounds are allowed",
			mutate: func(in *Inputs) { in.Site.MaxBatteryCapacity, in.Site.MaxChargingRate = 0, 0 },
		},
		{
			name:   "negative prices are allowed",
			mutate: func(in *Inputs) { in.Horizon.SellPrice[0] = -3 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInputs()
			tt.mutate(&in)
			err := in.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestHorizonRoundTripAndTruncate(t *testing.T) {
	periods := []Period{
		{PVProduction: 1, Consumption: 2, BuyPrice: 3, SellPrice: 4, StorageCost: 5},
		{PVProduction: 6, Consumption: 7, BuyPrice: 8, SellPrice: 9, StorageCost: 10},
		{PVProduction: 11, Consumption: 12, BuyPrice: 13, SellPrice: 14, StorageCost: 15},
	}
	h := HorizonFromPeriods(periods)
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, periods, h.Periods())
	assert.Equal(t, -1.0, h.Period(0).Gap())

	assert.Equal(t, 2, h.Truncate(2).Len())
	assert.Equal(t, 3, h.Truncate(0).Len())
	assert.Equal(t, 3, h.Truncate(10).Len())
}

func TestActions(t *testing.T) {
	assert.Equal(t, ActionCharging, ActionFromFlows(5, 0))
	assert.Equal(t, ActionDischarging, ActionFromFlows(0, 2))
	assert.Equal(t, ActionIdle, ActionFromFlows(1e-9, 0))
	assert.Equal(t, GridBuying, GridActionFromFlows(3, 0))
	assert.Equal(t, GridSelling, GridActionFromFlows(0, 3))
	assert.Equal(t, GridIdle, GridActionFromFlows(0, 0))
}
