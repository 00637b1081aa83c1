package dispatch

import (
	"bytes"
	"context"
	"encoding/csv"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-dispatch/internal/data"
	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/model"
	"energy-dispatch/internal/solver"
)

func noStorage() model.SiteParams {
	site := model.DefaultSiteParams()
	site.MaxBatteryCapacity = 0
	site.MaxChargingRate = 0
	return site
}

func single(p model.Period, site model.SiteParams) model.Inputs {
	return model.Inputs{Horizon: model.HorizonFromPeriods([]model.Period{p}), Site: site}
}

func run(t *testing.T, in model.Inputs, v formulation.Variant) *Result {
	t.Helper()
	res, err := New(zerolog.Nop()).Run(context.Background(), Request{Inputs: in, Variant: v})
	require.NoError(t, err)
	require.Empty(t, Verify(res, in))
	return res
}

func TestSurplusIsSold(t *testing.T) {
	in := single(model.Period{PVProduction: 10, Consumption: 5, BuyPrice: 20, SellPrice: 10, StorageCost: 5}, noStorage())
	for _, v := range formulation.Variants() {
		t.Run(v.Name(), func(t *testing.T) {
			res := run(t, in, v)
			r := res.Rows[0]
			assert.InDelta(t, 0.0, r.Buy, 1e-9)
			assert.InDelta(t, 5.0, r.EffectiveSell, 1e-6)
			assert.InDelta(t, 5.0, r.Sell, 1e-6)
			assert.InDelta(t, -50.0, res.TotalCost, 1e-6)
			assert.Equal(t, model.GridSelling, r.GridAction)
			assert.Equal(t, model.ActionIdle, r.Action)
		})
	}
}

func TestDeficitIsBought(t *testing.T) {
	in := single(model.Period{PVProduction: 0, Consumption: 10, BuyPrice: 20, SellPrice: 10, StorageCost: 5}, noStorage())
	res := run(t, in, formulation.Linear)
	assert.InDelta(t, 10.0, res.Rows[0].Buy, 1e-6)
	assert.InDelta(t, 0.0, res.Rows[0].Sell, 1e-6)
	assert.InDelta(t, 200.0, res.TotalCost, 1e-6)
	assert.Equal(t, model.GridBuying, res.Rows[0].GridAction)
}

// The mixed-integer objective prices the raw sell variable, which is free
// to move while its switch is off.
func TestMixedIntegerPricesRawFlows(t *testing.T) {
	site := noStorage()
	in := single(model.Period{PVProduction: 0, Consumption: 10, BuyPrice: 20, SellPrice: 10, StorageCost: 5}, site)
	res := run(t, in, formulation.MixedInteger)
	r := res.Rows[0]
	assert.Equal(t, 1.0, r.BuyOn)
	assert.Equal(t, 0.0, r.SellOn)
	assert.InDelta(t, 10.0, r.EffectiveBuy, 1e-6)
	assert.InDelta(t, 0.0, r.EffectiveSell, 1e-6)
	assert.InDelta(t, site.MaxSellToGrid, r.Sell, 1e-6)
	assert.InDelta(t, 200-10*site.MaxSellToGrid, res.TotalCost, 1e-6)
}

func TestNoGridNoStorageIsInfeasible(t *testing.T) {
	site := noStorage()
	site.MaxBuyFromGrid = 0
	in := single(model.Period{PVProduction: 0, Consumption: 10, BuyPrice: 20, SellPrice: 10, StorageCost: 5}, site)
	for _, v := range formulation.Variants() {
		t.Run(v.Name(), func(t *testing.T) {
			res, err := New(zerolog.Nop()).Run(context.Background(), Request{Inputs: in, Variant: v})
			var infeasible *solver.InfeasibleModelError
			require.ErrorAs(t, err, &infeasible)
			assert.Nil(t, res)
			assert.Equal(t, solver.CodeInfeasible, solver.Kind(err))
		})
	}
}

func TestBatteryRecursion(t *testing.T) {
	site := model.DefaultSiteParams()
	site.MaxSellToGrid = 5
	in := model.Inputs{
		Horizon: model.HorizonFromPeriods([]model.Period{
			{PVProduction: 20, Consumption: 5, BuyPrice: 30, SellPrice: 1, StorageCost: 0.5},
			{PVProduction: 0, Consumption: 10, BuyPrice: 30, SellPrice: 1, StorageCost: 0.5},
		}),
		Site: site,
	}
	res := run(t, in, formulation.Linear)
	r0, r1 := res.Rows[0], res.Rows[1]

	assert.Equal(t, 0.0, r0.BatteryLevel)
	assert.InDelta(t, r0.BatteryLevel+r0.Charge-r0.Discharge, r1.BatteryLevel, 1e-9)
	assert.InDelta(t, 9.2, r0.Charge, 1e-6)
	assert.InDelta(t, 9.2, r1.BatteryLevel, 1e-6)
	assert.InDelta(t, 5.0, r0.Sell, 1e-6)
	assert.InDelta(t, 15.0, r1.Discharge, 1e-6)
	assert.InDelta(t, -5.4, res.TotalCost, 1e-6)
	assert.InDelta(t, res.TotalCost, r1.CumCost, 1e-9)
	assert.Equal(t, model.ActionCharging, r0.Action)
	assert.Equal(t, model.ActionDischarging, r1.Action)
}

func randomInputs(rng *rand.Rand, n int) model.Inputs {
	periods := make([]model.Period, n)
	for t := range periods {
		periods[t] = model.Period{
			PVProduction: float64(rng.Intn(40)),
			Consumption:  float64(rng.Intn(40)),
			BuyPrice:     float64(10 + rng.Intn(30)),
			SellPrice:    float64(1 + rng.Intn(9)),
			StorageCost:  float64(rng.Intn(5)),
		}
	}
	site := model.SiteParams{
		MaxBatteryCapacity: 30,
		MaxChargingRate:    15,
		StorageEfficiency:  0.9,
		MaxSellToGrid:      60,
		MaxBuyFromGrid:     60,
	}
	return model.Inputs{Horizon: model.HorizonFromPeriods(periods), Site: site}
}

func TestSchedulePropertiesHold(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		in := randomInputs(rng, 3)
		for _, v := range formulation.Variants() {
			res := run(t, in, v)
			require.Len(t, res.Rows, 3)
			assert.Equal(t, 0.0, res.Rows[0].BatteryLevel)
			assert.InDelta(t, res.TotalCost, res.Rows[2].CumCost, 1e-6)
			for t0, r := range res.Rows {
				if in.Horizon.PVProduction[t0] >= in.Horizon.Consumption[t0] {
					assert.Equal(t, 0.0, r.Buy)
				}
				if v == formulation.MixedInteger {
					assert.Equal(t, 1.0, r.BuyOn+r.SellOn)
					assert.Equal(t, 1.0, r.ChargeOn+r.DischargeOn)
				}
			}
		}
	}
}

// Reference site scale on the bundled forecast: grid limits of 700 next to
// a 100 kWh converter make the relaxations badly scaled.
func TestMixedIntegerAtReferenceScale(t *testing.T) {
	h, err := data.LoadForecastCSV("../../examples/data/forecast.csv", 12)
	require.NoError(t, err)
	in := model.Inputs{Horizon: h, Site: model.DefaultSiteParams()}

	res := run(t, in, formulation.MixedInteger)
	require.Len(t, res.Rows, 12)
	for _, r := range res.Rows {
		assert.Equal(t, 1.0, r.BuyOn+r.SellOn)
		assert.Equal(t, 1.0, r.ChargeOn+r.DischargeOn)
	}
	assert.InDelta(t, res.TotalCost, res.Rows[11].CumCost, 1e-6)
}

func TestRunIsIdempotent(t *testing.T) {
	in := randomInputs(rand.New(rand.NewSource(11)), 3)
	for _, v := range formulation.Variants() {
		a := run(t, in, v)
		b := run(t, in, v)
		assert.NotEqual(t, a.ID, b.ID)
		assert.Equal(t, a.Rows, b.Rows)
		assert.Equal(t, a.TotalCost, b.TotalCost)
	}
}

func TestRunErrors(t *testing.T) {
	in := randomInputs(rand.New(rand.NewSource(3)), 2)
	// the relaxation of this one is fractional at the root
	surplus := single(model.Period{PVProduction: 10, Consumption: 5, BuyPrice: 20, SellPrice: 10, StorageCost: 5}, noStorage())
	expired, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	tests := []struct {
		name string
		ctx  context.Context
		req  Request
		code string
	}{
		{"empty horizon", context.Background(), Request{Inputs: model.Inputs{Site: in.Site}, Variant: formulation.Linear}, solver.CodeInvalidConfig},
		{"unknown variant", context.Background(), Request{Inputs: in, Variant: "C"}, solver.CodeInvalidConfig},
		{"unknown solver", context.Background(), Request{Inputs: in, Variant: formulation.Linear, Solver: "cplex"}, solver.CodeSolverUnavailable},
		{"simplex on binaries", context.Background(), Request{Inputs: in, Variant: formulation.MixedInteger, Solver: solver.SimplexName}, solver.CodeSolverUnavailable},
		{"deadline", expired, Request{Inputs: in, Variant: formulation.Linear}, solver.CodeSolverTimeout},
		{"node budget", context.Background(), Request{Inputs: surplus, Variant: formulation.MixedInteger, MaxNodes: 1}, solver.CodeSolverTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(zerolog.Nop()).Run(tt.ctx, tt.req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.code, solver.Kind(err))
		})
	}
}

func TestCompare(t *testing.T) {
	in := randomInputs(rand.New(rand.NewSource(1)), 2)
	out := New(zerolog.Nop()).Compare(context.Background(), Request{Inputs: in, Solver: solver.SimplexName}, nil)
	require.Len(t, out, 2)
	for i, v := range formulation.Variants() {
		assert.Equal(t, v, out[i].Variant)
		require.NoError(t, out[i].Err)
		assert.Equal(t, DefaultSolver(v), out[i].Result.Solver)
	}
}

func TestVerifyReportsViolations(t *testing.T) {
	in := randomInputs(rand.New(rand.NewSource(2)), 2)
	res := run(t, in, formulation.MixedInteger)
	res.Rows[0].BatteryLevel = 1
	res.Rows[1].SellOn = res.Rows[1].BuyOn

	vs := Verify(res, in)
	checks := map[string]bool{}
	for _, v := range vs {
		checks[v.Check] = true
	}
	assert.True(t, checks["battery_start"])
	assert.True(t, checks["battery_recursion"])
	assert.True(t, checks["transaction_switch"])
	assert.Error(t, vs.Err())
	assert.Nil(t, Violations(nil).Err())
}

func TestWriteSchedule(t *testing.T) {
	in := randomInputs(rand.New(rand.NewSource(4)), 3)
	res := run(t, in, formulation.Linear)

	var buf bytes.Buffer
	require.NoError(t, WriteSchedule(&buf, res.Rows))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, scheduleHeader, records[0])
	assert.Equal(t, "0", records[1][0])
	assert.Len(t, records[3], len(scheduleHeader))
}

func TestCache(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(time.Minute)
	c.now = func() time.Time { return now }

	in := randomInputs(rand.New(rand.NewSource(9)), 2)
	req := Request{Inputs: in, Variant: formulation.Linear}
	key := RequestKey(req)
	assert.Equal(t, key, RequestKey(Request{Inputs: in, Variant: formulation.Linear, Solver: solver.SimplexName}))
	assert.NotEqual(t, key, RequestKey(Request{Inputs: in, Variant: formulation.MixedInteger}))

	res := &Result{ID: "r1"}
	c.Put(key, res)
	got, ok := c.Get("r1")
	require.True(t, ok)
	assert.Same(t, res, got)
	got, ok = c.Lookup(key)
	require.True(t, ok)
	assert.Same(t, res, got)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("r1")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Prune())
	assert.Equal(t, 0, c.Len())
	_, ok = c.Lookup(key)
	assert.False(t, ok)

	var none *Cache
	none.Put(key, res)
	_, ok = none.Get("r1")
	assert.False(t, ok)
}
