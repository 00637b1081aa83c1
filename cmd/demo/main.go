package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog"

	"energy-dispatch/internal/analysis"
	"energy-dispatch/internal/config"
	"energy-dispatch/internal/dispatch"
	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/model"
	"energy-dispatch/internal/report"
)

// Demo:
// - Build a synthetic two-day PV/load/price forecast (hourly)
// - Solve the linear variant over the whole horizon
// - Solve the mixed-integer variant over a shorter window and compare
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional, site section only)")
	n := flag.Int("n", 48, "Number of hourly periods for the linear variant")
	nB := flag.Int("n-mixed", 12, "Number of periods for the mixed-integer variant (branch-and-bound is slow on long horizons)")
	outCSV := flag.String("out", "", "Optional path to write the linear schedule CSV (e.g. results/schedule.csv)")
	flag.Parse()

	site := model.DefaultSiteParams()
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		site = cfg.Site.ToModelParams()
	}

	h := syntheticForecast(*n)
	engine := dispatch.New(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel))
	ctx := context.Background()

	summary := analysis.Summarize(h)
	fmt.Printf("Synthetic forecast: %d periods, PV=%.1f kWh, consumption=%.1f kWh\n",
		summary.Periods, summary.TotalPV, summary.TotalConsumption)
	fmt.Printf("Baseline without battery: %.2f cents\n\n", summary.BaselineCost)

	linear, err := engine.Run(ctx, dispatch.Request{
		Inputs:  model.Inputs{Horizon: h, Site: site},
		Variant: formulation.Linear,
	})
	if err != nil {
		report.PrintError(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Variant A (%s): total cost %.2f cents, savings %.2f cents\n",
		linear.Solver, linear.TotalCost, summary.BaselineCost-linear.TotalCost)
	for i := 0; i < min(12, linear.Len()); i++ {
		r := linear.Rows[i]
		fmt.Printf(
			"t=%2d pv=%6.1f load=%6.1f buy=%6.1f sell=%6.1f  %-11s level=%6.1f  cost=%8.2f  cum=%9.2f\n",
			r.Period, r.PVProduction, r.Consumption, r.Buy, r.Sell, string(r.Action), r.BatteryLevel, r.Cost, r.CumCost,
		)
	}

	short := model.Inputs{Horizon: h.Truncate(*nB), Site: site}
	outcomes := engine.Compare(ctx, dispatch.Request{Inputs: short}, nil)
	shortBaseline := analysis.Summarize(short.Horizon).BaselineCost
	fmt.Printf("\nFirst %d periods, both variants (baseline %.2f cents):\n", short.Horizon.Len(), shortBaseline)
	report.PrintComparison(os.Stdout, analysis.RankByCost(outcomes, shortBaseline))

	for _, o := range outcomes {
		if o.Variant != formulation.MixedInteger || o.Err != nil {
			continue
		}
		if vs := dispatch.Verify(o.Result, short); len(vs) > 0 {
			fmt.Printf("\nmixed-integer schedule has %d violations:\n%s\n", len(vs), vs.Error())
		}
		fmt.Println()
		if err := report.PrintSchedule(os.Stdout, o.Result); err != nil {
			panic(err)
		}
	}

	if *outCSV != "" {
		if err := dispatch.WriteScheduleCSV(*outCSV, linear.Rows); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}
}

// syntheticForecast is a clear-sky PV day, a morning and evening load peak,
// a three-tier tariff and a flat feed-in price.
func syntheticForecast(n int) model.Horizon {
	periods := make([]model.Period, n)
	for t := range periods {
		hour := float64(t % 24)

		pv := 0.0
		if hour >= 6 && hour <= 18 {
			pv = 220 * math.Sin(math.Pi*(hour-6)/12)
		}
		load := 60 + 40*math.Exp(-math.Pow(hour-8, 2)/4) + 90*math.Exp(-math.Pow(hour-19, 2)/6)

		buy := 18.0
		switch {
		case hour >= 17 && hour < 22:
			buy = 34
		case hour < 6:
			buy = 12
		}
		periods[t] = model.Period{
			PVProduction: math.Round(pv*10) / 10,
			Consumption:  math.Round(load*10) / 10,
			BuyPrice:     buy,
			SellPrice:    7,
			StorageCost:  2.5,
		}
	}
	return model.HorizonFromPeriods(periods)
}
