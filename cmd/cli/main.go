package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"energy-dispatch/internal/analysis"
	"energy-dispatch/internal/config"
	"energy-dispatch/internal/data"
	"energy-dispatch/internal/dispatch"
	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/model"
	"energy-dispatch/internal/report"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "solve":
		cmdSolve(os.Args[2:])
	case "compare":
		cmdCompare(os.Args[2:])
	case "describe":
		cmdDescribe(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli solve --config examples/config.yaml [--variant B] [--out results/schedule.csv] [--plot results/schedule.png]")
	fmt.Println("  cli compare --config examples/config.yaml")
	fmt.Println("  cli describe --data examples/data/forecast.csv")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - variant A is the linear model (simplex), variant B adds binary switches (branch-and-bound)")
	fmt.Println("  - --data overrides data.path from the config; CSV or JSON forecasts are accepted")
}

// runFlags are shared by solve and compare.
type runFlags struct {
	cfgPath  *string
	dataPath *string
	variant  *string
	solver   *string
	timeout  *time.Duration
	maxNodes *int
	periods  *int
	verbose  *bool
}

func addRunFlags(fs *flag.FlagSet) runFlags {
	return runFlags{
		cfgPath:  fs.String("config", "", "Path to YAML config (optional)"),
		dataPath: fs.String("data", "", "Forecast CSV/JSON (overrides data.path)"),
		variant:  fs.String("variant", "", "Model variant: A or B (overrides dispatch.variant)"),
		solver:   fs.String("solver", "", "Solver backend (default depends on variant)"),
		timeout:  fs.Duration("timeout", 0, "Solve time limit, e.g. 30s (0 = config value or none)"),
		maxNodes: fs.Int("max-nodes", 0, "Branch-and-bound node budget (0 = config value or default)"),
		periods:  fs.Int("periods", 0, "Optional: limit to first N periods (0 = config value or all)"),
		verbose:  fs.Bool("v", false, "Debug logging"),
	}
}

// load resolves the configuration, applies flag overrides and reads the forecast.
func (f runFlags) load() (*config.Config, model.Horizon, error) {
	cfg := &config.Config{Dispatch: config.DispatchConfig{Variant: string(formulation.Linear)}}
	if *f.cfgPath != "" {
		loaded, err := config.Load(*f.cfgPath)
		if err != nil {
			return nil, model.Horizon{}, err
		}
		cfg = loaded
	}
	if *f.variant != "" {
		cfg.Dispatch.Variant = *f.variant
	}
	if *f.solver != "" {
		cfg.Dispatch.Solver = *f.solver
	}
	if *f.timeout != 0 {
		cfg.Dispatch.Timeout = *f.timeout
	}
	if *f.maxNodes != 0 {
		cfg.Dispatch.MaxNodes = *f.maxNodes
	}
	if *f.periods != 0 {
		cfg.Data.Periods = *f.periods
	}
	if *f.dataPath != "" {
		cfg.Data.Path = *f.dataPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, model.Horizon{}, err
	}
	if cfg.Data.Path == "" {
		return nil, model.Horizon{}, &model.ConfigurationError{Field: "data.path", Reason: "is required (--data or config)"}
	}
	h, err := data.LoadForecast(cfg.Data.Path, cfg.Data.Periods)
	if err != nil {
		return nil, model.Horizon{}, err
	}
	return cfg, h, nil
}

func (f runFlags) logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if *f.verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func cmdSolve(args []string) {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	rf := addRunFlags(fs)
	outPath := fs.String("out", "", "Optional path to write schedule CSV")
	plotPath := fs.String("plot", "", "Optional path to write schedule PNG")
	verify := fs.Bool("verify", false, "Check the solved schedule against the model constraints")
	_ = fs.Parse(args)

	cfg, h, err := rf.load()
	if err != nil {
		report.PrintError(os.Stderr, err)
		os.Exit(2)
	}
	req := cfg.Request(h)

	engine := dispatch.New(rf.logger())
	res, err := engine.Run(context.Background(), req)
	if err != nil {
		report.PrintError(os.Stderr, err)
		os.Exit(1)
	}
	if err := report.PrintSchedule(os.Stdout, res); err != nil {
		panic(err)
	}

	if *verify {
		if vs := dispatch.Verify(res, req.Inputs); len(vs) > 0 {
			fmt.Fprintln(os.Stderr, vs.Error())
			os.Exit(1)
		}
		fmt.Println("Verification passed.")
	}
	if *outPath != "" {
		if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
			panic(err)
		}
		if err := dispatch.WriteScheduleCSV(*outPath, res.Rows); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", res.Len(), *outPath)
	}
	if *plotPath != "" {
		if err := os.MkdirAll(filepath.Dir(*plotPath), 0o755); err != nil {
			panic(err)
		}
		if err := report.PlotSchedule(*plotPath, res); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote plot to %s\n", *plotPath)
	}
}

func cmdCompare(args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	rf := addRunFlags(fs)
	_ = fs.Parse(args)

	cfg, h, err := rf.load()
	if err != nil {
		report.PrintError(os.Stderr, err)
		os.Exit(2)
	}

	engine := dispatch.New(rf.logger())
	outcomes := engine.Compare(context.Background(), cfg.Request(h), nil)

	summary := analysis.Summarize(h)
	fmt.Printf("Periods=%d  Baseline (no battery) cost=%.2f cents\n\n", summary.Periods, summary.BaselineCost)
	report.PrintComparison(os.Stdout, analysis.RankByCost(outcomes, summary.BaselineCost))
}

func cmdDescribe(args []string) {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	dataPath := fs.String("data", "", "Forecast CSV/JSON")
	periods := fs.Int("periods", 0, "Optional: limit to first N periods (0=all)")
	_ = fs.Parse(args)

	if *dataPath == "" {
		fmt.Println("--data is required")
		os.Exit(2)
	}
	h, err := data.LoadForecast(*dataPath, *periods)
	if err != nil {
		report.PrintError(os.Stderr, err)
		os.Exit(2)
	}
	if err := h.Validate(); err != nil {
		report.PrintError(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Println(data.Describe(h))

	s := analysis.Summarize(h)
	fmt.Printf("periods=%d  pv=%.2f kWh  consumption=%.2f kWh\n", s.Periods, s.TotalPV, s.TotalConsumption)
	fmt.Printf("surplus=%.2f kWh in %d periods  deficit=%.2f kWh in %d periods\n",
		s.SurplusEnergy, s.SurplusPeriods, s.DeficitEnergy, s.DeficitPeriods)
	fmt.Printf("buy price p05/p95=%.2f/%.2f  sell price p05/p95=%.2f/%.2f  max spread=%.2f\n",
		s.BuyPrice.P05, s.BuyPrice.P95, s.SellPrice.P05, s.SellPrice.P95, s.MaxSpread)
	fmt.Printf("baseline cost (no battery)=%.2f cents\n", s.BaselineCost)
}
