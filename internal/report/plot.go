package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"energy-dispatch/internal/dispatch"
)

// PlotSchedule renders the forecast, the effective flows and the battery
// level per hour. The image format follows the file extension (png, svg, pdf).
func PlotSchedule(path string, res *dispatch.Result) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Dispatch %s (variant %s), total cost %.2f c", res.ID, res.Variant, res.TotalCost)
	p.X.Label.Text = "Hour"
	p.Y.Label.Text = "kWh"
	p.Add(plotter.NewGrid())

	series := []struct {
		name string
		val  func(dispatch.ScheduleRow) float64
	}{
		{"PV production", func(r dispatch.ScheduleRow) float64 { return r.PVProduction }},
		{"Consumption", func(r dispatch.ScheduleRow) float64 { return r.Consumption }},
		{"Buy", func(r dispatch.ScheduleRow) float64 { return r.EffectiveBuy }},
		{"Sell", func(r dispatch.ScheduleRow) float64 { return r.EffectiveSell }},
		{"Charge", func(r dispatch.ScheduleRow) float64 { return r.EffectiveCharge }},
		{"Discharge", func(r dispatch.ScheduleRow) float64 { return r.EffectiveDischarge }},
		{"Battery level", func(r dispatch.ScheduleRow) float64 { return r.BatteryLevel }},
	}
	for i, s := range series {
		pts := make(plotter.XYs, len(res.Rows))
		for j, r := range res.Rows {
			pts[j].X = float64(r.Period + 1)
			pts[j].Y = s.val(r)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("plot %s: %w", s.name, err)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true

	return p.Save(12*vg.Inch, 6*vg.Inch, path)
}
