package dispatch

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

var scheduleHeader = []string{
	"period",
	"pv_production",
	"electrical_consumption",
	"gap",
	"buy_price",
	"sell_price",
	"storage_cost",
	"buy_from_grid",
	"sell_to_grid",
	"charge_battery",
	"discharge_battery",
	"buy_on",
	"sell_on",
	"charge_on",
	"discharge_on",
	"effective_buy",
	"effective_sell",
	"effective_charge",
	"effective_discharge",
	"battery_level",
	"action",
	"grid_action",
	"cost",
	"cum_cost",
}

func WriteScheduleCSV(path string, rows []ScheduleRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteSchedule(f, rows)
}

// WriteSchedule writes rows as CSV with a header line.
func WriteSchedule(out io.Writer, rows []ScheduleRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(scheduleHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Period),
			fmtFloat(r.PVProduction),
			fmtFloat(r.Consumption),
			fmtFloat(r.Gap),
			fmtFloat(r.BuyPrice),
			fmtFloat(r.SellPrice),
			fmtFloat(r.StorageCost),
			fmtFloat(r.Buy),
			fmtFloat(r.Sell),
			fmtFloat(r.Charge),
			fmtFloat(r.Discharge),
			fmtFloat(r.BuyOn),
			fmtFloat(r.SellOn),
			fmtFloat(r.ChargeOn),
			fmtFloat(r.DischargeOn),
			fmtFloat(r.EffectiveBuy),
			fmtFloat(r.EffectiveSell),
			fmtFloat(r.EffectiveCharge),
			fmtFloat(r.EffectiveDischarge),
			fmtFloat(r.BatteryLevel),
			string(r.Action),
			string(r.GridAction),
			fmtFloat(r.Cost),
			fmtFloat(r.CumCost),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
