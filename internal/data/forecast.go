// Package data loads forecast horizons from CSV and JSON files.
package data

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"energy-dispatch/internal/model"
)

// forecastColumns maps each horizon column to the CSV headers accepted for it.
// The first name is the one used by the site dataset exports.
var forecastColumns = []struct {
	field string
	names []string
}{
	{"pv_production", []string{"pv production, kWh", "pv_production"}},
	{"electrical_consumption", []string{"electrical consumption, kWh", "electrical_consumption"}},
	{"buy_price", []string{"electricity buying price c/kWh", "electricity buying price, c/kWh", "buy_price"}},
	{"sell_price", []string{"electricity selling price, c/kWh", "electricity selling price c/kWh", "sell_price"}},
	{"storage_cost", []string{"lcos, c/kWh", "lcos", "storage_cost"}},
}

// LoadForecast reads a .csv or .json forecast. limit > 0 keeps only the first
// limit periods.
func LoadForecast(path string, limit int) (model.Horizon, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadForecastCSV(path, limit)
	case ".json":
		return LoadForecastJSON(path, limit)
	}
	return model.Horizon{}, fmt.Errorf("unsupported forecast file %q: want .csv or .json", path)
}

func LoadForecastCSV(path string, limit int) (model.Horizon, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Horizon{}, err
	}
	defer f.Close()
	h, err := ReadForecastCSV(f, limit)
	if err != nil {
		return model.Horizon{}, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// ReadForecastCSV parses a forecast table. Extra columns are ignored; cells
// that are not numbers become NaN and fail validation later.
func ReadForecastCSV(r io.Reader, limit int) (model.Horizon, error) {
	df := dataframe.ReadCSV(r, dataframe.HasHeader(true))
	if df.Err != nil {
		return model.Horizon{}, df.Err
	}
	headers := map[string]string{}
	for _, name := range df.Names() {
		headers[normalizeHeader(name)] = name
	}

	cols := make([][]float64, len(forecastColumns))
	for i, c := range forecastColumns {
		name, ok := "", false
		for _, candidate := range c.names {
			if name, ok = headers[normalizeHeader(candidate)]; ok {
				break
			}
		}
		if !ok {
			return model.Horizon{}, &model.ConfigurationError{Field: c.field, Reason: "column is missing from the forecast"}
		}
		cols[i] = df.Col(name).Float()
	}
	h := model.Horizon{
		PVProduction: cols[0],
		Consumption:  cols[1],
		BuyPrice:     cols[2],
		SellPrice:    cols[3],
		StorageCost:  cols[4],
	}
	return h.Truncate(limit), nil
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ForecastFile is the JSON shape of a forecast.
type ForecastFile struct {
	Periods []model.Period `json:"periods"`
}

func LoadForecastJSON(path string, limit int) (model.Horizon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Horizon{}, err
	}
	var ff ForecastFile
	if err := json.Unmarshal(raw, &ff); err != nil {
		return model.Horizon{}, fmt.Errorf("failed to parse forecast %s: %w", path, err)
	}
	return model.HorizonFromPeriods(ff.Periods).Truncate(limit), nil
}

// Frame is the horizon as a dataframe with one column per forecast field.
func Frame(h model.Horizon) dataframe.DataFrame {
	return dataframe.New(
		series.New(h.PVProduction, series.Float, "pv_production"),
		series.New(h.Consumption, series.Float, "electrical_consumption"),
		series.New(h.BuyPrice, series.Float, "buy_price"),
		series.New(h.SellPrice, series.Float, "sell_price"),
		series.New(h.StorageCost, series.Float, "storage_cost"),
	)
}

// Describe returns summary statistics (mean, median, stddev, min, quartiles,
// max) for every forecast column.
func Describe(h model.Horizon) dataframe.DataFrame {
	return Frame(h).Describe()
}
