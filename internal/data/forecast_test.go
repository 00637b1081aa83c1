package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-dispatch/internal/model"
)

const siteCSV = `hour,"pv production, kWh","electrical consumption, kWh","electricity buying price c/kWh","electricity selling price, c/kWh","lcos, c/kWh"
1,0,12.5,21.3,7.1,4.2
2,3.5,11,20.9,7,4.2
3,18,9.25,24,6.8,4.2
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadForecastCSV(t *testing.T) {
	path := writeFile(t, "site.csv", siteCSV)

	h, err := LoadForecast(path, 0)
	require.NoError(t, err)
	require.NoError(t, h.Validate())
	assert.Equal(t, []float64{0, 3.5, 18}, h.PVProduction)
	assert.Equal(t, []float64{12.5, 11, 9.25}, h.Consumption)
	assert.Equal(t, []float64{21.3, 20.9, 24}, h.BuyPrice)
	assert.Equal(t, []float64{7.1, 7, 6.8}, h.SellPrice)
	assert.Equal(t, []float64{4.2, 4.2, 4.2}, h.StorageCost)

	h, err = LoadForecastCSV(path, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())
}

func TestReadForecastCSVSnakeCase(t *testing.T) {
	in := "pv_production,electrical_consumption,buy_price,sell_price,storage_cost\n1,2,3,4,5\n"
	h, err := ReadForecastCSV(strings.NewReader(in), 0)
	require.NoError(t, err)
	assert.Equal(t, model.Period{PVProduction: 1, Consumption: 2, BuyPrice: 3, SellPrice: 4, StorageCost: 5}, h.Period(0))
}

func TestReadForecastCSVMissingColumn(t *testing.T) {
	in := "pv_production,electrical_consumption,buy_price,sell_price\n1,2,3,4\n"
	_, err := ReadForecastCSV(strings.NewReader(in), 0)
	var cfg *model.ConfigurationError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "storage_cost", cfg.Field)
}

func TestLoadForecastJSON(t *testing.T) {
	path := writeFile(t, "site.json", `{"periods":[
		{"pv_production":10,"electrical_consumption":5,"buy_price":20,"sell_price":10,"storage_cost":5},
		{"pv_production":0,"electrical_consumption":10,"buy_price":20,"sell_price":10,"storage_cost":5}
	]}`)
	h, err := LoadForecast(path, 1)
	require.NoError(t, err)
	require.Equal(t, 1, h.Len())
	assert.Equal(t, 10.0, h.PVProduction[0])

	_, err = LoadForecastJSON(writeFile(t, "bad.json", "{"), 0)
	assert.Error(t, err)

	_, err = LoadForecast(writeFile(t, "site.txt", ""), 0)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	h, err := ReadForecastCSV(strings.NewReader(siteCSV), 0)
	require.NoError(t, err)

	frame := Frame(h)
	assert.Equal(t, 3, frame.Nrow())
	assert.Equal(t, []string{"pv_production", "electrical_consumption", "buy_price", "sell_price", "storage_cost"}, frame.Names())

	desc := Describe(h)
	require.NoError(t, desc.Err)
	assert.Equal(t, 6, desc.Ncol())
	assert.Greater(t, desc.Nrow(), 0)
}
