package models

import (
	"energy-dispatch/internal/analysis"
	"energy-dispatch/internal/model"
)

// DispatchResponse represents the response from a dispatch run
type DispatchResponse struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Cached   bool            `json:"cached"`
	Summary  DispatchSummary `json:"summary"`
	Schedule []ScheduleRow   `json:"schedule,omitempty"`
}

// DispatchSummary contains aggregated dispatch results. Energy totals use
// the effective (gated) flows.
type DispatchSummary struct {
	Variant           string     `json:"variant"`
	VariantName       string     `json:"variant_name"`
	Solver            string     `json:"solver"`
	TotalCost         float64    `json:"total_cost"`
	Periods           int        `json:"periods"`
	Nodes             int        `json:"nodes"`
	ElapsedMS         float64    `json:"elapsed_ms"`
	EnergyBought      float64    `json:"energy_bought_kwh"`
	EnergySold        float64    `json:"energy_sold_kwh"`
	EnergyCharged     float64    `json:"energy_charged_kwh"`
	EnergyDischarged  float64    `json:"energy_discharged_kwh"`
	FinalBatteryLevel float64    `json:"final_battery_level_kwh"`
	Model             ModelStats `json:"model"`
}

type ModelStats struct {
	Variables    int `json:"variables"`
	Binaries     int `json:"binaries"`
	Constraints  int `json:"constraints"`
	Placeholders int `json:"placeholders"`
	Products     int `json:"products"`
}

// ScheduleRow represents one period of a solved schedule
type ScheduleRow struct {
	Period             int     `json:"period"`
	PVProduction       float64 `json:"pv_production"`
	Consumption        float64 `json:"electrical_consumption"`
	Gap                float64 `json:"gap"`
	BuyPrice           float64 `json:"buy_price"`
	SellPrice          float64 `json:"sell_price"`
	StorageCost        float64 `json:"storage_cost"`
	Buy                float64 `json:"buy_from_grid"`
	Sell               float64 `json:"sell_to_grid"`
	Charge             float64 `json:"charge_battery"`
	Discharge          float64 `json:"discharge_battery"`
	BuyOn              float64 `json:"buy_on"`
	SellOn             float64 `json:"sell_on"`
	ChargeOn           float64 `json:"charge_on"`
	DischargeOn        float64 `json:"discharge_on"`
	EffectiveBuy       float64 `json:"effective_buy"`
	EffectiveSell      float64 `json:"effective_sell"`
	EffectiveCharge    float64 `json:"effective_charge"`
	EffectiveDischarge float64 `json:"effective_discharge"`
	BatteryLevel       float64 `json:"battery_level"`
	Action             string  `json:"action"`      // "CHARGING", "DISCHARGING", "IDLE"
	GridAction         string  `json:"grid_action"` // "BUYING", "SELLING", "IDLE"
	Cost               float64 `json:"cost"`
	CumCost            float64 `json:"cum_cost"`
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	BaselineCost float64            `json:"baseline_cost"`
	Comparison   []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variant
type ComparisonResult struct {
	Rank        int          `json:"rank,omitempty"`
	Variant     string       `json:"variant"`
	VariantName string       `json:"variant_name"`
	Solver      string       `json:"solver"`
	ID          string       `json:"id,omitempty"`
	TotalCost   float64      `json:"total_cost"`
	Savings     float64      `json:"savings"`
	Nodes       int          `json:"nodes"`
	Error       *ErrorDetail `json:"error,omitempty"`
}

// ForecastSummaryResponse wraps the solver-free forecast statistics
type ForecastSummaryResponse struct {
	Summary analysis.ForecastSummary `json:"summary"`
}

// VariantInfo describes a formulation
type VariantInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	DefaultSolver string `json:"default_solver"`
}

// SolverInfo describes a solver backend
type SolverInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Variants    []string `json:"variants"`
}

// SiteInfo represents information about a site preset
type SiteInfo struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	File  string           `json:"file"`
	Specs model.SiteParams `json:"specs"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
