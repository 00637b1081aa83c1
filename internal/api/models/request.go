package models

import (
	"energy-dispatch/internal/config"
	"energy-dispatch/internal/model"
)

// DispatchRequest represents the request body for solving a dispatch
type DispatchRequest struct {
	// Periods is validated by the model, not by binding, so an empty or
	// malformed horizon is reported as INVALID_CONFIG.
	Periods []model.Period `json:"periods"`

	// SiteFile names a preset from GET /api/v1/sites; Site overrides it field by field.
	SiteFile string            `json:"site_file,omitempty"`
	Site     config.SiteConfig `json:"site,omitempty"`

	Variant        string  `json:"variant,omitempty"` // "A" (default) or "B"
	Solver         string  `json:"solver,omitempty"`  // default depends on variant
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty"`
	MaxNodes       int     `json:"max_nodes,omitempty"`

	Options DispatchOptions `json:"options,omitempty"`
}

// DispatchOptions contains optional output parameters
type DispatchOptions struct {
	LimitPeriods    int  `json:"limit_periods,omitempty"`    // 0 = all
	IncludeSchedule bool `json:"include_schedule,omitempty"` // default: false
}

// CompareRequest solves the same inputs under several variants
type CompareRequest struct {
	DispatchRequest
	Variants []string `json:"variants,omitempty"` // default: all
}

// ForecastSummaryRequest represents the body of POST /api/v1/forecast/summary
type ForecastSummaryRequest struct {
	Periods []model.Period `json:"periods"`
}
