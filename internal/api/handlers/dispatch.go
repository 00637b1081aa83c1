package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"energy-dispatch/internal/analysis"
	"energy-dispatch/internal/api/models"
	"energy-dispatch/internal/config"
	"energy-dispatch/internal/dispatch"
	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/model"
)

// DispatchHandler handles dispatch-related requests
type DispatchHandler struct {
	engine  *dispatch.Engine
	cache   *dispatch.Cache
	siteDir string
	// timeout applies when a request does not set timeout_seconds.
	timeout time.Duration
	log     zerolog.Logger
}

// NewDispatchHandler creates a new dispatch handler
func NewDispatchHandler(engine *dispatch.Engine, cache *dispatch.Cache, siteDir string, timeout time.Duration, log zerolog.Logger) *DispatchHandler {
	return &DispatchHandler{
		engine:  engine,
		cache:   cache,
		siteDir: siteDir,
		timeout: timeout,
		log:     log.With().Str("component", "dispatch_handler").Logger(),
	}
}

// RunDispatch handles POST /api/v1/dispatch
func (h *DispatchHandler) RunDispatch(c *gin.Context) {
	var req models.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	dreq, err := h.buildRequest(req)
	if err != nil {
		respondError(c, err)
		return
	}

	key := dispatch.RequestKey(dreq)
	res, cached := h.cache.Lookup(key)
	if !cached {
		res, err = h.engine.Run(c.Request.Context(), dreq)
		if err != nil {
			respondError(c, err)
			return
		}
		h.cache.Put(key, res)
	} else {
		h.log.Debug().Str("id", res.ID).Msg("serving cached dispatch")
	}

	resp := models.DispatchResponse{
		ID:      res.ID,
		Status:  "completed",
		Cached:  cached,
		Summary: toSummary(res),
	}
	if req.Options.IncludeSchedule {
		resp.Schedule = toScheduleRows(res.Rows)
	}
	c.JSON(http.StatusOK, resp)
}

// GetSchedule handles GET /api/v1/dispatch/:id/schedule
func (h *DispatchHandler) GetSchedule(c *gin.Context) {
	id := c.Param("id")
	res, ok := h.cache.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: fmt.Sprintf("dispatch %s not found or expired", id),
			},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       res.ID,
		"summary":  toSummary(res),
		"schedule": toScheduleRows(res.Rows),
	})
}

// CompareVariants handles POST /api/v1/dispatch/compare
func (h *DispatchHandler) CompareVariants(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	variants := make([]formulation.Variant, 0, len(req.Variants))
	for _, s := range req.Variants {
		v, err := formulation.ParseVariant(s)
		if err != nil {
			respondError(c, err)
			return
		}
		variants = append(variants, v)
	}

	base, err := h.buildRequest(req.DispatchRequest)
	if err != nil {
		respondError(c, err)
		return
	}

	outcomes := h.engine.Compare(c.Request.Context(), base, variants)
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		key := base
		key.Variant = o.Variant
		key.Solver = ""
		h.cache.Put(dispatch.RequestKey(key), o.Result)
	}

	baseline := analysis.Summarize(base.Inputs.Horizon).BaselineCost
	ranked := analysis.RankByCost(outcomes, baseline)

	results := make([]models.ComparisonResult, 0, len(ranked))
	for _, r := range ranked {
		cr := models.ComparisonResult{
			Rank:        r.Rank,
			Variant:     string(r.Variant),
			VariantName: r.Variant.Name(),
			Solver:      r.Solver,
			ID:          r.ID,
			TotalCost:   r.TotalCost,
			Savings:     r.Savings,
			Nodes:       r.Nodes,
		}
		if r.Code != "" {
			cr.Error = &models.ErrorDetail{Code: r.Code, Message: r.Error}
		}
		results = append(results, cr)
	}

	c.JSON(http.StatusOK, models.CompareResponse{
		BaselineCost: baseline,
		Comparison:   results,
	})
}

func (h *DispatchHandler) buildRequest(req models.DispatchRequest) (dispatch.Request, error) {
	site := req.Site
	if req.SiteFile != "" {
		base, err := config.LoadSiteFile(h.sitePath(req.SiteFile))
		if err != nil {
			return dispatch.Request{}, &model.ConfigurationError{
				Field:  "site_file",
				Reason: fmt.Sprintf("unknown site preset %q", req.SiteFile),
			}
		}
		site = config.MergeSite(base, req.Site)
	}

	variant := formulation.Linear
	if req.Variant != "" {
		v, err := formulation.ParseVariant(req.Variant)
		if err != nil {
			return dispatch.Request{}, err
		}
		variant = v
	}

	switch {
	case req.TimeoutSeconds < 0:
		return dispatch.Request{}, &model.ConfigurationError{Field: "timeout_seconds", Reason: "must be >= 0"}
	case req.MaxNodes < 0:
		return dispatch.Request{}, &model.ConfigurationError{Field: "max_nodes", Reason: "must be >= 0"}
	case req.Options.LimitPeriods < 0:
		return dispatch.Request{}, &model.ConfigurationError{Field: "limit_periods", Reason: "must be >= 0"}
	}

	in := model.Inputs{
		Horizon: model.HorizonFromPeriods(req.Periods).Truncate(req.Options.LimitPeriods),
		Site:    site.ToModelParams(),
	}
	if err := in.Validate(); err != nil {
		return dispatch.Request{}, err
	}

	timeout := h.timeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds * float64(time.Second))
	}
	return dispatch.Request{
		Inputs:   in,
		Variant:  variant,
		Solver:   req.Solver,
		Timeout:  timeout,
		MaxNodes: req.MaxNodes,
	}, nil
}

// sitePath confines preset lookups to the site directory.
func (h *DispatchHandler) sitePath(id string) string {
	id = strings.TrimSuffix(filepath.Base(id), ".yaml")
	return filepath.Join(h.siteDir, id+".yaml")
}

func toSummary(res *dispatch.Result) models.DispatchSummary {
	s := models.DispatchSummary{
		Variant:     string(res.Variant),
		VariantName: res.Variant.Name(),
		Solver:      res.Solver,
		TotalCost:   res.TotalCost,
		Periods:     res.Len(),
		Nodes:       res.Nodes,
		ElapsedMS:   float64(res.Elapsed.Microseconds()) / 1000,
		Model: models.ModelStats{
			Variables:    res.Stats.Variables,
			Binaries:     res.Stats.Binaries,
			Constraints:  res.Stats.Constraints,
			Placeholders: res.Stats.Placeholders,
			Products:     res.Stats.Products,
		},
	}
	for _, r := range res.Rows {
		s.EnergyBought += r.EffectiveBuy
		s.EnergySold += r.EffectiveSell
		s.EnergyCharged += r.EffectiveCharge
		s.EnergyDischarged += r.EffectiveDischarge
	}
	if n := res.Len(); n > 0 {
		s.FinalBatteryLevel = res.Rows[n-1].BatteryLevel
	}
	return s
}

func toScheduleRows(rows []dispatch.ScheduleRow) []models.ScheduleRow {
	out := make([]models.ScheduleRow, len(rows))
	for i, r := range rows {
		out[i] = models.ScheduleRow{
			Period:             r.Period,
			PVProduction:       r.PVProduction,
			Consumption:        r.Consumption,
			Gap:                r.Gap,
			BuyPrice:           r.BuyPrice,
			SellPrice:          r.SellPrice,
			StorageCost:        r.StorageCost,
			Buy:                r.Buy,
			Sell:               r.Sell,
			Charge:             r.Charge,
			Discharge:          r.Discharge,
			BuyOn:              r.BuyOn,
			SellOn:             r.SellOn,
			ChargeOn:           r.ChargeOn,
			DischargeOn:        r.DischargeOn,
			EffectiveBuy:       r.EffectiveBuy,
			EffectiveSell:      r.EffectiveSell,
			EffectiveCharge:    r.EffectiveCharge,
			EffectiveDischarge: r.EffectiveDischarge,
			BatteryLevel:       r.BatteryLevel,
			Action:             string(r.Action),
			GridAction:         string(r.GridAction),
			Cost:               r.Cost,
			CumCost:            r.CumCost,
		}
	}
	return out
}
