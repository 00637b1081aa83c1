package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"energy-dispatch/internal/analysis"
	"energy-dispatch/internal/api/models"
	"energy-dispatch/internal/model"
)

// SummarizeForecast handles POST /api/v1/forecast/summary. No model is built.
func SummarizeForecast(c *gin.Context) {
	var req models.ForecastSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h := model.HorizonFromPeriods(req.Periods)
	if err := h.Validate(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ForecastSummaryResponse{Summary: analysis.Summarize(h)})
}
