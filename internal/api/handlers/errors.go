package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"energy-dispatch/internal/api/middleware"
	"energy-dispatch/internal/api/models"
	"energy-dispatch/internal/model"
	"energy-dispatch/internal/solver"
)

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		},
	})
}

// respondError writes a typed dispatch failure with its own code and status.
func respondError(c *gin.Context, err error) {
	detail := errorDetail(err)
	c.JSON(middleware.StatusFor(detail.Code), models.ErrorResponse{Error: detail})
}

func errorDetail(err error) models.ErrorDetail {
	d := models.ErrorDetail{Code: solver.Kind(err), Message: err.Error()}

	var cfg *model.ConfigurationError
	var inf *solver.InfeasibleModelError
	var unavail *solver.SolverUnavailableError
	var timeout *solver.SolverTimeoutError
	switch {
	case errors.As(err, &cfg):
		d.Details = map[string]interface{}{"field": cfg.Field}
	case errors.As(err, &inf):
		d.Details = map[string]interface{}{"model": inf.Model}
	case errors.As(err, &unavail):
		d.Details = map[string]interface{}{"solver": unavail.Solver, "available": solver.Names()}
	case errors.As(err, &timeout):
		d.Details = map[string]interface{}{
			"solver":     timeout.Solver,
			"elapsed_ms": float64(timeout.Elapsed.Microseconds()) / 1000,
		}
	}
	return d
}
