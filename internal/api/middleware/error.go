package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"energy-dispatch/internal/solver"
)

// ErrorHandler middleware handles panics
func ErrorHandler(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Msg("recovered from panic")
		if msg, ok := recovered.(string); ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    solver.CodeInternal,
					"message": msg,
				},
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    solver.CodeInternal,
					"message": "An unexpected error occurred",
				},
			})
		}
		c.Abort()
	})
}

// StatusFor maps an error code from solver.Kind to an HTTP status.
func StatusFor(code string) int {
	switch code {
	case solver.CodeInvalidConfig:
		return http.StatusBadRequest
	case solver.CodeInfeasible, solver.CodeUnbounded:
		return http.StatusUnprocessableEntity
	case solver.CodeSolverUnavailable:
		return http.StatusNotImplemented
	case solver.CodeSolverTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
