// Package api wires the HTTP handlers into a gin router.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"energy-dispatch/internal/api/handlers"
	"energy-dispatch/internal/api/middleware"
	"energy-dispatch/internal/dispatch"
)

type Deps struct {
	Engine  *dispatch.Engine
	Cache   *dispatch.Cache
	SiteDir string
	// Timeout is the default solve limit per request (0 = none).
	Timeout     time.Duration
	CORSOrigins []string
	Log         zerolog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.CORS(d.CORSOrigins))
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.ErrorHandler(d.Log))

	dispatchHandler := handlers.NewDispatchHandler(d.Engine, d.Cache, d.SiteDir, d.Timeout, d.Log)
	siteHandler := handlers.NewSiteHandler(d.SiteDir, d.Log)
	catalogHandler := handlers.NewCatalogHandler()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "cached_results": d.Cache.Len()})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/dispatch", dispatchHandler.RunDispatch)
		v1.GET("/dispatch/:id/schedule", dispatchHandler.GetSchedule)
		v1.POST("/dispatch/compare", dispatchHandler.CompareVariants)

		v1.POST("/forecast/summary", handlers.SummarizeForecast)

		v1.GET("/variants", catalogHandler.ListVariants)
		v1.GET("/solvers", catalogHandler.ListSolvers)
		v1.GET("/sites", siteHandler.ListSites)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
