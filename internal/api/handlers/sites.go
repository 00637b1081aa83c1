package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"energy-dispatch/internal/api/models"
	"energy-dispatch/internal/config"
)

// SiteHandler handles site preset requests
type SiteHandler struct {
	siteDir string
	log     zerolog.Logger
}

// NewSiteHandler creates a new site handler
func NewSiteHandler(siteDir string, log zerolog.Logger) *SiteHandler {
	return &SiteHandler{
		siteDir: siteDir,
		log:     log.With().Str("component", "site_handler").Logger(),
	}
}

// ListSites handles GET /api/v1/sites
func (h *SiteHandler) ListSites(c *gin.Context) {
	sites := []models.SiteInfo{}

	entries, skipped, err := config.ListSites(h.siteDir)
	if err != nil {
		if !os.IsNotExist(err) {
			h.log.Warn().Err(err).Str("dir", h.siteDir).Msg("failed to read site directory")
		}
		c.JSON(http.StatusOK, gin.H{"sites": sites})
		return
	}
	for name, err := range skipped {
		h.log.Warn().Err(err).Str("file", name).Msg("skipping invalid site file")
	}

	for _, e := range entries {
		sites = append(sites, models.SiteInfo{
			ID:    e.ID,
			Name:  e.Site.Name,
			File:  e.File,
			Specs: e.Site.ToModelParams(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites})
}
