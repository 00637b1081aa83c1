package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"energy-dispatch/internal/api/models"
	"energy-dispatch/internal/dispatch"
	"energy-dispatch/internal/formulation"
	"energy-dispatch/internal/solver"
)

var solverDescriptions = map[string]struct {
	description string
	variants    []formulation.Variant
}{
	solver.SimplexName: {
		description: "Dense simplex for continuous linear programs.",
		variants:    []formulation.Variant{formulation.Linear},
	},
	solver.BranchAndBoundName: {
		description: "Depth-first branch-and-bound over simplex relaxations; binary products are linearized exactly.",
		variants:    []formulation.Variant{formulation.Linear, formulation.MixedInteger},
	},
}

// CatalogHandler lists the formulations and solver backends
type CatalogHandler struct{}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// ListVariants handles GET /api/v1/variants
func (h *CatalogHandler) ListVariants(c *gin.Context) {
	variants := []models.VariantInfo{}
	for _, v := range formulation.Variants() {
		variants = append(variants, models.VariantInfo{
			ID:            string(v),
			Name:          v.Name(),
			Description:   v.Description(),
			DefaultSolver: dispatch.DefaultSolver(v),
		})
	}
	c.JSON(http.StatusOK, gin.H{"variants": variants})
}

// ListSolvers handles GET /api/v1/solvers
func (h *CatalogHandler) ListSolvers(c *gin.Context) {
	solvers := []models.SolverInfo{}
	for _, name := range solver.Names() {
		info := models.SolverInfo{Name: name, Variants: []string{}}
		if d, ok := solverDescriptions[name]; ok {
			info.Description = d.description
			for _, v := range d.variants {
				info.Variants = append(info.Variants, string(v))
			}
		}
		solvers = append(solvers, info)
	}
	c.JSON(http.StatusOK, gin.H{"solvers": solvers})
}
