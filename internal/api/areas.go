package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mariusnicorescu85/uk-property-investment/config"
)

// SetupAreaRoutes adds the baseline area routes to the router
func SetupAreaRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/api/areas", handler.GetAreas)
	router.GET("/api/areas/:code", handler.GetAreaDetail)
}

// GetAreas returns the full baseline table with its asset version
func (h *Handler) GetAreas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": h.areas.Version(),
		"count":   h.areas.Len(),
		"areas":   h.areas.All(),
	})
}

// GetAreaDetail returns one baseline row enriched with stored sale stats
func (h *Handler) GetAreaDetail(c *gin.Context) {
	code := c.Param("code")

	profile, ok := h.areas.Get(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Area code not found"})
		return
	}

	detail := gin.H{"profile": profile}

	// The catch-all row spans every unlisted postcode, so a stored-sales
	// aggregate for it would be meaningless.
	if profile.AreaCode != config.DefaultAreaCode {
		stats, err := h.db.GetAreaSaleStats(profile.AreaCode)
		if err != nil {
			h.logger.WithError(err).Error("Failed to get area sale stats")
		} else {
			detail["storedSales"] = stats
		}
	}

	c.JSON(http.StatusOK, detail)
}
