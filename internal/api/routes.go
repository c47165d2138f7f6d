package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	// The prediction endpoint also sits at the root for existing consumers.
	router.GET("/predictions", handler.GetPredictions)
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/predictions", handler.GetPredictions)
		api.GET("/health", handler.HealthCheck)
		api.GET("/metrics", handler.GetAllInvestmentMetrics)
		api.GET("/metrics/:postcode", handler.GetInvestmentMetric)
		api.GET("/recent-sales", handler.GetRecentSales)
		api.GET("/stations", handler.GetStations)
		api.POST("/refresh", handler.TriggerRefresh)
	}

	SetupAreaRoutes(router, handler)
}
