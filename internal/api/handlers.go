package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mariusnicorescu85/uk-property-investment/config"
	"github.com/mariusnicorescu85/uk-property-investment/internal/database"
	"github.com/mariusnicorescu85/uk-property-investment/internal/geometry"
	"github.com/mariusnicorescu85/uk-property-investment/internal/realtime"
	"github.com/mariusnicorescu85/uk-property-investment/internal/refresh"
)

type Handler struct {
	db        *database.Database
	logger    *logrus.Logger
	service   *realtime.Service
	areas     *config.AreaTable
	refresher *refresh.Manager
}

func NewHandler(db *database.Database, service *realtime.Service, areas *config.AreaTable, refresher *refresh.Manager, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:        db,
		logger:    logger,
		service:   service,
		areas:     areas,
		refresher: refresher,
	}
}

// GetPredictions serves the five-year outlook for one postcode. A failed
// real-time run degrades to the stored-baseline prediction instead of an
// error response.
func (h *Handler) GetPredictions(c *gin.Context) {
	postcode := c.Query("postcode")
	if strings.TrimSpace(postcode) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Postcode is required",
		})
		return
	}

	if err := realtime.ValidatePostcode(postcode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid UK postcode format",
		})
		return
	}

	response, err := h.service.GeneratePredictions(c.Request.Context(), postcode)
	if err != nil {
		h.logger.WithError(err).WithField("postcode", postcode).Warn("Real-time prediction failed, serving baseline")
		response = h.service.Baseline(postcode)
	}

	if response == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to generate predictions",
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetAllInvestmentMetrics returns every stored metric row, newest first.
func (h *Handler) GetAllInvestmentMetrics(c *gin.Context) {
	metrics, err := h.db.GetAllInvestmentMetrics()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get investment metrics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get investment metrics"})
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// GetInvestmentMetric returns the stored metric for one postcode.
func (h *Handler) GetInvestmentMetric(c *gin.Context) {
	postcode := realtime.NormalizePostcode(c.Param("postcode"))

	metric, err := h.db.GetInvestmentMetric(postcode)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get investment metric")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get investment metric"})
		return
	}

	if metric == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No stored metric for this postcode"})
		return
	}

	c.JSON(http.StatusOK, metric)
}

// GetRecentSales returns the stored transactions for one postcode.
func (h *Handler) GetRecentSales(c *gin.Context) {
	postcode := realtime.NormalizePostcode(c.Query("postcode"))
	if postcode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Postcode is required"})
		return
	}

	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 10
	}

	sales, err := h.db.GetRecentSales(postcode, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get recent sales")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get recent sales"})
		return
	}

	c.JSON(http.StatusOK, sales)
}

// GetStations returns the seeded station table, or the nearest stations
// when lat and lng are supplied.
func (h *Handler) GetStations(c *gin.Context) {
	stations, err := h.db.GetTransportStations()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get transport stations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get transport stations"})
		return
	}

	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr == "" && lngStr == "" {
		c.JSON(http.StatusOK, stations)
		return
	}

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lng, lngErr := strconv.ParseFloat(lngStr, 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must both be valid coordinates"})
		return
	}

	c.JSON(http.StatusOK, geometry.NearestStations(stations, lat, lng, 5))
}

// TriggerRefresh starts a background refresh of the configured postcodes.
func (h *Handler) TriggerRefresh(c *gin.Context) {
	if h.refresher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Refresh is not configured"})
		return
	}

	if h.refresher.Running() {
		c.JSON(http.StatusConflict, gin.H{"error": "A refresh is already running"})
		return
	}

	go func() {
		if _, err := h.refresher.RefreshAll(context.Background()); err != nil && !errors.Is(err, refresh.ErrAlreadyRunning) {
			h.logger.WithError(err).Error("Background refresh failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "Refresh started"})
}

// HealthCheck reports service and database liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	if err := h.db.GetDB().Ping(); err != nil {
		h.logger.WithError(err).Error("Database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "Database is unreachable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
