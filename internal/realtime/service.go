package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mariusnicorescu85/uk-property-investment/internal/fetch"
	"github.com/mariusnicorescu85/uk-property-investment/internal/fusion"
	"github.com/mariusnicorescu85/uk-property-investment/internal/geometry"
	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
	"github.com/mariusnicorescu85/uk-property-investment/internal/prediction"
)

// EconomicSource covers the four macro indicators.
type EconomicSource interface {
	BaseRate(ctx context.Context) (float64, error)
	Inflation(ctx context.Context) (float64, error)
	Unemployment(ctx context.Context) (float64, error)
	GDPGrowth(ctx context.Context) (float64, error)
}

// SalesSource supplies recent transactions for a postcode.
type SalesSource interface {
	RecentSales(ctx context.Context, postcode string) ([]models.SaleRecord, error)
}

// CrimeSource supplies street-level incident counts around a coordinate.
type CrimeSource interface {
	StreetCrime(ctx context.Context, lat, lng float64) (*models.CrimeSnapshot, error)
}

// GeocodeSource resolves a postcode to coordinates.
type GeocodeSource interface {
	LookupPostcode(ctx context.Context, postcode string) (*models.Coordinates, error)
}

// StationSource supplies the station table for transport enrichment.
type StationSource interface {
	GetTransportStations() ([]models.TransportStation, error)
}

// RecordQueue accepts refresh-record batches for asynchronous persistence.
type RecordQueue interface {
	Push(records []*models.RefreshRecord) error
}

// Service orchestrates one real-time prediction: it settles every upstream
// fetch, degrades each failed branch independently, and hands whatever
// survived to the engine.
type Service struct {
	economic EconomicSource
	sales    SalesSource
	crime    CrimeSource
	geocoder GeocodeSource
	engine   *prediction.Engine
	logger   *logrus.Logger

	stations StationSource
	queue    RecordQueue
	now      func() time.Time
}

func NewService(economic EconomicSource, sales SalesSource, crime CrimeSource, geocoder GeocodeSource, engine *prediction.Engine, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		economic: economic,
		sales:    sales,
		crime:    crime,
		geocoder: geocoder,
		engine:   engine,
		logger:   logger,
		now:      time.Now,
	}
}

// SetStationSource wires optional transport enrichment.
func (s *Service) SetStationSource(stations StationSource) {
	s.stations = stations
}

// SetQueue wires optional snapshot persistence.
func (s *Service) SetQueue(queue RecordQueue) {
	s.queue = queue
}

// fetchResults collects the six fan-out branches. Each goroutine writes only
// its own fields; the WaitGroup orders all writes before the reads.
type fetchResults struct {
	baseRate        float64
	baseRateErr     error
	inflation       float64
	inflationErr    error
	unemployment    float64
	unemploymentErr error
	gdp             float64
	gdpErr          error
	sales           []models.SaleRecord
	salesErr        error
	coords          *models.Coordinates
	coordsErr       error
}

// GeneratePredictions runs the full real-time path for one postcode. Failed
// branches degrade to fallbacks; the only hard failure is an aborted context.
func (s *Service) GeneratePredictions(ctx context.Context, postcode string) (*models.PredictionResponse, error) {
	normalized := NormalizePostcode(postcode)
	started := s.now()

	results := s.fetchAll(ctx, normalized)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("real-time generation aborted: %w", err)
	}

	crimeSnapshot, crimeQuality := s.fetchCrime(ctx, normalized, results)

	economic := s.assembleEconomic(results)
	data := &models.EnhancedPropertyData{
		Postcode:    normalized,
		Economic:    economic,
		Sales:       results.sales,
		Crime:       crimeSnapshot,
		Coordinates: results.coords,
		Metrics:     fusion.Fuse(economic, results.sales, crimeSnapshot),
		Quality: models.DataQuality{
			BaseRate:     economic.DataSources[models.IndicatorBaseRate],
			Inflation:    economic.DataSources[models.IndicatorInflation],
			Unemployment: economic.DataSources[models.IndicatorUnemployment],
			GDPGrowth:    economic.DataSources[models.IndicatorGDPGrowth],
			Sales:        availability(results.salesErr),
			Crime:        crimeQuality,
			Coordinates:  availability(results.coordsErr),
		},
	}

	result := s.engine.Predict(normalized, data)
	response := s.buildResponse(normalized, result, data)
	s.enrichTransport(response, data)
	s.persist(result, data)

	s.logger.WithFields(logrus.Fields{
		"postcode": normalized,
		"duration": time.Since(started).Round(time.Millisecond).String(),
		"sales":    len(results.sales),
		"quality":  result.DataQuality.Score,
	}).Info("Generated real-time prediction")

	return response, nil
}

// Baseline produces a forecast from the area table alone. It backs the
// second tier when the real-time path fails.
func (s *Service) Baseline(postcode string) *models.PredictionResponse {
	normalized := NormalizePostcode(postcode)
	result := s.engine.Predict(normalized, nil)

	return &models.PredictionResponse{
		Success:        true,
		Postcode:       normalized,
		Predictions:    result.Predictions,
		RiskScore:      result.RiskScore,
		Recommendation: result.Recommendation,
		AreaInfo:       result.AreaInfo,
		RealTimeData:   models.RealTimeData{},
		DataQuality:    result.DataQuality,
		GeneratedAt:    s.now().UTC().Format(time.RFC3339),
	}
}

func (s *Service) fetchAll(ctx context.Context, postcode string) *fetchResults {
	results := &fetchResults{}

	var wg sync.WaitGroup
	wg.Add(6)
	go func() {
		defer wg.Done()
		results.baseRate, results.baseRateErr = s.economic.BaseRate(ctx)
	}()
	go func() {
		defer wg.Done()
		results.inflation, results.inflationErr = s.economic.Inflation(ctx)
	}()
	go func() {
		defer wg.Done()
		results.unemployment, results.unemploymentErr = s.economic.Unemployment(ctx)
	}()
	go func() {
		defer wg.Done()
		results.gdp, results.gdpErr = s.economic.GDPGrowth(ctx)
	}()
	go func() {
		defer wg.Done()
		results.sales, results.salesErr = s.sales.RecentSales(ctx, postcode)
	}()
	go func() {
		defer wg.Done()
		results.coords, results.coordsErr = s.geocoder.LookupPostcode(ctx, postcode)
	}()
	wg.Wait()

	return results
}

// fetchCrime runs after the fan-out because it needs coordinates. Without
// them crime stays unknown; with them an API failure degrades to the
// fallback estimate.
func (s *Service) fetchCrime(ctx context.Context, postcode string, results *fetchResults) (*models.CrimeSnapshot, string) {
	if results.coordsErr != nil {
		s.logger.WithError(results.coordsErr).WithField("postcode", postcode).Warn("Geocoding failed, skipping crime lookup")
		return nil, models.SourceUnavailable
	}

	snapshot, err := s.crime.StreetCrime(ctx, results.coords.Latitude, results.coords.Longitude)
	if err != nil {
		s.logger.WithError(err).WithField("postcode", postcode).Warn("Crime lookup failed, using fallback estimate")
		return fetch.FallbackCrime(), models.SourceFallback
	}
	return snapshot, models.SourceLive
}

func (s *Service) assembleEconomic(results *fetchResults) *models.EconomicSnapshot {
	snapshot := &models.EconomicSnapshot{
		DataSources: make(map[string]string, 4),
		LastUpdated: s.now(),
	}
	snapshot.BaseRate, snapshot.DataSources[models.IndicatorBaseRate] = s.indicator("base rate", results.baseRate, results.baseRateErr, fetch.FallbackBaseRate)
	snapshot.Inflation, snapshot.DataSources[models.IndicatorInflation] = s.indicator("inflation", results.inflation, results.inflationErr, fetch.FallbackInflation)
	snapshot.UnemploymentRate, snapshot.DataSources[models.IndicatorUnemployment] = s.indicator("unemployment", results.unemployment, results.unemploymentErr, fetch.FallbackUnemployment)
	snapshot.GDPGrowth, snapshot.DataSources[models.IndicatorGDPGrowth] = s.indicator("gdp", results.gdp, results.gdpErr, fetch.FallbackGDPGrowth)
	return snapshot
}

func (s *Service) indicator(name string, value float64, err error, fallback float64) (float64, string) {
	if err != nil {
		s.logger.WithError(err).Warnf("Using fallback %s", name)
		return fallback, models.SourceFallback
	}
	return value, models.SourceLive
}

func availability(err error) string {
	if err != nil {
		return models.SourceUnavailable
	}
	return models.SourceLive
}

func (s *Service) buildResponse(postcode string, result *prediction.Result, data *models.EnhancedPropertyData) *models.PredictionResponse {
	return &models.PredictionResponse{
		Success:        true,
		Postcode:       postcode,
		Predictions:    result.Predictions,
		RiskScore:      result.RiskScore,
		Recommendation: result.Recommendation,
		AreaInfo:       result.AreaInfo,
		RealTimeData: models.RealTimeData{
			Economic:      data.Economic,
			SalesAnalyzed: len(data.Sales),
			Crime:         data.Crime,
			Coordinates:   data.Coordinates,
		},
		DataQuality: result.DataQuality,
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
	}
}

// enrichTransport is best effort: a missing station table or a read error
// only costs the transport block.
func (s *Service) enrichTransport(response *models.PredictionResponse, data *models.EnhancedPropertyData) {
	if s.stations == nil || data.Coordinates == nil {
		return
	}

	stations, err := s.stations.GetTransportStations()
	if err != nil {
		s.logger.WithError(err).Warn("Could not load transport stations")
		return
	}

	response.RealTimeData.Transport = geometry.NearestStationInfo(stations, data.Coordinates.Latitude, data.Coordinates.Longitude)
}

// persist queues a snapshot of this prediction for the batch writer.
func (s *Service) persist(result *prediction.Result, data *models.EnhancedPropertyData) {
	if s.queue == nil {
		return
	}

	record := s.buildRefreshRecord(result, data)
	if err := s.queue.Push([]*models.RefreshRecord{record}); err != nil {
		s.logger.WithError(err).WithField("postcode", data.Postcode).Warn("Could not queue metrics snapshot")
	}
}

func (s *Service) buildRefreshRecord(result *prediction.Result, data *models.EnhancedPropertyData) *models.RefreshRecord {
	now := s.now()

	metric := &models.InvestmentMetric{
		Postcode:       data.Postcode,
		RiskScore:      result.RiskScore,
		Recommendation: result.Recommendation.Label,
		DataQuality:    result.DataQuality.Score,
		ComputedAt:     now,
	}
	if data.Metrics.AveragePrice != nil {
		metric.AvgPrice = *data.Metrics.AveragePrice
	}
	if data.Metrics.PriceGrowth != nil {
		metric.PriceGrowth12M = *data.Metrics.PriceGrowth
	}
	if len(result.Predictions) > 0 {
		metric.RentalYield = result.Predictions[0].PredictedYield
	}

	record := &models.RefreshRecord{Postcode: data.Postcode, Metric: metric}

	for _, sale := range data.Sales {
		record.Sales = append(record.Sales, &models.PropertySale{
			Postcode:       sale.Postcode,
			Price:          sale.Price,
			DateOfTransfer: sale.Date,
			PropertyType:   sale.PropertyType,
			NewBuild:       sale.NewBuild,
			Tenure:         sale.Tenure,
			Address:        sale.Address,
			CreatedAt:      now,
		})
	}

	if data.Crime != nil {
		categories, _ := json.Marshal(data.Crime.Categories)
		record.Crime = &models.CrimeRecord{
			Postcode:    data.Postcode,
			Month:       now.AddDate(0, -2, 0).Format("2006-01"),
			TotalCrimes: data.Crime.TotalCrimes,
			CrimeRate:   data.Crime.CrimeRate,
			Categories:  string(categories),
			Source:      data.Crime.Source,
			CreatedAt:   now,
		}
	}

	return record
}
