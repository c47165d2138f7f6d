package prediction

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/mariusnicorescu85/uk-property-investment/config"
	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

const (
	forecastYears = 5

	// Year-on-year damping applied to the combined growth figure.
	overallDecay = 0.94
	// Damping applied to a trend derived from recent sales.
	trendDecay = 0.9
	// Damping applied to the economic adjustment.
	economicDecay = 0.85
)

// Engine turns whatever is known about a postcode into a five-year forecast.
// It is a pure function of its inputs plus the injected random source, so a
// single instance serves all requests.
type Engine struct {
	areas  *config.AreaTable
	random RandomSource
	logger *logrus.Logger
	now    func() time.Time
}

func NewEngine(areas *config.AreaTable, random RandomSource, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		areas:  areas,
		random: random,
		logger: logger,
		now:    time.Now,
	}
}

// Result is one complete forecast for a postcode.
type Result struct {
	Predictions    []models.YearPrediction
	RiskScore      int
	Recommendation models.Recommendation
	AreaInfo       models.AreaInfo
	DataQuality    models.DataQualityReport
}

// Predict produces the forecast. A nil data argument runs the pure
// area-baseline path used when every live source is down.
func (e *Engine) Predict(postcode string, data *models.EnhancedPropertyData) *Result {
	if data == nil {
		data = &models.EnhancedPropertyData{
			Postcode: postcode,
			Quality: models.DataQuality{
				BaseRate:     models.SourceUnavailable,
				Inflation:    models.SourceUnavailable,
				Unemployment: models.SourceUnavailable,
				GDPGrowth:    models.SourceUnavailable,
				Sales:        models.SourceUnavailable,
				Crime:        models.SourceUnavailable,
				Coordinates:  models.SourceUnavailable,
			},
		}
	}

	profile := e.areas.Resolve(postcode)
	isDefault := profile.AreaCode == config.DefaultAreaCode
	coverage := models.CoverageDetailed
	if isDefault {
		coverage = models.CoverageEstimated
	}

	quality := dataQualityScore(data)

	basePrice := profile.BasePrice
	if data.Metrics.AveragePrice != nil {
		basePrice = *data.Metrics.AveragePrice
	}

	predictions := make([]models.YearPrediction, 0, forecastYears)
	growths := make([]float64, 0, forecastYears)
	yields := make([]float64, 0, forecastYears)

	price := basePrice
	startYear := e.now().Year()
	for year := 1; year <= forecastYears; year++ {
		growth := e.yearGrowth(profile, data, year)
		price *= 1 + growth/100
		growths = append(growths, growth)

		yield := yearYield(profile, data, basePrice, growth, year)
		yields = append(yields, yield)

		predictions = append(predictions, models.YearPrediction{
			Year:               startYear + year,
			PredictedPrice:     math.Round(price),
			PriceChangePercent: round2(growth),
			PredictedYield:     round2(yield),
			Confidence:         round2(yearConfidence(data, quality, isDefault, year)),
			DataQuality:        round2(quality),
			AreaCoverage:       coverage,
		})
	}

	risk := riskScore(profile, data, growths, quality, isDefault)
	recommendation := recommend(profile, data, growths, yields, risk, quality)

	e.logger.WithFields(logrus.Fields{
		"postcode": postcode,
		"area":     profile.AreaCode,
		"risk":     risk,
		"label":    recommendation.Label,
	}).Debug("Generated forecast")

	return &Result{
		Predictions:    predictions,
		RiskScore:      risk,
		Recommendation: recommendation,
		AreaInfo: models.AreaInfo{
			AreaCode: profile.AreaCode,
			Region:   profile.Region,
			Coverage: coverage,
		},
		DataQuality: models.DataQualityReport{
			Score:   round2(quality),
			Sources: data.Quality,
		},
	}
}

// yearGrowth computes the percentage growth applied in one forecast year.
func (e *Engine) yearGrowth(profile models.AreaProfile, data *models.EnhancedPropertyData, year int) float64 {
	decay := math.Pow(overallDecay, float64(year-1))

	baseGrowth := profile.GrowthRate
	if data.Metrics.PriceGrowth != nil {
		baseGrowth = *data.Metrics.PriceGrowth * math.Pow(trendDecay, float64(year-1))
	}

	return (baseGrowth + economicAdjustment(data.Economic, year) + marketAdjustment(data) + e.localAdjustment(profile, data)) * decay
}

// economicAdjustment blends the four macro indicators, fading with horizon.
func economicAdjustment(economic *models.EconomicSnapshot, year int) float64 {
	if economic == nil {
		return 0
	}

	rateEffect := (6 - economic.BaseRate) * 0.4
	inflationEffect := -(economic.Inflation - 2.5) * 0.25
	gdpEffect := economic.GDPGrowth * 0.6
	employmentEffect := (5 - economic.UnemploymentRate) * 0.2

	return (rateEffect + inflationEffect + gdpEffect + employmentEffect) * math.Pow(economicDecay, float64(year-1))
}

// marketAdjustment rewards safe, active local markets. The safety bump only
// applies to live crime data, never to the fallback estimate.
func marketAdjustment(data *models.EnhancedPropertyData) float64 {
	adjustment := math.Min(float64(len(data.Sales))/10, 0.5)

	if data.Crime != nil && data.Crime.Source == models.SourceLive && data.Metrics.CrimeImpact != nil {
		adjustment += (data.Metrics.CrimeImpact.SafetyScore - 5) * 0.2
	}

	return adjustment
}

// localAdjustment covers property-type mix, the regional bonus, and a small
// jitter so repeated identical requests do not return identical curves.
func (e *Engine) localAdjustment(profile models.AreaProfile, data *models.EnhancedPropertyData) float64 {
	adjustment := 0.0

	if types := data.Metrics.PropertyTypes; len(types) > 0 {
		houses := types["Detached"] + types["Semi-Detached"] + types["Terraced"]
		if types["Flat"] > houses {
			adjustment -= 0.3
		}
		if types["Detached"] > 0 {
			adjustment += 0.2
		}
	}

	bonus, _ := config.RegionBonus(profile.AreaCode)
	adjustment += bonus

	jitter := (e.random.Float64() - 0.5) * 0.3
	return adjustment + jitter
}

// yearYield estimates the rental yield for one forecast year.
func yearYield(profile models.AreaProfile, data *models.EnhancedPropertyData, basePrice, growth float64, year int) float64 {
	priceAdjustment := 0.0
	switch {
	case basePrice > 500000:
		priceAdjustment = -1.5
	case basePrice < 200000:
		priceAdjustment = 1.5
	}
	currentYield := math.Max(profile.YieldPercent+priceAdjustment, 2.0)

	priceEffect := -growth * 0.1
	growthEffect := growth * 0.3
	rateImpact := 0.0
	if data.Economic != nil {
		rateImpact = (data.Economic.BaseRate - 4) * 0.1
	}
	yieldChange := (priceEffect + growthEffect + rateImpact) / float64(year)

	return math.Max(currentYield+yieldChange, 1.5)
}

// yearConfidence decays with horizon and scales with data quality and area
// coverage.
func yearConfidence(data *models.EnhancedPropertyData, quality float64, isDefault bool, year int) float64 {
	areaFactor := 0.95
	if isDefault {
		areaFactor = 0.75
	}

	confidence := (0.9 - 0.05*float64(year)) * quality * areaFactor
	if len(data.Sales) >= 5 {
		confidence += 0.05
	}
	if data.Economic.IsLive(models.IndicatorBaseRate) {
		confidence += 0.03
	}

	return clamp(confidence, 0.5, 0.95)
}

// dataQualityScore summarises how much of the forecast rests on live data.
func dataQualityScore(data *models.EnhancedPropertyData) float64 {
	score := 0.7
	score += 0.05 * float64(data.Economic.LiveSourceCount())
	score += math.Min(float64(len(data.Sales))/10, 0.15)
	if data.Crime != nil && data.Crime.Source == models.SourceLive {
		score += 0.05
	}
	return clamp(score, 0, 1)
}

// riskScore grades the investment 1 (safest) to 10 (riskiest).
func riskScore(profile models.AreaProfile, data *models.EnhancedPropertyData, growths []float64, quality float64, isDefault bool) int {
	risk := 5.0
	risk += (profile.RiskFactor - 1) * 3

	meanGrowth := stat.Mean(growths, nil)
	if meanGrowth > 6 {
		risk += 1.5
	} else if meanGrowth < 1 {
		risk += 2
	}
	risk += populationStdDev(growths) * 0.5

	if economic := data.Economic; economic != nil {
		if economic.BaseRate > 6 {
			risk++
		}
		if economic.Inflation > 5 {
			risk += 0.5
		}
		if economic.UnemploymentRate > 6 {
			risk += 0.5
		}
	}

	if impact := data.Metrics.CrimeImpact; impact != nil && impact.CrimeRate > 500 {
		risk++
	}

	risk += (1 - quality) * 2
	if isDefault {
		risk += 0.5
	}

	return int(clamp(math.Round(risk), 1, 10))
}

func populationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := stat.Mean(values, nil)
	return math.Sqrt(stat.MomentAbout(2, values, mean, nil))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
