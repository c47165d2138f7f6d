package fusion

import (
	"gonum.org/v1/gonum/stat"

	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

// minGrowthSamples is the smallest sale count from which a price trend is
// derived. Below it the growth field stays absent.
const minGrowthSamples = 3

// Fuse combines whichever upstream snapshots are available into derived
// metrics. It never fails: a nil or empty input simply leaves the matching
// field unset. Sales must be date-descending, as the fetcher returns them.
func Fuse(economic *models.EconomicSnapshot, sales []models.SaleRecord, crime *models.CrimeSnapshot) models.EnhancedMetrics {
	metrics := models.EnhancedMetrics{}

	if len(sales) > 0 {
		prices := make([]float64, len(sales))
		for i, sale := range sales {
			prices[i] = sale.Price
		}
		metrics.AveragePrice = f64(stat.Mean(prices, nil))
		metrics.PropertyTypes = typeHistogram(sales)
	}

	if growth, ok := priceGrowth(sales); ok {
		metrics.PriceGrowth = f64(growth)
	}

	if economic != nil {
		metrics.EconomicImpact = &models.EconomicImpact{
			InterestRateEffect: (6 - economic.BaseRate) * 0.5,
			InflationEffect:    stepEffect(economic.Inflation <= 3, 0.5),
			UnemploymentEffect: stepEffect(economic.UnemploymentRate <= 5, 0.3),
		}
	}

	if crime != nil {
		metrics.CrimeImpact = &models.CrimeImpact{
			CrimeRate:   crime.CrimeRate,
			SafetyScore: safetyScore(crime.CrimeRate),
		}
	}

	return metrics
}

// priceGrowth compares the mean of the three newest sales against the mean
// of the three oldest. A zero old-side mean yields no growth figure.
func priceGrowth(sales []models.SaleRecord) (float64, bool) {
	if len(sales) < minGrowthSamples {
		return 0, false
	}

	newest := make([]float64, minGrowthSamples)
	oldest := make([]float64, minGrowthSamples)
	for i := 0; i < minGrowthSamples; i++ {
		newest[i] = sales[i].Price
		oldest[i] = sales[len(sales)-minGrowthSamples+i].Price
	}

	oldMean := stat.Mean(oldest, nil)
	if oldMean == 0 {
		return 0, false
	}

	return (stat.Mean(newest, nil) - oldMean) / oldMean * 100, true
}

func typeHistogram(sales []models.SaleRecord) map[string]int {
	histogram := make(map[string]int)
	for _, sale := range sales {
		histogram[sale.PropertyType]++
	}
	return histogram
}

// safetyScore maps an annualised crime rate onto a 1-10 scale.
func safetyScore(crimeRate float64) float64 {
	score := 10 - crimeRate/50
	if score < 1 {
		return 1
	}
	return score
}

func stepEffect(favourable bool, magnitude float64) float64 {
	if favourable {
		return magnitude
	}
	return -magnitude
}

func f64(v float64) *float64 {
	return &v
}
