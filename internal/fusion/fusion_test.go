package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

func descendingSales(prices ...float64) []models.SaleRecord {
	sales := make([]models.SaleRecord, len(prices))
	date := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i, price := range prices {
		sales[i] = models.SaleRecord{
			Price:        price,
			Date:         date.AddDate(0, -i, 0),
			PropertyType: "Terraced",
		}
	}
	return sales
}

func TestFuse_EmptyInputsProduceEmptyMetrics(t *testing.T) {
	// Test
	metrics := Fuse(nil, nil, nil)

	// Assert
	assert.Nil(t, metrics.AveragePrice)
	assert.Nil(t, metrics.PriceGrowth)
	assert.Nil(t, metrics.PropertyTypes)
	assert.Nil(t, metrics.EconomicImpact)
	assert.Nil(t, metrics.CrimeImpact)
}

func TestFuse_AveragePrice(t *testing.T) {
	// Test
	metrics := Fuse(nil, descendingSales(300000, 200000), nil)

	// Assert
	assert.NotNil(t, metrics.AveragePrice)
	assert.Equal(t, 250000.0, *metrics.AveragePrice)
	assert.Nil(t, metrics.PriceGrowth)
}

func TestFuse_PriceGrowthNeedsThreeSales(t *testing.T) {
	// Setup: newest three average 400k, oldest three average 320k
	sales := descendingSales(420000, 400000, 380000, 350000, 330000, 310000, 320000)

	// Test
	metrics := Fuse(nil, sales, nil)

	// Assert
	assert.NotNil(t, metrics.PriceGrowth)
	assert.InDelta(t, 25.0, *metrics.PriceGrowth, 0.001)
}

func TestFuse_ThreeSalesCompareAgainstThemselves(t *testing.T) {
	// Test
	metrics := Fuse(nil, descendingSales(300000, 250000, 200000), nil)

	// Assert
	assert.NotNil(t, metrics.PriceGrowth)
	assert.InDelta(t, 0.0, *metrics.PriceGrowth, 0.001)
}

func TestFuse_ZeroOldMeanYieldsNoGrowth(t *testing.T) {
	// Test
	metrics := Fuse(nil, descendingSales(100000, 0, 0, 0, 0, 0), nil)

	// Assert
	assert.Nil(t, metrics.PriceGrowth)
}

func TestFuse_PropertyTypeHistogram(t *testing.T) {
	// Setup
	sales := descendingSales(100000, 200000, 300000)
	sales[0].PropertyType = "Flat"
	sales[1].PropertyType = "Flat"
	sales[2].PropertyType = "Detached"

	// Test
	metrics := Fuse(nil, sales, nil)

	// Assert
	assert.Equal(t, map[string]int{"Flat": 2, "Detached": 1}, metrics.PropertyTypes)
}

func TestFuse_EconomicImpact(t *testing.T) {
	// Setup
	economic := &models.EconomicSnapshot{
		BaseRate:         5.0,
		Inflation:        3.2,
		UnemploymentRate: 4.2,
	}

	// Test
	metrics := Fuse(economic, nil, nil)

	// Assert
	assert.NotNil(t, metrics.EconomicImpact)
	assert.InDelta(t, 0.5, metrics.EconomicImpact.InterestRateEffect, 0.001)
	assert.Equal(t, -0.5, metrics.EconomicImpact.InflationEffect)
	assert.Equal(t, 0.3, metrics.EconomicImpact.UnemploymentEffect)
}

func TestFuse_EconomicImpactBoundaryValues(t *testing.T) {
	// Setup: both indicators exactly at their thresholds count as favourable
	economic := &models.EconomicSnapshot{
		BaseRate:         6.0,
		Inflation:        3.0,
		UnemploymentRate: 5.0,
	}

	// Test
	metrics := Fuse(economic, nil, nil)

	// Assert
	assert.Equal(t, 0.0, metrics.EconomicImpact.InterestRateEffect)
	assert.Equal(t, 0.5, metrics.EconomicImpact.InflationEffect)
	assert.Equal(t, 0.3, metrics.EconomicImpact.UnemploymentEffect)
}

func TestFuse_CrimeImpact(t *testing.T) {
	// Test
	metrics := Fuse(nil, nil, &models.CrimeSnapshot{CrimeRate: 300})

	// Assert
	assert.NotNil(t, metrics.CrimeImpact)
	assert.Equal(t, 300.0, metrics.CrimeImpact.CrimeRate)
	assert.Equal(t, 4.0, metrics.CrimeImpact.SafetyScore)
}

func TestFuse_SafetyScoreFloorsAtOne(t *testing.T) {
	// Test
	metrics := Fuse(nil, nil, &models.CrimeSnapshot{CrimeRate: 2000})

	// Assert
	assert.Equal(t, 1.0, metrics.CrimeImpact.SafetyScore)
}
