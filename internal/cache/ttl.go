package cache

import "time"

// Retention windows per logical data set. Economic series move on
// announcement cycles measured in days; street crime is published monthly;
// sales listings update more often.
const (
	TTLBaseRate     = 24 * time.Hour
	TTLInflation    = 24 * time.Hour
	TTLUnemployment = 24 * time.Hour
	TTLGDPGrowth    = 24 * time.Hour
	TTLSales        = 6 * time.Hour
	TTLCrime        = 7 * 24 * time.Hour
)

// Cache keys for the process-wide economic series. Postcode-scoped entries
// derive their keys from these prefixes.
const (
	KeyBaseRate     = "base_rate"
	KeyInflation    = "inflation"
	KeyUnemployment = "unemployment"
	KeyGDPGrowth    = "gdp_growth"
	KeySalesPrefix  = "sales:"
	KeyCrimePrefix  = "crime:"
)
