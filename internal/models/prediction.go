package models

import "time"

// Source labels attached to every upstream data point so callers can tell
// live answers from estimated ones.
const (
	SourceLive        = "live"
	SourceFallback    = "fallback"
	SourceUnavailable = "unavailable"
)

// Area coverage labels reported on each year prediction.
const (
	CoverageDetailed  = "detailed"
	CoverageEstimated = "estimated"
)

// AreaProfile is one row of the postcode-area baseline table: the fallback
// statistics used when no live data is available for an area.
type AreaProfile struct {
	AreaCode     string  `json:"areaCode"`
	Region       string  `json:"region"`
	BasePrice    float64 `json:"basePrice"`
	GrowthRate   float64 `json:"growthRate"`
	YieldPercent float64 `json:"yieldPercent"`
	RiskFactor   float64 `json:"riskFactor"`
}

// EconomicSnapshot holds the four macro indicators gathered for one request.
// DataSources records, per indicator, whether the value came from a live
// fetch or the fallback constant.
type EconomicSnapshot struct {
	BaseRate         float64           `json:"baseRate"`
	Inflation        float64           `json:"inflation"`
	UnemploymentRate float64           `json:"unemploymentRate"`
	GDPGrowth        float64           `json:"gdpGrowth"`
	DataSources      map[string]string `json:"dataSources"`
	LastUpdated      time.Time         `json:"lastUpdated"`
}

// Indicator keys used in EconomicSnapshot.DataSources.
const (
	IndicatorBaseRate     = "baseRate"
	IndicatorInflation    = "inflation"
	IndicatorUnemployment = "unemploymentRate"
	IndicatorGDPGrowth    = "gdpGrowth"
)

// LiveSourceCount returns how many of the four indicators were fetched live.
func (e *EconomicSnapshot) LiveSourceCount() int {
	if e == nil {
		return 0
	}
	count := 0
	for _, source := range e.DataSources {
		if source == SourceLive {
			count++
		}
	}
	return count
}

// IsLive reports whether a single indicator came from a live fetch.
func (e *EconomicSnapshot) IsLive(indicator string) bool {
	if e == nil {
		return false
	}
	return e.DataSources[indicator] == SourceLive
}

// SaleRecord is one parsed price-paid transaction.
type SaleRecord struct {
	Price        float64   `json:"price"`
	Date         time.Time `json:"date"`
	PropertyType string    `json:"propertyType"`
	NewBuild     bool      `json:"newBuild"`
	Tenure       string    `json:"tenure"`
	Address      string    `json:"address"`
	Postcode     string    `json:"postcode"`
}

// CrimeSnapshot summarizes street-level crime around a coordinate.
// CrimeRate is an annualized estimate derived from one month of incidents.
type CrimeSnapshot struct {
	TotalCrimes int            `json:"totalCrimes"`
	CrimeRate   float64        `json:"crimeRate"`
	Categories  map[string]int `json:"categories"`
	Source      string         `json:"source"`
}

// Coordinates is a resolved postcode location. Provider names which
// geocoding service answered.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Provider  string  `json:"provider"`
}

// EconomicImpact carries the simple linear/step effects derived from the
// economic snapshot.
type EconomicImpact struct {
	InterestRateEffect float64 `json:"interestRateEffect"`
	InflationEffect    float64 `json:"inflationEffect"`
	UnemploymentEffect float64 `json:"unemploymentEffect"`
}

// CrimeImpact carries the crime rate and the 1-10 safety score derived
// from it.
type CrimeImpact struct {
	CrimeRate   float64 `json:"crimeRate"`
	SafetyScore float64 `json:"safetyScore"`
}

// EnhancedMetrics are the derived figures computed from whichever upstream
// sources succeeded. Pointer fields are nil when the backing source was
// absent; the engine treats nil as "use the area baseline".
type EnhancedMetrics struct {
	AveragePrice   *float64        `json:"averagePrice,omitempty"`
	PriceGrowth    *float64        `json:"priceGrowth,omitempty"`
	PropertyTypes  map[string]int  `json:"propertyTypes,omitempty"`
	EconomicImpact *EconomicImpact `json:"economicImpact,omitempty"`
	CrimeImpact    *CrimeImpact    `json:"crimeImpact,omitempty"`
}

// DataQuality labels each upstream source for the caller. The system never
// presents fallback data as live.
type DataQuality struct {
	BaseRate     string `json:"baseRate"`
	Inflation    string `json:"inflation"`
	Unemployment string `json:"unemployment"`
	GDPGrowth    string `json:"gdpGrowth"`
	Sales        string `json:"sales"`
	Crime        string `json:"crime"`
	Coordinates  string `json:"coordinates"`
}

// EnhancedPropertyData aggregates everything known about one postcode at
// prediction time. All fields except Postcode are optional: the engine must
// produce a full forecast from any subset.
type EnhancedPropertyData struct {
	Postcode    string            `json:"postcode"`
	Economic    *EconomicSnapshot `json:"economic,omitempty"`
	Sales       []SaleRecord      `json:"sales,omitempty"`
	Crime       *CrimeSnapshot    `json:"crime,omitempty"`
	Coordinates *Coordinates      `json:"coordinates,omitempty"`
	Metrics     EnhancedMetrics   `json:"metrics"`
	Quality     DataQuality       `json:"quality"`
}

// YearPrediction is one year of the five-year forecast.
type YearPrediction struct {
	Year               int     `json:"year"`
	PredictedPrice     float64 `json:"predictedPrice"`
	PriceChangePercent float64 `json:"priceChangePercent"`
	PredictedYield     float64 `json:"predictedYield"`
	Confidence         float64 `json:"confidence"`
	DataQuality        float64 `json:"dataQuality"`
	AreaCoverage       string  `json:"areaCoverage"`
}

// Recommendation labels.
const (
	LabelStrongBuy  = "STRONG BUY"
	LabelBuy        = "BUY"
	LabelHold       = "HOLD"
	LabelSell       = "SELL"
	LabelStrongSell = "STRONG SELL"
)

// Recommendation is the scored buy/hold/sell verdict with its reasoning
// trail. Confidence and DataQuality are whole percentages.
type Recommendation struct {
	Label       string   `json:"label"`
	Score       float64  `json:"score"`
	Reasoning   []string `json:"reasoning"`
	Confidence  int      `json:"confidence"`
	DataQuality int      `json:"dataQuality"`
}

// AreaInfo summarizes which baseline row backed the prediction.
type AreaInfo struct {
	AreaCode string `json:"areaCode"`
	Region   string `json:"region"`
	Coverage string `json:"coverage"`
}

// TransportInfo describes rail connectivity around the resolved coordinates.
type TransportInfo struct {
	NearestStation string  `json:"nearestStation"`
	DistanceMeters float64 `json:"distanceMeters"`
	TransitScore   float64 `json:"transitScore"`
}

// RealTimeData echoes back the live inputs a prediction was built from.
type RealTimeData struct {
	Economic      *EconomicSnapshot `json:"economic,omitempty"`
	SalesAnalyzed int               `json:"salesAnalyzed"`
	Crime         *CrimeSnapshot    `json:"crime,omitempty"`
	Coordinates   *Coordinates      `json:"coordinates,omitempty"`
	Transport     *TransportInfo    `json:"transport,omitempty"`
}

// DataQualityReport pairs the composite quality score with the per-source
// labels.
type DataQualityReport struct {
	Score   float64     `json:"score"`
	Sources DataQuality `json:"sources"`
}

// PredictionResponse is the full payload returned for one postcode.
type PredictionResponse struct {
	Success        bool              `json:"success"`
	Postcode       string            `json:"postcode"`
	Predictions    []YearPrediction  `json:"predictions"`
	RiskScore      int               `json:"riskScore"`
	Recommendation Recommendation    `json:"recommendation"`
	AreaInfo       AreaInfo          `json:"areaInfo"`
	RealTimeData   RealTimeData      `json:"realTimeData"`
	DataQuality    DataQualityReport `json:"dataQuality"`
	GeneratedAt    string            `json:"generatedAt"`
}
