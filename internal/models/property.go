package models

import "time"

// InvestmentMetric is the persisted per-postcode snapshot written after each
// refresh run and served as the read-through record.
type InvestmentMetric struct {
	Postcode       string    `json:"postcode" gorm:"primaryKey"`
	AvgPrice       float64   `json:"avg_price"`
	PriceGrowth12M float64   `json:"price_growth_12m" gorm:"column:price_growth_12m"`
	RentalYield    float64   `json:"rental_yield"`
	RiskScore      int       `json:"risk_score"`
	Recommendation string    `json:"recommendation"`
	DataQuality    float64   `json:"data_quality"`
	ComputedAt     time.Time `json:"computed_at"`
}

func (InvestmentMetric) TableName() string {
	return "investment_metrics"
}

// PropertySale is one persisted price-paid transaction.
type PropertySale struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Postcode       string    `json:"postcode"`
	Price          float64   `json:"price"`
	DateOfTransfer time.Time `json:"date_of_transfer"`
	PropertyType   string    `json:"property_type"`
	NewBuild       bool      `json:"new_build"`
	Tenure         string    `json:"tenure"`
	Address        string    `json:"address"`
	CreatedAt      time.Time `json:"created_at"`
}

func (PropertySale) TableName() string {
	return "property_prices"
}

// CrimeRecord is one persisted monthly crime summary for a postcode.
// Categories holds the JSON-encoded category histogram.
type CrimeRecord struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Postcode    string    `json:"postcode"`
	Month       string    `json:"month"`
	TotalCrimes int       `json:"total_crimes"`
	CrimeRate   float64   `json:"crime_rate"`
	Categories  string    `json:"categories"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

func (CrimeRecord) TableName() string {
	return "crime_data"
}

// TransportStation is one row of the seeded rail-interchange table used for
// proximity scoring.
type TransportStation struct {
	ID        int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	Station   string  `json:"station"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zone      string  `json:"zone"`
	Operator  string  `json:"operator"`
}

func (TransportStation) TableName() string {
	return "transport_data"
}

// AreaSaleStats aggregates stored sales across one postcode area prefix.
type AreaSaleStats struct {
	AreaPrefix   string  `json:"area_prefix"`
	SaleCount    int     `json:"sale_count"`
	AveragePrice float64 `json:"average_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
}
