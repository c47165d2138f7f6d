package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

// GetInvestmentMetric returns the stored snapshot for one postcode, or nil
// when the postcode has never been refreshed.
func (d *Database) GetInvestmentMetric(postcode string) (*models.InvestmentMetric, error) {
	query := `
        SELECT
            postcode,
            avg_price,
            price_growth_12m,
            rental_yield,
            risk_score,
            recommendation,
            data_quality,
            computed_at
        FROM investment_metrics
        WHERE postcode = ?
    `

	var m models.InvestmentMetric
	var avgPrice, priceGrowth, rentalYield, dataQuality sql.NullFloat64
	var riskScore sql.NullInt64
	var recommendation sql.NullString
	var computedAt sql.NullTime

	err := d.db.QueryRow(query, postcode).Scan(
		&m.Postcode,
		&avgPrice,
		&priceGrowth,
		&rentalYield,
		&riskScore,
		&recommendation,
		&dataQuality,
		&computedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query investment metric: %v", err)
	}

	if avgPrice.Valid {
		m.AvgPrice = avgPrice.Float64
	}
	if priceGrowth.Valid {
		m.PriceGrowth12M = priceGrowth.Float64
	}
	if rentalYield.Valid {
		m.RentalYield = rentalYield.Float64
	}
	if riskScore.Valid {
		m.RiskScore = int(riskScore.Int64)
	}
	if recommendation.Valid {
		m.Recommendation = recommendation.String
	}
	if dataQuality.Valid {
		m.DataQuality = dataQuality.Float64
	}
	if computedAt.Valid {
		m.ComputedAt = computedAt.Time
	}

	return &m, nil
}

// GetAllInvestmentMetrics returns every stored snapshot, most recent first.
func (d *Database) GetAllInvestmentMetrics() ([]models.InvestmentMetric, error) {
	query := `
        SELECT
            postcode,
            avg_price,
            price_growth_12m,
            rental_yield,
            risk_score,
            recommendation,
            data_quality,
            computed_at
        FROM investment_metrics
        ORDER BY computed_at DESC
    `

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query investment metrics: %v", err)
	}
	defer rows.Close()

	var metrics []models.InvestmentMetric
	for rows.Next() {
		var m models.InvestmentMetric
		var avgPrice, priceGrowth, rentalYield, dataQuality sql.NullFloat64
		var riskScore sql.NullInt64
		var recommendation sql.NullString
		var computedAt sql.NullTime

		err := rows.Scan(
			&m.Postcode,
			&avgPrice,
			&priceGrowth,
			&rentalYield,
			&riskScore,
			&recommendation,
			&dataQuality,
			&computedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment metric: %v", err)
		}

		if avgPrice.Valid {
			m.AvgPrice = avgPrice.Float64
		}
		if priceGrowth.Valid {
			m.PriceGrowth12M = priceGrowth.Float64
		}
		if rentalYield.Valid {
			m.RentalYield = rentalYield.Float64
		}
		if riskScore.Valid {
			m.RiskScore = int(riskScore.Int64)
		}
		if recommendation.Valid {
			m.Recommendation = recommendation.String
		}
		if dataQuality.Valid {
			m.DataQuality = dataQuality.Float64
		}
		if computedAt.Valid {
			m.ComputedAt = computedAt.Time
		}

		metrics = append(metrics, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment metrics: %v", err)
	}

	return metrics, nil
}

// GetRecentSales returns stored transactions for a postcode, newest first.
func (d *Database) GetRecentSales(postcode string, limit int) ([]models.PropertySale, error) {
	query := `
        SELECT id, postcode, price, date_of_transfer, property_type,
               new_build, tenure, address, created_at
        FROM property_prices
        WHERE postcode = ?
        ORDER BY date_of_transfer DESC
        LIMIT ?
    `

	rows, err := d.db.Query(query, postcode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %v", err)
	}
	defer rows.Close()

	var sales []models.PropertySale
	for rows.Next() {
		var s models.PropertySale
		var price sql.NullFloat64
		var propertyType, tenure, address sql.NullString
		var newBuild sql.NullBool
		var dateOfTransfer, createdAt sql.NullTime

		err := rows.Scan(
			&s.ID,
			&s.Postcode,
			&price,
			&dateOfTransfer,
			&propertyType,
			&newBuild,
			&tenure,
			&address,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %v", err)
		}

		if price.Valid {
			s.Price = price.Float64
		}
		if propertyType.Valid {
			s.PropertyType = propertyType.String
		}
		if newBuild.Valid {
			s.NewBuild = newBuild.Bool
		}
		if tenure.Valid {
			s.Tenure = tenure.String
		}
		if address.Valid {
			s.Address = address.String
		}
		if dateOfTransfer.Valid {
			s.DateOfTransfer = dateOfTransfer.Time
		}
		if createdAt.Valid {
			s.CreatedAt = createdAt.Time
		}

		sales = append(sales, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %v", err)
	}

	return sales, nil
}

// GetLatestCrime returns the most recent crime row for a postcode, or nil
// when none has been stored.
func (d *Database) GetLatestCrime(postcode string) (*models.CrimeRecord, error) {
	query := `
        SELECT id, postcode, month, total_crimes, crime_rate, categories, source, created_at
        FROM crime_data
        WHERE postcode = ?
        ORDER BY month DESC, id DESC
        LIMIT 1
    `

	var c models.CrimeRecord
	var month, categories, source sql.NullString
	var totalCrimes sql.NullInt64
	var crimeRate sql.NullFloat64
	var createdAt sql.NullTime

	err := d.db.QueryRow(query, postcode).Scan(
		&c.ID,
		&c.Postcode,
		&month,
		&totalCrimes,
		&crimeRate,
		&categories,
		&source,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query crime record: %v", err)
	}

	if month.Valid {
		c.Month = month.String
	}
	if totalCrimes.Valid {
		c.TotalCrimes = int(totalCrimes.Int64)
	}
	if crimeRate.Valid {
		c.CrimeRate = crimeRate.Float64
	}
	if categories.Valid {
		c.Categories = categories.String
	}
	if source.Valid {
		c.Source = source.String
	}
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}

	return &c, nil
}

// GetTransportStations returns the full station table.
func (d *Database) GetTransportStations() ([]models.TransportStation, error) {
	query := `
        SELECT id, station, latitude, longitude, zone, operator
        FROM transport_data
        ORDER BY station
    `

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query transport stations: %v", err)
	}
	defer rows.Close()

	var stations []models.TransportStation
	for rows.Next() {
		var s models.TransportStation
		var zone, operator sql.NullString

		if err := rows.Scan(&s.ID, &s.Station, &s.Latitude, &s.Longitude, &zone, &operator); err != nil {
			return nil, fmt.Errorf("failed to scan transport station: %v", err)
		}

		if zone.Valid {
			s.Zone = zone.String
		}
		if operator.Valid {
			s.Operator = operator.String
		}

		stations = append(stations, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transport stations: %v", err)
	}

	return stations, nil
}

// GetAreaSaleStats aggregates stored sales across every postcode sharing a
// prefix, so area pages can show real transaction history.
func (d *Database) GetAreaSaleStats(areaPrefix string) (models.AreaSaleStats, error) {
	query := `
        SELECT
            COUNT(*) as sale_count,
            COALESCE(AVG(price), 0) as average_price,
            COALESCE(MIN(price), 0) as min_price,
            COALESCE(MAX(price), 0) as max_price
        FROM property_prices
        WHERE postcode LIKE ? || '%'
    `

	stats := models.AreaSaleStats{AreaPrefix: areaPrefix}
	err := d.db.QueryRow(query, areaPrefix).Scan(
		&stats.SaleCount,
		&stats.AveragePrice,
		&stats.MinPrice,
		&stats.MaxPrice,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to query area sale stats: %v", err)
	}

	return stats, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) GetDB() *sql.DB {
	return d.db
}
