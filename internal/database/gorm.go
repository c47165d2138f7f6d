package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

// NewGormDB opens the ORM handle used by the batch writer. It shares the
// SQLite file with the raw read connection. SQLite allows one writer at a
// time, so the pool is capped at a single connection.
func NewGormDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// NewTestDB opens a shared in-memory database for tests, serialized the
// same way as the file-backed handle.
func NewTestDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// MigrateSchema creates the persistence tables from the model definitions.
func MigrateSchema(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.InvestmentMetric{},
		&models.PropertySale{},
		&models.CrimeRecord{},
		&models.TransportStation{},
	)
}

// UpsertRefreshRecords writes one batch inside the supplied transaction.
// Metrics overwrite by postcode. Sales are a rolling snapshot and replace
// the postcode's previous rows. Crime keeps one row per postcode and month.
func UpsertRefreshRecords(tx *gorm.DB, batch []*models.RefreshRecord) error {
	for _, record := range batch {
		if record == nil {
			continue
		}

		if record.Metric != nil {
			err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(record.Metric).Error
			if err != nil {
				return fmt.Errorf("failed to upsert metric for %s: %v", record.Postcode, err)
			}
		}

		if len(record.Sales) > 0 {
			err := tx.Where("postcode = ?", record.Postcode).Delete(&models.PropertySale{}).Error
			if err != nil {
				return fmt.Errorf("failed to clear sales for %s: %v", record.Postcode, err)
			}
			if err := tx.Create(record.Sales).Error; err != nil {
				return fmt.Errorf("failed to insert sales for %s: %v", record.Postcode, err)
			}
		}

		if record.Crime != nil {
			err := tx.Where("postcode = ? AND month = ?", record.Postcode, record.Crime.Month).
				Delete(&models.CrimeRecord{}).Error
			if err != nil {
				return fmt.Errorf("failed to clear crime rows for %s: %v", record.Postcode, err)
			}
			if err := tx.Create(record.Crime).Error; err != nil {
				return fmt.Errorf("failed to insert crime row for %s: %v", record.Postcode, err)
			}
		}
	}

	return nil
}
