package database

import (
	"fmt"

	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

func (d *Database) RunMigrations() error {
	// Create investment metrics table
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS investment_metrics (
			postcode TEXT PRIMARY KEY,
			avg_price REAL,
			price_growth_12m REAL,
			rental_yield REAL,
			risk_score INTEGER,
			recommendation TEXT,
			data_quality REAL,
			computed_at TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create investment_metrics table: %v", err)
	}

	// Create price paid table
	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS property_prices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			postcode TEXT NOT NULL,
			price REAL,
			date_of_transfer TIMESTAMP,
			property_type TEXT,
			new_build BOOLEAN DEFAULT 0,
			tenure TEXT,
			address TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create property_prices table: %v", err)
	}

	// Create crime summaries table
	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS crime_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			postcode TEXT NOT NULL,
			month TEXT,
			total_crimes INTEGER,
			crime_rate REAL,
			categories TEXT,
			source TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create crime_data table: %v", err)
	}

	// Create transport stations table
	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS transport_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			station TEXT UNIQUE NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			zone TEXT,
			operator TEXT
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create transport_data table: %v", err)
	}

	// Index sales for the per-postcode, newest-first read path
	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_property_prices_postcode_date
		ON property_prices(postcode, date_of_transfer);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_crime_data_postcode_month
		ON crime_data(postcode, month);
	`)
	if err != nil {
		return err
	}

	return d.seedStations()
}

// seedStations loads the rail interchange table on first run. Existing rows
// are left alone so coordinate corrections survive restarts.
func (d *Database) seedStations() error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO transport_data (station, latitude, longitude, zone, operator)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %v", err)
	}
	defer stmt.Close()

	for _, s := range seedStationRows {
		_, err = stmt.Exec(s.Station, s.Latitude, s.Longitude, s.Zone, s.Operator)
		if err != nil {
			return fmt.Errorf("failed to seed station %s: %v", s.Station, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// seedStationRows covers the major rail interchanges, from the National Rail
// station list.
var seedStationRows = []models.TransportStation{
	{Station: "London Victoria", Latitude: 51.4952, Longitude: -0.1441, Zone: "1", Operator: "Network Rail"},
	{Station: "London Waterloo", Latitude: 51.5031, Longitude: -0.1132, Zone: "1", Operator: "Network Rail"},
	{Station: "London King's Cross", Latitude: 51.5308, Longitude: -0.1238, Zone: "1", Operator: "Network Rail"},
	{Station: "London Paddington", Latitude: 51.5154, Longitude: -0.1755, Zone: "1", Operator: "Network Rail"},
	{Station: "London Liverpool Street", Latitude: 51.5179, Longitude: -0.0817, Zone: "1", Operator: "Network Rail"},
	{Station: "London Bridge", Latitude: 51.5050, Longitude: -0.0862, Zone: "1", Operator: "Network Rail"},
	{Station: "London Euston", Latitude: 51.5282, Longitude: -0.1337, Zone: "1", Operator: "Network Rail"},
	{Station: "Clapham Junction", Latitude: 51.4645, Longitude: -0.1705, Zone: "2", Operator: "Network Rail"},
	{Station: "Stratford", Latitude: 51.5416, Longitude: -0.0042, Zone: "3", Operator: "Network Rail"},
	{Station: "East Croydon", Latitude: 51.3756, Longitude: -0.0928, Zone: "5", Operator: "Govia Thameslink"},
	{Station: "Manchester Piccadilly", Latitude: 53.4774, Longitude: -2.2309, Operator: "Network Rail"},
	{Station: "Birmingham New Street", Latitude: 52.4778, Longitude: -1.8985, Operator: "Network Rail"},
	{Station: "Leeds", Latitude: 53.7947, Longitude: -1.5491, Operator: "Network Rail"},
	{Station: "Liverpool Lime Street", Latitude: 53.4077, Longitude: -2.9774, Operator: "Network Rail"},
	{Station: "Sheffield", Latitude: 53.3780, Longitude: -1.4620, Operator: "East Midlands Railway"},
	{Station: "Newcastle", Latitude: 54.9686, Longitude: -1.6174, Operator: "LNER"},
	{Station: "York", Latitude: 53.9580, Longitude: -1.0933, Operator: "LNER"},
	{Station: "Nottingham", Latitude: 52.9470, Longitude: -1.1465, Operator: "East Midlands Railway"},
	{Station: "Bristol Temple Meads", Latitude: 51.4490, Longitude: -2.5813, Operator: "Great Western Railway"},
	{Station: "Reading", Latitude: 51.4586, Longitude: -0.9714, Operator: "Network Rail"},
	{Station: "Brighton", Latitude: 50.8292, Longitude: -0.1410, Operator: "Govia Thameslink"},
	{Station: "Cambridge", Latitude: 52.1943, Longitude: 0.1371, Operator: "Greater Anglia"},
	{Station: "Oxford", Latitude: 51.7534, Longitude: -1.2700, Operator: "Great Western Railway"},
	{Station: "Southampton Central", Latitude: 50.9074, Longitude: -1.4139, Operator: "South Western Railway"},
	{Station: "Edinburgh Waverley", Latitude: 55.9520, Longitude: -3.1890, Operator: "Network Rail"},
	{Station: "Glasgow Central", Latitude: 55.8590, Longitude: -4.2577, Operator: "Network Rail"},
	{Station: "Aberdeen", Latitude: 57.1437, Longitude: -2.0981, Operator: "ScotRail"},
	{Station: "Dundee", Latitude: 56.4566, Longitude: -2.9714, Operator: "ScotRail"},
	{Station: "Cardiff Central", Latitude: 51.4760, Longitude: -3.1791, Operator: "Transport for Wales"},
	{Station: "Swansea", Latitude: 51.6255, Longitude: -3.9411, Operator: "Transport for Wales"},
	{Station: "Newport", Latitude: 51.5885, Longitude: -2.9989, Operator: "Transport for Wales"},
	{Station: "Belfast Lanyon Place", Latitude: 54.5947, Longitude: -5.9183, Operator: "Translink"},
}
