package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/jusunglee/polaris/internal/models"
)

type sqliteSource struct {
	path  string
	table string
}

// SQLite returns a source reading stations from a SQLite table with
// columns name, code, lat, lon. Rows are returned in rowid order.
func SQLite(path, table string) Source {
	if table == "" {
		table = "stations"
	}
	return sqliteSource{path: path, table: table}
}

func (s sqliteSource) Name() string { return "sqlite:" + s.path }

func (s sqliteSource) Stations(ctx context.Context) ([]models.Station, error) {
	if err := checkTable(s.table); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT name, code, lat, lon FROM "+s.table+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("querying stations: %w", err)
	}
	defer rows.Close()

	return scanStations(rows)
}

func scanStations(rows *sql.Rows) ([]models.Station, error) {
	var stations []models.Station
	for rows.Next() {
		var rec stationRecord
		if err := rows.Scan(&rec.Name, &rec.Code, &rec.Lat, &rec.Lon); err != nil {
			return nil, fmt.Errorf("scanning station: %w", err)
		}
		stations = append(stations, rec.toStation())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stations: %w", err)
	}
	return stations, nil
}
