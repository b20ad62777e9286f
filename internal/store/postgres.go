package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jusunglee/polaris/internal/models"
)

type postgresSource struct {
	dsn   string
	table string
}

// Postgres returns a source reading stations from a PostgreSQL table with
// columns id, name, code, lat, lon
func Postgres(dsn, table string) Source {
	if table == "" {
		table = "stations"
	}
	return postgresSource{dsn: dsn, table: table}
}

func (s postgresSource) Name() string { return "postgres:" + s.table }

func (s postgresSource) Stations(ctx context.Context) ([]models.Station, error) {
	if err := checkTable(s.table); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, "SELECT name, code, lat, lon FROM "+s.table+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying stations: %w", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[stationRecord])
	if err != nil {
		return nil, fmt.Errorf("scanning stations: %w", err)
	}

	stations := make([]models.Station, len(records))
	for i, rec := range records {
		stations[i] = rec.toStation()
	}
	return stations, nil
}
