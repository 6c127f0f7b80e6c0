package station

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL station repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ListStations returns all known stations.
func (r *PostgresRepository) ListStations(ctx context.Context) ([]Station, error) {
	query := `
		SELECT station_id, name, latitude, longitude
		FROM stations
		ORDER BY station_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []Station
	for rows.Next() {
		var s Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lon); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stations, nil
}

// LatestReading returns the most recent persisted reading for a station.
func (r *PostgresRepository) LatestReading(ctx context.Context, stationID string) (*Reading, error) {
	query := `
		SELECT station_id, pm2_5, pm10, no2, co, o3, updated_at
		FROM latest_readings
		WHERE station_id = $1
	`

	var reading Reading
	err := r.pool.QueryRow(ctx, query, stationID).Scan(
		&reading.StationID,
		&reading.PM25,
		&reading.PM10,
		&reading.NO2,
		&reading.CO,
		&reading.O3,
		&reading.ObservedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoReading
		}
		return nil, err
	}

	return &reading, nil
}

// UpsertLatestReading stores or replaces a station's latest reading.
func (r *PostgresRepository) UpsertLatestReading(ctx context.Context, reading *Reading) error {
	query := `
		INSERT INTO latest_readings (station_id, pm2_5, pm10, no2, co, o3, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (station_id)
		DO UPDATE SET
			pm2_5 = EXCLUDED.pm2_5,
			pm10 = EXCLUDED.pm10,
			no2 = EXCLUDED.no2,
			co = EXCLUDED.co,
			o3 = EXCLUDED.o3,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		reading.StationID,
		reading.PM25,
		reading.PM10,
		reading.NO2,
		reading.CO,
		reading.O3,
		reading.ObservedAt,
	)
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
