package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sensor_readings (
		id        BIGSERIAL PRIMARY KEY,
		sensor_id TEXT NOT NULL,
		value     DOUBLE PRECISION NOT NULL,
		ts        TIMESTAMPTZ NOT NULL,
		lat       DOUBLE PRECISION,
		lon       DOUBLE PRECISION,
		type      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sensor_readings_sensor_ts ON sensor_readings (sensor_id, ts);
`

// PostgresRepository stores readings in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the readings table when missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Save(ctx context.Context, sensorID string, readings []Reading) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	insert := `
		INSERT INTO sensor_readings (sensor_id, value, ts, lat, lon, type)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, rd := range readings {
		var lat, lon *float64
		if rd.Location != nil {
			lat, lon = &rd.Location.Lat, &rd.Location.Lon
		}
		if _, err := tx.Exec(ctx, insert, sensorID, rd.Value, rd.Timestamp, lat, lon, rd.Type); err != nil {
			return fmt.Errorf("postgres: failed to save reading: %w", err)
		}
	}

	prune := `
		DELETE FROM sensor_readings
		WHERE sensor_id = $1 AND id NOT IN (
			SELECT id FROM sensor_readings WHERE sensor_id = $1 ORDER BY ts DESC, id DESC LIMIT $2
		)
	`
	if _, err := tx.Exec(ctx, prune, sensorID, MaxReadingsPerSensor); err != nil {
		return fmt.Errorf("postgres: failed to prune readings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: failed to commit readings: %w", err)
	}
	return nil
}

func (r *PostgresRepository) History(ctx context.Context, sensorID string, from, to *time.Time) ([]Reading, bool, error) {
	var known bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sensor_readings WHERE sensor_id = $1)`, sensorID).Scan(&known)
	if err != nil {
		return nil, false, fmt.Errorf("postgres: failed to check sensor: %w", err)
	}
	if !known {
		return nil, false, nil
	}

	query := `
		SELECT value, ts, lat, lon, type
		FROM sensor_readings
		WHERE sensor_id = $1
		  AND ($2::timestamptz IS NULL OR ts >= $2)
		  AND ($3::timestamptz IS NULL OR ts <= $3)
		ORDER BY ts, id
	`
	rows, err := r.pool.Query(ctx, query, sensorID, from, to)
	if err != nil {
		return nil, true, fmt.Errorf("postgres: failed to query readings: %w", err)
	}
	defer rows.Close()

	var results []Reading
	for rows.Next() {
		var (
			rd       Reading
			lat, lon *float64
		)
		if err := rows.Scan(&rd.Value, &rd.Timestamp, &lat, &lon, &rd.Type); err != nil {
			return nil, true, fmt.Errorf("postgres: failed to scan reading: %w", err)
		}
		rd.SensorID = sensorID
		if lat != nil && lon != nil {
			loc := geo.NewCoordinate(*lat, *lon)
			rd.Location = &loc
		}
		results = append(results, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, true, fmt.Errorf("postgres: failed to read rows: %w", err)
	}
	return results, true, nil
}

func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
