package history

import (
	"context"
	"database/sql"

	"github.com/naikprasanna/Plant-Monitoring/src/helpers"
	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------
// PostgresProvider serves historical readings from a shared Postgres
// instance, for deployments where several collectors feed one database.
// Same contract as the SQLite provider; only placeholders and column types
// differ.
// -----------------------------------------------------------------------------

type PostgresProvider struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresProvider(cfg *models.MConfig, log *logger.Logger) (*PostgresProvider, error) {
	return &PostgresProvider{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresProvider) Name() string {
	return "postgres"
}

// -----------------------------------------------------------------------------

func (d *PostgresProvider) Initialize() error {
	db, err := sql.Open("postgres", d.Config.History.DBConnectionString)
	if err != nil {
		return helpers.NewDatabaseError("failed to open postgres connection", err)
	}

	if err := db.Ping(); err != nil {
		return helpers.NewDatabaseError("failed to reach postgres", err)
	}

	d.DB = db

	if err := d.ensureTables(); err != nil {
		return err
	}
	return d.EnsureSensor()
}

// -----------------------------------------------------------------------------

func (d *PostgresProvider) ensureTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS readings (
			sensor_id TEXT,
			ts_ms BIGINT,
			value DOUBLE PRECISION,
			PRIMARY KEY (sensor_id, ts_ms)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("failed to create readings table", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// FetchRange mirrors the SQLite provider: integer-division bucketing with
// per-bucket averages, strictly increasing output.
func (d *PostgresProvider) FetchRange(ctx context.Context, startMs, endMs, bucketMs int64) (models.MSeries, error) {
	if bucketMs < 1 {
		bucketMs = 1
	}

	query := `
		SELECT (ts_ms / $1) * $1 AS bucket_ts, AVG(value) AS value
		FROM readings
		WHERE sensor_id = $2 AND ts_ms >= $3 AND ts_ms < $4
		GROUP BY ts_ms / $1
		ORDER BY bucket_ts;
	`
	rows, err := d.DB.QueryContext(ctx, query, bucketMs, d.Config.Sensor.ID, startMs, endMs)
	if err != nil {
		return nil, helpers.NewDatabaseError("failed to query readings", err)
	}
	defer rows.Close()

	var series models.MSeries
	for rows.Next() {
		var p models.MSensorPoint
		if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
			return nil, helpers.NewDatabaseError("failed to scan reading row", err)
		}
		series = append(series, p)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("failed to iterate reading rows", err)
	}

	d.Logger.Debug("Fetched %d buckets for [%d,%d) bucket=%dms", len(series), startMs, endMs, bucketMs)
	return series, nil
}

// -----------------------------------------------------------------------------

// InsertReadings bulk-writes raw readings for the configured sensor.
func (d *PostgresProvider) InsertReadings(points models.MSeries) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO readings (sensor_id, ts_ms, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (sensor_id, ts_ms) DO UPDATE SET
			value = excluded.value
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(d.Config.Sensor.ID, p.Timestamp, p.Value); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresProvider) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
