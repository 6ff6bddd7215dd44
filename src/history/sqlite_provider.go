package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/naikprasanna/Plant-Monitoring/src/helpers"
	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------
// SQLiteProvider serves historical readings from a local SQLite file. The
// readings table is the durable source of truth, so initialization only
// ensures the schema; nothing is ever dropped.
// -----------------------------------------------------------------------------

type SQLiteProvider struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteProvider(cfg *models.MConfig, log *logger.Logger) (*SQLiteProvider, error) {
	return &SQLiteProvider{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteProvider) Name() string {
	return "sqlite"
}

// -----------------------------------------------------------------------------

func (d *SQLiteProvider) Initialize() error {
	dsn := d.Config.History.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("failed to open sqlite db '%s'", dsn), err)
	}

	if err := db.Ping(); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("failed to reach sqlite db '%s'", dsn), err)
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.ensureTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteProvider) ensureTables() error {
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	query := `
		CREATE TABLE IF NOT EXISTS readings (
			sensor_id TEXT,
			ts_ms INTEGER,
			value REAL,
			PRIMARY KEY (sensor_id, ts_ms)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("failed to create readings table", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// FetchRange aggregates readings in [startMs, endMs) into bucketMs buckets.
// Buckets align to integer multiples of bucketMs and carry the average value
// of their members; empty buckets simply do not appear. The GROUP BY keeps
// the output strictly increasing by construction.
func (d *SQLiteProvider) FetchRange(ctx context.Context, startMs, endMs, bucketMs int64) (models.MSeries, error) {
	if bucketMs < 1 {
		bucketMs = 1
	}

	query := `
		SELECT (ts_ms / ?) * ? AS bucket_ts, AVG(value) AS value
		FROM readings
		WHERE sensor_id = ? AND ts_ms >= ? AND ts_ms < ?
		GROUP BY ts_ms / ?
		ORDER BY bucket_ts;
	`
	rows, err := d.DB.QueryContext(ctx, query, bucketMs, bucketMs, d.Config.Sensor.ID, startMs, endMs, bucketMs)
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

// InsertReadings bulk-writes raw readings for the configured sensor. Used by
// the seeding harness and tests; the engine itself never writes its window
// back.
func (d *SQLiteProvider) InsertReadings(points models.MSeries) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO readings (sensor_id, ts_ms, value)
		VALUES (?, ?, ?)
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

func (d *SQLiteProvider) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
