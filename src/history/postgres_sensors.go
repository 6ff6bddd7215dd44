package history

import (
	"time"

	"github.com/naikprasanna/Plant-Monitoring/src/helpers"
)

// Info: Separate file for sensor registration logic specific to Postgres

// -----------------------------------------------------------------------------

// EnsureSensor registers the configured sensor in the shared sensors table,
// updating its thresholds when they changed. Collectors writing into the same
// database use this table to discover what they feed.
func (d *PostgresProvider) EnsureSensor() error {
	query := `
		CREATE TABLE IF NOT EXISTS sensors (
			sensor_id TEXT PRIMARY KEY,
			unit TEXT,
			upper_threshold DOUBLE PRECISION,
			lower_threshold DOUBLE PRECISION,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("failed to create sensors table", err)
	}

	upsert := `
		INSERT INTO sensors (sensor_id, unit, upper_threshold, lower_threshold, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (sensor_id) DO UPDATE SET
			unit = EXCLUDED.unit,
			upper_threshold = EXCLUDED.upper_threshold,
			lower_threshold = EXCLUDED.lower_threshold,
			updated_at = EXCLUDED.updated_at
	`
	s := d.Config.Sensor
	if _, err := d.DB.Exec(upsert, s.ID, s.Unit, s.UpperThreshold, s.LowerThreshold, time.Now().UTC()); err != nil {
		return helpers.NewDatabaseError("failed to register sensor", err)
	}

	d.Logger.Info("Registered sensor %s (unit=%s)", s.ID, s.Unit)
	return nil
}
