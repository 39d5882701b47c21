package storage

import "fmt"

// migrate creates the dataset schema if it doesn't exist.
func (db *DB) migrate() error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	db.logger.Debug("database migrations applied", "count", len(migrations))
	return nil
}

var migrations = []string{
	// Station catalog, keyed by short name
	`CREATE TABLE IF NOT EXISTS stations (
		short_name TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		lat        REAL NOT NULL,
		lon        REAL NOT NULL,
		capacity   INTEGER NOT NULL DEFAULT 0
	)`,

	// Trip log. Station ids are not foreign keys: trips may name stations
	// missing from the catalog.
	`CREATE TABLE IF NOT EXISTS trips (
		seq              INTEGER PRIMARY KEY,
		ride_id          TEXT NOT NULL DEFAULT '',
		rideable_type    TEXT NOT NULL DEFAULT '',
		member           INTEGER NOT NULL DEFAULT 0,
		started_at       INTEGER NOT NULL,
		ended_at         INTEGER NOT NULL,
		start_station_id TEXT NOT NULL DEFAULT '',
		end_station_id   TEXT NOT NULL DEFAULT ''
	)`,

	// R-Tree spatial index on stations for nearby lookups
	`CREATE VIRTUAL TABLE IF NOT EXISTS stations_rtree USING rtree(
		id,
		min_lat, max_lat,
		min_lon, max_lon
	)`,

	// Dataset metadata (etag, last_modified, imported_at per source)
	`CREATE TABLE IF NOT EXISTS feed_metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_trips_start_station ON trips(start_station_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trips_end_station ON trips(end_station_id)`,
}
