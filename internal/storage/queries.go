package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bikeflow/internal/geo"
	"bikeflow/internal/traffic"
)

// GetMetadata retrieves a value from the feed_metadata table.
func (db *DB) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM feed_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetMetadata stores a key-value pair in the feed_metadata table.
func (db *DB) SetMetadata(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO feed_metadata (key, value) VALUES (?, ?)`,
		key, value)
	return err
}

// HasData reports whether both the station catalog and the trip log have rows.
func (db *DB) HasData(ctx context.Context) bool {
	stations, trips, err := db.Counts(ctx)
	return err == nil && stations > 0 && trips > 0
}

// Counts returns the number of imported stations and trips.
func (db *DB) Counts(ctx context.Context) (stations, trips int, err error) {
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stations`).Scan(&stations); err != nil {
		return 0, 0, fmt.Errorf("count stations: %w", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trips`).Scan(&trips); err != nil {
		return 0, 0, fmt.Errorf("count trips: %w", err)
	}
	return stations, trips, nil
}

// LoadStations returns the whole catalog in import order.
func (db *DB) LoadStations(ctx context.Context) ([]traffic.Station, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT short_name, name, lat, lon, capacity
		FROM stations
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("load stations query: %w", err)
	}
	defer rows.Close()

	var stations []traffic.Station
	for rows.Next() {
		var s traffic.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lon, &s.Capacity); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// LoadTrips returns the whole trip log in import order. Timestamps are
// stored as Unix milliseconds and returned in loc.
func (db *DB) LoadTrips(ctx context.Context, loc *time.Location) ([]traffic.Trip, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT ride_id, rideable_type, member, started_at, ended_at,
		       start_station_id, end_station_id
		FROM trips
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load trips query: %w", err)
	}
	defer rows.Close()

	var trips []traffic.Trip
	for rows.Next() {
		var t traffic.Trip
		var startedAt, endedAt int64
		if err := rows.Scan(&t.RideID, &t.RideableType, &t.Member, &startedAt, &endedAt,
			&t.StartStationID, &t.EndStationID); err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		t.StartedAt = time.UnixMilli(startedAt).In(loc)
		t.EndedAt = time.UnixMilli(endedAt).In(loc)
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// NearbyStationRow is a station inside a bounding box query.
type NearbyStationRow struct {
	ID             string
	Name           string
	Lat            float64
	Lon            float64
	DistanceMeters float64 // Computed after query via Haversine
}

// NearbyStations finds stations inside box using the R-Tree index, roughly
// nearest to (lat, lon) first. The caller should refine distances with
// geo.Haversine and re-sort.
func (db *DB) NearbyStations(ctx context.Context, lat, lon float64, box geo.Bounds, limit int) ([]NearbyStationRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT s.short_name, s.name, s.lat, s.lon
		FROM stations_rtree AS r
		JOIN stations AS s ON s.rowid = r.id
		WHERE r.min_lat >= ? AND r.max_lat <= ?
		  AND r.min_lon >= ? AND r.max_lon <= ?
		ORDER BY (s.lat - ?)*(s.lat - ?) + (s.lon - ?)*(s.lon - ?)
		LIMIT ?`,
		box.MinLat, box.MaxLat,
		box.MinLon, box.MaxLon,
		lat, lat, lon, lon,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("nearby stations query: %w", err)
	}
	defer rows.Close()

	var stations []NearbyStationRow
	for rows.Next() {
		var s NearbyStationRow
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lon); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// RebuildRTree repopulates the R-Tree index from the stations table.
func (db *DB) RebuildRTree(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM stations_rtree`); err != nil {
		return fmt.Errorf("clear rtree: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stations_rtree(id, min_lat, max_lat, min_lon, max_lon)
		 SELECT rowid, lat, lat, lon, lon FROM stations`); err != nil {
		return fmt.Errorf("populate rtree: %w", err)
	}
	return nil
}
