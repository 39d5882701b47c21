package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"bikeflow/internal/storage"
	"bikeflow/internal/traffic"
)

// Metadata key names for the two datasets.
const (
	StationsName = "stations"
	TripsName    = "trips"
)

// Batch is one import run. A nil entry keeps the table already stored.
type Batch struct {
	Stations *Fetched
	Trips    *Fetched
}

// Importer loads the station catalog and trip log into SQLite.
type Importer struct {
	db     *storage.DB
	loc    *time.Location
	logger *slog.Logger
}

// NewImporter creates an Importer. Trip times without a zone are read in loc.
func NewImporter(db *storage.DB, loc *time.Location, logger *slog.Logger) *Importer {
	return &Importer{db: db, loc: loc, logger: logger}
}

// Import replaces the tables named in b. The whole batch runs in a single
// transaction, so a malformed row leaves the previous data untouched.
func (imp *Importer) Import(ctx context.Context, b Batch) error {
	if b.Stations == nil && b.Trips == nil {
		return nil
	}
	start := time.Now()

	tx, err := imp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stations, trips := -1, -1
	if b.Stations != nil {
		if stations, err = imp.importStations(ctx, tx, b.Stations.Path); err != nil {
			return err
		}
		if err := imp.db.RebuildRTree(ctx, tx); err != nil {
			return fmt.Errorf("rebuild rtree: %w", err)
		}
		if err := setFetchMetadata(ctx, tx, StationsName, b.Stations); err != nil {
			return err
		}
	}
	if b.Trips != nil {
		if trips, err = imp.importTrips(ctx, tx, b.Trips.Path); err != nil {
			return err
		}
		if err := setFetchMetadata(ctx, tx, TripsName, b.Trips); err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := setMetadata(ctx, tx, "imported_at", now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	imp.logger.Info("dataset import complete",
		"duration", time.Since(start).Round(time.Millisecond),
		"stations", stations,
		"trips", trips,
	)
	return nil
}

func (imp *Importer) importStations(ctx context.Context, tx *sql.Tx, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open stations: %w", err)
	}
	defer f.Close()

	stations, err := ParseStations(f, imp.logger)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM stations`); err != nil {
		return 0, fmt.Errorf("clear stations: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stations (short_name, name, lat, lon, capacity) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare stations: %w", err)
	}
	defer stmt.Close()

	for _, s := range stations {
		if _, err := stmt.ExecContext(ctx, s.ID, s.Name, s.Lat, s.Lon, s.Capacity); err != nil {
			return 0, fmt.Errorf("insert station %s: %w", s.ID, err)
		}
	}
	imp.logger.Info("imported stations", "count", len(stations))
	return len(stations), nil
}

// importTrips streams the CSV straight into the trips table.
func (imp *Importer) importTrips(ctx context.Context, tx *sql.Tx, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open trips: %w", err)
	}
	defer f.Close()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trips`); err != nil {
		return 0, fmt.Errorf("clear trips: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trips (ride_id, rideable_type, member, started_at, ended_at,
		 start_station_id, end_station_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare trips: %w", err)
	}
	defer stmt.Close()

	count := 0
	err = EachTrip(f, imp.loc, func(t traffic.Trip) error {
		if _, err := stmt.ExecContext(ctx, t.RideID, t.RideableType, t.Member,
			t.StartedAt.UnixMilli(), t.EndedAt.UnixMilli(),
			t.StartStationID, t.EndStationID); err != nil {
			return fmt.Errorf("insert trip %s: %w", t.RideID, err)
		}
		count++
		if count%500000 == 0 {
			imp.logger.Info("importing trips", "rows", count)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("import trips: %w", err)
	}

	imp.logger.Info("imported trips", "count", count)
	return count, nil
}

func setFetchMetadata(ctx context.Context, tx *sql.Tx, name string, f *Fetched) error {
	if err := setMetadata(ctx, tx, name+".last_modified", f.LastModified); err != nil {
		return err
	}
	return setMetadata(ctx, tx, name+".etag", f.ETag)
}

func setMetadata(ctx context.Context, tx *sql.Tx, key, value string) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO feed_metadata (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
