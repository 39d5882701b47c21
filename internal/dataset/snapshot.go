package dataset

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bikeflow/internal/storage"
	"bikeflow/internal/traffic"
)

// LoadEngine reads the catalog and trip log from db in parallel and builds a
// snapshot. Trip times are returned in loc.
func LoadEngine(ctx context.Context, db *storage.DB, loc *time.Location) (*traffic.Engine, error) {
	var (
		stations []traffic.Station
		trips    []traffic.Trip
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stations, err = db.LoadStations(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		trips, err = db.LoadTrips(gctx, loc)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("load dataset: %w", traffic.ErrNotLoaded)
	}
	return traffic.NewEngine(stations, trips), nil
}

// Reload builds a fresh snapshot and publishes it to holder.
func Reload(ctx context.Context, db *storage.DB, loc *time.Location, holder *traffic.Holder) error {
	e, err := LoadEngine(ctx, db, loc)
	if err != nil {
		return err
	}
	holder.Set(e)
	return nil
}
