package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bikeflow/internal/storage"
)

// Sources names where the two datasets come from: http(s) URLs or local paths.
type Sources struct {
	Stations string
	Trips    string
}

// Scheduler manages dataset imports and the daily refresh.
type Scheduler struct {
	downloader  *Downloader
	importer    *Importer
	db          *storage.DB
	sources     Sources
	loc         *time.Location
	refreshHour int
	logger      *slog.Logger

	// onUpdate runs after every successful import.
	onUpdate func(context.Context) error

	mu            sync.Mutex
	lastCheckDate string // YYYY-MM-DD of last check, prevents multiple checks per day
}

// NewScheduler creates a Scheduler. The daily check runs at refreshHour in loc.
func NewScheduler(downloader *Downloader, db *storage.DB, sources Sources, loc *time.Location, refreshHour int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		downloader:  downloader,
		importer:    NewImporter(db, loc, logger),
		db:          db,
		sources:     sources,
		loc:         loc,
		refreshHour: refreshHour,
		logger:      logger,
	}
}

// OnUpdate registers fn to run after each successful import.
func (s *Scheduler) OnUpdate(fn func(context.Context) error) {
	s.onUpdate = fn
}

// EnsureData imports both datasets if the database is empty.
// Called on startup.
func (s *Scheduler) EnsureData(ctx context.Context) error {
	if s.db.HasData(ctx) {
		s.logger.Info("dataset already present")
		return nil
	}
	s.logger.Info("no dataset found, performing initial import")
	return s.update(ctx, false)
}

// Update fetches both datasets unconditionally and imports them.
func (s *Scheduler) Update(ctx context.Context) error {
	return s.update(ctx, false)
}

// CheckAndUpdate imports whichever dataset changed since the last import.
// Only checks once per calendar day.
func (s *Scheduler) CheckAndUpdate(ctx context.Context) error {
	s.mu.Lock()
	today := time.Now().In(s.loc).Format("2006-01-02")
	if s.lastCheckDate == today {
		s.mu.Unlock()
		return nil
	}
	s.lastCheckDate = today
	s.mu.Unlock()

	return s.update(ctx, true)
}

// StartBackground runs the daily check at the refresh hour.
// It blocks until the context is cancelled.
func (s *Scheduler) StartBackground(ctx context.Context) {
	s.logger.Info("dataset scheduler started")

	for {
		next := nextRefresh(time.Now().In(s.loc), s.refreshHour)
		s.logger.Info("next dataset check scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			if err := s.CheckAndUpdate(ctx); err != nil {
				s.logger.Error("background dataset update failed", "error", err)
			}
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("dataset scheduler stopped")
			return
		}
	}
}

// update fetches both sources concurrently and imports the ones that changed.
// With conditional false, stored validators are ignored.
func (s *Scheduler) update(ctx context.Context, conditional bool) error {
	var batch Batch

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := s.fetch(gctx, StationsName, s.sources.Stations, conditional)
		batch.Stations = f
		return err
	})
	g.Go(func() error {
		f, err := s.fetch(gctx, TripsName, s.sources.Trips, conditional)
		batch.Trips = f
		return err
	})
	err := g.Wait()
	defer cleanup(batch)
	if err != nil {
		return err
	}

	if batch.Stations == nil && batch.Trips == nil {
		s.logger.Info("datasets unchanged")
		return nil
	}
	if err := s.importer.Import(ctx, batch); err != nil {
		return err
	}
	if s.onUpdate != nil {
		if err := s.onUpdate(ctx); err != nil {
			return fmt.Errorf("reload after import: %w", err)
		}
	}
	return nil
}

// fetch returns nil without error when the source is unchanged.
func (s *Scheduler) fetch(ctx context.Context, name, src string, conditional bool) (*Fetched, error) {
	if src == "" {
		return nil, fmt.Errorf("%s: no source configured", name)
	}
	var lastModified, etag string
	if conditional {
		lastModified, _ = s.db.GetMetadata(ctx, name+".last_modified")
		etag, _ = s.db.GetMetadata(ctx, name+".etag")
	}

	f, err := s.downloader.Fetch(ctx, src, lastModified, etag)
	if errors.Is(err, ErrNotModified) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	return f, nil
}

func cleanup(b Batch) {
	for _, f := range []*Fetched{b.Stations, b.Trips} {
		if f != nil && f.Temporary {
			os.Remove(f.Path)
		}
	}
}

// nextRefresh returns the next occurrence of hour:00 strictly after now.
func nextRefresh(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
