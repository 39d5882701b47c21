package traffic

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidSelection is returned for a minute outside [0, 1439] that is not Unfiltered.
	ErrInvalidSelection = errors.New("invalid time selection")
	// ErrMissingTimestamp is returned when a trip time cannot be reduced to a time of day.
	ErrMissingTimestamp = errors.New("trip has no timestamp")
)

// Trip is one historical ride.
type Trip struct {
	RideID         string
	RideableType   string
	Member         bool
	StartedAt      time.Time
	EndedAt        time.Time
	StartStationID string
	EndStationID   string
}

// Station is a dock location from the catalog. ID is the station's short name.
type Station struct {
	ID       string
	Name     string
	Lat      float64
	Lon      float64
	Capacity int
}

// StationTraffic is a Station annotated with counts over some trip subset.
type StationTraffic struct {
	Station
	Arrivals     int
	Departures   int
	TotalTraffic int
}

// Selection is the slider state: a minute of the day, or Unfiltered.
type Selection int

const (
	// Unfiltered means no time window is applied.
	Unfiltered Selection = -1

	minutesPerDay = 24 * 60
)

// NewSelection validates a raw slider value.
func NewSelection(minute int) (Selection, error) {
	s := Selection(minute)
	if err := s.Validate(); err != nil {
		return Unfiltered, err
	}
	return s, nil
}

// Validate reports whether s is Unfiltered or a minute of the day.
func (s Selection) Validate() error {
	if s == Unfiltered || (s >= 0 && s < minutesPerDay) {
		return nil
	}
	return fmt.Errorf("%w: %d", ErrInvalidSelection, int(s))
}

// Filtered reports whether a time window applies.
func (s Selection) Filtered() bool {
	return s != Unfiltered
}

// String formats the selection as HH:MM, or "all" when unfiltered.
func (s Selection) String() string {
	if !s.Filtered() {
		return "all"
	}
	return fmt.Sprintf("%02d:%02d", int(s)/60, int(s)%60)
}
