package traffic

import (
	"fmt"
	"time"
)

// WindowMinutes is the half-width of the time window around a selection.
const WindowMinutes = 60

// MinuteOfDay returns minutes since midnight on t's own wall clock.
func MinuteOfDay(t time.Time) (int, error) {
	if t.IsZero() {
		return 0, ErrMissingTimestamp
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Filter returns the trips that start or end within WindowMinutes of sel.
// Unfiltered returns trips unchanged. Minutes do not wrap across midnight:
// a trip starting at 23:50 is not near a selection of 00:10.
func Filter(trips []Trip, sel Selection) ([]Trip, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	if !sel.Filtered() {
		return trips, nil
	}

	m := int(sel)
	var kept []Trip
	for i, t := range trips {
		start, err := MinuteOfDay(t.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("trip %d (%s) start: %w", i, t.RideID, err)
		}
		end, err := MinuteOfDay(t.EndedAt)
		if err != nil {
			return nil, fmt.Errorf("trip %d (%s) end: %w", i, t.RideID, err)
		}
		if withinWindow(start, m) || withinWindow(end, m) {
			kept = append(kept, t)
		}
	}
	return kept, nil
}

func withinWindow(minute, selected int) bool {
	return abs(minute-selected) <= WindowMinutes
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
