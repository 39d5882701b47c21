package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"bikeflow/internal/traffic"
)

// timestampLayouts are tried in order when parsing trip times.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339Nano,
	time.RFC3339,
}

// ParseTimestamp parses a trip time. Layouts without a zone are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseStations decodes a GBFS station_information document. Stations
// without a short name are skipped; a repeated short name keeps the first.
func ParseStations(r io.Reader, logger *slog.Logger) ([]traffic.Station, error) {
	var feed StationFeed
	if err := json.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode stations: %w", err)
	}

	seen := make(map[string]bool, len(feed.Data.Stations))
	stations := make([]traffic.Station, 0, len(feed.Data.Stations))
	skipped := 0
	for _, rec := range feed.Data.Stations {
		id := strings.TrimSpace(rec.ShortName)
		if id == "" || seen[id] {
			skipped++
			continue
		}
		seen[id] = true
		stations = append(stations, traffic.Station{
			ID:       id,
			Name:     rec.Name,
			Lat:      rec.Lat,
			Lon:      rec.Lon,
			Capacity: rec.Capacity,
		})
	}
	if skipped > 0 {
		logger.Warn("stations skipped", "reason", "missing or duplicate short_name", "count", skipped)
	}
	return stations, nil
}

// EachTrip decodes the trip CSV row by row and calls fn for each trip. Any
// malformed timestamp aborts with the offending row number.
func EachTrip(r io.Reader, loc *time.Location, fn func(traffic.Trip) error) error {
	s, err := NewCSVStreamer[TripRecord](r)
	if err != nil {
		return err
	}

	for row := 2; ; row++ { // row 1 is the header
		var rec TripRecord
		if err := s.Next(&rec); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		t, err := rec.Trip(loc)
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		if err := fn(t); err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
	}
}

// Trip converts a CSV record into a core trip.
func (rec TripRecord) Trip(loc *time.Location) (traffic.Trip, error) {
	start, err := ParseTimestamp(rec.StartedAt, loc)
	if err != nil {
		return traffic.Trip{}, fmt.Errorf("started_at: %w", err)
	}
	end, err := ParseTimestamp(rec.EndedAt, loc)
	if err != nil {
		return traffic.Trip{}, fmt.Errorf("ended_at: %w", err)
	}

	rideable := rec.RideableType
	if rideable == "" {
		rideable = rec.BikeType
	}
	member := strings.EqualFold(rec.MemberCasual, "member")
	switch strings.ToLower(strings.TrimSpace(rec.IsMember)) {
	case "1", "true", "t", "yes":
		member = true
	}

	return traffic.Trip{
		RideID:         rec.RideID,
		RideableType:   rideable,
		Member:         member,
		StartedAt:      start,
		EndedAt:        end,
		StartStationID: strings.TrimSpace(rec.StartStationID),
		EndStationID:   strings.TrimSpace(rec.EndStationID),
	}, nil
}

// CSVStreamer yields one decoded record at a time. Used for the trip log so
// large files never have to be held as raw rows.
type CSVStreamer struct {
	reader   *csv.Reader
	fieldMap []fieldMapping
}

type fieldMapping struct {
	csvIndex   int
	fieldIndex int
}

// NewCSVStreamer reads the header and maps columns onto T's csv tags.
func NewCSVStreamer[T any](r io.Reader) (*CSVStreamer, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	// Strip BOM from first field if present
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\xef\xbb\xbf")
	}

	return &CSVStreamer{
		reader:   reader,
		fieldMap: buildFieldMap[T](header),
	}, nil
}

// Next reads the next record into out. Returns io.EOF when done.
func (s *CSVStreamer) Next(out any) error {
	record, err := s.reader.Read()
	if err != nil {
		return err
	}
	v := reflect.ValueOf(out).Elem()
	for _, fm := range s.fieldMap {
		if fm.csvIndex < len(record) {
			v.Field(fm.fieldIndex).SetString(record[fm.csvIndex])
		}
	}
	return nil
}

// buildFieldMap creates a mapping from CSV column positions to struct field positions.
func buildFieldMap[T any](header []string) []fieldMapping {
	var t T
	typ := reflect.TypeOf(t)

	tagToField := make(map[string]int)
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("csv"); tag != "" {
			tagToField[tag] = i
		}
	}

	var mappings []fieldMapping
	for csvIdx, colName := range header {
		colName = strings.ToLower(strings.TrimSpace(colName))
		if fieldIdx, ok := tagToField[colName]; ok {
			mappings = append(mappings, fieldMapping{csvIndex: csvIdx, fieldIndex: fieldIdx})
		}
	}
	return mappings
}
