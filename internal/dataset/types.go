package dataset

// StationFeed is the GBFS station_information document.
type StationFeed struct {
	LastUpdated int64 `json:"last_updated"`
	Data        struct {
		Stations []StationRecord `json:"stations"`
	} `json:"data"`
}

// StationRecord is one station as published. Only ShortName, Lat and Lon are required.
type StationRecord struct {
	StationID string  `json:"station_id"`
	ShortName string  `json:"short_name"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Capacity  int     `json:"capacity"`
}

// TripRecord is one CSV row of the trip log. Operators disagree on a few
// column names, so both spellings are mapped.
type TripRecord struct {
	RideID         string `csv:"ride_id"`
	RideableType   string `csv:"rideable_type"`
	BikeType       string `csv:"bike_type"`
	StartedAt      string `csv:"started_at"`
	EndedAt        string `csv:"ended_at"`
	StartStationID string `csv:"start_station_id"`
	EndStationID   string `csv:"end_station_id"`
	MemberCasual   string `csv:"member_casual"`
	IsMember       string `csv:"is_member"`
}
