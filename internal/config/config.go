package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration from environment variables.
type Config struct {
	Port        int
	DBPath      string
	DataDir     string // Where downloaded datasets are staged
	StationsURL string // GBFS station_information URL or local path
	TripsURL    string // Trip CSV URL or local path
	TZ          string // Zone trip times and the refresh hour are read in
	RefreshHour int
	CORSOrigins []string
	MapTiles    string // Leaflet tile URL template
	GeocoderURL string // Nominatim base URL for address lookups
	LogLevel    slog.Level

	TracingEnabled   bool
	MetricsEnabled   bool
	ProfilingEnabled bool

	ImportData bool // CLI flag: force dataset re-import
}

// LoadDotEnv reads .env then .env.local from dir. Values in .env.local win;
// missing files are ignored.
func LoadDotEnv(dir string) {
	_ = godotenv.Load(dir + "/.env")
	_ = godotenv.Overload(dir + "/.env.local")
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:        envInt("BIKEFLOW_PORT", 8080),
		DBPath:      envStr("BIKEFLOW_DB_PATH", "./bikeflow.db"),
		DataDir:     envStr("BIKEFLOW_DATA_DIR", "./data"),
		StationsURL: envStr("BIKEFLOW_STATIONS_URL", "https://gbfs.lyft.com/gbfs/1.1/bos/en/station_information.json"),
		TripsURL:    envStr("BIKEFLOW_TRIPS_URL", "./data/trips.csv"),
		TZ:          envStr("BIKEFLOW_TZ", "America/New_York"),
		RefreshHour: envInt("BIKEFLOW_REFRESH_HOUR", 3),
		CORSOrigins: envList("BIKEFLOW_CORS_ORIGINS", []string{"*"}),
		MapTiles:    envStr("BIKEFLOW_MAP_TILES", "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png"),
		GeocoderURL: envStr("BIKEFLOW_GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		LogLevel:    ParseLevel(os.Getenv("LOG_LEVEL")),

		TracingEnabled:   envBool("OTEL_TRACING_ENABLED", false),
		MetricsEnabled:   envBool("OTEL_METRICS_ENABLED", false),
		ProfilingEnabled: envBool("PYROSCOPE_PROFILING_ENABLED", false),
	}
}

// Location resolves TZ.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", c.TZ, err)
	}
	return loc, nil
}

// ParseLevel maps debug, info, warn/warning, error onto slog levels.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping empty entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
