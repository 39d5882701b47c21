package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"BIKEFLOW_PORT", "BIKEFLOW_TZ", "BIKEFLOW_REFRESH_HOUR", "BIKEFLOW_CORS_ORIGINS", "LOG_LEVEL", "OTEL_TRACING_ENABLED"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.TZ != "America/New_York" || cfg.RefreshHour != 3 {
		t.Errorf("TZ/RefreshHour = %s/%d", cfg.TZ, cfg.RefreshHour)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"*"}) {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.TracingEnabled {
		t.Errorf("LogLevel = %v, TracingEnabled = %v", cfg.LogLevel, cfg.TracingEnabled)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("BIKEFLOW_PORT", "9090")
	t.Setenv("BIKEFLOW_REFRESH_HOUR", "not-a-number")
	t.Setenv("BIKEFLOW_CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("OTEL_METRICS_ENABLED", "true")

	cfg := Load()
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.RefreshHour != 3 {
		t.Errorf("RefreshHour = %d, want fallback 3", cfg.RefreshHour)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.CORSOrigins, want)
	}
	if cfg.LogLevel != slog.LevelDebug || !cfg.MetricsEnabled {
		t.Errorf("LogLevel = %v, MetricsEnabled = %v", cfg.LogLevel, cfg.MetricsEnabled)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{TZ: "UTC"}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("Location() = %v, %v", loc, err)
	}
	cfg.TZ = "Mars/Olympus_Mons"
	if _, err := cfg.Location(); err == nil {
		t.Error("Location() with unknown zone should fail")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".env"), []byte("BIKEFLOW_PORT=7000\nBIKEFLOW_TZ=UTC\n"), 0644)
	os.WriteFile(filepath.Join(dir, ".env.local"), []byte("BIKEFLOW_PORT=7001\n"), 0644)

	// Registers cleanup that restores the variables after the test.
	t.Setenv("BIKEFLOW_PORT", "")
	t.Setenv("BIKEFLOW_TZ", "")
	os.Unsetenv("BIKEFLOW_PORT")
	os.Unsetenv("BIKEFLOW_TZ")

	LoadDotEnv(dir)
	cfg := Load()
	if cfg.Port != 7001 {
		t.Errorf("Port = %d, want .env.local override 7001", cfg.Port)
	}
	if cfg.TZ != "UTC" {
		t.Errorf("TZ = %q, want UTC from .env", cfg.TZ)
	}
}
