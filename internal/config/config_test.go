package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Ingest.HeaderRow != 0 {
		t.Errorf("Ingest.HeaderRow = %d, want 0", cfg.Ingest.HeaderRow)
	}
	if cfg.Ingest.MaxFileSize != 104857600 {
		t.Errorf("Ingest.MaxFileSize = %d, want %d", cfg.Ingest.MaxFileSize, 104857600)
	}
	if cfg.Mapping.File != "TheaterMapping_v2.csv" {
		t.Errorf("Mapping.File = %q, want %q", cfg.Mapping.File, "TheaterMapping_v2.csv")
	}
	if cfg.Availability.CutoffDays != 0 {
		t.Errorf("Availability.CutoffDays = %d, want 0", cfg.Availability.CutoffDays)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("SHEET_HEADER_ROW", "3")
	os.Setenv("AVAILABILITY_CUTOFF_DAYS", "2")
	os.Setenv("LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("SHEET_HEADER_ROW")
		os.Unsetenv("AVAILABILITY_CUTOFF_DAYS")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Ingest.HeaderRow != 3 {
		t.Errorf("Ingest.HeaderRow = %d, want 3", cfg.Ingest.HeaderRow)
	}
	if cfg.Availability.CutoffDays != 2 {
		t.Errorf("Availability.CutoffDays = %d, want 2", cfg.Availability.CutoffDays)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	// DB_URL works as fallback for DATABASE_URL
	os.Setenv("DB_URL", "postgres://localhost/alttest")
	defer os.Unsetenv("DB_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.URL != "postgres://localhost/alttest" {
		t.Errorf("Database.URL = %q, want %q", cfg.Database.URL, "postgres://localhost/alttest")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("DB_URL")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for missing DATABASE_URL, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "negative header row",
			env:  map[string]string{"SHEET_HEADER_ROW": "-1"},
		},
		{
			name: "port out of range",
			env:  map[string]string{"SERVER_PORT": "70000"},
		},
		{
			name: "bad duration",
			env:  map[string]string{"SERVER_READ_TIMEOUT": "soon"},
		},
		{
			name: "advance window below cutoff",
			env: map[string]string{
				"AVAILABILITY_CUTOFF_DAYS":      "30",
				"AVAILABILITY_MAX_ADVANCE_DAYS": "7",
			},
		},
		{
			name: "bogus log level",
			env:  map[string]string{"LOG_LEVEL": "loud"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("DATABASE_URL", "postgres://localhost/test")
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			defer func() {
				os.Unsetenv("DATABASE_URL")
				for k := range tt.env {
					os.Unsetenv(k)
				}
			}()

			if _, err := Load(); err == nil {
				t.Errorf("Load() expected error, got nil")
			}
		})
	}
}

func TestServerConfig_Addr(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 9000}
	if got := c.Addr(); got != "127.0.0.1:9000" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:9000")
	}

	c = ServerConfig{Host: "", Port: 8080}
	if got := c.Addr(); got != ":8080" {
		t.Errorf("Addr() = %q, want %q", got, ":8080")
	}
}

func TestLoad_Durations(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("SERVER_SHUTDOWN_TIMEOUT", "45s")
	defer func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("SERVER_SHUTDOWN_TIMEOUT")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ShutdownTimeout != 45*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 45s", cfg.Server.ShutdownTimeout)
	}
}
