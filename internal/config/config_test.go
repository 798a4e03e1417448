package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"artikujt/internal/core"
)

func validCSVConfig() Config {
	return Config{
		Port:             "8081",
		LogLevel:         "info",
		LogFormat:        "text",
		DataSource:       SourceCSV,
		SheetURL:         "https://docs.google.com/spreadsheets/d/e/x/pub?output=csv",
		FetchTimeout:     15 * time.Second,
		FetchMaxAttempts: 3,
		FetchBackoff:     500 * time.Millisecond,
		AMQPExchange:     "artikujt.refresh",
		RefreshPerMinute: 6,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid csv config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "valid memory config without seed",
			mutate:  func(c *Config) { c.DataSource = SourceMemory; c.SheetURL = "" },
			wantErr: false,
		},
		{
			name:        "missing sheet url",
			mutate:      func(c *Config) { c.SheetURL = "" },
			wantErr:     true,
			errorString: "SHEET_URL is required when using the csv source",
		},
		{
			name:        "sheet url with wrong scheme",
			mutate:      func(c *Config) { c.SheetURL = "ftp://example.com/a.csv" },
			wantErr:     true,
			errorString: "invalid SHEET_URL scheme 'ftp'",
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid data source",
			mutate:      func(c *Config) { c.DataSource = "sqlite" },
			wantErr:     true,
			errorString: "invalid data source 'sqlite'",
		},
		{
			name:        "sheets source without spreadsheet or credentials",
			mutate:      func(c *Config) { c.DataSource = SourceSheets },
			wantErr:     true,
			errorString: "GOOGLE_SPREADSHEET_ID is required",
		},
		{
			name:        "invalid amqp scheme",
			mutate:      func(c *Config) { c.AMQPURL = "http://localhost:5672" },
			wantErr:     true,
			errorString: "invalid AMQP URL scheme 'http'",
		},
		{
			name:        "negative cache ttl",
			mutate:      func(c *Config) { c.CacheTTL = -time.Second },
			wantErr:     true,
			errorString: "invalid cache TTL",
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "trusted proxy without prefix length",
			mutate:      func(c *Config) { c.TrustedProxies = []string{"203.0.113.0/24", "198.51.100.1"} },
			wantErr:     true,
			errorString: "invalid trusted proxy '198.51.100.1'",
		},
		{
			name:        "too many attempts",
			mutate:      func(c *Config) { c.FetchMaxAttempts = 50 },
			wantErr:     true,
			errorString: "invalid fetch max attempts 50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validCSVConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errorString) {
				t.Fatalf("Validate() error = %v, want it to contain %q", err, tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validCSVConfig()
	cfg.Port = "x"
	cfg.SheetURL = ""
	cfg.RefreshPerMinute = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if got := strings.Count(err.Error(), "\n- "); got != 3 {
		t.Fatalf("expected 3 problems, got %d: %v", got, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATA_SOURCE", "SHEET_URL", "CACHE_TTL", "FETCH_TIMEOUT", "AMQP_URL", "GOOGLE_SHEET_RANGE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8081" || cfg.DataSource != SourceCSV {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.CacheTTL != 0 || cfg.FetchTimeout != 15*time.Second {
		t.Fatalf("unexpected loader defaults: ttl=%v timeout=%v", cfg.CacheTTL, cfg.FetchTimeout)
	}
	if cfg.AMQPURL != "" {
		t.Fatalf("AMQP should be disabled by default, got %q", cfg.AMQPURL)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATA_SOURCE", "Sheets")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "abc")
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("FETCH_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("TRUSTED_PROXIES", " 203.0.113.0/24, ,2001:db8::/32 ")

	cfg := Load()
	if cfg.DataSource != SourceSheets {
		t.Fatalf("data source = %q", cfg.DataSource)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Fatalf("cache ttl = %v", cfg.CacheTTL)
	}
	if cfg.FetchMaxAttempts != 3 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.FetchMaxAttempts)
	}
	if got := strings.Join(cfg.TrustedProxies, "|"); got != "203.0.113.0/24|2001:db8::/32" {
		t.Fatalf("trusted proxies = %q", got)
	}
	if got := cfg.SourceLocation(); got != "abc!Sheet1!A:G" {
		t.Fatalf("source location = %q", got)
	}
}

func TestLoadSchema_Defaults(t *testing.T) {
	schema, order, err := LoadSchema("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.Renames["Authos"] != "Author" {
		t.Fatalf("default renames missing: %v", schema.Renames)
	}
	if len(order) != 12 || order[0] != "Janar" {
		t.Fatalf("unexpected default order: %v", order)
	}
}

func TestLoadSchema_File(t *testing.T) {
	doc := `
renames:
  " Autori ": Author
month_order: [January, February, March, April, May, June, July, August, September, October, November, December]
required_columns: [Year, Month, Name of article]
`
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	schema, order, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.Renames["Autori"] != "Author" || schema.Renames["Authos"] != "Author" {
		t.Fatalf("renames not merged: %v", schema.Renames)
	}
	if order[10] != "November" {
		t.Fatalf("month order not replaced: %v", order)
	}
	want := []core.Column{core.ColumnYear, core.ColumnMonth, core.ColumnTitle}
	if len(schema.Required) != len(want) {
		t.Fatalf("required = %v", schema.Required)
	}
	for i := range want {
		if schema.Required[i] != want[i] {
			t.Fatalf("required = %v", schema.Required)
		}
	}
}

func TestParseSchema_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"short month order":   "month_order: [Janar, Shkurt]",
		"duplicate months":    "month_order: [a, a, b, c, d, e, f, g, h, i, j, k]",
		"unknown column":      "required_columns: [Year, Publisher]",
		"malformed yaml":      "renames: [unterminated",
		"empty rename target": "renames: {Autori: ''}",
	} {
		t.Run(name, func(t *testing.T) {
			if _, _, err := ParseSchema([]byte(doc)); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}
