// Package config reads service configuration from the environment.
package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	applog "artikujt/internal/log"
)

// Data sources
const (
	SourceCSV    = "csv"
	SourceSheets = "sheets"
	SourceMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port string

	// Logging
	LogLevel  string
	LogFormat string

	// Source selection
	DataSource string
	SheetURL   string

	// Loader
	FetchTimeout     time.Duration
	FetchMaxAttempts int
	FetchBackoff     time.Duration
	CacheTTL         time.Duration

	// Schema
	SchemaFile string

	// Memory source
	MemorySeedFile string

	// Google Sheets
	GoogleSpreadsheetID       string
	GoogleSheetRange          string
	GoogleServiceAccountJSON  string
	GoogleServiceAccountFile  string
	GoogleApplicationCredFile string

	// AMQP refresh broadcast, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string

	// Rate limiting
	RefreshPerMinute int
	// TrustedProxies are CIDRs whose forwarded headers name the client, in
	// addition to loopback and private ranges.
	TrustedProxies []string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataSource: strings.ToLower(getEnv("DATA_SOURCE", SourceCSV)),
		SheetURL:   strings.TrimSpace(getEnv("SHEET_URL", "")),

		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		FetchMaxAttempts: getEnvInt("FETCH_MAX_ATTEMPTS", 3),
		FetchBackoff:     getEnvDuration("FETCH_BACKOFF", 500*time.Millisecond),
		CacheTTL:         getEnvDuration("CACHE_TTL", 0),

		SchemaFile:     getEnv("SCHEMA_FILE", ""),
		MemorySeedFile: getEnv("MEMORY_SEED_FILE", ""),

		GoogleSpreadsheetID:       getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetRange:          getEnv("GOOGLE_SHEET_RANGE", "Sheet1!A:G"),
		GoogleServiceAccountJSON:  getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile:  getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleApplicationCredFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "artikujt.refresh"),

		RefreshPerMinute: getEnvInt("REFRESH_PER_MINUTE", 6),
		TrustedProxies:   getEnvList("TRUSTED_PROXIES"),
	}
}

// Validate returns every configuration problem in one error.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	switch c.DataSource {
	case SourceCSV:
		if c.SheetURL == "" {
			errors = append(errors, "SHEET_URL is required when using the csv source")
		} else if u, err := url.Parse(c.SheetURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid SHEET_URL '%s': %v", c.SheetURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid SHEET_URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	case SourceSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET_ID is required when using the sheets source")
		}
		if strings.TrimSpace(c.GoogleSheetRange) == "" {
			errors = append(errors, "GOOGLE_SHEET_RANGE cannot be empty when using the sheets source")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && c.GoogleApplicationCredFile == "" {
			errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for the sheets source")
		}
		if f := c.GoogleServiceAccountFile; f != "" {
			if _, err := os.Stat(f); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("service account file does not exist: %s", f))
			}
		}
	case SourceMemory:
		if f := c.MemorySeedFile; f != "" {
			if _, err := os.Stat(f); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("memory seed file does not exist: %s", f))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of [%s %s %s]", c.DataSource, SourceCSV, SourceSheets, SourceMemory))
	}

	if c.SchemaFile != "" {
		if _, err := os.Stat(c.SchemaFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("schema file does not exist: %s", c.SchemaFile))
		}
	}

	if c.FetchTimeout < 100*time.Millisecond || c.FetchTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be between 100ms and 5m", c.FetchTimeout))
	}
	if c.FetchMaxAttempts < 1 || c.FetchMaxAttempts > 10 {
		errors = append(errors, fmt.Sprintf("invalid fetch max attempts %d: must be between 1 and 10", c.FetchMaxAttempts))
	}
	if c.FetchBackoff <= 0 {
		errors = append(errors, fmt.Sprintf("invalid fetch backoff %v: must be positive", c.FetchBackoff))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be zero (no expiry) or positive", c.CacheTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RefreshPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid refresh rate %d: must be at least 1 per minute", c.RefreshPerMinute))
	}

	for _, cidr := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR such as 203.0.113.0/24", cidr))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// SourceLocation is the key the loader caches the sheet under.
func (c *Config) SourceLocation() string {
	switch c.DataSource {
	case SourceSheets:
		r := strings.TrimSpace(c.GoogleSheetRange)
		if r == "" {
			r = "Sheet1!A:G"
		}
		return c.GoogleSpreadsheetID + "!" + r
	case SourceMemory:
		return "memory://articles"
	default:
		return c.SheetURL
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
