package backend

import (
	"errors"
	"fmt"
	"strings"

	"artikujt/internal/config"
)

// SourceType names where the article sheet comes from.
type SourceType string

const (
	CSVSource    SourceType = config.SourceCSV
	SheetsSource SourceType = config.SourceSheets
	MemorySource SourceType = config.SourceMemory
)

func (t SourceType) String() string {
	return string(t)
}

// IsValid returns true if the source type is known
func (t SourceType) IsValid() bool {
	switch t {
	case CSVSource, SheetsSource, MemorySource:
		return true
	default:
		return false
	}
}

// Config holds what a single source needs.
type Config struct {
	Type SourceType

	// CSV
	SheetURL  string
	UserAgent string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetRange         string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory
	MemorySeedFile string
}

// FromAppConfig converts the application config to source config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	t := SourceType(appConfig.DataSource)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid data source in config: %s (must be one of %s)",
			appConfig.DataSource, strings.Join(GetSourceTypeStrings(), ", "))
	}

	credFile := appConfig.GoogleServiceAccountFile
	if credFile == "" {
		credFile = appConfig.GoogleApplicationCredFile
	}

	return Config{
		Type:                     t,
		SheetURL:                 appConfig.SheetURL,
		UserAgent:                "artikujt/1.0",
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetRange:         appConfig.GoogleSheetRange,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: credFile,
		MemorySeedFile:           appConfig.MemorySeedFile,
	}, nil
}

// Validate validates the source configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid source type: %s (must be one of %s)",
			c.Type, strings.Join(GetSourceTypeStrings(), ", "))
	}

	switch c.Type {
	case CSVSource:
		if strings.TrimSpace(c.SheetURL) == "" {
			return errors.New("sheet URL is required for csv source")
		}
	case SheetsSource:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets source")
		}
	case MemorySource:
		// The built-in sample is used without a seed file.
	}
	return nil
}

// GetSourceTypeStrings returns all valid source type strings
func GetSourceTypeStrings() []string {
	types := []SourceType{CSVSource, SheetsSource, MemorySource}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
