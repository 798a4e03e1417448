package backend

import (
	"context"
	"fmt"

	applog "artikujt/internal/log"
	"artikujt/internal/sources/csvsource"
	"artikujt/internal/sources/google"
	"artikujt/internal/sources/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new source factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentSource),
	}
}

// CreateSource implements Factory.CreateSource
func (f *DefaultFactory) CreateSource(ctx context.Context, config Config) (*SourceResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVSource:
		return f.createCSVSource(config)
	case SheetsSource:
		return f.createSheetsSource(ctx, config)
	case MemorySource:
		return f.createMemorySource(config)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCSVSource(config Config) (*SourceResult, error) {
	client := csvsource.NewClient(nil, config.UserAgent)

	f.logger.Info("Initialized CSV source", applog.FieldSource, config.Type.String())

	return &SourceResult{
		Fetcher:  client,
		Location: config.SheetURL,
		Cleanup:  client.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsSource(ctx context.Context, config Config) (*SourceResult, error) {
	cli, err := google.New(ctx, google.Credentials{
		JSON: config.GoogleServiceAccountJSON,
		File: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	rng := config.GoogleSheetRange
	if rng == "" {
		rng = google.DefaultRange
	}

	f.logger.Info("Initialized Google Sheets source",
		applog.FieldSource, config.Type.String(),
		"range", rng)

	return &SourceResult{
		Fetcher:  cli,
		Location: google.Location(config.GoogleSpreadsheetID, rng),
	}, nil
}

func (f *DefaultFactory) createMemorySource(config Config) (*SourceResult, error) {
	store, err := memory.NewFromFile(memory.DefaultLocation, config.MemorySeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory source: %w", err)
	}

	f.logger.Info("Initialized memory source",
		applog.FieldSource, config.Type.String(),
		"seed_file", config.MemorySeedFile)

	return &SourceResult{
		Fetcher:  store,
		Location: memory.DefaultLocation,
	}, nil
}
