package backend

import (
	"context"

	"artikujt/internal/sources"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// SourceResult is the fetcher for the configured source and the location
// the loader should ask it for.
type SourceResult struct {
	Fetcher  sources.Fetcher
	Location string
	Cleanup  CleanupFunc
}

// Factory creates article sources based on configuration
type Factory interface {
	CreateSource(ctx context.Context, config Config) (*SourceResult, error)
}
