package sources

import (
	"context"

	"artikujt/internal/core"
)

// Fetcher retrieves the raw article sheet from a location (a URL for the CSV
// source, "<spreadsheet>!<range>" for Google Sheets, a name for memory).
type Fetcher interface {
	Fetch(ctx context.Context, location string) (core.RawTable, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, location string) (core.RawTable, error)

func (f FetcherFunc) Fetch(ctx context.Context, location string) (core.RawTable, error) {
	return f(ctx, location)
}
