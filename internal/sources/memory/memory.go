// Package memory is an in-process article source for local development and tests.
package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"artikujt/internal/core"
	"artikujt/internal/sources"
	"artikujt/internal/sources/csvsource"
)

// DefaultLocation is the key used when the store is seeded without a name.
const DefaultLocation = "memory://articles"

type Store struct {
	mu     sync.RWMutex
	tables map[string]core.RawTable
	calls  int
}

var _ sources.Fetcher = (*Store)(nil)

func New() *Store {
	return &Store{tables: make(map[string]core.RawTable)}
}

// NewFromFile seeds location with the CSV document at path. A blank path
// seeds the built-in sample sheet instead.
func NewFromFile(location, path string) (*Store, error) {
	s := New()
	if path == "" {
		s.Put(location, Sample())
		return s, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	rt, err := csvsource.Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	s.Put(location, rt)
	return s, nil
}

// Put replaces the table stored under location.
func (s *Store) Put(location string, rt core.RawTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[location] = rt.Clone()
}

// Fetch returns a copy of the table stored under location.
func (s *Store) Fetch(ctx context.Context, location string) (core.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return core.RawTable{}, &core.FetchError{URL: location, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	rt, ok := s.tables[location]
	if !ok {
		return core.RawTable{}, &core.FetchError{URL: location, Err: core.ErrUnknownLocation}
	}
	return rt.Clone(), nil
}

// Calls reports how many times Fetch was invoked.
func (s *Store) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// Sample returns a small sheet in the source's raw shape, including the
// misspelled headers the normalizer repairs.
func Sample() core.RawTable {
	return core.RawTable{
		Header: []string{"Year", "Language", "Month", "Name of article", "Link_for_docs:", "Field", "Authos"},
		Rows: [][]string{
			{"2024", "Shqip", "Janar", "Hyrje në Go", "https://example.com/go", "Programim", "Arta Krasniqi"},
			{"2024", "English", "Shkurt", "Designing CSV pipelines", "https://example.com/csv", "Data", "Dren Hoxha"},
			{"2024", "Shqip", "Shkurt", "Rrjetet neurale", "https://example.com/nn", "AI", "Arta Krasniqi"},
			{"2023", "English", "Nëntor", "Caching strategies", "https://example.com/cache", "Programim", "Ilir Berisha"},
			{"2023", "Shqip", "Dhjetor", "Siguria në web", "https://example.com/sec", "Siguri", "Dren Hoxha"},
		},
	}
}
