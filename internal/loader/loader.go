// Package loader fetches the article sheet and memoizes it per location.
package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"artikujt/internal/cache"
	"artikujt/internal/core"
	applog "artikujt/internal/log"
	"artikujt/internal/sources"
)

// Options tune fetching and caching.
type Options struct {
	Timeout     time.Duration // per attempt
	MaxAttempts int
	Backoff     time.Duration // first retry delay, doubled per attempt
	MaxBackoff  time.Duration
	TTL         time.Duration // <= 0 caches until invalidated
	CacheSize   int
}

// DefaultOptions mirror the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:     15 * time.Second,
		MaxAttempts: 3,
		Backoff:     500 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
		CacheSize:   16,
	}
}

// Entry is a loaded sheet and when it was fetched.
type Entry struct {
	Table    core.RawTable
	LoadedAt time.Time
}

// Stats are cumulative loader counters.
type Stats struct {
	Hits     int64
	Misses   int64
	Fetches  int64
	Retries  int64
	Failures int64
}

// Loader is safe for concurrent use.
type Loader struct {
	fetcher sources.Fetcher
	opts    Options
	cache   *cache.LRUCache[Entry]
	group   singleflight.Group
	logger  *applog.Logger
	events  *applog.StructuredLogger

	mu       sync.RWMutex
	lastGood map[string]Entry
	gen      map[string]uint64

	hits, misses, fetches, retries, failures atomic.Int64

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Loader over fetcher.
func New(fetcher sources.Fetcher, opts Options, logger *applog.Logger) *Loader {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = def.Backoff
	}
	if opts.MaxBackoff < opts.Backoff {
		opts.MaxBackoff = max(def.MaxBackoff, opts.Backoff)
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = def.CacheSize
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentLoader)

	return &Loader{
		fetcher:  fetcher,
		opts:     opts,
		cache:    cache.NewLRUCache[Entry](opts.CacheSize, opts.TTL),
		logger:   logger,
		events:   applog.NewStructuredLogger(logger),
		lastGood: make(map[string]Entry),
		gen:      make(map[string]uint64),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Cache exposes the underlying cache so it can be registered for cleanup.
func (l *Loader) Cache() *cache.LRUCache[Entry] {
	return l.cache
}

// Load returns the sheet at url, fetching it on a cache miss. Concurrent
// misses for the same url share one fetch. Cancelling ctx abandons the wait
// but not the shared fetch, which still fills the cache.
func (l *Loader) Load(ctx context.Context, url string) (core.RawTable, error) {
	entry, err := l.LoadEntry(ctx, url)
	if err != nil {
		return core.RawTable{}, err
	}
	return entry.Table, nil
}

// LoadEntry is Load plus the fetch time.
func (l *Loader) LoadEntry(ctx context.Context, url string) (Entry, error) {
	if e, ok := l.cache.Get(url); ok {
		l.hits.Add(1)
		l.events.LogLoad(ctx, url, e.Table.Len(), e.Table.Skipped, true)
		return cloneEntry(e), nil
	}
	l.misses.Add(1)

	ch := l.group.DoChan(url, func() (any, error) {
		return l.fetch(context.WithoutCancel(ctx), url)
	})

	select {
	case <-ctx.Done():
		return Entry{}, &core.FetchError{URL: url, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return Entry{}, res.Err
		}
		e := res.Val.(Entry)
		l.events.LogLoad(ctx, url, e.Table.Len(), e.Table.Skipped, false)
		return cloneEntry(e), nil
	}
}

func (l *Loader) fetch(ctx context.Context, url string) (Entry, error) {
	l.mu.RLock()
	gen := l.gen[url]
	l.mu.RUnlock()

	var lastErr error
	delay := l.opts.Backoff
	for attempt := 1; attempt <= l.opts.MaxAttempts; attempt++ {
		l.fetches.Add(1)

		actx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
		rt, err := l.fetcher.Fetch(actx, url)
		cancel()

		if err == nil {
			e := Entry{Table: rt, LoadedAt: l.now()}
			l.store(url, gen, e)
			return e, nil
		}

		lastErr = err
		if !retryable(err) || attempt == l.opts.MaxAttempts {
			break
		}

		l.retries.Add(1)
		l.logger.WarnContext(ctx, "Fetch failed, retrying",
			applog.FieldLocation, url,
			applog.FieldAttempt, attempt,
			"backoff", delay.String(),
			applog.FieldError, err)
		if err := l.sleep(ctx, delay); err != nil {
			break
		}
		delay = min(delay*2, l.opts.MaxBackoff)
	}

	l.failures.Add(1)
	l.events.LogError(ctx, "Sheet load failed", lastErr, applog.OpFetch,
		applog.NewFields().WithLoad(url, 0, 0, false))
	return Entry{}, lastErr
}

// store caches e unless url was invalidated while the fetch was running.
func (l *Loader) store(url string, gen uint64, e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastGood[url] = e
	if l.gen[url] == gen {
		l.cache.Set(url, e)
	}
}

// retryable reports whether a failed fetch is worth another attempt. Parse
// failures are deterministic and never retried.
func retryable(err error) bool {
	var pe *core.ParseError
	if errors.As(err, &pe) {
		return false
	}
	return core.IsFetchError(err)
}

// Invalidate forces the next Load of url to fetch again.
func (l *Loader) Invalidate(url string) {
	l.mu.Lock()
	l.gen[url]++
	l.cache.Delete(url)
	l.mu.Unlock()
	l.group.Forget(url)
	l.logger.Debug("Cache invalidated", applog.FieldLocation, url, applog.FieldOperation, applog.OpInvalidate)
}

// LastGood returns the most recent successful load of url, cached or not.
func (l *Loader) LastGood(url string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.lastGood[url]
	if !ok {
		return Entry{}, false
	}
	return cloneEntry(e), true
}

// Stats returns a snapshot of the counters.
func (l *Loader) Stats() Stats {
	return Stats{
		Hits:     l.hits.Load(),
		Misses:   l.misses.Load(),
		Fetches:  l.fetches.Load(),
		Retries:  l.retries.Load(),
		Failures: l.failures.Load(),
	}
}

func cloneEntry(e Entry) Entry {
	return Entry{Table: e.Table.Clone(), LoadedAt: e.LoadedAt}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
