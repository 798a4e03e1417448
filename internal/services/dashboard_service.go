// Package services wires the loading, normalizing, filtering and grouping
// steps into the operations the HTTP layer exposes.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"artikujt/internal/core"
	"artikujt/internal/loader"
	applog "artikujt/internal/log"
	"artikujt/internal/normalize"
)

// SheetLoader is the subset of *loader.Loader the dashboard needs.
type SheetLoader interface {
	LoadEntry(ctx context.Context, url string) (loader.Entry, error)
	Invalidate(url string)
	LastGood(url string) (loader.Entry, bool)
}

// RefreshNotifier tells other instances that a source was refreshed.
type RefreshNotifier interface {
	NotifyRefresh(ctx context.Context, source string) error
}

// Query is one user interaction with the filter form.
type Query struct {
	Year string
	// HasYear marks an explicit year choice, which may be the empty year
	// of rows without one. A query without a year shows the newest.
	HasYear   bool
	Languages []string
	Fields    []string
	Authors   []string
	// Filtered is set once the form has been submitted. Before that every
	// multi-select defaults to all values; after it an empty list selects
	// nothing.
	Filtered bool
}

// Options are the choices offered by the filter form.
type Options struct {
	Years     []string `json:"years"`
	Languages []string `json:"languages"`
	Fields    []string `json:"fields"`
	Authors   []string `json:"authors"`
}

// Selection is the effective filter after defaults were applied.
type Selection struct {
	Year      string   `json:"year"`
	Languages []string `json:"languages"`
	Fields    []string `json:"fields"`
	Authors   []string `json:"authors"`
}

// View is everything a page needs to render the dashboard. Matched counts
// the rows the filter kept and Shown those placed in a month group.
type View struct {
	Options   Options           `json:"options"`
	Selection Selection         `json:"selection"`
	Groups    []core.MonthGroup `json:"groups"`
	Matched   int               `json:"matched"`
	Shown     int               `json:"shown"`
	LoadedAt  time.Time         `json:"loaded_at"`
	Skipped   int               `json:"skipped_rows"`
	// Stale is set when the latest load failed and an earlier table is shown.
	Stale      bool   `json:"stale"`
	StaleError string `json:"stale_error,omitempty"`
}

// DashboardService runs the article pipeline for a single source.
type DashboardService struct {
	loader     SheetLoader
	normalizer *normalize.Normalizer
	order      core.MonthOrder
	location   string
	notifier   RefreshNotifier
	logger     *applog.Logger
}

func NewDashboardService(l SheetLoader, n *normalize.Normalizer, order core.MonthOrder, location string, logger *applog.Logger) *DashboardService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DashboardService{
		loader:     l,
		normalizer: n,
		order:      order,
		location:   location,
		logger:     logger.WithComponent(applog.ComponentDashboard),
	}
}

// SetNotifier enables refresh broadcasts. A nil notifier disables them.
func (s *DashboardService) SetNotifier(n RefreshNotifier) {
	s.notifier = n
}

// Location returns the source the service reads.
func (s *DashboardService) Location() string {
	return s.location
}

// View loads the sheet and applies q. When loading fails but an earlier
// table exists, that table is used and the view is marked stale. Schema
// errors are always returned.
func (s *DashboardService) View(ctx context.Context, q Query) (View, error) {
	var view View

	entry, err := s.loader.LoadEntry(ctx, s.location)
	if err != nil {
		prev, ok := s.loader.LastGood(s.location)
		if !ok {
			return View{}, fmt.Errorf("load articles: %w", err)
		}
		s.logger.WarnContext(ctx, "Load failed, serving previous table",
			applog.FieldLocation, s.location,
			applog.FieldStale, true,
			applog.FieldError, err)
		entry = prev
		view.Stale = true
		view.StaleError = err.Error()
	}

	table, err := s.normalizer.Normalize(entry.Table)
	if err != nil {
		return View{}, fmt.Errorf("normalize articles: %w", err)
	}

	view.LoadedAt = entry.LoadedAt
	view.Skipped = entry.Table.Skipped
	view.Options = Options{
		Years:     core.Years(table),
		Languages: core.Distinct(table, core.ColumnLanguage),
		Fields:    core.Distinct(table, core.ColumnField),
		Authors:   core.Distinct(table, core.ColumnAuthor),
	}

	sel, filter := s.selection(q, view.Options)
	view.Selection = sel

	filtered := core.Apply(table, filter)
	view.Matched = len(filtered)
	view.Groups = core.GroupByMonth(filtered, s.order)
	for _, g := range view.Groups {
		view.Shown += len(g.Records)
	}

	s.logger.DebugContext(ctx, "Dashboard view built",
		applog.FieldYear, sel.Year,
		applog.FieldArticles, view.Shown,
		"matched", view.Matched,
		applog.FieldGroups, len(view.Groups))
	return view, nil
}

// selection applies the form defaults and builds the filter.
func (s *DashboardService) selection(q Query, opts Options) (Selection, core.FilterSelection) {
	sel := Selection{Year: q.Year}
	chosen := q.HasYear || q.Year != ""
	if !chosen || !contains(opts.Years, sel.Year) {
		sel.Year = ""
		if len(opts.Years) > 0 {
			sel.Year = opts.Years[0]
		}
	}

	pick := func(requested, all []string) []string {
		if !q.Filtered {
			return append([]string(nil), all...)
		}
		return append([]string{}, requested...)
	}
	sel.Languages = pick(q.Languages, opts.Languages)
	sel.Fields = pick(q.Fields, opts.Fields)
	sel.Authors = pick(q.Authors, opts.Authors)

	filter := core.FilterSelection{}
	if len(opts.Years) > 0 {
		filter.Set(core.ColumnYear, sel.Year)
	}
	filter.Set(core.ColumnLanguage, sel.Languages...)
	filter.Set(core.ColumnField, sel.Fields...)
	filter.Set(core.ColumnAuthor, sel.Authors...)
	return sel, filter
}

// Refresh drops the cached sheet, tells other instances and reloads. A
// failed broadcast is logged and does not fail the refresh.
func (s *DashboardService) Refresh(ctx context.Context) error {
	s.loader.Invalidate(s.location)

	if s.notifier != nil {
		if err := s.notifier.NotifyRefresh(ctx, s.location); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish refresh broadcast",
				applog.FieldOperation, applog.OpPublish,
				applog.FieldError, err)
		}
	}

	if _, err := s.loader.LoadEntry(ctx, s.location); err != nil {
		return fmt.Errorf("reload articles: %w", err)
	}
	s.logger.InfoContext(ctx, "Articles refreshed", applog.FieldLocation, s.location)
	return nil
}

// Ready reports whether a usable table is available, loading it if needed.
func (s *DashboardService) Ready(ctx context.Context) error {
	entry, err := s.loader.LoadEntry(ctx, s.location)
	if err != nil {
		prev, ok := s.loader.LastGood(s.location)
		if !ok {
			return err
		}
		entry = prev
	}
	if _, err := s.normalizer.Normalize(entry.Table); err != nil {
		return err
	}
	return nil
}

// ErrorKind classifies pipeline errors for logging and status codes.
func ErrorKind(err error) string {
	var (
		fe *core.FetchError
		pe *core.ParseError
		se *core.SchemaError
	)
	switch {
	case errors.As(err, &se):
		return applog.ErrorTypeSchema
	case errors.As(err, &pe):
		return applog.ErrorTypeParse
	case errors.Is(err, context.DeadlineExceeded):
		return applog.ErrorTypeTimeout
	case errors.As(err, &fe):
		return applog.ErrorTypeFetch
	default:
		return applog.ErrorTypeInternal
	}
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
