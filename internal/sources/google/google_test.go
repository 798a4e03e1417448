package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"artikujt/internal/core"
)

func TestToRawTable(t *testing.T) {
	values := [][]interface{}{
		{"Year", "Language", "Month", "Name of article", "Link_for_docs:", "Field", "Authos"},
		{2023.0, "Go", "Janar", "A", "https://example.com/a", "Backend", "Author1"},
		{"2024", "Rust", "Maj"},
		{"2024", "Go", "Maj", "B", "l", "F", "A", "extra"},
	}
	rt, err := toRawTable("id!Sheet1!A:G", values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rt.Rows) != 2 || rt.Skipped != 1 {
		t.Fatalf("rows=%d skipped=%d, want 2 and 1", len(rt.Rows), rt.Skipped)
	}
	if rt.Rows[0][0] != "2023" {
		t.Fatalf("numeric year rendered as %q", rt.Rows[0][0])
	}
	if len(rt.Rows[1]) != 3 {
		t.Fatalf("short row should stay short, got %v", rt.Rows[1])
	}
}

func TestToRawTableEmpty(t *testing.T) {
	_, err := toRawTable("loc", nil)
	var pe *core.ParseError
	if !errors.As(err, &pe) || !errors.Is(err, core.ErrEmptyResource) {
		t.Fatalf("want ParseError(ErrEmptyResource), got %v", err)
	}

	_, err = toRawTable("loc", [][]interface{}{{"", " "}})
	if !errors.Is(err, core.ErrMissingHeader) {
		t.Fatalf("want ErrMissingHeader, got %v", err)
	}
}

func TestLocationRoundTrip(t *testing.T) {
	loc := Location("abc123", "")
	if loc != "abc123!Sheet1!A:G" {
		t.Fatalf("unexpected location %q", loc)
	}
	id, rng, err := SplitLocation(loc)
	if err != nil || id != "abc123" || rng != "Sheet1!A:G" {
		t.Fatalf("split: id=%q rng=%q err=%v", id, rng, err)
	}
	for _, bad := range []string{"", "abc", "!Sheet1", "abc!"} {
		if _, _, err := SplitLocation(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithHTTPClient(srv.Client()),
		goption.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc)
}

func TestFetch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/spreadsheets/sheet-id/values/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Sheet1!A1:G2","majorDimension":"ROWS","values":[
			["Year","Language","Month","Name of article","Link for docs","Field","Author"],
			["2023","Go","Janar","A","l1","Backend","Author1"]]}`))
	})

	rt, err := c.Fetch(context.Background(), Location("sheet-id", ""))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if rt.Len() != 1 || rt.Rows[0][3] != "A" {
		t.Fatalf("unexpected table: %+v", rt)
	}
}

func TestFetchAPIErrorCarriesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
	})

	_, err := c.Fetch(context.Background(), Location("sheet-id", ""))
	var fe *core.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("want FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", fe.StatusCode)
	}
}
