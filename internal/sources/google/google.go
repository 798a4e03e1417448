// Package google reads the article sheet through the Google Sheets API.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"artikujt/internal/core"
	"artikujt/internal/sources"
)

// DefaultRange covers the seven article columns of the first sheet.
const DefaultRange = "Sheet1!A:G"

// Credentials selects how the service authenticates. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

// Client reads value ranges from spreadsheets.
type Client struct {
	svc *gsheet.Service
}

var _ sources.Fetcher = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, creds Credentials) (*Client, error) {
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test endpoint.
func NewWithService(svc *gsheet.Service) *Client {
	return &Client{svc: svc}
}

// Location builds the location string Fetch expects.
func Location(spreadsheetID, rng string) string {
	if strings.TrimSpace(rng) == "" {
		rng = DefaultRange
	}
	return spreadsheetID + "!" + rng
}

// SplitLocation is the inverse of Location. The spreadsheet ID never contains
// '!', the range may.
func SplitLocation(location string) (spreadsheetID, rng string, err error) {
	id, r, ok := strings.Cut(location, "!")
	id = strings.TrimSpace(id)
	if !ok || id == "" || strings.TrimSpace(r) == "" {
		return "", "", fmt.Errorf("invalid sheets location %q: want <spreadsheetID>!<range>", location)
	}
	return id, r, nil
}

// newSheetsService initializes a read-only Sheets service from service account
// credentials, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(creds.JSON)
	serviceAccountFile := strings.TrimSpace(creds.File)

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Fetch reads the range named by location. The first returned row is the header.
func (c *Client) Fetch(ctx context.Context, location string) (core.RawTable, error) {
	if c.svc == nil {
		return core.RawTable{}, &core.FetchError{URL: location, Err: errors.New("sheets service not initialized")}
	}
	id, rng, err := SplitLocation(location)
	if err != nil {
		return core.RawTable{}, &core.FetchError{URL: location, Err: err}
	}

	resp, err := c.svc.Spreadsheets.Values.Get(id, rng).Context(ctx).Do()
	if err != nil {
		fe := &core.FetchError{URL: location, Err: fmt.Errorf("read %s: %w", rng, err)}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			fe.StatusCode = gerr.Code
		}
		return core.RawTable{}, fe
	}
	return toRawTable(location, resp.Values)
}

// toRawTable converts API values into a RawTable. Rows wider than the header
// are skipped like malformed CSV rows; trailing empty cells are already
// omitted by the API, which leaves short rows.
func toRawTable(location string, values [][]interface{}) (core.RawTable, error) {
	if len(values) == 0 {
		return core.RawTable{}, &core.ParseError{URL: location, Err: core.ErrEmptyResource}
	}
	header := toStrings(values[0])
	if blank(header) {
		return core.RawTable{}, &core.ParseError{URL: location, Err: core.ErrMissingHeader}
	}

	rt := core.RawTable{Header: header, Rows: make([][]string, 0, len(values)-1)}
	for _, row := range values[1:] {
		if len(row) > len(header) {
			rt.Skipped++
			continue
		}
		rt.Rows = append(rt.Rows, toStrings(row))
	}
	return rt, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
