package backend

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artikujt/internal/config"
	applog "artikujt/internal/log"
	"artikujt/internal/sources/csvsource"
	"artikujt/internal/sources/memory"
)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataSource:                config.SourceSheets,
		GoogleSpreadsheetID:       "sheet-id",
		GoogleSheetRange:          "Articles!A:G",
		GoogleApplicationCredFile: "/secrets/sa.json",
	}

	bc, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, SheetsSource, bc.Type)
	assert.Equal(t, "/secrets/sa.json", bc.GoogleServiceAccountFile, "application credentials are the fallback file")
	assert.NoError(t, bc.Validate())

	_, err = FromAppConfig(&config.Config{DataSource: "sqlite"})
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"csv with url", Config{Type: CSVSource, SheetURL: "https://example.com/a.csv"}, false},
		{"csv without url", Config{Type: CSVSource, SheetURL: "  "}, true},
		{"sheets without id", Config{Type: SheetsSource}, true},
		{"memory without seed", Config{Type: MemorySource}, false},
		{"unknown", Config{Type: "sqlite"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateCSVSource(t *testing.T) {
	res, err := NewFactory(quietLogger()).CreateSource(context.Background(), Config{
		Type:     CSVSource,
		SheetURL: "https://example.com/a.csv",
	})
	require.NoError(t, err)
	assert.IsType(t, &csvsource.Client{}, res.Fetcher)
	assert.Equal(t, "https://example.com/a.csv", res.Location)
	require.NotNil(t, res.Cleanup)
	assert.NoError(t, res.Cleanup())
}

func TestCreateMemorySource(t *testing.T) {
	res, err := NewFactory(quietLogger()).CreateSource(context.Background(), Config{Type: MemorySource})
	require.NoError(t, err)
	assert.Equal(t, memory.DefaultLocation, res.Location)

	rt, err := res.Fetcher.Fetch(context.Background(), res.Location)
	require.NoError(t, err)
	assert.Equal(t, memory.Sample().Len(), rt.Len())
}

func TestCreateSourceRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateSource(context.Background(), Config{Type: CSVSource})
	assert.Error(t, err)
}

func TestGetSourceTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"csv", "sheets", "memory"}, GetSourceTypeStrings())

	err := Config{Type: "sqlite"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv, sheets, memory")
}
