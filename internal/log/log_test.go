package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestJSONLoggerComponentNotDuplicated(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf, Component: ComponentApp})

	logger.With(FieldRequestID, "r1").WithComponent(ComponentLoader).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, ComponentLoader, entry[FieldComponent])
	assert.Equal(t, "r1", entry[FieldRequestID])
	assert.Equal(t, 1, strings.Count(buf.String(), `"component"`))
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "abc" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), `"request_id":"abc"`)
}

func TestFromContextFallback(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))

	sl.LogLoad(context.Background(), "u", 10, 2, false)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"skipped_rows":2`)

	buf.Reset()
	sl.LogError(context.Background(), "boom", errors.New("x"), OpFetch, nil)
	assert.Contains(t, buf.String(), `"operation":"fetch"`)

	buf.Reset()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	sl.LogHTTPEnd(context.Background(), req, 404, 3, "1.2.3.4")
	assert.Contains(t, buf.String(), `"status_code":404`)
}
