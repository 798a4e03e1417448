package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artikujt/internal/core"
)

func TestStoreFetchReturnsCopy(t *testing.T) {
	s := New()
	s.Put("loc", Sample())

	rt, err := s.Fetch(context.Background(), "loc")
	require.NoError(t, err)
	rt.Rows[0][0] = "mutated"

	again, err := s.Fetch(context.Background(), "loc")
	require.NoError(t, err)
	assert.Equal(t, "2024", again.Rows[0][0])
	assert.Equal(t, 2, s.Calls())
}

func TestStoreUnknownLocation(t *testing.T) {
	_, err := New().Fetch(context.Background(), "nowhere")
	assert.True(t, core.IsFetchError(err))
	assert.ErrorIs(t, err, core.ErrUnknownLocation)
}

func TestStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Fetch(ctx, DefaultLocation)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.csv")
	content := "Year,Language,Month,Name of article,Link for docs,Field,Author\n2022,Go,Maj,T,L,F,A\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := NewFromFile(DefaultLocation, path)
	require.NoError(t, err)
	rt, err := s.Fetch(context.Background(), DefaultLocation)
	require.NoError(t, err)
	assert.Equal(t, 1, rt.Len())
	assert.Equal(t, "Maj", rt.Rows[0][2])
}

func TestNewFromFileWithoutPathUsesSample(t *testing.T) {
	s, err := NewFromFile(DefaultLocation, "")
	require.NoError(t, err)
	rt, err := s.Fetch(context.Background(), DefaultLocation)
	require.NoError(t, err)
	assert.Equal(t, Sample().Len(), rt.Len())
}

func TestNewFromFileMissing(t *testing.T) {
	_, err := NewFromFile(DefaultLocation, filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
