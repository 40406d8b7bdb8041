package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadiq-Teslim/linq-sub000/internal/config"
)

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"discover", "enrich", "company", "verify", "costs"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestParseRange(t *testing.T) {
	start, end, err := parseRange("2026-01-01", "2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, 2026, start.Year())
	assert.Equal(t, time.January, end.Month())
	// End bound is inclusive of the whole day.
	assert.True(t, end.After(time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)))

	start, end, err = parseRange("", "")
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())

	_, _, err = parseRange("31-01-2026", "")
	assert.Error(t, err)
}

func TestInitStoreSQLite(t *testing.T) {
	cfg = &config.Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "test.db")

	st, err := initStore(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, st.Close())
}

func TestInitStoreUnsupportedDriver(t *testing.T) {
	cfg = &config.Config{}
	cfg.Store.Driver = "bolt"

	_, err := initStore(context.Background())
	assert.Error(t, err)
}
