package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadiq-Teslim/linq-sub000/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_CacheRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	val, ok, err := s.GetCacheEntry(ctx, "people_search:abc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)

	require.NoError(t, s.SetCacheEntry(ctx, "people_search:abc", []byte(`{"n":1}`), time.Hour))

	val, ok, err = s.GetCacheEntry(ctx, "people_search:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"n":1}`), val)
}

func TestSQLite_CacheOverwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCacheEntry(ctx, "k", []byte("v1"), time.Hour))
	require.NoError(t, s.SetCacheEntry(ctx, "k", []byte("v2"), time.Hour))

	val, ok, err := s.GetCacheEntry(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), val)
}

func TestSQLite_CacheExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Already-expired entry must never be served.
	require.NoError(t, s.SetCacheEntry(ctx, "stale", []byte("old"), -time.Hour))

	_, ok, err := s.GetCacheEntry(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.DeleteExpiredCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLite_DeleteCacheByPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetCacheEntry(ctx, "people_search:a", []byte("1"), time.Hour))
	require.NoError(t, s.SetCacheEntry(ctx, "people_search:b", []byte("2"), time.Hour))
	require.NoError(t, s.SetCacheEntry(ctx, "company_search:c", []byte("3"), time.Hour))

	n, err := s.DeleteCacheByPrefix(ctx, "people_search:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, err := s.GetCacheEntry(ctx, "company_search:c")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLite_CostRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	records := []model.CostRecord{
		{Provider: "apollo", Operation: model.OpPeopleSearch, CostUSD: 0.05, ResultsCount: 10, CreatedAt: now},
		{Provider: "hunter", Operation: model.OpEmailVerify, CostUSD: 0.01, ResultsCount: 1,
			Metadata: map[string]string{"email_domain": "acme.com"}, CreatedAt: now},
	}
	require.NoError(t, s.AppendCostRecords(ctx, records))

	got, err := s.ListCostRecords(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotEmpty(t, got[0].ID) // assigned on insert
	assert.Equal(t, "apollo", got[0].Provider)
	assert.Equal(t, model.OpEmailVerify, got[1].Operation)
	assert.Equal(t, "acme.com", got[1].Metadata["email_domain"])

	// Out-of-range query returns nothing.
	got, err = s.ListCostRecords(ctx, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}
