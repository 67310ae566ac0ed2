package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/findata-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func testEntry(period string, assets float64) *model.CacheEntry {
	return &model.CacheEntry{
		CompanyID:  "0000320193",
		FilingType: model.FilingAnnual,
		Period:     period,
		Snapshots: []model.StatementSnapshot{{
			CompanyID:     "0000320193",
			FilingType:    model.FilingAnnual,
			StatementType: model.StatementBalanceSheet,
			Period:        period,
			Items: []model.StatementLineItem{
				{Concept: "Assets", Label: "Total assets", Value: model.Float64(assets), Unit: "USD"},
			},
		}},
		FetchedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.Get(ctx, "0000320193", model.FilingAnnual, "2023-09-30")
	require.NoError(t, err)
	require.Nil(t, got, "miss should be (nil, nil)")

	entry := testEntry("2023-09-30", 352583000000)
	require.NoError(t, s.Put(ctx, entry))
	require.NotEmpty(t, entry.ID)

	got, err = s.Get(ctx, "0000320193", model.FilingAnnual, "2023-09-30")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, entry.ID, got.ID)
	require.False(t, got.Empty)
	require.Len(t, got.Snapshots, 1)
	require.Len(t, got.Snapshots[0].Items, 1)
	require.Equal(t, 352583000000.0, *got.Snapshots[0].Items[0].Value)
	require.True(t, got.FetchedAt.Equal(entry.FetchedAt))
}

func TestSQLiteStoreUpsertSecondWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testEntry("2023-09-30", 100)
	require.NoError(t, s.Put(ctx, first))

	second := testEntry("2023-09-30", 200)
	second.FetchedAt = first.FetchedAt.Add(time.Hour)
	require.NoError(t, s.Put(ctx, second))

	got, err := s.Get(ctx, "0000320193", model.FilingAnnual, "2023-09-30")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 200.0, *got.Snapshots[0].Items[0].Value)
	require.True(t, got.FetchedAt.Equal(second.FetchedAt))
}

func TestSQLiteStoreEmptyEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := &model.CacheEntry{
		CompanyID:  "0001234567",
		FilingType: model.FilingForeignAnnual,
		Period:     "2023-12-31",
		Empty:      true,
		FetchedAt:  time.Now().UTC(),
	}
	require.NoError(t, s.Put(ctx, entry))

	got, err := s.Get(ctx, "0001234567", model.FilingForeignAnnual, "2023-12-31")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.Empty)
	require.Empty(t, got.Snapshots)
}

func TestSQLiteStoreInvalidate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testEntry("2023-09-30", 100)))
	require.NoError(t, s.Invalidate(ctx, "0000320193", model.FilingAnnual, "2023-09-30"))

	got, err := s.Get(ctx, "0000320193", model.FilingAnnual, "2023-09-30")
	require.NoError(t, err)
	require.Nil(t, got)

	// Invalidating a missing key is not an error.
	require.NoError(t, s.Invalidate(ctx, "0000320193", model.FilingAnnual, "2023-09-30"))
}

func TestSQLiteStoreListPeriods(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []string{"2021-09-25", "2023-09-30", "2022-09-24"} {
		require.NoError(t, s.Put(ctx, testEntry(p, 1)))
	}
	// A different filing type must not leak in.
	other := testEntry("2024-03-30", 1)
	other.FilingType = model.FilingQuarterly
	require.NoError(t, s.Put(ctx, other))

	periods, err := s.ListPeriods(ctx, "0000320193", model.FilingAnnual)
	require.NoError(t, err)
	require.Equal(t, []string{"2023-09-30", "2022-09-24", "2021-09-25"}, periods)
}

func TestSQLiteStoreFetchLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	last, err := s.LastFetch(ctx, "0000320193")
	require.NoError(t, err)
	require.Nil(t, last)

	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordFetch(ctx, "0000320193", first, "ok"))
	require.NoError(t, s.RecordFetch(ctx, "0000320193", first.Add(time.Hour), "ok"))

	last, err = s.LastFetch(ctx, "0000320193")
	require.NoError(t, err)
	require.NotNil(t, last)
	require.True(t, last.Equal(first.Add(time.Hour)))
}
