package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/user/profile-crawler/internal/entity"
)

// Runs against a disposable database named by POSTGRES_TEST_URL.
func setupStore(t *testing.T) *RecordStoreImpl {
	connString := os.Getenv("POSTGRES_TEST_URL")
	if connString == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := Open(ctx, connString)
	require.NoError(t, err)
	_, err = store.db.Exec(ctx, `TRUNCATE profiles; DELETE FROM metadata;`)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreInsertOnce(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	inserted, err := store.Save(ctx, &entity.Profile{URL: "https://example.com/anna", Name: "Anna", ScrapedAt: first})
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = store.Save(ctx, &entity.Profile{URL: "https://example.com/anna", Name: "Other"})
	require.NoError(t, err)
	require.False(t, inserted)

	_, err = store.Save(ctx, &entity.Profile{URL: "https://example.com/bea", Name: "Bea"})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	all, err := store.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Anna", all[0].Name)
	require.True(t, all[0].ScrapedAt.Equal(first))
	require.Equal(t, "https://example.com/bea", all[1].URL)
}

func TestStoreLastRun(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	lastRun, err := store.GetLastRun(ctx)
	require.NoError(t, err)
	require.Nil(t, lastRun)

	now := time.Date(2026, 3, 1, 10, 0, 0, 1000, time.UTC)
	require.NoError(t, store.SetLastRun(ctx, now))

	lastRun, err = store.GetLastRun(ctx)
	require.NoError(t, err)
	require.True(t, lastRun.Equal(now))
}
