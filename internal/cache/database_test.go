package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/database/testutil"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/models"
)

func newDatabaseStore(t *testing.T, clock *fakeClock) *DatabaseStore {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	return NewDatabaseStore(db).WithClock(clock.Now)
}

func TestNewDatabaseStoreNil(t *testing.T) {
	var store *DatabaseStore = NewDatabaseStore(nil)
	require.Nil(t, store)

	_, _, err := store.Get(context.Background(), "k")
	require.Error(t, err)
}

func TestDatabaseStoreSetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	store := newDatabaseStore(t, newFakeClock())

	require.NoError(t, store.Set(ctx, "post:p1", []byte(`{"v":1}`), time.Hour))
	require.NoError(t, store.Set(ctx, "post:p1", []byte(`{"v":2}`), time.Hour))

	value, ok, err := store.Get(ctx, "post:p1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"v":2}`, string(value))

	_, ok, err = store.Get(ctx, "post:missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newDatabaseStore(t, clock)

	require.NoError(t, store.Set(ctx, "post:p1", []byte("{}"), time.Hour))
	clock.Advance(time.Hour + time.Second)

	_, ok, err := store.Get(ctx, "post:p1")
	require.NoError(t, err)
	require.False(t, ok)

	var count int64
	require.NoError(t, store.db.Model(&models.CacheEntry{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestDatabaseStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newDatabaseStore(t, newFakeClock())

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, store.Delete(ctx, "a", "b"))

	_, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseStoreIncrementWithTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newDatabaseStore(t, clock)

	count, ttl, err := store.IncrementWithTTL(ctx, "rl", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, time.Minute, ttl)

	clock.Advance(15 * time.Second)
	count, ttl, err = store.IncrementWithTTL(ctx, "rl", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.Equal(t, 45*time.Second, ttl)

	clock.Advance(time.Minute)
	count, _, err = store.IncrementWithTTL(ctx, "rl", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestDatabaseStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newDatabaseStore(t, clock)

	require.NoError(t, store.Set(ctx, "short", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, store.Set(ctx, "forever", []byte("3"), 0))

	clock.Advance(2 * time.Minute)
	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, ok, err := store.Get(ctx, "forever")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.Ping(ctx))
}
