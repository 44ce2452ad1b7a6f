package cacheaside

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cache"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/models"
	apperrors "github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/errors"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/metrics"
)

func TestNewMutatorRequiresStore(t *testing.T) {
	_, err := NewMutator(Config{})
	require.Error(t, err)
}

func TestIncrementReturnsRefreshedLikesView(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, cache.NewMemoryStore())
	post := f.seedPost(t, 0, 0)

	payload, err := f.mutator.Increment(ctx, "post", post.ID, models.FieldLikeCount, 1)
	require.NoError(t, err)
	require.Equal(t, `{"postId":"`+post.ID+`","likeCount":1,"dislikeCount":0}`, string(payload))

	payload, err = f.mutator.Increment(ctx, "post", post.ID, models.FieldDislikeCount, 1)
	require.NoError(t, err)
	require.Equal(t, `{"postId":"`+post.ID+`","likeCount":1,"dislikeCount":1}`, string(payload))
}

func TestIncrementWritesThroughToCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, cache.NewMemoryStore())
	post := f.seedPost(t, 0, 0)

	before, _, err := f.reader.Fetch(ctx, "post", post.ID, models.ViewLikes)
	require.NoError(t, err)
	require.Contains(t, string(before), `"likeCount":0`)

	_, err = f.mutator.Increment(ctx, "post", post.ID, models.FieldLikeCount, 1)
	require.NoError(t, err)

	finds := f.store.finds.Load()
	after, found, err := f.reader.Fetch(ctx, "post", post.ID, models.ViewLikes)
	require.NoError(t, err)
	require.True(t, found)
	require.Contains(t, string(after), `"likeCount":1`)
	require.Equal(t, finds, f.store.finds.Load(), "read after increment must be served from the refreshed cache")
}

func TestIncrementLeavesDefaultViewAlone(t *testing.T) {
	ctx := context.Background()
	memory := cache.NewMemoryStore()
	f := newFixture(t, memory)
	post := f.seedPost(t, 0, 0)

	_, err := f.mutator.Increment(ctx, "post", post.ID, models.FieldLikeCount, 1)
	require.NoError(t, err)

	_, ok, err := memory.Get(ctx, Key("post", post.ID, ""))
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, memory.Len())
}

func TestConcurrentIncrementsAreNotLost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, cache.NewMemoryStore())
	post := f.seedPost(t, 0, 0)

	var g errgroup.Group
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			_, err := f.mutator.Increment(ctx, "post", post.ID, models.FieldLikeCount, 1)
			return err
		})
	}
	require.NoError(t, g.Wait())

	payload, found, err := f.reader.Fetch(ctx, "post", post.ID, models.ViewLikes)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `{"postId":"`+post.ID+`","likeCount":5,"dislikeCount":0}`, string(payload))
}

func TestConcurrentIncrementsWithBrokenCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &brokenCache{})
	post := f.seedPost(t, 3, 0)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := f.mutator.Increment(ctx, "post", post.ID, models.FieldDislikeCount, 1)
			return err
		})
	}
	require.NoError(t, g.Wait())

	payload, found, err := f.reader.Fetch(ctx, "post", post.ID, models.ViewLikes)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `{"postId":"`+post.ID+`","likeCount":3,"dislikeCount":8}`, string(payload))
}

func TestIncrementRefreshFailureStillSucceeds(t *testing.T) {
	ctx := context.Background()
	memory := cache.NewMemoryStore()
	f := newFixture(t, readOnlyCache{Store: memory})
	post := f.seedPost(t, 0, 0)

	payload, err := f.mutator.Increment(ctx, "post", post.ID, models.FieldLikeCount, 1)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"likeCount":1`)
	require.Zero(t, memory.Len())
}

func TestIncrementMissingEntity(t *testing.T) {
	ctx := context.Background()
	memory := cache.NewMemoryStore()
	f := newFixture(t, memory)

	_, err := f.mutator.Increment(ctx, "post", "999", models.FieldLikeCount, 1)
	require.Error(t, err)
	require.True(t, apperrors.IsNotFound(err))
	require.Equal(t, "Post not found", apperrors.FromError(err).Message)
	require.Zero(t, f.store.increments.Load())
	require.Zero(t, memory.Len())
}

func TestIncrementStoreFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, cache.NewMemoryStore())
	post := f.seedPost(t, 0, 0)
	f.store.down.Store(true)

	_, err := f.mutator.Increment(ctx, "post", post.ID, models.FieldLikeCount, 1)
	require.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
	require.Zero(t, f.store.increments.Load())
}

func TestIncrementRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, cache.NewMemoryStore())
	post := f.seedPost(t, 0, 0)

	cases := []struct {
		name       string
		entityType string
		field      string
		delta      int64
	}{
		{name: "field outside allow-list", entityType: "post", field: models.FieldTitle, delta: 1},
		{name: "unknown field", entityType: "post", field: "shareCount", delta: 1},
		{name: "zero delta", entityType: "post", field: models.FieldLikeCount, delta: 0},
		{name: "entity without counters", entityType: "user", field: models.FieldLikeCount, delta: 1},
		{name: "unknown type", entityType: "comment", field: models.FieldLikeCount, delta: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.mutator.Increment(ctx, tc.entityType, post.ID, tc.field, tc.delta)
			require.Error(t, err)
			require.True(t, apperrors.IsBadRequest(err))
		})
	}
	require.Zero(t, f.store.finds.Load())
	require.Zero(t, f.store.increments.Load())
}

func TestIncrementNegativeDelta(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, cache.NewMemoryStore())
	post := f.seedPost(t, 2, 0)

	payload, err := f.mutator.Increment(ctx, "post", post.ID, models.FieldLikeCount, -1)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"likeCount":1`)
}

func TestIncrementCachedEntryHonoursTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	memory := cache.NewMemoryStore().WithClock(func() time.Time { return now })
	f := newFixture(t, memory, func(cfg *Config) { cfg.TTL = time.Minute })
	post := f.seedPost(t, 0, 0)

	_, err := f.mutator.Increment(ctx, "post", post.ID, models.FieldLikeCount, 1)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, ok, err := memory.Get(ctx, Key("post", post.ID, models.ViewLikes))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOverlappingIncrementsKeepNewestCount(t *testing.T) {
	ctx := context.Background()
	memory := cache.NewMemoryStore()
	laggy := newLaggyCache(memory, `"likeCount":1,`)
	f := newFixture(t, laggy)
	post := f.seedPost(t, 0, 0)

	slow := make(chan error, 1)
	go func() {
		_, err := f.mutator.Increment(ctx, "post", post.ID, models.FieldLikeCount, 1)
		slow <- err
	}()

	select {
	case <-laggy.held:
	case <-time.After(5 * time.Second):
		t.Fatal("first refresh never reached the cache")
	}

	payload, err := f.mutator.Increment(ctx, "post", post.ID, models.FieldLikeCount, 1)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"likeCount":2`)

	close(laggy.release)
	require.NoError(t, <-slow)

	cached, ok, err := memory.Get(ctx, Key("post", post.ID, models.ViewLikes))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"postId":"`+post.ID+`","likeCount":2,"dislikeCount":0}`, string(cached))
}

func TestIncrementEvictsViewsThatNeverSettle(t *testing.T) {
	ctx := context.Background()
	memory := cache.NewMemoryStore()
	f := newFixture(t, memory, func(cfg *Config) {
		cfg.Store = churningStore{Store: cfg.Store}
	})
	post := f.seedPost(t, 0, 0)

	key := Key("post", post.ID, models.ViewLikes)
	require.NoError(t, memory.Set(ctx, key, []byte(`{"postId":"`+post.ID+`","likeCount":0,"dislikeCount":0}`), time.Hour))
	evicted := testutil.ToFloat64(metrics.CacheRefreshes.WithLabelValues("post", models.ViewLikes, "evicted"))

	payload, err := f.mutator.Increment(ctx, "post", post.ID, models.FieldLikeCount, 1)
	require.NoError(t, err)
	require.NotNil(t, payload)

	_, ok, err := memory.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, evicted+1, testutil.ToFloat64(metrics.CacheRefreshes.WithLabelValues("post", models.ViewLikes, "evicted")))
}

func TestIncrementBoundsHungRedis(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, hungRedis(t), func(cfg *Config) {
		cfg.CacheTimeout = 100 * time.Millisecond
	})
	post := f.seedPost(t, 0, 0)

	start := time.Now()
	payload, err := f.mutator.Increment(ctx, "post", post.ID, models.FieldLikeCount, 1)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"likeCount":1`)
	require.Less(t, time.Since(start), time.Second)
}
