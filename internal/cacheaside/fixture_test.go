package cacheaside

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/cache"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/database/testutil"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/models"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/store"
)

var errUnreachable = errors.New("dial tcp 10.0.0.1:6379: connect: connection refused")

// countingStore records calls and can be switched into a failing mode.
type countingStore struct {
	store.Store

	finds      atomic.Int64
	increments atomic.Int64
	down       atomic.Bool
}

func (s *countingStore) FindByID(ctx context.Context, kind *models.Kind, id string) (models.Document, bool, error) {
	s.finds.Add(1)
	if s.down.Load() {
		return nil, false, errUnreachable
	}
	return s.Store.FindByID(ctx, kind, id)
}

func (s *countingStore) AtomicIncrement(ctx context.Context, kind *models.Kind, id, field string, delta int64) error {
	s.increments.Add(1)
	if s.down.Load() {
		return errUnreachable
	}
	return s.Store.AtomicIncrement(ctx, kind, id, field, delta)
}

// brokenCache fails every operation, like an unreachable Redis.
type brokenCache struct {
	gets atomic.Int64
	sets atomic.Int64
}

func (c *brokenCache) IncrementWithTTL(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errUnreachable
}

func (c *brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	c.sets.Add(1)
	return errUnreachable
}

func (c *brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	c.gets.Add(1)
	return nil, false, errUnreachable
}

func (c *brokenCache) Delete(context.Context, ...string) error {
	return errUnreachable
}

// slowCache blocks until the caller's deadline expires.
type slowCache struct {
	cache.Store
}

func (c slowCache) Get(ctx context.Context, _ string) ([]byte, bool, error) {
	<-ctx.Done()
	return nil, false, ctx.Err()
}

// readOnlyCache serves reads from the wrapped store but rejects writes.
type readOnlyCache struct {
	cache.Store
}

func (c readOnlyCache) Set(context.Context, string, []byte, time.Duration) error {
	return errUnreachable
}

// laggyCache holds back writes containing stale until release is closed and
// then lands them regardless of the caller's deadline, like a delayed network
// write.
type laggyCache struct {
	cache.Store

	stale   []byte
	held    chan struct{}
	release chan struct{}
	once    sync.Once
}

func newLaggyCache(inner cache.Store, stale string) *laggyCache {
	return &laggyCache{
		Store:   inner,
		stale:   []byte(stale),
		held:    make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (c *laggyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if bytes.Contains(value, c.stale) {
		c.once.Do(func() { close(c.held) })
		<-c.release
		return c.Store.Set(context.Background(), key, value, ttl)
	}
	return c.Store.Set(ctx, key, value, ttl)
}

// churningStore bumps likeCount before every read, standing in for a post
// receiving a steady stream of likes from other instances.
type churningStore struct {
	store.Store
}

func (s churningStore) FindByID(ctx context.Context, kind *models.Kind, id string) (models.Document, bool, error) {
	if err := s.Store.AtomicIncrement(ctx, kind, id, models.FieldLikeCount, 1); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}
	return s.Store.FindByID(ctx, kind, id)
}

// hungRedis returns a Redis client connected to a listener that accepts
// connections and never answers.
func hungRedis(t *testing.T) *cache.RedisClient {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()

	client, err := cache.DialRedis(cache.RedisConfig{Addresses: []string{ln.Addr().String()}, Timeout: 3 * time.Second})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			_ = conn.Close()
		}
	})
	return client
}

type fixture struct {
	store   *countingStore
	reader  *Reader
	mutator *Mutator
}

func newFixture(t *testing.T, cacheStore cache.Store, opts ...func(*Config)) *fixture {
	t.Helper()

	gormStore, err := store.NewGormStore(testutil.MustOpenTestDB(t, testutil.WithAutoMigrate()))
	require.NoError(t, err)
	counting := &countingStore{Store: gormStore}

	cfg := Config{Store: counting, Logger: zap.NewNop()}
	if cacheStore != nil {
		cfg.Cache = cacheStore
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	reader, err := NewReader(cfg)
	require.NoError(t, err)
	mutator, err := NewMutator(cfg)
	require.NoError(t, err)

	return &fixture{store: counting, reader: reader, mutator: mutator}
}

func (f *fixture) seedPost(t *testing.T, likes, dislikes int64) *models.Post {
	t.Helper()
	post := &models.Post{
		UserID:       "u1",
		Title:        "Hello",
		Content:      "First post",
		LikeCount:    likes,
		DislikeCount: dislikes,
	}
	require.NoError(t, f.store.Insert(context.Background(), models.PostKind, post))
	return post
}
