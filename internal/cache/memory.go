package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryEntries bounds the memory store when no size is configured.
const DefaultMemoryEntries = 10000

// MemoryStore is a process-local, size-bounded Store. The least recently used
// entry is evicted when full. Expired entries are dropped lazily on read and
// in bulk by PurgeExpired.
type MemoryStore struct {
	// mu makes read-modify-write sequences such as IncrementWithTTL atomic.
	mu    sync.Mutex
	data  *lru.Cache[string, memoryEntry]
	clock func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// NewMemoryStore constructs an empty in-memory store holding at most
// DefaultMemoryEntries keys.
func NewMemoryStore() *MemoryStore {
	store, _ := NewMemoryStoreSize(DefaultMemoryEntries)
	return store
}

// NewMemoryStoreSize constructs an empty in-memory store holding at most size keys.
func NewMemoryStoreSize(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	data, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{data: data, clock: time.Now}, nil
}

// WithClock overrides the time source, mainly for tests.
func (s *MemoryStore) WithClock(clock func() time.Time) *MemoryStore {
	if clock != nil {
		s.clock = clock
	}
	return s
}

func (s *MemoryStore) IncrementWithTTL(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data.Get(key)
	var count int64
	if ok && !entry.expired(now) {
		count, _ = strconv.ParseInt(string(entry.value), 10, 64)
	} else {
		entry = memoryEntry{expiresAt: now.Add(window)}
	}
	count++
	entry.value = []byte(strconv.FormatInt(count, 10))
	s.data.Add(key, entry)

	return count, entry.expiresAt.Sub(now), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = s.clock().Add(ttl)
	}

	s.mu.Lock()
	s.data.Add(key, entry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data.Get(key)
	if !ok {
		return nil, false, nil
	}
	if entry.expired(now) {
		s.data.Remove(key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		s.data.Remove(key)
	}
	s.mu.Unlock()
	return nil
}

// PurgeExpired removes every expired entry and returns how many were dropped.
func (s *MemoryStore) PurgeExpired(context.Context) (int64, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for _, key := range s.data.Keys() {
		entry, ok := s.data.Peek(key)
		if ok && entry.expired(now) {
			s.data.Remove(key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of live and not yet purged entries.
func (s *MemoryStore) Len() int {
	return s.data.Len()
}
