package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	rcache "github.com/wonny/revcast/pkg/redis"
)

// ErrRunNotFound is returned when no stored run matches
var ErrRunNotFound = errors.New("run not found")

// Store keeps completed runs for readers such as the HTTP API
type Store interface {
	Save(ctx context.Context, r *RunResult) error
	Latest(ctx context.Context) (*RunResult, error)
	Get(ctx context.Context, runID string) (*RunResult, error)
}

// =============================================================================
// In-memory store (Redis 비활성 시)
// =============================================================================

// MemoryStore is a size-bounded, expiring in-process store
type MemoryStore struct {
	runs   *expirable.LRU[string, *RunResult]
	mu     sync.RWMutex
	latest string
}

// NewMemoryStore keeps at most size runs for ttl (0 = no expiry)
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{runs: expirable.NewLRU[string, *RunResult](size, nil, ttl)}
}

// Save stores r and marks it latest
func (s *MemoryStore) Save(_ context.Context, r *RunResult) error {
	s.runs.Add(r.RunID, r)

	s.mu.Lock()
	s.latest = r.RunID
	s.mu.Unlock()
	return nil
}

// Latest returns the most recently saved run
func (s *MemoryStore) Latest(ctx context.Context) (*RunResult, error) {
	s.mu.RLock()
	id := s.latest
	s.mu.RUnlock()

	if id == "" {
		return nil, ErrRunNotFound
	}
	return s.Get(ctx, id)
}

// Get returns a run by ID
func (s *MemoryStore) Get(_ context.Context, runID string) (*RunResult, error) {
	r, ok := s.runs.Get(runID)
	if !ok {
		return nil, ErrRunNotFound
	}
	return r, nil
}

// =============================================================================
// Redis store
// =============================================================================

// RedisStore shares runs across processes (CLI scheduler → API)
type RedisStore struct {
	cache *rcache.Cache
	ttl   time.Duration
}

// NewRedisStore 새 Redis 실행 저장소 생성
func NewRedisStore(cache *rcache.Cache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: cache, ttl: ttl}
}

const resultTable = "result"

// Save stores r under its run key and the latest pointer
func (s *RedisStore) Save(ctx context.Context, r *RunResult) error {
	if err := s.cache.Set(ctx, rcache.ReportKey(r.RunID, resultTable), r, s.ttl); err != nil {
		return fmt.Errorf("store run %s: %w", r.RunID, err)
	}
	if err := s.cache.Set(ctx, rcache.KeyLatestRun, r.RunID, s.ttl); err != nil {
		return fmt.Errorf("store latest run pointer: %w", err)
	}
	return nil
}

// Latest follows the latest pointer
func (s *RedisStore) Latest(ctx context.Context) (*RunResult, error) {
	var id string
	found, err := s.cache.Get(ctx, rcache.KeyLatestRun, &id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRunNotFound
	}
	return s.Get(ctx, id)
}

// Get returns a run by ID
func (s *RedisStore) Get(ctx context.Context, runID string) (*RunResult, error) {
	var r RunResult
	found, err := s.cache.Get(ctx, rcache.ReportKey(runID, resultTable), &r)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRunNotFound
	}
	return &r, nil
}
