package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Store.Load when no state is stored for a session.
var ErrNotFound = errors.New("session state not found")

// Store persists the current state of a session. It holds one state per session,
// never a history of past queries.
type Store interface {
	Load(ctx context.Context, sessionID string) (State, error)
	Save(ctx context.Context, sessionID string, st State) error
}

// TieredStore keeps session states in two tiers: L1 in-memory + L2 Redis.
// L1 is fast but lost on restart. L2 survives restarts and is shared between replicas.
type TieredStore struct {
	l1              sync.Map      // session id → *storeEntry
	rdb             *redis.Client // nil if Redis unavailable
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

type storeEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewTieredStore sets up the store. redisURL can be empty to disable L2.
// The L1 cleanup goroutine stops when ctx is done.
func NewTieredStore(ctx context.Context, redisURL string, ttl time.Duration, maxEntries int, cleanupInterval time.Duration) *TieredStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &TieredStore{ttl: ttl, maxEntries: maxEntries, cleanupInterval: cleanupInterval}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Warn("store: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				slog.Warn("store: redis unreachable, L2 disabled", slog.Any("error", err))
				_ = rdb.Close()
			} else {
				s.rdb = rdb
				slog.Info("store: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	slog.Info("store: initialized",
		slog.Duration("ttl", ttl), slog.Bool("redis", s.rdb != nil), slog.Int("max_entries", maxEntries))

	go s.cleanupLoop(ctx)
	return s
}

func storeKey(sessionID string) string {
	return "us:session:" + sessionID
}

// Load tries L1, then L2. On L2 hit, populates L1.
func (s *TieredStore) Load(ctx context.Context, sessionID string) (State, error) {
	key := storeKey(sessionID)

	if val, ok := s.l1.Load(key); ok {
		entry := val.(*storeEntry)
		if time.Now().Before(entry.expiresAt) {
			var st State
			if json.Unmarshal(entry.data, &st) == nil {
				s.hits.Add(1)
				return st, nil
			}
		}
		s.l1.Delete(key) // expired or corrupt
	}

	if s.rdb != nil {
		data, err := s.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var st State
			if err := json.Unmarshal(data, &st); err != nil {
				s.misses.Add(1)
				return State{}, fmt.Errorf("decode session %s: %w", sessionID, err)
			}
			s.hits.Add(1)
			s.l1.Store(key, &storeEntry{data: data, expiresAt: time.Now().Add(s.ttl)})
			return st, nil
		case !errors.Is(err, redis.Nil):
			slog.Debug("store: L2 get failed", slog.Any("error", err))
		}
	}

	s.misses.Add(1)
	return State{}, ErrNotFound
}

// Save stores st in both L1 and L2. An L2 failure is logged, not returned:
// the state stays usable from L1.
func (s *TieredStore) Save(ctx context.Context, sessionID string, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	key := storeKey(sessionID)

	if _, exists := s.l1.Load(key); !exists {
		s.evictIfNeeded()
	}
	s.l1.Store(key, &storeEntry{data: data, expiresAt: time.Now().Add(s.ttl)})

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
			slog.Debug("store: L2 set failed", slog.Any("error", err))
		}
	}
	return nil
}

// Stats returns L1+L2 hit/miss counters.
func (s *TieredStore) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Close releases the Redis connection, if any.
func (s *TieredStore) Close() error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// evictIfNeeded removes entries when L1 reaches maxEntries.
// Expired entries go first, then the ones closest to expiry.
func (s *TieredStore) evictIfNeeded() {
	if s.maxEntries <= 0 {
		return
	}

	count := 0
	s.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count < s.maxEntries {
		return
	}

	now := time.Now()
	s.l1.Range(func(key, val any) bool {
		if entry, ok := val.(*storeEntry); ok && now.After(entry.expiresAt) {
			s.l1.Delete(key)
			count--
		}
		return count >= s.maxEntries
	})

	for count >= s.maxEntries {
		var oldestKey any
		oldestAt := now.Add(s.ttl + time.Hour)
		s.l1.Range(func(key, val any) bool {
			if entry, ok := val.(*storeEntry); ok && entry.expiresAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			break
		}
		s.l1.Delete(oldestKey)
		count--
	}
}

func (s *TieredStore) cleanupLoop(ctx context.Context) {
	interval := s.cleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			s.l1.Range(func(key, val any) bool {
				if entry, ok := val.(*storeEntry); ok && now.After(entry.expiresAt) {
					s.l1.Delete(key)
				}
				return true
			})
		}
	}
}
