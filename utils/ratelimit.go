package utils

import (
	"context"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"maxscale/models"
)

const (
	// RateLimitWindow is the length of one fixed window.
	RateLimitWindow = 60 * time.Second
	// MaxRequests is how many submissions a client may make per window.
	MaxRequests = 5
)

// RateLimitStore records a hit for key and returns the window after the hit.
// A key seen for the first time, or whose window has ended, starts a new
// window with a count of one.
type RateLimitStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (models.RateLimitEntry, error)
}

// Limiter is a fixed-window counter. Bursts straddling a window boundary can
// be admitted up to twice the limit.
type Limiter struct {
	store  RateLimitStore
	limit  int64
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithLimiterClock replaces time.Now, mostly for tests.
func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithLimiterLogger sets the logger used to report store failures.
func WithLimiterLogger(logger *slog.Logger) LimiterOption {
	return func(l *Limiter) {
		l.logger = logger
	}
}

func NewLimiter(store RateLimitStore, limit int, window time.Duration, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		store:  store,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow counts one request for key. retryAfter is the time left in the
// current window. When the store fails the request is allowed and the error
// is returned for logging.
func (l *Limiter) Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error) {
	entry, err := l.store.Hit(ctx, key, l.window)
	if err != nil {
		l.logger.Warn("rate limit store unavailable, allowing request", "error", err)
		return true, 0, err
	}
	retryAfter = entry.ResetTime.Sub(l.now())
	if retryAfter < 0 {
		retryAfter = 0
	}
	return entry.Count <= l.limit, retryAfter, nil
}

// MemoryStore keeps windows in process memory. Each instance of the server
// has its own counts.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]models.RateLimitEntry
	now     func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(m *MemoryStore) {
		m.now = now
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]models.RateLimitEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStore) Hit(_ context.Context, key string, window time.Duration) (models.RateLimitEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.entries[key]
	if !ok || now.After(entry.ResetTime) {
		entry = models.RateLimitEntry{Count: 1, ResetTime: now.Add(window)}
	} else {
		entry.Count++
	}
	m.entries[key] = entry
	return entry, nil
}

// Sweep drops windows that ended before now and returns how many were
// removed. It never changes a decision: an ended window is reset on its
// next hit anyway.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if now.After(entry.ResetTime) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports how many windows are tracked.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(m.now()); n > 0 {
				logger.Debug("swept expired rate limit windows", "removed", n)
			}
		}
	}
}

// hashedKey keeps raw client addresses out of shared stores.
func hashedKey(prefix, key string) string {
	sum := blake2b.Sum256([]byte(key))
	return prefix + hex.EncodeToString(sum[:])
}
