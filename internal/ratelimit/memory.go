package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type windowEntry struct {
	count       int
	windowStart time.Time
}

// MemoryStore keeps fixed-window counters in process memory.
// Counters are per process; separate instances do not share quotas.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time

	// SweepAfter is the number of windows after which an idle entry is evicted.
	SweepAfter int
}

// NewMemoryStore returns an empty MemoryStore using the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]*windowEntry),
		now:        time.Now,
		SweepAfter: 2,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Hit applies the fixed-window algorithm to key.
func (s *MemoryStore) Hit(_ context.Context, key string, max int, window time.Duration) (Result, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || !now.Before(entry.windowStart.Add(window)) {
		s.entries[key] = &windowEntry{count: 1, windowStart: now}
		return Result{Allowed: true, Limit: max, Remaining: max - 1, ResetAt: now.Add(window)}, nil
	}
	resetAt := entry.windowStart.Add(window)
	if entry.count >= max {
		return Result{Allowed: false, Limit: max, Remaining: 0, ResetAt: resetAt}, nil
	}
	entry.count++
	return Result{Allowed: true, Limit: max, Remaining: max - entry.count, ResetAt: resetAt}, nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep evicts entries whose window started more than SweepAfter windows ago.
// It returns the number of evicted entries.
func (s *MemoryStore) Sweep(window time.Duration) int {
	after := s.SweepAfter
	if after <= 0 {
		after = 1
	}
	cutoff := s.now().Add(-time.Duration(after) * window)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.entries {
		if entry.windowStart.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps stale entries every window until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, window time.Duration, logger *slog.Logger) {
	if window <= 0 {
		window = DefaultWindow
	}
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(window); removed > 0 && logger != nil {
				logger.Debug("rate limit sweep", slog.Int("removed", removed), slog.Int("remaining", s.Len()))
			}
		}
	}
}
