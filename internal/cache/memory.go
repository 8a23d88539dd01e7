package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mausam360/backend/internal/weather"
)

type entry struct {
	bundle   weather.Bundle
	cachedAt time.Time
}

// Memory is a concurrency-safe in-process location cache. Bundles are
// copied on the way in and out. Entries expire
// weather.CacheTTL after their last Put; expired entries are dropped on read
// and by Sweep.
//
// Get and Put are independent: two callers missing the same key may both
// refresh and the later Put wins. weather.Service collapses such misses.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Memory cache.
type Option func(*Memory)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory creates an empty cache.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		ttl:     weather.CacheTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) fresh(e entry, now time.Time) bool {
	return now.Sub(e.cachedAt) < m.ttl
}

// Get returns the bundle stored under the quantized key of lat/lon.
func (m *Memory) Get(_ context.Context, lat, lon float64) (weather.Bundle, bool, error) {
	key := weather.LocationKey(lat, lon)
	now := m.now()

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return weather.Bundle{}, false, nil
	}
	if m.fresh(e, now) {
		return e.bundle.Clone(), true, nil
	}

	m.mu.Lock()
	// Re-check: a Put may have replaced the entry in the meantime.
	if cur, ok := m.entries[key]; ok && !m.fresh(cur, now) {
		delete(m.entries, key)
	}
	m.mu.Unlock()

	return weather.Bundle{}, false, nil
}

// Put stores bundle under the quantized key of lat/lon, replacing any
// previous entry and resetting its age.
func (m *Memory) Put(_ context.Context, lat, lon float64, bundle weather.Bundle) error {
	bundle.Cached = false
	key := weather.LocationKey(lat, lon)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{bundle: bundle.Clone(), cachedAt: m.now()}
	return nil
}

// Sweep removes every expired entry and reports how many were dropped.
func (m *Memory) Sweep(_ context.Context) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if !m.fresh(e, now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored entries, including expired ones not yet swept.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Health always succeeds for the in-process cache.
func (m *Memory) Health(context.Context) error {
	return nil
}
