/*
Package ratelimit provides the request throttling abstraction used by
the HTTP layer.

PURPOSE:
  The API throttles mutating requests per user. The limiter is injected
  as a small interface so the HTTP boundary carries no single-process
  assumption: the in-memory fixed window below serves a single node,
  and a distributed deployment swaps in an implementation backed by a
  shared store without touching the handlers.

SEE ALSO:
  - api/server.go: Middleware that consults the limiter
*/
package ratelimit

import (
	"sync"
	"time"
)

// Limiter reports whether a request identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// Unlimited never throttles. Used in tests and as the default when no
// limiter is configured.
type Unlimited struct{}

func (Unlimited) Allow(string) bool { return true }

// FixedWindow allows up to limit requests per key within each window.
// Counts reset at window boundaries rather than sliding, which permits
// short bursts of up to 2x limit across a boundary; acceptable for
// abuse protection, not for strict quota accounting.
type FixedWindow struct {
	limit  int
	window time.Duration

	// now is swappable for tests.
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	windowStart time.Time
	count       int
}

// NewFixedWindow creates a limiter allowing limit requests per window
// for each distinct key.
func NewFixedWindow(limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

var _ Limiter = (*FixedWindow)(nil)

// Allow records one request against key and reports whether it fits
// inside the current window.
func (f *FixedWindow) Allow(key string) bool {
	now := f.now()

	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.buckets[key]
	if !ok || now.Sub(b.windowStart) >= f.window {
		f.sweep(now)
		f.buckets[key] = &bucket{windowStart: now, count: 1}
		return true
	}

	if b.count >= f.limit {
		return false
	}
	b.count++
	return true
}

// sweep drops expired buckets. Called with the lock held, only on the
// window-rollover path, so steady-state Allow calls stay O(1).
func (f *FixedWindow) sweep(now time.Time) {
	for key, b := range f.buckets {
		if now.Sub(b.windowStart) >= f.window {
			delete(f.buckets, key)
		}
	}
}
