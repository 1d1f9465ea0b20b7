package ratelimit

import (
	"testing"
	"time"
)

func TestFixedWindow_AllowsUpToLimit(t *testing.T) {
	// GIVEN: A limiter allowing 3 requests per minute
	// WHEN: One key makes 4 requests inside the window
	// THEN: The first 3 pass, the 4th is rejected

	l := NewFixedWindow(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("alice") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("alice") {
		t.Error("4th request should be rejected")
	}
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	l := NewFixedWindow(1, time.Minute)

	if !l.Allow("alice") {
		t.Fatal("alice's first request should be allowed")
	}
	if !l.Allow("bob") {
		t.Error("bob should not be throttled by alice's traffic")
	}
	if l.Allow("alice") {
		t.Error("alice's second request should be rejected")
	}
}

func TestFixedWindow_ResetsAtWindowBoundary(t *testing.T) {
	// GIVEN: A key that has exhausted its window
	// WHEN: The clock advances past the window boundary
	// THEN: The count resets and requests pass again

	l := NewFixedWindow(1, time.Minute)
	current := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	if !l.Allow("alice") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("alice") {
		t.Fatal("second request in the same window should be rejected")
	}

	current = current.Add(time.Minute)
	if !l.Allow("alice") {
		t.Error("request after the window rolls over should be allowed")
	}
}

func TestFixedWindow_SweepDropsExpiredBuckets(t *testing.T) {
	l := NewFixedWindow(1, time.Minute)
	current := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	l.Allow("alice")
	l.Allow("bob")

	current = current.Add(2 * time.Minute)
	l.Allow("carol") // triggers the sweep

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.buckets["alice"]; ok {
		t.Error("expired bucket for alice should have been swept")
	}
	if _, ok := l.buckets["carol"]; !ok {
		t.Error("live bucket for carol should remain")
	}
}

func TestUnlimited_NeverThrottles(t *testing.T) {
	var l Limiter = Unlimited{}
	for i := 0; i < 100; i++ {
		if !l.Allow("anyone") {
			t.Fatal("unlimited limiter must always allow")
		}
	}
}
