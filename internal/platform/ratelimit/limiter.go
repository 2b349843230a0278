package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Decision reports the outcome of an Allow call. RetryAfter is only set on
// denial and holds the ceiling of the seconds left in the current window.
type Decision struct {
	Allowed    bool
	RetryAfter int
}

type entry struct {
	firstAttempt time.Time
	lastAttempt  time.Time
	count        int
}

// Limiter is a sliding-window attempt counter keyed by action string. Each key
// is counted independently; there is no global cap. State lives in memory only
// and does not survive a restart.
type Limiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu    sync.Mutex
	store map[string]entry
}

// New constructs a limiter allowing limit attempts per window. A nil clock
// defaults to time.Now.
func New(limit int, window time.Duration, clock func() time.Time) *Limiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &Limiter{
		limit:  limit,
		window: window,
		clock:  clock,
		store:  make(map[string]entry),
	}
}

// Allow records an attempt for the key and reports whether it may proceed.
// A nil limiter allows everything.
func (l *Limiter) Allow(key string) Decision {
	if l == nil {
		return Decision{Allowed: true}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}
	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.store[key]
	if !ok || now.Sub(rec.firstAttempt) > l.window {
		l.store[key] = entry{firstAttempt: now, lastAttempt: now, count: 1}
		l.pruneExpiredLocked(now)
		return Decision{Allowed: true}
	}

	if rec.count >= l.limit {
		return Decision{Allowed: false, RetryAfter: l.cooldownLocked(rec, now)}
	}

	rec.count++
	rec.lastAttempt = now
	l.store[key] = rec
	return Decision{Allowed: true}
}

// RemainingCooldown reports the seconds left before the key is allowed again,
// or 0 when the key is not rate limited.
func (l *Limiter) RemainingCooldown(key string) int {
	if l == nil {
		return 0
	}
	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.store[strings.TrimSpace(key)]
	if !ok || rec.count < l.limit {
		return 0
	}
	if now.Sub(rec.firstAttempt) > l.window {
		return 0
	}
	return l.cooldownLocked(rec, now)
}

// Reset clears recorded state for one key, permitting an immediate retry.
func (l *Limiter) Reset(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.store, strings.TrimSpace(key))
}

// ResetAll clears all recorded state.
func (l *Limiter) ResetAll() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store = make(map[string]entry)
}

func (l *Limiter) cooldownLocked(rec entry, now time.Time) int {
	left := l.window - now.Sub(rec.firstAttempt)
	if left <= 0 {
		return 0
	}
	secs := int((left + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (l *Limiter) pruneExpiredLocked(now time.Time) {
	for key, rec := range l.store {
		if now.Sub(rec.firstAttempt) > l.window {
			delete(l.store, key)
		}
	}
}
