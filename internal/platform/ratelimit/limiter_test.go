package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterAllowsWithinLimit(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := New(3, time.Minute, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		decision := limiter.Allow("checkout")
		if !decision.Allowed {
			t.Fatalf("attempt %d: expected allowed", i+1)
		}
		if decision.RetryAfter != 0 {
			t.Fatalf("attempt %d: expected no cooldown, got %d", i+1, decision.RetryAfter)
		}
	}

	decision := limiter.Allow("checkout")
	if decision.Allowed {
		t.Fatal("fourth attempt should be denied")
	}
	if decision.RetryAfter <= 0 {
		t.Fatalf("expected positive cooldown, got %d", decision.RetryAfter)
	}
}

func TestLimiterWindowExpiryStartsFresh(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := New(2, 2*time.Minute, func() time.Time { return now })

	limiter.Allow("brief")
	limiter.Allow("brief")
	if limiter.Allow("brief").Allowed {
		t.Fatal("third attempt inside window should be denied")
	}

	now = now.Add(2*time.Minute + time.Second)
	decision := limiter.Allow("brief")
	if !decision.Allowed {
		t.Fatal("attempt after window expiry should be allowed")
	}
}

func TestLimiterCooldownCeiling(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := New(1, time.Minute, func() time.Time { return now })

	limiter.Allow("brief")
	now = now.Add(30*time.Second + 500*time.Millisecond)

	decision := limiter.Allow("brief")
	if decision.Allowed {
		t.Fatal("second attempt should be denied")
	}
	// 29.5 seconds remain; the ceiling is 30.
	if decision.RetryAfter != 30 {
		t.Fatalf("expected cooldown 30, got %d", decision.RetryAfter)
	}
	if got := limiter.RemainingCooldown("brief"); got != 30 {
		t.Fatalf("expected remaining cooldown 30, got %d", got)
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := New(1, time.Minute, func() time.Time { return now })

	if !limiter.Allow("session-a").Allowed {
		t.Fatal("first key should be allowed")
	}
	if limiter.Allow("session-a").Allowed {
		t.Fatal("first key should now be denied")
	}
	if !limiter.Allow("session-b").Allowed {
		t.Fatal("second key should be unaffected")
	}
}

func TestLimiterReset(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := New(1, time.Minute, func() time.Time { return now })

	limiter.Allow("brief")
	if limiter.Allow("brief").Allowed {
		t.Fatal("expected denial before reset")
	}
	limiter.Reset("brief")
	if !limiter.Allow("brief").Allowed {
		t.Fatal("expected allowance after reset")
	}
}

func TestLimiterInvalidConfiguration(t *testing.T) {
	if New(0, time.Minute, nil) != nil {
		t.Fatal("zero limit should yield nil limiter")
	}
	if New(3, 0, nil) != nil {
		t.Fatal("zero window should yield nil limiter")
	}

	var nilLimiter *Limiter
	if !nilLimiter.Allow("anything").Allowed {
		t.Fatal("nil limiter must allow everything")
	}
	if nilLimiter.RemainingCooldown("anything") != 0 {
		t.Fatal("nil limiter must report no cooldown")
	}
}
