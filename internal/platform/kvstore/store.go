package kvstore

import (
	"context"
	"time"
)

// Blob is a persisted value together with the moment it was written. Freshness
// checks always run against SavedAt; a stale blob is treated as absent, never
// as partially valid.
type Blob struct {
	Data    []byte    `json:"data"`
	SavedAt time.Time `json:"savedAt"`
}

// Store is a fail-soft key-value store. Implementations never surface errors:
// a failed read reports the value as absent and a failed write reports false,
// leaving callers free to continue with in-memory state for the session.
type Store interface {
	Get(ctx context.Context, key string) (Blob, bool)
	Set(ctx context.Context, key string, blob Blob) bool
	Delete(ctx context.Context, key string) bool
}

// Fresh reports whether the blob was saved within ttl of now. A zero ttl
// disables the check.
func Fresh(blob Blob, now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return true
	}
	if blob.SavedAt.IsZero() {
		return false
	}
	return now.Sub(blob.SavedAt) <= ttl
}
