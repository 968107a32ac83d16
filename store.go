package courier

import (
	"context"
	"time"
)

// Store is the cache capability shared by the Cache and Idempotent features.
// Implementations may do I/O (persisted backends) but each operation must be
// logically atomic per key.
//
// TTL semantics: ttl == 0 stores the value without expiry; ttl < 0 stores an
// already-expired entry that is always observed as absent.
type Store interface {
	// Get returns the value under key, or ok=false on miss or expiry.
	Get(ctx context.Context, key string) (*Response, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value *Response, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry the store owns.
	Clear(ctx context.Context) error

	// Has reports whether key holds an unexpired value.
	Has(ctx context.Context, key string) (bool, error)
}

// Cleaner is an optional Store extension that proactively evicts all expired
// entries, in addition to the lazy eviction Get/Has perform.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}
