package cache

import (
	"time"
)

// Entry is the stored envelope around a cached value. The expiry is
// carried inside the envelope and double-checked against the clock on
// read; the Redis key TTL is the hard backstop that reclaims memory.
type Entry struct {
	// Data is the opaque serialized value.
	Data []byte `json:"data"`

	// StoredAt is when the entry was written.
	StoredAt time.Time `json:"stored_at"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`
}

// IsExpired reports whether the entry is stale at the given time.
func (e *Entry) IsExpired(now time.Time) bool {
	return now.After(e.Expires)
}

// TTL returns the remaining lifetime at the given time. Returns 0 if
// already expired.
func (e *Entry) TTL(now time.Time) time.Duration {
	ttl := e.Expires.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
