// Package ratelimit provides fixed-window request limiting behind an
// injected store, so a single instance can use process memory and a
// multi-instance deployment can share counts through Redis.
package ratelimit

import (
	"context"
	"time"
)

// Store counts hits per key within a TTL window. Implementations must
// reset a key's count once its window expires.
type Store interface {
	// Incr increments the counter for key and returns the new count.
	// The first increment in a window starts the TTL clock.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}
