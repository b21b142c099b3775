package ports

import (
	"context"
	"time"
)

// MergeLease serializes merge runs across processor instances. Acquire is
// non-blocking: a false return means another holder owns the lease.
type MergeLease interface {
	Acquire(ctx context.Context, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, holder string) error
	HealthCheck(ctx context.Context) error
	Close() error
}
