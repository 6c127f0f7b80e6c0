package quota

import (
	"context"
	"time"
)

// Repository is the durable per-provider per-day usage ledger.
type Repository interface {
	// CheckAndIncrement atomically increments the counter for (provider, day)
	// if the current count is below limit, creating the row at count=1 when
	// absent. It returns the count after the operation and whether the
	// increment was applied. The read-modify-write must be atomic across
	// concurrent callers for the same provider and day.
	CheckAndIncrement(ctx context.Context, provider string, day time.Time, limit int) (count int, allowed bool, err error)

	// Usage returns the count for (provider, day), zero if no row exists.
	Usage(ctx context.Context, provider string, day time.Time) (int, error)
}
