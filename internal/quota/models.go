// Package quota enforces per-provider daily call budgets backed by a durable ledger.
package quota

import (
	"errors"
	"time"
)

// Quota errors.
var (
	// ErrQuotaExceeded means the provider's daily limit is reached; only the
	// specific call path that hit it should fail.
	ErrQuotaExceeded = errors.New("provider daily quota exceeded")

	// ErrServiceDisabled means a critical provider is exhausted for the day
	// and the whole operation must be refused up front.
	ErrServiceDisabled = errors.New("service disabled: critical provider quota exhausted")
)

// ProviderQuota is one ledger row: usage of a provider on a calendar day.
// Count is monotonically non-decreasing within a day and never exceeds Limit.
type ProviderQuota struct {
	Provider string
	Day      time.Time
	Count    int
	Limit    int
}

// Remaining returns how many calls are left for the day.
func (q ProviderQuota) Remaining() int {
	r := q.Limit - q.Count
	if r < 0 {
		return 0
	}
	return r
}

// Exhausted reports whether the day's budget is used up.
func (q ProviderQuota) Exhausted() bool {
	return q.Count >= q.Limit
}
