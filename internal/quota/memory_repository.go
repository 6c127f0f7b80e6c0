package quota

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is an in-memory implementation of Repository.
// Used for local development and tests; the mutex stands in for the
// database-level atomicity of the Postgres upsert.
type MemoryRepository struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryRepository creates a new in-memory quota repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		counts: make(map[string]int),
	}
}

// CheckAndIncrement atomically bumps the (provider, day) counter if below limit.
func (r *MemoryRepository) CheckAndIncrement(_ context.Context, provider string, day time.Time, limit int) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ledgerKey(provider, day)
	count := r.counts[key]
	if count >= limit {
		return count, false, nil
	}

	count++
	r.counts[key] = count
	return count, true, nil
}

// Usage returns the counter for (provider, day), zero when absent.
func (r *MemoryRepository) Usage(_ context.Context, provider string, day time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[ledgerKey(provider, day)], nil
}

func ledgerKey(provider string, day time.Time) string {
	return provider + ":" + day.Format(dayFormat)
}

// Ensure MemoryRepository implements Repository interface.
var _ Repository = (*MemoryRepository)(nil)
