package quota

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Default guard settings.
const (
	DefaultLimit         = 90
	DefaultWarnThreshold = 0.8
)

// GuardConfig holds configuration for the quota guard.
type GuardConfig struct {
	// Repository is the durable usage ledger (required).
	Repository Repository

	// Logger for guard operations.
	Logger zerolog.Logger

	// Limits maps provider name to its daily call limit.
	Limits map[string]int

	// DefaultLimit applies to providers missing from Limits (default: 90).
	DefaultLimit int

	// Critical lists providers whose exhaustion disables the whole service
	// for the rest of the day, rather than degrading a single call path.
	Critical []string

	// WarnThreshold is the usage fraction that triggers a warning log
	// (default: 0.8). Observability only; no behavior change.
	WarnThreshold float64

	// Clock is overridable for tests (default: time.Now).
	Clock func() time.Time
}

// Guard enforces daily provider quotas against the ledger.
type Guard struct {
	repo          Repository
	logger        zerolog.Logger
	limits        map[string]int
	defaultLimit  int
	critical      []string
	warnThreshold float64
	clock         func() time.Time
}

// NewGuard creates a new quota guard.
func NewGuard(cfg GuardConfig) *Guard {
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}

	warnThreshold := cfg.WarnThreshold
	if warnThreshold <= 0 || warnThreshold > 1 {
		warnThreshold = DefaultWarnThreshold
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	limits := cfg.Limits
	if limits == nil {
		limits = make(map[string]int)
	}

	return &Guard{
		repo:          cfg.Repository,
		logger:        cfg.Logger,
		limits:        limits,
		defaultLimit:  defaultLimit,
		critical:      cfg.Critical,
		warnThreshold: warnThreshold,
		clock:         clock,
	}
}

// Limit returns the daily limit for a provider.
func (g *Guard) Limit(provider string) int {
	if limit, ok := g.limits[provider]; ok {
		return limit
	}
	return g.defaultLimit
}

// CheckAndIncrement consumes one unit of the provider's daily budget.
// Returns ErrQuotaExceeded when the limit is reached; the caller decides
// whether that degrades a single call path or (for critical providers via
// SystemEnabled) the whole request.
func (g *Guard) CheckAndIncrement(ctx context.Context, provider string) error {
	limit := g.Limit(provider)
	day := g.today()

	count, allowed, err := g.repo.CheckAndIncrement(ctx, provider, day, limit)
	if err != nil {
		return err
	}

	if !allowed {
		g.logger.Info().
			Str("provider", provider).
			Int("limit", limit).
			Msg("provider daily quota exhausted")
		return ErrQuotaExceeded
	}

	if float64(count) >= float64(limit)*g.warnThreshold {
		g.logger.Warn().
			Str("provider", provider).
			Int("used", count).
			Int("limit", limit).
			Msg("provider quota usage above warning threshold")
	}

	return nil
}

// Usage returns today's usage count for a provider, zero if unused.
func (g *Guard) Usage(ctx context.Context, provider string) (int, error) {
	return g.repo.Usage(ctx, provider, g.today())
}

// Snapshot returns today's ledger row for a provider.
func (g *Guard) Snapshot(ctx context.Context, provider string) (ProviderQuota, error) {
	day := g.today()
	count, err := g.repo.Usage(ctx, provider, day)
	if err != nil {
		return ProviderQuota{}, err
	}
	return ProviderQuota{
		Provider: provider,
		Day:      day,
		Count:    count,
		Limit:    g.Limit(provider),
	}, nil
}

// AnyCriticalExhausted reports whether any critical provider used up
// today's budget.
func (g *Guard) AnyCriticalExhausted(ctx context.Context) (bool, error) {
	day := g.today()
	for _, provider := range g.critical {
		count, err := g.repo.Usage(ctx, provider, day)
		if err != nil {
			return false, err
		}
		if count >= g.Limit(provider) {
			return true, nil
		}
	}
	return false, nil
}

// SystemEnabled fails with ErrServiceDisabled when a critical provider is
// exhausted. Callers check this before doing any provider-dependent work.
func (g *Guard) SystemEnabled(ctx context.Context) error {
	exhausted, err := g.AnyCriticalExhausted(ctx)
	if err != nil {
		return err
	}
	if exhausted {
		return ErrServiceDisabled
	}
	return nil
}

// today truncates the clock to the calendar day in UTC.
// A new day starts a fresh ledger row at count=0.
func (g *Guard) today() time.Time {
	return g.clock().UTC().Truncate(24 * time.Hour)
}
