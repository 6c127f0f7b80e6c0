package quota

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
//
// Atomicity relies on a conditional upsert: the UPDATE arm only fires while
// the stored count is below the limit, so concurrent callers can never push
// the counter past the boundary.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL quota repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// CheckAndIncrement atomically bumps the (provider, day) counter if below limit.
func (r *PostgresRepository) CheckAndIncrement(ctx context.Context, provider string, day time.Time, limit int) (int, bool, error) {
	query := `
		INSERT INTO api_usage (provider, day, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (provider, day)
		DO UPDATE SET count = api_usage.count + 1
		WHERE api_usage.count < $3
		RETURNING count
	`

	var count int
	err := r.pool.QueryRow(ctx, query, provider, day.Format(dayFormat), limit).Scan(&count)
	if err == nil {
		return count, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}

	// The conditional update fired nothing: the row exists at the limit.
	count, err = r.Usage(ctx, provider, day)
	if err != nil {
		return 0, false, err
	}
	return count, false, nil
}

// Usage returns the counter for (provider, day), zero when absent.
func (r *PostgresRepository) Usage(ctx context.Context, provider string, day time.Time) (int, error) {
	query := `SELECT count FROM api_usage WHERE provider = $1 AND day = $2`

	var count int
	err := r.pool.QueryRow(ctx, query, provider, day.Format(dayFormat)).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

const dayFormat = "2006-01-02"

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
