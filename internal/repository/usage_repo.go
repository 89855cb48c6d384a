package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDailyLimitExceeded is returned when a non-paid increment finds the
// user's free allotment for the day already consumed.
var ErrDailyLimitExceeded = errors.New("daily_limit_exceeded")

// UsageRepository stores per-user daily AI generation counters. Day keys
// are UTC dates formatted as YYYY-MM-DD.
type UsageRepository interface {
	// GetOrInitUsage returns the user's usage row for the given day,
	// creating it on first contact and rolling the counter over to 0 when
	// the stored day key is stale.
	GetOrInitUsage(ctx context.Context, userID, day string) (*model.AIUsage, error)
	// IncrementIfAllowed applies one generation to the user's counter for
	// the given day. Free increments fail with ErrDailyLimitExceeded once
	// freeLimit is reached, without mutating the row. Paid increments
	// always succeed and mark the paid override instead of consuming the
	// free allotment.
	IncrementIfAllowed(ctx context.Context, userID, day string, isPaid bool, freeLimit int) error
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

// upsertQ inserts the row on first contact and otherwise applies the day
// rollover in a single statement, so concurrent callers always observe a
// row keyed to the current day.
const upsertQ = `
	INSERT INTO ai_usage (user_id, usage_date, free_count, is_paid_override, created_at, updated_at)
	VALUES ($1, $2, 0, FALSE, NOW(), NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET free_count       = CASE WHEN ai_usage.usage_date = EXCLUDED.usage_date THEN ai_usage.free_count ELSE 0 END,
	    is_paid_override = CASE WHEN ai_usage.usage_date = EXCLUDED.usage_date THEN ai_usage.is_paid_override ELSE FALSE END,
	    usage_date       = EXCLUDED.usage_date,
	    updated_at       = NOW()
	RETURNING user_id, free_count, usage_date, is_paid_override, created_at, updated_at
`

// GetOrInitUsage returns the (rolled-over) usage row for the current day.
func (r *usageRepo) GetOrInitUsage(ctx context.Context, userID, day string) (*model.AIUsage, error) {
	var u model.AIUsage
	err := r.pool.QueryRow(ctx, upsertQ, userID, day).Scan(
		&u.UserID,
		&u.FreeCount,
		&u.UsageDate,
		&u.IsPaidOverride,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch usage for user %s: %w", userID, err)
	}
	return &u, nil
}

// IncrementIfAllowed atomically rolls the row over, checks the free
// allotment and records the generation. The whole sequence runs in one
// serializable transaction so two concurrent requests cannot both pass the
// limit check.
func (r *usageRepo) IncrementIfAllowed(ctx context.Context, userID, day string, isPaid bool, freeLimit int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("starting transaction for usage increment: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var u model.AIUsage
	if err := tx.QueryRow(ctx, upsertQ, userID, day).Scan(
		&u.UserID,
		&u.FreeCount,
		&u.UsageDate,
		&u.IsPaidOverride,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return fmt.Errorf("locking usage row for user %s: %w", userID, err)
	}

	if isPaid {
		const paidQ = `UPDATE ai_usage SET is_paid_override = TRUE, updated_at = NOW() WHERE user_id = $1`
		if _, err := tx.Exec(ctx, paidQ, userID); err != nil {
			return fmt.Errorf("recording paid generation for user %s: %w", userID, err)
		}
	} else {
		if freeLimit > 0 && u.FreeCount >= freeLimit {
			return ErrDailyLimitExceeded
		}
		const freeQ = `UPDATE ai_usage SET free_count = free_count + 1, updated_at = NOW() WHERE user_id = $1`
		if _, err := tx.Exec(ctx, freeQ, userID); err != nil {
			return fmt.Errorf("recording free generation for user %s: %w", userID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing usage increment for user %s: %w", userID, err)
	}
	return nil
}
