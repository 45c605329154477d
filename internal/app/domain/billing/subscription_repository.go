package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	database "github.com/FACorreiaa/go-kidspots/internal/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSubscription, error)
	// SaveSubscription overwrites the user's record and sets profiles.is_premium from it.
	SaveSubscription(ctx context.Context, sub *models.UserSubscription) error
	// CancelSubscription downgrades the record for subscriptionID and rederives the user's premium flag from the stored row.
	CancelSubscription(ctx context.Context, userID uuid.UUID, subscriptionID string) error
	MarkPastDue(ctx context.Context, subscriptionID string) (bool, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool database.Pool
}

func NewRepository(pgpool database.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *RepositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSubscription, error) {
	query := `
		SELECT id, user_id, stripe_customer_id, stripe_subscription_id, plan, status,
		       current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at
		FROM user_subscriptions
		WHERE user_id = $1`

	var sub models.UserSubscription
	err := r.pgpool.QueryRow(ctx, query, userID).Scan(
		&sub.ID, &sub.UserID, &sub.StripeCustomerID, &sub.StripeSubscriptionID, &sub.Plan, &sub.Status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CancelAtPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get subscription", zap.Error(err), zap.String("userID", userID.String()))
		return nil, models.DatabaseError("failed to get subscription", err)
	}
	return &sub, nil
}

func (r *RepositoryImpl) SaveSubscription(ctx context.Context, sub *models.UserSubscription) (err error) {
	l := r.logger.With(zap.String("method", "SaveSubscription"), zap.String("userID", sub.UserID.String()))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		l.Error("Failed to begin transaction", zap.Error(err))
		return models.DatabaseError("failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				l.Warn("Rollback failed", zap.Error(rbErr))
			}
		}
	}()

	upsert := `
		INSERT INTO user_subscriptions (
			user_id, stripe_customer_id, stripe_subscription_id, plan, status,
			current_period_start, current_period_end, cancel_at_period_end
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT user_subscriptions_user_key DO UPDATE SET
			stripe_customer_id     = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			plan                   = EXCLUDED.plan,
			status                 = EXCLUDED.status,
			current_period_start   = EXCLUDED.current_period_start,
			current_period_end     = EXCLUDED.current_period_end,
			cancel_at_period_end   = EXCLUDED.cancel_at_period_end,
			updated_at             = NOW()
		RETURNING id, created_at, updated_at`

	err = tx.QueryRow(ctx, upsert,
		sub.UserID, sub.StripeCustomerID, sub.StripeSubscriptionID, string(sub.Plan), string(sub.Status),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		l.Error("Failed to upsert subscription", zap.Error(err))
		return models.DatabaseError("failed to upsert subscription", err)
	}

	if _, err = tx.Exec(ctx, `UPDATE profiles SET is_premium = $1, updated_at = NOW() WHERE id = $2`,
		sub.GrantsPremium(), sub.UserID); err != nil {
		l.Error("Failed to update premium flag", zap.Error(err))
		return models.DatabaseError("failed to update premium flag", err)
	}

	if err = tx.Commit(ctx); err != nil {
		l.Error("Failed to commit subscription", zap.Error(err))
		return models.DatabaseError("failed to commit subscription", err)
	}
	return nil
}

func (r *RepositoryImpl) CancelSubscription(ctx context.Context, userID uuid.UUID, subscriptionID string) (err error) {
	l := r.logger.With(zap.String("method", "CancelSubscription"), zap.String("userID", userID.String()))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		l.Error("Failed to begin transaction", zap.Error(err))
		return models.DatabaseError("failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				l.Warn("Rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if _, err = tx.Exec(ctx, `
		UPDATE user_subscriptions
		SET status = $1, plan = $2, updated_at = NOW()
		WHERE stripe_subscription_id = $3`,
		string(models.SubscriptionCanceled), string(models.PlanFree), subscriptionID); err != nil {
		l.Error("Failed to cancel subscription", zap.Error(err))
		return models.DatabaseError("failed to cancel subscription", err)
	}

	// The stored row may belong to a newer subscription than the deleted one, so the
	// flag is derived from whatever the row holds now.
	if _, err = tx.Exec(ctx, `
		UPDATE profiles
		SET is_premium = COALESCE((
			SELECT plan <> $2 AND status = $3
			FROM user_subscriptions
			WHERE user_id = $1
		), FALSE), updated_at = NOW()
		WHERE id = $1`,
		userID, string(models.PlanFree), string(models.SubscriptionActive)); err != nil {
		l.Error("Failed to recompute premium flag", zap.Error(err))
		return models.DatabaseError("failed to recompute premium flag", err)
	}

	if err = tx.Commit(ctx); err != nil {
		l.Error("Failed to commit cancellation", zap.Error(err))
		return models.DatabaseError("failed to commit cancellation", err)
	}
	return nil
}

// MarkPastDue reports whether a local record referenced subscriptionID.
func (r *RepositoryImpl) MarkPastDue(ctx context.Context, subscriptionID string) (bool, error) {
	tag, err := r.pgpool.Exec(ctx, `
		UPDATE user_subscriptions
		SET status = $1, updated_at = NOW()
		WHERE stripe_subscription_id = $2`,
		string(models.SubscriptionPastDue), subscriptionID)
	if err != nil {
		r.logger.Error("Failed to mark subscription past due", zap.Error(err), zap.String("subscriptionID", subscriptionID))
		return false, models.DatabaseError("failed to mark subscription past due", err)
	}
	return tag.RowsAffected() > 0, nil
}
