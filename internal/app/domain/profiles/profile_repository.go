package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	database "github.com/FACorreiaa/go-kidspots/internal/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetRole(ctx context.Context, userID uuid.UUID) (models.UserRole, error)
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

func (r *RepositoryImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := r.pgpool.QueryRow(ctx, `
		SELECT id, email, full_name, avatar_url, role, is_premium, created_at, updated_at
		FROM profiles
		WHERE id = $1`, userID,
	).Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.Role, &p.IsPremium, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Failed to get profile", zap.String("userID", userID.String()), zap.Error(err))
		return nil, models.DatabaseError("failed to get profile", err)
	}
	return &p, nil
}

// GetRole returns the stored role. A user without a profile row has the plain user role.
func (r *RepositoryImpl) GetRole(ctx context.Context, userID uuid.UUID) (models.UserRole, error) {
	var role models.UserRole
	err := r.pgpool.QueryRow(ctx, `SELECT role FROM profiles WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RoleUser, nil
		}
		return "", models.DatabaseError("failed to get role", err)
	}
	return role, nil
}
