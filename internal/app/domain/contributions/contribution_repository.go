package contributions

import (
	"context"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	database "github.com/FACorreiaa/go-kidspots/internal/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	CreateContribution(ctx context.Context, c *models.Contribution) error
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

// CreateContribution appends a contribution row and sets CreatedAt from the database.
func (r *RepositoryImpl) CreateContribution(ctx context.Context, c *models.Contribution) error {
	query := `
		INSERT INTO contributions (id, place_id, user_id, type, data, status, reviewed_by, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.pgpool.QueryRow(ctx, query,
		c.ID, c.PlaceID, c.UserID, string(c.Type), []byte(c.Data), string(c.Status), c.ReviewedBy, c.ReviewedAt,
	).Scan(&c.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create contribution", zap.Error(err), zap.String("type", string(c.Type)))
		return models.DatabaseError("failed to create contribution", err)
	}
	return nil
}
