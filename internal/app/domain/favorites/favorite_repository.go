package favorites

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	database "github.com/FACorreiaa/go-kidspots/internal/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	ListFavorites(ctx context.Context, userID uuid.UUID, page models.PageRequest) ([]models.Favorite, int, error)
	Exists(ctx context.Context, userID, placeID uuid.UUID) (bool, error)
	AddFavorite(ctx context.Context, favorite *models.Favorite) error
	RemoveFavorite(ctx context.Context, userID, placeID uuid.UUID) (bool, error)
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

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func buildListQuery(userID uuid.UUID, page models.PageRequest) sq.SelectBuilder {
	return psql.Select(
		"f.id", "f.user_id", "f.place_id", "f.note", "f.created_at",
		"p.name", "p.slug", "p.category", "p.city", "p.state", "p.average_rating", "p.review_count",
		"(SELECT pi.url FROM place_images pi WHERE pi.place_id = p.id ORDER BY pi.is_primary DESC, pi.created_at ASC LIMIT 1)",
	).
		From("favorites f").
		Join("places p ON p.id = f.place_id").
		Where(sq.Expr("f.user_id = ?", userID)).
		OrderBy("f.created_at DESC", "f.id").
		Limit(uint64(page.PerPage)).
		Offset(uint64(page.Offset()))
}

// ListFavorites returns the user's favorites newest first, each with a place summary.
func (r *RepositoryImpl) ListFavorites(ctx context.Context, userID uuid.UUID, page models.PageRequest) ([]models.Favorite, int, error) {
	var total int
	if err := r.pgpool.QueryRow(ctx, `SELECT COUNT(*) FROM favorites WHERE user_id = $1`, userID).Scan(&total); err != nil {
		r.logger.Error("Failed to count favorites", zap.String("userID", userID.String()), zap.Error(err))
		return nil, 0, models.DatabaseError("failed to count favorites", err)
	}

	query, args, err := buildListQuery(userID, page).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build favorites query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list favorites", zap.String("userID", userID.String()), zap.Error(err))
		return nil, 0, models.DatabaseError("failed to list favorites", err)
	}
	defer rows.Close()

	favorites := make([]models.Favorite, 0, page.PerPage)
	for rows.Next() {
		var (
			f     models.Favorite
			place models.PlaceSummary
		)
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.PlaceID, &f.Note, &f.CreatedAt,
			&place.Name, &place.Slug, &place.Category, &place.City, &place.State,
			&place.AverageRating, &place.ReviewCount, &place.ImageURL,
		); err != nil {
			return nil, 0, models.DatabaseError("failed to scan favorite", err)
		}
		place.ID = f.PlaceID
		f.Place = &place
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, models.DatabaseError("failed iterating favorites", err)
	}
	return favorites, total, nil
}

func (r *RepositoryImpl) Exists(ctx context.Context, userID, placeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND place_id = $2)`, userID, placeID,
	).Scan(&exists)
	if err != nil {
		return false, models.DatabaseError("failed to check favorite", err)
	}
	return exists, nil
}

func (r *RepositoryImpl) AddFavorite(ctx context.Context, f *models.Favorite) error {
	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO favorites (id, user_id, place_id, note)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		f.ID, f.UserID, f.PlaceID, f.Note,
	).Scan(&f.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "favorites_user_place_key") {
			return fmt.Errorf("place %s already favorited: %w", f.PlaceID, models.ErrDuplicate)
		}
		r.logger.Error("Failed to add favorite", zap.Error(err))
		return models.DatabaseError("failed to add favorite", err)
	}
	return nil
}

// RemoveFavorite reports whether a row was deleted.
func (r *RepositoryImpl) RemoveFavorite(ctx context.Context, userID, placeID uuid.UUID) (bool, error) {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND place_id = $2`, userID, placeID)
	if err != nil {
		r.logger.Error("Failed to remove favorite", zap.Error(err))
		return false, models.DatabaseError("failed to remove favorite", err)
	}
	return tag.RowsAffected() > 0, nil
}
