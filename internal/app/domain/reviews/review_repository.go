package reviews

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	database "github.com/FACorreiaa/go-kidspots/internal/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	ListByPlace(ctx context.Context, placeID uuid.UUID, sort models.ReviewSort, page models.PageRequest) ([]models.Review, int, error)
	GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ExistsForUser(ctx context.Context, userID, placeID uuid.UUID) (bool, error)
	CreateReview(ctx context.Context, review *models.Review) error
	UpdateReview(ctx context.Context, review *models.Review) error
	DeleteReview(ctx context.Context, id uuid.UUID) error
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

const reviewColumns = `r.id, r.place_id, r.user_id, r.rating, r.title, r.content,
	to_char(r.visit_date, 'YYYY-MM-DD'), r.with_children_ages, r.amenity_ratings,
	r.is_verified_visit, r.helpful_count, r.created_at, r.updated_at,
	pr.id, pr.full_name, pr.avatar_url`

func reviewOrder(sort models.ReviewSort) []string {
	switch sort {
	case models.ReviewSortOldest:
		return []string{"r.created_at ASC", "r.id"}
	case models.ReviewSortHighest:
		return []string{"r.rating DESC", "r.created_at DESC", "r.id"}
	case models.ReviewSortLowest:
		return []string{"r.rating ASC", "r.created_at DESC", "r.id"}
	case models.ReviewSortHelpful:
		return []string{"r.helpful_count DESC", "r.created_at DESC", "r.id"}
	default:
		return []string{"r.created_at DESC", "r.id"}
	}
}

func buildListQuery(placeID uuid.UUID, sort models.ReviewSort, page models.PageRequest) sq.SelectBuilder {
	return psql.Select(reviewColumns).
		From("reviews r").
		LeftJoin("profiles pr ON pr.id = r.user_id").
		Where(sq.Expr("r.place_id = ?", placeID)).
		OrderBy(reviewOrder(sort)...).
		Limit(uint64(page.PerPage)).
		Offset(uint64(page.Offset()))
}

func scanReview(row pgx.Row, rv *models.Review) error {
	var (
		authorID     *uuid.UUID
		authorName   *string
		authorAvatar *string
	)
	if err := row.Scan(
		&rv.ID, &rv.PlaceID, &rv.UserID, &rv.Rating, &rv.Title, &rv.Content,
		&rv.VisitDate, &rv.WithChildrenAges, &rv.AmenityRatings,
		&rv.IsVerifiedVisit, &rv.HelpfulCount, &rv.CreatedAt, &rv.UpdatedAt,
		&authorID, &authorName, &authorAvatar,
	); err != nil {
		return err
	}
	if authorID != nil {
		rv.Author = &models.AuthorSummary{ID: *authorID, FullName: authorName, AvatarURL: authorAvatar}
	}
	if rv.WithChildrenAges == nil {
		rv.WithChildrenAges = []int32{}
	}
	return nil
}

// ListByPlace returns one page of a place's reviews and the total review count.
func (r *RepositoryImpl) ListByPlace(ctx context.Context, placeID uuid.UUID, sort models.ReviewSort, page models.PageRequest) ([]models.Review, int, error) {
	var total int
	if err := r.pgpool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE place_id = $1`, placeID).Scan(&total); err != nil {
		r.logger.Error("Failed to count reviews", zap.String("placeID", placeID.String()), zap.Error(err))
		return nil, 0, models.DatabaseError("failed to count reviews", err)
	}

	query, args, err := buildListQuery(placeID, sort, page).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build review query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list reviews", zap.String("placeID", placeID.String()), zap.Error(err))
		return nil, 0, models.DatabaseError("failed to list reviews", err)
	}
	defer rows.Close()

	reviews := make([]models.Review, 0, page.PerPage)
	for rows.Next() {
		var rv models.Review
		if err := scanReview(rows, &rv); err != nil {
			return nil, 0, models.DatabaseError("failed to scan review", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, models.DatabaseError("failed iterating reviews", err)
	}

	if err := r.attachImages(ctx, reviews); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *RepositoryImpl) attachImages(ctx context.Context, reviews []models.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(reviews))
	for i, rv := range reviews {
		ids[i] = rv.ID
	}

	rows, err := r.pgpool.Query(ctx, `
		SELECT id, review_id, url, caption, created_at
		FROM review_images
		WHERE review_id = ANY($1)
		ORDER BY created_at ASC`, ids)
	if err != nil {
		return models.DatabaseError("failed to query review images", err)
	}
	defer rows.Close()

	byReview := make(map[uuid.UUID][]models.ReviewImage, len(reviews))
	for rows.Next() {
		var img models.ReviewImage
		if err := rows.Scan(&img.ID, &img.ReviewID, &img.URL, &img.Caption, &img.CreatedAt); err != nil {
			return models.DatabaseError("failed to scan review image", err)
		}
		byReview[img.ReviewID] = append(byReview[img.ReviewID], img)
	}
	if err := rows.Err(); err != nil {
		return models.DatabaseError("failed iterating review images", err)
	}

	for i := range reviews {
		reviews[i].Images = byReview[reviews[i].ID]
		if reviews[i].Images == nil {
			reviews[i].Images = []models.ReviewImage{}
		}
	}
	return nil
}

// GetReview loads a review with its author, images and place summary.
func (r *RepositoryImpl) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	query, args, err := psql.Select(reviewColumns,
		"p.id", "p.name", "p.slug", "p.category", "p.city", "p.state", "p.average_rating", "p.review_count").
		From("reviews r").
		LeftJoin("profiles pr ON pr.id = r.user_id").
		Join("places p ON p.id = r.place_id").
		Where(sq.Expr("r.id = ?", id)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build review query: %w", err)
	}

	var (
		rv           models.Review
		place        models.PlaceSummary
		authorID     *uuid.UUID
		authorName   *string
		authorAvatar *string
	)
	err = r.pgpool.QueryRow(ctx, query, args...).Scan(
		&rv.ID, &rv.PlaceID, &rv.UserID, &rv.Rating, &rv.Title, &rv.Content,
		&rv.VisitDate, &rv.WithChildrenAges, &rv.AmenityRatings,
		&rv.IsVerifiedVisit, &rv.HelpfulCount, &rv.CreatedAt, &rv.UpdatedAt,
		&authorID, &authorName, &authorAvatar,
		&place.ID, &place.Name, &place.Slug, &place.Category, &place.City, &place.State,
		&place.AverageRating, &place.ReviewCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("review %s: %w", id, models.ErrNotFound)
		}
		r.logger.Error("Failed to get review", zap.String("reviewID", id.String()), zap.Error(err))
		return nil, models.DatabaseError("failed to get review", err)
	}
	if authorID != nil {
		rv.Author = &models.AuthorSummary{ID: *authorID, FullName: authorName, AvatarURL: authorAvatar}
	}
	if rv.WithChildrenAges == nil {
		rv.WithChildrenAges = []int32{}
	}
	rv.Place = &place

	reviews := []models.Review{rv}
	if err := r.attachImages(ctx, reviews); err != nil {
		return nil, err
	}
	return &reviews[0], nil
}

func (r *RepositoryImpl) ExistsForUser(ctx context.Context, userID, placeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE user_id = $1 AND place_id = $2)`, userID, placeID,
	).Scan(&exists)
	if err != nil {
		return false, models.DatabaseError("failed to check existing review", err)
	}
	return exists, nil
}

// CreateReview inserts the review. Place aggregates are maintained by the reviews trigger.
func (r *RepositoryImpl) CreateReview(ctx context.Context, rv *models.Review) error {
	query := `
		INSERT INTO reviews (
			id, place_id, user_id, rating, title, content, visit_date,
			with_children_ages, amenity_ratings, is_verified_visit
		) VALUES ($1, $2, $3, $4, $5, $6, $7::text::date, $8, $9, $10)
		RETURNING helpful_count, created_at, updated_at`

	err := r.pgpool.QueryRow(ctx, query,
		rv.ID, rv.PlaceID, rv.UserID, rv.Rating, rv.Title, rv.Content, rv.VisitDate,
		rv.WithChildrenAges, rv.AmenityRatings, rv.IsVerifiedVisit,
	).Scan(&rv.HelpfulCount, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "reviews_user_place_key") {
			return fmt.Errorf("review for place %s: %w", rv.PlaceID, models.ErrDuplicateReview)
		}
		r.logger.Error("Failed to create review", zap.Error(err))
		return models.DatabaseError("failed to create review", err)
	}
	return nil
}

func (r *RepositoryImpl) UpdateReview(ctx context.Context, rv *models.Review) error {
	query := `
		UPDATE reviews SET
			rating = $2, title = $3, content = $4, visit_date = $5::text::date,
			with_children_ages = $6, amenity_ratings = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pgpool.QueryRow(ctx, query,
		rv.ID, rv.Rating, rv.Title, rv.Content, rv.VisitDate, rv.WithChildrenAges, rv.AmenityRatings,
	).Scan(&rv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("review %s: %w", rv.ID, models.ErrNotFound)
		}
		r.logger.Error("Failed to update review", zap.Error(err))
		return models.DatabaseError("failed to update review", err)
	}
	return nil
}

func (r *RepositoryImpl) DeleteReview(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete review", zap.Error(err))
		return models.DatabaseError("failed to delete review", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("review %s: %w", id, models.ErrNotFound)
	}
	return nil
}
