package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
)

const (
	DefaultReviewsPerPage = 10
	MaxReviewsPerPage     = 50
)

// PlaceFinder resolves the place a review belongs to.
type PlaceFinder interface {
	GetPlaceBySlug(ctx context.Context, slug string) (*models.Place, error)
}

// ActorResolver looks up the caller's role.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID uuid.UUID) (models.Actor, error)
}

// PlaceChangeNotifier is told when a review write changed a place's rating aggregates.
type PlaceChangeNotifier interface {
	PlaceChanged(placeID uuid.UUID)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ListPlaceReviews(ctx context.Context, slug string, sort models.ReviewSort, page models.PageRequest) (models.Page[models.Review], error)
	CreateReview(ctx context.Context, userID uuid.UUID, slug string, req models.CreateReviewRequest) (*models.Review, error)
	GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error)
	UpdateReview(ctx context.Context, userID, id uuid.UUID, req models.UpdateReviewRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, userID, id uuid.UUID) error
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
	places PlaceFinder
	actors ActorResolver
	notify PlaceChangeNotifier
}

func NewService(repo Repository, places PlaceFinder, actors ActorResolver, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		places: places,
		actors: actors,
	}
}

// SetPlaceNotifier registers the listener for review writes.
func (s *ServiceImpl) SetPlaceNotifier(n PlaceChangeNotifier) {
	s.notify = n
}

func (s *ServiceImpl) placeChanged(placeID uuid.UUID) {
	if s.notify != nil {
		s.notify.PlaceChanged(placeID)
	}
}

func (s *ServiceImpl) ListPlaceReviews(ctx context.Context, slug string, sort models.ReviewSort, page models.PageRequest) (models.Page[models.Review], error) {
	ctx, span := otel.Tracer("ReviewService").Start(ctx, "ListPlaceReviews", trace.WithAttributes(
		attribute.String("place.slug", slug),
		attribute.String("sort", string(sort)),
		attribute.Int("page", page.Page),
	))
	defer span.End()

	place, err := s.places.GetPlaceBySlug(ctx, slug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Place lookup failed")
		return models.Page[models.Review]{}, fmt.Errorf("failed to find place: %w", err)
	}

	reviews, total, err := s.repo.ListByPlace(ctx, place.ID, sort, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list reviews")
		return models.Page[models.Review]{}, fmt.Errorf("failed to list reviews: %w", err)
	}

	span.SetAttributes(attribute.Int("reviews.total", total))
	span.SetStatus(codes.Ok, "Reviews listed")
	return models.Page[models.Review]{Data: reviews, Pagination: page.Paginate(total)}, nil
}

// CreateReview enforces one review per user and place. The unique constraint backs the pre-check.
func (s *ServiceImpl) CreateReview(ctx context.Context, userID uuid.UUID, slug string, req models.CreateReviewRequest) (*models.Review, error) {
	ctx, span := otel.Tracer("ReviewService").Start(ctx, "CreateReview", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("place.slug", slug),
		attribute.Int("rating", req.Rating),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "CreateReview"), zap.String("userID", userID.String()))

	if err := models.Validate(req); err != nil {
		span.SetStatus(codes.Error, "invalid review")
		return nil, err
	}

	place, err := s.places.GetPlaceBySlug(ctx, slug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Place lookup failed")
		return nil, fmt.Errorf("failed to find place: %w", err)
	}

	exists, err := s.repo.ExistsForUser(ctx, userID, place.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Duplicate check failed")
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if exists {
		span.SetStatus(codes.Error, "duplicate review")
		return nil, models.ErrDuplicateReview
	}

	review := &models.Review{
		ID:               uuid.New(),
		PlaceID:          place.ID,
		UserID:           userID,
		Rating:           req.Rating,
		Title:            trimOptional(req.Title),
		Content:          strings.TrimSpace(req.Content),
		VisitDate:        req.VisitDate,
		WithChildrenAges: req.WithChildrenAges,
		AmenityRatings:   req.AmenityRatings,
		Images:           []models.ReviewImage{},
	}
	if review.WithChildrenAges == nil {
		review.WithChildrenAges = []int32{}
	}

	if err := s.repo.CreateReview(ctx, review); err != nil {
		l.Error("Failed to create review", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create review")
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.placeChanged(place.ID)
	l.Info("Review created", zap.String("reviewID", review.ID.String()), zap.String("placeID", place.ID.String()))
	span.SetStatus(codes.Ok, "Review created")
	return review, nil
}

func (s *ServiceImpl) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	ctx, span := otel.Tracer("ReviewService").Start(ctx, "GetReview", trace.WithAttributes(
		attribute.String("review.id", id.String()),
	))
	defer span.End()

	review, err := s.repo.GetReview(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get review")
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	span.SetStatus(codes.Ok, "Review retrieved")
	return review, nil
}

// UpdateReview applies the whitelisted fields. Only the author may edit.
func (s *ServiceImpl) UpdateReview(ctx context.Context, userID, id uuid.UUID, req models.UpdateReviewRequest) (*models.Review, error) {
	ctx, span := otel.Tracer("ReviewService").Start(ctx, "UpdateReview", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("review.id", id.String()),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "UpdateReview"), zap.String("reviewID", id.String()))

	if req.IsEmpty() {
		span.SetStatus(codes.Error, "empty update")
		return nil, models.NewValidationError("body", "no updatable fields provided")
	}
	if err := models.Validate(req); err != nil {
		span.SetStatus(codes.Error, "invalid update")
		return nil, err
	}

	review, err := s.repo.GetReview(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load review")
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	if review.UserID != userID {
		span.SetStatus(codes.Error, "not the author")
		return nil, fmt.Errorf("only the author can edit a review: %w", models.ErrForbidden)
	}

	applyUpdate(review, req)

	if err := s.repo.UpdateReview(ctx, review); err != nil {
		l.Error("Failed to update review", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update review")
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.placeChanged(review.PlaceID)
	l.Info("Review updated")
	span.SetStatus(codes.Ok, "Review updated")
	return review, nil
}

func applyUpdate(review *models.Review, req models.UpdateReviewRequest) {
	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Title != nil {
		review.Title = trimOptional(req.Title)
	}
	if req.Content != nil {
		review.Content = strings.TrimSpace(*req.Content)
	}
	if req.VisitDate != nil {
		review.VisitDate = req.VisitDate
	}
	if req.WithChildrenAges != nil {
		review.WithChildrenAges = req.WithChildrenAges
	}
	if req.AmenityRatings != nil {
		review.AmenityRatings = *req.AmenityRatings
	}
}

// DeleteReview removes a review. The author or an admin may delete.
func (s *ServiceImpl) DeleteReview(ctx context.Context, userID, id uuid.UUID) error {
	ctx, span := otel.Tracer("ReviewService").Start(ctx, "DeleteReview", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("review.id", id.String()),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "DeleteReview"), zap.String("reviewID", id.String()))

	review, err := s.repo.GetReview(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load review")
		return fmt.Errorf("failed to load review: %w", err)
	}

	if review.UserID != userID {
		actor, err := s.actors.ResolveActor(ctx, userID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to resolve actor")
			return err
		}
		if !actor.IsAdmin() {
			span.SetStatus(codes.Error, "not allowed")
			return fmt.Errorf("only the author or an admin can delete a review: %w", models.ErrForbidden)
		}
	}

	if err := s.repo.DeleteReview(ctx, id); err != nil {
		l.Error("Failed to delete review", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete review")
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.placeChanged(review.PlaceID)
	l.Info("Review deleted", zap.String("userID", userID.String()))
	span.SetStatus(codes.Ok, "Review deleted")
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
