package favorites

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
	DefaultFavoritesPerPage = 20
	MaxFavoritesPerPage     = 100
)

// PlaceFinder confirms that a favorited place exists.
type PlaceFinder interface {
	GetPlaceByID(ctx context.Context, id uuid.UUID) (*models.Place, error)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ListFavorites(ctx context.Context, userID uuid.UUID, page models.PageRequest) (models.Page[models.Favorite], error)
	AddFavorite(ctx context.Context, userID uuid.UUID, req models.AddFavoriteRequest) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, placeID uuid.UUID) error
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
	places PlaceFinder
}

func NewService(repo Repository, places PlaceFinder, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		places: places,
	}
}

func (s *ServiceImpl) ListFavorites(ctx context.Context, userID uuid.UUID, page models.PageRequest) (models.Page[models.Favorite], error) {
	ctx, span := otel.Tracer("FavoritesService").Start(ctx, "ListFavorites", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Int("page", page.Page),
	))
	defer span.End()

	favorites, total, err := s.repo.ListFavorites(ctx, userID, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list favorites")
		return models.Page[models.Favorite]{}, fmt.Errorf("failed to list favorites: %w", err)
	}

	span.SetStatus(codes.Ok, "Favorites listed")
	return models.Page[models.Favorite]{Data: favorites, Pagination: page.Paginate(total)}, nil
}

func (s *ServiceImpl) AddFavorite(ctx context.Context, userID uuid.UUID, req models.AddFavoriteRequest) (*models.Favorite, error) {
	ctx, span := otel.Tracer("FavoritesService").Start(ctx, "AddFavorite", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "AddFavorite"), zap.String("userID", userID.String()))

	if err := models.Validate(req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}
	placeID := *req.PlaceID
	span.SetAttributes(attribute.String("place.id", placeID.String()))

	if _, err := s.places.GetPlaceByID(ctx, placeID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Place lookup failed")
		return nil, fmt.Errorf("failed to find place: %w", err)
	}

	exists, err := s.repo.Exists(ctx, userID, placeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Duplicate check failed")
		return nil, fmt.Errorf("failed to check favorite: %w", err)
	}
	if exists {
		span.SetStatus(codes.Error, "duplicate favorite")
		return nil, fmt.Errorf("place %s already favorited: %w", placeID, models.ErrDuplicate)
	}

	favorite := &models.Favorite{
		ID:      uuid.New(),
		UserID:  userID,
		PlaceID: placeID,
		Note:    nonEmpty(req.Note),
	}
	if err := s.repo.AddFavorite(ctx, favorite); err != nil {
		l.Error("Failed to add favorite", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to add favorite")
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}

	l.Info("Favorite added", zap.String("placeID", placeID.String()))
	span.SetStatus(codes.Ok, "Favorite added")
	return favorite, nil
}

// RemoveFavorite succeeds whether or not the place was favorited.
func (s *ServiceImpl) RemoveFavorite(ctx context.Context, userID, placeID uuid.UUID) error {
	ctx, span := otel.Tracer("FavoritesService").Start(ctx, "RemoveFavorite", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("place.id", placeID.String()),
	))
	defer span.End()

	removed, err := s.repo.RemoveFavorite(ctx, userID, placeID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to remove favorite")
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	span.SetAttributes(attribute.Bool("favorite.removed", removed))
	span.SetStatus(codes.Ok, "Favorite removed")
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
