package places

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	"github.com/FACorreiaa/go-kidspots/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-kidspots/internal/pkg/config"
	"github.com/FACorreiaa/go-kidspots/internal/pkg/slug"
)

const (
	detailReviewLimit = 50
	viewCountTimeout  = 5 * time.Second
)

// ReviewLister loads the reviews shown on a place page.
type ReviewLister interface {
	ListByPlace(ctx context.Context, placeID uuid.UUID, sort models.ReviewSort, page models.PageRequest) ([]models.Review, int, error)
}

// ContributionRecorder appends contribution records.
type ContributionRecorder interface {
	Record(ctx context.Context, actor models.Actor, placeID uuid.UUID, kind models.ContributionType, payload any) (*models.Contribution, error)
}

// ActorResolver looks up the caller's role.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID uuid.UUID) (models.Actor, error)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	SearchPlaces(ctx context.Context, params models.PlaceSearchParams) (models.PlaceSearchResult, error)
	GetPlaceDetail(ctx context.Context, slug string) (*models.PlaceDetail, error)
	CreatePlace(ctx context.Context, userID uuid.UUID, req models.CreatePlaceRequest) (*models.Place, error)
	UpdatePlace(ctx context.Context, userID uuid.UUID, slug string, req models.UpdatePlaceRequest) (*models.Place, error)
	SubmitContribution(ctx context.Context, userID uuid.UUID, slug string, req models.SubmitContributionRequest) (*models.Contribution, error)
}

type ServiceImpl struct {
	logger        *zap.Logger
	repo          Repository
	reviews       ReviewLister
	contributions ContributionRecorder
	actors        ActorResolver

	candidateLimit int
	searchCache    *cache.Cache
	detailCache    *cache.Cache
	detailGroup    singleflight.Group

	now         func() time.Time
	viewCounted func() // test hook, runs after each background view update
}

func NewService(repo Repository, reviews ReviewLister, contributions ContributionRecorder, actors ActorResolver,
	cfg config.SearchConfig, logger *zap.Logger) *ServiceImpl {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ServiceImpl{
		logger:         logger,
		repo:           repo,
		reviews:        reviews,
		contributions:  contributions,
		actors:         actors,
		candidateLimit: cfg.CandidateLimit,
		searchCache:    cache.New(ttl, 2*ttl),
		detailCache:    cache.New(ttl, 2*ttl),
		now:            time.Now,
	}
}

// SearchPlaces loads a prefiltered candidate set and runs the in-memory engine over it.
func (s *ServiceImpl) SearchPlaces(ctx context.Context, params models.PlaceSearchParams) (models.PlaceSearchResult, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "SearchPlaces", trace.WithAttributes(
		attribute.String("search.query", params.Query),
		attribute.String("search.sort", string(params.Sort)),
		attribute.Bool("search.geo", params.HasCenter()),
		attribute.Int("page", params.Page.Page),
	))
	defer span.End()

	m := metrics.Get()
	m.SearchRequestsTotal.Add(ctx, 1)

	key := cacheKey(params)
	span.SetAttributes(attribute.String("cache.key", key))
	if cached, found := s.searchCache.Get(key); found {
		m.SearchCacheHitsTotal.Add(ctx, 1)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "Search served from cache")
		return cached.(models.PlaceSearchResult), nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	candidates, matched, err := s.repo.SearchCandidates(ctx, params, s.candidateLimit)
	if err != nil {
		s.logger.Error("Failed to load search candidates", zap.String("method", "SearchPlaces"), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load candidates")
		return models.PlaceSearchResult{}, fmt.Errorf("failed to search places: %w", err)
	}
	m.SearchCandidates.Record(ctx, int64(len(candidates)))

	result := Search(candidates, params)
	if s.candidateLimit > 0 && len(candidates) >= s.candidateLimit {
		s.logger.Warn("Search candidate limit reached",
			zap.Int("limit", s.candidateLimit), zap.Int("matched", matched), zap.String("cacheKey", key))
		// Only the first candidateLimit rows were ranked; pages past them come back empty.
		if matched > result.Pagination.Total {
			result.Pagination = searchPage(params).Paginate(matched)
		}
	}
	s.searchCache.Set(key, result, cache.DefaultExpiration)

	span.SetAttributes(
		attribute.Int("search.candidates", len(candidates)),
		attribute.Int("search.total", result.Pagination.Total),
	)
	span.SetStatus(codes.Ok, "Search completed")
	return result, nil
}

// PlaceChanged drops cached results that may show stale rating aggregates for placeID.
func (s *ServiceImpl) PlaceChanged(placeID uuid.UUID) {
	for key, item := range s.detailCache.Items() {
		if detail, ok := item.Object.(*models.PlaceDetail); ok && detail.ID == placeID {
			s.detailCache.Delete(key)
		}
	}
	s.searchCache.Flush()
}

// GetPlaceDetail returns the place with images and reviews. Concurrent loads of the
// same slug share one database round trip. Each call counts one view.
func (s *ServiceImpl) GetPlaceDetail(ctx context.Context, slug string) (*models.PlaceDetail, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "GetPlaceDetail", trace.WithAttributes(
		attribute.String("place.slug", slug),
	))
	defer span.End()

	var detail *models.PlaceDetail
	if cached, found := s.detailCache.Get(slug); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		detail = cached.(*models.PlaceDetail)
	} else {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		v, err, _ := s.detailGroup.Do(slug, func() (interface{}, error) {
			return s.loadDetail(ctx, slug)
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to load place")
			return nil, err
		}
		detail = v.(*models.PlaceDetail)
		s.detailCache.Set(slug, detail, cache.DefaultExpiration)
	}

	s.countView(ctx, detail.ID)

	span.SetStatus(codes.Ok, "Place retrieved")
	return detail, nil
}

func (s *ServiceImpl) loadDetail(ctx context.Context, slug string) (*models.PlaceDetail, error) {
	place, err := s.repo.GetPlaceBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get place: %w", err)
	}

	reviews, _, err := s.reviews.ListByPlace(ctx, place.ID, models.ReviewSortNewest,
		models.PageRequest{Page: 1, PerPage: detailReviewLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to load place reviews: %w", err)
	}

	return &models.PlaceDetail{Place: *place, Reviews: reviews}, nil
}

// countView bumps the view counter in the background. It is not awaited and
// outlives the request; failures are only logged and counted.
func (s *ServiceImpl) countView(ctx context.Context, placeID uuid.UUID) {
	bg := context.WithoutCancel(ctx)
	go func() {
		if s.viewCounted != nil {
			defer s.viewCounted()
		}
		ctx, cancel := context.WithTimeout(bg, viewCountTimeout)
		defer cancel()

		if err := s.repo.IncrementViewCount(ctx, placeID); err != nil {
			metrics.Get().ViewCountFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", "place")))
			s.logger.Warn("Failed to increment place view count", zap.String("placeID", placeID.String()), zap.Error(err))
		}
	}()
}

// CreatePlace validates and inserts a new unverified place and records a new_place contribution.
func (s *ServiceImpl) CreatePlace(ctx context.Context, userID uuid.UUID, req models.CreatePlaceRequest) (*models.Place, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "CreatePlace", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("place.name", req.Name),
		attribute.String("place.category", string(req.Category)),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "CreatePlace"), zap.String("userID", userID.String()))

	if err := models.Validate(req); err != nil {
		span.SetStatus(codes.Error, "invalid place")
		return nil, err
	}

	actor, err := s.actors.ResolveActor(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to resolve actor")
		return nil, err
	}

	base := slug.Make(req.Name, req.City)
	placeSlug := base
	taken, err := s.repo.SlugExists(ctx, base)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Slug check failed")
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if taken {
		placeSlug = slug.WithSuffix(base, s.now())
	}

	place := placeFromRequest(req, placeSlug, userID)

	err = s.repo.CreatePlace(ctx, place)
	if errors.Is(err, models.ErrDuplicate) {
		// Lost a race for the slug; one retry with a fresh suffix.
		place.Slug = slug.WithSuffix(base, s.now())
		l.Info("Slug collision on insert, retrying", zap.String("slug", place.Slug))
		err = s.repo.CreatePlace(ctx, place)
	}
	if err != nil {
		l.Error("Failed to create place", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create place")
		return nil, fmt.Errorf("failed to create place: %w", err)
	}

	if _, err := s.contributions.Record(ctx, actor, place.ID, models.ContributionNewPlace, map[string]any{"original": req}); err != nil {
		l.Warn("Failed to record new_place contribution", zap.String("placeID", place.ID.String()), zap.Error(err))
	}

	s.searchCache.Flush()
	l.Info("Place created", zap.String("placeID", place.ID.String()), zap.String("slug", place.Slug))
	span.SetStatus(codes.Ok, "Place created")
	return place, nil
}

func placeFromRequest(req models.CreatePlaceRequest, placeSlug string, userID uuid.UUID) *models.Place {
	country := strings.TrimSpace(req.Country)
	if country == "" {
		country = "USA"
	}
	amenities := models.DefaultAmenities()
	if req.Amenities != nil {
		amenities = *req.Amenities
	}
	createdBy := userID
	return &models.Place{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Slug:        placeSlug,
		Description: req.Description,
		Category:    req.Category,
		Address:     strings.TrimSpace(req.Address),
		City:        strings.TrimSpace(req.City),
		State:       strings.TrimSpace(req.State),
		ZipCode:     req.ZipCode,
		Country:     country,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		Phone:       req.Phone,
		Website:     req.Website,
		Hours:       req.Hours,
		PriceRange:  req.PriceRange,
		Amenities:   amenities,
		Images:      []models.PlaceImage{},
		IsVerified:  false,
		IsClaimed:   false,
		CreatedBy:   &createdBy,
	}
}

// placeSnapshot is the previous state stored with an edit_place contribution.
type placeSnapshot struct {
	ID        uuid.UUID  `json:"id"`
	ClaimedBy *uuid.UUID `json:"claimed_by"`
}

// UpdatePlace applies whitelisted edits. Only the claiming owner or an admin may edit.
func (s *ServiceImpl) UpdatePlace(ctx context.Context, userID uuid.UUID, placeSlug string, req models.UpdatePlaceRequest) (*models.Place, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "UpdatePlace", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("place.slug", placeSlug),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "UpdatePlace"), zap.String("slug", placeSlug))

	place, err := s.repo.GetPlaceBySlug(ctx, placeSlug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Place lookup failed")
		return nil, fmt.Errorf("failed to get place: %w", err)
	}

	actor, err := s.actors.ResolveActor(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to resolve actor")
		return nil, err
	}
	isOwner := place.ClaimedBy != nil && *place.ClaimedBy == userID
	if !actor.IsAdmin() && !isOwner {
		span.SetStatus(codes.Error, "forbidden")
		return nil, fmt.Errorf("user %s cannot edit place %s: %w", userID, place.ID, models.ErrForbidden)
	}

	if req.IsEmpty() {
		span.SetStatus(codes.Error, "empty update")
		return nil, models.NewValidationError("body", "no valid fields to update")
	}
	if err := models.Validate(req); err != nil {
		span.SetStatus(codes.Error, "invalid update")
		return nil, err
	}

	previous := placeSnapshot{ID: place.ID, ClaimedBy: place.ClaimedBy}
	applyPlaceUpdate(place, req)

	if err := s.repo.UpdatePlace(ctx, place); err != nil {
		l.Error("Failed to update place", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update place")
		return nil, fmt.Errorf("failed to update place: %w", err)
	}

	payload := map[string]any{"updates": req, "previous": previous}
	if _, err := s.contributions.Record(ctx, actor, place.ID, models.ContributionEditPlace, payload); err != nil {
		l.Warn("Failed to record edit_place contribution", zap.Error(err))
	}

	s.detailCache.Delete(placeSlug)
	s.searchCache.Flush()

	l.Info("Place updated", zap.String("placeID", place.ID.String()), zap.Bool("admin", actor.IsAdmin()))
	span.SetStatus(codes.Ok, "Place updated")
	return place, nil
}

func applyPlaceUpdate(p *models.Place, req models.UpdatePlaceRequest) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Address != nil {
		p.Address = strings.TrimSpace(*req.Address)
	}
	if req.City != nil {
		p.City = strings.TrimSpace(*req.City)
	}
	if req.State != nil {
		p.State = strings.TrimSpace(*req.State)
	}
	if req.ZipCode != nil {
		p.ZipCode = req.ZipCode
	}
	if req.Phone != nil {
		p.Phone = req.Phone
	}
	if req.Website != nil {
		p.Website = req.Website
	}
	if req.Hours != nil {
		p.Hours = req.Hours
	}
	if req.PriceRange != nil {
		p.PriceRange = req.PriceRange
	}
	if req.Amenities != nil {
		p.Amenities = *req.Amenities
	}
}

// SubmitContribution records a user proposal against a place. The place is not changed.
func (s *ServiceImpl) SubmitContribution(ctx context.Context, userID uuid.UUID, placeSlug string, req models.SubmitContributionRequest) (*models.Contribution, error) {
	ctx, span := otel.Tracer("PlaceService").Start(ctx, "SubmitContribution", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("place.slug", placeSlug),
		attribute.String("contribution.type", string(req.Type)),
	))
	defer span.End()

	if !req.Type.UserSubmittable() {
		span.SetStatus(codes.Error, "type not submittable")
		return nil, models.NewValidationError("type", "must be one of add_photo, update_amenity, report_issue")
	}

	place, err := s.repo.GetPlaceBySlug(ctx, placeSlug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Place lookup failed")
		return nil, fmt.Errorf("failed to get place: %w", err)
	}

	actor, err := s.actors.ResolveActor(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to resolve actor")
		return nil, err
	}

	c, err := s.contributions.Record(ctx, actor, place.ID, req.Type, req.Data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to record contribution")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Contribution submitted")
	return c, nil
}
