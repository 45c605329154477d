package places

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	"github.com/FACorreiaa/go-kidspots/internal/app/observability/metrics"
	database "github.com/FACorreiaa/go-kidspots/internal/db"
	"github.com/FACorreiaa/go-kidspots/internal/pkg/utils"
)

// Ensure RepositoryImpl implements the Repository interface
var _ Repository = (*RepositoryImpl)(nil)

// Repository defines the storage operations for places and their images.
type Repository interface {
	SearchCandidates(ctx context.Context, params models.PlaceSearchParams, limit int) ([]models.Place, int, error)
	GetPlaceBySlug(ctx context.Context, slug string) (*models.Place, error)
	GetPlaceByID(ctx context.Context, id uuid.UUID) (*models.Place, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreatePlace(ctx context.Context, place *models.Place) error
	UpdatePlace(ctx context.Context, place *models.Place) error
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
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

const placeColumns = `p.id, p.name, p.slug, p.description, p.category, p.address, p.city, p.state, p.zip_code,
	p.country, p.latitude, p.longitude, p.phone, p.website, p.hours, p.price_range, p.amenities,
	p.is_verified, p.is_claimed, p.claimed_by, p.created_by, p.average_rating, p.review_count,
	p.contribution_count, p.view_count, p.created_at, p.updated_at`

// amenityContainment maps each amenity filter onto a jsonb containment document.
var amenityContainment = map[models.AmenityType]string{
	models.AmenityChangingStation:      `{"changing_station":{"available":true}}`,
	models.AmenityHighChairs:           `{"high_chairs":true}`,
	models.AmenityKidsMenu:             `{"kids_menu":true}`,
	models.AmenityStrollerFriendly:     `{"stroller_friendly":true}`,
	models.AmenityOutdoorSeating:       `{"outdoor_seating":true}`,
	models.AmenityPlayArea:             `{"play_area":true}`,
	models.AmenityNursingRoom:          `{"nursing_room":true}`,
	models.AmenityFamilyRestroom:       `{"family_restroom":true}`,
	models.AmenityWheelchairAccessible: `{"wheelchair_accessible":true}`,
	models.AmenityQuiet:                `{"noise_level":"quiet"}`,
	models.AmenityParking:              `{"parking":{"available":true}}`,
}

// haversineSQL is the great-circle distance in miles from a center point to the row,
// the same formula as utils.HaversineMiles. Args: radius, lat, lat, lng.
const haversineSQL = `(? * 2 * asin(least(1, sqrt(
	power(sin(radians(p.latitude - ?) / 2), 2) +
	cos(radians(?)) * cos(radians(p.latitude)) * power(sin(radians(p.longitude - ?) / 2), 2)))))`

func haversineArgs(params models.PlaceSearchParams) []any {
	return []any{utils.EarthRadiusMiles, params.Latitude, params.Latitude, params.Longitude}
}

// escapeLike escapes LIKE wildcards so user text is matched literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// buildSearchQuery pushes every filter down and orders rows the way Search ranks
// them, so a capped result keeps the best candidates. match_count is the number of
// matching rows before the limit.
func buildSearchQuery(params models.PlaceSearchParams, limit int) sq.SelectBuilder {
	q := psql.Select(placeColumns, "COUNT(*) OVER() AS match_count").From("places p")
	geo := params.HasCenter() && params.RadiusMiles > 0

	if text := strings.TrimSpace(params.Query); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		q = q.Where(sq.Or{
			sq.ILike{"p.name": pattern},
			sq.ILike{"p.description": pattern},
			sq.ILike{"p.address": pattern},
			sq.ILike{"p.city": pattern},
		})
	}
	if len(params.Categories) > 0 {
		q = q.Where(sq.Eq{"p.category": toStrings(params.Categories)})
	}
	for _, a := range params.Amenities {
		if doc, ok := amenityContainment[a]; ok {
			q = q.Where(sq.Expr("p.amenities @> ?::jsonb", doc))
		}
	}
	if len(params.PriceRanges) > 0 {
		q = q.Where(sq.Eq{"p.price_range": toStrings(params.PriceRanges)})
	}
	if len(params.NoiseLevels) > 0 {
		q = q.Where(sq.Eq{"p.amenities->>'noise_level'": toStrings(params.NoiseLevels)})
	}
	if params.MinRating > 0 {
		q = q.Where(sq.GtOrEq{"p.average_rating": params.MinRating})
	}
	if params.VerifiedOnly {
		q = q.Where(sq.Eq{"p.is_verified": true})
	}
	if params.HasPhotos {
		q = q.Where("EXISTS (SELECT 1 FROM place_images pi WHERE pi.place_id = p.id)")
	}
	if geo {
		// The box lets the planner use the lat/lng index before the exact distance check.
		b := utils.RadiusBounds(params.Latitude, params.Longitude, params.RadiusMiles)
		q = q.Where(sq.And{
			sq.GtOrEq{"p.latitude": b.MinLat},
			sq.LtOrEq{"p.latitude": b.MaxLat},
			sq.GtOrEq{"p.longitude": b.MinLng},
			sq.LtOrEq{"p.longitude": b.MaxLng},
		})
		q = q.Where(sq.Expr(haversineSQL+" <= ?", append(haversineArgs(params), params.RadiusMiles)...))
	}

	switch {
	case params.Sort == models.SortDistance && geo:
		q = q.OrderByClause(haversineSQL+" ASC", haversineArgs(params)...).OrderBy("p.id")
	case params.Sort == models.SortReviews:
		q = q.OrderBy("p.review_count DESC", "p.id")
	case params.Sort == models.SortNewest:
		q = q.OrderBy("p.created_at DESC", "p.id")
	case params.Sort == models.SortAlphabetical:
		q = q.OrderBy("lower(p.name) ASC", "p.id")
	default:
		q = q.OrderBy("p.average_rating DESC", "p.review_count DESC", "p.id")
	}

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func scanPlace(row pgx.Row, p *models.Place, extra ...any) error {
	dest := []any{
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Category, &p.Address, &p.City, &p.State, &p.ZipCode,
		&p.Country, &p.Latitude, &p.Longitude, &p.Phone, &p.Website, &p.Hours, &p.PriceRange, &p.Amenities,
		&p.IsVerified, &p.IsClaimed, &p.ClaimedBy, &p.CreatedBy, &p.AverageRating, &p.ReviewCount,
		&p.ContributionCount, &p.ViewCount, &p.CreatedAt, &p.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// SearchCandidates loads up to limit matching places with their images attached,
// and the number of places that matched before the limit.
func (r *RepositoryImpl) SearchCandidates(ctx context.Context, params models.PlaceSearchParams, limit int) ([]models.Place, int, error) {
	query, args, err := buildSearchQuery(params, limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build search query: %w", err)
	}

	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.observe(ctx, start, err)
		r.logger.Error("Failed to query place candidates", zap.Error(err))
		return nil, 0, models.DatabaseError("failed to query places", err)
	}
	defer rows.Close()

	places := make([]models.Place, 0)
	var matched int64
	for rows.Next() {
		var p models.Place
		if err := scanPlace(rows, &p, &matched); err != nil {
			r.logger.Error("Failed to scan place row", zap.Error(err))
			return nil, 0, models.DatabaseError("failed to scan place", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		r.observe(ctx, start, err)
		return nil, 0, models.DatabaseError("failed iterating places", err)
	}
	r.observe(ctx, start, nil)

	if err := r.attachImages(ctx, places); err != nil {
		return nil, 0, err
	}
	return places, int(matched), nil
}

func (r *RepositoryImpl) attachImages(ctx context.Context, places []models.Place) error {
	if len(places) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(places))
	for i, p := range places {
		ids[i] = p.ID
	}

	rows, err := r.pgpool.Query(ctx, `
		SELECT id, place_id, user_id, url, caption, is_primary, created_at
		FROM place_images
		WHERE place_id = ANY($1)
		ORDER BY is_primary DESC, created_at ASC`, ids)
	if err != nil {
		r.logger.Error("Failed to query place images", zap.Error(err))
		return models.DatabaseError("failed to query place images", err)
	}
	defer rows.Close()

	byPlace := make(map[uuid.UUID][]models.PlaceImage, len(places))
	for rows.Next() {
		var img models.PlaceImage
		if err := rows.Scan(&img.ID, &img.PlaceID, &img.UserID, &img.URL, &img.Caption, &img.IsPrimary, &img.CreatedAt); err != nil {
			return models.DatabaseError("failed to scan place image", err)
		}
		byPlace[img.PlaceID] = append(byPlace[img.PlaceID], img)
	}
	if err := rows.Err(); err != nil {
		return models.DatabaseError("failed iterating place images", err)
	}

	for i := range places {
		places[i].Images = byPlace[places[i].ID]
		if places[i].Images == nil {
			places[i].Images = []models.PlaceImage{}
		}
	}
	return nil
}

func (r *RepositoryImpl) getOne(ctx context.Context, where sq.Sqlizer) (*models.Place, error) {
	query, args, err := psql.Select(placeColumns).From("places p").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build place query: %w", err)
	}

	var p models.Place
	if err := scanPlace(r.pgpool.QueryRow(ctx, query, args...), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("place not found: %w", models.ErrNotFound)
		}
		r.logger.Error("Failed to get place", zap.Error(err))
		return nil, models.DatabaseError("failed to get place", err)
	}

	places := []models.Place{p}
	if err := r.attachImages(ctx, places); err != nil {
		return nil, err
	}
	return &places[0], nil
}

// GetPlaceBySlug retrieves a place and its images by slug.
func (r *RepositoryImpl) GetPlaceBySlug(ctx context.Context, slug string) (*models.Place, error) {
	return r.getOne(ctx, sq.Eq{"p.slug": slug})
}

// GetPlaceByID retrieves a place and its images by id.
func (r *RepositoryImpl) GetPlaceByID(ctx context.Context, id uuid.UUID) (*models.Place, error) {
	// uuid.UUID is an array type, which sq.Eq would expand into an IN list.
	return r.getOne(ctx, sq.Expr("p.id = ?", id))
}

func (r *RepositoryImpl) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM places WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, models.DatabaseError("failed to check slug", err)
	}
	return exists, nil
}

// CreatePlace inserts the place and fills in the database generated timestamps.
func (r *RepositoryImpl) CreatePlace(ctx context.Context, p *models.Place) error {
	query := `
		INSERT INTO places (
			id, name, slug, description, category, address, city, state, zip_code, country,
			latitude, longitude, phone, website, hours, price_range, amenities,
			is_verified, is_claimed, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
		RETURNING created_at, updated_at`

	err := r.pgpool.QueryRow(ctx, query,
		p.ID, p.Name, p.Slug, p.Description, p.Category, p.Address, p.City, p.State, p.ZipCode, p.Country,
		p.Latitude, p.Longitude, p.Phone, p.Website, p.Hours, p.PriceRange, p.Amenities,
		p.IsVerified, p.IsClaimed, p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "places_slug_key") {
			return fmt.Errorf("slug %q taken: %w", p.Slug, models.ErrDuplicate)
		}
		r.logger.Error("Failed to create place", zap.Error(err))
		return models.DatabaseError("failed to create place", err)
	}
	return nil
}

// UpdatePlace overwrites the editable columns.
func (r *RepositoryImpl) UpdatePlace(ctx context.Context, p *models.Place) error {
	query := `
		UPDATE places SET
			name = $2, description = $3, address = $4, city = $5, state = $6, zip_code = $7,
			phone = $8, website = $9, hours = $10, price_range = $11, amenities = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pgpool.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Address, p.City, p.State, p.ZipCode,
		p.Phone, p.Website, p.Hours, p.PriceRange, p.Amenities,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("place not found: %w", models.ErrNotFound)
		}
		r.logger.Error("Failed to update place", zap.Error(err))
		return models.DatabaseError("failed to update place", err)
	}
	return nil
}

func (r *RepositoryImpl) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pgpool.Exec(ctx, `UPDATE places SET view_count = view_count + 1 WHERE id = $1`, id); err != nil {
		return models.DatabaseError("failed to increment place views", err)
	}
	return nil
}

func (r *RepositoryImpl) observe(ctx context.Context, start time.Time, err error) {
	m := metrics.Get()
	m.DBQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		m.DBQueryErrorsTotal.Add(ctx, 1)
	}
}
