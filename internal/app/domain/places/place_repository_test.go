package places

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
)

func TestBuildSearchQuery(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		query, args, err := buildSearchQuery(params(nil), 500).ToSql()
		require.NoError(t, err)
		assert.NotContains(t, query, "WHERE")
		assert.Contains(t, query, "ORDER BY p.average_rating DESC, p.review_count DESC, p.id")
		assert.Contains(t, query, "LIMIT 500")
		assert.Contains(t, query, "COUNT(*) OVER() AS match_count")
		assert.Empty(t, args)
	})

	t.Run("distance sort keeps the nearest rows under the limit", func(t *testing.T) {
		p := params(func(p *models.PlaceSearchParams) {
			p.Latitude = 45.5
			p.Longitude = -122.6
			p.RadiusMiles = 5
			p.Sort = models.SortDistance
		})

		query, args, err := buildSearchQuery(p, 2000).ToSql()
		require.NoError(t, err)

		orderBy := query[strings.Index(query, "ORDER BY"):]
		assert.True(t, strings.HasPrefix(orderBy, "ORDER BY ($"), "got %s", orderBy)
		assert.Contains(t, orderBy, "asin(")
		assert.Contains(t, orderBy, "ASC, p.id LIMIT 2000")
		assert.NotContains(t, orderBy, "average_rating")
		assert.Contains(t, query, ") <= $")
		assert.Contains(t, args, 5.0, "radius is compared against the exact distance")
		assert.Contains(t, args, -122.6)
	})

	t.Run("distance sort without a center falls back to relevance", func(t *testing.T) {
		p := params(func(p *models.PlaceSearchParams) { p.Sort = models.SortDistance })

		query, _, err := buildSearchQuery(p, 100).ToSql()
		require.NoError(t, err)
		assert.NotContains(t, query, "asin")
		assert.Contains(t, query, "ORDER BY p.average_rating DESC, p.review_count DESC, p.id")
	})

	t.Run("all filters", func(t *testing.T) {
		p := params(func(p *models.PlaceSearchParams) {
			p.Query = "50%_off"
			p.Categories = []models.PlaceCategory{models.CategoryPark, models.CategoryPlayground}
			p.Amenities = []models.AmenityType{models.AmenityChangingStation}
			p.PriceRanges = []models.PriceRange{models.PriceBudget}
			p.MinRating = 4
			p.VerifiedOnly = true
			p.HasPhotos = true
			p.Latitude = 45.5
			p.Longitude = -122.6
			p.Sort = models.SortNewest
		})

		query, args, err := buildSearchQuery(p, 100).ToSql()
		require.NoError(t, err)

		assert.Contains(t, query, "p.name ILIKE $1")
		assert.Equal(t, `%50\%\_off%`, args[0])
		assert.Contains(t, query, "p.category IN ($5,$6)")
		assert.Contains(t, query, "p.amenities @> $7::jsonb")
		assert.Contains(t, query, "EXISTS (SELECT 1 FROM place_images pi WHERE pi.place_id = p.id)")
		assert.Contains(t, query, "p.latitude >=")
		assert.Contains(t, query, "ORDER BY p.created_at DESC, p.id")
		assert.Contains(t, args, `{"changing_station":{"available":true}}`)
	})
}

func TestRepositoryImpl_CreatePlaceSlugTaken(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepository(mockPool, zap.NewNop())
	place := &models.Place{ID: uuid.New(), Name: "Park", Slug: "park-boise", Amenities: models.DefaultAmenities()}

	mockPool.ExpectQuery("INSERT INTO places").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "places_slug_key"})

	err = repo.CreatePlace(context.Background(), place)
	assert.ErrorIs(t, err, models.ErrDuplicate)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryImpl_SlugExistsAndViews(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepository(mockPool, zap.NewNop())
	id := uuid.New()

	mockPool.ExpectQuery("SELECT EXISTS").WithArgs("park-boise").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	exists, err := repo.SlugExists(context.Background(), "park-boise")
	require.NoError(t, err)
	assert.True(t, exists)

	mockPool.ExpectExec("UPDATE places SET view_count").WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.IncrementViewCount(context.Background(), id))

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryImpl_GetPlaceBySlugNotFound(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepository(mockPool, zap.NewNop())
	mockPool.ExpectQuery("FROM places p WHERE p.slug = \\$1").WithArgs("ghost").WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetPlaceBySlug(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryImpl_UpdatePlace(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepository(mockPool, zap.NewNop())
	place := &models.Place{ID: uuid.New(), Name: "Park"}
	now := time.Now()

	mockPool.ExpectQuery("UPDATE places SET").
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))
	require.NoError(t, repo.UpdatePlace(context.Background(), place))
	assert.Equal(t, now, place.UpdatedAt)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}
