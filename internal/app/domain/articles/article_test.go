package articles

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
)

var articleRow = []string{
	"id", "title", "slug", "excerpt", "cover_image", "category", "tags",
	"read_time_minutes", "is_featured", "published_at", "view_count", "created_at", "updated_at",
	"author_id", "full_name", "avatar_url",
}

func TestBuildListQuery(t *testing.T) {
	filter := models.ArticleFilter{
		Category:     models.ArticleCategorySleep,
		FeaturedOnly: true,
		Tag:          "naps",
		Page:         models.NewPageRequest(2, 12, DefaultArticlesPerPage, MaxArticlesPerPage),
	}

	query, args, err := buildListQuery(filter).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "a.is_published = $1")
	assert.Contains(t, query, "a.category = $2")
	assert.Contains(t, query, "a.is_featured = $3")
	assert.Contains(t, query, "$4 = ANY(a.tags)")
	assert.Contains(t, query, "ORDER BY a.published_at DESC NULLS LAST, a.id LIMIT 12 OFFSET 12")
	assert.Equal(t, []any{true, "sleep", true, "naps"}, args)

	countSQL, _, err := buildCountQuery(models.ArticleFilter{}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM articles a WHERE a.is_published = $1", countSQL)
}

func setupRouter(t *testing.T) (*gin.Engine, pgxmock.PgxPoolIface, *ServiceImpl) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	svc := NewService(NewRepository(mockPool, zap.NewNop()), zap.NewNop())
	h := NewHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/api/articles", h.ListArticles)
	r.GET("/api/articles/:slug", h.GetArticle)
	return r, mockPool, svc
}

func TestListArticles(t *testing.T) {
	r, db, _ := setupRouter(t)
	now := time.Now()

	db.ExpectQuery("SELECT COUNT").WithArgs(true, "sleep").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	db.ExpectQuery("FROM articles a LEFT JOIN profiles pr").WithArgs(true, "sleep").
		WillReturnRows(pgxmock.NewRows(articleRow).AddRow(
			uuid.New(), "Nap schedules", "nap-schedules", "How long?", nil, models.ArticleCategorySleep, []string{"naps"},
			4, false, &now, int64(10), now, now, nil, nil, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/articles?category=sleep", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"nap-schedules"`)
	assert.Contains(t, w.Body.String(), `"pagination":{"page":1,"per_page":12,"total":1,"total_pages":1}`)
	assert.NoError(t, db.ExpectationsWereMet())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/articles?category=astrology", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetArticle(t *testing.T) {
	t.Run("draft or missing is not found", func(t *testing.T) {
		r, db, _ := setupRouter(t)
		db.ExpectQuery("FROM articles a").WithArgs(true, "draft").WillReturnError(pgx.ErrNoRows)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/articles/draft", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, db.ExpectationsWereMet())
	})

	t.Run("view count failure does not affect the response", func(t *testing.T) {
		r, db, svc := setupRouter(t)
		var wg sync.WaitGroup
		wg.Add(1)
		svc.viewCounted = wg.Done

		id := uuid.New()
		now := time.Now()
		db.ExpectQuery("FROM articles a").WithArgs(true, "teething").
			WillReturnRows(pgxmock.NewRows(append(articleRow, "content")).AddRow(
				id, "Teething", "teething", "Tips", nil, models.ArticleCategoryHealth, []string{},
				3, true, &now, int64(0), now, now, nil, nil, nil, "Body text"))
		db.ExpectExec("UPDATE articles SET view_count").WithArgs(id).WillReturnError(errors.New("timeout"))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/articles/teething", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"content":"Body text"`)
		wg.Wait()
		assert.NoError(t, db.ExpectationsWereMet())
	})
}

func TestServiceImpl_ListArticlesRejectsUnknownCategory(t *testing.T) {
	svc := NewService(nil, zap.NewNop())
	_, err := svc.ListArticles(context.Background(), models.ArticleFilter{Category: "astrology"})
	assert.ErrorIs(t, err, models.ErrValidation)
}
