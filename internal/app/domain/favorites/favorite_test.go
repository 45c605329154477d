package favorites

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/middleware"
	"github.com/FACorreiaa/go-kidspots/internal/app/models"
)

type MockPlaceFinder struct {
	mock.Mock
}

func (m *MockPlaceFinder) GetPlaceByID(ctx context.Context, id uuid.UUID) (*models.Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Place), args.Error(1)
}

func setupRouter(t *testing.T, userID uuid.UUID) (*gin.Engine, pgxmock.PgxPoolIface, *MockPlaceFinder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	places := new(MockPlaceFinder)
	h := NewHandler(NewService(NewRepository(mockPool, zap.NewNop()), places, zap.NewNop()), zap.NewNop())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			middleware.SetUserID(c, userID)
		}
		c.Next()
	})
	r.GET("/api/favorites", h.ListFavorites)
	r.POST("/api/favorites", h.AddFavorite)
	r.DELETE("/api/favorites", h.RemoveFavorite)
	return r, mockPool, places
}

func TestAddFavorite(t *testing.T) {
	userID := uuid.New()
	placeID := uuid.New()
	body := `{"place_id":"` + placeID.String() + `","note":"rainy day option"}`

	tests := []struct {
		name       string
		body       string
		setup      func(pgxmock.PgxPoolIface, *MockPlaceFinder)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing place_id",
			body:       `{"note":"x"}`,
			setup:      func(pgxmock.PgxPoolIface, *MockPlaceFinder) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name: "unknown place",
			body: body,
			setup: func(_ pgxmock.PgxPoolIface, p *MockPlaceFinder) {
				p.On("GetPlaceByID", mock.Anything, placeID).Return(nil, models.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name: "already favorited",
			body: body,
			setup: func(db pgxmock.PgxPoolIface, p *MockPlaceFinder) {
				p.On("GetPlaceByID", mock.Anything, placeID).Return(&models.Place{ID: placeID}, nil)
				db.ExpectQuery("SELECT EXISTS").WithArgs(userID, placeID).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
			},
			wantStatus: http.StatusConflict,
			wantCode:   "DUPLICATE",
		},
		{
			name: "lost race on the unique constraint",
			body: body,
			setup: func(db pgxmock.PgxPoolIface, p *MockPlaceFinder) {
				p.On("GetPlaceByID", mock.Anything, placeID).Return(&models.Place{ID: placeID}, nil)
				db.ExpectQuery("SELECT EXISTS").WithArgs(userID, placeID).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
				db.ExpectQuery("INSERT INTO favorites").
					WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "favorites_user_place_key"})
			},
			wantStatus: http.StatusConflict,
			wantCode:   "DUPLICATE",
		},
		{
			name: "added",
			body: body,
			setup: func(db pgxmock.PgxPoolIface, p *MockPlaceFinder) {
				p.On("GetPlaceByID", mock.Anything, placeID).Return(&models.Place{ID: placeID}, nil)
				db.ExpectQuery("SELECT EXISTS").WithArgs(userID, placeID).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
				db.ExpectQuery("INSERT INTO favorites").
					WithArgs(pgxmock.AnyArg(), userID, placeID, pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
			},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, db, places := setupRouter(t, userID)
			tt.setup(db, places)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/favorites", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Contains(t, w.Body.String(), `"code":"`+tt.wantCode+`"`)
			}
			assert.NoError(t, db.ExpectationsWereMet())
		})
	}
}

func TestListFavorites(t *testing.T) {
	userID := uuid.New()
	r, db, _ := setupRouter(t, userID)
	favID, placeID := uuid.New(), uuid.New()

	db.ExpectQuery("SELECT COUNT").WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	db.ExpectQuery("FROM favorites f JOIN places p").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "place_id", "note", "created_at",
			"name", "slug", "category", "city", "state", "average_rating", "review_count", "url"}).
			AddRow(favID, userID, placeID, nil, time.Now(),
				"Splash Pad", "splash-pad-austin", models.CategoryPark, "Austin", "TX", 4.5, 12, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/favorites?per_page=2&page=2", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"splash-pad-austin"`)
	assert.Contains(t, w.Body.String(), `"pagination":{"page":2,"per_page":2,"total":3,"total_pages":2}`)
	assert.NoError(t, db.ExpectationsWereMet())
}

func TestRemoveFavorite(t *testing.T) {
	userID := uuid.New()
	placeID := uuid.New()

	t.Run("requires place_id", func(t *testing.T) {
		r, _, _ := setupRouter(t, userID)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/favorites", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("removes", func(t *testing.T) {
		r, db, _ := setupRouter(t, userID)
		db.ExpectExec("DELETE FROM favorites").WithArgs(userID, placeID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/favorites?place_id="+placeID.String(), nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":{"success":true}}`, w.Body.String())
		assert.NoError(t, db.ExpectationsWereMet())
	})

	t.Run("anonymous", func(t *testing.T) {
		r, _, _ := setupRouter(t, uuid.Nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/favorites?place_id="+placeID.String(), nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
