package profiles

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/middleware"
	"github.com/FACorreiaa/go-kidspots/internal/app/models"
)

func TestRepositoryImpl_GetRole(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepository(mockPool, zap.NewNop())
	userID := uuid.New()

	t.Run("stored role", func(t *testing.T) {
		mockPool.ExpectQuery("SELECT role FROM profiles").
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(models.RoleAdmin))

		role, err := repo.GetRole(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, role)
	})

	t.Run("missing profile is a plain user", func(t *testing.T) {
		mockPool.ExpectQuery("SELECT role FROM profiles").
			WithArgs(userID).
			WillReturnError(pgx.ErrNoRows)

		role, err := repo.GetRole(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, role)
	})

	t.Run("database failure", func(t *testing.T) {
		mockPool.ExpectQuery("SELECT role FROM profiles").
			WithArgs(userID).
			WillReturnError(errors.New("boom"))

		_, err := repo.GetRole(context.Background(), userID)
		assert.ErrorIs(t, err, models.ErrDatabase)
	})

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestHandler_GetProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	userID := uuid.New()
	now := time.Now()
	handler := NewHandler(NewService(NewRepository(mockPool, zap.NewNop()), zap.NewNop()), zap.NewNop())

	t.Run("requires authentication", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/profile", nil)

		handler.GetProfile(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":{"code":"UNAUTHORIZED","message":"Authentication required"}}`, w.Body.String())
	})

	t.Run("returns the caller's profile", func(t *testing.T) {
		mockPool.ExpectQuery("FROM profiles").
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "full_name", "avatar_url", "role", "is_premium", "created_at", "updated_at"}).
				AddRow(userID, "parent@example.com", nil, nil, models.RoleUser, true, now, now))

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		middleware.SetUserID(c, userID)

		handler.GetProfile(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"email":"parent@example.com"`)
		assert.Contains(t, w.Body.String(), `"is_premium":true`)
	})

	t.Run("unknown profile is not found", func(t *testing.T) {
		mockPool.ExpectQuery("FROM profiles").
			WithArgs(userID).
			WillReturnError(pgx.ErrNoRows)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		middleware.SetUserID(c, userID)

		handler.GetProfile(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	assert.NoError(t, mockPool.ExpectationsWereMet())
}
