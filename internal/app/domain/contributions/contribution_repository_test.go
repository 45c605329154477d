package contributions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
)

func TestRepositoryImpl_CreateContribution(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepository(mockPool, zap.NewNop())
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	c := &models.Contribution{
		ID:      uuid.New(),
		PlaceID: uuid.New(),
		UserID:  uuid.New(),
		Type:    models.ContributionEditPlace,
		Data:    json.RawMessage(`{"updates":{"phone":"555"}}`),
		Status:  models.ContributionPending,
	}

	t.Run("inserts and reads back created_at", func(t *testing.T) {
		mockPool.ExpectQuery("INSERT INTO contributions").
			WithArgs(c.ID, c.PlaceID, c.UserID, "edit_place", []byte(c.Data), "pending", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

		require.NoError(t, repo.CreateContribution(context.Background(), c))
		assert.Equal(t, created, c.CreatedAt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("wraps driver errors", func(t *testing.T) {
		mockPool.ExpectQuery("INSERT INTO contributions").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("connection refused"))

		err := repo.CreateContribution(context.Background(), c)
		assert.ErrorIs(t, err, models.ErrDatabase)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
