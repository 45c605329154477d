package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	"github.com/FACorreiaa/go-kidspots/internal/pkg/config"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) SearchCandidates(ctx context.Context, params models.PlaceSearchParams, limit int) ([]models.Place, int, error) {
	args := m.Called(ctx, params, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Place), args.Int(1), args.Error(2)
}

func (m *MockRepository) GetPlaceBySlug(ctx context.Context, slug string) (*models.Place, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Place), args.Error(1)
}

func (m *MockRepository) GetPlaceByID(ctx context.Context, id uuid.UUID) (*models.Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Place), args.Error(1)
}

func (m *MockRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) CreatePlace(ctx context.Context, place *models.Place) error {
	args := m.Called(ctx, place)
	return args.Error(0)
}

func (m *MockRepository) UpdatePlace(ctx context.Context, place *models.Place) error {
	args := m.Called(ctx, place)
	return args.Error(0)
}

func (m *MockRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockReviewLister struct {
	mock.Mock
}

func (m *MockReviewLister) ListByPlace(ctx context.Context, placeID uuid.UUID, sort models.ReviewSort, page models.PageRequest) ([]models.Review, int, error) {
	args := m.Called(ctx, placeID, sort, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.Review), args.Int(1), args.Error(2)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, actor models.Actor, placeID uuid.UUID, kind models.ContributionType, payload any) (*models.Contribution, error) {
	args := m.Called(ctx, actor, placeID, kind, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contribution), args.Error(1)
}

type MockActorResolver struct {
	mock.Mock
}

func (m *MockActorResolver) ResolveActor(ctx context.Context, userID uuid.UUID) (models.Actor, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Actor), args.Error(1)
}

type serviceMocks struct {
	repo     *MockRepository
	reviews  *MockReviewLister
	recorder *MockRecorder
	actors   *MockActorResolver
}

var fixedNow = time.UnixMilli(1700000000000)

func newTestService() (*ServiceImpl, serviceMocks) {
	m := serviceMocks{
		repo:     new(MockRepository),
		reviews:  new(MockReviewLister),
		recorder: new(MockRecorder),
		actors:   new(MockActorResolver),
	}
	svc := NewService(m.repo, m.reviews, m.recorder, m.actors,
		config.SearchConfig{CandidateLimit: 100, CacheTTL: time.Minute}, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, m
}

func validCreateRequest() models.CreatePlaceRequest {
	return models.CreatePlaceRequest{
		Name:      "Café Bébé",
		Category:  models.CategoryCafe,
		Address:   "12 Oak Ave",
		City:      "Austin",
		State:     "TX",
		Latitude:  ptr(30.2672),
		Longitude: ptr(-97.7431),
	}
}

func TestServiceImpl_CreatePlace(t *testing.T) {
	userID := uuid.New()
	user := models.Actor{ID: userID, Role: models.RoleUser}

	t.Run("fresh slug and default amenities", func(t *testing.T) {
		svc, m := newTestService()
		m.actors.On("ResolveActor", mock.Anything, userID).Return(user, nil)
		m.repo.On("SlugExists", mock.Anything, "cafe-bebe-austin").Return(false, nil)
		m.repo.On("CreatePlace", mock.Anything, mock.AnythingOfType("*models.Place")).Return(nil)
		m.recorder.On("Record", mock.Anything, user, mock.Anything, models.ContributionNewPlace, mock.Anything).
			Return(&models.Contribution{Status: models.ContributionPending}, nil)

		place, err := svc.CreatePlace(context.Background(), userID, validCreateRequest())

		require.NoError(t, err)
		assert.Equal(t, "cafe-bebe-austin", place.Slug)
		assert.Equal(t, "USA", place.Country)
		assert.Equal(t, models.DefaultAmenities(), place.Amenities)
		assert.False(t, place.IsVerified)
		assert.False(t, place.IsClaimed)
		assert.Equal(t, userID, *place.CreatedBy)
		m.repo.AssertExpectations(t)
		m.recorder.AssertExpectations(t)
	})

	t.Run("taken slug gets a time suffix", func(t *testing.T) {
		svc, m := newTestService()
		m.actors.On("ResolveActor", mock.Anything, userID).Return(user, nil)
		m.repo.On("SlugExists", mock.Anything, "cafe-bebe-austin").Return(true, nil)
		m.repo.On("CreatePlace", mock.Anything, mock.Anything).Return(nil)
		m.recorder.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

		place, err := svc.CreatePlace(context.Background(), userID, validCreateRequest())

		require.NoError(t, err)
		assert.Equal(t, "cafe-bebe-austin-loyw3v28", place.Slug)
	})

	t.Run("insert race retries once", func(t *testing.T) {
		svc, m := newTestService()
		m.actors.On("ResolveActor", mock.Anything, userID).Return(user, nil)
		m.repo.On("SlugExists", mock.Anything, "cafe-bebe-austin").Return(false, nil)
		m.repo.On("CreatePlace", mock.Anything, mock.Anything).Return(models.ErrDuplicate).Once()
		m.repo.On("CreatePlace", mock.Anything, mock.Anything).Return(nil).Once()
		m.recorder.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

		place, err := svc.CreatePlace(context.Background(), userID, validCreateRequest())

		require.NoError(t, err)
		assert.Equal(t, "cafe-bebe-austin-loyw3v28", place.Slug)
		m.repo.AssertNumberOfCalls(t, "CreatePlace", 2)
	})

	t.Run("contribution failure does not fail the create", func(t *testing.T) {
		svc, m := newTestService()
		m.actors.On("ResolveActor", mock.Anything, userID).Return(user, nil)
		m.repo.On("SlugExists", mock.Anything, mock.Anything).Return(false, nil)
		m.repo.On("CreatePlace", mock.Anything, mock.Anything).Return(nil)
		m.recorder.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("insert failed"))

		_, err := svc.CreatePlace(context.Background(), userID, validCreateRequest())
		assert.NoError(t, err)
	})

	invalid := []struct {
		name   string
		mutate func(*models.CreatePlaceRequest)
		field  string
	}{
		{"missing name", func(r *models.CreatePlaceRequest) { r.Name = "  " }, "name"},
		{"unknown category", func(r *models.CreatePlaceRequest) { r.Category = "zoo" }, "category"},
		{"missing latitude", func(r *models.CreatePlaceRequest) { r.Latitude = nil }, "latitude"},
		{"latitude out of range", func(r *models.CreatePlaceRequest) { r.Latitude = ptr(91.0) }, "latitude"},
		{"longitude out of range", func(r *models.CreatePlaceRequest) { r.Longitude = ptr(-181.0) }, "longitude"},
		{"missing state", func(r *models.CreatePlaceRequest) { r.State = "" }, "state"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService()
			req := validCreateRequest()
			tt.mutate(&req)

			_, err := svc.CreatePlace(context.Background(), userID, req)

			var vErr *models.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			m.repo.AssertNotCalled(t, "CreatePlace", mock.Anything, mock.Anything)
		})
	}
}

func TestServiceImpl_UpdatePlace(t *testing.T) {
	ownerID := uuid.New()
	adminID := uuid.New()
	strangerID := uuid.New()
	newName := "Renamed Park"

	load := func() *models.Place {
		p := newPlace("Old Park", models.CategoryPark, 4, 2)
		p.Slug = "old-park-portland"
		p.ClaimedBy = &ownerID
		return &p
	}

	tests := []struct {
		name    string
		caller  models.Actor
		req     models.UpdatePlaceRequest
		wantErr error
	}{
		{name: "owner", caller: models.Actor{ID: ownerID, Role: models.RoleBusiness}, req: models.UpdatePlaceRequest{Name: &newName}},
		{name: "admin", caller: models.Actor{ID: adminID, Role: models.RoleAdmin}, req: models.UpdatePlaceRequest{Name: &newName}},
		{name: "stranger", caller: models.Actor{ID: strangerID, Role: models.RoleUser}, req: models.UpdatePlaceRequest{Name: &newName}, wantErr: models.ErrForbidden},
		{name: "empty body", caller: models.Actor{ID: ownerID, Role: models.RoleUser}, wantErr: models.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService()
			place := load()
			m.repo.On("GetPlaceBySlug", mock.Anything, "old-park-portland").Return(place, nil)
			m.actors.On("ResolveActor", mock.Anything, tt.caller.ID).Return(tt.caller, nil)
			if tt.wantErr == nil {
				m.repo.On("UpdatePlace", mock.Anything, place).Return(nil)
				m.recorder.On("Record", mock.Anything, tt.caller, place.ID, models.ContributionEditPlace,
					mock.MatchedBy(func(payload any) bool {
						raw, err := json.Marshal(payload)
						return err == nil &&
							strings.Contains(string(raw), `"updates":{"name":"Renamed Park"}`) &&
							strings.Contains(string(raw), `"previous":{"id":`)
					})).Return(&models.Contribution{}, nil)
			}

			updated, err := svc.UpdatePlace(context.Background(), tt.caller.ID, "old-park-portland", tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				m.repo.AssertNotCalled(t, "UpdatePlace", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, newName, updated.Name)
			m.recorder.AssertExpectations(t)
		})
	}
}

func TestServiceImpl_SubmitContribution(t *testing.T) {
	userID := uuid.New()
	place := newPlace("Library", models.CategoryLibrary, 0, 0)

	t.Run("proposals are recorded without touching the place", func(t *testing.T) {
		svc, m := newTestService()
		actor := models.Actor{ID: userID, Role: models.RoleUser}
		m.repo.On("GetPlaceBySlug", mock.Anything, "library").Return(&place, nil)
		m.actors.On("ResolveActor", mock.Anything, userID).Return(actor, nil)
		m.recorder.On("Record", mock.Anything, actor, place.ID, models.ContributionReportIssue, json.RawMessage(`{"issue":"closed"}`)).
			Return(&models.Contribution{Type: models.ContributionReportIssue, Status: models.ContributionPending}, nil)

		c, err := svc.SubmitContribution(context.Background(), userID, "library", models.SubmitContributionRequest{
			Type: models.ContributionReportIssue,
			Data: json.RawMessage(`{"issue":"closed"}`),
		})

		require.NoError(t, err)
		assert.Equal(t, models.ContributionPending, c.Status)
		m.repo.AssertNotCalled(t, "UpdatePlace", mock.Anything, mock.Anything)
	})

	t.Run("system types cannot be submitted", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.SubmitContribution(context.Background(), userID, "library", models.SubmitContributionRequest{
			Type: models.ContributionEditPlace,
		})
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestServiceImpl_SearchPlacesCaches(t *testing.T) {
	svc, m := newTestService()
	candidates := []models.Place{
		newPlace("Alpha", models.CategoryPark, 4.5, 10),
		newPlace("Beta", models.CategoryCafe, 3.0, 2),
	}
	p := params(func(p *models.PlaceSearchParams) { p.Categories = []models.PlaceCategory{models.CategoryPark} })
	m.repo.On("SearchCandidates", mock.Anything, p, 100).Return(candidates, 2, nil).Once()

	first, err := svc.SearchPlaces(context.Background(), p)
	require.NoError(t, err)
	second, err := svc.SearchPlaces(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha"}, names(first.Data))
	assert.Equal(t, first, second)
	m.repo.AssertNumberOfCalls(t, "SearchCandidates", 1)
}

func TestServiceImpl_SearchPlacesUsesStorageCountPastLimit(t *testing.T) {
	svc, m := newTestService()
	candidates := make([]models.Place, 100)
	for i := range candidates {
		candidates[i] = newPlace(fmt.Sprintf("Place %03d", i), models.CategoryPark, 4, 1)
	}
	m.repo.On("SearchCandidates", mock.Anything, mock.Anything, 100).Return(candidates, 5000, nil)

	first, err := svc.SearchPlaces(context.Background(), params(nil))
	require.NoError(t, err)
	assert.Len(t, first.Data, 20)
	assert.Equal(t, models.Pagination{Page: 1, PerPage: 20, Total: 5000, TotalPages: 250}, first.Pagination)

	beyond, err := svc.SearchPlaces(context.Background(), params(func(p *models.PlaceSearchParams) {
		p.Page = models.NewPageRequest(6, 20, models.DefaultPlacesPerPage, models.MaxPlacesPerPage)
	}))
	require.NoError(t, err)
	assert.Empty(t, beyond.Data)
	assert.Equal(t, 5000, beyond.Pagination.Total)
}

func TestServiceImpl_GetPlaceDetailCountsViewsInBackground(t *testing.T) {
	svc, m := newTestService()
	place := newPlace("Museum", models.CategoryMuseum, 5, 1)

	var wg sync.WaitGroup
	wg.Add(2)
	svc.viewCounted = wg.Done

	m.repo.On("GetPlaceBySlug", mock.Anything, "museum").Return(&place, nil).Once()
	m.reviews.On("ListByPlace", mock.Anything, place.ID, models.ReviewSortNewest, models.PageRequest{Page: 1, PerPage: detailReviewLimit}).
		Return([]models.Review{{ID: uuid.New(), Rating: 5}}, 1, nil).Once()
	m.repo.On("IncrementViewCount", mock.Anything, place.ID).Return(errors.New("db down")).Once()
	m.repo.On("IncrementViewCount", mock.Anything, place.ID).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	detail, err := svc.GetPlaceDetail(ctx, "museum")
	cancel()
	require.NoError(t, err)
	assert.Equal(t, "Museum", detail.Name)
	assert.Len(t, detail.Reviews, 1)

	// Served from cache; still counted.
	_, err = svc.GetPlaceDetail(context.Background(), "museum")
	require.NoError(t, err)

	wg.Wait()
	m.repo.AssertNumberOfCalls(t, "IncrementViewCount", 2)
	m.repo.AssertNumberOfCalls(t, "GetPlaceBySlug", 1)
}

func TestServiceImpl_PlaceChangedDropsCachedResults(t *testing.T) {
	svc, m := newTestService()
	place := newPlace("Museum", models.CategoryMuseum, 4, 1)
	other := newPlace("Zoo", models.CategoryPark, 4, 1)

	var wg sync.WaitGroup
	wg.Add(3)
	svc.viewCounted = wg.Done

	m.repo.On("GetPlaceBySlug", mock.Anything, "museum").Return(&place, nil)
	m.repo.On("GetPlaceBySlug", mock.Anything, "zoo").Return(&other, nil)
	m.reviews.On("ListByPlace", mock.Anything, mock.Anything, models.ReviewSortNewest, mock.Anything).Return([]models.Review{}, 0, nil)
	m.repo.On("IncrementViewCount", mock.Anything, mock.Anything).Return(nil)
	m.repo.On("SearchCandidates", mock.Anything, mock.Anything, 100).Return([]models.Place{place, other}, 2, nil)

	_, err := svc.GetPlaceDetail(context.Background(), "museum")
	require.NoError(t, err)
	_, err = svc.GetPlaceDetail(context.Background(), "zoo")
	require.NoError(t, err)
	_, err = svc.SearchPlaces(context.Background(), params(nil))
	require.NoError(t, err)

	svc.PlaceChanged(place.ID)

	_, err = svc.GetPlaceDetail(context.Background(), "museum")
	require.NoError(t, err)
	_, err = svc.SearchPlaces(context.Background(), params(nil))
	require.NoError(t, err)
	wg.Wait()

	m.repo.AssertNumberOfCalls(t, "GetPlaceBySlug", 3)
	m.repo.AssertNumberOfCalls(t, "SearchCandidates", 2)
	_, zooCached := svc.detailCache.Get("zoo")
	assert.True(t, zooCached, "unrelated places stay cached")
}

func TestServiceImpl_GetPlaceDetailNotFound(t *testing.T) {
	svc, m := newTestService()
	m.repo.On("GetPlaceBySlug", mock.Anything, "nope").Return(nil, models.ErrNotFound)

	_, err := svc.GetPlaceDetail(context.Background(), "nope")

	assert.ErrorIs(t, err, models.ErrNotFound)
	m.repo.AssertNotCalled(t, "IncrementViewCount", mock.Anything, mock.Anything)
}
