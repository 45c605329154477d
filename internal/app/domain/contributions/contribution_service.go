package contributions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	"github.com/FACorreiaa/go-kidspots/internal/app/observability/metrics"
)

var _ Service = (*ServiceImpl)(nil)

// Service records contributions. Recording never touches the place itself.
type Service interface {
	Record(ctx context.Context, actor models.Actor, placeID uuid.UUID, kind models.ContributionType, payload any) (*models.Contribution, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
	now    func() time.Time
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		now:    time.Now,
	}
}

// StatusFor is approved for admins and pending for everyone else.
func StatusFor(actor models.Actor) models.ContributionStatus {
	if actor.IsAdmin() {
		return models.ContributionApproved
	}
	return models.ContributionPending
}

// Record appends a contribution. The payload is stored as given; only the type is checked.
func (s *ServiceImpl) Record(ctx context.Context, actor models.Actor, placeID uuid.UUID, kind models.ContributionType, payload any) (*models.Contribution, error) {
	ctx, span := otel.Tracer("ContributionService").Start(ctx, "Record", trace.WithAttributes(
		attribute.String("user.id", actor.ID.String()),
		attribute.String("place.id", placeID.String()),
		attribute.String("contribution.type", string(kind)),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "Record"), zap.String("placeID", placeID.String()))

	if !kind.Valid() {
		span.SetStatus(codes.Error, "invalid contribution type")
		return nil, models.NewValidationError("type", fmt.Sprintf("unknown contribution type %q", kind))
	}

	data, err := encodePayload(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid payload")
		return nil, models.NewValidationError("data", "must be valid JSON")
	}

	c := &models.Contribution{
		ID:      uuid.New(),
		PlaceID: placeID,
		UserID:  actor.ID,
		Type:    kind,
		Data:    data,
		Status:  StatusFor(actor),
	}
	if c.Status == models.ContributionApproved {
		now := s.now().UTC()
		c.ReviewedBy = &actor.ID
		c.ReviewedAt = &now
	}

	if err := s.repo.CreateContribution(ctx, c); err != nil {
		l.Error("Failed to record contribution", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to record contribution")
		return nil, fmt.Errorf("failed to record contribution: %w", err)
	}

	metrics.Get().ContributionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", string(kind)),
		attribute.String("status", string(c.Status)),
	))
	l.Info("Contribution recorded", zap.String("contributionID", c.ID.String()), zap.String("status", string(c.Status)))
	span.SetStatus(codes.Ok, "Contribution recorded")
	return c, nil
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch v := payload.(type) {
	case nil:
		return json.RawMessage(`{}`), nil
	case json.RawMessage:
		if len(v) == 0 {
			return json.RawMessage(`{}`), nil
		}
		if !json.Valid(v) {
			return nil, fmt.Errorf("invalid json payload")
		}
		return v, nil
	default:
		return json.Marshal(v)
	}
}
