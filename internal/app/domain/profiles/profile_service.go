package profiles

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	ResolveActor(ctx context.Context, userID uuid.UUID) (models.Actor, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	ctx, span := otel.Tracer("ProfileService").Start(ctx, "GetProfile", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get profile")
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	span.SetStatus(codes.Ok, "Profile retrieved")
	return profile, nil
}

// ResolveActor pairs the caller id with its role for authorization decisions.
func (s *ServiceImpl) ResolveActor(ctx context.Context, userID uuid.UUID) (models.Actor, error) {
	role, err := s.repo.GetRole(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to resolve role", zap.String("method", "ResolveActor"),
			zap.String("userID", userID.String()), zap.Error(err))
		return models.Actor{}, fmt.Errorf("failed to resolve role: %w", err)
	}
	return models.Actor{ID: userID, Role: role}, nil
}
