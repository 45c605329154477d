package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
)

// ProfileFinder supplies the email and name a new provider customer is registered with.
type ProfileFinder interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetSubscription(ctx context.Context, userID uuid.UUID) (*models.UserSubscription, error)
	CreateCheckout(ctx context.Context, userID uuid.UUID, req models.CheckoutRequest) (*models.RedirectResponse, error)
	CreatePortal(ctx context.Context, userID uuid.UUID) (*models.RedirectResponse, error)
	SetCancelAtPeriodEnd(ctx context.Context, userID uuid.UUID, cancel bool) (*models.UserSubscription, error)
}

type ServiceImpl struct {
	logger   *zap.Logger
	repo     Repository
	provider Provider
	profiles ProfileFinder
	plans    Plans
}

func NewService(repo Repository, provider Provider, profiles ProfileFinder, plans Plans, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		repo:     repo,
		provider: provider,
		profiles: profiles,
		plans:    plans,
	}
}

// GetSubscription returns the stored record, or a free plan when the user never subscribed.
func (s *ServiceImpl) GetSubscription(ctx context.Context, userID uuid.UUID) (*models.UserSubscription, error) {
	ctx, span := otel.Tracer("BillingService").Start(ctx, "GetSubscription", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	sub, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		span.SetStatus(codes.Ok, "No subscription")
		return &models.UserSubscription{UserID: userID, Plan: models.PlanFree, Status: models.SubscriptionActive}, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get subscription")
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	span.SetStatus(codes.Ok, "Subscription retrieved")
	return sub, nil
}

func (s *ServiceImpl) CreateCheckout(ctx context.Context, userID uuid.UUID, req models.CheckoutRequest) (*models.RedirectResponse, error) {
	ctx, span := otel.Tracer("BillingService").Start(ctx, "CreateCheckout", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("plan", string(req.Plan)),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "CreateCheckout"), zap.String("userID", userID.String()))

	if err := models.Validate(req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}
	priceID, ok := s.plans.PriceForPlan(req.Plan)
	if !ok {
		l.Error("No price configured for plan", zap.String("plan", string(req.Plan)))
		span.SetStatus(codes.Error, "plan not configured")
		return nil, fmt.Errorf("no price configured for plan %s", req.Plan)
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Profile lookup failed")
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	customerID, err := s.provider.FindOrCreateCustomer(ctx, userID, profile.Email, profile.FullName)
	if err != nil {
		l.Error("Failed to resolve customer", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Customer resolution failed")
		return nil, fmt.Errorf("failed to resolve customer: %w", err)
	}

	url, err := s.provider.CreateCheckoutSession(ctx, customerID, priceID)
	if err != nil {
		l.Error("Failed to create checkout session", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Checkout session failed")
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	l.Info("Checkout session created", zap.String("customerID", customerID), zap.String("plan", string(req.Plan)))
	span.SetStatus(codes.Ok, "Checkout session created")
	return &models.RedirectResponse{URL: url}, nil
}

// CreatePortal requires an existing customer, which only a past checkout creates.
func (s *ServiceImpl) CreatePortal(ctx context.Context, userID uuid.UUID) (*models.RedirectResponse, error) {
	ctx, span := otel.Tracer("BillingService").Start(ctx, "CreatePortal", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "No billing customer")
		return nil, fmt.Errorf("failed to find billing customer: %w", err)
	}

	url, err := s.provider.CreatePortalSession(ctx, sub.StripeCustomerID)
	if err != nil {
		s.logger.Error("Failed to create portal session", zap.String("method", "CreatePortal"),
			zap.String("userID", userID.String()), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Portal session failed")
		return nil, fmt.Errorf("failed to create portal session: %w", err)
	}

	span.SetStatus(codes.Ok, "Portal session created")
	return &models.RedirectResponse{URL: url}, nil
}

// SetCancelAtPeriodEnd asks the provider to schedule or withdraw cancellation. The stored
// record is only changed by the webhook that follows; the returned copy reflects the request.
func (s *ServiceImpl) SetCancelAtPeriodEnd(ctx context.Context, userID uuid.UUID, cancel bool) (*models.UserSubscription, error) {
	ctx, span := otel.Tracer("BillingService").Start(ctx, "SetCancelAtPeriodEnd", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Bool("cancel", cancel),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "SetCancelAtPeriodEnd"), zap.String("userID", userID.String()))

	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "No subscription")
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	if sub.Status == models.SubscriptionCanceled {
		span.SetStatus(codes.Error, "subscription already canceled")
		return nil, models.NewValidationError("subscription", "subscription is already canceled")
	}

	if err := s.provider.SetCancelAtPeriodEnd(ctx, sub.StripeSubscriptionID, cancel); err != nil {
		l.Error("Failed to update subscription at provider", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Provider update failed")
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	sub.CancelAtPeriodEnd = cancel
	l.Info("Cancellation preference sent", zap.Bool("cancelAtPeriodEnd", cancel),
		zap.String("subscriptionID", sub.StripeSubscriptionID))
	span.SetStatus(codes.Ok, "Subscription updated")
	return sub, nil
}
