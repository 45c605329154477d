package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionPlan string

const (
	PlanFree           SubscriptionPlan = "free"
	PlanPremiumMonthly SubscriptionPlan = "premium_monthly"
	PlanPremiumAnnual  SubscriptionPlan = "premium_annual"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionTrialing SubscriptionStatus = "trialing"
)

// UserSubscription is the local mirror of a user's provider subscription, one per user.
type UserSubscription struct {
	ID                   uuid.UUID          `json:"id"`
	UserID               uuid.UUID          `json:"user_id"`
	StripeCustomerID     string             `json:"stripe_customer_id"`
	StripeSubscriptionID string             `json:"stripe_subscription_id"`
	Plan                 SubscriptionPlan   `json:"plan"`
	Status               SubscriptionStatus `json:"status"`
	CurrentPeriodStart   *time.Time         `json:"current_period_start"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end"`
	CancelAtPeriodEnd    bool               `json:"cancel_at_period_end"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// GrantsPremium is the single rule deriving the profile premium flag.
func (s UserSubscription) GrantsPremium() bool {
	return s.Plan != PlanFree && s.Status == SubscriptionActive
}

type CheckoutRequest struct {
	Plan SubscriptionPlan `json:"plan" validate:"required,oneof=premium_monthly premium_annual"`
}

type RedirectResponse struct {
	URL string `json:"url"`
}
