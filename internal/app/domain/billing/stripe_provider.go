package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	portalsession "github.com/stripe/stripe-go/v83/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/customer"
	"github.com/stripe/stripe-go/v83/subscription"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/FACorreiaa/go-kidspots/internal/pkg/config"
)

// customerUserIDKey is the customer metadata entry linking a Stripe customer to a local user.
const customerUserIDKey = "user_id"

// Provider is the slice of the payment provider the billing flows depend on.
type Provider interface {
	GetCustomer(ctx context.Context, customerID string) (*stripe.Customer, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	FindOrCreateCustomer(ctx context.Context, userID uuid.UUID, email string, name *string) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID, priceID string) (string, error)
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) error
}

// EventVerifier authenticates a webhook payload against its signature header.
type EventVerifier interface {
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

var (
	_ Provider      = (*StripeProvider)(nil)
	_ EventVerifier = (*StripeProvider)(nil)
)

// StripeProvider talks to Stripe. The API key is installed once, at construction.
type StripeProvider struct {
	apiKey          string
	webhookSecret   string
	trialPeriodDays int64
	successURL      string
	cancelURL       string
	portalReturnURL string
}

func NewStripeProvider(cfg config.StripeConfig) *StripeProvider {
	stripe.Key = cfg.SecretKey
	return &StripeProvider{
		apiKey:          cfg.SecretKey,
		webhookSecret:   cfg.WebhookSecret,
		trialPeriodDays: cfg.TrialPeriodDays,
		successURL:      cfg.SuccessURL,
		cancelURL:       cfg.CancelURL,
		portalReturnURL: cfg.PortalReturnURL,
	}
}

// ConstructEvent verifies the Stripe-Signature header and decodes the event.
// Events sent with a different API version are still accepted.
func (s *StripeProvider) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("failed to verify webhook signature: %w", err)
	}
	return event, nil
}

func (s *StripeProvider) GetCustomer(ctx context.Context, customerID string) (*stripe.Customer, error) {
	c, err := customer.Get(customerID, &stripe.CustomerParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

func (s *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	sub, err := subscription.Get(subscriptionID, &stripe.SubscriptionParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// FindOrCreateCustomer reuses the first customer registered with email, otherwise
// creates one tagged with the user id.
func (s *StripeProvider) FindOrCreateCustomer(ctx context.Context, userID uuid.UUID, email string, name *string) (string, error) {
	listParams := &stripe.CustomerListParams{
		ListParams: stripe.ListParams{Context: ctx, Limit: stripe.Int64(1)},
		Email:      stripe.String(email),
	}
	iter := customer.List(listParams)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("failed to list customers: %w", err)
	}

	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
		Metadata: map[string]string{
			customerUserIDKey: userID.String(),
		},
	}
	if name != nil && *name != "" {
		params.Name = stripe.String(*name)
	}

	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	return c.ID, nil
}

// CreateCheckoutSession opens a subscription-mode checkout with the configured trial.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, customerID, priceID string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Customer:           stripe.String(customerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
	}
	if s.trialPeriodDays > 0 {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(s.trialPeriodDays),
		}
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *StripeProvider) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	sess, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Params:    stripe.Params{Context: ctx},
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(s.portalReturnURL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create billing portal session: %w", err)
	}
	return sess.URL, nil
}

// SetCancelAtPeriodEnd schedules (true) or withdraws (false) cancellation at period end.
func (s *StripeProvider) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) error {
	_, err := subscription.Update(subscriptionID, &stripe.SubscriptionParams{
		Params:            stripe.Params{Context: ctx},
		CancelAtPeriodEnd: stripe.Bool(cancel),
	})
	if err != nil {
		return fmt.Errorf("failed to update subscription cancellation: %w", err)
	}
	return nil
}
