package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	"github.com/FACorreiaa/go-kidspots/internal/pkg/config"
)

// Plans maps provider price ids onto local plans.
type Plans struct {
	MonthlyPriceID string
	AnnualPriceID  string
}

func PlansFromConfig(cfg config.StripeConfig) Plans {
	return Plans{
		MonthlyPriceID: cfg.PremiumMonthlyPriceID,
		AnnualPriceID:  cfg.PremiumAnnualPriceID,
	}
}

// PlanForPrice returns the plan billed by priceID. Unknown prices are free.
func (p Plans) PlanForPrice(priceID string) models.SubscriptionPlan {
	switch {
	case priceID == "":
		return models.PlanFree
	case priceID == p.MonthlyPriceID:
		return models.PlanPremiumMonthly
	case priceID == p.AnnualPriceID:
		return models.PlanPremiumAnnual
	}
	return models.PlanFree
}

// PriceForPlan is the inverse of PlanForPrice for the purchasable plans.
func (p Plans) PriceForPlan(plan models.SubscriptionPlan) (string, bool) {
	var id string
	switch plan {
	case models.PlanPremiumMonthly:
		id = p.MonthlyPriceID
	case models.PlanPremiumAnnual:
		id = p.AnnualPriceID
	}
	return id, id != ""
}

// statusFromStripe collapses the provider's statuses onto the four local ones.
func statusFromStripe(status stripe.SubscriptionStatus) models.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusPastDue:
		return models.SubscriptionPastDue
	case stripe.SubscriptionStatusCanceled:
		return models.SubscriptionCanceled
	case stripe.SubscriptionStatusTrialing:
		return models.SubscriptionTrialing
	}
	return models.SubscriptionActive
}

// Reconciler applies provider webhook events to the local subscription mirror.
// Every write is an overwrite, so redelivered events converge on the same state.
type Reconciler struct {
	logger   *zap.Logger
	repo     Repository
	provider Provider
	plans    Plans
}

func NewReconciler(repo Repository, provider Provider, plans Plans, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		logger:   logger,
		repo:     repo,
		provider: provider,
		plans:    plans,
	}
}

// HandleEvent dispatches one verified event. It reports false for event types it does not act on.
func (r *Reconciler) HandleEvent(ctx context.Context, event stripe.Event) (bool, error) {
	ctx, span := otel.Tracer("BillingReconciler").Start(ctx, "HandleEvent", trace.WithAttributes(
		attribute.String("stripe.event.id", event.ID),
		attribute.String("stripe.event.type", string(event.Type)),
	))
	defer span.End()

	l := r.logger.With(zap.String("method", "HandleEvent"), zap.String("eventID", event.ID),
		zap.String("eventType", string(event.Type)))

	if event.Data == nil {
		span.SetStatus(codes.Error, "event without data")
		return false, fmt.Errorf("event %s carries no data", event.ID)
	}

	var err error
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = r.checkoutCompleted(ctx, event.Data.Raw)
	case stripe.EventTypeCustomerSubscriptionCreated, stripe.EventTypeCustomerSubscriptionUpdated:
		var sub stripe.Subscription
		if err = json.Unmarshal(event.Data.Raw, &sub); err == nil {
			err = r.subscriptionChanged(ctx, &sub)
		}
	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err = json.Unmarshal(event.Data.Raw, &sub); err == nil {
			err = r.subscriptionCanceled(ctx, &sub)
		}
	case stripe.EventTypeInvoicePaid:
		var inv stripe.Invoice
		if err = json.Unmarshal(event.Data.Raw, &inv); err == nil {
			l.Info("Invoice paid", zap.String("invoiceID", inv.ID))
		}
	case stripe.EventTypeInvoicePaymentFailed:
		var inv stripe.Invoice
		if err = json.Unmarshal(event.Data.Raw, &inv); err == nil {
			l.Info("Invoice payment failed", zap.String("invoiceID", inv.ID))
			err = r.paymentFailed(ctx, &inv)
		}
	default:
		span.SetStatus(codes.Ok, "event ignored")
		return false, nil
	}

	if err != nil {
		l.Error("Failed to reconcile event", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to reconcile event")
		return true, fmt.Errorf("failed to handle %s: %w", event.Type, err)
	}

	span.SetStatus(codes.Ok, "event reconciled")
	return true, nil
}

func (r *Reconciler) checkoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return fmt.Errorf("failed to decode checkout session: %w", err)
	}
	if sess.Mode != stripe.CheckoutSessionModeSubscription || sess.Subscription == nil || sess.Subscription.ID == "" {
		return nil
	}

	sub, err := r.provider.GetSubscription(ctx, sess.Subscription.ID)
	if err != nil {
		return err
	}
	return r.subscriptionChanged(ctx, sub)
}

// subscriptionChanged overwrites the user's record from sub and derives the premium flag.
func (r *Reconciler) subscriptionChanged(ctx context.Context, sub *stripe.Subscription) error {
	l := r.logger.With(zap.String("method", "subscriptionChanged"), zap.String("subscriptionID", sub.ID))

	customerID := customerIDOf(sub.Customer)
	userID, ok, err := r.resolveUser(ctx, customerID)
	if err != nil || !ok {
		return err
	}

	record := &models.UserSubscription{
		UserID:               userID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: sub.ID,
		Plan:                 models.PlanFree,
		Status:               statusFromStripe(sub.Status),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if item := firstItem(sub); item != nil {
		if item.Price != nil {
			record.Plan = r.plans.PlanForPrice(item.Price.ID)
		}
		record.CurrentPeriodStart = fromEpoch(item.CurrentPeriodStart)
		record.CurrentPeriodEnd = fromEpoch(item.CurrentPeriodEnd)
	}

	if err := r.repo.SaveSubscription(ctx, record); err != nil {
		return err
	}

	l.Info("Subscription reconciled",
		zap.String("userID", userID.String()),
		zap.String("plan", string(record.Plan)),
		zap.String("status", string(record.Status)),
		zap.Bool("premium", record.GrantsPremium()),
	)
	return nil
}

func (r *Reconciler) subscriptionCanceled(ctx context.Context, sub *stripe.Subscription) error {
	userID, ok, err := r.resolveUser(ctx, customerIDOf(sub.Customer))
	if err != nil || !ok {
		return err
	}
	if err := r.repo.CancelSubscription(ctx, userID, sub.ID); err != nil {
		return err
	}
	r.logger.Info("Subscription canceled", zap.String("userID", userID.String()), zap.String("subscriptionID", sub.ID))
	return nil
}

// paymentFailed marks the invoiced subscription past due. The premium flag is left as is.
func (r *Reconciler) paymentFailed(ctx context.Context, inv *stripe.Invoice) error {
	_, ok, err := r.resolveUser(ctx, customerIDOf(inv.Customer))
	if err != nil || !ok {
		return err
	}

	subscriptionID := invoiceSubscriptionID(inv)
	if subscriptionID == "" {
		return nil
	}
	updated, err := r.repo.MarkPastDue(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if !updated {
		r.logger.Warn("Payment failed for unknown subscription", zap.String("subscriptionID", subscriptionID))
	}
	return nil
}

// resolveUser finds the local user behind a provider customer. Deleted customers and
// customers without a parsable user id are skipped (ok=false) rather than failed.
func (r *Reconciler) resolveUser(ctx context.Context, customerID string) (uuid.UUID, bool, error) {
	l := r.logger.With(zap.String("customerID", customerID))
	if customerID == "" {
		l.Warn("Event has no customer")
		return uuid.Nil, false, nil
	}

	c, err := r.provider.GetCustomer(ctx, customerID)
	if err != nil {
		return uuid.Nil, false, err
	}
	if c.Deleted {
		l.Info("Customer deleted, skipping event")
		return uuid.Nil, false, nil
	}

	raw := c.Metadata[customerUserIDKey]
	if raw == "" {
		l.Error("No user ID found in customer metadata")
		return uuid.Nil, false, nil
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		l.Error("Customer metadata user ID is not a UUID", zap.String("value", raw))
		return uuid.Nil, false, nil
	}
	return userID, true, nil
}

func customerIDOf(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func firstItem(sub *stripe.Subscription) *stripe.SubscriptionItem {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil
	}
	return sub.Items.Data[0]
}

func invoiceSubscriptionID(inv *stripe.Invoice) string {
	if inv.Parent == nil || inv.Parent.SubscriptionDetails == nil || inv.Parent.SubscriptionDetails.Subscription == nil {
		return ""
	}
	return inv.Parent.SubscriptionDetails.Subscription.ID
}

func fromEpoch(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
