package billing

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/observability/metrics"
)

// maxWebhookBodyBytes bounds the payload read before signature verification.
const maxWebhookBodyBytes = 65536

const signatureHeader = "Stripe-Signature"

// EventHandler applies a verified event; handled is false for event types it ignores.
type EventHandler interface {
	HandleEvent(ctx context.Context, event stripe.Event) (handled bool, err error)
}

var _ EventHandler = (*Reconciler)(nil)

// WebhookHandler is the provider-facing endpoint. Its responses use the provider's
// plain {error} shape rather than the API error envelope.
type WebhookHandler struct {
	logger   *zap.Logger
	verifier EventVerifier
	events   EventHandler
}

func NewWebhookHandler(verifier EventVerifier, events EventHandler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		logger:   logger,
		verifier: verifier,
		events:   events,
	}
}

// HandleWebhook handles POST /api/stripe/webhook
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	ctx := c.Request.Context()
	l := h.logger.With(zap.String("method", "HandleWebhook"))

	signature := c.GetHeader(signatureHeader)
	if signature == "" {
		countWebhook(ctx, "", "missing_signature")
		c.JSON(http.StatusBadRequest, gin.H{"error": "No signature"})
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		l.Warn("Failed to read webhook body", zap.Error(err))
		countWebhook(ctx, "", "unreadable")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	event, err := h.verifier.ConstructEvent(payload, signature)
	if err != nil {
		l.Warn("Webhook signature verification failed", zap.Error(err))
		countWebhook(ctx, "", "invalid_signature")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	handled, err := h.events.HandleEvent(ctx, event)
	if err != nil {
		l.Error("Error processing webhook", zap.String("eventID", event.ID),
			zap.String("eventType", string(event.Type)), zap.Error(err))
		countWebhook(ctx, event.Type, "failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook handler failed"})
		return
	}

	outcome := "handled"
	if !handled {
		outcome = "ignored"
	}
	countWebhook(ctx, event.Type, outcome)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func countWebhook(ctx context.Context, eventType stripe.EventType, outcome string) {
	metrics.Get().WebhookEventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", string(eventType)),
		attribute.String("outcome", outcome),
	))
}
