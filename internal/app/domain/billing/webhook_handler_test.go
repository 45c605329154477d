package billing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/pkg/config"
)

type verifierFunc func(payload []byte, signature string) (stripe.Event, error)

func (f verifierFunc) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	return f(payload, signature)
}

type eventHandlerFunc func(ctx context.Context, event stripe.Event) (bool, error)

func (f eventHandlerFunc) HandleEvent(ctx context.Context, event stripe.Event) (bool, error) {
	return f(ctx, event)
}

func acceptAll(_ []byte, _ string) (stripe.Event, error) {
	return stripe.Event{ID: "evt_1", Type: stripe.EventTypeCustomerSubscriptionUpdated}, nil
}

func TestWebhookHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		signature  string
		verifier   verifierFunc
		events     eventHandlerFunc
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing signature",
			verifier:   acceptAll,
			events:     func(context.Context, stripe.Event) (bool, error) { return true, nil },
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"No signature"}`,
		},
		{
			name:      "bad signature",
			signature: "t=1,v1=deadbeef",
			verifier: func([]byte, string) (stripe.Event, error) {
				return stripe.Event{}, errors.New("signature mismatch")
			},
			events:     func(context.Context, stripe.Event) (bool, error) { return true, nil },
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid signature"}`,
		},
		{
			name:       "ignored event",
			signature:  "t=1,v1=ok",
			verifier:   acceptAll,
			events:     func(context.Context, stripe.Event) (bool, error) { return false, nil },
			wantStatus: http.StatusOK,
			wantBody:   `{"received":true}`,
		},
		{
			name:       "handled event",
			signature:  "t=1,v1=ok",
			verifier:   acceptAll,
			events:     func(context.Context, stripe.Event) (bool, error) { return true, nil },
			wantStatus: http.StatusOK,
			wantBody:   `{"received":true}`,
		},
		{
			name:      "transition failure",
			signature: "t=1,v1=ok",
			verifier:  acceptAll,
			events: func(context.Context, stripe.Event) (bool, error) {
				return true, errors.New("db down")
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Webhook handler failed"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewWebhookHandler(tt.verifier, tt.events, zap.NewNop())
			r := gin.New()
			r.POST("/api/stripe/webhook", h.HandleWebhook)

			req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(`{"id":"evt_1"}`))
			if tt.signature != "" {
				req.Header.Set("Stripe-Signature", tt.signature)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestWebhookHandler_PassesRawBodyToVerifier(t *testing.T) {
	gin.SetMode(gin.TestMode)
	body := `{"id":"evt_raw","type":"invoice.paid"}`

	var gotPayload, gotSignature string
	verifier := verifierFunc(func(payload []byte, signature string) (stripe.Event, error) {
		gotPayload, gotSignature = string(payload), signature
		return stripe.Event{ID: "evt_raw", Type: stripe.EventTypeInvoicePaid}, nil
	})
	var gotEvent stripe.Event
	events := eventHandlerFunc(func(_ context.Context, event stripe.Event) (bool, error) {
		gotEvent = event
		return true, nil
	})

	r := gin.New()
	r.POST("/api/stripe/webhook", NewWebhookHandler(verifier, events, zap.NewNop()).HandleWebhook)
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, gotPayload)
	assert.Equal(t, "t=1,v1=abc", gotSignature)
	assert.Equal(t, "evt_raw", gotEvent.ID)
}

func TestStripeProvider_ConstructEvent(t *testing.T) {
	provider := NewStripeProvider(config.StripeConfig{WebhookSecret: "whsec_test_secret"})
	payload := []byte(`{"id":"evt_signed","object":"event","type":"invoice.paid","api_version":"2020-08-27",` +
		`"data":{"object":{"id":"in_1","object":"invoice"}}}`)

	t.Run("valid signature", func(t *testing.T) {
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload: payload,
			Secret:  "whsec_test_secret",
		})

		event, err := provider.ConstructEvent(signed.Payload, signed.Header)
		require.NoError(t, err)
		assert.Equal(t, "evt_signed", event.ID)
		assert.Equal(t, stripe.EventTypeInvoicePaid, event.Type)
	})

	t.Run("wrong secret", func(t *testing.T) {
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload: payload,
			Secret:  "whsec_other",
		})

		_, err := provider.ConstructEvent(signed.Payload, signed.Header)
		require.Error(t, err)
	})

	t.Run("tampered payload", func(t *testing.T) {
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload: payload,
			Secret:  "whsec_test_secret",
		})
		tampered := []byte(strings.Replace(string(signed.Payload), "in_1", "in_2", 1))

		_, err := provider.ConstructEvent(tampered, signed.Header)
		require.Error(t, err)
	})
}
