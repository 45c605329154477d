package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/domain"
	"github.com/FACorreiaa/go-kidspots/internal/app/models"
)

type Handler struct {
	*domain.BaseHandler
	service Service
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		BaseHandler: domain.NewBaseHandler(logger),
		service:     service,
	}
}

// GetSubscription handles GET /api/billing/subscription
func (h *Handler) GetSubscription(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	sub, err := h.service.GetSubscription(c.Request.Context(), userID)
	if err != nil {
		h.RespondError(c, err, "get subscription")
		return
	}
	h.RespondData(c, http.StatusOK, sub)
}

// CreateCheckout handles POST /api/billing/checkout
func (h *Handler) CreateCheckout(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}

	redirect, err := h.service.CreateCheckout(c.Request.Context(), userID, req)
	if err != nil {
		h.RespondError(c, err, "create checkout")
		return
	}
	h.RespondData(c, http.StatusOK, redirect)
}

// CreatePortal handles POST /api/billing/portal
func (h *Handler) CreatePortal(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	redirect, err := h.service.CreatePortal(c.Request.Context(), userID)
	if err != nil {
		h.RespondError(c, err, "create portal")
		return
	}
	h.RespondData(c, http.StatusOK, redirect)
}

// CancelSubscription handles POST /api/billing/cancel
func (h *Handler) CancelSubscription(c *gin.Context) {
	h.setCancelAtPeriodEnd(c, true, "cancel subscription")
}

// ResumeSubscription handles POST /api/billing/resume
func (h *Handler) ResumeSubscription(c *gin.Context) {
	h.setCancelAtPeriodEnd(c, false, "resume subscription")
}

func (h *Handler) setCancelAtPeriodEnd(c *gin.Context, cancel bool, op string) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	sub, err := h.service.SetCancelAtPeriodEnd(c.Request.Context(), userID, cancel)
	if err != nil {
		h.RespondError(c, err, op)
		return
	}
	h.RespondData(c, http.StatusOK, sub)
}
