package reviews

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

// ListPlaceReviews handles GET /api/places/:slug/reviews
func (h *Handler) ListPlaceReviews(c *gin.Context) {
	page, err := domain.PageParams(c, DefaultReviewsPerPage, MaxReviewsPerPage)
	if err != nil {
		h.RespondError(c, err, "list reviews")
		return
	}

	result, err := h.service.ListPlaceReviews(c.Request.Context(), c.Param("slug"), models.ParseReviewSort(c.Query("sort")), page)
	if err != nil {
		h.RespondError(c, err, "list reviews")
		return
	}
	domain.RespondPage(c, result)
}

// CreateReview handles POST /api/places/:slug/reviews
func (h *Handler) CreateReview(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateReviewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	review, err := h.service.CreateReview(c.Request.Context(), userID, c.Param("slug"), req)
	if err != nil {
		h.RespondError(c, err, "create review")
		return
	}
	h.RespondData(c, http.StatusCreated, review)
}

// GetReview handles GET /api/reviews/:id
func (h *Handler) GetReview(c *gin.Context) {
	id, ok := h.UUIDParam(c, "id")
	if !ok {
		return
	}

	review, err := h.service.GetReview(c.Request.Context(), id)
	if err != nil {
		h.RespondError(c, err, "get review")
		return
	}
	h.RespondData(c, http.StatusOK, review)
}

// UpdateReview handles PATCH /api/reviews/:id
func (h *Handler) UpdateReview(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := h.UUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateReviewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	review, err := h.service.UpdateReview(c.Request.Context(), userID, id, req)
	if err != nil {
		h.RespondError(c, err, "update review")
		return
	}
	h.RespondData(c, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/reviews/:id
func (h *Handler) DeleteReview(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}
	id, ok := h.UUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteReview(c.Request.Context(), userID, id); err != nil {
		h.RespondError(c, err, "delete review")
		return
	}
	h.RespondData(c, http.StatusOK, gin.H{"success": true})
}
