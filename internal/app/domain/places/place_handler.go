package places

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

// SearchPlaces handles GET /api/places
func (h *Handler) SearchPlaces(c *gin.Context) {
	params, err := ParseSearchParams(c.Request.URL.Query())
	if err != nil {
		h.RespondError(c, err, "search places")
		return
	}

	result, err := h.service.SearchPlaces(c.Request.Context(), params)
	if err != nil {
		h.RespondError(c, err, "search places")
		return
	}
	domain.RespondPage(c, result)
}

// GetPlace handles GET /api/places/:slug
func (h *Handler) GetPlace(c *gin.Context) {
	detail, err := h.service.GetPlaceDetail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.RespondError(c, err, "get place")
		return
	}
	h.RespondData(c, http.StatusOK, detail)
}

// CreatePlace handles POST /api/places
func (h *Handler) CreatePlace(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreatePlaceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	place, err := h.service.CreatePlace(c.Request.Context(), userID, req)
	if err != nil {
		h.RespondError(c, err, "create place")
		return
	}
	h.RespondData(c, http.StatusCreated, place)
}

// UpdatePlace handles PATCH /api/places/:slug
func (h *Handler) UpdatePlace(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	var req models.UpdatePlaceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	place, err := h.service.UpdatePlace(c.Request.Context(), userID, c.Param("slug"), req)
	if err != nil {
		h.RespondError(c, err, "update place")
		return
	}
	h.RespondData(c, http.StatusOK, place)
}

// SubmitContribution handles POST /api/places/:slug/contributions
func (h *Handler) SubmitContribution(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	var req models.SubmitContributionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	contribution, err := h.service.SubmitContribution(c.Request.Context(), userID, c.Param("slug"), req)
	if err != nil {
		h.RespondError(c, err, "submit contribution")
		return
	}
	h.RespondData(c, http.StatusCreated, contribution)
}
