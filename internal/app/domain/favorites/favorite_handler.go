package favorites

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
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

// ListFavorites handles GET /api/favorites
func (h *Handler) ListFavorites(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}
	page, err := domain.PageParams(c, DefaultFavoritesPerPage, MaxFavoritesPerPage)
	if err != nil {
		h.RespondError(c, err, "list favorites")
		return
	}

	result, err := h.service.ListFavorites(c.Request.Context(), userID, page)
	if err != nil {
		h.RespondError(c, err, "list favorites")
		return
	}
	domain.RespondPage(c, result)
}

// AddFavorite handles POST /api/favorites
func (h *Handler) AddFavorite(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	var req models.AddFavoriteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	favorite, err := h.service.AddFavorite(c.Request.Context(), userID, req)
	if err != nil {
		h.RespondError(c, err, "add favorite")
		return
	}
	h.RespondData(c, http.StatusCreated, favorite)
}

// RemoveFavorite handles DELETE /api/favorites?place_id=
func (h *Handler) RemoveFavorite(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	raw := c.Query("place_id")
	if raw == "" {
		h.RespondError(c, models.NewValidationError("place_id", "is required"), "remove favorite")
		return
	}
	placeID, err := uuid.Parse(raw)
	if err != nil {
		h.RespondError(c, models.NewValidationError("place_id", "must be a valid id"), "remove favorite")
		return
	}

	if err := h.service.RemoveFavorite(c.Request.Context(), userID, placeID); err != nil {
		h.RespondError(c, err, "remove favorite")
		return
	}
	h.RespondData(c, http.StatusOK, gin.H{"success": true})
}
