package articles

import (
	"net/http"
	"strconv"

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

// ListArticles handles GET /api/articles
func (h *Handler) ListArticles(c *gin.Context) {
	page, err := domain.PageParams(c, DefaultArticlesPerPage, MaxArticlesPerPage)
	if err != nil {
		h.RespondError(c, err, "list articles")
		return
	}

	filter := models.ArticleFilter{
		Category: models.ArticleCategory(c.Query("category")),
		Tag:      c.Query("tag"),
		Page:     page,
	}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			h.RespondError(c, models.NewValidationError("featured", "must be a boolean"), "list articles")
			return
		}
		filter.FeaturedOnly = featured
	}

	result, err := h.service.ListArticles(c.Request.Context(), filter)
	if err != nil {
		h.RespondError(c, err, "list articles")
		return
	}
	domain.RespondPage(c, result)
}

// GetArticle handles GET /api/articles/:slug
func (h *Handler) GetArticle(c *gin.Context) {
	article, err := h.service.GetArticle(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.RespondError(c, err, "get article")
		return
	}
	h.RespondData(c, http.StatusOK, article)
}
