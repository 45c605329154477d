package domain

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/app/middleware"
	"github.com/FACorreiaa/go-kidspots/internal/app/models"
)

// Error codes returned in the error envelope.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeDuplicate       = "DUPLICATE"
	CodeDuplicateReview = "DUPLICATE_REVIEW"
	CodeDatabase        = "DATABASE_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type DataResponse struct {
	Data any `json:"data"`
}

// BaseHandler carries the response helpers shared by every JSON handler.
type BaseHandler struct {
	Logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{Logger: logger}
}

// classify maps an error onto its HTTP status, code and public message.
func classify(err error) (int, string, string) {
	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, CodeValidation, vErr.Error()
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrBadRequest):
		return http.StatusBadRequest, CodeValidation, "Invalid request"
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthorized, "Authentication required"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, CodeForbidden, "You do not have permission to perform this action"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "Resource not found"
	case errors.Is(err, models.ErrDuplicateReview):
		return http.StatusConflict, CodeDuplicateReview, "You have already reviewed this place"
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, CodeDuplicate, "Resource already exists"
	case errors.Is(err, models.ErrDatabase):
		return http.StatusInternalServerError, CodeDatabase, "A database error occurred"
	}
	return http.StatusInternalServerError, CodeInternal, "An unexpected error occurred"
}

// RespondError is the single conversion point from domain errors to the error envelope.
// Server-side failures are logged with detail; the caller only sees the generic message.
func (h *BaseHandler) RespondError(c *gin.Context, err error, operation string) {
	status, code, message := classify(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed", zap.String("operation", operation), zap.String("code", code), zap.Error(err))
	} else {
		h.Logger.Debug("Request rejected", zap.String("operation", operation), zap.String("code", code), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func (h *BaseHandler) RespondData(c *gin.Context, status int, data any) {
	c.JSON(status, DataResponse{Data: data})
}

// RespondPage writes a paged list envelope.
func RespondPage[T any](c *gin.Context, page models.Page[T]) {
	if page.Data == nil {
		page.Data = []T{}
	}
	c.JSON(http.StatusOK, page)
}

// RequireUserID returns the authenticated user id or writes a 401.
func (h *BaseHandler) RequireUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		h.RespondError(c, models.ErrUnauthenticated, "auth")
		return uuid.Nil, false
	}
	return userID, true
}

// BindJSON decodes the body into dst or writes a 400.
func (h *BaseHandler) BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.RespondError(c, models.NewValidationError("body", "invalid JSON body"), "bind")
		return false
	}
	return true
}

// UUIDParam parses a path parameter as a UUID. An unparsable id cannot exist, so it is a 404.
func (h *BaseHandler) UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.RespondError(c, models.ErrNotFound, "parse "+name)
		return uuid.Nil, false
	}
	return id, true
}

// PageParams reads page and per_page from the query string, clamped to [1, maxPerPage].
func PageParams(c *gin.Context, def, maxPerPage int) (models.PageRequest, error) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return models.PageRequest{}, err
	}
	perPage, err := queryInt(c, "per_page", def)
	if err != nil {
		return models.PageRequest{}, err
	}
	return models.NewPageRequest(page, perPage, def, maxPerPage), nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError(name, "must be an integer")
	}
	return n, nil
}
