package studio

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/styleai/server/internal/module/quota"
	sharederrors "github.com/styleai/server/internal/shared/errors"
	"github.com/styleai/server/internal/utils/middleware"
)

// Handler serves the studio generation endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new studio handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers studio routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/try-on", h.TryOn)
	r.POST("/color-palette", h.ColorPalette)
	r.POST("/catalog", h.Catalog)
	r.GET("/history", h.History)
}

// TryOn generates a virtual try-on image.
// POST /api/v1/studio/try-on
func (h *Handler) TryOn(c *gin.Context) {
	userKey, userClass, ok := h.identity(c)
	if !ok {
		return
	}

	var req TryOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := sharederrors.BadRequest("invalid request body: " + err.Error())
		c.JSON(appErr.StatusCode, appErr.ToResponse())
		return
	}

	resp, err := h.service.TryOn(c.Request.Context(), userKey, userClass, &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ColorPalette runs seasonal color analysis on a portrait.
// POST /api/v1/studio/color-palette
func (h *Handler) ColorPalette(c *gin.Context) {
	userKey, userClass, ok := h.identity(c)
	if !ok {
		return
	}

	var req PaletteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := sharederrors.BadRequest("invalid request body: " + err.Error())
		c.JSON(appErr.StatusCode, appErr.ToResponse())
		return
	}

	resp, err := h.service.AnalyzePalette(c.Request.Context(), userKey, userClass, &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Catalog composites a product onto a mannequin photo.
// POST /api/v1/studio/catalog
func (h *Handler) Catalog(c *gin.Context) {
	userKey, userClass, ok := h.identity(c)
	if !ok {
		return
	}

	var req CatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := sharederrors.BadRequest("invalid request body: " + err.Error())
		c.JSON(appErr.StatusCode, appErr.ToResponse())
		return
	}

	resp, err := h.service.GenerateCatalog(c.Request.Context(), userKey, userClass, &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// History returns the caller's recent generations.
// GET /api/v1/studio/history?limit=50
func (h *Handler) History(c *gin.Context) {
	userKey, _, ok := h.identity(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.service.History(c.Request.Context(), userKey, limit)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// identity extracts the caller's user key and class, responding 401 when
// absent.
func (h *Handler) identity(c *gin.Context) (userKey, userClass string, ok bool) {
	userKey = middleware.GetUserKey(c)
	if userKey == "" {
		appErr := sharederrors.Unauthorized("")
		c.JSON(appErr.StatusCode, appErr.ToResponse())
		return "", "", false
	}
	return userKey, middleware.GetUserClass(c), true
}

// renderError maps service errors onto HTTP responses.
func (h *Handler) renderError(c *gin.Context, err error) {
	var appErr *sharederrors.AppError
	switch {
	case errors.Is(err, ErrInvalidImage):
		appErr = sharederrors.BadRequest(err.Error())
	case errors.Is(err, ErrDailyLimitReached):
		appErr = sharederrors.QuotaExceeded("")
	case errors.Is(err, quota.ErrInvalidUserKey):
		appErr = sharederrors.Unauthorized("")
	case errors.Is(err, quota.ErrStoreUnavailable):
		appErr = sharederrors.StoreUnavailable(err)
	case errors.Is(err, ErrProviderUnavailable):
		appErr = sharederrors.ProviderUnavailable(err)
	case errors.Is(err, ErrProviderFailed):
		appErr = sharederrors.NewAppError("GENERATION_FAILED", "image generation failed, no usage was consumed", http.StatusBadGateway, err)
	default:
		appErr = sharederrors.Internal("request failed", err)
	}
	c.JSON(appErr.StatusCode, appErr.ToResponse())
}
