package quota

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	sharederrors "github.com/styleai/server/internal/shared/errors"
	"github.com/styleai/server/internal/utils/middleware"
)

// Handler serves quota snapshots to the UI ("N of LIMIT remaining today").
type Handler struct {
	gate *Gate
}

// NewHandler creates a new quota handler.
func NewHandler(gate *Gate) *Handler {
	return &Handler{gate: gate}
}

// RegisterRoutes registers quota routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/usage", h.GetUsage)
}

// GetUsage returns the caller's usage snapshot for the current period.
// GET /api/v1/usage
func (h *Handler) GetUsage(c *gin.Context) {
	userKey := middleware.GetUserKey(c)
	if userKey == "" {
		appErr := sharederrors.Unauthorized("")
		c.JSON(appErr.StatusCode, appErr.ToResponse())
		return
	}

	snapshot, err := h.gate.CheckRemaining(c.Request.Context(), userKey, middleware.GetUserClass(c))
	if err != nil {
		var appErr *sharederrors.AppError
		switch {
		case errors.Is(err, ErrInvalidUserKey):
			appErr = sharederrors.Unauthorized("")
		case errors.Is(err, ErrStoreUnavailable):
			appErr = sharederrors.StoreUnavailable(err)
		default:
			appErr = sharederrors.Internal("failed to read usage", err)
		}
		c.JSON(appErr.StatusCode, appErr.ToResponse())
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
