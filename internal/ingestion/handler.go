package ingestion

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"research-backend/internal/credentials"
	"research-backend/internal/mailbox"
	"research-backend/internal/shared/server/middleware"
	"research-backend/internal/shared/server/respond"
)

// Handler wires the ingestion endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches ingestion routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/email/ingest", h.ingest)
}

func (h *Handler) ingest(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	maxResults := 0
	if v := c.Query("maxResults"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "maxResults must be a non-negative integer", nil)
			return
		}
		maxResults = parsed
	}

	report, err := h.Svc.Run(c.Request.Context(), userID, maxResults)
	if err != nil {
		var provErr *mailbox.ProviderError
		switch {
		case errors.Is(err, credentials.ErrNotConnected):
			respond.Error(c, http.StatusPreconditionFailed, "email_not_connected", "no email account connected", nil)
		case errors.Is(err, credentials.ErrAuthenticationFailed):
			respond.Error(c, http.StatusUnauthorized, "email_auth_failed", "email authorization expired; reconnect your account", nil)
		case errors.As(err, &provErr):
			respond.Error(c, http.StatusBadGateway, "mailbox_error", "mailbox provider request failed", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "ingestion failed", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, report)
}
