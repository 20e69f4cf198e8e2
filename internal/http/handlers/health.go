package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	ping func(ctx context.Context) error
	now  func() time.Time
}

// NewHealthHandler takes the credential store's readiness probe; nil means
// always ready.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	if ping == nil {
		ping = func(context.Context) error { return nil }
	}
	return &HealthHandler{ping: ping, now: time.Now}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
	defer cancel()

	if err := h.ping(cctx); err != nil {
		RespondError(ctx, http.StatusServiceUnavailable, "not_ready", "Store is not reachable", nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// APIHealth is the public status probe used by the web front end.
func (h *HealthHandler) APIHealth(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "CivicChain API is running",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
