package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	pingDB    func() error
	pingCache func() error
}

// create a new instance of the health handler
func NewHealthHandler(pingDB, pingCache func() error) *HealthHandler {
	return &HealthHandler{pingDB: pingDB, pingCache: pingCache}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.pingDB != nil {
		if err := h.pingDB(); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "db": err.Error()})
			return
		}
	}

	resp := gin.H{"status": "ready"}

	// cache being down degrades reads, it does not gate readiness
	if h.pingCache != nil {
		if err := h.pingCache(); err != nil {
			resp["cache"] = "unavailable"
		}
	}

	ctx.JSON(http.StatusOK, resp)
}
