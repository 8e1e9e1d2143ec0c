package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger はストアの死活確認を行います。
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler は /health を処理します。
type HealthHandler struct {
	store   Pinger
	backend string
}

// NewHealthHandler は新しいHealthHandlerを作成します。backend はレスポンスに含める保存先の名前です。
func NewHealthHandler(store Pinger, backend string) *HealthHandler {
	return &HealthHandler{store: store, backend: backend}
}

// Health はストアに到達できれば 200 を返します。
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		log.Printf("Health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "backend": h.backend, "error": "Database connection failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": h.backend})
}
