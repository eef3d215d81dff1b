package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anyulbade/stay-tax-engine/internal/rulestore"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	store *rulestore.Store
}

func NewHealthHandler(db Pinger, store *rulestore.Store) *HealthHandler {
	return &HealthHandler{db: db, store: store}
}

func (h *HealthHandler) Health(c *gin.Context) {
	snapshots := h.store.Len()

	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":         "unhealthy",
			"database":       "disconnected",
			"cachedRuleSets": snapshots,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"database":       "connected",
		"cachedRuleSets": snapshots,
	})
}
