package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mindspend/mindspend-api/services"
	"github.com/mindspend/mindspend-api/store"
)

// Version is reported by /health and set at build time with -ldflags.
var Version = "1.0.0"

type StatsHandler struct {
	Stats *services.StatsService
	Store store.Store
}

func NewStatsHandler(stats *services.StatsService, st store.Store) *StatsHandler {
	return &StatsHandler{Stats: stats, Store: st}
}

// GetStats returns the public landing-page counters.
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.Stats.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":  "healthy",
		"version": Version,
		"time":    time.Now().Format(time.RFC3339),
	}
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
		body["store"] = err.Error()
	}
	c.JSON(status, body)
}
