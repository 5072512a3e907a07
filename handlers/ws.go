package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"

	"github.com/mindspend/mindspend-api/middleware"
	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/utils"
)

const sessionUserKey = "user_id"

// WSHandler streams alert events to the owner's open websocket sessions.
type WSHandler struct {
	M *melody.Melody
}

func NewWSHandler() *WSHandler {
	m := melody.New()
	m.Config.MaxMessageSize = 1024

	// Keep-alive for hosts that drop idle connections
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		utils.LogWebSocket("CONNECT", sessionUser(s))
	})
	m.HandleDisconnect(func(s *melody.Session) {
		utils.LogWebSocket("DISCONNECT", sessionUser(s))
	})
	m.HandleError(func(s *melody.Session, err error) {
		utils.SafeError("[WS] error for %s: %v", utils.MaskID(sessionUser(s)), err)
	})

	return &WSHandler{M: m}
}

func sessionUser(s *melody.Session) string {
	v, ok := s.Get(sessionUserKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

// HandleWS upgrades an authenticated request into an alert stream.
func (h *WSHandler) HandleWS(c *gin.Context) {
	keys := map[string]any{sessionUserKey: middleware.GetUserID(c)}
	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		utils.SafeError("[WS] upgrade failed: %v", err)
	}
}

// Notify pushes an event to every session of its user.
func (h *WSHandler) Notify(ctx context.Context, event models.AlertEvent) error {
	msg, err := json.Marshal(gin.H{"type": event.Kind + "_alert", "alert": event})
	if err != nil {
		return fmt.Errorf("marshal ws alert: %w", err)
	}

	return h.M.BroadcastFilter(msg, func(s *melody.Session) bool {
		return sessionUser(s) == event.UserID
	})
}

func (h *WSHandler) Close() error {
	return h.M.Close()
}
