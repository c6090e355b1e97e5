package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/voxbridge/voxbridge/internal/config"
	"github.com/voxbridge/voxbridge/internal/domains/relay"
	"github.com/voxbridge/voxbridge/internal/domains/session"
	"github.com/voxbridge/voxbridge/pkg/Logger"
)

// StreamHandler upgrades the provider's media stream connection and runs a
// relay engine for the call.
type StreamHandler struct {
	sessions    session.Store
	resolver    relay.Resolver
	summarizer  relay.Summarizer
	cfg         *config.Settings
	fillerAudio string
	logger      *Logger.Logger
	upgrader    websocket.Upgrader
}

func NewStreamHandler(
	sessions session.Store,
	resolver relay.Resolver,
	summarizer relay.Summarizer,
	cfg *config.Settings,
	fillerAudio string,
	logger *Logger.Logger,
) *StreamHandler {
	return &StreamHandler{
		sessions:    sessions,
		resolver:    resolver,
		summarizer:  summarizer,
		cfg:         cfg,
		fillerAudio: fillerAudio,
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// the provider dials in from its own infrastructure
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleMediaStream runs one call end to end. The response is hijacked by
// the websocket upgrade; the handler returns when the call is over.
func (h *StreamHandler) HandleMediaStream(c *gin.Context) {
	sessionID := c.Param("session_id")
	phoneNumber := c.Param("phone_number")
	introduction := strings.ReplaceAll(c.Param("introduction"), "+", " ")

	if _, err := h.sessions.Get(c.Request.Context(), sessionID); err != nil {
		h.logger.Errorf("media stream: unknown session %s: %v", sessionID, err)
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("media stream: upgrade failed for session %s: %v", sessionID, err)
		return
	}
	h.logger.Infof("Media stream connected for session %s", sessionID)

	engine := relay.New(relay.Config{
		SessionID:     sessionID,
		SupportNumber: phoneNumber,
		Introduction:  introduction,
		Model: relay.ModelConfig{
			URL:    fmt.Sprintf("%s?model=%s", h.cfg.OpenAI.RealtimeURL, h.cfg.OpenAI.RealtimeModel),
			APIKey: h.cfg.OpenAI.APIKey,
			Voice:  h.cfg.OpenAI.Voice,
		},
		FillerAudio:      h.fillerAudio,
		WatchdogInterval: h.cfg.Relay.WatchdogInterval(),
		IdleCeiling:      h.cfg.Relay.IdleCeiling(),
	}, conn, h.sessions, h.resolver, h.summarizer, h.logger.Named("relay"))

	if err := engine.Run(c.Request.Context()); err != nil {
		h.logger.Errorf("media stream: relay for session %s: %v", sessionID, err)
	}
	h.logger.Infof("Media stream finished for session %s in state %s", sessionID, engine.EndState())
}
