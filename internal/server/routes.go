package server

import (
	"github.com/gin-gonic/gin"
	"github.com/voxbridge/voxbridge/internal/handlers"
	"github.com/voxbridge/voxbridge/pkg/Logger"
)

type Dependencies struct {
	CallHandler   *handlers.CallHandler
	StreamHandler *handlers.StreamHandler
	Logger        *Logger.Logger
}

func NewServerDependencies(
	callHandler *handlers.CallHandler,
	streamHandler *handlers.StreamHandler,
	logger *Logger.Logger,
) Dependencies {
	return Dependencies{
		CallHandler:   callHandler,
		StreamHandler: streamHandler,
		Logger:        logger,
	}
}

// InitializeRoutes mounts the webhook and media stream routes.
func InitializeRoutes(r *gin.Engine, dep Dependencies) {
	r.GET("/", func(ctx *gin.Context) { ctx.JSON(200, gin.H{"message": "Server healthy"}) })
	r.GET("/healthz", func(ctx *gin.Context) { ctx.JSON(200, gin.H{"status": "ok"}) })

	// the provider sends webhooks as either GET or POST depending on the
	// number's configuration
	r.GET("/incoming-call", dep.CallHandler.HandleIncomingCall)
	r.POST("/incoming-call", dep.CallHandler.HandleIncomingCall)
	r.GET("/end-stream/:session_id", dep.CallHandler.HandleEndStream)
	r.POST("/end-stream/:session_id", dep.CallHandler.HandleEndStream)
	r.POST("/log-recording/:session_id", dep.CallHandler.HandleLogRecording)
	r.GET("/conversation-summary/:session_id", dep.CallHandler.HandleConversationSummary)
	r.GET("/conversation-summaries", dep.CallHandler.HandleRecentSummaries)

	r.GET("/media-stream/session/:session_id/:phone_number/:introduction", dep.StreamHandler.HandleMediaStream)
}
