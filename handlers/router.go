package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"chat-backend/middlewares"
	"chat-backend/services"
)

// RouterConfig holds what NewRouter needs besides the services
type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	BodyLimitBytes int64
	EnableTracing  bool
	Logger         zerolog.Logger
}

// NewRouter mounts the API routes, health and metrics endpoints on a gin engine
func NewRouter(cfg RouterConfig, conversations *services.ConversationService, summaries *services.SummaryService) *gin.Engine {
	useJSONFieldNames()

	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestID())
	if cfg.EnableTracing {
		router.Use(middlewares.Tracing(cfg.ServiceName))
	}
	router.Use(
		middlewares.Logging(cfg.Logger),
		middlewares.Metrics(),
		middlewares.CORS(cfg.AllowedOrigins),
		middlewares.BodyLimit(cfg.BodyLimitBytes),
	)

	conversationHandler := NewConversationHandler(conversations, cfg.Logger)
	summaryHandler := NewSummaryHandler(summaries, cfg.Logger)

	api := router.Group("/api")
	{
		// Conversation routes
		api.GET("/conversations", conversationHandler.ListConversations)
		api.POST("/conversations", conversationHandler.CreateConversation)
		api.GET("/conversations/:id", conversationHandler.GetConversation)
		api.DELETE("/conversations/:id", conversationHandler.DeleteConversation)
		api.POST("/conversations/:id/messages", conversationHandler.AppendMessage)
		api.PUT("/conversations/:id/summary", conversationHandler.UpdateSummary)

		// Summary routes
		api.GET("/summary", summaryHandler.ListSummaries)
		api.POST("/summary", summaryHandler.UpsertSummary)
		api.GET("/summary/:id", summaryHandler.GetSummary)
		api.PUT("/summary/:id", summaryHandler.UpdateSummary)
		api.DELETE("/summary/:id", summaryHandler.DeleteSummary)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
