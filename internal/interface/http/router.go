package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/kundali-web/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, cookies *SessionCookies) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		errorHandlingMiddleware(handler.logger, handler.views),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", handler.Health)

	web := router.Group("/", cookies.middleware())
	{
		web.GET("/", handler.Page)
	}

	ui := router.Group("/ui", cookies.middleware())
	{
		ui.GET("/places", handler.PlacesFragment)
		ui.GET("/places/dismiss", handler.DismissPlaces)
		ui.POST("/places/select", handler.SelectPlace)
		ui.POST("/form/mode", handler.SwitchMode)
		ui.POST("/chart", handler.ChartFragment)
		ui.POST("/dasha/:row/toggle", handler.DashaFragment)
		ui.POST("/analysis", handler.AnalysisFragment)
		ui.POST("/chat", handler.ChatFragment)
		ui.POST("/chat/reply/:id", handler.ChatReplyFragment)
		ui.POST("/chat/toggle", handler.ToggleChatFragment)
	}

	api := router.Group("/api/v1", cookies.middleware())
	{
		api.GET("/places", handler.SuggestPlaces)
		api.POST("/charts", handler.CreateChart)
		api.POST("/dasha/:row/toggle", handler.ToggleDasha)
		api.POST("/analysis", handler.Analyze)
		api.GET("/chat", handler.ChatState)
		api.POST("/chat/open", handler.OpenChat)
		api.POST("/chat/close", handler.CloseChat)
		api.POST("/chat/messages", handler.SendChat)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "session", sessionID(c), "latency_ms", latency.Milliseconds())
	}
}
