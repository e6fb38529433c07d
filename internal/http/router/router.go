// internal/http/router/router.go
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/http/handler"
	"support-chatbot/internal/http/middleware"
)

type RouterConfig struct {
	ServiceName    string
	TracingEnabled bool
}

func New(cfg RouterConfig, chat *handler.ChatHandler, status *handler.StatusHandler, log logger.Logger) *gin.Engine {
	r := gin.New()
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))

	r.GET("/health", status.Health)
	r.GET("/ready", status.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/chat/messages", chat.PostMessage)
		v1.GET("/integrations/status", status.Integrations)
	}
	return r
}
