// cmd/chatbot-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"support-chatbot/internal/app"
	"support-chatbot/internal/common/config"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/http/handler"
	"support-chatbot/internal/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.Build(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("application wiring failed", zap.Error(err))
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	checks := make(map[string]handler.ReadinessCheck, len(application.Readiness))
	for name, check := range application.Readiness {
		checks[name] = check
	}

	engine := router.New(
		router.RouterConfig{ServiceName: cfg.App.Name, TracingEnabled: cfg.Tracing.Enabled},
		handler.NewChatHandler(application.Orchestrator, log),
		handler.NewStatusHandler(application.Orchestrator, checks),
		log,
	)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      engine,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server starting", zap.String("address", cfg.Server.Address), zap.String("env", cfg.App.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown error", zap.Error(err))
	}
	application.Close(shutdownCtx)

	zapLog.Info("Shutdown complete")
}
