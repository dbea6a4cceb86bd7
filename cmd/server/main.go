package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbforge/kbforge/api/handlers"
	"github.com/kbforge/kbforge/api/routes"
	"github.com/kbforge/kbforge/config"
	"github.com/kbforge/kbforge/internal/service/conversion"
	"github.com/kbforge/kbforge/pkg/logger"
	"github.com/kbforge/kbforge/pkg/queue"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/server.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.LoadEngineConfig(os.Getenv("KBFORGE_CONFIG"))
	if err != nil {
		log.Fatal("Failed to load engine config", logger.Error(err))
	}

	svc, err := conversion.NewService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create conversion service", logger.Error(err))
	}

	redisCfg := config.GetRedisConfig()
	q, err := queue.NewAsynqQueue(&queue.Config{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
	})
	if err != nil {
		log.Fatal("Failed to create queue", logger.Error(err))
	}

	h := handlers.NewHandlers(svc, q, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		log.Info("Server starting on port 8080")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
