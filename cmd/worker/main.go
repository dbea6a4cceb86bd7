package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbforge/kbforge/config"
	"github.com/kbforge/kbforge/internal/service/conversion"
	"github.com/kbforge/kbforge/pkg/logger"
	"github.com/kbforge/kbforge/pkg/queue"
	"github.com/kbforge/kbforge/pkg/worker"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
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
		log.Error("Failed to create conversion service", logger.Error(err))
		os.Exit(1)
	}

	redisCfg := config.GetRedisConfig()
	q, err := queue.NewAsynqQueue(&queue.Config{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
	})
	if err != nil {
		log.Error("Failed to create queue", logger.Error(err))
		os.Exit(1)
	}

	workerCfg := &worker.Config{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
		Concurrency:   2,
	}

	conversionWorker, err := worker.NewConversionWorker(workerCfg, svc, q, log)
	if err != nil {
		log.Error("Failed to create conversion worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := conversionWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	conversionWorker.Stop()
	log.Info("Worker stopped")
}
