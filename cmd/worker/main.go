package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/khoahotran/mediahub/adapters/event"
	"github.com/khoahotran/mediahub/adapters/media_storage"
	workerUC "github.com/khoahotran/mediahub/internal/application/usecase/media"
	"github.com/khoahotran/mediahub/internal/config"
	"github.com/khoahotran/mediahub/pkg/logger"
	"github.com/khoahotran/mediahub/pkg/tracing"
)

func main() {
	fmt.Println("Starting mediahub Worker...")

	// Configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "mediahub-worker")
	if err != nil {
		appLogger.Fatal("Cannot init tracer", err)
	}
	defer tp.Shutdown(context.Background())

	// Object storage
	storage, err := media_storage.NewObjectStorage(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize object storage", err)
	}

	// Worker Use Case
	processMediaEventUC := workerUC.NewProcessMediaEventUseCase(storage, appLogger)

	// Kafka Consumer
	consumer := event.NewMediaEventConsumer(cfg, appLogger)
	defer consumer.Close()

	if err := consumer.Run(ctx, processMediaEventUC.Execute); err != nil {
		appLogger.Error("Worker stopped", err)
	}
	appLogger.Info("Worker shut down")
}
