package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/api"
	"github.com/perkforge/loyalty-engine/internal/config"
	"github.com/perkforge/loyalty-engine/internal/logger"
	"github.com/perkforge/loyalty-engine/internal/queue/sqs"
	"github.com/perkforge/loyalty-engine/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		if err := log.Sync(); err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting ingest API",
		zap.String("environment", cfg.Service.Environment))

	sqsClient, err := sqs.NewClient(context.Background(), cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	ingest := service.NewIngestService(sqsClient, log)
	handler := api.NewHandler(ingest, log)

	if cfg.Service.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler.Register(router)

	addr := ":" + cfg.Service.APIPort
	log.Info("Ingest API listening", zap.String("address", addr))
	if err := router.Run(addr); err != nil {
		log.Fatal("API server error", zap.Error(err))
	}
}
