package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/perkforge/loyalty-engine/internal/config"
	"github.com/perkforge/loyalty-engine/internal/consumer"
	"github.com/perkforge/loyalty-engine/internal/effects"
	"github.com/perkforge/loyalty-engine/internal/logger"
	"github.com/perkforge/loyalty-engine/internal/metrics"
	"github.com/perkforge/loyalty-engine/internal/progression"
	"github.com/perkforge/loyalty-engine/internal/queue/sqs"
	"github.com/perkforge/loyalty-engine/internal/repository/clickhouse"
	"github.com/perkforge/loyalty-engine/internal/repository/postgres"
	"github.com/perkforge/loyalty-engine/internal/rules"
)

func main() {
	// .env is optional outside local development
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

	log.Info("Starting worker",
		zap.String("environment", cfg.Service.Environment))

	metrics.Init()

	ctx := context.Background()

	db, err := postgres.NewDB(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to postgres", zap.Error(err))
	}
	if err := postgres.Migrate(db); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}
	log.Info("Postgres schema ready")

	chClient, err := clickhouse.NewClient(ctx, cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	analytics := clickhouse.NewRepository(chClient, log)
	defer func() {
		if err := analytics.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()
	if err := analytics.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize ClickHouse schema", zap.Error(err))
	}

	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	// Repositories
	campaigns := postgres.NewCampaignRepository(db)
	events := postgres.NewEventRepository(db)
	users := postgres.NewEndUserRepository(db)
	coupons := postgres.NewCouponRepository(db)
	plans := postgres.NewCommissionPlanRepository(db)
	ledger := postgres.NewCommissionRepository(db)
	referrals := postgres.NewReferralRepository(db)
	progressionRules := postgres.NewProgressionRuleRepository(db)
	quests := postgres.NewQuestRepository(db)
	streaks := postgres.NewStreakRepository(db)
	badges := postgres.NewBadgeRepository(db)

	// Core pipeline
	engine := rules.NewEngine(campaigns, time.Duration(cfg.Worker.CampaignCacheTTLSec)*time.Second, log)
	executor := effects.NewExecutor(coupons, users, plans, ledger, sqsClient, log)
	progress := progression.NewEvaluator(users, progressionRules, referrals, ledger, sqsClient, log)

	handlers := []consumer.Handler{
		consumer.NewTrackingHandler(analytics, log),
		consumer.NewQuestHandler(quests, users, log),
		consumer.NewStreakHandler(streaks, users, log),
		consumer.NewBadgeHandler(badges, streaks, users, log),
	}

	dispatcher := consumer.NewDispatcher(events, engine, executor, progress, handlers, log)
	c := consumer.NewConsumer(cfg, sqsClient, dispatcher, log)

	sweeper := consumer.NewSweeper(events, sqsClient, consumer.SweeperConfig{
		Interval:   time.Duration(cfg.Sweeper.IntervalSec) * time.Second,
		StuckAfter: time.Duration(cfg.Sweeper.StuckMinutes) * time.Minute,
		BatchSize:  cfg.Sweeper.BatchSize,
	}, log)

	// Health and metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := analytics.Ping(r.Context()); err != nil {
				log.Warn("Health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		mux.Handle("/metrics", promhttp.Handler())

		addr := ":" + cfg.Worker.HealthCheckPort
		log.Info("Health check server starting", zap.String("address", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go sweeper.Run(workerCtx)

	go func() {
		if err := c.Start(workerCtx); err != nil {
			log.Fatal("Consumer error", zap.Error(err))
		}
	}()

	log.Info("Worker running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker gracefully")
	cancel()
}
