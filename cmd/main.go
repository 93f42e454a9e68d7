package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RishiKendai/argus/internal/analysis"
	"github.com/RishiKendai/argus/internal/api"
	"github.com/RishiKendai/argus/internal/config"
	"github.com/RishiKendai/argus/internal/configs/env"
	"github.com/RishiKendai/argus/internal/events"
	"github.com/RishiKendai/argus/internal/infra/mongo"
	redisInfra "github.com/RishiKendai/argus/internal/infra/redis"
	"github.com/RishiKendai/argus/internal/intake"
	"github.com/RishiKendai/argus/internal/logger"
	"github.com/RishiKendai/argus/internal/metrics"
	"github.com/RishiKendai/argus/internal/plagiarism"
	"github.com/RishiKendai/argus/internal/repository"
	"github.com/RishiKendai/argus/internal/similarity"
	"github.com/RishiKendai/argus/internal/storage"
	"github.com/RishiKendai/argus/internal/stream"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("No .env file, using process environment")
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	logger.Init(cfg.LogLevel)
	log.Info().Msg("Starting argus server")

	metrics.InitPrometheus()
	metricsServer := startMetricsServer(cfg.MetricsPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal().Err(err).Msg("MongoDB connection failed")
	}
	// ctx is cancelled by then; the disconnect gets its own deadline.
	defer func() {
		closeCtx, release := context.WithTimeout(context.Background(), 5*time.Second)
		defer release()
		mongoClient.Close(closeCtx)
	}()

	redisClient, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	mongoRepo := repository.NewMongoRepository(mongoClient)
	submissionsRepo := repository.NewSubmissionsRepository(mongoRepo)
	feedbackRepo := repository.NewFeedbackRepository(mongoRepo)
	reportsRepo := repository.NewReportsRepository(mongoRepo)

	if err := submissionsRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Submission index build failed")
	}
	if err := reportsRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Report index build failed")
	}

	// Submission content lives on disk with an inline fallback in Mongo.
	contentStore := storage.NewContentStore(cfg.StorageDir, submissionsRepo)

	// No brokers configured means events are dropped.
	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaEventTopic)
	defer producer.Close()
	log.Info().Bool("enabled", producer.Enabled()).Msg("Event producer ready")

	workerPool := plagiarism.NewWorkerPool(ctx)
	defer workerPool.Close()

	statusStore := plagiarism.NewStatusStore(redisClient)

	scanner := plagiarism.NewScanner(
		plagiarism.Config{
			Threshold:  cfg.FlagThreshold,
			ScanBudget: cfg.ScanTimeout,
		},
		similarity.NewEngine(similarity.Weights{
			Token:   cfg.TokenWeight,
			Trigram: cfg.TrigramWeight,
			Line:    cfg.LineWeight,
		}),
		contentStore,
		submissionsRepo,
		reportsRepo,
		workerPool,
		statusStore,
		producer,
	)

	// Remote analysis is optional; heuristic rules always back it up.
	var remote analysis.Analyzer
	if cfg.AIConfigured() {
		remote = analysis.NewRemoteAnalyzer(cfg.AIAPIURL, cfg.AIAPIKey, cfg.AIModel)
		log.Info().Str("model", cfg.AIModel).Msg("Remote analyzer enabled")
	}
	analysisSvc := analysis.NewService(remote, analysis.NewHeuristicAnalyzer())

	// One pipeline serves both HTTP uploads and the stream consumer.
	intakeSvc := intake.NewService(
		submissionsRepo,
		feedbackRepo,
		contentStore,
		analysisSvc,
		scanner,
		producer,
	)

	consumer := stream.NewConsumer(
		redisClient.Client,
		cfg.RedisStreamKey,
		cfg.RedisConsumerGroup,
		consumerName(),
		intakeSvc,
		stream.NewRetryHandler(redisClient.Client, cfg.RedisDeadLetterKey),
		cfg.StreamRetentionDuration,
	)
	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Stream consumer stopped")
		}
	}()

	handler := api.NewHandler(
		cfg,
		intakeSvc,
		submissionsRepo,
		feedbackRepo,
		reportsRepo,
		statusStore,
		mongoClient.Ping,
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	)

	srv := api.NewServer(api.SetupRoutes(cfg, handler), cfg.ServerPort)
	srv.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	cancel()

	if err := srv.Shutdown(30 * time.Second); err != nil {
		log.Error().Err(err).Msg("HTTP server drain failed")
	}

	drainCtx, release := context.WithTimeout(context.Background(), 5*time.Second)
	defer release()
	if err := metricsServer.Shutdown(drainCtx); err != nil {
		log.Error().Err(err).Msg("Metrics server drain failed")
	}

	log.Info().Msg("Shutdown complete")
}

// startMetricsServer exposes /metrics on its own port, away from the
// authenticated API.
func startMetricsServer(port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", port).Msg("Metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Metrics server failed")
		}
	}()
	return srv
}

// consumerName is unique per process so replicas can share the consumer
// group without stealing each other's pending entries.
func consumerName() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("consumer-%s-%d-%s", hostname, os.Getpid(), uuid.New().String()[:8])
}
