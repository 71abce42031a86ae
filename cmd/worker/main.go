package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/config"
	"github.com/noah-isme/backend-pos/internal/lock"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/receipt"
	"github.com/noah-isme/backend-pos/internal/repo"
	"github.com/noah-isme/backend-pos/internal/resilience"
	"github.com/noah-isme/backend-pos/internal/sales"
	"github.com/noah-isme/backend-pos/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := mustInitStore(ctx, cfg, logger)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("close firestore")
		}
	}()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	recorder := &sales.Recorder{Store: &repo.Sales{Client: store.FS}}
	settingsSvc := &settings.Service{
		Repo: &repo.Settings{Client: store.FS},
		Defaults: settings.Store{
			StoreName:      cfg.StoreName,
			CurrencyCode:   cfg.CurrencyCode,
			CurrencySymbol: cfg.CurrencySymbol,
			TaxPercent:     cfg.TaxPercent,
			PrinterEnabled: cfg.PrinterEnabled,
			PrinterURL:     cfg.PrinterURL,
		},
	}

	printerURL := cfg.PrinterURL
	if printerURL == "" {
		if st, err := settingsSvc.Get(ctx); err == nil {
			printerURL = st.PrinterURL
		}
	}

	printer := &receipt.Printer{
		Sales:    recorder,
		Settings: settingsSvc,
		Renderer: receipt.Renderer{},
		Sink: &receipt.HTTPSink{
			URL: printerURL,
			Client: &resilience.HTTPClient{
				Client:      &http.Client{Timeout: cfg.PrintTimeout},
				Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second),
				BaseBackoff: cfg.PrintRetryBase,
				MaxAttempts: cfg.PrintRetryAttempts,
				Jitter:      0.2,
				Timeout:     cfg.PrintTimeout,
			},
		},
		Locker:  lock.Locker{R: redisClient, RetryBackoff: 50 * time.Millisecond},
		LockTTL: cfg.PrintLockTTL,
		Logger:  logger,
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisOpts.Addr,
			Username: redisOpts.Username,
			Password: redisOpts.Password,
			DB:       redisOpts.DB,
		},
		asynq.Config{
			Concurrency: envInt("WORKER_CONCURRENCY", 2),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(receipt.TypePrint, printer.HandlePrint)

	logger.Info().Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}

	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func mustInitStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *repo.Client {
	store, err := repo.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect firestore")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		logger.Fatal().Err(err).Msg("ping firestore")
	}
	return store
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}
