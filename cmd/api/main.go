package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/config"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/dedup"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/domain"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/gateway"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/handler"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/logging"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/message"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/metrics"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/middleware"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/repository"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/service"
)

type sentOrderStore interface {
	Mark(ctx context.Context, orderID string) (bool, error)
	Forget(ctx context.Context, orderID string) error
}

type messageSender interface {
	Send(ctx context.Context, phone, message string) domain.Dispatch
	Provider() string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init(logging.OptionsFor(cfg.ServiceName, cfg.ServiceVersion, cfg.LogLevel, cfg.AppEnv))
	metrics.Register(prometheus.DefaultRegisterer)

	sender, err := newSender(cfg)
	if err != nil {
		slog.Error("failed to build gateway client", "error", err)
		os.Exit(1)
	}
	if cfg.GatewayBaseURL() == "" || cfg.GatewayCredential() == "" {
		slog.Warn("gateway not configured, webhooks will report whatsapp_failed",
			"provider", cfg.GatewayProvider,
		)
	}

	store, checks, closeStore := newDedupStore(cfg)
	defer closeStore()

	recovery := service.NewCartRecoveryService(sender, store, message.NewRenderer(cfg.MessageTemplate), cfg.SenderName)
	webhookHandler := handler.NewWebhookHandler(recovery)
	healthHandler := handler.NewHealthHandler(cfg.ServiceName, cfg.ServiceVersion, checks)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/cartpanda", webhookHandler.ReceiveCartPanda)
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /ready", healthHandler.Readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	root := middleware.RequestID(middleware.AccessLog(middleware.RecoverPanics(middleware.Metrics(mux))))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout(cfg),
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started",
			"addr", addr,
			"gateway_mode", cfg.GatewayMode,
			"dedup_enabled", cfg.DedupEnabled,
			"dedup_backend", cfg.DedupBackend,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func newSender(cfg *config.Config) (messageSender, error) {
	gw := gateway.Config{
		Provider: cfg.GatewayProvider,
		BaseURL:  cfg.GatewayBaseURL(),
		Token:    cfg.GatewayCredential(),
		Timeout:  cfg.GatewayTimeout,
	}

	if cfg.GatewayMode == config.GatewayModeFixed {
		return gateway.NewFixedClient(gw, gateway.Candidate{
			Auth: gateway.Auth{Header: cfg.GatewayAuthHeader, Scheme: cfg.GatewayAuthScheme},
			Body: gateway.Body{Phone: cfg.GatewayPhoneField, Message: cfg.GatewayMessageField},
		}), nil
	}

	plan := gateway.DefaultPlan()
	if cfg.GatewayProbeFile != "" {
		p, err := gateway.LoadPlan(cfg.GatewayProbeFile)
		if err != nil {
			return nil, fmt.Errorf("newSender: %w", err)
		}
		plan = p
	}
	slog.Info("gateway probing enabled", "candidates", len(plan.Candidates()))
	return gateway.NewProbingClient(gw, plan), nil
}

// newDedupStore builds the configured store. A backend that cannot be
// reached is replaced by the in-memory store so the service still starts.
func newDedupStore(cfg *config.Config) (sentOrderStore, map[string]handler.Pinger, func()) {
	noop := func() {}
	if !cfg.DedupEnabled {
		return nil, nil, noop
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.DedupBackend {
	case config.DedupBackendPostgres:
		pool, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
			MaxOpenConns:     cfg.DBMaxOpenConns,
			MaxIdleConns:     cfg.DBMaxIdleConns,
			ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
			ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		})
		if err != nil {
			slog.Error("postgres dedup store unavailable, using memory", "error", err)
			break
		}
		repo := repository.NewSentOrderRepository(repository.NewDB(pool), cfg.DedupMaxSize)
		return repo, map[string]handler.Pinger{"dedup": repo}, func() { pool.Close() }

	case config.DedupBackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL, using memory dedup store", "error", err)
			break
		}
		client := redis.NewClient(opts)
		store := dedup.NewRedisStore(client, cfg.RedisDedupKey, cfg.DedupMaxSize)
		if err := store.Ping(ctx); err != nil {
			slog.Error("redis dedup store unavailable, using memory", "error", err)
			client.Close()
			break
		}
		return store, map[string]handler.Pinger{"dedup": store}, func() { client.Close() }
	}

	return dedup.NewMemoryStore(cfg.DedupMaxSize), nil, noop
}

func writeTimeout(cfg *config.Config) time.Duration {
	if cfg.GatewayMode == config.GatewayModeProbe {
		return 5 * time.Minute
	}
	return cfg.GatewayTimeout + 15*time.Second
}
