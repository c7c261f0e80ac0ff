package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finaudit/internal/audit/analyzer"
	"finaudit/internal/audit/gate"
	"finaudit/internal/audit/handler"
	auditmetrics "finaudit/internal/audit/metrics"
	"finaudit/internal/audit/pipeline"
	"finaudit/internal/audit/ports"
	"finaudit/internal/audit/report"
	"finaudit/internal/audit/rules"
	"finaudit/internal/audit/service"
	"finaudit/internal/audit/store/memory"
	"finaudit/internal/audit/store/postgres"
	"finaudit/internal/llm"
	"finaudit/internal/platform/config"
	"finaudit/internal/platform/httpserver"
	"finaudit/internal/platform/kafka"
	"finaudit/internal/platform/logger"
	"finaudit/internal/platform/metrics"
	"finaudit/internal/platform/middleware"
	"finaudit/internal/platform/redis"
)

// main wires dependencies and owns the process lifecycle. Every optional
// backend (Postgres, Redis, Kafka, live LLM) degrades to a local substitute
// when unconfigured, so a bare `go run ./cmd/server` serves audits.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, pool, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	cache, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
	}

	producer, err := kafka.New(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		log.Error("kafka setup failed", "error", err)
		os.Exit(1)
	}
	if producer != nil {
		defer producer.Close()
	}

	// NewHTTPClient returns a typed nil when no backend is configured; keep
	// the interface nil in that case so stages take their fallback paths.
	var chat llm.Client
	if client := llm.NewHTTPClient(cfg.LLM); client != nil {
		chat = client
		log.Info("live backend configured", "model", cfg.LLM.Model)
	} else {
		log.Info("no live backend configured, running on fallbacks")
	}

	providerOpts := []rules.Option{rules.WithLogger(log)}
	if cache != nil {
		providerOpts = append(providerOpts, rules.WithCache(cache, 0))
	}

	pipe := pipeline.New(
		gate.New(chat, gate.WithLogger(log)),
		rules.NewProvider(chat, providerOpts...),
		analyzer.New(chat, analyzer.WithLogger(log)),
		report.NewSynthesizer(chat, report.NewRenderer(cfg.ReportsDir), report.WithLogger(log)),
		pipeline.WithLogger(log),
		pipeline.WithMetrics(auditmetrics.New()),
	)

	svcOpts := []service.Option{
		service.WithLogger(log),
		service.WithMaxDocumentBytes(cfg.MaxDocumentBytes),
	}
	if publisher := service.NewKafkaPublisher(producer); publisher != nil {
		svcOpts = append(svcOpts, service.WithPublisher(publisher))
	}
	svc := service.NewService(pipe, store, svcOpts...)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(metrics.NewHTTP().Middleware)
	router.Use(middleware.Requester(cfg.JWTSigningKey, log))
	handler.New(svc, cfg.ReportsDir, log).Register(router)
	router.Get("/healthz", healthz(pool, cache))
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// newStore selects the audit store: PostgreSQL when DATABASE_URL is set,
// in-memory otherwise. The pool is returned so main can close it.
func newStore(ctx context.Context, cfg config.Config, log *slog.Logger) (ports.Store, *pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("using in-memory audit store")
		return memory.NewStore(), nil, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	store := postgres.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Info("using postgres audit store")
	return store, pool, nil
}

func healthz(pool *pgxpool.Pool, cache *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if cache != nil {
			if err := cache.Health(ctx); err != nil {
				http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
