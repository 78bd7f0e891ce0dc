package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/moments/internal/api"
	"github.com/your-org/moments/internal/api/ws"
	"github.com/your-org/moments/internal/config"
	"github.com/your-org/moments/internal/ingest"
	"github.com/your-org/moments/internal/models"
	"github.com/your-org/moments/internal/observability"
	"github.com/your-org/moments/internal/pipeline"
	"github.com/your-org/moments/internal/queue"
	"github.com/your-org/moments/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting moments API service",
		"port", cfg.Server.Port,
		"database", cfg.Database.Driver,
		"nats", cfg.NATS.Enabled(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Record store
	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("open record store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(ctx); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run(ctx)

	var (
		dispatcher ingest.Dispatcher
		producer   *queue.Producer
		pool       *queue.WorkerPool
	)

	if cfg.NATS.Enabled() {
		producer, err = queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			slog.Error("connect to nats", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		if err := producer.EnsureStreams(ctx); err != nil {
			slog.Warn("ensure nats streams", "error", err)
		}
		dispatcher = producer

		// Push status changes from the workers to WebSocket clients
		consumer, err := queue.NewConsumer(cfg.NATS.URL)
		if err != nil {
			slog.Error("create event consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()

		err = consumer.ConsumeMoments(ctx, "api-moments", func(ctx context.Context, ev models.MomentEvent) error {
			return hub.PublishMoment(ctx, ev)
		})
		if err != nil {
			slog.Warn("start event consumer", "error", err)
		}
	} else {
		// Single-binary mode: the pipeline runs here and the hub hears it directly
		orch, err := pipeline.FromConfig(ctx, cfg, store, minioStore, hub)
		if err != nil {
			slog.Error("init pipeline", "error", err)
			os.Exit(1)
		}

		pool = queue.NewWorkerPool(cfg.Pipeline.WorkerCount, cfg.Pipeline.QueueSize)
		pool.Start(ctx)
		dispatcher = queue.NewLocalDispatcher(pool, orch.Run)
		slog.Info("pipeline running in-process", "workers", cfg.Pipeline.WorkerCount)
	}

	svc := ingest.NewService(store, minioStore, dispatcher)

	svc.SetMaxPixels(cfg.Server.MaxImageMegapixels * 1_000_000)

	// In-process runs die with the process, and uploads that found the pool
	// full are left pending; sweep both. Workers sweep in NATS mode.
	if pool != nil {
		go func() {
			sweep := time.NewTicker(cfg.Pipeline.StaleAfter)
			defer sweep.Stop()
			for {
				if _, err := svc.Redispatch(ctx, cfg.Pipeline.StaleAfter); err != nil {
					slog.Warn("redispatch stale moments", "error", err)
				}
				select {
				case <-ctx.Done():
					return
				case <-sweep.C:
				}
			}
		}()
	}

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadMB:    cfg.Server.MaxUploadMB,
		Store:          store,
		Objects:        minioStore,
		Producer:       producer,
		Service:        svc,
		Hub:            hub,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	cancel()
	if pool != nil {
		// queued runs stay pending for the next start
		pool.Close()
	}

	slog.Info("API server stopped")
}
