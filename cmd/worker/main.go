package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

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

	slog.Info("starting moments pipeline worker",
		"workers", cfg.Pipeline.WorkerCount,
		"cpu_cores", runtime.NumCPU(),
	)

	if !cfg.NATS.Enabled() {
		slog.Error("worker requires nats.url; without it the API runs the pipeline itself")
		os.Exit(1)
	}

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

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(ctx); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	// Initialize enrichment pipeline
	orch, err := pipeline.FromConfig(ctx, cfg, store, minioStore, producer)
	if err != nil {
		slog.Error("init pipeline", "error", err)
		os.Exit(1)
	}

	slog.Info("pipeline initialized")

	// Create NATS consumer
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	// Start consuming pipeline tasks
	err = consumer.ConsumeTasks(ctx, "pipeline-workers", func(ctx context.Context, task models.PipelineTask) error {
		if err := orch.Run(ctx, task); err != nil {
			return fmt.Errorf("run pipeline %s: %w", task.MomentID, err)
		}
		return nil
	}, cfg.Pipeline.WorkerCount)
	if err != nil {
		slog.Error("start task consumer", "error", err)
		os.Exit(1)
	}

	// Recover records whose task was lost before a previous crash
	svc := ingest.NewService(store, minioStore, producer)
	svc.SetMaxPixels(cfg.Server.MaxImageMegapixels * 1_000_000)
	if _, err := svc.Redispatch(ctx, cfg.Pipeline.StaleAfter); err != nil {
		slog.Warn("redispatch stale moments", "error", err)
	}

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		slog.Info("worker metrics listening", "addr", ":8082")
		if err := http.ListenAndServe(":8082", mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	// Periodically report queue depth and sweep stale records
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		sweep := time.NewTicker(cfg.Pipeline.StaleAfter)
		defer sweep.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				depth, err := producer.QueueDepth(ctx)
				if err == nil {
					observability.QueueDepth.Set(float64(depth))
				}
			case <-sweep.C:
				if _, err := svc.Redispatch(ctx, cfg.Pipeline.StaleAfter); err != nil {
					slog.Warn("redispatch stale moments", "error", err)
				}
			}
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	slog.Info("worker stopped")
}
