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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yyvfuruta/intake/internal/broker"
	"github.com/yyvfuruta/intake/internal/cache"
	"github.com/yyvfuruta/intake/internal/config"
	"github.com/yyvfuruta/intake/internal/logger"
	"github.com/yyvfuruta/intake/internal/sink"
	"github.com/yyvfuruta/intake/internal/worker"
)

func main() {
	var dev bool
	flag.BoolVar(&dev, "dev", false, "Enable godotenv")
	flag.Parse()

	logger := logger.New()

	if dev {
		if err := godotenv.Load(); err != nil {
			logger.Error("Error loading .env file", "error", err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadWorker()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	b, err := broker.New(cfg.RabbitMQ.URL())
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	if err := b.SetupSubmissions(); err != nil {
		logger.Error("Failed to set up queues", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cache.New(cfg.Redis.Addr())
	defer c.Close()

	if err := c.Ping(ctx); err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	h := &handler{
		sink:      sink.NewHTTPSink(cfg.SinkURL, &http.Client{Timeout: cfg.SinkTimeout}),
		delivered: c,
		dedupTTL:  cfg.DedupTTL,
		logger:    logger,
	}

	if cfg.MetricsPort != 0 {
		go serveMetrics(cfg.MetricsPort, logger)
	}

	w := worker.New(broker.SubmissionValidatedQueue, b, logger)
	if err := w.Run(ctx, h); err != nil {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete.")
}

func serveMetrics(port int, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Metrics server stopped", "error", err)
	}
}
