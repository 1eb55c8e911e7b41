package main

import (
	"context"
	"flag"
	"html/template"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/yyvfuruta/intake/internal/broker"
	"github.com/yyvfuruta/intake/internal/config"
	"github.com/yyvfuruta/intake/internal/logger"
	"golang.org/x/time/rate"
)

// publisher is satisfied by *broker.Broker.
type publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
	Ping(ctx context.Context) error
}

type application struct {
	config    *config.API
	logger    *slog.Logger
	publisher publisher // nil when forwarding is disabled
	clock     func() time.Time
	limiter   *rate.Limiter
	templates *template.Template
	wg        sync.WaitGroup
}

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

	cfg, err := config.LoadAPI()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	templates, err := parseTemplates()
	if err != nil {
		logger.Error("Failed to parse templates", "error", err)
		os.Exit(1)
	}

	app := &application{
		config:    cfg,
		logger:    logger,
		clock:     time.Now,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		templates: templates,
	}

	if cfg.RabbitMQ != nil {
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
		app.publisher = b
	} else {
		logger.Warn("RABBITMQ_HOST not set, validated submissions will not be forwarded")
	}

	if err := app.serve(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
