// Package config reads the api and worker settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultRateLimit      = 10
	defaultRateBurst      = 20
	defaultPublishTimeout = 5 * time.Second
	defaultSinkTimeout    = 10 * time.Second
	defaultDedupTTL       = 24 * time.Hour
)

var validate = validator.New()

// RabbitMQ holds the broker connection settings.
type RabbitMQ struct {
	Host string `validate:"required"`
	Port int    `validate:"min=1,max=65535"`
	User string `validate:"required"`
	Pass string `validate:"required"`
}

// URL returns the amqp connection url.
func (r RabbitMQ) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d", r.User, r.Pass, r.Host, r.Port)
}

// Redis holds the cache connection settings.
type Redis struct {
	Host string `validate:"required"`
	Port int    `validate:"min=1,max=65535"`
}

func (r Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// API configures cmd/api. RabbitMQ is nil when RABBITMQ_HOST is unset, in
// which case validated submissions are not forwarded.
type API struct {
	Port           int           `validate:"min=1,max=65535"`
	AuthToken      string        `validate:"required"`
	RateLimit      float64       `validate:"gt=0"`
	RateBurst      int           `validate:"min=1"`
	PublishTimeout time.Duration `validate:"gt=0"`
	LogLevel       string        `validate:"omitempty,oneof=debug info warn warning error"`
	RabbitMQ       *RabbitMQ     `validate:"omitempty"`
}

// Worker configures cmd/worker.
type Worker struct {
	RabbitMQ    RabbitMQ
	Redis       Redis
	SinkURL     string        `validate:"required,url"`
	SinkTimeout time.Duration `validate:"gt=0"`
	DedupTTL    time.Duration `validate:"gt=0"`
	MetricsPort int           `validate:"omitempty,min=1,max=65535"`
	LogLevel    string        `validate:"omitempty,oneof=debug info warn warning error"`
}

func LoadAPI() (*API, error) {
	env, err := requireEnv("API_PORT", "AUTH_TOKEN")
	if err != nil {
		return nil, err
	}

	cfg := &API{
		RateLimit:      defaultRateLimit,
		RateBurst:      defaultRateBurst,
		PublishTimeout: defaultPublishTimeout,
		AuthToken:      strings.TrimSpace(env["AUTH_TOKEN"]),
		LogLevel:       os.Getenv("LOG_LEVEL"),
	}

	if cfg.Port, err = parseInt("API_PORT", env["API_PORT"]); err != nil {
		return nil, err
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if cfg.RateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("RATE_LIMIT must be a number: %w", err)
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if cfg.RateBurst, err = parseInt("RATE_BURST", v); err != nil {
			return nil, err
		}
	}
	if v := os.Getenv("PUBLISH_TIMEOUT"); v != "" {
		if cfg.PublishTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("PUBLISH_TIMEOUT must be a duration: %w", err)
		}
	}

	if os.Getenv("RABBITMQ_HOST") != "" {
		rmq, err := loadRabbitMQ()
		if err != nil {
			return nil, err
		}
		cfg.RabbitMQ = rmq
	}

	if err := validateStruct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadWorker() (*Worker, error) {
	rmq, err := loadRabbitMQ()
	if err != nil {
		return nil, err
	}

	env, err := requireEnv("REDIS_HOST", "REDIS_PORT", "SINK_URL")
	if err != nil {
		return nil, err
	}

	cfg := &Worker{
		RabbitMQ:    *rmq,
		Redis:       Redis{Host: env["REDIS_HOST"]},
		SinkURL:     env["SINK_URL"],
		SinkTimeout: defaultSinkTimeout,
		DedupTTL:    defaultDedupTTL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	if cfg.Redis.Port, err = parseInt("REDIS_PORT", env["REDIS_PORT"]); err != nil {
		return nil, err
	}
	if v := os.Getenv("SINK_TIMEOUT"); v != "" {
		if cfg.SinkTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("SINK_TIMEOUT must be a duration: %w", err)
		}
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		if cfg.MetricsPort, err = parseInt("METRICS_PORT", v); err != nil {
			return nil, err
		}
	}
	if v := os.Getenv("DEDUP_TTL"); v != "" {
		if cfg.DedupTTL, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("DEDUP_TTL must be a duration: %w", err)
		}
	}

	if err := validateStruct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRabbitMQ() (*RabbitMQ, error) {
	env, err := requireEnv("RABBITMQ_HOST", "RABBITMQ_PORT", "RABBITMQ_USER_NAME", "RABBITMQ_USER_PASS")
	if err != nil {
		return nil, err
	}

	port, err := parseInt("RABBITMQ_PORT", env["RABBITMQ_PORT"])
	if err != nil {
		return nil, err
	}

	return &RabbitMQ{
		Host: env["RABBITMQ_HOST"],
		Port: port,
		User: env["RABBITMQ_USER_NAME"],
		Pass: env["RABBITMQ_USER_PASS"],
	}, nil
}

// requireEnv reads every key and fails on the first one that is empty.
func requireEnv(keys ...string) (map[string]string, error) {
	env := make(map[string]string, len(keys))
	for _, key := range keys {
		value := os.Getenv(key)
		if value == "" {
			return nil, fmt.Errorf("%s environment variable not set", key)
		}
		env[key] = value
	}
	return env, nil
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func validateStruct(cfg any) error {
	err := validate.Struct(cfg)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
	}
	return err
}
