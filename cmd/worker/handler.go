package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/yyvfuruta/intake/internal/broker"
	"github.com/yyvfuruta/intake/internal/metrics"
	"github.com/yyvfuruta/intake/internal/models"
)

const maxRetries = 3

type forwarder interface {
	Forward(ctx context.Context, ev *models.SubmissionEvent) error
}

type deliveryTracker interface {
	Delivered(ctx context.Context, id string) (bool, error)
	MarkDelivered(ctx context.Context, id string, ttl time.Duration) error
}

type handler struct {
	sink      forwarder
	delivered deliveryTracker
	dedupTTL  time.Duration
	logger    *slog.Logger
}

func (h *handler) HandleMessage(ctx context.Context, msg amqp.Delivery) error {
	var ev models.SubmissionEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		// A body that cannot be decoded will never succeed; drop it.
		h.logger.Error("Error decoding message", "error", err)
		return nil
	}

	count := broker.RetryCount(msg.Headers)
	if count >= maxRetries {
		h.logger.Error("Submission exceeded maximum retries allowed", "submission_id", ev.ID, "retry_count", count)
		metrics.ForwardsTotal.WithLabelValues("sink", "dropped").Inc()
		// Do not send NACK again:
		return nil
	}

	id := ev.ID.String()

	seen, err := h.delivered.Delivered(ctx, id)
	if err != nil {
		return err
	}
	if seen {
		h.logger.Info("Submission already forwarded", "submission_id", id)
		metrics.ForwardsTotal.WithLabelValues("sink", "skipped").Inc()
		return nil
	}

	err = h.sink.Forward(ctx, &ev)
	metrics.ObserveForward("sink", err)
	if err != nil {
		h.logger.Error("Failed to forward submission", "submission_id", id, "retry_count", count, "error", err)
		return err
	}
	h.logger.Info("Submission forwarded", "submission_id", id)

	if err := h.delivered.MarkDelivered(ctx, id, h.dedupTTL); err != nil {
		// The sink already has it; a redelivery would only duplicate it.
		h.logger.Warn("Failed to mark submission as forwarded", "submission_id", id, "error", err)
	}
	return nil
}
