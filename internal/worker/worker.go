// Package worker provides a generic worker that consumes messages from a queue.
package worker

import (
	"context"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handlerer is an interface for handling messages.
type Handlerer interface {
	HandleMessage(ctx context.Context, msg amqp.Delivery) error
}

// Consumer is the part of broker.Broker the worker needs.
type Consumer interface {
	Consume(queueName string) (<-chan amqp.Delivery, error)
}

// Worker is a generic worker that consumes messages from a queue.
type Worker struct {
	queueName string
	consumer  Consumer
	logger    *slog.Logger
}

func New(queueName string, consumer Consumer, logger *slog.Logger) *Worker {
	return &Worker{
		queueName: queueName,
		consumer:  consumer,
		logger:    logger,
	}
}

// Run consumes until ctx is cancelled or the delivery channel is closed.
// Messages are acked when the handler succeeds and nacked without requeue,
// so that they are dead-lettered, when it fails.
func (w *Worker) Run(ctx context.Context, handler Handlerer) error {
	msgs, err := w.consumer.Consume(w.queueName)
	if err != nil {
		return err
	}

	w.logger.Info("Waiting for messages.", "queue", w.queueName)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Shutting down worker...")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Info("Channel closed, shutting down.")
				return nil
			}

			if err := handler.HandleMessage(ctx, msg); err != nil {
				w.logger.Error("Error handling message", "error", err, "delivery_tag", msg.DeliveryTag)
				if err := msg.Nack(false, false); err != nil {
					w.logger.Error("Failed to nack message", "error", err)
				}
				continue
			}

			if err := msg.Ack(false); err != nil {
				w.logger.Error("Failed to ack message", "error", err)
			}
		}
	}
}
