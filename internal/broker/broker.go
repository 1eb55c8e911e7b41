// Package broker provides a wrapper around the amqp client.
package broker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Broker is a wrapper around the amqp client.
type Broker struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
}

// New dials url and opens a channel on the connection.
func New(url string) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	return &Broker{
		conn:    conn,
		Channel: ch,
	}, nil
}

// Close closes the channel and the underlying connection.
func (b *Broker) Close() error {
	if err := b.Channel.Close(); err != nil {
		b.conn.Close()
		return err
	}
	return b.conn.Close()
}

// Ping reports an error when the connection or the channel has been closed.
func (b *Broker) Ping(_ context.Context) error {
	if b.conn.IsClosed() || b.Channel.IsClosed() {
		return amqp.ErrClosed
	}
	return nil
}

// Setup declares an exchange, a queue, and binds the queue to the exchange.
func (b *Broker) Setup(
	exchangeName,
	exchangeType,
	queueName,
	routingKey string,
	queueArgs amqp.Table,
) error {
	err := b.Channel.ExchangeDeclare(
		exchangeName, // name
		exchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare an exchange: %w", err)
	}

	q, err := b.Channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		queueArgs, // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare a queue: %w", err)
	}

	err = b.Channel.QueueBind(
		q.Name,       // queue name
		routingKey,   // routing key
		exchangeName, // exchange
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to bind a queue: %w", err)
	}

	return nil
}

// SetupSubmissions declares the submission queue and its retry queue. A
// message nacked on the submission queue is dead-lettered to the retry queue,
// waits RetryTTLMilliseconds there, and is dead-lettered back.
func (b *Broker) SetupSubmissions() error {
	err := b.Setup(
		SubmissionEventsExchangeName,
		SubmissionEventsExchangeType,
		SubmissionValidatedQueue,
		SubmissionValidatedRoutingKey,
		amqp.Table{
			"x-dead-letter-exchange":    SubmissionEventsExchangeName,
			"x-dead-letter-routing-key": SubmissionRetryRoutingKey,
		},
	)
	if err != nil {
		return err
	}

	return b.Setup(
		SubmissionEventsExchangeName,
		SubmissionEventsExchangeType,
		SubmissionRetryQueue,
		SubmissionRetryRoutingKey,
		amqp.Table{
			"x-message-ttl":             RetryTTLMilliseconds,
			"x-dead-letter-exchange":    SubmissionEventsExchangeName,
			"x-dead-letter-routing-key": SubmissionValidatedRoutingKey,
		},
	)
}

// Publish publishes a message to an exchange.
func (b *Broker) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	return b.Channel.PublishWithContext(ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume consumes messages from a queue.
func (b *Broker) Consume(queueName string) (<-chan amqp.Delivery, error) {
	d, err := b.Channel.Consume(
		queueName, // queue
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	return d, nil
}

// RetryCount gets the number of times a message went through the retry
// queue from the 'x-death' header.
func RetryCount(headers amqp.Table) int64 {
	if headers == nil {
		return 0
	}

	xDeath, ok := headers["x-death"]
	if !ok {
		return 0
	}

	xDeathSlice, ok := xDeath.([]any)
	if !ok {
		return 0
	}

	for _, h := range xDeathSlice {
		table, ok := h.(amqp.Table)
		if !ok {
			continue
		}
		if table["queue"] != SubmissionValidatedQueue {
			continue
		}

		count, ok := table["count"].(int64)
		if !ok {
			return 0
		}
		return count
	}

	return 0
}
