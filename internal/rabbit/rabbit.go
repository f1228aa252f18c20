// Package rabbit wraps the AMQP connection and the durable work queues
// that link the API to the extraction worker.
package rabbit

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// NotesQueue carries freshly created notes to the extraction
	// worker.
	NotesQueue = "notes_queue"

	// ActionsQueue carries processing results to downstream
	// consumers.
	ActionsQueue = "actions_queue"

	// queueMessageTTL expires stale work after a day, in ms.
	queueMessageTTL = 86400000
)

// Client wraps one AMQP connection and channel. A Client is not safe
// for concurrent publishing from multiple goroutines.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

// Dial connects to the broker and declares the work queues.
func Dial(url string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	c := &Client{conn: conn, channel: channel, logger: logger}
	for _, queue := range []string{NotesQueue, ActionsQueue} {
		if err := c.declare(queue); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) declare(queue string) error {
	_, err := c.channel.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		amqp.Table{"x-message-ttl": int32(queueMessageTTL)},
	)
	if err != nil {
		return fmt.Errorf("declaring queue %s: %w", queue, err)
	}
	return nil
}

// Publish sends a persistent JSON message to a queue.
func (c *Client) Publish(ctx context.Context, queue string, body []byte) error {
	err := c.channel.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", queue, err)
	}
	c.logger.Debug("published message", "queue", queue, "bytes", len(body))
	return nil
}

// Consume opens a manually acknowledged delivery stream for a queue.
// Prefetch is one so a crashed worker redelivers at most one message.
func (c *Client) Consume(queue string) (<-chan amqp.Delivery, error) {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("setting qos: %w", err)
	}
	deliveries, err := c.channel.Consume(
		queue,
		"",    // consumer tag
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consuming from %s: %w", queue, err)
	}
	return deliveries, nil
}

// Close tears down the channel and connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
