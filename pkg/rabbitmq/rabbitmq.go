package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// MailQueue receives password reset mail jobs.
const MailQueue = "mail_queue"

// StorageOrderQueue receives storage order lifecycle events.
const StorageOrderQueue = "storage_order_queue"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares the queues
// this service publishes to.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() // Close connection if channel creation fails
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	for _, queue := range []string{MailQueue, StorageOrderQueue} {
		_, err = ch.QueueDeclare(
			queue, // name
			true,  // durable (persists messages across broker restarts)
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare %s: %w", queue, err)
		}
	}

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends a persistent JSON message to a queue via the default
// exchange.
func (c *Client) Publish(queue string, body []byte) error {
	err := c.channel.Publish(
		"",    // exchange (default)
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

// Consume starts delivering messages from a queue to the handler. A handler
// error leaves the message unacknowledged so the broker redelivers it.
func (c *Client) Consume(queue string, handler func(msg amqp.Delivery) error) error {
	msgs, err := c.channel.Consume(
		queue, // queue
		"",    // consumer tag (auto-generated)
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %w", queue, err)
	}

	for msg := range msgs {
		if err := handler(msg); err != nil {
			msg.Nack(false, true)
			continue
		}
		msg.Ack(false)
	}
	return nil
}
