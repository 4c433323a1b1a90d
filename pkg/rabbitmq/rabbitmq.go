package rabbitmq

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
)

// replyToQueue is RabbitMQ's pseudo-queue for direct reply-to RPC. Consuming
// from it (auto-ack, before the first publish) routes replies back on this
// channel with the correlation id we set on the request.
const replyToQueue = "amq.rabbitmq.reply-to"

// Client holds the RabbitMQ connection and channel, and routes RPC replies
// back to their callers by correlation id.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	mu      sync.Mutex
	pending map[string]chan amqp.Delivery
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient creates a new RabbitMQ client. It connects, opens a channel, and
// starts the reply consumer used by Request.
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

	c := &Client{
		conn:    conn,
		channel: ch,
		pending: make(map[string]chan amqp.Delivery),
	}

	// The direct reply-to consumer must be auto-ack and must exist before
	// the first request is published.
	replies, err := ch.Consume(
		replyToQueue, // queue
		"",           // consumer tag
		true,         // auto-ack (required for direct reply-to)
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to consume reply queue: %w", err)
	}

	go c.dispatchReplies(replies)

	log.Println("RabbitMQ client connected, reply consumer running.")
	return c, nil
}

// dispatchReplies hands each reply to the caller waiting on its correlation
// id. Replies with no waiter (caller already timed out) are dropped.
func (c *Client) dispatchReplies(replies <-chan amqp.Delivery) {
	for msg := range replies {
		c.mu.Lock()
		waiter, ok := c.pending[msg.CorrelationId]
		delete(c.pending, msg.CorrelationId)
		c.mu.Unlock()

		if !ok {
			log.Printf("Dropping reply with unknown correlation id %s", msg.CorrelationId)
			continue
		}
		waiter <- msg
	}
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
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Request publishes a JSON request to the given queue and waits for the
// single reply, bounded by ctx. Exactly one reply is expected per request;
// there are no stream semantics.
func (c *Client) Request(ctx context.Context, routingKey string, body []byte) ([]byte, error) {
	if c.channel == nil {
		return nil, fmt.Errorf("RabbitMQ channel is not available")
	}

	corrID := uuid.New().String()
	waiter := make(chan amqp.Delivery, 1)

	c.mu.Lock()
	c.pending[corrID] = waiter
	c.mu.Unlock()

	err := c.channel.Publish(
		"",         // exchange: default exchange
		routingKey, // routing key: the request queue name
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: corrID,
			ReplyTo:       replyToQueue,
			Body:          body,
			Timestamp:     time.Now(),
		})
	if err != nil {
		c.mu.Lock()
		delete(c.pending, corrID)
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to publish request to %s: %w", routingKey, err)
	}

	select {
	case reply := <-waiter:
		return reply.Body, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, corrID)
		c.mu.Unlock()
		return nil, fmt.Errorf("request to %s: %w", routingKey, ctx.Err())
	}
}

// Publish sends a JSON event to the given queue with no reply expected.
func (c *Client) Publish(routingKey string, body []byte) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	err := c.channel.Publish(
		"",         // exchange: default exchange
		routingKey, // routing key: the queue name
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Consume declares the named durable queue and processes its messages with
// the given handler. Messages are acked on success and nacked without
// requeue on handler error, so a malformed payload cannot loop forever.
func (c *Client) Consume(queueName string, messageHandler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := c.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack: manual acknowledgement
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer on %s: %w", queueName, err)
	}

	go func() {
		for msg := range msgs {
			if err := messageHandler(msg); err != nil {
				log.Printf("Error processing message %d on %s: %v", msg.DeliveryTag, queueName, err)
				if nackErr := msg.Nack(false, false); nackErr != nil {
					log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
			}
		}
	}()

	return nil
}
