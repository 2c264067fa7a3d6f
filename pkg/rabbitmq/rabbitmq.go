package rabbitmq

import (
	"fmt"
	"log"
	"time"

	amqp "github.com/streadway/amqp"
)

// ListingQueue receives one message per settled listing load.
const ListingQueue = "storefront_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
	// Queue defaults to ListingQueue.
	Queue string
}

// NewClient connects to RabbitMQ, opens a channel and declares the queue.
func NewClient(cfg Config) (*Client, error) {
	queue := cfg.Queue
	if queue == "" {
		queue = ListingQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareQueue(ch, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Printf("RabbitMQ client connected and %s declared.", queue)

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   queue,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare %s: %w", name, err)
	}
	return q, nil
}

// Queue returns the declared queue name.
func (c *Client) Queue() string { return c.queue }

// Close closes the RabbitMQ channel and connection.
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

// Publish sends a persistent JSON message. An empty exchange routes directly
// to the queue named by routingKey.
func (c *Client) Publish(exchange, routingKey string, body []byte) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	err := c.channel.Publish(
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
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

// ConsumeListingEvents delivers messages from the queue to handler in a
// background goroutine until the channel closes. Messages are acked when
// handler returns nil and requeued otherwise.
func (c *Client) ConsumeListingEvents(handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for listing events on %s. To exit press CTRL+C", c.queue)

	go func() {
		for msg := range msgs {
			Dispatch(msg, handler)
		}
	}()

	return nil
}

// Dispatch runs handler for one delivery and settles it: ack on success,
// nack with requeue on failure. A redelivered message that fails again is
// dropped so a poison message cannot loop forever.
func Dispatch(msg amqp.Delivery, handler func(msg amqp.Delivery) error) {
	if err := handler(msg); err != nil {
		log.Printf("Error processing message %d: %v", msg.DeliveryTag, err)
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
	}
}
