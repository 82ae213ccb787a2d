package queue

import (
	"fmt"
	"time"

	"taskflow/pkg/config"
	"taskflow/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DomainEventQueueName = "notification_events"
	DomainEventExchange  = "notifications"
	DomainEventKey       = "domain_event"
)

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		DomainEventExchange, // name
		"direct",            // type
		true,                // durable
		false,               // auto-deleted
		false,               // internal
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		DomainEventQueueName, // name
		true,                 // durable
		false,                // delete when unused
		false,                // exclusive
		false,                // no-wait
		nil,                  // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		DomainEventQueueName, // queue name
		DomainEventKey,       // routing key
		DomainEventExchange,  // exchange
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishDomainEvent publishes a serialized domain event for the notification consumer.
func (c *Client) PublishDomainEvent(body []byte) error {
	err := c.channel.Publish(
		DomainEventExchange, // exchange
		DomainEventKey,      // routing key
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish domain event to exchange=%s, routing_key=%s: %v", DomainEventExchange, DomainEventKey, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// ConsumeDomainEvents delivers each queued event body to handler. A handler error
// nacks the message back onto the queue; a nil return acknowledges it, so handlers
// must swallow poison messages themselves.
func (c *Client) ConsumeDomainEvents(handler func(body []byte) error) error {
	msgs, err := c.channel.Consume(
		DomainEventQueueName, // queue
		"",                   // consumer
		false,                // auto-ack (we manually ack after processing)
		false,                // exclusive
		false,                // no-local
		false,                // no-wait
		nil,                  // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from queue: %s", DomainEventQueueName)

	go func() {
		for msg := range msgs {
			if err := handler(msg.Body); err != nil {
				c.logger.Error("[RABBITMQ] Handler failed to process domain event: %v, body=%s", err, string(msg.Body))
				msg.Nack(false, true) // requeue, storage may recover
				continue
			}
			msg.Ack(false)
		}
	}()

	return nil
}

// GetQueueLength returns the number of messages waiting in the queue.
func (c *Client) GetQueueLength() (int, error) {
	queue, err := c.channel.QueueInspect(DomainEventQueueName)
	if err != nil {
		return 0, err
	}
	return queue.Messages, nil
}
